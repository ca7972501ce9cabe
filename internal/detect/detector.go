package detect

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/lexicon"
	"github.com/artikelservice/backend/internal/metrics"
	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/pkg/logger"
	"github.com/artikelservice/backend/pkg/utils"
)

// CorrectionSource supplies user overrides to the cascade.
type CorrectionSource interface {
	Get(word string) (*models.CorrectionRecord, error)
}

type Config struct {
	MemoCeiling         int
	CorrectionThreshold float64
}

// Detector runs the classification stages in a fixed priority cascade and
// short-circuits on the first sufficiently confident verdict.
type Detector struct {
	blacklist   *Blacklist
	morphology  *Morphology
	context     *ContextAnalyzer
	exact       *ExactMatch
	table       *lexicon.Table
	corrections CorrectionSource

	memoCeiling         int
	correctionThreshold float64

	memoMu sync.Mutex
	memo   map[string]models.DetectionResult
}

func NewDetector(cfg Config, table *lexicon.Table, corrections CorrectionSource, context *ContextAnalyzer) *Detector {
	if cfg.MemoCeiling <= 0 {
		cfg.MemoCeiling = 1000
	}
	if cfg.CorrectionThreshold <= 0 {
		cfg.CorrectionThreshold = 0.5
	}
	return &Detector{
		blacklist:           NewBlacklist(),
		morphology:          NewMorphology(),
		context:             context,
		exact:               NewExactMatch(),
		table:               table,
		corrections:         corrections,
		memoCeiling:         cfg.MemoCeiling,
		correctionThreshold: cfg.CorrectionThreshold,
	}
}

// Detect classifies one word, optionally with surrounding text. Results are
// memoized per (word, context) pair.
func (d *Detector) Detect(word, surrounding string) models.DetectionResult {
	word = strings.ToLower(strings.TrimSpace(word))

	key := memoKey(word, surrounding)
	if res, ok := d.memoGet(key); ok {
		metrics.CacheHits.WithLabelValues("detection").Inc()
		return res
	}
	metrics.CacheMisses.WithLabelValues("detection").Inc()

	res := d.runCascade(word, surrounding)

	metrics.DetectionsTotal.WithLabelValues(res.Rule).Inc()
	metrics.DetectionConfidence.Observe(res.Confidence)
	logger.Debug("Word detected",
		zap.String("word", word),
		zap.String("rule", res.Rule),
		zap.String("article", string(res.Article)),
		zap.Float64("confidence", res.Confidence),
	)

	d.memoPut(key, res)
	return res
}

func (d *Detector) runCascade(word, surrounding string) models.DetectionResult {
	// 1. Exclusion classifier.
	if bl := d.blacklist.Check(word); bl.Blocked {
		return models.DetectionResult{
			Confidence: bl.Confidence,
			Rule:       "blacklist",
			Reason:     bl.Reason,
			Category:   bl.Category,
			IsNoun:     false,
		}
	}

	// 2. Morphology rejection.
	morph := d.morphology.Analyze(word)
	if (morph.IsAdjective || morph.IsVerb) && !morph.IsNoun && morph.Confidence >= 0.85 {
		category := "adjective"
		if morph.IsVerb && !morph.IsAdjective {
			category = "verb"
		}
		return models.DetectionResult{
			Confidence: morph.Confidence,
			Rule:       "morphology",
			Reason:     fmt.Sprintf("word ending marks a derived %s", category),
			Category:   category,
			IsNoun:     false,
		}
	}

	// 3. Context rejection.
	var ctxRes *ContextResult
	if surrounding != "" {
		r := d.context.Analyze(word, surrounding)
		ctxRes = &r
		if !r.IsNoun && r.Confidence >= 0.8 {
			return models.DetectionResult{
				Confidence: r.Confidence,
				Rule:       "context",
				Reason:     strings.Join(r.Evidence, "; "),
				Category:   "non_noun_context",
				IsNoun:     false,
			}
		}
	}

	// 4. User correction. A confident correction short-circuits all lexical
	// lookup.
	if d.corrections != nil {
		if corr, err := d.corrections.Get(word); err == nil && corr != nil {
			if conf := corr.Confidence(); conf > d.correctionThreshold {
				if corr.CorrectedArticle == nil {
					return models.DetectionResult{
						Confidence: conf,
						Rule:       "user_correction",
						Reason:     "users marked this word as not a noun",
						Category:   "correction",
						IsNoun:     false,
					}
				}
				return models.DetectionResult{
					Article:    *corr.CorrectedArticle,
					Confidence: conf,
					Rule:       "user_correction",
					Reason:     fmt.Sprintf("confirmed %d times by users", corr.TimesConfirmed),
					Category:   "correction",
					IsNoun:     true,
				}
			}
		}
	}

	// 5. Exact-match dictionary.
	if entry, ok := d.exact.Lookup(word); ok {
		return models.DetectionResult{
			Article:    entry.Article,
			Confidence: entry.Confidence,
			Rule:       "exact_match",
			Reason:     entry.Meaning,
			Category:   "homonym",
			IsNoun:     true,
		}
	}

	// 6. Lexical table.
	if rec, ok := d.table.Lookup(word); ok {
		reason := "found in reference dataset"
		if rec.HasMultipleMeanings {
			reason = "found in reference dataset, multiple genders known"
		}
		return models.DetectionResult{
			Article:    rec.Article,
			Confidence: rec.Confidence,
			Rule:       "table",
			Reason:     reason,
			Category:   "csv_database",
			IsNoun:     true,
		}
	}

	// 7. Morphology gender hint.
	if morph.IsNoun && len(morph.GenderHints) > 0 {
		return models.DetectionResult{
			Article:    morph.GenderHints[0],
			Confidence: morph.Confidence,
			Rule:       "morphology_hint",
			Reason:     "noun-forming word ending",
			Category:   "suffix",
			IsNoun:     true,
		}
	}

	// 8. Context noun hint. The context analyzer proves noun-ness, not
	// gender; masculine is the documented default approximation here.
	if ctxRes != nil && ctxRes.IsNoun {
		return models.DetectionResult{
			Article:    models.ArticleDer,
			Confidence: 0.4,
			Rule:       "context_noun",
			Reason:     "grammatical context marks a noun; gender defaulted to masculine: " + strings.Join(ctxRes.Evidence, "; "),
			Category:   "context",
			IsNoun:     true,
		}
	}

	// 9. Unknown.
	return models.DetectionResult{
		Confidence: 0.2,
		Rule:       "unknown",
		Reason:     "no classification source matched",
		IsNoun:     false,
	}
}

// InvalidateWord drops memoized results for one word, with any context.
// Called when a user correction changes what the cascade would answer.
func (d *Detector) InvalidateWord(word string) {
	prefix := strings.ToLower(strings.TrimSpace(word)) + ":"
	d.memoMu.Lock()
	for k := range d.memo {
		if strings.HasPrefix(k, prefix) {
			delete(d.memo, k)
		}
	}
	d.memoMu.Unlock()
}

// MemoSize reports the current number of memoized verdicts.
func (d *Detector) MemoSize() int {
	d.memoMu.Lock()
	defer d.memoMu.Unlock()
	return len(d.memo)
}

func (d *Detector) memoGet(key string) (models.DetectionResult, bool) {
	d.memoMu.Lock()
	defer d.memoMu.Unlock()
	res, ok := d.memo[key]
	return res, ok
}

// memoPut stores a verdict. Once the memo exceeds its ceiling it is cleared
// wholesale; a full reset is simpler than partial eviction and the cascade
// is cheap to re-run.
func (d *Detector) memoPut(key string, res models.DetectionResult) {
	d.memoMu.Lock()
	defer d.memoMu.Unlock()
	if d.memo == nil {
		d.memo = make(map[string]models.DetectionResult)
	}
	if len(d.memo) >= d.memoCeiling {
		d.memo = make(map[string]models.DetectionResult)
	}
	d.memo[key] = res
}

func memoKey(word, surrounding string) string {
	return word + ":" + utils.HashString(surrounding)
}
