package nlp

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	rediscache "github.com/artikelservice/backend/internal/cache/redis"
	"github.com/artikelservice/backend/internal/corrections"
	"github.com/artikelservice/backend/internal/detect"
	"github.com/artikelservice/backend/internal/lexicon"
	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/pkg/logger"
)

// Enricher is the interface to richer, optional word sources such as a full
// Wiktionary entry scraper. Implementations live outside this service and
// never take part in the gender decision.
type Enricher interface {
	Enrich(ctx context.Context, word string) (*models.WordData, error)
}

var validWordPattern = regexp.MustCompile(`^[a-zäöüß][a-zäöüß-]*$`)

// Leading tokens a caller may have typed in front of the word itself.
var leadingArticles = map[string]struct{}{
	"der": {}, "die": {}, "das": {}, "dem": {}, "den": {}, "des": {},
	"ein": {}, "eine": {}, "einem": {}, "einen": {}, "einer": {}, "eines": {},
}

// Facade is the public entry point of the detection engine. It normalizes
// input, merges the reference table's direct lookup with the cascade's
// verdict, and never lets an internal failure escape as anything but a
// low-confidence result.
type Facade struct {
	table      *lexicon.Table
	detector   *detect.Detector
	store      *corrections.Store
	exact      *detect.ExactMatch
	cache      *rediscache.Client
	enricher   Enricher
	lowerCaser cases.Caser
	titleCaser cases.Caser
}

func NewFacade(table *lexicon.Table, detector *detect.Detector, store *corrections.Store) *Facade {
	return &Facade{
		table:      table,
		detector:   detector,
		store:      store,
		exact:      detect.NewExactMatch(),
		lowerCaser: cases.Lower(language.German),
		titleCaser: cases.Title(language.German),
	}
}

// WithCache attaches an optional shared response cache.
func (f *Facade) WithCache(cache *rediscache.Client) *Facade {
	f.cache = cache
	return f
}

// WithEnricher attaches an optional enrichment source.
func (f *Facade) WithEnricher(e Enricher) *Facade {
	f.enricher = e
	return f
}

// NormalizeWord trims the input, strips a leading article token the caller
// may have typed, and lowercases with German casing rules.
func (f *Facade) NormalizeWord(raw string) string {
	trimmed := strings.TrimSpace(raw)
	fields := strings.Fields(f.lowerCaser.String(trimmed))
	if len(fields) > 1 {
		if _, ok := leadingArticles[fields[0]]; ok {
			fields = fields[1:]
		}
	}
	return strings.Join(fields, " ")
}

// IsValidGermanWord checks the restricted character set (including umlauts
// and ß) and the 2-50 character length bounds.
func (f *Facade) IsValidGermanWord(word string) bool {
	word = f.lowerCaser.String(strings.TrimSpace(word))
	n := utf8.RuneCountInString(word)
	if n < 2 || n > 50 {
		return false
	}
	return validWordPattern.MatchString(word)
}

// GetWordData answers the full word profile: article, plural, homonym
// senses, example sentences, and the sources that produced the answer.
func (f *Facade) GetWordData(ctx context.Context, rawWord string) (data *models.WordData) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("GetWordData recovered from panic", zap.Any("panic", r))
			data = &models.WordData{
				Word:         f.NormalizeWord(rawWord),
				PartOfSpeech: "unknown",
				Confidence:   0.1,
				Sources:      []string{"error"},
			}
		}
	}()

	word := f.NormalizeWord(rawWord)
	if !f.IsValidGermanWord(word) {
		return &models.WordData{
			Word:         word,
			PartOfSpeech: "invalid",
			Sources:      []string{"validation"},
		}
	}

	if f.cache != nil {
		var cached models.WordData
		if ok, err := f.cache.GetWordData(ctx, word, &cached); err == nil && ok {
			return &cached
		}
	}

	rec, inTable := f.table.Lookup(word)
	verdict := f.detector.Detect(word, "")

	data = f.merge(word, rec, inTable, verdict)
	data.Examples = f.exampleSentences(word, data.Article)
	if inTable {
		data.Homonyms = f.homonyms(rec)
	}

	if f.enricher != nil {
		if enriched, err := f.enricher.Enrich(ctx, word); err == nil && enriched != nil {
			data.Examples = append(data.Examples, enriched.Examples...)
		}
	}

	if f.cache != nil {
		if err := f.cache.SetWordData(ctx, word, data); err != nil {
			logger.Warn("Failed to cache word data", zap.Error(err))
		}
	}

	return data
}

// merge chooses between the table record and the cascade verdict. The table
// is authoritative for words it holds, unless a confident user correction
// already won inside the cascade.
func (f *Facade) merge(word string, rec models.LexicalRecord, inTable bool, verdict models.DetectionResult) *models.WordData {
	if verdict.Rule == "user_correction" {
		data := &models.WordData{
			Word:       word,
			Article:    verdict.Article,
			Confidence: verdict.Confidence,
			Sources:    []string{"detector:user_correction"},
		}
		if verdict.IsNoun {
			data.PartOfSpeech = "noun"
			if inTable {
				data.Plural = rec.Plural
				data.Sources = append(data.Sources, "table")
			}
		} else {
			data.PartOfSpeech = "non_noun"
		}
		return data
	}

	if inTable {
		return &models.WordData{
			Word:         word,
			Article:      rec.Article,
			Plural:       rec.Plural,
			PartOfSpeech: "noun",
			Confidence:   rec.Confidence,
			Sources:      []string{"table"},
		}
	}

	data := &models.WordData{
		Word:       word,
		Confidence: verdict.Confidence,
		Sources:    []string{"detector:" + verdict.Rule},
	}
	if verdict.IsNoun {
		data.Article = verdict.Article
		data.PartOfSpeech = "noun"
	} else if verdict.Rule == "unknown" {
		data.PartOfSpeech = "unknown"
	} else {
		data.PartOfSpeech = verdict.Category
	}
	return data
}

// Detect runs the cascade for one word with optional surrounding text.
func (f *Facade) Detect(word, surrounding string) (res models.DetectionResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Detect recovered from panic", zap.Any("panic", r))
			res = models.DetectionResult{Rule: "error", Confidence: 0.1}
		}
	}()

	normalized := f.NormalizeWord(word)
	if !f.IsValidGermanWord(normalized) {
		return models.DetectionResult{
			Rule:   "invalid_input",
			Reason: "word is empty, too long, or contains characters outside the German alphabet",
		}
	}
	return f.detector.Detect(normalized, surrounding)
}

// AddUserCorrection records an override and invalidates every cache that
// could still answer with the old verdict.
func (f *Facade) AddUserCorrection(ctx context.Context, word string, article *models.Article) (models.CorrectionRecord, error) {
	normalized := f.NormalizeWord(word)
	if !f.IsValidGermanWord(normalized) {
		return models.CorrectionRecord{}, fmt.Errorf("invalid word %q", word)
	}

	rec, err := f.store.Record(normalized, article)
	if err != nil {
		return models.CorrectionRecord{}, err
	}

	f.detector.InvalidateWord(normalized)
	if f.cache != nil {
		if err := f.cache.InvalidateWord(ctx, normalized); err != nil {
			logger.Warn("Failed to invalidate response cache", zap.Error(err))
		}
	}

	return rec, nil
}

// FindSimilarWords lists table words resembling the given one.
func (f *Facade) FindSimilarWords(word string, limit int) []string {
	normalized := f.NormalizeWord(word)
	if normalized == "" {
		return nil
	}
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return f.table.Similar(normalized, limit)
}

// QualityAssessment reports how trustworthy the loaded dataset currently is.
func (f *Facade) QualityAssessment() models.QualityReport {
	return f.table.Quality()
}

// homonyms collects the additional gender senses of a table record, highest
// confidence first.
func (f *Facade) homonyms(rec models.LexicalRecord) []models.Homonym {
	if len(rec.AlternativeArticles) == 0 {
		return nil
	}

	entry, hasEntry := f.exact.Lookup(rec.Word)

	out := make([]models.Homonym, 0, len(rec.AlternativeArticles))
	conf := rec.Confidence
	for _, alt := range rec.AlternativeArticles {
		conf *= 0.9
		h := models.Homonym{
			Article:    alt,
			Source:     "table",
			Confidence: conf,
		}
		if hasEntry && entry.AltArticle == alt {
			h.Meaning = entry.AltMeaning
		}
		out = append(out, h)
	}
	return out
}

// exampleSentences fills two fixed templates with the word and its article.
// German nouns are capitalized, so the word is title-cased.
func (f *Facade) exampleSentences(word string, article models.Article) []string {
	if article == "" {
		return nil
	}
	noun := f.titleCaser.String(word)
	return []string{
		fmt.Sprintf("%s %s ist hier.", f.titleCaser.String(string(article)), noun),
		fmt.Sprintf("Ich sehe %s %s.", article.Accusative(), noun),
	}
}
