package lexicon

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/artikelservice/backend/internal/storage/models"
)

// generation is one immutable snapshot of the reference dataset. The table
// swaps whole generations; records inside one are never mutated.
type generation struct {
	records   map[string]models.LexicalRecord
	stats     models.ProcessingStats
	version   string
	fetchedAt time.Time
}

// Table is the read side of the lexicon. Lookups during a refresh keep
// serving the previous generation until the swap completes.
type Table struct {
	mu  sync.RWMutex
	gen *generation
}

func NewTable() *Table {
	return &Table{gen: &generation{records: map[string]models.LexicalRecord{}}}
}

func (t *Table) Replace(records map[string]models.LexicalRecord, stats models.ProcessingStats, version string, fetchedAt time.Time) {
	next := &generation{
		records:   records,
		stats:     stats,
		version:   version,
		fetchedAt: fetchedAt,
	}
	t.mu.Lock()
	t.gen = next
	t.mu.Unlock()
}

func (t *Table) snapshot() *generation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen
}

func (t *Table) Lookup(word string) (models.LexicalRecord, bool) {
	rec, ok := t.snapshot().records[strings.ToLower(strings.TrimSpace(word))]
	return rec, ok
}

func (t *Table) Size() int {
	return len(t.snapshot().records)
}

func (t *Table) Stats() models.ProcessingStats {
	return t.snapshot().stats
}

func (t *Table) FetchedAt() time.Time {
	return t.snapshot().fetchedAt
}

// Similar returns table words resembling the given one: shared prefixes
// first, then shared endings. Intended for "did you mean" listings, not a
// proper edit-distance search.
func (t *Table) Similar(word string, limit int) []string {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" || limit <= 0 {
		return nil
	}

	prefix := word
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	suffix := ""
	if len(word) > 3 {
		suffix = word[len(word)-3:]
	}

	type scored struct {
		word  string
		score int
	}

	var candidates []scored
	for w := range t.snapshot().records {
		if w == word {
			continue
		}
		switch {
		case strings.HasPrefix(w, prefix):
			candidates = append(candidates, scored{w, commonPrefixLen(w, word)})
		case suffix != "" && strings.HasSuffix(w, suffix):
			candidates = append(candidates, scored{w, 1})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].word < candidates[j].word
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.word)
	}
	return out
}

// Quality buckets and counts the current generation for the facade's
// data-quality report.
func (t *Table) Quality() models.QualityReport {
	gen := t.snapshot()

	report := models.QualityReport{
		TotalEntries: len(gen.records),
		GenderCounts: map[models.Article]int{},
		Stats:        gen.stats,
	}

	var sum float64
	for _, rec := range gen.records {
		sum += rec.Confidence
		switch {
		case rec.Confidence >= 0.8:
			report.HighConfidence++
		case rec.Confidence >= 0.5:
			report.MediumConfidence++
		default:
			report.LowConfidence++
		}
		report.GenderCounts[rec.Article]++
		if rec.Plural != "" {
			report.WithPlural++
		}
		if len(rec.AlternativeArticles) > 0 {
			report.WithAlternatives++
		}
	}
	if report.TotalEntries > 0 {
		report.AverageConfidence = sum / float64(report.TotalEntries)
	}

	switch {
	case report.TotalEntries < 5000:
		report.Rating = "poor"
	case report.TotalEntries < 15000:
		report.Rating = "fair"
	case report.TotalEntries >= 25000 && report.AverageConfidence >= 0.8:
		report.Rating = "excellent"
	default:
		report.Rating = "good"
	}

	return report
}

func commonPrefixLen(a, b string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}
