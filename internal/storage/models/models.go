package models

import (
	"strings"
	"time"
)

// Article is the grammatical gender marker of a German noun.
type Article string

const (
	ArticleDer Article = "der"
	ArticleDie Article = "die"
	ArticleDas Article = "das"
)

// ParseArticle normalizes a gender token from the source dataset. It accepts
// both the single-letter genus codes used by Wiktionary exports (m/f/n) and
// the literal article words, case-insensitively.
func ParseArticle(token string) (Article, bool) {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "m", "der":
		return ArticleDer, true
	case "f", "die":
		return ArticleDie, true
	case "n", "das":
		return ArticleDas, true
	default:
		return "", false
	}
}

// Accusative returns the declined form of the definite article in the
// accusative case. Only the masculine article changes.
func (a Article) Accusative() string {
	if a == ArticleDer {
		return "den"
	}
	return string(a)
}

// LexicalRecord is one known noun from the reference dataset. Word is the
// lowercase lookup key and the dataset's unique key.
type LexicalRecord struct {
	Word                string    `json:"word"`
	Article             Article   `json:"article"`
	Plural              string    `json:"plural,omitempty"`
	AlternativeArticles []Article `json:"alternative_articles,omitempty"`
	AlternativePlurals  []string  `json:"alternative_plurals,omitempty"`
	Confidence          float64   `json:"confidence"`
	LastUpdated         time.Time `json:"last_updated"`
	HasMultipleMeanings bool      `json:"has_multiple_meanings"`
}

// DetectionResult is the verdict of one detection call. An empty Article
// means the word was classified as not a noun, or its gender is unknown;
// Confidence then reflects rejection certainty, not gender certainty.
type DetectionResult struct {
	Article    Article `json:"article,omitempty"`
	Confidence float64 `json:"confidence"`
	Rule       string  `json:"rule"`
	Reason     string  `json:"reason,omitempty"`
	Category   string  `json:"category,omitempty"`
	IsNoun     bool    `json:"is_noun"`
}

// CorrectionRecord is a user-submitted override for one word. A nil
// CorrectedArticle records "this word is not a noun".
type CorrectionRecord struct {
	Word             string    `json:"word"`
	CorrectedArticle *Article  `json:"corrected_article"`
	TimesConfirmed   int       `json:"times_confirmed"`
	LastConfirmedAt  time.Time `json:"last_confirmed_at"`
}

// Confidence grows with repeated confirmation and stays below 1.0 so a
// correction never outranks every other source unconditionally.
func (c CorrectionRecord) Confidence() float64 {
	conf := float64(c.TimesConfirmed) / 3.0
	if conf > 0.95 {
		conf = 0.95
	}
	return conf
}

const maxCollectedErrors = 100

// ProcessingStats summarizes one ingestion run.
type ProcessingStats struct {
	RunID           string    `json:"run_id"`
	TotalRows       int       `json:"total_rows"`
	ParsedRows      int       `json:"parsed_rows"`
	SkippedRows     int       `json:"skipped_rows"`
	MultiGenderRows int       `json:"multi_gender_rows"`
	MultiPluralRows int       `json:"multi_plural_rows"`
	Errors          []string  `json:"errors,omitempty"`
	OmittedErrors   int       `json:"omitted_errors,omitempty"`
	StartedAt       time.Time `json:"started_at"`
	DurationMS      int64     `json:"duration_ms"`
}

// AddError collects a per-line error message. Collection is capped; past the
// cap only a counter is kept and a single summary entry is appended.
func (s *ProcessingStats) AddError(msg string) {
	if len(s.Errors) < maxCollectedErrors {
		s.Errors = append(s.Errors, msg)
		return
	}
	if s.OmittedErrors == 0 {
		s.Errors = append(s.Errors, "further errors omitted")
	}
	s.OmittedErrors++
}

// WordData is the facade's answer for one word.
type WordData struct {
	Word         string    `json:"word"`
	Article      Article   `json:"article,omitempty"`
	Plural       string    `json:"plural,omitempty"`
	PartOfSpeech string    `json:"part_of_speech"`
	Confidence   float64   `json:"confidence"`
	Sources      []string  `json:"sources"`
	Examples     []string  `json:"examples,omitempty"`
	Homonyms     []Homonym `json:"homonyms,omitempty"`
}

// Homonym is one additional gender sense of a word.
type Homonym struct {
	Article    Article `json:"article"`
	Meaning    string  `json:"meaning,omitempty"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// QualityReport describes how trustworthy the currently loaded dataset is.
type QualityReport struct {
	TotalEntries      int             `json:"total_entries"`
	AverageConfidence float64         `json:"average_confidence"`
	HighConfidence    int             `json:"high_confidence"`
	MediumConfidence  int             `json:"medium_confidence"`
	LowConfidence     int             `json:"low_confidence"`
	GenderCounts      map[Article]int `json:"gender_counts"`
	WithPlural        int             `json:"with_plural"`
	WithAlternatives  int             `json:"with_alternatives"`
	Rating            string          `json:"rating"`
	Stats             ProcessingStats `json:"ingestion_stats"`
}
