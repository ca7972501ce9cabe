package detect

import (
	"strings"

	"github.com/artikelservice/backend/internal/storage/models"
)

// MorphologyResult is the suffix analyzer's verdict for one word.
type MorphologyResult struct {
	IsNoun      bool
	IsAdjective bool
	IsVerb      bool
	GenderHints []models.Article
	Confidence  float64
}

type nounSuffix struct {
	suffix     string
	article    models.Article
	confidence float64
}

type formSuffix struct {
	suffix     string
	confidence float64
}

// Noun-forming suffixes with the gender they mark. Ordered longest first so
// "-ismus" wins over "-us"-style near-misses; within a length tie the order
// is the declaration order.
var nounSuffixes = []nounSuffix{
	{"schaft", models.ArticleDie, 0.90},
	{"ismus", models.ArticleDer, 0.92},
	{"keit", models.ArticleDie, 0.92},
	{"heit", models.ArticleDie, 0.92},
	{"ität", models.ArticleDie, 0.92},
	{"tion", models.ArticleDie, 0.92},
	{"chen", models.ArticleDas, 0.92},
	{"lein", models.ArticleDas, 0.92},
	{"ling", models.ArticleDer, 0.88},
	{"ment", models.ArticleDas, 0.85},
	{"ung", models.ArticleDie, 0.90},
	{"ion", models.ArticleDie, 0.88},
	{"enz", models.ArticleDie, 0.88},
	{"anz", models.ArticleDie, 0.88},
	{"eur", models.ArticleDer, 0.85},
	{"ist", models.ArticleDer, 0.85},
	{"tum", models.ArticleDas, 0.82},
	{"ik", models.ArticleDie, 0.85},
	{"ei", models.ArticleDie, 0.80},
	{"or", models.ArticleDer, 0.80},
	{"er", models.ArticleDer, 0.70},
	{"ur", models.ArticleDie, 0.70},
	{"ma", models.ArticleDas, 0.65},
	{"in", models.ArticleDie, 0.65},
	{"e", models.ArticleDie, 0.60},
}

var adjectiveSuffixes = []formSuffix{
	{"lich", 0.85},
	{"isch", 0.85},
	{"haft", 0.85},
	{"voll", 0.82},
	{"bar", 0.88},
	{"sam", 0.85},
	{"los", 0.88},
	{"ig", 0.85},
}

var verbSuffixes = []formSuffix{
	{"ieren", 0.90},
	{"eln", 0.85},
	{"ern", 0.75},
}

// Morphology maps word endings to gender hints or to adjective/verb
// classification. Matching is case-insensitive and anchored to the end of
// the word.
type Morphology struct{}

func NewMorphology() *Morphology {
	return &Morphology{}
}

func (m *Morphology) Analyze(word string) MorphologyResult {
	word = strings.ToLower(strings.TrimSpace(word))

	var res MorphologyResult
	if word == "" {
		return res
	}

	for _, rule := range nounSuffixes {
		// The suffix must leave at least one leading character, otherwise
		// the rule would classify itself.
		if len(word) > len(rule.suffix) && strings.HasSuffix(word, rule.suffix) {
			res.IsNoun = true
			if !hintKnown(res.GenderHints, rule.article) {
				res.GenderHints = append(res.GenderHints, rule.article)
			}
			if rule.confidence > res.Confidence {
				res.Confidence = rule.confidence
			}
		}
	}

	for _, rule := range adjectiveSuffixes {
		if len(word) > len(rule.suffix) && strings.HasSuffix(word, rule.suffix) {
			res.IsAdjective = true
			if rule.confidence > res.Confidence {
				res.Confidence = rule.confidence
			}
		}
	}

	for _, rule := range verbSuffixes {
		if len(word) > len(rule.suffix) && strings.HasSuffix(word, rule.suffix) {
			res.IsVerb = true
			if rule.confidence > res.Confidence {
				res.Confidence = rule.confidence
			}
		}
	}

	return res
}

func hintKnown(hints []models.Article, a models.Article) bool {
	for _, h := range hints {
		if h == a {
			return true
		}
	}
	return false
}
