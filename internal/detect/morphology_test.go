package detect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artikelservice/backend/internal/storage/models"
)

func TestMorphologyNounSuffixes(t *testing.T) {
	m := NewMorphology()

	tests := []struct {
		word    string
		article models.Article
		minConf float64
	}{
		{"zeitung", models.ArticleDie, 0.90},
		{"freiheit", models.ArticleDie, 0.92},
		{"möglichkeit", models.ArticleDie, 0.92},
		{"mädchen", models.ArticleDas, 0.92},
		{"optimismus", models.ArticleDer, 0.92},
		{"mannschaft", models.ArticleDie, 0.90},
		{"büchlein", models.ArticleDas, 0.92},
		{"lehrling", models.ArticleDer, 0.88},
		{"dokument", models.ArticleDas, 0.85},
		{"frequenz", models.ArticleDie, 0.88},
		{"bäckerei", models.ArticleDie, 0.80},
		{"reichtum", models.ArticleDas, 0.82},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			res := m.Analyze(tt.word)
			assert.True(t, res.IsNoun)
			require.NotEmpty(t, res.GenderHints)
			assert.Equal(t, tt.article, res.GenderHints[0])
			assert.GreaterOrEqual(t, res.Confidence, tt.minConf)
		})
	}
}

func TestMorphologyAdjectiveSuffixes(t *testing.T) {
	m := NewMorphology()

	for _, word := range []string{"freundlich", "dankbar", "hoffnungslos", "sparsam"} {
		res := m.Analyze(word)
		assert.True(t, res.IsAdjective, word)
		assert.GreaterOrEqual(t, res.Confidence, 0.85, word)
	}
}

func TestMorphologyVerbSuffixes(t *testing.T) {
	m := NewMorphology()

	res := m.Analyze("studieren")
	assert.True(t, res.IsVerb)
	assert.False(t, res.IsNoun)
	assert.InDelta(t, 0.90, res.Confidence, 1e-9)

	res = m.Analyze("sammeln")
	assert.True(t, res.IsVerb)
}

// A word consisting only of the suffix must not classify itself.
func TestMorphologySuffixAloneIsNoMatch(t *testing.T) {
	m := NewMorphology()

	for _, word := range []string{"ung", "chen", "lich", "e"} {
		res := m.Analyze(word)
		assert.False(t, res.IsNoun, word)
		assert.False(t, res.IsAdjective, word)
		assert.False(t, res.IsVerb, word)
	}
}

// "-erei" style words carry both the weak "-er"-adjacent signals and the
// strong "-ei" one; the strongest match sets the confidence.
func TestMorphologyStrongestSuffixWins(t *testing.T) {
	m := NewMorphology()

	res := m.Analyze("situation")
	assert.True(t, res.IsNoun)
	require.NotEmpty(t, res.GenderHints)
	assert.Equal(t, models.ArticleDie, res.GenderHints[0])
	assert.InDelta(t, 0.92, res.Confidence, 1e-9) // "tion" over "ion"
}

func TestMorphologyEmptyAndUnknown(t *testing.T) {
	m := NewMorphology()

	assert.Equal(t, MorphologyResult{}, m.Analyze(""))

	res := m.Analyze("prost")
	assert.False(t, res.IsNoun)
	assert.False(t, res.IsAdjective)
	assert.False(t, res.IsVerb)
	assert.Zero(t, res.Confidence)
}
