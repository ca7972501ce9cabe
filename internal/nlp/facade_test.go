package nlp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artikelservice/backend/internal/corrections"
	"github.com/artikelservice/backend/internal/detect"
	"github.com/artikelservice/backend/internal/lexicon"
	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/internal/storage/sqlite"
	"github.com/artikelservice/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

func newTestFacade(t *testing.T) *Facade {
	t.Helper()

	db, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	table := lexicon.NewTable()
	table.Replace(map[string]models.LexicalRecord{
		"hund": {Word: "hund", Article: models.ArticleDer, Plural: "Hunde", Confidence: 0.95},
		"haus": {Word: "haus", Article: models.ArticleDas, Plural: "Häuser", Confidence: 0.95},
		"see": {
			Word: "see", Article: models.ArticleDer, Confidence: 0.75,
			AlternativeArticles: []models.Article{models.ArticleDie},
			HasMultipleMeanings: true,
		},
	}, models.ProcessingStats{}, "v1", time.Now())

	store := corrections.NewStore(db, 0.5)
	detector := detect.NewDetector(detect.Config{}, table, store, detect.NewContextAnalyzer(20))

	return NewFacade(table, detector, store)
}

func TestNormalizeWord(t *testing.T) {
	f := newTestFacade(t)

	assert.Equal(t, "hund", f.NormalizeWord("  Hund "))
	assert.Equal(t, "hund", f.NormalizeWord("der Hund"))
	assert.Equal(t, "bank", f.NormalizeWord("eine Bank"))
	// A bare article is the word itself, not a prefix to strip.
	assert.Equal(t, "der", f.NormalizeWord("der"))
	assert.Equal(t, "strasse", f.NormalizeWord("STRASSE"))
}

func TestIsValidGermanWord(t *testing.T) {
	f := newTestFacade(t)

	assert.True(t, f.IsValidGermanWord("Hund"))
	assert.True(t, f.IsValidGermanWord("straße"))
	assert.True(t, f.IsValidGermanWord("müll"))
	assert.True(t, f.IsValidGermanWord("e-mail"))

	assert.False(t, f.IsValidGermanWord("a"))
	assert.False(t, f.IsValidGermanWord("hund123"))
	assert.False(t, f.IsValidGermanWord("-hund"))
	assert.False(t, f.IsValidGermanWord("zwei wörter"))
	assert.False(t, f.IsValidGermanWord(""))
}

func TestGetWordDataFromTable(t *testing.T) {
	f := newTestFacade(t)

	data := f.GetWordData(context.Background(), "der Hund")
	require.NotNil(t, data)
	assert.Equal(t, "hund", data.Word)
	assert.Equal(t, models.ArticleDer, data.Article)
	assert.Equal(t, "Hunde", data.Plural)
	assert.Equal(t, "noun", data.PartOfSpeech)
	assert.Equal(t, []string{"table"}, data.Sources)
	assert.Equal(t, []string{"Der Hund ist hier.", "Ich sehe den Hund."}, data.Examples)
}

func TestGetWordDataAccusativeUnchangedForNeuter(t *testing.T) {
	f := newTestFacade(t)

	data := f.GetWordData(context.Background(), "haus")
	assert.Equal(t, []string{"Das Haus ist hier.", "Ich sehe das Haus."}, data.Examples)
}

func TestGetWordDataInvalidInput(t *testing.T) {
	f := newTestFacade(t)

	data := f.GetWordData(context.Background(), "h4x0r!!")
	require.NotNil(t, data)
	assert.Equal(t, "invalid", data.PartOfSpeech)
	assert.Empty(t, data.Article)
	assert.Equal(t, []string{"validation"}, data.Sources)
}

func TestGetWordDataHomonyms(t *testing.T) {
	f := newTestFacade(t)

	data := f.GetWordData(context.Background(), "see")
	require.Len(t, data.Homonyms, 1)
	h := data.Homonyms[0]
	assert.Equal(t, models.ArticleDie, h.Article)
	assert.Equal(t, "table", h.Source)
	assert.InDelta(t, 0.75*0.9, h.Confidence, 1e-9)
	assert.NotEmpty(t, h.Meaning, "curated homonym senses carry a meaning")
}

func TestGetWordDataUnknownWord(t *testing.T) {
	f := newTestFacade(t)

	data := f.GetWordData(context.Background(), "xyzkrawutz")
	assert.Equal(t, "unknown", data.PartOfSpeech)
	assert.Empty(t, data.Article)
	assert.Equal(t, []string{"detector:unknown"}, data.Sources)
	assert.Empty(t, data.Examples)
}

func TestCorrectionOverridesTable(t *testing.T) {
	f := newTestFacade(t)
	die := models.ArticleDie

	for i := 0; i < 2; i++ {
		_, err := f.AddUserCorrection(context.Background(), "haus", &die)
		require.NoError(t, err)
	}

	data := f.GetWordData(context.Background(), "haus")
	assert.Equal(t, models.ArticleDie, data.Article)
	assert.Contains(t, data.Sources, "detector:user_correction")
	assert.Contains(t, data.Sources, "table")
	assert.Equal(t, "Häuser", data.Plural, "plural still comes from the table record")
}

func TestCorrectionInvalidatesMemo(t *testing.T) {
	f := newTestFacade(t)
	die := models.ArticleDie

	// Prime the memo with the table verdict.
	before := f.Detect("haus", "")
	assert.Equal(t, models.ArticleDas, before.Article)

	for i := 0; i < 2; i++ {
		_, err := f.AddUserCorrection(context.Background(), "haus", &die)
		require.NoError(t, err)
	}

	after := f.Detect("haus", "")
	assert.Equal(t, models.ArticleDie, after.Article)
	assert.Equal(t, "user_correction", after.Rule)
}

func TestAddUserCorrectionRejectsInvalid(t *testing.T) {
	f := newTestFacade(t)
	der := models.ArticleDer

	_, err := f.AddUserCorrection(context.Background(), "123", &der)
	assert.Error(t, err)
}

func TestDetectInvalidInput(t *testing.T) {
	f := newTestFacade(t)

	res := f.Detect("!!", "")
	assert.Equal(t, "invalid_input", res.Rule)
	assert.Zero(t, res.Confidence)
}

func TestFindSimilarWords(t *testing.T) {
	f := newTestFacade(t)

	similar := f.FindSimilarWords("hunde", 10)
	assert.Contains(t, similar, "hund")

	assert.Nil(t, f.FindSimilarWords("   ", 10))
}

func TestQualityAssessment(t *testing.T) {
	f := newTestFacade(t)

	report := f.QualityAssessment()
	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, "poor", report.Rating)
}
