package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artikelservice/backend/internal/corrections"
	"github.com/artikelservice/backend/internal/detect"
	"github.com/artikelservice/backend/internal/lexicon"
	"github.com/artikelservice/backend/internal/nlp"
	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/internal/storage/sqlite"
	"github.com/artikelservice/backend/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.InitNop()
	m.Run()
}

// newTestApp wires the real stack against an in-memory database and a stub
// dataset source that serves too few rows for a refresh to be viable.
func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	db, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })

	table := lexicon.NewTable()
	table.Replace(map[string]models.LexicalRecord{
		"hund": {Word: "hund", Article: models.ArticleDer, Plural: "Hunde", Confidence: 0.95},
		"haus": {Word: "haus", Article: models.ArticleDas, Plural: "Häuser", Confidence: 0.95},
	}, models.ProcessingStats{}, "v1", time.Now())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(strings.Repeat("col,", 75) + "col\n"))
	}))
	t.Cleanup(srv.Close)

	fetcher := lexicon.NewFetcher(srv.URL, 5*time.Second, 10)
	loader := lexicon.NewLoader(lexicon.LoaderConfig{
		MinValidRows: 1000,
		CacheTTL:     time.Hour,
	}, fetcher, db, table)

	store := corrections.NewStore(db, 0.5)
	detector := detect.NewDetector(detect.Config{}, table, store, detect.NewContextAnalyzer(20))
	facade := nlp.NewFacade(table, detector, store)

	h := NewWordHandler(facade, loader)

	app := fiber.New()
	api := app.Group("/api/v1")
	api.Get("/words/:word", h.GetWord)
	api.Get("/words/:word/similar", h.SimilarWords)
	api.Post("/detect", h.Detect)
	api.Post("/corrections", h.AddCorrection)
	api.Get("/quality", h.Quality)
	api.Post("/refresh", h.Refresh)

	return app
}

func decodeBody(t *testing.T, resp *http.Response) map[string]interface{} {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func TestGetWordEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/words/Hund", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "hund", body["word"])
	assert.Equal(t, "der", body["article"])
	assert.Equal(t, "Hunde", body["plural"])
}

func TestDetectEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/detect",
		strings.NewReader(`{"word":"der Haus"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "haus", body["word"])
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "table", result["rule"])
	assert.Equal(t, "das", result["article"])
}

func TestDetectEndpointBadBody(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/detect", strings.NewReader("{broken"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAddCorrectionEndpoint(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/corrections",
		strings.NewReader(`{"word":"Haus","article":"die"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "haus", body["word"])
	assert.Equal(t, float64(1), body["times_confirmed"])
}

func TestAddCorrectionRejectsBadArticle(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/corrections",
		strings.NewReader(`{"word":"Haus","article":"le"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAddCorrectionNullArticle(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest("POST", "/api/v1/corrections",
		strings.NewReader(`{"word":"blau","article":null}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSimilarWordsEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/words/hunde/similar?limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	similar := body["similar"].([]interface{})
	assert.Contains(t, similar, "hund")
}

func TestQualityEndpoint(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/quality", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	report := body["report"].(map[string]interface{})
	assert.Equal(t, float64(2), report["total_entries"])
	assert.Equal(t, "poor", report["rating"])
}

func TestRefreshEndpointRejectedRun(t *testing.T) {
	app := newTestApp(t)

	resp, err := app.Test(httptest.NewRequest("POST", "/api/v1/refresh", nil), 10000)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["error"])
}
