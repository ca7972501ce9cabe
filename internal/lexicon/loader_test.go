package lexicon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/internal/storage/sqlite"
)

func goodPayload() string {
	return makePayload(
		makeRow("Hund", "Substantiv", []string{"m"}, "Hunde"),
		makeRow("Katze", "Substantiv", []string{"f"}, "Katzen"),
		makeRow("Haus", "Substantiv", []string{"n"}, "Häuser"),
	)
}

func newTestDB(t *testing.T) *sqlite.Client {
	t.Helper()
	db, err := sqlite.NewClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.InitSchema())
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestLoader(t *testing.T, url string, db *sqlite.Client, table *Table) *Loader {
	t.Helper()
	fetcher := NewFetcher(url, 5*time.Second, 10)
	return NewLoader(LoaderConfig{
		MinValidRows: 3,
		CacheTTL:     time.Hour,
	}, fetcher, db, table)
}

func TestLoadRefreshesFromSource(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(goodPayload()))
	}))
	defer srv.Close()

	table := NewTable()
	loader := newTestLoader(t, srv.URL, newTestDB(t), table)

	refreshed, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, 3, table.Size())
	assert.Equal(t, int32(1), requests.Load())
	assert.Empty(t, loader.LastError())

	rec, ok := table.Lookup("Hund")
	require.True(t, ok)
	assert.Equal(t, models.ArticleDer, rec.Article)
}

func TestLoadIdempotentWhileFresh(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(goodPayload()))
	}))
	defer srv.Close()

	table := NewTable()
	loader := newTestLoader(t, srv.URL, newTestDB(t), table)

	_, err := loader.Load(context.Background(), false)
	require.NoError(t, err)

	refreshed, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, int32(1), requests.Load(), "fresh table must not trigger a second fetch")
}

func TestLoadRejectsBelowViability(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) == 1 {
			w.Write([]byte(goodPayload()))
			return
		}
		// Second response parses to fewer valid rows than the threshold.
		w.Write([]byte(makePayload(
			makeRow("Hund", "Substantiv", []string{"m"}, ""),
			makeRow("Katze", "Substantiv", []string{"f"}, ""),
		)))
	}))
	defer srv.Close()

	table := NewTable()
	loader := newTestLoader(t, srv.URL, newTestDB(t), table)

	_, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 3, table.Size())

	refreshed, err := loader.Load(context.Background(), true)
	assert.ErrorIs(t, err, ErrBelowViability)
	assert.False(t, refreshed)
	assert.Equal(t, 3, table.Size(), "rejected run must leave the previous generation in place")
	assert.NotEmpty(t, loader.LastError())
}

func TestLoadAdoptsPersistedCache(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(goodPayload()))
	}))
	defer srv.Close()

	db := newTestDB(t)

	table := NewTable()
	loader := newTestLoader(t, srv.URL, db, table)
	_, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, int32(1), requests.Load())

	// A restart: empty in-memory table, same database.
	table2 := NewTable()
	loader2 := newTestLoader(t, srv.URL, db, table2)

	refreshed, err := loader2.Load(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, refreshed)
	assert.Equal(t, 3, table2.Size())
	assert.Equal(t, int32(1), requests.Load(), "persisted cache must satisfy the load without a fetch")
}

func TestLoadDropsStaleCacheVersion(t *testing.T) {
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(goodPayload()))
	}))
	defer srv.Close()

	db := newTestDB(t)
	stale := map[string]models.LexicalRecord{
		"alt": {Word: "alt", Article: models.ArticleDer, Confidence: 0.9, LastUpdated: time.Now()},
	}
	require.NoError(t, db.ReplaceLexicon(stale, sqlite.CacheMeta{
		Version:   "v0",
		LastFetch: time.Now(),
	}))

	table := NewTable()
	loader := newTestLoader(t, srv.URL, db, table)

	refreshed, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 3, table.Size())

	_, meta, ok, err := db.LoadLexicon()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, DataVersion, meta.Version)
}

func TestLoadSingleFlight(t *testing.T) {
	table := NewTable()
	loader := newTestLoader(t, "http://127.0.0.1:0", newTestDB(t), table)

	loader.loading.Store(true)
	_, err := loader.Load(context.Background(), true)
	assert.ErrorIs(t, err, ErrLoadInProgress)
}

func TestTableSimilar(t *testing.T) {
	table := NewTable()
	records := map[string]models.LexicalRecord{
		"hund":      {Word: "hund", Article: models.ArticleDer},
		"hundert":   {Word: "hundert", Article: models.ArticleDas},
		"handschuh": {Word: "handschuh", Article: models.ArticleDer},
		"mund":      {Word: "mund", Article: models.ArticleDer},
	}
	table.Replace(records, models.ProcessingStats{}, DataVersion, time.Now())

	similar := table.Similar("hunde", 10)
	assert.Contains(t, similar, "hund")
	assert.Contains(t, similar, "hundert")
	assert.NotContains(t, similar, "handschuh")

	assert.Empty(t, table.Similar("", 10))
	assert.Empty(t, table.Similar("hund", 0))
}

func TestTableQualityRating(t *testing.T) {
	table := NewTable()
	records := map[string]models.LexicalRecord{
		"hund":  {Word: "hund", Article: models.ArticleDer, Confidence: 0.95, Plural: "Hunde"},
		"katze": {Word: "katze", Article: models.ArticleDie, Confidence: 0.6},
		"joghurt": {
			Word: "joghurt", Article: models.ArticleDer, Confidence: 0.3,
			AlternativeArticles: []models.Article{models.ArticleDas},
		},
	}
	table.Replace(records, models.ProcessingStats{}, DataVersion, time.Now())

	report := table.Quality()
	assert.Equal(t, 3, report.TotalEntries)
	assert.Equal(t, 1, report.HighConfidence)
	assert.Equal(t, 1, report.MediumConfidence)
	assert.Equal(t, 1, report.LowConfidence)
	assert.Equal(t, 1, report.WithPlural)
	assert.Equal(t, 1, report.WithAlternatives)
	assert.Equal(t, 2, report.GenderCounts[models.ArticleDer])
	assert.Equal(t, "poor", report.Rating)
	assert.InDelta(t, (0.95+0.6+0.3)/3, report.AverageConfidence, 1e-9)
}
