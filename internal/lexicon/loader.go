package lexicon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/metrics"
	"github.com/artikelservice/backend/internal/storage/sqlite"
	"github.com/artikelservice/backend/pkg/logger"
)

// DataVersion tags persisted cache generations. Bump it when the parser or
// the record layout changes; a mismatched cache is dropped on startup.
const DataVersion = "v1"

var (
	ErrLoadInProgress = errors.New("a load is already in progress")
	ErrBelowViability = errors.New("parsed row count below viability threshold")
)

type LoaderConfig struct {
	MinValidRows int
	CacheTTL     time.Duration
}

// Loader orchestrates dataset refreshes: persisted cache first, network
// second, and never replaces a working table with a worse one.
type Loader struct {
	cfg     LoaderConfig
	fetcher *Fetcher
	parser  *Parser
	db      *sqlite.Client
	table   *Table

	loading atomic.Bool

	errMu     sync.Mutex
	lastError string
}

func NewLoader(cfg LoaderConfig, fetcher *Fetcher, db *sqlite.Client, table *Table) *Loader {
	return &Loader{
		cfg:     cfg,
		fetcher: fetcher,
		parser:  NewParser(),
		db:      db,
		table:   table,
	}
}

// Load makes the table current. Without force it is idempotent: a fresh
// in-memory table or a valid persisted cache short-circuits the network
// fetch. The returned bool reports whether a new generation was adopted.
// A second concurrent call returns ErrLoadInProgress instead of racing the
// first.
func (l *Loader) Load(ctx context.Context, force bool) (bool, error) {
	if !l.loading.CompareAndSwap(false, true) {
		return false, ErrLoadInProgress
	}
	defer l.loading.Store(false)

	if !force {
		if l.table.Size() > 0 && time.Since(l.table.FetchedAt()) < l.cfg.CacheTTL {
			return false, nil
		}
		if ok := l.loadFromCache(); ok {
			return false, nil
		}
	}

	refreshed, err := l.refresh(ctx)
	if err != nil {
		l.setLastError(err.Error())
		metrics.IngestionRuns.WithLabelValues("failure").Inc()
		return false, err
	}

	l.setLastError("")
	metrics.IngestionRuns.WithLabelValues("success").Inc()
	return refreshed, nil
}

// LastError reports the most recent load failure, empty after a success.
func (l *Loader) LastError() string {
	l.errMu.Lock()
	defer l.errMu.Unlock()
	return l.lastError
}

func (l *Loader) setLastError(msg string) {
	l.errMu.Lock()
	l.lastError = msg
	l.errMu.Unlock()
}

// loadFromCache adopts the persisted generation when its version tag matches
// the current code and its age is under the TTL. Mismatches drop the cache.
func (l *Loader) loadFromCache() bool {
	records, meta, ok, err := l.db.LoadLexicon()
	if err != nil {
		logger.Warn("Failed to read persisted lexicon", zap.Error(err))
		return false
	}
	if !ok {
		return false
	}

	if meta.Version != DataVersion || time.Since(meta.LastFetch) > l.cfg.CacheTTL {
		logger.Info("Persisted lexicon invalid, dropping",
			zap.String("cache_version", meta.Version),
			zap.String("code_version", DataVersion),
			zap.Time("last_fetch", meta.LastFetch),
		)
		if err := l.db.DropLexicon(); err != nil {
			logger.Warn("Failed to drop stale lexicon", zap.Error(err))
		}
		return false
	}

	l.table.Replace(records, meta.Stats, meta.Version, meta.LastFetch)
	metrics.LexiconSize.Set(float64(len(records)))

	logger.Info("Lexicon loaded from persisted cache",
		zap.Int("records", len(records)),
		zap.Time("last_fetch", meta.LastFetch),
	)
	return true
}

func (l *Loader) refresh(ctx context.Context) (bool, error) {
	started := time.Now()

	payload, err := l.fetcher.Fetch(ctx)
	if err != nil {
		logger.Warn("Dataset fetch failed, previous table stays in use", zap.Error(err))
		return false, err
	}

	records, stats := l.parser.Parse(payload)
	metrics.IngestionRows.WithLabelValues("parsed").Add(float64(stats.ParsedRows))
	metrics.IngestionRows.WithLabelValues("skipped").Add(float64(stats.SkippedRows))

	// Guards against silently adopting a corrupted or empty dataset.
	if stats.ParsedRows < l.cfg.MinValidRows {
		logger.Warn("Ingestion run rejected",
			zap.String("run_id", stats.RunID),
			zap.Int("parsed_rows", stats.ParsedRows),
			zap.Int("min_valid_rows", l.cfg.MinValidRows),
		)
		return false, fmt.Errorf("%w: %d < %d", ErrBelowViability, stats.ParsedRows, l.cfg.MinValidRows)
	}

	fetchedAt := time.Now()
	l.table.Replace(records, *stats, DataVersion, fetchedAt)

	meta := sqlite.CacheMeta{Version: DataVersion, LastFetch: fetchedAt, Stats: *stats}
	if err := l.db.ReplaceLexicon(records, meta); err != nil {
		// The in-memory table is already current; a persistence failure only
		// costs the next startup a network round-trip.
		logger.Warn("Failed to persist lexicon generation", zap.Error(err))
	}

	metrics.LexiconSize.Set(float64(len(records)))
	metrics.IngestionDuration.Observe(time.Since(started).Seconds())

	logger.Info("Lexicon refreshed",
		zap.String("run_id", stats.RunID),
		zap.Int("total_rows", stats.TotalRows),
		zap.Int("parsed_rows", stats.ParsedRows),
		zap.Int("skipped_rows", stats.SkippedRows),
		zap.Int("multi_gender_rows", stats.MultiGenderRows),
		zap.Int64("duration_ms", stats.DurationMS),
	)

	return true, nil
}
