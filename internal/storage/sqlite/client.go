package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/pkg/logger"
)

type Client struct {
	db *sql.DB
}

// CacheMeta identifies one persisted lexicon generation.
type CacheMeta struct {
	Version   string
	LastFetch time.Time
	Stats     models.ProcessingStats
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS lexicon_meta (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		version TEXT NOT NULL,
		last_fetch INTEGER NOT NULL,
		stats TEXT
	);

	CREATE TABLE IF NOT EXISTS lexicon (
		word TEXT PRIMARY KEY,
		article TEXT NOT NULL,
		plural TEXT,
		alt_articles TEXT,
		alt_plurals TEXT,
		confidence REAL NOT NULL,
		last_updated INTEGER NOT NULL,
		multi_meaning INTEGER NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_lexicon_article ON lexicon(article);

	CREATE TABLE IF NOT EXISTS corrections (
		word TEXT PRIMARY KEY,
		article TEXT,
		times_confirmed INTEGER NOT NULL DEFAULT 1,
		last_confirmed INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_corrections_confirmed ON corrections(last_confirmed);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// ReplaceLexicon replaces the persisted lexicon generation in a single
// transaction. Readers of the previous generation are never exposed to a
// partially written one.
func (c *Client) ReplaceLexicon(records map[string]models.LexicalRecord, meta CacheMeta) error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM lexicon"); err != nil {
		return fmt.Errorf("failed to clear lexicon: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO lexicon (word, article, plural, alt_articles, alt_plurals, confidence, last_updated, multi_meaning)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		altArticles, _ := json.Marshal(rec.AlternativeArticles)
		altPlurals, _ := json.Marshal(rec.AlternativePlurals)

		multiMeaning := 0
		if rec.HasMultipleMeanings {
			multiMeaning = 1
		}

		_, err := stmt.Exec(
			rec.Word,
			string(rec.Article),
			rec.Plural,
			string(altArticles),
			string(altPlurals),
			rec.Confidence,
			rec.LastUpdated.Unix(),
			multiMeaning,
		)
		if err != nil {
			return fmt.Errorf("failed to insert record %q: %w", rec.Word, err)
		}
	}

	statsJSON, _ := json.Marshal(meta.Stats)
	_, err = tx.Exec(`
		INSERT INTO lexicon_meta (id, version, last_fetch, stats)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			version = excluded.version,
			last_fetch = excluded.last_fetch,
			stats = excluded.stats
	`, meta.Version, meta.LastFetch.Unix(), string(statsJSON))
	if err != nil {
		return fmt.Errorf("failed to store lexicon meta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit lexicon generation: %w", err)
	}

	logger.Info("Lexicon generation persisted",
		zap.Int("records", len(records)),
		zap.String("version", meta.Version),
	)
	return nil
}

// LoadLexicon reads the persisted generation. The bool return reports whether
// a generation exists at all.
func (c *Client) LoadLexicon() (map[string]models.LexicalRecord, CacheMeta, bool, error) {
	var meta CacheMeta
	var lastFetch int64
	var statsJSON sql.NullString

	err := c.db.QueryRow(`SELECT version, last_fetch, stats FROM lexicon_meta WHERE id = 1`).
		Scan(&meta.Version, &lastFetch, &statsJSON)
	if err == sql.ErrNoRows {
		return nil, CacheMeta{}, false, nil
	}
	if err != nil {
		return nil, CacheMeta{}, false, fmt.Errorf("failed to read lexicon meta: %w", err)
	}

	meta.LastFetch = time.Unix(lastFetch, 0)
	if statsJSON.Valid {
		json.Unmarshal([]byte(statsJSON.String), &meta.Stats)
	}

	rows, err := c.db.Query(`
		SELECT word, article, plural, alt_articles, alt_plurals, confidence, last_updated, multi_meaning
		FROM lexicon
	`)
	if err != nil {
		return nil, CacheMeta{}, false, fmt.Errorf("failed to read lexicon: %w", err)
	}
	defer rows.Close()

	records := make(map[string]models.LexicalRecord)
	for rows.Next() {
		var rec models.LexicalRecord
		var article string
		var plural, altArticles, altPlurals sql.NullString
		var lastUpdated int64
		var multiMeaning int

		err := rows.Scan(&rec.Word, &article, &plural, &altArticles, &altPlurals,
			&rec.Confidence, &lastUpdated, &multiMeaning)
		if err != nil {
			return nil, CacheMeta{}, false, fmt.Errorf("failed to scan row: %w", err)
		}

		rec.Article = models.Article(article)
		rec.Plural = plural.String
		rec.LastUpdated = time.Unix(lastUpdated, 0)
		rec.HasMultipleMeanings = multiMeaning == 1
		if altArticles.Valid {
			json.Unmarshal([]byte(altArticles.String), &rec.AlternativeArticles)
		}
		if altPlurals.Valid {
			json.Unmarshal([]byte(altPlurals.String), &rec.AlternativePlurals)
		}

		records[rec.Word] = rec
	}

	return records, meta, true, nil
}

// DropLexicon removes the persisted generation. Used when the version tag or
// TTL no longer matches; a stale cache is dropped, not repaired.
func (c *Client) DropLexicon() error {
	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM lexicon"); err != nil {
		return fmt.Errorf("failed to drop lexicon: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM lexicon_meta"); err != nil {
		return fmt.Errorf("failed to drop lexicon meta: %w", err)
	}

	return tx.Commit()
}

// UpsertCorrection records one user confirmation for a word. Confirming the
// same article again increments the counter; a different article resets it.
// The whole update runs as one statement so concurrent confirmations cannot
// lose increments. IS compares the stored and incoming article with NULL
// treated as equal, which covers the "not a noun" case.
func (c *Client) UpsertCorrection(word string, article *models.Article) (models.CorrectionRecord, error) {
	now := time.Now()

	var articleVal interface{}
	if article != nil {
		articleVal = string(*article)
	}

	var times int
	err := c.db.QueryRow(`
		INSERT INTO corrections (word, article, times_confirmed, last_confirmed)
		VALUES (?, ?, 1, ?)
		ON CONFLICT(word) DO UPDATE SET
			times_confirmed = CASE
				WHEN corrections.article IS excluded.article THEN corrections.times_confirmed + 1
				ELSE 1
			END,
			article = excluded.article,
			last_confirmed = excluded.last_confirmed
		RETURNING times_confirmed
	`, word, articleVal, now.Unix()).Scan(&times)
	if err != nil {
		return models.CorrectionRecord{}, fmt.Errorf("failed to store correction: %w", err)
	}

	logger.Info("Correction stored",
		zap.String("word", word),
		zap.Int("times_confirmed", times),
	)

	return models.CorrectionRecord{
		Word:             word,
		CorrectedArticle: article,
		TimesConfirmed:   times,
		LastConfirmedAt:  now,
	}, nil
}

func (c *Client) GetCorrection(word string) (*models.CorrectionRecord, error) {
	var stored sql.NullString
	var times int
	var lastConfirmed int64

	err := c.db.QueryRow(`SELECT article, times_confirmed, last_confirmed FROM corrections WHERE word = ?`, word).
		Scan(&stored, &times, &lastConfirmed)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correction: %w", err)
	}

	rec := &models.CorrectionRecord{
		Word:            word,
		TimesConfirmed:  times,
		LastConfirmedAt: time.Unix(lastConfirmed, 0),
	}
	if stored.Valid {
		article := models.Article(stored.String)
		rec.CorrectedArticle = &article
	}

	return rec, nil
}
