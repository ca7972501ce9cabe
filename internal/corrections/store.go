package corrections

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/metrics"
	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/internal/storage/sqlite"
	"github.com/artikelservice/backend/pkg/logger"
)

// Store persists user overrides per word. Confidence grows with repeated
// confirmation, so a single accidental correction cannot override
// established data.
type Store struct {
	db        *sqlite.Client
	threshold float64
}

func NewStore(db *sqlite.Client, threshold float64) *Store {
	if threshold <= 0 {
		threshold = 0.5
	}
	return &Store{db: db, threshold: threshold}
}

// Record stores one confirmation. A nil article records "this word is not a
// noun".
func (s *Store) Record(word string, article *models.Article) (models.CorrectionRecord, error) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return models.CorrectionRecord{}, fmt.Errorf("empty word")
	}

	rec, err := s.db.UpsertCorrection(word, article)
	if err != nil {
		return models.CorrectionRecord{}, fmt.Errorf("failed to record correction: %w", err)
	}

	metrics.CorrectionsTotal.Inc()
	logger.Info("User correction recorded",
		zap.String("word", word),
		zap.Int("times_confirmed", rec.TimesConfirmed),
		zap.Float64("derived_confidence", rec.Confidence()),
	)

	return rec, nil
}

// Get returns the stored correction for a word, nil when none exists.
func (s *Store) Get(word string) (*models.CorrectionRecord, error) {
	return s.db.GetCorrection(strings.ToLower(strings.TrimSpace(word)))
}

// Confident reports whether a correction has been confirmed often enough to
// be surfaced to the detection cascade.
func (s *Store) Confident(rec *models.CorrectionRecord) bool {
	return rec != nil && rec.Confidence() > s.threshold
}
