package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/artikelservice/backend/internal/lexicon"
	"github.com/artikelservice/backend/internal/nlp"
	"github.com/artikelservice/backend/internal/storage/models"
	"github.com/artikelservice/backend/pkg/logger"
)

type WordHandler struct {
	facade *nlp.Facade
	loader *lexicon.Loader
}

func NewWordHandler(facade *nlp.Facade, loader *lexicon.Loader) *WordHandler {
	return &WordHandler{
		facade: facade,
		loader: loader,
	}
}

// GetWord answers GET /api/v1/words/:word.
func (h *WordHandler) GetWord(c *fiber.Ctx) error {
	word := c.Params("word")
	if word == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "word is required",
		})
	}

	data := h.facade.GetWordData(c.Context(), word)
	return c.JSON(data)
}

// Detect answers POST /api/v1/detect with {word, context}.
func (h *WordHandler) Detect(c *fiber.Ctx) error {
	var req struct {
		Word    string `json:"word"`
		Context string `json:"context"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result := h.facade.Detect(req.Word, req.Context)
	return c.JSON(fiber.Map{
		"word":   h.facade.NormalizeWord(req.Word),
		"result": result,
	})
}

// AddCorrection answers POST /api/v1/corrections. A null article marks the
// word as not a noun.
func (h *WordHandler) AddCorrection(c *fiber.Ctx) error {
	var req struct {
		Word    string  `json:"word"`
		Article *string `json:"article"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	var article *models.Article
	if req.Article != nil {
		parsed, ok := models.ParseArticle(*req.Article)
		if !ok {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "article must be one of der, die, das",
			})
		}
		article = &parsed
	}

	rec, err := h.facade.AddUserCorrection(c.Context(), req.Word, article)
	if err != nil {
		logger.Warn("Correction rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"word":               rec.Word,
		"times_confirmed":    rec.TimesConfirmed,
		"derived_confidence": rec.Confidence(),
	})
}

// SimilarWords answers GET /api/v1/words/:word/similar.
func (h *WordHandler) SimilarWords(c *fiber.Ctx) error {
	word := c.Params("word")
	limit := c.QueryInt("limit", 10)

	return c.JSON(fiber.Map{
		"word":    h.facade.NormalizeWord(word),
		"similar": h.facade.FindSimilarWords(word, limit),
	})
}

// Quality answers GET /api/v1/quality.
func (h *WordHandler) Quality(c *fiber.Ctx) error {
	report := h.facade.QualityAssessment()

	resp := fiber.Map{
		"report": report,
	}
	if lastErr := h.loader.LastError(); lastErr != "" {
		resp["last_load_error"] = lastErr
	}
	return c.JSON(resp)
}

// Refresh answers POST /api/v1/refresh, forcing a dataset reload.
func (h *WordHandler) Refresh(c *fiber.Ctx) error {
	refreshed, err := h.loader.Load(c.Context(), true)
	if err != nil {
		if errors.Is(err, lexicon.ErrLoadInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "a refresh is already running",
			})
		}
		logger.Error("Forced refresh failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"refreshed": refreshed,
	})
}
