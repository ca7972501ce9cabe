package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type Config struct {
	MaxWordLength    int
	MaxContextLength int
	Logger           *zap.Logger
}

// Middleware rejects malformed detection and correction requests before they
// reach the handlers.
func Middleware(cfg Config) fiber.Handler {
	if cfg.MaxWordLength == 0 {
		cfg.MaxWordLength = 50
	}
	if cfg.MaxContextLength == 0 {
		cfg.MaxContextLength = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if c.Method() != fiber.MethodPost {
			return c.Next()
		}

		path := c.Path()
		if !strings.Contains(path, "/api/v1/detect") && !strings.Contains(path, "/api/v1/corrections") {
			return c.Next()
		}

		var req struct {
			Word    string `json:"word"`
			Context string `json:"context"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid JSON format",
			})
		}

		if strings.TrimSpace(req.Word) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "word is required",
			})
		}

		if utf8.RuneCountInString(req.Word) > cfg.MaxWordLength {
			cfg.Logger.Warn("Oversized word rejected",
				zap.String("ip", c.IP()),
				zap.Int("length", utf8.RuneCountInString(req.Word)),
			)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "word exceeds maximum length",
			})
		}

		if utf8.RuneCountInString(req.Context) > cfg.MaxContextLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "context exceeds maximum length",
			})
		}

		return c.Next()
	}
}
