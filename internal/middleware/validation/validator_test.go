package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(Middleware(Config{}))
	app.Post("/api/v1/detect", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/api/v1/words/:word", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestValidationPassesGoodRequest(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("POST", "/api/v1/detect",
		strings.NewReader(`{"word":"Hund","context":"der Hund bellt"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestValidationRejectsMissingWord(t *testing.T) {
	app := newApp()

	req := httptest.NewRequest("POST", "/api/v1/detect", strings.NewReader(`{"context":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidationRejectsOversizedWord(t *testing.T) {
	app := newApp()

	word := strings.Repeat("a", 51)
	req := httptest.NewRequest("POST", "/api/v1/detect",
		strings.NewReader(`{"word":"`+word+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidationRejectsOversizedContext(t *testing.T) {
	app := newApp()

	ctx := strings.Repeat("b", 501)
	req := httptest.NewRequest("POST", "/api/v1/detect",
		strings.NewReader(`{"word":"Hund","context":"`+ctx+`"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestValidationIgnoresOtherRoutes(t *testing.T) {
	app := newApp()

	resp, err := app.Test(httptest.NewRequest("GET", "/api/v1/words/hund", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
