package middleware

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

func TestRequestLoggerUsesRenderedStatus(t *testing.T) {
	logs := captureLogs(t)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"status": "error", "message": err.Error(), "data": nil})
		},
	})
	app.Use(RequestLogger())
	app.Get("/missing", func(c *fiber.Ctx) error {
		return errors.New("image not found")
	})
	app.Get("/teapot", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	for path, want := range map[string]int{"/missing": http.StatusNotFound, "/teapot": http.StatusNotFound} {
		logs.Reset()
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, want, resp.StatusCode, path)

		var record struct {
			Msg        string `json:"msg"`
			StatusCode int    `json:"status_code"`
			Path       string `json:"path"`
		}
		require.NoError(t, json.Unmarshal(logs.Bytes(), &record), logs.String())
		assert.Equal(t, "request completed", record.Msg)
		assert.Equal(t, path, record.Path)
		assert.Equal(t, resp.StatusCode, record.StatusCode, path)
	}
}
