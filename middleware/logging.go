package middleware

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestLogger logs each completed request with the id set by the requestid
// middleware. Errors from the chain are rendered with the app's error handler
// first so the logged status is the one the client receives.
func RequestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if chainErr := c.Next(); chainErr != nil {
			if err := c.App().Config().ErrorHandler(c, chainErr); err != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		slog.InfoContext(c.UserContext(), "request completed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"remote", c.IP(),
			"status_code", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil
	}
}
