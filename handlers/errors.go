package handler

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/middleware"
)

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return fiber.StatusUnauthorized
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindConflict, apperr.KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError is the only place error kinds become HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	if kind == apperr.KindUnauthorized {
		return middleware.Unauthorized(c)
	}

	status := statusFor(kind)
	message := apperr.MessageOf(err)
	if status == fiber.StatusInternalServerError {
		slog.ErrorContext(c.UserContext(), "request failed", "method", c.Method(), "path", c.Path(), "error", err)
		if message == "" {
			message = "Internal server error"
		}
	}

	return c.Status(status).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"status":  "error",
		"message": message,
		"data":    nil,
	})
}

// ErrorHandler renders errors that escape a handler, such as unknown routes or
// an exceeded body limit, in the same envelope as handled errors.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(fiber.Map{
			"status":  "error",
			"message": fe.Message,
			"data":    nil,
		})
	}
	return respondError(c, err)
}
