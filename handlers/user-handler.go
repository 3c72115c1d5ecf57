package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snapvault/middleware"
)

// Me returns the authenticated user.
func (h *Handler) Me(c *fiber.Ctx) error {
	user, err := middleware.CurrentUser(c)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
}
