package handler

import (
	"github.com/gofiber/fiber/v2"
)

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

func (h *Handler) Signup(c *fiber.Ctx) error {
	type SignupInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Username string `json:"username"`
	}

	input := new(SignupInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	user, err := h.auth.Signup(c.UserContext(), input.Email, input.Password, input.Username)
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(userResponse{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
	})
}

func (h *Handler) Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid request body")
	}

	token, err := h.auth.Login(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"access_token": token,
		"token_type":   "bearer",
	})
}
