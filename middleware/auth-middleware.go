package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/krishkalaria12/snapvault/apperr"
	"github.com/krishkalaria12/snapvault/models"
)

const userKey = "user"

var errNoPrincipal = errors.New("no authenticated user on request")

// Authenticator resolves a bearer token into the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// resolved user in the request locals.
func RequireAuth(gate Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenStr, ok := bearerToken(c.Get(fiber.HeaderAuthorization))
		if !ok {
			return Unauthorized(c)
		}

		user, err := gate.Authenticate(c.UserContext(), tokenStr)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindUnauthorized {
				return Unauthorized(c)
			}
			return err
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// Unauthorized writes a 401 carrying the bearer challenge.
func Unauthorized(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"status":  "error",
		"message": "Could not validate credentials",
		"data":    nil,
	})
}

// CurrentUser returns the user stored by RequireAuth.
func CurrentUser(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(userKey).(*models.User)
	if !ok || user == nil {
		return nil, apperr.Unauthorized(errNoPrincipal)
	}
	return user, nil
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
