package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/heartbridge/heartbridge/internal/identity"
)

// LocalUserID is where BearerAuth stores the authenticated user id.
const LocalUserID = identity.LocalUserID

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Authenticate(token string) (int64, error)
}

// BearerAuth rejects requests without a valid "Authorization: Bearer" token.
func BearerAuth(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		token := strings.TrimSpace(authz[len("Bearer "):])
		uid, err := tokens.Authenticate(token)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		c.Locals(LocalUserID, uid)
		return c.Next()
	}
}
