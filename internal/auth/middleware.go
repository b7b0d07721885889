package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// principalKey is the fiber locals key holding the authenticated user.
const principalKey = "auth.principal"

// Middleware authenticates requests via a bearer token and loads the full
// user record into the request context.
func Middleware(tokens *TokenManager, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			return errorutil.NewUnauthorized("missing bearer token")
		}
		claims, err := tokens.Parse(token)
		if err != nil {
			return errorutil.NewUnauthorized("invalid or expired token")
		}
		user, err := users.GetByID(c.UserContext(), claims.UserID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewUnauthorized("unknown user")
		}
		if err != nil {
			return err
		}
		c.Locals(principalKey, user)
		return c.Next()
	}
}

// Principal returns the authenticated user, or nil outside the middleware.
func Principal(c *fiber.Ctx) *domain.User {
	user, _ := c.Locals(principalKey).(*domain.User)
	return user
}
