package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// RequireRole allows only the listed roles through. The master admin passes
// every role gate.
func RequireRole(roles ...domain.Role) fiber.Handler {
	allowed := make(map[domain.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}
	return func(c *fiber.Ctx) error {
		user := Principal(c)
		if user == nil {
			return errorutil.NewUnauthorized("missing bearer token")
		}
		if user.IsMasterAdmin {
			return c.Next()
		}
		if _, ok := allowed[user.Role]; !ok {
			return errorutil.NewPermissionDenied("Access denied")
		}
		return c.Next()
	}
}

// RequireMasterAdmin allows only the provisioned master admin through.
func RequireMasterAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := Principal(c)
		if user == nil {
			return errorutil.NewUnauthorized("missing bearer token")
		}
		if !user.IsMasterAdmin {
			return errorutil.NewPermissionDenied("Access denied")
		}
		return c.Next()
	}
}
