package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/field-ops/support-desk/internal/domain"
	apperrors "github.com/field-ops/support-desk/pkg/util"
)

// RequireRoles ensures the caller holds one of the allowed roles.
// Superadmins always pass; ownership checks are enforced separately in the
// guard, never here.
func RequireRoles(allowed ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, ok := SubjectFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if err := RequireRole(subject, allowed...); err != nil {
			return err
		}
		return c.Next()
	}
}

// RequireAuthenticated ensures a subject is present.
func RequireAuthenticated() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := SubjectFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}
