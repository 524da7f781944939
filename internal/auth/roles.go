package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

// RequireAdmin ensures an authenticated admin. Authentication is checked before the role.
func RequireAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("Authentication required.")
		}
		if !principal.IsAdmin() {
			return apperrors.NewForbidden("Admin access required.")
		}
		return c.Next()
	}
}
