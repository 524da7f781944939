package auth

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/acquisitions/internal/domain"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Messages returned by the gate; clients match on status, humans read these.
const (
	msgNoToken      = "No token provided. Please sign in."
	msgInvalidToken = "Invalid or expired token. Please sign in again."
)

// Principal represents the authenticated caller. It is derived only from verified claims.
type Principal struct {
	ID    string
	Email string
	Role  domain.Role
}

// IsAdmin reports whether the principal holds the admin role.
func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == domain.RoleAdmin
}

// AuthMiddleware validates session cookies and attaches principals.
type AuthMiddleware struct {
	tokens  *TokenManager
	cookies *SessionCookies
	logger  *zap.Logger
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, cookies *SessionCookies, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, cookies: cookies, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	token := m.cookies.Read(c)
	if token == "" {
		return apperrors.NewUnauthorized(msgNoToken)
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		m.logger.Debug("token rejected", zap.String("path", c.Path()), zap.Error(err))
		return apperrors.NewUnauthorized(msgInvalidToken)
	}

	c.Locals(principalKey, claims.Principal())
	return c.Next()
}

// Identify attaches a principal when a valid token is present but never rejects.
// It runs ahead of the rate governor so role-aware ceilings see the caller's role.
func (m *AuthMiddleware) Identify(c *fiber.Ctx) error {
	if token := m.cookies.Read(c); token != "" {
		if claims, err := m.tokens.ParseToken(token); err == nil {
			c.Locals(principalKey, claims.Principal())
		}
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// RoleFromContext returns the caller's role, guest when unauthenticated.
func RoleFromContext(c *fiber.Ctx) domain.Role {
	if principal, ok := PrincipalFromContext(c); ok {
		return principal.Role
	}
	return domain.RoleGuest
}
