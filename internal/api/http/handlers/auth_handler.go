package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/acquisitions/internal/api/dto"
	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/service"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

// AuthHandler exposes sign-up, sign-in and sign-out.
type AuthHandler struct {
	auth    *service.AuthService
	cookies *auth.SessionCookies
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, cookies *auth.SessionCookies) *AuthHandler {
	return &AuthHandler{auth: authService, cookies: cookies}
}

// SignUp handles POST /api/auth/sign-up.
func (h *AuthHandler) SignUp(c *fiber.Ctx) error {
	var req dto.SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input, err := req.Validate()
	if err != nil {
		return err
	}

	session, err := h.auth.SignUp(c.UserContext(), input)
	if err != nil {
		return err
	}
	h.cookies.Attach(c, session.Token)

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    dto.NewUserResponse(session.User),
	})
}

// SignIn handles POST /api/auth/sign-in.
func (h *AuthHandler) SignIn(c *fiber.Ctx) error {
	var req dto.SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := req.Validate(); err != nil {
		return err
	}

	session, err := h.auth.SignIn(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	h.cookies.Attach(c, session.Token)

	return c.JSON(fiber.Map{
		"message": "Sign in successful",
		"user":    dto.NewUserResponse(session.User),
	})
}

// SignOut handles POST /api/auth/sign-out. It always succeeds.
func (h *AuthHandler) SignOut(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	h.auth.SignOut(c.UserContext(), principal)
	h.cookies.Detach(c)
	return c.JSON(fiber.Map{"message": "Sign out successful"})
}
