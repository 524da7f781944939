package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/acquisitions/internal/api/dto"
	"github.com/spec-kit/acquisitions/internal/auth"
	"github.com/spec-kit/acquisitions/internal/service"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

// UsersHandler exposes profile management.
type UsersHandler struct {
	users *service.UsersService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(usersService *service.UsersService) *UsersHandler {
	return &UsersHandler{users: usersService}
}

// List handles GET /api/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.users.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"count": len(users),
		"users": dto.NewUserResponses(users),
	})
}

// Get handles GET /api/users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	id, err := dto.ParseUserID(c.Params("id"))
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	user, err := h.users.Get(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": dto.NewUserResponse(user)})
}

// Update handles PUT /api/users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	id, err := dto.ParseUserID(c.Params("id"))
	if err != nil {
		return err
	}
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	changes, err := req.Validate()
	if err != nil {
		return err
	}

	principal, _ := auth.PrincipalFromContext(c)
	user, err := h.users.Update(c.UserContext(), principal, id, changes)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// Delete handles DELETE /api/users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	id, err := dto.ParseUserID(c.Params("id"))
	if err != nil {
		return err
	}
	principal, _ := auth.PrincipalFromContext(c)
	user, err := h.users.Delete(c.UserContext(), principal, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "User deleted successfully",
		"user":    dto.NewUserResponse(user),
	})
}
