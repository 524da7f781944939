package dto

import (
	"strings"
	"time"

	"github.com/spec-kit/acquisitions/internal/domain"
)

// UpdateUserRequest carries optional profile changes.
type UpdateUserRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// Validate checks present fields and converts them to domain changes.
func (r UpdateUserRequest) Validate() (domain.UserChanges, error) {
	errs := fieldErrors{}
	var changes domain.UserChanges

	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		checkName(errs, name)
		changes.Name = &name
	}
	if r.Email != nil {
		email := normalizeEmail(*r.Email)
		checkEmail(errs, email)
		changes.Email = &email
	}
	if r.Password != nil {
		checkPassword(errs, *r.Password)
		password := *r.Password
		changes.Password = &password
	}
	if r.Role != nil {
		role := checkRole(errs, strings.TrimSpace(*r.Role))
		changes.Role = &role
	}

	if len(errs) == 0 && changes.Empty() {
		errs.add("body", "at least one field must be provided")
	}
	if err := errs.err(); err != nil {
		return domain.UserChanges{}, err
	}
	return changes, nil
}

// UserResponse is the public view of an account. It never includes the hash.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// NewUserResponses maps a list of users.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
