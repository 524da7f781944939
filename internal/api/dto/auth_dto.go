package dto

import (
	"strings"

	"github.com/spec-kit/acquisitions/internal/domain"
	"github.com/spec-kit/acquisitions/internal/service"
)

// SignUpRequest payload for new accounts.
type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Validate normalizes the payload and converts it to service input.
func (r SignUpRequest) Validate() (service.SignUpInput, error) {
	errs := fieldErrors{}
	name := strings.TrimSpace(r.Name)
	email := normalizeEmail(r.Email)

	checkName(errs, name)
	checkEmail(errs, email)
	checkPassword(errs, r.Password)

	role := domain.RoleUser
	if strings.TrimSpace(r.Role) != "" {
		role = checkRole(errs, strings.TrimSpace(r.Role))
	}

	if err := errs.err(); err != nil {
		return service.SignUpInput{}, err
	}
	return service.SignUpInput{Name: name, Email: email, Password: r.Password, Role: role}, nil
}

// SignInRequest payload for login.
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate normalizes the payload in place.
func (r *SignInRequest) Validate() error {
	errs := fieldErrors{}
	r.Email = normalizeEmail(r.Email)
	checkEmail(errs, r.Email)
	if r.Password == "" {
		errs.add("password", "password is required")
	}
	return errs.err()
}
