package dto

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/spec-kit/acquisitions/internal/domain"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

const (
	nameMin     = 2
	nameMax     = 100
	emailMax    = 100
	passwordMin = 8
	passwordMax = 100
)

const msgValidation = "Validation failed"

// fieldErrors collects one message per invalid field.
type fieldErrors map[string]any

func (f fieldErrors) add(field, message string) {
	if _, exists := f[field]; !exists {
		f[field] = message
	}
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError(msgValidation, f)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkName(errs fieldErrors, name string) {
	n := utf8.RuneCountInString(name)
	if n < nameMin || n > nameMax {
		errs.add("name", "name must be between 2 and 100 characters")
	}
}

func checkEmail(errs fieldErrors, email string) {
	if email == "" {
		errs.add("email", "email is required")
		return
	}
	if len(email) > emailMax {
		errs.add("email", "email must be at most 100 characters")
		return
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		errs.add("email", "email must be a valid email address")
	}
}

func checkPassword(errs fieldErrors, password string) {
	n := utf8.RuneCountInString(password)
	if n < passwordMin || n > passwordMax {
		errs.add("password", "password must be between 8 and 100 characters")
	}
}

func checkRole(errs fieldErrors, role string) domain.Role {
	r := domain.Role(role)
	if !r.Assignable() {
		errs.add("role", "role must be one of: user, admin")
	}
	return r
}

// ParseUserID validates a path id.
func ParseUserID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if id == "" {
		return "", apperrors.NewValidationError(msgValidation, map[string]any{"id": "id is required"})
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperrors.NewValidationError(msgValidation, map[string]any{"id": "id must be a valid UUID"})
	}
	return parsed.String(), nil
}
