package auth

import (
	"fmt"

	"github.com/spec-kit/acquisitions/internal/domain"
	apperrors "github.com/spec-kit/acquisitions/pkg/util/errorutil"
)

// Action names the operation a principal attempts on a profile.
type Action string

const (
	ActionRead   Action = "view"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// DenyReason classifies a negative access decision.
type DenyReason string

const (
	DenyNone            DenyReason = ""
	DenyUnauthenticated DenyReason = "unauthenticated"
	DenyNotOwner        DenyReason = "not_owner"
	DenyRoleChange      DenyReason = "role_change"
)

// Decision is the outcome of an access check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
	Message string
}

// Err converts a denial into the matching tagged error, nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case DenyNone:
		return nil
	case DenyUnauthenticated:
		return apperrors.NewUnauthorized(d.Message)
	default:
		return apperrors.NewForbidden(d.Message)
	}
}

// Decide reports whether principal may perform action on the profile targetID
// with the given changes. Owners act on themselves; admins act on anyone; only
// admins change roles, including their own.
func Decide(principal *Principal, action Action, targetID string, changes domain.UserChanges) Decision {
	if principal == nil {
		return Decision{Reason: DenyUnauthenticated, Message: "Authentication required"}
	}

	isOwnProfile := principal.ID != "" && principal.ID == targetID
	isAdmin := principal.IsAdmin()

	if !isOwnProfile && !isAdmin {
		return Decision{
			Reason:  DenyNotOwner,
			Message: fmt.Sprintf("You can only %s your own profile", action),
		}
	}
	if changes.ChangesRole() && !isAdmin {
		return Decision{Reason: DenyRoleChange, Message: "Only admins can change user roles"}
	}
	return Decision{Allowed: true}
}
