package events

import (
	"time"

	"github.com/spec-kit/acquisitions/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserSignedUp  EventType = "user_signed_up"
	EventUserSignedIn  EventType = "user_signed_in"
	EventUserSignedOut EventType = "user_signed_out"
	EventUserUpdated   EventType = "user_updated"
	EventUserDeleted   EventType = "user_deleted"
	EventRequestDenied EventType = "request_denied"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string      `json:"user_id,omitempty"`
	Role   domain.Role `json:"role"`
}

// Event represents a security-relevant occurrence emitted by services and middleware.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// UserPayload describes the account an event refers to. Never carries credentials.
type UserPayload struct {
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	RoleChanged bool        `json:"role_changed,omitempty"`
}

// RequestDeniedPayload describes a request rejected by the rate governor.
type RequestDeniedPayload struct {
	IP        string `json:"ip"`
	UserAgent string `json:"user_agent"`
	Path      string `json:"path"`
	Method    string `json:"method"`
	Verdict   string `json:"verdict"`
	Source    string `json:"source"`
}
