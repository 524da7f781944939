package domain

// Role is the trust tier of a caller.
type Role string

const (
	// RoleGuest is assigned to callers without a verified session. Never persisted.
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Assignable reports whether r may be stored on an account.
func (r Role) Assignable() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string {
	return string(r)
}
