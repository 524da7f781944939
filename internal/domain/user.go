package domain

import "time"

// User is the credential record for an account. Email is the natural unique key.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserChanges lists the mutable fields of a profile update. Nil means unchanged.
type UserChanges struct {
	Name     *string
	Email    *string
	Password *string
	Role     *Role
}

// Empty reports whether no field is being changed.
func (c UserChanges) Empty() bool {
	return c.Name == nil && c.Email == nil && c.Password == nil && c.Role == nil
}

// ChangesRole reports whether the update touches the role field.
func (c UserChanges) ChangesRole() bool {
	return c.Role != nil
}
