package domain

import (
	"time"
)

// User represents a human principal that authenticates with a password.
type User struct {
	// Username is the unique, case-sensitive key.
	Username string
	// PasswordHash is the Argon2id digest with the salt embedded; the
	// plaintext password is never stored.
	PasswordHash string
	// Role gates user management operations.
	Role Role
	// SecurityGroups restricts which source addresses may authenticate as
	// this user.
	SecurityGroups SecurityGroups
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
