package model

import "time"

// Role controls query visibility. Exactly two variants exist.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// IsValid checks if the role is one of the two known variants.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// IsAdmin reports whether the role has unrestricted visibility.
func (r Role) IsAdmin() bool {
	return r == RoleAdmin
}

// ParseRole normalizes a stored role string, defaulting to USER for
// anything unrecognized.
func ParseRole(s string) Role {
	if Role(s) == RoleAdmin {
		return RoleAdmin
	}
	return RoleUser
}

// User represents an account that owns products and folders.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuthContext is the authenticated identity injected by the auth
// middleware once a session token has been resolved.
type AuthContext struct {
	UserID   string
	Username string
	Role     Role
}
