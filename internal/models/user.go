package models

import "time"

// User captures application-facing fields for an identity.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Nombre       string    `json:"nombre"`
	Apellidos    string    `json:"apellidos"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Roles        []Role    `json:"roles"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role Role) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the user carries the admin role.
func (u User) IsAdmin() bool {
	return u.HasRole(RoleAdmin)
}
