package models

// Role is a validated membership label attached to a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// KnownRole reports whether r is one of the roles the system understands.
func KnownRole(r Role) bool {
	switch r {
	case RoleAdmin, RoleUser:
		return true
	}
	return false
}

// ParseRoles converts raw role labels into a validated role set. Unknown
// labels are rejected, duplicates collapsed.
func ParseRoles(raw []string) ([]Role, bool) {
	seen := make(map[Role]bool, len(raw))
	out := make([]Role, 0, len(raw))
	for _, s := range raw {
		r := Role(s)
		if !KnownRole(r) {
			return nil, false
		}
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	return out, true
}

// RoleStrings converts a role set back to plain strings for storage.
func RoleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
