package models

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// ValidRole reports whether r names a known role.
func ValidRole(r string) bool {
	return r == RoleUser || r == RoleAdmin
}
