package domain

// Role constants define the allowed account roles.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "superAdmin"
)

// ValidRoles returns the set of valid account roles.
func ValidRoles() []string {
	return []string{RoleUser, RoleAdmin, RoleSuperAdmin}
}

// IsValidRole checks whether the given role string is a valid account role.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// AdminRoles returns the roles granted access to the administrative surface.
func AdminRoles() []string {
	return []string{RoleAdmin, RoleSuperAdmin}
}
