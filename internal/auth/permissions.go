package auth

import "slices"

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermCredentialsManage Permission = "credentials:manage"
	PermAdminChange       Permission = "admin:change"
	PermAuditRead         Permission = "audit:read"
)

// rolePermissions is the single source of truth for the authorisation model.
var rolePermissions = map[Role][]Permission{
	RoleInstaller: {
		PermCredentialsManage,
		PermAdminChange,
		PermAuditRead,
	},
}

// HasPermission returns true if role has perm.
func HasPermission(role Role, perm Permission) bool {
	return slices.Contains(rolePermissions[role], perm)
}

// PermissionsForRole returns a copy of role's permissions, or nil for an
// unknown role.
func PermissionsForRole(role Role) []Permission {
	return slices.Clone(rolePermissions[role])
}
