package auth

// Permission represents a named capability in the system.
type Permission string

// Permission constants.
const (
	PermInventoryRead  Permission = "inventory:read"
	PermInventoryWrite Permission = "inventory:write"
	PermAssetRead      Permission = "asset:read"
	PermAssetWrite     Permission = "asset:write"
	PermAssetReload    Permission = "asset:reload"
	PermAccountSelf    Permission = "account:self"
	PermAccountManage  Permission = "account:manage"
	PermAuditRead      Permission = "audit:read"
)

// permissionRoles maps each permission to the lowest role holding it.
// This is the single source of truth for the authorisation model; the
// role ordering itself lives in Role.Satisfies.
var permissionRoles = map[Permission]Role{
	PermInventoryRead:  RoleUser,
	PermInventoryWrite: RoleUser,
	PermAssetRead:      RoleUser,
	PermAssetWrite:     RoleUser,
	PermAccountSelf:    RoleUser,
	PermAssetReload:    RoleAdmin,
	PermAccountManage:  RoleAdmin,
	PermAuditRead:      RoleAdmin,
}

// RequiredRole returns the role needed for perm. Unknown permissions
// report false.
func RequiredRole(perm Permission) (Role, bool) {
	role, ok := permissionRoles[perm]
	return role, ok
}

// HasPermission returns true if the given role has the specified permission.
// Unknown permissions are denied.
func HasPermission(role Role, perm Permission) bool {
	required, ok := permissionRoles[perm]
	if !ok {
		return false
	}
	return role.Satisfies(required)
}

// PermissionsForRole returns all permissions granted to a role.
// Returns nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	if !role.Valid() {
		return nil
	}
	var perms []Permission
	for _, p := range allPermissions {
		if HasPermission(role, p) {
			perms = append(perms, p)
		}
	}
	return perms
}

// allPermissions fixes the order PermissionsForRole reports in.
var allPermissions = []Permission{
	PermInventoryRead,
	PermInventoryWrite,
	PermAssetRead,
	PermAssetWrite,
	PermAssetReload,
	PermAccountSelf,
	PermAccountManage,
	PermAuditRead,
}
