package shared

// Core platform permissions.
const (
	PermUsersView    = "users.view"
	PermUsersViewOwn = "users.view_own"
	PermUsersCreate  = "users.create"
	PermUsersUpdate  = "users.update"
	PermUsersDelete  = "users.delete"

	PermRolesView   = "roles.view"
	PermRolesManage = "roles.manage"

	PermPermissionsView   = "permissions.view"
	PermPermissionsManage = "permissions.manage"
)

// CoreScopes lists all permissions related to the core platform.
func CoreScopes() []string {
	return []string{
		PermUsersView,
		PermUsersViewOwn,
		PermUsersCreate,
		PermUsersUpdate,
		PermUsersDelete,
		PermRolesView,
		PermRolesManage,
		PermPermissionsView,
		PermPermissionsManage,
	}
}
