package shared

import "strings"

// System role names provisioned at setup. Owners may additionally define
// custom roles namespaced under "owner_".
const (
	RoleAdmin       = "admin"
	RoleOwner       = "owner"
	RoleManager     = "manager"
	RoleStaff       = "staff"
	RoleMaintenance = "maintenance"
	RoleSecurity    = "security"

	CustomRolePrefix = "owner_"
)

// Role ranks for hierarchical user creation. A creator may only create users
// whose role ranks strictly below its own; admin creates anyone.
const (
	RankAdmin = 3
	RankOwner = 2
	RankStaff = 1
)

// RoleRank maps a role name to its hierarchy rank. Unknown role names return
// 0 so that rank comparisons against them always fail closed.
func RoleRank(role string) int {
	switch role {
	case RoleAdmin:
		return RankAdmin
	case RoleOwner:
		return RankOwner
	case RoleManager, RoleStaff, RoleMaintenance, RoleSecurity:
		return RankStaff
	}
	if strings.HasPrefix(role, CustomRolePrefix) {
		return RankStaff
	}
	return 0
}
