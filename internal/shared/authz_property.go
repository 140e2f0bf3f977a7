package shared

// Property resource permissions declared for the catalog.
const (
	PermBuildingsView      = "buildings.view"
	PermBuildingsViewOwn   = "buildings.view_own"
	PermBuildingsCreate    = "buildings.create"
	PermBuildingsUpdate    = "buildings.update"
	PermBuildingsUpdateOwn = "buildings.update_own"
	PermBuildingsDelete    = "buildings.delete"
	PermBuildingsAssign    = "buildings.assign"

	PermVillasView      = "villas.view"
	PermVillasViewOwn   = "villas.view_own"
	PermVillasCreate    = "villas.create"
	PermVillasUpdate    = "villas.update"
	PermVillasUpdateOwn = "villas.update_own"
	PermVillasDelete    = "villas.delete"
	PermVillasAssign    = "villas.assign"

	PermTenantsView      = "tenants.view"
	PermTenantsViewOwn   = "tenants.view_own"
	PermTenantsCreate    = "tenants.create"
	PermTenantsUpdate    = "tenants.update"
	PermTenantsUpdateOwn = "tenants.update_own"
	PermTenantsDelete    = "tenants.delete"

	PermUnitsManage = "units.manage"
)

// PropertyScopes lists all permissions related to property resources.
func PropertyScopes() []string {
	return []string{
		PermBuildingsView, PermBuildingsViewOwn, PermBuildingsCreate,
		PermBuildingsUpdate, PermBuildingsUpdateOwn, PermBuildingsDelete,
		PermBuildingsAssign,
		PermVillasView, PermVillasViewOwn, PermVillasCreate,
		PermVillasUpdate, PermVillasUpdateOwn, PermVillasDelete,
		PermVillasAssign,
		PermTenantsView, PermTenantsViewOwn, PermTenantsCreate,
		PermTenantsUpdate, PermTenantsUpdateOwn, PermTenantsDelete,
		PermUnitsManage,
	}
}
