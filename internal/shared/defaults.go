package shared

// DefaultCatalogVersion identifies the shipped default configuration. Bump it
// whenever the defaults below change so operators can tell which baseline a
// database was seeded from.
const DefaultCatalogVersion = 3

// DefaultRole describes a system role provisioned at setup.
type DefaultRole struct {
	Name        string
	Description string
}

// DefaultPage describes a sidebar page provisioned at setup.
type DefaultPage struct {
	Name         string
	URL          string
	Icon         string
	DisplayOrder int
}

// DefaultCatalog is the versioned default configuration injected at startup.
// It replaces any hardcoded permission fallback: when the live catalog cannot
// be fetched the request fails closed instead of consulting these values.
type DefaultCatalog struct {
	Version     int
	Roles       []DefaultRole
	Permissions []string
	Grants      map[string][]string
	Pages       []DefaultPage
	PageGrants  map[string][]string
}

// Defaults returns the baseline catalog: system roles, the full permission
// list, role grants, sidebar pages, and per-role page grants.
func Defaults() DefaultCatalog {
	perms := make([]string, 0, 40)
	perms = append(perms, CoreScopes()...)
	perms = append(perms, PropertyScopes()...)
	perms = append(perms, FinanceScopes()...)

	return DefaultCatalog{
		Version: DefaultCatalogVersion,
		Roles: []DefaultRole{
			{Name: RoleAdmin, Description: "Full platform access"},
			{Name: RoleOwner, Description: "Property owner"},
			{Name: RoleManager, Description: "Property manager"},
			{Name: RoleStaff, Description: "Office staff"},
			{Name: RoleMaintenance, Description: "Maintenance crew"},
			{Name: RoleSecurity, Description: "Security crew"},
		},
		Permissions: perms,
		Grants: map[string][]string{
			RoleAdmin: perms,
			RoleOwner: {
				PermBuildingsViewOwn, PermBuildingsCreate, PermBuildingsUpdateOwn,
				PermVillasViewOwn, PermVillasCreate, PermVillasUpdateOwn,
				PermTenantsViewOwn, PermTenantsCreate, PermTenantsUpdateOwn,
				PermTransactionsViewOwn, PermTransactionsCreate,
				PermUsersViewOwn, PermUsersCreate,
				PermUnitsManage,
				PermRolesView,
			},
			RoleManager: {
				PermTenantsViewOwn, PermTenantsUpdateOwn,
				PermTransactionsViewOwn,
			},
			RoleStaff: {
				PermTenantsViewOwn,
			},
			RoleMaintenance: {
				PermBuildingsViewOwn,
			},
			RoleSecurity: {
				PermBuildingsViewOwn,
			},
		},
		Pages: []DefaultPage{
			{Name: "Buildings", URL: "/buildings", Icon: "building", DisplayOrder: 1},
			{Name: "Villas", URL: "/villas", Icon: "home", DisplayOrder: 2},
			{Name: "Tenants", URL: "/tenants", Icon: "people", DisplayOrder: 3},
			{Name: "Transactions", URL: "/transactions", Icon: "cash", DisplayOrder: 4},
			{Name: "Users", URL: "/users", Icon: "person-gear", DisplayOrder: 5},
			{Name: "Roles", URL: "/roles", Icon: "shield", DisplayOrder: 6},
			{Name: "Permissions", URL: "/permissions", Icon: "key", DisplayOrder: 7},
		},
		PageGrants: map[string][]string{
			RoleAdmin:       {"/buildings", "/villas", "/tenants", "/transactions", "/users", "/roles", "/permissions"},
			RoleOwner:       {"/buildings", "/villas", "/tenants", "/transactions", "/users"},
			RoleManager:     {"/tenants", "/transactions"},
			RoleStaff:       {"/tenants"},
			RoleMaintenance: {"/buildings"},
			RoleSecurity:    {"/buildings"},
		},
	}
}
