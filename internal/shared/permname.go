package shared

import (
	"strings"

	"golang.org/x/text/cases"
)

var permFolder = cases.Fold()

// NormalizePermission canonicalizes a permission name for catalog lookups:
// trimmed, case-folded, inner spaces collapsed to underscores. Lookups on
// normalized names keep grants from silently missing on case or spacing
// differences between seeds and route declarations.
func NormalizePermission(name string) string {
	name = strings.TrimSpace(permFolder.String(name))
	return strings.Join(strings.Fields(name), "_")
}

// PagePermissionName derives the catalog permission required for a sidebar
// page, e.g. ("Buildings", "view") -> "buildings.view".
func PagePermissionName(pageName, permType string) string {
	return NormalizePermission(pageName) + "." + NormalizePermission(permType)
}
