package sidebar

// Page is a navigable sidebar entry provisioned in the page catalog.
type Page struct {
	ID           int64
	Name         string
	URL          string
	Icon         string
	DisplayOrder int
	IsActive     bool
}

// MenuItem is a projected, permission-filtered entry offered to a principal.
type MenuItem struct {
	ID           int64  `json:"id"`
	Label        string `json:"label"`
	URL          string `json:"url"`
	Icon         string `json:"icon"`
	DisplayOrder int    `json:"displayOrder"`
}
