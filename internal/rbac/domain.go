package rbac

import "time"

// Role represents a high-level permission grouping.
type Role struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Permission represents an atomic capability named "<resource>.<action>".
// Scoped variants ("view_own", "update_own") are independent grants: holding
// "tenants.view_own" never implies "tenants.view", and vice versa.
type Permission struct {
	ID       int64
	Name     string
	Resource string
	Action   string
}
