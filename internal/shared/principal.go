package shared

// Principal describes the authenticated actor for authorization decisions.
// CreatedBy is a lookup relation to the principal that created this one; it
// never implies ownership of the principal's lifetime.
type Principal struct {
	ID        int64
	RoleID    int64
	Role      string
	CreatedBy *int64
}

// IsAdmin reports whether the principal holds the admin system role.
// Admin is exempt from every scope filter.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
