package users

import "time"

// User represents a managed user account. CreatedBy records which principal
// created the account; it is set once at creation and never altered. It is a
// lookup relation only: deleting the creator does not cascade to the users
// they created.
type User struct {
	ID        int64
	Email     string
	Name      string
	RoleID    int64
	Role      string
	CreatedBy *int64
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
