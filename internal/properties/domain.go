package properties

import "time"

// Building is an ownable resource and the root container for floors,
// apartments, and the tenants living in them.
type Building struct {
	ID        int64
	Name      string
	Address   string
	CreatedBy *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Villa is a standalone ownable resource with no containment path.
type Villa struct {
	ID        int64
	Name      string
	Address   string
	CreatedBy *int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Tenant is an ownable resource. ApartmentID may be nil: tenants registered
// without an apartment link are still visible to their creator.
type Tenant struct {
	ID          int64
	Name        string
	Email       string
	ApartmentID *int64
	CreatedBy   *int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Transaction is a financial record attached to a tenant.
type Transaction struct {
	ID         int64
	TenantID   int64
	AmountCent int64
	Kind       string
	OccurredAt time.Time
	CreatedBy  *int64
	CreatedAt  time.Time
}

// Assignment is an explicit, admin-managed grant of one resource instance to
// one principal. It is orthogonal to creation: granting or revoking an
// assignment never changes created_by on the resource.
type Assignment struct {
	UserID     int64
	ResourceID int64
	CreatedAt  time.Time
}

// OwnershipRecord tracks the current and historical owner of a unit. At most
// one record per unit has IsCurrent true.
type OwnershipRecord struct {
	ID        int64
	UnitID    int64
	OwnerID   int64
	StartDate time.Time
	EndDate   *time.Time
	IsCurrent bool
}
