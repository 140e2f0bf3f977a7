package properties

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-pm/atrium/internal/platform/db"
	"github.com/atrium-pm/atrium/internal/platform/httpx"
	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// Constraint is the store-level form of a resolved scope: either everything
// (admin) or exactly the listed identifiers. An empty IDs slice matches zero
// rows. There is deliberately no "no constraint supplied" state here; callers
// that have no filter must not reach the store at all.
type Constraint struct {
	All bool
	IDs []int64
}

// Repository provides PostgreSQL backed persistence for property resources.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListBuildings returns one page of buildings matching the constraint plus
// the total match count.
func (r *Repository) ListBuildings(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Building, int, error) {
	total, err := r.scopedCount(ctx, "buildings", c)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT id, name, address, created_by, created_at, updated_at
		FROM buildings WHERE deleted_at IS NULL`
	rows, err := r.scopedQuery(ctx, query, c, pr)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Building
	for rows.Next() {
		var b Building
		if err := rows.Scan(&b.ID, &b.Name, &b.Address, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, b)
	}
	return list, total, rows.Err()
}

// GetBuilding fetches one building.
func (r *Repository) GetBuilding(ctx context.Context, id int64) (Building, error) {
	var b Building
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, created_by, created_at, updated_at
		 FROM buildings WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&b.ID, &b.Name, &b.Address, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Building{}, shared.ErrNotFound
	}
	return b, err
}

// CreateBuilding inserts a building with created_by stamped.
func (r *Repository) CreateBuilding(ctx context.Context, name, address string, createdBy int64) (Building, error) {
	var b Building
	err := r.pool.QueryRow(ctx,
		`INSERT INTO buildings (name, address, created_by) VALUES ($1, $2, $3)
		 RETURNING id, name, address, created_by, created_at, updated_at`,
		name, address, createdBy).
		Scan(&b.ID, &b.Name, &b.Address, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

// ListVillas returns one page of villas matching the constraint plus the
// total match count.
func (r *Repository) ListVillas(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Villa, int, error) {
	total, err := r.scopedCount(ctx, "villas", c)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT id, name, address, created_by, created_at, updated_at
		FROM villas WHERE deleted_at IS NULL`
	rows, err := r.scopedQuery(ctx, query, c, pr)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Villa
	for rows.Next() {
		var v Villa
		if err := rows.Scan(&v.ID, &v.Name, &v.Address, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, v)
	}
	return list, total, rows.Err()
}

// GetVilla fetches one villa.
func (r *Repository) GetVilla(ctx context.Context, id int64) (Villa, error) {
	var v Villa
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, address, created_by, created_at, updated_at
		 FROM villas WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&v.ID, &v.Name, &v.Address, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Villa{}, shared.ErrNotFound
	}
	return v, err
}

// CreateVilla inserts a villa with created_by stamped.
func (r *Repository) CreateVilla(ctx context.Context, name, address string, createdBy int64) (Villa, error) {
	var v Villa
	err := r.pool.QueryRow(ctx,
		`INSERT INTO villas (name, address, created_by) VALUES ($1, $2, $3)
		 RETURNING id, name, address, created_by, created_at, updated_at`,
		name, address, createdBy).
		Scan(&v.ID, &v.Name, &v.Address, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

// ListTenants returns one page of tenants matching the constraint plus the
// total match count.
func (r *Repository) ListTenants(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Tenant, int, error) {
	total, err := r.scopedCount(ctx, "tenants", c)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT id, name, email, apartment_id, created_by, created_at, updated_at
		FROM tenants WHERE deleted_at IS NULL`
	rows, err := r.scopedQuery(ctx, query, c, pr)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Tenant
	for rows.Next() {
		var t Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Email, &t.ApartmentID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, t)
	}
	return list, total, rows.Err()
}

// GetTenant fetches one tenant.
func (r *Repository) GetTenant(ctx context.Context, id int64) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, apartment_id, created_by, created_at, updated_at
		 FROM tenants WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&t.ID, &t.Name, &t.Email, &t.ApartmentID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Tenant{}, shared.ErrNotFound
	}
	return t, err
}

// CreateTenant inserts a tenant with created_by stamped. ApartmentID may be
// nil for tenants registered without an apartment link.
func (r *Repository) CreateTenant(ctx context.Context, name, email string, apartmentID *int64, createdBy int64) (Tenant, error) {
	var t Tenant
	err := r.pool.QueryRow(ctx,
		`INSERT INTO tenants (name, email, apartment_id, created_by) VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, apartment_id, created_by, created_at, updated_at`,
		name, email, apartmentID, createdBy).
		Scan(&t.ID, &t.Name, &t.Email, &t.ApartmentID, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// ListTransactions returns one page of transactions matching the constraint
// plus the total match count.
func (r *Repository) ListTransactions(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Transaction, int, error) {
	total, err := r.scopedCount(ctx, "financial_transactions", c)
	if err != nil {
		return nil, 0, err
	}
	query := `SELECT id, tenant_id, amount_cent, kind, occurred_at, created_by, created_at
		FROM financial_transactions WHERE deleted_at IS NULL`
	rows, err := r.scopedQuery(ctx, query, c, pr)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var list []Transaction
	for rows.Next() {
		var tx Transaction
		if err := rows.Scan(&tx.ID, &tx.TenantID, &tx.AmountCent, &tx.Kind, &tx.OccurredAt, &tx.CreatedBy, &tx.CreatedAt); err != nil {
			return nil, 0, err
		}
		list = append(list, tx)
	}
	return list, total, rows.Err()
}

// GetTransaction fetches one transaction.
func (r *Repository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	var tx Transaction
	err := r.pool.QueryRow(ctx,
		`SELECT id, tenant_id, amount_cent, kind, occurred_at, created_by, created_at
		 FROM financial_transactions WHERE id = $1 AND deleted_at IS NULL`, id).
		Scan(&tx.ID, &tx.TenantID, &tx.AmountCent, &tx.Kind, &tx.OccurredAt, &tx.CreatedBy, &tx.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Transaction{}, shared.ErrNotFound
	}
	return tx, err
}

// CreateTransaction inserts a transaction with created_by stamped.
func (r *Repository) CreateTransaction(ctx context.Context, tenantID, amountCent int64, kind string, occurredAt time.Time, createdBy int64) (Transaction, error) {
	var tx Transaction
	err := r.pool.QueryRow(ctx,
		`INSERT INTO financial_transactions (tenant_id, amount_cent, kind, occurred_at, created_by)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, tenant_id, amount_cent, kind, occurred_at, created_by, created_at`,
		tenantID, amountCent, kind, occurredAt, createdBy).
		Scan(&tx.ID, &tx.TenantID, &tx.AmountCent, &tx.Kind, &tx.OccurredAt, &tx.CreatedBy, &tx.CreatedAt)
	return tx, err
}

// CreateAssignment grants a building or villa to a user.
func (r *Repository) CreateAssignment(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error {
	table, column, err := assignmentTable(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (user_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, column)
	_, err = r.pool.Exec(ctx, query, userID, resourceID)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return shared.ErrNotFound
	}
	return err
}

// DeleteAssignment revokes a grant. Revocation never alters created_by on
// the resource.
func (r *Repository) DeleteAssignment(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error {
	table, column, err := assignmentTable(t)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND %s = $2`, table, column)
	tag, err := r.pool.Exec(ctx, query, userID, resourceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// UnitBuilding resolves the building containing a unit (apartment).
func (r *Repository) UnitBuilding(ctx context.Context, unitID int64) (int64, error) {
	var buildingID int64
	err := r.pool.QueryRow(ctx,
		`SELECT f.building_id FROM apartments a
		 JOIN floors f ON f.id = a.floor_id
		 WHERE a.id = $1`, unitID).Scan(&buildingID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, shared.ErrNotFound
	}
	return buildingID, err
}

// CurrentOwnership fetches the current ownership record of a unit.
func (r *Repository) CurrentOwnership(ctx context.Context, unitID int64) (OwnershipRecord, error) {
	var rec OwnershipRecord
	err := r.pool.QueryRow(ctx,
		`SELECT id, unit_id, owner_id, start_date, end_date, is_current
		 FROM unit_ownership WHERE unit_id = $1 AND is_current`, unitID).
		Scan(&rec.ID, &rec.UnitID, &rec.OwnerID, &rec.StartDate, &rec.EndDate, &rec.IsCurrent)
	if errors.Is(err, pgx.ErrNoRows) {
		return OwnershipRecord{}, shared.ErrNotFound
	}
	return rec, err
}

// TransferOwnership closes out the current ownership record of the unit and
// inserts the new one as a single atomic unit. Partial application would
// violate "at most one current-ownership row per unit" and must never be
// observable, so both statements run in one transaction.
func (r *Repository) TransferOwnership(ctx context.Context, unitID, newOwnerID int64, transferDate time.Time) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`UPDATE unit_ownership SET is_current = false, end_date = $2
			 WHERE unit_id = $1 AND is_current`, unitID, transferDate); err != nil {
			return fmt.Errorf("close current ownership: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO unit_ownership (unit_id, owner_id, start_date, is_current)
			 VALUES ($1, $2, $3, true)`, unitID, newOwnerID, transferDate); err != nil {
			return fmt.Errorf("insert new ownership: %w", err)
		}
		return nil
	})
}

func (r *Repository) scopedQuery(ctx context.Context, base string, c Constraint, pr shared.PageRequest) (pgx.Rows, error) {
	if c.All {
		return r.pool.Query(ctx, base+` ORDER BY id LIMIT $1 OFFSET $2`, pr.Limit(), pr.Offset())
	}
	ids := c.IDs
	if ids == nil {
		ids = []int64{}
	}
	return r.pool.Query(ctx, base+` AND id = ANY($1) ORDER BY id LIMIT $2 OFFSET $3`,
		ids, pr.Limit(), pr.Offset())
}

func (r *Repository) scopedCount(ctx context.Context, table string, c Constraint) (int, error) {
	var total int
	query := `SELECT count(*) FROM ` + table + ` WHERE deleted_at IS NULL`
	if c.All {
		err := r.pool.QueryRow(ctx, query).Scan(&total)
		return total, err
	}
	ids := c.IDs
	if ids == nil {
		ids = []int64{}
	}
	err := r.pool.QueryRow(ctx, query+` AND id = ANY($1)`, ids).Scan(&total)
	return total, err
}

func assignmentTable(t scope.ResourceType) (table, column string, err error) {
	switch t {
	case scope.ResourceBuilding:
		return "building_assignments", "building_id", nil
	case scope.ResourceVilla:
		return "villa_assignments", "villa_id", nil
	default:
		return "", "", fmt.Errorf("properties: no assignment table for %q: %w", t, httpx.ErrValidation)
	}
}
