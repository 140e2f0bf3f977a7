package scope

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// resourceTable maps each type to the table carrying its created_by column.
var resourceTable = map[ResourceType]string{
	ResourceBuilding:    "buildings",
	ResourceVilla:       "villas",
	ResourceTenant:      "tenants",
	ResourceTransaction: "financial_transactions",
	ResourceUser:        "users",
}

// assignmentQuery maps the types that support explicit assignment grants.
// Assigned records with NULL created_by stay invisible to non-admins, so the
// join filters them out here rather than in every caller.
var assignmentQuery = map[ResourceType]string{
	ResourceBuilding: `SELECT b.id FROM building_assignments ba
		JOIN buildings b ON b.id = ba.building_id
		WHERE ba.user_id = $1 AND b.created_by IS NOT NULL AND b.deleted_at IS NULL`,
	ResourceVilla: `SELECT v.id FROM villa_assignments va
		JOIN villas v ON v.id = va.villa_id
		WHERE va.user_id = $1 AND v.created_by IS NOT NULL AND v.deleted_at IS NULL`,
}

// containedQuery maps each derived type to the query resolving its members
// from a set of container identifiers.
var containedQuery = map[ResourceType]string{
	// Tenants reach buildings through apartment and floor.
	ResourceTenant: `SELECT t.id FROM tenants t
		JOIN apartments a ON a.id = t.apartment_id
		JOIN floors f ON f.id = a.floor_id
		WHERE f.building_id = ANY($1) AND t.created_by IS NOT NULL AND t.deleted_at IS NULL`,
	ResourceTransaction: `SELECT ft.id FROM financial_transactions ft
		WHERE ft.tenant_id = ANY($1) AND ft.created_by IS NOT NULL AND ft.deleted_at IS NULL`,
}

// PGStore resolves ownership signals from PostgreSQL.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore constructs a PGStore.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// AssignedIDs returns explicit assignment grants for the user.
func (s *PGStore) AssignedIDs(ctx context.Context, t ResourceType, userID int64) (IDSet, error) {
	query, ok := assignmentQuery[t]
	if !ok {
		return IDSet{}, nil
	}
	return s.queryIDs(ctx, query, userID)
}

// CreatedIDs returns records authored by the user.
func (s *PGStore) CreatedIDs(ctx context.Context, t ResourceType, userID int64) (IDSet, error) {
	table, ok := resourceTable[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, t)
	}
	query := fmt.Sprintf(`SELECT id FROM %s WHERE created_by = $1 AND deleted_at IS NULL`, table)
	return s.queryIDs(ctx, query, userID)
}

// ContainedIDs returns records of type t reachable through the containers.
func (s *PGStore) ContainedIDs(ctx context.Context, t ResourceType, containers IDSet) (IDSet, error) {
	query, ok := containedQuery[t]
	if !ok {
		return IDSet{}, nil
	}
	if len(containers) == 0 {
		return IDSet{}, nil
	}
	return s.queryIDs(ctx, query, containers.Slice())
}

func (s *PGStore) queryIDs(ctx context.Context, query string, arg any) (IDSet, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := IDSet{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		set[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return set, nil
}

var _ Store = (*PGStore)(nil)
