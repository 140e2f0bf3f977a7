package properties

import (
	"context"
	"time"

	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// RepositoryPort defines data access methods for property resources.
type RepositoryPort interface {
	ListBuildings(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Building, int, error)
	GetBuilding(ctx context.Context, id int64) (Building, error)
	CreateBuilding(ctx context.Context, name, address string, createdBy int64) (Building, error)

	ListVillas(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Villa, int, error)
	GetVilla(ctx context.Context, id int64) (Villa, error)
	CreateVilla(ctx context.Context, name, address string, createdBy int64) (Villa, error)

	ListTenants(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Tenant, int, error)
	GetTenant(ctx context.Context, id int64) (Tenant, error)
	CreateTenant(ctx context.Context, name, email string, apartmentID *int64, createdBy int64) (Tenant, error)

	ListTransactions(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Transaction, int, error)
	GetTransaction(ctx context.Context, id int64) (Transaction, error)
	CreateTransaction(ctx context.Context, tenantID, amountCent int64, kind string, occurredAt time.Time, createdBy int64) (Transaction, error)

	CreateAssignment(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error
	DeleteAssignment(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error

	UnitBuilding(ctx context.Context, unitID int64) (int64, error)
	CurrentOwnership(ctx context.Context, unitID int64) (OwnershipRecord, error)
	TransferOwnership(ctx context.Context, unitID, newOwnerID int64, transferDate time.Time) error
}

// Service applies resolved scope filters to property resources. Every list
// and detail call runs the identical scope test; a record outside the
// caller's scope is indistinguishable from a missing one.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// constraintFor converts a resolved filter into the store-level constraint
// for one resource type. A nil filter, or a filter that was never resolved
// for the type, is a caller bug and errors rather than widening the query.
func constraintFor(filter *scope.Filter, t scope.ResourceType) (Constraint, error) {
	if filter == nil {
		return Constraint{}, shared.ErrMissingScope
	}
	if filter.IsAdmin {
		return Constraint{All: true}, nil
	}
	ids, ok := filter.IDs(t)
	if !ok {
		return Constraint{}, shared.ErrMissingScope
	}
	return Constraint{IDs: ids.Slice()}, nil
}

// ListBuildings returns one page of buildings visible under the filter.
func (s *Service) ListBuildings(ctx context.Context, filter *scope.Filter, pr shared.PageRequest) ([]Building, shared.Pagination, error) {
	c, err := constraintFor(filter, scope.ResourceBuilding)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	list, total, err := s.repo.ListBuildings(ctx, c, pr)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(pr.Page, pr.PerPage, total), nil
}

// GetBuilding fetches one building under the identical scope test.
func (s *Service) GetBuilding(ctx context.Context, filter *scope.Filter, id int64) (Building, error) {
	if filter == nil {
		return Building{}, shared.ErrMissingScope
	}
	if !filter.Allows(scope.ResourceBuilding, id) {
		return Building{}, shared.ErrNotFound
	}
	return s.repo.GetBuilding(ctx, id)
}

// CreateBuilding inserts a building authored by the principal.
func (s *Service) CreateBuilding(ctx context.Context, principal shared.Principal, name, address string) (Building, error) {
	return s.repo.CreateBuilding(ctx, name, address, principal.ID)
}

// ListVillas returns one page of villas visible under the filter.
func (s *Service) ListVillas(ctx context.Context, filter *scope.Filter, pr shared.PageRequest) ([]Villa, shared.Pagination, error) {
	c, err := constraintFor(filter, scope.ResourceVilla)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	list, total, err := s.repo.ListVillas(ctx, c, pr)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(pr.Page, pr.PerPage, total), nil
}

// GetVilla fetches one villa under the identical scope test.
func (s *Service) GetVilla(ctx context.Context, filter *scope.Filter, id int64) (Villa, error) {
	if filter == nil {
		return Villa{}, shared.ErrMissingScope
	}
	if !filter.Allows(scope.ResourceVilla, id) {
		return Villa{}, shared.ErrNotFound
	}
	return s.repo.GetVilla(ctx, id)
}

// CreateVilla inserts a villa authored by the principal.
func (s *Service) CreateVilla(ctx context.Context, principal shared.Principal, name, address string) (Villa, error) {
	return s.repo.CreateVilla(ctx, name, address, principal.ID)
}

// ListTenants returns one page of tenants visible under the filter.
func (s *Service) ListTenants(ctx context.Context, filter *scope.Filter, pr shared.PageRequest) ([]Tenant, shared.Pagination, error) {
	c, err := constraintFor(filter, scope.ResourceTenant)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	list, total, err := s.repo.ListTenants(ctx, c, pr)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(pr.Page, pr.PerPage, total), nil
}

// GetTenant fetches one tenant under the identical scope test.
func (s *Service) GetTenant(ctx context.Context, filter *scope.Filter, id int64) (Tenant, error) {
	if filter == nil {
		return Tenant{}, shared.ErrMissingScope
	}
	if !filter.Allows(scope.ResourceTenant, id) {
		return Tenant{}, shared.ErrNotFound
	}
	return s.repo.GetTenant(ctx, id)
}

// CreateTenant inserts a tenant authored by the principal.
func (s *Service) CreateTenant(ctx context.Context, principal shared.Principal, name, email string, apartmentID *int64) (Tenant, error) {
	return s.repo.CreateTenant(ctx, name, email, apartmentID, principal.ID)
}

// ListTransactions returns one page of transactions visible under the filter.
func (s *Service) ListTransactions(ctx context.Context, filter *scope.Filter, pr shared.PageRequest) ([]Transaction, shared.Pagination, error) {
	c, err := constraintFor(filter, scope.ResourceTransaction)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	list, total, err := s.repo.ListTransactions(ctx, c, pr)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, shared.NewPagination(pr.Page, pr.PerPage, total), nil
}

// GetTransaction fetches one transaction under the identical scope test.
func (s *Service) GetTransaction(ctx context.Context, filter *scope.Filter, id int64) (Transaction, error) {
	if filter == nil {
		return Transaction{}, shared.ErrMissingScope
	}
	if !filter.Allows(scope.ResourceTransaction, id) {
		return Transaction{}, shared.ErrNotFound
	}
	return s.repo.GetTransaction(ctx, id)
}

// CreateTransaction inserts a transaction authored by the principal. The
// target tenant must be within the caller's tenant scope.
func (s *Service) CreateTransaction(ctx context.Context, principal shared.Principal, filter *scope.Filter, tenantID, amountCent int64, kind string, occurredAt time.Time) (Transaction, error) {
	if filter == nil {
		return Transaction{}, shared.ErrMissingScope
	}
	if !filter.Allows(scope.ResourceTenant, tenantID) {
		return Transaction{}, shared.ErrNotFound
	}
	return s.repo.CreateTransaction(ctx, tenantID, amountCent, kind, occurredAt, principal.ID)
}

// Assign grants a building or villa to a user. Routes gate this behind the
// admin-only assign permissions.
func (s *Service) Assign(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error {
	return s.repo.CreateAssignment(ctx, t, userID, resourceID)
}

// Revoke removes an assignment grant.
func (s *Service) Revoke(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error {
	return s.repo.DeleteAssignment(ctx, t, userID, resourceID)
}

// TransferOwnership reassigns a unit's current owner. The unit must be in
// the caller's building scope; the close-old/insert-new pair is atomic in
// the store.
func (s *Service) TransferOwnership(ctx context.Context, filter *scope.Filter, unitID, newOwnerID int64, transferDate time.Time) error {
	if filter == nil {
		return shared.ErrMissingScope
	}
	buildingID, err := s.repo.UnitBuilding(ctx, unitID)
	if err != nil {
		return err
	}
	if !filter.Allows(scope.ResourceBuilding, buildingID) {
		return shared.ErrNotFound
	}
	return s.repo.TransferOwnership(ctx, unitID, newOwnerID, transferDate)
}

// CurrentOwnership returns the current ownership record for a unit under the
// caller's building scope.
func (s *Service) CurrentOwnership(ctx context.Context, filter *scope.Filter, unitID int64) (OwnershipRecord, error) {
	if filter == nil {
		return OwnershipRecord{}, shared.ErrMissingScope
	}
	buildingID, err := s.repo.UnitBuilding(ctx, unitID)
	if err != nil {
		return OwnershipRecord{}, err
	}
	if !filter.Allows(scope.ResourceBuilding, buildingID) {
		return OwnershipRecord{}, shared.ErrNotFound
	}
	return s.repo.CurrentOwnership(ctx, unitID)
}
