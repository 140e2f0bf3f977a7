package properties

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type assignmentKey struct {
	t          scope.ResourceType
	userID     int64
	resourceID int64
}

type mockRepository struct {
	buildings    map[int64]Building
	villas       map[int64]Villa
	tenants      map[int64]Tenant
	transactions map[int64]Transaction
	assignments  map[assignmentKey]struct{}
	// unit -> building containment
	unitBuildings map[int64]int64
	ownership     map[int64][]OwnershipRecord
	nextID        int64
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		buildings:     make(map[int64]Building),
		villas:        make(map[int64]Villa),
		tenants:       make(map[int64]Tenant),
		transactions:  make(map[int64]Transaction),
		assignments:   make(map[assignmentKey]struct{}),
		unitBuildings: make(map[int64]int64),
		ownership:     make(map[int64][]OwnershipRecord),
		nextID:        1,
	}
}

func (m *mockRepository) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepository) ListBuildings(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Building, int, error) {
	out := []Building{}
	for id, b := range m.buildings {
		if c.All || containsID(c.IDs, id) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	return pageWindow(out, pr), total, nil
}

func (m *mockRepository) GetBuilding(ctx context.Context, id int64) (Building, error) {
	b, ok := m.buildings[id]
	if !ok {
		return Building{}, shared.ErrNotFound
	}
	return b, nil
}

func (m *mockRepository) CreateBuilding(ctx context.Context, name, address string, createdBy int64) (Building, error) {
	b := Building{ID: m.id(), Name: name, Address: address, CreatedBy: &createdBy}
	m.buildings[b.ID] = b
	return b, nil
}

func (m *mockRepository) ListVillas(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Villa, int, error) {
	out := []Villa{}
	for id, v := range m.villas {
		if c.All || containsID(c.IDs, id) {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	return pageWindow(out, pr), total, nil
}

func (m *mockRepository) GetVilla(ctx context.Context, id int64) (Villa, error) {
	v, ok := m.villas[id]
	if !ok {
		return Villa{}, shared.ErrNotFound
	}
	return v, nil
}

func (m *mockRepository) CreateVilla(ctx context.Context, name, address string, createdBy int64) (Villa, error) {
	v := Villa{ID: m.id(), Name: name, Address: address, CreatedBy: &createdBy}
	m.villas[v.ID] = v
	return v, nil
}

func (m *mockRepository) ListTenants(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Tenant, int, error) {
	out := []Tenant{}
	for id, tn := range m.tenants {
		if c.All || containsID(c.IDs, id) {
			out = append(out, tn)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	return pageWindow(out, pr), total, nil
}

func (m *mockRepository) GetTenant(ctx context.Context, id int64) (Tenant, error) {
	tn, ok := m.tenants[id]
	if !ok {
		return Tenant{}, shared.ErrNotFound
	}
	return tn, nil
}

func (m *mockRepository) CreateTenant(ctx context.Context, name, email string, apartmentID *int64, createdBy int64) (Tenant, error) {
	tn := Tenant{ID: m.id(), Name: name, Email: email, ApartmentID: apartmentID, CreatedBy: &createdBy}
	m.tenants[tn.ID] = tn
	return tn, nil
}

func (m *mockRepository) ListTransactions(ctx context.Context, c Constraint, pr shared.PageRequest) ([]Transaction, int, error) {
	out := []Transaction{}
	for id, tx := range m.transactions {
		if c.All || containsID(c.IDs, id) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	total := len(out)
	return pageWindow(out, pr), total, nil
}

func (m *mockRepository) GetTransaction(ctx context.Context, id int64) (Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return Transaction{}, shared.ErrNotFound
	}
	return tx, nil
}

func (m *mockRepository) CreateTransaction(ctx context.Context, tenantID, amountCent int64, kind string, occurredAt time.Time, createdBy int64) (Transaction, error) {
	tx := Transaction{ID: m.id(), TenantID: tenantID, AmountCent: amountCent, Kind: kind, OccurredAt: occurredAt, CreatedBy: &createdBy}
	m.transactions[tx.ID] = tx
	return tx, nil
}

func (m *mockRepository) CreateAssignment(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error {
	m.assignments[assignmentKey{t, userID, resourceID}] = struct{}{}
	return nil
}

func (m *mockRepository) DeleteAssignment(ctx context.Context, t scope.ResourceType, userID, resourceID int64) error {
	delete(m.assignments, assignmentKey{t, userID, resourceID})
	return nil
}

func (m *mockRepository) UnitBuilding(ctx context.Context, unitID int64) (int64, error) {
	buildingID, ok := m.unitBuildings[unitID]
	if !ok {
		return 0, shared.ErrNotFound
	}
	return buildingID, nil
}

func (m *mockRepository) CurrentOwnership(ctx context.Context, unitID int64) (OwnershipRecord, error) {
	for _, rec := range m.ownership[unitID] {
		if rec.IsCurrent {
			return rec, nil
		}
	}
	return OwnershipRecord{}, shared.ErrNotFound
}

func (m *mockRepository) TransferOwnership(ctx context.Context, unitID, newOwnerID int64, transferDate time.Time) error {
	records := m.ownership[unitID]
	for i := range records {
		if records[i].IsCurrent {
			records[i].IsCurrent = false
			end := transferDate
			records[i].EndDate = &end
		}
	}
	records = append(records, OwnershipRecord{
		ID:        m.id(),
		UnitID:    unitID,
		OwnerID:   newOwnerID,
		StartDate: transferDate,
		IsCurrent: true,
	})
	m.ownership[unitID] = records
	return nil
}

var _ RepositoryPort = (*mockRepository)(nil)

func pageWindow[T any](items []T, pr shared.PageRequest) []T {
	offset := pr.Offset()
	if offset >= len(items) {
		return []T{}
	}
	end := offset + pr.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func scoped(t scope.ResourceType, ids ...int64) *scope.Filter {
	return &scope.Filter{IDsByType: map[scope.ResourceType]scope.IDSet{
		t: scope.NewIDSet(ids...),
	}}
}

func adminFilter() *scope.Filter {
	return &scope.Filter{IsAdmin: true}
}

func ownerPrincipal() shared.Principal {
	return shared.Principal{ID: 7, RoleID: 2, Role: shared.RoleOwner}
}

// ============================================================================
// TESTS
// ============================================================================

func TestListBuildingsScoped(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.CreateBuilding(ctx, ownerPrincipal(), "North Tower", "1 Main St")
	require.NoError(t, err)
	_, err = svc.CreateBuilding(ctx, shared.Principal{ID: 8, Role: shared.RoleOwner}, "South Tower", "2 Main St")
	require.NoError(t, err)

	visible, _, err := svc.ListBuildings(ctx, scoped(scope.ResourceBuilding, a.ID), shared.PageRequest{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, "North Tower", visible[0].Name)
}

func TestListBuildingsAdminSeesAll(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateBuilding(ctx, ownerPrincipal(), "North Tower", "1 Main St")
	require.NoError(t, err)
	_, err = svc.CreateBuilding(ctx, shared.Principal{ID: 8, Role: shared.RoleOwner}, "South Tower", "2 Main St")
	require.NoError(t, err)

	visible, page, err := svc.ListBuildings(ctx, adminFilter(), shared.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, visible, 2)
	assert.Equal(t, 2, page.Total)
}

func TestListBuildingsEmptyScopeReturnsNothing(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.CreateBuilding(ctx, ownerPrincipal(), "North Tower", "1 Main St")
	require.NoError(t, err)

	visible, _, err := svc.ListBuildings(ctx, scoped(scope.ResourceBuilding), shared.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestListBuildingsNilFilterIsBug(t *testing.T) {
	svc := NewService(newMockRepository())

	_, _, err := svc.ListBuildings(context.Background(), nil, shared.PageRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrMissingScope))
}

func TestListBuildingsPaginates(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	for _, name := range []string{"North", "South", "East"} {
		_, err := svc.CreateBuilding(ctx, ownerPrincipal(), name+" Tower", "1 Main St")
		require.NoError(t, err)
	}

	first, page, err := svc.ListBuildings(ctx, adminFilter(), shared.PageRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 3, page.Total)
	assert.Equal(t, 2, page.TotalPages)

	second, _, err := svc.ListBuildings(ctx, adminFilter(), shared.PageRequest{Page: 2, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, "East Tower", second[0].Name)
}

func TestGetBuildingListDetailParity(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	a, err := svc.CreateBuilding(ctx, ownerPrincipal(), "North Tower", "1 Main St")
	require.NoError(t, err)
	b, err := svc.CreateBuilding(ctx, shared.Principal{ID: 8, Role: shared.RoleOwner}, "South Tower", "2 Main St")
	require.NoError(t, err)

	filter := scoped(scope.ResourceBuilding, a.ID)

	got, err := svc.GetBuilding(ctx, filter, a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, got.ID)

	// Out-of-scope detail lookup reads exactly like a missing record.
	_, err = svc.GetBuilding(ctx, filter, b.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestCreateTenantStampsAuthor(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	tn, err := svc.CreateTenant(context.Background(), ownerPrincipal(), "Alice", "alice@example.com", nil)
	require.NoError(t, err)
	require.NotNil(t, tn.CreatedBy)
	assert.Equal(t, int64(7), *tn.CreatedBy)
}

func TestCreateTransactionRequiresTenantInScope(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	tn, err := svc.CreateTenant(ctx, ownerPrincipal(), "Alice", "alice@example.com", nil)
	require.NoError(t, err)

	filter := scoped(scope.ResourceTenant, tn.ID)
	tx, err := svc.CreateTransaction(ctx, ownerPrincipal(), filter, tn.ID, 125000, "rent", time.Now())
	require.NoError(t, err)
	assert.Equal(t, tn.ID, tx.TenantID)

	// A tenant outside the caller's scope is reported as not found.
	_, err = svc.CreateTransaction(ctx, ownerPrincipal(), scoped(scope.ResourceTenant), tn.ID, 125000, "rent", time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestAssignAndRevoke(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	require.NoError(t, svc.Assign(ctx, scope.ResourceBuilding, 7, 10))
	_, ok := repo.assignments[assignmentKey{scope.ResourceBuilding, 7, 10}]
	assert.True(t, ok)

	require.NoError(t, svc.Revoke(ctx, scope.ResourceBuilding, 7, 10))
	_, ok = repo.assignments[assignmentKey{scope.ResourceBuilding, 7, 10}]
	assert.False(t, ok)
}

func TestTransferOwnershipClosesCurrentRecord(t *testing.T) {
	repo := newMockRepository()
	repo.unitBuildings[50] = 10
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.ownership[50] = []OwnershipRecord{
		{ID: 1, UnitID: 50, OwnerID: 7, StartDate: start, IsCurrent: true},
	}
	svc := NewService(repo)
	ctx := context.Background()

	transferDate := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filter := scoped(scope.ResourceBuilding, 10)
	require.NoError(t, svc.TransferOwnership(ctx, filter, 50, 8, transferDate))

	records := repo.ownership[50]
	require.Len(t, records, 2)

	closed := records[0]
	assert.False(t, closed.IsCurrent)
	require.NotNil(t, closed.EndDate)
	assert.Equal(t, transferDate, *closed.EndDate)
	assert.Equal(t, int64(7), closed.OwnerID)

	current := records[1]
	assert.True(t, current.IsCurrent)
	assert.Nil(t, current.EndDate)
	assert.Equal(t, int64(8), current.OwnerID)
	assert.Equal(t, transferDate, current.StartDate)

	rec, err := svc.CurrentOwnership(ctx, filter, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(8), rec.OwnerID)
}

func TestTransferOwnershipOutOfScopeBuilding(t *testing.T) {
	repo := newMockRepository()
	repo.unitBuildings[50] = 10
	svc := NewService(repo)

	err := svc.TransferOwnership(context.Background(), scoped(scope.ResourceBuilding, 99), 50, 8, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestTransferOwnershipUnknownUnit(t *testing.T) {
	svc := NewService(newMockRepository())

	err := svc.TransferOwnership(context.Background(), adminFilter(), 404, 8, time.Now())
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))
}

func TestCurrentOwnershipScoped(t *testing.T) {
	repo := newMockRepository()
	repo.unitBuildings[50] = 10
	repo.ownership[50] = []OwnershipRecord{
		{ID: 1, UnitID: 50, OwnerID: 7, StartDate: time.Now(), IsCurrent: true},
	}
	svc := NewService(repo)

	_, err := svc.CurrentOwnership(context.Background(), scoped(scope.ResourceBuilding, 99), 50)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	rec, err := svc.CurrentOwnership(context.Background(), scoped(scope.ResourceBuilding, 10), 50)
	require.NoError(t, err)
	assert.Equal(t, int64(7), rec.OwnerID)
}
