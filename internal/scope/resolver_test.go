package scope

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-pm/atrium/internal/shared"
)

// ============================================================================
// MOCK STORE
// ============================================================================

type mockStore struct {
	// keyed by resource type, then user ID
	assigned map[ResourceType]map[int64]IDSet
	created  map[ResourceType]map[int64]IDSet
	// keyed by resource type, then container ID
	contained map[ResourceType]map[int64]IDSet

	assignedErr  error
	createdErr   error
	containedErr error

	containedCalls int
}

func newMockStore() *mockStore {
	return &mockStore{
		assigned:  make(map[ResourceType]map[int64]IDSet),
		created:   make(map[ResourceType]map[int64]IDSet),
		contained: make(map[ResourceType]map[int64]IDSet),
	}
}

func (m *mockStore) addAssigned(t ResourceType, userID int64, ids ...int64) {
	if m.assigned[t] == nil {
		m.assigned[t] = make(map[int64]IDSet)
	}
	m.assigned[t][userID] = NewIDSet(ids...)
}

func (m *mockStore) addCreated(t ResourceType, userID int64, ids ...int64) {
	if m.created[t] == nil {
		m.created[t] = make(map[int64]IDSet)
	}
	m.created[t][userID] = NewIDSet(ids...)
}

func (m *mockStore) addContained(t ResourceType, containerID int64, ids ...int64) {
	if m.contained[t] == nil {
		m.contained[t] = make(map[int64]IDSet)
	}
	m.contained[t][containerID] = NewIDSet(ids...)
}

func (m *mockStore) AssignedIDs(ctx context.Context, t ResourceType, userID int64) (IDSet, error) {
	if m.assignedErr != nil {
		return nil, m.assignedErr
	}
	return m.assigned[t][userID], nil
}

func (m *mockStore) CreatedIDs(ctx context.Context, t ResourceType, userID int64) (IDSet, error) {
	if m.createdErr != nil {
		return nil, m.createdErr
	}
	return m.created[t][userID], nil
}

func (m *mockStore) ContainedIDs(ctx context.Context, t ResourceType, containers IDSet) (IDSet, error) {
	if m.containedErr != nil {
		return nil, m.containedErr
	}
	m.containedCalls++
	out := IDSet{}
	for containerID := range containers {
		out = out.Union(m.contained[t][containerID])
	}
	return out, nil
}

func owner(id int64) shared.Principal {
	return shared.Principal{ID: id, RoleID: 2, Role: shared.RoleOwner}
}

func admin() shared.Principal {
	return shared.Principal{ID: 1, RoleID: 1, Role: shared.RoleAdmin}
}

// ============================================================================
// TESTS
// ============================================================================

func TestResolveAdminUnrestricted(t *testing.T) {
	store := newMockStore()
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), admin(), ResourceBuilding, ResourceTenant)
	require.NoError(t, err)
	assert.True(t, filter.IsAdmin)
	assert.True(t, filter.Allows(ResourceBuilding, 999))
	assert.True(t, filter.Allows(ResourceTransaction, 1))
}

func TestResolveDenyByDefault(t *testing.T) {
	store := newMockStore()
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), owner(7), ResourceBuilding)
	require.NoError(t, err)

	set, ok := filter.IDs(ResourceBuilding)
	require.True(t, ok)
	assert.Empty(t, set)
	assert.False(t, filter.Allows(ResourceBuilding, 1))
}

func TestResolveUnionsAssignedAndCreated(t *testing.T) {
	store := newMockStore()
	store.addAssigned(ResourceBuilding, 7, 1, 2)
	store.addCreated(ResourceBuilding, 7, 2, 3)
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), owner(7), ResourceBuilding)
	require.NoError(t, err)

	set, ok := filter.IDs(ResourceBuilding)
	require.True(t, ok)
	assert.Equal(t, []int64{1, 2, 3}, set.Slice())
}

func TestResolveTenantDerivesFromBuildings(t *testing.T) {
	store := newMockStore()
	store.addAssigned(ResourceBuilding, 7, 10)
	store.addCreated(ResourceTenant, 7, 100)
	store.addContained(ResourceTenant, 10, 101, 102)
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), owner(7), ResourceTenant)
	require.NoError(t, err)

	set, ok := filter.IDs(ResourceTenant)
	require.True(t, ok)
	assert.Equal(t, []int64{100, 101, 102}, set.Slice())
}

func TestResolveTransactionChainsThroughTenants(t *testing.T) {
	store := newMockStore()
	store.addCreated(ResourceBuilding, 7, 10)
	store.addContained(ResourceTenant, 10, 100)
	store.addContained(ResourceTransaction, 100, 1000, 1001)
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), owner(7), ResourceTransaction)
	require.NoError(t, err)

	set, ok := filter.IDs(ResourceTransaction)
	require.True(t, ok)
	assert.Equal(t, []int64{1000, 1001}, set.Slice())
}

func TestResolveSkipsContainedLookupWhenContainerEmpty(t *testing.T) {
	store := newMockStore()
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), owner(7), ResourceTenant)
	require.NoError(t, err)

	set, ok := filter.IDs(ResourceTenant)
	require.True(t, ok)
	assert.Empty(t, set)
	assert.Zero(t, store.containedCalls)
}

func TestResolveMutualExclusion(t *testing.T) {
	// Two owners with disjoint holdings never see each other's records.
	store := newMockStore()
	store.addCreated(ResourceBuilding, 7, 1)
	store.addCreated(ResourceBuilding, 8, 2)
	resolver := NewResolver(store)

	filterA, err := resolver.Resolve(context.Background(), owner(7), ResourceBuilding)
	require.NoError(t, err)
	filterB, err := resolver.Resolve(context.Background(), owner(8), ResourceBuilding)
	require.NoError(t, err)

	assert.True(t, filterA.Allows(ResourceBuilding, 1))
	assert.False(t, filterA.Allows(ResourceBuilding, 2))
	assert.True(t, filterB.Allows(ResourceBuilding, 2))
	assert.False(t, filterB.Allows(ResourceBuilding, 1))
}

func TestResolveUnknownResource(t *testing.T) {
	store := newMockStore()
	resolver := NewResolver(store)

	_, err := resolver.Resolve(context.Background(), owner(7), ResourceType("fleet"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownResource))
}

func TestResolveStoreErrorPropagates(t *testing.T) {
	store := newMockStore()
	store.assignedErr = errors.New("connection reset")
	resolver := NewResolver(store)

	_, err := resolver.Resolve(context.Background(), owner(7), ResourceBuilding)
	require.Error(t, err)
}

func TestResolveAdminNeverTouchesStore(t *testing.T) {
	store := newMockStore()
	store.assignedErr = errors.New("store must not be called")
	resolver := NewResolver(store)

	filter, err := resolver.Resolve(context.Background(), admin(), ResourceBuilding)
	require.NoError(t, err)
	assert.True(t, filter.IsAdmin)
}

func TestFilterNilDeniesEverything(t *testing.T) {
	var filter *Filter
	assert.False(t, filter.Allows(ResourceBuilding, 1))

	_, ok := filter.IDs(ResourceBuilding)
	assert.False(t, ok)
}

func TestFilterMissingTypeIsDenyAll(t *testing.T) {
	filter := &Filter{IDsByType: map[ResourceType]IDSet{
		ResourceBuilding: NewIDSet(1),
	}}

	assert.True(t, filter.Allows(ResourceBuilding, 1))
	assert.False(t, filter.Allows(ResourceTenant, 1))
}

func TestIDSetUnionDoesNotMutate(t *testing.T) {
	a := NewIDSet(1, 2)
	b := NewIDSet(3)

	merged := a.Union(b)
	assert.Equal(t, []int64{1, 2, 3}, merged.Slice())
	assert.Equal(t, []int64{1, 2}, a.Slice())
	assert.Equal(t, []int64{3}, b.Slice())
}
