package users

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// ============================================================================
// MOCK REPOSITORY
// ============================================================================

type mockRepository struct {
	users      map[int64]User
	roles      map[int64]string
	chains     map[int64][]int64
	nextUserID int64

	lastCreate CreateParams
	createErr  error
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:      make(map[int64]User),
		roles:      make(map[int64]string),
		chains:     make(map[int64][]int64),
		nextUserID: 1,
	}
}

func (m *mockRepository) ListAll(ctx context.Context, pr shared.PageRequest) ([]User, int, error) {
	out := make([]User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return userWindow(out, pr), len(out), nil
}

func (m *mockRepository) ListByIDs(ctx context.Context, ids []int64, pr shared.PageRequest) ([]User, int, error) {
	out := []User{}
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return userWindow(out, pr), len(out), nil
}

func userWindow(users []User, pr shared.PageRequest) []User {
	offset := pr.Offset()
	if offset >= len(users) {
		return []User{}
	}
	end := offset + pr.Limit()
	if end > len(users) {
		end = len(users)
	}
	return users[offset:end]
}

func (m *mockRepository) GetByID(ctx context.Context, id int64) (User, error) {
	u, ok := m.users[id]
	if !ok {
		return User{}, shared.ErrNotFound
	}
	return u, nil
}

func (m *mockRepository) Create(ctx context.Context, params CreateParams) (User, error) {
	if m.createErr != nil {
		return User{}, m.createErr
	}
	m.lastCreate = params
	id := m.nextUserID
	m.nextUserID++
	createdBy := params.CreatedBy
	u := User{
		ID:        id,
		Email:     params.Email,
		Name:      params.Name,
		RoleID:    params.RoleID,
		Role:      m.roles[params.RoleID],
		CreatedBy: &createdBy,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	m.users[id] = u
	return u, nil
}

func (m *mockRepository) RoleName(ctx context.Context, roleID int64) (string, error) {
	name, ok := m.roles[roleID]
	if !ok {
		return "", shared.ErrNotFound
	}
	return name, nil
}

func (m *mockRepository) CreatorChain(ctx context.Context, userID int64, limit int) ([]int64, error) {
	return m.chains[userID], nil
}

var _ RepositoryPort = (*mockRepository)(nil)

func seededRepo() *mockRepository {
	repo := newMockRepository()
	repo.roles[1] = shared.RoleAdmin
	repo.roles[2] = shared.RoleOwner
	repo.roles[3] = shared.RoleStaff
	repo.roles[4] = shared.RoleManager
	repo.roles[5] = "owner_team_a"
	return repo
}

func principal(id int64, roleID int64, role string) shared.Principal {
	return shared.Principal{ID: id, RoleID: roleID, Role: role}
}

// ============================================================================
// TESTS
// ============================================================================

func TestCanCreateAdminAnyRole(t *testing.T) {
	svc := NewService(seededRepo())
	ctx := context.Background()
	adm := principal(1, 1, shared.RoleAdmin)

	for _, roleID := range []int64{1, 2, 3, 4, 5} {
		ok, err := svc.CanCreate(ctx, adm, roleID)
		require.NoError(t, err)
		assert.True(t, ok, "admin should create role %d", roleID)
	}
}

func TestCanCreateOwnerStrictlyBelow(t *testing.T) {
	svc := NewService(seededRepo())
	ctx := context.Background()
	own := principal(7, 2, shared.RoleOwner)

	ok, err := svc.CanCreate(ctx, own, 3) // staff
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.CanCreate(ctx, own, 2) // peer owner
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = svc.CanCreate(ctx, own, 1) // admin
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanCreateStaffNobody(t *testing.T) {
	svc := NewService(seededRepo())
	ctx := context.Background()
	staff := principal(9, 3, shared.RoleStaff)

	for _, roleID := range []int64{1, 2, 3, 4} {
		ok, err := svc.CanCreate(ctx, staff, roleID)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestCanCreateCustomOwnerRoleRanksAsStaff(t *testing.T) {
	svc := NewService(seededRepo())
	ctx := context.Background()
	own := principal(7, 2, shared.RoleOwner)

	// "owner_"-prefixed custom roles sit at the staff tier.
	ok, err := svc.CanCreate(ctx, own, 5)
	require.NoError(t, err)
	assert.True(t, ok)

	custom := principal(8, 5, "owner_team_a")
	ok, err = svc.CanCreate(ctx, custom, 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCanCreateUnknownTargetRoleFailsClosed(t *testing.T) {
	repo := seededRepo()
	repo.roles[6] = "visitor"
	svc := NewService(repo)
	ctx := context.Background()
	own := principal(7, 2, shared.RoleOwner)

	ok, err := svc.CanCreate(ctx, own, 6)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.CanCreate(ctx, own, 99)
	require.Error(t, err)
}

func TestCreateStampsCreatedBy(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo)
	ctx := context.Background()
	own := principal(7, 2, shared.RoleOwner)

	user, err := svc.Create(ctx, own, CreateUserInput{
		Email:    "staff@example.com",
		Name:     "New Staff",
		Password: "s3cret-passw0rd",
		RoleID:   3,
	})
	require.NoError(t, err)
	require.NotNil(t, user.CreatedBy)
	assert.Equal(t, int64(7), *user.CreatedBy)
	assert.True(t, user.IsActive)
}

func TestCreateHashesPassword(t *testing.T) {
	repo := seededRepo()
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, principal(1, 1, shared.RoleAdmin), CreateUserInput{
		Email:    "owner@example.com",
		Name:     "Owner",
		Password: "s3cret-passw0rd",
		RoleID:   2,
	})
	require.NoError(t, err)

	// The repository only ever sees a bcrypt hash.
	assert.NotEqual(t, "s3cret-passw0rd", repo.lastCreate.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(repo.lastCreate.PasswordHash), []byte("s3cret-passw0rd")))
}

func TestCreateEscalationRejected(t *testing.T) {
	svc := NewService(seededRepo())
	ctx := context.Background()
	own := principal(7, 2, shared.RoleOwner)

	_, err := svc.Create(ctx, own, CreateUserInput{
		Email:    "boss@example.com",
		Name:     "Wannabe Admin",
		Password: "s3cret-passw0rd",
		RoleID:   1,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrRoleEscalation))
}

func TestCreateDetectsCreatorCycle(t *testing.T) {
	repo := seededRepo()
	repo.chains[7] = []int64{12, 7} // chain loops back to the creator
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Create(ctx, principal(7, 2, shared.RoleOwner), CreateUserInput{
		Email:    "staff@example.com",
		Name:     "Staff",
		Password: "s3cret-passw0rd",
		RoleID:   3,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCreatorCycle))
}

func TestVisibleUsersRequiresFilter(t *testing.T) {
	svc := NewService(seededRepo())

	_, _, err := svc.VisibleUsers(context.Background(), nil, shared.PageRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrMissingScope))
}

func TestVisibleUsersAppliesScope(t *testing.T) {
	repo := seededRepo()
	repo.users[10] = User{ID: 10, Email: "a@example.com"}
	repo.users[11] = User{ID: 11, Email: "b@example.com"}
	svc := NewService(repo)

	filter := &scope.Filter{IDsByType: map[scope.ResourceType]scope.IDSet{
		scope.ResourceUser: scope.NewIDSet(10),
	}}
	visible, page, err := svc.VisibleUsers(context.Background(), filter, shared.PageRequest{})
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, int64(10), visible[0].ID)
	assert.Equal(t, 1, page.Total)
}

func TestVisibleUsersEmptyScopeReturnsNothing(t *testing.T) {
	repo := seededRepo()
	repo.users[10] = User{ID: 10}
	svc := NewService(repo)

	filter := &scope.Filter{IDsByType: map[scope.ResourceType]scope.IDSet{
		scope.ResourceUser: scope.NewIDSet(),
	}}
	visible, _, err := svc.VisibleUsers(context.Background(), filter, shared.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestVisibleUsersPaginates(t *testing.T) {
	repo := seededRepo()
	for id := int64(10); id < 15; id++ {
		repo.users[id] = User{ID: id}
	}
	svc := NewService(repo)

	first, page, err := svc.VisibleUsers(context.Background(), &scope.Filter{IsAdmin: true}, shared.PageRequest{Page: 1, PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, first, 2)
	assert.Equal(t, 5, page.Total)
	assert.Equal(t, 3, page.TotalPages)

	last, _, err := svc.VisibleUsers(context.Background(), &scope.Filter{IsAdmin: true}, shared.PageRequest{Page: 3, PerPage: 2})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, int64(14), last[0].ID)
}

func TestGetByIDOutOfScopeIsNotFound(t *testing.T) {
	repo := seededRepo()
	repo.users[10] = User{ID: 10}
	repo.users[11] = User{ID: 11}
	svc := NewService(repo)

	filter := &scope.Filter{IDsByType: map[scope.ResourceType]scope.IDSet{
		scope.ResourceUser: scope.NewIDSet(10),
	}}

	_, err := svc.GetByID(context.Background(), filter, 11)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrNotFound))

	u, err := svc.GetByID(context.Background(), filter, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.ID)
}

func TestGetByIDAdminUnrestricted(t *testing.T) {
	repo := seededRepo()
	repo.users[10] = User{ID: 10}
	svc := NewService(repo)

	u, err := svc.GetByID(context.Background(), &scope.Filter{IsAdmin: true}, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), u.ID)
}

func TestRoleRankTiers(t *testing.T) {
	assert.Equal(t, shared.RankAdmin, shared.RoleRank(shared.RoleAdmin))
	assert.Equal(t, shared.RankOwner, shared.RoleRank(shared.RoleOwner))
	assert.Equal(t, shared.RankStaff, shared.RoleRank(shared.RoleManager))
	assert.Equal(t, shared.RankStaff, shared.RoleRank(shared.RoleStaff))
	assert.Equal(t, shared.RankStaff, shared.RoleRank(shared.RoleMaintenance))
	assert.Equal(t, shared.RankStaff, shared.RoleRank(shared.RoleSecurity))
	assert.Equal(t, shared.RankStaff, shared.RoleRank("owner_committee"))
	assert.Equal(t, 0, shared.RoleRank("visitor"))
}
