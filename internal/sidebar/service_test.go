package sidebar

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-pm/atrium/internal/shared"
)

// ============================================================================
// MOCKS
// ============================================================================

type mockRepository struct {
	pages     []Page
	permTypes map[int64]string
	// grants keyed by roleID, then pageID
	grants map[int64]map[int64]bool
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		permTypes: make(map[int64]string),
		grants:    make(map[int64]map[int64]bool),
	}
}

func (m *mockRepository) addPage(p Page, permType string) {
	m.pages = append(m.pages, p)
	m.permTypes[p.ID] = permType
}

func (m *mockRepository) grant(roleID, pageID int64) {
	if m.grants[roleID] == nil {
		m.grants[roleID] = make(map[int64]bool)
	}
	m.grants[roleID][pageID] = true
}

func (m *mockRepository) ListActivePages(ctx context.Context) ([]Page, error) {
	return m.pages, nil
}

func (m *mockRepository) GetPageByURL(ctx context.Context, url string) (Page, error) {
	for _, p := range m.pages {
		if p.URL == url {
			return p, nil
		}
	}
	return Page{}, shared.ErrNotFound
}

func (m *mockRepository) PagePermissionType(ctx context.Context, pageID int64) (string, error) {
	if t, ok := m.permTypes[pageID]; ok {
		return t, nil
	}
	return "view", nil
}

func (m *mockRepository) PageGrant(ctx context.Context, roleID, pageID int64, permType string) (bool, error) {
	return m.grants[roleID][pageID], nil
}

var _ RepositoryPort = (*mockRepository)(nil)

type mockChecker struct {
	granted map[string]struct{}
}

func newMockChecker(names ...string) *mockChecker {
	granted := make(map[string]struct{}, len(names))
	for _, name := range names {
		granted[name] = struct{}{}
	}
	return &mockChecker{granted: granted}
}

func (m *mockChecker) HasAny(ctx context.Context, principal shared.Principal, names ...string) (bool, error) {
	if principal.Role == shared.RoleAdmin {
		return true, nil
	}
	for _, name := range names {
		if _, ok := m.granted[shared.NormalizePermission(name)]; ok {
			return true, nil
		}
	}
	return false, nil
}

func adminPrincipal() shared.Principal {
	return shared.Principal{ID: 1, RoleID: 1, Role: shared.RoleAdmin}
}

func ownerPrincipal() shared.Principal {
	return shared.Principal{ID: 7, RoleID: 2, Role: shared.RoleOwner}
}

func standardPages() *mockRepository {
	repo := newMockRepository()
	repo.addPage(Page{ID: 1, Name: "Buildings", URL: "/buildings", Icon: "building", DisplayOrder: 1, IsActive: true}, "view")
	repo.addPage(Page{ID: 2, Name: "Tenants", URL: "/tenants", Icon: "people", DisplayOrder: 2, IsActive: true}, "view")
	repo.addPage(Page{ID: 3, Name: "Permissions", URL: "/permissions", Icon: "key", DisplayOrder: 3, IsActive: true}, "view")
	return repo
}

// ============================================================================
// TESTS
// ============================================================================

func TestProjectMenuDualCheck(t *testing.T) {
	repo := standardPages()
	// Owner role: abstract permission for buildings and tenants, but a page
	// grant only for buildings. Only buildings survives.
	repo.grant(2, 1)
	checker := newMockChecker(shared.PermBuildingsViewOwn, shared.PermTenantsViewOwn)
	svc := NewService(repo, checker)

	menu, err := svc.ProjectMenu(context.Background(), ownerPrincipal())
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "/buildings", menu[0].URL)
}

func TestProjectMenuGrantWithoutPermissionIsInert(t *testing.T) {
	repo := standardPages()
	repo.grant(2, 3) // page grant for /permissions, but no abstract permission
	checker := newMockChecker()
	svc := NewService(repo, checker)

	menu, err := svc.ProjectMenu(context.Background(), ownerPrincipal())
	require.NoError(t, err)
	assert.Empty(t, menu)
}

func TestProjectMenuEmptyIsValid(t *testing.T) {
	svc := NewService(standardPages(), newMockChecker())

	menu, err := svc.ProjectMenu(context.Background(), ownerPrincipal())
	require.NoError(t, err)
	assert.NotNil(t, menu)
	assert.Empty(t, menu)
}

func TestProjectMenuScopedGrantSatisfiesPage(t *testing.T) {
	repo := standardPages()
	repo.grant(2, 2)
	// The principal holds only the scoped variant of the derived permission.
	checker := newMockChecker(shared.PermTenantsViewOwn)
	svc := NewService(repo, checker)

	menu, err := svc.ProjectMenu(context.Background(), ownerPrincipal())
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "My Tenants", menu[0].Label)
}

func TestProjectMenuAdminSeesGrantedPagesUnrelabeled(t *testing.T) {
	repo := standardPages()
	repo.grant(1, 1)
	repo.grant(1, 3)
	svc := NewService(repo, newMockChecker())

	menu, err := svc.ProjectMenu(context.Background(), adminPrincipal())
	require.NoError(t, err)
	require.Len(t, menu, 2)
	assert.Equal(t, "Buildings", menu[0].Label)
	assert.Equal(t, "Permissions", menu[1].Label)
}

func TestProjectMenuAdminStillNeedsPageGrant(t *testing.T) {
	// Admin bypasses the abstract permission check but not the page grant.
	svc := NewService(standardPages(), newMockChecker())

	menu, err := svc.ProjectMenu(context.Background(), adminPrincipal())
	require.NoError(t, err)
	assert.Empty(t, menu)
}

func TestProjectMenuDoesNotDoublePrefix(t *testing.T) {
	repo := newMockRepository()
	repo.addPage(Page{ID: 9, Name: "My Documents", URL: "/documents", DisplayOrder: 1, IsActive: true}, "view")
	repo.grant(2, 9)
	checker := newMockChecker("my_documents.view")
	svc := NewService(repo, checker)

	menu, err := svc.ProjectMenu(context.Background(), ownerPrincipal())
	require.NoError(t, err)
	require.Len(t, menu, 1)
	assert.Equal(t, "My Documents", menu[0].Label)
}

func TestProjectMenuIsSubsetOfCatalog(t *testing.T) {
	repo := standardPages()
	repo.grant(2, 1)
	repo.grant(2, 2)
	checker := newMockChecker(shared.PermBuildingsViewOwn, shared.PermTenantsViewOwn)
	svc := NewService(repo, checker)

	menu, err := svc.ProjectMenu(context.Background(), ownerPrincipal())
	require.NoError(t, err)

	urls := make(map[string]struct{})
	for _, p := range repo.pages {
		urls[p.URL] = struct{}{}
	}
	for _, item := range menu {
		_, ok := urls[item.URL]
		assert.True(t, ok, "menu item %s not in catalog", item.URL)
	}
}

func TestCheckPageUnknownDenies(t *testing.T) {
	svc := NewService(standardPages(), newMockChecker())

	allowed, err := svc.CheckPage(context.Background(), ownerPrincipal(), "/nope", "view")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckPageExplicitPermType(t *testing.T) {
	repo := standardPages()
	repo.grant(2, 2)
	checker := newMockChecker("tenants.edit")
	svc := NewService(repo, checker)

	allowed, err := svc.CheckPage(context.Background(), ownerPrincipal(), "/tenants", "edit")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = svc.CheckPage(context.Background(), ownerPrincipal(), "/tenants", "view")
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheckPageDefaultsToCatalogPermType(t *testing.T) {
	repo := standardPages()
	repo.grant(2, 1)
	checker := newMockChecker(shared.PermBuildingsView)
	svc := NewService(repo, checker)

	allowed, err := svc.CheckPage(context.Background(), ownerPrincipal(), "/buildings", "")
	require.NoError(t, err)
	assert.True(t, allowed)
}
