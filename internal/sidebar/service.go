package sidebar

import (
	"context"
	"errors"
	"strings"

	"github.com/atrium-pm/atrium/internal/shared"
)

// possessivePrefix relabels menu entries for non-admin principals. It is a
// presentation nuance only; it never affects an access decision.
const possessivePrefix = "My "

// RepositoryPort defines data access for the page catalog.
type RepositoryPort interface {
	ListActivePages(ctx context.Context) ([]Page, error)
	GetPageByURL(ctx context.Context, url string) (Page, error)
	PagePermissionType(ctx context.Context, pageID int64) (string, error)
	PageGrant(ctx context.Context, roleID, pageID int64, permType string) (bool, error)
}

// PermissionChecker resolves abstract permission checks for a principal.
type PermissionChecker interface {
	HasAny(ctx context.Context, principal shared.Principal, names ...string) (bool, error)
}

// Service projects the page catalog through the principal's permissions.
type Service struct {
	repo    RepositoryPort
	catalog PermissionChecker
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, catalog PermissionChecker) *Service {
	return &Service{repo: repo, catalog: catalog}
}

// ProjectMenu returns the pages the principal may be offered, in display
// order. A page survives only when the principal holds the abstract
// permission derived from the page name AND the role-page grant is present:
// a role can hold the abstract permission while being denied the specific
// page. A grant without the abstract permission is inert. An empty menu is a
// valid result.
func (s *Service) ProjectMenu(ctx context.Context, principal shared.Principal) ([]MenuItem, error) {
	pages, err := s.repo.ListActivePages(ctx)
	if err != nil {
		return nil, err
	}

	menu := make([]MenuItem, 0, len(pages))
	for _, page := range pages {
		allowed, err := s.pageAllowed(ctx, principal, page, "")
		if err != nil {
			return nil, err
		}
		if !allowed {
			continue
		}
		menu = append(menu, MenuItem{
			ID:           page.ID,
			Label:        s.label(principal, page.Name),
			URL:          page.URL,
			Icon:         page.Icon,
			DisplayOrder: page.DisplayOrder,
		})
	}
	return menu, nil
}

// CheckPage reports whether the principal may access the page identified by
// URL for the given permission type. Unknown pages deny.
func (s *Service) CheckPage(ctx context.Context, principal shared.Principal, pageURL, permType string) (bool, error) {
	page, err := s.repo.GetPageByURL(ctx, pageURL)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.pageAllowed(ctx, principal, page, permType)
}

func (s *Service) pageAllowed(ctx context.Context, principal shared.Principal, page Page, permType string) (bool, error) {
	if permType == "" {
		resolved, err := s.repo.PagePermissionType(ctx, page.ID)
		if err != nil {
			return false, err
		}
		permType = resolved
	}

	// The scoped variant of the derived permission satisfies the page's
	// requirement: a principal holding only "tenants.view_own" is still
	// offered the Tenants page, relabeled possessively below.
	required := shared.PagePermissionName(page.Name, permType)
	hasAbstract, err := s.catalog.HasAny(ctx, principal, required, required+"_own")
	if err != nil {
		return false, err
	}
	if !hasAbstract {
		return false, nil
	}

	granted, err := s.repo.PageGrant(ctx, principal.RoleID, page.ID, permType)
	if err != nil {
		return false, err
	}
	return granted, nil
}

func (s *Service) label(principal shared.Principal, name string) string {
	if principal.IsAdmin() {
		return name
	}
	if strings.HasPrefix(name, possessivePrefix) {
		return name
	}
	return possessivePrefix + name
}
