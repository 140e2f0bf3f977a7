package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atrium-pm/atrium/internal/shared"
)

// Service is the permission catalog: it resolves grants per role and answers
// permission checks. Resolution is deterministic and side-effect free; the
// only state beyond the store is a short-lived Redis cache of resolved names.
type Service struct {
	repo     RepositoryPort
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService constructs a Service. The cache client may be nil, in which case
// every check resolves against the store.
func NewService(repo RepositoryPort, cache *redis.Client, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// GetPrincipal loads the authorization view of a user.
func (s *Service) GetPrincipal(ctx context.Context, userID int64) (shared.Principal, error) {
	return s.repo.GetPrincipal(ctx, userID)
}

// ListPermissionsForRole returns the full permission records granted to a
// role, ordered by name.
func (s *Service) ListPermissionsForRole(ctx context.Context, roleID int64) ([]Permission, error) {
	return s.repo.ListPermissionsForRole(ctx, roleID)
}

// EffectivePermissions returns the resolved permission names for a principal.
// Admin resolves through the store like everyone else; its bypass lives in
// the Has* checks, not in the resolved set.
func (s *Service) EffectivePermissions(ctx context.Context, principal shared.Principal) ([]string, error) {
	if names, ok := s.cachedNames(ctx, principal.RoleID); ok {
		return names, nil
	}
	names, err := s.repo.PermissionNamesForRole(ctx, principal.RoleID)
	if err != nil {
		return nil, err
	}
	s.storeNames(ctx, principal.RoleID, names)
	return names, nil
}

// HasPermission reports whether the principal holds the named permission.
// Admin is granted unconditionally. Unknown permission names are simply not
// in the resolved set, so they fail closed without error.
func (s *Service) HasPermission(ctx context.Context, principal shared.Principal, name string) (bool, error) {
	return s.HasAny(ctx, principal, name)
}

// HasAny reports whether the principal holds at least one of the named
// permissions.
func (s *Service) HasAny(ctx context.Context, principal shared.Principal, names ...string) (bool, error) {
	if principal.IsAdmin() {
		return true, nil
	}
	required := normalizePermissions(names)
	if len(required) == 0 {
		return false, nil
	}
	granted, err := s.grantedSet(ctx, principal)
	if err != nil {
		return false, err
	}
	for _, name := range required {
		if _, ok := granted[name]; ok {
			return true, nil
		}
	}
	return false, nil
}

// HasAll reports whether the principal holds every named permission.
func (s *Service) HasAll(ctx context.Context, principal shared.Principal, names ...string) (bool, error) {
	if principal.IsAdmin() {
		return true, nil
	}
	required := normalizePermissions(names)
	if len(required) == 0 {
		return false, nil
	}
	granted, err := s.grantedSet(ctx, principal)
	if err != nil {
		return false, err
	}
	for _, name := range required {
		if _, ok := granted[name]; !ok {
			return false, nil
		}
	}
	return true, nil
}

// ListRoles returns all roles.
func (s *Service) ListRoles(ctx context.Context) ([]Role, error) {
	return s.repo.ListRoles(ctx)
}

// GetRole fetches a role by ID.
func (s *Service) GetRole(ctx context.Context, id int64) (Role, error) {
	return s.repo.GetRole(ctx, id)
}

// CreateRole inserts a new role.
func (s *Service) CreateRole(ctx context.Context, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	return s.repo.CreateRole(ctx, name, strings.TrimSpace(description))
}

// UpdateRole updates an existing role.
func (s *Service) UpdateRole(ctx context.Context, id int64, name, description string) (Role, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Role{}, errors.New("rbac: role name required")
	}
	role, err := s.repo.UpdateRole(ctx, id, name, strings.TrimSpace(description))
	if err != nil {
		return Role{}, err
	}
	s.invalidate(ctx, id)
	return role, nil
}

// DeleteRole removes a role by ID.
func (s *Service) DeleteRole(ctx context.Context, id int64) error {
	rows, err := s.repo.DeleteRole(ctx, id)
	if err != nil {
		return err
	}
	if rows == 0 {
		return shared.ErrNotFound
	}
	s.invalidate(ctx, id)
	return nil
}

// ListPermissions returns the full catalog.
func (s *Service) ListPermissions(ctx context.Context) ([]Permission, error) {
	return s.repo.ListPermissions(ctx)
}

// EnsurePermission upserts a permission by qualified name.
func (s *Service) EnsurePermission(ctx context.Context, name string) (Permission, error) {
	name = shared.NormalizePermission(name)
	if name == "" {
		return Permission{}, errors.New("rbac: permission name required")
	}
	return s.repo.UpsertPermission(ctx, name)
}

// SetRolePermissions replaces the grant set for a role and invalidates the
// cached resolution.
func (s *Service) SetRolePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	if err := s.repo.SetRolePermissions(ctx, roleID, permissionIDs); err != nil {
		return err
	}
	s.invalidate(ctx, roleID)
	return nil
}

func (s *Service) grantedSet(ctx context.Context, principal shared.Principal) (map[string]struct{}, error) {
	names, err := s.EffectivePermissions(ctx, principal)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(names))
	for _, name := range names {
		set[shared.NormalizePermission(name)] = struct{}{}
	}
	return set, nil
}

func (s *Service) cacheKey(roleID int64) string {
	return fmt.Sprintf("rbac:role:%d:perms", roleID)
}

func (s *Service) cachedNames(ctx context.Context, roleID int64) ([]string, bool) {
	if s.cache == nil {
		return nil, false
	}
	payload, err := s.cache.Get(ctx, s.cacheKey(roleID)).Bytes()
	if err != nil {
		return nil, false
	}
	var names []string
	if err := json.Unmarshal(payload, &names); err != nil {
		return nil, false
	}
	return names, true
}

func (s *Service) storeNames(ctx context.Context, roleID int64, names []string) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(names)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, s.cacheKey(roleID), payload, s.cacheTTL).Err()
}

func (s *Service) invalidate(ctx context.Context, roleID int64) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, s.cacheKey(roleID)).Err()
}

func normalizePermissions(names []string) []string {
	unique := make(map[string]struct{}, len(names))
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		name = shared.NormalizePermission(name)
		if name == "" {
			continue
		}
		if _, ok := unique[name]; ok {
			continue
		}
		unique[name] = struct{}{}
		ordered = append(ordered, name)
	}
	return ordered
}
