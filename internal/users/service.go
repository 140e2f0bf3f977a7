package users

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// creatorChainLimit bounds the created_by walk. Creation trees are shallow
// (admin -> owner -> staff tier) so anything deeper signals corrupt data.
const creatorChainLimit = 32

// ErrCreatorCycle indicates the created_by relation is no longer acyclic.
var ErrCreatorCycle = errors.New("users: creator chain contains a cycle")

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListAll(ctx context.Context, pr shared.PageRequest) ([]User, int, error)
	ListByIDs(ctx context.Context, ids []int64, pr shared.PageRequest) ([]User, int, error)
	GetByID(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, params CreateParams) (User, error)
	RoleName(ctx context.Context, roleID int64) (string, error)
	CreatorChain(ctx context.Context, userID int64, limit int) ([]int64, error)
}

// CreateUserInput carries a user-creation request.
type CreateUserInput struct {
	Email    string
	Name     string
	Password string
	RoleID   int64
}

// Service enforces the hierarchical user-creation policy on top of the scope
// resolver: who may create whom is a single strict rank comparison, and who
// may see whom is the user scope with created_by as the sole signal.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CanCreate reports whether the creator may create a user with the target
// role: admins may create anyone, everyone else only roles ranked strictly
// below their own. An unknown target role fails closed with an error.
func (s *Service) CanCreate(ctx context.Context, creator shared.Principal, targetRoleID int64) (bool, error) {
	targetRole, err := s.repo.RoleName(ctx, targetRoleID)
	if err != nil {
		return false, fmt.Errorf("users: resolve target role: %w", err)
	}
	if creator.IsAdmin() {
		return true, nil
	}
	creatorRank := shared.RoleRank(creator.Role)
	targetRank := shared.RoleRank(targetRole)
	return creatorRank > 0 && targetRank > 0 && targetRank < creatorRank, nil
}

// Create makes a new user on behalf of creator. The new account's created_by
// is always the creator; a caller that cannot supply a creator has no
// business calling this.
func (s *Service) Create(ctx context.Context, creator shared.Principal, input CreateUserInput) (User, error) {
	allowed, err := s.CanCreate(ctx, creator, input.RoleID)
	if err != nil {
		return User{}, err
	}
	if !allowed {
		return User{}, shared.ErrRoleEscalation
	}
	if err := s.ensureAcyclicCreatorChain(ctx, creator.ID); err != nil {
		return User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.Create(ctx, CreateParams{
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: string(hash),
		RoleID:       input.RoleID,
		CreatedBy:    creator.ID,
	})
}

// VisibleUsers returns one page of the users the principal may see, applying
// the resolved scope filter as a hard constraint. A nil filter is a caller
// bug.
func (s *Service) VisibleUsers(ctx context.Context, filter *scope.Filter, pr shared.PageRequest) ([]User, shared.Pagination, error) {
	if filter == nil {
		return nil, shared.Pagination{}, shared.ErrMissingScope
	}
	var (
		users []User
		total int
		err   error
	)
	if filter.IsAdmin {
		users, total, err = s.repo.ListAll(ctx, pr)
	} else {
		ids, ok := filter.IDs(scope.ResourceUser)
		if !ok {
			return nil, shared.Pagination{}, shared.ErrMissingScope
		}
		users, total, err = s.repo.ListByIDs(ctx, ids.Slice(), pr)
	}
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return users, shared.NewPagination(pr.Page, pr.PerPage, total), nil
}

// GetByID fetches one user under the identical scope test the list endpoint
// applies. A user outside the caller's scope is reported as not found.
func (s *Service) GetByID(ctx context.Context, filter *scope.Filter, id int64) (User, error) {
	if filter == nil {
		return User{}, shared.ErrMissingScope
	}
	if !filter.Allows(scope.ResourceUser, id) {
		return User{}, shared.ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// ensureAcyclicCreatorChain walks the creator's own chain and rejects the
// write when an identifier repeats. Creation inserts cannot introduce cycles
// by themselves; this guards against seeded or manually edited data.
func (s *Service) ensureAcyclicCreatorChain(ctx context.Context, creatorID int64) error {
	chain, err := s.repo.CreatorChain(ctx, creatorID, creatorChainLimit)
	if err != nil {
		return fmt.Errorf("users: creator chain: %w", err)
	}
	seen := map[int64]struct{}{creatorID: {}}
	for _, id := range chain {
		if _, ok := seen[id]; ok {
			return ErrCreatorCycle
		}
		seen[id] = struct{}{}
	}
	return nil
}
