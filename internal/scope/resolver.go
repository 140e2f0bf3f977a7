package scope

import (
	"context"
	"errors"
	"fmt"

	"github.com/atrium-pm/atrium/internal/shared"
)

// ErrUnknownResource indicates a resolve request for a resource type the
// resolver has no ownership signals for. This is a caller bug and fails
// closed.
var ErrUnknownResource = errors.New("scope: unknown resource type")

// maxContainerDepth bounds recursive container resolution. Container chains
// in this domain are at most transaction -> tenant -> building; the limit
// guards against future schema changes introducing cycles.
const maxContainerDepth = 5

// containerOf maps each resource type to the container type its derived
// visibility joins through. Types absent from the map have no containment
// path and rely on assignment and authorship alone.
var containerOf = map[ResourceType]ResourceType{
	ResourceTenant:      ResourceBuilding,
	ResourceTransaction: ResourceTenant,
}

// knownTypes enumerates every type the resolver may be asked about.
var knownTypes = map[ResourceType]struct{}{
	ResourceBuilding:    {},
	ResourceVilla:       {},
	ResourceTenant:      {},
	ResourceTransaction: {},
	ResourceUser:        {},
}

// Store supplies the ownership signals the resolver unions per type.
type Store interface {
	// AssignedIDs returns identifiers explicitly granted to the user.
	// Assignments are only defined for buildings and villas; other types
	// return an empty set.
	AssignedIDs(ctx context.Context, t ResourceType, userID int64) (IDSet, error)
	// CreatedIDs returns identifiers whose created_by matches the user.
	CreatedIDs(ctx context.Context, t ResourceType, userID int64) (IDSet, error)
	// ContainedIDs returns identifiers of type t reachable through the given
	// container identifiers, excluding records with NULL created_by.
	ContainedIDs(ctx context.Context, t ResourceType, containers IDSet) (IDSet, error)
}

// Resolver computes scope filters. It holds no mutable state and is safe for
// concurrent use.
type Resolver struct {
	store Store
}

// NewResolver constructs a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve computes the filter for the principal across the requested types.
// Admin principals resolve to an unrestricted filter without store access.
// Empty results are valid, successful answers: the resolver never errors on
// "nothing visible".
func (r *Resolver) Resolve(ctx context.Context, principal shared.Principal, types ...ResourceType) (*Filter, error) {
	if principal.IsAdmin() {
		return &Filter{IsAdmin: true}, nil
	}

	filter := &Filter{IDsByType: make(map[ResourceType]IDSet, len(types))}
	for _, t := range types {
		set, err := r.resolveType(ctx, principal.ID, t, filter.IDsByType, 0)
		if err != nil {
			return nil, err
		}
		filter.IDsByType[t] = set
	}
	return filter, nil
}

func (r *Resolver) resolveType(ctx context.Context, userID int64, t ResourceType, resolved map[ResourceType]IDSet, depth int) (IDSet, error) {
	if _, ok := knownTypes[t]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownResource, t)
	}
	if depth > maxContainerDepth {
		return nil, fmt.Errorf("scope: container chain for %q exceeds depth %d", t, maxContainerDepth)
	}
	if set, ok := resolved[t]; ok {
		return set, nil
	}

	assigned, err := r.store.AssignedIDs(ctx, t, userID)
	if err != nil {
		return nil, fmt.Errorf("scope: assigned ids for %q: %w", t, err)
	}
	created, err := r.store.CreatedIDs(ctx, t, userID)
	if err != nil {
		return nil, fmt.Errorf("scope: created ids for %q: %w", t, err)
	}
	set := assigned.Union(created)

	if container, ok := containerOf[t]; ok {
		containerScope, err := r.resolveType(ctx, userID, container, resolved, depth+1)
		if err != nil {
			return nil, err
		}
		resolved[container] = containerScope
		if len(containerScope) > 0 {
			derived, err := r.store.ContainedIDs(ctx, t, containerScope)
			if err != nil {
				return nil, fmt.Errorf("scope: contained ids for %q: %w", t, err)
			}
			set = set.Union(derived)
		}
	}

	return set, nil
}
