// Package scope computes, per principal and resource type, the set of
// record identifiers the principal may see or modify. An empty computed set
// means zero visible records, never "unrestricted".
package scope

import "sort"

// ResourceType identifies a scoped resource family.
type ResourceType string

// Scoped resource types. Building and Villa scopes are leaves; Tenant derives
// from Building, Transaction derives from Tenant, User derives from nothing
// but direct authorship.
const (
	ResourceBuilding    ResourceType = "building"
	ResourceVilla       ResourceType = "villa"
	ResourceTenant      ResourceType = "tenant"
	ResourceTransaction ResourceType = "transaction"
	ResourceUser        ResourceType = "user"
)

// IDSet is a set of record identifiers.
type IDSet map[int64]struct{}

// NewIDSet builds a set from the given identifiers.
func NewIDSet(ids ...int64) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Union merges other into a copy of s.
func (s IDSet) Union(other IDSet) IDSet {
	merged := make(IDSet, len(s)+len(other))
	for id := range s {
		merged[id] = struct{}{}
	}
	for id := range other {
		merged[id] = struct{}{}
	}
	return merged
}

// Slice returns the members in ascending order.
func (s IDSet) Slice() []int64 {
	ids := make([]int64, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Filter is the resolved visibility of one principal across resource types.
// Resource stores apply it as a hard constraint on every list and getById
// query. IsAdmin true bypasses identifier sets entirely; otherwise a type
// with an empty (or absent) set yields zero rows.
type Filter struct {
	IsAdmin   bool
	IDsByType map[ResourceType]IDSet
}

// IDs returns the identifier set resolved for t. The second return is false
// when no set was resolved for t, which callers must treat as deny-all, not
// as unrestricted.
func (f *Filter) IDs(t ResourceType) (IDSet, bool) {
	if f == nil || f.IDsByType == nil {
		return nil, false
	}
	set, ok := f.IDsByType[t]
	return set, ok
}

// Allows reports whether a single record of type t is visible. Individual
// record lookups must go through this so list and detail endpoints apply the
// identical scope test.
func (f *Filter) Allows(t ResourceType, id int64) bool {
	if f == nil {
		return false
	}
	if f.IsAdmin {
		return true
	}
	set, ok := f.IDs(t)
	return ok && set.Has(id)
}
