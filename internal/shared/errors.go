package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRoleEscalation indicates a user-creation attempt above the creator's rank.
	ErrRoleEscalation = errors.New("role escalation denied")
	// ErrMissingScope indicates a scoped query was issued without a resolved
	// scope filter. This is a caller bug, never a routine condition.
	ErrMissingScope = errors.New("scope filter missing")
)
