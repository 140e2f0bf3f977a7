package scope

import "context"

type filterContextKey struct{}

// ContextWithFilter stores a resolved scope filter in context.
func ContextWithFilter(ctx context.Context, f *Filter) context.Context {
	return context.WithValue(ctx, filterContextKey{}, f)
}

// FilterFromContext extracts the scope filter attached by the authorization
// middleware. The second return is false when no filter was attached; scoped
// handlers must treat that as a programming error, never as "no filter".
func FilterFromContext(ctx context.Context) (*Filter, bool) {
	f, ok := ctx.Value(filterContextKey{}).(*Filter)
	return f, ok && f != nil
}
