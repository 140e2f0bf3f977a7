package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/atrium-pm/atrium/internal/platform/httpx"
	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// DecisionRecorder observes authorization decisions for metrics.
type DecisionRecorder interface {
	AuthzDecision(permission, decision string)
}

// Middleware wires authorization gates for HTTP handlers. It authenticates
// the principal, checks required permissions, and attaches resolved scope
// filters to the request context. It never mutates any store.
type Middleware struct {
	Catalog  *Service
	Resolver *scope.Resolver
	Logger   *slog.Logger
	Metrics  DecisionRecorder
}

// Authenticate resolves the session into a principal and stores it in the
// request context. Requests without a valid principal receive 401.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.currentUserID(r)
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		principal, err := m.Catalog.GetPrincipal(r.Context(), userID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				// Session references a deactivated or deleted user.
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			m.logError("load principal", err)
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
			return
		}
		next.ServeHTTP(w, r.WithContext(shared.ContextWithPrincipal(r.Context(), principal)))
	})
}

// RequireAny ensures the principal holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, false)
}

// RequireAll ensures the principal holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	return m.require(perms, true)
}

func (m Middleware) require(perms []string, requireAll bool) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			var allowed bool
			var err error
			if requireAll {
				allowed, err = m.Catalog.HasAll(r.Context(), principal, normalized...)
			} else {
				allowed, err = m.Catalog.HasAny(r.Context(), principal, normalized...)
			}
			if err != nil {
				m.logError("resolve permissions", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !allowed {
				m.recordDecision(normalized, "deny")
				httpx.Problem(w, http.StatusForbidden, "Forbidden",
					"missing permission: "+strings.Join(normalized, ", "))
				return
			}
			m.recordDecision(normalized, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

// RequireScope resolves the principal's scope for the given resource types
// and attaches the filter to the request context. Downstream stores apply it
// as a hard constraint; an empty resolved set yields zero rows.
func (m Middleware) RequireScope(types ...scope.ResourceType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := shared.PrincipalFromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			filter, err := m.Resolver.Resolve(r.Context(), principal, types...)
			if err != nil {
				if errors.Is(err, scope.ErrUnknownResource) {
					m.logError("resolve scope", err)
					httpx.RespondError(w, httpx.ErrConfiguration)
					return
				}
				m.logError("resolve scope", err)
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(scope.ContextWithFilter(r.Context(), filter)))
		})
	}
}

func (m Middleware) currentUserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		m.logError("parse session user id", err)
		return 0, false
	}
	return id, true
}

func (m Middleware) recordDecision(perms []string, decision string) {
	if m.Metrics == nil {
		return
	}
	for _, perm := range perms {
		m.Metrics.AuthzDecision(perm, decision)
	}
}

func (m Middleware) logError(msg string, err error) {
	if m.Logger != nil {
		m.Logger.Error(msg, slog.Any("error", err))
	}
}
