package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/atrium-pm/atrium/internal/auth"
	"github.com/atrium-pm/atrium/internal/observability"
	"github.com/atrium-pm/atrium/internal/properties"
	"github.com/atrium-pm/atrium/internal/rbac"
	"github.com/atrium-pm/atrium/internal/shared"
	"github.com/atrium-pm/atrium/internal/sidebar"
	"github.com/atrium-pm/atrium/internal/users"
	"github.com/atrium-pm/atrium/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	Pool           *pgxpool.Pool

	AuthHandler       *auth.Handler
	RBACHandler       *rbac.Handler
	UsersHandler      *users.Handler
	SidebarHandler    *sidebar.Handler
	PropertiesHandler *properties.Handler

	JobHandler *jobs.Handler

	RBACMiddleware rbac.Middleware
	Metrics        *observability.Metrics
}

// NewRouter constructs the chi.Router with Atrium defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	// Everything below requires an authenticated principal.
	r.Group(func(r chi.Router) {
		r.Use(params.RBACMiddleware.Authenticate)

		if params.RBACHandler != nil {
			r.Route("/permissions", params.RBACHandler.MountPermissionRoutes)
			r.Route("/roles", params.RBACHandler.MountRoleRoutes)
		}
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountRoutes)
		}
		if params.SidebarHandler != nil {
			r.Route("/sidebar", params.SidebarHandler.MountRoutes)
		}
		if params.PropertiesHandler != nil {
			r.Route("/buildings", params.PropertiesHandler.MountBuildingRoutes)
			r.Route("/villas", params.PropertiesHandler.MountVillaRoutes)
			r.Route("/tenants", params.PropertiesHandler.MountTenantRoutes)
			r.Route("/transactions", params.PropertiesHandler.MountTransactionRoutes)
			r.Route("/assignments", params.PropertiesHandler.MountAssignmentRoutes)
			r.Route("/units", params.PropertiesHandler.MountUnitRoutes)
		}
	})

	return r
}
