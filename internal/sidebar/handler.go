package sidebar

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/atrium-pm/atrium/internal/platform/httpx"
	"github.com/atrium-pm/atrium/internal/shared"
)

// Handler serves the projected navigation menu.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sidebar routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pages", h.pages)
	r.Get("/check", h.check)
}

func (h *Handler) pages(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	menu, err := h.service.ProjectMenu(r.Context(), principal)
	if err != nil {
		h.logger.Error("project menu", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"pages": menu})
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	pageURL := strings.TrimSpace(r.URL.Query().Get("pageUrl"))
	permType := strings.TrimSpace(r.URL.Query().Get("permissionType"))
	if pageURL == "" {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if permType == "" {
		permType = "view"
	}
	allowed, err := h.service.CheckPage(r.Context(), principal, pageURL, permType)
	if err != nil {
		h.logger.Error("check page", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]bool{"allowed": allowed})
}
