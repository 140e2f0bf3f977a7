package properties

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/atrium-pm/atrium/internal/platform/httpx"
	"github.com/atrium-pm/atrium/internal/rbac"
	"github.com/atrium-pm/atrium/internal/scope"
	"github.com/atrium-pm/atrium/internal/shared"
)

// Handler manages property resource endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	audit     *shared.AuditLogger
	mw        rbac.Middleware
	validator *validator.Validate
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, audit *shared.AuditLogger, mw rbac.Middleware) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		audit:     audit,
		mw:        mw,
		validator: validator.New(),
	}
}

// MountBuildingRoutes registers building routes.
func (h *Handler) MountBuildingRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermBuildingsView, shared.PermBuildingsViewOwn))
		r.Use(h.mw.RequireScope(scope.ResourceBuilding))
		r.Get("/", h.listBuildings)
		r.Get("/{id}", h.getBuilding)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermBuildingsCreate))
		r.Post("/", h.createBuilding)
	})
}

// MountVillaRoutes registers villa routes.
func (h *Handler) MountVillaRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermVillasView, shared.PermVillasViewOwn))
		r.Use(h.mw.RequireScope(scope.ResourceVilla))
		r.Get("/", h.listVillas)
		r.Get("/{id}", h.getVilla)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermVillasCreate))
		r.Post("/", h.createVilla)
	})
}

// MountTenantRoutes registers tenant routes.
func (h *Handler) MountTenantRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermTenantsView, shared.PermTenantsViewOwn))
		r.Use(h.mw.RequireScope(scope.ResourceTenant))
		r.Get("/", h.listTenants)
		r.Get("/{id}", h.getTenant)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermTenantsCreate))
		r.Post("/", h.createTenant)
	})
}

// MountTransactionRoutes registers transaction routes.
func (h *Handler) MountTransactionRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermTransactionsView, shared.PermTransactionsViewOwn))
		r.Use(h.mw.RequireScope(scope.ResourceTransaction))
		r.Get("/", h.listTransactions)
		r.Get("/{id}", h.getTransaction)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermTransactionsCreate))
		r.Use(h.mw.RequireScope(scope.ResourceTenant))
		r.Post("/", h.createTransaction)
	})
}

// MountAssignmentRoutes registers the admin-only assignment routes.
func (h *Handler) MountAssignmentRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermBuildingsAssign, shared.PermVillasAssign))
		r.Post("/", h.createAssignment)
		r.Delete("/", h.deleteAssignment)
	})
}

// MountUnitRoutes registers unit ownership routes.
func (h *Handler) MountUnitRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.mw.RequireAny(shared.PermUnitsManage))
		r.Use(h.mw.RequireScope(scope.ResourceBuilding))
		r.Get("/{id}/ownership", h.currentOwnership)
		r.Post("/{id}/transfer", h.transferOwnership)
	})
}

type buildingView struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	CreatedBy *int64 `json:"createdBy,omitempty"`
}

type tenantView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	ApartmentID *int64 `json:"apartmentId,omitempty"`
	CreatedBy   *int64 `json:"createdBy,omitempty"`
}

type transactionView struct {
	ID         int64     `json:"id"`
	TenantID   int64     `json:"tenantId"`
	AmountCent int64     `json:"amountCent"`
	Kind       string    `json:"kind"`
	OccurredAt time.Time `json:"occurredAt"`
	CreatedBy  *int64    `json:"createdBy,omitempty"`
}

func (h *Handler) listBuildings(w http.ResponseWriter, r *http.Request) {
	filter, _ := scope.FilterFromContext(r.Context())
	list, page, err := h.service.ListBuildings(r.Context(), filter, shared.PageRequestFromQuery(r.URL.Query()))
	if err != nil {
		h.respondListError(w, "list buildings", err)
		return
	}
	views := make([]buildingView, 0, len(list))
	for _, b := range list {
		views = append(views, buildingView{ID: b.ID, Name: b.Name, Address: b.Address, CreatedBy: b.CreatedBy})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"buildings": views, "pagination": page})
}

func (h *Handler) getBuilding(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	b, err := h.service.GetBuilding(r.Context(), filter, id)
	if err != nil {
		h.respondGetError(w, "get building", err)
		return
	}
	httpx.JSON(w, http.StatusOK, buildingView{ID: b.ID, Name: b.Name, Address: b.Address, CreatedBy: b.CreatedBy})
}

type createPropertyRequest struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
}

func (h *Handler) createBuilding(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := h.decodeCreateProperty(w, r)
	if !ok {
		return
	}
	b, err := h.service.CreateBuilding(r.Context(), principal, req.Name, req.Address)
	if err != nil {
		h.logger.Error("create building", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, buildingView{ID: b.ID, Name: b.Name, Address: b.Address, CreatedBy: b.CreatedBy})
}

func (h *Handler) listVillas(w http.ResponseWriter, r *http.Request) {
	filter, _ := scope.FilterFromContext(r.Context())
	list, page, err := h.service.ListVillas(r.Context(), filter, shared.PageRequestFromQuery(r.URL.Query()))
	if err != nil {
		h.respondListError(w, "list villas", err)
		return
	}
	views := make([]buildingView, 0, len(list))
	for _, v := range list {
		views = append(views, buildingView{ID: v.ID, Name: v.Name, Address: v.Address, CreatedBy: v.CreatedBy})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"villas": views, "pagination": page})
}

func (h *Handler) getVilla(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	v, err := h.service.GetVilla(r.Context(), filter, id)
	if err != nil {
		h.respondGetError(w, "get villa", err)
		return
	}
	httpx.JSON(w, http.StatusOK, buildingView{ID: v.ID, Name: v.Name, Address: v.Address, CreatedBy: v.CreatedBy})
}

func (h *Handler) createVilla(w http.ResponseWriter, r *http.Request) {
	principal, req, ok := h.decodeCreateProperty(w, r)
	if !ok {
		return
	}
	v, err := h.service.CreateVilla(r.Context(), principal, req.Name, req.Address)
	if err != nil {
		h.logger.Error("create villa", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, buildingView{ID: v.ID, Name: v.Name, Address: v.Address, CreatedBy: v.CreatedBy})
}

func (h *Handler) listTenants(w http.ResponseWriter, r *http.Request) {
	filter, _ := scope.FilterFromContext(r.Context())
	list, page, err := h.service.ListTenants(r.Context(), filter, shared.PageRequestFromQuery(r.URL.Query()))
	if err != nil {
		h.respondListError(w, "list tenants", err)
		return
	}
	views := make([]tenantView, 0, len(list))
	for _, t := range list {
		views = append(views, tenantView{ID: t.ID, Name: t.Name, Email: t.Email, ApartmentID: t.ApartmentID, CreatedBy: t.CreatedBy})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"tenants": views, "pagination": page})
}

func (h *Handler) getTenant(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	t, err := h.service.GetTenant(r.Context(), filter, id)
	if err != nil {
		h.respondGetError(w, "get tenant", err)
		return
	}
	httpx.JSON(w, http.StatusOK, tenantView{ID: t.ID, Name: t.Name, Email: t.Email, ApartmentID: t.ApartmentID, CreatedBy: t.CreatedBy})
}

type createTenantRequest struct {
	Name        string `json:"name" validate:"required"`
	Email       string `json:"email" validate:"omitempty,email"`
	ApartmentID *int64 `json:"apartmentId"`
}

func (h *Handler) createTenant(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createTenantRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	t, err := h.service.CreateTenant(r.Context(), principal, req.Name, req.Email, req.ApartmentID)
	if err != nil {
		h.logger.Error("create tenant", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, tenantView{ID: t.ID, Name: t.Name, Email: t.Email, ApartmentID: t.ApartmentID, CreatedBy: t.CreatedBy})
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	filter, _ := scope.FilterFromContext(r.Context())
	list, page, err := h.service.ListTransactions(r.Context(), filter, shared.PageRequestFromQuery(r.URL.Query()))
	if err != nil {
		h.respondListError(w, "list transactions", err)
		return
	}
	views := make([]transactionView, 0, len(list))
	for _, tx := range list {
		views = append(views, transactionView{ID: tx.ID, TenantID: tx.TenantID, AmountCent: tx.AmountCent, Kind: tx.Kind, OccurredAt: tx.OccurredAt, CreatedBy: tx.CreatedBy})
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": views, "pagination": page})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	tx, err := h.service.GetTransaction(r.Context(), filter, id)
	if err != nil {
		h.respondGetError(w, "get transaction", err)
		return
	}
	httpx.JSON(w, http.StatusOK, transactionView{ID: tx.ID, TenantID: tx.TenantID, AmountCent: tx.AmountCent, Kind: tx.Kind, OccurredAt: tx.OccurredAt, CreatedBy: tx.CreatedBy})
}

type createTransactionRequest struct {
	TenantID   int64     `json:"tenantId" validate:"required"`
	AmountCent int64     `json:"amountCent" validate:"required"`
	Kind       string    `json:"kind" validate:"required"`
	OccurredAt time.Time `json:"occurredAt" validate:"required"`
}

func (h *Handler) createTransaction(w http.ResponseWriter, r *http.Request) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return
	}
	var req createTransactionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	tx, err := h.service.CreateTransaction(r.Context(), principal, filter, req.TenantID, req.AmountCent, req.Kind, req.OccurredAt)
	if err != nil {
		h.respondGetError(w, "create transaction", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, transactionView{ID: tx.ID, TenantID: tx.TenantID, AmountCent: tx.AmountCent, Kind: tx.Kind, OccurredAt: tx.OccurredAt, CreatedBy: tx.CreatedBy})
}

type assignmentRequest struct {
	UserID       int64  `json:"userId" validate:"required"`
	ResourceType string `json:"resourceType" validate:"required,oneof=building villa"`
	ResourceID   int64  `json:"resourceId" validate:"required"`
}

func (h *Handler) createAssignment(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAssignment(w, r)
	if !ok {
		return
	}
	if err := h.service.Assign(r.Context(), scope.ResourceType(req.ResourceType), req.UserID, req.ResourceID); err != nil {
		h.respondGetError(w, "create assignment", err)
		return
	}
	h.recordAudit(r, "assignment.create", map[string]any{
		"userId": req.UserID, "resourceType": req.ResourceType, "resourceId": req.ResourceID,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeAssignment(w, r)
	if !ok {
		return
	}
	if err := h.service.Revoke(r.Context(), scope.ResourceType(req.ResourceType), req.UserID, req.ResourceID); err != nil {
		h.respondGetError(w, "delete assignment", err)
		return
	}
	h.recordAudit(r, "assignment.revoke", map[string]any{
		"userId": req.UserID, "resourceType": req.ResourceType, "resourceId": req.ResourceID,
	})
	w.WriteHeader(http.StatusNoContent)
}

type transferRequest struct {
	NewOwnerID   int64  `json:"newOwnerId" validate:"required"`
	TransferDate string `json:"transferDate" validate:"required,datetime=2006-01-02"`
}

func (h *Handler) transferOwnership(w http.ResponseWriter, r *http.Request) {
	unitID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	transferDate, err := time.Parse("2006-01-02", req.TransferDate)
	if err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	if err := h.service.TransferOwnership(r.Context(), filter, unitID, req.NewOwnerID, transferDate); err != nil {
		h.respondGetError(w, "transfer ownership", err)
		return
	}
	h.recordAudit(r, "unit.transfer", map[string]any{
		"unitId": unitID, "newOwnerId": req.NewOwnerID, "transferDate": req.TransferDate,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) currentOwnership(w http.ResponseWriter, r *http.Request) {
	unitID, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	filter, _ := scope.FilterFromContext(r.Context())
	rec, err := h.service.CurrentOwnership(r.Context(), filter, unitID)
	if err != nil {
		h.respondGetError(w, "current ownership", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"unitId":    rec.UnitID,
		"ownerId":   rec.OwnerID,
		"startDate": rec.StartDate.Format("2006-01-02"),
		"isCurrent": rec.IsCurrent,
	})
}

func (h *Handler) decodeCreateProperty(w http.ResponseWriter, r *http.Request) (shared.Principal, createPropertyRequest, bool) {
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		httpx.RespondError(w, httpx.ErrUnauthorized)
		return shared.Principal{}, createPropertyRequest{}, false
	}
	var req createPropertyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return shared.Principal{}, createPropertyRequest{}, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return shared.Principal{}, createPropertyRequest{}, false
	}
	return principal, req, true
}

func (h *Handler) decodeAssignment(w http.ResponseWriter, r *http.Request) (assignmentRequest, bool) {
	var req assignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, false
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, httpx.ErrValidation)
		return req, false
	}
	return req, true
}

func (h *Handler) respondListError(w http.ResponseWriter, msg string, err error) {
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) respondGetError(w http.ResponseWriter, msg string, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		httpx.RespondError(w, httpx.ErrNotFound)
		return
	}
	h.logger.Error(msg, slog.Any("error", err))
	httpx.RespondError(w, err)
}

func (h *Handler) recordAudit(r *http.Request, action string, meta map[string]any) {
	if h.audit == nil {
		return
	}
	principal, ok := shared.PrincipalFromContext(r.Context())
	if !ok {
		return
	}
	if err := h.audit.Record(r.Context(), shared.AuditLog{
		ActorID: principal.ID,
		Action:  action,
		Entity:  "property",
		Meta:    meta,
	}); err != nil {
		h.logger.Warn("audit record", slog.Any("error", err))
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
