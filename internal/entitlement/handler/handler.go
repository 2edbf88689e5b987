package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/httputil"
	"toolgate/pkg/requestcontext"
)

// Resolver decides capability access.
type Resolver interface {
	Resolve(ctx context.Context, principal *domain.Principal, capabilityID domain.CapabilityID) (*models.AccessDecision, error)
}

// Curator manages allocations and the capability catalog.
type Curator interface {
	AddAllocation(ctx context.Context, actor domain.Principal, allocation *models.Allocation) error
	DeactivateAllocation(ctx context.Context, actor domain.Principal, capabilityID domain.CapabilityID, courseID domain.CourseID) error
	ListAllocations(ctx context.Context) ([]*models.Allocation, error)
	UpsertCapability(ctx context.Context, actor domain.Principal, capability *models.Capability) error
	ListCapabilities(ctx context.Context) ([]*models.Capability, error)
}

// Handler wires entitlement endpoints to the resolver and curation services.
type Handler struct {
	resolver Resolver
	curator  Curator
	logger   *slog.Logger
}

// New constructs an entitlement handler with its dependencies.
func New(resolver Resolver, curator Curator, logger *slog.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		curator:  curator,
		logger:   logger,
	}
}

// Register mounts the authenticated resolve endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/entitlement/resolve", h.HandleResolve)
}

// RegisterAdmin mounts the curation endpoints; the router must already carry
// the admin-role guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/allocations", h.HandleAddAllocation)
	r.Delete("/allocations/{capabilityID}/{courseID}", h.HandleDeactivateAllocation)
	r.Get("/allocations", h.HandleListAllocations)
	r.Put("/capabilities/{capabilityID}", h.HandleUpsertCapability)
	r.Get("/capabilities", h.HandleListCapabilities)
}

// HandleResolve handles POST /entitlement/resolve requests.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ResolveRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	// The resolver handles the unauthenticated case itself so the decision
	// ladder stays in one place; here a missing principal simply maps to nil.
	var principal *domain.Principal
	if p, authenticated := requestcontext.Principal(ctx); authenticated {
		principal = &p
	}

	decision, err := h.resolver.Resolve(ctx, principal, domain.CapabilityID(req.CapabilityID))
	if err != nil {
		h.logger.ErrorContext(ctx, "capability resolution failed",
			"request_id", requestID,
			"capability_id", req.CapabilityID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDecision(decision))
}

// HandleAddAllocation handles POST /admin/allocations requests.
func (h *Handler) HandleAddAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[AddAllocationRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	allocation := &models.Allocation{
		CapabilityID: domain.CapabilityID(req.CapabilityID),
		CourseID:     domain.CourseID(req.CourseID),
		CourseName:   req.CourseName,
		JoinURL:      req.JoinURL,
	}
	if err := h.curator.AddAllocation(ctx, actor, allocation); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "allocation added",
		"request_id", requestID,
		"capability_id", req.CapabilityID,
		"course_id", req.CourseID,
		"actor_id", actor.ID,
	)
	httputil.WriteJSON(w, http.StatusCreated, fromAllocation(allocation))
}

// HandleDeactivateAllocation handles DELETE /admin/allocations/{capabilityID}/{courseID}.
func (h *Handler) HandleDeactivateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	capabilityID := domain.CapabilityID(chi.URLParam(r, "capabilityID"))
	courseID := domain.CourseID(chi.URLParam(r, "courseID"))

	if err := h.curator.DeactivateAllocation(ctx, actor, capabilityID, courseID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleListAllocations handles GET /admin/allocations.
func (h *Handler) HandleListAllocations(w http.ResponseWriter, r *http.Request) {
	allocations, err := h.curator.ListAllocations(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]AllocationResponse, 0, len(allocations))
	for _, alloc := range allocations {
		out = append(out, fromAllocation(alloc))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleUpsertCapability handles PUT /admin/capabilities/{capabilityID}.
func (h *Handler) HandleUpsertCapability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[UpsertCapabilityRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	capability := toCapability(domain.CapabilityID(chi.URLParam(r, "capabilityID")), req)
	if err := h.curator.UpsertCapability(ctx, actor, capability); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromCapability(capability))
}

// HandleListCapabilities handles GET /admin/capabilities.
func (h *Handler) HandleListCapabilities(w http.ResponseWriter, r *http.Request) {
	capabilities, err := h.curator.ListCapabilities(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]CapabilityResponse, 0, len(capabilities))
	for _, capability := range capabilities {
		out = append(out, fromCapability(capability))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
