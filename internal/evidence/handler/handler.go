package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"toolgate/internal/evidence/models"
	"toolgate/internal/evidence/service"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/httputil"
	"toolgate/pkg/requestcontext"
)

// Collector records and lists skill evidence.
type Collector interface {
	Record(ctx context.Context, principal domain.Principal, input service.RecordInput) (*models.Evidence, error)
	ListForPrincipal(ctx context.Context, principal domain.Principal) ([]*models.Evidence, error)
}

// Handler exposes the evidence endpoints.
type Handler struct {
	collector Collector
	logger    *slog.Logger
}

func New(collector Collector, logger *slog.Logger) *Handler {
	return &Handler{
		collector: collector,
		logger:    logger,
	}
}

// Register mounts the authenticated evidence endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/evidence", h.HandleRecord)
	r.Get("/evidence", h.HandleList)
}

// HandleRecord handles POST /evidence requests.
func (h *Handler) HandleRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[RecordEvidenceRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	evidence, err := h.collector.Record(ctx, principal, service.RecordInput{
		Type:       models.EvidenceType(req.EvidenceType),
		SourceID:   req.SourceID,
		SourceName: req.SourceName,
		Category:   req.Category,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "evidence record failed",
			"request_id", requestID,
			"evidence_type", req.EvidenceType,
			"source_id", req.SourceID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, fromEvidence(evidence))
}

// HandleList handles GET /evidence requests.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	rows, err := h.collector.ListForPrincipal(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]EvidenceResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromEvidence(row))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}
