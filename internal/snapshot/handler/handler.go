package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"toolgate/internal/snapshot/models"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/httputil"
	"toolgate/pkg/requestcontext"
)

// Snapshots issues and serves verification snapshots.
type Snapshots interface {
	Create(ctx context.Context, principal domain.Principal, userName string, selectedCategoryIDs []domain.CategoryID) (*models.VerificationSnapshot, error)
	Get(ctx context.Context, token string) (*models.VerificationSnapshot, error)
}

// Handler exposes the snapshot endpoints.
type Handler struct {
	snapshots Snapshots
	logger    *slog.Logger
}

func New(snapshots Snapshots, logger *slog.Logger) *Handler {
	return &Handler{
		snapshots: snapshots,
		logger:    logger,
	}
}

// Register mounts the authenticated snapshot creation endpoint.
func (h *Handler) Register(r chi.Router) {
	r.Post("/snapshots", h.HandleCreate)
}

// RegisterPublic mounts the unauthenticated verification read path.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/verify/{token}", h.HandleVerify)
}

// HandleCreate handles POST /snapshots.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[CreateSnapshotRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	categoryIDs := make([]domain.CategoryID, 0, len(req.CategoryIDs))
	for _, raw := range req.CategoryIDs {
		id, err := domain.ParseCategoryID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		categoryIDs = append(categoryIDs, id)
	}

	snapshot, err := h.snapshots.Create(ctx, principal, req.UserName, categoryIDs)
	if err != nil {
		h.logger.ErrorContext(ctx, "snapshot creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, CreateSnapshotResponse{
		Token:     snapshot.Token,
		CreatedAt: snapshot.CreatedAt,
		ExpiresAt: snapshot.ExpiresAt,
	})
}

// HandleVerify handles GET /verify/{token}.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.snapshots.Get(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, fromSnapshot(snapshot))
}
