package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"toolgate/internal/competency/models"
	evidencemodels "toolgate/internal/evidence/models"
	evidenceservice "toolgate/internal/evidence/service"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/httputil"
	"toolgate/pkg/requestcontext"
)

// Aggregator maintains the competency axes.
type Aggregator interface {
	OnCourseCompletion(ctx context.Context, principal domain.Principal, courseID domain.CourseID, progressScore float64) error
	OnCapabilitySaved(ctx context.Context, principal domain.Principal, capabilityID domain.CapabilityID) error
	ComputeSnapshot(ctx context.Context, principal domain.Principal) (*models.SkillSnapshot, error)
}

// Curator manages categories and links.
type Curator interface {
	CreateCategory(ctx context.Context, actor domain.Principal, name, slug, knowledgeDescription string) (*models.SkillCategory, error)
	GetCategory(ctx context.Context, id domain.CategoryID) (*models.SkillCategory, []*models.CategoryCourseLink, []*models.CategoryCapabilityLink, error)
	ListCategories(ctx context.Context) ([]*models.SkillCategory, error)
	LinkCourse(ctx context.Context, actor domain.Principal, link *models.CategoryCourseLink) error
	UnlinkCourse(ctx context.Context, actor domain.Principal, categoryID domain.CategoryID, courseID domain.CourseID) error
	LinkCapability(ctx context.Context, actor domain.Principal, link *models.CategoryCapabilityLink) error
	UnlinkCapability(ctx context.Context, actor domain.Principal, categoryID domain.CategoryID, capabilityID domain.CapabilityID) error
}

// EvidenceRecorder records skill evidence. Recording is best-effort from the
// event hooks: a failed write is logged and the hook carries on.
type EvidenceRecorder interface {
	Record(ctx context.Context, principal domain.Principal, input evidenceservice.RecordInput) (*evidencemodels.Evidence, error)
}

// EnrollmentInvalidator drops a cached accessible-course set.
type EnrollmentInvalidator interface {
	Invalidate(ctx context.Context, userID domain.UserID)
}

// Handler exposes the competency event hooks, the live profile view, and the
// admin category endpoints.
type Handler struct {
	aggregator  Aggregator
	curator     Curator
	evidence    EvidenceRecorder
	invalidator EnrollmentInvalidator
	logger      *slog.Logger
}

type Option func(*Handler)

// WithEvidenceRecorder turns the event hooks into evidence sources as well.
func WithEvidenceRecorder(recorder EvidenceRecorder) Option {
	return func(h *Handler) {
		h.evidence = recorder
	}
}

// WithEnrollmentInvalidator refreshes cached course access on completion.
func WithEnrollmentInvalidator(invalidator EnrollmentInvalidator) Option {
	return func(h *Handler) {
		h.invalidator = invalidator
	}
}

func New(aggregator Aggregator, curator Curator, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		aggregator: aggregator,
		curator:    curator,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the authenticated event hooks and the profile view.
func (h *Handler) Register(r chi.Router) {
	r.Post("/events/course-completed", h.HandleCourseCompleted)
	r.Post("/events/capability-saved", h.HandleCapabilitySaved)
	r.Get("/profile/skills", h.HandleProfile)
}

// RegisterAdmin mounts the category curation endpoints; the router must
// already carry the admin-role guard.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/categories", h.HandleCreateCategory)
	r.Get("/categories", h.HandleListCategories)
	r.Get("/categories/{categoryID}", h.HandleGetCategory)
	r.Post("/categories/{categoryID}/courses", h.HandleLinkCourse)
	r.Delete("/categories/{categoryID}/courses/{courseID}", h.HandleUnlinkCourse)
	r.Post("/categories/{categoryID}/capabilities", h.HandleLinkCapability)
	r.Delete("/categories/{categoryID}/capabilities/{capabilityID}", h.HandleUnlinkCapability)
}

// HandleCourseCompleted handles POST /events/course-completed.
func (h *Handler) HandleCourseCompleted(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[CourseCompletedRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	courseID := domain.CourseID(req.CourseID)
	if err := h.aggregator.OnCourseCompletion(ctx, principal, courseID, req.ProgressScore); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.recordEvidence(ctx, principal, evidenceservice.RecordInput{
		Type:       evidencemodels.TypeCourseCompleted,
		SourceID:   req.CourseID,
		SourceName: coalesce(req.CourseName, req.CourseID),
	})
	if h.invalidator != nil {
		h.invalidator.Invalidate(ctx, principal.ID)
	}

	w.WriteHeader(http.StatusAccepted)
}

// HandleCapabilitySaved handles POST /events/capability-saved.
func (h *Handler) HandleCapabilitySaved(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[CapabilitySavedRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	capabilityID := domain.CapabilityID(req.CapabilityID)
	if err := h.aggregator.OnCapabilitySaved(ctx, principal, capabilityID); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.recordEvidence(ctx, principal, evidenceservice.RecordInput{
		Type:       evidencemodels.TypeWorkSaved,
		SourceID:   req.CapabilityID,
		SourceName: coalesce(req.CapabilityName, req.CapabilityID),
	})

	w.WriteHeader(http.StatusAccepted)
}

// HandleProfile handles GET /profile/skills: the live, unfrozen projection.
func (h *Handler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	principal, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	snapshot, err := h.aggregator.ComputeSnapshot(ctx, principal)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromSkillSnapshot(snapshot))
}

// HandleCreateCategory handles POST /admin/categories.
func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	req, decoded := httputil.DecodeAndPrepare[CreateCategoryRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	category, err := h.curator.CreateCategory(ctx, actor, req.Name, req.Slug, req.KnowledgeDescription)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, fromCategory(category))
}

// HandleListCategories handles GET /admin/categories.
func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.curator.ListCategories(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]CategoryResponse, 0, len(categories))
	for _, category := range categories {
		out = append(out, fromCategory(category))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGetCategory handles GET /admin/categories/{categoryID}.
func (h *Handler) HandleGetCategory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categoryID, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	category, courses, capabilities, err := h.curator.GetCategory(ctx, categoryID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := CategoryDetailResponse{
		CategoryResponse: fromCategory(category),
		Courses:          make([]CourseLinkResponse, 0, len(courses)),
		Capabilities:     make([]CapabilityLinkResponse, 0, len(capabilities)),
	}
	for _, link := range courses {
		resp.Courses = append(resp.Courses, CourseLinkResponse{
			CourseID:             link.CourseID.String(),
			CourseName:           link.CourseName,
			KnowledgeDescription: link.KnowledgeDescription,
			LearningHours:        link.LearningHours,
		})
	}
	for _, link := range capabilities {
		resp.Capabilities = append(resp.Capabilities, CapabilityLinkResponse{
			CapabilityID:           link.CapabilityID.String(),
			ApplicationDescription: link.ApplicationDescription,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleLinkCourse handles POST /admin/categories/{categoryID}/courses.
func (h *Handler) HandleLinkCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	categoryID, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, decoded := httputil.DecodeAndPrepare[LinkCourseRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	link := &models.CategoryCourseLink{
		CategoryID:           categoryID,
		CourseID:             domain.CourseID(req.CourseID),
		CourseName:           req.CourseName,
		KnowledgeDescription: req.KnowledgeDescription,
		LearningHours:        req.LearningHours,
	}
	if err := h.curator.LinkCourse(ctx, actor, link); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlinkCourse handles DELETE /admin/categories/{categoryID}/courses/{courseID}.
func (h *Handler) HandleUnlinkCourse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	categoryID, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.curator.UnlinkCourse(ctx, actor, categoryID, domain.CourseID(chi.URLParam(r, "courseID"))); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLinkCapability handles POST /admin/categories/{categoryID}/capabilities.
func (h *Handler) HandleLinkCapability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	categoryID, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, decoded := httputil.DecodeAndPrepare[LinkCapabilityRequest](w, r, h.logger, ctx, requestID)
	if !decoded {
		return
	}

	link := &models.CategoryCapabilityLink{
		CategoryID:             categoryID,
		CapabilityID:           domain.CapabilityID(req.CapabilityID),
		ApplicationDescription: req.ApplicationDescription,
	}
	if err := h.curator.LinkCapability(ctx, actor, link); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleUnlinkCapability handles DELETE /admin/categories/{categoryID}/capabilities/{capabilityID}.
func (h *Handler) HandleUnlinkCapability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actor, ok := requestcontext.Principal(ctx)
	if !ok {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	categoryID, err := domain.ParseCategoryID(chi.URLParam(r, "categoryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	capabilityID := domain.CapabilityID(chi.URLParam(r, "capabilityID"))
	if err := h.curator.UnlinkCapability(ctx, actor, categoryID, capabilityID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) recordEvidence(ctx context.Context, principal domain.Principal, input evidenceservice.RecordInput) {
	if h.evidence == nil {
		return
	}
	if _, err := h.evidence.Record(ctx, principal, input); err != nil {
		h.logger.WarnContext(ctx, "evidence record failed from event hook",
			"request_id", requestcontext.RequestID(ctx),
			"evidence_type", string(input.Type),
			"source_id", input.SourceID,
			"error", err,
		)
	}
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
