package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"toolgate/internal/competency/metrics"
	"toolgate/internal/competency/models"
	"toolgate/internal/competency/ports"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/audit"
	"toolgate/pkg/requestcontext"
)

// Aggregator maintains the two competency axes and projects them into skill
// snapshots. Knowledge comes from course completions, application from saved
// work against linked capabilities.
type Aggregator struct {
	categories ports.CategoryStore
	progress   ports.ProgressStore
	projects   ports.ProjectStore
	catalog    ports.CapabilityCatalog
	auditor    ports.AuditPublisher
	logger     *slog.Logger
}

type AggregatorOption func(*Aggregator)

func WithLogger(logger *slog.Logger) AggregatorOption {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) AggregatorOption {
	return func(a *Aggregator) {
		a.auditor = publisher
	}
}

// WithCapabilityCatalog resolves capability display names for snapshots.
// Without one, snapshots fall back to the capability id.
func WithCapabilityCatalog(catalog ports.CapabilityCatalog) AggregatorOption {
	return func(a *Aggregator) {
		a.catalog = catalog
	}
}

func NewAggregator(categories ports.CategoryStore, progress ports.ProgressStore, projects ports.ProjectStore, opts ...AggregatorOption) (*Aggregator, error) {
	if categories == nil {
		return nil, fmt.Errorf("category store is required")
	}
	if progress == nil {
		return nil, fmt.Errorf("progress store is required")
	}
	if projects == nil {
		return nil, fmt.Errorf("project store is required")
	}

	a := &Aggregator{
		categories: categories,
		progress:   progress,
		projects:   projects,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// OnCourseCompletion marks the knowledge axis complete for every category
// linked to the course. The first completing course wins; categories already
// completed are left untouched.
func (a *Aggregator) OnCourseCompletion(ctx context.Context, principal domain.Principal, courseID domain.CourseID, progressScore float64) error {
	if courseID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "course_id is required")
	}

	categoryIDs, err := a.categories.CategoriesForCourse(ctx, courseID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up categories for course")
	}

	now := requestcontext.Now(ctx)
	for _, categoryID := range categoryIDs {
		completedAt := now
		won, err := a.progress.MarkCompleted(ctx, &models.CategoryProgress{
			PrincipalID:        principal.ID,
			CategoryID:         categoryID,
			CompletedAt:        &completedAt,
			TriggeringCourseID: courseID,
			ProgressScore:      progressScore,
		})
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark category progress")
		}
		if !won {
			continue
		}

		metrics.KnowledgeCompletions.Inc()
		a.emit(ctx, principal, audit.EventKnowledgeCompleted, categoryID.String(), courseID.String())
	}
	return nil
}

// OnCapabilitySaved increments the application axis when the saved capability
// is linked to at least one category. The project record is keyed per
// capability, so one save is one increment no matter how many categories
// share the link.
func (a *Aggregator) OnCapabilitySaved(ctx context.Context, principal domain.Principal, capabilityID domain.CapabilityID) error {
	if capabilityID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "capability_id is required")
	}

	categoryIDs, err := a.categories.CategoriesForCapability(ctx, capabilityID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up categories for capability")
	}
	if len(categoryIDs) == 0 {
		return nil
	}

	record, err := a.projects.Increment(ctx, &models.CapabilityProjectRecord{
		PrincipalID:  principal.ID,
		CapabilityID: capabilityID,
		LastUsedAt:   requestcontext.Now(ctx),
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to increment project record")
	}

	metrics.ProjectSaves.Inc()
	a.emit(ctx, principal, audit.EventProjectSaved, capabilityID.String(), fmt.Sprintf("count=%d", record.ProjectCount))
	return nil
}

// ComputeSnapshot projects the live competency state for one principal. It is
// read-only and idempotent: calling it twice without intervening writes
// produces the same value.
func (a *Aggregator) ComputeSnapshot(ctx context.Context, principal domain.Principal) (*models.SkillSnapshot, error) {
	start := time.Now()
	defer func() {
		metrics.SnapshotComputeDuration.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	var (
		categories   []*models.SkillCategory
		progressRows []*models.CategoryProgress
		projectRows  []*models.CapabilityProjectRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		categories, err = a.categories.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		progressRows, err = a.progress.ListForPrincipal(gctx, principal.ID)
		return err
	})
	g.Go(func() (err error) {
		projectRows, err = a.projects.ListForPrincipal(gctx, principal.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to gather competency state")
	}

	progressByCategory := make(map[string]*models.CategoryProgress, len(progressRows))
	for _, row := range progressRows {
		progressByCategory[row.CategoryID.String()] = row
	}
	projectsByCapability := make(map[string]*models.CapabilityProjectRecord, len(projectRows))
	for _, row := range projectRows {
		projectsByCapability[row.CapabilityID.String()] = row
	}

	snapshot := &models.SkillSnapshot{Categories: make([]models.CategorySnapshot, 0, len(categories))}
	for _, category := range categories {
		cat, err := a.projectCategory(ctx, category, progressByCategory, projectsByCapability)
		if err != nil {
			return nil, err
		}
		snapshot.Categories = append(snapshot.Categories, cat)
	}
	return snapshot, nil
}

func (a *Aggregator) projectCategory(
	ctx context.Context,
	category *models.SkillCategory,
	progressByCategory map[string]*models.CategoryProgress,
	projectsByCapability map[string]*models.CapabilityProjectRecord,
) (models.CategorySnapshot, error) {
	out := models.CategorySnapshot{
		ID:   category.ID,
		Name: category.Name,
	}

	courseLinks, err := a.categories.CourseLinks(ctx, category.ID)
	if err != nil {
		return out, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load course links")
	}
	capabilityLinks, err := a.categories.CapabilityLinks(ctx, category.ID)
	if err != nil {
		return out, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load capability links")
	}

	// Stable ordering regardless of the backing store.
	sort.Slice(courseLinks, func(i, j int) bool { return courseLinks[i].CourseID < courseLinks[j].CourseID })
	sort.Slice(capabilityLinks, func(i, j int) bool { return capabilityLinks[i].CapabilityID < capabilityLinks[j].CapabilityID })

	progress := progressByCategory[category.ID.String()]
	for _, link := range courseLinks {
		row := models.CourseSnapshot{
			CourseID:             link.CourseID,
			CourseName:           link.CourseName,
			KnowledgeDescription: coalesce(link.KnowledgeDescription, category.KnowledgeDescription),
			LearningHours:        link.LearningHours,
		}
		if progress != nil && progress.KnowledgeCompleted && progress.TriggeringCourseID == link.CourseID {
			row.Completed = true
			row.ProgressScore = progress.ProgressScore
			row.CompletedAt = progress.CompletedAt
		}
		out.Courses = append(out.Courses, row)
	}

	for _, link := range capabilityLinks {
		row := models.CapabilitySnapshot{
			CapabilityID:           link.CapabilityID,
			Name:                   a.capabilityName(ctx, link.CapabilityID),
			ApplicationDescription: link.ApplicationDescription,
		}
		if record, ok := projectsByCapability[link.CapabilityID.String()]; ok {
			row.ProjectCount = record.ProjectCount
			at := record.LastUsedAt
			row.LastUsedAt = &at
		}
		out.Capabilities = append(out.Capabilities, row)
	}
	return out, nil
}

func (a *Aggregator) capabilityName(ctx context.Context, capabilityID domain.CapabilityID) string {
	if a.catalog == nil {
		return capabilityID.String()
	}
	name, err := a.catalog.Name(ctx, capabilityID)
	if err != nil || name == "" {
		return capabilityID.String()
	}
	return name
}

func (a *Aggregator) emit(ctx context.Context, principal domain.Principal, action audit.AuditEvent, subject, reason string) {
	if a.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    principal.ID,
		Subject:   subject,
		Action:    string(action),
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := a.auditor.Emit(ctx, event); err != nil {
		a.logger.WarnContext(ctx, "failed to emit competency audit event", "action", action, "error", err)
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
