package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toolgate/internal/competency/models"
	"toolgate/internal/competency/ports"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/audit"
	"toolgate/pkg/requestcontext"
)

// Curation is the admin-facing service for skill categories and their links.
type Curation struct {
	categories ports.CategoryStore
	auditor    ports.AuditPublisher
	logger     *slog.Logger
}

type CurationOption func(*Curation)

func CurationWithLogger(logger *slog.Logger) CurationOption {
	return func(c *Curation) {
		c.logger = logger
	}
}

func CurationWithAuditPublisher(publisher ports.AuditPublisher) CurationOption {
	return func(c *Curation) {
		c.auditor = publisher
	}
}

func NewCuration(categories ports.CategoryStore, opts ...CurationOption) (*Curation, error) {
	if categories == nil {
		return nil, fmt.Errorf("category store is required")
	}

	c := &Curation{
		categories: categories,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// CreateCategory mints and persists a new skill category.
func (c *Curation) CreateCategory(ctx context.Context, actor domain.Principal, name, slug, knowledgeDescription string) (*models.SkillCategory, error) {
	if strings.TrimSpace(name) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "category name is required")
	}
	if slug == "" {
		slug = strings.Join(strings.Fields(strings.ToLower(name)), "-")
	}

	category := &models.SkillCategory{
		ID:                   domain.NewCategoryID(),
		Name:                 name,
		Slug:                 slug,
		KnowledgeDescription: knowledgeDescription,
		CreatedAt:            requestcontext.Now(ctx),
	}
	if err := c.categories.Create(ctx, category); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create category")
	}

	c.emit(ctx, actor, audit.EventCategoryCreated, category.ID.String())
	return category, nil
}

// GetCategory returns one category with its links expanded.
func (c *Curation) GetCategory(ctx context.Context, id domain.CategoryID) (*models.SkillCategory, []*models.CategoryCourseLink, []*models.CategoryCapabilityLink, error) {
	category, err := c.categories.Get(ctx, id)
	if err != nil {
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeNotFound, "category not found")
	}
	courses, err := c.categories.CourseLinks(ctx, id)
	if err != nil {
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load course links")
	}
	capabilities, err := c.categories.CapabilityLinks(ctx, id)
	if err != nil {
		return nil, nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load capability links")
	}
	return category, courses, capabilities, nil
}

// ListCategories returns all categories.
func (c *Curation) ListCategories(ctx context.Context) ([]*models.SkillCategory, error) {
	categories, err := c.categories.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list categories")
	}
	return categories, nil
}

// LinkCourse attaches a course to a category, updating display metadata on
// repeat links.
func (c *Curation) LinkCourse(ctx context.Context, actor domain.Principal, link *models.CategoryCourseLink) error {
	if link == nil || link.CategoryID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "category id is required")
	}
	if link.CourseID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "course_id is required")
	}

	if err := c.categories.LinkCourse(ctx, link); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link course")
	}
	c.emit(ctx, actor, audit.EventCourseLinked, link.CategoryID.String()+":"+link.CourseID.String())
	return nil
}

// UnlinkCourse removes a course link.
func (c *Curation) UnlinkCourse(ctx context.Context, actor domain.Principal, categoryID domain.CategoryID, courseID domain.CourseID) error {
	if categoryID.IsNil() || courseID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "category id and course_id are required")
	}
	if err := c.categories.UnlinkCourse(ctx, categoryID, courseID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "course link not found")
	}
	return nil
}

// LinkCapability attaches a capability to a category.
func (c *Curation) LinkCapability(ctx context.Context, actor domain.Principal, link *models.CategoryCapabilityLink) error {
	if link == nil || link.CategoryID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "category id is required")
	}
	if link.CapabilityID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "capability_id is required")
	}

	if err := c.categories.LinkCapability(ctx, link); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to link capability")
	}
	c.emit(ctx, actor, audit.EventCapabilityLinked, link.CategoryID.String()+":"+link.CapabilityID.String())
	return nil
}

// UnlinkCapability removes a capability link.
func (c *Curation) UnlinkCapability(ctx context.Context, actor domain.Principal, categoryID domain.CategoryID, capabilityID domain.CapabilityID) error {
	if categoryID.IsNil() || capabilityID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "category id and capability_id are required")
	}
	if err := c.categories.UnlinkCapability(ctx, categoryID, capabilityID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "capability link not found")
	}
	return nil
}

func (c *Curation) emit(ctx context.Context, actor domain.Principal, action audit.AuditEvent, subject string) {
	if c.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Subject:   subject,
		Action:    string(action),
		ActorID:   actor.ID.String(),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := c.auditor.Emit(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to emit curation audit event", "action", action, "error", err)
	}
}
