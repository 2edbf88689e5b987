package ports

import (
	"context"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/audit"
)

// CategoryStore holds the admin-curated categories and their course and
// capability links.
type CategoryStore interface {
	Create(ctx context.Context, category *models.SkillCategory) error
	Get(ctx context.Context, id domain.CategoryID) (*models.SkillCategory, error)
	List(ctx context.Context) ([]*models.SkillCategory, error)

	LinkCourse(ctx context.Context, link *models.CategoryCourseLink) error
	UnlinkCourse(ctx context.Context, categoryID domain.CategoryID, courseID domain.CourseID) error
	CourseLinks(ctx context.Context, categoryID domain.CategoryID) ([]*models.CategoryCourseLink, error)
	CategoriesForCourse(ctx context.Context, courseID domain.CourseID) ([]domain.CategoryID, error)

	LinkCapability(ctx context.Context, link *models.CategoryCapabilityLink) error
	UnlinkCapability(ctx context.Context, categoryID domain.CategoryID, capabilityID domain.CapabilityID) error
	CapabilityLinks(ctx context.Context, categoryID domain.CategoryID) ([]*models.CategoryCapabilityLink, error)
	CategoriesForCapability(ctx context.Context, capabilityID domain.CapabilityID) ([]domain.CategoryID, error)
}

// ProgressStore persists the knowledge axis.
//
// MarkCompleted is first-wins: when the row is already completed the call is
// a no-op and returns false, leaving the original triggering course in place.
type ProgressStore interface {
	MarkCompleted(ctx context.Context, progress *models.CategoryProgress) (won bool, err error)
	ListForPrincipal(ctx context.Context, principalID domain.UserID) ([]*models.CategoryProgress, error)
}

// ProjectStore persists the application axis. Increment is atomic at the
// storage layer and returns the updated record.
type ProjectStore interface {
	Increment(ctx context.Context, record *models.CapabilityProjectRecord) (*models.CapabilityProjectRecord, error)
	ListForPrincipal(ctx context.Context, principalID domain.UserID) ([]*models.CapabilityProjectRecord, error)
}

// CapabilityCatalog resolves capability display names for snapshots.
type CapabilityCatalog interface {
	Name(ctx context.Context, capabilityID domain.CapabilityID) (string, error)
}

// AuditPublisher emits activity events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
