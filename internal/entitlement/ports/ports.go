// Package ports defines shared interfaces for the entitlement module.
// Interfaces are placed here when consumed by multiple services to avoid duplication.
package ports

import (
	"context"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/audit"
)

// AuditPublisher emits audit events for access decisions and curation changes.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// AllocationStore is the durable capability<->course mapping. Rows are
// many-to-many and symmetric-queryable. The in-memory implementation is a
// single-instance stand-in for tests; production deployments must use the
// PostgreSQL implementation so all instances share one view.
type AllocationStore interface {
	// CoursesFor returns the active allocations for a capability.
	CoursesFor(ctx context.Context, capabilityID domain.CapabilityID) ([]*models.Allocation, error)

	// CapabilitiesFor returns the capabilities unlocked by a course.
	CapabilitiesFor(ctx context.Context, courseID domain.CourseID) ([]domain.CapabilityID, error)

	// Add creates or reactivates an allocation.
	Add(ctx context.Context, allocation *models.Allocation) error

	// Deactivate soft-deletes an allocation.
	Deactivate(ctx context.Context, capabilityID domain.CapabilityID, courseID domain.CourseID) error

	// List returns all allocations, active and inactive.
	List(ctx context.Context) ([]*models.Allocation, error)
}

// CapabilityStore is the catalog of gated tools.
type CapabilityStore interface {
	// Get retrieves a capability, wrapping sentinel.ErrNotFound when absent.
	Get(ctx context.Context, capabilityID domain.CapabilityID) (*models.Capability, error)

	// Upsert creates or updates a capability.
	Upsert(ctx context.Context, capability *models.Capability) error

	// List returns all capabilities.
	List(ctx context.Context) ([]*models.Capability, error)
}

// EnrollmentSource reports which courses a principal can access. Implemented
// by the enrollment slice; the resolver treats any error as an empty set
// (fail-closed).
type EnrollmentSource interface {
	AccessibleCourseIDs(ctx context.Context, principal domain.Principal) ([]domain.CourseID, error)
}
