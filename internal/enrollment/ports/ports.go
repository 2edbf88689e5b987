package ports

import (
	"context"

	"toolgate/internal/enrollment/models"
	"toolgate/pkg/domain"
)

// Provider is the read-side view of the external learning platform. The
// entitlement resolver only needs the accessible set; the competency
// aggregator also consumes full completion records.
//
// Implementations must never invent access: on upstream failure they return
// an error and the caller decides how to degrade.
type Provider interface {
	// AccessibleCourseIDs returns the courses the user can currently open,
	// enrolled or completed.
	AccessibleCourseIDs(ctx context.Context, principal domain.Principal) ([]domain.CourseID, error)

	// CourseCompletions returns the user's full course records.
	CourseCompletions(ctx context.Context, principal domain.Principal) ([]models.CourseCompletion, error)
}
