package audit

import (
	"context"
	"time"

	"toolgate/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategorySecurity covers events relevant to access control monitoring.
	// Examples: access grants and denials, admin overrides.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. Examples: evidence records, snapshot views.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	UserID    domain.UserID
	Subject   string
	Action    string
	Decision  string
	Reason    string
	RequestID string
	// ActorID tracks who performed the action when different from UserID.
	// Used for admin operations on allocations and categories.
	ActorID string
}

// AuditEvent enumerates the actions this service emits.
type AuditEvent string

const (
	// Entitlement events
	EventAccessGranted AuditEvent = "access_granted"
	EventAccessDenied  AuditEvent = "access_denied"

	// Evidence events
	EventEvidenceRecorded AuditEvent = "evidence_recorded"

	// Competency events
	EventKnowledgeCompleted AuditEvent = "category_knowledge_completed"
	EventProjectSaved       AuditEvent = "capability_project_saved"

	// Snapshot events
	EventSnapshotCreated AuditEvent = "snapshot_created"
	EventSnapshotViewed  AuditEvent = "snapshot_viewed"

	// Admin curation events
	EventAllocationAdded       AuditEvent = "allocation_added"
	EventAllocationDeactivated AuditEvent = "allocation_deactivated"
	EventCategoryCreated       AuditEvent = "category_created"
	EventCourseLinked          AuditEvent = "category_course_linked"
	EventCapabilityLinked      AuditEvent = "category_capability_linked"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventAccessGranted:         CategorySecurity,
	EventAccessDenied:          CategorySecurity,
	EventAllocationAdded:       CategorySecurity,
	EventAllocationDeactivated: CategorySecurity,
	EventEvidenceRecorded:      CategoryOperations,
	EventKnowledgeCompleted:    CategoryOperations,
	EventProjectSaved:          CategoryOperations,
	EventSnapshotCreated:       CategoryOperations,
	EventSnapshotViewed:        CategoryOperations,
	EventCategoryCreated:       CategoryOperations,
	EventCourseLinked:          CategoryOperations,
	EventCapabilityLinked:      CategoryOperations,
}

// Category returns the routing category for an event, defaulting to
// operations for unknown actions.
func (e AuditEvent) Category() EventCategory {
	if category, ok := eventCategories[e]; ok {
		return category
	}
	return CategoryOperations
}

// Emitter is the fire-and-forget activity logging sink. Implementations must
// never let a sink failure affect the primary operation: Emit either returns
// quickly with an error the caller logs, or swallows the failure itself.
type Emitter interface {
	Emit(ctx context.Context, event Event) error
}

// NopEmitter discards all events. Used when no sink is configured.
type NopEmitter struct{}

func (NopEmitter) Emit(context.Context, Event) error { return nil }
