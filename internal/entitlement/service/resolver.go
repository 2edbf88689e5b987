// Package service implements capability access resolution.
//
// The resolver intersects admin-curated allocations with the enrollment
// provider's view of accessible courses. It is security-sensitive on the
// denial side: any provider failure collapses to no access (fail-closed) and
// is never surfaced as an error to the caller.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"toolgate/internal/entitlement/metrics"
	"toolgate/internal/entitlement/models"
	"toolgate/internal/entitlement/ports"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/audit"
	"toolgate/pkg/platform/sentinel"
	"toolgate/pkg/requestcontext"
)

type Resolver struct {
	allocations  ports.AllocationStore
	capabilities ports.CapabilityStore
	enrollment   ports.EnrollmentSource
	auditor      ports.AuditPublisher
	logger       *slog.Logger
	metrics      *metrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(r *Resolver) {
		r.auditor = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

func NewResolver(allocations ports.AllocationStore, capabilities ports.CapabilityStore, enrollment ports.EnrollmentSource, opts ...Option) (*Resolver, error) {
	if allocations == nil {
		return nil, fmt.Errorf("allocation store is required")
	}
	if capabilities == nil {
		return nil, fmt.Errorf("capability store is required")
	}
	if enrollment == nil {
		return nil, fmt.Errorf("enrollment source is required")
	}

	r := &Resolver{
		allocations:  allocations,
		capabilities: capabilities,
		enrollment:   enrollment,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve decides whether the principal may use the capability. The decision
// ladder, in order:
//
//  1. no principal -> not_authenticated
//  2. admin or super_admin role -> admin (unconditional)
//  3. no active allocations, capability public and not premium -> enrolled
//     (free-tier fallback)
//  4. no active allocations otherwise -> no_enrollment, empty required list
//  5. allocations intersect accessible courses -> enrolled with matches
//  6. otherwise -> no_enrollment with required course metadata
//
// Idempotent against unchanged state; no side effects beyond logging and
// audit emission.
func (r *Resolver) Resolve(ctx context.Context, principal *domain.Principal, capabilityID domain.CapabilityID) (*models.AccessDecision, error) {
	start := time.Now()
	defer func() {
		if r.metrics != nil {
			r.metrics.ObserveResolveDuration(float64(time.Since(start).Microseconds()) / 1000.0)
		}
	}()

	if capabilityID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "capability_id is required")
	}

	if principal == nil {
		return r.decide(ctx, nil, capabilityID, &models.AccessDecision{
			HasAccess: false,
			Reason:    models.ReasonNotAuthenticated,
		}), nil
	}

	// Role dispatch: single switch over the closed enum.
	switch principal.Role {
	case domain.RoleAdmin, domain.RoleSuperAdmin:
		return r.decide(ctx, principal, capabilityID, &models.AccessDecision{
			HasAccess: true,
			Reason:    models.ReasonAdmin,
		}), nil
	case domain.RoleUser:
		// Fall through to enrollment-based resolution.
	default:
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown role")
	}

	allocated, err := r.allocations.CoursesFor(ctx, capabilityID)
	if err != nil {
		// The allocation store is owned infrastructure; its failure is a
		// genuine internal error, not a fail-closed denial.
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load allocations")
	}

	if len(allocated) == 0 {
		capability, err := r.capabilities.Get(ctx, capabilityID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load capability")
		}
		if capability != nil && capability.IsPublic && !capability.IsPremium {
			// Free-tier fallback: unallocated public non-premium capabilities
			// are open to any authenticated principal.
			return r.decide(ctx, principal, capabilityID, &models.AccessDecision{
				HasAccess: true,
				Reason:    models.ReasonEnrolled,
			}), nil
		}
		// A capability must be allocated to be reachable.
		return r.decide(ctx, principal, capabilityID, &models.AccessDecision{
			HasAccess:       false,
			Reason:          models.ReasonNoEnrollment,
			RequiredCourses: []models.CourseRef{},
		}), nil
	}

	accessible := r.accessibleCourses(ctx, *principal)

	matched := intersect(allocated, accessible)
	if len(matched) > 0 {
		return r.decide(ctx, principal, capabilityID, &models.AccessDecision{
			HasAccess:      true,
			Reason:         models.ReasonEnrolled,
			MatchedCourses: matched,
		}), nil
	}

	required := make([]models.CourseRef, 0, len(allocated))
	for _, alloc := range allocated {
		required = append(required, models.CourseRef{
			CourseID: alloc.CourseID,
			Name:     alloc.CourseName,
			JoinURL:  alloc.JoinURL,
		})
	}
	return r.decide(ctx, principal, capabilityID, &models.AccessDecision{
		HasAccess:       false,
		Reason:          models.ReasonNoEnrollment,
		RequiredCourses: required,
	}), nil
}

// accessibleCourses fetches the principal's accessible course set, treating
// any failure as the empty set. Fail-closed: enrollment problems deny access,
// they never grant it and never error out of Resolve.
func (r *Resolver) accessibleCourses(ctx context.Context, principal domain.Principal) map[domain.CourseID]struct{} {
	courseIDs, err := r.enrollment.AccessibleCourseIDs(ctx, principal)
	if err != nil {
		if r.metrics != nil {
			r.metrics.IncrementEnrollmentFailures()
		}
		if r.logger != nil {
			r.logger.WarnContext(ctx, "enrollment provider failed, resolving fail-closed",
				"request_id", requestcontext.RequestID(ctx),
				"user_id", principal.ID,
				"error", err,
			)
		}
		return nil
	}

	set := make(map[domain.CourseID]struct{}, len(courseIDs))
	for _, courseID := range courseIDs {
		set[courseID] = struct{}{}
	}
	return set
}

func intersect(allocated []*models.Allocation, accessible map[domain.CourseID]struct{}) []domain.CourseID {
	var matched []domain.CourseID
	for _, alloc := range allocated {
		if _, ok := accessible[alloc.CourseID]; ok {
			matched = append(matched, alloc.CourseID)
		}
	}
	return matched
}

// decide records observability for a decision and returns it unchanged.
func (r *Resolver) decide(ctx context.Context, principal *domain.Principal, capabilityID domain.CapabilityID, decision *models.AccessDecision) *models.AccessDecision {
	if r.metrics != nil {
		r.metrics.ObserveDecision(string(decision.Reason))
	}

	action := audit.EventAccessDenied
	outcome := "deny"
	if decision.HasAccess {
		action = audit.EventAccessGranted
		outcome = "grant"
	}

	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		Subject:   capabilityID.String(),
		Action:    string(action),
		Decision:  outcome,
		Reason:    string(decision.Reason),
		RequestID: requestcontext.RequestID(ctx),
	}
	if principal != nil {
		event.UserID = principal.ID
	}

	if r.auditor != nil {
		if err := r.auditor.Emit(ctx, event); err != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "failed to emit access audit event", "error", err)
		}
	}
	return decision
}
