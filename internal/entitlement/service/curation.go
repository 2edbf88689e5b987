package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toolgate/internal/entitlement/models"
	"toolgate/internal/entitlement/ports"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/audit"
	"toolgate/pkg/requestcontext"
)

// Curation is the admin-facing service for the allocation mapping and the
// capability catalog. All writes are attributed to the acting admin and
// audited.
type Curation struct {
	allocations  ports.AllocationStore
	capabilities ports.CapabilityStore
	auditor      ports.AuditPublisher
	logger       *slog.Logger
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

func NewCuration(allocations ports.AllocationStore, capabilities ports.CapabilityStore, opts ...CurationOption) (*Curation, error) {
	if allocations == nil {
		return nil, fmt.Errorf("allocation store is required")
	}
	if capabilities == nil {
		return nil, fmt.Errorf("capability store is required")
	}

	c := &Curation{
		allocations:  allocations,
		capabilities: capabilities,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddAllocation links a course to a capability, reactivating a previously
// deactivated pair.
func (c *Curation) AddAllocation(ctx context.Context, actor domain.Principal, allocation *models.Allocation) error {
	if allocation == nil {
		return dErrors.New(dErrors.CodeBadRequest, "allocation is required")
	}
	if allocation.CapabilityID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "capability_id is required")
	}
	if allocation.CourseID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "course_id is required")
	}

	allocation.CreatedAt = requestcontext.Now(ctx)
	allocation.CreatedBy = actor.ID

	if err := c.allocations.Add(ctx, allocation); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to add allocation")
	}

	c.emit(ctx, actor, audit.EventAllocationAdded, allocation.CapabilityID.String()+":"+allocation.CourseID.String())
	return nil
}

// DeactivateAllocation soft-deletes a capability/course pair.
func (c *Curation) DeactivateAllocation(ctx context.Context, actor domain.Principal, capabilityID domain.CapabilityID, courseID domain.CourseID) error {
	if capabilityID.IsNil() || courseID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "capability_id and course_id are required")
	}

	if err := c.allocations.Deactivate(ctx, capabilityID, courseID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to deactivate allocation")
	}

	c.emit(ctx, actor, audit.EventAllocationDeactivated, capabilityID.String()+":"+courseID.String())
	return nil
}

// ListAllocations returns the full mapping, active and inactive.
func (c *Curation) ListAllocations(ctx context.Context) ([]*models.Allocation, error) {
	allocations, err := c.allocations.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list allocations")
	}
	return allocations, nil
}

// UpsertCapability creates or updates a catalog entry.
func (c *Curation) UpsertCapability(ctx context.Context, actor domain.Principal, capability *models.Capability) error {
	if capability == nil {
		return dErrors.New(dErrors.CodeBadRequest, "capability is required")
	}
	if capability.ID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "capability id is required")
	}
	if strings.TrimSpace(capability.Name) == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "capability name is required")
	}

	if err := c.capabilities.Upsert(ctx, capability); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert capability")
	}
	return nil
}

// ListCapabilities returns the catalog.
func (c *Curation) ListCapabilities(ctx context.Context) ([]*models.Capability, error) {
	capabilities, err := c.capabilities.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list capabilities")
	}
	return capabilities, nil
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
	if err := c.auditor.Emit(ctx, event); err != nil && c.logger != nil {
		c.logger.WarnContext(ctx, "failed to emit curation audit event", "action", action, "error", err)
	}
}
