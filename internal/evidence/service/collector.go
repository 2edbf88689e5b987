package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"toolgate/internal/evidence/metrics"
	"toolgate/internal/evidence/models"
	"toolgate/internal/evidence/ports"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/audit"
	"toolgate/pkg/requestcontext"
)

// RecordInput describes one evidence event from a tool or course hook.
type RecordInput struct {
	Type       models.EvidenceType
	SourceID   string
	SourceName string
	Category   string
}

// Collector turns usage events into deduplicated evidence rows. Writes are
// best-effort from the caller's point of view: hooks that feed the collector
// log failures and carry on with their primary action.
type Collector struct {
	store   ports.EvidenceStore
	auditor ports.AuditPublisher
	logger  *slog.Logger
}

type Option func(*Collector)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		c.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(c *Collector) {
		c.auditor = publisher
	}
}

func New(store ports.EvidenceStore, opts ...Option) (*Collector, error) {
	if store == nil {
		return nil, fmt.Errorf("evidence store is required")
	}

	c := &Collector{
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Record persists one evidence event, creating the row on first sight and
// incrementing it on repeats. The returned row carries the post-write count
// and level.
func (c *Collector) Record(ctx context.Context, principal domain.Principal, input RecordInput) (*models.Evidence, error) {
	if !input.Type.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown evidence type")
	}
	if strings.TrimSpace(input.SourceID) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "source_id is required")
	}
	if strings.TrimSpace(input.SourceName) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "source_name is required")
	}

	now := requestcontext.Now(ctx)
	evidence := &models.Evidence{
		PrincipalID: principal.ID,
		SkillName:   models.SkillName(input.SourceName, input.Type),
		Type:        input.Type,
		SourceID:    input.SourceID,
		SourceName:  input.SourceName,
		Category:    input.Category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	persisted, err := c.store.Record(ctx, evidence)
	if err != nil {
		metrics.Failures.Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record evidence")
	}

	metrics.Recorded.WithLabelValues(string(persisted.Type), string(persisted.Level)).Inc()
	c.emit(ctx, principal, persisted)
	return persisted, nil
}

// ListForPrincipal returns the caller's evidence rows.
func (c *Collector) ListForPrincipal(ctx context.Context, principal domain.Principal) ([]*models.Evidence, error) {
	rows, err := c.store.ListForPrincipal(ctx, principal.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list evidence")
	}
	return rows, nil
}

func (c *Collector) emit(ctx context.Context, principal domain.Principal, evidence *models.Evidence) {
	if c.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    principal.ID,
		Subject:   evidence.SkillName,
		Action:    string(audit.EventEvidenceRecorded),
		Reason:    string(evidence.Level),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := c.auditor.Emit(ctx, event); err != nil {
		c.logger.WarnContext(ctx, "failed to emit evidence audit event",
			"skill_name", evidence.SkillName, "error", err)
	}
}
