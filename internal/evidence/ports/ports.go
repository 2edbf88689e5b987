package ports

import (
	"context"

	"toolgate/internal/evidence/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/audit"
)

// EvidenceStore persists deduplicated evidence rows.
//
// Record is the single write path: it inserts the row with count 1 or, when
// the identity key already exists, increments the stored count and recomputes
// the level in the same storage-level operation. Callers never read, modify
// and write a count themselves.
type EvidenceStore interface {
	Record(ctx context.Context, evidence *models.Evidence) (*models.Evidence, error)
	ListForPrincipal(ctx context.Context, principalID domain.UserID) ([]*models.Evidence, error)
}

// AuditPublisher emits activity events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
