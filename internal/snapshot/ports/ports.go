package ports

import (
	"context"
	"time"

	competency "toolgate/internal/competency/models"
	"toolgate/internal/snapshot/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/audit"
)

// SnapshotStore persists verification snapshots.
//
// GetAndCountView is the only read path for the public surface: it atomically
// increments the view count and returns the frozen snapshot. Unknown and
// expired tokens are both sentinel.ErrNotFound; the store never distinguishes
// them to callers.
type SnapshotStore interface {
	Insert(ctx context.Context, snapshot *models.VerificationSnapshot) error
	GetAndCountView(ctx context.Context, token string, now time.Time) (*models.VerificationSnapshot, error)
}

// SnapshotSource computes the live competency projection to freeze.
type SnapshotSource interface {
	ComputeSnapshot(ctx context.Context, principal domain.Principal) (*competency.SkillSnapshot, error)
}

// AuditPublisher emits activity events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}
