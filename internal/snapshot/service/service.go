package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	competency "toolgate/internal/competency/models"
	"toolgate/internal/snapshot/metrics"
	"toolgate/internal/snapshot/models"
	"toolgate/internal/snapshot/ports"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	"toolgate/pkg/platform/audit"
	"toolgate/pkg/platform/sentinel"
	"toolgate/pkg/requestcontext"
)

// tokenInsertAttempts bounds collision retries. With 256-bit tokens a single
// retry should never happen in practice.
const tokenInsertAttempts = 3

// Service issues and serves verification snapshots.
type Service struct {
	store         ports.SnapshotStore
	source        ports.SnapshotSource
	auditor       ports.AuditPublisher
	logger        *slog.Logger
	defaultExpiry time.Duration
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher ports.AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithDefaultExpiry makes new snapshots expire after d. Zero means tokens
// never expire.
func WithDefaultExpiry(d time.Duration) Option {
	return func(s *Service) {
		s.defaultExpiry = d
	}
}

func New(store ports.SnapshotStore, source ports.SnapshotSource, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("snapshot store is required")
	}
	if source == nil {
		return nil, fmt.Errorf("snapshot source is required")
	}

	s := &Service{
		store:  store,
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create freezes the caller's current competency state under a new token.
// selectedCategoryIDs narrows the snapshot to those categories; empty means
// everything.
func (s *Service) Create(ctx context.Context, principal domain.Principal, userName string, selectedCategoryIDs []domain.CategoryID) (*models.VerificationSnapshot, error) {
	if strings.TrimSpace(userName) == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "user_name is required")
	}

	live, err := s.source.ComputeSnapshot(ctx, principal)
	if err != nil {
		return nil, err
	}

	frozen := live.DeepCopy()
	if len(selectedCategoryIDs) > 0 {
		frozen = filterCategories(frozen, selectedCategoryIDs)
		if len(frozen.Categories) == 0 {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "no matching categories to snapshot")
		}
	}

	now := requestcontext.Now(ctx)
	snapshot := &models.VerificationSnapshot{
		PrincipalID: principal.ID,
		UserName:    userName,
		Skills:      frozen,
		CreatedAt:   now,
	}
	if s.defaultExpiry > 0 {
		at := now.Add(s.defaultExpiry)
		snapshot.ExpiresAt = &at
	}

	for attempt := 0; attempt < tokenInsertAttempts; attempt++ {
		token, err := models.NewToken()
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate token")
		}
		snapshot.Token = token

		err = s.store.Insert(ctx, snapshot)
		if errors.Is(err, sentinel.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist snapshot")
		}

		metrics.Created.Inc()
		s.emit(ctx, audit.EventSnapshotCreated, principal.ID, snapshot.Token)
		return snapshot, nil
	}
	return nil, dErrors.New(dErrors.CodeInternal, "failed to allocate snapshot token")
}

// Get serves the public verification read. Unknown and expired tokens return
// the same not-found error; a successful read counts as a view.
func (s *Service) Get(ctx context.Context, token string) (*models.VerificationSnapshot, error) {
	if token == "" {
		metrics.Views.WithLabelValues("not_found").Inc()
		return nil, dErrors.New(dErrors.CodeNotFound, "snapshot not found")
	}

	snapshot, err := s.store.GetAndCountView(ctx, token, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) || errors.Is(err, sentinel.ErrExpired) {
			metrics.Views.WithLabelValues("not_found").Inc()
			return nil, dErrors.New(dErrors.CodeNotFound, "snapshot not found")
		}
		metrics.Views.WithLabelValues("error").Inc()
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read snapshot")
	}

	metrics.Views.WithLabelValues("ok").Inc()
	s.emit(ctx, audit.EventSnapshotViewed, snapshot.PrincipalID, token)
	return snapshot, nil
}

func filterCategories(snapshot competency.SkillSnapshot, selected []domain.CategoryID) competency.SkillSnapshot {
	keep := make(map[string]bool, len(selected))
	for _, id := range selected {
		keep[id.String()] = true
	}

	out := competency.SkillSnapshot{}
	for _, category := range snapshot.Categories {
		if keep[category.ID.String()] {
			out.Categories = append(out.Categories, category)
		}
	}
	return out
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, userID domain.UserID, subject string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   subject,
		Action:    string(action),
		RequestID: requestcontext.RequestID(ctx),
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit snapshot audit event", "action", action, "error", err)
	}
}
