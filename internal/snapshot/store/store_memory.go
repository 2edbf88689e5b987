package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"toolgate/internal/snapshot/models"
	"toolgate/pkg/platform/sentinel"
)

// InMemoryStore is a mutex-guarded snapshot store for tests and single
// instance deployments.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[string]*models.VerificationSnapshot
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[string]*models.VerificationSnapshot)}
}

func (s *InMemoryStore) Insert(_ context.Context, snapshot *models.VerificationSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rows[snapshot.Token]; exists {
		return fmt.Errorf("snapshot token: %w", sentinel.ErrConflict)
	}

	cp := *snapshot
	cp.Skills = snapshot.Skills.DeepCopy()
	s.rows[snapshot.Token] = &cp
	return nil
}

func (s *InMemoryStore) GetAndCountView(_ context.Context, token string, now time.Time) (*models.VerificationSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[token]
	if !ok || row.Expired(now) {
		return nil, fmt.Errorf("snapshot: %w", sentinel.ErrNotFound)
	}

	row.ViewCount++
	cp := *row
	cp.Skills = row.Skills.DeepCopy()
	return &cp, nil
}
