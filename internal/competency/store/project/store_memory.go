package project

import (
	"context"
	"sync"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
)

type projectKey struct {
	principalID  string
	capabilityID string
}

// InMemoryStore is a mutex-guarded project record store for tests and single
// instance deployments.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[projectKey]*models.CapabilityProjectRecord
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[projectKey]*models.CapabilityProjectRecord)}
}

func (s *InMemoryStore) Increment(_ context.Context, record *models.CapabilityProjectRecord) (*models.CapabilityProjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := projectKey{record.PrincipalID.String(), record.CapabilityID.String()}
	existing, ok := s.rows[key]
	if !ok {
		cp := *record
		cp.ProjectCount = 1
		s.rows[key] = &cp
		out := cp
		return &out, nil
	}

	existing.ProjectCount++
	existing.LastUsedAt = record.LastUsedAt
	out := *existing
	return &out, nil
}

func (s *InMemoryStore) ListForPrincipal(_ context.Context, principalID domain.UserID) ([]*models.CapabilityProjectRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.CapabilityProjectRecord
	for key, row := range s.rows {
		if key.principalID == principalID.String() {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}
