package progress

import (
	"context"
	"sync"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
)

type progressKey struct {
	principalID string
	categoryID  string
}

// InMemoryStore is a mutex-guarded progress store for tests and single
// instance deployments. The mutex gives MarkCompleted the same first-wins
// guarantee the postgres store gets from its conditional update.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[progressKey]*models.CategoryProgress
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[progressKey]*models.CategoryProgress)}
}

func (s *InMemoryStore) MarkCompleted(_ context.Context, progress *models.CategoryProgress) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := progressKey{progress.PrincipalID.String(), progress.CategoryID.String()}
	if existing, ok := s.rows[key]; ok && existing.KnowledgeCompleted {
		return false, nil
	}

	cp := *progress
	cp.KnowledgeCompleted = true
	s.rows[key] = &cp
	return true, nil
}

func (s *InMemoryStore) ListForPrincipal(_ context.Context, principalID domain.UserID) ([]*models.CategoryProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.CategoryProgress
	for key, row := range s.rows {
		if key.principalID == principalID.String() {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}
