package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"toolgate/internal/evidence/models"
	"toolgate/pkg/domain"
)

type evidenceKey struct {
	principalID string
	skillName   string
	evidenceTyp models.EvidenceType
	sourceID    string
}

// InMemoryStore is a mutex-guarded evidence store for tests and single
// instance deployments. The mutex makes the insert-or-increment atomic, the
// same guarantee the postgres store gets from its upsert statement.
type InMemoryStore struct {
	mu   sync.Mutex
	rows map[evidenceKey]*models.Evidence
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{rows: make(map[evidenceKey]*models.Evidence)}
}

func (s *InMemoryStore) Record(_ context.Context, evidence *models.Evidence) (*models.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := evidenceKey{
		principalID: evidence.PrincipalID.String(),
		skillName:   evidence.SkillName,
		evidenceTyp: evidence.Type,
		sourceID:    evidence.SourceID,
	}

	existing, ok := s.rows[key]
	if !ok {
		row := *evidence
		row.ID = uuid.New()
		row.Count = 1
		row.Level = models.LevelFor(row.Type, row.Count)
		s.rows[key] = &row
		out := row
		return &out, nil
	}

	existing.Count++
	existing.Level = models.LevelFor(existing.Type, existing.Count)
	existing.UpdatedAt = evidence.UpdatedAt
	out := *existing
	return &out, nil
}

func (s *InMemoryStore) ListForPrincipal(_ context.Context, principalID domain.UserID) ([]*models.Evidence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []*models.Evidence
	for key, row := range s.rows {
		if key.principalID == principalID.String() {
			cp := *row
			out = append(out, &cp)
		}
	}
	return out, nil
}
