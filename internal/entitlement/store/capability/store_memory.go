package capability

import (
	"context"
	"fmt"
	"sync"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/sentinel"
)

// InMemoryStore keeps the capability catalog in process memory. Test-only
// stand-in; production uses the PostgreSQL implementation.
type InMemoryStore struct {
	mu           sync.RWMutex
	capabilities map[domain.CapabilityID]*models.Capability
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		capabilities: make(map[domain.CapabilityID]*models.Capability),
	}
}

func (s *InMemoryStore) Get(_ context.Context, capabilityID domain.CapabilityID) (*models.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	capability, ok := s.capabilities[capabilityID]
	if !ok {
		return nil, fmt.Errorf("capability %s: %w", capabilityID, sentinel.ErrNotFound)
	}
	copied := *capability
	return &copied, nil
}

func (s *InMemoryStore) Upsert(_ context.Context, capability *models.Capability) error {
	if capability == nil {
		return fmt.Errorf("capability is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *capability
	s.capabilities[copied.ID] = &copied
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Capability, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Capability, 0, len(s.capabilities))
	for _, capability := range s.capabilities {
		copied := *capability
		out = append(out, &copied)
	}
	return out, nil
}
