package allocation

import (
	"context"
	"sync"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
)

// InMemoryStore keeps allocations in process memory. Test-only stand-in:
// a write on one instance is invisible to reads on another, so it is unsafe
// under multiple concurrently-running instances.
type InMemoryStore struct {
	mu sync.RWMutex
	// byCapability[capabilityID][courseID] is the canonical row; byCourse is
	// the reverse index kept in lockstep for symmetric queries.
	byCapability map[domain.CapabilityID]map[domain.CourseID]*models.Allocation
	byCourse     map[domain.CourseID]map[domain.CapabilityID]*models.Allocation
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		byCapability: make(map[domain.CapabilityID]map[domain.CourseID]*models.Allocation),
		byCourse:     make(map[domain.CourseID]map[domain.CapabilityID]*models.Allocation),
	}
}

func (s *InMemoryStore) CoursesFor(_ context.Context, capabilityID domain.CapabilityID) ([]*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Allocation
	for _, alloc := range s.byCapability[capabilityID] {
		if alloc.Active {
			copied := *alloc
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CapabilitiesFor(_ context.Context, courseID domain.CourseID) ([]domain.CapabilityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CapabilityID
	for capabilityID, alloc := range s.byCourse[courseID] {
		if alloc.Active {
			out = append(out, capabilityID)
		}
	}
	return out, nil
}

func (s *InMemoryStore) Add(_ context.Context, allocation *models.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *allocation
	copied.Active = true

	if s.byCapability[copied.CapabilityID] == nil {
		s.byCapability[copied.CapabilityID] = make(map[domain.CourseID]*models.Allocation)
	}
	if s.byCourse[copied.CourseID] == nil {
		s.byCourse[copied.CourseID] = make(map[domain.CapabilityID]*models.Allocation)
	}
	s.byCapability[copied.CapabilityID][copied.CourseID] = &copied
	s.byCourse[copied.CourseID][copied.CapabilityID] = &copied
	return nil
}

func (s *InMemoryStore) Deactivate(_ context.Context, capabilityID domain.CapabilityID, courseID domain.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alloc, ok := s.byCapability[capabilityID][courseID]; ok {
		alloc.Active = false
	}
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Allocation
	for _, courses := range s.byCapability {
		for _, alloc := range courses {
			copied := *alloc
			out = append(out, &copied)
		}
	}
	return out, nil
}
