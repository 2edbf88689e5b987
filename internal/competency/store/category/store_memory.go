package category

import (
	"context"
	"fmt"
	"sync"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/sentinel"
)

type courseLinkKey struct {
	categoryID string
	courseID   string
}

type capabilityLinkKey struct {
	categoryID   string
	capabilityID string
}

// InMemoryStore holds categories and links behind a mutex, for tests and
// single instance deployments.
type InMemoryStore struct {
	mu              sync.RWMutex
	categories      map[string]*models.SkillCategory
	order           []domain.CategoryID
	courseLinks     map[courseLinkKey]*models.CategoryCourseLink
	capabilityLinks map[capabilityLinkKey]*models.CategoryCapabilityLink
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		categories:      make(map[string]*models.SkillCategory),
		courseLinks:     make(map[courseLinkKey]*models.CategoryCourseLink),
		capabilityLinks: make(map[capabilityLinkKey]*models.CategoryCapabilityLink),
	}
}

func (s *InMemoryStore) Create(_ context.Context, category *models.SkillCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := category.ID.String()
	if _, exists := s.categories[key]; exists {
		return fmt.Errorf("category %s: %w", key, sentinel.ErrConflict)
	}
	cp := *category
	s.categories[key] = &cp
	s.order = append(s.order, category.ID)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id domain.CategoryID) (*models.SkillCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	category, ok := s.categories[id.String()]
	if !ok {
		return nil, fmt.Errorf("category %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *category
	return &cp, nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.SkillCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.SkillCategory, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.categories[id.String()]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *InMemoryStore) LinkCourse(_ context.Context, link *models.CategoryCourseLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[link.CategoryID.String()]; !ok {
		return fmt.Errorf("category %s: %w", link.CategoryID, sentinel.ErrNotFound)
	}
	cp := *link
	s.courseLinks[courseLinkKey{link.CategoryID.String(), link.CourseID.String()}] = &cp
	return nil
}

func (s *InMemoryStore) UnlinkCourse(_ context.Context, categoryID domain.CategoryID, courseID domain.CourseID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := courseLinkKey{categoryID.String(), courseID.String()}
	if _, ok := s.courseLinks[key]; !ok {
		return fmt.Errorf("course link %s/%s: %w", categoryID, courseID, sentinel.ErrNotFound)
	}
	delete(s.courseLinks, key)
	return nil
}

func (s *InMemoryStore) CourseLinks(_ context.Context, categoryID domain.CategoryID) ([]*models.CategoryCourseLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.CategoryCourseLink
	for key, link := range s.courseLinks {
		if key.categoryID == categoryID.String() {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CategoriesForCourse(_ context.Context, courseID domain.CourseID) ([]domain.CategoryID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CategoryID
	for key, link := range s.courseLinks {
		if key.courseID == courseID.String() {
			out = append(out, link.CategoryID)
		}
	}
	return out, nil
}

func (s *InMemoryStore) LinkCapability(_ context.Context, link *models.CategoryCapabilityLink) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[link.CategoryID.String()]; !ok {
		return fmt.Errorf("category %s: %w", link.CategoryID, sentinel.ErrNotFound)
	}
	cp := *link
	s.capabilityLinks[capabilityLinkKey{link.CategoryID.String(), link.CapabilityID.String()}] = &cp
	return nil
}

func (s *InMemoryStore) UnlinkCapability(_ context.Context, categoryID domain.CategoryID, capabilityID domain.CapabilityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := capabilityLinkKey{categoryID.String(), capabilityID.String()}
	if _, ok := s.capabilityLinks[key]; !ok {
		return fmt.Errorf("capability link %s/%s: %w", categoryID, capabilityID, sentinel.ErrNotFound)
	}
	delete(s.capabilityLinks, key)
	return nil
}

func (s *InMemoryStore) CapabilityLinks(_ context.Context, categoryID domain.CategoryID) ([]*models.CategoryCapabilityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.CategoryCapabilityLink
	for key, link := range s.capabilityLinks {
		if key.categoryID == categoryID.String() {
			cp := *link
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore) CategoriesForCapability(_ context.Context, capabilityID domain.CapabilityID) ([]domain.CategoryID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.CategoryID
	for key, link := range s.capabilityLinks {
		if key.capabilityID == capabilityID.String() {
			out = append(out, link.CategoryID)
		}
	}
	return out, nil
}
