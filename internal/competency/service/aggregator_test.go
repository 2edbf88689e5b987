package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"toolgate/internal/competency/models"
	categoryStore "toolgate/internal/competency/store/category"
	progressStore "toolgate/internal/competency/store/progress"
	projectStore "toolgate/internal/competency/store/project"
	"toolgate/pkg/domain"
	auditmem "toolgate/pkg/platform/audit/memory"
	"toolgate/pkg/requestcontext"
)

// =============================================================================
// Aggregator Test Suite
// =============================================================================
// Justification for unit tests: the first-wins completion policy and the
// snapshot projection are what verification records are built from; a
// regression here rewrites people's history.

type staticCatalog struct {
	names map[string]string
}

func (c *staticCatalog) Name(_ context.Context, capabilityID domain.CapabilityID) (string, error) {
	return c.names[capabilityID.String()], nil
}

type AggregatorSuite struct {
	suite.Suite
	categories *categoryStore.InMemoryStore
	progress   *progressStore.InMemoryStore
	projects   *projectStore.InMemoryStore
	auditor    *auditmem.Emitter
	aggregator *Aggregator

	principal domain.Principal
	pillar2   domain.CategoryID
	indirect  domain.CategoryID
}

func TestAggregatorSuite(t *testing.T) {
	suite.Run(t, new(AggregatorSuite))
}

func (s *AggregatorSuite) SetupTest() {
	s.categories = categoryStore.NewMemory()
	s.progress = progressStore.NewMemory()
	s.projects = projectStore.NewMemory()
	s.auditor = auditmem.New()

	var err error
	s.aggregator, err = NewAggregator(s.categories, s.progress, s.projects,
		WithAuditPublisher(s.auditor),
		WithCapabilityCatalog(&staticCatalog{names: map[string]string{"tp-model": "TP Modeler"}}),
	)
	s.Require().NoError(err)

	s.principal = domain.Principal{ID: domain.NewUserID(), Email: "user@example.com", Role: domain.RoleUser}

	s.pillar2 = s.createCategory("Pillar2")
	s.indirect = s.createCategory("Indirect Tax")
}

func (s *AggregatorSuite) createCategory(name string) domain.CategoryID {
	id := domain.NewCategoryID()
	err := s.categories.Create(context.Background(), &models.SkillCategory{
		ID: id, Name: name, Slug: name, CreatedAt: time.Now(),
	})
	s.Require().NoError(err)
	return id
}

func (s *AggregatorSuite) linkCourse(categoryID domain.CategoryID, courseID, courseName string) {
	err := s.categories.LinkCourse(context.Background(), &models.CategoryCourseLink{
		CategoryID:    categoryID,
		CourseID:      domain.CourseID(courseID),
		CourseName:    courseName,
		LearningHours: 8,
	})
	s.Require().NoError(err)
}

func (s *AggregatorSuite) linkCapability(categoryID domain.CategoryID, capabilityID string) {
	err := s.categories.LinkCapability(context.Background(), &models.CategoryCapabilityLink{
		CategoryID:             categoryID,
		CapabilityID:           domain.CapabilityID(capabilityID),
		ApplicationDescription: "applies " + capabilityID,
	})
	s.Require().NoError(err)
}

func (s *AggregatorSuite) TestConstructorInvariants() {
	_, err := NewAggregator(nil, s.progress, s.projects)
	s.Require().Error(err)
	_, err = NewAggregator(s.categories, nil, s.projects)
	s.Require().Error(err)
	_, err = NewAggregator(s.categories, s.progress, nil)
	s.Require().Error(err)
}

func (s *AggregatorSuite) TestCourseCompletionMarksLinkedCategories() {
	s.linkCourse(s.pillar2, "K9", "Pillar Two Essentials")
	s.linkCourse(s.indirect, "K9", "Pillar Two Essentials")

	err := s.aggregator.OnCourseCompletion(context.Background(), s.principal, "K9", 100)
	s.Require().NoError(err)

	rows, err := s.progress.ListForPrincipal(context.Background(), s.principal.ID)
	s.Require().NoError(err)
	s.Len(rows, 2)
	for _, row := range rows {
		s.True(row.KnowledgeCompleted)
		s.Equal(domain.CourseID("K9"), row.TriggeringCourseID)
		s.InDelta(100, row.ProgressScore, 0.001)
	}
	s.Equal([]string{"category_knowledge_completed", "category_knowledge_completed"}, s.auditor.ActionsSeen())
	for _, event := range s.auditor.Events() {
		s.Equal(s.principal.ID, event.UserID)
	}
}

func (s *AggregatorSuite) TestFirstCompletionWins() {
	s.linkCourse(s.pillar2, "K9", "Pillar Two Essentials")
	s.linkCourse(s.pillar2, "K10", "Pillar Two Advanced")

	err := s.aggregator.OnCourseCompletion(context.Background(), s.principal, "K9", 100)
	s.Require().NoError(err)
	err = s.aggregator.OnCourseCompletion(context.Background(), s.principal, "K10", 80)
	s.Require().NoError(err)

	rows, err := s.progress.ListForPrincipal(context.Background(), s.principal.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(domain.CourseID("K9"), rows[0].TriggeringCourseID, "later completion must not overwrite")
	s.InDelta(100, rows[0].ProgressScore, 0.001)
}

func (s *AggregatorSuite) TestCompletionOfUnlinkedCourseIsNoOp() {
	err := s.aggregator.OnCourseCompletion(context.Background(), s.principal, "K404", 100)
	s.Require().NoError(err)

	rows, err := s.progress.ListForPrincipal(context.Background(), s.principal.ID)
	s.Require().NoError(err)
	s.Empty(rows)
}

func (s *AggregatorSuite) TestCapabilitySavedIncrementsOnce() {
	s.linkCapability(s.pillar2, "tp-model")
	s.linkCapability(s.indirect, "tp-model")

	err := s.aggregator.OnCapabilitySaved(context.Background(), s.principal, "tp-model")
	s.Require().NoError(err)

	records, err := s.projects.ListForPrincipal(context.Background(), s.principal.ID)
	s.Require().NoError(err)
	s.Require().Len(records, 1)
	s.Equal(1, records[0].ProjectCount, "one save is one increment regardless of link count")
}

func (s *AggregatorSuite) TestUnlinkedCapabilitySaveIsNoOp() {
	err := s.aggregator.OnCapabilitySaved(context.Background(), s.principal, "unlinked")
	s.Require().NoError(err)

	records, err := s.projects.ListForPrincipal(context.Background(), s.principal.ID)
	s.Require().NoError(err)
	s.Empty(records)
}

func (s *AggregatorSuite) TestConcurrentCompletionsHaveOneWinner() {
	s.linkCourse(s.pillar2, "K9", "Pillar Two Essentials")
	s.linkCourse(s.pillar2, "K10", "Pillar Two Advanced")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		courseID := domain.CourseID("K9")
		if i%2 == 1 {
			courseID = "K10"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.aggregator.OnCourseCompletion(context.Background(), s.principal, courseID, 100)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	rows, err := s.progress.ListForPrincipal(context.Background(), s.principal.ID)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Contains([]domain.CourseID{"K9", "K10"}, rows[0].TriggeringCourseID)
}

func (s *AggregatorSuite) TestComputeSnapshot() {
	s.linkCourse(s.pillar2, "K9", "Pillar Two Essentials")
	s.linkCourse(s.pillar2, "K10", "Pillar Two Advanced")
	s.linkCapability(s.pillar2, "tp-model")
	s.linkCapability(s.indirect, "vat-calc")

	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	s.Require().NoError(s.aggregator.OnCourseCompletion(ctx, s.principal, "K9", 100))
	s.Require().NoError(s.aggregator.OnCapabilitySaved(ctx, s.principal, "tp-model"))
	s.Require().NoError(s.aggregator.OnCapabilitySaved(ctx, s.principal, "tp-model"))

	snapshot, err := s.aggregator.ComputeSnapshot(ctx, s.principal)
	s.Require().NoError(err)
	s.Require().Len(snapshot.Categories, 2)

	var pillar2 models.CategorySnapshot
	for _, category := range snapshot.Categories {
		if category.ID == s.pillar2 {
			pillar2 = category
		}
	}
	s.Require().Len(pillar2.Courses, 2)

	byCourse := map[domain.CourseID]models.CourseSnapshot{}
	for _, course := range pillar2.Courses {
		byCourse[course.CourseID] = course
	}
	s.True(byCourse["K9"].Completed)
	s.Require().NotNil(byCourse["K9"].CompletedAt)
	s.InDelta(100, byCourse["K9"].ProgressScore, 0.001)
	s.False(byCourse["K10"].Completed, "only the triggering course shows completed")

	s.Require().Len(pillar2.Capabilities, 1)
	s.Equal("TP Modeler", pillar2.Capabilities[0].Name)
	s.Equal(2, pillar2.Capabilities[0].ProjectCount)
	s.Require().NotNil(pillar2.Capabilities[0].LastUsedAt)

	// Idempotent: a second computation with no writes in between is identical.
	again, err := s.aggregator.ComputeSnapshot(ctx, s.principal)
	s.Require().NoError(err)
	s.Equal(snapshot, again)
}

func (s *AggregatorSuite) TestSnapshotNameFallsBackToCapabilityID() {
	s.linkCapability(s.indirect, "vat-calc")

	snapshot, err := s.aggregator.ComputeSnapshot(context.Background(), s.principal)
	s.Require().NoError(err)

	for _, category := range snapshot.Categories {
		if category.ID == s.indirect {
			s.Require().Len(category.Capabilities, 1)
			s.Equal("vat-calc", category.Capabilities[0].Name)
		}
	}
}

func TestDeepCopyIsIndependent(t *testing.T) {
	at := time.Now()
	want := at
	original := models.SkillSnapshot{Categories: []models.CategorySnapshot{{
		Name: "Pillar2",
		Courses: []models.CourseSnapshot{
			{CourseID: "K9", Completed: true, CompletedAt: &at},
		},
		Capabilities: []models.CapabilitySnapshot{
			{CapabilityID: "tp-model", ProjectCount: 2, LastUsedAt: &at},
		},
	}}}

	frozen := original.DeepCopy()
	// Writing through the pointer mutates `at` itself; `want` holds the
	// pre-mutation value the copy must keep showing.
	original.Categories[0].Courses[0].Completed = false
	*original.Categories[0].Courses[0].CompletedAt = at.Add(time.Hour)
	original.Categories[0].Capabilities[0].ProjectCount = 99

	assert.True(t, frozen.Categories[0].Courses[0].Completed)
	assert.Equal(t, want, *frozen.Categories[0].Courses[0].CompletedAt)
	assert.Equal(t, 2, frozen.Categories[0].Capabilities[0].ProjectCount)
	assert.Equal(t, want, *frozen.Categories[0].Capabilities[0].LastUsedAt)
}
