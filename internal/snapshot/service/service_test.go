package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	competencyservice "toolgate/internal/competency/service"
	categoryStore "toolgate/internal/competency/store/category"
	progressStore "toolgate/internal/competency/store/progress"
	projectStore "toolgate/internal/competency/store/project"
	competencymodels "toolgate/internal/competency/models"
	"toolgate/internal/snapshot/models"
	"toolgate/internal/snapshot/store"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	auditmem "toolgate/pkg/platform/audit/memory"
	"toolgate/pkg/requestcontext"
)

// =============================================================================
// Snapshot Service Test Suite
// =============================================================================
// Justification for unit tests: a verification token is a public promise that
// the record behind it never changes; immutability and the uniform not-found
// behavior are the whole point of the feature.

type ServiceSuite struct {
	suite.Suite
	categories *categoryStore.InMemoryStore
	aggregator *competencyservice.Aggregator
	store      *store.InMemoryStore
	auditor    *auditmem.Emitter
	service    *Service

	principal domain.Principal
	pillar2   domain.CategoryID
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.categories = categoryStore.NewMemory()
	s.store = store.NewMemory()
	s.auditor = auditmem.New()

	var err error
	s.aggregator, err = competencyservice.NewAggregator(s.categories, progressStore.NewMemory(), projectStore.NewMemory())
	s.Require().NoError(err)

	s.service, err = New(s.store, s.aggregator, WithAuditPublisher(s.auditor))
	s.Require().NoError(err)

	s.principal = domain.Principal{ID: domain.NewUserID(), Email: "user@example.com", Role: domain.RoleUser}

	s.pillar2 = domain.NewCategoryID()
	s.Require().NoError(s.categories.Create(context.Background(), &competencymodels.SkillCategory{
		ID: s.pillar2, Name: "Pillar2", Slug: "pillar2", CreatedAt: time.Now(),
	}))
	s.Require().NoError(s.categories.LinkCourse(context.Background(), &competencymodels.CategoryCourseLink{
		CategoryID: s.pillar2, CourseID: "K9", CourseName: "Pillar Two Essentials",
	}))
}

func (s *ServiceSuite) complete(courseID string) {
	err := s.aggregator.OnCourseCompletion(context.Background(), s.principal, domain.CourseID(courseID), 100)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestCreateRequiresUserName() {
	_, err := s.service.Create(context.Background(), s.principal, "  ", nil)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func (s *ServiceSuite) TestCreateAndVerify() {
	s.complete("K9")

	created, err := s.service.Create(context.Background(), s.principal, "Dana Q", nil)
	s.Require().NoError(err)
	s.NotEmpty(created.Token)
	s.Equal(0, created.ViewCount)

	got, err := s.service.Get(context.Background(), created.Token)
	s.Require().NoError(err)
	s.Equal("Dana Q", got.UserName)
	s.Equal(1, got.ViewCount)
	s.Require().Len(got.Skills.Categories, 1)
	s.True(got.Skills.Categories[0].Courses[0].Completed)

	s.Equal([]string{"snapshot_created", "snapshot_viewed"}, s.auditor.ActionsSeen())
	for _, event := range s.auditor.Events() {
		s.Equal(s.principal.ID, event.UserID)
	}
}

func (s *ServiceSuite) TestSnapshotIsFrozen() {
	created, err := s.service.Create(context.Background(), s.principal, "Dana Q", nil)
	s.Require().NoError(err)

	// The course completes after the snapshot was taken.
	s.complete("K9")

	got, err := s.service.Get(context.Background(), created.Token)
	s.Require().NoError(err)
	s.False(got.Skills.Categories[0].Courses[0].Completed, "frozen snapshot must not see later progress")

	live, err := s.aggregator.ComputeSnapshot(context.Background(), s.principal)
	s.Require().NoError(err)
	s.True(live.Categories[0].Courses[0].Completed)
}

func (s *ServiceSuite) TestViewCountClimbsAcrossReads() {
	created, err := s.service.Create(context.Background(), s.principal, "Dana Q", nil)
	s.Require().NoError(err)

	for i := 1; i <= 3; i++ {
		got, err := s.service.Get(context.Background(), created.Token)
		s.Require().NoError(err)
		s.Equal(i, got.ViewCount)
	}
}

func (s *ServiceSuite) TestUnknownTokenIsNotFound() {
	_, err := s.service.Get(context.Background(), "no-such-token")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.service.Get(context.Background(), "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestExpiredTokenLooksLikeUnknown() {
	svc, err := New(s.store, s.aggregator, WithDefaultExpiry(time.Hour))
	s.Require().NoError(err)

	issuedAt := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	created, err := svc.Create(requestcontext.WithTime(context.Background(), issuedAt), s.principal, "Dana Q", nil)
	s.Require().NoError(err)
	s.Require().NotNil(created.ExpiresAt)

	// Still valid just before expiry.
	beforeCtx := requestcontext.WithTime(context.Background(), issuedAt.Add(59*time.Minute))
	_, err = svc.Get(beforeCtx, created.Token)
	s.Require().NoError(err)

	afterCtx := requestcontext.WithTime(context.Background(), issuedAt.Add(2*time.Hour))
	_, err = svc.Get(afterCtx, created.Token)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	unknownErr := func() error {
		_, err := svc.Get(afterCtx, "no-such-token")
		return err
	}()
	s.Equal(unknownErr.Error(), err.Error(), "expired and unknown tokens are indistinguishable")
}

func (s *ServiceSuite) TestCategoryFilter() {
	other := domain.NewCategoryID()
	s.Require().NoError(s.categories.Create(context.Background(), &competencymodels.SkillCategory{
		ID: other, Name: "Indirect Tax", Slug: "indirect-tax", CreatedAt: time.Now(),
	}))

	created, err := s.service.Create(context.Background(), s.principal, "Dana Q", []domain.CategoryID{s.pillar2})
	s.Require().NoError(err)

	got, err := s.service.Get(context.Background(), created.Token)
	s.Require().NoError(err)
	s.Require().Len(got.Skills.Categories, 1)
	s.Equal(s.pillar2, got.Skills.Categories[0].ID)

	_, err = s.service.Create(context.Background(), s.principal, "Dana Q", []domain.CategoryID{domain.NewCategoryID()})
	s.Require().Error(err, "filter matching nothing is rejected")
}

func TestNewTokenProperties(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token, err := models.NewToken()
		assert.NoError(t, err)
		assert.Len(t, token, 43, "32 bytes in raw base64url")
		assert.NotContains(t, token, "+")
		assert.NotContains(t, token, "/")
		assert.NotContains(t, token, "=")
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
