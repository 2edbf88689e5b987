package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"toolgate/internal/evidence/models"
	"toolgate/internal/evidence/store"
	"toolgate/pkg/domain"
	dErrors "toolgate/pkg/domain-errors"
	auditmem "toolgate/pkg/platform/audit/memory"
)

// =============================================================================
// Collector Test Suite
// =============================================================================
// Justification for unit tests: the leveling thresholds and the dedup key are
// the contract the profile and snapshot views depend on; off-by-one mistakes
// at the tier boundaries would silently misgrade users.

type CollectorSuite struct {
	suite.Suite
	store     *store.InMemoryStore
	auditor   *auditmem.Emitter
	collector *Collector
	principal domain.Principal
}

func TestCollectorSuite(t *testing.T) {
	suite.Run(t, new(CollectorSuite))
}

func (s *CollectorSuite) SetupTest() {
	s.store = store.NewMemory()
	s.auditor = auditmem.New()

	var err error
	s.collector, err = New(s.store, WithAuditPublisher(s.auditor))
	s.Require().NoError(err)

	s.principal = domain.Principal{ID: domain.NewUserID(), Email: "user@example.com", Role: domain.RoleUser}
}

func (s *CollectorSuite) record(input RecordInput) *models.Evidence {
	out, err := s.collector.Record(context.Background(), s.principal, input)
	s.Require().NoError(err)
	return out
}

func (s *CollectorSuite) TestConstructorRequiresStore() {
	_, err := New(nil)
	s.Require().Error(err)
}

func (s *CollectorSuite) TestValidation() {
	cases := []struct {
		name  string
		input RecordInput
	}{
		{"unknown type", RecordInput{Type: "guessed", SourceID: "c1", SourceName: "Tool"}},
		{"missing source id", RecordInput{Type: models.TypeCapabilityUsed, SourceName: "Tool"}},
		{"missing source name", RecordInput{Type: models.TypeCapabilityUsed, SourceID: "c1"}},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			_, err := s.collector.Record(context.Background(), s.principal, tc.input)
			s.Require().Error(err)
			s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		})
	}
}

func (s *CollectorSuite) TestFirstEventCreatesRow() {
	out := s.record(RecordInput{
		Type:       models.TypeCapabilityUsed,
		SourceID:   "vat-calc",
		SourceName: "VAT Calculator",
		Category:   "indirect-tax",
	})

	s.Equal(1, out.Count)
	s.Equal(models.LevelFamiliar, out.Level)
	s.Equal("vat-calculator.capability_used", out.SkillName)
	s.Equal([]string{"evidence_recorded"}, s.auditor.ActionsSeen())

	events := s.auditor.Events()
	s.Require().Len(events, 1)
	s.Equal(s.principal.ID, events[0].UserID)
}

func (s *CollectorSuite) TestRepeatsIncrementSameRow() {
	input := RecordInput{Type: models.TypeWorkSaved, SourceID: "vat-calc", SourceName: "VAT Calculator"}

	var last *models.Evidence
	for i := 0; i < 3; i++ {
		last = s.record(input)
	}

	s.Equal(3, last.Count)

	rows, err := s.collector.ListForPrincipal(context.Background(), s.principal)
	s.Require().NoError(err)
	s.Len(rows, 1)
}

func (s *CollectorSuite) TestCapabilityUsedLevelBoundaries() {
	input := RecordInput{Type: models.TypeCapabilityUsed, SourceID: "tp-model", SourceName: "TP Modeler"}

	var out *models.Evidence
	for i := 1; i <= 4; i++ {
		out = s.record(input)
	}
	s.Equal(models.LevelFamiliar, out.Level, "count 4 stays familiar")

	out = s.record(input)
	s.Equal(models.LevelProficient, out.Level, "count 5 is proficient")

	for i := 6; i <= 14; i++ {
		out = s.record(input)
	}
	s.Equal(models.LevelProficient, out.Level, "count 14 stays proficient")

	out = s.record(input)
	s.Equal(models.LevelExpert, out.Level, "count 15 is expert")
}

func (s *CollectorSuite) TestWorkSavedLevelBoundary() {
	input := RecordInput{Type: models.TypeWorkSaved, SourceID: "doc-gen", SourceName: "Doc Generator"}

	var out *models.Evidence
	for i := 1; i <= 4; i++ {
		out = s.record(input)
	}
	s.Equal(models.LevelFamiliar, out.Level)

	out = s.record(input)
	s.Equal(models.LevelProficient, out.Level)
}

func (s *CollectorSuite) TestCourseCompletionIsAlwaysProficient() {
	input := RecordInput{Type: models.TypeCourseCompleted, SourceID: "K1", SourceName: "VAT Fundamentals"}

	out := s.record(input)
	s.Equal(models.LevelProficient, out.Level, "single completion is proficient")

	for i := 0; i < 20; i++ {
		out = s.record(input)
	}
	s.Equal(models.LevelProficient, out.Level, "completions never reach expert")
}

func (s *CollectorSuite) TestDistinctSourcesStayDistinct() {
	s.record(RecordInput{Type: models.TypeCapabilityUsed, SourceID: "vat-calc", SourceName: "VAT Calculator"})
	s.record(RecordInput{Type: models.TypeWorkSaved, SourceID: "vat-calc", SourceName: "VAT Calculator"})
	s.record(RecordInput{Type: models.TypeCapabilityUsed, SourceID: "tp-model", SourceName: "TP Modeler"})

	rows, err := s.collector.ListForPrincipal(context.Background(), s.principal)
	s.Require().NoError(err)
	s.Len(rows, 3)
}

func (s *CollectorSuite) TestConcurrentEventsLoseNothing() {
	input := RecordInput{Type: models.TypeCapabilityUsed, SourceID: "vat-calc", SourceName: "VAT Calculator"}

	const workers = 50
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.collector.Record(context.Background(), s.principal, input)
			assert.NoError(s.T(), err)
		}()
	}
	wg.Wait()

	rows, err := s.collector.ListForPrincipal(context.Background(), s.principal)
	s.Require().NoError(err)
	s.Require().Len(rows, 1)
	s.Equal(workers, rows[0].Count)
	s.Equal(models.LevelExpert, rows[0].Level)
}

func TestSkillNameIsDeterministic(t *testing.T) {
	a := models.SkillName("  VAT   Calculator ", models.TypeCapabilityUsed)
	b := models.SkillName("VAT Calculator", models.TypeCapabilityUsed)
	assert.Equal(t, a, b)
	assert.Equal(t, "vat-calculator.capability_used", a)

	c := models.SkillName("VAT Calculator", models.TypeWorkSaved)
	assert.NotEqual(t, a, c, "type participates in the skill name")
}
