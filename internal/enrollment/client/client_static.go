package client

import (
	"context"
	"time"

	"toolgate/internal/enrollment/models"
	"toolgate/pkg/domain"
)

// Static serves a fixed per-user course map. Used in development when no
// learning platform is configured, and by tests that need deterministic
// enrollment data. An optional latency mimics real platform calls.
type Static struct {
	Courses map[string][]models.CourseCompletion
	Latency time.Duration
}

func (s *Static) AccessibleCourseIDs(ctx context.Context, principal domain.Principal) ([]domain.CourseID, error) {
	completions, err := s.CourseCompletions(ctx, principal)
	if err != nil {
		return nil, err
	}
	ids := make([]domain.CourseID, 0, len(completions))
	for _, c := range completions {
		ids = append(ids, c.CourseID)
	}
	return ids, nil
}

func (s *Static) CourseCompletions(_ context.Context, principal domain.Principal) ([]models.CourseCompletion, error) {
	time.Sleep(s.Latency)
	out := make([]models.CourseCompletion, len(s.Courses[platformKey(principal)]))
	copy(out, s.Courses[platformKey(principal)])
	return out, nil
}
