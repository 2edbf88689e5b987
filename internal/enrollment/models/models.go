package models

import (
	"time"

	"toolgate/pkg/domain"
)

// CourseCompletion is one course record from the learning platform, as seen
// from a single user's perspective.
type CourseCompletion struct {
	CourseID      domain.CourseID
	Title         string
	ProgressScore float64
	Completed     bool
	CompletedAt   *time.Time
}
