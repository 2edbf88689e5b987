package models

import (
	"time"

	"toolgate/pkg/domain"
)

// SkillCategory is an admin-defined grouping that rolls courses and
// capabilities up into one displayable competency.
type SkillCategory struct {
	ID                   domain.CategoryID
	Name                 string
	Slug                 string
	KnowledgeDescription string
	CreatedAt            time.Time
}

// CategoryCourseLink ties a course to a category. The display fields are
// admin-authored at link time so snapshots never depend on the learning
// platform being reachable.
type CategoryCourseLink struct {
	CategoryID           domain.CategoryID
	CourseID             domain.CourseID
	CourseName           string
	KnowledgeDescription string
	LearningHours        float64
}

// CategoryCapabilityLink ties a capability to a category.
type CategoryCapabilityLink struct {
	CategoryID             domain.CategoryID
	CapabilityID           domain.CapabilityID
	ApplicationDescription string
}

// CategoryProgress marks the knowledge axis for one principal and category.
// The triggering course is set exactly once: a later completion of a
// different linked course does not overwrite it.
type CategoryProgress struct {
	PrincipalID        domain.UserID
	CategoryID         domain.CategoryID
	KnowledgeCompleted bool
	CompletedAt        *time.Time
	TriggeringCourseID domain.CourseID
	ProgressScore      float64
}

// CapabilityProjectRecord counts saved work per principal and capability for
// the application axis.
type CapabilityProjectRecord struct {
	PrincipalID  domain.UserID
	CapabilityID domain.CapabilityID
	ProjectCount int
	LastUsedAt   time.Time
}

// SkillSnapshot is the full competency projection for one principal. It is a
// plain value: computing it has no side effects, and the snapshot service
// freezes a deep copy of it.
type SkillSnapshot struct {
	Categories []CategorySnapshot
}

// CategorySnapshot is one category's view inside a SkillSnapshot.
type CategorySnapshot struct {
	ID           domain.CategoryID
	Name         string
	Courses      []CourseSnapshot
	Capabilities []CapabilitySnapshot
}

// CourseSnapshot is the knowledge axis row for one linked course.
type CourseSnapshot struct {
	CourseID             domain.CourseID
	CourseName           string
	KnowledgeDescription string
	ProgressScore        float64
	Completed            bool
	CompletedAt          *time.Time
	LearningHours        float64
}

// CapabilitySnapshot is the application axis row for one linked capability.
type CapabilitySnapshot struct {
	CapabilityID           domain.CapabilityID
	Name                   string
	ApplicationDescription string
	ProjectCount           int
	LastUsedAt             *time.Time
}

// DeepCopy returns an independent copy of the snapshot. Mutating the copy or
// the original afterwards cannot affect the other.
func (s SkillSnapshot) DeepCopy() SkillSnapshot {
	out := SkillSnapshot{Categories: make([]CategorySnapshot, len(s.Categories))}
	for i, cat := range s.Categories {
		cp := cat
		cp.Courses = make([]CourseSnapshot, len(cat.Courses))
		for j, course := range cat.Courses {
			cc := course
			if course.CompletedAt != nil {
				at := *course.CompletedAt
				cc.CompletedAt = &at
			}
			cp.Courses[j] = cc
		}
		cp.Capabilities = make([]CapabilitySnapshot, len(cat.Capabilities))
		for j, capability := range cat.Capabilities {
			cc := capability
			if capability.LastUsedAt != nil {
				at := *capability.LastUsedAt
				cc.LastUsedAt = &at
			}
			cp.Capabilities[j] = cc
		}
		out.Categories[i] = cp
	}
	return out
}
