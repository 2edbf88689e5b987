package handler

import (
	"time"

	"toolgate/internal/competency/models"
)

// CourseCompletedRequest is the learning platform webhook payload.
type CourseCompletedRequest struct {
	CourseID      string  `json:"course_id"`
	CourseName    string  `json:"course_name,omitempty"`
	ProgressScore float64 `json:"progress_score"`
}

// CapabilitySavedRequest is the tool save hook payload.
type CapabilitySavedRequest struct {
	CapabilityID   string `json:"capability_id"`
	CapabilityName string `json:"capability_name,omitempty"`
}

// CreateCategoryRequest is the admin wire form for a new skill category.
type CreateCategoryRequest struct {
	Name                 string `json:"name"`
	Slug                 string `json:"slug,omitempty"`
	KnowledgeDescription string `json:"knowledge_description,omitempty"`
}

// CategoryResponse is the wire form of a skill category.
type CategoryResponse struct {
	ID                   string `json:"id"`
	Name                 string `json:"name"`
	Slug                 string `json:"slug"`
	KnowledgeDescription string `json:"knowledge_description,omitempty"`
}

// LinkCourseRequest attaches a course to a category.
type LinkCourseRequest struct {
	CourseID             string  `json:"course_id"`
	CourseName           string  `json:"course_name,omitempty"`
	KnowledgeDescription string  `json:"knowledge_description,omitempty"`
	LearningHours        float64 `json:"learning_hours,omitempty"`
}

// LinkCapabilityRequest attaches a capability to a category.
type LinkCapabilityRequest struct {
	CapabilityID           string `json:"capability_id"`
	ApplicationDescription string `json:"application_description,omitempty"`
}

// CategoryDetailResponse is a category with its links expanded.
type CategoryDetailResponse struct {
	CategoryResponse
	Courses      []CourseLinkResponse     `json:"courses"`
	Capabilities []CapabilityLinkResponse `json:"capabilities"`
}

// CourseLinkResponse is the wire form of a course link.
type CourseLinkResponse struct {
	CourseID             string  `json:"course_id"`
	CourseName           string  `json:"course_name,omitempty"`
	KnowledgeDescription string  `json:"knowledge_description,omitempty"`
	LearningHours        float64 `json:"learning_hours,omitempty"`
}

// CapabilityLinkResponse is the wire form of a capability link.
type CapabilityLinkResponse struct {
	CapabilityID           string `json:"capability_id"`
	ApplicationDescription string `json:"application_description,omitempty"`
}

// SkillSnapshotResponse is the wire form of a computed or frozen snapshot.
type SkillSnapshotResponse struct {
	Categories []CategorySnapshotResponse `json:"categories"`
}

// CategorySnapshotResponse is one category inside a snapshot.
type CategorySnapshotResponse struct {
	ID           string                       `json:"id"`
	Name         string                       `json:"name"`
	Courses      []CourseSnapshotResponse     `json:"courses"`
	Capabilities []CapabilitySnapshotResponse `json:"capabilities"`
}

// CourseSnapshotResponse is the knowledge axis row.
type CourseSnapshotResponse struct {
	CourseID             string     `json:"course_id"`
	CourseName           string     `json:"course_name,omitempty"`
	KnowledgeDescription string     `json:"knowledge_description,omitempty"`
	ProgressScore        float64    `json:"progress_score"`
	Completed            bool       `json:"completed"`
	CompletedAt          *time.Time `json:"completed_at,omitempty"`
	LearningHours        float64    `json:"learning_hours,omitempty"`
}

// CapabilitySnapshotResponse is the application axis row.
type CapabilitySnapshotResponse struct {
	CapabilityID           string     `json:"capability_id"`
	Name                   string     `json:"name,omitempty"`
	ApplicationDescription string     `json:"application_description,omitempty"`
	ProjectCount           int        `json:"project_count"`
	LastUsedAt             *time.Time `json:"last_used_at,omitempty"`
}

func fromCategory(category *models.SkillCategory) CategoryResponse {
	return CategoryResponse{
		ID:                   category.ID.String(),
		Name:                 category.Name,
		Slug:                 category.Slug,
		KnowledgeDescription: category.KnowledgeDescription,
	}
}

// FromSkillSnapshot maps a snapshot to its wire form. Shared with the
// verification read path, which serves frozen copies of the same structure.
func FromSkillSnapshot(snapshot *models.SkillSnapshot) SkillSnapshotResponse {
	out := SkillSnapshotResponse{Categories: make([]CategorySnapshotResponse, 0, len(snapshot.Categories))}
	for _, category := range snapshot.Categories {
		cat := CategorySnapshotResponse{
			ID:           category.ID.String(),
			Name:         category.Name,
			Courses:      make([]CourseSnapshotResponse, 0, len(category.Courses)),
			Capabilities: make([]CapabilitySnapshotResponse, 0, len(category.Capabilities)),
		}
		for _, course := range category.Courses {
			cat.Courses = append(cat.Courses, CourseSnapshotResponse{
				CourseID:             course.CourseID.String(),
				CourseName:           course.CourseName,
				KnowledgeDescription: course.KnowledgeDescription,
				ProgressScore:        course.ProgressScore,
				Completed:            course.Completed,
				CompletedAt:          course.CompletedAt,
				LearningHours:        course.LearningHours,
			})
		}
		for _, capability := range category.Capabilities {
			cat.Capabilities = append(cat.Capabilities, CapabilitySnapshotResponse{
				CapabilityID:           capability.CapabilityID.String(),
				Name:                   capability.Name,
				ApplicationDescription: capability.ApplicationDescription,
				ProjectCount:           capability.ProjectCount,
				LastUsedAt:             capability.LastUsedAt,
			})
		}
		out.Categories = append(out.Categories, cat)
	}
	return out
}
