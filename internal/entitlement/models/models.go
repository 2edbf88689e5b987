package models

import (
	"time"

	"toolgate/pkg/domain"
)

// Capability is a gated tool a principal may or may not use. Flags decide the
// free-tier fallback: a capability with no active allocations that is public
// and not premium is free to any authenticated principal.
type Capability struct {
	ID        domain.CapabilityID
	Name      string
	IsPublic  bool
	IsPremium bool
}

// Allocation declares that a course unlocks a capability. Many-to-many,
// admin-curated, soft-deactivatable. CourseName and JoinURL are cached
// display metadata for denial responses; the course itself is owned by the
// external learning platform.
type Allocation struct {
	CapabilityID domain.CapabilityID
	CourseID     domain.CourseID
	CourseName   string
	JoinURL      string
	Active       bool
	CreatedAt    time.Time
	CreatedBy    domain.UserID
}

// AccessReason explains an access decision.
type AccessReason string

const (
	ReasonNotAuthenticated AccessReason = "not_authenticated"
	ReasonAdmin            AccessReason = "admin"
	ReasonEnrolled         AccessReason = "enrolled"
	ReasonNoEnrollment     AccessReason = "no_enrollment"
)

// CourseRef is the display metadata returned with a denial so the UI can
// point the principal at the courses that would unlock the capability.
type CourseRef struct {
	CourseID domain.CourseID
	Name     string
	JoinURL  string
}

// AccessDecision is the result of resolving a principal against a capability.
// RequiredCourses is populated only on no_enrollment denials;
// MatchedCourses only on enrollment-based grants.
type AccessDecision struct {
	HasAccess       bool
	Reason          AccessReason
	RequiredCourses []CourseRef
	MatchedCourses  []domain.CourseID
}
