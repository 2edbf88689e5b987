package handler

import (
	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
)

// ResolveRequest is the wire form of a capability access check.
type ResolveRequest struct {
	CapabilityID string `json:"capability_id"`
}

// CourseRefResponse carries denial metadata for the UI.
type CourseRefResponse struct {
	CourseID string `json:"course_id"`
	Name     string `json:"name,omitempty"`
	JoinURL  string `json:"join_url,omitempty"`
}

// ResolveResponse is the wire form of an access decision.
type ResolveResponse struct {
	HasAccess       bool                `json:"has_access"`
	Reason          string              `json:"reason"`
	RequiredCourses []CourseRefResponse `json:"required_courses,omitempty"`
	MatchedCourses  []string            `json:"matched_courses,omitempty"`
}

// FromDecision maps a domain decision to the wire form.
func FromDecision(decision *models.AccessDecision) ResolveResponse {
	resp := ResolveResponse{
		HasAccess: decision.HasAccess,
		Reason:    string(decision.Reason),
	}
	for _, ref := range decision.RequiredCourses {
		resp.RequiredCourses = append(resp.RequiredCourses, CourseRefResponse{
			CourseID: ref.CourseID.String(),
			Name:     ref.Name,
			JoinURL:  ref.JoinURL,
		})
	}
	for _, courseID := range decision.MatchedCourses {
		resp.MatchedCourses = append(resp.MatchedCourses, courseID.String())
	}
	return resp
}

// AddAllocationRequest is the admin wire form for linking a course to a capability.
type AddAllocationRequest struct {
	CapabilityID string `json:"capability_id"`
	CourseID     string `json:"course_id"`
	CourseName   string `json:"course_name,omitempty"`
	JoinURL      string `json:"join_url,omitempty"`
}

// AllocationResponse is the admin wire form of an allocation row.
type AllocationResponse struct {
	CapabilityID string `json:"capability_id"`
	CourseID     string `json:"course_id"`
	CourseName   string `json:"course_name,omitempty"`
	JoinURL      string `json:"join_url,omitempty"`
	Active       bool   `json:"active"`
}

// UpsertCapabilityRequest is the admin wire form for catalog entries.
type UpsertCapabilityRequest struct {
	Name      string `json:"name"`
	IsPublic  bool   `json:"is_public"`
	IsPremium bool   `json:"is_premium"`
}

// CapabilityResponse is the wire form of a catalog entry.
type CapabilityResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	IsPublic  bool   `json:"is_public"`
	IsPremium bool   `json:"is_premium"`
}

func fromAllocation(alloc *models.Allocation) AllocationResponse {
	return AllocationResponse{
		CapabilityID: alloc.CapabilityID.String(),
		CourseID:     alloc.CourseID.String(),
		CourseName:   alloc.CourseName,
		JoinURL:      alloc.JoinURL,
		Active:       alloc.Active,
	}
}

func fromCapability(capability *models.Capability) CapabilityResponse {
	return CapabilityResponse{
		ID:        capability.ID.String(),
		Name:      capability.Name,
		IsPublic:  capability.IsPublic,
		IsPremium: capability.IsPremium,
	}
}

func toCapability(id domain.CapabilityID, req UpsertCapabilityRequest) *models.Capability {
	return &models.Capability{
		ID:        id,
		Name:      req.Name,
		IsPublic:  req.IsPublic,
		IsPremium: req.IsPremium,
	}
}
