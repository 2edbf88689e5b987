package handler

import (
	"time"

	competencyhandler "toolgate/internal/competency/handler"
	"toolgate/internal/snapshot/models"
)

// CreateSnapshotRequest is the wire form for freezing a snapshot.
type CreateSnapshotRequest struct {
	UserName    string   `json:"user_name"`
	CategoryIDs []string `json:"category_ids,omitempty"`
}

// CreateSnapshotResponse returns the new verification token.
type CreateSnapshotResponse struct {
	Token     string     `json:"token"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// VerifyResponse is the public verification payload. The principal's email
// is never part of it.
type VerifyResponse struct {
	UserName  string                                  `json:"user_name"`
	Skills    competencyhandler.SkillSnapshotResponse `json:"skills"`
	CreatedAt time.Time                               `json:"created_at"`
	ViewCount int                                     `json:"view_count"`
}

func fromSnapshot(snapshot *models.VerificationSnapshot) VerifyResponse {
	return VerifyResponse{
		UserName:  snapshot.UserName,
		Skills:    competencyhandler.FromSkillSnapshot(&snapshot.Skills),
		CreatedAt: snapshot.CreatedAt,
		ViewCount: snapshot.ViewCount,
	}
}
