package handler

import (
	"time"

	"toolgate/internal/evidence/models"
)

// RecordEvidenceRequest is the wire form of an evidence event.
type RecordEvidenceRequest struct {
	EvidenceType string `json:"evidence_type"`
	SourceID     string `json:"source_id"`
	SourceName   string `json:"source_name"`
	Category     string `json:"category,omitempty"`
}

// EvidenceResponse is the wire form of a persisted evidence row.
type EvidenceResponse struct {
	SkillName  string    `json:"skill_name"`
	Type       string    `json:"evidence_type"`
	SourceID   string    `json:"source_id"`
	SourceName string    `json:"source_name"`
	Category   string    `json:"category,omitempty"`
	Count      int       `json:"count"`
	Level      string    `json:"level"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func fromEvidence(e *models.Evidence) EvidenceResponse {
	return EvidenceResponse{
		SkillName:  e.SkillName,
		Type:       string(e.Type),
		SourceID:   e.SourceID,
		SourceName: e.SourceName,
		Category:   e.Category,
		Count:      e.Count,
		Level:      string(e.Level),
		UpdatedAt:  e.UpdatedAt,
	}
}
