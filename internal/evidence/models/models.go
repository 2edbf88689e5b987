package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"toolgate/pkg/domain"
)

// EvidenceType classifies where a piece of skill evidence came from.
type EvidenceType string

const (
	TypeCourseCompleted EvidenceType = "course_completed"
	TypeCapabilityUsed  EvidenceType = "capability_used"
	TypeWorkSaved       EvidenceType = "work_saved"
)

var validTypes = map[EvidenceType]bool{
	TypeCourseCompleted: true,
	TypeCapabilityUsed:  true,
	TypeWorkSaved:       true,
}

// IsValid reports whether t is a known evidence type.
func (t EvidenceType) IsValid() bool {
	return validTypes[t]
}

// SkillLevel is the tier derived from evidence type and count.
type SkillLevel string

const (
	LevelFamiliar   SkillLevel = "familiar"
	LevelProficient SkillLevel = "proficient"
	LevelExpert     SkillLevel = "expert"
)

// LevelFor derives the skill level from the evidence type and its count.
// Count only ever grows, so for a given type the level never goes down.
func LevelFor(t EvidenceType, count int) SkillLevel {
	switch t {
	case TypeCourseCompleted:
		// A single completion is direct evidence of knowledge.
		return LevelProficient
	case TypeCapabilityUsed:
		switch {
		case count >= 15:
			return LevelExpert
		case count >= 5:
			return LevelProficient
		default:
			return LevelFamiliar
		}
	case TypeWorkSaved:
		if count >= 5 {
			return LevelProficient
		}
		return LevelFamiliar
	default:
		return LevelFamiliar
	}
}

// Evidence is one deduplicated skill-evidence row. The identity key is
// (PrincipalID, SkillName, Type, SourceID); repeats increment Count.
type Evidence struct {
	ID          uuid.UUID
	PrincipalID domain.UserID
	SkillName   string
	Type        EvidenceType
	SourceID    string
	SourceName  string
	Category    string
	Count       int
	Level       SkillLevel
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SkillName derives the dedup skill name from a source display name and the
// evidence type. The derivation must be stable across calls: the same source
// and type always land on the same row.
func SkillName(sourceName string, t EvidenceType) string {
	slug := strings.ToLower(strings.TrimSpace(sourceName))
	slug = strings.Join(strings.Fields(slug), "-")
	return slug + "." + string(t)
}
