package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"toolgate/internal/evidence/models"
	"toolgate/pkg/domain"
)

// PostgresStore persists evidence rows in PostgreSQL.
//
// The insert-or-increment and the level derivation happen in a single upsert
// statement, so concurrent events for the same row serialize on the database
// and every lost-update window is closed. The CASE expression mirrors
// models.LevelFor; the unit tests for both keep them in lockstep.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, evidence *models.Evidence) (*models.Evidence, error) {
	if evidence == nil {
		return nil, fmt.Errorf("evidence is required")
	}
	query := `
		INSERT INTO evidence
			(id, principal_id, skill_name, evidence_type, source_id, source_name, category, count, level, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 1, $8, $9, $9)
		ON CONFLICT (principal_id, skill_name, evidence_type, source_id) DO UPDATE
		SET count = evidence.count + 1,
		    level = CASE evidence.evidence_type
		        WHEN 'course_completed' THEN 'proficient'
		        WHEN 'capability_used' THEN CASE
		            WHEN evidence.count + 1 >= 15 THEN 'expert'
		            WHEN evidence.count + 1 >= 5 THEN 'proficient'
		            ELSE 'familiar'
		        END
		        ELSE CASE
		            WHEN evidence.count + 1 >= 5 THEN 'proficient'
		            ELSE 'familiar'
		        END
		    END,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, count, level, created_at, updated_at
	`

	row := *evidence
	initialLevel := models.LevelFor(evidence.Type, 1)

	var id uuid.UUID
	var level string
	err := s.db.QueryRowContext(ctx, query,
		uuid.New(),
		uuid.UUID(evidence.PrincipalID),
		evidence.SkillName,
		string(evidence.Type),
		evidence.SourceID,
		evidence.SourceName,
		evidence.Category,
		string(initialLevel),
		evidence.UpdatedAt,
	).Scan(&id, &row.Count, &level, &row.CreatedAt, &row.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("record evidence: %w", err)
	}

	row.ID = id
	row.Level = models.SkillLevel(level)
	return &row, nil
}

func (s *PostgresStore) ListForPrincipal(ctx context.Context, principalID domain.UserID) ([]*models.Evidence, error) {
	query := `
		SELECT id, principal_id, skill_name, evidence_type, source_id, source_name, category, count, level, created_at, updated_at
		FROM evidence
		WHERE principal_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(principalID))
	if err != nil {
		return nil, fmt.Errorf("list evidence: %w", err)
	}
	defer rows.Close()

	var out []*models.Evidence
	for rows.Next() {
		var (
			row         models.Evidence
			principalID uuid.UUID
			typ         string
			level       string
		)
		err := rows.Scan(
			&row.ID,
			&principalID,
			&row.SkillName,
			&typ,
			&row.SourceID,
			&row.SourceName,
			&row.Category,
			&row.Count,
			&level,
			&row.CreatedAt,
			&row.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan evidence: %w", err)
		}
		row.PrincipalID = domain.UserID(principalID)
		row.Type = models.EvidenceType(typ)
		row.Level = models.SkillLevel(level)
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evidence: %w", err)
	}
	return out, nil
}
