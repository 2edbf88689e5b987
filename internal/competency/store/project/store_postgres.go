package project

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
)

// PostgresStore persists capability project records in PostgreSQL. The
// increment is a single upsert statement so concurrent saves serialize on
// the database.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Increment(ctx context.Context, record *models.CapabilityProjectRecord) (*models.CapabilityProjectRecord, error) {
	query := `
		INSERT INTO capability_project_records (principal_id, capability_id, project_count, last_used_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (principal_id, capability_id) DO UPDATE
		SET project_count = capability_project_records.project_count + 1,
		    last_used_at = EXCLUDED.last_used_at
		RETURNING project_count, last_used_at
	`
	out := *record
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(record.PrincipalID),
		record.CapabilityID.String(),
		record.LastUsedAt,
	).Scan(&out.ProjectCount, &out.LastUsedAt)
	if err != nil {
		return nil, fmt.Errorf("increment project record: %w", err)
	}
	return &out, nil
}

func (s *PostgresStore) ListForPrincipal(ctx context.Context, principalID domain.UserID) ([]*models.CapabilityProjectRecord, error) {
	query := `
		SELECT principal_id, capability_id, project_count, last_used_at
		FROM capability_project_records
		WHERE principal_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(principalID))
	if err != nil {
		return nil, fmt.Errorf("list project records: %w", err)
	}
	defer rows.Close()

	var out []*models.CapabilityProjectRecord
	for rows.Next() {
		var (
			row          models.CapabilityProjectRecord
			principalID  uuid.UUID
			capabilityID string
		)
		if err := rows.Scan(&principalID, &capabilityID, &row.ProjectCount, &row.LastUsedAt); err != nil {
			return nil, fmt.Errorf("scan project record: %w", err)
		}
		row.PrincipalID = domain.UserID(principalID)
		row.CapabilityID = domain.CapabilityID(capabilityID)
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project records: %w", err)
	}
	return out, nil
}
