package allocation

import (
	"context"
	"database/sql"
	"fmt"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"

	"github.com/google/uuid"
)

// PostgresStore persists allocations in PostgreSQL. This is the production
// implementation: all instances share one view of the mapping.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed allocation store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CoursesFor(ctx context.Context, capabilityID domain.CapabilityID) ([]*models.Allocation, error) {
	query := `
		SELECT capability_id, course_id, course_name, join_url, active, created_at, created_by
		FROM allocations
		WHERE capability_id = $1 AND active
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, capabilityID.String())
	if err != nil {
		return nil, fmt.Errorf("query allocations by capability: %w", err)
	}
	defer rows.Close()

	return s.scanAllocations(rows)
}

func (s *PostgresStore) CapabilitiesFor(ctx context.Context, courseID domain.CourseID) ([]domain.CapabilityID, error) {
	query := `
		SELECT capability_id
		FROM allocations
		WHERE course_id = $1 AND active
		ORDER BY capability_id
	`
	rows, err := s.db.QueryContext(ctx, query, courseID.String())
	if err != nil {
		return nil, fmt.Errorf("query allocations by course: %w", err)
	}
	defer rows.Close()

	var out []domain.CapabilityID
	for rows.Next() {
		var capabilityID string
		if err := rows.Scan(&capabilityID); err != nil {
			return nil, fmt.Errorf("scan capability id: %w", err)
		}
		out = append(out, domain.CapabilityID(capabilityID))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capability ids: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Add(ctx context.Context, allocation *models.Allocation) error {
	if allocation == nil {
		return fmt.Errorf("allocation is required")
	}
	query := `
		INSERT INTO allocations (capability_id, course_id, course_name, join_url, active, created_at, created_by)
		VALUES ($1, $2, $3, $4, TRUE, $5, $6)
		ON CONFLICT (capability_id, course_id) DO UPDATE
		SET course_name = EXCLUDED.course_name,
		    join_url = EXCLUDED.join_url,
		    active = TRUE
	`
	_, err := s.db.ExecContext(ctx, query,
		allocation.CapabilityID.String(),
		allocation.CourseID.String(),
		allocation.CourseName,
		allocation.JoinURL,
		allocation.CreatedAt,
		uuid.UUID(allocation.CreatedBy),
	)
	if err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, capabilityID domain.CapabilityID, courseID domain.CourseID) error {
	query := `
		UPDATE allocations
		SET active = FALSE
		WHERE capability_id = $1 AND course_id = $2
	`
	_, err := s.db.ExecContext(ctx, query, capabilityID.String(), courseID.String())
	if err != nil {
		return fmt.Errorf("deactivate allocation: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Allocation, error) {
	query := `
		SELECT capability_id, course_id, course_name, join_url, active, created_at, created_by
		FROM allocations
		ORDER BY capability_id, course_id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	defer rows.Close()

	return s.scanAllocations(rows)
}

func (s *PostgresStore) scanAllocations(rows *sql.Rows) ([]*models.Allocation, error) {
	var out []*models.Allocation
	for rows.Next() {
		var (
			alloc        models.Allocation
			capabilityID string
			courseID     string
			createdBy    uuid.UUID
		)
		err := rows.Scan(
			&capabilityID,
			&courseID,
			&alloc.CourseName,
			&alloc.JoinURL,
			&alloc.Active,
			&alloc.CreatedAt,
			&createdBy,
		)
		if err != nil {
			return nil, fmt.Errorf("scan allocation: %w", err)
		}
		alloc.CapabilityID = domain.CapabilityID(capabilityID)
		alloc.CourseID = domain.CourseID(courseID)
		alloc.CreatedBy = domain.UserID(createdBy)
		out = append(out, &alloc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allocations: %w", err)
	}
	return out, nil
}
