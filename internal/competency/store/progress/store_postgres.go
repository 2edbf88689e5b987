package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
)

// PostgresStore persists category progress in PostgreSQL. First-wins is
// enforced in the upsert itself: the DO UPDATE branch only fires when the
// existing row is not yet completed, so a later different course can never
// overwrite the original triggering course.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) MarkCompleted(ctx context.Context, progress *models.CategoryProgress) (bool, error) {
	query := `
		INSERT INTO category_progress
			(principal_id, category_id, knowledge_completed, completed_at, triggering_course_id, progress_score)
		VALUES ($1, $2, TRUE, $3, $4, $5)
		ON CONFLICT (principal_id, category_id) DO UPDATE
		SET knowledge_completed = TRUE,
		    completed_at = EXCLUDED.completed_at,
		    triggering_course_id = EXCLUDED.triggering_course_id,
		    progress_score = EXCLUDED.progress_score
		WHERE NOT category_progress.knowledge_completed
		RETURNING triggering_course_id
	`
	var triggering string
	err := s.db.QueryRowContext(ctx, query,
		uuid.UUID(progress.PrincipalID),
		uuid.UUID(progress.CategoryID),
		progress.CompletedAt,
		progress.TriggeringCourseID.String(),
		progress.ProgressScore,
	).Scan(&triggering)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict row already completed; the conditional update did not fire.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("mark progress completed: %w", err)
	}
	return true, nil
}

func (s *PostgresStore) ListForPrincipal(ctx context.Context, principalID domain.UserID) ([]*models.CategoryProgress, error) {
	query := `
		SELECT principal_id, category_id, knowledge_completed, completed_at, triggering_course_id, progress_score
		FROM category_progress
		WHERE principal_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(principalID))
	if err != nil {
		return nil, fmt.Errorf("list progress: %w", err)
	}
	defer rows.Close()

	var out []*models.CategoryProgress
	for rows.Next() {
		var (
			row         models.CategoryProgress
			principalID uuid.UUID
			categoryID  uuid.UUID
			triggering  string
			completedAt sql.NullTime
		)
		err := rows.Scan(&principalID, &categoryID, &row.KnowledgeCompleted, &completedAt, &triggering, &row.ProgressScore)
		if err != nil {
			return nil, fmt.Errorf("scan progress: %w", err)
		}
		row.PrincipalID = domain.UserID(principalID)
		row.CategoryID = domain.CategoryID(categoryID)
		row.TriggeringCourseID = domain.CourseID(triggering)
		if completedAt.Valid {
			at := completedAt.Time
			row.CompletedAt = &at
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate progress: %w", err)
	}
	return out, nil
}
