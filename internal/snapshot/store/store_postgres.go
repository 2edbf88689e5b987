package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	competency "toolgate/internal/competency/models"
	"toolgate/internal/snapshot/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/sentinel"
)

// PostgresStore persists verification snapshots in PostgreSQL. The frozen
// skills payload is stored as JSONB; the view count increment and the expiry
// check live in one UPDATE so reads are atomic.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Insert(ctx context.Context, snapshot *models.VerificationSnapshot) error {
	payload, err := json.Marshal(snapshot.Skills)
	if err != nil {
		return fmt.Errorf("encode snapshot payload: %w", err)
	}

	query := `
		INSERT INTO verification_snapshots
			(token, principal_id, user_name, skills, created_at, expires_at, view_count)
		VALUES ($1, $2, $3, $4, $5, $6, 0)
	`
	_, err = s.db.ExecContext(ctx, query,
		snapshot.Token,
		uuid.UUID(snapshot.PrincipalID),
		snapshot.UserName,
		payload,
		snapshot.CreatedAt,
		snapshot.ExpiresAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("snapshot token: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetAndCountView(ctx context.Context, token string, now time.Time) (*models.VerificationSnapshot, error) {
	query := `
		UPDATE verification_snapshots
		SET view_count = view_count + 1
		WHERE token = $1 AND (expires_at IS NULL OR expires_at > $2)
		RETURNING token, principal_id, user_name, skills, created_at, expires_at, view_count
	`
	var (
		row         models.VerificationSnapshot
		principalID uuid.UUID
		payload     []byte
		expiresAt   sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, token, now).Scan(
		&row.Token,
		&principalID,
		&row.UserName,
		&payload,
		&row.CreatedAt,
		&expiresAt,
		&row.ViewCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		// Unknown and expired tokens are indistinguishable on purpose.
		return nil, fmt.Errorf("snapshot: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	row.PrincipalID = domain.UserID(principalID)
	if expiresAt.Valid {
		at := expiresAt.Time
		row.ExpiresAt = &at
	}

	var skills competency.SkillSnapshot
	if err := json.Unmarshal(payload, &skills); err != nil {
		return nil, fmt.Errorf("decode snapshot payload: %w", err)
	}
	row.Skills = skills
	return &row, nil
}
