package capability

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/sentinel"
)

// PostgresStore persists the capability catalog in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed capability store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, capabilityID domain.CapabilityID) (*models.Capability, error) {
	query := `
		SELECT id, name, is_public, is_premium
		FROM capabilities
		WHERE id = $1
	`
	var (
		capability models.Capability
		id         string
	)
	err := s.db.QueryRowContext(ctx, query, capabilityID.String()).Scan(
		&id,
		&capability.Name,
		&capability.IsPublic,
		&capability.IsPremium,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("capability %s: %w", capabilityID, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get capability: %w", err)
	}
	capability.ID = domain.CapabilityID(id)
	return &capability, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, capability *models.Capability) error {
	if capability == nil {
		return fmt.Errorf("capability is required")
	}
	query := `
		INSERT INTO capabilities (id, name, is_public, is_premium)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    is_public = EXCLUDED.is_public,
		    is_premium = EXCLUDED.is_premium
	`
	_, err := s.db.ExecContext(ctx, query,
		capability.ID.String(),
		capability.Name,
		capability.IsPublic,
		capability.IsPremium,
	)
	if err != nil {
		return fmt.Errorf("upsert capability: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Capability, error) {
	query := `
		SELECT id, name, is_public, is_premium
		FROM capabilities
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list capabilities: %w", err)
	}
	defer rows.Close()

	var out []*models.Capability
	for rows.Next() {
		var (
			capability models.Capability
			id         string
		)
		if err := rows.Scan(&id, &capability.Name, &capability.IsPublic, &capability.IsPremium); err != nil {
			return nil, fmt.Errorf("scan capability: %w", err)
		}
		capability.ID = domain.CapabilityID(id)
		out = append(out, &capability)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate capabilities: %w", err)
	}
	return out, nil
}
