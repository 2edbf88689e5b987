//go:build integration

package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/evidence/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/testutil/containers"
)

const evidenceSchema = `
CREATE TABLE IF NOT EXISTS evidence (
	id            UUID PRIMARY KEY,
	principal_id  UUID NOT NULL,
	skill_name    TEXT NOT NULL,
	evidence_type TEXT NOT NULL,
	source_id     TEXT NOT NULL,
	source_name   TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	count         INTEGER NOT NULL,
	level         TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL,
	UNIQUE (principal_id, skill_name, evidence_type, source_id)
);
`

func TestPostgresStore_Integration(t *testing.T) {
	pc := containers.NewPostgresContainer(t, evidenceSchema)
	store := NewPostgres(pc.DB)
	ctx := context.Background()
	principal := domain.NewUserID()

	event := func(typ models.EvidenceType, sourceID, sourceName string) *models.Evidence {
		now := time.Now().UTC()
		return &models.Evidence{
			PrincipalID: principal,
			SkillName:   models.SkillName(sourceName, typ),
			Type:        typ,
			SourceID:    sourceID,
			SourceName:  sourceName,
			Category:    "tax",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	t.Run("insert then increment", func(t *testing.T) {
		first, err := store.Record(ctx, event(models.TypeCapabilityUsed, "vat-calc", "VAT Calculator"))
		require.NoError(t, err)
		assert.Equal(t, 1, first.Count)
		assert.Equal(t, models.LevelFamiliar, first.Level)

		second, err := store.Record(ctx, event(models.TypeCapabilityUsed, "vat-calc", "VAT Calculator"))
		require.NoError(t, err)
		assert.Equal(t, 2, second.Count)
		assert.Equal(t, first.ID, second.ID, "same dedup key lands on the same row")
	})

	t.Run("sql level derivation matches the go derivation", func(t *testing.T) {
		for i := 3; i <= 20; i++ {
			row, err := store.Record(ctx, event(models.TypeCapabilityUsed, "vat-calc", "VAT Calculator"))
			require.NoError(t, err)
			assert.Equal(t, models.LevelFor(models.TypeCapabilityUsed, i), row.Level, "count %d", i)
		}
	})

	t.Run("course completion stays proficient", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			row, err := store.Record(ctx, event(models.TypeCourseCompleted, "K1", "VAT Fundamentals"))
			require.NoError(t, err)
			assert.Equal(t, models.LevelProficient, row.Level)
		}
	})

	t.Run("concurrent increments lose nothing", func(t *testing.T) {
		const workers = 30
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := store.Record(ctx, event(models.TypeWorkSaved, "doc-gen", "Doc Generator"))
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		rows, err := store.ListForPrincipal(ctx, principal)
		require.NoError(t, err)
		for _, row := range rows {
			if row.Type == models.TypeWorkSaved {
				assert.Equal(t, workers, row.Count)
				assert.Equal(t, models.LevelProficient, row.Level)
			}
		}
	})
}
