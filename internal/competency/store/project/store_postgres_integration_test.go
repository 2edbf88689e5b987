//go:build integration

package project

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/testutil/containers"
)

const projectSchema = `
CREATE TABLE IF NOT EXISTS capability_project_records (
	principal_id  UUID NOT NULL,
	capability_id TEXT NOT NULL,
	project_count INTEGER NOT NULL DEFAULT 0,
	last_used_at  TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (principal_id, capability_id)
);
`

func TestPostgresStore_Integration(t *testing.T) {
	pc := containers.NewPostgresContainer(t, projectSchema)
	store := NewPostgres(pc.DB)
	ctx := context.Background()
	principal := domain.NewUserID()

	increment := func() (*models.CapabilityProjectRecord, error) {
		return store.Increment(ctx, &models.CapabilityProjectRecord{
			PrincipalID:  principal,
			CapabilityID: "tp-model",
			LastUsedAt:   time.Now().UTC(),
		})
	}

	t.Run("increments and updates last used", func(t *testing.T) {
		first, err := increment()
		require.NoError(t, err)
		assert.Equal(t, 1, first.ProjectCount)

		second, err := increment()
		require.NoError(t, err)
		assert.Equal(t, 2, second.ProjectCount)
		assert.False(t, second.LastUsedAt.Before(first.LastUsedAt))
	})

	t.Run("concurrent increments lose nothing", func(t *testing.T) {
		const workers = 30
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := increment()
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		rows, err := store.ListForPrincipal(ctx, principal)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, workers+2, rows[0].ProjectCount)
	})
}
