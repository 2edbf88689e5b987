//go:build integration

package progress

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/competency/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/testutil/containers"
)

const progressSchema = `
CREATE TABLE IF NOT EXISTS category_progress (
	principal_id         UUID NOT NULL,
	category_id          UUID NOT NULL,
	knowledge_completed  BOOLEAN NOT NULL DEFAULT FALSE,
	completed_at         TIMESTAMPTZ,
	triggering_course_id TEXT NOT NULL DEFAULT '',
	progress_score       DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (principal_id, category_id)
);
`

func TestPostgresStore_Integration(t *testing.T) {
	pc := containers.NewPostgresContainer(t, progressSchema)
	store := NewPostgres(pc.DB)
	ctx := context.Background()

	principal := domain.NewUserID()
	category := domain.NewCategoryID()

	mark := func(courseID string) (bool, error) {
		at := time.Now().UTC()
		return store.MarkCompleted(ctx, &models.CategoryProgress{
			PrincipalID:        principal,
			CategoryID:         category,
			CompletedAt:        &at,
			TriggeringCourseID: domain.CourseID(courseID),
			ProgressScore:      100,
		})
	}

	t.Run("first completion wins", func(t *testing.T) {
		won, err := mark("K9")
		require.NoError(t, err)
		assert.True(t, won)

		won, err = mark("K10")
		require.NoError(t, err)
		assert.False(t, won, "second course must not take over")

		rows, err := store.ListForPrincipal(ctx, principal)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, domain.CourseID("K9"), rows[0].TriggeringCourseID)
		assert.True(t, rows[0].KnowledgeCompleted)
		require.NotNil(t, rows[0].CompletedAt)
	})

	t.Run("concurrent completions have exactly one winner", func(t *testing.T) {
		other := domain.NewCategoryID()
		var wins atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			courseID := "K9"
			if i%2 == 1 {
				courseID = "K10"
			}
			wg.Add(1)
			go func(courseID string) {
				defer wg.Done()
				at := time.Now().UTC()
				won, err := store.MarkCompleted(ctx, &models.CategoryProgress{
					PrincipalID:        principal,
					CategoryID:         other,
					CompletedAt:        &at,
					TriggeringCourseID: domain.CourseID(courseID),
					ProgressScore:      100,
				})
				assert.NoError(t, err)
				if won {
					wins.Add(1)
				}
			}(courseID)
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})
}
