//go:build integration

package cache

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/enrollment/client"
	"toolgate/internal/enrollment/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/testutil"
	"toolgate/pkg/testutil/containers"
)

// countingProvider records how often the underlying platform is hit.
type countingProvider struct {
	*client.Static
	calls int
}

func (c *countingProvider) AccessibleCourseIDs(ctx context.Context, principal domain.Principal) ([]domain.CourseID, error) {
	c.calls++
	return c.Static.AccessibleCourseIDs(ctx, principal)
}

func TestRedisCache_Integration(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	principal := testutil.UserPrincipal("cached@example.com")
	principal.ExternalID = "lms-7"

	upstream := &countingProvider{Static: &client.Static{
		Courses: map[string][]models.CourseCompletion{
			"lms-7": {
				{CourseID: "K1", Title: "VAT Fundamentals", Completed: true},
				{CourseID: "K2", Title: "Transfer Pricing"},
			},
		},
	}}
	cache := NewRedis(upstream, rc.Client, time.Minute, logger)

	t.Run("second read is served from cache", func(t *testing.T) {
		first, err := cache.AccessibleCourseIDs(ctx, principal)
		require.NoError(t, err)
		second, err := cache.AccessibleCourseIDs(ctx, principal)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, upstream.calls)
	})

	t.Run("invalidate forces a refetch", func(t *testing.T) {
		cache.Invalidate(ctx, principal.ID)

		_, err := cache.AccessibleCourseIDs(ctx, principal)
		require.NoError(t, err)
		assert.Equal(t, 2, upstream.calls)
	})

	t.Run("empty sets are cached too", func(t *testing.T) {
		stranger := testutil.UserPrincipal("stranger@example.com")

		ids, err := cache.AccessibleCourseIDs(ctx, stranger)
		require.NoError(t, err)
		assert.Empty(t, ids)

		before := upstream.calls
		_, err = cache.AccessibleCourseIDs(ctx, stranger)
		require.NoError(t, err)
		assert.Equal(t, before, upstream.calls)
	})

	t.Run("completions bypass the cache", func(t *testing.T) {
		before := upstream.calls
		completions, err := cache.CourseCompletions(ctx, principal)
		require.NoError(t, err)
		assert.Len(t, completions, 2)
		assert.Equal(t, before, upstream.calls, "completion reads do not touch the accessible cache")
	})
}
