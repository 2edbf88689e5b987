package allocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolgate/internal/entitlement/models"
	"toolgate/pkg/domain"
)

func newAllocation(capabilityID, courseID string) *models.Allocation {
	return &models.Allocation{
		CapabilityID: domain.CapabilityID(capabilityID),
		CourseID:     domain.CourseID(courseID),
		CourseName:   "Course " + courseID,
		JoinURL:      "https://learn.example.com/" + courseID,
		CreatedAt:    time.Now(),
		CreatedBy:    domain.NewUserID(),
	}
}

func TestInMemoryStore_SymmetricQueries(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, newAllocation("vat-calc", "K1")))
	require.NoError(t, store.Add(ctx, newAllocation("vat-calc", "K2")))
	require.NoError(t, store.Add(ctx, newAllocation("tp-model", "K2")))

	t.Run("capability to courses", func(t *testing.T) {
		allocs, err := store.CoursesFor(ctx, "vat-calc")
		require.NoError(t, err)
		courseIDs := make([]domain.CourseID, 0, len(allocs))
		for _, a := range allocs {
			courseIDs = append(courseIDs, a.CourseID)
		}
		assert.ElementsMatch(t, []domain.CourseID{"K1", "K2"}, courseIDs)
	})

	t.Run("course to capabilities", func(t *testing.T) {
		capabilities, err := store.CapabilitiesFor(ctx, "K2")
		require.NoError(t, err)
		assert.ElementsMatch(t, []domain.CapabilityID{"vat-calc", "tp-model"}, capabilities)
	})

	t.Run("unknown capability returns empty", func(t *testing.T) {
		allocs, err := store.CoursesFor(ctx, "missing")
		require.NoError(t, err)
		assert.Empty(t, allocs)
	})
}

func TestInMemoryStore_Deactivate(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, newAllocation("vat-calc", "K1")))
	require.NoError(t, store.Deactivate(ctx, "vat-calc", "K1"))

	allocs, err := store.CoursesFor(ctx, "vat-calc")
	require.NoError(t, err)
	assert.Empty(t, allocs, "deactivated allocations must not resolve")

	capabilities, err := store.CapabilitiesFor(ctx, "K1")
	require.NoError(t, err)
	assert.Empty(t, capabilities, "reverse index must honor deactivation")

	t.Run("re-add reactivates", func(t *testing.T) {
		require.NoError(t, store.Add(ctx, newAllocation("vat-calc", "K1")))
		allocs, err := store.CoursesFor(ctx, "vat-calc")
		require.NoError(t, err)
		assert.Len(t, allocs, 1)
	})
}

func TestInMemoryStore_ListIncludesInactive(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, newAllocation("vat-calc", "K1")))
	require.NoError(t, store.Add(ctx, newAllocation("vat-calc", "K2")))
	require.NoError(t, store.Deactivate(ctx, "vat-calc", "K2"))

	all, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
