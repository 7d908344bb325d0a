package planstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zentok/models"
)

func openTest(t *testing.T) *Store {
	t.Helper()
	s, err := OpenInMemory(nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testPlan(id string) models.GrowthPlan {
	return models.GrowthPlan{
		PostID:    id,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		Target:    models.Counters{Views: 4000, Likes: 300, Shares: 20, Saves: 40},
		Exponent:  0.75,
		Pool: []models.Comment{
			{ID: "c-" + id + "-0", Author: "a", Text: "one"},
			{ID: "c-" + id + "-1", Author: "b", Text: "two"},
			{ID: "c-" + id + "-2", Author: "c", Text: "three"},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	_, err := s.LoadPlan(ctx, "p1")
	require.ErrorIs(t, err, ErrNotFound)

	want := testPlan("p1")
	require.NoError(t, s.SavePlan(ctx, want))

	got, err := s.LoadPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, want.Target, got.Target)
	assert.Equal(t, want.Exponent, got.Exponent)
	assert.Equal(t, want.Pool, got.Pool)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestAdvanceCursorOnlyForward(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.SavePlan(ctx, testPlan("p1")))

	require.NoError(t, s.AdvanceCursor(ctx, "p1", 2))
	require.NoError(t, s.AdvanceCursor(ctx, "p1", 1))
	got, err := s.LoadPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.NextRevealIndex, "курсор не уменьшается")

	require.NoError(t, s.AdvanceCursor(ctx, "p1", 10))
	got, err = s.LoadPlan(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.NextRevealIndex, "курсор ограничен размером пула")

	assert.ErrorIs(t, s.AdvanceCursor(ctx, "missing", 1), ErrNotFound)
}

func TestDeletePlan(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()
	require.NoError(t, s.SavePlan(ctx, testPlan("p1")))

	require.NoError(t, s.DeletePlan(ctx, "p1"))
	_, err := s.LoadPlan(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeletePlan(ctx, "p1"), ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	s := openTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SavePlan(ctx, testPlan("p1")), context.Canceled)
}

func TestSaveRejectsEmptyID(t *testing.T) {
	s := openTest(t)
	assert.Error(t, s.SavePlan(context.Background(), models.GrowthPlan{}))
}
