package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/apperr"
	"github.com/UTSC-CSCC09-Programming-on-the-Web/project-uofteam-board/internal/model"
)

type countingInvalidator struct {
	calls []int64
}

func (c *countingInvalidator) Invalidate(_ context.Context, boardID int64) error {
	c.calls = append(c.calls, boardID)
	return nil
}

func path(id, color string) model.Path {
	return model.Path{ID: id, D: "M 0 0 L 10 10", StrokeColor: color, StrokeWidth: 2, FillColor: "none", ScaleX: 1, ScaleY: 1}
}

func TestMemoryUpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)
	s.CreateBoard(1)

	require.NoError(t, s.Upsert(ctx, 1, []model.Path{path("a", "red")}))
	require.NoError(t, s.Upsert(ctx, 1, []model.Path{path("a", "green")}))
	require.NoError(t, s.Upsert(ctx, 1, []model.Path{path("a", "blue")}))

	paths, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "blue", paths[0].StrokeColor)
}

func TestMemoryDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)
	s.CreateBoard(1)

	require.NoError(t, s.Upsert(ctx, 1, []model.Path{path("a", "red"), path("b", "blue")}))

	// deleting a missing id is a no-op, not an error
	require.NoError(t, s.Delete(ctx, 1, []string{"a", "never-existed"}))
	paths, err := s.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, paths, 1)
	assert.Equal(t, "b", paths[0].ID)

	// delete then upsert recreates the stroke
	require.NoError(t, s.Upsert(ctx, 1, []model.Path{path("a", "red")}))
	paths, err = s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, paths, 2)
}

func TestMemoryListSubset(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)
	s.CreateBoard(1)

	require.NoError(t, s.Upsert(ctx, 1, []model.Path{path("a", "red"), path("b", "blue"), path("c", "black")}))

	paths, err := s.List(ctx, 1, "a", "c", "missing")
	require.NoError(t, err)
	require.Len(t, paths, 2)

	_, err = s.List(ctx, 99)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestMemoryMutationsInvalidatePreview(t *testing.T) {
	ctx := context.Background()
	inv := &countingInvalidator{}
	s := NewMemory(inv)
	s.CreateBoard(7)

	before, ok := s.UpdatedAt(7)
	require.True(t, ok)

	require.NoError(t, s.Upsert(ctx, 7, []model.Path{path("a", "red")}))
	require.NoError(t, s.Delete(ctx, 7, []string{"a"}))

	assert.Equal(t, []int64{7, 7}, inv.calls)
	after, _ := s.UpdatedAt(7)
	assert.False(t, after.Before(before))
}

func TestMemoryUnknownBoard(t *testing.T) {
	ctx := context.Background()
	s := NewMemory(nil)

	err := s.Upsert(ctx, 42, []model.Path{path("a", "red")})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	err = s.Delete(ctx, 42, []string{"a"})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}
