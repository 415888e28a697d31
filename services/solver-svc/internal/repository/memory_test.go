package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySolveRepository_SaveGet(t *testing.T) {
	repo := NewMemorySolveRepository()
	ctx := context.Background()

	s := &Solve{Mode: "MAX_FLOW", FlowValue: 5, SourceSide: []int64{1}}
	require.NoError(t, repo.Save(ctx, s))
	require.NotEqual(t, uuid.Nil, s.ID)

	// изменения вызывающего не влияют на хранимую копию
	s.SourceSide[0] = 99

	got, err := repo.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, got.SourceSide)

	_, err = repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrSolveNotFound)
}

func TestMemorySolveRepository_List(t *testing.T) {
	repo := NewMemorySolveRepository()
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := range 5 {
		mode := "MAX_FLOW"
		if i%2 == 1 {
			mode = "MIN_CUT"
		}
		require.NoError(t, repo.Save(ctx, &Solve{
			Mode:      mode,
			FlowValue: float64(i),
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	all, total, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, all, 5)
	assert.Equal(t, 4.0, all[0].FlowValue, "newest first")

	page, total, err := repo.List(ctx, ListOptions{Limit: 2, Offset: 1, Mode: "MAX_FLOW"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, 2.0, page[0].FlowValue)
	assert.Equal(t, 0.0, page[1].FlowValue)

	empty, _, err := repo.List(ctx, ListOptions{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMemorySolveRepository_DeleteOlderThan(t *testing.T) {
	repo := NewMemorySolveRepository()
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Save(ctx, &Solve{CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, repo.Save(ctx, &Solve{CreatedAt: now}))

	n, err := repo.DeleteOlderThan(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, total, err := repo.List(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestListOptions_Normalized(t *testing.T) {
	assert.Equal(t, defaultListLimit, ListOptions{}.normalized().Limit)
	assert.Equal(t, maxListLimit, ListOptions{Limit: 1000}.normalized().Limit)
	assert.Equal(t, 0, ListOptions{Offset: -3}.normalized().Offset)
}

var (
	_ SolveRepository = (*MemorySolveRepository)(nil)
	_ SolveRepository = (*PostgresSolveRepository)(nil)
)
