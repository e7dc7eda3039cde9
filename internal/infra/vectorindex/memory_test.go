package vectorindex

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-clustering/internal/domain/search"
)

func TestMemoryIndexRanksByCosine(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "t1", []search.Entry{
		{ID: "same", Vector: []float32{1, 0}, Metadata: map[string]string{"category": "id"}},
		{ID: "diag", Vector: []float32{1, 1}, Metadata: map[string]string{"category": "tax"}},
		{ID: "opposite", Vector: []float32{-1, 0}},
		{ID: "zero", Vector: []float32{0, 0}},
	}))
	require.NoError(t, idx.Upsert(ctx, "t2", []search.Entry{{ID: "other", Vector: []float32{1, 0}}}))

	matches, err := idx.Query(ctx, "t1", []float32{2, 0}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 4)
	require.Equal(t, "same", matches[0].ID)
	require.InDelta(t, 1.0, matches[0].Score, 1e-9)
	require.Equal(t, "diag", matches[1].ID)
	require.InDelta(t, 0.7071067, matches[1].Score, 1e-6)
	require.Zero(t, matches[2].Score)
	require.Zero(t, matches[3].Score)

	top, err := idx.Query(ctx, "t1", []float32{1, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, top, 1)

	filtered, err := idx.Query(ctx, "t1", []float32{1, 0}, 10, search.Filter{"category": "tax"})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	require.Equal(t, "diag", filtered[0].ID)
}

func TestMemoryIndexDeleteByFilter(t *testing.T) {
	idx := NewMemoryIndex()
	ctx := context.Background()
	require.NoError(t, idx.Upsert(ctx, "t1", []search.Entry{
		{ID: "a", Vector: []float32{1}, Metadata: map[string]string{"tenant_id": "t1"}},
		{ID: "b", Vector: []float32{1}, Metadata: map[string]string{"tenant_id": "t1", "category": "x"}},
	}))
	require.NoError(t, idx.Delete(ctx, "t1", search.Filter{"category": "x"}))

	matches, err := idx.Query(ctx, "t1", []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "a", matches[0].ID)

	require.NoError(t, idx.Delete(ctx, "t1", search.Filter{"tenant_id": "t1"}))
	matches, err = idx.Query(ctx, "t1", []float32{1}, 10, nil)
	require.NoError(t, err)
	require.Empty(t, matches)
}
