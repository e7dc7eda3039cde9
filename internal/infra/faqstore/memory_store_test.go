package faqstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

func TestMemoryStoreExpiresEntries(t *testing.T) {
	store, err := NewMemoryStore(4)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	ctx := context.Background()
	result := faq.RecommendationResult{TenantID: "t1", ClusterCount: 3}
	require.NoError(t, store.SaveResult(ctx, result, time.Minute))

	got, ok, err := store.GetResult(ctx, "t1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 3, got.ClusterCount)

	now = now.Add(2 * time.Minute)
	_, ok, err = store.GetResult(ctx, "t1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	store, err := NewMemoryStore(2)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.SaveResult(ctx, faq.RecommendationResult{TenantID: "a"}, 0))
	require.NoError(t, store.SaveResult(ctx, faq.RecommendationResult{TenantID: "b"}, 0))
	_, ok, _ := store.GetResult(ctx, "a")
	require.True(t, ok)
	require.NoError(t, store.SaveResult(ctx, faq.RecommendationResult{TenantID: "c"}, 0))

	_, ok, _ = store.GetResult(ctx, "b")
	require.False(t, ok, "b was least recently used")
	_, ok, _ = store.GetResult(ctx, "a")
	require.True(t, ok)

	require.NoError(t, store.Invalidate(ctx, "a"))
	_, ok, _ = store.GetResult(ctx, "a")
	require.False(t, ok)
}
