package faq

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

type stubStore struct {
	items []QAItem
	err   error
	calls int
	limit int
}

func (s *stubStore) FetchRecentQA(_ context.Context, tenantID string, limit int) ([]QAItem, error) {
	s.calls++
	s.limit = limit
	if s.err != nil {
		return nil, s.err
	}
	out := make([]QAItem, len(s.items))
	for i, item := range s.items {
		item.TenantID = tenantID
		out[i] = item
	}
	return out, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testFallback builds categories "cat0".."cat7" holding five items each.
func testFallback() FallbackCorpus {
	corpus := FallbackCorpus{Version: "test"}
	for c := 0; c < 8; c++ {
		cat := FallbackCategory{Name: fmt.Sprintf("cat%d", c)}
		for i := 0; i < 5; i++ {
			cat.Items = append(cat.Items, QAPair{
				Question: fmt.Sprintf("category%d question%d topic%d?", c, i, c),
				Answer:   fmt.Sprintf("answer %d.%d", c, i),
			})
		}
		corpus.Categories = append(corpus.Categories, cat)
	}
	return corpus
}

func storedItems(n int) []QAItem {
	items := make([]QAItem, n)
	for i := range items {
		items[i] = QAItem{ID: fmt.Sprint(i), Question: fmt.Sprintf("stored question %d", i), Answer: "a"}
	}
	return items
}

func TestBlendFallbackTargetSize(t *testing.T) {
	out := BlendFallback(testFallback(), "t1", 25)
	require.Len(t, out, 25)

	perCategory := map[string]int{}
	for _, item := range out {
		perCategory[item.Category]++
		require.Equal(t, "t1", item.TenantID)
	}
	require.Len(t, perCategory, 8)
	require.Equal(t, 4, perCategory["cat0"])
	for c := 1; c < 8; c++ {
		require.Equal(t, 3, perCategory[fmt.Sprintf("cat%d", c)])
	}
	require.Equal(t, "category0 question3 topic0?", out[24].Question)
	require.Equal(t, "fallback:cat0:3", out[24].ID)
}

func TestBlendFallbackMinimumPerCategory(t *testing.T) {
	out := BlendFallback(testFallback(), "t1", 10)
	require.Len(t, out, 10)
	// two per category in declared order until the target is met
	require.Equal(t, "cat0", out[0].Category)
	require.Equal(t, "cat0", out[1].Category)
	require.Equal(t, "cat4", out[9].Category)
}

func TestBlendFallbackExhausted(t *testing.T) {
	out := BlendFallback(testFallback(), "t1", 100)
	require.Len(t, out, 40)
	require.Empty(t, BlendFallback(FallbackCorpus{}, "t1", 25))
}

func TestCorpusBuilderThreshold(t *testing.T) {
	cfg := DefaultConfig()

	store := &stubStore{items: storedItems(9)}
	items, source, err := NewCorpusBuilder(cfg, store, testFallback(), discardLogger()).Build(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, DataSourceFallback, source)
	require.Len(t, items, cfg.FallbackTargetSize)
	require.Equal(t, cfg.FetchLimit, store.limit)

	store = &stubStore{items: storedItems(10)}
	items, source, err = NewCorpusBuilder(cfg, store, testFallback(), discardLogger()).Build(context.Background(), "t1")
	require.NoError(t, err)
	require.Equal(t, DataSourceDatabase, source)
	require.Len(t, items, 10)
	require.Equal(t, "t1", items[0].TenantID)
}

func TestCorpusBuilderStoreFailure(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	_, _, err := NewCorpusBuilder(DefaultConfig(), store, testFallback(), discardLogger()).Build(context.Background(), "t1")
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeStoreFetch))
}

func TestCorpusBuilderNoFallback(t *testing.T) {
	store := &stubStore{items: storedItems(2)}
	_, _, err := NewCorpusBuilder(DefaultConfig(), store, FallbackCorpus{}, discardLogger()).Build(context.Background(), "t1")
	require.ErrorIs(t, err, ErrNoFallbackCorpus)
}

func TestFallbackCorpusFirst(t *testing.T) {
	corpus := FallbackCorpus{Categories: []FallbackCategory{
		{Name: "empty"},
		{Name: "blank", Items: []QAPair{{Question: "  "}}},
		{Name: "real", Items: []QAPair{{Question: "What is KTP?", Answer: "An ID card."}}},
	}}
	first, ok := corpus.First()
	require.True(t, ok)
	require.Equal(t, "real", first.Category)
	require.False(t, corpus.Empty())
	require.True(t, FallbackCorpus{}.Empty())
}
