package faq

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

// bagEmbedder hashes lowercase tokens into a fixed-width count vector.
type bagEmbedder struct {
	calls   atomic.Int32
	err     error
	release chan struct{}
}

func (e *bagEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	if e.release != nil {
		<-e.release
	}
	if e.err != nil {
		return nil, e.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, 64)
		for _, token := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(token, ".?!")))
			vec[h.Sum32()%64]++
		}
		out[i] = vec
	}
	return out, nil
}

type mapCache struct {
	mu      sync.Mutex
	results map[string]RecommendationResult
	saves   int
}

func newMapCache() *mapCache {
	return &mapCache{results: make(map[string]RecommendationResult)}
}

func (c *mapCache) GetResult(_ context.Context, tenantID string) (RecommendationResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[tenantID]
	return res, ok, nil
}

func (c *mapCache) SaveResult(_ context.Context, result RecommendationResult, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[result.TenantID] = result
	c.saves++
	return nil
}

func (c *mapCache) Invalidate(_ context.Context, tenantID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.results, tenantID)
	return nil
}

type recordingSink struct {
	mu         sync.Mutex
	operations []bool
	errors     []string
	quality    int
	panics     bool
}

func (s *recordingSink) RecordOperation(_ string, _ DataSource, _ time.Duration, success bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.operations = append(s.operations, success)
}

func (s *recordingSink) RecordQuality(string, int, float64, float64) {
	if s.panics {
		panic("sink exploded")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quality++
}

func (s *recordingSink) RecordError(_ string, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, kind)
}

func ktpItems(n int) []QAItem {
	subjects := []string{"lost", "damaged", "expired", "renewal", "replacement", "address", "name", "photo",
		"blank", "status", "fees", "office", "online", "urgent", "foreign"}
	items := make([]QAItem, n)
	for i := range items {
		subject := subjects[i%len(subjects)]
		items[i] = QAItem{
			ID:       fmt.Sprint(i),
			Question: fmt.Sprintf("How do I handle a %s KTP identity card case %d?", subject, i),
			Answer:   "Visit the civil registry office.",
			Category: "identity",
		}
	}
	return items
}

func newTestService(store QuestionStore, embedder Embedder, cache ResultCache, sink MetricsSink) Service {
	return NewService(DefaultConfig(), store, testFallback(), embedder, cache, sink, discardLogger())
}

func TestGetRecommendationsFallbackForSparseTenant(t *testing.T) {
	sink := &recordingSink{}
	svc := newTestService(&stubStore{items: storedItems(3)}, &bagEmbedder{}, newMapCache(), sink)

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceFallback, res.DataSource)
	require.Equal(t, 25, res.TotalQuestions)
	require.False(t, res.Degraded)

	total := 0
	categories := map[string]bool{}
	for i, item := range res.Items {
		require.Equal(t, DataSourceFallback, item.DataSource)
		require.LessOrEqual(t, len(item.SampleQA), 3)
		require.LessOrEqual(t, len(item.Keywords), 5)
		require.NotEqual(t, item.RepresentativeQA, QAPair{})
		for _, sample := range item.SampleQA {
			require.NotEqual(t, item.RepresentativeQA, sample)
		}
		for _, c := range item.Categories {
			categories[c] = true
		}
		if i > 0 {
			require.GreaterOrEqual(t, res.Items[i-1].QuestionCount, item.QuestionCount)
		}
		total += item.QuestionCount
	}
	require.Equal(t, 25, total)
	require.Greater(t, len(res.Items), 1)
	require.Greater(t, len(categories), 1)
	require.Equal(t, []bool{true}, sink.operations)
	require.Equal(t, 1, sink.quality)
}

func TestGetRecommendationsDatabaseCorpus(t *testing.T) {
	svc := newTestService(&stubStore{items: ktpItems(15)}, &bagEmbedder{}, newMapCache(), &recordingSink{})

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceDatabase, res.DataSource)
	require.GreaterOrEqual(t, res.ClusterCount, 2)
	require.LessOrEqual(t, res.ClusterCount, 7)

	total := 0
	for _, item := range res.Items {
		require.Equal(t, DataSourceDatabase, item.DataSource)
		total += item.QuestionCount
	}
	require.Equal(t, 15, total)
}

func TestGetRecommendationsDedupsQuestions(t *testing.T) {
	items := ktpItems(12)
	items = append(items, QAItem{Question: strings.ToUpper(items[0].Question) + "  "})
	svc := newTestService(&stubStore{items: items}, &bagEmbedder{}, nil, nil)

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, 12, res.TotalQuestions)
}

func TestGetRecommendationsEmbeddingFailure(t *testing.T) {
	sink := &recordingSink{}
	cache := newMapCache()
	svc := newTestService(&stubStore{items: ktpItems(15)}, &bagEmbedder{err: errors.New("provider down")}, cache, sink)

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceErrorFallback, res.DataSource)
	require.True(t, res.Degraded)
	require.Equal(t, apperrors.CodeEmbedding, res.ErrorKind)
	require.Len(t, res.Items, 1)
	require.Equal(t, "category0 question0 topic0?", res.Items[0].RepresentativeQA.Question)
	require.Equal(t, DataSourceErrorFallback, res.Items[0].DataSource)
	require.Equal(t, []string{apperrors.CodeEmbedding}, sink.errors)
	require.Equal(t, []bool{false}, sink.operations)
	require.Zero(t, cache.saves, "degraded results are not cached")
}

func TestGetRecommendationsStoreFailure(t *testing.T) {
	svc := newTestService(&stubStore{err: errors.New("timeout")}, &bagEmbedder{}, nil, &recordingSink{})

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceErrorFallback, res.DataSource)
	require.Equal(t, apperrors.CodeStoreFetch, res.ErrorKind)
	require.Len(t, res.Items, 1)
}

func TestGetRecommendationsInvalidInput(t *testing.T) {
	svc := newTestService(&stubStore{}, &bagEmbedder{}, nil, nil)
	_, err := svc.GetRecommendations(context.Background(), "  ", false)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	svc = NewService(DefaultConfig(), &stubStore{}, FallbackCorpus{}, &bagEmbedder{}, nil, nil, discardLogger())
	_, err = svc.GetRecommendations(context.Background(), "t1", false)
	require.ErrorIs(t, err, ErrNoFallbackCorpus)
}

func TestGetRecommendationsCachesResults(t *testing.T) {
	embedder := &bagEmbedder{}
	cache := newMapCache()
	svc := newTestService(&stubStore{items: ktpItems(15)}, embedder, cache, nil)

	first, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.False(t, first.Cached)

	second, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.Items, second.Items)
	require.EqualValues(t, 1, embedder.calls.Load())

	refreshed, err := svc.GetRecommendations(context.Background(), "t1", true)
	require.NoError(t, err)
	require.False(t, refreshed.Cached)
	require.EqualValues(t, 2, embedder.calls.Load())
	require.Equal(t, 2, cache.saves)
}

func TestInvalidateDropsCachedResult(t *testing.T) {
	embedder := &bagEmbedder{}
	cache := newMapCache()
	svc := newTestService(&stubStore{items: ktpItems(15)}, embedder, cache, nil)

	_, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.NoError(t, svc.Invalidate(context.Background(), "t1"))

	again, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.False(t, again.Cached)
	require.EqualValues(t, 2, embedder.calls.Load())

	require.True(t, apperrors.IsCode(svc.Invalidate(context.Background(), " "), apperrors.CodeInvalidInput))
}

func TestGetRecommendationsZeroTTLDisablesCache(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CacheTTL = 0
	cache := newMapCache()
	svc := NewService(cfg, &stubStore{items: ktpItems(15)}, testFallback(), &bagEmbedder{}, cache, nil, discardLogger())

	_, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Zero(t, cache.saves)
}

func TestGetRecommendationsSingleFlight(t *testing.T) {
	embedder := &bagEmbedder{release: make(chan struct{})}
	svc := newTestService(&stubStore{items: ktpItems(15)}, embedder, newMapCache(), nil)

	const callers = 5
	var wg sync.WaitGroup
	results := make([]RecommendationResult, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.GetRecommendations(context.Background(), "t1", false)
			assert.NoError(t, err)
			results[i] = res
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(embedder.release)
	wg.Wait()

	require.EqualValues(t, 1, embedder.calls.Load())
	for _, res := range results {
		require.Equal(t, results[0].Items, res.Items)
		require.Equal(t, DataSourceDatabase, res.DataSource)
	}
}

func TestGetRecommendationsCallerCancellation(t *testing.T) {
	embedder := &bagEmbedder{release: make(chan struct{})}
	cache := newMapCache()
	svc := newTestService(&stubStore{items: ktpItems(15)}, embedder, cache, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	res, err := svc.GetRecommendations(ctx, "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceErrorFallback, res.DataSource)
	require.Equal(t, apperrors.CodeTimeout, res.ErrorKind)

	// the shared computation keeps running and fills the cache
	close(embedder.release)
	require.Eventually(t, func() bool {
		_, ok, _ := cache.GetResult(context.Background(), "t1")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestGetRecommendationsSurvivesPanickingSink(t *testing.T) {
	svc := newTestService(&stubStore{items: ktpItems(15)}, &bagEmbedder{}, nil, &recordingSink{panics: true})

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceDatabase, res.DataSource)
}

type panickingEmbedder struct{}

func (panickingEmbedder) Embed(context.Context, []string) ([][]float32, error) {
	panic("provider sdk bug")
}

func TestGetRecommendationsRecoversPanickingEmbedder(t *testing.T) {
	cache := newMapCache()
	svc := newTestService(&stubStore{items: ktpItems(15)}, panickingEmbedder{}, cache, &recordingSink{})

	res, err := svc.GetRecommendations(context.Background(), "t1", false)
	require.NoError(t, err)
	require.Equal(t, DataSourceErrorFallback, res.DataSource)
	require.True(t, res.Degraded)
	require.Equal(t, apperrors.CodeClustering, res.ErrorKind)
	require.Len(t, res.Items, 1)
	require.Zero(t, cache.saves)
}
