package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// CachedEmbedder keeps recent embeddings in a bounded in-process LRU keyed
// by the SHA-256 of the text. Only misses reach the inner embedder.
type CachedEmbedder struct {
	inner      faq.Embedder
	cache      *lru.Cache[string, []float32]
	cacheTotal *prometheus.CounterVec
	logger     *slog.Logger
}

// NewCachedEmbedder wraps inner. cacheTotal may be nil; when set it is
// incremented with label "result" = hit|miss.
func NewCachedEmbedder(inner faq.Embedder, size int, cacheTotal *prometheus.CounterVec, logger *slog.Logger) (*CachedEmbedder, error) {
	if size <= 0 {
		size = 4096
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedEmbedder{
		inner:      inner,
		cache:      cache,
		cacheTotal: cacheTotal,
		logger:     logger.With("component", "embedder.cache"),
	}, nil
}

// Embed serves cached vectors and embeds the rest in one inner call.
func (c *CachedEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		keys[i] = cacheKey(text)
		if vec, ok := c.cache.Get(keys[i]); ok {
			out[i] = vec
			c.inc("hit")
			continue
		}
		c.inc("miss")
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return out, nil
	}

	c.logger.Debug("embedding cache miss", "misses", len(missTexts), "hits", len(texts)-len(missTexts))
	vectors, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, fmt.Errorf("inner embedder returned %d vectors for %d texts", len(vectors), len(missTexts))
	}
	for j, idx := range missIdx {
		out[idx] = vectors[j]
		c.cache.Add(keys[idx], vectors[j])
	}
	return out, nil
}

func (c *CachedEmbedder) inc(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

var _ faq.Embedder = (*CachedEmbedder)(nil)
