package faq

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
	"github.com/yanqian/faq-clustering/pkg/util"
)

// FallbackCategory is one topical group of the curated corpus.
type FallbackCategory struct {
	Name  string   `yaml:"name"`
	Items []QAPair `yaml:"items"`
}

// FallbackCorpus is the curated substitute corpus, in declared category order.
type FallbackCorpus struct {
	Version    string             `yaml:"version"`
	Categories []FallbackCategory `yaml:"categories"`
}

// Empty reports whether the corpus holds no usable question.
func (c FallbackCorpus) Empty() bool {
	_, ok := c.First()
	return !ok
}

// First returns the first non-empty question in declared order.
func (c FallbackCorpus) First() (QAItem, bool) {
	for _, cat := range c.Categories {
		for _, pair := range cat.Items {
			if strings.TrimSpace(pair.Question) != "" {
				return QAItem{Question: pair.Question, Answer: pair.Answer, Category: cat.Name}, true
			}
		}
	}
	return QAItem{}, false
}

// BlendFallback draws max(2, target/len(categories)) items from each category
// in declared order, then fills round-robin from categories that still have
// items until targetSize is reached or every category is exhausted.
func BlendFallback(corpus FallbackCorpus, tenantID string, targetSize int) []QAItem {
	cats := corpus.Categories
	if len(cats) == 0 || targetSize <= 0 {
		return nil
	}
	perCategory := targetSize / len(cats)
	if perCategory < 2 {
		perCategory = 2
	}

	out := make([]QAItem, 0, targetSize)
	taken := make([]int, len(cats))
	take := func(i int) {
		pair := cats[i].Items[taken[i]]
		out = append(out, QAItem{
			ID:       fmt.Sprintf("fallback:%s:%d", cats[i].Name, taken[i]),
			TenantID: tenantID,
			Question: pair.Question,
			Answer:   pair.Answer,
			Category: cats[i].Name,
		})
		taken[i]++
	}

	for i := range cats {
		for taken[i] < perCategory && taken[i] < len(cats[i].Items) && len(out) < targetSize {
			take(i)
		}
	}
	for len(out) < targetSize {
		progressed := false
		for i := range cats {
			if len(out) == targetSize {
				break
			}
			if taken[i] < len(cats[i].Items) {
				take(i)
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	return out
}

// CorpusBuilder picks between the tenant's stored pairs and the fallback corpus.
type CorpusBuilder struct {
	store          QuestionStore
	fallback       FallbackCorpus
	minDBThreshold int
	targetSize     int
	fetchLimit     int
	callTimeout    time.Duration
	logger         *slog.Logger
}

// NewCorpusBuilder constructs a CorpusBuilder from the service config.
func NewCorpusBuilder(cfg Config, store QuestionStore, fallback FallbackCorpus, logger *slog.Logger) *CorpusBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &CorpusBuilder{
		store:          store,
		fallback:       fallback,
		minDBThreshold: cfg.MinDBThreshold,
		targetSize:     cfg.FallbackTargetSize,
		fetchLimit:     cfg.FetchLimit,
		callTimeout:    cfg.CallTimeout,
		logger:         logger.With("component", "faq.corpus"),
	}
}

// Build returns the database corpus when the tenant has at least
// minDBThreshold pairs, otherwise the blended fallback corpus.
func (b *CorpusBuilder) Build(ctx context.Context, tenantID string) ([]QAItem, DataSource, error) {
	var stored []QAItem
	if b.store != nil {
		fetchCtx, cancel := util.WithTimeout(ctx, b.callTimeout)
		items, err := b.store.FetchRecentQA(fetchCtx, tenantID, b.fetchLimit)
		cancel()
		if err != nil {
			return nil, "", apperrors.Wrap(apperrors.CodeStoreFetch, "fetch tenant questions", err)
		}
		stored = items
	}
	if len(stored) >= b.minDBThreshold {
		b.logger.Debug("using database corpus", "tenant_id", tenantID, "items", len(stored))
		return stored, DataSourceDatabase, nil
	}
	if b.fallback.Empty() {
		return nil, "", ErrNoFallbackCorpus
	}
	blended := BlendFallback(b.fallback, tenantID, b.targetSize)
	b.logger.Debug("using fallback corpus", "tenant_id", tenantID, "stored", len(stored), "items", len(blended))
	return blended, DataSourceFallback, nil
}
