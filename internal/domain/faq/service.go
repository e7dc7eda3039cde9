package faq

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/yanqian/faq-clustering/internal/domain/clustering"
	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
	"github.com/yanqian/faq-clustering/pkg/util"
)

// Service exposes FAQ recommendation capabilities.
type Service interface {
	GetRecommendations(ctx context.Context, tenantID string, forceRefresh bool) (RecommendationResult, error)
	// Invalidate drops the tenant's cached result after its questions change.
	Invalidate(ctx context.Context, tenantID string) error
}

type service struct {
	cfg      Config
	corpus   *CorpusBuilder
	fallback FallbackCorpus
	embedder Embedder
	engine   *clustering.Engine
	cache    ResultCache
	metrics  MetricsSink
	logger   *slog.Logger
	flights  singleflight.Group
	now      func() time.Time
}

// NewService wires up the recommendation orchestrator.
func NewService(cfg Config, store QuestionStore, fallback FallbackCorpus, embedder Embedder, cache ResultCache, metrics MetricsSink, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		corpus:   NewCorpusBuilder(cfg, store, fallback, logger),
		fallback: fallback,
		embedder: embedder,
		engine:   clustering.NewEngine(cfg.Clustering, logger),
		cache:    cache,
		metrics:  metrics,
		logger:   logger.With("component", "faq.service"),
		now:      util.NowUTC,
	}
}

// GetRecommendations clusters the tenant corpus into ranked FAQ items. At
// most one computation per tenant runs at a time; concurrent callers share
// its result. Failures degrade to an error_fallback item instead of erroring.
func (s *service) GetRecommendations(ctx context.Context, tenantID string, forceRefresh bool) (RecommendationResult, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return RecommendationResult{}, apperrors.Wrap(apperrors.CodeInvalidInput, "tenant id cannot be empty", nil)
	}
	if s.fallback.Empty() {
		return RecommendationResult{}, ErrNoFallbackCorpus
	}

	if !forceRefresh {
		if cached, ok := s.cachedResult(ctx, tenantID); ok {
			return cached, nil
		}
	}

	// the shared computation must outlive any single caller's cancellation
	shared := context.WithoutCancel(ctx)
	ch := s.flights.DoChan(tenantID, func() (any, error) {
		return s.compute(shared, tenantID), nil
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-flight computation", "tenant_id", tenantID)
		}
		return res.Val.(RecommendationResult), nil
	case <-ctx.Done():
		if cached, ok := s.cachedResult(shared, tenantID); ok {
			return cached, nil
		}
		return s.fail(tenantID, s.now(), ctx.Err()), nil
	}
}

func (s *service) Invalidate(ctx context.Context, tenantID string) error {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "tenant id cannot be empty", nil)
	}
	if s.cache == nil {
		return nil
	}
	cacheCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return s.cache.Invalidate(cacheCtx, tenantID)
}

func (s *service) compute(ctx context.Context, tenantID string) (result RecommendationResult) {
	start := s.now()
	defer func() {
		if r := recover(); r != nil {
			result = s.fail(tenantID, start, apperrors.Wrap(apperrors.CodeClustering, fmt.Sprintf("recommendation pipeline panicked: %v", r), nil))
		}
	}()

	items, source, err := s.corpus.Build(ctx, tenantID)
	if err != nil {
		return s.fail(tenantID, start, err)
	}
	items = dedupItems(items)
	if len(items) == 0 {
		return s.fail(tenantID, start, apperrors.Wrap(apperrors.CodeDegenerateCorpus, "corpus has no questions", nil))
	}

	normalized := make([]string, len(items))
	for i, item := range items {
		normalized[i] = NormalizeText(item.Question)
	}
	vectors, err := s.embed(ctx, normalized)
	if err != nil {
		return s.fail(tenantID, start, err)
	}

	clusters := s.engine.Cluster(vectors)
	summaries := summarize(items, normalized, clusters)

	itemSource := source
	if clusters.Degraded {
		itemSource = DataSourceErrorFallback
	}
	recs := make([]RecommendationItem, 0, len(summaries))
	for _, summary := range summaries {
		recs = append(recs, newRecommendationItem(summary, items, itemSource))
	}
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].QuestionCount > recs[j].QuestionCount
	})

	duration := s.now().Sub(start)
	result = RecommendationResult{
		TenantID:       tenantID,
		Items:          recs,
		DataSource:     itemSource,
		ClusterCount:   len(summaries),
		TotalQuestions: len(items),
		Silhouette:     clusters.Silhouette,
		GeneratedAt:    start,
		DurationMs:     duration.Milliseconds(),
	}

	if clusters.Degraded {
		result.Degraded = true
		result.ErrorKind = apperrors.CodeOf(clusters.Err)
		s.emit(func(m MetricsSink) { m.RecordError(tenantID, result.ErrorKind) })
	}
	s.emit(func(m MetricsSink) {
		m.RecordOperation(tenantID, itemSource, duration, !result.Degraded)
		m.RecordQuality(tenantID, len(summaries), averageSize(summaries), meanCohesion(summaries))
	})

	if !result.Degraded {
		s.saveResult(ctx, result)
	}
	s.logger.Info("recommendations computed",
		"tenant_id", tenantID,
		"source", itemSource,
		"items", len(items),
		"clusters", len(summaries),
		"degraded", result.Degraded,
		"duration_ms", result.DurationMs,
	)
	return result
}

func (s *service) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if s.embedder == nil {
		return nil, apperrors.Wrap(apperrors.CodeEmbedding, "no embedding provider configured", nil)
	}
	embedCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	vectors, err := s.embedder.Embed(embedCtx, texts)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeEmbedding, "embed questions", err)
	}
	if len(vectors) != len(texts) {
		return nil, apperrors.Wrap(apperrors.CodeEmbedding, "embedding count does not match input", nil)
	}
	return vectors, nil
}

// fail renders the minimal degraded result from the first fallback question.
func (s *service) fail(tenantID string, start time.Time, cause error) RecommendationResult {
	kind := apperrors.CodeOf(cause)
	duration := s.now().Sub(start)
	s.logger.Warn("recommendations degraded to error fallback", "tenant_id", tenantID, "error_kind", kind, "error", cause)
	s.emit(func(m MetricsSink) {
		m.RecordError(tenantID, kind)
		m.RecordOperation(tenantID, DataSourceErrorFallback, duration, false)
	})

	result := RecommendationResult{
		TenantID:    tenantID,
		Items:       []RecommendationItem{},
		DataSource:  DataSourceErrorFallback,
		Degraded:    true,
		ErrorKind:   kind,
		GeneratedAt: start,
		DurationMs:  duration.Milliseconds(),
	}
	first, ok := s.fallback.First()
	if !ok {
		return result
	}
	keywords := ExtractKeywords(NormalizeText(first.Question))
	result.Items = append(result.Items, RecommendationItem{
		ClusterTitle:     ClusterTitle(keywords, 0),
		RepresentativeQA: QAPair{Question: first.Question, Answer: first.Answer},
		SampleQA:         []QAPair{},
		QuestionCount:    1,
		Keywords:         keywords,
		Categories:       []string{first.Category},
		DataSource:       DataSourceErrorFallback,
	})
	result.ClusterCount = 1
	result.TotalQuestions = 1
	return result
}

func (s *service) cachedResult(ctx context.Context, tenantID string) (RecommendationResult, bool) {
	if s.cache == nil {
		return RecommendationResult{}, false
	}
	cacheCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	cached, ok, err := s.cache.GetResult(cacheCtx, tenantID)
	if err != nil {
		s.logger.Warn("recommendation cache lookup failed", "tenant_id", tenantID, "error", err)
		return RecommendationResult{}, false
	}
	if !ok {
		return RecommendationResult{}, false
	}
	cached.Cached = true
	return cached, true
}

func (s *service) saveResult(ctx context.Context, result RecommendationResult) {
	if s.cache == nil || s.cfg.CacheTTL <= 0 {
		return
	}
	cacheCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	if err := s.cache.SaveResult(cacheCtx, result, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("recommendation cache save failed", "tenant_id", result.TenantID, "error", err)
	}
}

// emit shields the caller from sink failures.
func (s *service) emit(record func(MetricsSink)) {
	if s.metrics == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("metrics sink panicked", "panic", r)
		}
	}()
	record(s.metrics)
}

func dedupItems(items []QAItem) []QAItem {
	seen := make(map[string]bool, len(items))
	out := make([]QAItem, 0, len(items))
	for _, item := range items {
		key := dedupKey(item.Question)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}

func summarize(items []QAItem, normalized []string, res clustering.Result) []ClusterSummary {
	summaries := make([]ClusterSummary, 0, len(res.Clusters))
	for _, c := range res.Clusters {
		if c.Representative < 0 {
			continue
		}
		rep := items[c.Representative]
		summaries = append(summaries, ClusterSummary{
			ClusterID:              c.ID,
			RepresentativeQuestion: rep.Question,
			RepresentativeAnswer:   rep.Answer,
			RepresentativeIndex:    c.Representative,
			MemberCount:            len(c.Members),
			AvgIntraSimilarity:     c.AvgIntraSimilarity,
			CentroidDistance:       c.CentroidDistance,
			Keywords:               ExtractKeywords(normalized[c.Representative]),
			Members:                c.Members,
		})
	}
	return summaries
}

func averageSize(summaries []ClusterSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	total := 0
	for _, s := range summaries {
		total += s.MemberCount
	}
	return float64(total) / float64(len(summaries))
}

func meanCohesion(summaries []ClusterSummary) float64 {
	if len(summaries) == 0 {
		return 0
	}
	total := 0.0
	for _, s := range summaries {
		total += s.AvgIntraSimilarity
	}
	return total / float64(len(summaries))
}
