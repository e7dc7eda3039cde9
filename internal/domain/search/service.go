package search

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
	"github.com/yanqian/faq-clustering/pkg/util"
)

// Service exposes similarity search over a tenant's indexed questions.
// Provider and index failures are logged and surface as empty results.
type Service interface {
	Search(ctx context.Context, query string, params SearchParams) []SearchResult
	SearchAdaptive(ctx context.Context, query string, params AdaptiveParams) []SearchResult
	Statistics(ctx context.Context, query string, params StatisticsParams) (SimilarityStatistics, bool)
	SearchWithConfidenceLevels(ctx context.Context, query string, params StatisticsParams) ConfidenceResult
	IndexItems(ctx context.Context, tenantID string, items []faq.QAItem) (int, error)
}

type service struct {
	cfg      Config
	embedder faq.Embedder
	index    VectorIndex
	logger   *slog.Logger
}

// NewService constructs the search engine.
func NewService(cfg Config, embedder faq.Embedder, index VectorIndex, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		cfg:      cfg,
		embedder: embedder,
		index:    index,
		logger:   logger.With("component", "search.service"),
	}
}

func (s *service) Search(ctx context.Context, query string, params SearchParams) []SearchResult {
	if params.TopK <= 0 {
		params.TopK = s.cfg.TopK
	}
	if params.MinResults < 0 {
		params.MinResults = s.cfg.MinResults
	}
	vector, ok := s.embedQuery(ctx, query)
	if !ok {
		return []SearchResult{}
	}
	matches, ok := s.query(ctx, params.TenantID, vector, params.TopK, params.Filter)
	if !ok {
		return []SearchResult{}
	}

	results := s.filter(matches, params.Threshold)
	if len(results) == 0 && params.MinResults > 0 {
		for i, m := range matches {
			if i == params.MinResults {
				break
			}
			res := s.toResult(m, s.cfg.Confidence)
			res.BelowThreshold = true
			results = append(results, res)
		}
	}
	return results
}

// SearchAdaptive relaxes the threshold from MaxThreshold down to
// MinThreshold by Step until TargetCount hits are found. The number of
// threshold probes never exceeds ceil((max-min)/step)+1.
func (s *service) SearchAdaptive(ctx context.Context, query string, params AdaptiveParams) []SearchResult {
	params = s.adaptiveDefaults(params)
	if params.Step <= 0 || params.MinThreshold > params.MaxThreshold || params.TargetCount <= 0 {
		s.logger.Warn("adaptive search rejected invalid parameters",
			"target_count", params.TargetCount,
			"max_threshold", params.MaxThreshold,
			"min_threshold", params.MinThreshold,
			"step", params.Step,
		)
		return []SearchResult{}
	}

	vector, ok := s.embedQuery(ctx, query)
	if !ok {
		return []SearchResult{}
	}

	steps := probeSteps(params.MaxThreshold, params.MinThreshold, params.Step)
	var last []SearchResult
	for i := 0; i <= steps; i++ {
		threshold := params.MaxThreshold - float64(i)*params.Step
		if i == steps || threshold < params.MinThreshold {
			threshold = params.MinThreshold
		}
		matches, ok := s.query(ctx, params.TenantID, vector, params.TopK, params.Filter)
		if !ok {
			return []SearchResult{}
		}
		last = s.filter(matches, threshold)
		if len(last) >= params.TargetCount {
			s.logger.Debug("adaptive search satisfied", "threshold", threshold, "probes", i+1)
			return last[:params.TargetCount]
		}
		if threshold == params.MinThreshold {
			break
		}
	}
	if len(last) > 0 {
		return last
	}

	matches, ok := s.query(ctx, params.TenantID, vector, params.TargetCount, params.Filter)
	if !ok {
		return []SearchResult{}
	}
	final := s.filter(matches, 0)
	if len(final) > params.TargetCount {
		final = final[:params.TargetCount]
	}
	return final
}

func (s *service) Statistics(ctx context.Context, query string, params StatisticsParams) (SimilarityStatistics, bool) {
	matches, ok := s.sample(ctx, query, params)
	if !ok {
		return SimilarityStatistics{}, false
	}
	return computeStatistics(scores(matches))
}

// SearchWithConfidenceLevels buckets every sampled hit using thresholds
// derived from the sample's own score distribution.
func (s *service) SearchWithConfidenceLevels(ctx context.Context, query string, params StatisticsParams) ConfidenceResult {
	out := ConfidenceResult{
		High:       []SearchResult{},
		Medium:     []SearchResult{},
		Low:        []SearchResult{},
		VeryLow:    []SearchResult{},
		Thresholds: s.cfg.Confidence,
	}
	matches, ok := s.sample(ctx, query, params)
	if !ok {
		return out
	}
	stats, ok := computeStatistics(scores(matches))
	if !ok {
		return out
	}
	out.Statistics = stats
	out.Thresholds = stats.Suggested()

	for _, m := range matches {
		res := s.toResult(m, out.Thresholds)
		switch res.ConfidenceLevel {
		case ConfidenceHigh:
			out.High = append(out.High, res)
		case ConfidenceMedium:
			out.Medium = append(out.Medium, res)
		case ConfidenceLow:
			out.Low = append(out.Low, res)
		default:
			out.VeryLow = append(out.VeryLow, res)
		}
	}
	return out
}

// IndexItems replaces the tenant's index entries with freshly embedded items.
func (s *service) IndexItems(ctx context.Context, tenantID string, items []faq.QAItem) (int, error) {
	tenantID = strings.TrimSpace(tenantID)
	if tenantID == "" {
		return 0, apperrors.Wrap(apperrors.CodeInvalidInput, "tenant id cannot be empty", nil)
	}
	texts := make([]string, 0, len(items))
	kept := make([]faq.QAItem, 0, len(items))
	for _, item := range items {
		text := faq.NormalizeText(item.Question)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		kept = append(kept, item)
	}

	// prior entries stay untouched until the replacement is fully embedded
	var vectors [][]float32
	if len(kept) > 0 {
		embedCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
		embedded, err := s.embedder.Embed(embedCtx, texts)
		cancel()
		if err != nil {
			return 0, apperrors.Wrap(apperrors.CodeEmbedding, "embed questions", err)
		}
		if len(embedded) != len(kept) {
			return 0, apperrors.Wrap(apperrors.CodeEmbedding, "embedding count does not match input", nil)
		}
		vectors = embedded
	}
	entries := make([]Entry, len(kept))
	for i, item := range kept {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		entries[i] = Entry{
			ID:     id,
			Vector: vectors[i],
			Metadata: map[string]string{
				"tenant_id": tenantID,
				"question":  item.Question,
				"answer":    item.Answer,
				"category":  item.Category,
			},
		}
	}
	callCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	if err := s.index.Delete(callCtx, tenantID, Filter{"tenant_id": tenantID}); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeVectorIndex, "clear tenant index", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}
	if err := s.index.Upsert(callCtx, tenantID, entries); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeVectorIndex, "upsert tenant index", err)
	}
	s.logger.Info("tenant index rebuilt", "tenant_id", tenantID, "entries", len(entries))
	return len(entries), nil
}

func (s *service) sample(ctx context.Context, query string, params StatisticsParams) ([]Match, bool) {
	if params.SampleSize <= 0 {
		params.SampleSize = s.cfg.SampleSize
	}
	vector, ok := s.embedQuery(ctx, query)
	if !ok {
		return nil, false
	}
	return s.query(ctx, params.TenantID, vector, params.SampleSize, params.Filter)
}

func (s *service) embedQuery(ctx context.Context, query string) ([]float32, bool) {
	text := faq.NormalizeText(query)
	if text == "" {
		s.logger.Debug("empty search query")
		return nil, false
	}
	callCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	vectors, err := s.embedder.Embed(callCtx, []string{text})
	if err != nil || len(vectors) != 1 {
		cause := apperrors.Wrap(apperrors.CodeEmbedding, "embed search query", err)
		s.logger.Warn("search degraded to empty result", "error_kind", apperrors.CodeOf(cause), "error", cause)
		return nil, false
	}
	return vectors[0], true
}

func (s *service) query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Match, bool) {
	callCtx, cancel := util.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	matches, err := s.index.Query(callCtx, namespace, vector, topK, filter)
	if err != nil {
		cause := apperrors.Wrap(apperrors.CodeVectorIndex, "query vector index", err)
		s.logger.Warn("search degraded to empty result", "tenant_id", namespace, "error_kind", apperrors.CodeOf(cause), "error", cause)
		return nil, false
	}
	return matches, true
}

func (s *service) filter(matches []Match, threshold float64) []SearchResult {
	results := make([]SearchResult, 0, len(matches))
	for _, m := range matches {
		if clampScore(m.Score) < threshold {
			continue
		}
		results = append(results, s.toResult(m, s.cfg.Confidence))
	}
	return results
}

func (s *service) toResult(m Match, thresholds Thresholds) SearchResult {
	score := clampScore(m.Score)
	metadata := m.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	return SearchResult{
		ID:                   m.ID,
		Score:                score,
		Metadata:             metadata,
		SimilarityPercentage: math.Round(score*1000) / 10,
		ConfidenceLevel:      thresholds.Level(score),
	}
}

func (s *service) adaptiveDefaults(p AdaptiveParams) AdaptiveParams {
	if p.TargetCount == 0 {
		p.TargetCount = s.cfg.TargetCount
	}
	if p.MaxThreshold == 0 && p.MinThreshold == 0 {
		p.MaxThreshold, p.MinThreshold = s.cfg.MaxThreshold, s.cfg.MinThreshold
	}
	if p.Step == 0 {
		p.Step = s.cfg.Step
	}
	if p.TopK <= 0 {
		p.TopK = max(s.cfg.TopK, p.TargetCount)
	}
	return p
}

// probeSteps is the number of decrements from max to min, so probes = steps+1.
func probeSteps(maxThreshold, minThreshold, step float64) int {
	return int(math.Ceil((maxThreshold-minThreshold)/step - 1e-9))
}

func clampScore(score float64) float64 {
	switch {
	case math.IsNaN(score) || score < 0:
		return 0
	case score > 1:
		return 1
	default:
		return score
	}
}

func scores(matches []Match) []float64 {
	out := make([]float64, len(matches))
	for i, m := range matches {
		out[i] = clampScore(m.Score)
	}
	return out
}
