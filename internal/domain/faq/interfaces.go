package faq

import (
	"context"
	"time"
)

// Embedder maps texts to vectors of one fixed dimension, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// QuestionStore reads a tenant's historical Q&A pairs.
type QuestionStore interface {
	FetchRecentQA(ctx context.Context, tenantID string, limit int) ([]QAItem, error)
}

// ResultCache keeps computed recommendations per tenant.
type ResultCache interface {
	GetResult(ctx context.Context, tenantID string) (RecommendationResult, bool, error)
	SaveResult(ctx context.Context, result RecommendationResult, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID string) error
}

// MetricsSink receives fire-and-forget operation and quality signals.
type MetricsSink interface {
	RecordOperation(tenantID string, source DataSource, duration time.Duration, success bool)
	RecordQuality(tenantID string, clusterCount int, avgSize, cohesion float64)
	RecordError(tenantID string, kind string)
}

// QuestionRepository is a QuestionStore that also ingests new pairs.
type QuestionRepository interface {
	QuestionStore
	SaveQA(ctx context.Context, tenantID string, items []QAItem) error
}
