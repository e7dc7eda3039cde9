package search

import (
	"context"
	"time"
)

// ConfidenceLevel buckets a score against ordered thresholds.
type ConfidenceLevel string

const (
	ConfidenceHigh    ConfidenceLevel = "high"
	ConfidenceMedium  ConfidenceLevel = "medium"
	ConfidenceLow     ConfidenceLevel = "low"
	ConfidenceVeryLow ConfidenceLevel = "very_low"
)

// Filter matches entries whose metadata carries every listed key/value.
type Filter map[string]string

// Match is a raw nearest-neighbor hit returned by a VectorIndex.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]string
}

// Entry is a vector stored in the index.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// VectorIndex is a nearest-neighbor store namespaced per tenant. Query
// returns matches ordered by descending score.
type VectorIndex interface {
	Query(ctx context.Context, namespace string, vector []float32, topK int, filter Filter) ([]Match, error)
	Upsert(ctx context.Context, namespace string, entries []Entry) error
	Delete(ctx context.Context, namespace string, filter Filter) error
}

// SearchResult is one scored hit rendered to callers.
type SearchResult struct {
	ID                   string            `json:"id"`
	Score                float64           `json:"score"`
	Metadata             map[string]string `json:"metadata"`
	SimilarityPercentage float64           `json:"similarityPercentage"`
	ConfidenceLevel      ConfidenceLevel   `json:"confidenceLevel"`
	BelowThreshold       bool              `json:"belowThreshold"`
}

// SimilarityStatistics summarizes the score distribution of a query sample.
type SimilarityStatistics struct {
	Count           int     `json:"count"`
	Max             float64 `json:"max"`
	Min             float64 `json:"min"`
	Mean            float64 `json:"mean"`
	Median          float64 `json:"median"`
	Std             float64 `json:"std"`
	Q25             float64 `json:"q25"`
	Q75             float64 `json:"q75"`
	SuggestedHigh   float64 `json:"suggestedHigh"`
	SuggestedMedium float64 `json:"suggestedMedium"`
	SuggestedLow    float64 `json:"suggestedLow"`
}

// Thresholds are the ordered cut points low <= medium <= high.
type Thresholds struct {
	High   float64 `json:"high"`
	Medium float64 `json:"medium"`
	Low    float64 `json:"low"`
}

// ConfidenceResult groups every sampled hit into its confidence bucket.
type ConfidenceResult struct {
	High       []SearchResult       `json:"high"`
	Medium     []SearchResult       `json:"medium"`
	Low        []SearchResult       `json:"low"`
	VeryLow    []SearchResult       `json:"veryLow"`
	Thresholds Thresholds           `json:"thresholds"`
	Statistics SimilarityStatistics `json:"statistics"`
}

// SearchParams drives a threshold search. A non-positive TopK and a
// negative MinResults take the configured defaults; MinResults 0 disables
// the below-threshold fallback.
type SearchParams struct {
	TenantID   string  `json:"tenantId"`
	Threshold  float64 `json:"threshold"`
	TopK       int     `json:"topK"`
	MinResults int     `json:"minResults"`
	Filter     Filter  `json:"filter,omitempty"`
}

// AdaptiveParams drives a threshold-relaxing search.
type AdaptiveParams struct {
	TenantID     string  `json:"tenantId"`
	TargetCount  int     `json:"targetCount"`
	MaxThreshold float64 `json:"maxThreshold"`
	MinThreshold float64 `json:"minThreshold"`
	Step         float64 `json:"step"`
	TopK         int     `json:"topK"`
	Filter       Filter  `json:"filter,omitempty"`
}

// StatisticsParams drives statistics and confidence searches.
type StatisticsParams struct {
	TenantID   string `json:"tenantId"`
	SampleSize int    `json:"sampleSize"`
	Filter     Filter `json:"filter,omitempty"`
}

// Config holds search defaults.
type Config struct {
	Threshold    float64
	TopK         int
	MinResults   int
	TargetCount  int
	MaxThreshold float64
	MinThreshold float64
	Step         float64
	SampleSize   int
	CallTimeout  time.Duration
	Confidence   Thresholds
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		Threshold:    0.7,
		TopK:         10,
		TargetCount:  5,
		MaxThreshold: 0.9,
		MinThreshold: 0.5,
		Step:         0.05,
		SampleSize:   50,
		CallTimeout:  10 * time.Second,
		Confidence:   Thresholds{High: 0.8, Medium: 0.6, Low: 0.4},
	}
}
