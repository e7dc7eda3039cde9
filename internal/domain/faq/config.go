package faq

import (
	"time"

	"github.com/yanqian/faq-clustering/internal/domain/clustering"
)

// Config holds runtime knobs for the recommendation service.
type Config struct {
	MinDBThreshold     int
	FallbackTargetSize int
	FetchLimit         int
	CacheTTL           time.Duration
	CallTimeout        time.Duration
	Clustering         clustering.Config
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		MinDBThreshold:     10,
		FallbackTargetSize: 25,
		FetchLimit:         500,
		CacheTTL:           30 * time.Minute,
		CallTimeout:        10 * time.Second,
		Clustering:         clustering.DefaultConfig(),
	}
}
