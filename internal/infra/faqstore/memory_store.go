package faqstore

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

type resultRecord struct {
	payload   faq.RecommendationResult
	expiresAt time.Time
}

// MemoryStore is an in-memory recommendation cache bounded by entry count.
type MemoryStore struct {
	entries *lru.Cache[string, resultRecord]
	now     func() time.Time
}

// NewMemoryStore constructs a store holding at most maxEntries tenants.
func NewMemoryStore(maxEntries int) (*MemoryStore, error) {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	entries, err := lru.New[string, resultRecord](maxEntries)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{entries: entries, now: time.Now}, nil
}

// GetResult implements faq.ResultCache.
func (s *MemoryStore) GetResult(_ context.Context, tenantID string) (faq.RecommendationResult, bool, error) {
	record, ok := s.entries.Get(tenantID)
	if !ok {
		return faq.RecommendationResult{}, false, nil
	}
	if s.hasExpired(record.expiresAt) {
		s.entries.Remove(tenantID)
		return faq.RecommendationResult{}, false, nil
	}
	return record.payload, true, nil
}

// SaveResult caches the result with optional TTL.
func (s *MemoryStore) SaveResult(_ context.Context, result faq.RecommendationResult, ttl time.Duration) error {
	exp := time.Time{}
	if ttl > 0 {
		exp = s.now().Add(ttl)
	}
	s.entries.Add(result.TenantID, resultRecord{payload: result, expiresAt: exp})
	return nil
}

// Invalidate drops the tenant's cached result.
func (s *MemoryStore) Invalidate(_ context.Context, tenantID string) error {
	s.entries.Remove(tenantID)
	return nil
}

func (s *MemoryStore) hasExpired(ts time.Time) bool {
	if ts.IsZero() {
		return false
	}
	return ts.Before(s.now())
}

var _ faq.ResultCache = (*MemoryStore)(nil)
