package faqrepo

import (
	"context"
	"fmt"
	"sync"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// MemoryRepository is an in-memory QuestionRepository used for tests/dev.
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64

	// items per tenant in insertion order
	byTenant map[string][]faq.QAItem
}

// NewMemoryRepository constructs a repo backed by memory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		nextID:   1,
		byTenant: make(map[string][]faq.QAItem),
	}
}

// FetchRecentQA returns up to limit pairs, newest first.
func (r *MemoryRepository) FetchRecentQA(_ context.Context, tenantID string, limit int) ([]faq.QAItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored := r.byTenant[tenantID]
	if limit <= 0 || limit > len(stored) {
		limit = len(stored)
	}
	out := make([]faq.QAItem, 0, limit)
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

// SaveQA appends pairs for the tenant, assigning IDs where missing.
func (r *MemoryRepository) SaveQA(_ context.Context, tenantID string, items []faq.QAItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		if item.ID == "" {
			item.ID = fmt.Sprintf("mem-%d", r.nextID)
			r.nextID++
		}
		item.TenantID = tenantID
		r.byTenant[tenantID] = append(r.byTenant[tenantID], item)
	}
	return nil
}

var _ faq.QuestionRepository = (*MemoryRepository)(nil)
