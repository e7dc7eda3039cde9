package faqstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// ValkeyStore persists recommendation results in a Valkey-compatible database.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "faq"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) GetResult(ctx context.Context, tenantID string) (faq.RecommendationResult, bool, error) {
	cmd := s.client.B().Get().Key(s.resultKey(tenantID)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return faq.RecommendationResult{}, false, nil
		}
		return faq.RecommendationResult{}, false, err
	}
	var result faq.RecommendationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return faq.RecommendationResult{}, false, err
	}
	return result, true, nil
}

func (s *ValkeyStore) SaveResult(ctx context.Context, result faq.RecommendationResult, ttl time.Duration) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.setString(ctx, s.resultKey(result.TenantID), string(payload), ttl)
}

// Invalidate drops the tenant's cached result.
func (s *ValkeyStore) Invalidate(ctx context.Context, tenantID string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.resultKey(tenantID)).Build()).Error()
}

func (s *ValkeyStore) setString(ctx context.Context, key, value string, ttl time.Duration) error {
	builder := s.client.B().Set().Key(key).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		if ttl < time.Second {
			ttl = time.Second
		}
		cmd = builder.Ex(ttl).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) resultKey(tenantID string) string {
	return fmt.Sprintf("%s:recommendations:%s", s.prefix, tenantID)
}

var _ faq.ResultCache = (*ValkeyStore)(nil)

// Close releases the underlying client.
func (s *ValkeyStore) Close() {
	s.client.Close()
}
