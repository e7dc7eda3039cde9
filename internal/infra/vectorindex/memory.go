package vectorindex

import (
	"context"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/yanqian/faq-clustering/internal/domain/search"
)

// MemoryIndex is a brute-force cosine index used for tests/dev.
type MemoryIndex struct {
	mu         sync.RWMutex
	namespaces map[string]map[string]storedEntry
}

type storedEntry struct {
	vector   []float64
	norm     float64
	metadata map[string]string
}

// NewMemoryIndex constructs an empty index.
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{namespaces: make(map[string]map[string]storedEntry)}
}

// Query scores every entry in the namespace by cosine similarity clamped to [0,1].
func (i *MemoryIndex) Query(_ context.Context, namespace string, vector []float32, topK int, filter search.Filter) ([]search.Match, error) {
	query := toFloat64(vector)
	queryNorm := floats.Norm(query, 2)

	i.mu.RLock()
	matches := make([]search.Match, 0, len(i.namespaces[namespace]))
	for id, entry := range i.namespaces[namespace] {
		if !matchesFilter(entry.metadata, filter) {
			continue
		}
		matches = append(matches, search.Match{
			ID:       id,
			Score:    cosine(query, queryNorm, entry),
			Metadata: cloneMetadata(entry.metadata),
		})
	}
	i.mu.RUnlock()

	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score == matches[b].Score {
			return matches[a].ID < matches[b].ID
		}
		return matches[a].Score > matches[b].Score
	})
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

// Upsert stores or replaces entries by ID.
func (i *MemoryIndex) Upsert(_ context.Context, namespace string, entries []search.Entry) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	ns, ok := i.namespaces[namespace]
	if !ok {
		ns = make(map[string]storedEntry, len(entries))
		i.namespaces[namespace] = ns
	}
	for _, e := range entries {
		vec := toFloat64(e.Vector)
		ns[e.ID] = storedEntry{vector: vec, norm: floats.Norm(vec, 2), metadata: cloneMetadata(e.Metadata)}
	}
	return nil
}

// Delete removes every entry in the namespace matching filter.
func (i *MemoryIndex) Delete(_ context.Context, namespace string, filter search.Filter) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for id, entry := range i.namespaces[namespace] {
		if matchesFilter(entry.metadata, filter) {
			delete(i.namespaces[namespace], id)
		}
	}
	return nil
}

func cosine(query []float64, queryNorm float64, entry storedEntry) float64 {
	if queryNorm == 0 || entry.norm == 0 || len(query) != len(entry.vector) {
		return 0
	}
	score := floats.Dot(query, entry.vector) / (queryNorm * entry.norm)
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

func matchesFilter(metadata map[string]string, filter search.Filter) bool {
	for k, v := range filter {
		if metadata[k] != v {
			return false
		}
	}
	return true
}

func cloneMetadata(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

var _ search.VectorIndex = (*MemoryIndex)(nil)
