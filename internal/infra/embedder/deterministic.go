package embedder

import (
	"context"
	"hash/fnv"
	"math"
	"strings"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// DeterministicEmbedder avoids network calls by hashing tokens into a
// normalized bag-of-words vector, so texts sharing words land close together.
type DeterministicEmbedder struct {
	dim int
}

// NewDeterministicEmbedder constructs the embedder.
func NewDeterministicEmbedder(dim int) *DeterministicEmbedder {
	if dim <= 0 {
		dim = 64
	}
	return &DeterministicEmbedder{dim: dim}
}

// Embed converts each text into a unit-length vector.
func (e *DeterministicEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vector := make([]float32, e.dim)
		for _, token := range strings.Fields(strings.ToLower(text)) {
			token = strings.Trim(token, ".?!")
			if token == "" {
				continue
			}
			hash := fnv.New64a()
			_, _ = hash.Write([]byte(token))
			seed := hash.Sum64()
			// each token lands in two buckets to soften collisions
			vector[seed%uint64(e.dim)] += 1
			seed = seed*1099511628211 + 1469598103934665603
			vector[seed%uint64(e.dim)] += 0.5
		}
		vectors[i] = unit(vector)
	}
	return vectors, nil
}

func unit(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

var _ faq.Embedder = (*DeterministicEmbedder)(nil)
