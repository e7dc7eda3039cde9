package clustering

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

// toMatrix copies the embeddings into an n×d dense matrix, rejecting ragged
// or non-finite input.
func toMatrix(vectors [][]float32) (*mat.Dense, error) {
	if len(vectors) == 0 {
		return nil, apperrors.Wrap(apperrors.CodeDegenerateCorpus, "no vectors to cluster", nil)
	}
	dims := len(vectors[0])
	if dims == 0 {
		return nil, apperrors.Wrap(apperrors.CodeClustering, "embedding has zero dimensions", nil)
	}
	data := make([]float64, 0, len(vectors)*dims)
	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, apperrors.Wrap(apperrors.CodeClustering, fmt.Sprintf("vector %d has %d dimensions, expected %d", i, len(vec), dims), nil)
		}
		for _, v := range vec {
			f := float64(v)
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, apperrors.Wrap(apperrors.CodeClustering, fmt.Sprintf("vector %d contains non-finite values", i), nil)
			}
			data = append(data, f)
		}
	}
	return mat.NewDense(len(vectors), dims, data), nil
}

func pairwiseDistances(data *mat.Dense) *mat.SymDense {
	n, _ := data.Dims()
	dist := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist.SetSym(i, j, floats.Distance(data.RawRowView(i), data.RawRowView(j), 2))
		}
	}
	return dist
}

func squaredDistance(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func cosineSimilarity(a, b []float64) float64 {
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
