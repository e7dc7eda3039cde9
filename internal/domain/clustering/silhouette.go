package clustering

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

// silhouette returns the mean silhouette coefficient over all points using
// the precomputed Euclidean distance matrix. It fails when the labelling has
// fewer than two or more than n-1 distinct clusters.
func silhouette(dist *mat.SymDense, labels []int, k int) (float64, error) {
	n := dist.SymmetricDim()
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	distinct := 0
	for _, c := range counts {
		if c > 0 {
			distinct++
		}
	}
	if distinct < 2 || distinct > n-1 {
		return 0, apperrors.Wrap(apperrors.CodeClustering, fmt.Sprintf("silhouette undefined for %d clusters over %d points", distinct, n), nil)
	}

	sums := make([]float64, k)
	total := 0.0
	for i := 0; i < n; i++ {
		for c := range sums {
			sums[c] = 0
		}
		for j := 0; j < n; j++ {
			if j != i {
				sums[labels[j]] += dist.At(i, j)
			}
		}
		own := labels[i]
		if counts[own] < 2 {
			continue // singleton contributes 0
		}
		a := sums[own] / float64(counts[own]-1)
		b := math.Inf(1)
		for c, size := range counts {
			if c == own || size == 0 {
				continue
			}
			if mean := sums[c] / float64(size); mean < b {
				b = mean
			}
		}
		if denom := math.Max(a, b); denom > 0 {
			total += (b - a) / denom
		}
	}
	score := total / float64(n)
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, apperrors.Wrap(apperrors.CodeClustering, "silhouette is not finite", nil)
	}
	return score, nil
}
