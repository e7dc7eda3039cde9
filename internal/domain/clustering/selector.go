package clustering

import (
	"gonum.org/v1/gonum/mat"
)

// EffectiveMaxK bounds the candidate range to [2, min(maxK, n/2)].
func EffectiveMaxK(n, maxK int) int {
	if half := n / 2; half < maxK {
		return half
	}
	return maxK
}

type selection struct {
	k     int
	score float64
	fit   fit
	ok    bool
}

// selectK fits every candidate k and keeps the highest silhouette. Ties go
// to the smaller k; when no candidate scores, k=2 is returned without a fit.
func selectK(data *mat.Dense, dist *mat.SymDense, cfg Config) selection {
	n, _ := data.Dims()
	upper := EffectiveMaxK(n, cfg.MaxK)
	best := selection{k: 2}
	for k := 2; k <= upper; k++ {
		candidate := kmeans(data, k, cfg)
		score, err := silhouette(dist, candidate.labels, k)
		if err != nil {
			continue
		}
		if !best.ok || score > best.score {
			best = selection{k: k, score: score, fit: candidate, ok: true}
		}
	}
	return best
}

// SelectK chooses the cluster count for the given embeddings by maximising the
// silhouette score. It returns 2 when the range is empty or nothing scores.
func SelectK(vectors [][]float32, cfg Config) (int, float64) {
	cfg = cfg.withDefaults()
	data, err := toMatrix(vectors)
	if err != nil {
		return 2, 0
	}
	sel := selectK(data, pairwiseDistances(data), cfg)
	return sel.k, sel.score
}
