package clustering

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
)

type fit struct {
	labels    []int
	centroids *mat.Dense
	inertia   float64
}

// kmeans runs cfg.Restarts seeded Lloyd fits and keeps the lowest inertia.
func kmeans(data *mat.Dense, k int, cfg Config) fit {
	best := fit{inertia: math.Inf(1)}
	for r := 0; r < cfg.Restarts; r++ {
		rng := rand.New(rand.NewSource(cfg.Seed + int64(r))) // deterministic per restart
		candidate := lloyd(data, k, cfg.MaxIter, rng)
		if best.labels == nil || candidate.inertia < best.inertia {
			best = candidate
		}
	}
	return best
}

func lloyd(data *mat.Dense, k, maxIter int, rng *rand.Rand) fit {
	n, _ := data.Dims()
	centroids := seedPlusPlus(data, k, rng)
	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}
	for iter := 0; iter < maxIter; iter++ {
		changed := assignNearest(data, centroids, labels)
		moved := relocateEmpty(data, centroids, labels, k)
		centroids = recomputeCentroids(data, labels, centroids)
		if !changed && !moved {
			break
		}
	}
	return fit{labels: labels, centroids: centroids, inertia: inertia(data, centroids, labels)}
}

// seedPlusPlus picks initial centroids with D² weighting.
func seedPlusPlus(data *mat.Dense, k int, rng *rand.Rand) *mat.Dense {
	n, d := data.Dims()
	centroids := mat.NewDense(k, d, nil)
	centroids.SetRow(0, data.RawRowView(rng.Intn(n)))

	nearest := make([]float64, n)
	for i := range nearest {
		nearest[i] = math.Inf(1)
	}
	for c := 1; c < k; c++ {
		prev := centroids.RawRowView(c - 1)
		total := 0.0
		for i := 0; i < n; i++ {
			if dist := squaredDistance(data.RawRowView(i), prev); dist < nearest[i] {
				nearest[i] = dist
			}
			total += nearest[i]
		}
		if total == 0 {
			// all remaining points coincide with a chosen centroid
			centroids.SetRow(c, data.RawRowView(rng.Intn(n)))
			continue
		}
		target := rng.Float64() * total
		chosen := n - 1
		cumulative := 0.0
		for i := 0; i < n; i++ {
			cumulative += nearest[i]
			if cumulative >= target {
				chosen = i
				break
			}
		}
		centroids.SetRow(c, data.RawRowView(chosen))
	}
	return centroids
}

func assignNearest(data, centroids *mat.Dense, labels []int) bool {
	n, _ := data.Dims()
	k, _ := centroids.Dims()
	changed := false
	for i := 0; i < n; i++ {
		point := data.RawRowView(i)
		best, bestDist := 0, math.Inf(1)
		if labels[i] >= 0 {
			// keep the current label unless another centroid is strictly closer
			best, bestDist = labels[i], squaredDistance(point, centroids.RawRowView(labels[i]))
		}
		for c := 0; c < k; c++ {
			if dist := squaredDistance(point, centroids.RawRowView(c)); dist < bestDist {
				best, bestDist = c, dist
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
	}
	return changed
}

// relocateEmpty moves the point farthest from its centroid into each empty
// cluster, taking only from clusters with more than one member.
func relocateEmpty(data, centroids *mat.Dense, labels []int, k int) bool {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	moved := false
	for c := 0; c < k; c++ {
		if counts[c] > 0 {
			continue
		}
		far, farDist := -1, -1.0
		for i, l := range labels {
			if counts[l] < 2 {
				continue
			}
			if dist := squaredDistance(data.RawRowView(i), centroids.RawRowView(l)); dist > farDist {
				far, farDist = i, dist
			}
		}
		if far < 0 {
			break
		}
		counts[labels[far]]--
		labels[far] = c
		counts[c]++
		centroids.SetRow(c, data.RawRowView(far))
		moved = true
	}
	return moved
}

func recomputeCentroids(data *mat.Dense, labels []int, previous *mat.Dense) *mat.Dense {
	k, d := previous.Dims()
	next := mat.NewDense(k, d, nil)
	counts := make([]int, k)
	for i, l := range labels {
		row := next.RawRowView(l)
		for j, v := range data.RawRowView(i) {
			row[j] += v
		}
		counts[l]++
	}
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			next.SetRow(c, previous.RawRowView(c))
			continue
		}
		row := next.RawRowView(c)
		scale := 1 / float64(counts[c])
		for j := range row {
			row[j] *= scale
		}
	}
	return next
}

func inertia(data, centroids *mat.Dense, labels []int) float64 {
	total := 0.0
	for i, l := range labels {
		total += squaredDistance(data.RawRowView(i), centroids.RawRowView(l))
	}
	return total
}
