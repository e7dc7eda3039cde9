package clustering

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// describe computes the centroid of members, picks the member nearest to it
// and averages cosine similarity over all member pairs.
func describe(data *mat.Dense, id int, members []int) Cluster {
	cluster := Cluster{ID: id, Members: members, Representative: -1}
	if len(members) == 0 {
		return cluster
	}
	_, d := data.Dims()
	centroid := make([]float64, d)
	for _, m := range members {
		floats.Add(centroid, data.RawRowView(m))
	}
	floats.Scale(1/float64(len(members)), centroid)

	bestDist := math.Inf(1)
	for _, m := range members {
		if dist := floats.Distance(data.RawRowView(m), centroid, 2); dist < bestDist {
			cluster.Representative, bestDist = m, dist
		}
	}
	cluster.CentroidDistance = bestDist
	cluster.AvgIntraSimilarity = meanPairwiseCosine(data, members)
	return cluster
}

func meanPairwiseCosine(data *mat.Dense, members []int) float64 {
	m := len(members)
	if m < 2 {
		return 0
	}
	sum := 0.0
	for i := 0; i < m; i++ {
		for j := i + 1; j < m; j++ {
			sum += cosineSimilarity(data.RawRowView(members[i]), data.RawRowView(members[j]))
		}
	}
	mean := sum / float64(m*(m-1)/2)
	return math.Min(1, math.Max(0, mean))
}
