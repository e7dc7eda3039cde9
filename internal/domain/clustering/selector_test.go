package clustering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSilhouetteKnownValue(t *testing.T) {
	data, err := toMatrix([][]float32{{0}, {1}, {10}, {11}})
	require.NoError(t, err)

	score, err := silhouette(pairwiseDistances(data), []int{0, 0, 1, 1}, 2)
	require.NoError(t, err)
	want := (2*(9.5/10.5) + 2*(8.5/9.5)) / 4
	require.InDelta(t, want, score, 1e-9)
}

func TestSilhouetteRejectsSingleCluster(t *testing.T) {
	data, err := toMatrix([][]float32{{0}, {1}, {2}})
	require.NoError(t, err)

	_, err = silhouette(pairwiseDistances(data), []int{0, 0, 0}, 1)
	require.Error(t, err)
}

func TestSilhouetteSingletonContributesZero(t *testing.T) {
	data, err := toMatrix([][]float32{{0}, {0}, {5}})
	require.NoError(t, err)

	score, err := silhouette(pairwiseDistances(data), []int{0, 0, 1}, 2)
	require.NoError(t, err)
	require.InDelta(t, 2.0/3.0, score, 1e-9)
}

func TestEffectiveMaxK(t *testing.T) {
	require.Equal(t, 2, EffectiveMaxK(4, 10))
	require.Equal(t, 7, EffectiveMaxK(15, 10))
	require.Equal(t, 10, EffectiveMaxK(500, 10))
	require.Equal(t, 1, EffectiveMaxK(3, 10))
}

func TestSelectKFallsBackToTwo(t *testing.T) {
	k, _ := SelectK([][]float32{{1}, {2}, {3}}, DefaultConfig())
	require.Equal(t, 2, k)

	k, _ = SelectK(nil, DefaultConfig())
	require.Equal(t, 2, k)
}

func TestSelectKPrefersSmallestOnTie(t *testing.T) {
	// Every candidate labelling of identical points scores 0.
	vectors := make([][]float32, 10)
	for i := range vectors {
		vectors[i] = []float32{1, 1}
	}
	k, score := SelectK(vectors, DefaultConfig())
	require.Equal(t, 2, k)
	require.Equal(t, 0.0, score)
}

func TestMeanPairwiseCosine(t *testing.T) {
	data, err := toMatrix([][]float32{{1, 0}, {1, 0}, {0, 1}})
	require.NoError(t, err)

	require.InDelta(t, 1.0, meanPairwiseCosine(data, []int{0, 1}), 1e-9)
	require.InDelta(t, 1.0/3.0, meanPairwiseCosine(data, []int{0, 1, 2}), 1e-9)
	require.Equal(t, 0.0, meanPairwiseCosine(data, []int{2}))
}

func TestDescribePicksNearestToCentroid(t *testing.T) {
	data, err := toMatrix([][]float32{{0, 0}, {1, 0}, {2, 0}, {9, 9}})
	require.NoError(t, err)

	c := describe(data, 3, []int{0, 1, 2})
	require.Equal(t, 3, c.ID)
	require.Equal(t, 1, c.Representative)
	require.InDelta(t, 0.0, c.CentroidDistance, 1e-9)
}
