package clustering

import (
	"io"
	"log/slog"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

func newTestEngine() *Engine {
	return NewEngine(DefaultConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func blobs(rng *rand.Rand, centers [][]float32, perBlob int, spread float64) [][]float32 {
	var out [][]float32
	for _, center := range centers {
		for i := 0; i < perBlob; i++ {
			vec := make([]float32, len(center))
			for j, c := range center {
				vec[j] = c + float32(rng.NormFloat64()*spread)
			}
			out = append(out, vec)
		}
	}
	return out
}

func requireCoverage(t *testing.T, vectors [][]float32, res Result) {
	t.Helper()
	require.Equal(t, len(vectors), res.MemberCount())
	labelOf := make(map[int]int, len(res.Assignments))
	for _, a := range res.Assignments {
		labelOf[a.ItemIndex] = a.ClusterID
	}
	seen := make(map[int]bool)
	for _, c := range res.Clusters {
		require.NotEmpty(t, c.Members)
		require.Equal(t, c.ID, labelOf[c.Representative], "representative must belong to its cluster")
		require.GreaterOrEqual(t, c.AvgIntraSimilarity, 0.0)
		require.LessOrEqual(t, c.AvgIntraSimilarity, 1.0)
		require.GreaterOrEqual(t, c.CentroidDistance, 0.0)
		for _, m := range c.Members {
			require.False(t, seen[m], "item %d assigned twice", m)
			seen[m] = true
			require.Equal(t, c.ID, labelOf[m])
		}
	}
}

func TestClusterSeparatesBlobs(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	vectors := blobs(rng, [][]float32{{0, 0, 1}, {10, 10, 1}}, 6, 0.1)

	res := newTestEngine().Cluster(vectors)
	require.False(t, res.Degraded)
	require.NoError(t, res.Err)
	require.Equal(t, 2, res.K)
	require.Len(t, res.Clusters, 2)
	require.Greater(t, res.Silhouette, 0.9)
	requireCoverage(t, vectors, res)
	for _, c := range res.Clusters {
		require.Len(t, c.Members, 6)
	}
}

func TestClusterPicksThreeBlobs(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	vectors := blobs(rng, [][]float32{{0, 0}, {20, 0}, {0, 20}}, 5, 0.2)

	res := newTestEngine().Cluster(vectors)
	require.Equal(t, 3, res.K)
	requireCoverage(t, vectors, res)
}

func TestClusterCountStaysInRange(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	engine := newTestEngine()
	for n := 4; n <= 30; n += 3 {
		vectors := make([][]float32, n)
		for i := range vectors {
			vectors[i] = []float32{float32(rng.Float64()), float32(rng.Float64()), float32(rng.Float64()), float32(rng.Float64())}
		}
		res := engine.Cluster(vectors)
		require.False(t, res.Degraded, "n=%d", n)
		require.GreaterOrEqual(t, res.K, 2, "n=%d", n)
		require.LessOrEqual(t, res.K, EffectiveMaxK(n, 10), "n=%d", n)
		requireCoverage(t, vectors, res)
	}
}

func TestClusterIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	vectors := blobs(rng, [][]float32{{1, 0}, {0, 1}, {-1, 0}}, 4, 0.3)

	first := newTestEngine().Cluster(vectors)
	second := newTestEngine().Cluster(vectors)
	require.Equal(t, first.K, second.K)
	require.Equal(t, first.Assignments, second.Assignments)
}

func TestClusterDegeneratesOnTinyInput(t *testing.T) {
	engine := newTestEngine()

	empty := engine.Cluster(nil)
	require.True(t, empty.Degraded)
	require.True(t, apperrors.IsCode(empty.Err, apperrors.CodeDegenerateCorpus))
	require.Len(t, empty.Clusters, 1)
	require.Equal(t, 0, empty.MemberCount())
	require.Equal(t, -1, empty.Clusters[0].Representative)

	single := engine.Cluster([][]float32{{1, 2}})
	require.True(t, single.Degraded)
	require.Len(t, single.Clusters, 1)
	require.Equal(t, 1, single.MemberCount())
	require.Equal(t, 0, single.Clusters[0].Representative)
	require.Equal(t, 0.0, single.Clusters[0].AvgIntraSimilarity)

	three := engine.Cluster([][]float32{{1, 0}, {0, 1}, {1, 1}})
	require.True(t, three.Degraded)
	require.Equal(t, 3, three.MemberCount())
	require.Equal(t, 0.0, three.Clusters[0].AvgIntraSimilarity)
}

func TestClusterDegradesOnNonFiniteInput(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}, {float32(math.NaN()), 0}}
	res := newTestEngine().Cluster(vectors)
	require.True(t, res.Degraded)
	require.True(t, apperrors.IsCode(res.Err, apperrors.CodeClustering))
	require.Equal(t, 4, res.MemberCount())
}

func TestClusterDegradesOnRaggedInput(t *testing.T) {
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}, {1}}
	res := newTestEngine().Cluster(vectors)
	require.True(t, res.Degraded)
	require.True(t, apperrors.IsCode(res.Err, apperrors.CodeClustering))
}

func TestClusterHandlesIdenticalVectors(t *testing.T) {
	vectors := make([][]float32, 8)
	for i := range vectors {
		vectors[i] = []float32{0.5, 0.5}
	}
	res := newTestEngine().Cluster(vectors)
	require.False(t, res.Degraded)
	require.Equal(t, 2, res.K)
	requireCoverage(t, vectors, res)
}

func TestFitReturnsExactlyK(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	vectors := blobs(rng, [][]float32{{0, 0}, {5, 5}}, 5, 0.5)

	assignments, err := newTestEngine().Fit(vectors, 4)
	require.NoError(t, err)
	require.Len(t, assignments, len(vectors))
	used := map[int]bool{}
	for _, a := range assignments {
		require.GreaterOrEqual(t, a.ClusterID, 0)
		require.Less(t, a.ClusterID, 4)
		used[a.ClusterID] = true
	}
	require.Len(t, used, 4)

	_, err = newTestEngine().Fit(vectors, 11)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}
