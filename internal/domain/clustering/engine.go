package clustering

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	apperrors "github.com/yanqian/faq-clustering/pkg/errors"
)

// minClusterable is the smallest input that admits k >= 2 with n/2 >= 2.
const minClusterable = 4

// Engine partitions embeddings into clusters with representatives.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// NewEngine constructs an Engine.
func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{cfg: cfg.withDefaults(), logger: logger.With("component", "clustering.engine")}
}

// Fit assigns every vector to one of exactly k clusters.
func (e *Engine) Fit(vectors [][]float32, k int) ([]Assignment, error) {
	data, err := toMatrix(vectors)
	if err != nil {
		return nil, err
	}
	n, _ := data.Dims()
	if k < 1 || k > n {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("k=%d outside [1, %d]", k, n), nil)
	}
	f := kmeans(data, k, e.cfg)
	return toAssignments(f.labels), nil
}

// Cluster selects k, fits k-means and describes every realized cluster.
// Failures never escape: the result degrades to one cluster holding all items.
func (e *Engine) Cluster(vectors [][]float32) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			err := apperrors.Wrap(apperrors.CodeClustering, fmt.Sprintf("clustering panicked: %v", r), nil)
			result = e.degrade(vectors, nil, err)
		}
	}()

	n := len(vectors)
	if n < minClusterable {
		err := apperrors.Wrap(apperrors.CodeDegenerateCorpus, fmt.Sprintf("%d items is too few to cluster", n), nil)
		data, _ := toMatrix(vectors)
		return e.degrade(vectors, data, err)
	}
	data, err := toMatrix(vectors)
	if err != nil {
		return e.degrade(vectors, nil, err)
	}

	sel := selectK(data, pairwiseDistances(data), e.cfg)
	if !sel.ok {
		sel.fit = kmeans(data, sel.k, e.cfg)
	}

	buckets := make([][]int, sel.k)
	for i, l := range sel.fit.labels {
		buckets[l] = append(buckets[l], i)
	}
	clusters := make([]Cluster, 0, sel.k)
	for id, members := range buckets {
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, describe(data, id, members))
	}

	result = Result{
		K:           sel.k,
		Assignments: toAssignments(sel.fit.labels),
		Clusters:    clusters,
		Silhouette:  sel.score,
	}
	if result.MemberCount() != n {
		err := apperrors.Wrap(apperrors.CodeClustering, "cluster membership does not cover input", nil)
		return e.degrade(vectors, data, err)
	}
	e.logger.Debug("clustering complete", "items", n, "k", sel.k, "silhouette", sel.score)
	return result
}

// degrade builds the single-cluster fallback. data may be nil when the input
// could not be converted.
func (e *Engine) degrade(vectors [][]float32, data *mat.Dense, cause error) Result {
	e.logger.Warn("clustering degraded to single cluster", "items", len(vectors), "error", cause)
	members := make([]int, len(vectors))
	labels := make([]int, len(vectors))
	for i := range members {
		members[i] = i
	}
	cluster := Cluster{ID: 0, Members: members, Representative: -1}
	if len(members) > 0 {
		cluster.Representative = 0
		if data != nil {
			cluster = describe(data, 0, members)
		}
	}
	cluster.AvgIntraSimilarity = 0
	return Result{
		K:           1,
		Assignments: toAssignments(labels),
		Clusters:    []Cluster{cluster},
		Degraded:    true,
		Err:         cause,
	}
}

func toAssignments(labels []int) []Assignment {
	out := make([]Assignment, len(labels))
	for i, l := range labels {
		out[i] = Assignment{ItemIndex: i, ClusterID: l}
	}
	return out
}
