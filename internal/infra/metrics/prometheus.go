package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// PrometheusSink records recommendation signals on a private registry.
type PrometheusSink struct {
	registry *prometheus.Registry

	operations     *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	clusterCount   *prometheus.GaugeVec
	avgClusterSize *prometheus.GaugeVec
	cohesion       *prometheus.GaugeVec
	errors         *prometheus.CounterVec

	// EmbeddingCache counts embedding cache lookups by result (hit/miss).
	EmbeddingCache *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
}

// NewPrometheusSink builds and registers every collector under namespace.
func NewPrometheusSink(namespace string) *PrometheusSink {
	if namespace == "" {
		namespace = "faq"
	}
	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_operations_total",
			Help:      "Recommendation computations by tenant, data source and outcome",
		}, []string{"tenant", "source", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendation_duration_seconds",
			Help:      "Recommendation computation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		clusterCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_count",
			Help:      "Clusters realized by the latest computation",
		}, []string{"tenant"}),
		avgClusterSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_avg_size",
			Help:      "Average questions per cluster in the latest computation",
		}, []string{"tenant"}),
		cohesion: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cluster_cohesion",
			Help:      "Mean intra-cluster similarity of the latest computation",
		}, []string{"tenant"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendation_errors_total",
			Help:      "Classified recommendation failures",
		}, []string{"tenant", "kind"}),
		EmbeddingCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		}, []string{"result"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	s.registry.MustRegister(
		s.operations, s.duration, s.clusterCount, s.avgClusterSize, s.cohesion, s.errors,
		s.EmbeddingCache, s.httpRequests, s.httpDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return s
}

func (s *PrometheusSink) RecordOperation(tenantID string, source faq.DataSource, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "degraded"
	}
	s.operations.WithLabelValues(tenantID, string(source), status).Inc()
	s.duration.WithLabelValues(string(source)).Observe(duration.Seconds())
}

func (s *PrometheusSink) RecordQuality(tenantID string, clusterCount int, avgSize, cohesion float64) {
	s.clusterCount.WithLabelValues(tenantID).Set(float64(clusterCount))
	s.avgClusterSize.WithLabelValues(tenantID).Set(avgSize)
	s.cohesion.WithLabelValues(tenantID).Set(cohesion)
}

func (s *PrometheusSink) RecordError(tenantID string, kind string) {
	s.errors.WithLabelValues(tenantID, kind).Inc()
}

// ObserveHTTP records one served request.
func (s *PrometheusSink) ObserveHTTP(method, route string, status int, duration time.Duration) {
	s.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	s.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{Registry: s.registry})
}

var _ faq.MetricsSink = (*PrometheusSink)(nil)
