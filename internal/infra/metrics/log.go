package metrics

import (
	"log/slog"
	"time"

	"github.com/yanqian/faq-clustering/internal/domain/faq"
)

// LogSink writes recommendation signals as structured log lines.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink constructs the sink.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger.With("component", "metrics.log")}
}

func (s *LogSink) RecordOperation(tenantID string, source faq.DataSource, duration time.Duration, success bool) {
	s.logger.Info("recommendation operation",
		"tenant_id", tenantID,
		"source", source,
		"duration_ms", duration.Milliseconds(),
		"success", success,
	)
}

func (s *LogSink) RecordQuality(tenantID string, clusterCount int, avgSize, cohesion float64) {
	s.logger.Info("recommendation quality",
		"tenant_id", tenantID,
		"cluster_count", clusterCount,
		"avg_size", avgSize,
		"cohesion", cohesion,
	)
}

func (s *LogSink) RecordError(tenantID string, kind string) {
	s.logger.Warn("recommendation error", "tenant_id", tenantID, "error_kind", kind)
}

var _ faq.MetricsSink = (*LogSink)(nil)
