package worker

import (
	"event-harvest/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the harvest worker.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// worker-specific metrics for scrape cycle tracking.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_validation_errors_total: Total validation errors by field
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Worker-specific metrics:
//   - worker_scrape_cycle_runs_total: Total scrape cycles by status (success/failure)
//   - worker_scrape_cycle_duration_seconds: Duration histogram of scrape cycles
//   - worker_scrape_cycle_sources_processed_total: Total sources processed across cycles
//   - worker_scrape_cycle_last_success_timestamp: Unix timestamp of last successful cycle
type WorkerMetrics struct {
	*config.ConfigMetrics

	// CycleRunsTotal counts the total number of scrape cycles.
	// Labels: status (success, failure)
	CycleRunsTotal *prometheus.CounterVec

	// CycleDurationSeconds measures the duration of a full scrape cycle.
	// Buckets cover 1s to 30m, matching typical cycle durations.
	CycleDurationSeconds prometheus.Histogram

	// CycleSourcesProcessedTotal counts sources processed across all cycles.
	CycleSourcesProcessedTotal prometheus.Counter

	// CycleLastSuccessTimestamp records the Unix timestamp of the last successful cycle.
	CycleLastSuccessTimestamp prometheus.Gauge
}

// NewWorkerMetrics creates a new WorkerMetrics instance with all metrics initialized.
// Metrics are registered automatically via promauto.
func NewWorkerMetrics() *WorkerMetrics {
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics("worker"),

		CycleRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_scrape_cycle_runs_total",
			Help: "Total number of scrape cycles by status (success/failure)",
		}, []string{"status"}),

		CycleDurationSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_scrape_cycle_duration_seconds",
			Help:    "Duration of a full scrape cycle in seconds",
			Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
		}),

		CycleSourcesProcessedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "worker_scrape_cycle_sources_processed_total",
			Help: "Total number of sources processed across all scrape cycles",
		}),

		CycleLastSuccessTimestamp: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "worker_scrape_cycle_last_success_timestamp",
			Help: "Unix timestamp of the last successful scrape cycle",
		}),
	}
}

// MustRegister is a no-op method for API compatibility.
// Metrics are automatically registered via promauto when created in NewWorkerMetrics.
func (m *WorkerMetrics) MustRegister() {
	// No-op: metrics are auto-registered via promauto
}

// RecordCycleRun increments the cycle run counter for the given status.
// Status should be either "success" or "failure".
func (m *WorkerMetrics) RecordCycleRun(status string) {
	m.CycleRunsTotal.WithLabelValues(status).Inc()
}

// RecordCycleDuration observes the duration of a scrape cycle in seconds.
func (m *WorkerMetrics) RecordCycleDuration(seconds float64) {
	m.CycleDurationSeconds.Observe(seconds)
}

// RecordSourcesProcessed adds the number of sources processed to the total counter.
func (m *WorkerMetrics) RecordSourcesProcessed(count int) {
	m.CycleSourcesProcessedTotal.Add(float64(count))
}

// RecordLastSuccess records the current time as the last successful cycle completion.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.CycleLastSuccessTimestamp.SetToCurrentTime()
}
