package worker

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWorkerMetrics(t *testing.T) {
	// Verify that globalTestMetrics (created via NewWorkerMetrics) is initialized correctly
	// We use the global instance to avoid duplicate Prometheus registration
	metrics := globalTestMetrics

	if metrics == nil {
		t.Fatal("NewWorkerMetrics returned nil")
	}

	if metrics.ConfigMetrics == nil {
		t.Error("ConfigMetrics is nil")
	}

	if metrics.CycleRunsTotal == nil {
		t.Error("CycleRunsTotal is nil")
	}

	if metrics.CycleDurationSeconds == nil {
		t.Error("CycleDurationSeconds is nil")
	}

	if metrics.CycleSourcesProcessedTotal == nil {
		t.Error("CycleSourcesProcessedTotal is nil")
	}

	if metrics.CycleLastSuccessTimestamp == nil {
		t.Error("CycleLastSuccessTimestamp is nil")
	}

	// Should not panic (metrics are auto-registered via promauto)
	metrics.MustRegister()
}

func TestWorkerMetrics_RecordCycleRun(t *testing.T) {
	// Create a custom registry for isolated testing
	reg := prometheus.NewRegistry()

	counter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "test_worker_scrape_cycle_runs_total",
		Help: "Test counter",
	}, []string{"status"})
	reg.MustRegister(counter)

	metrics := &WorkerMetrics{
		CycleRunsTotal: counter,
	}

	metrics.RecordCycleRun("success")
	metrics.RecordCycleRun("success")
	metrics.RecordCycleRun("failure")

	successCount := testutil.ToFloat64(metrics.CycleRunsTotal.WithLabelValues("success"))
	if successCount != 2 {
		t.Errorf("Expected success count 2, got %f", successCount)
	}

	failureCount := testutil.ToFloat64(metrics.CycleRunsTotal.WithLabelValues("failure"))
	if failureCount != 1 {
		t.Errorf("Expected failure count 1, got %f", failureCount)
	}
}

func TestWorkerMetrics_RecordCycleDuration(t *testing.T) {
	reg := prometheus.NewRegistry()

	histogram := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_worker_scrape_cycle_duration_seconds",
		Help:    "Test histogram",
		Buckets: []float64{1, 5, 30, 60, 300, 900, 1800},
	})
	reg.MustRegister(histogram)

	metrics := &WorkerMetrics{
		CycleDurationSeconds: histogram,
	}

	metrics.RecordCycleDuration(10.5)
	metrics.RecordCycleDuration(120.0)
	metrics.RecordCycleDuration(600.0)

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	found := false
	for _, mf := range metricFamilies {
		if mf.GetName() == "test_worker_scrape_cycle_duration_seconds" {
			found = true
			if len(mf.GetMetric()) == 0 {
				t.Error("Expected metrics to be recorded")
			}
			if mf.GetMetric()[0].GetHistogram().GetSampleCount() != 3 {
				t.Errorf("Expected 3 observations, got %d", mf.GetMetric()[0].GetHistogram().GetSampleCount())
			}
		}
	}

	if !found {
		t.Error("Histogram metric not found in registry")
	}
}

func TestWorkerMetrics_RecordSourcesProcessed(t *testing.T) {
	reg := prometheus.NewRegistry()

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_worker_scrape_cycle_sources_processed_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)

	metrics := &WorkerMetrics{
		CycleSourcesProcessedTotal: counter,
	}

	metrics.RecordSourcesProcessed(5)
	metrics.RecordSourcesProcessed(3)

	total := testutil.ToFloat64(metrics.CycleSourcesProcessedTotal)
	if total != 8 {
		t.Errorf("Expected total 8, got %f", total)
	}
}

func TestWorkerMetrics_RecordLastSuccess(t *testing.T) {
	reg := prometheus.NewRegistry()

	gauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "test_worker_scrape_cycle_last_success_timestamp",
		Help: "Test gauge",
	})
	reg.MustRegister(gauge)

	metrics := &WorkerMetrics{
		CycleLastSuccessTimestamp: gauge,
	}

	metrics.RecordLastSuccess()

	value := testutil.ToFloat64(metrics.CycleLastSuccessTimestamp)
	if value <= 0 {
		t.Errorf("Expected positive timestamp, got %f", value)
	}
}
