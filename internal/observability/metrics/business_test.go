package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordScrapeRun(t *testing.T) {
	tests := []struct {
		name       string
		sourceName string
		status     string
		duration   time.Duration
	}{
		{
			name:       "successful run",
			sourceName: "City Hall",
			status:     "success",
			duration:   2 * time.Second,
		},
		{
			name:       "failed run",
			sourceName: "Flaky Source",
			status:     "failure",
			duration:   500 * time.Millisecond,
		},
		{
			name:       "empty source name",
			sourceName: "",
			status:     "success",
			duration:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordScrapeRun(tt.sourceName, tt.status, tt.duration)
			})
		})
	}
}

func TestRecordDedupOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		created int
		updated int
		skipped int
	}{
		{
			name:    "mixed batch",
			created: 5,
			updated: 2,
			skipped: 3,
		},
		{
			name: "empty batch",
		},
		{
			name:    "all duplicates",
			skipped: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordDedupOutcomes(tt.created, tt.updated, tt.skipped)
			})
		})
	}
}

func TestRecordFetch(t *testing.T) {
	tests := []struct {
		name     string
		success  bool
		duration time.Duration
	}{
		{
			name:     "fast fetch",
			success:  true,
			duration: 100 * time.Millisecond,
		},
		{
			name:     "slow fetch",
			success:  true,
			duration: 5 * time.Second,
		},
		{
			name:     "failed fetch",
			success:  false,
			duration: 1 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				if tt.success {
					RecordFetchSuccess(tt.duration)
				} else {
					RecordFetchFailed(tt.duration)
				}
			})
		})
	}
}

func TestRecordQueueJob(t *testing.T) {
	for _, state := range []string{"completed", "failed", "retried"} {
		t.Run(state, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordQueueJob(state)
			})
		})
	}
}

func TestUpdateQueueDepth(t *testing.T) {
	tests := []struct {
		name  string
		state string
		depth int64
	}{
		{
			name:  "waiting jobs",
			state: "waiting",
			depth: 12,
		},
		{
			name:  "empty queue",
			state: "waiting",
			depth: 0,
		},
		{
			name:  "delayed retries",
			state: "delayed",
			depth: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateQueueDepth(tt.state, tt.depth)
			})
		})
	}
}

func TestUpdateSourceGauges(t *testing.T) {
	tests := []struct {
		name   string
		total  int
		active int
	}{
		{
			name: "empty registry",
		},
		{
			name:   "some sources",
			total:  10,
			active: 8,
		},
		{
			name:   "all deactivated",
			total:  5,
			active: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateSourceGauges(tt.total, tt.active)
			})
		})
	}
}

func TestRecordDBQuery(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		duration  time.Duration
	}{
		{
			name:      "select query",
			operation: "select_events",
			duration:  10 * time.Millisecond,
		},
		{
			name:      "insert query",
			operation: "insert_event",
			duration:  5 * time.Millisecond,
		},
		{
			name:      "slow query",
			operation: "complex_join",
			duration:  500 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordDBQuery(tt.operation, tt.duration)
			})
		})
	}
}

func TestUpdateDBConnectionStats(t *testing.T) {
	tests := []struct {
		name   string
		active int
		idle   int
	}{
		{
			name:   "no connections",
			active: 0,
			idle:   0,
		},
		{
			name:   "some active",
			active: 5,
			idle:   10,
		},
		{
			name:   "all active",
			active: 25,
			idle:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				UpdateDBConnectionStats(tt.active, tt.idle)
			})
		})
	}
}

func TestMetricsFunctions_AllCallable(t *testing.T) {
	// Test that all functions can be called in sequence without panic
	assert.NotPanics(t, func() {
		RecordScrapeRun("Test Source", "success", 2*time.Second)
		RecordDedupOutcomes(5, 2, 3)
		RecordFetchSuccess(1 * time.Second)
		RecordFetchFailed(1 * time.Second)
		RecordQueueJob("completed")
		UpdateQueueDepth("waiting", 4)
		UpdateSourceGauges(10, 8)
		RecordDBQuery("test_operation", 10*time.Millisecond)
		UpdateDBConnectionStats(5, 10)
	})
}
