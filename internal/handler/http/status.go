package http

import (
	"context"
	"net/http"

	"event-harvest/internal/handler/http/respond"
	"event-harvest/internal/infra/scheduler"
	"event-harvest/internal/usecase/ingest"
)

// HealthLimits are the failure ceilings for the derived healthy flag.
// Crossing either one flips /status to unhealthy even while the scheduler
// keeps ticking.
type HealthLimits struct {
	// MaxFailedJobs bounds both the queue's failed list and the recent
	// job-history failure count.
	MaxFailedJobs int64
	// MaxErrorRate bounds the recent failure ratio (0..1).
	MaxErrorRate float64
}

// DefaultHealthLimits returns the production defaults.
func DefaultHealthLimits() HealthLimits {
	return HealthLimits{MaxFailedJobs: 10, MaxErrorRate: 0.2}
}

// StatusResponse is the operational snapshot served on /status.
type StatusResponse struct {
	Healthy   bool                    `json:"healthy"`
	Mode      ingest.Mode             `json:"mode"`
	Scheduler *scheduler.Metrics      `json:"scheduler"`
	Queue     *ingest.QueueStats      `json:"queue,omitempty"`
	Pipeline  *ingest.PipelineMetrics `json:"pipeline,omitempty"`
}

// PipelineMetricsSource yields the ingest roll-up for the snapshot.
// Satisfied by *ingest.Service.
type PipelineMetricsSource interface {
	GetMetrics(ctx context.Context) (*ingest.PipelineMetrics, error)
}

// StatusHandler aggregates scheduler, queue, and pipeline state into one
// operator-facing snapshot. Healthy means the scheduler is ticking, the
// queue is accepting work, and failures stay under Limits.
type StatusHandler struct {
	Pipeline PipelineMetricsSource
	Queue    ingest.Queue
	Sched    *scheduler.Scheduler
	Limits   HealthLimits
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limits := h.limits()

	resp := StatusResponse{
		Mode:      h.Queue.Mode(),
		Scheduler: h.Sched.Metrics(),
	}
	healthy := h.Sched.Running()

	stats, err := h.Queue.Stats(ctx)
	if err != nil {
		// 統計が取れなくてもスナップショット自体は返す
		healthy = false
	} else {
		resp.Queue = stats
		if stats.Paused || stats.Failed >= limits.MaxFailedJobs {
			healthy = false
		}
	}

	if h.Pipeline != nil {
		if metrics, err := h.Pipeline.GetMetrics(ctx); err == nil {
			resp.Pipeline = metrics
			UpdateSourcesTotal(metrics.Sources.TotalSources)
			if int64(metrics.JobsFailed) >= limits.MaxFailedJobs || metrics.ErrorRate >= limits.MaxErrorRate {
				healthy = false
			}
		}
	}

	resp.Healthy = healthy
	respond.JSON(w, http.StatusOK, resp)
}

func (h StatusHandler) limits() HealthLimits {
	limits := h.Limits
	defaults := DefaultHealthLimits()
	if limits.MaxFailedJobs <= 0 {
		limits.MaxFailedJobs = defaults.MaxFailedJobs
	}
	if limits.MaxErrorRate <= 0 {
		limits.MaxErrorRate = defaults.MaxErrorRate
	}
	return limits
}
