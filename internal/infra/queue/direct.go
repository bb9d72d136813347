package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/observability/metrics"
	"event-harvest/internal/usecase/ingest"
)

// DirectQueue runs every job synchronously in-process. It is the fallback
// when the broker is unreachable: ingestion keeps working, but there is no
// waiting population, no retry, and no terminal log. Queue-only operations
// report ErrQueueUnavailable instead of pretending.
type DirectQueue struct {
	cfg    Config
	runner ingest.Runner
	logger *slog.Logger
}

var _ ingest.Queue = (*DirectQueue)(nil)

// NewDirectQueue creates the synchronous executor.
func NewDirectQueue(cfg Config, runner ingest.Runner, logger *slog.Logger) *DirectQueue {
	cfg.fillDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectQueue{cfg: cfg, runner: runner, logger: logger}
}

// Enqueue executes the job immediately on the caller's goroutine. The job's
// own failure is reported through the terminal hook, not the return value;
// Enqueue only fails when the job cannot be started at all.
func (q *DirectQueue) Enqueue(ctx context.Context, job *entity.ScrapeJob) error {
	if job == nil {
		return fmt.Errorf("nil job")
	}
	runCtx, cancel := context.WithTimeout(ctx, q.cfg.JobTimeout)
	defer cancel()

	_, err := q.runner(runCtx, job)
	status := entity.JobCompleted
	if err != nil {
		status = entity.JobFailed
		metrics.RecordQueueJob("failed")
		q.logger.Warn("direct-mode job failed",
			slog.String("source_id", job.SourceID),
			slog.Any("error", err))
	} else {
		metrics.RecordQueueJob("completed")
	}
	if q.cfg.OnTerminal != nil {
		q.cfg.OnTerminal(job.SourceID, status)
	}
	return nil
}

func (q *DirectQueue) Pause(context.Context) error {
	return ingest.ErrQueueUnavailable
}

func (q *DirectQueue) Resume(context.Context) error {
	return ingest.ErrQueueUnavailable
}

func (q *DirectQueue) RetryFailed(context.Context) (int, error) {
	return 0, ingest.ErrQueueUnavailable
}

func (q *DirectQueue) Clean(context.Context, time.Duration, string) (int, error) {
	return 0, ingest.ErrQueueUnavailable
}

// Stats reports an empty snapshot: direct mode has no populations.
func (q *DirectQueue) Stats(context.Context) (*ingest.QueueStats, error) {
	return &ingest.QueueStats{}, nil
}

func (q *DirectQueue) Mode() ingest.Mode {
	return ingest.ModeDirect
}

func (q *DirectQueue) Close() error {
	return nil
}
