package ingest

import (
	"context"
	"time"

	"event-harvest/internal/domain/entity"
)

// Mode identifies which queue implementation is serving the pipeline.
type Mode string

const (
	// ModeQueue means jobs flow through the durable broker with retries,
	// priorities, and job history.
	ModeQueue Mode = "queue"

	// ModeDirect means the broker was unreachable at startup and jobs run
	// synchronously in-process. Ingestion still works; queue semantics
	// (retry, pause, history) do not.
	ModeDirect Mode = "direct"
)

// Job states used by Clean and exposed through Stats.
const (
	StateCompleted = "completed"
	StateFailed    = "failed"
)

// Runner executes one scrape job. The queue owns retry and backoff; the
// runner only reports the outcome.
type Runner func(ctx context.Context, job *entity.ScrapeJob) (*entity.ScrapeJobResult, error)

// QueueStats is a snapshot of the queue's populations.
type QueueStats struct {
	Waiting   int64 `json:"waiting"`
	Active    int64 `json:"active"`
	Delayed   int64 `json:"delayed"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Paused    bool  `json:"paused"`
}

// Queue accepts scrape jobs and hands them to a Runner. Two implementations
// exist: a broker-backed queue and a synchronous direct executor used when
// the broker is unreachable. Callers select behavior by Mode, never by type
// assertion.
type Queue interface {
	// Enqueue submits a job. Lower Priority values are dequeued first.
	Enqueue(ctx context.Context, job *entity.ScrapeJob) error

	// Pause stops dequeueing; already-running jobs finish. Resume undoes it.
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error

	// RetryFailed moves every failed job back to the waiting population and
	// returns how many were requeued.
	RetryFailed(ctx context.Context) (int, error)

	// Clean drops terminal job records older than grace for the given state
	// (StateCompleted or StateFailed) and returns how many were removed.
	Clean(ctx context.Context, grace time.Duration, state string) (int, error)

	Stats(ctx context.Context) (*QueueStats, error)
	Mode() Mode
	Close() error
}
