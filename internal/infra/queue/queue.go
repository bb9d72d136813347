package queue

import (
	"context"
	"log/slog"

	"event-harvest/internal/usecase/ingest"
)

// New probes the broker once and returns the queue implementation for this
// process lifetime: the durable Redis queue when the broker answers, the
// direct executor otherwise. The choice is made exactly once; a broker that
// comes up later is picked up on the next process start.
func New(ctx context.Context, cfg Config, runner ingest.Runner, logger *slog.Logger) ingest.Queue {
	if logger == nil {
		logger = slog.Default()
	}

	rq, err := NewRedisQueue(cfg, runner, logger)
	if err != nil {
		logger.Warn("job broker unreachable, falling back to direct mode",
			slog.String("addr", cfg.Addr),
			slog.Any("error", err))
		return NewDirectQueue(cfg, runner, logger)
	}

	rq.Start(ctx)
	logger.Info("job queue connected", slog.String("addr", cfg.Addr))
	return rq
}
