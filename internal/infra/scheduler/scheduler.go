// Package scheduler discovers due sources on a fixed tick and submits scrape
// jobs for them. Due discovery is polling-based: each tick asks the source
// registry which sources have crossed their NextScrapeAt, so a schedule
// change takes effect on the next tick without any timer bookkeeping.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/usecase/ingest"
	"event-harvest/internal/usecase/sourcemgr"
)

// DefaultTickInterval is how often the scheduler polls for due sources.
const DefaultTickInterval = time.Minute

// ErrAlreadyScheduled is returned by Trigger when the source already has a
// job in flight.
var ErrAlreadyScheduled = errors.New("source already has a job in flight")

// Metrics is the scheduler's operational snapshot.
type Metrics struct {
	IsRunning       bool       `json:"is_running"`
	NextTickAt      *time.Time `json:"next_tick_at,omitempty"`
	ActiveSchedules int        `json:"active_schedules"`
}

// Scheduler runs the polling tick and feeds the job queue.
type Scheduler struct {
	interval time.Duration
	sources  *sourcemgr.Service
	queue    ingest.Queue
	inflight *InflightSet
	logger   *slog.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	entryID cron.EntryID
	running bool
}

// New creates a stopped scheduler. inflight is shared with the queue's
// terminal hook so finished jobs release their source's slot.
func New(sources *sourcemgr.Service, queue ingest.Queue, inflight *InflightSet, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	if inflight == nil {
		inflight = NewInflightSet()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		interval: interval,
		sources:  sources,
		queue:    queue,
		inflight: inflight,
		logger:   logger,
	}
}

// Inflight exposes the shared in-flight set for wiring the terminal hook.
func (s *Scheduler) Inflight() *InflightSet {
	return s.inflight
}

// cronLogger adapts slog to the cron logger interface so skipped ticks show
// up in the worker's logs.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, slog.Any("details", keysAndValues))
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, slog.Any("error", err), slog.Any("details", keysAndValues))
}

// Start begins ticking. Starting a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	// 直接実行モードでは Enqueue が同期で走るので、前の tick が終わるまで次をスキップする
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.logger})))
	id, err := c.AddFunc(fmt.Sprintf("@every %s", s.interval), func() {
		s.tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("register scheduler tick: %w", err)
	}
	c.Start()

	s.cron = c
	s.entryID = id
	s.running = true
	s.logger.Info("scheduler started", slog.Duration("tick_interval", s.interval))
	return nil
}

// Stop halts ticking. Jobs already submitted keep running; their in-flight
// slots are released by the queue's terminal hook as usual.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.cron = nil
	s.running = false
	s.logger.Info("scheduler stopped")
}

// Restart stops and starts the scheduler, picking up a fresh tick phase.
func (s *Scheduler) Restart(ctx context.Context) error {
	s.Stop()
	return s.Start(ctx)
}

// Running reports whether the tick loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Metrics snapshots the scheduler state.
func (s *Scheduler) Metrics() *Metrics {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &Metrics{
		IsRunning:       s.running,
		ActiveSchedules: s.inflight.Len(),
	}
	if s.running {
		next := s.cron.Entry(s.entryID).Next
		if !next.IsZero() {
			m.NextTickAt = &next
		}
	}
	return m
}

// Trigger submits a manual, queue-jumping job for one source. It returns
// ErrAlreadyScheduled when the source already has a job in flight.
func (s *Scheduler) Trigger(ctx context.Context, source *entity.EventSource) error {
	if !s.inflight.TryAdd(source.ID) {
		return ErrAlreadyScheduled
	}
	job := &entity.ScrapeJob{
		SourceID:   source.ID,
		SourceName: source.Name,
		Priority:   entity.PriorityManual,
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.inflight.Remove(source.ID)
		return fmt.Errorf("enqueue manual job: %w", err)
	}
	s.logger.Info("manual scrape triggered",
		slog.String("source_id", source.ID),
		slog.String("source_name", source.Name))
	return nil
}

// tick submits one scheduled job per due source, skipping sources that are
// already in flight.
func (s *Scheduler) tick(ctx context.Context) {
	due, err := s.sources.DueForScraping(ctx)
	if err != nil {
		s.logger.Error("failed to list due sources", slog.Any("error", err))
		return
	}
	if len(due) == 0 {
		return
	}

	submitted := 0
	for _, src := range due {
		if !s.inflight.TryAdd(src.ID) {
			continue
		}
		job := &entity.ScrapeJob{
			SourceID:   src.ID,
			SourceName: src.Name,
			Priority:   entity.PriorityScheduled,
		}
		if err := s.queue.Enqueue(ctx, job); err != nil {
			s.inflight.Remove(src.ID)
			s.logger.Error("failed to enqueue scheduled job",
				slog.String("source_id", src.ID), slog.Any("error", err))
			continue
		}
		submitted++
	}
	if submitted > 0 {
		s.logger.Info("scheduled due sources",
			slog.Int("due", len(due)), slog.Int("submitted", submitted))
	}
}
