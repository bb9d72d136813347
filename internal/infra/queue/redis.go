package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/observability/metrics"
	"event-harvest/internal/usecase/ingest"
)

// Broker key suffixes. Every key is namespaced under Config.KeyPrefix.
const (
	keyWaiting   = "waiting"   // zset, score = priority-ordered rank
	keyDelayed   = "delayed"   // zset, score = ready-at unix millis
	keyCompleted = "completed" // list of terminal records, newest first
	keyFailed    = "failed"    // list of terminal records, newest first
	keyPaused    = "paused"    // existence flag
)

// envelope is the broker payload wrapping one scrape job.
type envelope struct {
	ID         string            `json:"id"`
	Job        *entity.ScrapeJob `json:"job"`
	EnqueuedAt time.Time         `json:"enqueued_at"`
}

// terminalRecord is what the completed and failed logs store.
type terminalRecord struct {
	Envelope   envelope  `json:"envelope"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

// RedisQueue is the durable queue implementation. Jobs wait in a priority
// zset, retries park in a delayed zset until their backoff expires, and
// terminal outcomes land in capped log lists. Worker goroutines poll and
// hand each job to the runner.
type RedisQueue struct {
	cfg    Config
	rdb    *redis.Client
	runner ingest.Runner
	logger *slog.Logger

	active atomic.Int64
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ ingest.Queue = (*RedisQueue)(nil)

// NewRedisQueue connects to the broker and verifies it with a ping. The
// caller must Start the queue before jobs are processed.
func NewRedisQueue(cfg Config, runner ingest.Runner, logger *slog.Logger) (*RedisQueue, error) {
	cfg.fillDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", entity.ErrBrokerUnavailable, cfg.Addr, err)
	}

	return &RedisQueue{
		cfg:    cfg,
		rdb:    rdb,
		runner: runner,
		logger: logger,
		stop:   make(chan struct{}),
	}, nil
}

// Start launches the worker pool. It is safe to call once; the workers run
// until Close or until ctx is canceled.
func (q *RedisQueue) Start(ctx context.Context) {
	for i := 0; i < q.cfg.Concurrency; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	q.logger.Info("queue workers started",
		slog.Int("concurrency", q.cfg.Concurrency),
		slog.String("addr", q.cfg.Addr))
}

func (q *RedisQueue) key(suffix string) string {
	return q.cfg.KeyPrefix + ":" + suffix
}

// Enqueue submits a job to the waiting population. Lower priorities sort
// first; within one priority, earlier submissions sort first.
func (q *RedisQueue) Enqueue(ctx context.Context, job *entity.ScrapeJob) error {
	env := envelope{ID: uuid.NewString(), Job: job, EnqueuedAt: time.Now()}
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.ZAdd(ctx, q.key(keyWaiting), redis.Z{
		Score:  waitingScore(job.Priority, env.EnqueuedAt),
		Member: payload,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue job for %s: %w", job.SourceID, err)
	}
	return nil
}

// waitingScore folds priority and submission time into one sortable score.
// Priority dominates; the millisecond timestamp breaks ties FIFO.
func waitingScore(priority int, at time.Time) float64 {
	return float64(priority)*1e13 + float64(at.UnixMilli())
}

// Pause stops dequeueing. In-flight jobs finish normally.
func (q *RedisQueue) Pause(ctx context.Context) error {
	if err := q.rdb.Set(ctx, q.key(keyPaused), "1", 0).Err(); err != nil {
		return fmt.Errorf("pause queue: %w", err)
	}
	q.logger.Info("queue paused")
	return nil
}

// Resume re-enables dequeueing.
func (q *RedisQueue) Resume(ctx context.Context) error {
	if err := q.rdb.Del(ctx, q.key(keyPaused)).Err(); err != nil {
		return fmt.Errorf("resume queue: %w", err)
	}
	q.logger.Info("queue resumed")
	return nil
}

func (q *RedisQueue) paused(ctx context.Context) bool {
	n, err := q.rdb.Exists(ctx, q.key(keyPaused)).Result()
	return err == nil && n > 0
}

// RetryFailed requeues every job from the failed log with a fresh attempt
// budget and returns how many were moved.
func (q *RedisQueue) RetryFailed(ctx context.Context) (int, error) {
	raw, err := q.rdb.LRange(ctx, q.key(keyFailed), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("read failed jobs: %w", err)
	}
	if len(raw) == 0 {
		return 0, nil
	}

	moved := 0
	for _, item := range raw {
		var rec terminalRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			q.logger.Warn("dropping unreadable failed job record", slog.Any("error", err))
			continue
		}
		rec.Envelope.Job.RetryCount = 0
		if err := q.Enqueue(ctx, rec.Envelope.Job); err != nil {
			return moved, err
		}
		moved++
		metrics.RecordQueueJob("retried")
	}
	if err := q.rdb.Del(ctx, q.key(keyFailed)).Err(); err != nil {
		return moved, fmt.Errorf("clear failed jobs: %w", err)
	}
	return moved, nil
}

// Clean drops terminal records older than grace for one state and returns
// how many were removed.
func (q *RedisQueue) Clean(ctx context.Context, grace time.Duration, state string) (int, error) {
	var key string
	switch state {
	case ingest.StateCompleted:
		key = q.key(keyCompleted)
	case ingest.StateFailed:
		key = q.key(keyFailed)
	default:
		return 0, fmt.Errorf("unknown queue state %q", state)
	}

	raw, err := q.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("read %s jobs: %w", state, err)
	}

	cutoff := time.Now().Add(-grace)
	keep := make([]interface{}, 0, len(raw))
	removed := 0
	for _, item := range raw {
		var rec terminalRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil || rec.FinishedAt.Before(cutoff) {
			removed++
			continue
		}
		keep = append(keep, item)
	}
	if removed == 0 {
		return 0, nil
	}

	pipe := q.rdb.TxPipeline()
	pipe.Del(ctx, key)
	if len(keep) > 0 {
		pipe.RPush(ctx, key, keep...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("rewrite %s jobs: %w", state, err)
	}
	return removed, nil
}

// Stats snapshots the queue populations.
func (q *RedisQueue) Stats(ctx context.Context) (*ingest.QueueStats, error) {
	pipe := q.rdb.Pipeline()
	waiting := pipe.ZCard(ctx, q.key(keyWaiting))
	delayed := pipe.ZCard(ctx, q.key(keyDelayed))
	completed := pipe.LLen(ctx, q.key(keyCompleted))
	failed := pipe.LLen(ctx, q.key(keyFailed))
	paused := pipe.Exists(ctx, q.key(keyPaused))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("queue stats: %w", err)
	}

	stats := &ingest.QueueStats{
		Waiting:   waiting.Val(),
		Active:    q.active.Load(),
		Delayed:   delayed.Val(),
		Completed: completed.Val(),
		Failed:    failed.Val(),
		Paused:    paused.Val() > 0,
	}
	metrics.UpdateQueueDepth("waiting", stats.Waiting)
	metrics.UpdateQueueDepth("active", stats.Active)
	metrics.UpdateQueueDepth("delayed", stats.Delayed)
	return stats, nil
}

func (q *RedisQueue) Mode() ingest.Mode {
	return ingest.ModeQueue
}

// Close stops the workers and closes the broker connection. In-flight jobs
// finish before Close returns.
func (q *RedisQueue) Close() error {
	q.once.Do(func() { close(q.stop) })
	q.wg.Wait()
	return q.rdb.Close()
}

func (q *RedisQueue) worker(ctx context.Context) {
	defer q.wg.Done()
	ticker := time.NewTicker(q.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stop:
			return
		case <-ticker.C:
			q.drain(ctx)
		}
	}
}

// drain processes waiting jobs until the queue is empty or paused.
func (q *RedisQueue) drain(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stop:
			return
		default:
		}
		if q.paused(ctx) {
			return
		}
		q.promoteDelayed(ctx)

		popped, err := q.rdb.ZPopMin(ctx, q.key(keyWaiting), 1).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				q.logger.Error("dequeue failed", slog.Any("error", err))
			}
			return
		}
		if len(popped) == 0 {
			return
		}

		member, ok := popped[0].Member.(string)
		if !ok {
			continue
		}
		var env envelope
		if err := json.Unmarshal([]byte(member), &env); err != nil {
			q.logger.Warn("dropping unreadable job payload", slog.Any("error", err))
			continue
		}
		q.process(ctx, env)
	}
}

// promoteDelayed moves due retries from the delayed zset back to waiting.
func (q *RedisQueue) promoteDelayed(ctx context.Context) {
	now := float64(time.Now().UnixMilli())
	due, err := q.rdb.ZRangeByScore(ctx, q.key(keyDelayed), &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil || len(due) == 0 {
		return
	}

	for _, member := range due {
		var env envelope
		if err := json.Unmarshal([]byte(member), &env); err != nil {
			q.rdb.ZRem(ctx, q.key(keyDelayed), member)
			continue
		}
		pipe := q.rdb.TxPipeline()
		pipe.ZRem(ctx, q.key(keyDelayed), member)
		pipe.ZAdd(ctx, q.key(keyWaiting), redis.Z{
			Score:  waitingScore(env.Job.Priority, env.EnqueuedAt),
			Member: member,
		})
		if _, err := pipe.Exec(ctx); err != nil {
			q.logger.Error("failed to promote delayed job", slog.Any("error", err))
		}
	}
}

func (q *RedisQueue) process(ctx context.Context, env envelope) {
	q.active.Add(1)
	defer q.active.Add(-1)

	runCtx, cancel := context.WithTimeout(ctx, q.cfg.JobTimeout)
	defer cancel()

	_, err := q.runner(runCtx, env.Job)
	if err == nil {
		q.recordTerminal(ctx, q.key(keyCompleted), env, "")
		q.terminal(env.Job.SourceID, entity.JobCompleted)
		metrics.RecordQueueJob("completed")
		return
	}

	env.Job.RetryCount++
	if env.Job.RetryCount < q.cfg.MaxAttempts {
		q.scheduleRetry(ctx, env)
		return
	}

	q.recordTerminal(ctx, q.key(keyFailed), env, err.Error())
	q.terminal(env.Job.SourceID, entity.JobFailed)
	metrics.RecordQueueJob("failed")
	q.logger.Error("job failed permanently",
		slog.String("job_id", env.ID),
		slog.String("source_id", env.Job.SourceID),
		slog.Int("attempts", env.Job.RetryCount),
		slog.Any("error", err))
}

// scheduleRetry parks the job in the delayed zset with exponential backoff.
func (q *RedisQueue) scheduleRetry(ctx context.Context, env envelope) {
	delay := time.Duration(float64(q.cfg.Backoff) * math.Pow(2, float64(env.Job.RetryCount-1)))
	readyAt := time.Now().Add(delay)

	payload, err := json.Marshal(env)
	if err != nil {
		q.logger.Error("failed to marshal retry payload", slog.Any("error", err))
		return
	}
	if err := q.rdb.ZAdd(ctx, q.key(keyDelayed), redis.Z{
		Score:  float64(readyAt.UnixMilli()),
		Member: payload,
	}).Err(); err != nil {
		q.logger.Error("failed to schedule retry",
			slog.String("job_id", env.ID), slog.Any("error", err))
		return
	}
	q.logger.Warn("job scheduled for retry",
		slog.String("job_id", env.ID),
		slog.String("source_id", env.Job.SourceID),
		slog.Int("attempt", env.Job.RetryCount),
		slog.Duration("delay", delay))
}

func (q *RedisQueue) recordTerminal(ctx context.Context, key string, env envelope, errMsg string) {
	rec := terminalRecord{Envelope: env, Error: errMsg, FinishedAt: time.Now()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return
	}
	pipe := q.rdb.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, int64(q.cfg.Retention)-1)
	if _, err := pipe.Exec(ctx); err != nil {
		q.logger.Error("failed to record terminal job", slog.Any("error", err))
	}
}

func (q *RedisQueue) terminal(sourceID string, status entity.JobStatus) {
	if q.cfg.OnTerminal != nil {
		q.cfg.OnTerminal(sourceID, status)
	}
}
