package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/observability/metrics"
	"event-harvest/internal/observability/tracing"
	"event-harvest/internal/repository"
	"event-harvest/internal/usecase/dedup"
	"event-harvest/internal/usecase/sourcemgr"
)

// DefaultConcurrency bounds how many sources ScrapeAllSources works on at
// once. Sources are independent partitions, so the bound exists only to keep
// outbound fetch pressure reasonable.
const DefaultConcurrency = 4

// historyWindow is how many recent job results feed the error-rate metric.
const historyWindow = 50

// Config holds the tunable parameters of the coordinator.
type Config struct {
	// Concurrency is the fan-out width of ScrapeAllSources.
	Concurrency int

	// Dedup carries the similarity thresholds for the matching pass.
	Dedup dedup.Config
}

// DefaultConfig returns the coordinator defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency: DefaultConcurrency,
		Dedup:       dedup.DefaultConfig(),
	}
}

// PipelineMetrics aggregates the operational view of the whole pipeline.
type PipelineMetrics struct {
	Sources            *sourcemgr.Metrics `json:"sources"`
	JobsSucceeded      int                `json:"jobs_succeeded"`
	JobsFailed         int                `json:"jobs_failed"`
	ErrorRate          float64            `json:"error_rate"`
	EventsCreatedToday int64              `json:"events_created_today"`
}

// Service coordinates one full ingestion cycle per source: extract, dedupe,
// persist, and record the outcome against the source's health counters.
type Service struct {
	cfg       Config
	sources   *sourcemgr.Service
	events    repository.EventRepository
	history   repository.JobHistoryRepository
	extractor Extractor
	logger    *slog.Logger
}

// NewService wires the coordinator. history may be nil when job auditing is
// not wanted (direct mode keeps its own in-memory trail instead).
func NewService(
	sources *sourcemgr.Service,
	events repository.EventRepository,
	history repository.JobHistoryRepository,
	extractor Extractor,
	cfg Config,
	logger *slog.Logger,
) *Service {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Dedup == (dedup.Config{}) {
		cfg.Dedup = dedup.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:       cfg,
		sources:   sources,
		events:    events,
		history:   history,
		extractor: extractor,
		logger:    logger,
	}
}

// Run executes one scrape job. It is the Runner handed to the queue.
func (s *Service) Run(ctx context.Context, job *entity.ScrapeJob) (*entity.ScrapeJobResult, error) {
	return s.ScrapeSource(ctx, job.SourceID)
}

// ScrapeSource runs the full ingestion cycle for one source.
//
// Candidate-level problems (malformed records, duplicates) are absorbed into
// the result counters. Source-level problems (fetch failure) produce a failed
// result, bump the source's error counter, and return an error so the queue
// can retry. Store-level problems fail the job without touching the counter:
// the source did nothing wrong.
func (s *Service) ScrapeSource(ctx context.Context, sourceID string) (*entity.ScrapeJobResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "ingest.scrape_source")
	defer span.End()
	span.SetAttributes(attribute.String("source.id", sourceID))

	started := time.Now()
	result := &entity.ScrapeJobResult{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		StartedAt: started,
	}

	source, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("resolve source: %w", err)
	}
	if source == nil {
		return nil, sourcemgr.ErrSourceNotFound
	}
	if !source.Active {
		return nil, fmt.Errorf("%w: %s", ErrSourceInactive, source.Name)
	}
	span.SetAttributes(attribute.String("source.name", source.Name))

	candidates, err := s.extractor.Extract(ctx, source)
	if err != nil {
		fetchErr := fmt.Errorf("%w: %s: %w", entity.ErrFetchFailed, source.Name, err)
		s.finishFailed(ctx, result, source, fetchErr, true)
		return result, fetchErr
	}
	result.EventsFound = len(candidates)

	existing, err := s.events.ListBySource(ctx, sourceID)
	if err != nil {
		storeErr := fmt.Errorf("snapshot events for %s: %w", source.Name, err)
		s.finishFailed(ctx, result, source, storeErr, false)
		return result, storeErr
	}

	// 既存イベントのハッシュ索引。同一バッチ内の重複もここで弾く
	index := make(map[string]*entity.Event, len(existing))
	for _, ev := range existing {
		h := ev.ScrapeHash
		if h == "" {
			h = dedup.EventHash(ev)
		}
		index[h] = ev
	}

	for _, c := range candidates {
		if c == nil {
			result.EventsSkipped++
			continue
		}
		// 抽出側は SourceID を埋めない。検証前に必ず付与する
		c.SourceID = sourceID
		if !c.Valid() {
			result.EventsSkipped++
			continue
		}
		c.ScrapeHash = dedup.GenerateEventHash(c)
		if c.ExtractedAt.IsZero() {
			c.ExtractedAt = time.Now()
		}

		// fast path: exact duplicate by identity hash
		if _, dup := index[c.ScrapeHash]; dup {
			result.EventsSkipped++
			continue
		}

		if matches := dedup.FindSimilarEvents(c, existing, s.cfg.Dedup); len(matches) > 0 {
			target := findEvent(existing, matches[0].EventID)
			merged := dedup.MergeEventData(target, c)
			merged.UpdatedAt = time.Now()
			if err := s.events.Update(ctx, merged); err != nil {
				storeErr := fmt.Errorf("update event %s: %w", merged.ID, err)
				s.finishFailed(ctx, result, source, storeErr, false)
				return result, storeErr
			}
			replaceEvent(existing, merged)
			index[merged.ScrapeHash] = merged
			result.EventsUpdated++
			continue
		}

		ev := newEvent(c)
		if err := s.events.Create(ctx, ev); err != nil {
			storeErr := fmt.Errorf("create event: %w", err)
			s.finishFailed(ctx, result, source, storeErr, false)
			return result, storeErr
		}
		existing = append(existing, ev)
		index[ev.ScrapeHash] = ev
		result.EventsCreated++
	}

	result.Status = entity.JobCompleted
	result.FinishedAt = time.Now()

	if err := s.sources.ResetErrorCount(ctx, sourceID); err != nil {
		s.logger.Error("failed to reset source error count",
			slog.String("source_id", sourceID), slog.Any("error", err))
	}
	if err := s.sources.UpdateLastScraped(ctx, sourceID); err != nil {
		s.logger.Error("failed to update scrape timestamps",
			slog.String("source_id", sourceID), slog.Any("error", err))
	}
	s.record(ctx, result)

	metrics.RecordScrapeRun(source.Name, "success", time.Since(started))
	metrics.RecordDedupOutcomes(result.EventsCreated, result.EventsUpdated, result.EventsSkipped)
	s.logger.Info("scrape completed",
		slog.String("source_id", sourceID),
		slog.String("source_name", source.Name),
		slog.Int("found", result.EventsFound),
		slog.Int("created", result.EventsCreated),
		slog.Int("updated", result.EventsUpdated),
		slog.Int("skipped", result.EventsSkipped))
	return result, nil
}

// ScrapeAllSources fans out over every due source with bounded concurrency.
// Per-source failures are reported in their own results and never abort the
// remaining sources.
func (s *Service) ScrapeAllSources(ctx context.Context) ([]*entity.ScrapeJobResult, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "ingest.scrape_all_sources")
	defer span.End()

	due, err := s.sources.DueForScraping(ctx)
	if err != nil {
		return nil, fmt.Errorf("list due sources: %w", err)
	}
	if len(due) == 0 {
		return nil, nil
	}
	span.SetAttributes(attribute.Int("sources.due", len(due)))

	var mu sync.Mutex
	results := make([]*entity.ScrapeJobResult, 0, len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, src := range due {
		src := src
		g.Go(func() error {
			res, err := s.ScrapeSource(gctx, src.ID)
			if err != nil {
				s.logger.Warn("scrape failed",
					slog.String("source_id", src.ID),
					slog.String("source_name", src.Name),
					slog.Any("error", err))
			}
			if res != nil {
				mu.Lock()
				results = append(results, res)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// GetMetrics builds the pipeline snapshot served by the operational surface.
func (s *Service) GetMetrics(ctx context.Context) (*PipelineMetrics, error) {
	srcMetrics, err := s.sources.GetMetrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("source metrics: %w", err)
	}

	m := &PipelineMetrics{Sources: srcMetrics}

	if s.history != nil {
		recent, err := s.history.ListRecent(ctx, historyWindow)
		if err != nil {
			return nil, fmt.Errorf("recent job history: %w", err)
		}
		for _, r := range recent {
			if r.Succeeded() {
				m.JobsSucceeded++
			} else {
				m.JobsFailed++
			}
		}
		if total := m.JobsSucceeded + m.JobsFailed; total > 0 {
			m.ErrorRate = float64(m.JobsFailed) / float64(total)
		}
	}

	midnight := startOfDay(time.Now())
	created, err := s.events.CountCreatedSince(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("count events created today: %w", err)
	}
	m.EventsCreatedToday = created

	return m, nil
}

// finishFailed stamps a failed result, records it, and optionally charges the
// source's error counter. countError is false for store faults: the counter
// tracks source health, not our own storage.
func (s *Service) finishFailed(ctx context.Context, result *entity.ScrapeJobResult, source *entity.EventSource, cause error, countError bool) {
	result.Status = entity.JobFailed
	result.ErrorMessage = cause.Error()
	result.FinishedAt = time.Now()

	if countError {
		if err := s.sources.IncrementErrorCount(ctx, source.ID, cause.Error()); err != nil {
			s.logger.Error("failed to increment source error count",
				slog.String("source_id", source.ID), slog.Any("error", err))
		}
	}
	s.record(ctx, result)

	metrics.RecordScrapeRun(source.Name, "failure", time.Since(result.StartedAt))
	s.logger.Error("scrape failed",
		slog.String("source_id", source.ID),
		slog.String("source_name", source.Name),
		slog.Any("error", cause))
}

func (s *Service) record(ctx context.Context, result *entity.ScrapeJobResult) {
	if s.history == nil {
		return
	}
	if err := s.history.Create(ctx, result); err != nil {
		s.logger.Error("failed to record job history",
			slog.String("job_id", result.ID), slog.Any("error", err))
	}
}

func newEvent(c *entity.CandidateEvent) *entity.Event {
	now := time.Now()
	return &entity.Event{
		ID:           uuid.NewString(),
		SourceID:     c.SourceID,
		Title:        c.Title,
		Description:  c.Description,
		StartTime:    c.StartTime,
		EndTime:      c.EndTime,
		Location:     c.Location,
		Price:        c.Price,
		ImageURL:     c.ImageURL,
		SourceURL:    c.SourceURL,
		ScrapeHash:   c.ScrapeHash,
		QualityScore: dedup.QualityScore(c),
		ExtractedAt:  c.ExtractedAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func findEvent(events []*entity.Event, id string) *entity.Event {
	for _, ev := range events {
		if ev.ID == id {
			return ev
		}
	}
	return nil
}

func replaceEvent(events []*entity.Event, updated *entity.Event) {
	for i, ev := range events {
		if ev.ID == updated.ID {
			events[i] = updated
			return
		}
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
