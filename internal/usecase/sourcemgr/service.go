package sourcemgr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/repository"
)

// DefaultDeactivationThreshold is the error count at which a source is
// automatically deactivated.
const DefaultDeactivationThreshold = 10

// Config holds the tunable parameters of the source manager.
type Config struct {
	// DeactivationThreshold is the error count that trips the per-source
	// circuit breaker. Reactivation is always an explicit operator action.
	DeactivationThreshold int

	// OnDeactivated, when set, observes automatic deactivations. It runs on
	// its own goroutine so a slow alert channel never blocks the scrape path.
	OnDeactivated func(ctx context.Context, src *entity.EventSource, reason string)
}

// DefaultConfig returns the default source manager configuration.
func DefaultConfig() Config {
	return Config{DeactivationThreshold: DefaultDeactivationThreshold}
}

// Metrics is a point-in-time snapshot of the registry, not a running aggregate.
type Metrics struct {
	TotalSources  int `json:"total_sources"`
	ActiveSources int `json:"active_sources"`
	ErrorSources  int `json:"error_sources"`
	SourcesDue    int `json:"sources_due"`
}

// CreateInput represents the input parameters for registering a new source.
type CreateInput struct {
	Name                 string
	BaseURL              string
	SourceType           string
	ScrapeConfig         *entity.ScrapeConfig
	ScrapeFrequencyHours int
	NextScrapeAt         *time.Time
}

// UpdateInput represents a partial update of an existing source.
// Empty string fields and nil pointer fields are not updated.
type UpdateInput struct {
	ID                   string
	Name                 string
	BaseURL              string
	SourceType           string
	ScrapeConfig         *entity.ScrapeConfig
	ScrapeFrequencyHours *int
	Active               *bool
}

// Service is the authoritative registry of ingestion sources. It delegates
// persistence to the repository and, when the durable store is unreachable at
// initialization, degrades to a statically-declared in-memory registry.
type Service struct {
	cfg    Config
	static []*entity.EventSource
	logger *slog.Logger

	mu       sync.RWMutex
	repo     repository.SourceRepository
	fallback repository.SourceRepository
	degraded bool
}

// NewService creates a source manager backed by repo. fallback (typically the
// in-memory adapter) and static declarations power degraded mode; both may be
// nil when degraded operation is not wanted.
func NewService(repo, fallback repository.SourceRepository, static []*entity.EventSource, cfg Config, logger *slog.Logger) *Service {
	if cfg.DeactivationThreshold <= 0 {
		cfg.DeactivationThreshold = DefaultDeactivationThreshold
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:      cfg,
		static:   static,
		logger:   logger,
		repo:     repo,
		fallback: fallback,
	}
}

// Initialize loads the registry from the durable store and merges in any
// statically declared sources not yet present (matched by name or base URL).
// It is idempotent: re-running never duplicates sources.
//
// If the store cannot be reached it returns ErrStoreUnavailable and, when a
// fallback repository was provided, degrades to the static declarations only.
func (s *Service) Initialize(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		if s.fallback != nil {
			s.mu.Lock()
			s.degraded = true
			s.mu.Unlock()
			for _, src := range s.static {
				seed := *src
				s.prepare(&seed)
				if createErr := s.fallback.Create(ctx, &seed); createErr != nil {
					s.logger.Error("failed to seed fallback registry",
						slog.String("source", seed.Name),
						slog.Any("error", createErr))
				}
			}
			s.logger.Warn("record store unreachable, degrading to static sources only",
				slog.Int("static_sources", len(s.static)),
				slog.Any("error", err))
		}
		return fmt.Errorf("load sources: %w: %w", entity.ErrStoreUnavailable, err)
	}

	known := make(map[string]bool, len(existing)*2)
	for _, src := range existing {
		known[src.Name] = true
		known[src.BaseURL] = true
	}

	for _, src := range s.static {
		if known[src.Name] || known[src.BaseURL] {
			continue
		}
		seed := *src
		s.prepare(&seed)
		if err := s.repo.Create(ctx, &seed); err != nil {
			return fmt.Errorf("merge static source %q: %w", seed.Name, err)
		}
		s.logger.Info("registered static source",
			slog.String("source_id", seed.ID),
			slog.String("name", seed.Name))
	}

	return nil
}

// Degraded reports whether the manager is running on static declarations
// because the durable store was unreachable at initialization.
func (s *Service) Degraded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded
}

// store returns the repository serving requests in the current mode.
func (s *Service) store() repository.SourceRepository {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.degraded {
		return s.fallback
	}
	return s.repo
}

// prepare fills the registration defaults on a new source record.
func (s *Service) prepare(src *entity.EventSource) {
	now := time.Now()
	if src.ID == "" {
		src.ID = uuid.NewString()
	}
	src.Active = true
	src.ErrorCount = 0
	src.LastError = ""
	if src.ScrapeFrequencyHours <= 0 {
		src.ScrapeFrequencyHours = entity.DefaultScrapeFrequencyHours
	}
	if src.NextScrapeAt == nil {
		next := now.Add(src.Frequency())
		src.NextScrapeAt = &next
	}
	src.CreatedAt = now
	src.UpdatedAt = now
}

// Create validates and registers a new source. The initial NextScrapeAt is
// now + frequency unless the caller supplies an explicit one.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.EventSource, error) {
	src := &entity.EventSource{
		Name:                 in.Name,
		BaseURL:              in.BaseURL,
		SourceType:           in.SourceType,
		ScrapeConfig:         in.ScrapeConfig,
		ScrapeFrequencyHours: in.ScrapeFrequencyHours,
		NextScrapeAt:         in.NextScrapeAt,
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	if dup, err := s.store().GetByNameOrURL(ctx, in.Name, in.BaseURL); err != nil {
		return nil, fmt.Errorf("check duplicate source: %w", err)
	} else if dup != nil {
		return nil, ErrDuplicateSource
	}

	s.prepare(src)
	if err := s.store().Create(ctx, src); err != nil {
		return nil, fmt.Errorf("create source: %w", err)
	}
	return src, nil
}

// Get returns the source, or nil when the id is unknown.
func (s *Service) Get(ctx context.Context, id string) (*entity.EventSource, error) {
	src, err := s.store().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	return src, nil
}

// List returns every registered source, including deactivated ones.
func (s *Service) List(ctx context.Context) ([]*entity.EventSource, error) {
	sources, err := s.store().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

// ListActive returns only the sources eligible for scheduling.
func (s *Service) ListActive(ctx context.Context) ([]*entity.EventSource, error) {
	sources, err := s.store().ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active sources: %w", err)
	}
	return sources, nil
}

// Update applies a partial merge and refreshes UpdatedAt. An unknown id
// returns (nil, nil): not-found is a reportable outcome, not a fault.
func (s *Service) Update(ctx context.Context, in UpdateInput) (*entity.EventSource, error) {
	src, err := s.store().Get(ctx, in.ID)
	if err != nil {
		return nil, fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return nil, nil
	}

	if in.Name != "" {
		src.Name = in.Name
	}
	if in.BaseURL != "" {
		src.BaseURL = in.BaseURL
	}
	if in.SourceType != "" {
		src.SourceType = in.SourceType
	}
	if in.ScrapeConfig != nil {
		src.ScrapeConfig = in.ScrapeConfig
	}
	if in.ScrapeFrequencyHours != nil {
		src.ScrapeFrequencyHours = *in.ScrapeFrequencyHours
	}
	if in.Active != nil {
		src.Active = *in.Active
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}
	src.UpdatedAt = time.Now()

	if err := s.store().Update(ctx, src); err != nil {
		return nil, fmt.Errorf("update source: %w", err)
	}
	return src, nil
}

// Activate re-enables a source for scheduling.
func (s *Service) Activate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, true)
}

// Deactivate soft-disables a source: it disappears from active lookups but
// remains in the registry. Nothing is hard-deleted in normal operation.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.setActive(ctx, id, false)
}

func (s *Service) setActive(ctx context.Context, id string, active bool) error {
	if err := s.store().SetActive(ctx, id, active); err != nil {
		if errorsIsNotFound(err) {
			return ErrSourceNotFound
		}
		return fmt.Errorf("set source active=%v: %w", active, err)
	}
	return nil
}

// Delete removes a source entirely. This is a separate admin operation;
// routine lifecycle management uses Deactivate instead.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store().Delete(ctx, id); err != nil {
		if errorsIsNotFound(err) {
			return ErrSourceNotFound
		}
		return fmt.Errorf("delete source: %w", err)
	}
	return nil
}

// IncrementErrorCount records a failed run. When the counter crosses the
// deactivation threshold the source is deactivated in the same atomic update.
func (s *Service) IncrementErrorCount(ctx context.Context, id, message string) error {
	src, err := s.store().IncrementError(ctx, id, message, s.cfg.DeactivationThreshold)
	if err != nil {
		return fmt.Errorf("increment error count: %w", err)
	}
	if src == nil {
		return ErrSourceNotFound
	}
	if !src.Active {
		s.logger.Warn("source deactivated by error threshold",
			slog.String("source_id", src.ID),
			slog.String("name", src.Name),
			slog.Int("error_count", src.ErrorCount),
			slog.String("last_error", src.LastError))
		if s.cfg.OnDeactivated != nil {
			go s.cfg.OnDeactivated(context.WithoutCancel(ctx), src, src.LastError)
		}
	}
	return nil
}

// ResetErrorCount clears the counter and last error after a successful run.
func (s *Service) ResetErrorCount(ctx context.Context, id string) error {
	if err := s.store().ResetError(ctx, id); err != nil {
		if errorsIsNotFound(err) {
			return ErrSourceNotFound
		}
		return fmt.Errorf("reset error count: %w", err)
	}
	return nil
}

// UpdateLastScraped records a successful run and recomputes the next due
// time from the source's own cadence.
func (s *Service) UpdateLastScraped(ctx context.Context, id string) error {
	src, err := s.store().Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get source: %w", err)
	}
	if src == nil {
		return ErrSourceNotFound
	}

	now := time.Now()
	if err := s.store().TouchScraped(ctx, id, now, now.Add(src.Frequency())); err != nil {
		return fmt.Errorf("touch scraped timestamps: %w", err)
	}
	return nil
}

// DueForScraping returns the active sources due now, oldest-due first.
func (s *Service) DueForScraping(ctx context.Context) ([]*entity.EventSource, error) {
	sources, err := s.store().ListDue(ctx, time.Now())
	if err != nil {
		return nil, fmt.Errorf("list due sources: %w", err)
	}
	return sources, nil
}

// GetMetrics computes a registry snapshot for the operational surface.
func (s *Service) GetMetrics(ctx context.Context) (*Metrics, error) {
	sources, err := s.store().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	now := time.Now()
	m := &Metrics{TotalSources: len(sources)}
	for _, src := range sources {
		if !src.Active {
			continue
		}
		m.ActiveSources++
		if src.ErrorCount > 0 {
			m.ErrorSources++
		}
		if src.Due(now) {
			m.SourcesDue++
		}
	}
	return m, nil
}

func errorsIsNotFound(err error) bool {
	return errors.Is(err, entity.ErrNotFound)
}
