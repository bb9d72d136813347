package worker

import (
	"fmt"
	"log/slog"
	"time"

	"event-harvest/internal/pkg/config"
)

// WorkerConfig holds the configuration for the harvest worker process.
// It controls the scheduler tick interval, scrape concurrency, job queue
// behaviour, and the ports for the operational HTTP surfaces.
//
// Configuration sources:
//   - Environment variables (loaded via LoadConfigFromEnv)
//   - Default values (provided by DefaultConfig)
//
// All fields have sensible defaults and validation rules so the worker
// can start safely even with invalid or missing configuration.
type WorkerConfig struct {
	// TickInterval is how often the scheduler checks for due sources.
	// Validation: 5s to 1h
	// Default: 1 minute
	TickInterval time.Duration

	// ScrapeTimeout is the maximum duration for a single source scrape.
	// After this timeout, the scrape is cancelled and counted as failed.
	// Validation: 10s to 30m
	// Default: 2 minutes
	ScrapeTimeout time.Duration

	// Concurrency is the maximum number of sources scraped in parallel
	// during a full scrape cycle.
	// Range: 1-32
	// Default: 4
	Concurrency int

	// QueueMaxAttempts is how many times a scrape job is attempted
	// before it is moved to the failed list.
	// Range: 1-10
	// Default: 3
	QueueMaxAttempts int

	// QueueBackoff is the base delay before a failed job is retried.
	// The actual delay doubles with every attempt.
	// Validation: 1s to 10m
	// Default: 5 seconds
	QueueBackoff time.Duration

	// RedisAddr is the address of the Redis instance backing the job queue.
	// When Redis is unreachable at startup, the worker falls back to
	// direct in-process execution.
	// Default: "localhost:6379"
	RedisAddr string

	// CleanSchedule is the cron expression for the nightly queue cleanup
	// that drops old terminal job records.
	// Default: "0 4 * * *" (04:00 every day)
	CleanSchedule string

	// CleanGrace is how long completed job records are kept before the
	// cleanup removes them. Failed records are kept seven times longer
	// so they stay inspectable.
	// Validation: positive
	// Default: 24h
	CleanGrace time.Duration

	// Timezone is the IANA timezone the cleanup schedule runs in.
	// Default: "UTC"
	Timezone string

	// SchedulerAutostart controls whether the scrape scheduler starts
	// ticking at boot. When false the worker comes up with the scheduler
	// stopped and waits for a start via the operational API.
	// Default: true
	SchedulerAutostart bool

	// ErrorThreshold is the number of consecutive scrape failures after
	// which a source is automatically deactivated.
	// Range: 1-20
	// Default: 3
	ErrorThreshold int

	// StatusMaxFailedJobs is the failed-job count at which the /status
	// snapshot reports unhealthy.
	// Range: 1-100000
	// Default: 10
	StatusMaxFailedJobs int

	// StatusMaxErrorPercent is the recent job failure percentage at which
	// the /status snapshot reports unhealthy.
	// Range: 1-100
	// Default: 20
	StatusMaxErrorPercent int

	// OpsPort is the port for the operational HTTP API (status, source
	// management, queue and scheduler controls).
	// Range: 1024-65535
	// Default: 8080
	OpsPort int

	// HealthPort is the port for the health check HTTP server.
	// Range: 1024-65535 (avoid privileged ports)
	// Default: 9091
	HealthPort int
}

// DefaultConfig returns a WorkerConfig with production-ready defaults.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		TickInterval:          time.Minute,
		ScrapeTimeout:         2 * time.Minute,
		Concurrency:           4,
		QueueMaxAttempts:      3,
		QueueBackoff:          5 * time.Second,
		RedisAddr:             "localhost:6379",
		CleanSchedule:         "0 4 * * *",
		CleanGrace:            24 * time.Hour,
		Timezone:              "UTC",
		SchedulerAutostart:    true,
		ErrorThreshold:        3,
		StatusMaxFailedJobs:   10,
		StatusMaxErrorPercent: 20,
		OpsPort:               8080,
		HealthPort:            9091,
	}
}

// Validate checks if the configuration values are valid.
// If multiple fields are invalid, all errors are collected and returned together.
func (c *WorkerConfig) Validate() error {
	var errors []error

	if err := config.ValidateDuration(c.TickInterval, 5*time.Second, time.Hour); err != nil {
		errors = append(errors, fmt.Errorf("tick interval: %w", err))
	}

	if err := config.ValidateDuration(c.ScrapeTimeout, 10*time.Second, 30*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("scrape timeout: %w", err))
	}

	if err := config.ValidateIntRange(c.Concurrency, 1, 32); err != nil {
		errors = append(errors, fmt.Errorf("concurrency: %w", err))
	}

	if err := config.ValidateIntRange(c.QueueMaxAttempts, 1, 10); err != nil {
		errors = append(errors, fmt.Errorf("queue max attempts: %w", err))
	}

	if err := config.ValidateDuration(c.QueueBackoff, time.Second, 10*time.Minute); err != nil {
		errors = append(errors, fmt.Errorf("queue backoff: %w", err))
	}

	if err := config.ValidateCronSchedule(c.CleanSchedule); err != nil {
		errors = append(errors, fmt.Errorf("clean schedule: %w", err))
	}

	if err := config.ValidatePositiveDuration(c.CleanGrace); err != nil {
		errors = append(errors, fmt.Errorf("clean grace: %w", err))
	}

	if err := config.ValidateTimezone(c.Timezone); err != nil {
		errors = append(errors, fmt.Errorf("timezone: %w", err))
	}

	if err := config.ValidateIntRange(c.ErrorThreshold, 1, 20); err != nil {
		errors = append(errors, fmt.Errorf("error threshold: %w", err))
	}

	if err := config.ValidateIntRange(c.StatusMaxFailedJobs, 1, 100000); err != nil {
		errors = append(errors, fmt.Errorf("status max failed jobs: %w", err))
	}

	if err := config.ValidateIntRange(c.StatusMaxErrorPercent, 1, 100); err != nil {
		errors = append(errors, fmt.Errorf("status max error percent: %w", err))
	}

	if err := config.ValidateIntRange(c.OpsPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("ops port: %w", err))
	}

	if err := config.ValidateIntRange(c.HealthPort, 1024, 65535); err != nil {
		errors = append(errors, fmt.Errorf("health port: %w", err))
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load each field from environment variables
//  3. Validate each loaded value
//  4. If validation fails: use default value, log warning, increment metrics
//  5. Never return error - always return a valid configuration
//
// Environment variables:
//   - SCHEDULER_TICK_INTERVAL: Duration string, e.g., "1m" (default: 1 minute)
//   - SCRAPE_TIMEOUT: Duration string, e.g., "2m" (default: 2 minutes)
//   - SCRAPE_CONCURRENCY: Integer 1-32 (default: 4)
//   - QUEUE_MAX_ATTEMPTS: Integer 1-10 (default: 3)
//   - QUEUE_RETRY_BACKOFF: Duration string, e.g., "5s" (default: 5 seconds)
//   - REDIS_ADDR: Redis address (default: "localhost:6379")
//   - QUEUE_CLEAN_SCHEDULE: Cron expression (default: "0 4 * * *")
//   - QUEUE_CLEAN_GRACE: Duration string, e.g., "24h" (default: 24 hours)
//   - WORKER_TIMEZONE: IANA timezone for the cleanup schedule (default: "UTC")
//   - SCHEDULER_AUTOSTART: "true" or "false" (default: true)
//   - SOURCE_ERROR_THRESHOLD: Integer 1-20 (default: 3)
//   - STATUS_MAX_FAILED_JOBS: Integer 1-100000 (default: 10)
//   - STATUS_MAX_ERROR_PERCENT: Integer 1-100 (default: 20)
//   - OPS_PORT: Integer 1024-65535 (default: 8080)
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	warn := func(field string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordValidationError(field)
		metrics.RecordFallback(field, "default")
		for _, warning := range result.Warnings {
			logger.Warn("Configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvDuration("SCHEDULER_TICK_INTERVAL", cfg.TickInterval, func(d time.Duration) error {
		return config.ValidateDuration(d, 5*time.Second, time.Hour)
	})
	cfg.TickInterval = result.Value.(time.Duration)
	warn("tick_interval", result)

	result = config.LoadEnvDuration("SCRAPE_TIMEOUT", cfg.ScrapeTimeout, func(d time.Duration) error {
		return config.ValidateDuration(d, 10*time.Second, 30*time.Minute)
	})
	cfg.ScrapeTimeout = result.Value.(time.Duration)
	warn("scrape_timeout", result)

	result = config.LoadEnvInt("SCRAPE_CONCURRENCY", cfg.Concurrency, func(v int) error {
		return config.ValidateIntRange(v, 1, 32)
	})
	cfg.Concurrency = result.Value.(int)
	warn("concurrency", result)

	result = config.LoadEnvInt("QUEUE_MAX_ATTEMPTS", cfg.QueueMaxAttempts, func(v int) error {
		return config.ValidateIntRange(v, 1, 10)
	})
	cfg.QueueMaxAttempts = result.Value.(int)
	warn("queue_max_attempts", result)

	result = config.LoadEnvDuration("QUEUE_RETRY_BACKOFF", cfg.QueueBackoff, func(d time.Duration) error {
		return config.ValidateDuration(d, time.Second, 10*time.Minute)
	})
	cfg.QueueBackoff = result.Value.(time.Duration)
	warn("queue_backoff", result)

	cfg.RedisAddr = config.LoadEnvString("REDIS_ADDR", cfg.RedisAddr)

	result = config.LoadEnvWithFallback("QUEUE_CLEAN_SCHEDULE", cfg.CleanSchedule, config.ValidateCronSchedule)
	cfg.CleanSchedule = result.Value.(string)
	warn("clean_schedule", result)

	result = config.LoadEnvDuration("QUEUE_CLEAN_GRACE", cfg.CleanGrace, config.ValidatePositiveDuration)
	cfg.CleanGrace = result.Value.(time.Duration)
	warn("clean_grace", result)

	result = config.LoadEnvWithFallback("WORKER_TIMEZONE", cfg.Timezone, config.ValidateTimezone)
	cfg.Timezone = result.Value.(string)
	warn("timezone", result)

	result = config.LoadEnvBool("SCHEDULER_AUTOSTART", cfg.SchedulerAutostart)
	cfg.SchedulerAutostart = result.Value.(bool)
	warn("scheduler_autostart", result)

	result = config.LoadEnvInt("SOURCE_ERROR_THRESHOLD", cfg.ErrorThreshold, func(v int) error {
		return config.ValidateIntRange(v, 1, 20)
	})
	cfg.ErrorThreshold = result.Value.(int)
	warn("error_threshold", result)

	result = config.LoadEnvInt("STATUS_MAX_FAILED_JOBS", cfg.StatusMaxFailedJobs, func(v int) error {
		return config.ValidateIntRange(v, 1, 100000)
	})
	cfg.StatusMaxFailedJobs = result.Value.(int)
	warn("status_max_failed_jobs", result)

	result = config.LoadEnvInt("STATUS_MAX_ERROR_PERCENT", cfg.StatusMaxErrorPercent, func(v int) error {
		return config.ValidateIntRange(v, 1, 100)
	})
	cfg.StatusMaxErrorPercent = result.Value.(int)
	warn("status_max_error_percent", result)

	result = config.LoadEnvInt("OPS_PORT", cfg.OpsPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.OpsPort = result.Value.(int)
	warn("ops_port", result)

	result = config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, func(v int) error {
		return config.ValidateIntRange(v, 1024, 65535)
	})
	cfg.HealthPort = result.Value.(int)
	warn("health_port", result)

	metrics.SetFallbackActive("", fallbackApplied)
	metrics.RecordLoadTimestamp()

	// Always return valid config (fail-open strategy)
	return &cfg, nil
}
