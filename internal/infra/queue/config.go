package queue

import (
	"time"

	"event-harvest/internal/domain/entity"
)

const (
	defaultConcurrency  = 2
	defaultMaxAttempts  = 3
	defaultBackoff      = 5 * time.Second
	defaultJobTimeout   = 2 * time.Minute
	defaultPollInterval = 1 * time.Second
	defaultRetention    = 200
	defaultKeyPrefix    = "harvest:queue"
	probeTimeout        = 5 * time.Second
)

// TerminalHook is invoked once per job when it reaches a terminal state:
// completed, or failed with no retries left. Retries do not fire it.
type TerminalHook func(sourceID string, status entity.JobStatus)

// Config holds the queue tunables.
type Config struct {
	// Addr is the broker address, host:port.
	Addr     string
	Password string
	DB       int

	// Concurrency is the number of worker goroutines draining the queue.
	Concurrency int

	// MaxAttempts is the total number of tries per job, first run included.
	MaxAttempts int

	// Backoff is the delay before the first retry; it doubles per attempt.
	Backoff time.Duration

	// JobTimeout bounds a single job execution.
	JobTimeout time.Duration

	// PollInterval is how often idle workers look for work.
	PollInterval time.Duration

	// Retention caps how many terminal job records are kept per state.
	Retention int

	// KeyPrefix namespaces every broker key.
	KeyPrefix string

	// OnTerminal, when set, observes terminal job outcomes.
	OnTerminal TerminalHook
}

// DefaultConfig returns the queue defaults.
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Concurrency:  defaultConcurrency,
		MaxAttempts:  defaultMaxAttempts,
		Backoff:      defaultBackoff,
		JobTimeout:   defaultJobTimeout,
		PollInterval: defaultPollInterval,
		Retention:    defaultRetention,
		KeyPrefix:    defaultKeyPrefix,
	}
}

func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.Backoff <= 0 {
		c.Backoff = def.Backoff
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = def.JobTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = def.PollInterval
	}
	if c.Retention <= 0 {
		c.Retention = def.Retention
	}
	if c.KeyPrefix == "" {
		c.KeyPrefix = def.KeyPrefix
	}
}
