// Package ingest implements the ingestion coordinator: it orchestrates one
// scrape run end to end (fetch, deduplicate, persist, record) and fans out
// over every due source. It sits above the source registry and the
// deduplication engine and below the job queue, which invokes it as the
// runner for each dequeued job.
package ingest

import "errors"

// Sentinel errors for ingestion operations.
var (
	// ErrSourceInactive indicates a scrape was requested for a source that
	// is currently deactivated.
	ErrSourceInactive = errors.New("source is inactive")

	// ErrQueueUnavailable indicates a queue-only operation was invoked
	// while the pipeline is running in direct mode.
	ErrQueueUnavailable = errors.New("job queue is not available in direct mode")
)
