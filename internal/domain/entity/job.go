package entity

import "time"

// JobStatus is the terminal outcome of a scrape job execution.
type JobStatus string

const (
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Scrape job priorities. Lower values are dequeued first.
const (
	PriorityManual    = 1 // operator-triggered runs jump the queue
	PriorityScheduled = 5
)

// ScrapeJob is the queue payload for one unit of ingestion work.
// It is ephemeral: it exists only for the lifetime of the queue and is never
// persisted beyond the broker's own job log.
type ScrapeJob struct {
	SourceID   string `json:"source_id"`
	SourceName string `json:"source_name"`
	Priority   int    `json:"priority"`
	RetryCount int    `json:"retry_count"`
}

// ScrapeJobResult is produced once per job execution. It is persisted as an
// audit record and used to update the source's error counters.
type ScrapeJobResult struct {
	ID            string
	SourceID      string
	Status        JobStatus
	EventsFound   int
	EventsCreated int
	EventsUpdated int
	EventsSkipped int
	ErrorMessage  string
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Succeeded reports whether the job completed without a job-level failure.
func (r *ScrapeJobResult) Succeeded() bool {
	return r != nil && r.Status == JobCompleted
}
