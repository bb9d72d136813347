package entity

import "time"

// Event represents a persisted catalog event.
// It is the unit of storage produced by the ingestion pipeline: candidates are
// either merged into an existing Event or inserted as a new one.
type Event struct {
	ID           string
	SourceID     string
	Title        string
	Description  string
	StartTime    *time.Time
	EndTime      *time.Time
	Location     string
	Price        string
	ImageURL     string
	SourceURL    string
	ScrapeHash   string
	QualityScore int
	ExtractedAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CandidateEvent is a structured candidate record produced by the extraction
// collaborator. It is transient input to the deduplication engine and never
// itself persisted.
type CandidateEvent struct {
	SourceID    string
	Title       string
	Description string
	StartTime   *time.Time
	EndTime     *time.Time
	Location    string
	Price       string
	ImageURL    string
	SourceURL   string
	ExtractedAt time.Time
	ScrapeHash  string
}

// Valid reports whether the candidate carries the minimum fields required
// for ingestion. Malformed candidates are skipped, never fatal.
func (c *CandidateEvent) Valid() bool {
	return c != nil && c.Title != "" && c.SourceID != ""
}
