// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as EventSource and Event, along with
// their validation rules and domain-specific errors.
package entity

import (
	"fmt"
	"time"
)

// DefaultScrapeFrequencyHours is the scrape cadence applied when a source
// is registered without an explicit frequency.
const DefaultScrapeFrequencyHours = 24

// Source types. They select which extraction collaborator serves the source.
const (
	SourceTypeFeed = "Feed"
	SourceTypeAPI  = "API"
	SourceTypeHTML = "HTML"
)

// EventSource represents an external origin of event listings.
// Each source carries its own extraction configuration and an independent
// scrape cadence, plus the error counters that drive the automatic
// circuit-breaker (deactivation after repeated failures).
type EventSource struct {
	ID                   string
	Name                 string
	BaseURL              string
	SourceType           string        `json:"source_type"`   // Feed, API, HTML
	ScrapeConfig         *ScrapeConfig `json:"scrape_config"` // Opaque extraction configuration
	ScrapeFrequencyHours int
	Active               bool
	ErrorCount           int
	LastError            string
	LastScrapedAt        *time.Time
	NextScrapeAt         *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// ScrapeConfig holds the extraction configuration for a source.
// The ingestion core treats it as opaque; only the extraction collaborator
// interprets the fields.
type ScrapeConfig struct {
	// FeedURL is the feed endpoint for Feed sources. Defaults to BaseURL when empty.
	FeedURL string `json:"feed_url,omitempty"`

	// Endpoint is the API endpoint for API sources.
	Endpoint string `json:"endpoint,omitempty"`

	// Options carries extractor-specific settings (selectors, pagination, headers).
	Options map[string]string `json:"options,omitempty"`
}

// Validate validates the EventSource entity fields.
// It checks identity fields, the base URL format, and the scrape cadence.
func (s *EventSource) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if s.BaseURL == "" {
		return &ValidationError{Field: "baseURL", Message: "is required"}
	}
	if err := ValidateURL(s.BaseURL); err != nil {
		return fmt.Errorf("validate base URL: %w", err)
	}

	// 空のSourceTypeはFeedとみなす（後方互換性）
	if s.SourceType == "" {
		s.SourceType = SourceTypeFeed
	}
	validTypes := map[string]bool{
		SourceTypeFeed: true,
		SourceTypeAPI:  true,
		SourceTypeHTML: true,
	}
	if !validTypes[s.SourceType] {
		return fmt.Errorf("invalid source_type: %s (must be Feed, API, or HTML)", s.SourceType)
	}

	if s.ScrapeFrequencyHours < 0 {
		return &ValidationError{Field: "scrapeFrequencyHours", Message: "must not be negative"}
	}
	if s.ErrorCount < 0 {
		return &ValidationError{Field: "errorCount", Message: "must not be negative"}
	}

	return nil
}

// Frequency returns the scrape cadence as a duration, falling back to the
// default when the source has no explicit frequency.
func (s *EventSource) Frequency() time.Duration {
	hours := s.ScrapeFrequencyHours
	if hours <= 0 {
		hours = DefaultScrapeFrequencyHours
	}
	return time.Duration(hours) * time.Hour
}

// Due reports whether the source is due for scraping at the given instant.
// A source with no NextScrapeAt has never been scheduled and is always due.
func (s *EventSource) Due(now time.Time) bool {
	if !s.Active {
		return false
	}
	if s.NextScrapeAt == nil {
		return true
	}
	return !s.NextScrapeAt.After(now)
}
