// Package source exposes the source registry over HTTP: CRUD, lifecycle
// (activate/deactivate), and the per-source event listing.
package source

import (
	"time"

	"event-harvest/internal/domain/entity"
)

// DTO is the wire representation of a registered source.
type DTO struct {
	ID                   string               `json:"id"`
	Name                 string               `json:"name"`
	BaseURL              string               `json:"base_url"`
	SourceType           string               `json:"source_type"`
	ScrapeConfig         *entity.ScrapeConfig `json:"scrape_config,omitempty"`
	ScrapeFrequencyHours int                  `json:"scrape_frequency_hours"`
	Active               bool                 `json:"active"`
	ErrorCount           int                  `json:"error_count"`
	LastError            string               `json:"last_error,omitempty"`
	LastScrapedAt        *time.Time           `json:"last_scraped_at,omitempty"`
	NextScrapeAt         *time.Time           `json:"next_scrape_at,omitempty"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

func toDTO(s *entity.EventSource) DTO {
	return DTO{
		ID:                   s.ID,
		Name:                 s.Name,
		BaseURL:              s.BaseURL,
		SourceType:           s.SourceType,
		ScrapeConfig:         s.ScrapeConfig,
		ScrapeFrequencyHours: s.ScrapeFrequencyHours,
		Active:               s.Active,
		ErrorCount:           s.ErrorCount,
		LastError:            s.LastError,
		LastScrapedAt:        s.LastScrapedAt,
		NextScrapeAt:         s.NextScrapeAt,
		CreatedAt:            s.CreatedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

// EventDTO is the wire representation of a catalog event.
type EventDTO struct {
	ID          string     `json:"id"`
	SourceID    string     `json:"source_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartTime   *time.Time `json:"start_time,omitempty"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	Location    string     `json:"location,omitempty"`
	Price       string     `json:"price,omitempty"`
	ImageURL    string     `json:"image_url,omitempty"`
	SourceURL   string     `json:"source_url,omitempty"`
	ExtractedAt time.Time  `json:"extracted_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toEventDTO(e *entity.Event) EventDTO {
	return EventDTO{
		ID:          e.ID,
		SourceID:    e.SourceID,
		Title:       e.Title,
		Description: e.Description,
		StartTime:   e.StartTime,
		EndTime:     e.EndTime,
		Location:    e.Location,
		Price:       e.Price,
		ImageURL:    e.ImageURL,
		SourceURL:   e.SourceURL,
		ExtractedAt: e.ExtractedAt,
		CreatedAt:   e.CreatedAt,
	}
}
