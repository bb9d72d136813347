package dedup

import (
	"time"

	"event-harvest/internal/domain/entity"
)

// MergeEventData folds an incoming candidate into an existing event:
// incoming wins field-by-field when present, otherwise the existing value is
// kept. Identity fields (persisted ID, SourceID) are preserved, and the
// incoming ExtractedAt/ScrapeHash replace the stored ones as provenance of
// the latest observation. The existing record is not mutated.
func MergeEventData(existing *entity.Event, incoming *entity.CandidateEvent) *entity.Event {
	if existing == nil {
		return nil
	}
	merged := *existing
	if incoming == nil {
		return &merged
	}

	merged.Title = pickString(incoming.Title, existing.Title)
	merged.Description = pickString(incoming.Description, existing.Description)
	merged.StartTime = pickTime(incoming.StartTime, existing.StartTime)
	merged.EndTime = pickTime(incoming.EndTime, existing.EndTime)
	merged.Location = pickString(incoming.Location, existing.Location)
	merged.Price = pickString(incoming.Price, existing.Price)
	merged.ImageURL = pickString(incoming.ImageURL, existing.ImageURL)
	merged.SourceURL = pickString(incoming.SourceURL, existing.SourceURL)

	// 最新観測の出所を記録
	merged.ExtractedAt = incoming.ExtractedAt
	if incoming.ScrapeHash != "" {
		merged.ScrapeHash = incoming.ScrapeHash
	}
	merged.QualityScore = QualityScore(incoming)

	return &merged
}

func pickString(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}

func pickTime(incoming, existing *time.Time) *time.Time {
	if incoming != nil {
		return incoming
	}
	return existing
}
