package repository

import (
	"context"

	"event-harvest/internal/domain/entity"
)

// JobHistoryRepository persists scrape job results as audit records.
type JobHistoryRepository interface {
	Create(ctx context.Context, result *entity.ScrapeJobResult) error

	// ListRecent returns the newest results first, capped at limit.
	ListRecent(ctx context.Context, limit int) ([]*entity.ScrapeJobResult, error)
}
