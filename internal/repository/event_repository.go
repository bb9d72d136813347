package repository

import (
	"context"
	"time"

	"event-harvest/internal/domain/entity"
)

// EventRepository provides durable storage for catalog events.
type EventRepository interface {
	// ListBySource returns every persisted event for one source. The
	// coordinator snapshots this once per job; sources are independent
	// partitions, so the snapshot is safe against concurrent jobs.
	ListBySource(ctx context.Context, sourceID string) ([]*entity.Event, error)

	Create(ctx context.Context, event *entity.Event) error
	Update(ctx context.Context, event *entity.Event) error

	// CountCreatedSince counts events created at or after the given instant.
	CountCreatedSince(ctx context.Context, t time.Time) (int64, error)
}
