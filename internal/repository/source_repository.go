// Package repository defines the persistence interfaces consumed by the
// use case layer. Adapters live under internal/infra/adapter/persistence.
package repository

import (
	"context"
	"time"

	"event-harvest/internal/domain/entity"
)

// SourceRepository provides durable storage for event sources.
// Implementations must return (nil, nil) for lookups of unknown ids;
// "not found" is a reportable outcome, not a fault.
type SourceRepository interface {
	Get(ctx context.Context, id string) (*entity.EventSource, error)
	GetByNameOrURL(ctx context.Context, name, baseURL string) (*entity.EventSource, error)
	List(ctx context.Context) ([]*entity.EventSource, error)
	ListActive(ctx context.Context) ([]*entity.EventSource, error)

	// ListDue returns active sources whose NextScrapeAt is unset or at/before
	// now, ordered oldest-due first for starvation avoidance.
	ListDue(ctx context.Context, now time.Time) ([]*entity.EventSource, error)

	Create(ctx context.Context, source *entity.EventSource) error
	Update(ctx context.Context, source *entity.EventSource) error
	Delete(ctx context.Context, id string) error
	SetActive(ctx context.Context, id string, active bool) error

	// IncrementError atomically bumps the error counter, records the message,
	// and deactivates the source in the same update once the counter reaches
	// deactivateAt. Returns the post-update source, or nil if id is unknown.
	IncrementError(ctx context.Context, id, message string, deactivateAt int) (*entity.EventSource, error)

	// ResetError clears the counter and the last error message.
	ResetError(ctx context.Context, id string) error

	// TouchScraped records a successful run: LastScrapedAt=now, NextScrapeAt=next.
	TouchScraped(ctx context.Context, id string, now, next time.Time) error
}
