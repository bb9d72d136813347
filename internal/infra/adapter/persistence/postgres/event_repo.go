package postgres

import (
	"context"
	"fmt"
	"time"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/repository"
)

type EventRepo struct{ db DBTX }

func NewEventRepo(db DBTX) repository.EventRepository {
	return &EventRepo{db: db}
}

const eventColumns = `id, source_id, title, description, start_time, end_time,
       location, price, image_url, source_url, scrape_hash, quality_score,
       extracted_at, created_at, updated_at`

func scanEvent(row rowScanner) (*entity.Event, error) {
	var ev entity.Event
	if err := row.Scan(
		&ev.ID, &ev.SourceID, &ev.Title, &ev.Description, &ev.StartTime, &ev.EndTime,
		&ev.Location, &ev.Price, &ev.ImageURL, &ev.SourceURL, &ev.ScrapeHash, &ev.QualityScore,
		&ev.ExtractedAt, &ev.CreatedAt, &ev.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (repo *EventRepo) ListBySource(ctx context.Context, sourceID string) ([]*entity.Event, error) {
	const query = `
SELECT ` + eventColumns + `
FROM events
WHERE source_id = $1
ORDER BY created_at ASC`
	rows, err := repo.db.QueryContext(ctx, query, sourceID)
	if err != nil {
		return nil, fmt.Errorf("ListBySource: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// パフォーマンス最適化: メモリ再割り当てを削減するため事前割り当て
	events := make([]*entity.Event, 0, 100)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListBySource: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (repo *EventRepo) Create(ctx context.Context, event *entity.Event) error {
	const query = `
INSERT INTO events (id, source_id, title, description, start_time, end_time,
                    location, price, image_url, source_url, scrape_hash,
                    quality_score, extracted_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := repo.db.ExecContext(ctx, query,
		event.ID, event.SourceID, event.Title, event.Description, event.StartTime, event.EndTime,
		event.Location, event.Price, event.ImageURL, event.SourceURL, event.ScrapeHash,
		event.QualityScore, event.ExtractedAt, event.CreatedAt, event.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *EventRepo) Update(ctx context.Context, event *entity.Event) error {
	const query = `
UPDATE events SET
       title         = $1,
       description   = $2,
       start_time    = $3,
       end_time      = $4,
       location      = $5,
       price         = $6,
       image_url     = $7,
       source_url    = $8,
       scrape_hash   = $9,
       quality_score = $10,
       extracted_at  = $11,
       updated_at    = $12
WHERE id = $13`
	res, err := repo.db.ExecContext(ctx, query,
		event.Title, event.Description, event.StartTime, event.EndTime,
		event.Location, event.Price, event.ImageURL, event.SourceURL, event.ScrapeHash,
		event.QualityScore, event.ExtractedAt, event.UpdatedAt, event.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *EventRepo) CountCreatedSince(ctx context.Context, t time.Time) (int64, error) {
	const query = `SELECT COUNT(*) FROM events WHERE created_at >= $1`
	var count int64
	if err := repo.db.QueryRowContext(ctx, query, t).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountCreatedSince: %w", err)
	}
	return count, nil
}
