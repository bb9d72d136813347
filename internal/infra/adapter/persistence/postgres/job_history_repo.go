package postgres

import (
	"context"
	"fmt"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/repository"
)

type JobHistoryRepo struct{ db DBTX }

func NewJobHistoryRepo(db DBTX) repository.JobHistoryRepository {
	return &JobHistoryRepo{db: db}
}

const jobResultColumns = `id, source_id, status, events_found, events_created,
       events_updated, events_skipped, error_message, started_at, finished_at`

func (repo *JobHistoryRepo) Create(ctx context.Context, result *entity.ScrapeJobResult) error {
	const query = `
INSERT INTO scrape_job_results (id, source_id, status, events_found, events_created,
                                events_updated, events_skipped, error_message,
                                started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, query,
		result.ID, result.SourceID, string(result.Status), result.EventsFound, result.EventsCreated,
		result.EventsUpdated, result.EventsSkipped, result.ErrorMessage,
		result.StartedAt, result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *JobHistoryRepo) ListRecent(ctx context.Context, limit int) ([]*entity.ScrapeJobResult, error) {
	const query = `
SELECT ` + jobResultColumns + `
FROM scrape_job_results
ORDER BY finished_at DESC
LIMIT $1`
	rows, err := repo.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ListRecent: %w", err)
	}
	defer func() { _ = rows.Close() }()

	results := make([]*entity.ScrapeJobResult, 0, limit)
	for rows.Next() {
		var r entity.ScrapeJobResult
		var status string
		if err := rows.Scan(
			&r.ID, &r.SourceID, &status, &r.EventsFound, &r.EventsCreated,
			&r.EventsUpdated, &r.EventsSkipped, &r.ErrorMessage, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("ListRecent: %w", err)
		}
		r.Status = entity.JobStatus(status)
		results = append(results, &r)
	}
	return results, rows.Err()
}
