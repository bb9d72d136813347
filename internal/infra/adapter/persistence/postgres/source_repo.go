package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"event-harvest/internal/domain/entity"
	"event-harvest/internal/repository"
)

type SourceRepo struct{ db DBTX }

func NewSourceRepo(db DBTX) repository.SourceRepository {
	return &SourceRepo{db: db}
}

const sourceColumns = `id, name, base_url, source_type, scrape_config,
       scrape_frequency_hours, active, error_count, last_error,
       last_scraped_at, next_scrape_at, created_at, updated_at`

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSource is a helper function to scan a source row including scrape_config
func scanSource(row rowScanner) (*entity.EventSource, error) {
	var source entity.EventSource
	var scrapeConfigJSON []byte
	if err := row.Scan(
		&source.ID, &source.Name, &source.BaseURL, &source.SourceType, &scrapeConfigJSON,
		&source.ScrapeFrequencyHours, &source.Active, &source.ErrorCount, &source.LastError,
		&source.LastScrapedAt, &source.NextScrapeAt, &source.CreatedAt, &source.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if len(scrapeConfigJSON) > 0 {
		var cfg entity.ScrapeConfig
		if err := json.Unmarshal(scrapeConfigJSON, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal scrape_config: %w", err)
		}
		source.ScrapeConfig = &cfg
	}
	return &source, nil
}

func marshalScrapeConfig(source *entity.EventSource) ([]byte, error) {
	if source.ScrapeConfig == nil {
		return nil, nil
	}
	data, err := json.Marshal(source.ScrapeConfig)
	if err != nil {
		return nil, fmt.Errorf("marshal scrape_config: %w", err)
	}
	return data, nil
}

func (repo *SourceRepo) Get(ctx context.Context, id string) (*entity.EventSource, error) {
	const query = `
SELECT ` + sourceColumns + `
FROM sources
WHERE id = $1
LIMIT 1`
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) GetByNameOrURL(ctx context.Context, name, baseURL string) (*entity.EventSource, error) {
	const query = `
SELECT ` + sourceColumns + `
FROM sources
WHERE name = $1
OR base_url = $2
LIMIT 1`
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, name, baseURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByNameOrURL: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) List(ctx context.Context) ([]*entity.EventSource, error) {
	const query = `
SELECT ` + sourceColumns + `
FROM sources
ORDER BY created_at ASC`
	return repo.list(ctx, "List", query)
}

func (repo *SourceRepo) ListActive(ctx context.Context) ([]*entity.EventSource, error) {
	const query = `
SELECT ` + sourceColumns + `
FROM sources
WHERE active = TRUE
ORDER BY created_at ASC`
	return repo.list(ctx, "ListActive", query)
}

func (repo *SourceRepo) ListDue(ctx context.Context, now time.Time) ([]*entity.EventSource, error) {
	const query = `
SELECT ` + sourceColumns + `
FROM sources
WHERE active = TRUE
AND (next_scrape_at IS NULL OR next_scrape_at <= $1)
ORDER BY next_scrape_at ASC NULLS FIRST`
	return repo.list(ctx, "ListDue", query, now)
}

func (repo *SourceRepo) list(ctx context.Context, op, query string, args ...interface{}) ([]*entity.EventSource, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.EventSource, 0, 50)
	for rows.Next() {
		source, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (repo *SourceRepo) Create(ctx context.Context, source *entity.EventSource) error {
	scrapeConfigJSON, err := marshalScrapeConfig(source)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}

	const query = `
INSERT INTO sources (id, name, base_url, source_type, scrape_config,
                     scrape_frequency_hours, active, error_count, last_error,
                     last_scraped_at, next_scrape_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err = repo.db.ExecContext(ctx, query,
		source.ID, source.Name, source.BaseURL, source.SourceType, scrapeConfigJSON,
		source.ScrapeFrequencyHours, source.Active, source.ErrorCount, source.LastError,
		source.LastScrapedAt, source.NextScrapeAt, source.CreatedAt, source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *SourceRepo) Update(ctx context.Context, source *entity.EventSource) error {
	scrapeConfigJSON, err := marshalScrapeConfig(source)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}

	const query = `
UPDATE sources SET
       name                   = $1,
       base_url               = $2,
       source_type            = $3,
       scrape_config          = $4,
       scrape_frequency_hours = $5,
       active                 = $6,
       updated_at             = $7
WHERE id = $8`
	res, err := repo.db.ExecContext(ctx, query,
		source.Name, source.BaseURL, source.SourceType, scrapeConfigJSON,
		source.ScrapeFrequencyHours, source.Active, source.UpdatedAt, source.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *SourceRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM sources WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *SourceRepo) SetActive(ctx context.Context, id string, active bool) error {
	const query = `
UPDATE sources SET active = $1, updated_at = now()
WHERE id = $2`
	res, err := repo.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("SetActive: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

// IncrementError bumps the counter and deactivates the source in the same
// statement when the threshold is crossed. Concurrent jobs for different
// sources never contend; concurrent increments on one source serialize on
// the row lock, so no update is ever lost.
func (repo *SourceRepo) IncrementError(ctx context.Context, id, message string, deactivateAt int) (*entity.EventSource, error) {
	const query = `
UPDATE sources SET
       error_count = error_count + 1,
       last_error  = $2,
       active      = CASE WHEN $3 > 0 AND error_count + 1 >= $3 THEN FALSE ELSE active END,
       updated_at  = now()
WHERE id = $1
RETURNING ` + sourceColumns
	source, err := scanSource(repo.db.QueryRowContext(ctx, query, id, message, deactivateAt))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("IncrementError: %w", err)
	}
	return source, nil
}

func (repo *SourceRepo) ResetError(ctx context.Context, id string) error {
	const query = `
UPDATE sources SET error_count = 0, last_error = '', updated_at = now()
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ResetError: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *SourceRepo) TouchScraped(ctx context.Context, id string, now, next time.Time) error {
	const query = `
UPDATE sources SET last_scraped_at = $1, next_scrape_at = $2, updated_at = $1
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, now, next, id)
	if err != nil {
		return fmt.Errorf("TouchScraped: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}
