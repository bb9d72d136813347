package db

import (
	"database/sql"
)

func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sources (
    id                     TEXT PRIMARY KEY,
    name                   TEXT NOT NULL UNIQUE,
    base_url               TEXT NOT NULL UNIQUE,
    source_type            VARCHAR(20) NOT NULL DEFAULT 'Feed',
    scrape_config          JSONB,
    scrape_frequency_hours INTEGER NOT NULL DEFAULT 24,
    active                 BOOLEAN NOT NULL DEFAULT TRUE,
    error_count            INTEGER NOT NULL DEFAULT 0,
    last_error             TEXT NOT NULL DEFAULT '',
    last_scraped_at        TIMESTAMPTZ,
    next_scrape_at         TIMESTAMPTZ,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS events (
    id            TEXT PRIMARY KEY,
    source_id     TEXT NOT NULL REFERENCES sources(id) ON DELETE CASCADE,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    start_time    TIMESTAMPTZ,
    end_time      TIMESTAMPTZ,
    location      TEXT NOT NULL DEFAULT '',
    price         TEXT NOT NULL DEFAULT '',
    image_url     TEXT NOT NULL DEFAULT '',
    source_url    TEXT NOT NULL DEFAULT '',
    scrape_hash   TEXT NOT NULL DEFAULT '',
    quality_score INTEGER NOT NULL DEFAULT 0,
    extracted_at  TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scrape_job_results (
    id             TEXT PRIMARY KEY,
    source_id      TEXT NOT NULL,
    status         VARCHAR(20) NOT NULL,
    events_found   INTEGER NOT NULL DEFAULT 0,
    events_created INTEGER NOT NULL DEFAULT 0,
    events_updated INTEGER NOT NULL DEFAULT 0,
    events_skipped INTEGER NOT NULL DEFAULT 0,
    error_message  TEXT NOT NULL DEFAULT '',
    started_at     TIMESTAMPTZ NOT NULL,
    finished_at    TIMESTAMPTZ NOT NULL
)`); err != nil {
		return err
	}

	// パフォーマンス最適化: インデックス追加
	indexes := []string{
		// ソース単位のイベントスナップショット取得用(取り込みごとに使用)
		`CREATE INDEX IF NOT EXISTS idx_events_source_id ON events(source_id)`,
		// 同一性ハッシュの高速照合用
		`CREATE INDEX IF NOT EXISTS idx_events_scrape_hash ON events(scrape_hash)`,
		// 本日作成件数の集計用
		`CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at)`,
		// アクティブソース絞り込み用(WHERE active = TRUE)
		`CREATE INDEX IF NOT EXISTS idx_sources_active ON sources(active) WHERE active = TRUE`,
		// 期限到来ソース検索用(スケジューラのティックごとに使用)
		`CREATE INDEX IF NOT EXISTS idx_sources_next_scrape_at ON sources(next_scrape_at)`,
		// 直近ジョブ履歴の取得用
		`CREATE INDEX IF NOT EXISTS idx_job_results_finished_at ON scrape_job_results(finished_at DESC)`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	// source_type制約追加
	// PostgreSQL特有の制約構文のため、エラーを無視(既に存在する場合)
	_, _ = db.Exec(`
DO $$
BEGIN
    IF NOT EXISTS (
        SELECT 1 FROM pg_constraint
        WHERE conname = 'chk_source_type'
    ) THEN
        ALTER TABLE sources ADD CONSTRAINT chk_source_type
        CHECK (source_type IN ('Feed', 'API', 'HTML'));
    END IF;
END $$;
`)

	return nil
}

// MigrateDown rolls back the database schema.
// Use with caution: this will delete all data in the affected tables.
func MigrateDown(db *sql.DB) error {
	dropStatements := []string{
		`DROP TABLE IF EXISTS scrape_job_results`,
		`DROP TABLE IF EXISTS events CASCADE`,
		`DROP TABLE IF EXISTS sources CASCADE`,
	}
	for _, stmt := range dropStatements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
