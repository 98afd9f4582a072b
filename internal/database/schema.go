package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// recordsSchema creates the records table. One row per logical item; the
// (platform, record_id) pair is the dedup key and is enforced unique so a
// second insert of the same item is a no-op.
const recordsSchema = `
CREATE TABLE IF NOT EXISTS records (
	id              %s,
	record_id       VARCHAR(64)  NOT NULL,
	platform        VARCHAR(20)  NOT NULL,
	keyword         VARCHAR(100) NOT NULL,
	content         TEXT         NOT NULL DEFAULT '',
	long_text       BOOLEAN      NOT NULL DEFAULT FALSE,
	created_at      TIMESTAMP    NOT NULL,
	engagement      TEXT         NOT NULL DEFAULT '{}',
	author_id       VARCHAR(64)  NOT NULL DEFAULT '',
	author_nickname VARCHAR(100) NOT NULL DEFAULT '',
	author_verified BOOLEAN      NOT NULL DEFAULT FALSE,
	media_urls      TEXT         NOT NULL DEFAULT '[]',
	geo             TEXT,
	ip_location     VARCHAR(100) NOT NULL DEFAULT '',
	source          VARCHAR(200) NOT NULL DEFAULT '',
	url             VARCHAR(500) NOT NULL DEFAULT '',
	crawled_at      TIMESTAMP    NOT NULL,
	UNIQUE (platform, record_id)
)`

const runsSchema = `
CREATE TABLE IF NOT EXISTS crawl_runs (
	id              VARCHAR(36)  PRIMARY KEY,
	platform        VARCHAR(20)  NOT NULL,
	keyword         VARCHAR(100) NOT NULL,
	start_time      TIMESTAMP    NOT NULL,
	end_time        TIMESTAMP    NOT NULL,
	pages_requested INTEGER      NOT NULL DEFAULT 0,
	pages_fetched   INTEGER      NOT NULL DEFAULT 0,
	total_new       INTEGER      NOT NULL DEFAULT 0,
	persisted       INTEGER      NOT NULL DEFAULT 0,
	failed          INTEGER      NOT NULL DEFAULT 0,
	dropped         INTEGER      NOT NULL DEFAULT 0,
	status          VARCHAR(20)  NOT NULL,
	error_message   TEXT         NOT NULL DEFAULT ''
)`

var recordIndexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_records_keyword ON records (platform, keyword)`,
	`CREATE INDEX IF NOT EXISTS idx_records_created_at ON records (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_records_crawled_at ON records (crawled_at)`,
}

// Migrate creates the tables and indexes the pipeline depends on.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	pk := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if db.DriverName() == "postgres" {
		pk = "BIGSERIAL PRIMARY KEY"
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf(recordsSchema, pk)); err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}
	if _, err := db.ExecContext(ctx, runsSchema); err != nil {
		return fmt.Errorf("failed to create crawl_runs table: %w", err)
	}
	for _, stmt := range recordIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
