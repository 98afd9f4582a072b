package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/socialcrawl/internal/domain"
)

// RunRepository handles the append-only crawl run log.
type RunRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a new run log repository.
func NewRunRepository(db *sqlx.DB) *RunRepository {
	return &RunRepository{db: db}
}

const appendRunSQL = `
INSERT INTO crawl_runs (
	id, platform, keyword, start_time, end_time,
	pages_requested, pages_fetched, total_new, persisted, failed, dropped,
	status, error_message
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Append writes a finalized run as an immutable log entry. Prior entries
// are never updated.
func (r *RunRepository) Append(ctx context.Context, run *domain.CrawlRun) error {
	query := r.db.Rebind(appendRunSQL)

	_, err := r.db.ExecContext(
		ctx,
		query,
		run.ID,
		run.Platform.String(),
		run.Keyword,
		run.StartTime,
		run.EndTime,
		run.PagesRequested,
		run.PagesFetched,
		run.TotalNew,
		run.Persisted,
		run.Failed,
		run.Dropped,
		string(run.Status),
		run.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to append crawl run: %w", err)
	}

	return nil
}

// Recent returns the most recent runs, newest first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]*domain.CrawlRun, error) {
	query := r.db.Rebind(`
		SELECT id, platform, keyword, start_time, end_time,
		       pages_requested, pages_fetched, total_new, persisted, failed, dropped,
		       status, error_message
		FROM crawl_runs
		ORDER BY start_time DESC
		LIMIT ?`)

	var runs []*domain.CrawlRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list crawl runs: %w", err)
	}

	if runs == nil {
		runs = []*domain.CrawlRun{}
	}

	return runs, nil
}
