package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/socialcrawl/internal/domain"
)

// AnalyticsRepository provides the read-only queries behind the aggregation
// engine. Each method corresponds to one sub-aggregation and surfaces its
// query failure to the caller; graceful degradation is the engine's job.
type AnalyticsRepository struct {
	db *sqlx.DB
}

// NewAnalyticsRepository creates a new analytics repository.
func NewAnalyticsRepository(db *sqlx.DB) *AnalyticsRepository {
	return &AnalyticsRepository{db: db}
}

// Overview holds the record count and creation-time bounds for a keyword.
type Overview struct {
	Total    int64        `db:"total"`
	Earliest sql.NullTime `db:"earliest"`
	Latest   sql.NullTime `db:"latest"`
}

// AuthorRow is one record's author and engagement, for author rankings.
type AuthorRow struct {
	Nickname   string            `db:"author_nickname"`
	Verified   bool              `db:"author_verified"`
	Engagement domain.CounterMap `db:"engagement"`
}

// ContentRow is one record's content-derived feature inputs.
type ContentRow struct {
	Content   string            `db:"content"`
	LongText  bool              `db:"long_text"`
	MediaURLs domain.StringList `db:"media_urls"`
	Source    string            `db:"source"`
}

// EngagementRow is one record's engagement counters with enough identity to
// rank it.
type EngagementRow struct {
	RecordID   string            `db:"record_id"`
	Nickname   string            `db:"author_nickname"`
	Content    string            `db:"content"`
	Engagement domain.CounterMap `db:"engagement"`
}

// dateExpr returns the SQL expression extracting a YYYY-MM-DD day from
// created_at for the connected driver.
func (r *AnalyticsRepository) dateExpr() string {
	if r.db.DriverName() == "postgres" {
		return `to_char(created_at, 'YYYY-MM-DD')`
	}
	return `strftime('%Y-%m-%d', created_at)`
}

// hourExpr returns the SQL expression extracting the hour of day from
// created_at for the connected driver.
func (r *AnalyticsRepository) hourExpr() string {
	if r.db.DriverName() == "postgres" {
		return `CAST(EXTRACT(HOUR FROM created_at) AS INTEGER)`
	}
	return `CAST(strftime('%H', created_at) AS INTEGER)`
}

// GetOverview returns the record count and creation-time bounds.
func (r *AnalyticsRepository) GetOverview(ctx context.Context, platform domain.Platform, keyword string) (*Overview, error) {
	query := r.db.Rebind(`
		SELECT COUNT(*)        AS total,
		       MIN(created_at) AS earliest,
		       MAX(created_at) AS latest
		FROM records
		WHERE platform = ? AND keyword = ?`)

	var overview Overview
	if err := r.db.GetContext(ctx, &overview, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get overview: %w", err)
	}

	return &overview, nil
}

// DailyCounts returns record counts grouped by calendar day, ascending.
func (r *AnalyticsRepository) DailyCounts(ctx context.Context, platform domain.Platform, keyword string) ([]domain.DayCount, error) {
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s AS date, COUNT(*) AS count
		FROM records
		WHERE platform = ? AND keyword = ?
		GROUP BY date
		ORDER BY date`, r.dateExpr()))

	var counts []domain.DayCount
	if err := r.db.SelectContext(ctx, &counts, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get daily counts: %w", err)
	}

	return counts, nil
}

// HourlyCounts returns record counts grouped by hour of day, ascending.
func (r *AnalyticsRepository) HourlyCounts(ctx context.Context, platform domain.Platform, keyword string) ([]domain.HourCount, error) {
	query := r.db.Rebind(fmt.Sprintf(`
		SELECT %s AS hour, COUNT(*) AS count
		FROM records
		WHERE platform = ? AND keyword = ?
		GROUP BY hour
		ORDER BY hour`, r.hourExpr()))

	var counts []domain.HourCount
	if err := r.db.SelectContext(ctx, &counts, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get hourly counts: %w", err)
	}

	return counts, nil
}

// AuthorRows returns author and engagement data for every matching record.
func (r *AnalyticsRepository) AuthorRows(ctx context.Context, platform domain.Platform, keyword string) ([]AuthorRow, error) {
	query := r.db.Rebind(`
		SELECT author_nickname, author_verified, engagement
		FROM records
		WHERE platform = ? AND keyword = ? AND author_nickname <> ''`)

	var rows []AuthorRow
	if err := r.db.SelectContext(ctx, &rows, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get author rows: %w", err)
	}

	return rows, nil
}

// ContentRows returns content feature inputs for every matching record.
func (r *AnalyticsRepository) ContentRows(ctx context.Context, platform domain.Platform, keyword string) ([]ContentRow, error) {
	query := r.db.Rebind(`
		SELECT content, long_text, media_urls, source
		FROM records
		WHERE platform = ? AND keyword = ?`)

	var rows []ContentRow
	if err := r.db.SelectContext(ctx, &rows, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get content rows: %w", err)
	}

	return rows, nil
}

// EngagementRows returns engagement counters for every matching record.
func (r *AnalyticsRepository) EngagementRows(ctx context.Context, platform domain.Platform, keyword string) ([]EngagementRow, error) {
	query := r.db.Rebind(`
		SELECT record_id, author_nickname, content, engagement
		FROM records
		WHERE platform = ? AND keyword = ?`)

	var rows []EngagementRow
	if err := r.db.SelectContext(ctx, &rows, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get engagement rows: %w", err)
	}

	return rows, nil
}

// Locations returns the non-empty free-text location of every matching record.
func (r *AnalyticsRepository) Locations(ctx context.Context, platform domain.Platform, keyword string) ([]string, error) {
	query := r.db.Rebind(`
		SELECT ip_location
		FROM records
		WHERE platform = ? AND keyword = ? AND ip_location <> ''`)

	var locations []string
	if err := r.db.SelectContext(ctx, &locations, query, platform.String(), keyword); err != nil {
		return nil, fmt.Errorf("failed to get locations: %w", err)
	}

	return locations, nil
}
