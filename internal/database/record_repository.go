package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
)

// RecordRepository handles database operations for collected records.
type RecordRepository struct {
	db     *sqlx.DB
	logger logger.Interface
}

// NewRecordRepository creates a new record repository.
func NewRecordRepository(db *sqlx.DB, log logger.Interface) *RecordRepository {
	return &RecordRepository{db: db, logger: log}
}

// nullGeo moves an optional Geo between Go and a nullable JSON column.
type nullGeo struct {
	Geo *domain.Geo
}

// Scan implements the sql.Scanner interface.
func (n *nullGeo) Scan(value any) error {
	if value == nil {
		n.Geo = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for geo column")
	}

	if len(data) == 0 {
		n.Geo = nil
		return nil
	}

	var geo domain.Geo
	if err := json.Unmarshal(data, &geo); err != nil {
		return err
	}
	n.Geo = &geo
	return nil
}

// Value implements the driver.Valuer interface.
func (n nullGeo) Value() (driver.Value, error) {
	if n.Geo == nil {
		return nil, nil
	}
	return json.Marshal(n.Geo)
}

// ExistingIDs returns every record identifier already persisted for the
// platform. It is used once at startup to seed the dedup index and fails
// loudly when the store is unreachable; running with an empty index would
// re-ingest historical data as new.
func (r *RecordRepository) ExistingIDs(ctx context.Context, platform domain.Platform) (map[string]struct{}, error) {
	query := r.db.Rebind(`SELECT record_id FROM records WHERE platform = ?`)

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, platform.String()); err != nil {
		return nil, fmt.Errorf("failed to load existing record ids: %w", err)
	}

	existing := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		existing[id] = struct{}{}
	}

	return existing, nil
}

const insertRecordSQL = `
INSERT INTO records (
	record_id, platform, keyword, content, long_text, created_at,
	engagement, author_id, author_nickname, author_verified,
	media_urls, geo, ip_location, source, url, crawled_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (platform, record_id) DO NOTHING`

// InsertBatch attempts an insert-if-absent for each record keyed by
// (platform, record_id). A record whose key already exists in the store is
// treated as success; a malformed record is counted as failed and the batch
// continues.
func (r *RecordRepository) InsertBatch(ctx context.Context, records []*domain.Record) (succeeded, failed int) {
	if len(records) == 0 {
		return 0, 0
	}

	query := r.db.Rebind(insertRecordSQL)

	for _, rec := range records {
		ipLocation := ""
		if rec.Geo != nil {
			ipLocation = rec.Geo.IPLocation
		}

		_, err := r.db.ExecContext(
			ctx,
			query,
			rec.ID,
			rec.Platform.String(),
			rec.Keyword,
			rec.Content,
			rec.LongText,
			rec.CreatedAt,
			rec.Engagement,
			rec.Author.ID,
			rec.Author.Nickname,
			rec.Author.Verified,
			rec.MediaURLs,
			nullGeo{Geo: rec.Geo},
			ipLocation,
			rec.Source,
			rec.URL,
			rec.CrawledAt,
		)
		if err != nil {
			failed++
			r.logger.Error("Failed to insert record",
				"platform", rec.Platform.String(),
				"record_id", rec.ID,
				"error", err)
			continue
		}
		succeeded++
	}

	return succeeded, failed
}

// CountByPlatform returns the total number of persisted records for the platform.
func (r *RecordRepository) CountByPlatform(ctx context.Context, platform domain.Platform) (int64, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM records WHERE platform = ?`)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, platform.String()); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}

	return count, nil
}

// CountSince returns the number of records crawled at or after the cutoff.
func (r *RecordRepository) CountSince(ctx context.Context, platform domain.Platform, cutoff time.Time) (int64, error) {
	query := r.db.Rebind(`SELECT COUNT(*) FROM records WHERE platform = ? AND crawled_at >= ?`)

	var count int64
	if err := r.db.GetContext(ctx, &count, query, platform.String(), cutoff); err != nil {
		return 0, fmt.Errorf("failed to count recent records: %w", err)
	}

	return count, nil
}

// LatestCrawlTime returns the most recent ingestion timestamp for the
// platform, or the zero time when nothing has been collected yet.
func (r *RecordRepository) LatestCrawlTime(ctx context.Context, platform domain.Platform) (time.Time, error) {
	query := r.db.Rebind(`SELECT MAX(crawled_at) FROM records WHERE platform = ?`)

	var latest sql.NullTime
	if err := r.db.GetContext(ctx, &latest, query, platform.String()); err != nil {
		return time.Time{}, fmt.Errorf("failed to get latest crawl time: %w", err)
	}
	if !latest.Valid {
		return time.Time{}, nil
	}

	return latest.Time, nil
}
