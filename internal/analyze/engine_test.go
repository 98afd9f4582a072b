package analyze_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/socialcrawl/internal/analyze"
	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
)

func newEngine(t *testing.T) (*analyze.Engine, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	engine := analyze.NewEngine(database.NewAnalyticsRepository(db), logger.NewNoOp())

	return engine, mock, func() { mockDB.Close() }
}

// Summarize issues its queries in a fixed order; these helpers register
// expectations in that order.

func expectOverview(mock sqlmock.Sqlmock, total int64, earliest, latest any) {
	mock.ExpectQuery(`MIN\(created_at\) AS earliest`).
		WithArgs("weibo", "golang").
		WillReturnRows(sqlmock.NewRows([]string{"total", "earliest", "latest"}).AddRow(total, earliest, latest))
}

func expectEngagementRows(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT record_id, author_nickname, content, engagement").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)
}

func engagementRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"record_id", "author_nickname", "content", "engagement"})
}

func expectTimeDistribution(mock sqlmock.Sqlmock) {
	mock.ExpectQuery("GROUP BY date").
		WithArgs("weibo", "golang").
		WillReturnRows(sqlmock.NewRows([]string{"date", "count"}).AddRow("2026-03-14", 3))
	mock.ExpectQuery("GROUP BY hour").
		WithArgs("weibo", "golang").
		WillReturnRows(sqlmock.NewRows([]string{"hour", "count"}).AddRow(21, 3))
}

func expectAuthorRows(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT author_nickname, author_verified, engagement").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)
}

func expectContentRows(mock sqlmock.Sqlmock, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT content, long_text, media_urls, source").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)
}

func expectLocations(mock sqlmock.Sqlmock, locations ...string) {
	rows := sqlmock.NewRows([]string{"ip_location"})
	for _, l := range locations {
		rows.AddRow(l)
	}
	mock.ExpectQuery("SELECT ip_location").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)
}

func TestEngine_Summarize_FullReport(t *testing.T) {
	engine, mock, cleanup := newEngine(t)
	defer cleanup()

	earliest := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	latest := time.Date(2026, 3, 14, 21, 0, 0, 0, time.UTC)

	expectOverview(mock, 3, earliest, latest)
	expectEngagementRows(mock, engagementRows().
		AddRow("r1", "alice", "post one", []byte(`{"reposts":10,"comments":5}`)).
		AddRow("r2", "alice", "post two", []byte(`{"reposts":2,"comments":1}`)).
		AddRow("r3", "bob", "post three", []byte(`{"reposts":30,"comments":0}`)))
	expectTimeDistribution(mock)
	expectAuthorRows(mock, sqlmock.NewRows([]string{"author_nickname", "author_verified", "engagement"}).
		AddRow("alice", true, []byte(`{"reposts":12}`)).
		AddRow("alice", true, []byte(`{"reposts":0}`)).
		AddRow("bob", false, []byte(`{"reposts":30}`)))
	expectContentRows(mock, sqlmock.NewRows([]string{"content", "long_text", "media_urls", "source"}).
		AddRow("talking about #春节#", true, []byte(`["https://img/1.jpg"]`), "iPhone").
		AddRow("plain post", false, []byte(`[]`), "iPhone").
		AddRow("another #春节# post", false, []byte(`[]`), "Android"))
	// The engagement sub-report re-reads the counter rows.
	expectEngagementRows(mock, engagementRows().
		AddRow("r1", "alice", "post one", []byte(`{"reposts":10,"comments":5}`)).
		AddRow("r2", "alice", "post two", []byte(`{"reposts":2,"comments":1}`)).
		AddRow("r3", "bob", "post three", []byte(`{"reposts":30,"comments":0}`)))
	expectLocations(mock, "北京", "北京", "上海")

	report := engine.Summarize(context.Background(), domain.PlatformWeibo, "golang")

	assert.Equal(t, domain.PlatformWeibo, report.Platform)
	assert.Equal(t, "golang", report.Keyword)
	assert.False(t, report.GeneratedAt.IsZero())

	// Basic stats
	assert.Equal(t, int64(3), report.BasicStats.TotalRecords)
	require.NotNil(t, report.BasicStats.EarliestPost)
	assert.True(t, report.BasicStats.EarliestPost.Equal(earliest))
	assert.InDelta(t, 14.0, report.BasicStats.AvgCounters["reposts"], 0.001)
	assert.InDelta(t, 2.0, report.BasicStats.AvgCounters["comments"], 0.001)

	// Time distribution
	require.Len(t, report.TimeDist.Daily, 1)
	assert.Equal(t, "2026-03-14", report.TimeDist.Daily[0].Date)
	require.Len(t, report.TimeDist.Hourly, 1)
	assert.Equal(t, 21, report.TimeDist.Hourly[0].Hour)

	// Authors: alice has two records, bob one.
	require.NotEmpty(t, report.Authors.TopActive)
	assert.Equal(t, "alice", report.Authors.TopActive[0].Nickname)
	assert.Equal(t, int64(2), report.Authors.TopActive[0].RecordCount)
	assert.Equal(t, int64(12), report.Authors.TopActive[0].Engagement["reposts"])
	assert.Equal(t, int64(2), report.Authors.Verified)
	assert.Equal(t, int64(1), report.Authors.Unverified)

	// Content: 1 of 3 long text, 1 of 3 with media, hashtag counted twice.
	assert.Equal(t, int64(3), report.Content.TotalAnalyzed)
	assert.InDelta(t, 33.33, report.Content.LongTextRatio, 0.001)
	assert.InDelta(t, 33.33, report.Content.MediaRatio, 0.001)
	require.NotEmpty(t, report.Content.TopHashtags)
	assert.Equal(t, "春节", report.Content.TopHashtags[0].Name)
	assert.Equal(t, int64(2), report.Content.TopHashtags[0].Count)
	require.Len(t, report.Content.TopSources, 2)
	assert.Equal(t, "iPhone", report.Content.TopSources[0].Name)

	// Engagement: totals sum all rows, maxima track the single best row, and
	// the top record is the one with the highest combined score.
	assert.Equal(t, int64(42), report.Engagement.Totals["reposts"])
	assert.Equal(t, int64(6), report.Engagement.Totals["comments"])
	assert.Equal(t, int64(30), report.Engagement.Maxima["reposts"])
	require.NotEmpty(t, report.Engagement.TopRecords)
	assert.Equal(t, "r3", report.Engagement.TopRecords[0].RecordID)
	assert.Equal(t, int64(30), report.Engagement.TopRecords[0].Total)

	// Geo
	require.NotEmpty(t, report.Geographic.TopLocations)
	assert.Equal(t, "北京", report.Geographic.TopLocations[0].Name)
	assert.Equal(t, int64(2), report.Geographic.TopLocations[0].Count)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestEngine_Summarize_SubReportsDegradeIndependently(t *testing.T) {
	engine, mock, cleanup := newEngine(t)
	defer cleanup()

	// Every backing query fails; the report must still come back whole with
	// zero-value sub-reports. A failed overview read skips the averages
	// query, leaving seven queries total.
	for range 7 {
		mock.ExpectQuery("SELECT").WillReturnError(errors.New("table missing"))
	}

	report := engine.Summarize(context.Background(), domain.PlatformWeibo, "golang")

	require.NotNil(t, report)
	assert.Equal(t, int64(0), report.BasicStats.TotalRecords)
	assert.Empty(t, report.TimeDist.Daily)
	assert.Empty(t, report.Authors.TopActive)
	assert.Equal(t, int64(0), report.Content.TotalAnalyzed)
	assert.Empty(t, report.Engagement.TopRecords)
	assert.Empty(t, report.Geographic.TopLocations)
}
