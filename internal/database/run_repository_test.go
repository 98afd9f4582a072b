package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/domain"
)

var runColumns = []string{
	"id", "platform", "keyword", "start_time", "end_time",
	"pages_requested", "pages_fetched", "total_new", "persisted", "failed", "dropped",
	"status", "error_message",
}

func newRunRepo(t *testing.T) (*database.RunRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewRunRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestRunRepository_Append(t *testing.T) {
	repo, mock, cleanup := newRunRepo(t)
	defer cleanup()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Minute)

	mock.ExpectExec("INSERT INTO crawl_runs").
		WithArgs(
			"run-1", "weibo", "golang", start, end,
			10, 10, 50, 48, 2, 1,
			"completed", "",
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Append(context.Background(), &domain.CrawlRun{
		ID:             "run-1",
		Platform:       domain.PlatformWeibo,
		Keyword:        "golang",
		StartTime:      start,
		EndTime:        end,
		PagesRequested: 10,
		PagesFetched:   10,
		TotalNew:       50,
		Persisted:      48,
		Failed:         2,
		Dropped:        1,
		Status:         domain.RunStatusCompleted,
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestRunRepository_Recent(t *testing.T) {
	repo, mock, cleanup := newRunRepo(t)
	defer cleanup()

	newer := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	rows := sqlmock.NewRows(runColumns).
		AddRow("run-2", "weibo", "golang", newer, newer.Add(time.Minute), 5, 5, 10, 10, 0, 0, "completed", "").
		AddRow("run-1", "weibo", "golang", older, older.Add(time.Minute), 5, 5, 20, 20, 0, 0, "error", "boom")
	mock.ExpectQuery("FROM crawl_runs").
		WithArgs(10).
		WillReturnRows(rows)

	runs, err := repo.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Recent() len = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-2" {
		t.Errorf("Recent()[0].ID = %q, want run-2 (newest first)", runs[0].ID)
	}
	if runs[1].Status != domain.RunStatusError || runs[1].ErrorMessage != "boom" {
		t.Errorf("Recent()[1] = %+v, want error status with message", runs[1])
	}

	expectationsMet(t, mock)
}

func TestRunRepository_Recent_EmptyLog(t *testing.T) {
	repo, mock, cleanup := newRunRepo(t)
	defer cleanup()

	mock.ExpectQuery("FROM crawl_runs").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(runColumns))

	runs, err := repo.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if runs == nil || len(runs) != 0 {
		t.Errorf("Recent() = %v, want empty non-nil slice", runs)
	}

	expectationsMet(t, mock)
}
