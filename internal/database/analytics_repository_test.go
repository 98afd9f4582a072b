package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/domain"
)

func newAnalyticsRepo(t *testing.T) (*database.AnalyticsRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewAnalyticsRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestAnalyticsRepository_GetOverview(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	earliest := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	latest := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"total", "earliest", "latest"}).
		AddRow(120, earliest, latest)
	mock.ExpectQuery(`MIN\(created_at\) AS earliest`).
		WithArgs("weibo", "golang").
		WillReturnRows(rows)

	overview, err := repo.GetOverview(context.Background(), domain.PlatformWeibo, "golang")
	if err != nil {
		t.Fatalf("GetOverview() error = %v", err)
	}
	if overview.Total != 120 {
		t.Errorf("Total = %d, want 120", overview.Total)
	}
	if !overview.Earliest.Valid || !overview.Earliest.Time.Equal(earliest) {
		t.Errorf("Earliest = %+v, want %v", overview.Earliest, earliest)
	}

	expectationsMet(t, mock)
}

func TestAnalyticsRepository_GetOverview_EmptyTable(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"total", "earliest", "latest"}).
		AddRow(0, nil, nil)
	mock.ExpectQuery(`MIN\(created_at\) AS earliest`).
		WithArgs("weibo", "golang").
		WillReturnRows(rows)

	overview, err := repo.GetOverview(context.Background(), domain.PlatformWeibo, "golang")
	if err != nil {
		t.Fatalf("GetOverview() error = %v", err)
	}
	if overview.Total != 0 || overview.Earliest.Valid || overview.Latest.Valid {
		t.Errorf("GetOverview() = %+v, want zero overview", overview)
	}

	expectationsMet(t, mock)
}

func TestAnalyticsRepository_DailyCounts(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"date", "count"}).
		AddRow("2026-03-13", 10).
		AddRow("2026-03-14", 25)
	mock.ExpectQuery("GROUP BY date").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)

	counts, err := repo.DailyCounts(context.Background(), domain.PlatformWeibo, "golang")
	if err != nil {
		t.Fatalf("DailyCounts() error = %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("DailyCounts() len = %d, want 2", len(counts))
	}
	if counts[0].Date != "2026-03-13" || counts[0].Count != 10 {
		t.Errorf("DailyCounts()[0] = %+v", counts[0])
	}

	expectationsMet(t, mock)
}

func TestAnalyticsRepository_HourlyCounts(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"hour", "count"}).
		AddRow(9, 5).
		AddRow(21, 40)
	mock.ExpectQuery("GROUP BY hour").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)

	counts, err := repo.HourlyCounts(context.Background(), domain.PlatformWeibo, "golang")
	if err != nil {
		t.Fatalf("HourlyCounts() error = %v", err)
	}
	if len(counts) != 2 || counts[1].Hour != 21 || counts[1].Count != 40 {
		t.Errorf("HourlyCounts() = %+v", counts)
	}

	expectationsMet(t, mock)
}

func TestAnalyticsRepository_AuthorRows(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"author_nickname", "author_verified", "engagement"}).
		AddRow("alice", true, []byte(`{"reposts":5,"comments":2}`)).
		AddRow("bob", false, []byte(`{"reposts":1}`))
	mock.ExpectQuery("SELECT author_nickname, author_verified, engagement").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)

	authorRows, err := repo.AuthorRows(context.Background(), domain.PlatformWeibo, "golang")
	if err != nil {
		t.Fatalf("AuthorRows() error = %v", err)
	}
	if len(authorRows) != 2 {
		t.Fatalf("AuthorRows() len = %d, want 2", len(authorRows))
	}
	if authorRows[0].Engagement["reposts"] != 5 {
		t.Errorf("AuthorRows()[0].Engagement = %v", authorRows[0].Engagement)
	}

	expectationsMet(t, mock)
}

func TestAnalyticsRepository_Locations(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"ip_location"}).
		AddRow("北京").
		AddRow("上海").
		AddRow("北京")
	mock.ExpectQuery("SELECT ip_location").
		WithArgs("weibo", "golang").
		WillReturnRows(rows)

	locations, err := repo.Locations(context.Background(), domain.PlatformWeibo, "golang")
	if err != nil {
		t.Fatalf("Locations() error = %v", err)
	}
	if len(locations) != 3 {
		t.Errorf("Locations() len = %d, want 3", len(locations))
	}

	expectationsMet(t, mock)
}

func TestAnalyticsRepository_QueryFailureSurfaces(t *testing.T) {
	repo, mock, cleanup := newAnalyticsRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT record_id, author_nickname, content, engagement").
		WillReturnError(errors.New("relation does not exist"))

	_, err := repo.EngagementRows(context.Background(), domain.PlatformWeibo, "golang")
	if err == nil {
		t.Fatal("EngagementRows() expected error, got nil")
	}

	expectationsMet(t, mock)
}
