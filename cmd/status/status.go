// Package status implements the status command that displays per-platform
// record counts and the recent crawl run history in a formatted table.
package status

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/socialcrawl/cmd/common"
	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/logger"
	"github.com/jonesrussell/socialcrawl/internal/platform"
)

const defaultRecentRuns = 10

// Command returns the status command for use in the root command.
func Command() *cobra.Command {
	var recentRuns int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show database totals and recent crawl runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			db, err := cmdcommon.OpenDatabase(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer db.Close()

			reporter := &Reporter{
				records: database.NewRecordRepository(db, deps.Logger),
				runs:    database.NewRunRepository(db),
				logger:  deps.Logger,
			}
			return reporter.Render(cmd.Context(), recentRuns)
		},
	}

	cmd.Flags().IntVar(&recentRuns, "runs", defaultRecentRuns, "number of recent runs to display")

	return cmd
}

// Reporter renders the status tables.
type Reporter struct {
	records *database.RecordRepository
	runs    *database.RunRepository
	logger  logger.Interface
}

// Render prints the platform totals table and the recent run table.
func (r *Reporter) Render(ctx context.Context, recentRuns int) error {
	if err := r.renderPlatforms(ctx); err != nil {
		return err
	}
	return r.renderRuns(ctx, recentRuns)
}

func (r *Reporter) renderPlatforms(ctx context.Context) error {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Platforms")
	t.AppendHeader(table.Row{"Platform", "Records", "Today", "Latest Crawl"})

	midnight := localMidnight(time.Now())
	for _, name := range platform.Names() {
		p := domain.Platform(name)

		total, err := r.records.CountByPlatform(ctx, p)
		if err != nil {
			return fmt.Errorf("failed to count records for %s: %w", name, err)
		}
		today, err := r.records.CountSince(ctx, p, midnight)
		if err != nil {
			return fmt.Errorf("failed to count today's records for %s: %w", name, err)
		}

		latest := "never"
		if ts, latestErr := r.records.LatestCrawlTime(ctx, p); latestErr != nil {
			r.logger.Warn("latest crawl time unavailable", "platform", name, "error", latestErr)
		} else if !ts.IsZero() {
			latest = ts.Format(time.DateTime)
		}

		t.AppendRow(table.Row{name, total, today, latest})
	}

	t.Render()
	return nil
}

// localMidnight returns the start of the day in the time's own location.
// Truncate would round to UTC midnight instead.
func localMidnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

func (r *Reporter) renderRuns(ctx context.Context, limit int) error {
	runs, err := r.runs.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("failed to load recent runs: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Recent Runs")
	t.AppendHeader(table.Row{"Started", "Platform", "Keyword", "Pages", "New", "Persisted", "Status"})

	for _, run := range runs {
		t.AppendRow(table.Row{
			run.StartTime.Format(time.DateTime),
			run.Platform,
			run.Keyword,
			fmt.Sprintf("%d/%d", run.PagesFetched, run.PagesRequested),
			run.TotalNew,
			run.Persisted,
			run.Status,
		})
	}

	t.Render()
	return nil
}
