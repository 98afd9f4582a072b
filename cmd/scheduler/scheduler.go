// Package scheduler implements the scheduler command that runs recurring
// keyword crawls on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/socialcrawl/cmd/common"
	"github.com/jonesrussell/socialcrawl/internal/analyze"
	"github.com/jonesrussell/socialcrawl/internal/archive"
	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/dedup"
	"github.com/jonesrussell/socialcrawl/internal/platform"
)

// Command returns the scheduler command for use in the root command.
func Command() *cobra.Command {
	var (
		schedule     string
		keyword      string
		platformName string
	)

	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run recurring keyword crawls on a cron schedule",
		Long: `Run the crawler on a recurring cron schedule until interrupted with
Ctrl+C. Each tick runs one full crawl session for the configured keyword.
A tick is skipped when the previous session is still running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := cmdcommon.NewCommandDeps()
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			if keyword == "" {
				keyword = deps.Config.Crawler.Keyword
			}
			if keyword == "" {
				return crawler.ErrEmptyKeyword
			}
			if platformName == "" {
				platformName = deps.Config.Crawler.Platform
			}

			return run(cmd.Context(), deps, schedule, platformName, keyword)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "0 * * * *", "cron schedule for crawl sessions")
	cmd.Flags().StringVar(&keyword, "keyword", "", "keyword to search for (overrides crawler.keyword)")
	cmd.Flags().StringVar(&platformName, "platform", "", "platform to crawl (overrides crawler.platform)")

	return cmd
}

// run starts the cron loop and blocks until interrupted.
func run(ctx context.Context, deps cmdcommon.CommandDeps, schedule, platformName, keyword string) error {
	log := deps.Logger

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var busy atomic.Bool
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if !busy.CompareAndSwap(false, true) {
			log.Warn("previous crawl session still running, skipping tick",
				"platform", platformName, "keyword", keyword)
			return
		}
		defer busy.Store(false)

		if sessionErr := runSession(ctx, deps, platformName, keyword); sessionErr != nil {
			log.Error("scheduled crawl session failed",
				"platform", platformName, "keyword", keyword, "error", sessionErr)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}

	log.Info("Starting scheduler", "schedule", schedule, "platform", platformName, "keyword", keyword)
	c.Start()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	// Stop delivering ticks, then wait for an in-flight session to return.
	<-c.Stop().Done()
	log.Info("Scheduler stopped successfully")
	return nil
}

// runSession runs one full crawl session, mirroring the crawl command.
func runSession(ctx context.Context, deps cmdcommon.CommandDeps, platformName, keyword string) error {
	log := deps.Logger
	cfg := deps.Config

	db, err := cmdcommon.OpenDatabase(ctx, deps)
	if err != nil {
		return err
	}
	defer db.Close()

	settings, err := platform.LoadSettings(cfg.Platforms)
	if err != nil {
		return fmt.Errorf("failed to load platform settings: %w", err)
	}
	adapter, err := platform.NewAdapter(platformName, settings, cfg.Crawler.RequestTimeout, log)
	if err != nil {
		return err
	}

	records := database.NewRecordRepository(db, log)
	runs := database.NewRunRepository(db)

	existing, err := records.ExistingIDs(ctx, adapter.Platform())
	if err != nil {
		return fmt.Errorf("failed to seed dedup index: %w", err)
	}
	index := dedup.NewIndex()
	seed := make(map[dedup.Key]struct{}, len(existing))
	for id := range existing {
		seed[dedup.Key{Platform: adapter.Platform(), ID: id}] = struct{}{}
	}
	index.Seed(seed)

	store := archive.NewStore(cfg.Storage.DataDir, log)
	session, err := store.Open(adapter.Platform(), keyword)
	if err != nil {
		return fmt.Errorf("failed to open archive session: %w", err)
	}

	orchestrator := crawler.NewOrchestrator(
		crawler.Policy{
			MaxRetries:    cfg.Crawler.MaxRetries,
			BatchSize:     cfg.Crawler.BatchSize,
			RetryDelayMin: cfg.Crawler.RetryDelayMin,
			RetryDelayMax: cfg.Crawler.RetryDelayMax,
			PageDelayMin:  cfg.Crawler.PageDelayMin,
			PageDelayMax:  cfg.Crawler.PageDelayMax,
		},
		index,
		records,
		runs,
		crawler.NewIdentityRotator(cfg.Crawler.UserAgents),
		log,
	)

	crawlRun, runErr := orchestrator.Run(ctx, keyword, cfg.Crawler.MaxPages, adapter, session)
	if crawlRun == nil {
		return runErr
	}

	finishCtx := context.Background()
	engine := analyze.NewEngine(database.NewAnalyticsRepository(db), log)
	if reportErr := session.WriteReport(engine.Summarize(finishCtx, adapter.Platform(), keyword)); reportErr != nil {
		log.Error("failed to write analysis report", "error", reportErr)
	}
	if metaErr := session.WriteMetadata(&archive.Metadata{Keyword: keyword, Run: crawlRun}); metaErr != nil {
		log.Error("failed to write session metadata", "error", metaErr)
	}

	log.Info("crawl session finished",
		"run_id", crawlRun.ID,
		"status", crawlRun.Status,
		"pages_fetched", crawlRun.PagesFetched,
		"total_new", crawlRun.TotalNew,
		"persisted", crawlRun.Persisted,
		"duration", crawlRun.Duration())
	return runErr
}
