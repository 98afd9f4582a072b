// Package crawl implements the crawl command: one keyword crawl session
// from fetch through persistence, archive, and the final analysis report.
package crawl

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/socialcrawl/cmd/common"
	"github.com/jonesrussell/socialcrawl/internal/analyze"
	"github.com/jonesrussell/socialcrawl/internal/archive"
	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/dedup"
	"github.com/jonesrussell/socialcrawl/internal/domain"
	"github.com/jonesrussell/socialcrawl/internal/platform"
)

// Command returns the crawl command for use in the root command.
func Command() *cobra.Command {
	var (
		keyword      string
		pages        int
		platformName string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl a platform for a keyword",
		Long: `This command crawls a social platform for posts matching a keyword,
persists new records to the database, archives the session on disk, and
writes an analysis report for the keyword.

Flags override the crawler settings from the config file.`,
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
			if pages <= 0 {
				pages = deps.Config.Crawler.MaxPages
			}
			if platformName == "" {
				platformName = deps.Config.Crawler.Platform
			}

			return run(cmd.Context(), deps, platformName, keyword, pages)
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "keyword to search for (overrides crawler.keyword)")
	cmd.Flags().IntVar(&pages, "pages", 0, "number of result pages to crawl (overrides crawler.max_pages)")
	cmd.Flags().StringVar(&platformName, "platform", "", "platform to crawl (overrides crawler.platform)")

	return cmd
}

// run executes one crawl session end to end.
func run(ctx context.Context, deps cmdcommon.CommandDeps, platformName, keyword string, pages int) error {
	log := deps.Logger
	cfg := deps.Config

	// Interrupts cancel cooperatively; the orchestrator finishes the page
	// in flight and flushes before returning.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	// Seed the dedup index before any fetch; a failed seed read aborts the
	// run rather than risking duplicate inserts.
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
	log.Info("dedup index seeded", "platform", adapter.Platform(), "known_ids", index.Len())

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

	crawlRun, runErr := orchestrator.Run(ctx, keyword, pages, adapter, session)
	if crawlRun == nil {
		return runErr
	}

	// The report and metadata are written with a fresh context so a
	// cancelled run still closes its session cleanly.
	finishCtx := context.Background()
	engine := analyze.NewEngine(database.NewAnalyticsRepository(db), log)
	report := engine.Summarize(finishCtx, adapter.Platform(), keyword)
	if reportErr := session.WriteReport(report); reportErr != nil {
		log.Error("failed to write analysis report", "error", reportErr)
	}

	// Metadata goes last; its presence marks a cleanly closed session.
	if metaErr := session.WriteMetadata(&archive.Metadata{Keyword: keyword, Run: crawlRun}); metaErr != nil {
		log.Error("failed to write session metadata", "error", metaErr)
	}

	printSummary(crawlRun, session.Dir())

	if runErr != nil {
		return fmt.Errorf("crawl run finished with error: %w", runErr)
	}
	return nil
}

// printSummary prints the human-readable session summary.
func printSummary(run *domain.CrawlRun, sessionDir string) {
	fmt.Printf("\nCrawl session %s finished: %s\n", run.ID, run.Status)
	fmt.Printf("  Platform:       %s\n", run.Platform)
	fmt.Printf("  Keyword:        %s\n", run.Keyword)
	fmt.Printf("  Pages fetched:  %d/%d\n", run.PagesFetched, run.PagesRequested)
	fmt.Printf("  New records:    %d\n", run.TotalNew)
	fmt.Printf("  Persisted:      %d\n", run.Persisted)
	fmt.Printf("  Failed:         %d\n", run.Failed)
	fmt.Printf("  Dropped:        %d\n", run.Dropped)
	fmt.Printf("  Duration:       %s\n", run.Duration().Round(time.Millisecond))
	fmt.Printf("  Session dir:    %s\n", sessionDir)
}
