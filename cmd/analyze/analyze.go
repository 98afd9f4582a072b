// Package analyze implements the analyze command: a standalone analysis
// report over already-persisted records.
package analyze

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cmdcommon "github.com/jonesrussell/socialcrawl/cmd/common"
	"github.com/jonesrussell/socialcrawl/internal/analyze"
	"github.com/jonesrussell/socialcrawl/internal/crawler"
	"github.com/jonesrussell/socialcrawl/internal/database"
	"github.com/jonesrussell/socialcrawl/internal/domain"
)

// Command returns the analyze command for use in the root command.
func Command() *cobra.Command {
	var (
		keyword      string
		platformName string
		output       string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Generate an analysis report for a keyword",
		Long: `This command aggregates all persisted records for a platform and keyword
into an analysis report and prints it as JSON. Use --output to write the
report to a file instead.`,
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

			db, err := cmdcommon.OpenDatabase(cmd.Context(), deps)
			if err != nil {
				return err
			}
			defer db.Close()

			engine := analyze.NewEngine(database.NewAnalyticsRepository(db), deps.Logger)
			report := engine.Summarize(cmd.Context(), domain.Platform(platformName), keyword)

			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode report: %w", err)
			}

			if output != "" {
				if writeErr := os.WriteFile(output, data, 0o644); writeErr != nil {
					return fmt.Errorf("failed to write report: %w", writeErr)
				}
				deps.Logger.Info("report written", "path", output)
				return nil
			}

			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "keyword to analyze (overrides crawler.keyword)")
	cmd.Flags().StringVar(&platformName, "platform", "", "platform to analyze (overrides crawler.platform)")
	cmd.Flags().StringVar(&output, "output", "", "write the report to this file instead of stdout")

	return cmd
}
