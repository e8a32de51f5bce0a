package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"capl-hq/capl/pkg/cli"
	"capl-hq/capl/pkg/history"
	"capl-hq/capl/pkg/history/retention"
)

var historyListFlags struct {
	source string
	failed bool
	since  string
	limit  int
}

var historyPruneFlags struct {
	days int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded compile runs",
	Long: `Inspect the compile-run history recorded by batch compiles.

Recording is controlled by the history section of the config file. The
list subcommand queries past runs; prune removes runs older than the
retention window.`,
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded compile runs, newest first",
	Long: `List recorded compile runs, newest first.

Examples:
  # The last 20 runs
  caplc history list

  # Failed runs for one source
  caplc history list --source policies.capl --failed

  # Runs since a date
  caplc history list --since 2026-08-01`,
	RunE: runHistoryList,
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete runs older than the retention window",
	Long: `Delete recorded runs older than the retention window.

The window comes from history.retention_days in the config file, or
--days when given.`,
	RunE: runHistoryPrune,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyPruneCmd)

	historyListCmd.Flags().StringVar(&historyListFlags.source, "source", "", "restrict to one source file")
	historyListCmd.Flags().BoolVar(&historyListFlags.failed, "failed", false, "only runs with diagnostics")
	historyListCmd.Flags().StringVar(&historyListFlags.since, "since", "", "only runs started on or after this date (YYYY-MM-DD)")
	historyListCmd.Flags().IntVar(&historyListFlags.limit, "limit", 20, "maximum runs to list")

	historyPruneCmd.Flags().IntVar(&historyPruneFlags.days, "days", 0, "override the retention window in days")
}

// openConfiguredStore opens the configured backend even when recording is
// disabled, so past runs stay readable.
func openConfiguredStore() (history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if _, err := setupLogging(cfg); err != nil {
		return nil, err
	}

	enabled := *cfg
	enabled.History.Enabled = true
	return openHistoryStore(&enabled)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := openConfiguredStore()
	if err != nil {
		return err
	}
	defer store.Close()

	query := &history.Query{
		SourceFile: historyListFlags.source,
		OnlyFailed: historyListFlags.failed,
		Limit:      historyListFlags.limit,
	}
	if historyListFlags.since != "" {
		since, err := time.Parse("2006-01-02", historyListFlags.since)
		if err != nil {
			return cli.NewCommandError("history", fmt.Errorf("invalid --since date: %w", err))
		}
		query.Since = &since
	}

	runs, err := store.List(cmd.Context(), query)
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded runs")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tSOURCE\tPOLICIES\tERRORS\tDURATION\tOPTIMIZED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%v\n",
			run.StartedAt.Format(time.RFC3339),
			run.SourceFile,
			run.PolicyCount,
			run.ErrorCount,
			run.Duration.Round(time.Millisecond),
			run.Optimized)
	}
	return w.Flush()
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if _, err := setupLogging(cfg); err != nil {
		return err
	}

	enabled := *cfg
	enabled.History.Enabled = true
	store, err := openHistoryStore(&enabled)
	if err != nil {
		return err
	}
	defer store.Close()

	retentionCfg := retention.DefaultConfig()
	if cfg.History.RetentionDays > 0 {
		retentionCfg.RetentionDays = cfg.History.RetentionDays
	}
	if historyPruneFlags.days > 0 {
		retentionCfg.RetentionDays = historyPruneFlags.days
	}

	pruner := retention.NewPruner(store, retentionCfg)
	deleted, err := pruner.Prune(cmd.Context())
	if err != nil {
		return cli.NewCommandError("history", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "deleted %d runs older than %d days\n",
		deleted, retentionCfg.RetentionDays)
	return nil
}
