package main

import (
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"capl-hq/capl/pkg/capl"
	"capl-hq/capl/pkg/cli"
	"capl-hq/capl/pkg/config"
	"capl-hq/capl/pkg/history/retention"
	"capl-hq/capl/pkg/telemetry/metrics"
	"capl-hq/capl/pkg/watch"
)

var watchFlags struct {
	format   string
	output   string
	optimize bool
	metrics  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch <file-or-dir>",
	Short: "Recompile CAPL sources on every change",
	Long: `Watch a CAPL source file or directory and recompile after each change.

Filesystem events are debounced so editor save bursts trigger a single
rebuild. With --metrics (or telemetry.metrics.enabled in the config
file) a Prometheus endpoint reports compile counts, durations, and
rebuild totals.

Examples:
  # Watch a directory, writing outputs next to a batch run
  caplc watch --output out/ policies/

  # Watch a single file with the metrics endpoint enabled
  caplc watch --metrics policies.capl`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchFlags.format, "format", "f", "", "output format: yaml, json, csv")
	watchCmd.Flags().StringVarP(&watchFlags.output, "output", "o", "", "output directory")
	watchCmd.Flags().BoolVar(&watchFlags.optimize, "optimize", false, "merge paths with identical outcomes")
	watchCmd.Flags().BoolVar(&watchFlags.metrics, "metrics", false, "expose the Prometheus metrics endpoint")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if watchFlags.format != "" {
		cfg.Output.Format = watchFlags.format
	}
	if watchFlags.output != "" {
		cfg.Output.Dir = watchFlags.output
	}
	if watchFlags.optimize {
		cfg.Compiler.Optimize = true
	}
	if watchFlags.metrics {
		cfg.Telemetry.Metrics.Enabled = true
	}

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	if cfg.Output.Dir != "" {
		if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
			return cli.NewCommandError("watch", err)
		}
	}

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
	if cfg.Telemetry.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
		server := &http.Server{Addr: cfg.Telemetry.Metrics.ListenAddress, Handler: mux}
		go func() {
			logger.Info("metrics endpoint listening",
				"address", cfg.Telemetry.Metrics.ListenAddress,
				"path", cfg.Telemetry.Metrics.Path)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
		defer server.Close()
	}

	ctx := cli.SetupSignalHandler()

	// Watch mode is the long-running process, so scheduled history pruning
	// runs here when recording is on.
	if cfg.History.Enabled {
		store, err := openHistoryStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		retentionCfg := &retention.Config{
			RetentionDays: cfg.History.RetentionDays,
			PruneSchedule: cfg.History.PruneSchedule,
		}
		scheduler := retention.NewScheduler(retention.NewPruner(store, retentionCfg))
		if err := scheduler.Start(ctx); err != nil {
			return cli.NewCommandError("watch", err)
		}
		defer scheduler.Stop()
	}

	compiler := newCompiler(cfg)

	watchCfg := watch.DefaultConfig()
	watchCfg.Path = args[0]
	if cfg.Watch.Debounce > 0 {
		watchCfg.DebounceInterval = cfg.Watch.Debounce
	}

	watcher, err := watch.NewWatcher(watchCfg, logger.Slog())
	if err != nil {
		return cli.NewCommandError("watch", err)
	}
	defer watcher.Stop()

	rebuild := func(path string) error {
		started := time.Now()
		result := compiler.CompileFile(path)

		cli.PrintDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)
		cli.PrintCompileSummary(cmd.ErrOrStderr(), path, len(result.Policies),
			result.Statements, result.Diagnostics.Count())

		collector.RecordWatchRebuild()
		collector.RecordCompile(time.Since(started), len(result.Policies),
			result.Diagnostics.Count())

		if len(result.Policies) > 0 {
			if err := writeWatchOutput(cmd, cfg, path, result); err != nil {
				logger.Error("failed to write output", "source", path, "error", err)
			}
		}
		return nil
	}

	logger.Info("watching for changes", "path", args[0],
		"debounce", watchCfg.DebounceInterval)

	if err := watcher.Watch(ctx, rebuild); err != nil {
		return cli.NewCommandError("watch", err)
	}
	return nil
}

func writeWatchOutput(cmd *cobra.Command, cfg *config.Config, path string, result *capl.Result) error {
	if cfg.Output.Dir == "" {
		return exportTo(cmd, cfg, result, cmd.OutOrStdout())
	}
	return writeToDir(cmd, cfg, path, result)
}
