package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"capl-hq/capl/pkg/cli"
	"capl-hq/capl/pkg/config"
	"capl-hq/capl/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile   string
	logLevel  string
	logFormat string
)

// errDiagnostics marks a run that completed but produced compile
// diagnostics, so Execute can exit with the diagnostics code instead of
// the tool-failure code.
var errDiagnostics = errors.New("compilation produced diagnostics")

var rootCmd = &cobra.Command{
	Use:   "caplc",
	Short: "CAPL conditional access policy compiler",
	Long: `Caplc compiles CAPL decision trees into flat conditional access policies.

Each root-to-leaf path through a source's IF/ELSE trees becomes one
self-contained policy record, shaped for the Microsoft Graph conditional
access schema and serialized as YAML, JSON, or CSV.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and maps the outcome to a process exit
// code: 0 for success, 1 for compile diagnostics, 2 for tool failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errDiagnostics) {
			os.Exit(cli.ExitDiagnostics)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.ExitFailure)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override log format (text, json)")
}

// loadConfig loads the configuration file named by --config, or the
// defaults when no file was given. Flag overrides are applied on top.
func loadConfig() (*config.Config, error) {
	var cfg *config.Config

	if cfgFile != "" {
		loaded, err := config.LoadConfigWithEnvOverrides(cfgFile)
		if err != nil {
			return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
		}
		cfg = loaded
	} else {
		cfg = config.DefaultConfig()
	}

	if logLevel != "" {
		cfg.Telemetry.Logging.Level = logLevel
	}
	if logFormat != "" {
		cfg.Telemetry.Logging.Format = logFormat
	}

	return cfg, nil
}

// setupLogging builds the process logger from config and installs it as
// the slog default.
func setupLogging(cfg *config.Config) (*logging.Logger, error) {
	logger, err := logging.New(logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
	})
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	logger.SetDefault()
	return logger, nil
}
