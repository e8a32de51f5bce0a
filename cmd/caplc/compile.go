package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"capl-hq/capl/pkg/batch"
	"capl-hq/capl/pkg/capl"
	"capl-hq/capl/pkg/cli"
	"capl-hq/capl/pkg/config"
	"capl-hq/capl/pkg/export"
	"capl-hq/capl/pkg/history"
)

var compileFlags struct {
	format       string
	output       string
	prefix       string
	optimize     bool
	workers      int
	skipExamples bool
	failFast     bool
}

var compileCmd = &cobra.Command{
	Use:   "compile <file-or-dir>",
	Short: "Compile CAPL sources into flat access policies",
	Long: `Compile one CAPL source file, or every .capl file under a directory,
into flat conditional access policies.

A single file writes its policies to stdout unless --output names a file
or directory. A directory input runs a concurrent batch and requires
--output (or output.dir in the config file) to name a directory; each
source writes one output file there.

Examples:
  # Compile a single file to stdout as YAML
  caplc compile policies.capl

  # Compile to JSON
  caplc compile --format json policies.capl

  # Merge paths with identical outcomes
  caplc compile --optimize policies.capl

  # Compile a directory with 8 workers
  caplc compile --output out/ --workers 8 policies/

  # Stop the batch at the first file with diagnostics
  caplc compile --output out/ --fail-fast policies/`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	rootCmd.AddCommand(compileCmd)

	compileCmd.Flags().StringVarP(&compileFlags.format, "format", "f", "", "output format: yaml, json, csv")
	compileCmd.Flags().StringVarP(&compileFlags.output, "output", "o", "", "output file or directory (default stdout)")
	compileCmd.Flags().StringVar(&compileFlags.prefix, "prefix", "", "display-name prefix (default derived from source file name)")
	compileCmd.Flags().BoolVar(&compileFlags.optimize, "optimize", false, "merge paths with identical outcomes")
	compileCmd.Flags().IntVar(&compileFlags.workers, "workers", 0, "concurrent compile workers for directory input")
	compileCmd.Flags().BoolVar(&compileFlags.skipExamples, "skip-examples", false, "skip files marked as examples")
	compileCmd.Flags().BoolVar(&compileFlags.failFast, "fail-fast", false, "stop the batch at the first file with diagnostics")
}

func runCompile(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyCompileFlags(cfg)

	logger, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	if _, err := export.ForFormat(cfg.Output.Format); err != nil {
		return cli.NewConfigError("output.format", err.Error())
	}

	info, err := os.Stat(args[0])
	if err != nil {
		return cli.NewCommandError("compile", err)
	}

	compiler := newCompiler(cfg)

	if info.IsDir() {
		logger.Info("starting batch compile", "dir", args[0], "workers", cfg.Batch.Workers)
		return compileDir(cmd, cfg, compiler, args[0])
	}
	return compileOne(cmd, cfg, compiler, args[0])
}

func applyCompileFlags(cfg *config.Config) {
	if compileFlags.format != "" {
		cfg.Output.Format = compileFlags.format
	}
	if compileFlags.output != "" {
		cfg.Output.Dir = compileFlags.output
	}
	if compileFlags.prefix != "" {
		cfg.Compiler.NamePrefix = compileFlags.prefix
	}
	if compileFlags.optimize {
		cfg.Compiler.Optimize = true
	}
	if compileFlags.workers > 0 {
		cfg.Batch.Workers = compileFlags.workers
	}
	if compileFlags.skipExamples {
		cfg.Batch.SkipExamples = true
	}
	if compileFlags.failFast {
		cfg.Batch.FailFast = true
	}
}

func newCompiler(cfg *config.Config) *capl.Compiler {
	opts := []capl.Option{
		capl.WithMaxFileSize(cfg.Compiler.MaxFileSize),
		capl.WithMaxDepth(cfg.Compiler.MaxDepth),
	}
	if cfg.Compiler.NamePrefix != "" {
		opts = append(opts, capl.WithNamePrefix(cfg.Compiler.NamePrefix))
	}
	if cfg.Compiler.Optimize {
		opts = append(opts, capl.WithOptimize())
	}
	return capl.New(opts...)
}

func compileOne(cmd *cobra.Command, cfg *config.Config, compiler *capl.Compiler, path string) error {
	result := compiler.CompileFile(path)

	cli.PrintDiagnostics(cmd.ErrOrStderr(), result.Diagnostics)
	cli.PrintCompileSummary(cmd.ErrOrStderr(), path, len(result.Policies),
		result.Statements, result.Diagnostics.Count())

	if len(result.Policies) > 0 {
		if err := writePolicies(cmd, cfg, path, result); err != nil {
			return err
		}
	}

	if !result.OK() {
		return errDiagnostics
	}
	return nil
}

func compileDir(cmd *cobra.Command, cfg *config.Config, compiler *capl.Compiler, dir string) error {
	if cfg.Output.Dir == "" {
		return cli.NewConfigError("output.dir", "directory input requires an output directory")
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return cli.NewCommandError("compile", err)
	}

	opts := []batch.Option{}
	if store, err := openHistoryStore(cfg); err != nil {
		return err
	} else if store != nil {
		defer store.Close()
		opts = append(opts, batch.WithHistory(store))
	}

	runner := batch.NewRunner(compiler, &batch.Config{
		Workers:      cfg.Batch.Workers,
		SkipExamples: cfg.Batch.SkipExamples,
		FailFast:     cfg.Batch.FailFast,
	}, opts...)

	ctx := cli.SetupSignalHandler()
	summary, err := runner.RunDir(ctx, dir)
	if err != nil {
		return cli.NewCommandError("compile", err)
	}

	for _, fr := range summary.Results {
		if fr.Skipped || fr.Result == nil || len(fr.Result.Policies) == 0 {
			continue
		}
		if err := writeToDir(cmd, cfg, fr.Path, fr.Result); err != nil {
			return err
		}
	}

	cli.PrintBatchSummary(cmd.OutOrStdout(), summary)

	if summary.Failed > 0 {
		return errDiagnostics
	}
	return nil
}

// writePolicies writes a single file's policies to --output or stdout.
func writePolicies(cmd *cobra.Command, cfg *config.Config, sourcePath string, result *capl.Result) error {
	if cfg.Output.Dir == "" {
		return exportTo(cmd, cfg, result, cmd.OutOrStdout())
	}

	info, err := os.Stat(cfg.Output.Dir)
	if err == nil && info.IsDir() {
		return writeToDir(cmd, cfg, sourcePath, result)
	}

	// Treat --output as a file path.
	f, err := os.Create(cfg.Output.Dir)
	if err != nil {
		return cli.NewCommandError("compile", err)
	}
	defer f.Close()
	return exportTo(cmd, cfg, result, f)
}

// writeToDir writes one output file per source, named after the source
// file's stem with the format's extension.
func writeToDir(cmd *cobra.Command, cfg *config.Config, sourcePath string, result *capl.Result) error {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	outPath := filepath.Join(cfg.Output.Dir, stem+"."+outputExt(cfg.Output.Format))

	f, err := os.Create(outPath)
	if err != nil {
		return cli.NewCommandError("compile", err)
	}
	defer f.Close()
	return exportTo(cmd, cfg, result, f)
}

func exportTo(cmd *cobra.Command, cfg *config.Config, result *capl.Result, w io.Writer) error {
	exporter, err := export.ForFormat(cfg.Output.Format)
	if err != nil {
		return cli.NewConfigError("output.format", err.Error())
	}
	if err := exporter.Export(cmd.Context(), result.Policies, w); err != nil {
		return cli.NewCommandError("compile", err)
	}
	return nil
}

func outputExt(format string) string {
	if format == "yml" {
		return "yaml"
	}
	return format
}

// openHistoryStore opens the configured history backend, or returns nil
// when recording is disabled.
func openHistoryStore(cfg *config.Config) (history.Store, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}

	switch cfg.History.Backend {
	case "memory":
		return history.NewMemoryStore(), nil
	case "sqlite", "":
		sqliteCfg := history.DefaultSQLiteConfig()
		if cfg.History.SQLitePath != "" {
			sqliteCfg.Path = cfg.History.SQLitePath
		}
		store, err := history.NewSQLiteStore(sqliteCfg)
		if err != nil {
			return nil, cli.NewCommandError("history", err)
		}
		return store, nil
	default:
		return nil, cli.NewConfigError("history.backend",
			fmt.Sprintf("unknown backend %q", cfg.History.Backend))
	}
}
