// Package batch compiles many CAPL files concurrently. A fixed worker
// pool drains the file list, results come back in input order, and each
// run gets a UUID so logs, metrics and history rows correlate.
//
// Files named with a leading underscore or the EXAMPLE marker are
// excluded before compilation; the compiler itself has no notion of
// example input.
package batch

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"capl-hq/capl/pkg/capl"
	"capl-hq/capl/pkg/history"
	"capl-hq/capl/pkg/telemetry/metrics"
)

// SourceExtension is the file extension for CAPL sources.
const SourceExtension = ".capl"

// FileResult is the outcome for one input file.
type FileResult struct {
	// Path is the input file path.
	Path string

	// Result is the compilation outcome, nil for skipped files.
	Result *capl.Result

	// Skipped is true when the file was excluded before compilation;
	// SkipReason says why.
	Skipped    bool
	SkipReason string
}

// Failed reports whether compilation ran and produced diagnostics.
func (r *FileResult) Failed() bool {
	return r.Result != nil && !r.Result.OK()
}

// Summary aggregates a batch run.
type Summary struct {
	// RunID identifies this batch run in logs and history.
	RunID string

	// Results holds one entry per input file, in input order.
	Results []*FileResult

	// Counters over Results.
	Compiled int
	Failed   int
	Skipped  int
	Policies int

	// Duration is the wall-clock batch time.
	Duration time.Duration
}

// Config controls a batch run.
type Config struct {
	// Workers is the number of concurrent compile workers (default 4).
	Workers int

	// SkipExamples excludes example-marked files.
	SkipExamples bool

	// FailFast cancels remaining work at the first file with diagnostics.
	FailFast bool
}

// Runner compiles batches of files.
type Runner struct {
	compiler *capl.Compiler
	config   *Config
	logger   *slog.Logger

	// Optional sinks; nil disables them.
	metrics *metrics.Collector
	store   history.Store
}

// Option configures a Runner.
type Option func(*Runner)

// WithMetrics records per-file outcomes to the collector.
func WithMetrics(collector *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = collector }
}

// WithHistory records per-file compile runs to the store.
func WithHistory(store history.Store) Option {
	return func(r *Runner) { r.store = store }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) { r.logger = logger }
}

// NewRunner creates a batch runner over the given compiler.
func NewRunner(compiler *capl.Compiler, config *Config, opts ...Option) *Runner {
	if config == nil {
		config = &Config{}
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}

	r := &Runner{
		compiler: compiler,
		config:   config,
		logger:   slog.Default().With("component", "batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run compiles the given files. Results preserve input order regardless of
// which worker finished first.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	summary := &Summary{
		RunID:   uuid.NewString(),
		Results: make([]*FileResult, len(paths)),
	}

	logger := r.logger.With("run_id", summary.RunID)
	logger.Info("batch run started", "files", len(paths), "workers", r.config.Workers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < r.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				result := r.processFile(runCtx, paths[idx])
				summary.Results[idx] = result

				if result.Failed() && r.config.FailFast {
					cancel()
				}
			}
		}()
	}

	for idx := range paths {
		select {
		case <-runCtx.Done():
		case jobs <- idx:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	for i, result := range summary.Results {
		if result == nil {
			// Never dispatched because fail-fast cancelled the run.
			summary.Results[i] = &FileResult{Path: paths[i], Skipped: true, SkipReason: "cancelled"}
			result = summary.Results[i]
		}
		switch {
		case result.Skipped:
			summary.Skipped++
		case result.Failed():
			summary.Failed++
		default:
			summary.Compiled++
			summary.Policies += len(result.Result.Policies)
		}
	}

	summary.Duration = time.Since(start)
	logger.Info("batch run finished",
		"compiled", summary.Compiled,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"policies", summary.Policies,
		"duration_ms", summary.Duration.Milliseconds(),
	)

	if ctx.Err() != nil {
		return summary, ctx.Err()
	}
	return summary, nil
}

// RunDir discovers CAPL files under root and compiles them.
func (r *Runner) RunDir(ctx context.Context, root string) (*Summary, error) {
	paths, err := Discover(root)
	if err != nil {
		return nil, err
	}
	return r.Run(ctx, paths)
}

func (r *Runner) processFile(ctx context.Context, path string) *FileResult {
	if ctx.Err() != nil {
		return &FileResult{Path: path, Skipped: true, SkipReason: "cancelled"}
	}

	if r.config.SkipExamples {
		if reason := exampleReason(path); reason != "" {
			r.logger.Debug("skipping example file", "path", path, "reason", reason)
			r.recordMetric("skipped")
			return &FileResult{Path: path, Skipped: true, SkipReason: reason}
		}
	}

	start := time.Now()
	result := r.compiler.CompileFile(path)
	duration := time.Since(start)

	status := "success"
	if !result.OK() {
		status = "failed"
		for _, diag := range result.Diagnostics.Errors {
			r.logger.Warn("diagnostic", "path", path, "error", diag.Error())
			if r.metrics != nil {
				r.metrics.RecordDiagnostic(string(diag.Type))
			}
		}
	}
	r.recordMetric(status)
	if r.metrics != nil {
		r.metrics.RecordCompile(duration, len(result.Policies), result.Diagnostics.Count())
	}

	if r.store != nil {
		run := &history.CompileRun{
			ID:          uuid.NewString(),
			SourceFile:  path,
			StartedAt:   start,
			Duration:    duration,
			Statements:  result.Statements,
			Compiled:    result.Compiled,
			PolicyCount: len(result.Policies),
			ErrorCount:  result.Diagnostics.Count(),
			Optimized:   result.Optimized,
		}
		if err := r.store.Record(ctx, run); err != nil {
			r.logger.Error("failed to record compile run", "path", path, "error", err)
		}
	}

	return &FileResult{Path: path, Result: result}
}

func (r *Runner) recordMetric(status string) {
	if r.metrics != nil {
		r.metrics.RecordBatchFile(status)
	}
}

// Discover returns every CAPL file under root, sorted for deterministic
// batch order. A single file path is returned as-is.
func Discover(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), SourceExtension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(paths)
	return paths, nil
}

// exampleReason reports why a file counts as an example, or "" when it
// does not. A leading underscore, an EXAMPLE file-name marker, or an
// EXAMPLE comment on the first line all qualify.
func exampleReason(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "_") {
		return "underscore prefix"
	}
	if strings.HasPrefix(strings.ToUpper(base), "EXAMPLE") {
		return "EXAMPLE file name"
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if scanner.Scan() {
		first := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(first, "#") &&
			strings.HasPrefix(strings.TrimSpace(strings.TrimPrefix(first, "#")), "EXAMPLE") {
			return "EXAMPLE marker"
		}
	}
	return ""
}
