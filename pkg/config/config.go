package config

import "time"

// Config is the root configuration for the caplc toolchain.
type Config struct {
	// Compiler configures the compilation pipeline.
	Compiler CompilerConfig `yaml:"compiler"`

	// Output configures where and how compiled policies are written.
	Output OutputConfig `yaml:"output"`

	// Batch configures multi-file compilation.
	Batch BatchConfig `yaml:"batch"`

	// Watch configures watch mode.
	Watch WatchConfig `yaml:"watch"`

	// History configures compile-run recording.
	History HistoryConfig `yaml:"history"`

	// Telemetry configures logging and metrics.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// CompilerConfig controls the compilation pipeline.
type CompilerConfig struct {
	// MaxFileSize caps source size in bytes.
	MaxFileSize int64 `yaml:"max_file_size"`

	// MaxDepth caps IF nesting depth.
	MaxDepth int `yaml:"max_depth"`

	// Optimize enables the clustering pass that merges paths with
	// identical outcomes.
	Optimize bool `yaml:"optimize"`

	// NamePrefix overrides the display-name prefix derived from the
	// source file name.
	NamePrefix string `yaml:"name_prefix"`
}

// OutputConfig controls serialization of compiled policies.
type OutputConfig struct {
	// Format is "yaml", "json" or "csv".
	Format string `yaml:"format"`

	// Dir is the output directory for batch runs. Empty writes to stdout.
	Dir string `yaml:"dir"`
}

// BatchConfig controls multi-file compilation.
type BatchConfig struct {
	// Workers is the number of concurrent compile workers.
	Workers int `yaml:"workers"`

	// SkipExamples excludes files whose name carries the EXAMPLE marker
	// or a leading underscore.
	SkipExamples bool `yaml:"skip_examples"`

	// FailFast stops the batch at the first file with diagnostics.
	FailFast bool `yaml:"fail_fast"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	// Debounce is how long to wait after the last filesystem event before
	// recompiling.
	Debounce time.Duration `yaml:"debounce"`
}

// HistoryConfig controls compile-run recording.
type HistoryConfig struct {
	// Enabled turns run recording on.
	Enabled bool `yaml:"enabled"`

	// Backend is "sqlite" or "memory".
	Backend string `yaml:"backend"`

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string `yaml:"sqlite_path"`

	// RetentionDays is how many days of runs to keep.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a cron expression for scheduled pruning.
	PruneSchedule string `yaml:"prune_schedule"`
}

// TelemetryConfig groups logging and metrics settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// LoggingConfig controls structured logging.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`

	// AddSource includes file:line in log records.
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig controls the Prometheus endpoint exposed in watch mode.
type MetricsConfig struct {
	// Enabled turns the metrics endpoint on.
	Enabled bool `yaml:"enabled"`

	// Namespace and Subsystem prefix every metric name.
	Namespace string `yaml:"namespace"`
	Subsystem string `yaml:"subsystem"`

	// ListenAddress is the HTTP listen address for the endpoint.
	ListenAddress string `yaml:"listen_address"`

	// Path is the HTTP path, typically "/metrics".
	Path string `yaml:"path"`
}
