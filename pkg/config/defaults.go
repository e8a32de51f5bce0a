package config

import "time"

// Default values applied to zero-valued fields after loading.
const (
	DefaultMaxFileSize   = 1 * 1024 * 1024
	DefaultMaxDepth      = 32
	DefaultOutputFormat  = "yaml"
	DefaultWorkers       = 4
	DefaultDebounce      = 500 * time.Millisecond
	DefaultHistoryPath   = "data/capl-history.db"
	DefaultRetentionDays = 90
	DefaultMetricsAddr   = "127.0.0.1:9464"
	DefaultMetricsPath   = "/metrics"
)

// DefaultConfig returns a fully populated configuration.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Explicitly set
// values are never overwritten.
func ApplyDefaults(cfg *Config) {
	if cfg.Compiler.MaxFileSize <= 0 {
		cfg.Compiler.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.Compiler.MaxDepth <= 0 {
		cfg.Compiler.MaxDepth = DefaultMaxDepth
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = DefaultOutputFormat
	}

	if cfg.Batch.Workers <= 0 {
		cfg.Batch.Workers = DefaultWorkers
	}

	if cfg.Watch.Debounce <= 0 {
		cfg.Watch.Debounce = DefaultDebounce
	}

	if cfg.History.Backend == "" {
		cfg.History.Backend = "sqlite"
	}
	if cfg.History.SQLitePath == "" {
		cfg.History.SQLitePath = DefaultHistoryPath
	}
	if cfg.History.RetentionDays <= 0 {
		cfg.History.RetentionDays = DefaultRetentionDays
	}

	if cfg.Telemetry.Logging.Level == "" {
		cfg.Telemetry.Logging.Level = "info"
	}
	if cfg.Telemetry.Logging.Format == "" {
		cfg.Telemetry.Logging.Format = "text"
	}

	if cfg.Telemetry.Metrics.Namespace == "" {
		cfg.Telemetry.Metrics.Namespace = "capl"
	}
	if cfg.Telemetry.Metrics.Subsystem == "" {
		cfg.Telemetry.Metrics.Subsystem = "compiler"
	}
	if cfg.Telemetry.Metrics.ListenAddress == "" {
		cfg.Telemetry.Metrics.ListenAddress = DefaultMetricsAddr
	}
	if cfg.Telemetry.Metrics.Path == "" {
		cfg.Telemetry.Metrics.Path = DefaultMetricsPath
	}
}
