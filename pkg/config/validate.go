package config

import (
	"fmt"
	"strings"
)

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors aggregates every invalid field found in one pass.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration for invalid values. All problems are
// reported at once rather than failing on the first.
func Validate(cfg *Config) error {
	var errs ValidationErrors

	if cfg.Compiler.MaxFileSize <= 0 {
		errs = append(errs, &ValidationError{"compiler.max_file_size", "must be positive"})
	}
	if cfg.Compiler.MaxDepth <= 0 {
		errs = append(errs, &ValidationError{"compiler.max_depth", "must be positive"})
	}

	switch cfg.Output.Format {
	case "yaml", "yml", "json", "csv":
	default:
		errs = append(errs, &ValidationError{"output.format",
			fmt.Sprintf("unsupported format %q (expected yaml, json or csv)", cfg.Output.Format)})
	}

	if cfg.Batch.Workers <= 0 {
		errs = append(errs, &ValidationError{"batch.workers", "must be positive"})
	} else if cfg.Batch.Workers > 64 {
		errs = append(errs, &ValidationError{"batch.workers", "must not exceed 64"})
	}

	if cfg.Watch.Debounce < 0 {
		errs = append(errs, &ValidationError{"watch.debounce", "must not be negative"})
	}

	switch cfg.History.Backend {
	case "sqlite", "memory":
	default:
		errs = append(errs, &ValidationError{"history.backend",
			fmt.Sprintf("unsupported backend %q (expected sqlite or memory)", cfg.History.Backend)})
	}
	if cfg.History.Backend == "sqlite" && cfg.History.SQLitePath == "" {
		errs = append(errs, &ValidationError{"history.sqlite_path", "required for the sqlite backend"})
	}

	switch cfg.Telemetry.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{"telemetry.logging.level",
			fmt.Sprintf("unknown level %q", cfg.Telemetry.Logging.Level)})
	}
	switch cfg.Telemetry.Logging.Format {
	case "json", "text":
	default:
		errs = append(errs, &ValidationError{"telemetry.logging.format",
			fmt.Sprintf("unknown format %q", cfg.Telemetry.Logging.Format)})
	}

	if cfg.Telemetry.Metrics.Enabled && cfg.Telemetry.Metrics.ListenAddress == "" {
		errs = append(errs, &ValidationError{"telemetry.metrics.listen_address", "required when metrics are enabled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
