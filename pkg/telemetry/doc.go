// Package telemetry groups the observability concerns of the compiler
// toolchain.
//
// # Components
//
//   - logging: structured logging on log/slog with compile-scoped context
//   - metrics: Prometheus metrics for compiles, diagnostics and watch mode
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
//	collector.RecordCompile(duration, policyCount, errorCount)
package telemetry
