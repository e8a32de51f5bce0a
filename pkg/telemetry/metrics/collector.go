// Package metrics exposes Prometheus instrumentation for the compiler.
// Watch mode and batch runs record compile outcomes here; the registry is
// served over HTTP via Handler.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"capl-hq/capl/pkg/config"
)

// Collector owns every compiler metric and its Prometheus registry.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	compilesTotal   *prometheus.CounterVec
	compileDuration prometheus.Histogram
	policiesEmitted prometheus.Counter
	diagnostics     *prometheus.CounterVec
	watchRebuilds   prometheus.Counter
	batchFiles      *prometheus.CounterVec
}

// NewCollector creates a collector registered against the given registry.
// A nil registry gets a fresh one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "capl"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "compiler"
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		compilesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "compiles_total",
			Help:      "Compilation runs by outcome (success, failed).",
		}, []string{"status"}),

		compileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "compile_duration_seconds",
			Help:      "Wall-clock duration of one compilation.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0},
		}),

		policiesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "policies_emitted_total",
			Help:      "Generated policies emitted across all runs.",
		}),

		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "diagnostics_total",
			Help:      "Diagnostics raised, labeled by error type.",
		}, []string{"type"}),

		watchRebuilds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "watch_rebuilds_total",
			Help:      "Recompilations triggered by watch mode.",
		}),

		batchFiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "batch_files_total",
			Help:      "Files processed in batch runs by outcome (success, failed, skipped).",
		}, []string{"status"}),
	}

	registry.MustRegister(
		c.compilesTotal,
		c.compileDuration,
		c.policiesEmitted,
		c.diagnostics,
		c.watchRebuilds,
		c.batchFiles,
	)

	return c
}

// RecordCompile records one compilation run.
func (c *Collector) RecordCompile(duration time.Duration, policies, errors int) {
	if !c.config.Enabled {
		return
	}

	status := "success"
	if errors > 0 {
		status = "failed"
	}
	c.compilesTotal.WithLabelValues(status).Inc()
	c.compileDuration.Observe(duration.Seconds())
	c.policiesEmitted.Add(float64(policies))
}

// RecordDiagnostic records one diagnostic by error type.
func (c *Collector) RecordDiagnostic(errType string) {
	if !c.config.Enabled {
		return
	}
	c.diagnostics.WithLabelValues(errType).Inc()
}

// RecordWatchRebuild records a watch-mode recompilation.
func (c *Collector) RecordWatchRebuild() {
	if !c.config.Enabled {
		return
	}
	c.watchRebuilds.Inc()
}

// RecordBatchFile records one batch file outcome.
func (c *Collector) RecordBatchFile(status string) {
	if !c.config.Enabled {
		return
	}
	c.batchFiles.WithLabelValues(status).Inc()
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
