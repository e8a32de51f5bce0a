// Package retention prunes old compile runs from the history store, either
// on demand or on a cron schedule.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"capl-hq/capl/pkg/history"
)

// Config controls what the pruner removes.
type Config struct {
	// RetentionDays is how many days of runs to keep. Zero disables
	// age-based pruning.
	RetentionDays int `yaml:"retention_days"`

	// PruneSchedule is a standard cron expression for scheduled pruning.
	// Empty disables the scheduler.
	PruneSchedule string `yaml:"prune_schedule"`
}

// DefaultConfig keeps 90 days of runs and prunes daily at 03:00.
func DefaultConfig() *Config {
	return &Config{
		RetentionDays: 90,
		PruneSchedule: "0 3 * * *",
	}
}

// Pruner deletes runs older than the retention window.
type Pruner struct {
	store  history.Store
	config *Config
	logger *slog.Logger

	mu        sync.Mutex
	lastRun   time.Time
	lastCount int64
}

// NewPruner creates a pruner over the given store.
func NewPruner(store history.Store, config *Config) *Pruner {
	if config == nil {
		config = DefaultConfig()
	}
	return &Pruner{
		store:  store,
		config: config,
		logger: slog.Default().With("component", "history.retention"),
	}
}

// Prune deletes runs outside the retention window and returns how many
// were removed.
func (p *Pruner) Prune(ctx context.Context) (int64, error) {
	if p.config.RetentionDays <= 0 {
		p.logger.Debug("retention disabled, nothing to prune")
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -p.config.RetentionDays)
	deleted, err := p.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning runs before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	p.mu.Lock()
	p.lastRun = time.Now()
	p.lastCount = deleted
	p.mu.Unlock()

	if deleted > 0 {
		p.logger.Info("pruned compile runs",
			"deleted_count", deleted,
			"cutoff", cutoff.Format(time.RFC3339),
		)
	}
	return deleted, nil
}

// LastRun returns when the pruner last ran and how many runs it removed.
func (p *Pruner) LastRun() (time.Time, int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRun, p.lastCount
}
