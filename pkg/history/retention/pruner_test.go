package retention

import (
	"context"
	"testing"
	"time"

	"capl-hq/capl/pkg/history"
)

func seedStore(t *testing.T, store history.Store, ages ...time.Duration) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()
	for i, age := range ages {
		run := &history.CompileRun{
			ID:         string(rune('a' + i)),
			SourceFile: "corp.capl",
			StartedAt:  now.Add(-age),
		}
		if err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}
}

func TestPruner_RemovesExpiredRuns(t *testing.T) {
	store := history.NewMemoryStore()
	defer store.Close()

	// Two runs outside a 30-day window, one inside.
	seedStore(t, store,
		45*24*time.Hour,
		31*24*time.Hour,
		5*24*time.Hour,
	)

	pruner := NewPruner(store, &Config{RetentionDays: 30})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted, got %d", deleted)
	}

	count, err := store.Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected 1 run remaining, got %d", count)
	}
}

func TestPruner_DisabledRetention(t *testing.T) {
	store := history.NewMemoryStore()
	defer store.Close()

	seedStore(t, store, 365*24*time.Hour)

	pruner := NewPruner(store, &Config{RetentionDays: 0})
	deleted, err := pruner.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if deleted != 0 {
		t.Errorf("Expected nothing deleted with retention disabled, got %d", deleted)
	}

	count, _ := store.Count(context.Background(), nil)
	if count != 1 {
		t.Errorf("Expected run to survive, got count %d", count)
	}
}

func TestPruner_LastRun(t *testing.T) {
	store := history.NewMemoryStore()
	defer store.Close()

	seedStore(t, store, 100*24*time.Hour)

	pruner := NewPruner(store, nil)

	lastRun, lastCount := pruner.LastRun()
	if !lastRun.IsZero() || lastCount != 0 {
		t.Errorf("Expected zero state before first prune, got %v / %d", lastRun, lastCount)
	}

	if _, err := pruner.Prune(context.Background()); err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}

	lastRun, lastCount = pruner.LastRun()
	if lastRun.IsZero() {
		t.Error("Expected LastRun timestamp to be set")
	}
	if lastCount != 1 {
		t.Errorf("Expected last count 1, got %d", lastCount)
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.RetentionDays != 90 {
		t.Errorf("Expected 90 retention days, got %d", config.RetentionDays)
	}
	if config.PruneSchedule != "0 3 * * *" {
		t.Errorf("Unexpected default schedule %q", config.PruneSchedule)
	}
}
