package history

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createTempStore opens a SQLite store backed by a throwaway database file.
func createTempStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	config := &SQLiteConfig{
		Path:         dbPath,
		MaxOpenConns: 5,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}

	store, err := NewSQLiteStore(config)
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	return store, dbPath
}

func TestSQLiteStore_Initialize(t *testing.T) {
	store, dbPath := createTempStore(t)
	defer store.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	run := &CompileRun{
		ID:          "run-1",
		SourceFile:  "corp.capl",
		StartedAt:   now,
		Duration:    150 * time.Millisecond,
		Statements:  3,
		Compiled:    3,
		PolicyCount: 7,
		Optimized:   true,
	}

	if err := store.Record(ctx, run); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	runs, err := store.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}

	got := runs[0]
	if got.ID != "run-1" {
		t.Errorf("Expected ID 'run-1', got '%s'", got.ID)
	}
	if got.SourceFile != "corp.capl" {
		t.Errorf("Expected source 'corp.capl', got '%s'", got.SourceFile)
	}
	if got.Duration != 150*time.Millisecond {
		t.Errorf("Expected duration 150ms, got %v", got.Duration)
	}
	if got.PolicyCount != 7 {
		t.Errorf("Expected 7 policies, got %d", got.PolicyCount)
	}
	if !got.Optimized {
		t.Error("Expected Optimized to round-trip as true")
	}
}

func TestSQLiteStore_ListOrderAndFilters(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	seedRuns(t, store, sampleRuns(base))

	runs, err := store.List(ctx, nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}
	if runs[0].ID != "run-3" {
		t.Errorf("Expected newest run first, got %s", runs[0].ID)
	}

	runs, err = store.List(ctx, &Query{SourceFile: "guests.capl"})
	if err != nil {
		t.Fatalf("List(source) failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-2" {
		t.Errorf("Expected only run-2 for guests.capl, got %d runs", len(runs))
	}

	runs, err = store.List(ctx, &Query{OnlyFailed: true})
	if err != nil {
		t.Fatalf("List(failed) failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ErrorCount != 3 {
		t.Errorf("Expected the single failed run, got %d runs", len(runs))
	}

	since := base.Add(90 * time.Minute)
	runs, err = store.List(ctx, &Query{Since: &since})
	if err != nil {
		t.Fatalf("List(since) failed: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != "run-3" {
		t.Errorf("Expected only run-3 since %v, got %d runs", since, len(runs))
	}
}

func TestSQLiteStore_LimitOffset(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()
	seedRuns(t, store, sampleRuns(time.Now().UTC().Truncate(time.Millisecond)))

	runs, err := store.List(ctx, &Query{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 run, got %d", len(runs))
	}
	if runs[0].ID != "run-2" {
		t.Errorf("Expected run-2 at offset 1, got %s", runs[0].ID)
	}
}

func TestSQLiteStore_CountAndDeleteBefore(t *testing.T) {
	store, _ := createTempStore(t)
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC().Truncate(time.Millisecond)
	seedRuns(t, store, sampleRuns(base))

	count, err := store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected count 3, got %d", count)
	}

	removed, err := store.DeleteBefore(ctx, base.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("DeleteBefore() failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("Expected 1 removed, got %d", removed)
	}

	count, err = store.Count(ctx, nil)
	if err != nil {
		t.Fatalf("Count() after delete failed: %v", err)
	}
	if count != 2 {
		t.Errorf("Expected 2 runs remaining, got %d", count)
	}
}

func TestSQLiteStore_DefaultConfig(t *testing.T) {
	config := DefaultSQLiteConfig()
	if config.Path != "data/capl-history.db" {
		t.Errorf("Unexpected default path %q", config.Path)
	}
	if config.MaxOpenConns != 5 {
		t.Errorf("Expected 5 max open conns, got %d", config.MaxOpenConns)
	}
	if !config.WALMode {
		t.Error("Expected WAL mode on by default")
	}
	if config.BusyTimeout != 5*time.Second {
		t.Errorf("Expected 5s busy timeout, got %v", config.BusyTimeout)
	}
}
