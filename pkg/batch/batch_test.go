package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"capl-hq/capl/pkg/capl"
	"capl-hq/capl/pkg/history"
)

const validSource = `
IF user is All
STATE enabled
REQUIRE MFA
END
`

const brokenSource = `
IF user is All
STATE active
REQUIRE MFA
END
`

func writeSource(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "beta.capl", validSource)
	writeSource(t, dir, "alpha.capl", validSource)
	writeSource(t, dir, "notes.txt", "not a source file")

	sub := filepath.Join(dir, "nested")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, sub, "gamma.capl", validSource)

	hidden := filepath.Join(dir, ".git")
	if err := os.Mkdir(hidden, 0o755); err != nil {
		t.Fatal(err)
	}
	writeSource(t, hidden, "ignored.capl", validSource)

	paths, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(paths) != 3 {
		t.Fatalf("Expected 3 files, got %d: %v", len(paths), paths)
	}

	// Sorted order, hidden directories and non-source files excluded.
	wantBases := []string{"alpha.capl", "beta.capl", "gamma.capl"}
	for i, want := range wantBases {
		if filepath.Base(paths[i]) != want {
			t.Errorf("paths[%d] = %s, want %s", i, filepath.Base(paths[i]), want)
		}
	}
}

func TestDiscoverSingleFile(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "only.capl", validSource)

	paths, err := Discover(path)
	if err != nil {
		t.Fatalf("Discover() failed: %v", err)
	}
	if len(paths) != 1 || paths[0] != path {
		t.Errorf("Expected the file itself, got %v", paths)
	}
}

func TestRunCompilesInInputOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeSource(t, dir, "a.capl", validSource)
	b := writeSource(t, dir, "b.capl", validSource)
	c := writeSource(t, dir, "c.capl", validSource)

	runner := NewRunner(capl.New(), &Config{Workers: 3})
	summary, err := runner.Run(context.Background(), []string{c, a, b})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.RunID == "" {
		t.Error("Expected a run ID")
	}
	if summary.Compiled != 3 || summary.Failed != 0 || summary.Skipped != 0 {
		t.Errorf("Counters = %d/%d/%d, want 3/0/0",
			summary.Compiled, summary.Failed, summary.Skipped)
	}
	if summary.Policies != 3 {
		t.Errorf("Policies = %d, want 3", summary.Policies)
	}

	// Results come back in input order regardless of worker scheduling.
	wantOrder := []string{c, a, b}
	for i, result := range summary.Results {
		if result.Path != wantOrder[i] {
			t.Errorf("Results[%d].Path = %s, want %s", i, result.Path, wantOrder[i])
		}
	}
}

func TestRunSkipsExampleFiles(t *testing.T) {
	dir := t.TempDir()
	underscore := writeSource(t, dir, "_draft.capl", validSource)
	named := writeSource(t, dir, "EXAMPLE-mfa.capl", validSource)
	marked := writeSource(t, dir, "marked.capl", "# EXAMPLE baseline policy\n"+validSource)
	real := writeSource(t, dir, "real.capl", validSource)

	runner := NewRunner(capl.New(), &Config{Workers: 1, SkipExamples: true})
	summary, err := runner.Run(context.Background(), []string{underscore, named, marked, real})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Skipped != 3 || summary.Compiled != 1 {
		t.Fatalf("Skipped = %d, Compiled = %d, want 3 and 1", summary.Skipped, summary.Compiled)
	}

	wantReasons := map[string]string{
		underscore: "underscore prefix",
		named:      "EXAMPLE file name",
		marked:     "EXAMPLE marker",
	}
	for _, result := range summary.Results {
		want, isExample := wantReasons[result.Path]
		if isExample && result.SkipReason != want {
			t.Errorf("%s: SkipReason = %q, want %q", filepath.Base(result.Path), result.SkipReason, want)
		}
		if !isExample && result.Skipped {
			t.Errorf("%s unexpectedly skipped: %s", filepath.Base(result.Path), result.SkipReason)
		}
	}
}

func TestRunCompilesExamplesWhenNotSkipping(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "_draft.capl", validSource)

	runner := NewRunner(capl.New(), &Config{Workers: 1})
	summary, err := runner.Run(context.Background(), []string{path})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if summary.Compiled != 1 || summary.Skipped != 0 {
		t.Errorf("Compiled = %d, Skipped = %d, want 1 and 0", summary.Compiled, summary.Skipped)
	}
}

func TestRunFailFast(t *testing.T) {
	dir := t.TempDir()
	bad := writeSource(t, dir, "bad.capl", brokenSource)
	good := writeSource(t, dir, "good.capl", validSource)

	runner := NewRunner(capl.New(), &Config{Workers: 1, FailFast: true})
	summary, err := runner.Run(context.Background(), []string{bad, good})
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	if summary.Failed != 1 {
		t.Errorf("Failed = %d, want 1", summary.Failed)
	}
	if summary.Skipped != 1 {
		t.Errorf("Skipped = %d, want the second file cancelled", summary.Skipped)
	}
	if !summary.Results[0].Failed() {
		t.Error("Expected the first result to carry diagnostics")
	}
	if summary.Results[1].SkipReason != "cancelled" {
		t.Errorf("SkipReason = %q, want cancelled", summary.Results[1].SkipReason)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "corp.capl", validSource)

	store := history.NewMemoryStore()
	defer store.Close()

	runner := NewRunner(capl.New(), &Config{Workers: 1}, WithHistory(store))
	if _, err := runner.Run(context.Background(), []string{path}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	runs, err := store.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(runs))
	}
	if runs[0].SourceFile != path {
		t.Errorf("SourceFile = %s, want %s", runs[0].SourceFile, path)
	}
	if runs[0].PolicyCount != 1 {
		t.Errorf("PolicyCount = %d, want 1", runs[0].PolicyCount)
	}
	if runs[0].Failed() {
		t.Error("Expected a clean run")
	}
}

func TestRunRecordsOptimizedFlag(t *testing.T) {
	dir := t.TempDir()
	path := writeSource(t, dir, "corp.capl", validSource)

	store := history.NewMemoryStore()
	defer store.Close()

	runner := NewRunner(capl.New(capl.WithOptimize()), &Config{Workers: 1}, WithHistory(store))
	if _, err := runner.Run(context.Background(), []string{path}); err != nil {
		t.Fatalf("Run() failed: %v", err)
	}

	runs, err := store.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected 1 recorded run, got %d", len(runs))
	}
	if !runs[0].Optimized {
		t.Error("Optimized = false, want true for an optimizing compiler")
	}
}

func TestRunDir(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "one.capl", validSource)
	writeSource(t, dir, "two.capl", validSource)

	runner := NewRunner(capl.New(), nil)
	summary, err := runner.RunDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("RunDir() failed: %v", err)
	}
	if summary.Compiled != 2 {
		t.Errorf("Compiled = %d, want 2", summary.Compiled)
	}
}
