package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.DebounceInterval != 500*time.Millisecond {
		t.Errorf("DebounceInterval = %v, want 500ms", config.DebounceInterval)
	}
	if len(config.Extensions) != 1 || config.Extensions[0] != ".capl" {
		t.Errorf("Extensions = %v, want [.capl]", config.Extensions)
	}
	if !config.SkipHidden {
		t.Error("Expected SkipHidden on by default")
	}
}

func TestShouldProcessEvent(t *testing.T) {
	config := DefaultConfig()
	w := &Watcher{config: config}

	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"capl write", fsnotify.Event{Name: "corp.capl", Op: fsnotify.Write}, true},
		{"capl create", fsnotify.Event{Name: "corp.capl", Op: fsnotify.Create}, true},
		{"uppercase extension", fsnotify.Event{Name: "corp.CAPL", Op: fsnotify.Write}, true},
		{"chmod ignored", fsnotify.Event{Name: "corp.capl", Op: fsnotify.Chmod}, false},
		{"wrong extension", fsnotify.Event{Name: "notes.txt", Op: fsnotify.Write}, false},
		{"hidden file", fsnotify.Event{Name: ".swap.capl", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := w.shouldProcessEvent(tt.event); got != tt.want {
				t.Errorf("shouldProcessEvent(%v) = %v, want %v", tt.event, got, tt.want)
			}
		})
	}
}

func TestWatcherRebuildsOnChange(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "corp.capl")
	if err := os.WriteFile(source, []byte("# policies\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	config := DefaultConfig()
	config.Path = dir
	config.DebounceInterval = 20 * time.Millisecond

	w, err := NewWatcher(config, nil)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	changed := make(chan string, 1)
	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Watch(ctx, func(path string) error {
			select {
			case changed <- path:
			default:
			}
			return nil
		})
	}()

	// Let the watcher register the directory before writing.
	time.Sleep(100 * time.Millisecond)
	if err := os.WriteFile(source, []byte("# updated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case path := <-changed:
		if filepath.Base(path) != "corp.capl" {
			t.Errorf("Rebuild path = %s, want corp.capl", path)
		}
	case <-ctx.Done():
		t.Fatal("Rebuild callback never fired")
	}

	cancel()
	if err := <-watchErr; err != nil {
		t.Errorf("Watch() returned error: %v", err)
	}
}

func TestWatcherRejectsSecondWatch(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.Path = dir

	w, err := NewWatcher(config, nil)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{})
	go func() {
		close(started)
		w.Watch(ctx, func(string) error { return nil })
	}()
	<-started
	time.Sleep(50 * time.Millisecond)

	if err := w.Watch(ctx, func(string) error { return nil }); err == nil {
		t.Error("Expected second Watch() to fail while running")
	}
	cancel()
}

func TestWatcherStopTwice(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.Path = dir

	w, err := NewWatcher(config, nil)
	if err != nil {
		t.Fatalf("NewWatcher() failed: %v", err)
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- w.Watch(context.Background(), func(string) error { return nil })
	}()
	time.Sleep(50 * time.Millisecond)

	if err := w.Stop(); err != nil {
		t.Errorf("First Stop() returned error: %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("Second Stop() returned error: %v", err)
	}
	if err := <-watchErr; err != nil {
		t.Errorf("Watch() returned error: %v", err)
	}
}
