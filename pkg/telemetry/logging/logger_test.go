package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid JSON config",
			config:  Config{Level: "info", Format: "json"},
			wantErr: false,
		},
		{
			name:    "valid text config",
			config:  Config{Level: "debug", Format: "text"},
			wantErr: false,
		},
		{
			name:    "empty defaults",
			config:  Config{},
			wantErr: false,
		},
		{
			name:    "invalid level",
			config:  Config{Level: "loud", Format: "json"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "info", Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Info("compilation finished", "policies", 7, "source", "corp.capl")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, buf.String())
	}
	if record["msg"] != "compilation finished" {
		t.Errorf("msg = %v, want 'compilation finished'", record["msg"])
	}
	if record["policies"] != float64(7) {
		t.Errorf("policies = %v, want 7", record["policies"])
	}
	if record["source"] != "corp.capl" {
		t.Errorf("source = %v, want corp.capl", record["source"])
	}
}

func TestLoggerTextOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "text", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Warn("diagnostic raised", "rule", "undeclared-var")

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("Missing level in output: %s", out)
	}
	if !strings.Contains(out, "rule=undeclared-var") {
		t.Errorf("Missing attribute in output: %s", out)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "warn", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	logger.Debug("not visible")
	logger.Info("also not visible")
	if buf.Len() != 0 {
		t.Errorf("Expected no output below warn, got: %s", buf.String())
	}

	logger.Error("visible")
	if !strings.Contains(buf.String(), "visible") {
		t.Error("Expected error record to be written")
	}
}

func TestLoggerWith(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	child := logger.With("component", "batch")
	child.Info("batch run started")

	if !strings.Contains(buf.String(), `"component":"batch"`) {
		t.Errorf("Missing component field: %s", buf.String())
	}
}

func TestLoggerContextFields(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := New(Config{Level: "info", Format: "json", Writer: buf})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	ctx := WithRunID(context.Background(), "run-42")
	ctx = WithSourceFile(ctx, "corp.capl")
	logger.InfoContext(ctx, "recompiling")

	out := buf.String()
	if !strings.Contains(out, `"run_id":"run-42"`) {
		t.Errorf("Missing run_id: %s", out)
	}
	if !strings.Contains(out, `"source_file":"corp.capl"`) {
		t.Errorf("Missing source_file: %s", out)
	}
}

func TestWithContextEmptyIsSameLogger(t *testing.T) {
	logger, err := New(Config{Level: "info", Format: "json", Writer: &bytes.Buffer{}})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if got := logger.WithContext(context.Background()); got != logger {
		t.Error("Expected the same logger when the context carries no fields")
	}
}
