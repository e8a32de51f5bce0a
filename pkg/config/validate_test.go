package config

import (
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("Default configuration failed validation: %v", err)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Compiler.MaxDepth = 0
	cfg.Output.Format = "xml"
	cfg.Batch.Workers = -1
	cfg.Telemetry.Logging.Level = "loud"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation to fail")
	}

	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 4 {
		t.Fatalf("Expected 4 errors, got %d: %v", len(verrs), verrs)
	}

	fields := make(map[string]bool)
	for _, verr := range verrs {
		fields[verr.Field] = true
	}
	for _, want := range []string{"compiler.max_depth", "output.format", "batch.workers", "telemetry.logging.level"} {
		if !fields[want] {
			t.Errorf("Missing expected field %q in %v", want, verrs)
		}
	}
}

func TestValidateWorkersCap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Batch.Workers = 65

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation to fail for oversized worker pool")
	}
	if !strings.Contains(err.Error(), "must not exceed 64") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestValidateHistoryBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.History.Backend = "postgres"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Expected validation to fail for unknown backend")
	}
	if !strings.Contains(err.Error(), "history.backend") {
		t.Errorf("Unexpected error: %v", err)
	}

	cfg = DefaultConfig()
	cfg.History.SQLitePath = ""
	err = Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "history.sqlite_path") {
		t.Errorf("Expected sqlite_path error, got: %v", err)
	}
}

func TestValidateMetricsListenAddress(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Telemetry.Metrics.Enabled = true
	cfg.Telemetry.Metrics.ListenAddress = ""

	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "telemetry.metrics.listen_address") {
		t.Errorf("Expected listen_address error, got: %v", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	verr := &ValidationError{Field: "batch.workers", Message: "must be positive"}
	if got := verr.Error(); got != "batch.workers: must be positive" {
		t.Errorf("Error() = %q", got)
	}

	errs := ValidationErrors{
		{Field: "a", Message: "one"},
		{Field: "b", Message: "two"},
	}
	if got := errs.Error(); got != "a: one; b: two" {
		t.Errorf("joined Error() = %q", got)
	}
}
