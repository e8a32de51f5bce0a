package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"capl-hq/capl/pkg/capl/emit"
)

func samplePolicies() []*emit.GeneratedPolicy {
	return []*emit.GeneratedPolicy{
		{
			DisplayName: "Corp-1-IOS",
			State:       "enabled",
			Conditions: &emit.Conditions{
				Users:     &emit.UserConditions{IncludeUsers: []string{"All"}},
				Platforms: &emit.PlatformConditions{IncludePlatforms: []string{"iOS", "android"}},
			},
			GrantControls: &emit.GrantControls{Operator: "AND", BuiltInControls: []string{"mfa"}},
		},
		{
			DisplayName: "Corp-2-NotTrusted",
			State:       "report-only",
			Conditions: &emit.Conditions{
				Locations: &emit.LocationConditions{ExcludeLocations: []string{"AllTrusted"}},
			},
			GrantControls: &emit.GrantControls{Operator: "OR", BuiltInControls: []string{"block"}},
			SessionControls: &emit.SessionControls{
				SignInFrequency: &emit.SignInFrequency{Value: 12, Type: "hours", IsEnabled: true},
			},
		},
	}
}

func TestForFormat(t *testing.T) {
	tests := []struct {
		format string
		valid  bool
	}{
		{"yaml", true},
		{"yml", true},
		{"json", true},
		{"csv", true},
		{"xml", false},
		{"", false},
	}

	for _, tt := range tests {
		_, err := ForFormat(tt.format)
		if tt.valid && err != nil {
			t.Errorf("ForFormat(%q): unexpected error %v", tt.format, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ForFormat(%q): expected an error", tt.format)
		}
	}
}

func TestYAMLExport(t *testing.T) {
	buf := &bytes.Buffer{}
	exporter := NewYAMLExporter()

	if err := exporter.Export(context.Background(), samplePolicies(), buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	output := buf.String()
	// Two documents separated by ---.
	if !strings.Contains(output, "---") {
		t.Error("expected a document separator between policies")
	}
	if !strings.Contains(output, "DisplayName: Corp-1-IOS") {
		t.Errorf("missing DisplayName key in output:\n%s", output)
	}
	if !strings.Contains(output, "State: report-only") {
		t.Errorf("missing verbatim state in output:\n%s", output)
	}
	// Internal bookkeeping fields never serialize.
	if strings.Contains(output, "SourceFile") || strings.Contains(output, "PathIndex") {
		t.Errorf("internal fields leaked into output:\n%s", output)
	}
}

func TestYAMLExportRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewYAMLExporter().Export(context.Background(), samplePolicies()[:1], buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	var decoded emit.GeneratedPolicy
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if decoded.DisplayName != "Corp-1-IOS" {
		t.Errorf("DisplayName = %q", decoded.DisplayName)
	}
	if decoded.GrantControls == nil || decoded.GrantControls.BuiltInControls[0] != "mfa" {
		t.Errorf("GrantControls = %+v", decoded.GrantControls)
	}
}

func TestJSONExport(t *testing.T) {
	buf := &bytes.Buffer{}
	exporter := NewJSONExporter(true)

	if err := exporter.Export(context.Background(), samplePolicies(), buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	var decoded []*emit.GeneratedPolicy
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not a JSON array: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("decoded = %d policies, want 2", len(decoded))
	}
	if decoded[1].SessionControls.SignInFrequency.Value != 12 {
		t.Errorf("SignInFrequency = %+v", decoded[1].SessionControls.SignInFrequency)
	}
}

func TestJSONExportEmpty(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSONExporter(false).Export(context.Background(), nil, buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if buf.String() != "[]\n" {
		t.Errorf("empty export = %q, want %q", buf.String(), "[]\n")
	}
}

func TestCSVExport(t *testing.T) {
	buf := &bytes.Buffer{}
	exporter := NewCSVExporter(true)

	if err := exporter.Export(context.Background(), samplePolicies(), buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatalf("output is not valid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("rows = %d, want header plus 2 policies", len(records))
	}
	if records[0][0] != "display_name" {
		t.Errorf("header = %v", records[0])
	}

	first := records[1]
	if first[0] != "Corp-1-IOS" {
		t.Errorf("display_name = %q", first[0])
	}
	// Nested lists flatten to semicolon-separated cells.
	if !strings.Contains(strings.Join(first, ","), "iOS;android") {
		t.Errorf("platform cell missing from row %v", first)
	}

	second := records[2]
	if !strings.Contains(strings.Join(second, ","), "signin-frequency=12 hours") {
		t.Errorf("session summary missing from row %v", second)
	}
}

func TestCSVExportWithoutHeader(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewCSVExporter(false).Export(context.Background(), samplePolicies(), buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	records, err := csv.NewReader(buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Errorf("rows = %d, want 2 without header", len(records))
	}
}

func TestExportCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buf := &bytes.Buffer{}
	err := NewYAMLExporter().Export(ctx, samplePolicies(), buf)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestExportErrorMessage(t *testing.T) {
	cause := context.DeadlineExceeded
	err := NewExportError("json", 7, cause)

	want := "export error [format=json, records=7]: context deadline exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v", err.Unwrap())
	}
}
