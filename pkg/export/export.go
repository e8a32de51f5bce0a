package export

import (
	"context"
	"fmt"
	"io"

	"capl-hq/capl/pkg/capl/emit"
)

// Exporter serializes a batch of policy records to a writer.
type Exporter interface {
	Export(ctx context.Context, policies []*emit.GeneratedPolicy, w io.Writer) error
}

// ExportError wraps a serialization failure with the format and how many
// records had been processed when it occurred.
type ExportError struct {
	Format  string
	Records int
	Cause   error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, records=%d]: %v", e.Format, e.Records, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format string, records int, cause error) *ExportError {
	return &ExportError{Format: format, Records: records, Cause: cause}
}

// ForFormat returns the exporter for a format name. Supported formats are
// "yaml", "json" and "csv".
func ForFormat(format string) (Exporter, error) {
	switch format {
	case "yaml", "yml":
		return NewYAMLExporter(), nil
	case "json":
		return NewJSONExporter(true), nil
	case "csv":
		return NewCSVExporter(true), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q (expected yaml, json or csv)", format)
	}
}
