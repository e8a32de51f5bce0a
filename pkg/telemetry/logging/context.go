package logging

import (
	"context"
)

// Context keys for compile-scoped log fields.
type contextKey string

const (
	// RunIDKey is the context key for compile run IDs.
	RunIDKey contextKey = "run_id"

	// SourceFileKey is the context key for the file being compiled.
	SourceFileKey contextKey = "source_file"

	// BatchIDKey is the context key for batch run IDs.
	BatchIDKey contextKey = "batch_id"
)

// WithRunID adds a compile run ID to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, RunIDKey, runID)
}

// GetRunID retrieves the compile run ID from the context.
func GetRunID(ctx context.Context) string {
	if runID, ok := ctx.Value(RunIDKey).(string); ok {
		return runID
	}
	return ""
}

// WithSourceFile adds the compiled file path to the context.
func WithSourceFile(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, SourceFileKey, path)
}

// GetSourceFile retrieves the compiled file path from the context.
func GetSourceFile(ctx context.Context) string {
	if path, ok := ctx.Value(SourceFileKey).(string); ok {
		return path
	}
	return ""
}

// WithBatchID adds a batch run ID to the context.
func WithBatchID(ctx context.Context, batchID string) context.Context {
	return context.WithValue(ctx, BatchIDKey, batchID)
}

// GetBatchID retrieves the batch run ID from the context.
func GetBatchID(ctx context.Context) string {
	if batchID, ok := ctx.Value(BatchIDKey).(string); ok {
		return batchID
	}
	return ""
}

// extractContextFields extracts compile-scoped fields from context.
// Returns a slice of key-value pairs suitable for logger.With().
func extractContextFields(ctx context.Context) []any {
	var fields []any

	if runID := GetRunID(ctx); runID != "" {
		fields = append(fields, "run_id", runID)
	}
	if path := GetSourceFile(ctx); path != "" {
		fields = append(fields, "source_file", path)
	}
	if batchID := GetBatchID(ctx); batchID != "" {
		fields = append(fields, "batch_id", batchID)
	}

	return fields
}
