// Package history records compilation runs so operators can audit what was
// compiled when, how many policies came out and whether diagnostics were
// raised. Backends share the Store interface; sqlite is the durable
// default and memory serves tests and one-shot runs.
package history

import (
	"context"
	"fmt"
	"time"
)

// CompileRun is one recorded compilation.
type CompileRun struct {
	// ID is a UUID assigned when the run is recorded.
	ID string `json:"id"`

	// SourceFile is the compiled file path.
	SourceFile string `json:"source_file"`

	// StartedAt is when compilation began.
	StartedAt time.Time `json:"started_at"`

	// Duration is the wall-clock compilation time.
	Duration time.Duration `json:"duration"`

	// Statements is the number of top-level decision trees parsed.
	Statements int `json:"statements"`

	// Compiled is how many of them produced policies.
	Compiled int `json:"compiled"`

	// PolicyCount is the number of emitted policies.
	PolicyCount int `json:"policy_count"`

	// ErrorCount is the number of diagnostics raised.
	ErrorCount int `json:"error_count"`

	// Optimized records whether the clustering pass ran.
	Optimized bool `json:"optimized"`
}

// Failed reports whether the run raised any diagnostics.
func (r *CompileRun) Failed() bool {
	return r.ErrorCount > 0
}

// Query filters and paginates run listings.
type Query struct {
	// SourceFile restricts results to one source file.
	SourceFile string

	// Since and Until bound the started_at timestamp.
	Since *time.Time
	Until *time.Time

	// OnlyFailed restricts results to runs with diagnostics.
	OnlyFailed bool

	// Limit caps the result count (default 100). Offset skips rows.
	Limit  int
	Offset int
}

// Store persists compile runs.
type Store interface {
	// Record persists one run.
	Record(ctx context.Context, run *CompileRun) error

	// List returns runs matching the query, newest first.
	List(ctx context.Context, query *Query) ([]*CompileRun, error)

	// Count returns the number of runs matching the query.
	Count(ctx context.Context, query *Query) (int64, error)

	// DeleteBefore removes runs started before the cutoff and returns how
	// many were removed.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Close releases backend resources.
	Close() error
}

// StorageError wraps a backend failure with the backend name and the
// operation that failed.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("history storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
