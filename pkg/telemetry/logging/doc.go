// Package logging provides structured logging for the compiler toolchain.
//
// # Overview
//
// The logging package wraps Go's standard log/slog package to provide:
//   - Structured logging with JSON and text formats
//   - Context-aware logging with compile run IDs and source files
//   - Configurable log levels (debug, info, warn, error)
//
// Log output goes to stderr by default so it never mixes with compiled
// policies on stdout.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//	if err != nil {
//	    return err
//	}
//	logger.SetDefault()
//
//	ctx := logging.WithRunID(context.Background(), runID)
//	ctx = logging.WithSourceFile(ctx, "corp.capl")
//	logger.InfoContext(ctx, "compilation finished", "policies", 7)
package logging
