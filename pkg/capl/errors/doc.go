// Package errors provides rich diagnostics for the CAPL compiler.
//
// Diagnostics carry a type from a closed taxonomy, the grammar rule that was
// violated (for syntax errors), a source location, surrounding source context,
// and an optional suggested fix. An ErrorList accumulates diagnostics so one
// compilation reports every independent problem in a single pass instead of
// aborting on the first.
package errors
