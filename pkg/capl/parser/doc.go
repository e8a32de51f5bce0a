// Package parser builds CAPL abstract syntax trees from token streams.
//
// The parser is recursive descent with one method per grammar production.
// Grammar violations are tagged with the violated rule and do not abort the
// compilation unit: the parser resynchronizes at the next top-level statement
// boundary and keeps scanning, so one file yields all independent errors in a
// single pass. A top-level statement that produced any diagnostic is dropped
// from the returned program; clean statements survive so callers can emit
// partial output alongside the diagnostics.
package parser
