// Package export serializes GeneratedPolicy records for downstream
// tooling. YAML is the primary interchange format consumed by the import
// pipeline; JSON and CSV serve API consumers and spreadsheet review.
//
// All exporters implement the Exporter interface and honor context
// cancellation in their streaming variants.
package export
