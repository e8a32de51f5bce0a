package export

import (
	"context"
	"io"

	"gopkg.in/yaml.v3"

	"capl-hq/capl/pkg/capl/emit"
)

// YAMLExporter exports policy records as a stream of YAML documents, one
// document per policy, matching the layout the import tooling expects.
type YAMLExporter struct {
	// Indent sets the encoder indentation in spaces.
	Indent int
}

// NewYAMLExporter creates a YAML exporter with two-space indentation.
func NewYAMLExporter() *YAMLExporter {
	return &YAMLExporter{Indent: 2}
}

// Export writes each policy as its own YAML document separated by `---`.
func (e *YAMLExporter) Export(ctx context.Context, policies []*emit.GeneratedPolicy, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(e.Indent)
	defer enc.Close()

	for i, policy := range policies {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := enc.Encode(policy); err != nil {
			return NewExportError("yaml", i, err)
		}
	}

	return nil
}

// ExportOne writes a single policy document without a document separator.
func (e *YAMLExporter) ExportOne(policy *emit.GeneratedPolicy, w io.Writer) error {
	data, err := yaml.Marshal(policy)
	if err != nil {
		return NewExportError("yaml", 1, err)
	}
	if _, err := w.Write(data); err != nil {
		return NewExportError("yaml", 1, err)
	}
	return nil
}
