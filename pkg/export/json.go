package export

import (
	"context"
	"encoding/json"
	"io"

	"capl-hq/capl/pkg/capl/emit"
)

// JSONExporter exports policy records to JSON format.
type JSONExporter struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONExporter creates a new JSON exporter.
func NewJSONExporter(pretty bool) *JSONExporter {
	return &JSONExporter{Pretty: pretty}
}

// Export writes the policies as a JSON array. An empty batch writes `[]`
// so consumers always receive valid JSON.
func (e *JSONExporter) Export(ctx context.Context, policies []*emit.GeneratedPolicy, w io.Writer) error {
	if len(policies) == 0 {
		_, err := w.Write([]byte("[]\n"))
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	var data []byte
	var err error
	if e.Pretty {
		data, err = json.MarshalIndent(policies, "", "  ")
	} else {
		data, err = json.Marshal(policies)
	}
	if err != nil {
		return NewExportError("json", len(policies), err)
	}

	if _, err := w.Write(data); err != nil {
		return NewExportError("json", len(policies), err)
	}
	_, err = w.Write([]byte("\n"))
	return err
}

// ExportStream writes policies from a channel as a JSON array, serializing
// each record as it arrives instead of buffering the whole batch.
func (e *JSONExporter) ExportStream(ctx context.Context, policiesCh <-chan *emit.GeneratedPolicy, w io.Writer) error {
	if _, err := w.Write([]byte("[")); err != nil {
		return NewExportError("json", 0, err)
	}

	first := true
	count := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case policy, ok := <-policiesCh:
			if !ok {
				if _, err := w.Write([]byte("]\n")); err != nil {
					return NewExportError("json", count, err)
				}
				return nil
			}

			if !first {
				if _, err := w.Write([]byte(",")); err != nil {
					return NewExportError("json", count, err)
				}
			}
			first = false

			data, err := e.serialize(policy)
			if err != nil {
				return NewExportError("json", count, err)
			}
			if _, err := w.Write(data); err != nil {
				return NewExportError("json", count, err)
			}
			count++
		}
	}
}

func (e *JSONExporter) serialize(policy *emit.GeneratedPolicy) ([]byte, error) {
	if e.Pretty {
		return json.MarshalIndent(policy, "  ", "  ")
	}
	return json.Marshal(policy)
}
