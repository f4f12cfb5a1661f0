package report

import (
	"encoding/json"
	"io"

	"github.com/nao1215/a11yaudit/internal/model"
)

// JSONWriter outputs reports in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because the report is a plain tree of structs and the run
// history stores the same encoding, so both sides stay in step.
type JSONWriter struct {
	baseWriter
}

// jsonIndent is the indentation of each nesting level.
const jsonIndent = "  "

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer) *JSONWriter {
	return &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report as indented JSON.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	data, err := json.MarshalIndent(report, "", jsonIndent)
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
