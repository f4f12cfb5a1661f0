package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/a11yaudit/internal/model"
)

// Format is a report output format.
type Format string

const (
	// FormatMarkdown is the default Markdown report.
	FormatMarkdown Format = "markdown"

	// FormatJSON is the machine-readable report.
	FormatJSON Format = "json"

	// FormatText is the plain-text report.
	FormatText Format = "text"
)

// reportBaseName is the report file name without extension.
const reportBaseName = "a11y-report"

// ErrInvalidFormat is returned for an unknown --format value.
var ErrInvalidFormat = errors.New("invalid format: must be markdown, json or text")

// ParseFormat validates a format name. "md" and "txt" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", ErrInvalidFormat
	}
}

// FileName returns the report file name for the format.
func (f Format) FileName() string {
	switch f {
	case FormatJSON:
		return reportBaseName + ".json"
	case FormatText:
		return reportBaseName + ".txt"
	default:
		return reportBaseName + ".md"
	}
}

// NewWriter returns the Writer for format. verbose lists offending
// elements and page errors in text reports; other formats ignore it.
func NewWriter(format Format, output io.Writer, verbose bool) Writer {
	switch format {
	case FormatJSON:
		return NewJSONWriter(output)
	case FormatText:
		return NewSimpleWriter(output, WithVerbose(verbose))
	default:
		return NewMarkdownWriter(output)
	}
}

// Emit writes report into dir in the given format and returns the file path.
// The directory is created if missing; an existing report is replaced.
func Emit(dir string, format Format, report *model.Report, verbose bool) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, format.FileName())
	file, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	if _, err := NewWriter(format, file, verbose).Write(report); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	return path, nil
}
