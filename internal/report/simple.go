package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/a11yaudit/internal/model"
)

// ruleWidth is the width of section separators.
const ruleWidth = 70

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display and CI logs.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Colored progress is already printed while the run is going
type SimpleWriter struct {
	baseWriter

	// verbose enables node-level detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output listing offending elements.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	if !report.Passed() {
		w.writeRules(&sb, report)
		w.writePages(&sb, report)
	}
	w.writeFooter(&sb, report)

	return io.WriteString(w.output, sb.String())
}

// writeSection writes a titled separator.
func writeSection(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", ruleWidth))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	sb.WriteString("                    ACCESSIBILITY TEST REPORT\n")
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Generated: %s\n", report.GeneratedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(sb, "Standard:  %s\n", report.Standard.Display())
	fmt.Fprintf(sb, "Themes:    %s\n", model.ThemeLabels(report.Themes))
	if report.Source != "" {
		fmt.Fprintf(sb, "Source:    %s\n", report.Source)
	}
	fmt.Fprintf(sb, "Pages:     %d pages x %d themes = %d total\n",
		report.UniquePages(), len(report.Themes), report.TotalResults)
	sb.WriteString("\n")
}

// writeSummary writes the count summary.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Total violations:      %d\n", report.TotalViolations)
	fmt.Fprintf(sb, "  Pages with issues:     %d\n", report.PagesWithIssues)
	fmt.Fprintf(sb, "  Unique rules violated: %d\n", report.RuleCount())
	fmt.Fprintf(sb, "  Clean pages:           %d\n", report.CleanPages)
	fmt.Fprintf(sb, "  Errored pages:         %d\n", report.ErroredPages)
	fmt.Fprintf(sb, "  Needs review:          %d\n", report.IncompleteCount)
	sb.WriteString("\n")

	if report.Passed() {
		sb.WriteString("  No accessibility violations found.\n\n")
	}
}

// writeRules writes violated rules, most severe first.
func (w *SimpleWriter) writeRules(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "VIOLATIONS BY RULE")

	for _, rule := range report.Rules {
		fmt.Fprintf(sb, "[%s] %s (%d instances)\n", impactIndicator(rule.Impact), rule.ID, rule.Instances)
		fmt.Fprintf(sb, "    %s\n", rule.Help)
		if tags := rule.WCAGTags(); len(tags) > 0 {
			fmt.Fprintf(sb, "    WCAG: %s\n", strings.Join(tags, ", "))
		}
		if rule.HelpURL != "" {
			fmt.Fprintf(sb, "    Fix:  %s\n", rule.HelpURL)
		}
		for _, o := range rule.Occurrences {
			fmt.Fprintf(sb, "    - %s (%d)\n", o.PageLabel, o.Instances())
			if !w.verbose {
				continue
			}
			for _, n := range o.Nodes {
				fmt.Fprintf(sb, "        %s\n", n.HTML)
			}
		}
		sb.WriteString("\n")
	}
}

// writePages writes the per-page status list.
func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.Report) {
	writeSection(sb, "PAGES")

	for _, p := range report.Pages {
		fmt.Fprintf(sb, "  %-50s %s\n", p.PageLabel, p.Status())
		if w.verbose && p.Error != "" {
			fmt.Fprintf(sb, "      %s\n", p.Error)
		}
	}
	sb.WriteString("\n")
}

// impactIndicator returns a visual indicator for the impact level.
func impactIndicator(impact model.Impact) string {
	switch impact {
	case model.ImpactCritical:
		return "!!!"
	case model.ImpactSerious:
		return "!!"
	case model.ImpactModerate:
		return "!"
	case model.ImpactMinor:
		return "-"
	default:
		return "?"
	}
}

// writeFooter writes the pass/fail line.
func (w *SimpleWriter) writeFooter(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
	if report.Passed() {
		sb.WriteString("PASSED: no accessibility violations\n")
	} else {
		sb.WriteString("FAILED: accessibility violations found\n")
	}
	sb.WriteString(strings.Repeat("=", ruleWidth))
	sb.WriteString("\n")
}
