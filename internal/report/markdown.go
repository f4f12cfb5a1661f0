package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/a11yaudit/internal/model"
	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
)

// MarkdownWriter outputs reports in Markdown format.
// This is the default format and the one committed to CI artifacts.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, details blocks, and code blocks
// 3. Mermaid charts rendered natively by common Git hosts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
// The output depends only on the report, so writing the same report
// twice produces identical bytes.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)

	if report.Passed() {
		md.H2("Result")
		md.PlainText("")
		md.PlainText("No accessibility violations found.")
		return len(md.String()), md.Build()
	}

	w.writePieChart(md, report)
	w.writeRules(md, report)
	w.writePages(md, report)

	return len(md.String()), md.Build()
}

// writeHeader writes the report title and run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Accessibility Test Report")
	md.PlainText("")
	md.PlainTextf("**Generated:** %s  ", report.GeneratedAt.UTC().Format(time.RFC3339))
	md.PlainTextf("**Standard:** %s  ", report.Standard.Display())
	md.PlainTextf("**Themes tested:** %s  ", model.ThemeLabels(report.Themes))
	if report.Source != "" {
		md.PlainTextf("**Source:** `%s`  ", report.Source)
	}
	md.PlainTextf("**Pages tested:** %d pages × %d themes = %d total",
		report.UniquePages(), len(report.Themes), report.TotalResults)
	md.PlainText("")
}

// writeSummary writes the summary table.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Total violations", strconv.Itoa(report.TotalViolations)},
			{"Pages with issues", strconv.Itoa(report.PagesWithIssues)},
			{"Unique rules violated", strconv.Itoa(report.RuleCount())},
			{"Clean pages", strconv.Itoa(report.CleanPages)},
			{"Errored pages", strconv.Itoa(report.ErroredPages)},
			{"Needs review", strconv.Itoa(report.IncompleteCount)},
		},
	})
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of instances by impact.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.Report) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Violations by Impact"),
		piechart.WithShowData(true),
	)

	counts := report.InstancesByImpact()
	for _, impact := range append(model.Impacts(), model.ImpactNone) {
		if n := counts[impact]; n > 0 {
			chart.LabelAndIntValue(impact.Label(), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRules writes one block per violated rule, most severe first.
func (w *MarkdownWriter) writeRules(md *markdown.Markdown, report *model.Report) {
	md.H2("Violations by Rule")
	md.PlainText("")

	for _, rule := range report.Rules {
		md.PlainTextf("### %s %s", rule.Impact.Marker(), rule.ID)
		md.PlainText("")
		md.PlainTextf("**Impact:** %s | **Instances:** %d", rule.Impact, rule.Instances)
		md.PlainText("")
		md.PlainText(rule.Help)
		md.PlainText("")
		md.PlainText(rule.Description)
		md.PlainText("")
		md.PlainTextf("**WCAG:** %s", strings.Join(rule.WCAGTags(), ", "))
		md.PlainText("")
		md.PlainTextf("**How to fix:** [%s](%s)", rule.HelpURL, rule.HelpURL)
		md.PlainText("")

		pages := make([]string, len(rule.Occurrences))
		for i, o := range rule.Occurrences {
			pages[i] = fmt.Sprintf("- `%s` (%d instances)", o.PageLabel, o.Instances())
		}
		md.Details(
			fmt.Sprintf("Affected pages (%d)", len(rule.Occurrences)),
			strings.Join(pages, "\n"),
		)
		md.PlainText("")
		md.HorizontalRule()
		md.PlainText("")
	}
}

// writePages writes the per-page summary table in audit order.
func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.Report) {
	md.H2("Pages Summary")
	md.PlainText("")

	rows := make([][]string, len(report.Pages))
	for i, p := range report.Pages {
		rows[i] = []string{"`" + p.PageLabel + "`", p.Status()}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Violations"},
		Rows:   rows,
	})
}
