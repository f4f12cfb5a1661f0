// Package report renders an aggregated accessibility report.
//
// This package contains writers for different output formats:
//   - MarkdownWriter: the default report, with a summary table, a chart of
//     instances by impact, one block per violated rule and a page table
//   - JSONWriter: structured JSON output for tool integration
//   - SimpleWriter: plain text for terminals and CI logs
//
// Design decision: We separate report writing from report data structures
// (which are in the model package) so every format renders the same
// precomputed counts. Writers never aggregate on their own.
//
// Emit writes a single report file into the output directory, named after
// the format (a11y-report.md, a11y-report.json or a11y-report.txt).
package report
