package model

import (
	"slices"
	"strconv"
	"time"
)

// Page status values shown in the page summary table.
const (
	PageStatusOK    = "OK"
	PageStatusError = "Error"
)

// ReportMeta describes the run a report belongs to.
type ReportMeta struct {
	// GeneratedAt is the report timestamp.
	GeneratedAt time.Time

	// Standard is the WCAG level the pages were tested against.
	Standard Standard

	// Themes are the themes each page was audited under.
	Themes []Theme

	// Source names where the page set came from (site dir or sitemap URL).
	Source string
}

// Report is the aggregated result of a run.
// It is built once by NewReport and never mutated afterwards.
//
// Design decision: We precompute every count instead of deriving them in
// writers so that all output formats agree and the report can be stored
// and reloaded without the raw results.
type Report struct {
	// GeneratedAt is when the report was produced.
	GeneratedAt time.Time `json:"generated_at"`

	// Standard is the WCAG level tested.
	Standard Standard `json:"standard"`

	// Themes are the audited themes in run order.
	Themes []Theme `json:"themes"`

	// Source names the page set origin.
	Source string `json:"source,omitempty"`

	// TotalResults is the number of page×theme audits.
	TotalResults int `json:"total_results"`

	// TotalViolations is the number of violation instances (nodes).
	TotalViolations int `json:"total_violations"`

	// PagesWithIssues is the number of results with at least one violation.
	PagesWithIssues int `json:"pages_with_issues"`

	// CleanPages is the number of results without violations or errors.
	CleanPages int `json:"clean_pages"`

	// ErroredPages is the number of results that failed to load or analyze.
	ErroredPages int `json:"errored_pages"`

	// IncompleteCount is the number of node instances that need review.
	IncompleteCount int `json:"incomplete_count"`

	// Rules are the violated rules ordered by impact.
	Rules []RuleAggregate `json:"rules"`

	// Pages is the page-by-page summary in audit order.
	Pages []PageSummary `json:"pages"`
}

// RuleAggregate groups every occurrence of one rule across a run.
type RuleAggregate struct {
	// ID is the rule identifier.
	ID string `json:"id"`

	// Impact is taken from the first occurrence.
	Impact Impact `json:"impact,omitempty"`

	// Help is the short rule description.
	Help string `json:"help"`

	// Description is the long rule description.
	Description string `json:"description"`

	// Tags are the rule tags.
	Tags []string `json:"tags"`

	// HelpURL links to the remediation guide.
	HelpURL string `json:"help_url"`

	// Occurrences lists each page where the rule failed, in fold order.
	Occurrences []RuleOccurrence `json:"occurrences"`

	// Instances is the sum of node counts over all occurrences.
	Instances int `json:"instances"`
}

// RuleOccurrence is one violation of a rule on one audited page.
type RuleOccurrence struct {
	// PageLabel identifies the page and theme.
	PageLabel string `json:"page"`

	// Nodes are the offending elements on that page.
	Nodes []Node `json:"nodes"`
}

// Instances returns the number of nodes in the occurrence.
func (o RuleOccurrence) Instances() int {
	return len(o.Nodes)
}

// WCAGTags returns the rule's wcag* tags.
func (r RuleAggregate) WCAGTags() []string {
	return Violation{Tags: r.Tags}.WCAGTags()
}

// PageSummary is one row of the page summary table.
type PageSummary struct {
	// PageLabel identifies the page and theme.
	PageLabel string `json:"page"`

	// Violations is the number of violation instances on the page.
	Violations int `json:"violations"`

	// Error is set when the audit of the page failed.
	Error string `json:"error,omitempty"`
}

// Status returns "Error", "OK" or the violation count.
func (p PageSummary) Status() string {
	if p.Error != "" {
		return PageStatusError
	}
	if p.Violations == 0 {
		return PageStatusOK
	}
	return strconv.Itoa(p.Violations)
}

// NewReport folds audit results into a report.
// Results are read in order; the function does not modify them.
func NewReport(meta ReportMeta, results []AuditResult) *Report {
	report := &Report{
		GeneratedAt:  meta.GeneratedAt,
		Standard:     meta.Standard,
		Themes:       slices.Clone(meta.Themes),
		Source:       meta.Source,
		TotalResults: len(results),
		Rules:        []RuleAggregate{},
		Pages:        make([]PageSummary, 0, len(results)),
	}

	index := make(map[string]int)
	for _, result := range results {
		count := result.ViolationCount()
		report.TotalViolations += count
		report.IncompleteCount += CountInstances(result.Incomplete)

		switch {
		case result.Failed():
			report.ErroredPages++
		case len(result.Violations) > 0:
			report.PagesWithIssues++
		default:
			report.CleanPages++
		}

		for _, v := range result.Violations {
			i, ok := index[v.ID]
			if !ok {
				i = len(report.Rules)
				index[v.ID] = i
				report.Rules = append(report.Rules, RuleAggregate{
					ID:          v.ID,
					Impact:      v.Impact,
					Help:        v.Help,
					Description: v.Description,
					Tags:        slices.Clone(v.Tags),
					HelpURL:     v.HelpURL,
					Occurrences: []RuleOccurrence{},
				})
			}
			rule := &report.Rules[i]
			rule.Occurrences = append(rule.Occurrences, RuleOccurrence{
				PageLabel: result.PageLabel,
				Nodes:     v.Nodes,
			})
			rule.Instances += v.Instances()
		}

		report.Pages = append(report.Pages, PageSummary{
			PageLabel:  result.PageLabel,
			Violations: count,
			Error:      result.Error,
		})
	}

	slices.SortStableFunc(report.Rules, func(a, b RuleAggregate) int {
		return a.Impact.Rank() - b.Impact.Rank()
	})

	return report
}

// RuleCount returns the number of distinct rules violated.
func (r *Report) RuleCount() int {
	return len(r.Rules)
}

// UniquePages returns the number of pages tested per theme.
func (r *Report) UniquePages() int {
	if len(r.Themes) == 0 {
		return 0
	}
	return r.TotalResults / len(r.Themes)
}

// Passed reports whether the run found no violation instances.
func (r *Report) Passed() bool {
	return r.TotalViolations == 0
}

// InstancesByImpact sums violation instances per impact.
func (r *Report) InstancesByImpact() map[Impact]int {
	counts := make(map[Impact]int)
	for _, rule := range r.Rules {
		counts[rule.Impact] += rule.Instances
	}
	return counts
}
