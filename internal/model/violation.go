package model

import (
	"encoding/json"
	"strings"
)

// wcagTagPrefix identifies tags that name a WCAG clause or level.
const wcagTagPrefix = "wcag"

// Violation is one accessibility rule failure as returned by axe-core.
// Field names follow the engine's JSON output so results can be decoded
// without an intermediate type.
type Violation struct {
	// ID is the rule identifier (e.g. "color-contrast").
	ID string `json:"id"`

	// Impact is the severity; empty when the engine did not report one.
	Impact Impact `json:"impact,omitempty"`

	// Help is the short description of the rule.
	Help string `json:"help"`

	// Description is the long description of the rule.
	Description string `json:"description"`

	// Tags lists the rule's tags, including wcag* clause identifiers.
	Tags []string `json:"tags"`

	// HelpURL links to the remediation guide.
	HelpURL string `json:"helpUrl"` //nolint:tagliatelle // axe-core field name

	// Nodes are the offending DOM locations.
	Nodes []Node `json:"nodes"`
}

// Node is one DOM location that failed a rule.
type Node struct {
	// HTML is the outer HTML snippet of the element.
	HTML string `json:"html"`

	// Target is the selector path. It is kept raw because axe-core
	// nests arrays for elements inside shadow roots and iframes.
	Target json.RawMessage `json:"target,omitempty"`

	// FailureSummary explains what failed for this node.
	FailureSummary string `json:"failureSummary,omitempty"` //nolint:tagliatelle // axe-core field name
}

// Instances returns the number of offending nodes.
func (v Violation) Instances() int {
	return len(v.Nodes)
}

// WCAGTags returns the subset of tags prefixed with "wcag".
func (v Violation) WCAGTags() []string {
	tags := make([]string, 0, len(v.Tags))
	for _, tag := range v.Tags {
		if strings.HasPrefix(tag, wcagTagPrefix) {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Analysis is the part of an axe-core run the audit keeps.
type Analysis struct {
	// Violations are conclusive rule failures.
	Violations []Violation `json:"violations"`

	// Incomplete are checks that need manual review.
	Incomplete []Violation `json:"incomplete"`
}

// CountInstances sums the node counts of the given violations.
func CountInstances(violations []Violation) int {
	total := 0
	for _, v := range violations {
		total += v.Instances()
	}
	return total
}
