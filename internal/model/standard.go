package model

import (
	"slices"
	"strings"
)

// Standard is a named WCAG conformance level. It determines which
// axe-core rule tags are evaluated.
type Standard string

const (
	// StandardWCAG2A is WCAG 2.0 level A.
	StandardWCAG2A Standard = "wcag2a"

	// StandardWCAG2AA is WCAG 2.0 level AA.
	StandardWCAG2AA Standard = "wcag2aa"

	// StandardWCAG21AA is WCAG 2.1 level AA.
	StandardWCAG21AA Standard = "wcag21aa"

	// StandardWCAG22AA is WCAG 2.2 level AA.
	StandardWCAG22AA Standard = "wcag22aa"
)

// DefaultStandard is used when no standard is selected.
const DefaultStandard = StandardWCAG21AA

// standardTags maps each standard to its cumulative tag set.
var standardTags = map[Standard][]string{
	StandardWCAG2A:   {"wcag2a"},
	StandardWCAG2AA:  {"wcag2a", "wcag2aa"},
	StandardWCAG21AA: {"wcag2a", "wcag2aa", "wcag21a", "wcag21aa"},
	StandardWCAG22AA: {"wcag2a", "wcag2aa", "wcag21a", "wcag21aa", "wcag22aa"},
}

// ParseStandard validates a --standard value.
func ParseStandard(s string) (Standard, error) {
	std := Standard(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := standardTags[std]; !ok {
		return "", ErrInvalidStandard
	}
	return std, nil
}

// Tags returns a copy of the rule tags evaluated for the standard.
// Unknown standards get the WCAG 2.0 AA set.
func (s Standard) Tags() []string {
	if tags, ok := standardTags[s]; ok {
		return slices.Clone(tags)
	}
	return slices.Clone(standardTags[StandardWCAG2AA])
}

// Display returns the upper-cased identifier used in report headers.
func (s Standard) Display() string {
	return strings.ToUpper(string(s))
}

// String returns the standard identifier.
func (s Standard) String() string {
	return string(s)
}
