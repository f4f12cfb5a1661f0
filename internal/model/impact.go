package model

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Impact is the severity classification axe-core assigns to a violation.
// The engine reports it as a string and may omit it, so the zero value
// means "unspecified".
type Impact string

const (
	// ImpactCritical blocks access to content for some users.
	ImpactCritical Impact = "critical"

	// ImpactSerious seriously degrades access for some users.
	ImpactSerious Impact = "serious"

	// ImpactModerate causes some difficulty for some users.
	ImpactModerate Impact = "moderate"

	// ImpactMinor is a nuisance rather than a barrier.
	ImpactMinor Impact = "minor"

	// ImpactNone is used when the engine did not report an impact.
	ImpactNone Impact = ""
)

// impactRanks orders impacts for presentation. Lower ranks come first.
// Anything not listed (including ImpactNone) sorts last.
var impactRanks = map[Impact]int{
	ImpactCritical: 0,
	ImpactSerious:  1,
	ImpactModerate: 2,
	ImpactMinor:    3,
}

// unknownImpactRank is the rank of unspecified or unrecognized impacts.
const unknownImpactRank = 4

// Rank returns the presentation rank of the impact:
// critical < serious < moderate < minor < unspecified.
func (i Impact) Rank() int {
	if rank, ok := impactRanks[i]; ok {
		return rank
	}
	return unknownImpactRank
}

// Marker returns the colored circle used in Markdown reports.
func (i Impact) Marker() string {
	switch i {
	case ImpactCritical:
		return "🔴"
	case ImpactSerious:
		return "🟠"
	case ImpactModerate:
		return "🟡"
	case ImpactMinor:
		return "🔵"
	default:
		return "⚪"
	}
}

// Label returns the title-cased impact name, or "Unspecified".
func (i Impact) Label() string {
	if i == ImpactNone {
		return "Unspecified"
	}
	return cases.Title(language.English).String(string(i))
}

// String returns the raw impact value, or "unspecified" when absent.
func (i Impact) String() string {
	if i == ImpactNone {
		return "unspecified"
	}
	return string(i)
}

// Impacts lists the known impacts in presentation order.
func Impacts() []Impact {
	return []Impact{ImpactCritical, ImpactSerious, ImpactModerate, ImpactMinor}
}
