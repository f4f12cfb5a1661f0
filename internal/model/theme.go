package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Theme is a rendering mode a page is audited under.
// The string value is the stable tag used in page labels and reports.
type Theme string

const (
	// ThemeLight is the default presentation: no "dark" class on <html>.
	ThemeLight Theme = "light"

	// ThemeDark adds the "dark" class to the root document element.
	ThemeDark Theme = "dark"
)

// Theme selection values accepted by --theme.
const (
	ThemeSelectionLight = "light"
	ThemeSelectionDark  = "dark"
	ThemeSelectionBoth  = "both"
)

// DefaultThemeSelection audits the light theme only.
const DefaultThemeSelection = ThemeSelectionLight

// Dark reports whether the theme requires the dark presentation state.
func (t Theme) Dark() bool {
	return t == ThemeDark
}

// Label returns the title-cased theme name (e.g. "Dark").
func (t Theme) Label() string {
	return cases.Title(language.English).String(string(t))
}

// Icon returns the symbol shown next to the theme in progress output.
func (t Theme) Icon() string {
	if t.Dark() {
		return "🌙"
	}
	return "☀️"
}

// String returns the theme tag.
func (t Theme) String() string {
	return string(t)
}

// ParseThemeSet converts a --theme selection into the ordered theme list.
func ParseThemeSet(selection string) ([]Theme, error) {
	switch strings.ToLower(strings.TrimSpace(selection)) {
	case ThemeSelectionLight:
		return []Theme{ThemeLight}, nil
	case ThemeSelectionDark:
		return []Theme{ThemeDark}, nil
	case ThemeSelectionBoth:
		return []Theme{ThemeLight, ThemeDark}, nil
	default:
		return nil, ErrInvalidTheme
	}
}

// ThemeLabels returns "☀️ Light, 🌙 Dark" style text for a theme list.
func ThemeLabels(themes []Theme) string {
	labels := make([]string, len(themes))
	for i, t := range themes {
		labels[i] = t.Icon() + " " + t.Label()
	}
	return strings.Join(labels, ", ")
}
