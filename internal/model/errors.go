package model

import "errors"

// Validation errors for user-selected run parameters.
var (
	// ErrInvalidTheme is returned when the theme selection is not
	// one of "light", "dark" or "both".
	ErrInvalidTheme = errors.New("invalid theme: must be light, dark or both")

	// ErrInvalidStandard is returned when the standard is not one of the
	// supported WCAG conformance levels.
	ErrInvalidStandard = errors.New("invalid standard: must be wcag2a, wcag2aa, wcag21aa or wcag22aa")
)
