package browser

import "errors"

// Browser errors.
//
// Design decision: Setup failures (missing rule engine, browser that does
// not start) are separated from per-page failures (navigation timeout) so
// the command can abort the run for the former and record the latter
// against a single page.
var (
	// ErrMissingDependency is returned when the axe-core script cannot be
	// found. It usually means the engine package was never installed.
	ErrMissingDependency = errors.New("axe-core script not found: run `npm install axe-core` or set --axe-script")

	// ErrLaunch is returned when the browser process cannot be started.
	ErrLaunch = errors.New("failed to launch browser")

	// ErrNavigationTimeout is returned when a page does not reach network
	// idle within the navigation timeout.
	ErrNavigationTimeout = errors.New("navigation timeout")

	// ErrEmptyResult is returned when the rule engine produced no output.
	ErrEmptyResult = errors.New("axe-core returned no result")
)
