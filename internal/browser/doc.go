// Package browser drives a headless Chrome instance and runs the axe-core
// accessibility engine inside rendered pages.
//
// # Abstractions
//
// The audit session depends on three small interfaces:
//
//   - Browser opens pages and is closed once per run.
//   - Page navigates, toggles the dark theme and evaluates scripts.
//   - Analyzer runs the rule engine against an open Page.
//
// Design decision: The interfaces are deliberately narrow so the session can
// be tested with in-memory fakes. Only Chrome and AxeAnalyzer touch the
// DevTools protocol or a real browser binary.
//
// # Chrome
//
// Chrome is backed by chromedp. Each Page is a separate tab created from the
// shared browser context, so a crash or hang in one document is isolated to
// its own tab. Navigation waits for the "networkAlmostIdle" lifecycle event
// (at most two in-flight requests) bounded by a timeout.
//
// # Theme switching
//
// Sites built on a utility-first CSS framework switch to their dark palette
// when the root element carries the "dark" class. SetDarkMode toggles that
// class and reports whether anything changed so callers only wait for a
// repaint when needed.
//
// # Rule engine
//
// The axe-core script is loaded once per run with LoadAxeSource, injected
// into every page and executed with the tag set of the chosen standard.
package browser
