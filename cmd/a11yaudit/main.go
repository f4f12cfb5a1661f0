// Package main provides the entry point for the a11yaudit CLI.
//
// a11yaudit audits a built website for WCAG violations with headless
// Chrome and axe-core, writes a report and exits non-zero when any
// violation is found, so it can gate a CI pipeline.
//
// Usage:
//
//	a11yaudit audit
//	a11yaudit audit --theme both --standard wcag22aa
//	a11yaudit audit --sitemap https://example.com/sitemap.xml
//
// See --help for all available options.
package main

// main is the entry point for a11yaudit.
func main() {
	Execute()
}
