// Package model defines the core data structures used throughout a11yaudit.
//
// This package contains the following main types:
//   - PageRef: One resolved document to audit
//   - Theme and Standard: The rendering modes and WCAG level of a run
//   - AuditTask and AuditResult: The unit of work and its outcome
//   - Violation: A rule failure as returned by the accessibility engine
//   - Report: The aggregated, write-once result of a run
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. The discovery, pipeline, report and database packages all
// need these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
