// Package database provides SQLite-based run history for a11yaudit.
//
// Every completed audit run is stored as a row holding summary counts and
// the full report JSON. The history command lists runs and re-renders a
// stored report by ID or ID prefix.
//
// Design decision: We use SQLite (via modernc.org/sqlite) because the
// history is a single local file and the CGO-free driver keeps
// cross-compilation simple. Each stored report carries a SHA3-256 digest
// so a hand-edited or truncated row is reported instead of rendered.
package database
