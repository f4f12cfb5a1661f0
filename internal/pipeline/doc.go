// Package pipeline runs the per-page audit: load the page, apply the theme,
// run the rule engine.
//
// Each AuditTask flows through a Pipeline of Steps sharing one TaskState.
// The first failing step stops the task and its error is recorded in the
// task's AuditResult; it never escapes to the caller.
//
// Design decision: We keep the step pipeline instead of one function per
// task because:
// 1. Each phase has its own configuration (settle delay, rule tags)
// 2. Failure handling and logging are uniform across phases
// 3. Tests can replace a single phase with a fake
//
// A Session owns the browser for a run. It opens a fresh tab per task,
// closes it on every exit path, and returns results in task order. Tasks
// normally run one at a time; BatchProcessor allows bounded concurrency
// while restoring task order before results are aggregated.
package pipeline
