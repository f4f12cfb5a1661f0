package model

// AuditTask is one page audited under one theme.
// Index and Total exist for progress output only.
type AuditTask struct {
	// Page is the document to audit.
	Page PageRef

	// Theme is the rendering mode to apply before analysis.
	Theme Theme

	// Index is the zero-based position of the task in the run.
	Index int

	// Total is the number of tasks in the run.
	Total int
}

// Label returns the page label for this task.
func (t AuditTask) Label() string {
	return t.Page.Label(t.Theme)
}

// NewTasks crosses pages with themes. Themes form the outer loop so
// all pages of one theme are audited before switching theme.
func NewTasks(pages []PageRef, themes []Theme) []AuditTask {
	total := len(pages) * len(themes)
	tasks := make([]AuditTask, 0, total)
	for _, theme := range themes {
		for _, page := range pages {
			tasks = append(tasks, AuditTask{
				Page:  page,
				Theme: theme,
				Index: len(tasks),
				Total: total,
			})
		}
	}
	return tasks
}

// AuditResult is the outcome of one AuditTask.
//
// When Error is non-empty the task produced no reliable data: Violations
// and Incomplete are empty and the result counts neither as a pass nor as
// a failure.
type AuditResult struct {
	// PageLabel is the page path annotated with the theme.
	PageLabel string `json:"page"`

	// Theme is the theme the page was audited under.
	Theme Theme `json:"theme"`

	// Violations are the rule failures found on the page.
	Violations []Violation `json:"violations"`

	// Incomplete are findings that need manual review.
	Incomplete []Violation `json:"incomplete"`

	// Error describes why the task failed, if it did.
	Error string `json:"error,omitempty"`
}

// NewAuditResult creates an empty result for a task.
func NewAuditResult(task AuditTask) *AuditResult {
	return &AuditResult{
		PageLabel:  task.Label(),
		Theme:      task.Theme,
		Violations: []Violation{},
		Incomplete: []Violation{},
	}
}

// Fail records err and discards any partial analysis data.
func (r *AuditResult) Fail(err error) {
	r.Error = err.Error()
	r.Violations = []Violation{}
	r.Incomplete = []Violation{}
}

// Failed reports whether the task errored.
func (r *AuditResult) Failed() bool {
	return r.Error != ""
}

// ViolationCount returns the number of violation instances (nodes).
func (r *AuditResult) ViolationCount() int {
	return CountInstances(r.Violations)
}
