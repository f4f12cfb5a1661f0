package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nao1215/a11yaudit/internal/browser"
	"github.com/nao1215/a11yaudit/internal/model"
)

// Session audits a list of tasks against one browser.
//
// Every task gets a fresh tab that is closed when the task ends, whatever
// the outcome. Errors are contained per task: a navigation timeout or a
// crashed engine produces a failed result and the run continues.
type Session struct {
	// browser opens the tabs.
	browser browser.Browser

	// steps are run in order for every task.
	steps []Step

	// baseURL is the origin local pages are served from.
	baseURL string

	// concurrency bounds the number of open tabs.
	concurrency int

	// progress prints a line per finished task. Nil disables it.
	progress *Progress

	// logger for structured logging.
	logger *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithBaseURL sets the origin local pages are resolved against.
func WithBaseURL(baseURL string) SessionOption {
	return func(s *Session) {
		s.baseURL = baseURL
	}
}

// WithSessionConcurrency sets how many tasks may run at once.
func WithSessionConcurrency(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithProgress sets the progress printer.
func WithProgress(p *Progress) SessionOption {
	return func(s *Session) {
		s.progress = p
	}
}

// WithSessionLogger sets a custom logger.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session that runs steps for each task.
func NewSession(b browser.Browser, steps []Step, opts ...SessionOption) *Session {
	s := &Session{
		browser:     b,
		steps:       steps,
		concurrency: 1,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DefaultSteps returns the navigate, theme and analyze steps.
func DefaultSteps(analyzer browser.Analyzer, tags []string, themeOpts ...ThemeStepOption) []Step {
	return []Step{
		NewNavigateStep(),
		NewThemeStep(themeOpts...),
		NewAnalyzeStep(analyzer, tags),
	}
}

// Run audits tasks and returns one result per task in task order.
// Per-task problems are recorded in results. The returned error is
// non-nil only when ctx was cancelled before every task completed; the
// unfinished tasks then carry the cancellation error.
func (s *Session) Run(ctx context.Context, tasks []model.AuditTask) ([]model.AuditResult, error) {
	bp := NewBatchProcessor(s.RunTask,
		WithConcurrency(s.concurrency),
		WithBatchLogger(s.logger),
	)

	results, err := bp.ProcessBatch(ctx, tasks, s.progress.Report)
	if err != nil {
		s.logger.Warn("audit interrupted", "error", err)
		return results, err
	}
	return results, nil
}

// RunTask audits a single task in its own tab.
func (s *Session) RunTask(ctx context.Context, task model.AuditTask) *model.AuditResult {
	result := model.NewAuditResult(task)

	page, err := s.browser.NewPage(ctx)
	if err != nil {
		result.Fail(fmt.Errorf("failed to open page: %w", err))
		return result
	}
	defer func() {
		if cerr := page.Close(); cerr != nil {
			s.logger.Debug("failed to close page", "page", result.PageLabel, "error", cerr)
		}
	}()

	p := New(WithLogger(s.logger))
	p.AddSteps(s.steps...)

	state := &TaskState{
		Task:   task,
		Target: task.Page.Target(s.baseURL),
		Page:   page,
		Result: result,
	}

	if err := p.Execute(ctx, state); err != nil {
		s.logger.Debug("task failed", "page", result.PageLabel, "error", err)
	}
	return result
}
