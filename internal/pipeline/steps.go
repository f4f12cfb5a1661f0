package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nao1215/a11yaudit/internal/browser"
)

// DefaultSettleDelay is how long ThemeStep waits after the theme changes.
const DefaultSettleDelay = 100 * time.Millisecond

// errNoPage is returned when a step runs without an open tab.
var errNoPage = errors.New("no page open for task")

// NavigateStep loads the task's target address.
type NavigateStep struct{}

// NewNavigateStep creates a navigation step.
func NewNavigateStep() *NavigateStep {
	return &NavigateStep{}
}

// Name returns the step name.
func (s *NavigateStep) Name() string {
	return "navigate"
}

// Do navigates the page and waits for the network to settle.
func (s *NavigateStep) Do(ctx context.Context, state *TaskState) error {
	if state.Page == nil {
		return errNoPage
	}
	return state.Page.Navigate(ctx, state.Target)
}

// ThemeStep applies the task's theme to the loaded document.
//
// Design decision: The settle delay only runs when the class list actually
// changed. A freshly loaded light page needs no repaint wait, which keeps
// light-only runs as fast as a plain navigation.
type ThemeStep struct {
	// settle is how long to wait for CSS transitions after a change.
	settle time.Duration

	// sleep waits for d or until ctx is done. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	// logger for structured logging.
	logger *slog.Logger
}

// ThemeStepOption configures a ThemeStep.
type ThemeStepOption func(*ThemeStep)

// WithSettleDelay sets the repaint wait. Zero disables it.
func WithSettleDelay(d time.Duration) ThemeStepOption {
	return func(s *ThemeStep) {
		if d >= 0 {
			s.settle = d
		}
	}
}

// WithThemeLogger sets a custom logger for the theme step.
func WithThemeLogger(logger *slog.Logger) ThemeStepOption {
	return func(s *ThemeStep) {
		s.logger = logger
	}
}

// NewThemeStep creates a theme step.
func NewThemeStep(opts ...ThemeStepOption) *ThemeStep {
	s := &ThemeStep{
		settle: DefaultSettleDelay,
		sleep:  sleepContext,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ThemeStep) Name() string {
	return "theme"
}

// Do toggles dark mode and waits for the repaint when it changed.
func (s *ThemeStep) Do(ctx context.Context, state *TaskState) error {
	if state.Page == nil {
		return errNoPage
	}

	changed, err := state.Page.SetDarkMode(ctx, state.Task.Theme.Dark())
	if err != nil {
		return err
	}
	if !changed || s.settle == 0 {
		return nil
	}

	s.logger.Debug("waiting for theme to settle",
		"theme", state.Task.Theme,
		"delay", s.settle,
	)
	return s.sleep(ctx, s.settle)
}

// AnalyzeStep runs the rule engine and stores its findings.
type AnalyzeStep struct {
	// analyzer runs the rules.
	analyzer browser.Analyzer

	// tags selects the rules of the chosen standard.
	tags []string
}

// NewAnalyzeStep creates an analysis step for the given rule tags.
func NewAnalyzeStep(analyzer browser.Analyzer, tags []string) *AnalyzeStep {
	return &AnalyzeStep{
		analyzer: analyzer,
		tags:     tags,
	}
}

// Name returns the step name.
func (s *AnalyzeStep) Name() string {
	return "analyze"
}

// Do runs the analyzer and records violations and incomplete findings.
func (s *AnalyzeStep) Do(ctx context.Context, state *TaskState) error {
	if state.Page == nil {
		return errNoPage
	}

	analysis, err := s.analyzer.Analyze(ctx, state.Page, s.tags)
	if err != nil {
		return err
	}

	if analysis.Violations != nil {
		state.Result.Violations = analysis.Violations
	}
	if analysis.Incomplete != nil {
		state.Result.Incomplete = analysis.Incomplete
	}
	return nil
}

// sleepContext waits for d, returning early with ctx's error.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
