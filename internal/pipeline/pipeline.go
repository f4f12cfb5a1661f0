package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/a11yaudit/internal/browser"
	"github.com/nao1215/a11yaudit/internal/model"
)

// TaskState carries one audit task through the pipeline.
type TaskState struct {
	// Task is the page and theme being audited.
	Task model.AuditTask

	// Target is the address the page is loaded from.
	Target string

	// Page is the browser tab dedicated to this task.
	Page browser.Page

	// Result collects the outcome. Steps write analysis data into it.
	Result *model.AuditResult
}

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence over the same TaskState.
//
// Design decision: We use an interface rather than function types because
// steps carry configuration (settle delay, rule tags) and a Name() for
// logging.
type Step interface {
	// Do executes the pipeline step.
	// A returned error stops the pipeline and fails the task.
	Do(ctx context.Context, state *TaskState) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline orchestrates the execution of multiple steps.
// It maintains a list of steps and executes them in order.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps in order over state.
//
// The first failing step stops execution. Its error is recorded in
// state.Result, which drops any partial analysis, and is also returned.
// Cancellation is checked before each step; steps enforce their own
// timeouts.
func (p *Pipeline) Execute(ctx context.Context, state *TaskState) error {
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			p.logger.Warn("pipeline cancelled",
				"step", step.Name(),
				"page", state.Result.PageLabel,
				"reason", err,
			)
			state.Result.Fail(err)
			return err
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"page", state.Result.PageLabel,
		)

		if err := step.Do(ctx, state); err != nil {
			p.logger.Debug("step failed",
				"step", step.Name(),
				"page", state.Result.PageLabel,
				"error", err,
			)
			state.Result.Fail(err)
			return err
		}
	}

	return nil
}
