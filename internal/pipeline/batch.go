package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/nao1215/a11yaudit/internal/model"
	"golang.org/x/sync/errgroup"
)

// TaskFunc audits one task and always returns a result.
// Failures are recorded in the result rather than returned.
type TaskFunc func(ctx context.Context, task model.AuditTask) *model.AuditResult

// BatchProcessor runs audit tasks with bounded concurrency.
// It uses errgroup to manage goroutines and respect concurrency limits.
//
// Design decision: Results are written into a pre-allocated slot per task
// rather than appended on completion. Whatever the completion order, the
// returned slice matches task order, which the report relies on for
// presentation.
type BatchProcessor struct {
	// run audits a single task.
	run TaskFunc

	// concurrency is the maximum number of tasks in flight.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent tasks.
// Default is 1, which audits strictly one page at a time.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(run TaskFunc, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		run:         run,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ProcessBatch audits tasks and returns one result per task in task order.
// callback, when non-nil, is invoked as each task finishes; with
// concurrency above one it may be called from several goroutines.
//
// Tasks that never started because ctx was cancelled are returned as
// failed results carrying the cancellation error, along with that error.
func (bp *BatchProcessor) ProcessBatch(
	ctx context.Context,
	tasks []model.AuditTask,
	callback func(task model.AuditTask, result *model.AuditResult),
) ([]model.AuditResult, error) {
	bp.logger.Debug("starting batch processing",
		"total_tasks", len(tasks),
		"concurrency", bp.concurrency,
	)

	startTime := time.Now()
	slots := make([]*model.AuditResult, len(tasks))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, task := range tasks {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := bp.run(gctx, task)
			slots[i] = result

			if callback != nil {
				callback(task, result)
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	cause := err
	if cause == nil {
		cause = context.Canceled
	}

	results := make([]model.AuditResult, len(tasks))
	for i, task := range tasks {
		if slots[i] == nil {
			skipped := model.NewAuditResult(task)
			skipped.Fail(cause)
			slots[i] = skipped
		}
		results[i] = *slots[i]
	}

	bp.logger.Debug("batch processing complete",
		"total_tasks", len(tasks),
		"elapsed", time.Since(startTime),
	)

	return results, err
}
