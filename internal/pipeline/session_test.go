package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/a11yaudit/internal/browser"
	"github.com/nao1215/a11yaudit/internal/model"
)

const testBaseURL = "http://localhost:8765"

// testSteps returns the default steps without a settle wait.
func testSteps(analyzer browser.Analyzer) []Step {
	return DefaultSteps(analyzer, model.DefaultStandard.Tags(), WithSettleDelay(0))
}

// TestSessionRun tests auditing a task list end to end with fakes.
func TestSessionRun(t *testing.T) {
	t.Parallel()

	pages := []model.PageRef{
		model.NewLocalPage("/"),
		model.NewLocalPage("/about/"),
		model.NewLocalPage("/broken/"),
	}

	t.Run("returns one result per task in order", func(t *testing.T) {
		t.Parallel()

		b := &fakeBrowser{navErrs: map[string]error{
			testBaseURL + "/broken/": browser.ErrNavigationTimeout,
		}}
		analyzer := &fakeAnalyzer{byTarget: map[string][]model.Violation{
			testBaseURL + "/about/": {
				{ID: "color-contrast", Impact: model.ImpactSerious, Nodes: []model.Node{{}, {}, {}}},
			},
		}}

		tasks := model.NewTasks(pages, []model.Theme{model.ThemeLight, model.ThemeDark})
		s := NewSession(b, testSteps(analyzer), WithBaseURL(testBaseURL))

		results, err := s.Run(context.Background(), tasks)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 6 {
			t.Fatalf("expected 6 results, got %d", len(results))
		}

		wantLabels := []string{
			"/ (homepage) [light]",
			"/about/ [light]",
			"/broken/ [light]",
			"/ (homepage) [dark]",
			"/about/ [dark]",
			"/broken/ [dark]",
		}
		for i, want := range wantLabels {
			if results[i].PageLabel != want {
				t.Errorf("result %d: expected label %q, got %q", i, want, results[i].PageLabel)
			}
		}

		if results[0].Failed() || results[0].ViolationCount() != 0 {
			t.Errorf("expected clean homepage, got %+v", results[0])
		}
		if results[1].ViolationCount() != 3 {
			t.Errorf("expected 3 instances on /about/, got %d", results[1].ViolationCount())
		}
		if !results[2].Failed() || !strings.Contains(results[2].Error, "navigation timeout") {
			t.Errorf("expected navigation timeout on /broken/, got %q", results[2].Error)
		}
		if len(results[2].Violations) != 0 || len(results[2].Incomplete) != 0 {
			t.Error("expected errored result to carry no findings")
		}
		if results[3].Theme != model.ThemeDark {
			t.Errorf("expected dark theme, got %s", results[3].Theme)
		}

		if len(b.pages) != 6 {
			t.Errorf("expected a fresh page per task, got %d pages", len(b.pages))
		}
		if !b.allClosed() {
			t.Error("expected every page to be closed exactly once")
		}
	})

	t.Run("page open failure is recorded per task", func(t *testing.T) {
		t.Parallel()

		b := &fakeBrowser{openErr: errors.New("target closed")}
		tasks := model.NewTasks(pages[:1], []model.Theme{model.ThemeLight})

		results, err := NewSession(b, testSteps(&fakeAnalyzer{})).Run(context.Background(), tasks)
		if err != nil {
			t.Fatalf("page open failure should not fail the run: %v", err)
		}
		if len(results) != 1 {
			t.Fatalf("expected 1 result, got %d", len(results))
		}
		if !strings.Contains(results[0].Error, "target closed") {
			t.Errorf("expected open error, got %q", results[0].Error)
		}
	})

	t.Run("remote pages navigate to absolute URL", func(t *testing.T) {
		t.Parallel()

		b := &fakeBrowser{}
		remote := []model.PageRef{model.NewRemotePage("https://example.com/docs/")}
		tasks := model.NewTasks(remote, []model.Theme{model.ThemeLight})

		results, _ := NewSession(b, testSteps(&fakeAnalyzer{}), WithBaseURL(testBaseURL)).Run(context.Background(), tasks)
		if results[0].PageLabel != "/docs/ [light]" {
			t.Errorf("unexpected label %q", results[0].PageLabel)
		}
		if got := b.pages[0].navigated[0]; got != "https://example.com/docs/" {
			t.Errorf("expected absolute navigation, got %s", got)
		}
	})

	t.Run("empty task list yields no results", func(t *testing.T) {
		t.Parallel()

		results, err := NewSession(&fakeBrowser{}, testSteps(&fakeAnalyzer{})).Run(context.Background(), nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("expected no results, got %d", len(results))
		}
	})

	t.Run("cancellation is returned with partial results", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		b := &fakeBrowser{onNavigate: cancel}
		tasks := model.NewTasks(pages, []model.Theme{model.ThemeLight})

		results, err := NewSession(b, testSteps(&fakeAnalyzer{}), WithBaseURL(testBaseURL)).Run(ctx, tasks)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if len(results) != len(tasks) {
			t.Fatalf("expected %d results, got %d", len(tasks), len(results))
		}
		if !results[len(results)-1].Failed() {
			t.Error("expected unfinished task to carry the cancellation")
		}
	})

	t.Run("writes progress lines", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		progress := NewProgress(&buf)
		progress.ok.DisableColor()
		progress.warn.DisableColor()
		progress.fail.DisableColor()

		b := &fakeBrowser{navErrs: map[string]error{
			testBaseURL + "/broken/": errors.New("boom"),
		}}
		analyzer := &fakeAnalyzer{byTarget: map[string][]model.Violation{
			testBaseURL + "/about/": {{ID: "x", Nodes: []model.Node{{}, {}}}},
		}}
		tasks := model.NewTasks(pages, []model.Theme{model.ThemeLight})

		NewSession(b, testSteps(analyzer), WithBaseURL(testBaseURL), WithProgress(progress)).
			Run(context.Background(), tasks)

		want := "[1/3] ☀️ / (homepage) - OK\n" +
			"[2/3] ☀️ /about/ - 2 violations\n" +
			"[3/3] ☀️ /broken/ - Error: boom\n"
		if buf.String() != want {
			t.Errorf("unexpected progress output:\n%s\nwant:\n%s", buf.String(), want)
		}
	})
}

// TestBatchProcessor tests ordered concurrent execution.
func TestBatchProcessor(t *testing.T) {
	t.Parallel()

	tasks := model.NewTasks([]model.PageRef{
		model.NewLocalPage("/a/"),
		model.NewLocalPage("/b/"),
		model.NewLocalPage("/c/"),
		model.NewLocalPage("/d/"),
	}, []model.Theme{model.ThemeLight})

	t.Run("restores task order under concurrency", func(t *testing.T) {
		t.Parallel()

		var inFlight, peak atomic.Int32
		run := func(_ context.Context, task model.AuditTask) *model.AuditResult {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			// Later tasks finish first.
			time.Sleep(time.Duration(task.Total-task.Index) * 5 * time.Millisecond)
			inFlight.Add(-1)
			return model.NewAuditResult(task)
		}

		results, err := NewBatchProcessor(run, WithConcurrency(2)).ProcessBatch(context.Background(), tasks, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, r := range results {
			if want := tasks[i].Label(); r.PageLabel != want {
				t.Errorf("slot %d: expected %q, got %q", i, want, r.PageLabel)
			}
		}
		if peak.Load() > 2 {
			t.Errorf("expected at most 2 concurrent tasks, got %d", peak.Load())
		}
	})

	t.Run("default concurrency is sequential", func(t *testing.T) {
		t.Parallel()

		var order []int
		run := func(_ context.Context, task model.AuditTask) *model.AuditResult {
			order = append(order, task.Index)
			return model.NewAuditResult(task)
		}

		if _, err := NewBatchProcessor(run).ProcessBatch(context.Background(), tasks, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if fmt.Sprint(order) != "[0 1 2 3]" {
			t.Errorf("expected sequential order, got %v", order)
		}
	})

	t.Run("cancelled tasks are filled with errors", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		run := func(_ context.Context, task model.AuditTask) *model.AuditResult {
			if task.Index == 1 {
				cancel()
			}
			return model.NewAuditResult(task)
		}

		results, err := NewBatchProcessor(run).ProcessBatch(ctx, tasks, nil)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if len(results) != len(tasks) {
			t.Fatalf("expected %d results, got %d", len(tasks), len(results))
		}
		if results[0].Failed() || results[1].Failed() {
			t.Error("expected finished tasks to keep their results")
		}
		if !results[3].Failed() {
			t.Error("expected unstarted task to be failed")
		}
	})

	t.Run("callback sees every task", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32
		run := func(_ context.Context, task model.AuditTask) *model.AuditResult {
			return model.NewAuditResult(task)
		}
		callback := func(model.AuditTask, *model.AuditResult) { calls.Add(1) }

		if _, err := NewBatchProcessor(run, WithConcurrency(3)).ProcessBatch(context.Background(), tasks, callback); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if calls.Load() != int32(len(tasks)) {
			t.Errorf("expected %d callbacks, got %d", len(tasks), calls.Load())
		}
	})
}

// TestProgressNil tests that a nil printer is a no-op.
func TestProgressNil(t *testing.T) {
	t.Parallel()

	var p *Progress
	task := model.AuditTask{Page: model.NewLocalPage("/"), Theme: model.ThemeLight, Total: 1}
	p.Report(task, model.NewAuditResult(task))
}
