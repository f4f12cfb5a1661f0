package pipeline

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/nao1215/a11yaudit/internal/model"
)

// Progress prints one line per finished task, e.g.
//
//	[3/12] 🌙 /about/ - 4 violations
//
// It is safe for concurrent use.
type Progress struct {
	w  io.Writer
	mu sync.Mutex

	ok   *color.Color
	warn *color.Color
	fail *color.Color
}

// NewProgress creates a progress printer writing to w.
// Color output follows fatih/color's terminal detection.
func NewProgress(w io.Writer) *Progress {
	return &Progress{
		w:    w,
		ok:   color.New(color.FgGreen),
		warn: color.New(color.FgYellow),
		fail: color.New(color.FgRed),
	}
}

// Report writes the progress line for a finished task.
func (p *Progress) Report(task model.AuditTask, result *model.AuditResult) {
	if p == nil || p.w == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	_, _ = fmt.Fprintf(p.w, "[%d/%d] %s %s ", task.Index+1, task.Total, task.Theme.Icon(), task.Page.DisplayPath())

	switch {
	case result.Failed():
		_, _ = p.fail.Fprintf(p.w, "- Error: %s\n", result.Error)
	case result.ViolationCount() > 0:
		_, _ = p.warn.Fprintf(p.w, "- %d violations\n", result.ViolationCount())
	default:
		_, _ = p.ok.Fprintln(p.w, "- OK")
	}
}
