package browser

import (
	"context"

	"github.com/nao1215/a11yaudit/internal/model"
)

// Browser is a running browser process.
type Browser interface {
	// NewPage opens a fresh tab.
	NewPage(ctx context.Context) (Page, error)

	// Close terminates the browser. It is safe to call more than once.
	Close() error
}

// Page is a single browser tab.
type Page interface {
	// Navigate loads url and waits until the network is nearly idle.
	Navigate(ctx context.Context, url string) error

	// SetDarkMode adds or removes the "dark" class on the root element.
	// changed reports whether the class list was modified.
	SetDarkMode(ctx context.Context, dark bool) (changed bool, err error)

	// Evaluate runs a JavaScript expression, awaiting a returned promise.
	// When out is non-nil the result is decoded into it.
	Evaluate(ctx context.Context, expression string, out any) error

	// Close closes the tab.
	Close() error
}

// Analyzer runs accessibility rules against a loaded page.
type Analyzer interface {
	// Analyze returns the violations and incomplete findings for the
	// rules matching tags.
	Analyze(ctx context.Context, page Page, tags []string) (*model.Analysis, error)
}
