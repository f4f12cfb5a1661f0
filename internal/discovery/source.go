package discovery

import (
	"context"
	"log/slog"

	"github.com/nao1215/a11yaudit/internal/model"
)

// Source produces the ordered page set of a run.
type Source interface {
	// Name describes the source for logs and reports.
	Name() string

	// Pages returns the filtered pages in a deterministic order.
	Pages(ctx context.Context) ([]model.PageRef, error)
}

// Resolve reads the pages of src, drops duplicates and applies limit.
// A limit of zero or less keeps every page.
func Resolve(ctx context.Context, src Source, limit int) ([]model.PageRef, error) {
	pages, err := src.Pages(ctx)
	if err != nil {
		return nil, err
	}

	pages = dedupe(pages)

	slog.Debug("resolved pages",
		"source", src.Name(),
		"count", len(pages),
		"limit", limit,
	)

	return Limit(pages, limit), nil
}

// Limit truncates pages to the first n entries. n <= 0 keeps every page.
func Limit(pages []model.PageRef, n int) []model.PageRef {
	if n <= 0 || n >= len(pages) {
		return pages
	}
	return pages[:n]
}

// dedupe removes repeated pages, keeping the first occurrence.
func dedupe(pages []model.PageRef) []model.PageRef {
	seen := make(map[model.PageRef]bool, len(pages))
	out := make([]model.PageRef, 0, len(pages))
	for _, p := range pages {
		if seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
