package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nao1215/a11yaudit/internal/model"
)

// DefaultIndexName is the document that marks a directory as a page.
const DefaultIndexName = "index.html"

// LocalSource discovers pages in a built site directory.
type LocalSource struct {
	// root is the site output directory.
	root string

	// indexName is the file that registers its directory as a page.
	indexName string

	// filter drops excluded paths.
	filter *SkipFilter

	// logger for structured logging.
	logger *slog.Logger
}

// LocalSourceOption configures a LocalSource.
type LocalSourceOption func(*LocalSource)

// WithIndexName overrides the index document name.
func WithIndexName(name string) LocalSourceOption {
	return func(s *LocalSource) {
		if name != "" {
			s.indexName = name
		}
	}
}

// WithLocalFilter sets the skip filter.
func WithLocalFilter(f *SkipFilter) LocalSourceOption {
	return func(s *LocalSource) {
		s.filter = f
	}
}

// WithLocalLogger sets a custom logger.
func WithLocalLogger(logger *slog.Logger) LocalSourceOption {
	return func(s *LocalSource) {
		s.logger = logger
	}
}

// NewLocalSource creates a source that walks root.
func NewLocalSource(root string, opts ...LocalSourceOption) *LocalSource {
	s := &LocalSource{
		root:      root,
		indexName: DefaultIndexName,
		filter:    DefaultSkipFilter(),
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the site directory.
func (s *LocalSource) Name() string {
	return s.root
}

// Pages walks the site directory depth first in lexical order.
// A directory containing the index document contributes "/rel/",
// the root directory contributes "/".
func (s *LocalSource) Pages(ctx context.Context) ([]model.PageRef, error) {
	info, err := os.Stat(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotBuilt, s.root)
		}
		return nil, fmt.Errorf("failed to stat site directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrNotBuilt, s.root)
	}

	pages := make([]model.PageRef, 0)
	err = filepath.WalkDir(s.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || d.Name() != s.indexName {
			return nil
		}
		if !isIndexFile(path, d) {
			s.logger.Debug("ignoring index entry that is not a file", "path", path)
			return nil
		}

		sitePath, err := s.sitePath(filepath.Dir(path))
		if err != nil {
			return err
		}
		if s.filter.Skip(sitePath, true) {
			s.logger.Debug("skipping page", "path", sitePath)
			return nil
		}

		pages = append(pages, model.NewLocalPage(sitePath))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk site directory: %w", err)
	}

	return pages, nil
}

// sitePath converts a directory under root into an absolute site path.
func (s *LocalSource) sitePath(dir string) (string, error) {
	rel, err := filepath.Rel(s.root, dir)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return "/", nil
	}
	return "/" + rel + "/", nil
}

// isIndexFile reports whether the index entry is a regular file, following
// a symlink to its target.
func isIndexFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
