package discovery

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nao1215/a11yaudit/internal/model"
)

// DefaultSitemapTimeout bounds the sitemap request.
const DefaultSitemapTimeout = 30 * time.Second

// DefaultMaxSitemapSize limits how much of a sitemap is read.
// The sitemap protocol caps files at 50MB uncompressed.
const DefaultMaxSitemapSize = 50 * 1024 * 1024

// locElement is the sitemap element that carries a page location.
const locElement = "loc"

// sitemapNamespace is the sitemaps.org protocol namespace.
const sitemapNamespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

// isLoc reports whether name is a sitemap <loc>. Extension elements such
// as <image:loc> and <video:loc> live in other namespaces and are not pages.
func isLoc(name xml.Name) bool {
	return name.Local == locElement && (name.Space == "" || name.Space == sitemapNamespace)
}

// SitemapSource discovers pages from a remote sitemap.
type SitemapSource struct {
	// sitemapURL is the sitemap location.
	sitemapURL string

	// baseURL replaces the origin of every entry when set.
	baseURL string

	// client performs the request.
	client *http.Client

	// maxBodySize limits the sitemap size.
	maxBodySize int64

	// filter drops excluded paths.
	filter *SkipFilter

	// logger for structured logging.
	logger *slog.Logger
}

// SitemapSourceOption configures a SitemapSource.
type SitemapSourceOption func(*SitemapSource)

// WithBaseURL replaces each entry's origin with base, keeping the path.
// A trailing slash on base is ignored.
func WithBaseURL(base string) SitemapSourceOption {
	return func(s *SitemapSource) {
		s.baseURL = strings.TrimSuffix(base, "/")
	}
}

// WithHTTPClient sets the HTTP client used to fetch the sitemap.
func WithHTTPClient(client *http.Client) SitemapSourceOption {
	return func(s *SitemapSource) {
		s.client = client
	}
}

// WithSitemapFilter sets the skip filter.
func WithSitemapFilter(f *SkipFilter) SitemapSourceOption {
	return func(s *SitemapSource) {
		s.filter = f
	}
}

// WithSitemapLogger sets a custom logger.
func WithSitemapLogger(logger *slog.Logger) SitemapSourceOption {
	return func(s *SitemapSource) {
		s.logger = logger
	}
}

// NewSitemapSource creates a source reading sitemapURL.
func NewSitemapSource(sitemapURL string, opts ...SitemapSourceOption) *SitemapSource {
	s := &SitemapSource{
		sitemapURL:  sitemapURL,
		client:      &http.Client{Timeout: DefaultSitemapTimeout},
		maxBodySize: DefaultMaxSitemapSize,
		filter:      DefaultSkipFilter(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the sitemap URL.
func (s *SitemapSource) Name() string {
	return s.sitemapURL
}

// Pages fetches the sitemap and returns its entries in document order.
func (s *SitemapSource) Pages(ctx context.Context) ([]model.PageRef, error) {
	s.logger.Info("fetching sitemap", "url", s.sitemapURL)

	locs, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	pages := make([]model.PageRef, 0, len(locs))
	for _, loc := range locs {
		u, err := url.Parse(loc)
		if err != nil || !u.IsAbs() {
			s.logger.Warn("skipping invalid sitemap entry", "loc", loc)
			continue
		}

		// A bare origin is the site root.
		path, escaped := u.Path, u.EscapedPath()
		if path == "" {
			path, escaped = "/", "/"
		}

		target := loc
		if s.baseURL != "" {
			target = s.baseURL + escaped
		}

		if s.filter.Skip(path, false) {
			s.logger.Debug("skipping page", "path", path)
			continue
		}

		pages = append(pages, model.NewRemotePage(target))
	}

	return pages, nil
}

// fetch downloads the sitemap and extracts its locations.
func (s *SitemapSource) fetch(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sitemapURL, nil)
	if err != nil {
		return nil, &FetchError{URL: s.sitemapURL, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &FetchError{URL: s.sitemapURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URL: s.sitemapURL, StatusCode: resp.StatusCode}
	}

	locs, err := ParseLocations(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, &FetchError{URL: s.sitemapURL, Err: err}
	}

	return locs, nil
}

// ParseLocations returns the text of every <loc> element in r, in
// document order and regardless of nesting. Both <urlset> sitemaps and
// <sitemapindex> files are accepted. Namespaced extension locations
// (image, video) are ignored.
func ParseLocations(r io.Reader) ([]string, error) {
	decoder := xml.NewDecoder(r)
	decoder.Strict = false

	locs := make([]string, 0)
	var (
		inLoc bool
		text  strings.Builder
	)

	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse sitemap: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if isLoc(t.Name) {
				inLoc = true
				text.Reset()
			}
		case xml.CharData:
			if inLoc {
				text.Write(t)
			}
		case xml.EndElement:
			if isLoc(t.Name) && inLoc {
				inLoc = false
				if loc := strings.TrimSpace(text.String()); loc != "" {
					locs = append(locs, loc)
				}
			}
		}
	}

	return locs, nil
}
