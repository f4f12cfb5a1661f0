package model

import (
	"net/url"
	"strings"
)

// homepageSuffix is appended to the root path in labels.
const homepageSuffix = " (homepage)"

// PageRef identifies one document to audit.
// Local pages carry a site-relative path ("/about/"); remote pages carry
// an absolute URL taken from a sitemap.
//
// PageRef values are created by the resolver and never mutated afterwards.
type PageRef struct {
	// URL is the site-relative path (local) or absolute URL (remote).
	URL string `json:"url"`

	// Remote is true when URL is absolute and must be visited as-is.
	Remote bool `json:"remote,omitempty"`
}

// NewLocalPage creates a PageRef for a site-relative path.
func NewLocalPage(path string) PageRef {
	return PageRef{URL: path}
}

// NewRemotePage creates a PageRef for an absolute URL.
func NewRemotePage(absoluteURL string) PageRef {
	return PageRef{URL: absoluteURL, Remote: true}
}

// Path returns the path component of the page.
// For remote pages this is the URL path; if the URL cannot be parsed
// the raw value is returned.
func (p PageRef) Path() string {
	if !p.Remote {
		return p.URL
	}
	u, err := url.Parse(p.URL)
	if err != nil {
		return p.URL
	}
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

// Target returns the address the browser navigates to.
// Local pages are resolved against baseURL (the served site root).
func (p PageRef) Target(baseURL string) string {
	if p.Remote {
		return p.URL
	}
	return strings.TrimSuffix(baseURL, "/") + p.URL
}

// DisplayPath returns the path shown to users; the root is
// annotated as the homepage.
func (p PageRef) DisplayPath() string {
	path := p.Path()
	if path == "/" {
		return path + homepageSuffix
	}
	return path
}

// Label returns the page label annotated with the theme,
// e.g. "/about/ [dark]".
func (p PageRef) Label(theme Theme) string {
	return p.DisplayPath() + " [" + theme.String() + "]"
}
