package discovery

import (
	"errors"
	"fmt"
)

// ErrNotBuilt is returned by LocalSource when the site directory does not
// exist. It is distinct from finding zero pages, which is not an error.
var ErrNotBuilt = errors.New("site directory not found: build the site first")

// FetchError is returned when a sitemap cannot be fetched or parsed.
// StatusCode is zero when the request never got a response.
type FetchError struct {
	// URL is the sitemap location.
	URL string

	// StatusCode is the HTTP status, if a response was received.
	StatusCode int

	// Err is the underlying transport or parse error, if any.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("failed to fetch sitemap %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("failed to fetch sitemap %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}
