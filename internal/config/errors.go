package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() so callers can use
// errors.Is() while users still get a readable message. Invalid standard,
// theme and format values return the model and report package errors.
var (
	// ErrInvalidLimit is returned for a negative --limit.
	ErrInvalidLimit = errors.New("invalid limit: must be zero (no limit) or positive")

	// ErrInvalidTimeout is returned when the navigation timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSettleDelay is returned for a negative settle delay.
	ErrInvalidSettleDelay = errors.New("invalid settle delay: must be non-negative")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidPort is returned for a port outside 0-65535.
	ErrInvalidPort = errors.New("invalid port: must be between 0 and 65535")

	// ErrInvalidViewport is returned when either viewport dimension is not positive.
	ErrInvalidViewport = errors.New("invalid viewport: width and height must be positive")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrNoSiteDir is returned in local mode when the site directory is empty.
	ErrNoSiteDir = errors.New("no site directory specified: use --site-dir or --sitemap")

	// ErrInvalidSitemapURL is returned when --sitemap is not an absolute http(s) URL.
	ErrInvalidSitemapURL = errors.New("invalid sitemap URL: must be an absolute http(s) URL")

	// ErrInvalidBaseURL is returned when --base-url is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base URL: must be an absolute http(s) URL")
)
