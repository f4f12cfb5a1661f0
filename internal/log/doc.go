// Package log provides slog loggers that mask secrets before they are
// written.
//
// The SecureHandler wraps any slog.Handler and masks:
//   - values under credential-like keys (password, token, cookie, ...)
//   - values that look like tokens (JWTs, Authorization header values,
//     GitHub and GitLab access tokens)
//   - userinfo and credential query parameters inside http(s) URLs
//
// Sitemap URLs for protected preview deployments often embed basic-auth
// credentials or signed query strings, and verbose logs end up in CI
// output, so masking applies at every level.
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, verbose)
//	slog.SetDefault(logger)
//
//	logger.Debug("fetching sitemap", "url", "https://ci:pw@preview.example.com/sitemap.xml")
//	// url=https://***REDACTED***@preview.example.com/sitemap.xml
package log
