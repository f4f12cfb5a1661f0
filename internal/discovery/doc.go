// Package discovery resolves the set of pages a run audits.
//
// # Sources
//
// Pages come from exactly one Source:
//
//   - LocalSource walks a built site directory and registers every
//     directory that contains an index document.
//   - SitemapSource fetches a sitemap and reads its <loc> entries.
//
// Design decision: Both sources implement the same interface and return
// the same PageRef shape, so the rest of the run never branches on where
// pages came from. The command selects the source once from configuration.
//
// # Filtering
//
// Every candidate path goes through a SkipFilter that drops non-document
// resources (xml, json, txt), error pages and component-library previews.
// Rejected candidates are dropped silently.
//
// # Usage
//
//	src := discovery.NewLocalSource("_site")
//	pages, err := discovery.Resolve(ctx, src, 10)
//
// The package does not follow links. It only reads a pre-declared
// manifest (the sitemap) or a directory listing.
package discovery
