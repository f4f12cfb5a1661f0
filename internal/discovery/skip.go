package discovery

import (
	"fmt"
	"regexp"
)

// defaultSkipPatterns exclude non-document resources and error pages.
var defaultSkipPatterns = []string{
	`\.xml$`,
	`\.json$`,
	`\.txt$`,
	`/404/`,
	`/500/`,
}

// defaultLocalSkipPatterns exclude paths that only exist in a local build.
var defaultLocalSkipPatterns = []string{
	`/_component-library/`,
}

// SkipFilter decides whether a candidate path is excluded from auditing.
// The zero value skips nothing.
type SkipFilter struct {
	// patterns apply to every candidate.
	patterns []*regexp.Regexp

	// localPatterns apply to candidates from a local build only.
	localPatterns []*regexp.Regexp
}

// DefaultSkipFilter returns the filter with the built-in patterns.
func DefaultSkipFilter() *SkipFilter {
	f := &SkipFilter{}
	for _, p := range defaultSkipPatterns {
		f.patterns = append(f.patterns, regexp.MustCompile(p))
	}
	for _, p := range defaultLocalSkipPatterns {
		f.localPatterns = append(f.localPatterns, regexp.MustCompile(p))
	}
	return f
}

// NewSkipFilter returns the default filter extended with extra patterns.
// Extra patterns apply to both local and remote candidates.
func NewSkipFilter(extra ...string) (*SkipFilter, error) {
	f := DefaultSkipFilter()
	for _, p := range extra {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid skip pattern %q: %w", p, err)
		}
		f.patterns = append(f.patterns, re)
	}
	return f, nil
}

// Skip reports whether path must be excluded.
// local selects whether local-only patterns apply as well.
func (f *SkipFilter) Skip(path string, local bool) bool {
	if f == nil {
		return false
	}
	for _, re := range f.patterns {
		if re.MatchString(path) {
			return true
		}
	}
	if !local {
		return false
	}
	for _, re := range f.localPatterns {
		if re.MatchString(path) {
			return true
		}
	}
	return false
}
