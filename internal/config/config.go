package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/a11yaudit/internal/discovery"
	"github.com/nao1215/a11yaudit/internal/model"
	"github.com/nao1215/a11yaudit/internal/report"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "a11yaudit"

	// DefaultSiteDir is where static site generators commonly write the build.
	DefaultSiteDir = "_site"

	// DefaultOutputDir receives a11y-report.*.
	DefaultOutputDir = "_reports"

	// DefaultPort serves the local build. It is fixed rather than random so
	// URLs in verbose logs are stable between runs.
	DefaultPort = 8765

	// DefaultTimeout bounds each page navigation.
	DefaultTimeout = 30 * time.Second

	// DefaultSettleDelay lets styles re-render after a theme switch.
	DefaultSettleDelay = 100 * time.Millisecond

	// DefaultConcurrency audits one page at a time, like a human tester would.
	DefaultConcurrency = 1

	// DefaultViewportWidth and DefaultViewportHeight size every page.
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 800

	// DefaultAxeScript is where npm installs the axe-core bundle.
	DefaultAxeScript = "node_modules/axe-core/axe.min.js"

	// DefaultIndexName is the file that marks a directory as a page.
	DefaultIndexName = "index.html"
)

// Config holds all options of an audit run.
// It is populated from defaults, then the config file, then CLI flags,
// and passed down explicitly.
//
// Design decision: We keep a single flat struct like the CLI flags it
// mirrors. Enumerated options (standard, theme, format) stay strings here
// and are parsed once by Validate, so the config file and flags share one
// error path.
type Config struct {
	// SiteDir is the built site root for local mode.
	SiteDir string

	// OutputDir is where the report file is written.
	OutputDir string

	// Port is the loopback port the local build is served on.
	// Zero picks a free port.
	Port int

	// Limit caps the number of resolved pages. Zero means no limit.
	Limit int

	// Standard is the WCAG level name (e.g. "wcag21aa").
	Standard string

	// Theme is the theme selection: light, dark or both.
	Theme string

	// SitemapURL switches to remote mode when set.
	SitemapURL string

	// BaseURL replaces the origin of every sitemap entry when set.
	BaseURL string

	// Timeout is the per-page navigation timeout.
	Timeout time.Duration

	// SettleDelay is the pause after a theme switch.
	SettleDelay time.Duration

	// Format is the report format: markdown, json or text.
	Format string

	// Concurrency is the number of pages audited at once.
	Concurrency int

	// AxeScript is the path or URL of the axe-core bundle.
	AxeScript string

	// ChromePath overrides the Chrome executable lookup.
	ChromePath string

	// IndexName is the file that marks a directory as a page.
	IndexName string

	// ViewportWidth and ViewportHeight size the browser window.
	ViewportWidth  int
	ViewportHeight int

	// SkipPatterns are extra regular expressions for the skip filter.
	SkipPatterns []string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit config file location.
	ConfigFilePath string

	// DBDir is the run history directory.
	DBDir string

	// SaveHistory records the run in the history database.
	SaveHistory bool
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		SiteDir:        DefaultSiteDir,
		OutputDir:      DefaultOutputDir,
		Port:           DefaultPort,
		Standard:       string(model.DefaultStandard),
		Theme:          model.DefaultThemeSelection,
		Timeout:        DefaultTimeout,
		SettleDelay:    DefaultSettleDelay,
		Format:         string(report.FormatMarkdown),
		Concurrency:    DefaultConcurrency,
		AxeScript:      DefaultAxeScript,
		IndexName:      DefaultIndexName,
		ViewportWidth:  DefaultViewportWidth,
		ViewportHeight: DefaultViewportHeight,
		DBDir:          XDGDataDir(),
		SaveHistory:    true,
	}
}

// XDGDataDir returns the XDG data directory for a11yaudit.
// On Linux: ~/.local/share/a11yaudit
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for a11yaudit.
// On Linux: ~/.config/a11yaudit
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Remote reports whether pages come from a sitemap.
func (c *Config) Remote() bool {
	return c.SitemapURL != ""
}

// ParsedStandard returns the validated standard.
func (c *Config) ParsedStandard() (model.Standard, error) {
	return model.ParseStandard(c.Standard)
}

// Themes returns the validated theme list.
func (c *Config) Themes() ([]model.Theme, error) {
	return model.ParseThemeSet(c.Theme)
}

// ReportFormat returns the validated report format.
func (c *Config) ReportFormat() (report.Format, error) {
	return report.ParseFormat(c.Format)
}

// SkipFilter compiles the built-in and extra skip patterns.
func (c *Config) SkipFilter() (*discovery.SkipFilter, error) {
	return discovery.NewSkipFilter(c.SkipPatterns...)
}

// Validate checks the configuration and returns the first problem found.
//
// Design decision: We validate once after flags and the config file are
// merged, before the axe bundle is loaded or a browser is launched, so a
// typo in a flag never costs a browser start.
func (c *Config) Validate() error {
	if _, err := c.ParsedStandard(); err != nil {
		return err
	}
	if _, err := c.Themes(); err != nil {
		return err
	}
	if _, err := c.ReportFormat(); err != nil {
		return err
	}

	if c.Limit < 0 {
		return ErrInvalidLimit
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.SettleDelay < 0 {
		return ErrInvalidSettleDelay
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Port < 0 || c.Port > 65535 {
		return ErrInvalidPort
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return ErrInvalidViewport
	}
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.Remote() {
		if !isHTTPURL(c.SitemapURL) {
			return fmt.Errorf("%w: %s", ErrInvalidSitemapURL, c.SitemapURL)
		}
	} else if c.SiteDir == "" {
		return ErrNoSiteDir
	}

	if c.BaseURL != "" && !isHTTPURL(c.BaseURL) {
		return fmt.Errorf("%w: %s", ErrInvalidBaseURL, c.BaseURL)
	}

	if _, err := c.SkipFilter(); err != nil {
		return err
	}

	return nil
}

// isHTTPURL reports whether s is an absolute http(s) URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
