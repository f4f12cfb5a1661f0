package config

import "time"

// Viewport is the browser window size in the config file.
type Viewport struct {
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// File represents the structure of the .a11yaudit configuration file.
// Every field is optional; zero values leave the current setting alone.
// Durations are written as Go duration strings ("30s", "250ms").
type File struct {
	SiteDir      string        `yaml:"siteDir,omitempty"`
	OutputDir    string        `yaml:"outputDir,omitempty"`
	Port         int           `yaml:"port,omitempty"`
	Limit        int           `yaml:"limit,omitempty"`
	Timeout      time.Duration `yaml:"timeout,omitempty"`
	SettleDelay  time.Duration `yaml:"settleDelay,omitempty"`
	Standard     string        `yaml:"standard,omitempty"`
	Theme        string        `yaml:"theme,omitempty"`
	Sitemap      string        `yaml:"sitemap,omitempty"`
	BaseURL      string        `yaml:"baseUrl,omitempty"`
	Format       string        `yaml:"format,omitempty"`
	Concurrency  int           `yaml:"concurrency,omitempty"`
	AxeScript    string        `yaml:"axeScript,omitempty"`
	ChromePath   string        `yaml:"chromePath,omitempty"`
	IndexName    string        `yaml:"indexName,omitempty"`
	Viewport     Viewport      `yaml:"viewport,omitempty"`
	SkipPatterns []string      `yaml:"skipPatterns,omitempty"`

	// History disables run history when explicitly false.
	History *bool `yaml:"history,omitempty"`
}

// ApplyTo copies every set field of the file onto cfg.
// Skip patterns are appended to any already configured.
func (f *File) ApplyTo(cfg *Config) {
	setString(&cfg.SiteDir, f.SiteDir)
	setString(&cfg.OutputDir, f.OutputDir)
	setString(&cfg.Standard, f.Standard)
	setString(&cfg.Theme, f.Theme)
	setString(&cfg.SitemapURL, f.Sitemap)
	setString(&cfg.BaseURL, f.BaseURL)
	setString(&cfg.Format, f.Format)
	setString(&cfg.AxeScript, f.AxeScript)
	setString(&cfg.ChromePath, f.ChromePath)
	setString(&cfg.IndexName, f.IndexName)

	setInt(&cfg.Port, f.Port)
	setInt(&cfg.Limit, f.Limit)
	setInt(&cfg.Concurrency, f.Concurrency)
	setInt(&cfg.ViewportWidth, f.Viewport.Width)
	setInt(&cfg.ViewportHeight, f.Viewport.Height)

	if f.Timeout != 0 {
		cfg.Timeout = f.Timeout
	}
	if f.SettleDelay != 0 {
		cfg.SettleDelay = f.SettleDelay
	}
	if f.History != nil {
		cfg.SaveHistory = *f.History
	}

	cfg.SkipPatterns = append(cfg.SkipPatterns, f.SkipPatterns...)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}
