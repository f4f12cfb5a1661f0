package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/a11yaudit/internal/browser"
	"github.com/nao1215/a11yaudit/internal/config"
	"github.com/nao1215/a11yaudit/internal/database"
	"github.com/nao1215/a11yaudit/internal/discovery"
	"github.com/nao1215/a11yaudit/internal/model"
)

// fakePage records the last URL it navigated to.
type fakePage struct {
	browser *fakeBrowser
	url     string
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	p.url = url
	p.browser.record(url)
	if p.browser.onNavigate != nil {
		p.browser.onNavigate()
		return ctx.Err()
	}
	for suffix, err := range p.browser.navErrs {
		if strings.HasSuffix(url, suffix) {
			return err
		}
	}
	return nil
}

func (p *fakePage) SetDarkMode(_ context.Context, dark bool) (bool, error) {
	return dark, nil
}

func (p *fakePage) Evaluate(context.Context, string, any) error { return nil }

func (p *fakePage) Close() error { return nil }

// fakeBrowser hands out fakePages and remembers every navigation.
type fakeBrowser struct {
	navErrs map[string]error

	// onNavigate, when set, runs on every navigation.
	onNavigate func()

	mu      sync.Mutex
	visited []string
	closed  bool
}

func (b *fakeBrowser) NewPage(context.Context) (browser.Page, error) {
	return &fakePage{browser: b}, nil
}

func (b *fakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *fakeBrowser) record(url string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visited = append(b.visited, url)
}

// fakeAnalyzer returns violations keyed by URL suffix.
type fakeAnalyzer struct {
	bySuffix map[string][]model.Violation
}

func (a *fakeAnalyzer) Analyze(_ context.Context, page browser.Page, _ []string) (*model.Analysis, error) {
	url := page.(*fakePage).url
	for suffix, v := range a.bySuffix {
		if strings.HasSuffix(url, suffix) {
			return &model.Analysis{Violations: v, Incomplete: []model.Violation{}}, nil
		}
	}
	return &model.Analysis{Violations: []model.Violation{}, Incomplete: []model.Violation{}}, nil
}

// testHarness bundles a config, a fake browser and captured output.
type testHarness struct {
	cfg      *config.Config
	browser  *fakeBrowser
	analyzer *fakeAnalyzer
	launched bool
	out      bytes.Buffer
}

// newHarness creates a harness whose config points at temp directories
// and a valid axe bundle.
func newHarness(t *testing.T) *testHarness {
	t.Helper()

	tmp := t.TempDir()
	axe := filepath.Join(tmp, "axe.min.js")
	if err := os.WriteFile(axe, []byte("window.axe = {};"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := config.NewConfig()
	cfg.SiteDir = filepath.Join(tmp, "_site")
	cfg.OutputDir = filepath.Join(tmp, "_reports")
	cfg.DBDir = filepath.Join(tmp, "history")
	cfg.AxeScript = axe
	cfg.Port = 0
	cfg.SettleDelay = 0
	cfg.SaveHistory = false

	return &testHarness{
		cfg:      cfg,
		browser:  &fakeBrowser{navErrs: map[string]error{}},
		analyzer: &fakeAnalyzer{bySuffix: map[string][]model.Violation{}},
	}
}

// env returns an auditEnv wired to the fakes.
func (h *testHarness) env() *auditEnv {
	return &auditEnv{
		out:    &h.out,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		launch: func(context.Context, *config.Config, *slog.Logger) (browser.Browser, error) {
			h.launched = true
			return h.browser, nil
		},
		analyzer: func(string) browser.Analyzer { return h.analyzer },
		now: func() time.Time {
			return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		},
	}
}

// buildSite writes index.html into each directory under the site root.
func (h *testHarness) buildSite(t *testing.T, dirs ...string) {
	t.Helper()

	for _, dir := range dirs {
		path := filepath.Join(h.cfg.SiteDir, filepath.FromSlash(dir), "index.html")
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("<html></html>"), 0o600); err != nil {
			t.Fatal(err)
		}
	}
}

// imageAlt returns a critical violation with n nodes.
func imageAlt(n int) []model.Violation {
	nodes := make([]model.Node, n)
	for i := range nodes {
		nodes[i] = model.Node{HTML: "<img>"}
	}
	return []model.Violation{{
		ID:     "image-alt",
		Impact: model.ImpactCritical,
		Help:   "Images must have alternate text",
		Tags:   []string{"wcag2a", "wcag111"},
		Nodes:  nodes,
	}}
}

func TestRunAudit(t *testing.T) {
	t.Parallel()

	t.Run("violations fail the run and produce a report", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".", "about")
		h.analyzer.bySuffix["/about/"] = imageAlt(2)

		err := runAudit(context.Background(), h.cfg, h.env())
		if !errors.Is(err, ErrViolationsFound) {
			t.Fatalf("expected ErrViolationsFound, got %v", err)
		}

		out := h.out.String()
		for _, want := range []string{
			"Standard: WCAG21AA",
			"Total tests: 2 (2 pages × 1 themes)",
			"[1/2] ☀️ /about/ - 2 violations",
			"[2/2] ☀️ / (homepage) - OK",
			"Pages tested:     2",
			"Total violations: 2",
			"Test failed",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}

		data, err := os.ReadFile(filepath.Join(h.cfg.OutputDir, "a11y-report.md"))
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(data), "image-alt") {
			t.Errorf("report should list image-alt:\n%s", data)
		}

		if !h.browser.closed {
			t.Error("browser should be closed after the run")
		}
		for _, u := range h.browser.visited {
			if !strings.HasPrefix(u, "http://127.0.0.1:") {
				t.Errorf("local page visited at %q, want loopback origin", u)
			}
		}
	})

	t.Run("clean site passes", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".", "blog/post")
		h.cfg.Theme = "both"
		h.cfg.Format = "json"

		if err := runAudit(context.Background(), h.cfg, h.env()); err != nil {
			t.Fatalf("expected pass, got %v", err)
		}

		out := h.out.String()
		if !strings.Contains(out, "Total tests: 4 (2 pages × 2 themes)") {
			t.Errorf("unexpected task count:\n%s", out)
		}
		if !strings.Contains(out, "Test passed") {
			t.Errorf("expected pass line:\n%s", out)
		}
		if _, err := os.Stat(filepath.Join(h.cfg.OutputDir, "a11y-report.json")); err != nil {
			t.Errorf("json report not written: %v", err)
		}
		if len(h.browser.visited) != 4 {
			t.Errorf("visited %d pages, want 4", len(h.browser.visited))
		}
	})

	t.Run("navigation errors do not fail the run", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".", "slow")
		h.browser.navErrs["/slow/"] = browser.ErrNavigationTimeout

		if err := runAudit(context.Background(), h.cfg, h.env()); err != nil {
			t.Fatalf("expected pass, got %v", err)
		}

		out := h.out.String()
		if !strings.Contains(out, "/slow/ - Error:") {
			t.Errorf("expected error progress line:\n%s", out)
		}
		if !strings.Contains(out, "Errored pages:    1") {
			t.Errorf("expected errored count:\n%s", out)
		}
	})

	t.Run("interrupted run fails without a report", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, "a", "b", "c", "d")
		h.cfg.SaveHistory = true

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		h.browser.onNavigate = cancel

		err := runAudit(ctx, h.cfg, h.env())
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}

		out := h.out.String()
		if strings.Contains(out, "Test passed") {
			t.Errorf("interrupted run must not pass:\n%s", out)
		}
		if _, err := os.Stat(filepath.Join(h.cfg.OutputDir, "a11y-report.md")); !os.IsNotExist(err) {
			t.Errorf("expected no report for an interrupted run, stat err = %v", err)
		}
		if _, err := os.Stat(filepath.Join(h.cfg.DBDir, database.DBFileName)); !os.IsNotExist(err) {
			t.Errorf("expected no history for an interrupted run, stat err = %v", err)
		}
		if !h.browser.closed {
			t.Error("browser should be closed after an interrupted run")
		}
	})

	t.Run("verbose text report lists offending elements", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, "about")
		h.analyzer.bySuffix["/about/"] = imageAlt(1)
		h.cfg.Format = "text"
		h.cfg.Verbose = true

		if err := runAudit(context.Background(), h.cfg, h.env()); !errors.Is(err, ErrViolationsFound) {
			t.Fatalf("expected ErrViolationsFound, got %v", err)
		}

		data, err := os.ReadFile(filepath.Join(h.cfg.OutputDir, "a11y-report.txt"))
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(data), "        <img>") {
			t.Errorf("expected node HTML in verbose text report:\n%s", data)
		}
	})

	t.Run("limit truncates pages", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".", "a", "b", "c")
		h.cfg.Limit = 2

		if err := runAudit(context.Background(), h.cfg, h.env()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(h.browser.visited) != 2 {
			t.Errorf("visited %d pages, want 2", len(h.browser.visited))
		}
	})

	t.Run("missing build directory is fatal before launch", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)

		err := runAudit(context.Background(), h.cfg, h.env())
		if !errors.Is(err, discovery.ErrNotBuilt) {
			t.Fatalf("expected ErrNotBuilt, got %v", err)
		}
		if h.launched {
			t.Error("browser should not be launched")
		}
	})

	t.Run("missing axe bundle is fatal before launch", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".")
		h.cfg.AxeScript = filepath.Join(t.TempDir(), "missing.js")

		err := runAudit(context.Background(), h.cfg, h.env())
		if !errors.Is(err, browser.ErrMissingDependency) {
			t.Fatalf("expected ErrMissingDependency, got %v", err)
		}
		if h.launched {
			t.Error("browser should not be launched")
		}
	})

	t.Run("zero pages passes without a browser", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		if err := os.MkdirAll(h.cfg.SiteDir, 0o750); err != nil {
			t.Fatal(err)
		}

		if err := runAudit(context.Background(), h.cfg, h.env()); err != nil {
			t.Fatalf("expected pass, got %v", err)
		}
		if h.launched {
			t.Error("browser should not be launched for zero pages")
		}

		data, err := os.ReadFile(filepath.Join(h.cfg.OutputDir, "a11y-report.md"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), "No accessibility violations found.") {
			t.Errorf("expected short form report:\n%s", data)
		}
	})

	t.Run("launch failure is fatal", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".")
		env := h.env()
		env.launch = func(context.Context, *config.Config, *slog.Logger) (browser.Browser, error) {
			return nil, browser.ErrLaunch
		}

		err := runAudit(context.Background(), h.cfg, env)
		if !errors.Is(err, browser.ErrLaunch) {
			t.Fatalf("expected ErrLaunch, got %v", err)
		}
	})

	t.Run("records history", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.buildSite(t, ".")
		h.cfg.SaveHistory = true

		if err := runAudit(context.Background(), h.cfg, h.env()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		db, err := database.Open(h.cfg.DBDir, database.Options{CreateIfNotExists: false})
		if err != nil {
			t.Fatalf("history database not created: %v", err)
		}
		defer db.Close()

		records, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) != 1 || records[0].TotalResults != 1 {
			t.Errorf("records = %+v", records)
		}
	})
}

func TestRunAuditSitemap(t *testing.T) {
	t.Parallel()

	sitemap := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://example.com/</loc></url>
  <url><loc>https://example.com/docs/</loc></url>
  <url><loc>https://example.com/feed.xml</loc></url>
</urlset>`

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		_, _ = io.WriteString(w, sitemap)
	}))
	t.Cleanup(ts.Close)

	t.Run("base URL replaces origin", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		h.cfg.SitemapURL = ts.URL + "/sitemap.xml"
		h.cfg.BaseURL = "http://localhost:4000/"
		h.analyzer.bySuffix["/docs/"] = imageAlt(1)

		err := runAudit(context.Background(), h.cfg, h.env())
		if !errors.Is(err, ErrViolationsFound) {
			t.Fatalf("expected ErrViolationsFound, got %v", err)
		}

		want := []string{"http://localhost:4000/", "http://localhost:4000/docs/"}
		slices.Sort(h.browser.visited)
		if !slices.Equal(h.browser.visited, want) {
			t.Errorf("visited = %v, want %v", h.browser.visited, want)
		}
		if !strings.Contains(h.out.String(), "Mode: Remote (sitemap)") {
			t.Errorf("expected remote mode line:\n%s", h.out.String())
		}
	})

	t.Run("unreachable sitemap is fatal", func(t *testing.T) {
		t.Parallel()

		h := newHarness(t)
		missing := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(missing.Close)
		h.cfg.SitemapURL = missing.URL + "/sitemap.xml"

		err := runAudit(context.Background(), h.cfg, h.env())
		var fetchErr *discovery.FetchError
		if !errors.As(err, &fetchErr) {
			t.Fatalf("expected FetchError, got %v", err)
		}
		if fetchErr.StatusCode != http.StatusNotFound {
			t.Errorf("StatusCode = %d, want 404", fetchErr.StatusCode)
		}
		if h.launched {
			t.Error("browser should not be launched")
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("flags override config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "a11yaudit.yaml")
		content := "standard: wcag2a\ntheme: dark\nlimit: 3\nport: 9000\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cmd := NewAuditCmd()
		if err := cmd.ParseFlags([]string{"--config", path, "--theme", "both", "--no-history"}); err != nil {
			t.Fatal(err)
		}

		cfg, err := buildConfig(cmd, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if err != nil {
			t.Fatalf("buildConfig failed: %v", err)
		}

		if cfg.Standard != "wcag2a" {
			t.Errorf("Standard = %q, want wcag2a from file", cfg.Standard)
		}
		if cfg.Theme != "both" {
			t.Errorf("Theme = %q, want both from flag", cfg.Theme)
		}
		if cfg.Limit != 3 || cfg.Port != 9000 {
			t.Errorf("Limit, Port = %d, %d", cfg.Limit, cfg.Port)
		}
		if cfg.SaveHistory {
			t.Error("--no-history should disable history")
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cmd := NewAuditCmd()
		if err := cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "nope.yaml")}); err != nil {
			t.Fatal(err)
		}

		_, err := buildConfig(cmd, slog.New(slog.NewTextHandler(io.Discard, nil)))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestNewAuditCmd(t *testing.T) {
	t.Parallel()

	cmd := NewAuditCmd()

	flags := map[string]string{
		"limit":       "0",
		"standard":    "wcag21aa",
		"theme":       "light",
		"sitemap":     "",
		"base-url":    "",
		"site-dir":    "_site",
		"output-dir":  "_reports",
		"port":        "8765",
		"timeout":     "30s",
		"format":      "markdown",
		"concurrency": "1",
		"no-history":  "false",
	}
	for name, def := range flags {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.DefValue != def {
			t.Errorf("--%s default = %q, want %q", name, flag.DefValue, def)
		}
	}
}
