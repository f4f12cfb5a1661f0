package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/nao1215/a11yaudit/internal/browser"
	"github.com/nao1215/a11yaudit/internal/config"
	"github.com/nao1215/a11yaudit/internal/database"
	"github.com/nao1215/a11yaudit/internal/discovery"
	"github.com/nao1215/a11yaudit/internal/model"
	"github.com/nao1215/a11yaudit/internal/pipeline"
	"github.com/nao1215/a11yaudit/internal/report"
	"github.com/nao1215/a11yaudit/internal/server"
)

// ErrViolationsFound is returned when the run found at least one violation
// instance. It maps to exit status 1 like any other error.
var ErrViolationsFound = errors.New("accessibility violations found")

// auditEnv holds the parts of an audit run that talk to the outside world.
// Tests replace launch and analyzer to run without Chrome.
type auditEnv struct {
	// out receives progress and the results summary.
	out io.Writer

	// logger receives diagnostics.
	logger *slog.Logger

	// launch starts the browser.
	launch func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (browser.Browser, error)

	// analyzer builds the analyzer from the axe-core source.
	analyzer func(source string) browser.Analyzer

	// now stamps the report.
	now func() time.Time
}

// defaultAuditEnv returns the production environment.
func defaultAuditEnv(out io.Writer, logger *slog.Logger) *auditEnv {
	return &auditEnv{
		out:    out,
		logger: logger,
		launch: launchChrome,
		analyzer: func(source string) browser.Analyzer {
			return browser.NewAxeAnalyzer(source)
		},
		now: time.Now,
	}
}

// launchChrome starts headless Chrome with the configured options.
func launchChrome(ctx context.Context, cfg *config.Config, logger *slog.Logger) (browser.Browser, error) {
	return browser.Launch(ctx,
		browser.WithExecPath(cfg.ChromePath),
		browser.WithNavigationTimeout(cfg.Timeout),
		browser.WithWindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
		browser.WithLogger(logger),
	)
}

// NewAuditCmd creates the audit command.
func NewAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Audit a built site for accessibility violations",
		Long: `Audit loads every page of a built site in headless Chrome and analyzes it
with axe-core against a WCAG level.

Local mode (default) serves --site-dir on 127.0.0.1:--port and audits every
directory that contains an index.html. Remote mode (--sitemap) audits every
<loc> in the sitemap, optionally moved to --base-url.

The report is written to --output-dir. The command exits with status 1 when
any violation is found, the build directory is missing, the axe-core bundle
cannot be loaded or the sitemap cannot be fetched.

Examples:
  # Audit the local build (_site) in the light theme
  a11yaudit audit

  # Audit both themes against WCAG 2.2 AA
  a11yaudit audit --theme both --standard wcag22aa

  # Audit the first 10 pages of a deployed site
  a11yaudit audit --sitemap https://example.com/sitemap.xml --limit 10

  # Audit a preview deployment using the production sitemap
  a11yaudit audit --sitemap https://example.com/sitemap.xml --base-url https://preview.example.com`,
		Args: cobra.NoArgs,
		RunE: runAuditCmd,
	}

	// Page selection flags
	cmd.Flags().Int("limit", 0, "Audit only the first N pages (0 = all)")
	cmd.Flags().String("sitemap", "", "Sitemap URL to take pages from instead of the local build")
	cmd.Flags().String("base-url", "", "Origin that replaces the origin of every sitemap entry")
	cmd.Flags().String("site-dir", config.DefaultSiteDir, "Built site directory (local mode)")
	cmd.Flags().Int("port", config.DefaultPort, "Port the local build is served on (0 = any free port)")

	// Audit flags
	cmd.Flags().String("standard", string(model.DefaultStandard), "WCAG level: wcag2a, wcag2aa, wcag21aa, wcag22aa")
	cmd.Flags().String("theme", model.DefaultThemeSelection, "Themes to audit: light, dark, both")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Navigation timeout per page")
	cmd.Flags().IntP("concurrency", "j", config.DefaultConcurrency, "Number of pages audited at once")
	cmd.Flags().String("axe-script", config.DefaultAxeScript, "Path or URL of the axe-core bundle")
	cmd.Flags().String("chrome-path", "", "Chrome or Chromium executable (default: found on PATH)")

	// Output flags
	cmd.Flags().StringP("output-dir", "o", config.DefaultOutputDir, "Directory for the report file")
	cmd.Flags().StringP("format", "f", string(report.FormatMarkdown), "Report format: markdown, json, text")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .a11yaudit in current, XDG config or home directory)")

	return cmd
}

// runAuditCmd executes the audit command.
func runAuditCmd(cmd *cobra.Command, _ []string) error {
	logger := setupLogger(cmd)

	cfg, err := buildConfig(cmd, logger)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, cancelling...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runAudit(ctx, cfg, defaultAuditEnv(cmd.OutOrStdout(), logger))
}

// buildConfig merges defaults, the config file and explicitly set flags.
func buildConfig(cmd *cobra.Command, logger *slog.Logger) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use defaults if no file found.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.ApplyTo(cfg)
		logger.Debug("config file loaded", "path", configPath)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyFlags copies flags that were set on the command line onto cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	stringFlags := map[string]*string{
		"sitemap":     &cfg.SitemapURL,
		"base-url":    &cfg.BaseURL,
		"site-dir":    &cfg.SiteDir,
		"standard":    &cfg.Standard,
		"theme":       &cfg.Theme,
		"axe-script":  &cfg.AxeScript,
		"chrome-path": &cfg.ChromePath,
		"output-dir":  &cfg.OutputDir,
		"format":      &cfg.Format,
	}
	for name, dst := range stringFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	intFlags := map[string]*int{
		"limit":       &cfg.Limit,
		"port":        &cfg.Port,
		"concurrency": &cfg.Concurrency,
	}
	for name, dst := range intFlags {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetInt(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = v
	}

	if flags.Changed("no-history") {
		v, err := flags.GetBool("no-history")
		if err != nil {
			return err
		}
		cfg.SaveHistory = !v
	}

	return nil
}

// runAudit executes one audit run: load axe-core, resolve pages, serve
// the build, launch the browser, audit, aggregate, emit and record.
// It returns ErrViolationsFound when the report did not pass.
func runAudit(ctx context.Context, cfg *config.Config, env *auditEnv) error {
	// Validate already accepted these values.
	standard, _ := cfg.ParsedStandard()
	themes, _ := cfg.Themes()
	format, _ := cfg.ReportFormat()
	filter, err := cfg.SkipFilter()
	if err != nil {
		return err
	}

	out := env.out
	fmt.Fprintln(out, "\n🔍 Accessibility Test")
	fmt.Fprintln(out, "=====================")
	fmt.Fprintln(out)
	fmt.Fprintf(out, "   Standard: %s\n", standard.Display())

	// The axe-core bundle is a setup dependency: fail before any page work.
	axeSource, err := browser.LoadAxeSource(ctx, cfg.AxeScript)
	if err != nil {
		return fmt.Errorf("%w (install it with: npm install --no-save axe-core, or set --axe-script)", err)
	}

	src := pageSource(cfg, filter, env.logger)
	pages, err := discovery.Resolve(ctx, src, cfg.Limit)
	if err != nil {
		return err
	}

	if cfg.Remote() {
		fmt.Fprintln(out, "   Mode: Remote (sitemap)")
		if cfg.BaseURL != "" {
			fmt.Fprintf(out, "   Base URL: %s\n", cfg.BaseURL)
		}
	} else {
		fmt.Fprintf(out, "   Mode: Local (%s)\n", cfg.SiteDir)
	}
	if cfg.Limit > 0 {
		fmt.Fprintf(out, "   Limited to %d pages\n", cfg.Limit)
	}
	fmt.Fprintf(out, "   Themes: %s\n", model.ThemeLabels(themes))

	tasks := model.NewTasks(pages, themes)
	fmt.Fprintf(out, "   Total tests: %d (%d pages × %d themes)\n", len(tasks), len(pages), len(themes))

	results, err := auditTasks(ctx, cfg, env, tasks, standard, axeSource)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("audit interrupted: %w", err)
	}

	rep := model.NewReport(model.ReportMeta{
		GeneratedAt: env.now(),
		Standard:    standard,
		Themes:      themes,
		Source:      src.Name(),
	}, results)

	reportPath, err := report.Emit(cfg.OutputDir, format, rep, cfg.Verbose)
	if err != nil {
		return err
	}

	if cfg.SaveHistory {
		saveRun(ctx, cfg.DBDir, rep, env.logger)
	}

	printSummary(out, rep, reportPath)

	if !rep.Passed() {
		return ErrViolationsFound
	}
	return nil
}

// pageSource builds the page source for the configured mode.
func pageSource(cfg *config.Config, filter *discovery.SkipFilter, logger *slog.Logger) discovery.Source {
	if cfg.Remote() {
		return discovery.NewSitemapSource(cfg.SitemapURL,
			discovery.WithBaseURL(cfg.BaseURL),
			discovery.WithSitemapFilter(filter),
			discovery.WithSitemapLogger(logger),
		)
	}

	return discovery.NewLocalSource(cfg.SiteDir,
		discovery.WithIndexName(cfg.IndexName),
		discovery.WithLocalFilter(filter),
		discovery.WithLocalLogger(logger),
	)
}

// auditTasks serves the build when needed, launches the browser and runs
// the session. Both resources are released before it returns.
// With no tasks nothing is started.
func auditTasks(
	ctx context.Context,
	cfg *config.Config,
	env *auditEnv,
	tasks []model.AuditTask,
	standard model.Standard,
	axeSource string,
) ([]model.AuditResult, error) {
	if len(tasks) == 0 {
		return []model.AuditResult{}, nil
	}

	var baseURL string
	if !cfg.Remote() {
		fmt.Fprintln(env.out, "\n📡 Starting local server...")
		srv := server.New(cfg.SiteDir,
			server.WithPort(cfg.Port),
			server.WithIndexName(cfg.IndexName),
			server.WithLogger(env.logger),
		)
		if err := srv.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start local server: %w", err)
		}
		defer func() {
			if err := srv.Stop(); err != nil {
				env.logger.Warn("failed to stop local server", "error", err)
			}
		}()
		baseURL = srv.BaseURL()
		fmt.Fprintf(env.out, "   Serving %s at %s\n", cfg.SiteDir, baseURL)
	}

	fmt.Fprintln(env.out, "\n🚀 Running tests...")
	fmt.Fprintln(env.out)

	b, err := env.launch(ctx, cfg, env.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			env.logger.Warn("failed to close browser", "error", err)
		}
	}()

	steps := pipeline.DefaultSteps(env.analyzer(axeSource), standard.Tags(),
		pipeline.WithSettleDelay(cfg.SettleDelay),
		pipeline.WithThemeLogger(env.logger),
	)
	session := pipeline.NewSession(b, steps,
		pipeline.WithBaseURL(baseURL),
		pipeline.WithSessionConcurrency(cfg.Concurrency),
		pipeline.WithProgress(pipeline.NewProgress(env.out)),
		pipeline.WithSessionLogger(env.logger),
	)

	results, err := session.Run(ctx, tasks)
	if err != nil {
		return nil, fmt.Errorf("audit interrupted: %w", err)
	}
	return results, nil
}

// saveRun records the report in the history database.
// History is best effort: a failure is logged and the run continues.
func saveRun(ctx context.Context, dbDir string, rep *model.Report, logger *slog.Logger) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		logger.Warn("failed to open history database", "dir", dbDir, "error", err)
		return
	}
	defer db.Close()

	record, err := db.SaveRun(ctx, rep)
	if err != nil {
		logger.Warn("failed to record run", "error", err)
		return
	}
	logger.Debug("run recorded", "id", record.ID, "db", db.Path())
}

// printSummary prints the results block and the pass/fail line.
func printSummary(out io.Writer, rep *model.Report, reportPath string) {
	fmt.Fprintln(out, "\n📊 Results")
	fmt.Fprintln(out, "==========")
	fmt.Fprintf(out, "   Pages tested:     %d\n", rep.TotalResults)
	fmt.Fprintf(out, "   Total violations: %d\n", rep.TotalViolations)
	if rep.ErroredPages > 0 {
		fmt.Fprintf(out, "   Errored pages:    %d\n", rep.ErroredPages)
	}
	fmt.Fprintf(out, "   Report: %s\n\n", reportPath)

	if rep.Passed() {
		color.New(color.FgGreen).Fprintln(out, "✅ Test passed: no accessibility violations")
	} else {
		color.New(color.FgRed, color.Bold).Fprintln(out, "❌ Test failed: accessibility violations found")
	}
	fmt.Fprintln(out)
}
