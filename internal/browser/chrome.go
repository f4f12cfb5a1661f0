package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

// Navigation defaults.
const (
	// DefaultNavigationTimeout bounds a single page load.
	DefaultNavigationTimeout = 30 * time.Second

	// DefaultWindowWidth and DefaultWindowHeight set the viewport so
	// responsive layouts render their desktop variant.
	DefaultWindowWidth  = 1280
	DefaultWindowHeight = 800
)

// Lifecycle event names emitted by the DevTools protocol.
const (
	lifecycleInit        = "init"
	lifecycleNetworkIdle = "networkAlmostIdle"
)

// darkModeScript toggles the dark class on the root element and returns
// whether the class list changed. The %t verb receives the desired state.
const darkModeScript = `(() => {
  const root = document.documentElement;
  const before = root.classList.contains('dark');
  root.classList.toggle('dark', %t);
  return before !== root.classList.contains('dark');
})()`

// chromeConfig holds launch options.
type chromeConfig struct {
	execPath          string
	navigationTimeout time.Duration
	width             int
	height            int
	logger            *slog.Logger
}

// ChromeOption configures Launch.
type ChromeOption func(*chromeConfig)

// WithExecPath sets the Chrome binary. Empty means auto-detect.
func WithExecPath(path string) ChromeOption {
	return func(c *chromeConfig) {
		c.execPath = path
	}
}

// WithNavigationTimeout sets the per-page load timeout.
func WithNavigationTimeout(d time.Duration) ChromeOption {
	return func(c *chromeConfig) {
		if d > 0 {
			c.navigationTimeout = d
		}
	}
}

// WithWindowSize sets the viewport size.
func WithWindowSize(width, height int) ChromeOption {
	return func(c *chromeConfig) {
		c.width = width
		c.height = height
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) ChromeOption {
	return func(c *chromeConfig) {
		c.logger = logger
	}
}

// Chrome is a headless Chrome process controlled through chromedp.
type Chrome struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc

	navigationTimeout time.Duration
	logger            *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Launch starts headless Chrome. The returned Chrome must be closed.
//
// The sandbox is disabled because audits commonly run as root inside CI
// containers where the setuid sandbox is unavailable.
func Launch(ctx context.Context, opts ...ChromeOption) (*Chrome, error) {
	cfg := &chromeConfig{
		navigationTimeout: DefaultNavigationTimeout,
		width:             DefaultWindowWidth,
		height:            DefaultWindowHeight,
		logger:            slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	allocOpts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	allocOpts = append(allocOpts,
		chromedp.NoSandbox,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.WindowSize(cfg.width, cfg.height),
	)
	if cfg.execPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(cfg.execPath))
	}

	// The browser outlives individual operations, so it is detached from
	// ctx cancellation and torn down by Close.
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	logger := cfg.logger
	browserCtx, browserCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			logger.Debug("chrome", "message", fmt.Sprintf(format, args...))
		}),
	)

	// Running no actions starts the process.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	cfg.logger.Debug("browser launched",
		"exec_path", cfg.execPath,
		"navigation_timeout", cfg.navigationTimeout,
	)

	return &Chrome{
		browserCtx:        browserCtx,
		browserCancel:     browserCancel,
		allocCancel:       allocCancel,
		navigationTimeout: cfg.navigationTimeout,
		logger:            cfg.logger,
	}, nil
}

// NewPage opens a new tab.
func (c *Chrome) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, cancel := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}

	return &chromePage{
		ctx:               tabCtx,
		cancel:            cancel,
		navigationTimeout: c.navigationTimeout,
	}, nil
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = chromedp.Cancel(c.browserCtx)
		c.browserCancel()
		c.allocCancel()
		c.logger.Debug("browser closed")
	})
	return c.closeErr
}

// chromePage is one tab of a Chrome process.
type chromePage struct {
	ctx               context.Context
	cancel            context.CancelFunc
	navigationTimeout time.Duration
}

// bind derives a context from the tab that is also cancelled with ctx.
func (p *chromePage) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

// Navigate loads url and waits for the networkAlmostIdle lifecycle event.
func (p *chromePage) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := p.bind(ctx, p.navigationTimeout)
	defer cancel()

	idle := make(chan struct{}, 1)
	var started atomic.Bool
	chromedp.ListenTarget(navCtx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok {
			return
		}
		switch e.Name {
		case lifecycleInit:
			started.Store(true)
		case lifecycleNetworkIdle:
			if !started.Load() {
				return
			}
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	err := chromedp.Run(navCtx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(url),
	)
	if err == nil {
		select {
		case <-idle:
		case <-navCtx.Done():
			err = navCtx.Err()
		}
	}

	if err != nil {
		if ctx.Err() == nil && errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w after %s: %s", ErrNavigationTimeout, p.navigationTimeout, url)
		}
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	return nil
}

// SetDarkMode toggles the dark class on the root element.
func (p *chromePage) SetDarkMode(ctx context.Context, dark bool) (bool, error) {
	var changed bool
	if err := p.Evaluate(ctx, fmt.Sprintf(darkModeScript, dark), &changed); err != nil {
		return false, fmt.Errorf("failed to set theme: %w", err)
	}
	return changed, nil
}

// Evaluate runs expression in the page and awaits a returned promise.
func (p *chromePage) Evaluate(ctx context.Context, expression string, out any) error {
	evalCtx, cancel := p.bind(ctx, 0)
	defer cancel()

	return chromedp.Run(evalCtx, chromedp.Evaluate(expression, out,
		func(params *runtime.EvaluateParams) *runtime.EvaluateParams {
			return params.WithAwaitPromise(true)
		},
	))
}

// Close closes the tab.
func (p *chromePage) Close() error {
	err := chromedp.Cancel(p.ctx)
	p.cancel()
	return err
}
