package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	domain "github.com/datadik/portal/internal/domain/registry"
	"go.uber.org/zap"
)

// BrowserConfig configures the headless Chrome fetcher
type BrowserConfig struct {
	// ExecPath is the Chrome binary. Empty uses chromedp's lookup.
	ExecPath string
	// RemoteURL connects to an already running Chrome (ws://host:9222)
	RemoteURL string
	UserAgent string
	// WaitVisible is the CSS selector awaited before the DOM is captured
	WaitVisible string
	NoSandbox   bool
	Logger      *zap.Logger
}

// BrowserFetcher renders registry pages in headless Chrome before reading
// their HTML
type BrowserFetcher struct {
	config      BrowserConfig
	logger      *zap.Logger
	allocCtx    context.Context
	allocCancel context.CancelFunc
}

// NewBrowserFetcher creates the Chrome allocator. Chrome itself starts on
// the first fetch.
func NewBrowserFetcher(cfg BrowserConfig) *BrowserFetcher {
	if cfg.WaitVisible == "" {
		cfg.WaitVisible = "body"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	f := &BrowserFetcher{config: cfg, logger: logger}
	if cfg.RemoteURL != "" {
		f.allocCtx, f.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		return f
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	if cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	f.allocCtx, f.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	return f
}

// Fetch navigates to url in a fresh tab and returns the rendered document
func (f *BrowserFetcher) Fetch(ctx context.Context, url string, timeout time.Duration) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(f.allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			f.logger.Debug(fmt.Sprintf(format, args...))
		}),
	)
	defer tabCancel()

	// Tie the tab to the caller's context as well
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	if timeout > 0 {
		var cancel context.CancelFunc
		tabCtx, cancel = context.WithTimeout(tabCtx, timeout)
		defer cancel()
	}

	var (
		mu     sync.Mutex
		status int64
	)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if e, ok := ev.(*network.EventResponseReceived); ok && e.Type == network.ResourceTypeDocument {
			mu.Lock()
			status = e.Response.Status
			mu.Unlock()
		}
	})

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(url),
		chromedp.WaitVisible(f.config.WaitVisible, chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("rendering %s timed out after %v: %w", url, timeout, err)
		}
		return "", fmt.Errorf("rendering %s: %w", url, err)
	}

	mu.Lock()
	code := int(status)
	mu.Unlock()
	if code != 0 && (code < 200 || code > 299) {
		return "", &domain.FetchError{URL: url, StatusCode: code}
	}
	return html, nil
}

// Close shuts down Chrome
func (f *BrowserFetcher) Close() {
	if f.allocCancel != nil {
		f.allocCancel()
	}
}

var _ domain.Fetcher = (*BrowserFetcher)(nil)
