package preview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

// BrowserConfig configures the chromedp-backed fetcher.
type BrowserConfig struct {
	// RemoteURL is a CDP WebSocket endpoint. Empty launches a local Chrome.
	RemoteURL string
	// Headless controls a locally launched Chrome.
	Headless bool
	// Timeout bounds one rendered fetch.
	Timeout time.Duration
	// UserAgent overrides the browser's default UA when set.
	UserAgent string
}

// BrowserFetcher renders pages in Chrome before returning their HTML, for
// proxied sites that assemble content with scripts.
type BrowserFetcher struct {
	mu          sync.Mutex
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	timeout     time.Duration
	log         zerolog.Logger
}

// NewBrowserFetcher connects to a remote browser or launches a local one.
func NewBrowserFetcher(cfg BrowserConfig, log zerolog.Logger) (*BrowserFetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	b := &BrowserFetcher{timeout: cfg.Timeout, log: log}

	var allocCtx context.Context
	if cfg.RemoteURL != "" {
		allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cfg.RemoteURL)
		log.Info().Str("url", cfg.RemoteURL).Msg("connecting to remote browser")
	} else {
		opts := make([]chromedp.ExecAllocatorOption, len(chromedp.DefaultExecAllocatorOptions))
		copy(opts, chromedp.DefaultExecAllocatorOptions[:])
		opts = append(opts,
			chromedp.Flag("headless", cfg.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.WindowSize(1280, 720),
		)
		if cfg.UserAgent != "" {
			opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
		}
		allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
		log.Info().Bool("headless", cfg.Headless).Msg("launching local browser")
	}

	b.browserCtx, b.cancel = chromedp.NewContext(allocCtx)
	// Run an empty action so a broken Chrome setup surfaces at startup, not
	// on the first preview.
	start := make(chan error, 1)
	go func() { start <- chromedp.Run(b.browserCtx) }()
	select {
	case err := <-start:
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("start browser: %w", err)
		}
	case <-time.After(cfg.Timeout):
		b.Close()
		return nil, fmt.Errorf("start browser: timed out after %v", cfg.Timeout)
	}
	return b, nil
}

// Fetch navigates a fresh tab to the URL and returns the rendered document.
func (b *BrowserFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tabCtx, tabCancel := chromedp.NewContext(b.browserCtx)
	defer tabCancel()
	runCtx, cancel := context.WithTimeout(tabCtx, b.timeout)
	defer cancel()

	var html string
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, "", fmt.Errorf("render %s: %w", url, err)
	}
	// Honor the caller's cancellation even though chromedp ran on tab ctx.
	if ctx.Err() != nil {
		return nil, "", ctx.Err()
	}
	return []byte(html), "text/html; charset=utf-8", nil
}

// Close tears the browser down.
func (b *BrowserFetcher) Close() {
	if b.cancel != nil {
		b.cancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
}
