// Package browser provides the headless Chrome session a crawl run drives.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/engine"
)

// Options configures a browser session
type Options struct {
	Headless   bool
	UserAgent  string
	Proxy      string
	ChromePath string
	// RemoteURL attaches to an already running browser's DevTools websocket instead of launching Chrome
	RemoteURL     string
	NavTimeout    time.Duration
	LaunchTimeout time.Duration
	Headers       map[string]string
}

// Session is a single browser tab. It is not safe for concurrent use.
type Session struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	navTimeout  time.Duration

	mu     sync.Mutex
	url    string
	closed bool
}

// Launch starts (or attaches to) a browser and opens one tab with the
// configured headers applied to every request.
func Launch(ctx context.Context, opts Options) (*Session, error) {
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = 60 * time.Second
	}
	if opts.LaunchTimeout <= 0 {
		opts.LaunchTimeout = 30 * time.Second
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if opts.RemoteURL != "" {
		log.Debug().Str("url", opts.RemoteURL).Msg("Attaching to remote browser")
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		allocCtx, allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	}

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		navTimeout:  opts.NavTimeout,
	}

	headers := network.Headers{}
	for k, v := range opts.Headers {
		headers[k] = v
	}

	start := time.Now()

	// The browser must be allocated on the tab context, not on a timeout child of it.
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("%w: %v", engine.ErrBrowserNotFound, err)
	}

	err := s.run(ctx, opts.LaunchTimeout,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}

	log.Debug().
		Dur("elapsed", time.Since(start)).
		Int("headers", len(headers)).
		Bool("remote", opts.RemoteURL != "").
		Msg("Browser session ready")
	return s, nil
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	allocOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-breakpad", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-hang-monitor", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("window-size", "1920,1080"),
		chromedp.Flag("log-level", "3"),
	}

	if path := FindChrome(opts.ChromePath); path != "" {
		allocOpts = append([]chromedp.ExecAllocatorOption{chromedp.ExecPath(path)}, allocOpts...)
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.Headless {
		allocOpts = append(allocOpts, chromedp.Flag("headless", "new"))
	} else {
		allocOpts = append(allocOpts, chromedp.Flag("headless", false))
	}
	if opts.Proxy != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.Proxy))
	}
	return allocOpts
}

// run executes actions in the tab, bounded by timeout and by the caller's ctx
func (s *Session) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("browser session is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	opCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(opCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s: %v", context.DeadlineExceeded, timeout, err)
	}
	return err
}

// Navigate implements engine.Page
func (s *Session) Navigate(ctx context.Context, url string) error {
	var location string
	if err := s.run(ctx, s.navTimeout, chromedp.Navigate(url), chromedp.Location(&location)); err != nil {
		return engine.LoadFailure(url, err)
	}

	s.mu.Lock()
	s.url = location
	if s.url == "" {
		s.url = url
	}
	s.mu.Unlock()
	return nil
}

// WaitAttached implements engine.Page
func (s *Session) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	if err := s.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return engine.LoadFailure(s.URL(), fmt.Errorf("wait for %q: %w", selector, err))
	}
	return nil
}

// HTML implements engine.Page
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, s.navTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// URL implements engine.Page
func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

// Close shuts the tab and the browser (or detaches from a remote one). Safe to call twice.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.allocCancel()
	log.Debug().Msg("Browser session closed")
	return nil
}
