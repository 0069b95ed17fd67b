// Package enginetest provides an in-memory browser for exercising crawl code without Chrome.
package enginetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// FakeBrowser serves fixed HTML per URL and implements engine.Session.
// Selector waits succeed when the selector matches the current document
// and fail with context.DeadlineExceeded otherwise.
type FakeBrowser struct {
	mu       sync.Mutex
	pages    map[string]string
	navErrs  map[string]error
	current  string
	visits   []string
	closed   bool
	closeErr error
}

// NewFakeBrowser returns a FakeBrowser serving pages keyed by URL
func NewFakeBrowser(pages map[string]string) *FakeBrowser {
	if pages == nil {
		pages = make(map[string]string)
	}
	return &FakeBrowser{
		pages:   pages,
		navErrs: make(map[string]error),
	}
}

// SetPage registers html for url
func (b *FakeBrowser) SetPage(url, html string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pages[url] = html
}

// FailNavigation makes every navigation to url return err
func (b *FakeBrowser) FailNavigation(url string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.navErrs[url] = err
}

// Navigate implements engine.Page
func (b *FakeBrowser) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.visits = append(b.visits, url)
	if err, ok := b.navErrs[url]; ok {
		return err
	}
	if _, ok := b.pages[url]; !ok {
		return fmt.Errorf("navigate %s: %w", url, context.DeadlineExceeded)
	}
	b.current = url
	return nil
}

// WaitAttached implements engine.Page
func (b *FakeBrowser) WaitAttached(ctx context.Context, selector string, timeout time.Duration) error {
	html, err := b.HTML(ctx)
	if err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("wait for %q: %w", selector, context.DeadlineExceeded)
	}
	return nil
}

// HTML implements engine.Page
func (b *FakeBrowser) HTML(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == "" {
		return "", fmt.Errorf("no page loaded")
	}
	return b.pages[b.current], nil
}

// URL implements engine.Page
func (b *FakeBrowser) URL() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Close implements engine.Session
func (b *FakeBrowser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return b.closeErr
}

// Closed reports whether Close has been called
func (b *FakeBrowser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Visits returns every URL passed to Navigate, in order
func (b *FakeBrowser) Visits() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.visits...)
}

// VisitCount returns how many times url was navigated to
func (b *FakeBrowser) VisitCount(url string) int {
	n := 0
	for _, v := range b.Visits() {
		if v == url {
			n++
		}
	}
	return n
}
