package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/law-makers/bizcrawl/internal/engine/enginetest"
	"github.com/law-makers/bizcrawl/pkg/models"
)

const searchTemplate = "https://dir.example/search?q=billing&page={page}"

func searchPage(hrefs ...string) string {
	html := `<html><body><main class="results">`
	for _, h := range hrefs {
		html += fmt.Sprintf(`<a class="text-blue-medium" href="%s">biz</a><a href="/ads/profile/x">ad</a>`, h)
	}
	return html + `</main></body></html>`
}

func pageURL(p int) string {
	return fmt.Sprintf("https://dir.example/search?q=billing&page=%d", p)
}

type stubExtractor struct {
	calls map[string]int
	fail  map[string]bool
}

func newStubExtractor() *stubExtractor {
	return &stubExtractor{calls: map[string]int{}, fail: map[string]bool{}}
}

func (s *stubExtractor) Name() string { return "stub" }

func (s *stubExtractor) Extract(ctx context.Context, page Page, link string) (models.BusinessRecord, error) {
	s.calls[link]++
	if s.fail[link] {
		return models.BusinessRecord{}, PageLoadTimeout(link, context.DeadlineExceeded)
	}
	return models.BusinessRecord{Name: models.String(link)}, nil
}

type stubSink struct {
	forwarded []models.BusinessRecord
	err       error
}

func (s *stubSink) Forward(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	s.forwarded = append(s.forwarded, rec)
	if s.err != nil {
		return models.OutcomeFailed, s.err
	}
	return models.OutcomeInserted, nil
}

func testCrawler(browser *enginetest.FakeBrowser, x Extractor, sink Sink, maxPages int) *Crawler {
	launch := func(ctx context.Context) (Session, error) { return browser, nil }
	return NewCrawler(launch, map[models.ExtractionMode]Extractor{models.ModeExplicit: x}, sink, nil, Options{
		MaxPages: maxPages,
		Collector: LinkCollector{
			ContainerSelector: "main.results",
			LinkSelector:      "a[href*='/profile/'].text-blue-medium",
			WaitTimeout:       time.Second,
		},
	})
}

func names(records []models.BusinessRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = models.Deref(r.Name)
	}
	return out
}

func TestRun_TimeoutOnLastPageKeepsEarlierRecords(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a", "/profile/b"),
		pageURL(2): searchPage("/profile/b", "/profile/c"),
		// page 3 never loads
	})
	x := newStubExtractor()
	sink := &stubSink{}

	records, err := testCrawler(browser, x, sink, 3).Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://dir.example/profile/a",
		"https://dir.example/profile/b",
		"https://dir.example/profile/c",
	}, names(records))
	assert.Equal(t, 1, x.calls["https://dir.example/profile/b"], "duplicate link is extracted once")
	assert.Len(t, sink.forwarded, 3)
	assert.Equal(t, 1, browser.VisitCount(pageURL(3)))
	assert.True(t, browser.Closed())
}

func TestRun_ZeroLinksDoesNotStopPagination(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage(),
		pageURL(2): searchPage("/profile/z"),
	})
	x := newStubExtractor()

	records, err := testCrawler(browser, x, nil, 2).Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dir.example/profile/z"}, names(records))
}

func TestRun_MissingContainerIsTimeout(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a"),
		pageURL(2): `<html><body><p>Access denied</p></body></html>`,
		pageURL(3): searchPage("/profile/c"),
	})

	records, err := testCrawler(browser, newStubExtractor(), nil, 3).Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 0, browser.VisitCount(pageURL(3)), "pagination stops after the failed page")
}

// unreadableCollector fails to parse one search page and reads the rest normally
type unreadableCollector struct {
	LinkCollector
	unreadable string
}

func (c unreadableCollector) Collect(ctx context.Context, page Page) ([]string, error) {
	if page.URL() == c.unreadable {
		return nil, ParseFailure("search page", errors.New("truncated document"))
	}
	return c.LinkCollector.Collect(ctx, page)
}

func TestRun_UnparseableSearchPageContinues(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a"),
		pageURL(2): searchPage("/profile/lost"),
		pageURL(3): searchPage("/profile/c"),
	})
	c := testCrawler(browser, newStubExtractor(), nil, 3)
	c.opts.Collector = unreadableCollector{
		LinkCollector: c.opts.Collector.(LinkCollector),
		unreadable:    pageURL(2),
	}
	var progress []PageProgress
	c.OnPage = func(p PageProgress) { progress = append(progress, p) }

	records, err := c.Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dir.example/profile/a", "https://dir.example/profile/c"}, names(records))
	assert.Equal(t, 1, browser.VisitCount(pageURL(3)))
	require.Len(t, progress, 3)
	assert.Equal(t, 0, progress[1].Links)
}

func TestRun_NavigationFailureStopsPagination(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a"),
		pageURL(2): searchPage("/profile/b"),
		pageURL(3): searchPage("/profile/c"),
	})
	browser.FailNavigation(pageURL(2), errors.New("net::ERR_CONNECTION_RESET"))

	records, err := testCrawler(browser, newStubExtractor(), nil, 3).Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 0, browser.VisitCount(pageURL(3)))
	assert.True(t, browser.Closed())
}

func TestRun_ExtractorFailureSkipsProfile(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a", "/profile/bad", "/profile/c"),
	})
	x := newStubExtractor()
	x.fail["https://dir.example/profile/bad"] = true

	records, err := testCrawler(browser, x, nil, 1).Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://dir.example/profile/a", "https://dir.example/profile/c"}, names(records))
}

func TestRun_SinkFailureKeepsRecord(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a"),
	})
	sink := &stubSink{err: errors.New("database unavailable")}

	records, err := testCrawler(browser, newStubExtractor(), sink, 1).Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Len(t, sink.forwarded, 1)
}

func TestRun_SessionFailure(t *testing.T) {
	launch := func(ctx context.Context) (Session, error) { return nil, ErrBrowserNotFound }
	c := NewCrawler(launch, map[models.ExtractionMode]Extractor{models.ModeExplicit: newStubExtractor()}, nil, nil, Options{})

	records, err := c.Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, IsCode(err, ErrCodeSessionError))
	assert.ErrorIs(t, err, ErrBrowserNotFound)
}

func TestRun_UnknownMode(t *testing.T) {
	browser := enginetest.NewFakeBrowser(nil)
	_, err := testCrawler(browser, newStubExtractor(), nil, 1).Run(context.Background(), searchTemplate, models.ModeModel)
	assert.ErrorIs(t, err, ErrNoExtractor)
	assert.False(t, browser.Closed(), "no session is acquired for an unusable mode")
}

func TestRun_CancelledContextReturnsCollected(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a"),
		pageURL(2): searchPage("/profile/b"),
	})
	ctx, cancel := context.WithCancel(context.Background())
	c := testCrawler(browser, newStubExtractor(), nil, 5)
	c.OnPage = func(p PageProgress) {
		if p.Page == 1 {
			cancel()
		}
	}

	records, err := c.Run(ctx, searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 0, browser.VisitCount(pageURL(2)))
	assert.True(t, browser.Closed())
}

func TestRun_ReportsProgress(t *testing.T) {
	browser := enginetest.NewFakeBrowser(map[string]string{
		pageURL(1): searchPage("/profile/a", "/profile/b"),
	})
	var got []PageProgress
	c := testCrawler(browser, newStubExtractor(), nil, 2)
	c.OnPage = func(p PageProgress) { got = append(got, p) }

	_, err := c.Run(context.Background(), searchTemplate, models.ModeExplicit)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, PageProgress{Page: 1, MaxPages: 2, Links: 2, Records: 2}, got[0])
}
