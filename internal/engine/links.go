package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	urlutil "github.com/law-makers/bizcrawl/internal/utils/url"
)

// LinkCollector reads profile links from a rendered search-results page
type LinkCollector struct {
	ContainerSelector string
	LinkSelector      string
	WaitTimeout       time.Duration
}

// Collect waits for the results container, then returns the profile links in
// document order, resolved against the page URL. A wait that runs out is a
// PageLoadTimeout, never an empty result.
func (c LinkCollector) Collect(ctx context.Context, page Page) ([]string, error) {
	if err := page.WaitAttached(ctx, c.ContainerSelector, c.WaitTimeout); err != nil {
		return nil, LoadFailure(page.URL(), err)
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, NavigationFailure(page.URL(), fmt.Errorf("read search page: %w", err))
	}

	links, err := ParseLinks(html, page.URL(), c.LinkSelector)
	if err != nil {
		return nil, ParseFailure("search page", err)
	}

	log.Debug().
		Str("url", page.URL()).
		Int("links", len(links)).
		Msg("Collected profile links")
	return links, nil
}

// ParseLinks selects linkSelector in html and returns the absolute hrefs
func ParseLinks(html, baseURL, linkSelector string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	links := []string{}
	doc.Find(linkSelector).Each(func(i int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		links = append(links, urlutil.ResolveURL(baseURL, href))
	})
	return links, nil
}
