package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/reqctx"
	urlutil "github.com/law-makers/bizcrawl/internal/utils/url"
	"github.com/law-makers/bizcrawl/pkg/models"
)

// DefaultMaxPages is the page cap used when Options.MaxPages is not set
const DefaultMaxPages = 15

// Options configures a Crawler
type Options struct {
	MaxPages  int
	Collector Collector
}

// PageProgress is reported after each search page has been processed
type PageProgress struct {
	Page     int
	MaxPages int
	Links    int
	Records  int
}

// State is the mutable state of one crawl run. It is owned by a single Run call.
type State struct {
	SearchURL string
	Mode      models.ExtractionMode
	MaxPages  int
	Page      int
	Records   []models.BusinessRecord
	seen      map[string]struct{}
}

func newState(searchURL string, mode models.ExtractionMode, maxPages int) *State {
	return &State{
		SearchURL: searchURL,
		Mode:      mode,
		MaxPages:  maxPages,
		Records:   []models.BusinessRecord{},
		seen:      make(map[string]struct{}),
	}
}

// markSeen records link and reports whether it was new
func (s *State) markSeen(link string) bool {
	if _, ok := s.seen[link]; ok {
		return false
	}
	s.seen[link] = struct{}{}
	return true
}

// Seen returns the number of distinct profile links visited so far
func (s *State) Seen() int {
	return len(s.seen)
}

// Crawler walks paginated search results and extracts one record per profile
type Crawler struct {
	launch     Launcher
	extractors map[models.ExtractionMode]Extractor
	sink       Sink
	throttle   Throttle
	opts       Options

	// OnPage is called after every search page, if set
	OnPage func(PageProgress)
}

// NewCrawler creates a Crawler. sink and throttle may be nil.
func NewCrawler(launch Launcher, extractors map[models.ExtractionMode]Extractor, sink Sink, throttle Throttle, opts Options) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = DefaultMaxPages
	}
	if opts.Collector == nil {
		opts.Collector = LinkCollector{}
	}
	return &Crawler{
		launch:     launch,
		extractors: extractors,
		sink:       sink,
		throttle:   throttle,
		opts:       opts,
	}
}

// Run crawls searchURL page by page and returns the accumulated records.
// A search page that fails to load ends pagination, one that loads but cannot be
// parsed is skipped. Page and profile failures are logged and never returned; the
// only error is a failure to acquire the browser session (or a missing extractor for mode).
func (c *Crawler) Run(ctx context.Context, searchURL string, mode models.ExtractionMode) ([]models.BusinessRecord, error) {
	extractor, ok := c.extractors[mode]
	if !ok || extractor == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoExtractor, mode)
	}

	if reqctx.RunID(ctx) == "" {
		ctx = reqctx.WithRun(ctx)
	}
	logger := log.With().
		Str("run_id", reqctx.RunID(ctx)).
		Str("mode", string(mode)).
		Str("extractor", extractor.Name()).
		Logger()

	session, err := c.launch(ctx)
	if err != nil {
		return nil, SessionFailure(err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			logger.Warn().Err(cerr).Msg("Failed to close browser session")
		}
	}()

	state := newState(searchURL, mode, c.opts.MaxPages)
	logger.Info().Str("url", searchURL).Int("max_pages", state.MaxPages).Msg("Crawl started")

	for p := 1; p <= state.MaxPages; p++ {
		state.Page = p
		links, err := c.collectPage(ctx, session, state)
		if err != nil {
			if !IsCode(err, ErrCodeParseError) || ctx.Err() != nil {
				logPageAbort(logger, p, err)
				break
			}
			// the page itself loaded, so later pages are still reachable
			logger.Warn().Err(err).Int("page", p).Msg("Search page unreadable, moving to next page")
		}

		for _, link := range links {
			if ctx.Err() != nil {
				break
			}
			c.visit(ctx, logger, session, extractor, state, link)
		}

		if c.OnPage != nil {
			c.OnPage(PageProgress{Page: p, MaxPages: state.MaxPages, Links: len(links), Records: len(state.Records)})
		}
		if ctx.Err() != nil {
			logPageAbort(logger, p, ctx.Err())
			break
		}
	}

	logger.Info().
		Int("pages", state.Page).
		Int("profiles", state.Seen()).
		Int("records", len(state.Records)).
		Msg("Crawl finished")
	return state.Records, nil
}

// collectPage loads search page state.Page and returns its profile links
func (c *Crawler) collectPage(ctx context.Context, page Page, state *State) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pageURL, err := urlutil.PageURL(state.SearchURL, state.Page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, pageURL); err != nil {
			return nil, err
		}
	}

	log.Debug().Int("page", state.Page).Str("url", pageURL).Msg("Loading search page")
	if err := page.Navigate(ctx, pageURL); err != nil {
		return nil, LoadFailure(pageURL, err)
	}
	return c.opts.Collector.Collect(ctx, page)
}

// visit extracts one profile unless it was already seen in this run
func (c *Crawler) visit(ctx context.Context, logger zerolog.Logger, page Page, extractor Extractor, state *State, link string) {
	if !state.markSeen(link) {
		logger.Debug().Str("profile", link).Msg("Profile already visited, skipping")
		return
	}

	if c.throttle != nil {
		if err := c.throttle.Wait(ctx, link); err != nil {
			logger.Debug().Err(err).Str("profile", link).Msg("Throttle wait aborted")
			return
		}
	}

	rec, err := extractor.Extract(ctx, page, link)
	if err != nil {
		logger.Warn().Err(err).Int("page", state.Page).Str("profile", link).Msg("Profile extraction failed, skipping")
		return
	}
	state.Records = append(state.Records, rec)

	if c.sink == nil {
		return
	}
	outcome, err := c.sink.Forward(ctx, rec)
	if err != nil {
		logger.Warn().Err(SinkFailure(err)).Str("profile", link).Msg("Record not persisted")
		return
	}
	logger.Debug().Str("profile", link).Str("outcome", string(outcome)).Msg("Record forwarded")
}

func logPageAbort(logger zerolog.Logger, page int, err error) {
	ev := logger.Warn()
	switch {
	case IsCode(err, ErrCodeTimeout):
		ev = logger.Info()
	case errors.Is(err, context.Canceled):
		ev = logger.Info()
	}
	ev.Err(err).Int("page", page).Msg("Stopping pagination")
}
