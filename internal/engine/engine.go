package engine

import (
	"context"
	"time"

	"github.com/law-makers/bizcrawl/pkg/models"
)

// Page is one rendered browser tab. All calls are blocking and sequential.
type Page interface {
	// Navigate loads url and returns once the document has loaded.
	Navigate(ctx context.Context, url string) error

	// WaitAttached blocks until selector is present in the DOM or timeout elapses.
	WaitAttached(ctx context.Context, selector string, timeout time.Duration) error

	// HTML returns the current rendered document.
	HTML(ctx context.Context) (string, error)

	// URL returns the address of the currently loaded document.
	URL() string
}

// Session is a browser session owning a single Page. It must be closed by its acquirer.
type Session interface {
	Page
	Close() error
}

// Launcher acquires a new browser session
type Launcher func(ctx context.Context) (Session, error)

// Collector reads the profile links of the search page currently loaded in page
type Collector interface {
	Collect(ctx context.Context, page Page) ([]string, error)
}

// Extractor turns a profile link into a BusinessRecord using the given page
type Extractor interface {
	Extract(ctx context.Context, page Page, link string) (models.BusinessRecord, error)

	// Name returns the name of the extractor implementation
	Name() string
}

// Sink forwards extracted records to persistence. Errors are non-fatal for the crawl.
type Sink interface {
	Forward(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error)
}

// Throttle delays page visits
type Throttle interface {
	Wait(ctx context.Context, urlStr string) error
}
