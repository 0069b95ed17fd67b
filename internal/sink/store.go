// Package sink forwards extracted records to persistence with insert-or-skip semantics.
package sink

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/pkg/models"
)

// Kinds of store selectable from configuration
const (
	KindNone     = "none"
	KindMemory   = "memory"
	KindPostgres = "postgres"
	KindRedis    = "redis"
	KindHTTP     = "http"
)

// ErrNilRecord is returned when a store is handed an empty payload
var ErrNilRecord = errors.New("record is nil")

// Store persists records keyed by the record's url field.
// A record without url never conflicts and is always inserted.
type Store interface {
	// UpsertIfAbsent inserts rec unless a record with the same url exists.
	UpsertIfAbsent(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error)

	// DeleteAll removes every stored record.
	DeleteAll(ctx context.Context) error

	Close() error
}

// Stats counts forward outcomes
type Stats struct {
	Inserted  int64
	Duplicate int64
	Failed    int64
}

// Adapter forwards records to a Store and logs each outcome
type Adapter struct {
	store     Store
	inserted  atomic.Int64
	duplicate atomic.Int64
	failed    atomic.Int64
}

// NewAdapter wraps store
func NewAdapter(store Store) *Adapter {
	return &Adapter{store: store}
}

// Forward implements engine.Sink. Errors are returned for the caller to log; they never abort a crawl.
func (a *Adapter) Forward(ctx context.Context, rec models.BusinessRecord) (models.SinkOutcome, error) {
	outcome, err := a.store.UpsertIfAbsent(ctx, rec)
	if err != nil {
		a.failed.Add(1)
		return models.OutcomeFailed, fmt.Errorf("persist %q: %w", models.Deref(rec.Domain), err)
	}

	switch outcome {
	case models.OutcomeDuplicate:
		a.duplicate.Add(1)
		log.Info().Str("url", models.Deref(rec.Domain)).Msg("Duplicate skipped")
	default:
		a.inserted.Add(1)
		log.Debug().Str("url", models.Deref(rec.Domain)).Str("name", models.Deref(rec.Name)).Msg("Record inserted")
	}
	return outcome, nil
}

// Stats returns the outcome counters so far
func (a *Adapter) Stats() Stats {
	return Stats{
		Inserted:  a.inserted.Load(),
		Duplicate: a.duplicate.Load(),
		Failed:    a.failed.Load(),
	}
}

// Store returns the wrapped store
func (a *Adapter) Store() Store {
	return a.store
}
