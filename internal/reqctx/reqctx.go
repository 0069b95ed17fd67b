package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type key int

const runKey key = 0

// RunContext identifies one crawl run or one inbound request
type RunContext struct {
	RunID     string
	StartTime time.Time
}

// WithRun attaches a fresh RunContext to ctx
func WithRun(ctx context.Context) context.Context {
	return WithRunID(ctx, uuid.NewString())
}

// WithRunID attaches a RunContext carrying id to ctx
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     id,
		StartTime: time.Now(),
	})
}

// FromContext returns the RunContext stored in ctx, if any
func FromContext(ctx context.Context) (*RunContext, bool) {
	rc, ok := ctx.Value(runKey).(*RunContext)
	return rc, ok
}

// RunID returns the run identifier stored in ctx or "" when there is none
func RunID(ctx context.Context) string {
	if rc, ok := FromContext(ctx); ok {
		return rc.RunID
	}
	return ""
}

// Elapsed returns the time since the run started, or zero without a run
func Elapsed(ctx context.Context) time.Duration {
	if rc, ok := FromContext(ctx); ok {
		return time.Since(rc.StartTime)
	}
	return 0
}

// RunError wraps an error with the run identifier
type RunError struct {
	RunID string
	Err   error
}

// Error implements the error interface
func (e *RunError) Error() string {
	return fmt.Sprintf("[%s] %v", e.RunID, e.Err)
}

// Unwrap returns the underlying error
func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError wraps err with the run identifier from ctx
func NewRunError(ctx context.Context, err error) error {
	id := RunID(ctx)
	if id == "" {
		id = "unknown"
	}
	return &RunError{RunID: id, Err: err}
}
