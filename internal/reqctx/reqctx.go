// Package reqctx carries run and item identifiers through a context so
// logs and errors from concurrent workers can be correlated.
package reqctx

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type key int

const (
	runKey key = iota
	itemKey
)

// RunContext identifies one invocation of the pipeline
type RunContext struct {
	RunID     string
	StartTime time.Time
}

// ItemContext identifies one URL being retrieved
type ItemContext struct {
	ItemID string
	URL    string
}

// WithRun attaches a fresh run id to ctx
func WithRun(ctx context.Context) context.Context {
	return context.WithValue(ctx, runKey, &RunContext{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	})
}

// Run returns the run attached to ctx, or a placeholder
func Run(ctx context.Context) *RunContext {
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		return rc
	}
	return &RunContext{
		RunID:     "unknown",
		StartTime: time.Now(),
	}
}

// WithItem attaches a fresh item id for url to ctx
func WithItem(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, itemKey, &ItemContext{
		ItemID: shortID(),
		URL:    url,
	})
}

// Item returns the item attached to ctx, or nil
func Item(ctx context.Context) *ItemContext {
	if ic, ok := ctx.Value(itemKey).(*ItemContext); ok {
		return ic
	}
	return nil
}

// Logger decorates logger with the run and item ids found in ctx
func Logger(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	lc := logger.With()
	if rc, ok := ctx.Value(runKey).(*RunContext); ok {
		lc = lc.Str("run_id", rc.RunID)
	}
	if ic := Item(ctx); ic != nil {
		lc = lc.Str("item_id", ic.ItemID)
	}
	return lc.Logger()
}

// shortID is the first block of a random UUID; enough to tell items apart in one run
func shortID() string {
	return uuid.NewString()[:8]
}

// ItemError wraps an error with the item it belongs to
type ItemError struct {
	ItemID string
	URL    string
	Err    error
}

// Error implements the error interface
func (e *ItemError) Error() string {
	return fmt.Sprintf("[%s] %v", e.ItemID, e.Err)
}

// Unwrap returns the underlying error
func (e *ItemError) Unwrap() error {
	return e.Err
}

// NewItemError wraps err with the item found in ctx
func NewItemError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	ic := Item(ctx)
	if ic == nil {
		return err
	}
	return &ItemError{
		ItemID: ic.ItemID,
		URL:    ic.URL,
		Err:    err,
	}
}
