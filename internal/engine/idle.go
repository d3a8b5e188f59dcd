package engine

import (
	"context"
	"sync"
	"time"
)

// IdleTracker follows open network requests by id so a page can wait for
// the network to go quiet after navigation.
type IdleTracker struct {
	mu         sync.Mutex
	inflight   map[string]struct{}
	lastChange time.Time
	changed    chan struct{}
	now        func() time.Time
}

// NewIdleTracker creates an empty tracker
func NewIdleTracker() *IdleTracker {
	return &IdleTracker{
		inflight:   make(map[string]struct{}),
		lastChange: time.Now(),
		changed:    make(chan struct{}),
		now:        time.Now,
	}
}

// Begin records a request start
func (t *IdleTracker) Begin(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	t.touch()
}

// End records a request finishing or failing. Unknown ids are ignored.
func (t *IdleTracker) End(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	t.touch()
}

// Reset forgets all open requests (after a new navigation)
func (t *IdleTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight = make(map[string]struct{})
	t.touch()
}

// Inflight returns the number of open requests
func (t *IdleTracker) Inflight() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}

// touch must be called with mu held
func (t *IdleTracker) touch() {
	t.lastChange = t.now()
	close(t.changed)
	t.changed = make(chan struct{})
}

// WaitIdle blocks until at most maxInflight requests have been open for a
// continuous quiet window, or ctx is done.
func (t *IdleTracker) WaitIdle(ctx context.Context, quiet time.Duration, maxInflight int) error {
	for {
		t.mu.Lock()
		open := len(t.inflight)
		since := t.now().Sub(t.lastChange)
		changed := t.changed
		t.mu.Unlock()

		if open <= maxInflight && since >= quiet {
			return nil
		}

		wait := quiet - since
		if open > maxInflight || wait <= 0 {
			wait = quiet
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-changed:
			timer.Stop()
		case <-timer.C:
		}
	}
}
