// Package engine selects and launches the browser backend that renders the
// target page. Backends register themselves by name from their init
// functions, the way database/sql drivers do.
package engine

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/law-makers/scrollgrab/internal/auth"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/rs/zerolog"
)

const (
	DefaultViewportWidth  = 1920
	DefaultViewportHeight = 1080

	// DefaultIdleWindow is how long the network must stay quiet to count as settled
	DefaultIdleWindow = 500 * time.Millisecond

	// DefaultIdleInflight is how many requests may still be open when idle
	// (long-polling and analytics beacons never finish)
	DefaultIdleInflight = 2
)

// Options configures a browser session
type Options struct {
	Headless   bool
	UserAgent  string
	ChromePath string
	Proxy      string

	Cookies []auth.Cookie
	Headers map[string]string

	ViewportWidth  int
	ViewportHeight int

	IdleWindow   time.Duration
	IdleInflight int

	Logger zerolog.Logger
}

// WithDefaults fills unset sizing and idle options
func (o Options) WithDefaults() Options {
	if o.ViewportWidth <= 0 {
		o.ViewportWidth = DefaultViewportWidth
	}
	if o.ViewportHeight <= 0 {
		o.ViewportHeight = DefaultViewportHeight
	}
	if o.IdleWindow <= 0 {
		o.IdleWindow = DefaultIdleWindow
	}
	if o.IdleInflight < 0 {
		o.IdleInflight = 0
	}
	return o
}

// Launcher starts a browser and returns a page ready for navigation
type Launcher func(ctx context.Context, opts Options) (discovery.RenderedPage, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Launcher)
)

// Register makes a backend available under name. It panics on duplicates.
func Register(name string, l Launcher) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("engine: Register called twice for " + name)
	}
	registry[name] = l
}

// Names returns the registered backend names, sorted
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Launch starts the backend registered as name
func Launch(ctx context.Context, name string, opts Options) (discovery.RenderedPage, error) {
	registryMu.RLock()
	l, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown browser engine %q (available: %v)", name, Names())
	}

	page, err := l(ctx, opts.WithDefaults())
	if err != nil {
		return nil, fmt.Errorf("failed to launch %s: %w", name, err)
	}
	return page, nil
}
