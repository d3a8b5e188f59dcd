// Package dynamic renders pages in headless Chrome through chromedp.
package dynamic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/engine"
	"github.com/rs/zerolog"
)

// EngineName is the name this backend registers under
const EngineName = "chromedp"

func init() {
	engine.Register(EngineName, Launch)
}

// Page is a single Chrome tab driven over the DevTools protocol
type Page struct {
	opts   engine.Options
	logger zerolog.Logger

	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	relay *engine.Relay
	idle  *engine.IdleTracker

	mu        sync.Mutex
	location  string
	closeOnce sync.Once
}

// Launch starts Chrome and opens a tab with network tracking enabled
func Launch(ctx context.Context, opts engine.Options) (discovery.RenderedPage, error) {
	opts = opts.WithDefaults()
	logger := opts.Logger.With().Str("engine", EngineName).Logger()

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	p := &Page{
		opts:        opts,
		logger:      logger,
		allocCancel: allocCancel,
		tabCtx:      tabCtx,
		tabCancel:   tabCancel,
		relay:       engine.NewRelay(),
		idle:        engine.NewIdleTracker(),
	}

	// The first Run starts the browser; it must not carry a deadline or the
	// browser dies with it
	stop := context.AfterFunc(ctx, allocCancel)
	err := chromedp.Run(tabCtx)
	stop()
	if err != nil {
		p.Close()
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("%w (set --chrome-path or CHROME_PATH): %v", engine.ErrBrowserNotFound, err)
		}
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	chromedp.ListenTarget(tabCtx, p.onEvent)

	actions := []chromedp.Action{
		network.Enable(),
		chromedp.EmulateViewport(int64(opts.ViewportWidth), int64(opts.ViewportHeight)),
	}
	if len(opts.Cookies) > 0 {
		actions = append(actions, network.SetCookies(cookieParams(opts.Cookies)))
		logger.Debug().Int("cookies", len(opts.Cookies)).Msg("Session cookies injected")
	}
	if len(opts.Headers) > 0 {
		actions = append(actions, network.SetExtraHTTPHeaders(extraHeaders(opts.Headers)))
	}

	runCtx, cancel := p.bind(ctx)
	defer cancel()
	if err := chromedp.Run(runCtx, actions...); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to prepare tab: %w", err)
	}

	logger.Debug().Bool("headless", opts.Headless).Msg("Browser ready")
	return p, nil
}

// bind derives a chromedp context from the tab that also honours ctx's
// deadline and cancellation. Cancelling it does not close the tab.
func (p *Page) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithCancel(p.tabCtx)
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		parentCancel := cancel
		cancel = func() {
			cancelDeadline()
			parentCancel()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	if p.tabCtx.Err() != nil {
		return engine.ErrPageClosed
	}
	runCtx, cancel := p.bind(ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

// onEvent runs on chromedp's event goroutine and must not block
func (p *Page) onEvent(ev interface{}) {
	switch ev := ev.(type) {
	case *network.EventRequestWillBeSent:
		p.idle.Begin(string(ev.RequestID))
	case *network.EventLoadingFinished:
		p.idle.End(string(ev.RequestID))
	case *network.EventLoadingFailed:
		p.idle.End(string(ev.RequestID))
	case *network.EventResponseReceived:
		if ev.Response == nil {
			return
		}
		p.relay.Push(discovery.Response{
			URL:         ev.Response.URL,
			ContentType: contentType(ev.Response),
		})
	}
}

func contentType(resp *network.Response) string {
	if resp.MimeType != "" {
		return resp.MimeType
	}
	for k, v := range resp.Headers {
		if strings.EqualFold(k, "content-type") {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}

// Navigate loads url and waits for the load event
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.idle.Reset()

	var location string
	if err := p.run(ctx, chromedp.Navigate(url), chromedp.Location(&location)); err != nil {
		return err
	}

	p.mu.Lock()
	p.location = location
	p.mu.Unlock()
	return nil
}

// WaitSettle waits for the network to go idle
func (p *Page) WaitSettle(ctx context.Context) error {
	return p.idle.WaitIdle(ctx, p.opts.IdleWindow, p.opts.IdleInflight)
}

// Evaluate runs script and discards its result
func (p *Page) Evaluate(ctx context.Context, script string) error {
	return p.run(ctx, chromedp.Evaluate(script, nil))
}

// Measure runs script and returns its numeric result
func (p *Page) Measure(ctx context.Context, script string) (float64, error) {
	var v float64
	if err := p.run(ctx, chromedp.Evaluate(script, &v)); err != nil {
		return 0, err
	}
	return v, nil
}

// Count returns the number of elements matching sel without waiting
func (p *Page) Count(ctx context.Context, sel discovery.Selector) (int, error) {
	var n int
	if err := p.run(ctx, chromedp.Evaluate(countExpr(sel), &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// Click clicks the first element matching sel
func (p *Page) Click(ctx context.Context, sel discovery.Selector) error {
	by := chromedp.ByQuery
	if sel.Kind == discovery.SelectorXPath {
		by = chromedp.BySearch
	}
	return p.run(ctx, chromedp.Click(sel.Expr, by, chromedp.NodeVisible))
}

// MediaElements parses the rendered DOM for elements named tag
func (p *Page) MediaElements(ctx context.Context, tag string) ([]discovery.MediaElement, error) {
	return discovery.SnapshotMediaElements(ctx, p, tag)
}

// HTML returns the serialized document
func (p *Page) HTML(ctx context.Context) (string, error) {
	var html string
	if err := p.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

// URL returns the location after the last navigation
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.location
}

// Responses streams every observed network response
func (p *Page) Responses() <-chan discovery.Response {
	return p.relay.C()
}

// PendingResponses returns how many responses are queued but not yet
// delivered on Responses
func (p *Page) PendingResponses() int {
	return p.relay.Pending()
}

// Close shuts the tab and the browser
func (p *Page) Close() error {
	p.closeOnce.Do(func() {
		p.relay.Close()
		p.tabCancel()
		p.allocCancel()
		p.logger.Debug().Msg("Browser closed")
	})
	return nil
}

// countExpr builds a JS expression counting matches of sel
func countExpr(sel discovery.Selector) string {
	lit, _ := json.Marshal(sel.Expr)
	if sel.Kind == discovery.SelectorXPath {
		return fmt.Sprintf(`document.evaluate(%s, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null).snapshotLength`, lit)
	}
	return fmt.Sprintf(`document.querySelectorAll(%s).length`, lit)
}
