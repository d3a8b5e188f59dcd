// Package rodpage renders pages through go-rod with stealth patches applied,
// for sites that reject the plain automation fingerprint.
package rodpage

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/law-makers/scrollgrab/internal/discovery"
	"github.com/law-makers/scrollgrab/internal/engine"
	"github.com/rs/zerolog"
)

// EngineName is the name this backend registers under
const EngineName = "rod"

func init() {
	engine.Register(EngineName, Launch)
}

// evalScript runs arbitrary script text in global scope and returns the
// value of its last expression
const evalScript = `(src) => (0, eval)(src)`

// Page is a stealth rod tab
type Page struct {
	opts   engine.Options
	logger zerolog.Logger

	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	cancel   context.CancelFunc

	relay *engine.Relay
	idle  *engine.IdleTracker

	mu        sync.Mutex
	location  string
	closeOnce sync.Once
}

// Launch starts a local Chrome through rod's launcher and opens a stealth tab
func Launch(ctx context.Context, opts engine.Options) (discovery.RenderedPage, error) {
	opts = opts.WithDefaults()
	logger := opts.Logger.With().Str("engine", EngineName).Logger()

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set("disable-blink-features", "AutomationControlled").
		Set("window-size", fmt.Sprintf("%d,%d", opts.ViewportWidth, opts.ViewportHeight)).
		Set("autoplay-policy", "no-user-gesture-required")
	if opts.ChromePath != "" {
		l = l.Bin(opts.ChromePath)
	}
	if opts.Proxy != "" {
		l = l.Proxy(opts.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	page, err := stealth.Page(browser)
	if err != nil {
		browser.Close()
		l.Kill()
		return nil, fmt.Errorf("failed to open stealth tab: %w", err)
	}

	// Event subscriptions live as long as the page, not the launch context
	pageCtx, cancel := context.WithCancel(context.Background())
	p := &Page{
		opts:     opts,
		logger:   logger,
		launcher: l,
		browser:  browser,
		page:     page.Context(pageCtx),
		cancel:   cancel,
		relay:    engine.NewRelay(),
		idle:     engine.NewIdleTracker(),
	}

	if err := p.prepare(); err != nil {
		p.Close()
		return nil, err
	}

	logger.Debug().Bool("headless", opts.Headless).Msg("Browser ready")
	return p, nil
}

// prepare applies viewport, identity and session state and subscribes to
// network events
func (p *Page) prepare() error {
	if err := (proto.NetworkEnable{}).Call(p.page); err != nil {
		return fmt.Errorf("failed to enable network events: %w", err)
	}

	if err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             p.opts.ViewportWidth,
		Height:            p.opts.ViewportHeight,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("failed to set viewport: %w", err)
	}

	if p.opts.UserAgent != "" {
		if err := p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: p.opts.UserAgent}); err != nil {
			return fmt.Errorf("failed to set user agent: %w", err)
		}
	}

	if len(p.opts.Cookies) > 0 {
		if err := p.browser.SetCookies(cookieParams(p.opts.Cookies)); err != nil {
			return fmt.Errorf("failed to inject cookies: %w", err)
		}
		p.logger.Debug().Int("cookies", len(p.opts.Cookies)).Msg("Session cookies injected")
	}

	if len(p.opts.Headers) > 0 {
		dict := make([]string, 0, 2*len(p.opts.Headers))
		for k, v := range p.opts.Headers {
			dict = append(dict, k, v)
		}
		if _, err := p.page.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("failed to set headers: %w", err)
		}
	}

	go p.page.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) {
			p.idle.Begin(string(e.RequestID))
		},
		func(e *proto.NetworkLoadingFinished) {
			p.idle.End(string(e.RequestID))
		},
		func(e *proto.NetworkLoadingFailed) {
			p.idle.End(string(e.RequestID))
		},
		func(e *proto.NetworkResponseReceived) {
			if e.Response == nil {
				return
			}
			p.relay.Push(discovery.Response{
				URL:         e.Response.URL,
				ContentType: contentType(e.Response),
			})
		},
	)()

	return nil
}

func contentType(resp *proto.NetworkResponse) string {
	if resp.MIMEType != "" {
		return resp.MIMEType
	}
	for k, v := range resp.Headers {
		if strings.EqualFold(k, "content-type") {
			return v.Str()
		}
	}
	return ""
}

// Navigate loads url and waits for the load event
func (p *Page) Navigate(ctx context.Context, url string) error {
	p.idle.Reset()

	page := p.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	if err := page.WaitLoad(); err != nil {
		return err
	}

	info, err := page.Info()
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.location = info.URL
	p.mu.Unlock()
	return nil
}

// WaitSettle waits for the network to go idle
func (p *Page) WaitSettle(ctx context.Context) error {
	return p.idle.WaitIdle(ctx, p.opts.IdleWindow, p.opts.IdleInflight)
}

// Evaluate runs script and discards its result
func (p *Page) Evaluate(ctx context.Context, script string) error {
	_, err := p.page.Context(ctx).Eval(evalScript, script)
	return err
}

// Measure runs script and returns its numeric result
func (p *Page) Measure(ctx context.Context, script string) (float64, error) {
	res, err := p.page.Context(ctx).Eval(evalScript, script)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

// Count returns the number of elements matching sel without waiting
func (p *Page) Count(ctx context.Context, sel discovery.Selector) (int, error) {
	els, err := p.elements(ctx, sel)
	if err != nil {
		return 0, err
	}
	return len(els), nil
}

// Click clicks the first element matching sel
func (p *Page) Click(ctx context.Context, sel discovery.Selector) error {
	els, err := p.elements(ctx, sel)
	if err != nil {
		return err
	}
	if len(els) == 0 {
		return fmt.Errorf("%w: %s", engine.ErrNoElement, sel)
	}
	return els.First().Click(proto.InputMouseButtonLeft, 1)
}

func (p *Page) elements(ctx context.Context, sel discovery.Selector) (rod.Elements, error) {
	page := p.page.Context(ctx)
	if sel.Kind == discovery.SelectorXPath {
		return page.ElementsX(sel.Expr)
	}
	return page.Elements(sel.Expr)
}

// MediaElements parses the rendered DOM for elements named tag
func (p *Page) MediaElements(ctx context.Context, tag string) ([]discovery.MediaElement, error) {
	return discovery.SnapshotMediaElements(ctx, p, tag)
}

// HTML returns the serialized document
func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
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

// Close shuts the tab, the browser and the launched process
func (p *Page) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.relay.Close()
		p.cancel()
		err = p.browser.Close()
		p.launcher.Kill()
		p.logger.Debug().Msg("Browser closed")
	})
	return err
}
