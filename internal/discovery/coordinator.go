package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options configures a discovery run
type Options struct {
	TargetURL       string
	SettleInterval  time.Duration
	MaxSteps        int
	RequiredRepeats int
	PageLoadTimeout time.Duration
	ProbeTimeout    time.Duration

	ExtendScript  string
	MeasureScript string

	Probes     []Probe
	Signatures SignatureSet
	Tags       []string

	ScanEmbeddedJSON bool

	// URLListPath is where the discovered set is persisted; empty disables it
	URLListPath string

	// OnStep is called after every extend/measure iteration
	OnStep func(StepEvent)
}

// StepEvent describes one iteration of the extend loop
type StepEvent struct {
	Step       int
	Extent     float64
	Repeats    int
	Discovered int
	Err        error
}

// Stats summarizes where the discovered URLs came from
type Stats struct {
	Overlay     string
	Steps       int
	StopReason  StopReason
	FromNetwork int
	FromDOM     int
	FromJSON    int
	Total       int
}

// Coordinator drives a RenderedPage through load, overlay dismissal, the
// extend loop and the final DOM scan, merging both harvest sources.
type Coordinator struct {
	opts   Options
	logger zerolog.Logger

	mu    sync.Mutex
	stats Stats
}

// NewCoordinator creates a Coordinator, filling unset options with defaults
func NewCoordinator(opts Options, logger zerolog.Logger) *Coordinator {
	if opts.SettleInterval <= 0 {
		opts.SettleInterval = 2 * time.Second
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 100
	}
	if opts.RequiredRepeats <= 0 {
		opts.RequiredRepeats = 3
	}
	if opts.PageLoadTimeout <= 0 {
		opts.PageLoadTimeout = 30 * time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 5 * time.Second
	}
	if opts.ExtendScript == "" {
		opts.ExtendScript = DefaultExtendScript
	}
	if opts.MeasureScript == "" {
		opts.MeasureScript = DefaultMeasureScript
	}
	if opts.Probes == nil {
		opts.Probes = DefaultProbes()
	}
	if len(opts.Signatures.Suffixes) == 0 && len(opts.Signatures.ContentTypes) == 0 {
		opts.Signatures = SignaturesFor(KindVideo)
	}
	if len(opts.Tags) == 0 {
		opts.Tags = Tags(KindVideo)
	}

	return &Coordinator{
		opts:   opts,
		logger: logger.With().Str("component", "discovery").Logger(),
	}
}

// Stats returns the statistics of the most recent Discover call
func (c *Coordinator) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Discover collects media URLs from page. On cancellation it persists and
// returns what was collected so far together with ctx.Err().
func (c *Coordinator) Discover(ctx context.Context, page RenderedPage) ([]string, error) {
	set := NewAssetSet()
	stats := Stats{}

	// Subscribe before navigating so the initial load is observed
	listenCtx, stopListen := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var fromNetwork int
	wg.Add(1)
	go func() {
		defer wg.Done()
		fromNetwork = c.listen(listenCtx, page.Responses(), backlogOf(page), set)
	}()
	stopListener := func() {
		stopListen()
		wg.Wait()
		stats.FromNetwork = fromNetwork
	}

	if err := c.load(ctx, page); err != nil {
		stopListener()
		if ctx.Err() != nil {
			return c.finish(set, &stats, ctx.Err())
		}
		return nil, err
	}

	if err := sleepCtx(ctx, c.opts.SettleInterval); err != nil {
		stopListener()
		return c.finish(set, &stats, err)
	}

	if name, ok := DismissOverlay(ctx, page, c.opts.Probes, c.opts.ProbeTimeout, c.logger); ok {
		stats.Overlay = name
		if err := sleepCtx(ctx, c.opts.SettleInterval); err != nil {
			stopListener()
			return c.finish(set, &stats, err)
		}
	}

	detector := NewDetector(c.opts.MaxSteps, c.opts.RequiredRepeats)
	loopErr := c.extendLoop(ctx, page, detector, set)
	stats.Steps = detector.Steps()
	stats.StopReason = detector.Reason()

	if loopErr != nil {
		stopListener()
		return c.finish(set, &stats, loopErr)
	}

	c.logger.Info().
		Int("steps", detector.Steps()).
		Str("reason", detector.Reason().String()).
		Msg("Extend loop finished")

	stats.FromDOM, stats.FromJSON = c.scan(ctx, page, set)

	stopListener()
	return c.finish(set, &stats, ctx.Err())
}

// load navigates to the target and waits for the initial network idle
func (c *Coordinator) load(ctx context.Context, page RenderedPage) error {
	loadCtx, cancel := context.WithTimeout(ctx, c.opts.PageLoadTimeout)
	defer cancel()

	c.logger.Info().Str("url", c.opts.TargetURL).Msg("Navigating")

	err := page.Navigate(loadCtx, c.opts.TargetURL)
	if err == nil {
		err = page.WaitSettle(loadCtx)
	}
	if err == nil {
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(loadCtx.Err(), context.DeadlineExceeded) {
		return newLoadTimeout(c.opts.TargetURL, err)
	}
	return newNavigationError(c.opts.TargetURL, err)
}

// extendLoop runs extend/settle/measure until the detector stops it.
// It returns ctx.Err() when cancelled and nil otherwise.
func (c *Coordinator) extendLoop(ctx context.Context, page RenderedPage, detector *Detector, set *AssetSet) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		decision, extent, stepErr := c.step(ctx, page, detector)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if stepErr != nil {
			c.logger.Warn().Err(stepErr).Int("step", detector.Steps()).Msg("Transient rendering error")
		} else {
			c.logger.Debug().
				Int("step", detector.Steps()).
				Float64("extent", extent).
				Int("repeats", detector.Repeats()).
				Int("discovered", set.Len()).
				Msg("Extend step")
		}

		if c.opts.OnStep != nil {
			c.opts.OnStep(StepEvent{
				Step:       detector.Steps(),
				Extent:     extent,
				Repeats:    detector.Repeats(),
				Discovered: set.Len(),
				Err:        stepErr,
			})
		}

		if decision == Stop {
			return nil
		}
	}
}

// step performs one extend, settle, measure iteration
func (c *Coordinator) step(ctx context.Context, page RenderedPage, detector *Detector) (Decision, float64, error) {
	if err := page.Evaluate(ctx, c.opts.ExtendScript); err != nil {
		if ctx.Err() != nil {
			return Stop, 0, nil
		}
		return detector.Stall(), 0, newTransientRenderingError("extend", detector.Steps(), err)
	}

	if err := sleepCtx(ctx, c.opts.SettleInterval); err != nil {
		return Stop, 0, nil
	}

	extent, err := page.Measure(ctx, c.opts.MeasureScript)
	if err != nil {
		if ctx.Err() != nil {
			return Stop, 0, nil
		}
		return detector.Stall(), 0, newTransientRenderingError("measure", detector.Steps(), err)
	}

	return detector.Observe(extent), extent, nil
}

// Bounds for draining the stream once the listener is stopped
const (
	drainWait   = 250 * time.Millisecond
	handoffWait = 10 * time.Millisecond
)

// backlogOf reports the page's queued responses, or zero when the page
// does not queue them
func backlogOf(page RenderedPage) func() int {
	if b, ok := page.(ResponseBacklog); ok {
		return b.PendingResponses
	}
	return func() int { return 0 }
}

// listen drains the response stream into set until ctx is cancelled or the
// stream closes, and returns how many URLs it added. After cancellation it
// keeps reading while the page still has queued responses.
func (c *Coordinator) listen(ctx context.Context, responses <-chan Response, pending func() int, set *AssetSet) int {
	added := 0
	accept := func(r Response) {
		if c.opts.Signatures.Match(r) && set.Add(r.URL) {
			added++
			c.logger.Debug().Str("url", r.URL).Str("content_type", r.ContentType).Msg("Media response observed")
		}
	}

	for {
		select {
		case <-ctx.Done():
			c.drain(responses, pending, accept)
			return added
		case r, ok := <-responses:
			if !ok {
				return added
			}
			accept(r)
		}
	}
}

func (c *Coordinator) drain(responses <-chan Response, pending func() int, accept func(Response)) {
	for {
		select {
		case r, ok := <-responses:
			if !ok {
				return
			}
			accept(r)
			continue
		default:
		}

		// An empty backlog may still hide one response already dequeued
		// and on its way to the channel
		wait := handoffWait
		if pending() > 0 {
			wait = drainWait
		}
		timer := time.NewTimer(wait)
		select {
		case r, ok := <-responses:
			timer.Stop()
			if !ok {
				return
			}
			accept(r)
		case <-timer.C:
			if pending() == 0 {
				return
			}
			c.logger.Warn().Int("pending", pending()).Msg("Dropping undelivered responses")
			return
		}
	}
}

// scan harvests the rendered DOM and, when enabled, embedded JSON blobs.
// Failures are logged; the network harvest still stands on its own.
func (c *Coordinator) scan(ctx context.Context, page RenderedPage, set *AssetSet) (fromDOM, fromJSON int) {
	base := page.URL()
	if base == "" {
		base = c.opts.TargetURL
	}

	for _, tag := range c.opts.Tags {
		elements, err := page.MediaElements(ctx, tag)
		if err != nil {
			c.logger.Warn().Err(err).Str("tag", tag).Msg("Failed to read media elements")
			continue
		}
		c.logger.Info().Int("count", len(elements)).Str("tag", tag).Msg("Media elements found")

		for _, el := range elements {
			for _, ref := range el.References() {
				if abs := ResolveReference(base, ref); abs != "" && set.Add(abs) {
					fromDOM++
				}
			}
		}
	}

	if !c.opts.ScanEmbeddedJSON {
		return fromDOM, 0
	}

	html, err := page.HTML(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read rendered HTML")
		return fromDOM, 0
	}
	for _, u := range ExtractEmbeddedURLs(html, c.opts.Signatures) {
		if set.Add(u) {
			fromJSON++
		}
	}
	return fromDOM, fromJSON
}

// finish persists the set and records stats; err is passed through
func (c *Coordinator) finish(set *AssetSet, stats *Stats, err error) ([]string, error) {
	urls := set.Values()
	stats.Total = len(urls)

	c.mu.Lock()
	c.stats = *stats
	c.mu.Unlock()

	if c.opts.URLListPath != "" {
		if werr := WriteURLList(c.opts.URLListPath, urls); werr != nil {
			if err == nil {
				return urls, werr
			}
			c.logger.Error().Err(werr).Msg("Failed to persist URL list")
		} else {
			c.logger.Info().Str("file", c.opts.URLListPath).Int("count", len(urls)).Msg("URL list saved")
		}
	}

	return urls, err
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
