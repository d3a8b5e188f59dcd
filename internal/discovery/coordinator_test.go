package discovery

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testOptions(t *testing.T) Options {
	t.Helper()
	return Options{
		TargetURL:       "https://example.com/explore",
		SettleInterval:  time.Millisecond,
		MaxSteps:        50,
		RequiredRepeats: 3,
		PageLoadTimeout: time.Second,
		ProbeTimeout:    100 * time.Millisecond,
		Signatures:      SignaturesFor(KindVideo),
		Tags:            Tags(KindVideo),
		URLListPath:     filepath.Join(t.TempDir(), "media_urls.txt"),
	}
}

func TestDiscover_MergesNetworkAndDOM(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.extents = []float64{1000, 2000, 3000}
	page.emitOnNavigate = []Response{
		{URL: "https://cdn.example.com/a.mp4", ContentType: "video/mp4"},
		{URL: "https://example.com/app.js", ContentType: "application/javascript"},
	}
	page.elements["video"] = []MediaElement{
		{Tag: "video", Src: "https://cdn.example.com/a.mp4"},
		{Tag: "video", Src: "blob:https://example.com/1234", Sources: []string{"/media/b.webm"}},
		{Tag: "video", Src: "data:video/mp4;base64,AAAA"},
	}

	opts := testOptions(t)
	c := NewCoordinator(opts, zerolog.Nop())

	urls, err := c.Discover(context.Background(), page)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	want := map[string]bool{
		"https://cdn.example.com/a.mp4":    true,
		"https://example.com/media/b.webm": true,
	}
	if len(urls) != len(want) {
		t.Fatalf("Expected %d URLs, got %d: %v", len(want), len(urls), urls)
	}
	for _, u := range urls {
		if !want[u] {
			t.Errorf("Unexpected URL %q", u)
		}
	}

	saved, err := ReadURLList(opts.URLListPath)
	if err != nil {
		t.Fatalf("Failed to read persisted list: %v", err)
	}
	if strings.Join(saved, ",") != strings.Join(urls, ",") {
		t.Errorf("Persisted list %v does not match returned %v", saved, urls)
	}

	stats := c.Stats()
	if stats.StopReason != ReasonNoGrowth {
		t.Errorf("Expected stop reason %v, got %v", ReasonNoGrowth, stats.StopReason)
	}
	if stats.Total != 2 {
		t.Errorf("Expected total 2, got %d", stats.Total)
	}
}

func TestDiscover_StopsAfterRequiredRepeats(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.extents = []float64{500, 800, 800, 800, 800}

	c := NewCoordinator(testOptions(t), zerolog.Nop())
	if _, err := c.Discover(context.Background(), page); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	// 500 and 800 are growth, then three unchanged readings
	if page.measureCalls != 5 {
		t.Errorf("Expected 5 measurements, got %d", page.measureCalls)
	}
	if c.Stats().Steps != 2 {
		t.Errorf("Expected 2 growth steps, got %d", c.Stats().Steps)
	}
}

func TestDiscover_StepCap(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	for i := 1; i <= 20; i++ {
		page.extents = append(page.extents, float64(i*100))
	}

	opts := testOptions(t)
	opts.MaxSteps = 4
	c := NewCoordinator(opts, zerolog.Nop())
	if _, err := c.Discover(context.Background(), page); err != nil {
		t.Fatalf("Discover failed: %v", err)
	}

	if page.extendCalls != 4 {
		t.Errorf("Expected 4 extend calls, got %d", page.extendCalls)
	}
	if c.Stats().StopReason != ReasonStepCap {
		t.Errorf("Expected step cap, got %v", c.Stats().StopReason)
	}
}

func TestDiscover_TransientErrorsCountAsNoGrowth(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.measureErr = errors.New("execution context was destroyed")
	page.elements["video"] = []MediaElement{{Tag: "video", Src: "https://cdn.example.com/x.mp4"}}

	var events []StepEvent
	opts := testOptions(t)
	opts.OnStep = func(e StepEvent) { events = append(events, e) }

	c := NewCoordinator(opts, zerolog.Nop())
	urls, err := c.Discover(context.Background(), page)
	if err != nil {
		t.Fatalf("Transient errors must not abort discovery: %v", err)
	}
	if len(urls) != 1 {
		t.Errorf("Expected DOM scan to still run, got %v", urls)
	}
	if len(events) != 3 {
		t.Fatalf("Expected 3 iterations before stopping, got %d", len(events))
	}
	for _, e := range events {
		if !IsTransient(e.Err) {
			t.Errorf("Expected transient rendering error, got %v", e.Err)
		}
	}
}

func TestDiscover_LoadTimeout(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.blockNavigate = true

	opts := testOptions(t)
	opts.PageLoadTimeout = 20 * time.Millisecond
	c := NewCoordinator(opts, zerolog.Nop())

	_, err := c.Discover(context.Background(), page)
	if !errors.Is(err, ErrLoadTimeout) {
		t.Fatalf("Expected load timeout, got %v", err)
	}
	if page.extendCalls != 0 {
		t.Errorf("Extend loop must not run after a failed load")
	}
}

func TestDiscover_NavigationError(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.navigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	c := NewCoordinator(testOptions(t), zerolog.Nop())
	_, err := c.Discover(context.Background(), page)
	if !errors.Is(err, ErrNavigation) {
		t.Fatalf("Expected navigation error, got %v", err)
	}
	if errors.Is(err, ErrLoadTimeout) {
		t.Errorf("Navigation error must not be reported as a timeout")
	}
}

func TestDiscover_CancelPersistsPartialList(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	page := newFakePage("https://example.com/explore")
	for i := 1; i <= 100; i++ {
		page.extents = append(page.extents, float64(i*100))
	}
	page.onExtend = func(call int) {
		page.emit(Response{URL: "https://cdn.example.com/clip" + string(rune('0'+call)) + ".mp4"})
		if call == 2 {
			cancel()
		}
	}

	opts := testOptions(t)
	c := NewCoordinator(opts, zerolog.Nop())
	urls, err := c.Discover(ctx, page)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if len(urls) != 2 {
		t.Errorf("Expected 2 partial URLs, got %v", urls)
	}
	if page.extendCalls > 2 {
		t.Errorf("No extend steps should be issued after cancellation, got %d", page.extendCalls)
	}

	if _, err := os.Stat(opts.URLListPath); err != nil {
		t.Errorf("Partial list was not persisted: %v", err)
	}
}

func TestDiscover_ScansEmbeddedJSON(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.extents = []float64{100}
	page.html = `<html><body><script id="__NEXT_DATA__" type="application/json">` +
		`{"props":{"items":[{"video":"https://cdn.example.com/next.mp4"},{"thumb":"https://cdn.example.com/t.jpg"}]}}` +
		`</script></body></html>`

	opts := testOptions(t)
	opts.ScanEmbeddedJSON = true
	c := NewCoordinator(opts, zerolog.Nop())

	urls, err := c.Discover(context.Background(), page)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(urls) != 1 || urls[0] != "https://cdn.example.com/next.mp4" {
		t.Errorf("Expected only the embedded video URL, got %v", urls)
	}
	if c.Stats().FromJSON != 1 {
		t.Errorf("Expected 1 URL from JSON, got %d", c.Stats().FromJSON)
	}
}

func TestDismissOverlay(t *testing.T) {
	probes := DefaultProbes()

	t.Run("first match wins", func(t *testing.T) {
		page := newFakePage("https://example.com")
		page.counts[CSS(`[aria-label*='Look around']`).String()] = 1
		page.counts[XPath(`//button[contains(translate(normalize-space(.), 'ABCDEFGHIJKLMNOPQRSTUVWXYZ', 'abcdefghijklmnopqrstuvwxyz'), 'look around')]`).String()] = 1

		name, ok := DismissOverlay(context.Background(), page, probes, time.Second, zerolog.Nop())
		if !ok || name != "aria-label" {
			t.Fatalf("Expected aria-label probe, got %q (%v)", name, ok)
		}
		if len(page.clicked) != 1 {
			t.Errorf("Expected exactly one click, got %v", page.clicked)
		}
	})

	t.Run("failed action falls through", func(t *testing.T) {
		page := newFakePage("https://example.com")
		page.counts[CSS(`[aria-label*='Look around']`).String()] = 1
		page.clickErr = errors.New("element not interactable")

		if _, ok := DismissOverlay(context.Background(), page, probes, time.Second, zerolog.Nop()); ok {
			t.Error("Expected no probe to be applied")
		}
	})

	t.Run("no overlay", func(t *testing.T) {
		page := newFakePage("https://example.com")
		if _, ok := DismissOverlay(context.Background(), page, probes, time.Second, zerolog.Nop()); ok {
			t.Error("Expected no overlay")
		}
	})
}

func TestDiscover_DrainsQueuedResponsesAfterScan(t *testing.T) {
	page := newFakePage("https://example.com/explore")
	page.responses = make(chan Response)
	page.extents = []float64{1000}

	var queued []Response
	for i := 0; i < 20; i++ {
		queued = append(queued, Response{URL: fmt.Sprintf("https://cdn.example.com/late-%d.mp4", i), ContentType: "video/mp4"})
	}
	var once sync.Once
	page.onMediaElements = func() {
		once.Do(func() { page.pumpBacklog(queued, 2*time.Millisecond) })
	}

	c := NewCoordinator(testOptions(t), zerolog.Nop())
	urls, err := c.Discover(context.Background(), page)
	if err != nil {
		t.Fatalf("Discover failed: %v", err)
	}
	if len(urls) != len(queued) {
		t.Errorf("Expected %d URLs from the queued responses, got %d", len(queued), len(urls))
	}
	if c.Stats().FromNetwork != len(queued) {
		t.Errorf("FromNetwork = %d", c.Stats().FromNetwork)
	}
}
