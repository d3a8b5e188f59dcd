package discovery

import "context"

// SelectorKind identifies how a Selector expression is interpreted
type SelectorKind int

const (
	SelectorCSS SelectorKind = iota
	SelectorXPath
)

// Selector addresses elements on a rendered page
type Selector struct {
	Kind SelectorKind
	Expr string
}

// CSS returns a CSS selector
func CSS(expr string) Selector { return Selector{Kind: SelectorCSS, Expr: expr} }

// XPath returns an XPath selector
func XPath(expr string) Selector { return Selector{Kind: SelectorXPath, Expr: expr} }

// String returns the selector expression with its kind
func (s Selector) String() string {
	if s.Kind == SelectorXPath {
		return "xpath:" + s.Expr
	}
	return "css:" + s.Expr
}

// Response is one observed outbound response of the page
type Response struct {
	URL         string
	ContentType string
}

// MediaElement is a media tag found in the rendered DOM with its direct
// reference and any nested alternative sources
type MediaElement struct {
	Tag     string
	Src     string
	Sources []string
}

// RenderedPage is the browser automation capability the coordinator drives.
// Implementations live in internal/engine.
type RenderedPage interface {
	// Navigate loads url. The context deadline bounds the whole load.
	Navigate(ctx context.Context, url string) error

	// WaitSettle blocks until the page's network activity is idle.
	WaitSettle(ctx context.Context) error

	// Evaluate runs a script for its side effects (e.g. scrolling).
	Evaluate(ctx context.Context, script string) error

	// Measure runs a script that returns a single number.
	Measure(ctx context.Context, script string) (float64, error)

	// Count returns how many elements match sel.
	Count(ctx context.Context, sel Selector) (int, error)

	// Click clicks the first element matching sel.
	Click(ctx context.Context, sel Selector) error

	// MediaElements returns every element with the given tag name.
	MediaElements(ctx context.Context, tag string) ([]MediaElement, error)

	// HTML returns the serialized rendered document.
	HTML(ctx context.Context) (string, error)

	// URL returns the page's current location.
	URL() string

	// Responses returns the stream of observed responses. The channel is
	// closed when the page is closed.
	Responses() <-chan Response

	// Close releases the page and its browser resources.
	Close() error
}

// ResponseBacklog is implemented by pages that queue observed responses
// before handing them to the Responses channel.
type ResponseBacklog interface {
	PendingResponses() int
}
