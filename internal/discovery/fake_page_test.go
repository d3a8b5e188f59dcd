package discovery

import (
	"context"
	"errors"
	"sync"
	"time"
)

// fakePage is a scripted RenderedPage for coordinator tests
type fakePage struct {
	mu sync.Mutex

	url       string
	responses chan Response
	closed    bool

	navigateErr   error
	blockNavigate bool

	// extents are returned by Measure in order; the last one repeats
	extents    []float64
	measureErr error
	extendErr  error
	onExtend   func(call int)

	counts   map[string]int
	clickErr error
	clicked  []string

	elements map[string][]MediaElement
	html     string

	extendCalls  int
	measureCalls int

	// emitOnNavigate is pushed into the response stream during Navigate
	emitOnNavigate []Response

	onMediaElements func()
	backlog         []Response
}

func newFakePage(url string) *fakePage {
	return &fakePage{
		url:       url,
		responses: make(chan Response, 256),
		counts:    make(map[string]int),
		elements:  make(map[string][]MediaElement),
	}
}

func (p *fakePage) emit(r Response) {
	p.responses <- r
}

func (p *fakePage) Navigate(ctx context.Context, url string) error {
	for _, r := range p.emitOnNavigate {
		p.emit(r)
	}
	if p.blockNavigate {
		<-ctx.Done()
		return ctx.Err()
	}
	return p.navigateErr
}

func (p *fakePage) WaitSettle(ctx context.Context) error { return ctx.Err() }

func (p *fakePage) Evaluate(ctx context.Context, script string) error {
	p.mu.Lock()
	p.extendCalls++
	call := p.extendCalls
	hook := p.onExtend
	err := p.extendErr
	p.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	return err
}

func (p *fakePage) Measure(ctx context.Context, script string) (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.measureErr != nil {
		return 0, p.measureErr
	}
	if len(p.extents) == 0 {
		return 0, errors.New("no extents scripted")
	}
	i := p.measureCalls
	if i >= len(p.extents) {
		i = len(p.extents) - 1
	}
	p.measureCalls++
	return p.extents[i], nil
}

func (p *fakePage) Count(ctx context.Context, sel Selector) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts[sel.String()], nil
}

func (p *fakePage) Click(ctx context.Context, sel Selector) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.clickErr != nil {
		return p.clickErr
	}
	p.clicked = append(p.clicked, sel.String())
	return nil
}

func (p *fakePage) MediaElements(ctx context.Context, tag string) ([]MediaElement, error) {
	if p.onMediaElements != nil {
		p.onMediaElements()
	}
	return p.elements[tag], nil
}

func (p *fakePage) PendingResponses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.backlog)
}

// pumpBacklog queues rs and delivers them one by one with a delay,
// the way a browser backend hands events to its consumer
func (p *fakePage) pumpBacklog(rs []Response, delay time.Duration) {
	p.mu.Lock()
	p.backlog = append(p.backlog, rs...)
	p.mu.Unlock()

	go func() {
		for {
			time.Sleep(delay)
			p.mu.Lock()
			if len(p.backlog) == 0 {
				p.mu.Unlock()
				return
			}
			next := p.backlog[0]
			p.backlog = p.backlog[1:]
			p.mu.Unlock()
			p.responses <- next
		}
	}()
}

func (p *fakePage) HTML(ctx context.Context) (string, error) { return p.html, nil }

func (p *fakePage) URL() string { return p.url }

func (p *fakePage) Responses() <-chan Response { return p.responses }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.responses)
	}
	return nil
}
