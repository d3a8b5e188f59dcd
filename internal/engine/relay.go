package engine

import (
	"sync"

	"github.com/law-makers/scrollgrab/internal/discovery"
)

// Relay turns non-blocking pushes from a CDP event callback into a channel.
// Pushes never block and are never dropped while the relay is open; an
// unbounded queue sits between the callback and the consumer.
type Relay struct {
	mu     sync.Mutex
	queue  []discovery.Response
	closed bool

	wake chan struct{}
	done chan struct{}
	out  chan discovery.Response
}

// NewRelay creates a relay and starts its pump
func NewRelay() *Relay {
	r := &Relay{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan discovery.Response),
	}
	go r.pump()
	return r
}

// Push enqueues resp. It is a no-op after Close.
func (r *Relay) Push(resp discovery.Response) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, resp)
	r.mu.Unlock()

	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// C returns the consumer side. It is closed after Close.
func (r *Relay) C() <-chan discovery.Response {
	return r.out
}

// Close stops the pump; undelivered responses are discarded
func (r *Relay) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()
	close(r.done)
}

// Pending returns the number of queued, undelivered responses
func (r *Relay) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Relay) pump() {
	defer close(r.out)
	for {
		r.mu.Lock()
		if len(r.queue) == 0 {
			r.mu.Unlock()
			select {
			case <-r.wake:
				continue
			case <-r.done:
				return
			}
		}
		next := r.queue[0]
		r.queue[0] = discovery.Response{}
		r.queue = r.queue[1:]
		r.mu.Unlock()

		select {
		case r.out <- next:
		case <-r.done:
			return
		}
	}
}
