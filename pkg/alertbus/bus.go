// Package alertbus implements component H of spec.md §4.H: an unbounded
// single-queue, multi-producer/multi-consumer-by-fan-out carrier of
// SpoofingAlert records. FIFO is guaranteed per producer; global ordering
// across producers is not (spec.md §4.H).
//
// Grounded on gnssgo/rtksvr.go's ObsChannel/RbSolChannel (buffered Go
// channels as the cross-goroutine delivery primitive) and the original's
// concurrent_queue<Spoofing_Message>. spec.md §4.H's "never drop" policy
// rules out a fixed-capacity channel (a full buffered channel blocks or
// drops); the bus instead backs the queue with an unbounded slice guarded
// by a mutex and condition variable, matching spec.md §9's "shared
// pointers to messages broadcast to a graph of consumers -> immutable
// value records on a bounded channel, consumers clone on receive" rewrite,
// generalized to the unbounded case this component actually needs.
package alertbus

import (
	"sync"

	"gnssspoof/pkg/navdata"
)

// Sink receives every alert published to the bus, in delivery order.
// Implementations must not block for long (they run on the bus's single
// dispatch goroutine); slow sinks should buffer internally.
type Sink interface {
	Handle(alert navdata.SpoofingAlert)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(navdata.SpoofingAlert)

func (f SinkFunc) Handle(a navdata.SpoofingAlert) { f(a) }

// Bus is the alert queue. Zero value is not usable; use New.
type Bus struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []navdata.SpoofingAlert
	sinks   []Sink
	closed  bool
	stopped chan struct{}
}

// New returns a running bus dispatching to sinks. Call Close to stop the
// dispatch goroutine once no more alerts will be published.
func New(sinks ...Sink) *Bus {
	b := &Bus{sinks: sinks, stopped: make(chan struct{})}
	b.cond = sync.NewCond(&b.mu)
	go b.dispatchLoop()
	return b
}

// Publish enqueues alert for delivery to every sink. Never drops while the
// bus is open and never blocks the producer beyond the queue-append
// critical section (spec.md §4.H); an alert published after Close is
// discarded.
func (b *Bus) Publish(alert navdata.SpoofingAlert) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.queue = append(b.queue, alert)
	b.mu.Unlock()
	b.cond.Signal()
}

func (b *Bus) dispatchLoop() {
	for {
		b.mu.Lock()
		for len(b.queue) == 0 && !b.closed {
			b.cond.Wait()
		}
		if len(b.queue) == 0 && b.closed {
			b.mu.Unlock()
			close(b.stopped)
			return
		}
		alert := b.queue[0]
		b.queue = b.queue[1:]
		b.mu.Unlock()

		for _, s := range b.sinks {
			s.Handle(alert)
		}
	}
}

// Close stops accepting new alerts, drains the remaining queue to every
// sink, and returns once drained.
func (b *Bus) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Signal()
	<-b.stopped
}
