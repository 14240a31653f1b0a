package events

import (
	"sync"
	"time"
)

// Subscriber receives events emitted after it subscribes. Handlers run
// synchronously on the emitter's goroutine per emitter, which is what
// gives per-emitter FIFO ordering; cross-emitter ordering is not
// guaranteed since two emitters may call Emit concurrently from different
// goroutines.
type Subscriber func(Event)

// Bus is a process-local publish/subscribe dispatcher.
type Bus struct {
	mu          sync.Mutex
	subscribers []Subscriber
}

func New() *Bus {
	return &Bus{}
}

// Subscribe registers fn to receive every future event.
func (b *Bus) Subscribe(fn Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subscribers = append(b.subscribers, fn)
}

// Emit stamps e with the current time (if unset) and delivers it to every
// subscriber in registration order, on the calling goroutine.
func (b *Bus) Emit(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	b.mu.Lock()
	subs := make([]Subscriber, len(b.subscribers))
	copy(subs, b.subscribers)
	b.mu.Unlock()

	for _, sub := range subs {
		sub(e)
	}
}
