package bus

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aegisops/aegisd/pkg/logging"
	"github.com/aegisops/aegisd/services/events"
)

const (
	maintenanceInterval = 60 * time.Second
	ackSetCap           = 5_000
	ackSetTrimTo        = 2_500
)

// Bus is a per-actor mailbox store. All methods are safe for concurrent use.
type Bus struct {
	mu        sync.Mutex
	mailboxes map[string][]Message
	acked     map[string]struct{}
	ackOrder  []string

	logger *logging.Logger
	events *events.Bus

	done chan struct{}
}

func New(logger *logging.Logger, eventBus *events.Bus) *Bus {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bus{
		mailboxes: make(map[string][]Message),
		acked:     make(map[string]struct{}),
		logger:    logger,
		events:    eventBus,
	}
}

// Start launches the background maintenance loop that expires messages
// every maintenanceInterval. Mirrors the daemon's ticker-plus-done-channel
// shutdown shape used by its other periodic jobs.
func (b *Bus) Start() {
	b.done = make(chan struct{})
	go b.maintenanceLoop()
}

// Stop halts the maintenance loop. Idempotent.
func (b *Bus) Stop() {
	if b.done == nil {
		return
	}
	select {
	case <-b.done:
	default:
		close(b.done)
	}
}

func (b *Bus) maintenanceLoop() {
	ticker := time.NewTicker(maintenanceInterval)
	defer ticker.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-ticker.C:
			b.sweepExpired()
		}
	}
}

func (b *Bus) sweepExpired() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	for actor, msgs := range b.mailboxes {
		kept := msgs[:0]
		for _, m := range msgs {
			if m.Acknowledged || m.expired(now) {
				if !m.Acknowledged {
					b.logger.Debug("bus.message.expired", "actor", actor, "id", m.ID)
					if b.events != nil {
						b.events.Emit(events.Event{Kind: events.KindBusExpired, Source: "bus", Payload: map[string]any{"id": m.ID, "actor": actor}})
					}
				}
				continue
			}
			kept = append(kept, m)
		}
		b.mailboxes[actor] = kept
	}
}

// RegisterActor ensures actor has a mailbox, creating an empty one if
// necessary.
func (b *Bus) RegisterActor(actor string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.mailboxes[actor]; !ok {
		b.mailboxes[actor] = nil
	}
}

// Send enqueues payload into to's mailbox.
func (b *Bus) Send(from, to string, payload map[string]any, ttlMs int64) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		FromActor: from,
		ToActor:   to,
		Kind:      KindRequest,
		Payload:   payload,
		Timestamp: time.Now(),
		TTLMs:     ttlMs,
	}
	b.enqueue(to, msg)
	return msg, nil
}

// Respond finds the referenced message across all mailboxes, acknowledges
// it, and sends a reply to its original sender.
func (b *Bus) Respond(originalID, from string, payload map[string]any, ttlMs int64) (Message, error) {
	b.mu.Lock()
	var original *Message
	for _, msgs := range b.mailboxes {
		for i := range msgs {
			if msgs[i].ID == originalID {
				original = &msgs[i]
				break
			}
		}
		if original != nil {
			break
		}
	}
	if original == nil {
		b.mu.Unlock()
		return Message{}, fmt.Errorf("bus: no message found with id %q", originalID)
	}
	original.Acknowledged = true
	replyTo := original.FromActor
	b.mu.Unlock()

	reply := Message{
		ID:        uuid.NewString(),
		FromActor: from,
		ToActor:   replyTo,
		Kind:      KindResponse,
		Payload:   payload,
		Timestamp: time.Now(),
		TTLMs:     ttlMs,
		InReplyTo: originalID,
	}
	b.enqueue(replyTo, reply)
	return reply, nil
}

// Broadcast enqueues payload into every registered mailbox except from's.
func (b *Bus) Broadcast(from string, payload map[string]any, ttlMs int64) (Message, error) {
	msg := Message{
		ID:        uuid.NewString(),
		FromActor: from,
		ToActor:   BroadcastActor,
		Kind:      KindBroadcast,
		Payload:   payload,
		Timestamp: time.Now(),
		TTLMs:     ttlMs,
	}

	b.mu.Lock()
	for actor := range b.mailboxes {
		if actor == from {
			continue
		}
		b.mailboxes[actor] = append(b.mailboxes[actor], msg)
	}
	b.mu.Unlock()

	if b.events != nil {
		b.events.Emit(events.Event{Kind: events.KindBusBroadcast, Source: from, Payload: map[string]any{"id": msg.ID}})
	}
	return msg, nil
}

func (b *Bus) enqueue(to string, msg Message) {
	b.mu.Lock()
	b.mailboxes[to] = append(b.mailboxes[to], msg)
	b.mu.Unlock()
}

// Receive is a non-destructive peek at actor's unacknowledged, unexpired
// messages, up to limit.
func (b *Bus) Receive(actor string, limit int) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	var out []Message
	for _, m := range b.mailboxes[actor] {
		if m.Acknowledged || m.expired(now) {
			continue
		}
		out = append(out, m)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Consume peeks like Receive and acknowledges every message it returns.
func (b *Bus) Consume(actor string, limit int) []Message {
	msgs := b.Receive(actor, limit)
	for _, m := range msgs {
		b.Acknowledge(m.ID)
	}
	return msgs
}

// Acknowledge marks id delivered across all mailboxes.
func (b *Bus) Acknowledge(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for actor, msgs := range b.mailboxes {
		for i := range msgs {
			if msgs[i].ID == id {
				msgs[i].Acknowledged = true
				b.mailboxes[actor] = msgs
			}
		}
	}

	if _, ok := b.acked[id]; !ok {
		b.acked[id] = struct{}{}
		b.ackOrder = append(b.ackOrder, id)
		if len(b.ackOrder) > ackSetCap {
			drop := b.ackOrder[:len(b.ackOrder)-ackSetTrimTo]
			for _, d := range drop {
				delete(b.acked, d)
			}
			b.ackOrder = append([]string(nil), b.ackOrder[len(b.ackOrder)-ackSetTrimTo:]...)
		}
	}
}

// GetQueueDepth returns actor's unacknowledged message count.
func (b *Bus) GetQueueDepth(actor string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	depth := 0
	for _, m := range b.mailboxes[actor] {
		if !m.Acknowledged {
			depth++
		}
	}
	return depth
}
