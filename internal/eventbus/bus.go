package eventbus

import (
	"sync"

	"github.com/rs/zerolog/log"

	"matchcore/internal/common"
)

const defaultSubscriberBuffer = 256

// subscriber is one bounded delivery channel plus its own drop counter,
// the per-subscriber state the drop-oldest policy needs (§4.7: "a slow
// subscriber never blocks publication; instead the bus drops the
// subscriber's oldest buffered event").
type subscriber struct {
	ch      chan Event
	dropped uint64
}

// Bus is the non-blocking event bus: Publish never blocks on a slow
// subscriber, and every subscriber gets its own bounded channel so one
// slow reader cannot starve the others. Grounded on the fan-out shape
// implicit in the teacher's `Server.ReportTrade` (one event, multiple
// recipients) generalized from "the two trade counterparties" to
// "every registered subscriber," since an in-process bus has no fixed
// recipient set.
type Bus struct {
	mu          sync.Mutex
	subscribers map[int]*subscriber
	nextID      int
	sequences   map[common.InstrumentID]uint64
	bufferSize  int
}

// New creates a Bus whose subscriber channels are sized bufferSize (or
// defaultSubscriberBuffer, if bufferSize <= 0).
func New(bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = defaultSubscriberBuffer
	}
	return &Bus{
		subscribers: make(map[int]*subscriber),
		sequences:   make(map[common.InstrumentID]uint64),
		bufferSize:  bufferSize,
	}
}

// Subscription is a handle returned by Subscribe; callers range over
// Events() and call Close() when done.
type Subscription struct {
	id  int
	bus *Bus
	ch  chan Event
}

// Events returns the channel to receive published events on.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
}

// Subscribe registers a new subscriber and returns its handle.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	sub := &subscriber{ch: make(chan Event, b.bufferSize)}
	b.subscribers[id] = sub
	return &Subscription{id: id, bus: b, ch: sub.ch}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subscribers[id]; ok {
		close(sub.ch)
		delete(b.subscribers, id)
	}
}

// Publish assigns the next sequence number for event.InstrumentID and
// fans the event out to every subscriber, dropping each slow
// subscriber's oldest buffered event rather than blocking (§4.7).
func (b *Bus) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sequences[event.InstrumentID]++
	event.Sequence = b.sequences[event.InstrumentID]

	for id, sub := range b.subscribers {
		b.deliver(id, sub, event)
	}
}

func (b *Bus) deliver(id int, sub *subscriber, event Event) {
	select {
	case sub.ch <- event:
		return
	default:
	}

	// Channel full: drop the oldest buffered events to make room for a
	// SubscriberLagged marker followed by the event itself, so the
	// subscriber can detect the gap (§4.7). A buffer of one only has
	// room for the marker, and the event is then lost.
	room := 2
	if cap(sub.ch) < room {
		room = cap(sub.ch)
	}
	for len(sub.ch) > cap(sub.ch)-room {
		select {
		case <-sub.ch:
			sub.dropped++
		default:
		}
	}
	lag := Event{
		InstrumentID: event.InstrumentID,
		Kind:         SubscriberLagged,
		Timestamp:    event.Timestamp,
		LaggedCount:  sub.dropped,
	}
	select {
	case sub.ch <- lag:
	default:
		log.Warn().Int("subscriberID", id).Msg("subscriber channel full even after drop, event lost")
	}
	select {
	case sub.ch <- event:
	default:
		log.Warn().Int("subscriberID", id).Msg("subscriber channel full after lag marker, event lost")
	}
}
