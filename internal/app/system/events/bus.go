package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/puzpuzpuz/xsync/v4"
	"go.uber.org/zap"
)

// DefaultSubscriberBuffer is used when Subscribe is given a non-positive size.
const DefaultSubscriberBuffer = 64

// Sink forwards encoded events outside the process.
type Sink interface {
	Name() string
	Send(ctx context.Context, event string, body []byte) error
}

// Bus fans events out to in-process subscribers and configured sinks.
//
// Publish never blocks on a subscriber: a subscriber whose buffer is full
// misses the event and the drop is counted. Sinks are called synchronously
// and their errors are returned to the publisher, which decides what to do
// with them.
type Bus struct {
	subscribers *xsync.Map[uint64, *subscriber]
	nextID      atomic.Uint64
	dropped     atomic.Uint64
	published   atomic.Uint64
	closed      atomic.Bool

	sinks []Sink
	log   *zap.Logger
}

// NewBus creates a bus delivering to sinks in the given order.
func NewBus(logger *zap.Logger, sinks ...Sink) *Bus {
	return &Bus{
		subscribers: xsync.NewMap[uint64, *subscriber](),
		sinks:       sinks,
		log:         logger,
	}
}

// Subscribe returns a channel receiving every event published from now on,
// and a function that unsubscribes and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = DefaultSubscriberBuffer
	}
	id := b.nextID.Add(1)
	sub := &subscriber{ch: make(chan Event, buffer)}
	if b.closed.Load() {
		sub.close()
		return sub.ch, func() {}
	}
	b.subscribers.Store(id, sub)
	// A Close that ran between the check above and Store missed sub.
	if b.closed.Load() {
		b.subscribers.Delete(id)
		sub.close()
		return sub.ch, func() {}
	}

	return sub.ch, func() {
		if s, ok := b.subscribers.LoadAndDelete(id); ok {
			s.close()
		}
	}
}

// Publish delivers ev to subscribers, then to each sink. The returned error
// joins every sink failure; subscribers are served regardless.
func (b *Bus) Publish(ctx context.Context, ev Event) error {
	if b.closed.Load() {
		return errors.New("event bus closed")
	}
	b.published.Add(1)

	b.subscribers.Range(func(_ uint64, s *subscriber) bool {
		if !s.trySend(ev) {
			b.dropped.Add(1)
		}
		return true
	})

	if len(b.sinks) == 0 {
		return nil
	}

	body, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Name, err)
	}

	var errs []error
	for _, s := range b.sinks {
		if err := s.Send(ctx, ev.Name, body); err != nil {
			b.log.Warn("event sink send failed",
				zap.String("sink", s.Name()),
				zap.String("event", ev.Name),
				zap.String("event_id", ev.ID),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Subscribers returns the number of live subscribers.
func (b *Bus) Subscribers() int {
	return b.subscribers.Size()
}

// Dropped returns how many subscriber deliveries were skipped because a
// buffer was full.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// Published returns how many events were accepted by Publish.
func (b *Bus) Published() uint64 {
	return b.published.Load()
}

// Close closes every subscriber channel. Later publishes fail.
func (b *Bus) Close() {
	if !b.closed.CompareAndSwap(false, true) {
		return
	}
	b.subscribers.Range(func(id uint64, s *subscriber) bool {
		b.subscribers.Delete(id)
		s.close()
		return true
	})
}
