package events

import (
	"context"
	"fmt"
	"sync"

	"github.com/smallbiznis/qzpay/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Handler consumes an event payload. A returned error is reported and does
// not stop delivery to later subscribers.
type Handler func(ctx context.Context, payload Payload) error

// Subscription identifies a registered handler for Off.
type Subscription struct {
	eventType Type
	id        uint64
}

type entry struct {
	id   uint64
	once bool
	fn   Handler
}

// Bus dispatches events synchronously relative to the mutation that
// triggered them: Publish returns only after every handler has run, so a
// handler observing customer.created sees a fully committed record.
type Bus struct {
	log     *zap.Logger
	metrics *metrics.Metrics

	mu       sync.Mutex
	nextID   uint64
	handlers map[Type][]entry
}

type BusParam struct {
	fx.In

	Log     *zap.Logger
	Metrics *metrics.Metrics `optional:"true"`
}

// NewBus provides the event bus through fx.
func NewBus(p BusParam) *Bus {
	return New(p.Log, p.Metrics)
}

// New builds a bus directly; tests pass zap.NewNop().
func New(log *zap.Logger, m *metrics.Metrics) *Bus {
	return &Bus{
		log:      log.Named("events.bus"),
		metrics:  m,
		handlers: map[Type][]entry{},
	}
}

// On registers a handler for an event type and returns its subscription handle.
func (b *Bus) On(eventType Type, fn Handler) Subscription {
	return b.subscribe(eventType, fn, false)
}

// Once registers a handler delivered at most once; it unsubscribes itself
// after the first delivery.
func (b *Bus) Once(eventType Type, fn Handler) Subscription {
	return b.subscribe(eventType, fn, true)
}

// Off removes a subscription. Removing an already-removed subscription is a
// no-op.
func (b *Bus) Off(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := b.handlers[sub.eventType]
	for i, e := range entries {
		if e.id == sub.id {
			b.handlers[sub.eventType] = append(entries[:i:i], entries[i+1:]...)
			return
		}
	}
}

func (b *Bus) subscribe(eventType Type, fn Handler, once bool) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], entry{
		id:   b.nextID,
		once: once,
		fn:   fn,
	})
	return Subscription{eventType: eventType, id: b.nextID}
}

// Publish delivers the payload to every subscriber of its type, in subscribe
// order. A throwing handler is logged and must not prevent delivery to the
// others, nor roll back the mutation that already happened.
func (b *Bus) Publish(ctx context.Context, payload Payload) {
	if payload == nil {
		return
	}
	eventType := payload.EventType()

	b.mu.Lock()
	entries := b.handlers[eventType]
	snapshot := make([]entry, len(entries))
	copy(snapshot, entries)

	remaining := entries[:0]
	for _, e := range entries {
		if !e.once {
			remaining = append(remaining, e)
		}
	}
	b.handlers[eventType] = remaining
	b.mu.Unlock()

	if b.metrics != nil {
		b.metrics.EventsPublished.WithLabelValues(string(eventType)).Inc()
	}

	for _, e := range snapshot {
		b.deliver(ctx, eventType, payload, e.fn)
	}
}

func (b *Bus) deliver(ctx context.Context, eventType Type, payload Payload, fn Handler) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked",
				zap.String("event_type", string(eventType)),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	if err := fn(ctx, payload); err != nil {
		b.log.Warn("event handler failed",
			zap.String("event_type", string(eventType)),
			zap.Error(err),
		)
	}
}
