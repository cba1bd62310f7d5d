package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/jonwraymond/healthgate/observe"
)

// Bus is an in-process event registry.
//
// Contract:
//   - Concurrency: all methods are safe for concurrent use.
//   - Ordering: handlers are started in registration order; completion order
//     is unspecified.
//   - Errors: Emit never returns a handler failure.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]*Subscription
	opts     options
}

// New creates an empty bus.
func New(opts ...Option) *Bus {
	o := options{
		logger:  observe.NewNopLogger(),
		tracer:  observe.NewNoopTracer(),
		metrics: observe.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Bus{
		handlers: make(map[string][]*Subscription),
		opts:     o,
	}
}

// Subscribe registers handler for eventType and returns its subscription.
// A nil handler is ignored and yields a nil subscription.
func (b *Bus) Subscribe(eventType string, handler Handler) *Subscription {
	if handler == nil {
		return nil
	}
	sub := &Subscription{eventType: eventType, handler: handler}

	b.mu.Lock()
	b.handlers[eventType] = append(b.handlers[eventType], sub)
	b.mu.Unlock()
	return sub
}

// Unsubscribe removes sub from eventType. It reports whether a registration
// was removed.
func (b *Bus) Unsubscribe(eventType string, sub *Subscription) bool {
	if sub == nil {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.handlers[eventType]
	for i, s := range subs {
		if s != sub {
			continue
		}
		// Copy so snapshots taken by in-flight emits stay intact.
		next := make([]*Subscription, 0, len(subs)-1)
		next = append(next, subs[:i]...)
		next = append(next, subs[i+1:]...)
		if len(next) == 0 {
			delete(b.handlers, eventType)
		} else {
			b.handlers[eventType] = next
		}
		return true
	}
	return false
}

// ListenerCount returns the number of registrations for eventType.
func (b *Bus) ListenerCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// RemoveAllListeners drops every registration for eventType.
func (b *Bus) RemoveAllListeners(eventType string) {
	b.mu.Lock()
	delete(b.handlers, eventType)
	b.mu.Unlock()
}

// Emit delivers a new event to every handler registered for eventType and
// waits for all of them. Registrations added or removed during delivery
// affect later emits only.
func (b *Bus) Emit(ctx context.Context, eventType string, data any) Event {
	event := NewEvent(eventType, data)
	b.Publish(ctx, event)
	return event
}

// Publish delivers a pre-built event. See Emit.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	subs := b.handlers[event.Type]
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.opts.metrics.RecordEmit(ctx, event.Type, 0, 0)
		return
	}

	ctx, span := b.opts.tracer.StartSpan(ctx, observe.Operation{
		Kind:   "eventbus",
		Name:   "emit",
		Target: event.Type,
	})

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	wg.Add(len(subs))
	for i, sub := range subs {
		go func() {
			defer wg.Done()
			if err := invoke(ctx, sub.handler, event); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
				b.report(ctx, event, i, err)
			}
		}()
	}
	wg.Wait()

	var spanErr error
	if failures > 0 {
		spanErr = fmt.Errorf("%d of %d handlers failed", failures, len(subs))
	}
	b.opts.tracer.EndSpan(span, spanErr)
	b.opts.metrics.RecordEmit(ctx, event.Type, len(subs), failures)
}

func invoke(ctx context.Context, h Handler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return h(ctx, event)
}

func (b *Bus) report(ctx context.Context, event Event, index int, err error) {
	b.opts.logger.Error(ctx, "event handler failed",
		observe.Field{Key: "event_type", Value: event.Type},
		observe.Field{Key: "event_id", Value: event.ID.String()},
		observe.Field{Key: "handler", Value: index},
		observe.Field{Key: "error", Value: err},
	)
	if b.opts.errorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.opts.logger.Error(ctx, "event error handler panicked",
				observe.Field{Key: "event_type", Value: event.Type},
				observe.Field{Key: "panic", Value: fmt.Sprint(r)},
			)
		}
	}()
	b.opts.errorHandler(event, err)
}
