package event_bus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/finman/finman/internal/utils"
	log "github.com/sirupsen/logrus"
)

type EventType string

// Event is the untyped envelope carried by the bus.
type Event struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      any
}

// NewEvent wraps data for publishing. The timestamp is set by the bus clock on Publish.
func NewEvent(ctx context.Context, eventType EventType, data any) Event {
	return Event{
		ctx:  ctx,
		Type: eventType,
		Data: data,
	}
}

// Context returns the context of the publisher, carrying the current user and cancellation.
func (e Event) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

// EventT is the envelope passed to typed handlers.
type EventT[T any] struct {
	ctx       context.Context
	Type      EventType
	Timestamp time.Time
	Data      T
}

func (e EventT[T]) Context() context.Context {
	if e.ctx == nil {
		return context.Background()
	}
	return e.ctx
}

type handler func(Event) error

type subscription struct {
	id uint64
	h  handler
}

// EventBus dispatches events synchronously to the handlers subscribed to their type.
type EventBus struct {
	mu    sync.RWMutex
	subs  map[EventType][]subscription
	seq   uint64
	clock utils.Clock
}

func NewEventBus(clock utils.Clock) *EventBus {
	if clock == nil {
		clock = utils.SystemClock{}
	}
	return &EventBus{
		subs:  make(map[EventType][]subscription),
		clock: clock,
	}
}

// Subscribe appends h to the handlers of eventType and returns a function removing it again.
func (eb *EventBus) Subscribe(eventType EventType, h func(Event) error) (unsubscribe func()) {
	eb.mu.Lock()
	eb.seq++
	sub := subscription{id: eb.seq, h: h}
	eb.subs[eventType] = append(eb.subs[eventType], sub)
	eb.mu.Unlock()

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()
		remaining := slices.DeleteFunc(eb.subs[eventType], func(s subscription) bool { return s.id == sub.id })
		if len(remaining) == 0 {
			delete(eb.subs, eventType)
			return
		}
		eb.subs[eventType] = remaining
	}
}

// SubscribeTyped registers a handler for payloads of type T. Events whose payload is nil or
// of another type are ignored. It is a free function since methods cannot take type parameters.
//
//	unsub := event_bus.SubscribeTyped(bus, event_bus.BudgetThresholdExceededType,
//	    func(e event_bus.EventT[event_bus.BudgetThresholdExceeded]) error {
//	        log.Infof("user %d crossed the threshold of budget %s", e.Data.UserId, e.Data.BudgetName)
//	        return nil
//	    })
func SubscribeTyped[T any](eb *EventBus, eventType EventType, h func(EventT[T]) error) (unsubscribe func()) {
	return eb.Subscribe(eventType, func(e Event) error {
		payload, ok := e.Data.(T)
		if !ok {
			log.Debugf("EventBus: skipping %s, expected payload %T, got %T", eventType, *new(T), e.Data)
			return nil
		}
		return h(EventT[T]{
			ctx:       e.ctx,
			Type:      e.Type,
			Timestamp: e.Timestamp,
			Data:      payload,
		})
	})
}

// Publish runs the handlers of e.Type in subscription order. A failing or panicking handler
// does not stop the others; their errors are joined. Cancellation of the event context
// skips the remaining handlers.
func (eb *EventBus) Publish(e Event) error {
	if err := e.Context().Err(); err != nil {
		return fmt.Errorf("event %s: context cancelled before publish: %w", e.Type, err)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = eb.clock.Now()
	}

	eb.mu.RLock()
	subs := slices.Clone(eb.subs[e.Type])
	eb.mu.RUnlock()

	var errs []error
	for _, sub := range subs {
		if err := e.Context().Err(); err != nil {
			errs = append(errs, fmt.Errorf("context cancelled during event processing: %w", err))
			break
		}
		if err := invoke(sub, e); err != nil {
			log.Errorf("EventBus: handler %d failed for event %s: %v", sub.id, e.Type, err)
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("event %s: %d handler(s) failed: %w", e.Type, len(errs), errors.Join(errs...))
	}
	return nil
}

func invoke(sub subscription, e Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler %d panicked on event %s: %v", sub.id, e.Type, r)
		}
	}()
	return sub.h(e)
}
