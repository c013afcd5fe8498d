// Package messaging delivers domain events to in-process handlers and fans
// them out to external buses.
package messaging

import (
	"context"
	"errors"
	"sync"

	"warrantboard/application/ports"
	"warrantboard/domain/events"

	"go.uber.org/zap"
)

// AllEvents subscribes a handler to every event type.
const AllEvents = "*"

// Handler reacts to one delivered event.
type Handler func(ctx context.Context, event events.DomainEvent) error

// LocalBus logs every event and dispatches it to local handlers.
// Handler failures are logged and never returned to the publisher.
type LocalBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewLocalBus creates a bus with no handlers.
func NewLocalBus(logger *zap.Logger) *LocalBus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalBus{handlers: make(map[string][]Handler), logger: logger}
}

// Subscribe registers h for eventType, or for every type with AllEvents.
func (b *LocalBus) Subscribe(eventType string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], h)
}

// Publish dispatches a single event
func (b *LocalBus) Publish(ctx context.Context, event events.DomainEvent) error {
	b.logger.Info("Domain event",
		zap.String("eventType", event.GetEventType()),
		zap.String("aggregateID", event.GetAggregateID()),
		zap.Time("timestamp", event.GetTimestamp()),
	)

	b.mu.RLock()
	handlers := append(append([]Handler(nil), b.handlers[event.GetEventType()]...), b.handlers[AllEvents]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.Warn("Failed to dispatch event locally",
				zap.String("eventType", event.GetEventType()),
				zap.String("aggregateID", event.GetAggregateID()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// PublishBatch dispatches events in order.
func (b *LocalBus) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	for _, e := range evts {
		if err := b.Publish(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Fanout publishes to every target and joins their errors.
type Fanout []ports.EventPublisher

func (f Fanout) Publish(ctx context.Context, event events.DomainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishBatch(ctx, evts); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
