package store

import "context"

// Listener is called with every event after it has been stored.
type Listener func(ctx context.Context, event Event)

// ObservedEventStore notifies listeners of each successful Append, in
// registration order, before Append returns.
type ObservedEventStore struct {
	EventStoreInterface
	listeners []Listener
}

func NewObservedEventStore(inner EventStoreInterface, listeners ...Listener) *ObservedEventStore {
	return &ObservedEventStore{EventStoreInterface: inner, listeners: listeners}
}

// Subscribe adds a listener. It is not safe to call concurrently with Append.
func (o *ObservedEventStore) Subscribe(l Listener) {
	o.listeners = append(o.listeners, l)
}

func (o *ObservedEventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	event, err := o.EventStoreInterface.Append(ctx, aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}
	for _, l := range o.listeners {
		l(ctx, *event)
	}
	return event, nil
}

// PublishListener forwards events to a publisher. Failures go to onErr; the
// event is already durable at that point.
func PublishListener(p Publisher, onErr func(Event, error)) Listener {
	return func(ctx context.Context, event Event) {
		if err := p.Publish(ctx, event.AggregateID, event); err != nil && onErr != nil {
			onErr(event, err)
		}
	}
}
