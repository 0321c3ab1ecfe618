package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event represents a domain event
type Event struct {
	ID            string          `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     string          `json:"event_type"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
}

// NewEvent builds an unversioned event envelope, used for events that are
// published without being journaled.
func NewEvent(aggregateID, aggregateType, eventType string, data any) (Event, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:            uuid.New().String(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
	}, nil
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}

// EventStore keeps events in memory.
type EventStore struct {
	mu       sync.RWMutex
	events   map[string][]Event // aggregateID -> events
	sequence int
	order    map[string]int // eventID -> global sequence
}

func NewEventStore() *EventStore {
	return &EventStore{
		events: make(map[string][]Event),
		order:  make(map[string]int),
	}
}

// Append stores an event
func (es *EventStore) Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error) {
	event, err := NewEvent(aggregateID, aggregateType, eventType, data)
	if err != nil {
		return nil, err
	}

	es.mu.Lock()
	event.Version = len(es.events[aggregateID]) + 1
	es.events[aggregateID] = append(es.events[aggregateID], event)
	es.sequence++
	es.order[event.ID] = es.sequence
	es.mu.Unlock()

	return &event, nil
}

// GetEvents returns all events for an aggregate
func (es *EventStore) GetEvents(ctx context.Context, aggregateID string) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return append([]Event(nil), es.events[aggregateID]...), nil
}

// GetAllEvents returns all events in append order
func (es *EventStore) GetAllEvents(ctx context.Context) ([]Event, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()

	var all []Event
	for _, events := range es.events {
		all = append(all, events...)
	}
	sort.Slice(all, func(i, j int) bool {
		return es.order[all[i].ID] < es.order[all[j].ID]
	})
	return all, nil
}
