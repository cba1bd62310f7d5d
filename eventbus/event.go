package eventbus

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the gateway.
const (
	TypeActivityCreated     = "activity.created"
	TypeActivityBulkCreated = "activity.bulk_created"
)

// Event is a single published occurrence.
type Event struct {
	ID         uuid.UUID `json:"id"`
	Type       string    `json:"type"`
	Data       any       `json:"data"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewEvent stamps a new event with a random ID and the current time.
func NewEvent(eventType string, data any) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}
}

// Handler processes an event. A returned error is reported, not propagated.
type Handler func(ctx context.Context, event Event) error

// Subscription identifies one handler registration.
type Subscription struct {
	eventType string
	handler   Handler
}

// EventType returns the type the subscription is registered for.
func (s *Subscription) EventType() string {
	return s.eventType
}
