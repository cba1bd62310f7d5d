// Package activity records an append-only log of gateway events.
//
// Entries are written to the GraphQL engine when it is configured and to
// postgres directly otherwise. Every successful write is announced on the
// event bus.
package activity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// MaxActionLength is the storage limit of an action.
const MaxActionLength = 100

// Sentinel errors.
var (
	ErrEmptyAction   = errors.New("activity: action is required")
	ErrActionTooLong = errors.New("activity: action exceeds 100 characters")
	ErrNoActions     = errors.New("activity: at least one action is required")
	ErrNoStore       = errors.New("activity: no store available")
)

// Activity is one log entry.
type Activity struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
}

// Stats summarizes entries since a point in time.
type Stats struct {
	Total   int       `json:"total"`
	Since   time.Time `json:"since"`
	Actions []string  `json:"actions"`
}

// Store persists activities.
type Store interface {
	Create(ctx context.Context, action string) (Activity, error)
	CreateMany(ctx context.Context, actions []string) ([]Activity, error)
	Recent(ctx context.Context, limit int) ([]Activity, error)
	Stats(ctx context.Context, since time.Time) (Stats, error)
	Count(ctx context.Context) (int, error)
}

// BulkCreated is the payload of the bulk event.
type BulkCreated struct {
	Count      int        `json:"count"`
	Activities []Activity `json:"activities"`
}
