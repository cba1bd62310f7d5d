package health

import (
	"context"
	"time"
)

// Component names used in reports and snapshots.
const (
	ComponentDatabase      = "database"
	ComponentGraphQLEngine = "graphql_engine"
	ComponentTotal         = "total"
)

// DatabaseProbe reports connectivity of the primary relational store.
// Implementations should convert every failure into a down Result.
type DatabaseProbe interface {
	CheckConnection(ctx context.Context) Result
}

// DatabaseProbeFunc adapts a function to DatabaseProbe.
type DatabaseProbeFunc func(ctx context.Context) Result

// CheckConnection calls f(ctx).
func (f DatabaseProbeFunc) CheckConnection(ctx context.Context) Result {
	return f(ctx)
}

// Engine is the GraphQL engine collaborator. The query documents behind these
// calls belong to the implementation.
type Engine interface {
	// TestConnection reports whether the engine answers a lightweight query.
	TestConnection(ctx context.Context) bool

	// Metadata returns deployed component versions for an environment.
	Metadata(ctx context.Context, environment string) ([]AppMetadata, error)

	// RecordSnapshot persists a report snapshot. It is best-effort.
	RecordSnapshot(ctx context.Context, snapshot Snapshot) bool
}

// AppMetadata describes a deployed component version.
type AppMetadata struct {
	Component  string         `json:"component"`
	Version    string         `json:"version"`
	DeployedAt time.Time      `json:"deployed_at"`
	GitCommit  string         `json:"git_commit,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Probe holds a collaborator handle that is either configured or unavailable.
// It is resolved once at startup so call sites branch on availability instead
// of checking for nil.
type Probe[T any] struct {
	handle T
	ok     bool
}

// Configured wraps an available collaborator.
func Configured[T any](handle T) Probe[T] {
	return Probe[T]{handle: handle, ok: true}
}

// Unavailable returns a probe with no collaborator behind it.
func Unavailable[T any]() Probe[T] {
	return Probe[T]{}
}

// Handle returns the collaborator and whether it is configured.
func (p Probe[T]) Handle() (T, bool) {
	return p.handle, p.ok
}

// Available reports whether the probe is configured.
func (p Probe[T]) Available() bool {
	return p.ok
}
