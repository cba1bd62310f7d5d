package health

import (
	"context"
	"errors"
	"sync"
	"time"
)

func dbUp() DatabaseProbe {
	return DatabaseProbeFunc(func(ctx context.Context) Result {
		return Up("database reachable")
	})
}

func dbDown(msg string) DatabaseProbe {
	return DatabaseProbeFunc(func(ctx context.Context) Result {
		return Down("database unreachable", errors.New(msg))
	})
}

// fakeEngine is a scripted Engine.
type fakeEngine struct {
	reachable   bool
	versions    []AppMetadata
	metadataErr error
	panicOnTest bool

	// snapshotFn overrides RecordSnapshot when set.
	snapshotFn func(ctx context.Context, s Snapshot) bool

	mu        sync.Mutex
	snapshots []Snapshot
}

func (f *fakeEngine) TestConnection(ctx context.Context) bool {
	if f.panicOnTest {
		panic("engine exploded")
	}
	return f.reachable
}

func (f *fakeEngine) Metadata(ctx context.Context, environment string) ([]AppMetadata, error) {
	if f.metadataErr != nil {
		return nil, f.metadataErr
	}
	return f.versions, nil
}

func (f *fakeEngine) RecordSnapshot(ctx context.Context, s Snapshot) bool {
	if f.snapshotFn != nil {
		return f.snapshotFn(ctx, s)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots = append(f.snapshots, s)
	return true
}

func (f *fakeEngine) recorded() []Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Snapshot, len(f.snapshots))
	copy(out, f.snapshots)
	return out
}

func engineProbe(e *fakeEngine) Probe[Engine] {
	return Configured[Engine](e)
}

func fastConfig() AggregatorConfig {
	return AggregatorConfig{
		ProbeTimeout:    200 * time.Millisecond,
		SnapshotTimeout: 200 * time.Millisecond,
	}
}
