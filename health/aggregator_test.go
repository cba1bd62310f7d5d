package health

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(dbUp(), Unavailable[Engine](), AggregatorConfig{})
	cfg := agg.Config()

	if cfg.ProbeTimeout != 5*time.Second {
		t.Errorf("ProbeTimeout = %v, want 5s", cfg.ProbeTimeout)
	}
	if cfg.SnapshotTimeout != 10*time.Second {
		t.Errorf("SnapshotTimeout = %v, want 10s", cfg.SnapshotTimeout)
	}
	if cfg.MaxPendingSnapshots != 4 {
		t.Errorf("MaxPendingSnapshots = %d, want 4", cfg.MaxPendingSnapshots)
	}
	if cfg.Environment != "production" {
		t.Errorf("Environment = %q, want production", cfg.Environment)
	}
}

func TestAggregator_RegisterUnregister(t *testing.T) {
	agg := NewAggregator(dbUp(), Unavailable[Engine](), fastConfig())

	agg.Register(NewUptimeChecker(time.Now()))
	agg.Register(NewHeapChecker(HeapCheckerConfig{}))
	agg.Register(NewUptimeChecker(time.Now()))

	names := agg.CheckerNames()
	if len(names) != 2 || names[0] != "uptime" || names[1] != "memory_heap" {
		t.Fatalf("CheckerNames() = %v, want [uptime memory_heap]", names)
	}

	agg.Unregister("uptime")
	names = agg.CheckerNames()
	if len(names) != 1 || names[0] != "memory_heap" {
		t.Errorf("CheckerNames() after Unregister = %v, want [memory_heap]", names)
	}
}

func TestAggregator_Precedence(t *testing.T) {
	tests := []struct {
		dbUp       bool
		engineUp   bool
		wantStatus Status
	}{
		{true, true, StatusUp},
		{true, false, StatusDegraded},
		{false, true, StatusDown},
		{false, false, StatusDown},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("db=%v/engine=%v", tt.dbUp, tt.engineUp), func(t *testing.T) {
			db := dbUp()
			if !tt.dbUp {
				db = dbDown("connection refused")
			}
			engine := &fakeEngine{reachable: tt.engineUp}
			agg := NewAggregator(db, engineProbe(engine), fastConfig())

			for i := 0; i < 3; i++ {
				report, err := agg.CheckHealth(context.Background())
				if err != nil {
					t.Fatalf("CheckHealth() error = %v", err)
				}
				if report.Status != tt.wantStatus {
					t.Errorf("run %d: Status = %v, want %v", i, report.Status, tt.wantStatus)
				}
			}
			agg.Wait()
		})
	}
}

func TestAggregator_DatabaseDownEngineUp(t *testing.T) {
	engine := &fakeEngine{reachable: true}
	agg := NewAggregator(dbDown("connection refused"), engineProbe(engine), fastConfig())

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	agg.Wait()

	if report.Status != StatusDown {
		t.Errorf("Status = %v, want down", report.Status)
	}
	if report.Errors[ComponentDatabase] != "connection refused" {
		t.Errorf("Errors[database] = %q, want connection refused", report.Errors[ComponentDatabase])
	}
	if report.Components[ComponentGraphQLEngine] != StatusUp {
		t.Errorf("Components[graphql_engine] = %v, want up", report.Components[ComponentGraphQLEngine])
	}
}

func TestAggregator_EngineDown(t *testing.T) {
	engine := &fakeEngine{reachable: false}
	agg := NewAggregator(dbUp(), engineProbe(engine), fastConfig())

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	agg.Wait()

	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", report.Status)
	}
	if report.Components[ComponentDatabase] != StatusUp || report.Components[ComponentGraphQLEngine] != StatusDown {
		t.Errorf("Components = %v", report.Components)
	}
	if _, ok := report.Errors[ComponentDatabase]; ok {
		t.Error("Errors should not contain database")
	}
	if report.EngineAvailable {
		t.Error("EngineAvailable should be false")
	}
	if len(report.Versions) != 0 {
		t.Errorf("Versions = %v, want empty", report.Versions)
	}
	if got := len(engine.recorded()); got != 0 {
		t.Errorf("snapshots recorded = %d, want 0 when the engine is down", got)
	}
}

func TestAggregator_AllUpReportsVersions(t *testing.T) {
	deployed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := &fakeEngine{
		reachable: true,
		versions: []AppMetadata{
			{Component: "api", Version: "1.4.0", DeployedAt: deployed, GitCommit: "abc1234"},
		},
	}
	agg := NewAggregator(dbUp(), engineProbe(engine), fastConfig())

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	agg.Wait()

	if report.Status != StatusUp {
		t.Errorf("Status = %v, want up", report.Status)
	}
	if len(report.Versions) != 1 || report.Versions[0].Version != "1.4.0" {
		t.Errorf("Versions = %+v", report.Versions)
	}
	if report.Errors != nil {
		t.Errorf("Errors = %v, want nil", report.Errors)
	}
	if _, ok := report.ResponseTimes[ComponentTotal]; !ok {
		t.Error("ResponseTimes should include total")
	}

	snapshots := engine.recorded()
	if len(snapshots) != 1 {
		t.Fatalf("snapshots recorded = %d, want 1", len(snapshots))
	}
	if snapshots[0].OverallStatus != StatusUp {
		t.Errorf("snapshot OverallStatus = %v, want up", snapshots[0].OverallStatus)
	}
}

func TestAggregator_MetadataFailureYieldsEmptyVersions(t *testing.T) {
	engine := &fakeEngine{reachable: true, metadataErr: errors.New("permission denied")}
	agg := NewAggregator(dbUp(), engineProbe(engine), fastConfig())

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	agg.Wait()

	if report.Status != StatusUp {
		t.Errorf("Status = %v, want up", report.Status)
	}
	if report.Versions == nil || len(report.Versions) != 0 {
		t.Errorf("Versions = %#v, want empty non-nil slice", report.Versions)
	}
}

func TestAggregator_EngineUnavailable(t *testing.T) {
	agg := NewAggregator(dbUp(), Unavailable[Engine](), fastConfig())

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}

	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", report.Status)
	}
	if !errors.Is(report.Results[ComponentGraphQLEngine].Error, ErrEngineUnavailable) {
		t.Errorf("engine error = %v, want ErrEngineUnavailable", report.Results[ComponentGraphQLEngine].Error)
	}
}

func TestAggregator_PanickingProbes(t *testing.T) {
	panicky := DatabaseProbeFunc(func(ctx context.Context) Result {
		panic("driver bug")
	})
	engine := &fakeEngine{panicOnTest: true}
	agg := NewAggregator(panicky, engineProbe(engine), fastConfig())
	agg.Register(NewCheckerFunc("flaky", func(ctx context.Context) Result {
		panic("aux bug")
	}))

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}

	if report.Status != StatusDown {
		t.Errorf("Status = %v, want down", report.Status)
	}
	for _, name := range []string{ComponentDatabase, ComponentGraphQLEngine, "flaky"} {
		if !errors.Is(report.Results[name].Error, ErrCheckPanicked) {
			t.Errorf("%s error = %v, want ErrCheckPanicked", name, report.Results[name].Error)
		}
	}
}

func TestAggregator_ProbeTimeout(t *testing.T) {
	slow := DatabaseProbeFunc(func(ctx context.Context) Result {
		<-ctx.Done()
		time.Sleep(time.Second)
		return Up("too late")
	})
	agg := NewAggregator(slow, Unavailable[Engine](), AggregatorConfig{ProbeTimeout: 50 * time.Millisecond})

	start := time.Now()
	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}

	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("CheckHealth took %v, want it bounded by the probe timeout", elapsed)
	}
	if report.Status != StatusDown {
		t.Errorf("Status = %v, want down", report.Status)
	}
	if !errors.Is(report.Results[ComponentDatabase].Error, ErrCheckTimeout) {
		t.Errorf("database error = %v, want ErrCheckTimeout", report.Results[ComponentDatabase].Error)
	}
}

func TestAggregator_SnapshotFailureDoesNotAffectStatus(t *testing.T) {
	engine := &fakeEngine{
		reachable: true,
		snapshotFn: func(ctx context.Context, s Snapshot) bool {
			return false
		},
	}
	agg := NewAggregator(dbUp(), engineProbe(engine), fastConfig())

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	agg.Wait()

	if report.Status != StatusUp {
		t.Errorf("Status = %v, want up", report.Status)
	}
}

func TestAggregator_BlockingSnapshotDoesNotDelayResponse(t *testing.T) {
	var finished atomic.Bool
	engine := &fakeEngine{
		reachable: true,
		snapshotFn: func(ctx context.Context, s Snapshot) bool {
			<-ctx.Done()
			finished.Store(true)
			return false
		},
	}
	agg := NewAggregator(dbUp(), engineProbe(engine), AggregatorConfig{
		ProbeTimeout:    time.Second,
		SnapshotTimeout: 300 * time.Millisecond,
	})

	start := time.Now()
	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 300*time.Millisecond {
		t.Errorf("CheckHealth took %v, want it to return before the snapshot write", elapsed)
	}
	if report.Status != StatusUp {
		t.Errorf("Status = %v, want up", report.Status)
	}

	agg.Wait()
	if !finished.Load() {
		t.Error("snapshot write should have been bounded by SnapshotTimeout")
	}
}

func TestAggregator_SnapshotSurvivesRequestCancellation(t *testing.T) {
	var sawCancelled atomic.Bool
	engine := &fakeEngine{
		reachable: true,
		snapshotFn: func(ctx context.Context, s Snapshot) bool {
			time.Sleep(20 * time.Millisecond)
			if ctx.Err() != nil {
				sawCancelled.Store(true)
			}
			return true
		},
	}
	agg := NewAggregator(dbUp(), engineProbe(engine), fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := agg.CheckHealth(ctx); err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	cancel()
	agg.Wait()

	if sawCancelled.Load() {
		t.Error("snapshot write should be detached from the request context")
	}
}

func TestAggregator_AuxiliaryCheckersDegrade(t *testing.T) {
	agg := NewAggregator(dbUp(), engineProbe(&fakeEngine{reachable: true}), fastConfig())
	agg.Register(NewCheckerFunc("disk", func(ctx context.Context) Result {
		return Down("full", errors.New("disk / at 97.0%"))
	}))

	report, err := agg.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth() error = %v", err)
	}
	agg.Wait()

	if report.Status != StatusDegraded {
		t.Errorf("Status = %v, want degraded", report.Status)
	}
	if report.Errors["disk"] != "disk / at 97.0%" {
		t.Errorf("Errors[disk] = %q", report.Errors["disk"])
	}
}

func TestAggregator_NoDatabaseProbe(t *testing.T) {
	agg := NewAggregator(nil, Unavailable[Engine](), fastConfig())
	if _, err := agg.CheckHealth(context.Background()); !errors.Is(err, ErrNoDatabaseProbe) {
		t.Errorf("CheckHealth() error = %v, want ErrNoDatabaseProbe", err)
	}

	var nilAgg *Aggregator
	if _, err := nilAgg.CheckHealth(context.Background()); !errors.Is(err, ErrNoDatabaseProbe) {
		t.Errorf("nil CheckHealth() error = %v, want ErrNoDatabaseProbe", err)
	}
}

func TestAggregator_ConcurrentChecks(t *testing.T) {
	agg := NewAggregator(dbUp(), engineProbe(&fakeEngine{reachable: true}), fastConfig())
	agg.Register(NewUptimeChecker(time.Now()))

	done := make(chan Status, 10)
	for i := 0; i < 10; i++ {
		go func() {
			report, _ := agg.CheckHealth(context.Background())
			done <- report.Status
		}()
	}
	for i := 0; i < 10; i++ {
		if status := <-done; status != StatusUp {
			t.Errorf("Status = %v, want up", status)
		}
	}
	agg.Wait()
}
