package health

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/healthgate/observe"
	"github.com/jonwraymond/healthgate/resilience"
)

// AggregatorConfig configures the health aggregator.
type AggregatorConfig struct {
	// ProbeTimeout bounds each individual probe and the version lookup.
	// Default: 5 seconds
	ProbeTimeout time.Duration

	// SnapshotTimeout bounds a detached snapshot write.
	// Default: 10 seconds
	SnapshotTimeout time.Duration

	// MaxPendingSnapshots caps concurrent snapshot writes. Writes beyond the
	// cap are dropped and logged.
	// Default: 4
	MaxPendingSnapshots int

	// Environment selects which version metadata is reported.
	// Default: "production"
	Environment string
}

func (c *AggregatorConfig) setDefaults() {
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.SnapshotTimeout <= 0 {
		c.SnapshotTimeout = 10 * time.Second
	}
	if c.MaxPendingSnapshots <= 0 {
		c.MaxPendingSnapshots = 4
	}
	if c.Environment == "" {
		c.Environment = "production"
	}
}

var checkOperation = observe.Operation{Kind: "health", Name: "check"}

// Aggregator combines the database probe, the GraphQL engine probe and any
// registered auxiliary checkers into one Report.
type Aggregator struct {
	config    AggregatorConfig
	db        DatabaseProbe
	engine    Probe[Engine]
	opts      options
	snapshots *resilience.Bulkhead
	pending   sync.WaitGroup

	mu       sync.RWMutex
	checkers map[string]Checker
	order    []string // Maintains registration order
}

// NewAggregator creates a new health aggregator.
func NewAggregator(db DatabaseProbe, engine Probe[Engine], config AggregatorConfig, opts ...Option) *Aggregator {
	config.setDefaults()

	return &Aggregator{
		config: config,
		db:     db,
		engine: engine,
		opts:   buildOptions(opts),
		snapshots: resilience.NewBulkhead(resilience.BulkheadConfig{
			MaxConcurrent: config.MaxPendingSnapshots,
		}),
		checkers: make(map[string]Checker),
		order:    make([]string, 0),
	}
}

// Config returns the effective configuration.
func (a *Aggregator) Config() AggregatorConfig {
	return a.config
}

// Register adds an auxiliary checker. A checker registered under an existing
// name replaces it.
func (a *Aggregator) Register(checker Checker) {
	a.mu.Lock()
	defer a.mu.Unlock()

	name := checker.Name()
	if _, exists := a.checkers[name]; !exists {
		a.order = append(a.order, name)
	}
	a.checkers[name] = checker
}

// Unregister removes an auxiliary checker.
func (a *Aggregator) Unregister(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.checkers, name)
	for i, n := range a.order {
		if n == name {
			a.order = append(a.order[:i], a.order[i+1:]...)
			break
		}
	}
}

// CheckerNames returns the names of the auxiliary checkers in registration order.
func (a *Aggregator) CheckerNames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	names := make([]string, len(a.order))
	copy(names, a.order)
	return names
}

func (a *Aggregator) registered() []Checker {
	a.mu.RLock()
	defer a.mu.RUnlock()

	checkers := make([]Checker, 0, len(a.order))
	for _, name := range a.order {
		checkers = append(checkers, a.checkers[name])
	}
	return checkers
}

// CheckHealth runs every probe and merges the results. Probe failures,
// timeouts and panics are reported as down components, never as errors. The
// only error is ErrNoDatabaseProbe, for an aggregator built without its
// primary collaborator.
func (a *Aggregator) CheckHealth(ctx context.Context) (*Report, error) {
	if a == nil || a.db == nil {
		return nil, ErrNoDatabaseProbe
	}

	start := time.Now()
	ctx, span := a.opts.tracer.StartSpan(ctx, checkOperation)

	checkers := a.registered()
	auxResults := make([]Result, len(checkers))
	var dbResult, engineResult Result

	var g errgroup.Group
	g.Go(func() error {
		dbResult = a.runProbe(ctx, a.db.CheckConnection)
		return nil
	})
	g.Go(func() error {
		engineResult = a.runProbe(ctx, a.probeEngine)
		return nil
	})
	for i, checker := range checkers {
		g.Go(func() error {
			auxResults[i] = a.runProbe(ctx, checker.Check)
			return nil
		})
	}
	_ = g.Wait()

	report := newReport(start)
	report.add(ComponentDatabase, dbResult)
	report.add(ComponentGraphQLEngine, engineResult)

	auxStatuses := make([]Status, len(checkers))
	for i, checker := range checkers {
		report.add(checker.Name(), auxResults[i])
		auxStatuses[i] = auxResults[i].Status
	}

	report.Status = Merge(dbResult.Status, engineResult.Status, auxStatuses...)
	report.EngineAvailable = engineResult.Status == StatusUp

	if engine, ok := a.engine.Handle(); ok && report.EngineAvailable {
		report.Versions = a.fetchVersions(ctx, engine)
		report.ResponseTimes[ComponentTotal] = time.Since(start)
		a.recordSnapshot(ctx, engine, report.Snapshot())
	}
	report.ResponseTimes[ComponentTotal] = time.Since(start)

	for name, result := range report.Results {
		a.opts.metrics.RecordProbe(ctx, name, result.Status.String(), result.Duration)
	}
	a.opts.metrics.RecordHealthCheck(ctx, report.Status.String(), report.ResponseTimes[ComponentTotal])

	var spanErr error
	if report.Status == StatusDown {
		spanErr = fmt.Errorf("%w: %s", ErrCheckFailed, report.Errors[ComponentDatabase])
	}
	a.opts.tracer.EndSpan(span, spanErr)

	return report, nil
}

// Wait blocks until all detached snapshot writes have finished.
func (a *Aggregator) Wait() {
	a.pending.Wait()
}

func (a *Aggregator) runProbe(ctx context.Context, probe func(context.Context) Result) Result {
	return runWithTimeout(ctx, a.config.ProbeTimeout, probe)
}

func (a *Aggregator) probeEngine(ctx context.Context) Result {
	engine, ok := a.engine.Handle()
	if !ok {
		return Down("graphql engine not configured", ErrEngineUnavailable)
	}
	if !engine.TestConnection(ctx) {
		return Down("graphql engine unreachable", ErrEngineUnreachable)
	}
	return Up("graphql engine reachable")
}

type metadataOutcome struct {
	versions []AppMetadata
	err      error
}

// fetchVersions never fails; any problem yields an empty list.
func (a *Aggregator) fetchVersions(ctx context.Context, engine Engine) []AppMetadata {
	ctx, cancel := context.WithTimeout(ctx, a.config.ProbeTimeout)
	defer cancel()

	outcomeCh := make(chan metadataOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				outcomeCh <- metadataOutcome{err: fmt.Errorf("%w: %v", ErrCheckPanicked, r)}
			}
		}()
		versions, err := engine.Metadata(ctx, a.config.Environment)
		outcomeCh <- metadataOutcome{versions: versions, err: err}
	}()

	var outcome metadataOutcome
	select {
	case outcome = <-outcomeCh:
	case <-ctx.Done():
		outcome.err = ErrCheckTimeout
	}

	if outcome.err != nil {
		a.opts.logger.Warn(ctx, "version metadata unavailable",
			observe.Field{Key: "environment", Value: a.config.Environment},
			observe.Field{Key: "error", Value: outcome.err.Error()},
		)
		return []AppMetadata{}
	}
	if outcome.versions == nil {
		return []AppMetadata{}
	}
	return outcome.versions
}

// recordSnapshot starts a detached write. Its outcome is only visible in logs.
func (a *Aggregator) recordSnapshot(ctx context.Context, engine Engine, snapshot Snapshot) {
	bg := context.WithoutCancel(ctx)

	a.pending.Add(1)
	go func() {
		defer a.pending.Done()
		defer func() {
			if r := recover(); r != nil {
				a.opts.logger.Error(bg, "health snapshot write panicked",
					observe.Field{Key: "panic", Value: fmt.Sprint(r)},
				)
			}
		}()

		err := a.snapshots.Execute(bg, func(ctx context.Context) error {
			ctx, cancel := context.WithTimeout(ctx, a.config.SnapshotTimeout)
			defer cancel()
			if !engine.RecordSnapshot(ctx, snapshot) {
				return ErrSnapshotRejected
			}
			return nil
		})
		if err != nil {
			msg := "health snapshot not recorded"
			if errors.Is(err, resilience.ErrBulkheadFull) {
				msg = "health snapshot dropped, too many pending writes"
			}
			a.opts.logger.Warn(bg, msg,
				observe.Field{Key: "overall_status", Value: snapshot.OverallStatus.String()},
				observe.Field{Key: "error", Value: err.Error()},
			)
			return
		}
		a.opts.logger.Debug(bg, "health snapshot recorded",
			observe.Field{Key: "overall_status", Value: snapshot.OverallStatus.String()},
		)
	}()
}

// runWithTimeout invokes probe under its own deadline and converts timeouts
// and panics into down results.
func runWithTimeout(ctx context.Context, timeout time.Duration, probe func(context.Context) Result) Result {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resultCh := make(chan Result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- Down("check panicked", fmt.Errorf("%w: %v", ErrCheckPanicked, r))
			}
		}()
		resultCh <- probe(ctx)
	}()

	select {
	case result := <-resultCh:
		result.Status = ParseStatus(string(result.Status))
		if result.Duration == 0 {
			result.Duration = time.Since(start)
		}
		if result.Timestamp.IsZero() {
			result.Timestamp = start
		}
		if result.Status != StatusUp && result.ErrorString() == "" {
			result.Error = ErrCheckFailed
		}
		return result
	case <-ctx.Done():
		err := ErrCheckTimeout
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("health: check cancelled: %w", ctx.Err())
		}
		return Result{
			Status:    StatusDown,
			Message:   "check timed out",
			Error:     err,
			Duration:  time.Since(start),
			Timestamp: start,
		}
	}
}
