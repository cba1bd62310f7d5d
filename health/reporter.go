package health

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/healthgate/observe"
)

// Reporter is the outer boundary around an Aggregator. Check always returns a
// report: when aggregation fails or panics it substitutes a reduced report
// built from the database probe alone.
type Reporter struct {
	agg     *Aggregator
	db      DatabaseProbe
	timeout time.Duration
	opts    options
}

// NewReporter creates a Reporter. db is probed directly on the fallback path;
// it may be nil, in which case the fallback report is down.
func NewReporter(agg *Aggregator, db DatabaseProbe, opts ...Option) *Reporter {
	timeout := 5 * time.Second
	if agg != nil {
		timeout = agg.config.ProbeTimeout
	}
	return &Reporter{
		agg:     agg,
		db:      db,
		timeout: timeout,
		opts:    buildOptions(opts),
	}
}

// Check returns the composite report, or the reduced fallback report.
func (r *Reporter) Check(ctx context.Context) (report *Report) {
	defer func() {
		if rec := recover(); rec != nil {
			report = r.fallback(ctx, fmt.Errorf("%w: %v", ErrAggregationFailed, rec))
		}
	}()

	rep, err := r.agg.CheckHealth(ctx)
	if err != nil {
		return r.fallback(ctx, fmt.Errorf("%w: %w", ErrAggregationFailed, err))
	}
	return rep
}

func (r *Reporter) fallback(ctx context.Context, cause error) *Report {
	r.opts.logger.Error(ctx, "health aggregation failed, reporting database only",
		observe.Field{Key: "error", Value: cause.Error()},
	)
	r.notifyFallback(ctx, cause)

	start := time.Now()
	report := newReport(start)
	report.Reduced = true

	var result Result
	if r.db == nil {
		result = Down("database probe not configured", ErrNoDatabaseProbe)
	} else {
		result = runWithTimeout(ctx, r.timeout, r.db.CheckConnection)
	}
	report.add(ComponentDatabase, result)

	if result.Status == StatusDown {
		report.Status = StatusDown
	} else {
		report.Status = StatusUp
	}
	report.ResponseTimes[ComponentTotal] = time.Since(start)

	r.opts.metrics.RecordHealthCheck(ctx, report.Status.String(), report.ResponseTimes[ComponentTotal])
	return report
}

func (r *Reporter) notifyFallback(ctx context.Context, cause error) {
	if r.opts.onFallback == nil {
		return
	}
	defer func() {
		if rec := recover(); rec != nil {
			r.opts.logger.Error(ctx, "health fallback hook panicked",
				observe.Field{Key: "panic", Value: fmt.Sprint(rec)},
			)
		}
	}()
	r.opts.onFallback(ctx, cause)
}
