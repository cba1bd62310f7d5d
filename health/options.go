package health

import (
	"context"

	"github.com/jonwraymond/healthgate/observe"
)

type options struct {
	logger     observe.Logger
	tracer     observe.Tracer
	metrics    observe.Metrics
	onFallback func(ctx context.Context, cause error)
}

// Option configures an Aggregator or a Reporter.
type Option func(*options)

// WithLogger sets the logger used for snapshot and fallback diagnostics.
func WithLogger(logger observe.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTelemetry sets the tracer and metrics recorder.
func WithTelemetry(tracer observe.Tracer, metrics observe.Metrics) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithFallbackHook registers a callback invoked whenever a Reporter falls
// back to the database-only report.
func WithFallbackHook(fn func(ctx context.Context, cause error)) Option {
	return func(o *options) {
		o.onFallback = fn
	}
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  observe.NewNopLogger(),
		tracer:  observe.NewNoopTracer(),
		metrics: observe.NewNoopMetrics(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
