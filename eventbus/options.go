package eventbus

import "github.com/jonwraymond/healthgate/observe"

type options struct {
	logger       observe.Logger
	tracer       observe.Tracer
	metrics      observe.Metrics
	errorHandler func(Event, error)
}

// Option configures a Bus.
type Option func(*options)

// WithLogger sets the logger that receives handler failures.
func WithLogger(logger observe.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics sets the recorder for emit and handler failure counts.
func WithMetrics(metrics observe.Metrics) Option {
	return func(o *options) {
		if metrics != nil {
			o.metrics = metrics
		}
	}
}

// WithTracer sets the tracer used to span each Emit.
func WithTracer(tracer observe.Tracer) Option {
	return func(o *options) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithErrorHandler registers a callback for each handler failure.
// It is called from the handler's goroutine and must be safe for concurrent use.
func WithErrorHandler(fn func(Event, error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}
