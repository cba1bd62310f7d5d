package observe

import (
	"context"
	"time"
)

// ExecuteFunc is the signature of an instrumented collaborator call.
type ExecuteFunc func(ctx context.Context, op Operation) error

// Middleware wraps collaborator calls with tracing, metrics and logging.
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe ExecuteFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// NewNoopMiddleware returns a Middleware that only runs the wrapped call.
func NewNoopMiddleware() *Middleware {
	return NewMiddleware(NewNoopTracer(), NewNoopMetrics(), NewNopLogger())
}

// Wrap wraps an ExecuteFunc with tracing, metrics, and logging.
func (m *Middleware) Wrap(fn ExecuteFunc) ExecuteFunc {
	return func(ctx context.Context, op Operation) error {
		ctx, span := m.tracer.StartSpan(ctx, op)
		start := time.Now()

		err := fn(ctx, op)

		duration := time.Since(start)
		m.tracer.EndSpan(span, err)
		m.metrics.RecordOperation(ctx, op, duration, err)

		fields := []Field{
			{Key: "op", Value: op.SpanName()},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}
		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			m.logger.Warn(ctx, "operation failed", fields...)
		} else {
			m.logger.Debug(ctx, "operation completed", fields...)
		}

		return err
	}
}

// Run executes fn as op through the middleware.
func (m *Middleware) Run(ctx context.Context, op Operation, fn func(ctx context.Context) error) error {
	return m.Wrap(func(ctx context.Context, _ Operation) error {
		return fn(ctx)
	})(ctx, op)
}

// MiddlewareFromObserver creates a Middleware from an Observer.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}
	return NewMiddleware(NewTracer(obs.Tracer()), metrics, obs.Logger()), nil
}
