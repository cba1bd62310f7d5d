package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics records gateway metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordOperation records a collaborator call with duration and error status.
	RecordOperation(ctx context.Context, op Operation, duration time.Duration, err error)

	// RecordHealthCheck records one composite health check.
	RecordHealthCheck(ctx context.Context, status string, duration time.Duration)

	// RecordProbe records one component probe inside a health check.
	RecordProbe(ctx context.Context, component, status string, duration time.Duration)

	// RecordEmit records one event bus emit and how many handlers failed.
	RecordEmit(ctx context.Context, eventType string, handlers, failures int)
}

type metricsImpl struct {
	opTotal       metric.Int64Counter
	opErrors      metric.Int64Counter
	opDuration    metric.Float64Histogram
	checkTotal    metric.Int64Counter
	checkDuration metric.Float64Histogram
	probeDuration metric.Float64Histogram
	emitTotal     metric.Int64Counter
	handlerErrors metric.Int64Counter
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	m := &metricsImpl{}
	var err error

	if m.opTotal, err = meter.Int64Counter(
		"gateway.op.total",
		metric.WithDescription("Total number of collaborator operations"),
		metric.WithUnit("{call}"),
	); err != nil {
		return nil, err
	}
	if m.opErrors, err = meter.Int64Counter(
		"gateway.op.errors",
		metric.WithDescription("Total number of failed collaborator operations"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}
	if m.opDuration, err = meter.Float64Histogram(
		"gateway.op.duration_ms",
		metric.WithDescription("Collaborator operation duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.checkTotal, err = meter.Int64Counter(
		"health.check.total",
		metric.WithDescription("Total number of composite health checks by overall status"),
		metric.WithUnit("{check}"),
	); err != nil {
		return nil, err
	}
	if m.checkDuration, err = meter.Float64Histogram(
		"health.check.duration_ms",
		metric.WithDescription("Composite health check duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.probeDuration, err = meter.Float64Histogram(
		"health.probe.duration_ms",
		metric.WithDescription("Component probe duration in milliseconds"),
		metric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if m.emitTotal, err = meter.Int64Counter(
		"eventbus.emit.total",
		metric.WithDescription("Total number of emitted events"),
		metric.WithUnit("{event}"),
	); err != nil {
		return nil, err
	}
	if m.handlerErrors, err = meter.Int64Counter(
		"eventbus.handler.errors",
		metric.WithDescription("Total number of failed event handler invocations"),
		metric.WithUnit("{error}"),
	); err != nil {
		return nil, err
	}

	return m, nil
}

func (m *metricsImpl) RecordOperation(ctx context.Context, op Operation, duration time.Duration, err error) {
	opt := metric.WithAttributes(
		attribute.String("op.name", op.SpanName()),
		attribute.String("op.kind", op.Kind),
	)

	m.opTotal.Add(ctx, 1, opt)
	if err != nil {
		m.opErrors.Add(ctx, 1, opt)
	}
	m.opDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordHealthCheck(ctx context.Context, status string, duration time.Duration) {
	opt := metric.WithAttributes(attribute.String("status", status))
	m.checkTotal.Add(ctx, 1, opt)
	m.checkDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *metricsImpl) RecordProbe(ctx context.Context, component, status string, duration time.Duration) {
	m.probeDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("status", status),
	))
}

func (m *metricsImpl) RecordEmit(ctx context.Context, eventType string, handlers, failures int) {
	opt := metric.WithAttributes(attribute.String("event_type", eventType))
	m.emitTotal.Add(ctx, 1, opt)
	if failures > 0 {
		m.handlerErrors.Add(ctx, int64(failures), opt)
	}
}

type noopMetrics struct{}

// NewNoopMetrics returns a Metrics that records nothing.
func NewNoopMetrics() Metrics {
	return noopMetrics{}
}

func (noopMetrics) RecordOperation(context.Context, Operation, time.Duration, error) {}
func (noopMetrics) RecordHealthCheck(context.Context, string, time.Duration)          {}
func (noopMetrics) RecordProbe(context.Context, string, string, time.Duration)        {}
func (noopMetrics) RecordEmit(context.Context, string, int, int)                      {}
