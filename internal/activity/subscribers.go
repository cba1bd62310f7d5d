package activity

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/jonwraymond/healthgate/eventbus"
	"github.com/jonwraymond/healthgate/observe"
)

// Subscribe registers h for both activity event types.
func Subscribe(bus *eventbus.Bus, h eventbus.Handler) []*eventbus.Subscription {
	return []*eventbus.Subscription{
		bus.Subscribe(eventbus.TypeActivityCreated, h),
		bus.Subscribe(eventbus.TypeActivityBulkCreated, h),
	}
}

// AuditSubscriber writes a structured log line per activity event.
func AuditSubscriber(logger observe.Logger) eventbus.Handler {
	return func(ctx context.Context, e eventbus.Event) error {
		fields := []observe.Field{
			{Key: "event_type", Value: e.Type},
			{Key: "event_id", Value: e.ID.String()},
		}
		switch data := e.Data.(type) {
		case Activity:
			fields = append(fields,
				observe.Field{Key: "activity_id", Value: data.ID.String()},
				observe.Field{Key: "action", Value: data.Action},
			)
		case BulkCreated:
			fields = append(fields, observe.Field{Key: "count", Value: data.Count})
		}
		logger.Info(ctx, "activity recorded", fields...)
		return nil
	}
}

// MetricsSubscriber counts recorded activities by action category, the
// segment before the first dot.
func MetricsSubscriber(meter metric.Meter) (eventbus.Handler, error) {
	counter, err := meter.Int64Counter("activity.recorded.total",
		metric.WithDescription("Activities recorded, by action category"),
		metric.WithUnit("{activity}"),
	)
	if err != nil {
		return nil, err
	}

	add := func(ctx context.Context, action string) {
		category, _, _ := strings.Cut(action, ".")
		counter.Add(ctx, 1, metric.WithAttributes(attribute.String("category", category)))
	}

	return func(ctx context.Context, e eventbus.Event) error {
		switch data := e.Data.(type) {
		case Activity:
			add(ctx, data.Action)
		case BulkCreated:
			for _, a := range data.Activities {
				add(ctx, a.Action)
			}
		}
		return nil
	}, nil
}
