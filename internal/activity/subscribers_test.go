package activity

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/jonwraymond/healthgate/eventbus"
	"github.com/jonwraymond/healthgate/observe"
)

func TestAuditSubscriber(t *testing.T) {
	var buf bytes.Buffer
	h := AuditSubscriber(observe.NewLoggerWithWriter("info", &buf))

	a := Activity{ID: uuid.New(), Action: "health.check"}
	if err := h(context.Background(), eventbus.NewEvent(eventbus.TypeActivityCreated, a)); err != nil {
		t.Fatalf("handler error = %v", err)
	}
	bulk := BulkCreated{Count: 3}
	if err := h(context.Background(), eventbus.NewEvent(eventbus.TypeActivityBulkCreated, bulk)); err != nil {
		t.Fatalf("handler error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"action":"health.check"`, a.ID.String(), `"count":3`, "activity.bulk_created"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestMetricsSubscriber(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	h, err := MetricsSubscriber(provider.Meter("test"))
	if err != nil {
		t.Fatalf("MetricsSubscriber() error = %v", err)
	}

	bus := eventbus.New()
	Subscribe(bus, h)
	svc := NewService(probe(newFakeStore()), probe(nil), bus, nil)
	ctx := context.Background()

	if _, err := svc.Log(ctx, "health.check"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.LogBulk(ctx, []string{"health.check", "api.request.health"}); err != nil {
		t.Fatal(err)
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}

	counts := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "activity.recorded.total" {
				continue
			}
			for _, dp := range m.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value("category")
				counts[v.AsString()] += dp.Value
			}
		}
	}
	if counts["health"] != 2 || counts["api"] != 1 {
		t.Errorf("counts = %v, want health=2 api=1", counts)
	}
}
