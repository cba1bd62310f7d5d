package health

import (
	"context"
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		raw  string
		want Status
	}{
		{"up", StatusUp},
		{"UP", StatusUp},
		{"ok", StatusUp},
		{"healthy", StatusUp},
		{" degraded ", StatusDegraded},
		{"down", StatusDown},
		{"unhealthy", StatusDown},
		{"", StatusDown},
		{"garbage", StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := ParseStatus(tt.raw); got != tt.want {
				t.Errorf("ParseStatus(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestResultConstructors(t *testing.T) {
	up := Up("fine")
	if up.Status != StatusUp || up.Message != "fine" || up.Timestamp.IsZero() {
		t.Errorf("Up() = %+v", up)
	}

	degraded := Degraded("slow")
	if degraded.Status != StatusDegraded {
		t.Errorf("Degraded().Status = %v, want degraded", degraded.Status)
	}

	err := errors.New("connection refused")
	down := Down("unreachable", err)
	if down.Status != StatusDown || !errors.Is(down.Error, err) {
		t.Errorf("Down() = %+v", down)
	}
}

func TestResult_ErrorString(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"up has no error", Up("ok"), ""},
		{"down prefers error text", Down("unreachable", errors.New("connection refused")), "connection refused"},
		{"down without error uses message", Down("unreachable", nil), "unreachable"},
		{"degraded uses message", Degraded("near limit"), "near limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.ErrorString(); got != tt.want {
				t.Errorf("ErrorString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResult_WithDetails(t *testing.T) {
	r := Up("ok").WithDetails(map[string]any{"pool": 4})
	if r.Details["pool"] != 4 {
		t.Errorf("Details[pool] = %v, want 4", r.Details["pool"])
	}
}

func TestCheckerFunc(t *testing.T) {
	called := false
	checker := NewCheckerFunc("cache", func(ctx context.Context) Result {
		called = true
		return Up("ok")
	})

	if checker.Name() != "cache" {
		t.Errorf("Name() = %q, want cache", checker.Name())
	}
	if got := checker.Check(context.Background()); got.Status != StatusUp {
		t.Errorf("Check().Status = %v, want up", got.Status)
	}
	if !called {
		t.Error("function was not invoked")
	}
}

func TestProbe(t *testing.T) {
	configured := Configured[Engine](&fakeEngine{reachable: true})
	if !configured.Available() {
		t.Error("Configured probe should be available")
	}
	if h, ok := configured.Handle(); !ok || h == nil {
		t.Error("Configured probe should return its handle")
	}

	missing := Unavailable[Engine]()
	if missing.Available() {
		t.Error("Unavailable probe should not be available")
	}
	if h, ok := missing.Handle(); ok || h != nil {
		t.Errorf("Unavailable probe Handle() = %v, %v", h, ok)
	}
}
