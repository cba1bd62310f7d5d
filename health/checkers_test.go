package health

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/shirou/gopsutil/v4/disk"
)

func TestHeapChecker(t *testing.T) {
	const limit = 100 * 1024 * 1024

	tests := []struct {
		name      string
		heapAlloc uint64
		want      Status
	}{
		{"normal", 10 * 1024 * 1024, StatusUp},
		{"near limit", 95 * 1024 * 1024, StatusDegraded},
		{"over limit", 120 * 1024 * 1024, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := NewHeapChecker(HeapCheckerConfig{MaxHeapBytes: limit})
			checker.readFunc = func(m *runtime.MemStats) { m.HeapAlloc = tt.heapAlloc }

			result := checker.Check(context.Background())
			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v (%s)", result.Status, tt.want, result.Message)
			}
			if result.Details["max_heap_bytes"] != uint64(limit) {
				t.Errorf("Details[max_heap_bytes] = %v", result.Details["max_heap_bytes"])
			}
		})
	}
}

func TestHeapChecker_Defaults(t *testing.T) {
	checker := NewHeapChecker(HeapCheckerConfig{WarningRatio: 2})
	if checker.config.MaxHeapBytes != 150*1024*1024 {
		t.Errorf("MaxHeapBytes = %d, want 150MB", checker.config.MaxHeapBytes)
	}
	if checker.config.WarningRatio != 0.9 {
		t.Errorf("WarningRatio = %v, want 0.9", checker.config.WarningRatio)
	}
	if checker.Name() != "memory_heap" {
		t.Errorf("Name() = %q, want memory_heap", checker.Name())
	}
}

func TestHeapChecker_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if got := NewHeapChecker(HeapCheckerConfig{}).Check(ctx); got.Status != StatusDown {
		t.Errorf("Status = %v, want down", got.Status)
	}
}

func TestDiskChecker(t *testing.T) {
	tests := []struct {
		name        string
		usedPercent float64
		err         error
		want        Status
	}{
		{"plenty of space", 40, nil, StatusUp},
		{"at threshold", 90, nil, StatusDown},
		{"full", 99.5, nil, StatusDown},
		{"stat error", 0, errors.New("no such device"), StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			usage := func(ctx context.Context, path string) (*disk.UsageStat, error) {
				gotPath = path
				if tt.err != nil {
					return nil, tt.err
				}
				return &disk.UsageStat{Path: path, Total: 1000, Free: 100, UsedPercent: tt.usedPercent}, nil
			}

			checker := NewDiskCheckerWithUsage(DiskCheckerConfig{Path: "/var/lib"}, usage)
			result := checker.Check(context.Background())

			if result.Status != tt.want {
				t.Errorf("Status = %v, want %v", result.Status, tt.want)
			}
			if gotPath != "/var/lib" {
				t.Errorf("usage called with %q, want /var/lib", gotPath)
			}
		})
	}
}

func TestDiskChecker_Defaults(t *testing.T) {
	checker := NewDiskCheckerWithUsage(DiskCheckerConfig{ThresholdPercent: 5}, nil)
	if checker.config.Path != "/" {
		t.Errorf("Path = %q, want /", checker.config.Path)
	}
	if checker.config.ThresholdPercent != 0.9 {
		t.Errorf("ThresholdPercent = %v, want 0.9", checker.config.ThresholdPercent)
	}
}

func TestUptimeChecker(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	checker := NewUptimeChecker(started)
	checker.now = func() time.Time { return started.Add(90 * time.Second) }

	result := checker.Check(context.Background())
	if result.Status != StatusUp {
		t.Errorf("Status = %v, want up", result.Status)
	}
	if result.Details["uptimeInSeconds"] != int64(90) {
		t.Errorf("uptimeInSeconds = %v, want 90", result.Details["uptimeInSeconds"])
	}
	if result.Details["startedAt"] != "2026-01-01T00:00:00Z" {
		t.Errorf("startedAt = %v", result.Details["startedAt"])
	}
	if !checker.StartedAt().Equal(started) {
		t.Errorf("StartedAt() = %v, want %v", checker.StartedAt(), started)
	}
}
