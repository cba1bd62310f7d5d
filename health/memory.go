package health

import (
	"context"
	"fmt"
	"runtime"
)

// HeapCheckerConfig configures the heap health checker.
type HeapCheckerConfig struct {
	// MaxHeapBytes is the heap allocation above which the check is down.
	// Default: 150MB
	MaxHeapBytes uint64

	// WarningRatio is the fraction of MaxHeapBytes that triggers degraded.
	// Value should be between 0 and 1. Default: 0.9
	WarningRatio float64
}

// HeapChecker reports the Go heap against a fixed ceiling.
type HeapChecker struct {
	config   HeapCheckerConfig
	readFunc func(*runtime.MemStats)
}

// NewHeapChecker creates a new heap health checker.
func NewHeapChecker(config HeapCheckerConfig) *HeapChecker {
	if config.MaxHeapBytes == 0 {
		config.MaxHeapBytes = 150 * 1024 * 1024
	}
	if config.WarningRatio <= 0 || config.WarningRatio >= 1 {
		config.WarningRatio = 0.9
	}

	return &HeapChecker{config: config, readFunc: runtime.ReadMemStats}
}

// Name returns "memory_heap".
func (m *HeapChecker) Name() string {
	return "memory_heap"
}

// Check performs the heap health check.
func (m *HeapChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Down("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	m.readFunc(&stats)

	usageRatio := float64(stats.HeapAlloc) / float64(m.config.MaxHeapBytes)
	details := map[string]any{
		"heap_alloc":     stats.HeapAlloc,
		"heap_alloc_mb":  float64(stats.HeapAlloc) / (1024 * 1024),
		"heap_in_use":    stats.HeapInuse,
		"max_heap_bytes": m.config.MaxHeapBytes,
		"usage_percent":  usageRatio * 100,
		"num_gc":         stats.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}

	if stats.HeapAlloc > m.config.MaxHeapBytes {
		return Down(
			fmt.Sprintf("heap above limit: %.1f%%", usageRatio*100),
			fmt.Errorf("%w: heap %d bytes exceeds %d", ErrCheckFailed, stats.HeapAlloc, m.config.MaxHeapBytes),
		).WithDetails(details)
	}

	if usageRatio >= m.config.WarningRatio {
		return Degraded(
			fmt.Sprintf("heap near limit: %.1f%%", usageRatio*100),
		).WithDetails(details)
	}

	return Up(
		fmt.Sprintf("heap usage normal: %.1f%%", usageRatio*100),
	).WithDetails(details)
}
