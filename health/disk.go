package health

import (
	"context"
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"
)

// DiskCheckerConfig configures the disk health checker.
type DiskCheckerConfig struct {
	// Path is the mount point to inspect.
	// Default: "/"
	Path string

	// ThresholdPercent is the used fraction at which the check is down.
	// Value should be between 0 and 1. Default: 0.9
	ThresholdPercent float64
}

// UsageFunc returns disk usage for a path.
type UsageFunc func(ctx context.Context, path string) (*disk.UsageStat, error)

// DiskChecker reports storage usage of one path.
type DiskChecker struct {
	config DiskCheckerConfig
	usage  UsageFunc
}

// NewDiskChecker creates a disk checker backed by gopsutil.
func NewDiskChecker(config DiskCheckerConfig) *DiskChecker {
	return NewDiskCheckerWithUsage(config, disk.UsageWithContext)
}

// NewDiskCheckerWithUsage creates a disk checker with a custom usage source.
func NewDiskCheckerWithUsage(config DiskCheckerConfig, usage UsageFunc) *DiskChecker {
	if config.Path == "" {
		config.Path = "/"
	}
	if config.ThresholdPercent <= 0 || config.ThresholdPercent > 1 {
		config.ThresholdPercent = 0.9
	}
	return &DiskChecker{config: config, usage: usage}
}

// Name returns "disk".
func (d *DiskChecker) Name() string {
	return "disk"
}

// Check performs the disk health check.
func (d *DiskChecker) Check(ctx context.Context) Result {
	stat, err := d.usage(ctx, d.config.Path)
	if err != nil {
		return Down("disk usage unavailable", fmt.Errorf("disk %s: %w", d.config.Path, err))
	}

	used := stat.UsedPercent / 100
	details := map[string]any{
		"path":          d.config.Path,
		"total_bytes":   stat.Total,
		"free_bytes":    stat.Free,
		"used_percent":  stat.UsedPercent,
		"threshold_pct": d.config.ThresholdPercent * 100,
	}

	if used >= d.config.ThresholdPercent {
		return Down(
			fmt.Sprintf("disk usage above threshold: %.1f%%", stat.UsedPercent),
			fmt.Errorf("%w: %s at %.1f%%", ErrCheckFailed, d.config.Path, stat.UsedPercent),
		).WithDetails(details)
	}

	return Up(fmt.Sprintf("disk usage normal: %.1f%%", stat.UsedPercent)).WithDetails(details)
}
