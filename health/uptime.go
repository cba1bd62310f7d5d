package health

import (
	"context"
	"time"
)

// UptimeChecker reports how long the process has been running. It is always up.
type UptimeChecker struct {
	startedAt time.Time
	now       func() time.Time
}

// NewUptimeChecker creates an uptime checker anchored at startedAt.
func NewUptimeChecker(startedAt time.Time) *UptimeChecker {
	return &UptimeChecker{startedAt: startedAt, now: time.Now}
}

// Name returns "uptime".
func (u *UptimeChecker) Name() string {
	return "uptime"
}

// StartedAt returns the process start time.
func (u *UptimeChecker) StartedAt() time.Time {
	return u.startedAt
}

// Check reports the current uptime.
func (u *UptimeChecker) Check(_ context.Context) Result {
	uptime := u.now().Sub(u.startedAt)
	return Up("running").WithDetails(map[string]any{
		"uptimeInSeconds": int64(uptime.Seconds()),
		"startedAt":       u.startedAt.UTC().Format(time.RFC3339),
	})
}
