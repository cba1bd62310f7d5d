package health

import (
	"context"
	"strings"
	"time"
)

// Status represents the health status of a component or of the whole gateway.
type Status string

const (
	// StatusUp indicates the component is reachable and functioning.
	StatusUp Status = "up"
	// StatusDegraded indicates the gateway is serving with a secondary dependency missing.
	StatusDegraded Status = "degraded"
	// StatusDown indicates the component is unreachable.
	StatusDown Status = "down"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// ParseStatus normalizes the vocabulary used by individual probes.
// Anything that is not recognizably up or degraded is treated as down.
func ParseStatus(raw string) Status {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "up", "ok", "healthy":
		return StatusUp
	case "degraded":
		return StatusDegraded
	default:
		return StatusDown
	}
}

// Result contains the outcome of one probe invocation.
type Result struct {
	// Status is the normalized probe status.
	Status Status

	// Message provides additional context about the status.
	Message string

	// Details contains arbitrary metadata about the check.
	Details map[string]any

	// Duration is the probe latency.
	Duration time.Duration

	// Timestamp is when the probe was evaluated.
	Timestamp time.Time

	// Error is the failure, if any.
	Error error
}

// Up creates an up result.
func Up(message string) Result {
	return Result{
		Status:    StatusUp,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return Result{
		Status:    StatusDegraded,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Down creates a down result.
func Down(message string, err error) Result {
	return Result{
		Status:    StatusDown,
		Message:   message,
		Error:     err,
		Timestamp: time.Now(),
	}
}

// WithDetails adds details to a result.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration sets the duration on a result.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// ErrorString returns the human-readable failure, or "" for a passing result.
func (r Result) ErrorString() string {
	if r.Error != nil {
		return r.Error.Error()
	}
	if r.Status != StatusUp {
		return r.Message
	}
	return ""
}

// Checker is the interface for auxiliary health checks such as uptime,
// memory and disk.
type Checker interface {
	// Name returns the component name reported for this checker.
	Name() string

	// Check performs the health check and returns the result.
	Check(ctx context.Context) Result
}

// CheckerFunc is an adapter to allow ordinary functions to be used as Checkers.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a new CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the name of this checker.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check performs the health check.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
