package resilience

import (
	"context"
	"errors"
	"time"
)

// Op is an operation guarded by a resilience pattern.
type Op func(ctx context.Context) error

// ExecuteWithTimeout runs op under a deadline. If the deadline passes first it
// returns ErrTimeout without waiting for op; op observes the cancelled
// context and is expected to return promptly.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op Op) error {
	if timeout <= 0 {
		return op(ctx)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
