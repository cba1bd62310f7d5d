package resilience

import (
	"context"
	"time"
)

// Executor composes resilience patterns around an Op.
type Executor struct {
	circuitBreaker *CircuitBreaker
	retry          *Retry
	bulkhead       *Bulkhead
	timeout        time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates a new resilience executor.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithCircuitBreaker adds a circuit breaker to the executor.
func WithCircuitBreaker(cb *CircuitBreaker) ExecutorOption {
	return func(e *Executor) {
		e.circuitBreaker = cb
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithBulkhead adds bulkhead isolation to the executor.
func WithBulkhead(b *Bulkhead) ExecutorOption {
	return func(e *Executor) {
		e.bulkhead = b
	}
}

// WithTimeout bounds each attempt.
func WithTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.timeout = timeout
	}
}

// CircuitBreaker returns the configured breaker, or nil.
func (e *Executor) CircuitBreaker() *CircuitBreaker {
	return e.circuitBreaker
}

// Execute runs op through the configured patterns. From the outside in:
// bulkhead, circuit breaker, retry, timeout. The breaker therefore sees one
// outcome per call, after retries.
func (e *Executor) Execute(ctx context.Context, op Op) error {
	run := op

	if e.timeout > 0 {
		inner := run
		run = func(ctx context.Context) error {
			return ExecuteWithTimeout(ctx, e.timeout, inner)
		}
	}
	if e.retry != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.retry.Execute(ctx, inner)
		}
	}
	if e.circuitBreaker != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.circuitBreaker.Execute(ctx, inner)
		}
	}
	if e.bulkhead != nil {
		inner := run
		run = func(ctx context.Context) error {
			return e.bulkhead.Execute(ctx, inner)
		}
	}

	return run(ctx)
}
