package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State represents the circuit breaker state.
type State int

const (
	// StateClosed means calls flow normally.
	StateClosed State = iota
	// StateOpen means calls are rejected with ErrCircuitOpen.
	StateOpen
	// StateHalfOpen means a limited number of trial calls are let through.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig configures the circuit breaker.
type CircuitBreakerConfig struct {
	// Name identifies the guarded collaborator in state change callbacks.
	Name string

	// MaxFailures is the number of consecutive failures that opens the circuit.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long the circuit stays open before a trial call.
	// Default: 30 seconds
	ResetTimeout time.Duration

	// HalfOpenMaxRequests is the number of trial calls allowed while half-open.
	// Default: 1
	HalfOpenMaxRequests int

	// OnStateChange is called after every transition, outside the lock.
	OnStateChange func(name string, from, to State)

	// IsFailure decides whether an error counts against the circuit.
	// Default: any non-nil error except context cancellation.
	IsFailure func(err error) bool
}

type transition struct {
	from, to State
}

// CircuitBreaker implements the circuit breaker pattern.
type CircuitBreaker struct {
	config CircuitBreakerConfig
	now    func() time.Time

	mu        sync.Mutex
	state     State
	failures  int
	openedAt  time.Time
	trials    int
	rejected  int64
	lastError error
}

// NewCircuitBreaker creates a new circuit breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxRequests <= 0 {
		config.HalfOpenMaxRequests = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = func(err error) bool {
			return err != nil && !errors.Is(err, context.Canceled)
		}
	}

	return &CircuitBreaker{
		config: config,
		now:    time.Now,
		state:  StateClosed,
	}
}

// Execute runs op unless the circuit is open.
func (cb *CircuitBreaker) Execute(ctx context.Context, op Op) error {
	if err := cb.before(); err != nil {
		return err
	}

	err := op(ctx)
	cb.after(err)
	return err
}

// State returns the current circuit state.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	state, moved := cb.refreshLocked()
	cb.mu.Unlock()

	cb.notify(moved)
	return state
}

// Reset closes the circuit and clears its counters.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	moved := cb.moveLocked(StateClosed)
	cb.failures = 0
	cb.lastError = nil
	cb.mu.Unlock()

	cb.notify(moved)
}

func (cb *CircuitBreaker) before() error {
	cb.mu.Lock()
	state, moved := cb.refreshLocked()

	var err error
	switch state {
	case StateOpen:
		err = ErrCircuitOpen
	case StateHalfOpen:
		if cb.trials >= cb.config.HalfOpenMaxRequests {
			err = ErrCircuitOpen
		} else {
			cb.trials++
		}
	}
	if err != nil {
		cb.rejected++
	}
	cb.mu.Unlock()

	cb.notify(moved)
	return err
}

func (cb *CircuitBreaker) after(err error) {
	failed := cb.config.IsFailure(err)

	cb.mu.Lock()
	var moved *transition
	switch cb.state {
	case StateClosed:
		if !failed {
			cb.failures = 0
			break
		}
		cb.failures++
		cb.lastError = err
		if cb.failures >= cb.config.MaxFailures {
			cb.openedAt = cb.now()
			moved = cb.moveLocked(StateOpen)
		}
	case StateHalfOpen:
		if failed {
			cb.lastError = err
			cb.openedAt = cb.now()
			moved = cb.moveLocked(StateOpen)
		} else {
			cb.failures = 0
			moved = cb.moveLocked(StateClosed)
		}
	}
	cb.mu.Unlock()

	cb.notify(moved)
}

// refreshLocked promotes an open circuit to half-open once ResetTimeout has
// elapsed.
func (cb *CircuitBreaker) refreshLocked() (State, *transition) {
	if cb.state == StateOpen && cb.now().Sub(cb.openedAt) >= cb.config.ResetTimeout {
		return StateHalfOpen, cb.moveLocked(StateHalfOpen)
	}
	return cb.state, nil
}

func (cb *CircuitBreaker) moveLocked(to State) *transition {
	from := cb.state
	if from == to {
		return nil
	}
	cb.state = to
	cb.trials = 0
	return &transition{from: from, to: to}
}

func (cb *CircuitBreaker) notify(t *transition) {
	if t == nil || cb.config.OnStateChange == nil {
		return
	}
	cb.config.OnStateChange(cb.config.Name, t.from, t.to)
}

// Metrics returns current circuit breaker statistics.
func (cb *CircuitBreaker) Metrics() CircuitBreakerMetrics {
	cb.mu.Lock()
	state, moved := cb.refreshLocked()
	m := CircuitBreakerMetrics{
		Name:     cb.config.Name,
		State:    state,
		Failures: cb.failures,
		Rejected: cb.rejected,
		OpenedAt: cb.openedAt,
	}
	if cb.lastError != nil {
		m.LastError = cb.lastError.Error()
	}
	cb.mu.Unlock()

	cb.notify(moved)
	return m
}

// CircuitBreakerMetrics contains circuit breaker statistics.
type CircuitBreakerMetrics struct {
	Name      string    `json:"name"`
	State     State     `json:"-"`
	Failures  int       `json:"consecutive_failures"`
	Rejected  int64     `json:"rejected"`
	OpenedAt  time.Time `json:"opened_at,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}
