// Package resilience provides the failure-isolation primitives the gateway
// wraps around its collaborators.
//
// # Patterns
//
//   - CircuitBreaker stops calling the GraphQL engine after repeated
//     failures and probes it again once ResetTimeout has passed.
//
//   - Retry re-runs an operation with constant or exponential backoff. The
//     database pool is opened through it at startup.
//
//   - Bulkhead caps concurrent work. Detached health snapshot writes run
//     behind one so a slow engine cannot pile up goroutines.
//
//   - Limiter is a keyed token bucket used to throttle write routes per
//     client.
//
//   - ExecuteWithTimeout bounds a single call and reports ErrTimeout.
//
// # Composition
//
// Executor chains the patterns in a fixed order: bulkhead, circuit breaker,
// retry, timeout. The Limiter is applied separately at the HTTP edge.
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        Name:         "hasura",
//	        MaxFailures:  5,
//	        ResetTimeout: 30 * time.Second,
//	    })),
//	    resilience.WithTimeout(5*time.Second),
//	)
//
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    return client.Run(ctx, req, &resp)
//	})
package resilience
