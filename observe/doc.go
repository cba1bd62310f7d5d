// Package observe provides the gateway's telemetry primitives: a context-aware
// structured logger backed by zap, OpenTelemetry tracing and metrics, and a
// middleware that instruments collaborator calls.
package observe
