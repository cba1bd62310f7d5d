package health

import "errors"

var (
	// ErrCheckFailed indicates a health check failed.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check timed out.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckPanicked indicates a probe panicked and was recovered.
	ErrCheckPanicked = errors.New("health: check panicked")

	// ErrNoDatabaseProbe indicates the aggregator was built without a database probe.
	ErrNoDatabaseProbe = errors.New("health: database probe not configured")

	// ErrEngineUnavailable indicates no GraphQL engine is configured.
	ErrEngineUnavailable = errors.New("health: graphql engine not configured")

	// ErrEngineUnreachable indicates the GraphQL engine did not answer.
	ErrEngineUnreachable = errors.New("health: graphql engine unreachable")

	// ErrAggregationFailed indicates the aggregator itself failed and the
	// fallback report was used.
	ErrAggregationFailed = errors.New("health: aggregation failed")

	// ErrSnapshotRejected indicates the engine refused a snapshot write.
	ErrSnapshotRejected = errors.New("health: snapshot not recorded")
)
