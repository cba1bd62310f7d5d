package hasura

import "errors"

// Sentinel errors.
var (
	// ErrNotConfigured is returned by New when the URL or admin secret is missing.
	ErrNotConfigured = errors.New("hasura: url and admin secret are required")

	// ErrEmptyResponse indicates a mutation returned no row.
	ErrEmptyResponse = errors.New("hasura: empty response")
)
