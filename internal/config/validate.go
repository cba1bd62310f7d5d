package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
)

// Sentinel errors.
var (
	ErrInvalid         = errors.New("config: invalid value")
	ErrMissingVariable = errors.New("config: missing required environment variables")
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Unwrap lets callers match ErrInvalid.
func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	if u, err := url.Parse(c.Database.URL); err != nil || u.Scheme == "" {
		return &ValidationError{Field: "database.url", Message: "must be a connection URL"}
	}
	if c.Database.ConnectAttempts < 1 {
		return &ValidationError{Field: "database.connect_attempts", Message: "must be at least 1"}
	}
	if c.Hasura.URL != "" {
		if u, err := url.Parse(c.Hasura.URL); err != nil || u.Host == "" {
			return &ValidationError{Field: "hasura.url", Message: "must be an absolute URL"}
		}
	}
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error"}
	}
	if c.Telemetry.SamplePct < 0 || c.Telemetry.SamplePct > 1 {
		return &ValidationError{Field: "telemetry.sample_pct", Message: "must be between 0 and 1"}
	}
	if c.Health.DiskThresholdPct <= 0 || c.Health.DiskThresholdPct > 1 {
		return &ValidationError{Field: "health.disk_threshold_pct", Message: "must be in (0, 1]"}
	}
	if c.RateLimit.Rate < 0 || c.RateLimit.Burst < 1 {
		return &ValidationError{Field: "rate_limit", Message: "rate must be >= 0 and burst >= 1"}
	}
	return nil
}
