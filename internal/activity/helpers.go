package activity

import (
	"context"

	"github.com/jonwraymond/healthgate/observe"
)

// Well-known actions.
const (
	ActionHealthCheck   = "health.check"
	ActionSystemStartup = "system.startup"
	ActionDatabaseQuery = "database.query"
)

// The helpers below log a well-known action and report success. Failures
// are logged and swallowed.

// LogHealthCheck logs health.check.
func (s *Service) LogHealthCheck(ctx context.Context) bool {
	return s.logQuietly(ctx, ActionHealthCheck)
}

// LogSystemStartup logs system.startup.
func (s *Service) LogSystemStartup(ctx context.Context) bool {
	return s.logQuietly(ctx, ActionSystemStartup)
}

// LogDatabaseQuery logs database.query.
func (s *Service) LogDatabaseQuery(ctx context.Context) bool {
	return s.logQuietly(ctx, ActionDatabaseQuery)
}

// LogAPIRequest logs api.request.<endpoint>, or api.request without one.
func (s *Service) LogAPIRequest(ctx context.Context, endpoint string) bool {
	return s.logQuietly(ctx, qualify("api.request", endpoint))
}

// LogError logs error.<kind>, or error.occurred without one.
func (s *Service) LogError(ctx context.Context, kind string) bool {
	if kind == "" {
		kind = "occurred"
	}
	return s.logQuietly(ctx, qualify("error", kind))
}

// LogAppEvent logs app.<event>, e.g. app.shutdown.
func (s *Service) LogAppEvent(ctx context.Context, event string) bool {
	return s.logQuietly(ctx, qualify("app", event))
}

func (s *Service) logQuietly(ctx context.Context, action string) bool {
	if _, err := s.Log(ctx, action); err != nil {
		s.logger.Warn(ctx, "activity not recorded",
			observe.Field{Key: "action", Value: action},
			observe.Field{Key: "error", Value: err},
		)
		return false
	}
	return true
}

func qualify(prefix, suffix string) string {
	if suffix == "" {
		return prefix
	}
	return prefix + "." + suffix
}
