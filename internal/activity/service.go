package activity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonwraymond/healthgate/eventbus"
	"github.com/jonwraymond/healthgate/health"
	"github.com/jonwraymond/healthgate/observe"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
	defaultStatsHours  = 24
)

// Service logs activities to the first working store and announces them on
// the bus.
type Service struct {
	primary  health.Probe[Store]
	fallback health.Probe[Store]
	bus      *eventbus.Bus
	logger   observe.Logger
	now      func() time.Time
}

// NewService creates a service. primary is normally the GraphQL engine and
// fallback the direct database store; either may be unavailable.
func NewService(primary, fallback health.Probe[Store], bus *eventbus.Bus, logger observe.Logger) *Service {
	if bus == nil {
		bus = eventbus.New()
	}
	if logger == nil {
		logger = observe.NewNopLogger()
	}
	return &Service{
		primary:  primary,
		fallback: fallback,
		bus:      bus,
		logger:   logger,
		now:      time.Now,
	}
}

type namedStore struct {
	name  string
	store Store
}

func (s *Service) stores() []namedStore {
	var out []namedStore
	if st, ok := s.primary.Handle(); ok {
		out = append(out, namedStore{name: "primary", store: st})
	}
	if st, ok := s.fallback.Handle(); ok {
		out = append(out, namedStore{name: "fallback", store: st})
	}
	return out
}

// firstSuccess runs fn against each available store in order and returns the
// first success.
func firstSuccess[T any](ctx context.Context, s *Service, op string, fn func(Store) (T, error)) (T, string, error) {
	var (
		zero T
		errs []error
	)
	for _, ns := range s.stores() {
		v, err := fn(ns.store)
		if err == nil {
			return v, ns.name, nil
		}
		s.logger.Warn(ctx, "activity store failed",
			observe.Field{Key: "op", Value: op},
			observe.Field{Key: "store", Value: ns.name},
			observe.Field{Key: "error", Value: err},
		)
		errs = append(errs, fmt.Errorf("%s: %w", ns.name, err))
	}
	if len(errs) == 0 {
		return zero, "", ErrNoStore
	}
	return zero, "", fmt.Errorf("activity: %s: %w", op, errors.Join(errs...))
}

func validateAction(action string) (string, error) {
	action = strings.TrimSpace(action)
	if action == "" {
		return "", ErrEmptyAction
	}
	if utf8.RuneCountInString(action) > MaxActionLength {
		return "", ErrActionTooLong
	}
	return action, nil
}

// Log records one activity and waits for every activity.created subscriber.
func (s *Service) Log(ctx context.Context, action string) (Activity, error) {
	action, err := validateAction(action)
	if err != nil {
		return Activity{}, err
	}

	a, _, err := firstSuccess(ctx, s, "log", func(st Store) (Activity, error) {
		return st.Create(ctx, action)
	})
	if err != nil {
		return Activity{}, err
	}

	s.bus.Emit(ctx, eventbus.TypeActivityCreated, a)
	return a, nil
}

// LogBulk records several activities in one write and waits for every
// activity.bulk_created subscriber. Only one store is written: the primary
// when available, the fallback otherwise.
func (s *Service) LogBulk(ctx context.Context, actions []string) ([]Activity, error) {
	if len(actions) == 0 {
		return nil, ErrNoActions
	}
	cleaned := make([]string, len(actions))
	for i, a := range actions {
		v, err := validateAction(a)
		if err != nil {
			return nil, fmt.Errorf("actions[%d]: %w", i, err)
		}
		cleaned[i] = v
	}

	stores := s.stores()
	if len(stores) == 0 {
		return nil, ErrNoStore
	}
	created, err := stores[0].store.CreateMany(ctx, cleaned)
	if err != nil {
		return nil, fmt.Errorf("activity: log bulk: %w", err)
	}

	s.bus.Emit(ctx, eventbus.TypeActivityBulkCreated, BulkCreated{
		Count:      len(created),
		Activities: created,
	})
	return created, nil
}

// Recent returns the newest activities. limit defaults to 20 and is clamped
// to [1, 100].
func (s *Service) Recent(ctx context.Context, limit int) ([]Activity, error) {
	limit = ClampLimit(limit)
	out, _, err := firstSuccess(ctx, s, "recent", func(st Store) ([]Activity, error) {
		return st.Recent(ctx, limit)
	})
	return out, err
}

// ClampLimit applies the default and bounds of Recent.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultRecentLimit
	case limit > maxRecentLimit:
		return maxRecentLimit
	default:
		return limit
	}
}

// Stats summarizes the last hours of activity. hours defaults to 24.
func (s *Service) Stats(ctx context.Context, hours int) (Stats, error) {
	if hours <= 0 {
		hours = defaultStatsHours
	}
	since := s.now().Add(-time.Duration(hours) * time.Hour)
	out, _, err := firstSuccess(ctx, s, "stats", func(st Store) (Stats, error) {
		return st.Stats(ctx, since)
	})
	return out, err
}

// HealthStatus is the readiness of the activity feature.
type HealthStatus struct {
	Status health.Status `json:"status"`
	Store  string        `json:"store,omitempty"`
	Total  int           `json:"total_activities"`
	Error  string        `json:"error,omitempty"`
}

// Health counts activities through the stores. It is up when the primary
// answers, degraded when only the fallback does, and down otherwise.
func (s *Service) Health(ctx context.Context) HealthStatus {
	total, store, err := firstSuccess(ctx, s, "count", func(st Store) (int, error) {
		return st.Count(ctx)
	})
	if err != nil {
		return HealthStatus{Status: health.StatusDown, Error: err.Error()}
	}

	status := health.StatusUp
	if store != "primary" {
		status = health.StatusDegraded
	}
	return HealthStatus{Status: status, Store: store, Total: total}
}
