// Package version derives the running API version and records it in the
// engine's app metadata.
package version

import (
	"context"
	"fmt"
	"time"

	"github.com/jonwraymond/healthgate/health"
	"github.com/jonwraymond/healthgate/internal/hasura"
	"github.com/jonwraymond/healthgate/observe"
)

const (
	// Component is the metadata component this service reports as.
	Component = "api"

	// DefaultBase is used when no version is injected at build time.
	DefaultBase = "1.0.0"

	unknownCommit = "unknown"
)

// BuildInfo is the build metadata injected at deploy time.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildTime string
}

// Info is the version record for one deployment.
type Info struct {
	Component   string
	Version     string
	GitCommit   string
	DeployedAt  time.Time
	Environment string
}

// Current derives the version for env. Production reports the clean version.
// Staging and everything else get a -staging or -preview suffix with the
// short commit.
func Current(b BuildInfo, env string) Info {
	base := b.Version
	if base == "" {
		base = DefaultBase
	}
	commit := b.GitCommit
	if commit == "" {
		commit = unknownCommit
	}

	var v string
	switch env {
	case "production":
		v = base
	case "staging":
		v = fmt.Sprintf("%s-staging.%s", base, shortCommit(commit))
	default:
		v = fmt.Sprintf("%s-preview.%s", base, shortCommit(commit))
	}

	deployed, err := time.Parse(time.RFC3339, b.BuildTime)
	if err != nil {
		deployed = time.Now().UTC()
	}

	return Info{
		Component:   Component,
		Version:     v,
		GitCommit:   commit,
		DeployedAt:  deployed,
		Environment: env,
	}
}

func shortCommit(c string) string {
	if len(c) > 7 {
		return c[:7]
	}
	return c
}

// MetadataStore reads and upserts component metadata.
type MetadataStore interface {
	Metadata(ctx context.Context, environment string) ([]health.AppMetadata, error)
	UpdateMetadata(ctx context.Context, update hasura.MetadataUpdate) error
}

// Syncer records the running version when it differs from the stored one.
type Syncer struct {
	store  MetadataStore
	info   Info
	logger observe.Logger
}

// NewSyncer creates a syncer for info.
func NewSyncer(store MetadataStore, info Info, logger observe.Logger) *Syncer {
	if logger == nil {
		logger = observe.NewNopLogger()
	}
	return &Syncer{store: store, info: info, logger: logger}
}

// Sync compares the running version with the stored one and upserts when the
// stored record is missing or its version or commit differs. It reports
// whether an update was written. A failed read is treated as missing.
func (s *Syncer) Sync(ctx context.Context) (bool, error) {
	fields := []observe.Field{
		{Key: "component", Value: s.info.Component},
		{Key: "version", Value: s.info.Version},
	}

	stored, err := s.latest(ctx)
	if err != nil {
		s.logger.Warn(ctx, "stored version unavailable",
			append(fields, observe.Field{Key: "error", Value: err})...)
	}
	if stored != nil && stored.Version == s.info.Version && stored.GitCommit == s.info.GitCommit {
		s.logger.Info(ctx, "version unchanged", fields...)
		return false, nil
	}

	err = s.store.UpdateMetadata(ctx, hasura.MetadataUpdate{
		Component:   s.info.Component,
		Version:     s.info.Version,
		Environment: s.info.Environment,
		GitCommit:   s.info.GitCommit,
		Metadata: map[string]any{
			"deployed_at": s.info.DeployedAt.Format(time.RFC3339),
		},
	})
	if err != nil {
		return false, fmt.Errorf("version: sync %s: %w", s.info.Component, err)
	}
	s.logger.Info(ctx, "version synced",
		append(fields, observe.Field{Key: "git_commit", Value: shortCommit(s.info.GitCommit)})...)
	return true, nil
}

// SyncDetached runs Sync in the background with timeout. Failures are logged
// and never reach the caller. The returned channel closes when it finishes.
func (s *Syncer) SyncDetached(ctx context.Context, timeout time.Duration) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		if _, err := s.Sync(ctx); err != nil {
			s.logger.Warn(ctx, "version sync failed", observe.Field{Key: "error", Value: err})
		}
	}()
	return done
}

func (s *Syncer) latest(ctx context.Context) (*health.AppMetadata, error) {
	rows, err := s.store.Metadata(ctx, s.info.Environment)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Component == s.info.Component {
			return &rows[i], nil
		}
	}
	return nil, nil
}
