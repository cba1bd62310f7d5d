package hasura

import (
	"context"

	"github.com/jonwraymond/healthgate/cache"
	"github.com/jonwraymond/healthgate/health"
)

const metadataNamespace = "app_metadata"

type appMetadataRow struct {
	Component  string         `json:"component"`
	Version    string         `json:"version"`
	DeployedAt timestamp      `json:"deployed_at"`
	GitCommit  *string        `json:"git_commit"`
	Metadata   map[string]any `json:"metadata"`
}

// Metadata returns the deployed component versions for environment. Results
// are cached when the client has a cache.
func (c *Client) Metadata(ctx context.Context, environment string) ([]health.AppMetadata, error) {
	if c.loader == nil {
		return c.fetchMetadata(ctx, environment)
	}
	return cache.GetJSON(ctx, c.loader, metadataNamespace, metadataKey(environment),
		func(ctx context.Context) ([]health.AppMetadata, error) {
			return c.fetchMetadata(ctx, environment)
		})
}

func (c *Client) fetchMetadata(ctx context.Context, environment string) ([]health.AppMetadata, error) {
	var resp struct {
		AppMetadata []appMetadataRow `json:"app_metadata"`
	}
	vars := map[string]any{"env": environment}
	if err := c.run(ctx, "GetAppMetadata", getAppMetadataQuery, vars, &resp); err != nil {
		return nil, err
	}

	out := make([]health.AppMetadata, 0, len(resp.AppMetadata))
	for _, row := range resp.AppMetadata {
		m := health.AppMetadata{
			Component:  row.Component,
			Version:    row.Version,
			DeployedAt: row.DeployedAt.Time,
			Metadata:   row.Metadata,
		}
		if row.GitCommit != nil {
			m.GitCommit = *row.GitCommit
		}
		out = append(out, m)
	}
	return out, nil
}

// MetadataUpdate is an upsert of one component's deployed version.
type MetadataUpdate struct {
	Component   string
	Version     string
	Environment string
	GitCommit   string
	Metadata    map[string]any
}

// UpdateMetadata upserts the component version for its environment and drops
// the cached metadata for that environment.
func (c *Client) UpdateMetadata(ctx context.Context, update MetadataUpdate) error {
	vars := map[string]any{
		"component":   update.Component,
		"version":     update.Version,
		"environment": update.Environment,
		"git_commit":  nullable(update.GitCommit),
		"metadata":    update.Metadata,
	}
	var resp struct {
		Inserted *struct {
			ID int64 `json:"id"`
		} `json:"insert_app_metadata_one"`
	}
	if err := c.run(ctx, "UpdateAppMetadata", updateAppMetadataMutation, vars, &resp); err != nil {
		return err
	}

	if c.loader != nil {
		_ = c.loader.Invalidate(ctx, metadataNamespace, metadataKey(update.Environment))
	}
	if resp.Inserted == nil {
		return ErrEmptyResponse
	}
	return nil
}

// RecordSnapshot persists a health snapshot. Failures are logged by the
// middleware and reported as false.
func (c *Client) RecordSnapshot(ctx context.Context, snapshot health.Snapshot) bool {
	var resp struct {
		Inserted *struct {
			ID int64 `json:"id"`
		} `json:"insert_health_snapshots_one"`
	}
	vars := map[string]any{"snapshot": snapshot}
	if err := c.run(ctx, "RecordHealthSnapshot", recordHealthSnapshotMutation, vars, &resp); err != nil {
		return false
	}
	return resp.Inserted != nil
}

func metadataKey(environment string) map[string]string {
	return map[string]string{"environment": environment}
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
