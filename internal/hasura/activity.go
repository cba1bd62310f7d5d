package hasura

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jonwraymond/healthgate/internal/activity"
)

type activityRow struct {
	ID        uuid.UUID `json:"id"`
	Timestamp timestamp `json:"timestamp"`
	Action    string    `json:"action"`
}

func (r activityRow) activity() activity.Activity {
	return activity.Activity{ID: r.ID, Timestamp: r.Timestamp.Time, Action: r.Action}
}

func toActivities(rows []activityRow) []activity.Activity {
	out := make([]activity.Activity, len(rows))
	for i, r := range rows {
		out[i] = r.activity()
	}
	return out
}

type aggregate struct {
	Aggregate struct {
		Count int `json:"count"`
	} `json:"aggregate"`
}

// CreateActivity inserts one activity.
func (c *Client) CreateActivity(ctx context.Context, action string) (activity.Activity, error) {
	var resp struct {
		Inserted *activityRow `json:"insert_activity_log_one"`
	}
	vars := map[string]any{"activity": map[string]any{"action": action}}
	if err := c.run(ctx, "CreateActivity", createActivityMutation, vars, &resp); err != nil {
		return activity.Activity{}, err
	}
	if resp.Inserted == nil {
		return activity.Activity{}, ErrEmptyResponse
	}
	return resp.Inserted.activity(), nil
}

// CreateActivities inserts activities in one mutation.
func (c *Client) CreateActivities(ctx context.Context, actions []string) ([]activity.Activity, error) {
	objects := make([]map[string]any, len(actions))
	for i, a := range actions {
		objects[i] = map[string]any{"action": a}
	}
	var resp struct {
		Insert struct {
			Returning    []activityRow `json:"returning"`
			AffectedRows int           `json:"affected_rows"`
		} `json:"insert_activity_log"`
	}
	if err := c.run(ctx, "CreateBulkActivities", createActivitiesMutation, map[string]any{"activities": objects}, &resp); err != nil {
		return nil, err
	}
	return toActivities(resp.Insert.Returning), nil
}

// RecentActivities returns the newest activities first.
func (c *Client) RecentActivities(ctx context.Context, limit int) ([]activity.Activity, error) {
	var resp struct {
		Rows []activityRow `json:"activity_log"`
	}
	if err := c.run(ctx, "GetRecentActivities", recentActivitiesQuery, map[string]any{"limit": limit}, &resp); err != nil {
		return nil, err
	}
	return toActivities(resp.Rows), nil
}

// ActivityStats counts activities since a time and lists distinct actions.
func (c *Client) ActivityStats(ctx context.Context, since time.Time) (activity.Stats, error) {
	var resp struct {
		Aggregate     aggregate `json:"activity_log_aggregate"`
		RecentActions []struct {
			Action string `json:"action"`
		} `json:"recent_actions"`
	}
	vars := map[string]any{"since": since.UTC().Format(time.RFC3339Nano)}
	if err := c.run(ctx, "GetActivityStats", activityStatsQuery, vars, &resp); err != nil {
		return activity.Stats{}, err
	}

	stats := activity.Stats{
		Total:   resp.Aggregate.Aggregate.Count,
		Since:   since,
		Actions: make([]string, 0, len(resp.RecentActions)),
	}
	for _, a := range resp.RecentActions {
		stats.Actions = append(stats.Actions, a.Action)
	}
	return stats, nil
}

// ActivityCount returns the total number of activities.
func (c *Client) ActivityCount(ctx context.Context) (int, error) {
	var resp struct {
		Aggregate aggregate `json:"activity_log_aggregate"`
	}
	if err := c.run(ctx, "GetActivityCount", activityCountQuery, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Aggregate.Aggregate.Count, nil
}

// ActivityStore adapts the client to activity.Store.
func (c *Client) ActivityStore() activity.Store {
	return activityStore{c: c}
}

type activityStore struct {
	c *Client
}

func (s activityStore) Create(ctx context.Context, action string) (activity.Activity, error) {
	return s.c.CreateActivity(ctx, action)
}

func (s activityStore) CreateMany(ctx context.Context, actions []string) ([]activity.Activity, error) {
	return s.c.CreateActivities(ctx, actions)
}

func (s activityStore) Recent(ctx context.Context, limit int) ([]activity.Activity, error) {
	return s.c.RecentActivities(ctx, limit)
}

func (s activityStore) Stats(ctx context.Context, since time.Time) (activity.Stats, error) {
	return s.c.ActivityStats(ctx, since)
}

func (s activityStore) Count(ctx context.Context) (int, error) {
	return s.c.ActivityCount(ctx)
}
