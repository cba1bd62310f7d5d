package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/healthgate/health"
	"github.com/jonwraymond/healthgate/internal/activity"
)

type logRequest struct {
	Action string `json:"action"`
}

// bulkRequest accepts either {"actions": [...]} or
// {"activities": [{"action": ...}]}.
type bulkRequest struct {
	Actions    []string     `json:"actions"`
	Activities []logRequest `json:"activities"`
}

func (r bulkRequest) actions() []string {
	if len(r.Actions) > 0 {
		return r.Actions
	}
	out := make([]string, len(r.Activities))
	for i, a := range r.Activities {
		out[i] = a.Action
	}
	return out
}

type bulkResult struct {
	Created    int                 `json:"created"`
	Activities []activity.Activity `json:"activities"`
}

type statsResult struct {
	TotalActivities int      `json:"totalActivities"`
	TimeRange       string   `json:"timeRange"`
	TopActions      []string `json:"topActions"`
}

// invalidInput reports whether err is a caller mistake rather than a store
// failure.
func invalidInput(err error) bool {
	return errors.Is(err, activity.ErrEmptyAction) ||
		errors.Is(err, activity.ErrActionTooLong) ||
		errors.Is(err, activity.ErrNoActions)
}

func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return n
}

func (a *API) logActivity(c *gin.Context) {
	var req logRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Action == "" {
		c.JSON(http.StatusBadRequest, failure("Action is required"))
		return
	}

	created, err := a.deps.Activities.Log(c.Request.Context(), req.Action)
	switch {
	case invalidInput(err):
		c.JSON(http.StatusBadRequest, failure(err.Error()))
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, failure("Failed to log activity"))
	default:
		c.JSON(http.StatusCreated, success(created, "Activity logged successfully"))
	}
}

func (a *API) logBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, failure("Activities array is required"))
		return
	}
	actions := req.actions()
	if len(actions) == 0 {
		c.JSON(http.StatusBadRequest, failure("Activities array is required"))
		return
	}

	created, err := a.deps.Activities.LogBulk(c.Request.Context(), actions)
	switch {
	case invalidInput(err):
		c.JSON(http.StatusBadRequest, failure(err.Error()))
	case err != nil:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, failure("Failed to log bulk activities"))
	default:
		c.JSON(http.StatusCreated, success(
			bulkResult{Created: len(created), Activities: created},
			fmt.Sprintf("%d activities logged successfully", len(created)),
		))
	}
}

func (a *API) recent(c *gin.Context) {
	list, err := a.deps.Activities.Recent(c.Request.Context(), queryInt(c, "limit"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, failure("Failed to fetch activities"))
		return
	}
	if list == nil {
		list = []activity.Activity{}
	}
	c.JSON(http.StatusOK, success(list, "Recent activities fetched"))
}

func (a *API) stats(c *gin.Context) {
	hours := queryInt(c, "hours")
	if hours <= 0 {
		hours = 24
	}
	st, err := a.deps.Activities.Stats(c.Request.Context(), hours)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, failure("Failed to fetch activity statistics"))
		return
	}

	top := st.Actions
	if top == nil {
		top = []string{}
	}
	c.JSON(http.StatusOK, success(statsResult{
		TotalActivities: st.Total,
		TimeRange:       fmt.Sprintf("%d hours", hours),
		TopActions:      top,
	}, "Activity statistics fetched successfully"))
}

func (a *API) activityHealth(c *gin.Context) {
	status := a.deps.Activities.Health(c.Request.Context())
	c.JSON(health.StatusCode(status.Status), status)
}

// legacyActivities serves GET /api/activities: the ten newest activities.
func (a *API) legacyActivities(c *gin.Context) {
	a.detach(c.Request.Context(), func(ctx context.Context) {
		a.deps.Activities.LogAPIRequest(ctx, "activities")
	})

	list, err := a.deps.Activities.Recent(c.Request.Context(), 10)
	if err != nil {
		_ = c.Error(err)
		a.detach(c.Request.Context(), func(ctx context.Context) {
			a.deps.Activities.LogError(ctx, "activities_fetch_failed")
		})
		c.JSON(http.StatusInternalServerError, failure("Failed to fetch activities"))
		return
	}
	if list == nil {
		list = []activity.Activity{}
	}
	c.JSON(http.StatusOK, success(list, "Recent activities fetched"))
}

// legacyBulk serves POST /api/activities/bulk with an {"actions": [...]} body.
func (a *API) legacyBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Actions == nil {
		c.JSON(http.StatusBadRequest, failure("Invalid request: actions array required"))
		return
	}

	created, err := a.deps.Activities.LogBulk(c.Request.Context(), req.Actions)
	switch {
	case invalidInput(err):
		c.JSON(http.StatusBadRequest, failure(err.Error()))
	case err != nil:
		_ = c.Error(err)
		a.detach(c.Request.Context(), func(ctx context.Context) {
			a.deps.Activities.LogError(ctx, "bulk_logging_failed")
		})
		c.JSON(http.StatusInternalServerError, failure("Failed to log activities in bulk"))
	default:
		c.JSON(http.StatusOK, success(nil, fmt.Sprintf("%d activities logged", len(created))))
	}
}
