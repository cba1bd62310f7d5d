package httpapi

import (
	"net/http"
	"strings"
	"testing"

	"github.com/jonwraymond/healthgate/internal/activity"
)

type response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func TestLogActivity(t *testing.T) {
	tests := []struct {
		name     string
		body     any
		storeErr error
		want     int
	}{
		{name: "created", body: map[string]string{"action": "user.login"}, want: http.StatusCreated},
		{name: "missing action", body: map[string]string{}, want: http.StatusBadRequest},
		{name: "malformed json", body: "{", want: http.StatusBadRequest},
		{name: "too long", body: map[string]string{"action": strings.Repeat("a", 101)}, want: http.StatusBadRequest},
		{name: "store failure", body: map[string]string{"action": "x"}, storeErr: errStoreDown, want: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.store.err = tt.storeErr

			w := f.do(http.MethodPost, "/api/activity/log", tt.body)
			assertStatus(t, w, tt.want)

			resp := decode[response[activity.Activity]](t, w)
			if resp.Success != (tt.want == http.StatusCreated) {
				t.Errorf("success = %v", resp.Success)
			}
			if tt.want == http.StatusCreated && resp.Data.Action != "user.login" {
				t.Errorf("data = %+v", resp.Data)
			}
			if tt.want != http.StatusCreated && resp.Error == "" {
				t.Error("error message missing")
			}
		})
	}
}

func TestLogBulk(t *testing.T) {
	tests := []struct {
		name string
		body any
		want int
	}{
		{name: "actions form", body: map[string]any{"actions": []string{"a", "b"}}, want: http.StatusCreated},
		{name: "activities form", body: map[string]any{"activities": []map[string]string{{"action": "a"}, {"action": "b"}}}, want: http.StatusCreated},
		{name: "empty", body: map[string]any{"actions": []string{}}, want: http.StatusBadRequest},
		{name: "blank entry", body: map[string]any{"actions": []string{"a", " "}}, want: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			w := f.do(http.MethodPost, "/api/activity/bulk", tt.body)
			assertStatus(t, w, tt.want)

			if tt.want == http.StatusCreated {
				resp := decode[response[bulkResult]](t, w)
				if resp.Data.Created != 2 || len(resp.Data.Activities) != 2 {
					t.Errorf("data = %+v", resp.Data)
				}
			}
		})
	}
}

func TestRecent(t *testing.T) {
	f := newFixture(t, nil)
	for _, a := range []string{"one", "two", "three"} {
		assertStatus(t, f.do(http.MethodPost, "/api/activity/log", map[string]string{"action": a}), http.StatusCreated)
	}

	tests := []struct {
		query string
		want  int
	}{
		{query: "", want: 3},
		{query: "?limit=2", want: 2},
		{query: "?limit=abc", want: 3},
		{query: "?limit=500", want: 3},
	}
	for _, tt := range tests {
		w := f.do(http.MethodGet, "/api/activity/recent"+tt.query, nil)
		assertStatus(t, w, http.StatusOK)
		resp := decode[response[[]activity.Activity]](t, w)
		if len(resp.Data) != tt.want {
			t.Errorf("recent%s = %d items, want %d", tt.query, len(resp.Data), tt.want)
		}
	}
}

func TestStats(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodGet, "/api/activity/stats", nil)
	assertStatus(t, w, http.StatusOK)
	resp := decode[response[statsResult]](t, w)
	if resp.Data.TimeRange != "24 hours" {
		t.Errorf("timeRange = %q", resp.Data.TimeRange)
	}
	if resp.Data.TopActions == nil {
		t.Error("topActions is null, want empty list")
	}

	w = f.do(http.MethodGet, "/api/activity/stats?hours=6", nil)
	if got := decode[response[statsResult]](t, w).Data.TimeRange; got != "6 hours" {
		t.Errorf("timeRange = %q, want 6 hours", got)
	}

	f.store.err = errStoreDown
	assertStatus(t, f.do(http.MethodGet, "/api/activity/stats", nil), http.StatusInternalServerError)
}

func TestActivityHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/api/activity/health", nil)
	assertStatus(t, w, http.StatusOK)
	if got := decode[activity.HealthStatus](t, w); got.Store != "primary" {
		t.Errorf("health = %+v", got)
	}

	f.store.err = errStoreDown
	assertStatus(t, f.do(http.MethodGet, "/api/activity/health", nil), http.StatusServiceUnavailable)
}

func TestLegacyRoutes(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(http.MethodPost, "/api/activities/bulk", map[string]any{"actions": []string{"a", "b"}})
	assertStatus(t, w, http.StatusOK)
	if resp := decode[response[any]](t, w); !resp.Success || resp.Message != "2 activities logged" {
		t.Errorf("bulk = %+v", resp)
	}

	assertStatus(t, f.do(http.MethodPost, "/api/activities/bulk", map[string]any{}), http.StatusBadRequest)

	w = f.do(http.MethodGet, "/api/activities", nil)
	assertStatus(t, w, http.StatusOK)
	// The detached api.request write may or may not land first.
	if resp := decode[response[[]activity.Activity]](t, w); len(resp.Data) < 2 {
		t.Errorf("activities = %+v", resp.Data)
	}

	f.api.Wait()
	found := false
	for _, a := range f.store.actions() {
		if a == "api.request.activities" {
			found = true
		}
	}
	if !found {
		t.Errorf("api request not logged: %v", f.store.actions())
	}
}
