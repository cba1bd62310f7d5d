package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "OK" {
		t.Errorf("body = %q, want OK", rec.Body.String())
	}
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		status Status
		want   int
	}{
		{StatusUp, http.StatusOK},
		{StatusDegraded, http.StatusOK},
		{StatusDown, http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		if got := StatusCode(tt.status); got != tt.want {
			t.Errorf("StatusCode(%v) = %d, want %d", tt.status, got, tt.want)
		}
	}
}

func serve(t *testing.T, reporter *Reporter) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(reporter, HandlerConfig{Environment: "staging", Timeout: time.Second})(
		rec, httptest.NewRequest(http.MethodGet, "/api/health", nil),
	)

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v\n%s", err, rec.Body.String())
	}
	return rec, body
}

func TestHandler_Down(t *testing.T) {
	agg := NewAggregator(dbDown("connection refused"), engineProbe(&fakeEngine{reachable: true}), fastConfig())
	rec, body := serve(t, NewReporter(agg, nil))
	agg.Wait()

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if body["status"] != "down" {
		t.Errorf("body.status = %v, want down", body["status"])
	}
	errs, _ := body["errors"].(map[string]any)
	if errs["database"] != "connection refused" {
		t.Errorf("errors.database = %v", errs["database"])
	}
	details := body["details"].(map[string]any)
	if _, ok := details["hasura"]; !ok {
		t.Error("details should report the graphql engine under hasura")
	}
}

func TestHandler_Degraded(t *testing.T) {
	agg := NewAggregator(dbUp(), engineProbe(&fakeEngine{reachable: false}), fastConfig())
	rec, body := serve(t, NewReporter(agg, nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if body["status"] != "degraded" {
		t.Errorf("body.status = %v, want degraded", body["status"])
	}
	info := body["info"].(map[string]any)
	deployment := info["deployment"].(map[string]any)
	if deployment["environment"] != "staging" {
		t.Errorf("deployment.environment = %v, want staging", deployment["environment"])
	}
	if deployment["hasura_available"] != false {
		t.Errorf("deployment.hasura_available = %v, want false", deployment["hasura_available"])
	}
	versions, ok := info["versions"].([]any)
	if !ok || len(versions) != 0 {
		t.Errorf("info.versions = %v, want empty array", info["versions"])
	}
}

func TestHandler_Up(t *testing.T) {
	engine := &fakeEngine{
		reachable: true,
		versions:  []AppMetadata{{Component: "api", Version: "2.0.0", DeployedAt: time.Now()}},
	}
	agg := NewAggregator(dbUp(), engineProbe(engine), fastConfig())
	rec, body := serve(t, NewReporter(agg, nil))
	agg.Wait()

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if _, ok := body["errors"]; ok {
		t.Error("errors should be omitted when nothing failed")
	}
	versions := body["info"].(map[string]any)["versions"].([]any)
	if len(versions) != 1 {
		t.Fatalf("versions = %v, want 1 entry", versions)
	}
	if versions[0].(map[string]any)["version"] != "2.0.0" {
		t.Errorf("versions[0].version = %v", versions[0])
	}
	db := body["details"].(map[string]any)["database"].(map[string]any)
	if _, ok := db["response_time"]; !ok {
		t.Error("details.database should carry response_time")
	}
}

func TestHandler_ReducedOmitsDeployment(t *testing.T) {
	rec, body := serve(t, NewReporter(nil, dbUp()))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	info := body["info"].(map[string]any)
	if _, ok := info["deployment"]; ok {
		t.Error("reduced report should omit info.deployment")
	}
	if _, ok := info["versions"].([]any); !ok {
		t.Errorf("info.versions = %v, want an array", info["versions"])
	}
}

func TestNewResponse_ErrorOnlyForFailures(t *testing.T) {
	report := newReport(time.Now())
	report.add(ComponentDatabase, Up("ok"))
	report.add(ComponentGraphQLEngine, Down("unreachable", ErrEngineUnreachable))
	report.Status = StatusDegraded

	resp := NewResponse(report, "production")
	if resp.Details["database"].Error != "" {
		t.Errorf("database error = %q, want empty", resp.Details["database"].Error)
	}
	if resp.Details["hasura"].Error != ErrEngineUnreachable.Error() {
		t.Errorf("hasura error = %q", resp.Details["hasura"].Error)
	}
}

func TestHandler_HonoursRequestContext(t *testing.T) {
	agg := NewAggregator(dbUp(), Unavailable[Engine](), fastConfig())
	reporter := NewReporter(agg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	Handler(reporter, HandlerConfig{})(rec, req)

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body.Status == "" {
		t.Error("handler must always answer with a status")
	}
}
