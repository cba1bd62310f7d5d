package health

import (
	"errors"
	"testing"
	"time"
)

func TestMerge(t *testing.T) {
	tests := []struct {
		name     string
		database Status
		engine   Status
		aux      []Status
		want     Status
	}{
		{"all up", StatusUp, StatusUp, nil, StatusUp},
		{"engine down", StatusUp, StatusDown, nil, StatusDegraded},
		{"engine degraded", StatusUp, StatusDegraded, nil, StatusDegraded},
		{"database down", StatusDown, StatusUp, nil, StatusDown},
		{"both down", StatusDown, StatusDown, nil, StatusDown},
		{"database degraded", StatusDegraded, StatusUp, nil, StatusDegraded},
		{"aux degraded", StatusUp, StatusUp, []Status{StatusUp, StatusDegraded}, StatusDegraded},
		{"aux down never takes it down", StatusUp, StatusUp, []Status{StatusDown}, StatusDegraded},
		{"database down wins over aux", StatusDown, StatusUp, []Status{StatusUp}, StatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Merge(tt.database, tt.engine, tt.aux...); got != tt.want {
				t.Errorf("Merge() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestReport_ErrorsOnlyForFailures(t *testing.T) {
	r := newReport(time.Now())
	r.add(ComponentDatabase, Up("ok"))
	if r.Errors != nil {
		t.Errorf("Errors = %v, want nil when nothing failed", r.Errors)
	}

	r.add(ComponentGraphQLEngine, Down("unreachable", errors.New("timeout")))
	if r.Errors[ComponentGraphQLEngine] != "timeout" {
		t.Errorf("Errors[graphql_engine] = %q, want timeout", r.Errors[ComponentGraphQLEngine])
	}
	if _, ok := r.Errors[ComponentDatabase]; ok {
		t.Error("database should not appear in Errors")
	}
}

func TestReport_DegradedIsNotAFailure(t *testing.T) {
	r := newReport(time.Now())
	r.add(ComponentDatabase, Up("ok"))
	r.add("heap", Degraded("heap near limit"))

	if r.Errors != nil {
		t.Errorf("Errors = %v, want nil for a degraded component", r.Errors)
	}
	if r.Components["heap"] != StatusDegraded {
		t.Errorf("Components[heap] = %v, want degraded", r.Components["heap"])
	}
	if r.Results["heap"].Message != "heap near limit" {
		t.Errorf("Results[heap].Message = %q", r.Results["heap"].Message)
	}
	if s := r.Snapshot(); s.Errors != nil {
		t.Errorf("Snapshot().Errors = %v, want nil", s.Errors)
	}
}

func TestReport_Snapshot(t *testing.T) {
	r := newReport(time.Now())
	r.add(ComponentDatabase, Down("unreachable", errors.New("connection refused")).WithDuration(1500*time.Millisecond))
	r.add(ComponentGraphQLEngine, Up("ok").WithDuration(20*time.Millisecond))
	r.Status = StatusDown

	s := r.Snapshot()
	if s.OverallStatus != StatusDown {
		t.Errorf("OverallStatus = %v, want down", s.OverallStatus)
	}
	if s.ComponentStatuses[ComponentGraphQLEngine] != StatusUp {
		t.Errorf("ComponentStatuses[graphql_engine] = %v, want up", s.ComponentStatuses[ComponentGraphQLEngine])
	}
	if s.ResponseTimes[ComponentDatabase] != 1500 {
		t.Errorf("ResponseTimes[database] = %d, want 1500", s.ResponseTimes[ComponentDatabase])
	}
	if s.Errors[ComponentDatabase] != "connection refused" {
		t.Errorf("Errors[database] = %q, want connection refused", s.Errors[ComponentDatabase])
	}

	// The snapshot must not alias the report maps.
	s.ComponentStatuses[ComponentDatabase] = StatusUp
	if r.Components[ComponentDatabase] != StatusDown {
		t.Error("mutating the snapshot changed the report")
	}
}
