package health

import "time"

// Report is the composite view returned by one health check.
type Report struct {
	// Status is the overall status after applying the precedence rule.
	Status Status

	// Components maps component name to its probe status.
	Components map[string]Status

	// ResponseTimes maps component name to latency. The "total" entry is the
	// wall-clock cost of the whole check.
	ResponseTimes map[string]time.Duration

	// Errors maps each down component to a failure description. It is nil
	// when no component is down.
	Errors map[string]string

	// Results holds the raw probe results keyed by component.
	Results map[string]Result

	// Versions is the deployed version metadata. Empty when the engine is down
	// or the metadata lookup failed.
	Versions []AppMetadata

	// EngineAvailable is true when the GraphQL engine answered.
	EngineAvailable bool

	// Reduced is true for the database-only fallback report.
	Reduced bool

	// Timestamp is when the check started.
	Timestamp time.Time
}

func newReport(start time.Time) *Report {
	return &Report{
		Components:    make(map[string]Status),
		ResponseTimes: make(map[string]time.Duration),
		Results:       make(map[string]Result),
		Versions:      []AppMetadata{},
		Timestamp:     start,
	}
}

// add folds one probe result into the report. Only down components get an
// Errors entry; a degraded component keeps its message in Results.
func (r *Report) add(name string, result Result) {
	r.Components[name] = result.Status
	r.ResponseTimes[name] = result.Duration
	r.Results[name] = result
	if result.Status == StatusDown {
		if r.Errors == nil {
			r.Errors = make(map[string]string)
		}
		r.Errors[name] = result.ErrorString()
	}
}

// Merge applies the precedence rule down > degraded > up. The database is the
// primary dependency and the GraphQL engine the secondary one. Auxiliary
// statuses can degrade an otherwise healthy result but never take it down.
func Merge(database, engine Status, auxiliary ...Status) Status {
	switch {
	case database == StatusDown:
		return StatusDown
	case database == StatusDegraded, engine != StatusUp:
		return StatusDegraded
	}
	for _, s := range auxiliary {
		if s != StatusUp {
			return StatusDegraded
		}
	}
	return StatusUp
}

// Snapshot is the persisted projection of a report.
type Snapshot struct {
	OverallStatus     Status            `json:"overall_status"`
	ComponentStatuses map[string]Status `json:"component_statuses"`
	ResponseTimes     map[string]int64  `json:"response_times,omitempty"`
	Errors            map[string]string `json:"errors,omitempty"`
}

// Snapshot converts the report into its persisted form. Latencies are in
// milliseconds.
func (r *Report) Snapshot() Snapshot {
	s := Snapshot{
		OverallStatus:     r.Status,
		ComponentStatuses: make(map[string]Status, len(r.Components)),
		ResponseTimes:     make(map[string]int64, len(r.ResponseTimes)),
	}
	for k, v := range r.Components {
		s.ComponentStatuses[k] = v
	}
	for k, v := range r.ResponseTimes {
		s.ResponseTimes[k] = v.Milliseconds()
	}
	if len(r.Errors) > 0 {
		s.Errors = make(map[string]string, len(r.Errors))
		for k, v := range r.Errors {
			s.Errors[k] = v
		}
	}
	return s
}
