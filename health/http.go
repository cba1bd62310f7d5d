package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// HandlerConfig configures the health report handler.
type HandlerConfig struct {
	// Environment is reported under info.deployment.
	Environment string

	// Timeout bounds the whole request.
	// Default: 15 seconds
	Timeout time.Duration
}

// Response is the JSON body of GET /api/health.
type Response struct {
	Status    string                    `json:"status"`
	Timestamp string                    `json:"timestamp"`
	Info      InfoResponse              `json:"info"`
	Details   map[string]DetailResponse `json:"details"`
	Errors    map[string]string         `json:"errors,omitempty"`
}

// InfoResponse carries version and deployment information.
type InfoResponse struct {
	Versions   []AppMetadata       `json:"versions"`
	Deployment *DeploymentResponse `json:"deployment,omitempty"`
}

// DeploymentResponse describes where the gateway runs.
type DeploymentResponse struct {
	Environment     string `json:"environment"`
	HasuraAvailable bool   `json:"hasura_available"`
}

// DetailResponse is the JSON form of one component result.
type DetailResponse struct {
	Status       string         `json:"status"`
	Message      string         `json:"message,omitempty"`
	ResponseTime *int64         `json:"response_time,omitempty"`
	Timestamp    string         `json:"timestamp,omitempty"`
	Error        string         `json:"error,omitempty"`
	Details      map[string]any `json:"details,omitempty"`
}

// detailKey maps component names to the keys used in the HTTP body.
func detailKey(component string) string {
	if component == ComponentGraphQLEngine {
		return "hasura"
	}
	return component
}

// NewResponse renders a report in the canonical response shape.
func NewResponse(report *Report, environment string) Response {
	resp := Response{
		Status:    report.Status.String(),
		Timestamp: report.Timestamp.UTC().Format(time.RFC3339),
		Info:      InfoResponse{Versions: report.Versions},
		Details:   make(map[string]DetailResponse, len(report.Results)),
	}
	if resp.Info.Versions == nil {
		resp.Info.Versions = []AppMetadata{}
	}
	if !report.Reduced {
		resp.Info.Deployment = &DeploymentResponse{
			Environment:     environment,
			HasuraAvailable: report.EngineAvailable,
		}
	}

	for name, result := range report.Results {
		ms := result.Duration.Milliseconds()
		detail := DetailResponse{
			Status:       result.Status.String(),
			Message:      result.Message,
			ResponseTime: &ms,
			Details:      result.Details,
		}
		if !result.Timestamp.IsZero() {
			detail.Timestamp = result.Timestamp.UTC().Format(time.RFC3339)
		}
		if result.Status != StatusUp {
			detail.Error = result.ErrorString()
		}
		resp.Details[detailKey(name)] = detail
	}

	if len(report.Errors) > 0 {
		resp.Errors = make(map[string]string, len(report.Errors))
		for k, v := range report.Errors {
			resp.Errors[k] = v
		}
	}
	return resp
}

// StatusCode returns 503 for a down report and 200 otherwise.
func StatusCode(status Status) int {
	if status == StatusDown {
		return http.StatusServiceUnavailable
	}
	return http.StatusOK
}

// Handler returns an HTTP handler that serves the composite health report.
// It always answers with a structured body, even when every dependency is down.
func Handler(reporter *Reporter, config HandlerConfig) http.HandlerFunc {
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}
	if config.Environment == "" {
		config.Environment = "production"
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), config.Timeout)
		defer cancel()

		report := reporter.Check(ctx)
		response := NewResponse(report, config.Environment)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(StatusCode(report.Status))
		_ = json.NewEncoder(w).Encode(response)
	}
}
