package observe

import "errors"

// Config validation errors. Validate wraps them with the offending value.
var (
	ErrMissingServiceName     = errors.New("observe: service name is required")
	ErrInvalidSamplePct       = errors.New("observe: sample percentage must be between 0.0 and 1.0")
	ErrInvalidTracingExporter = errors.New("observe: invalid tracing exporter")
	ErrInvalidMetricsExporter = errors.New("observe: invalid metrics exporter")
	ErrInvalidLogLevel        = errors.New("observe: invalid log level")
)

// Sampling bounds for TracingConfig.SamplePct.
const (
	MinSamplePct = 0.0
	MaxSamplePct = 1.0
)

// Accepted exporter and level names. The empty string selects the default.
var (
	ValidTracingExporters = []string{"otlp", "jaeger", "stdout", "none", ""}
	ValidMetricsExporters = []string{"otlp", "prometheus", "stdout", "none", ""}
	ValidLogLevels        = []string{"debug", "info", "warn", "error", ""}
)

// RedactedFields are log field keys whose values never reach the sink. The
// engine admin secret and the database DSN are the ones this gateway holds.
var RedactedFields = []string{
	"password",
	"secret",
	"admin_secret",
	"x-admin-secret",
	"token",
	"authorization",
	"api_key",
	"credential",
	"database_url",
	"dsn",
}
