package httpapi

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthgate",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status code.",
	}, []string{"route", "method", "code"})

	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "healthgate",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	rateLimitedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "healthgate",
		Subsystem: "http",
		Name:      "rate_limited_total",
		Help:      "Write requests rejected by the rate limiter.",
	})
)

func init() {
	prometheus.MustRegister(requestCounter, requestDuration, rateLimitedCounter)
}

// MetricsMiddleware records request counts and latency per matched route.
// Unmatched paths are grouped under "unmatched".
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		requestCounter.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}
