package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonwraymond/healthgate/auth"
	"github.com/jonwraymond/healthgate/observe"
	"github.com/jonwraymond/healthgate/resilience"
)

const (
	requestIDHeader    = "X-Request-ID"
	maxRequestIDLength = 128

	// identityKey holds the authenticated identity in the gin context.
	identityKey = "identity"
)

// RecoveryMiddleware turns a handler panic into a 500 response.
func RecoveryMiddleware(logger observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					observe.Field{Key: "error", Value: rec},
					observe.Field{Key: "path", Value: c.Request.URL.Path},
					observe.Field{Key: "method", Value: c.Request.Method},
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, failure("Internal server error"))
			}
		}()
		c.Next()
	}
}

// RequestIDMiddleware propagates X-Request-ID or generates one.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware writes one structured line per request.
func LoggerMiddleware(logger observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		fields := []observe.Field{
			{Key: "method", Value: c.Request.Method},
			{Key: "path", Value: path},
			{Key: "status", Value: c.Writer.Status()},
			{Key: "duration", Value: time.Since(start)},
			{Key: "client_ip", Value: c.ClientIP()},
			{Key: "request_id", Value: c.GetString("request_id")},
		}
		if q := c.Request.URL.RawQuery; q != "" {
			fields = append(fields, observe.Field{Key: "query", Value: q})
		}
		if p := auth.PrincipalFromContext(c.Request.Context()); p != "" {
			fields = append(fields, observe.Field{Key: "principal", Value: p})
		}

		if len(c.Errors) > 0 {
			fields = append(fields, observe.Field{Key: "errors", Value: c.Errors.Errors()})
			logger.Error(c.Request.Context(), "HTTP request with errors", fields...)
			return
		}
		// Probes are frequent; keep them out of info logs.
		if strings.HasPrefix(path, "/healthz") {
			logger.Debug(c.Request.Context(), "HTTP request", fields...)
			return
		}
		logger.Info(c.Request.Context(), "HTTP request", fields...)
	}
}

// CORSMiddleware allows the listed origins with credentials. A "*" entry
// admits any other origin without credentials. Preflight requests are
// answered with 204.
func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o = strings.TrimRight(strings.TrimSpace(o), "/"); o != "" {
			allowed[o] = true
		}
	}
	const (
		methods = "GET, POST, PUT, DELETE, PATCH, OPTIONS"
		headers = "Content-Type, Authorization, " + auth.AdminSecretHeader
	)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" || !(allowed[origin] || allowed["*"]) {
			c.Next()
			return
		}

		h := c.Writer.Header()
		if allowed[origin] {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
		} else {
			// Wildcard matches never carry credentials.
			h.Set("Access-Control-Allow-Origin", "*")
		}
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// AuthMiddleware rejects requests the authenticator does not accept. The
// identity is stored on the request context.
func AuthMiddleware(a auth.Authenticator, logger observe.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		result, err := a.Authenticate(ctx, auth.NewAuthRequest(c.Request))
		if err != nil {
			logger.Error(ctx, "authentication error",
				observe.Field{Key: "path", Value: c.Request.URL.Path},
				observe.Field{Key: "error", Value: err},
			)
			c.AbortWithStatusJSON(http.StatusInternalServerError, failure("Authentication unavailable"))
			return
		}
		if !result.Authenticated {
			msg := "Unauthorized"
			if result.Error != nil {
				msg = result.Error.Error()
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, failure(msg))
			return
		}

		c.Set(identityKey, result.Identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(ctx, result.Identity))
		c.Next()
	}
}

// RateLimitMiddleware rejects clients over their per-address budget with 429.
func RateLimitMiddleware(l *resilience.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			rateLimitedCounter.Inc()
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, failure("Too many requests"))
			return
		}
		c.Next()
	}
}
