package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jonwraymond/healthgate/auth"
	"github.com/jonwraymond/healthgate/health"
	"github.com/jonwraymond/healthgate/internal/activity"
	"github.com/jonwraymond/healthgate/internal/hasura"
	"github.com/jonwraymond/healthgate/observe"
	"github.com/jonwraymond/healthgate/resilience"
)

// detachedTimeout bounds activity writes that outlive their request.
const detachedTimeout = 10 * time.Second

// EngineStatus reports GraphQL engine reachability.
type EngineStatus interface {
	Status(ctx context.Context) hasura.Status
}

// Deps are the collaborators behind the routes.
type Deps struct {
	Reporter   *health.Reporter
	Health     health.HandlerConfig
	Activities *activity.Service

	// Engine is nil when the GraphQL engine is not configured.
	Engine EngineStatus

	// Authenticator guards write routes. Nil leaves them open.
	Authenticator auth.Authenticator

	// Limiter throttles write routes per client address. Nil disables it.
	Limiter *resilience.Limiter

	Logger observe.Logger
}

// API registers the gateway routes and tracks the activity writes it
// detaches from requests.
type API struct {
	deps Deps
	wg   sync.WaitGroup
}

// NewAPI creates the route set.
func NewAPI(deps Deps) *API {
	if deps.Logger == nil {
		deps.Logger = observe.NewNopLogger()
	}
	return &API{deps: deps}
}

// Register mounts every route on r.
func (a *API) Register(r *gin.Engine) {
	r.GET("/healthz", gin.WrapF(health.LivenessHandler()))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.GET("/health", a.health(health.Handler(a.deps.Reporter, a.deps.Health)))
	api.GET("/hasura/status", a.engineStatus)

	act := api.Group("/activity")
	act.POST("/log", a.guarded(a.logActivity)...)
	act.POST("/bulk", a.guarded(a.logBulk)...)
	act.GET("/recent", a.recent)
	act.GET("/stats", a.stats)
	act.GET("/health", a.activityHealth)

	api.GET("/activities", a.legacyActivities)
	api.POST("/activities/bulk", a.guarded(a.legacyBulk)...)
}

// Wait blocks until detached activity writes finish.
func (a *API) Wait() {
	a.wg.Wait()
}

// guarded prefixes a write handler with the rate limiter and auth guard.
func (a *API) guarded(h gin.HandlerFunc) []gin.HandlerFunc {
	var chain []gin.HandlerFunc
	if a.deps.Limiter != nil {
		chain = append(chain, RateLimitMiddleware(a.deps.Limiter))
	}
	if a.deps.Authenticator != nil {
		chain = append(chain, AuthMiddleware(a.deps.Authenticator, a.deps.Logger))
	}
	return append(chain, h)
}

// detach runs fn after the request returns, with the request's values but
// not its cancellation.
func (a *API) detach(ctx context.Context, fn func(context.Context)) {
	ctx = context.WithoutCancel(ctx)
	a.wg.Go(func() {
		ctx, cancel := context.WithTimeout(ctx, detachedTimeout)
		defer cancel()
		fn(ctx)
	})
}

func (a *API) health(h http.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		a.detach(c.Request.Context(), func(ctx context.Context) {
			a.deps.Activities.LogHealthCheck(ctx)
		})
		h(c.Writer, c.Request)
	}
}

func (a *API) engineStatus(c *gin.Context) {
	if a.deps.Engine == nil {
		c.JSON(http.StatusServiceUnavailable, hasura.Status{
			Available: false,
			Circuit:   "n/a",
			CheckedAt: time.Now().UTC(),
			Error:     hasura.ErrNotConfigured.Error(),
		})
		return
	}

	status := a.deps.Engine.Status(c.Request.Context())
	code := http.StatusOK
	if !status.Available {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

// FallbackHook records error.health_check_failed whenever the reporter
// falls back to the database-only report.
func FallbackHook(svc *activity.Service) func(ctx context.Context, cause error) {
	return func(ctx context.Context, _ error) {
		svc.LogError(ctx, "health_check_failed")
	}
}
