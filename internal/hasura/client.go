// Package hasura is the gateway's GraphQL engine client.
//
// The client serves three roles: the health.Engine probe, the metadata
// writer used by version sync, and the primary activity store.
package hasura

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/machinebox/graphql"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jonwraymond/healthgate/cache"
	"github.com/jonwraymond/healthgate/health"
	"github.com/jonwraymond/healthgate/observe"
	"github.com/jonwraymond/healthgate/resilience"
)

// AdminSecretHeader authenticates requests to the engine.
const AdminSecretHeader = "x-hasura-admin-secret"

// Config configures the client.
type Config struct {
	// URL is the GraphQL endpoint, e.g. http://hasura:8080/v1/graphql.
	URL string

	// AdminSecret is sent on every request.
	AdminSecret string

	// Timeout bounds each request.
	// Default: 10 seconds
	Timeout time.Duration

	// MetadataTTL is how long version metadata is cached.
	// Default: 30 seconds
	MetadataTTL time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the instrumented default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithCache enables metadata caching.
func WithCache(store cache.Cache) Option {
	return func(c *Client) {
		c.cache = store
	}
}

// WithMiddleware sets the observability middleware wrapped around each call.
func WithMiddleware(mw *observe.Middleware) Option {
	return func(c *Client) {
		if mw != nil {
			c.mw = mw
		}
	}
}

// WithLogger sets the logger for circuit transitions.
func WithLogger(logger observe.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client talks to the GraphQL engine.
type Client struct {
	config     Config
	httpClient *http.Client
	gql        *graphql.Client
	exec       *resilience.Executor
	loader     *cache.Loader
	cache      cache.Cache
	mw         *observe.Middleware
	logger     observe.Logger
}

// New creates a client. It returns ErrNotConfigured when URL or AdminSecret
// is empty.
func New(config Config, opts ...Option) (*Client, error) {
	if config.URL == "" || config.AdminSecret == "" {
		return nil, ErrNotConfigured
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	policy := cache.DefaultPolicy()
	if config.MetadataTTL <= 0 {
		config.MetadataTTL = policy.DefaultTTL
	}
	policy.DefaultTTL = config.MetadataTTL

	c := &Client{
		config:     config,
		httpClient: &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		mw:         observe.NewNoopMiddleware(),
		logger:     observe.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.gql = graphql.NewClient(config.URL, graphql.WithHTTPClient(c.httpClient))
	c.exec = resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:          "hasura",
			OnStateChange: c.logTransition,
		})),
		resilience.WithTimeout(config.Timeout),
	)

	if c.cache != nil {
		loader, err := cache.NewLoader(c.cache, cache.NewHashKeyer(""), policy)
		if err != nil {
			return nil, fmt.Errorf("hasura: metadata cache: %w", err)
		}
		c.loader = loader
	}
	return c, nil
}

func (c *Client) logTransition(name string, from, to resilience.State) {
	c.logger.Warn(context.Background(), "circuit state changed",
		observe.Field{Key: "circuit", Value: name},
		observe.Field{Key: "from", Value: from.String()},
		observe.Field{Key: "to", Value: to.String()},
	)
}

// run sends one document through the middleware and the executor.
func (c *Client) run(ctx context.Context, name, document string, vars map[string]any, resp any) error {
	req := graphql.NewRequest(document)
	for k, v := range vars {
		req.Var(k, v)
	}
	req.Header.Set(AdminSecretHeader, c.config.AdminSecret)

	op := observe.Operation{Kind: "graphql", Name: name}
	return c.mw.Run(ctx, op, func(ctx context.Context) error {
		return c.exec.Execute(ctx, func(ctx context.Context) error {
			if err := c.gql.Run(ctx, req, resp); err != nil {
				return fmt.Errorf("hasura: %s: %w", name, err)
			}
			return nil
		})
	})
}

// TestConnection reports whether the engine answers an introspection query.
func (c *Client) TestConnection(ctx context.Context) bool {
	var resp struct {
		Schema struct {
			QueryType struct {
				Name string `json:"name"`
			} `json:"queryType"`
		} `json:"__schema"`
	}
	return c.run(ctx, "TestConnection", introspectionQuery, nil, &resp) == nil
}

// Status is the reachability report for the engine.
type Status struct {
	Available bool      `json:"available"`
	Endpoint  string    `json:"endpoint"`
	LatencyMS int64     `json:"latency_ms"`
	Circuit   string    `json:"circuit"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// Status probes the engine and reports latency and circuit state. The
// endpoint is reported without credentials or query.
func (c *Client) Status(ctx context.Context) Status {
	start := time.Now()
	var resp struct {
		Typename string `json:"__typename"`
	}
	err := c.run(ctx, "Status", typenameQuery, nil, &resp)

	s := Status{
		Available: err == nil,
		Endpoint:  redactURL(c.config.URL),
		LatencyMS: time.Since(start).Milliseconds(),
		Circuit:   c.exec.CircuitBreaker().State().String(),
		CheckedAt: start.UTC(),
	}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

var _ health.Engine = (*Client)(nil)
