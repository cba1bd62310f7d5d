// Package httpapi is the gin HTTP surface of the gateway.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jonwraymond/healthgate/observe"
)

// Config configures the HTTP listener.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	// AllowedOrigins are the CORS origins. Empty disables CORS headers.
	AllowedOrigins []string

	Debug bool
}

// SetDefaults fills unset timeouts.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":4000"
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 15 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server is the HTTP server with its lifecycle.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger observe.Logger
	config Config
}

// NewServer builds the router with the standard middleware chain and hands
// it to setupRoutes.
func NewServer(cfg Config, logger observe.Logger, setupRoutes func(*gin.Engine)) *Server {
	cfg.SetDefaults()
	if logger == nil {
		logger = observe.NewNopLogger()
	}

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(RecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.AllowedOrigins))
	router.Use(MetricsMiddleware())

	if setupRoutes != nil {
		setupRoutes(router)
	}

	return &Server{
		router: router,
		server: &http.Server{
			Addr:              cfg.Addr,
			Handler:           router,
			ReadTimeout:       cfg.ReadTimeout,
			ReadHeaderTimeout: cfg.ReadTimeout,
			WriteTimeout:      cfg.WriteTimeout,
		},
		logger: logger,
		config: cfg,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown. It returns nil on a graceful stop.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "starting HTTP server",
		observe.Field{Key: "address", Value: s.server.Addr},
		observe.Field{Key: "read_timeout", Value: s.server.ReadTimeout},
		observe.Field{Key: "write_timeout", Value: s.server.WriteTimeout},
	)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartAsync runs Start in a goroutine. The channel receives a serve error,
// if any, and is closed when serving ends.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown drains in-flight requests within the configured timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down HTTP server",
		observe.Field{Key: "timeout", Value: s.config.ShutdownTimeout},
	)

	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}
