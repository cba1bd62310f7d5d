// Command healthgate serves the gateway health report and activity API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonwraymond/healthgate/auth"
	"github.com/jonwraymond/healthgate/cache"
	"github.com/jonwraymond/healthgate/eventbus"
	"github.com/jonwraymond/healthgate/health"
	"github.com/jonwraymond/healthgate/internal/activity"
	"github.com/jonwraymond/healthgate/internal/config"
	"github.com/jonwraymond/healthgate/internal/hasura"
	"github.com/jonwraymond/healthgate/internal/httpapi"
	"github.com/jonwraymond/healthgate/internal/kafka"
	"github.com/jonwraymond/healthgate/internal/postgres"
	"github.com/jonwraymond/healthgate/internal/version"
	"github.com/jonwraymond/healthgate/observe"
	"github.com/jonwraymond/healthgate/resilience"
)

const versionSyncTimeout = 30 * time.Second

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "optional YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "healthgate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	startedAt := time.Now()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return fmt.Errorf("observer: %w", err)
	}
	logger := obs.Logger().With(observe.Field{Key: "environment", Value: cfg.Environment})
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := obs.Shutdown(shutdownCtx); err != nil {
			logger.Warn(shutdownCtx, "observer shutdown", observe.Field{Key: "error", Value: err})
		}
		_ = logger.Sync()
	}()

	mw, err := observe.MiddlewareFromObserver(obs)
	if err != nil {
		return fmt.Errorf("middleware: %w", err)
	}
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	tracer := observe.NewTracer(obs.Tracer())

	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		ConnectAttempts: cfg.Database.ConnectAttempts,
		ConnectDelay:    cfg.Database.ConnectDelay,
	}, logger)
	if err != nil {
		return err
	}
	defer pool.Close()
	dbProbe := postgres.NewProbe(pool)

	metadataCache, closeCache, err := buildCache(ctx, cfg.Redis, logger)
	if err != nil {
		return err
	}
	defer func() { _ = closeCache() }()

	engine, engineStore := health.Unavailable[health.Engine](), health.Unavailable[activity.Store]()
	var engineClient *hasura.Client
	if cfg.Hasura.Configured() {
		engineClient, err = hasura.New(hasura.Config{
			URL:         cfg.Hasura.URL,
			AdminSecret: cfg.Hasura.AdminSecret,
			Timeout:     cfg.Hasura.Timeout,
			MetadataTTL: cfg.Hasura.MetadataTTL,
		}, hasura.WithCache(metadataCache), hasura.WithMiddleware(mw), hasura.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("hasura: %w", err)
		}
		engine = health.Configured[health.Engine](engineClient)
		engineStore = health.Configured(engineClient.ActivityStore())
	} else {
		logger.Warn(ctx, "graphql engine not configured; activity writes use the database directly")
	}

	bus := eventbus.New(
		eventbus.WithLogger(logger),
		eventbus.WithMetrics(metrics),
		eventbus.WithTracer(tracer),
	)
	activity.Subscribe(bus, activity.AuditSubscriber(logger))
	counter, err := activity.MetricsSubscriber(obs.Meter())
	if err != nil {
		return fmt.Errorf("activity metrics: %w", err)
	}
	activity.Subscribe(bus, counter)

	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			return err
		}
		defer func() {
			if err := producer.Close(); err != nil {
				logger.Warn(context.Background(), "kafka producer close", observe.Field{Key: "error", Value: err})
			}
		}()
		activity.Subscribe(bus, kafka.NewForwarder(producer, cfg.Kafka.Topic, logger).Handle)
	}

	activities := activity.NewService(
		engineStore,
		health.Configured[activity.Store](postgres.NewActivityStore(pool)),
		bus,
		logger,
	)

	healthOpts := []health.Option{
		health.WithLogger(logger),
		health.WithTelemetry(tracer, metrics),
	}
	agg := health.NewAggregator(dbProbe, engine, health.AggregatorConfig{
		ProbeTimeout:    cfg.Health.ProbeTimeout,
		SnapshotTimeout: cfg.Health.SnapshotTimeout,
		Environment:     cfg.Environment,
	}, healthOpts...)
	agg.Register(health.NewUptimeChecker(startedAt))
	agg.Register(health.NewHeapChecker(health.HeapCheckerConfig{MaxHeapBytes: cfg.Health.MaxHeapBytes}))
	agg.Register(health.NewDiskChecker(health.DiskCheckerConfig{
		Path:             cfg.Health.DiskPath,
		ThresholdPercent: cfg.Health.DiskThresholdPct,
	}))
	reporter := health.NewReporter(agg, dbProbe,
		append(healthOpts, health.WithFallbackHook(httpapi.FallbackHook(activities)))...)

	authenticator, err := buildAuthenticator(cfg.Auth)
	if err != nil {
		return err
	}
	if authenticator == nil {
		logger.Warn(ctx, "write routes are unauthenticated")
	}

	deps := httpapi.Deps{
		Reporter: reporter,
		Health: health.HandlerConfig{
			Environment: cfg.Environment,
			Timeout:     cfg.Health.RequestTimeout,
		},
		Activities:    activities,
		Authenticator: authenticator,
		Limiter: resilience.NewLimiter(resilience.LimiterConfig{
			Rate:  cfg.RateLimit.Rate,
			Burst: cfg.RateLimit.Burst,
		}),
		Logger: logger,
	}
	if engineClient != nil {
		deps.Engine = engineClient
	}
	api := httpapi.NewAPI(deps)

	var origins []string
	if cfg.Server.WebURL != "" {
		origins = []string{cfg.Server.WebURL}
	}
	server := httpapi.NewServer(httpapi.Config{
		Addr:            cfg.Server.Addr(),
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		AllowedOrigins:  origins,
		Debug:           cfg.Logging.Level == "debug",
	}, logger, api.Register)

	if engineClient != nil {
		info := version.Current(version.BuildInfo{
			Version:   cfg.Build.Version,
			GitCommit: cfg.Build.GitCommit,
			BuildTime: cfg.Build.BuildTime,
		}, cfg.Environment)
		version.NewSyncer(engineClient, info, logger).SyncDetached(ctx, versionSyncTimeout)
	}

	activities.LogSystemStartup(ctx)
	errCh := server.StartAsync()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info(context.Background(), "shutdown signal received")
	}

	// The signal context is done; shutdown work gets a fresh one.
	shutdownCtx := context.Background()
	activities.LogAppEvent(shutdownCtx, "shutdown")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "server shutdown", observe.Field{Key: "error", Value: err})
	}
	api.Wait()
	agg.Wait()
	return nil
}

// buildCache returns redis when an address is configured and an in-process
// cache otherwise.
func buildCache(ctx context.Context, cfg config.RedisConfig, logger observe.Logger) (cache.Cache, func() error, error) {
	if cfg.Address == "" {
		return cache.NewMemoryCache(), func() error { return nil }, nil
	}
	client, err := cache.DialRedis(ctx, cfg.Address, cfg.Password, cfg.DB)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	logger.Info(ctx, "metadata cache uses redis", observe.Field{Key: "address", Value: cfg.Address})
	return cache.NewRedisCache(client), client.Close, nil
}

func buildAuthenticator(cfg config.AuthConfig) (auth.Authenticator, error) {
	a, err := auth.New(auth.Config{
		JWTSecret:   cfg.JWTSecret,
		JWTIssuer:   cfg.JWTIssuer,
		AdminSecret: cfg.AdminSecret,
	})
	if errors.Is(err, auth.ErrNotConfigured) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}
