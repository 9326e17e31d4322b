package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	_ "github.com/ghuser/itemcatalog/docs/swagger"
	"github.com/ghuser/itemcatalog/pkg/app"
	"github.com/ghuser/itemcatalog/pkg/cache"
	"github.com/ghuser/itemcatalog/pkg/config"
	"github.com/ghuser/itemcatalog/pkg/database"
	"github.com/ghuser/itemcatalog/pkg/events"
	"github.com/ghuser/itemcatalog/pkg/httpx"
	"github.com/ghuser/itemcatalog/pkg/logger"
	"github.com/ghuser/itemcatalog/pkg/telemetry"
	itemApi "github.com/ghuser/itemcatalog/services/item/application/api"
)

const shutdownTimeout = 30 * time.Second

// @title					Item Catalog API
// @version				1.0
// @description			Item catalog with stock variations and time- and stock-based dynamic pricing.
// @contact.name			API Support
// @contact.email			support@itemcatalog.dev
// @license.name			MIT
// @license.url			https://opensource.org/licenses/MIT
// @host					localhost:8080
// @BasePath				/api
// @schemes				http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("api exited with error", "error", err)
		os.Exit(1) //nolint:gocritic // deferred stop only releases the signal handler
	}
}

// run wires the infrastructure, serves HTTP until ctx is cancelled and then
// drains in-flight requests. Every resource is released through defers.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	otelShutdown, metricsHandler, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer telemetry.SentryFlush()

	pool, err := database.NewPool(ctx, cfg.DefinitionDatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close() //nolint:errcheck
	log.Info("database pool connected")

	eventBus, err := events.NewEventBus(cfg, log, events.WithForwarder())
	if err != nil {
		return fmt.Errorf("setup event bus: %w", err)
	}
	defer eventBus.Close() //nolint:errcheck
	if err := eventBus.StartForwarder(ctx); err != nil {
		return fmt.Errorf("start event forwarder: %w", err)
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	switch {
	case errors.Is(err, cache.ErrDisabled):
		log.Warn("REDIS_URL empty, serving items without cache")
	case err != nil:
		return fmt.Errorf("connect redis: %w", err)
	default:
		log.Info("redis connected")
	}
	defer redisClient.Close() //nolint:errcheck

	pricingLocation, err := cfg.PricingLocation()
	if err != nil {
		return err
	}
	log.Info("pricing timezone resolved", "location", pricingLocation.String())

	a := &app.Application{
		Db:              pool,
		Logger:          log,
		EventBus:        eventBus,
		Redis:           redisClient,
		PricingLocation: pricingLocation,
	}

	r := httpx.NewRouter(
		httpx.ServerConfig{
			ServiceName:        cfg.ServiceName,
			IsDevelopment:      cfg.Environment == config.EnvDevelopment,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
			RateLimit:          cfg.RateLimitPerMinute,
			MaxBodyBytes:       cfg.MaxBodyBytes,
			RequestTimeout:     cfg.RequestTimeout,
		},
		httpx.Middlewares{
			Recovery: logger.Recovery(log),
			Sentry:   telemetry.SentryMiddleware(),
			Tracing:  otelhttp.NewMiddleware(cfg.ServiceName),
			Logging:  logger.Middleware(log),
		},
	)

	checks := httpx.HealthChecks{"database": pool, "event_bus": eventBus, "redis": nil}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	r.Get("/health", httpx.HealthHandler(checks))
	r.Get("/metrics", metricsHandler.ServeHTTP)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	r.Route("/api", func(r chi.Router) {
		registerRoutes(r, a)
	})

	srv := httpx.NewServer(cfg.HTTPAddr, r)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// registerRoutes mounts every service's routes under /api.
func registerRoutes(r chi.Router, a *app.Application) {
	itemApi.ItemRoutes(r, a)
}
