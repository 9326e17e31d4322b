package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/ghuser/itemcatalog/pkg/app"
	"github.com/ghuser/itemcatalog/pkg/cache"
	"github.com/ghuser/itemcatalog/pkg/config"
	"github.com/ghuser/itemcatalog/pkg/events"
	"github.com/ghuser/itemcatalog/pkg/logger"
	"github.com/ghuser/itemcatalog/pkg/telemetry"
	"github.com/ghuser/itemcatalog/services/item/application/subscribers"
)

// The worker consumes item events and keeps the Redis read model current.
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
		log.Error("worker exited with error", "error", err)
		os.Exit(1) //nolint:gocritic // deferred stop only releases the signal handler
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setup otel: %w", err)
	}
	defer otelShutdown(context.WithoutCancel(ctx)) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("sentry disabled", "error", err)
	}
	defer telemetry.SentryFlush()

	eventBus, err := events.NewEventBus(cfg, log, events.WithRetry(events.RetryPolicy{
		MaxAttempts: cfg.EventRetryAttempts,
		BaseDelay:   cfg.EventRetryBaseDelay,
	}))
	if err != nil {
		return fmt.Errorf("setup event bus: %w", err)
	}
	// Close waits up to 30 s for in-flight handlers.
	defer eventBus.Close() //nolint:errcheck

	redisClient, err := cache.NewRedisClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer redisClient.Close() //nolint:errcheck
	log.Info("redis connected")

	a := &app.Application{Logger: log, EventBus: eventBus, Redis: redisClient}
	if err := registerSubscribers(ctx, a); err != nil {
		return fmt.Errorf("register subscribers: %w", err)
	}

	<-ctx.Done()
	log.Info("worker stopping")
	return nil
}

// registerSubscribers subscribes every projector topic and logs the errors
// left after retries.
func registerSubscribers(ctx context.Context, a *app.Application) error {
	handlers := subscribers.NewCacheProjector(cache.NewItemCache(a.Redis), a.Logger).Topics()

	topics := make([]string, 0, len(handlers))
	for topic := range handlers {
		topics = append(topics, topic)
	}
	sort.Strings(topics)

	for _, topic := range topics {
		errCh, err := a.EventBus.Subscribe(ctx, topic, handlers[topic])
		if err != nil {
			return err
		}
		go func() {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "item event dropped after retries", "topic", topic, "error", err)
			}
		}()
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}
