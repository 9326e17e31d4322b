package app

import (
	"time"

	"github.com/ghuser/itemcatalog/pkg/cache"
	"github.com/ghuser/itemcatalog/pkg/database"
	"github.com/ghuser/itemcatalog/pkg/events"
	"github.com/ghuser/itemcatalog/pkg/logger"
)

// Application holds shared infrastructure dependencies for all services.
// Passed to each service's route and subscriber registration at startup.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context methods
// and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "pricing item", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to replace item", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Db       *database.Database
	Logger   logger.Logger
	EventBus *events.EventBus
	Redis    *cache.RedisClient
	// PricingLocation is the zone time-based discounts are evaluated in.
	PricingLocation *time.Location
}
