// Command item applies the item schema and seed migrations.
//
//	go run ./migrations/item
package main

import (
	"embed"
	"log/slog"
	"os"

	"github.com/ghuser/itemcatalog/pkg/config"
	"github.com/ghuser/itemcatalog/pkg/logger"
	"github.com/ghuser/itemcatalog/pkg/migrator"
)

//go:embed *.sql
var MigrationsFS embed.FS

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg)
	migrator.SetLogger(log)

	if err := migrator.RunMigrations(cfg.DefinitionDatabaseURL, MigrationsFS); err != nil {
		log.Error("item migrations failed", "error", err)
		os.Exit(1)
	}
	log.Info("item migrations applied")
}
