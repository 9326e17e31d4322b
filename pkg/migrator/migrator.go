// Package migrator applies goose migrations for a service schema.
package migrator

import (
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/ghuser/itemcatalog/pkg/logger"
)

// SetLogger routes goose output through log at Info level.
func SetLogger(log logger.Logger) {
	goose.SetLogger(slog.NewLogLogger(log.ToSlog().Handler(), slog.LevelInfo))
}

// RunMigrations opens dbURL and applies every pending migration in files.
func RunMigrations(dbURL string, files fs.FS) error {
	db, err := sql.Open("pgx", dbURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	return Up(db, files)
}

// Up applies pending migrations from files over an open connection.
func Up(db *sql.DB, files fs.FS) error {
	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Version reports the schema version recorded by goose.
func Version(db *sql.DB) (int64, error) {
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("set goose dialect: %w", err)
	}
	v, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}
