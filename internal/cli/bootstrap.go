// Package cli holds the shared bootstrap used by the lakeflow binaries.
package cli

import (
	"context"
	"database/sql"
	"log/slog"
	"os"

	"lakeflow/internal/config"
	"lakeflow/internal/engine"
	"lakeflow/internal/objstore"
)

// App is the wired-up runtime shared by the binaries: configuration,
// logger, database handle, and object store client.
type App struct {
	Cfg   *config.Config
	Log   *slog.Logger
	DB    *sql.DB
	Store *objstore.S3Store
}

// Bootstrap loads .env and the environment, initialises logging, opens
// DuckDB, and connects the object store. Callers own Close.
func Bootstrap(ctx context.Context) (*App, error) {
	if err := config.LoadDotEnv(".env"); err != nil {
		return nil, err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, err
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(log)
	for _, warning := range cfg.Warnings {
		log.Warn(warning)
	}

	db, err := engine.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := engine.InstallExtensions(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	store, err := objstore.NewS3Store(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := store.EnsureBucket(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return &App{Cfg: cfg, Log: log, DB: db, Store: store}, nil
}

// Close releases the app's resources.
func (a *App) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}
