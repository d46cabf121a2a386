package main

// Run database migrations:
//   go run ./cmd/migrate

import (
	"context"
	"os"

	"fraud-digest-backend/internal/analyses"
	"fraud-digest-backend/internal/bootstrap"
	"fraud-digest-backend/internal/shared/config"
	"fraud-digest-backend/internal/shared/storage/db"
	"fraud-digest-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.Init(telemetry.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	defer telemetry.Sync()
	ctx := context.Background()

	switch cfg.StoreBackend {
	case "postgres":
		if err := migratePostgres(ctx, cfg); err != nil {
			telemetry.Error("migrate.failed", map[string]any{"store": "postgres", "error": err.Error()})
			os.Exit(1)
		}
	case "mongo":
		if err := migrateMongo(ctx, cfg); err != nil {
			telemetry.Error("migrate.failed", map[string]any{"store": "mongo", "error": err.Error()})
			os.Exit(1)
		}
	default:
		telemetry.Info("migrate.skipped", map[string]any{"store": cfg.StoreBackend})
		return
	}
	telemetry.Info("migrate.done", map[string]any{"store": cfg.StoreBackend})
}

func migratePostgres(ctx context.Context, cfg config.Config) error {
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.PoolOptions(db.ProfileMigrate, cfg.DBMaxOpenConns))
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	return db.RunMigrations(ctx, sqlDB)
}

func migrateMongo(ctx context.Context, cfg config.Config) error {
	client, database, err := bootstrap.ConnectMongo(ctx, cfg)
	if err != nil {
		return err
	}
	defer client.Disconnect(ctx)
	return analyses.EnsureMongoIndexes(ctx, database)
}
