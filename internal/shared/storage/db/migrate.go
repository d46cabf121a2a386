package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"

	"fraud-digest-backend/internal/shared/telemetry"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// gooseLogger sends goose progress lines to telemetry.
type gooseLogger struct{}

func (gooseLogger) Printf(format string, v ...interface{}) {
	telemetry.Info("db.migrate", map[string]any{"detail": fmt.Sprintf(format, v...)})
}

func (gooseLogger) Fatalf(format string, v ...interface{}) {
	telemetry.Error("db.migrate", map[string]any{"detail": fmt.Sprintf(format, v...)})
}

// RunMigrations applies the embedded analysis_records migrations via goose. A nil database is a
// no-op.
func RunMigrations(ctx context.Context, database *sql.DB) error {
	if database == nil {
		return nil
	}
	goose.SetBaseFS(migrationFiles)
	goose.SetLogger(gooseLogger{})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, database, "migrations"); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	version, err := goose.GetDBVersionContext(ctx, database)
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	telemetry.Info("db.migrated", map[string]any{"version": version})
	return nil
}
