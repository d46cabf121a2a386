package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as database/sql driver

	"fraud-digest-backend/internal/shared/telemetry"
)

// Options controls database pool and connectivity behavior.
type Options struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

var (
	openDB         = sql.Open
	singletonMu    sync.Mutex
	singletonCond  = sync.NewCond(&singletonMu)
	singletonDB    *sql.DB
	singletonInFly bool
)

// IsLambdaRuntime reports whether the current process is running in AWS Lambda.
func IsLambdaRuntime() bool {
	return strings.TrimSpace(os.Getenv("AWS_LAMBDA_FUNCTION_NAME")) != ""
}

// Pool profiles by process kind.
const (
	ProfileLambda  = "lambda"
	ProfileService = "service"
	ProfileMigrate = "migrate"
)

// PoolOptions returns the pool settings for profile. A positive maxOpen caps open connections
// and idle connections with them. Unknown profiles get the service pool.
func PoolOptions(profile string, maxOpen int) Options {
	var opts Options
	switch profile {
	case ProfileLambda:
		// one batch at a time per instance
		opts = Options{MaxOpenConns: 2, MaxIdleConns: 1, ConnMaxIdleTime: 30 * time.Second, ConnMaxLifetime: 15 * time.Minute, PingTimeout: 3 * time.Second}
	case ProfileMigrate:
		opts = Options{MaxOpenConns: 1, MaxIdleConns: 1, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second}
	default:
		opts = Options{MaxOpenConns: 10, MaxIdleConns: 5, ConnMaxIdleTime: 2 * time.Minute, ConnMaxLifetime: time.Hour, PingTimeout: 5 * time.Second}
	}
	if maxOpen > 0 {
		opts.MaxOpenConns = maxOpen
		opts.MaxIdleConns = min(opts.MaxIdleConns, maxOpen)
	}
	return opts
}

// Connect opens a pgx-backed *sql.DB and verifies connectivity.
func Connect(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	if strings.TrimSpace(databaseURL) == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := openDB("pgx", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	applyOptions(db, opts)

	pingTimeout := opts.PingTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	stats := db.Stats()
	telemetry.Info("db.connected", map[string]any{
		"max_open": stats.MaxOpenConnections,
		"open":     stats.OpenConnections,
	})
	return db, nil
}

// Ping checks that database answers within timeout. It backs the API health probe.
func Ping(ctx context.Context, database *sql.DB, timeout time.Duration) error {
	if database == nil {
		return fmt.Errorf("database not configured")
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return database.PingContext(pingCtx)
}

// GetSingleton returns a process-wide *sql.DB, initializing it once per execution environment.
// A failed initialization is retried by the next caller.
func GetSingleton(ctx context.Context, databaseURL string, opts Options) (*sql.DB, error) {
	singletonMu.Lock()
	for singletonInFly && singletonDB == nil {
		singletonCond.Wait()
	}
	if singletonDB != nil {
		db := singletonDB
		singletonMu.Unlock()
		return db, nil
	}
	singletonInFly = true
	singletonMu.Unlock()

	db, err := Connect(ctx, databaseURL, opts)

	singletonMu.Lock()
	if err == nil {
		singletonDB = db
	}
	singletonInFly = false
	singletonCond.Broadcast()
	singletonMu.Unlock()

	if err != nil {
		return nil, err
	}
	return db, nil
}

func applyOptions(db *sql.DB, opts Options) {
	if opts.MaxOpenConns <= 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxIdleConns <= 0 {
		opts.MaxIdleConns = 5
	}
	if opts.ConnMaxLifetime <= 0 {
		opts.ConnMaxLifetime = time.Hour
	}
	db.SetMaxOpenConns(opts.MaxOpenConns)
	db.SetMaxIdleConns(opts.MaxIdleConns)
	db.SetConnMaxLifetime(opts.ConnMaxLifetime)
	if opts.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(opts.ConnMaxIdleTime)
	}
}
