package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fraud-digest-backend/internal/bootstrap"
	"fraud-digest-backend/internal/shared/config"
	"fraud-digest-backend/internal/shared/server"
	"fraud-digest-backend/internal/shared/telemetry"
)

const readHeaderTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.BuildContext(ctx, cfg)
	if err != nil {
		telemetry.Error("api.bootstrap_failed", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
	defer app.Close(context.Background())

	srv := &http.Server{
		Addr:              server.Addr(cfg.Port),
		Handler:           app.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		telemetry.Info("api.listening", map[string]any{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			telemetry.Error("api.server_failed", map[string]any{"error": err.Error()})
		}
		return
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Error("api.shutdown_failed", map[string]any{"error": err.Error()})
	}
}
