// Package main implements the long-running HTTP server for the balance
// proxy. It serves the same router as the Lambda entrypoint.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/phrazzld/balance-proxy/internal/app"
	"github.com/phrazzld/balance-proxy/internal/config"
	"github.com/phrazzld/balance-proxy/internal/platform/logger"
	"github.com/phrazzld/balance-proxy/internal/platform/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("balance-proxy: %v", err)
	}
}

// run loads configuration, sets up logging and tracing, builds the
// application and serves until ctx is cancelled.
func run(ctx context.Context) error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	l, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	l.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"allowed_origin", cfg.Server.AllowedOrigin,
		"version", version)

	shutdownTracing, err := telemetry.Init(ctx, cfg.Telemetry, version, l)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer flushTracing(shutdownTracing, l)

	application, err := app.New(cfg, l, app.Options{})
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return startHTTPServer(ctx, application, l)
}

func flushTracing(shutdown telemetry.ShutdownFunc, l *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		l.Error("failed to flush traces", "error", err)
	}
}
