package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/balance-proxy/internal/app"
	"golang.org/x/sync/errgroup"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
	readTimeout       = 15 * time.Second
	// writeSlack is added on top of the request budget so a timed-out
	// pipeline can still write its 500.
	writeSlack = 10 * time.Second
)

// newHTTPServer configures the server for application. The write timeout
// covers the whole polling budget, since the balance request is synchronous.
func newHTTPServer(application *app.Application) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", application.Config().Server.Port),
		Handler:           application.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      application.RequestBudget() + writeSlack,
		IdleTimeout:       60 * time.Second,
	}
}

// startHTTPServer starts the HTTP server with graceful shutdown support.
// It returns when ctx is cancelled and in-flight requests have drained, or
// when the listener fails.
func startHTTPServer(ctx context.Context, application *app.Application, logger *slog.Logger) error {
	server := newHTTPServer(application)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server",
			"addr", server.Addr,
			"write_timeout", server.WriteTimeout.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			logger.Info("Shutting down server...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		logger.Info("Server shutdown completed")
		return nil
	})

	return g.Wait()
}
