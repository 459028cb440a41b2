package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/execassist/internal/logging"
	"github.com/teemow/execassist/internal/server"
)

const metricsStartupTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the assistant's HTTP API.

Endpoints:
  GET  /                          service status
  POST /schedule-meeting          schedule a meeting from an email
  POST /process-emails            triage unread mail in the background
  GET  /tasks/{id}                status of a background task
  GET  /daily-summary             summary of one day's activity
  GET  /activities                most recent activity records
  GET  /calendar/availability     free slots for a meeting length

Prometheus metrics are served on a separate address (--metrics-addr).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}

	cmd.Flags().String("http-addr", server.DefaultAddr, "HTTP listen address for the API")
	cmd.Flags().String("metrics-addr", server.DefaultMetricsAddr, "Listen address for the Prometheus metrics server")

	return cmd
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := buildApp(ctx, cfg, appOptions{requireGoogle: true, queue: true})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			slog.Error("error during shutdown", logging.Err(err))
		}
	}()

	serverContext := server.NewServerContext(ctx, version, a.services)
	defer func() {
		_ = serverContext.Shutdown()
	}()

	metricsServer, err := startMetricsServer(a)
	if err != nil {
		return err
	}

	health := server.NewHealthChecker(serverContext)
	for name, check := range a.checks {
		health.AddCheck(name, check)
	}
	apiCfg := server.APIConfig{
		Context:   serverContext,
		Scheduler: a.assistant,
		Queue:     a.queue,
		Health:    health,
		Logger:    a.logger,
		Metrics:   a.provider.Metrics(),
	}
	if a.inbox != nil {
		apiCfg.Inbox = a.inbox
	}
	api := server.NewAPI(apiCfg)

	httpServer := server.NewHTTPServer(cfg.Server.Addr, api.Handler())
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping servers")
	case err := <-serverDone:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	}

	health.SetReady(false)
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during metrics server shutdown", logging.Err(err))
		}
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down API server: %w", err)
	}
	return nil
}

// startMetricsServer starts the Prometheus endpoint when it is enabled and
// waits until it listens.
func startMetricsServer(a *app) (*server.MetricsServer, error) {
	if !cfg.Server.MetricsEnabled || !a.provider.PrometheusEnabled() {
		return nil, nil
	}

	metricsServer, err := server.NewMetricsServer(server.MetricsServerConfig{
		Addr:                    cfg.Server.MetricsAddr,
		Enabled:                 true,
		InstrumentationProvider: a.provider,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics server: %w", err)
	}

	metricsReady := make(chan struct{})
	metricsErr := make(chan error, 1)
	go func() {
		if err := metricsServer.StartWithReadySignal(metricsReady); err != nil && err != http.ErrServerClosed {
			metricsErr <- err
		}
		close(metricsErr)
	}()

	select {
	case <-metricsReady:
		slog.Info("metrics server started", "addr", metricsServer.Addr())
		return metricsServer, nil
	case err := <-metricsErr:
		return nil, fmt.Errorf("metrics server failed to start: %w", err)
	case <-time.After(metricsStartupTimeout):
		return nil, fmt.Errorf("metrics server startup timed out")
	}
}
