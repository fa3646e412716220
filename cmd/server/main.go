package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/zombar/factcheck/internal/config"
	"github.com/zombar/factcheck/internal/metrics"
	"github.com/zombar/factcheck/internal/tracing"
	"github.com/zombar/factcheck/pkg/logging"
)

func main() {
	var cfgPath, port string

	root := &cobra.Command{
		Use:          "factcheck",
		Short:        "Fact-checking API server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath, port)
		},
	}
	root.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVarP(&port, "port", "p", "", "server port (env: PORT)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cfgPath, port)
		},
	}
	root.AddCommand(serveCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(cfgPath, port string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if port != "" {
		cfg.Port = port
	}

	// Setup structured logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	logger.Info("factcheck service initializing", "version", cfg.AppVersion, "llm_provider", cfg.LLMProvider)

	tp, err := tracing.InitTracer(context.Background(), "factcheck", cfg.OTLPEndpoint)
	if err != nil {
		logger.Warn("failed to initialize tracer, continuing without tracing", "error", err)
	} else {
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				logger.Error("error shutting down tracer", "error", err)
			}
		}()
		logger.Info("tracing initialized", "otlp_endpoint", cfg.OTLPEndpoint)
	}

	m := metrics.New("factcheck", prometheus.DefaultRegisterer)
	apiHandler := buildHandler(cfg, m, logger)

	// Middleware chain: tracing -> HTTP logging -> handlers, so request logs carry span ids
	handler := tracing.HTTPMiddleware("factcheck")(
		logging.HTTPLoggingMiddleware(logger)(apiHandler),
	)

	// Extended timeouts for model and media processing
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 420 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("factcheck service starting", "port", cfg.Port, "debug", cfg.Debug)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
