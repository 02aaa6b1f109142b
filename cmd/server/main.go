package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/yourusername/pitchside/internal/analytics"
	"github.com/yourusername/pitchside/internal/config"
	"github.com/yourusername/pitchside/internal/logging"
	"github.com/yourusername/pitchside/internal/metrics"
	"github.com/yourusername/pitchside/internal/server"
	"github.com/yourusername/pitchside/internal/tracing"
)

const serviceName = "pitchside"

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pitchside:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	addr := flag.String("addr", cfg.Addr, "HTTP service address")
	flag.Parse()

	logger := logging.NewLogger(logging.Config{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: serviceName,
		Version: version,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, cfg.OtelEndpoint, serviceName)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	recorder, metricsHandler, shutdownMetrics, err := metrics.Setup(ctx, metrics.Config{
		Enabled:     cfg.MetricsEnabled,
		ServiceName: serviceName,
	})
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	sinks := analytics.Multi{analytics.NewLogSink(logger)}
	var opts []server.ServerOption
	if cfg.AnalyticsDB != "" {
		store, err := analytics.OpenSQLite(cfg.AnalyticsDB, logger)
		if err != nil {
			return fmt.Errorf("analytics: %w", err)
		}
		defer store.Close()
		sinks = append(sinks, store)
		opts = append(opts, server.WithHistory(store))
	}

	rooms := server.NewRoomManager(server.Config{
		MaxInnings:        cfg.MaxInnings,
		MaxPeers:          cfg.MaxPeers,
		ResetDelay:        cfg.ResetDelay,
		IdleTimeout:       cfg.IdleTimeout,
		PitchTimeout:      cfg.PitchTimeout,
		PlayTimeout:       cfg.PlayTimeout,
		TimingTolerance:   cfg.TimingTolerance,
		LocationTolerance: cfg.LocationTolerance,
		MaxNameLength:     cfg.MaxNameLength,
		MaxChatLength:     cfg.MaxChatLength,
		RateLimit:         cfg.RateLimit,
		RateBurst:         cfg.RateBurst,
		EventLogSize:      cfg.EventLogSize,
		Seed:              cfg.Seed,
	}, server.Deps{
		Logger:  logger,
		Metrics: recorder,
		Tracer:  tracing.Tracer(),
		Sink:    sinks,
	})

	mux := http.NewServeMux()
	server.NewServer(rooms, opts...).Register(mux)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info(logger, "starting server", "addr", *addr, "max_peers", cfg.MaxPeers, "max_innings", cfg.MaxInnings)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logging.Info(logger, "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Warn(logger, "http shutdown", logging.KeyError, err)
	}
	if err := rooms.Shutdown(shutdownCtx); err != nil {
		logging.Warn(logger, "room shutdown", logging.KeyError, err)
	}
	if err := shutdownMetrics(shutdownCtx); err != nil {
		logging.Warn(logger, "metrics shutdown", logging.KeyError, err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logging.Warn(logger, "tracing shutdown", logging.KeyError, err)
	}
	return nil
}
