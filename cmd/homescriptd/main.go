// Package main implements the home-script daemon: it connects to the host
// event bus, registers the compiled-in rule scripts and dispatches state
// changes to them until shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/namezys/hass-home-script/bus/natsbus"
	"github.com/namezys/hass-home-script/config"
	"github.com/namezys/hass-home-script/engine"
	"github.com/namezys/hass-home-script/entity"
	"github.com/namezys/hass-home-script/metric"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "homescriptd"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.Validate {
		fmt.Println("configuration is valid")
		return nil
	}

	logger := setupLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	slog.Info("starting home-script", "version", Version, "config", cfg.String())

	var metrics *metric.Registry
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
		metricsServer = startMetricsServer(cfg.Metrics.Listen, metrics)
	}

	eventBus, err := natsbus.New(natsbus.Config{
		URL:            cfg.NATS.URL,
		Subject:        cfg.NATS.Subject,
		Name:           cfg.NATS.Name,
		ConnectTimeout: cfg.NATS.ConnectTimeout,
	})
	if err != nil {
		return fmt.Errorf("create bus: %w", err)
	}

	ctx := context.Background()
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if err := eventBus.Connect(signalCtx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer eventBus.Close()

	registry := entity.NewMemoryRegistry()
	eng, err := engine.New(engine.Options{
		Bus:      eventBus,
		Registry: registry,
		Metrics:  metrics,
	})
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	if err := registerRules(eng, registry); err != nil {
		return fmt.Errorf("register rules: %w", err)
	}

	if err := eng.Start(signalCtx); err != nil {
		return fmt.Errorf("start engine: %w", err)
	}
	slog.Info("home-script started")

	<-signalCtx.Done()
	slog.Info("received shutdown signal")

	if err := eng.Stop(cfg.ShutdownTimeout); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown failed", "error", err)
		}
	}

	slog.Info("home-script shutdown complete")
	return nil
}

func startMetricsServer(listen string, metrics *metric.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("metrics endpoint listening", "addr", listen)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return server
}
