package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/circlapp/circl-link-agent/config"
	"github.com/circlapp/circl-link-agent/internal/health"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/circlapi"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/prefstore"
	ctxlog "github.com/circlapp/circl-link-agent/internal/log"
	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/circlapp/circl-link-agent/internal/scheduler"
	"github.com/circlapp/circl-link-agent/internal/usecase"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	// An in-memory store would only ever hold this process's own, empty state.
	if !prefstore.Shared(cfg.StoreBackend) {
		log.Fatalf("sweeper needs STORE_BACKEND=postgres or redis, got %q", cfg.StoreBackend)
	}
	if cfg.PushSweepCron == "" {
		log.Fatal("PUSH_SWEEP_CRON is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	store, closeStore, err := prefstore.Open(ctx, prefstore.Options{
		Backend:     cfg.StoreBackend,
		DatabaseURL: cfg.DatabaseURL,
		RedisURL:    cfg.RedisURL,
		DeviceID:    cfg.DeviceID,
	})
	if err != nil {
		stop()
		log.Fatalf("store: %v", err)
	}
	defer closeStore()

	logger.Info("preference store ready", "backend", cfg.StoreBackend)

	backend := circlapi.New(cfg.APIBaseURL, cfg.HTTPTimeout())
	push := usecase.NewPushUsecase(backend, store, cfg.PushIsProduction, logger)

	sweeper, err := scheduler.NewSweeper(push, cfg.PushSweepCron, logger)
	if err != nil {
		stop()
		closeStore()
		log.Fatalf("sweeper: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(map[string]health.Pinger{
		"store":   store,
		"backend": backend,
	}, logger, prometheus.DefaultRegisterer)

	go sweeper.Start(ctx)

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("sweeper shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
