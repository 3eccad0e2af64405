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
	"github.com/circlapp/circl-link-agent/internal/deeplink"
	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/health"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/circlapi"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/prefstore"
	ctxlog "github.com/circlapp/circl-link-agent/internal/log"
	"github.com/circlapp/circl-link-agent/internal/metrics"
	"github.com/circlapp/circl-link-agent/internal/scheduler"
	"github.com/circlapp/circl-link-agent/internal/session"
	httptransport "github.com/circlapp/circl-link-agent/internal/transport/http"
	"github.com/circlapp/circl-link-agent/internal/transport/http/handler"
	"github.com/circlapp/circl-link-agent/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
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
	logger.Info("preference store ready", "backend", cfg.StoreBackend, "device_id", cfg.DeviceID)

	backend := circlapi.New(cfg.APIBaseURL, cfg.HTTPTimeout())
	sess := session.New()

	// Invites
	invites := usecase.NewInviteUsecase(backend, store, sess, logger)
	invites.OnJoined(func(ctx context.Context, result domain.JoinResult) {
		logger.InfoContext(ctx, "open circle", "circle_id", result.CircleID)
	})

	// Push
	push := usecase.NewPushUsecase(backend, store, cfg.PushIsProduction, logger)

	// Check-ins and session
	checkIns := usecase.NewCheckInUsecase(backend, store, logger)
	sessions := usecase.NewSessionUsecase(backend, store, sess, invites, push, logger)

	receiver := deeplink.NewReceiver(deeplink.NewParser(cfg.CustomScheme, cfg.UniversalLinkHost), invites, checkIns, logger)

	metrics.Register()
	checker := health.NewChecker(map[string]health.Pinger{
		"store":   store,
		"backend": backend,
	}, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr: ":" + cfg.Port,
		Handler: httptransport.NewRouter(logger, httptransport.Handlers{
			Links:    handler.NewLinkHandler(receiver, logger),
			Push:     handler.NewPushHandler(push, logger),
			Sessions: handler.NewSessionHandler(sessions, logger),
			CheckIns: handler.NewCheckInHandler(checkIns, logger),
		}, []byte(cfg.JWTSecret)),
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	if cfg.PushSweepCron != "" {
		sweeper, err := scheduler.NewSweeper(push, cfg.PushSweepCron, logger)
		if err != nil {
			stop()
			closeStore()
			log.Fatalf("sweeper: %v", err)
		}
		go sweeper.Start(ctx)
	}

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}

	// Deliveries already acknowledged still get their resolve and join.
	drained := make(chan struct{})
	go func() {
		receiver.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-shutdownCtx.Done():
		logger.Warn("link deliveries still in flight at shutdown")
	}

	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
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
