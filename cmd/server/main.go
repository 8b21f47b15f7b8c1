package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/api"
	"github.com/vkquanghd/gold-ai-advisor/internal/app"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
	"github.com/vkquanghd/gold-ai-advisor/internal/logger"
	"github.com/vkquanghd/gold-ai-advisor/internal/scheduler"
	"github.com/vkquanghd/gold-ai-advisor/internal/version"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	zap.ReplaceGlobals(zl)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to initialise application", zap.Error(err))
	}
	defer func() {
		if err := a.Close(); err != nil {
			zl.Error("failed to close application", zap.Error(err))
		}
	}()

	zl.Info("connected to database", zap.String("path", cfg.Database.Path), zap.String("version", version.Version))

	runner, err := startScheduler(ctx, cfg, a, zl)
	if err != nil {
		zl.Fatal("invalid cron schedule", zap.String("schedule", cfg.Cron.Schedule), zap.Error(err))
	}
	if runner != nil {
		defer runner.Stop()
	}

	server := newServer(cfg, a, zl)

	// Start server in a goroutine
	go func() {
		zl.Info("starting server", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	<-ctx.Done()
	zl.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zl.Info("server exited")
}

// newServer wires the router to the application services. Pipeline runs can
// take minutes, so writes get a long timeout.
func newServer(cfg *config.Config, a *app.App, zl *zap.Logger) *http.Server {
	router := api.NewRouter(api.Services{
		System:    a.System,
		Query:     a.Query,
		Retention: a.Retention,
		Pipeline:  a.Pipeline,
	}, cfg, zl)

	return &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
}

// startScheduler schedules the daily update when cron is enabled. It returns
// nil without error when cron is disabled.
func startScheduler(ctx context.Context, cfg *config.Config, a *app.App, zl *zap.Logger) (*scheduler.Runner, error) {
	if !cfg.Cron.Enabled {
		return nil, nil
	}
	runner := scheduler.New(ctx, zl.Named("cron"))
	if _, err := runner.Add(cfg.Cron.Schedule, scheduler.DailyJob(a.Pipeline, 0, zl.Named("cron"))); err != nil {
		return nil, err
	}
	runner.Start()
	return runner, nil
}
