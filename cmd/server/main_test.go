package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/vkquanghd/gold-ai-advisor/internal/app"
	"github.com/vkquanghd/gold-ai-advisor/internal/config"
)

func newTestApp(t *testing.T) (*config.Config, *app.App) {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{}
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Database.Path = filepath.Join(dir, "gold.db")
	cfg.Storage = config.StorageConfig{DataDir: dir, ArchiveDir: filepath.Join(dir, "archive"), RawBasename: "vn_raw", KeepRawFiles: 3}
	cfg.Retention = config.RetentionConfig{Days: 30, Anchor: config.AnchorToday}
	cfg.World = config.WorldConfig{GoldSymbol: "GC=F", FXSymbol: "VND=X", LookbackDays: 30, Source: "yfinance"}
	cfg.VN = config.VNConfig{Source: "cafef", Days: 30}
	cfg.HTTP = config.HTTPConfig{Timeout: time.Second}

	a, err := app.New(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("app.New() returned error: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return cfg, a
}

func TestNewServer(t *testing.T) {
	cfg, a := newTestApp(t)

	server := newServer(cfg, a, zap.NewNop())
	if server.Addr != cfg.Server.Addr {
		t.Errorf("Expected addr %s, got %s", cfg.Server.Addr, server.Addr)
	}
	if server.WriteTimeout < time.Minute {
		t.Errorf("Expected a write timeout long enough for pipeline runs, got %s", server.WriteTimeout)
	}

	w := httptest.NewRecorder()
	server.Handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/system/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from health, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled cron starts nothing", func(t *testing.T) {
		cfg, a := newTestApp(t)
		runner, err := startScheduler(ctx, cfg, a, zap.NewNop())
		if err != nil || runner != nil {
			t.Errorf("Expected no runner and no error, got %v, %v", runner, err)
		}
	})

	t.Run("enabled cron schedules the daily job", func(t *testing.T) {
		cfg, a := newTestApp(t)
		cfg.Cron = config.CronConfig{Enabled: true, Schedule: "0 30 18 * * *"}

		runner, err := startScheduler(ctx, cfg, a, zap.NewNop())
		if err != nil {
			t.Fatalf("startScheduler() returned error: %v", err)
		}
		runner.Stop()
	})

	t.Run("invalid schedule", func(t *testing.T) {
		cfg, a := newTestApp(t)
		cfg.Cron = config.CronConfig{Enabled: true, Schedule: "every day"}

		if _, err := startScheduler(ctx, cfg, a, zap.NewNop()); err == nil {
			t.Error("Expected error for an invalid schedule")
		}
	})
}
