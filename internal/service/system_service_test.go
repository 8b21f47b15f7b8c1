package service_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
	"github.com/vkquanghd/gold-ai-advisor/internal/testutil"
	"github.com/vkquanghd/gold-ai-advisor/internal/version"
)

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestSystemService(t *testing.T) {
	ctx := context.Background()

	t.Run("healthy database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		report, err := testutil.NewTestSystemService(t, db).CheckHealth(ctx)
		if err != nil {
			t.Errorf("Expected healthy, got %v", err)
		}
		if report.Status != model.HealthHealthy || report.Components["database"] != "ok" {
			t.Errorf("Expected healthy report, got %+v", report)
		}
	})

	t.Run("failing dependency is reported by name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := testutil.NewTestSystemService(t, db).WithPinger("redis", failingPinger{})

		report, err := svc.CheckHealth(ctx)
		if err == nil || !strings.Contains(err.Error(), "redis") {
			t.Errorf("Expected redis failure, got %v", err)
		}
		if report.Status != model.HealthUnhealthy {
			t.Errorf("Expected unhealthy, got %s", report.Status)
		}
		if report.Components["redis"] != "unavailable" || report.Components["database"] != "ok" {
			t.Errorf("Unexpected components: %v", report.Components)
		}
	})

	t.Run("version of a migrated database", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		info, err := testutil.NewTestSystemService(t, db).CheckVersion(ctx)
		if err != nil {
			t.Fatalf("CheckVersion() returned error: %v", err)
		}
		if info.AppVersion != version.Version {
			t.Errorf("Expected app version %s, got %s", version.Version, info.AppVersion)
		}
		if info.DbVersion != "2" {
			t.Errorf("Expected db version 2, got %s", info.DbVersion)
		}
		if info.MigrationNeeded || info.MigrationMessage != nil {
			t.Error("Expected no pending migration")
		}
	})
}
