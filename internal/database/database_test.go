package database

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func TestOpenAndMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gold.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() returned error: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()

	t.Run("creates all tables and indexes", func(t *testing.T) {
		if err := Migrate(ctx, db, zap.NewNop()); err != nil {
			t.Fatalf("Migrate() returned error: %v", err)
		}

		for _, name := range []string{"world_gold", "usd_vnd", "vn_gold", "pipeline_run", "idx_vn_gold_date", "idx_vn_gold_brand"} {
			var count int
			err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE name = ?`, name).Scan(&count)
			if err != nil {
				t.Fatalf("Failed to query sqlite_master: %v", err)
			}
			if count != 1 {
				t.Errorf("Expected %s to exist", name)
			}
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		if err := Migrate(ctx, db, zap.NewNop()); err != nil {
			t.Fatalf("Second Migrate() returned error: %v", err)
		}
	})

	t.Run("reports schema version", func(t *testing.T) {
		current, latest, err := SchemaVersion(ctx, db)
		if err != nil {
			t.Fatalf("SchemaVersion() returned error: %v", err)
		}
		if current != latest || latest != 2 {
			t.Errorf("Expected current=latest=2, got current=%d latest=%d", current, latest)
		}
	})

	t.Run("uses WAL journal", func(t *testing.T) {
		var mode string
		if err := db.QueryRow(`PRAGMA journal_mode`).Scan(&mode); err != nil {
			t.Fatalf("Failed to read journal mode: %v", err)
		}
		if mode != "wal" {
			t.Errorf("Expected wal journal mode, got %s", mode)
		}
	})

	t.Run("health check fails after close", func(t *testing.T) {
		other, err := Open(filepath.Join(t.TempDir(), "other.db"))
		if err != nil {
			t.Fatalf("Open() returned error: %v", err)
		}
		if err := HealthCheck(other); err != nil {
			t.Errorf("Expected healthy database, got %v", err)
		}
		other.Close()
		if err := HealthCheck(other); err == nil {
			t.Error("Expected error from closed database")
		}
	})
}
