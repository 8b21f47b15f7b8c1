package archive

import (
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestWriter_Write(t *testing.T) {
	clock := func() time.Time { return time.Date(2025, 1, 10, 18, 30, 5, 0, time.UTC) }

	t.Run("round trip", func(t *testing.T) {
		w := NewWriter(t.TempDir()).WithClock(clock)
		cols := []string{"date", "rate", "source"}
		rows := [][]string{
			{"2024-01-01", "24300", "yfinance"},
			{"2024-01-02", "24310.5", "yfinance, manual"},
		}

		path, err := w.Write("usd_vnd", cols, rows)
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}

		if filepath.Dir(path) != filepath.Join(w.Dir(), "usd_vnd") {
			t.Errorf("Expected archive under entity directory, got %s", path)
		}
		pattern := regexp.MustCompile(`^usd_vnd_deleted_20250110_183005_[0-9a-f]{8}\.csv$`)
		if !pattern.MatchString(filepath.Base(path)) {
			t.Errorf("Unexpected archive name %s", filepath.Base(path))
		}

		header, got, err := ReadFile(path)
		if err != nil {
			t.Fatalf("ReadFile() returned error: %v", err)
		}
		if len(header) != 3 || header[1] != "rate" {
			t.Errorf("Unexpected header %v", header)
		}
		if len(got) != 2 || got[1][2] != "yfinance, manual" {
			t.Errorf("Unexpected rows %v", got)
		}

		entries, _ := os.ReadDir(filepath.Dir(path))
		if len(entries) != 1 {
			t.Errorf("Expected only the archive in the directory, got %d entries", len(entries))
		}
	})

	t.Run("two archives in the same second do not collide", func(t *testing.T) {
		w := NewWriter(t.TempDir()).WithClock(clock)
		rows := [][]string{{"2024-01-01"}}
		a, err := w.Write("world_gold", []string{"date"}, rows)
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		b, err := w.Write("world_gold", []string{"date"}, rows)
		if err != nil {
			t.Fatalf("Write() returned error: %v", err)
		}
		if a == b {
			t.Errorf("Expected distinct paths, got %s twice", a)
		}
	})

	t.Run("no rows", func(t *testing.T) {
		_, err := NewWriter(t.TempDir()).Write("vn_gold", []string{"ts"}, nil)
		if !errors.Is(err, ErrNoRows) {
			t.Errorf("Expected ErrNoRows, got %v", err)
		}
	})

	t.Run("ragged row leaves nothing behind", func(t *testing.T) {
		dir := t.TempDir()
		_, err := NewWriter(dir).Write("vn_gold", []string{"ts", "brand"}, [][]string{{"x"}})
		if err == nil {
			t.Fatal("Expected error for ragged row")
		}
		entries, _ := os.ReadDir(filepath.Join(dir, "vn_gold"))
		if len(entries) != 0 {
			t.Errorf("Expected empty directory, got %d entries", len(entries))
		}
	})

	t.Run("unwritable root", func(t *testing.T) {
		root := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(root, []byte("x"), 0o600); err != nil {
			t.Fatalf("Failed to create blocker file: %v", err)
		}
		if _, err := NewWriter(root).Write("vn_gold", []string{"ts"}, [][]string{{"x"}}); err == nil {
			t.Error("Expected error when archive root is a file")
		}
	})
}

func TestRemove(t *testing.T) {
	if err := Remove(""); err != nil {
		t.Errorf("Expected nil for empty path, got %v", err)
	}
	if err := Remove(filepath.Join(t.TempDir(), "missing.csv")); err != nil {
		t.Errorf("Expected nil for missing file, got %v", err)
	}
}
