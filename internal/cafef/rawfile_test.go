package cafef

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

func TestReadRawFile_LegacyNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vn_raw.json")
	legacy := `[{"date":"2025-01-02","time":"09:00:00","timestamp":"2025-01-02T09:00:00","gold_type":"SJC","buy_price":82000000.0,"sell_price":84000000.0}]`
	if err := os.WriteFile(path, []byte(legacy), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	quotes, err := ReadRawFile(path)
	if err != nil {
		t.Fatalf("ReadRawFile() returned error: %v", err)
	}
	if len(quotes) != 1 || quotes[0].BuyPrice != "82000000.0" {
		t.Errorf("Unexpected quotes %+v", quotes)
	}

	if err := os.WriteFile(path, []byte(`{"not":"a list"}`), 0o600); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
	if _, err := ReadRawFile(path); err == nil {
		t.Error("Expected error for non-list root")
	}
}

func TestPruneRawFiles(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2025, 1, 1, 18, 0, 0, 0, time.UTC)
	quotes := []model.RawVnQuote{{Date: "2025-01-01", GoldType: "SJC", BuyPrice: "1", SellPrice: "2"}}

	for i := 0; i < 4; i++ {
		if _, _, err := WriteRawFile(dir, "vn_raw", quotes, base.AddDate(0, 0, i)); err != nil {
			t.Fatalf("WriteRawFile() returned error: %v", err)
		}
	}

	removed, err := PruneRawFiles(dir, "vn_raw", 2)
	if err != nil {
		t.Fatalf("PruneRawFiles() returned error: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("Expected 2 removed, got %d", len(removed))
	}
	if filepath.Base(removed[0]) != "vn_raw_20250101_180000.json" {
		t.Errorf("Expected oldest snapshot removed first, got %s", removed[0])
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 3 {
		t.Errorf("Expected 2 snapshots plus stable copy, got %d entries", len(entries))
	}
	if _, err := os.Stat(filepath.Join(dir, "vn_raw.json")); err != nil {
		t.Errorf("Stable copy missing: %v", err)
	}
}
