package cafef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vkquanghd/gold-ai-advisor/internal/model"
)

// RawFileTimeLayout is the timestamp suffix of a raw snapshot file name.
const RawFileTimeLayout = "20060102_150405"

// WriteRawFile writes quotes to <dir>/<basename>_<YYYYmmdd_HHMMSS>.json and
// replaces the stable copy <dir>/<basename>.json. Both files are written to a
// temporary name, synced, then renamed into place.
func WriteRawFile(dir, basename string, quotes []model.RawVnQuote, now time.Time) (snapshot, stable string, err error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("failed to create raw directory: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if quotes == nil {
		quotes = []model.RawVnQuote{}
	}
	if err := enc.Encode(quotes); err != nil {
		return "", "", fmt.Errorf("failed to encode raw quotes: %w", err)
	}

	snapshot = filepath.Join(dir, fmt.Sprintf("%s_%s.json", basename, now.Format(RawFileTimeLayout)))
	stable = filepath.Join(dir, basename+".json")

	for _, path := range []string{snapshot, stable} {
		if err := writeAtomic(path, buf.Bytes()); err != nil {
			return "", "", err
		}
	}
	return snapshot, stable, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// ReadRawFile loads a raw quote file written by WriteRawFile or an older crawler.
func ReadRawFile(path string) ([]model.RawVnQuote, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- Path is operator supplied
	if err != nil {
		return nil, fmt.Errorf("failed to read raw file: %w", err)
	}
	var quotes []model.RawVnQuote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, fmt.Errorf("raw file %s: JSON root must be a list of quotes: %w", path, err)
	}
	return quotes, nil
}

// PruneRawFiles keeps the newest keep snapshots of basename in dir and removes the rest.
// The stable copy is never touched. keep < 1 disables pruning.
func PruneRawFiles(dir, basename string, keep int) ([]string, error) {
	if keep < 1 {
		return nil, nil
	}
	matches, err := filepath.Glob(filepath.Join(dir, basename+"_*.json"))
	if err != nil {
		return nil, err
	}
	var snapshots []string
	for _, m := range matches {
		stamp := filepath.Base(m)[len(basename)+1:]
		stamp = stamp[:len(stamp)-len(".json")]
		if _, err := time.Parse(RawFileTimeLayout, stamp); err == nil {
			snapshots = append(snapshots, m)
		}
	}
	if len(snapshots) <= keep {
		return nil, nil
	}
	sort.Strings(snapshots)

	removed := snapshots[:len(snapshots)-keep]
	for _, m := range removed {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove old raw file: %w", err)
		}
	}
	return removed, nil
}
