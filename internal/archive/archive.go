// Package archive writes pruned rows to CSV files before they are deleted.
package archive

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// FileTimeLayout is the timestamp part of an archive file name.
const FileTimeLayout = "20060102_150405"

// ErrNoRows is returned by Write when there is nothing to archive.
var ErrNoRows = errors.New("no rows to archive")

// Writer stores archives under <dir>/<entity>/.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter creates a Writer rooted at dir.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir, now: time.Now}
}

// WithClock returns a copy of w using now for file names.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	return &Writer{dir: w.dir, now: now}
}

// Dir returns the archive root.
func (w *Writer) Dir() string {
	return w.dir
}

// Write stores rows as <dir>/<entity>/<entity>_deleted_<YYYYmmdd_HHMMSS>_<id8>.csv
// with columns as the header. The file is written under a temporary name, synced,
// renamed, and the directory synced; the path is returned only after that.
// Nothing is left behind on failure.
func (w *Writer) Write(entity string, columns []string, rows [][]string) (string, error) {
	if len(rows) == 0 {
		return "", ErrNoRows
	}

	dir := filepath.Join(w.dir, entity)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	name := fmt.Sprintf("%s_deleted_%s_%s.csv", entity, w.now().UTC().Format(FileTimeLayout), uuid.New().String()[:8])
	path := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create archive file: %w", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	cw := csv.NewWriter(tmp)
	if err := cw.Write(columns); err != nil {
		return "", fmt.Errorf("failed to write archive header: %w", err)
	}
	for _, r := range rows {
		if len(r) != len(columns) {
			return "", fmt.Errorf("archive row has %d values, header has %d", len(r), len(columns))
		}
		if err := cw.Write(r); err != nil {
			return "", fmt.Errorf("failed to write archive row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return "", fmt.Errorf("failed to flush archive: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return "", fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close archive: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("failed to move archive into place: %w", err)
	}
	committed = true

	if err := syncDir(dir); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to sync archive directory: %w", err)
	}
	return path, nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir) //#nosec G304 -- Directory is derived from configuration
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Remove deletes an archive whose rows were not deleted after all.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ReadFile reads an archive back as its header and rows.
func ReadFile(path string) ([]string, [][]string, error) {
	f, err := os.Open(path) //#nosec G304 -- Path is operator supplied
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read archive: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("archive %s has no header", path)
	}
	return records[0], records[1:], nil
}
