package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/harrison/lorekeeper/internal/config"
	"github.com/harrison/lorekeeper/internal/models"
)

// Reader is the read side of the store used by downstream consumers. It takes
// no lock: a read racing an import may observe the previous catalog.
type Reader struct {
	CatalogPath     string
	DiagnosticsPath string
	BackupDir       string
}

// NewReader creates a Reader from a resolved configuration.
func NewReader(cfg *config.Config) *Reader {
	return &Reader{
		CatalogPath:     cfg.CatalogPath,
		DiagnosticsPath: cfg.DiagnosticsPath,
		BackupDir:       cfg.BackupDir,
	}
}

// Snapshot is the current catalog together with the diagnostics of the run
// that produced it. Diagnostics is nil when no report exists.
type Snapshot struct {
	Entries     []models.ContentEntry
	UpdatedAt   string
	Diagnostics *models.DiagnosticsReport
}

// BackupInfo describes one backup slot.
type BackupInfo struct {
	Slot       int
	Path       string
	UpdatedAt  string
	EntryCount int
	ModTime    time.Time
}

// rawCatalog keeps entries loosely typed so hand-edited catalogs with numeric
// ids still resolve.
type rawCatalog struct {
	Entries   []map[string]any `json:"entries"`
	UpdatedAt string           `json:"updatedAt"`
}

// ReadCatalog loads the live catalog and, if present, its diagnostics.
// A missing catalog is reported as ErrNotFound.
func (r *Reader) ReadCatalog() (*Snapshot, error) {
	catalog, err := readCatalogFile(r.CatalogPath)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Entries:   make([]models.ContentEntry, 0, len(catalog.Entries)),
		UpdatedAt: catalog.UpdatedAt,
	}
	for _, raw := range catalog.Entries {
		snap.Entries = append(snap.Entries, models.Normalize(raw))
	}

	report, err := r.ReadDiagnostics()
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	snap.Diagnostics = report
	return snap, nil
}

// ReadDiagnostics loads the diagnostics report of the last import.
func (r *Reader) ReadDiagnostics() (*models.DiagnosticsReport, error) {
	data, err := os.ReadFile(r.DiagnosticsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("diagnostics %s: %w", r.DiagnosticsPath, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read diagnostics: %w", err)
	}

	var report models.DiagnosticsReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to decode diagnostics %s: %w", r.DiagnosticsPath, err)
	}
	return &report, nil
}

// FindEntry returns the first catalog entry whose stringified id equals id.
func (r *Reader) FindEntry(id string) (*models.ContentEntry, error) {
	snap, err := r.ReadCatalog()
	if err != nil {
		return nil, err
	}
	for i := range snap.Entries {
		if snap.Entries[i].ID == id {
			return &snap.Entries[i], nil
		}
	}
	return nil, fmt.Errorf("entry %q: %w", id, ErrNotFound)
}

// ListBackups describes every backup slot on disk, newest (slot 1) first.
// Unreadable backups are listed with an EntryCount of -1.
func (r *Reader) ListBackups() ([]BackupInfo, error) {
	slots, err := listSlots(r.BackupDir, r.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	sort.Ints(slots)

	backups := make([]BackupInfo, 0, len(slots))
	for _, slot := range slots {
		info := BackupInfo{
			Slot:       slot,
			Path:       backupPath(r.BackupDir, r.CatalogPath, slot),
			EntryCount: -1,
		}
		if stat, err := os.Stat(info.Path); err == nil {
			info.ModTime = stat.ModTime()
		}
		if catalog, err := readCatalogFile(info.Path); err == nil {
			info.EntryCount = len(catalog.Entries)
			info.UpdatedAt = catalog.UpdatedAt
		}
		backups = append(backups, info)
	}
	return backups, nil
}

func readCatalogFile(path string) (*rawCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("catalog %s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	var catalog rawCatalog
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to decode catalog %s: %w", path, err)
	}
	return &catalog, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
