// Package store persists the catalog and its diagnostics with a bounded ring
// of numbered backups, and reads them back for downstream consumers.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/harrison/lorekeeper/internal/config"
	"github.com/harrison/lorekeeper/internal/filelock"
	"github.com/harrison/lorekeeper/internal/models"
)

// StoreError reports a filesystem failure while persisting.
type StoreError struct {
	Op   string // Operation that failed (rotate, backup, write, restore)
	Path string // File involved
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrNotFound is returned when a requested entry or backup does not exist.
var ErrNotFound = errors.New("not found")

// Store writes the live catalog, the diagnostics report and the backup ring.
// Every mutating call holds an advisory lock on "<catalog>.lock".
type Store struct {
	CatalogPath     string
	DiagnosticsPath string
	BackupDir       string
	Limit           int

	// now is overridable in tests
	now func() time.Time
}

// New creates a Store from a resolved configuration.
func New(cfg *config.Config) *Store {
	return &Store{
		CatalogPath:     cfg.CatalogPath,
		DiagnosticsPath: cfg.DiagnosticsPath,
		BackupDir:       cfg.BackupDir,
		Limit:           cfg.BackupLimit,
		now:             time.Now,
	}
}

// Reader returns a Reader over the same files.
func (s *Store) Reader() *Reader {
	return &Reader{
		CatalogPath:     s.CatalogPath,
		DiagnosticsPath: s.DiagnosticsPath,
		BackupDir:       s.BackupDir,
	}
}

func (s *Store) lockPath() string {
	return s.CatalogPath + ".lock"
}

func (s *Store) limit() int {
	if s.Limit < 1 {
		return config.DefaultBackupLimit
	}
	return s.Limit
}

func (s *Store) timestamp() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// BackupPath returns the file for backup slot n, e.g. backups/content-1.json.
func (s *Store) BackupPath(slot int) string {
	return backupPath(s.BackupDir, s.CatalogPath, slot)
}

func backupPath(backupDir, catalogPath string, slot int) string {
	base := filepath.Base(catalogPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	return filepath.Join(backupDir, fmt.Sprintf("%s-%d%s", name, slot, ext))
}

// Save rotates the backup ring, then replaces the live catalog and the
// diagnostics report. A failure part-way leaves earlier steps applied.
func (s *Store) Save(ctx context.Context, entries []models.ContentEntry, report models.DiagnosticsReport) error {
	if entries == nil {
		entries = []models.ContentEntry{}
	}
	catalog := models.Catalog{
		Entries:   entries,
		UpdatedAt: s.timestamp().UTC().Format(time.RFC3339),
	}
	catalogData, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return &StoreError{Op: "encode", Path: s.CatalogPath, Err: err}
	}
	reportData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return &StoreError{Op: "encode", Path: s.DiagnosticsPath, Err: err}
	}

	return filelock.WithLock(ctx, s.lockPath(), func() error {
		if err := s.rotate(); err != nil {
			return err
		}
		if err := filelock.AtomicWrite(s.CatalogPath, catalogData); err != nil {
			return &StoreError{Op: "write", Path: s.CatalogPath, Err: err}
		}
		if err := filelock.AtomicWrite(s.DiagnosticsPath, reportData); err != nil {
			return &StoreError{Op: "write", Path: s.DiagnosticsPath, Err: err}
		}
		return nil
	})
}

// rotate applies PlanRotation and copies the live catalog into slot 1.
// Callers must hold the lock.
func (s *Store) rotate() error {
	if err := os.MkdirAll(s.BackupDir, 0755); err != nil {
		return &StoreError{Op: "rotate", Path: s.BackupDir, Err: err}
	}

	occupied, err := s.occupiedSlots()
	if err != nil {
		return err
	}

	for _, step := range PlanRotation(s.limit(), occupied) {
		switch step.Kind {
		case StepDelete:
			path := s.BackupPath(step.From)
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return &StoreError{Op: "rotate", Path: path, Err: err}
			}
		case StepRename:
			from, to := s.BackupPath(step.From), s.BackupPath(step.To)
			if err := os.Rename(from, to); err != nil {
				return &StoreError{Op: "rotate", Path: from, Err: err}
			}
		}
	}

	if _, err := os.Stat(s.CatalogPath); err != nil {
		if os.IsNotExist(err) {
			// First import: nothing to back up
			return nil
		}
		return &StoreError{Op: "backup", Path: s.CatalogPath, Err: err}
	}
	if err := filelock.AtomicCopy(s.CatalogPath, s.BackupPath(1)); err != nil {
		return &StoreError{Op: "backup", Path: s.BackupPath(1), Err: err}
	}
	return nil
}

// occupiedSlots lists the backup slots present on disk.
func (s *Store) occupiedSlots() (map[int]bool, error) {
	slots, err := listSlots(s.BackupDir, s.CatalogPath)
	if err != nil {
		return nil, &StoreError{Op: "rotate", Path: s.BackupDir, Err: err}
	}
	occupied := make(map[int]bool, len(slots))
	for _, slot := range slots {
		occupied[slot] = true
	}
	return occupied, nil
}

// listSlots returns the backup slot numbers found in backupDir, unsorted.
// A missing directory has no slots.
func listSlots(backupDir, catalogPath string) ([]int, error) {
	dirEntries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	base := filepath.Base(catalogPath)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "-"

	var slots []int
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, prefix), ext))
		if err != nil || n < 1 {
			continue
		}
		slots = append(slots, n)
	}
	return slots, nil
}

// Restore makes backup slot the live catalog. The current live catalog is
// rotated into slot 1 first, so a restore can itself be undone. The
// diagnostics report is left as written by the last import.
func (s *Store) Restore(ctx context.Context, slot int) error {
	path := s.BackupPath(slot)

	return filelock.WithLock(ctx, s.lockPath(), func() error {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("backup %d: %w", slot, ErrNotFound)
			}
			return &StoreError{Op: "restore", Path: path, Err: err}
		}
		if !json.Valid(data) {
			return &StoreError{Op: "restore", Path: path, Err: errors.New("backup is not valid JSON")}
		}

		if err := s.rotate(); err != nil {
			return err
		}
		if err := filelock.AtomicWrite(s.CatalogPath, data); err != nil {
			return &StoreError{Op: "restore", Path: s.CatalogPath, Err: err}
		}
		return nil
	})
}
