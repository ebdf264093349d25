package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/lorekeeper/internal/models"
)

func newTestStore(t *testing.T, limit int) *Store {
	t.Helper()
	dir := t.TempDir()
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return &Store{
		CatalogPath:     filepath.Join(dir, "content.json"),
		DiagnosticsPath: filepath.Join(dir, "content-diagnostics.json"),
		BackupDir:       filepath.Join(dir, "backups"),
		Limit:           limit,
		now: func() time.Time {
			clock = clock.Add(time.Minute)
			return clock
		},
	}
}

func generation(n int) []models.ContentEntry {
	return []models.ContentEntry{
		models.Normalize(map[string]any{"id": fmt.Sprintf("gen-%d", n), "type": "lore"}),
	}
}

func saveGeneration(t *testing.T, s *Store, n int) {
	t.Helper()
	entries := generation(n)
	report := models.NewDiagnosticsReport()
	report.EntryCount = len(entries)
	report.Finalize()
	require.NoError(t, s.Save(context.Background(), entries, report))
}

func generationIn(t *testing.T, path string) string {
	t.Helper()
	catalog, err := readCatalogFile(path)
	require.NoError(t, err)
	require.Len(t, catalog.Entries, 1)
	return catalog.Entries[0]["id"].(string)
}

func TestSave_FirstRun(t *testing.T) {
	s := newTestStore(t, 5)
	saveGeneration(t, s, 1)

	snap, err := s.Reader().ReadCatalog()
	require.NoError(t, err)
	assert.Equal(t, "gen-1", snap.Entries[0].ID)
	assert.Equal(t, "2026-03-01T12:01:00Z", snap.UpdatedAt)
	require.NotNil(t, snap.Diagnostics)
	assert.Equal(t, models.SeverityOK, snap.Diagnostics.Status)

	backups, err := s.Reader().ListBackups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

// The seed catalog is generation 1; six imports then produce generations 2-7.
func TestSave_BackupBound(t *testing.T) {
	s := newTestStore(t, 5)
	saveGeneration(t, s, 1)

	for gen := 2; gen <= 7; gen++ {
		saveGeneration(t, s, gen)
	}

	backups, err := s.Reader().ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 5)

	for i, b := range backups {
		assert.Equal(t, i+1, b.Slot)
		assert.Equal(t, 1, b.EntryCount)
	}
	assert.Equal(t, "gen-6", generationIn(t, s.BackupPath(1)))
	assert.Equal(t, "gen-5", generationIn(t, s.BackupPath(2)))
	assert.Equal(t, "gen-4", generationIn(t, s.BackupPath(3)))
	assert.Equal(t, "gen-3", generationIn(t, s.BackupPath(4)))
	assert.Equal(t, "gen-2", generationIn(t, s.BackupPath(5)))
	assert.Equal(t, "gen-7", generationIn(t, s.CatalogPath))

	_, err = os.Stat(s.BackupPath(6))
	assert.True(t, os.IsNotExist(err))
}

func TestSave_EmptyEntriesWrittenAsArray(t *testing.T) {
	s := newTestStore(t, 5)
	require.NoError(t, s.Save(context.Background(), nil, models.NewDiagnosticsReport()))

	data, err := os.ReadFile(s.CatalogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"entries": []`)
}

func TestSave_FailureIsStoreError(t *testing.T) {
	s := newTestStore(t, 5)
	// A regular file where the backup directory should be
	require.NoError(t, os.WriteFile(s.BackupDir, []byte("x"), 0644))

	err := s.Save(context.Background(), generation(1), models.NewDiagnosticsReport())
	require.Error(t, err)

	var storeErr *StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, "rotate", storeErr.Op)
}

func TestReader_FindEntry(t *testing.T) {
	s := newTestStore(t, 5)
	entries := []models.ContentEntry{
		models.Normalize(map[string]any{"id": "harbor", "title": "First"}),
		models.Normalize(map[string]any{"id": "harbor", "title": "Second"}),
		models.Normalize(map[string]any{"id": "keep"}),
	}
	require.NoError(t, s.Save(context.Background(), entries, models.NewDiagnosticsReport()))

	r := s.Reader()
	entry, err := r.FindEntry("harbor")
	require.NoError(t, err)
	assert.Equal(t, "First", entry.Title)

	_, err = r.FindEntry("nowhere")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReader_NumericIDsInHandEditedCatalog(t *testing.T) {
	s := newTestStore(t, 5)
	require.NoError(t, os.WriteFile(s.CatalogPath, []byte(`{"entries":[{"id":42,"regionId":7}],"updatedAt":"x"}`), 0644))

	entry, err := s.Reader().FindEntry("42")
	require.NoError(t, err)
	assert.Equal(t, "7", entry.RegionID.String())

	snap, err := s.Reader().ReadCatalog()
	require.NoError(t, err)
	assert.Nil(t, snap.Diagnostics)
}

func TestReader_MissingCatalog(t *testing.T) {
	s := newTestStore(t, 5)
	_, err := s.Reader().ReadCatalog()
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRestore(t *testing.T) {
	s := newTestStore(t, 5)
	saveGeneration(t, s, 1)
	saveGeneration(t, s, 2)
	saveGeneration(t, s, 3)

	require.NoError(t, s.Restore(context.Background(), 2))

	assert.Equal(t, "gen-1", generationIn(t, s.CatalogPath))
	// The catalog being replaced is kept as the newest backup
	assert.Equal(t, "gen-3", generationIn(t, s.BackupPath(1)))
	assert.Equal(t, "gen-2", generationIn(t, s.BackupPath(2)))
	assert.Equal(t, "gen-1", generationIn(t, s.BackupPath(3)))

	err := s.Restore(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}
