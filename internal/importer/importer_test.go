package importer

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/lorekeeper/internal/config"
	"github.com/harrison/lorekeeper/internal/index"
	"github.com/harrison/lorekeeper/internal/models"
	"github.com/harrison/lorekeeper/internal/store"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// newVault lays out a small project with one note per finding category.
func newVault(t *testing.T) string {
	t.Helper()
	base := filepath.Join(t.TempDir(), "project")

	notes := map[string]string{
		"content/characters/envoy.md":      "#id envoy\n#type character\n#region 77\n\nThe envoy speaks for the #harbor guild.\n\nSecond paragraph.\n",
		"content/locations/harbor-copy.md": "#id harbor\n#type location\n#mapLocation 12\n",
		"content/locations/harbor.md":      "#id harbor\n#type location\n#mapLocation 99\n",
		"content/map.md":                   "#id map\x00\x01",
		"content/misc/untitled.md":         "No header here.\n",
		"content/README.md":                "#id readme\n",
		"content/.obsidian/app.md":         "#id hidden\n",
		"data/locations.json":              `[{"id": 12}, {"id": "dock"}]`,
		"data/regions.json":                `[{"id": "north"}]`,
	}
	for rel, content := range notes {
		writeFile(t, filepath.Join(base, rel), content)
	}
	return base
}

func newTestImporter(base string, out *bytes.Buffer) *Importer {
	im := New(Options{BaseDir: base, Out: out})
	im.newRunID = func() string { return "run-fixed" }
	return im
}

func TestRun_EndToEnd(t *testing.T) {
	base := newVault(t)
	var out bytes.Buffer

	result, err := newTestImporter(base, &out).Run(context.Background())
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, "run-fixed", report.RunID)
	assert.Equal(t, filepath.Join(base, "content"), report.RootDir)
	assert.Nil(t, report.ConfigPath)
	assert.False(t, report.Timestamp.IsZero())
	assert.Equal(t, 5, report.FilesDiscovered)
	assert.Equal(t, 4, report.EntriesGenerated)
	assert.Equal(t, 4, report.EntryCount)

	assert.Equal(t, []string{"misc/untitled.md"}, report.MissingIDs)
	assert.Equal(t, []string{"harbor"}, report.DuplicateIDs)
	assert.Equal(t, []models.InvalidRegion{{ID: "envoy", RegionID: "77"}}, report.InvalidRegions)
	assert.Equal(t, []models.InvalidLocation{{ID: "harbor", MapLocationID: "99"}}, report.InvalidLocations)
	require.Len(t, report.UnreadableFiles, 1)
	assert.Equal(t, "map.md", report.UnreadableFiles[0].Path)
	assert.Equal(t, 5, report.IssueCount)
	assert.Equal(t, models.SeverityError, report.Status)

	ids := make([]string, len(result.Entries))
	for i, e := range result.Entries {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"envoy", "harbor", "harbor", ""}, ids)
	assert.Equal(t, []string{"harbor"}, result.Entries[0].Tags)
	assert.Equal(t, "The envoy speaks for the #harbor guild.", result.Entries[0].Summary)

	// Persisted even though the status is error
	snap, err := store.NewReader(result.Config).ReadCatalog()
	require.NoError(t, err)
	assert.Len(t, snap.Entries, 4)
	require.NotNil(t, snap.Diagnostics)
	assert.Equal(t, models.SeverityError, snap.Diagnostics.Status)

	ix, err := index.Open(result.Config.IndexPath)
	require.NoError(t, err)
	defer ix.Close()
	tagged, err := ix.FindByTag(context.Background(), "HARBOR")
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, "envoy", tagged[0].ID)
	runID, err := ix.LastRunID(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", runID)

	assert.Contains(t, out.String(), "Import ERROR: 4 entries from 5 files, 5 issues")
	assert.Contains(t, out.String(), "  - misc/untitled.md")
	assert.NoError(t, result.IndexErr)
}

func TestRun_RerunIsIdempotentAndRotatesBackups(t *testing.T) {
	base := newVault(t)
	ctx := context.Background()

	first, err := newTestImporter(base, &bytes.Buffer{}).Run(ctx)
	require.NoError(t, err)
	second, err := newTestImporter(base, &bytes.Buffer{}).Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, first.Entries, second.Entries)
	first.Report.Timestamp = second.Report.Timestamp
	assert.Equal(t, first.Report, second.Report)

	backups, err := store.NewReader(second.Config).ListBackups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, 1, backups[0].Slot)
	assert.Equal(t, 4, backups[0].EntryCount)
}

func TestRun_MissingRootIsFatal(t *testing.T) {
	base := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(base, 0755))

	_, err := New(Options{BaseDir: base}).Run(context.Background())
	require.Error(t, err)
	var cfgErr *config.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	_, statErr := os.Stat(filepath.Join(base, "data", "content.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_CancelledContextWritesNothing(t *testing.T) {
	base := newVault(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestImporter(base, &bytes.Buffer{}).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, statErr := os.Stat(filepath.Join(base, "data", "content.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRun_MissingReferencesWarn(t *testing.T) {
	base := filepath.Join(t.TempDir(), "project")
	writeFile(t, filepath.Join(base, "content", "a.md"), "#id a\n#region north\n")

	result, err := newTestImporter(base, &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, result.Warnings, 2)
	assert.Equal(t, []models.InvalidRegion{{ID: "a", RegionID: "north"}}, result.Report.InvalidRegions)
	assert.Equal(t, models.SeverityWarn, result.Report.Status)
}

func TestRun_ConfigFileAdhocEntriesAndLogs(t *testing.T) {
	base := filepath.Join(t.TempDir(), "project")
	writeFile(t, filepath.Join(base, "notes", "a.md"), "#id a\n#type lore\n")
	writeFile(t, filepath.Join(base, "notes", "skip.txt"), "#id skip\n")
	writeFile(t, filepath.Join(base, "data", "extra.json"), `[{"id": 7, "type": "Item", "tags": ["loot"]}, "junk"]`)
	writeFile(t, filepath.Join(base, "data", "locations.json"), `[]`)
	writeFile(t, filepath.Join(base, "data", "regions.json"), `[]`)
	writeFile(t, filepath.Join(base, "lorekeeper.config.yaml"),
		"rootFolder: notes\nadhocEntries: extra.json\nindexPath: \"\"\nlogDir: logs\n")

	var stderr bytes.Buffer
	im := New(Options{BaseDir: base, Err: &stderr})
	result, err := im.Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, result.Report.ConfigPath)
	assert.Equal(t, filepath.Join(base, "lorekeeper.config.yaml"), *result.Report.ConfigPath)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, "a", result.Entries[0].ID)
	assert.Equal(t, "7", result.Entries[1].ID)
	assert.Equal(t, "item", result.Entries[1].Type)
	assert.Equal(t, models.SeverityOK, result.Report.Status)
	assert.Empty(t, result.Warnings)

	_, statErr := os.Stat(filepath.Join(base, "data", "content.db"))
	assert.True(t, os.IsNotExist(statErr), "index disabled by empty indexPath")

	target, err := os.Readlink(filepath.Join(base, "logs", "latest.log"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "logs", target), result.RunLog)
	assert.Contains(t, stderr.String(), "started: "+filepath.Join(base, "notes"))
}

func TestRun_NonFiniteReferencesStillPersist(t *testing.T) {
	base := filepath.Join(t.TempDir(), "project")
	writeFile(t, filepath.Join(base, "content", "a.md"), "#id a\n#regionId NaN\n#mapLocation +Inf\n")
	writeFile(t, filepath.Join(base, "data", "extra.json"), `[{"id": "x", "regionId": 1e400}]`)
	writeFile(t, filepath.Join(base, "data", "locations.json"), `[]`)
	writeFile(t, filepath.Join(base, "data", "regions.json"), `[]`)
	writeFile(t, filepath.Join(base, "lorekeeper.config.yaml"), "adhocEntries: extra.json\n")

	result, err := newTestImporter(base, &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []models.InvalidRegion{
		{ID: "a", RegionID: "NaN"},
		{ID: "x", RegionID: "1e400"},
	}, result.Report.InvalidRegions)
	assert.Equal(t, []models.InvalidLocation{{ID: "a", MapLocationID: "+Inf"}}, result.Report.InvalidLocations)

	data, err := os.ReadFile(filepath.Join(base, "data", "content.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"regionId": "NaN"`)
	assert.Contains(t, string(data), `"regionId": "1e400"`)
}

func TestRun_SymlinkedContentRoot(t *testing.T) {
	tmp := t.TempDir()
	base := filepath.Join(tmp, "project")
	writeFile(t, filepath.Join(tmp, "vault", "lore", "a.md"), "#id a\n#type lore\n")
	writeFile(t, filepath.Join(base, "data", "locations.json"), `[]`)
	writeFile(t, filepath.Join(base, "data", "regions.json"), `[]`)
	if err := os.Symlink(filepath.Join(tmp, "vault"), filepath.Join(base, "content")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	result, err := newTestImporter(base, &bytes.Buffer{}).Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "lore/a.md", result.Entries[0].ObsidianPath)
	assert.Equal(t, 1, result.Report.FilesDiscovered)
}

func TestLoadAdhocEntries(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadAdhocEntries(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	writeFile(t, bad, `{"id": "not-an-array"}`)
	entries, err := LoadAdhocEntries(bad)
	assert.Error(t, err)
	assert.Empty(t, entries)

	good := filepath.Join(dir, "good.json")
	writeFile(t, good, `[{"id": "x", "regionId": 5, "status": "bogus"}]`)
	entries, err = LoadAdhocEntries(good)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.DefaultStatus, entries[0].Status)
	require.NotNil(t, entries[0].RegionID)
	assert.True(t, entries[0].RegionID.Numeric)
}
