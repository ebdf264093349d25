package logger

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/harrison/lorekeeper/internal/models"
)

func readRunLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(fl.RunFile())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	return string(data)
}

// TestFileLogger_CreatesRunLogAndSymlink verifies the directory, the
// timestamped run file and the latest.log symlink.
func TestFileLogger_CreatesRunLogAndSymlink(t *testing.T) {
	logDir := filepath.Join(t.TempDir(), "logs")

	fl, err := NewFileLoggerWithDirAndLevel(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer fl.Close()

	name := filepath.Base(fl.RunFile())
	if !regexp.MustCompile(`^run-\d{8}-\d{6}\.log$`).MatchString(name) {
		t.Errorf("unexpected run log name %q", name)
	}

	target, err := os.Readlink(filepath.Join(logDir, LatestLogName))
	if err != nil {
		t.Fatalf("latest.log is not a symlink: %v", err)
	}
	if target != name {
		t.Errorf("latest.log -> %q, want %q", target, name)
	}

	if !strings.HasPrefix(readRunLog(t, fl), "=== Lorekeeper Run Log ===\n") {
		t.Errorf("missing run log header")
	}
}

func TestFileLogger_ReplacesSymlink(t *testing.T) {
	logDir := t.TempDir()
	stale := filepath.Join(logDir, "run-20000101-000000.log")
	if err := os.WriteFile(stale, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Base(stale), filepath.Join(logDir, LatestLogName)); err != nil {
		t.Fatal(err)
	}

	fl, err := NewFileLoggerWithDirAndLevel(logDir, "info")
	if err != nil {
		t.Fatalf("NewFileLoggerWithDirAndLevel() error = %v", err)
	}
	defer fl.Close()

	target, _ := os.Readlink(filepath.Join(logDir, LatestLogName))
	if target != filepath.Base(fl.RunFile()) {
		t.Errorf("latest.log still points at %q", target)
	}
}

func TestFileLogger_LevelFiltering(t *testing.T) {
	fl, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "warn")
	if err != nil {
		t.Fatal(err)
	}
	defer fl.Close()

	fl.LogDebug("debug line")
	fl.LogInfo("info line")
	fl.LogWarn("warn line")
	fl.LogError("error line")
	fl.LogParseProgress(1, 2)

	content := readRunLog(t, fl)
	for _, hidden := range []string{"debug line", "info line", "Parsed 1/2"} {
		if strings.Contains(content, hidden) {
			t.Errorf("did not expect %q in log", hidden)
		}
	}
	for _, visible := range []string{"[WARN] warn line", "[ERROR] error line"} {
		if !strings.Contains(content, visible) {
			t.Errorf("expected %q in log", visible)
		}
	}
}

func TestFileLogger_LogRunCompleteWritesFindings(t *testing.T) {
	fl, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "info")
	if err != nil {
		t.Fatal(err)
	}
	defer fl.Close()

	report := models.NewDiagnosticsReport()
	report.FilesDiscovered = 4
	report.EntriesGenerated = 3
	report.MissingIDs = []string{"notes/untitled.md"}
	report.InvalidRegions = []models.InvalidRegion{{ID: "harbor", RegionID: "77"}}
	report.UnreadableFiles = []models.UnreadableFile{{Path: "img.md", Message: "binary file"}}
	report.Finalize()

	fl.LogRunStart("run-1", "/vault/content")
	fl.LogRunComplete(report, 2*time.Second)

	content := readRunLog(t, fl)
	for _, want := range []string{
		"Run ID:       run-1",
		"Content root: /vault/content",
		"=== IMPORT SUMMARY ===",
		"Files discovered:  4",
		"Entries generated: 3",
		"Issues:            3",
		"Status:            ERROR",
		"Missing ids (1):",
		"- notes/untitled.md",
		"- harbor (region 77)",
		"- img.md: binary file",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("expected %q in log:\n%s", want, content)
		}
	}
	if strings.Contains(content, "Duplicate ids") {
		t.Errorf("empty categories should be omitted")
	}
}

func TestFileLogger_CloseIsIdempotent(t *testing.T) {
	fl, err := NewFileLoggerWithDirAndLevel(t.TempDir(), "info")
	if err != nil {
		t.Fatal(err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	// Writes after close are dropped
	fl.LogError("late")
}
