package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/lorekeeper/internal/models"
)

// LatestLogName is the symlink kept pointing at the most recent run log.
const LatestLogName = "latest.log"

// FileLogger writes one timestamped log file per import run and keeps a
// latest.log symlink pointing at it. Unlike the console logger it records
// every finding of the run in full. It is thread-safe.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLoggerWithDirAndLevel creates a FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Generate timestamped filename: run-YYYYMMDD-HHMMSS.log
	stamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", stamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, LatestLogName)
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== Lorekeeper Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the log file for this run.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

// shouldLog checks if a message at the given level should be logged.
func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", time.Now().Format("15:04:05"), level, message))
}

// LogRunStart records the run id and content root at INFO level.
func (fl *FileLogger) LogRunStart(runID, rootDir string) {
	if !fl.shouldLog("info") {
		return
	}
	ts := time.Now().Format("15:04:05")
	fl.writeRunLog(fmt.Sprintf("[%s] Run ID:       %s\n[%s] Content root: %s\n", ts, runID, ts, rootDir))
}

// LogParseProgress records parse progress at TRACE level, one line per file.
func (fl *FileLogger) LogParseProgress(done, total int) {
	fl.LogTrace(fmt.Sprintf("Parsed %d/%d files", done, total))
}

// LogRunComplete writes the run summary and every finding at INFO level.
func (fl *FileLogger) LogRunComplete(report models.DiagnosticsReport, duration time.Duration) {
	if !fl.shouldLog("info") {
		return
	}

	ts := time.Now().Format("15:04:05")

	var b strings.Builder
	fmt.Fprintf(&b, "\n[%s] === IMPORT SUMMARY ===\n", ts)
	fmt.Fprintf(&b, "[%s] Files discovered:  %d\n", ts, report.FilesDiscovered)
	fmt.Fprintf(&b, "[%s] Entries generated: %d\n", ts, report.EntriesGenerated)
	fmt.Fprintf(&b, "[%s] Issues:            %d\n", ts, report.IssueCount)
	fmt.Fprintf(&b, "[%s] Total time:        %.1fs\n", ts, duration.Seconds())
	fmt.Fprintf(&b, "[%s] Status:            %s\n", ts, strings.ToUpper(string(report.Status)))

	writeFindings(&b, ts, "Missing ids", report.MissingIDs)
	writeFindings(&b, ts, "Duplicate ids", report.DuplicateIDs)

	types := make([]string, len(report.InvalidTypes))
	for i, f := range report.InvalidTypes {
		types[i] = fmt.Sprintf("%s (type %q)", f.ID, f.Type)
	}
	writeFindings(&b, ts, "Invalid types", types)

	regions := make([]string, len(report.InvalidRegions))
	for i, f := range report.InvalidRegions {
		regions[i] = fmt.Sprintf("%s (region %s)", f.ID, f.RegionID)
	}
	writeFindings(&b, ts, "Invalid regions", regions)

	locations := make([]string, len(report.InvalidLocations))
	for i, f := range report.InvalidLocations {
		locations[i] = fmt.Sprintf("%s (location %s)", f.ID, f.MapLocationID)
	}
	writeFindings(&b, ts, "Invalid locations", locations)

	unreadable := make([]string, len(report.UnreadableFiles))
	for i, f := range report.UnreadableFiles {
		unreadable[i] = fmt.Sprintf("%s: %s", f.Path, f.Message)
	}
	writeFindings(&b, ts, "Unreadable files", unreadable)

	fmt.Fprintf(&b, "[%s] Completed at: %s\n", ts, time.Now().Format(time.RFC3339))

	fl.writeRunLog(b.String())
}

// writeFindings appends a titled list; empty categories are skipped.
func writeFindings(b *strings.Builder, ts, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "[%s] %s (%d):\n", ts, title, len(items))
	for _, item := range items {
		fmt.Fprintf(b, "[%s]   - %s\n", ts, item)
	}
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		// Flush after each write for real-time logging
		fl.runLog.Sync()
	}
}
