package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/lorekeeper/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// progressWidth is the width of the parse progress bar in characters.
const progressWidth = 20

// ConsoleLogger logs run progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// It supports log level filtering to control message verbosity.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// Returns true for os.Stdout and os.Stderr when they are TTYs.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}

	if w == os.Stdout || w == os.Stderr {
		// fatih/color already honors NO_COLOR and non-TTY stdout
		return !color.NoColor
	}

	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// logWithLevel logs a message at the specified level if filtering allows it.
func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogRunStart logs the start of an import at INFO level.
// Format: "[HH:MM:SS] [INFO] Import <run id> started: <root dir>"
func (cl *ConsoleLogger) LogRunStart(runID, rootDir string) {
	cl.LogInfo(fmt.Sprintf("Import %s started: %s", runID, rootDir))
}

// LogParseProgress logs parse progress with a bar at DEBUG level.
// Format: "[HH:MM:SS] [DEBUG] Parsing [==========          ] 5/10 (50%)"
// Only every tenth file and the last file are logged to keep output short.
func (cl *ConsoleLogger) LogParseProgress(done, total int) {
	if total <= 0 || (done != total && done%10 != 0) {
		return
	}
	bar := NewProgressBar(total, progressWidth, cl.colorOutput)
	bar.SetPrefix("Parsing ")
	bar.Update(done)
	cl.LogDebug(bar.Render())
}

// LogRunComplete logs the run outcome at INFO level, or WARN/ERROR when the
// diagnostics status says so.
// Format: "[HH:MM:SS] [INFO] Import complete: status ok, 12 entries from 13 files in 1.2s"
func (cl *ConsoleLogger) LogRunComplete(report models.DiagnosticsReport, duration time.Duration) {
	status := string(report.Status)
	if cl.colorOutput {
		status = newColorScheme().statusColor(report.Status).Sprint(status)
	}

	message := fmt.Sprintf("Import complete: status %s, %d entries from %d files in %s",
		status, report.EntryCount, report.FilesDiscovered, formatDuration(duration))
	if findings := formatFindings(report, cl.colorOutput); findings != "" {
		message += " (" + findings + ")"
	}

	switch report.Status {
	case models.SeverityError:
		cl.LogError(message)
	case models.SeverityWarn:
		cl.LogWarn(message)
	default:
		cl.LogInfo(message)
	}
}

// formatFindings returns the finding counts, colored when requested.
func formatFindings(report models.DiagnosticsReport, colored bool) string {
	if colored {
		return formatColorizedFindings(report)
	}
	var parts []string
	for _, f := range []struct {
		label string
		n     int
	}{
		{"missing", len(report.MissingIDs)},
		{"duplicate", len(report.DuplicateIDs)},
		{"types", len(report.InvalidTypes)},
		{"regions", len(report.InvalidRegions)},
		{"locations", len(report.InvalidLocations)},
		{"unreadable", len(report.UnreadableFiles)},
	} {
		if f.n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", f.label, f.n))
		}
	}
	return strings.Join(parts, ", ")
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration formats a duration for log output.
// Under a second prints milliseconds, under a minute prints seconds with one
// decimal, longer runs print minutes and seconds.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		minutes := int(d.Minutes())
		seconds := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	}
}
