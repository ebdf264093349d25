// Package logger provides logging implementations for lorekeeper import runs.
//
// Loggers emit leveled messages plus a few run-level events (start, parse
// progress, completion). Implementations are thread-safe and can be combined
// with MultiLogger to write to the console and a run log file at once.
package logger

import (
	"time"

	"github.com/harrison/lorekeeper/internal/models"
)

// Logger is implemented by every log destination.
type Logger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)

	// LogRunStart marks the beginning of an import run
	LogRunStart(runID, rootDir string)
	// LogParseProgress reports how many discovered files have been parsed
	LogParseProgress(done, total int)
	// LogRunComplete reports the final diagnostics of a run
	LogRunComplete(report models.DiagnosticsReport, duration time.Duration)
}

// MultiLogger fans every call out to a list of loggers.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger combines loggers; nil entries are dropped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	ml := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			ml.loggers = append(ml.loggers, l)
		}
	}
	return ml
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogRunStart(runID, rootDir string) {
	for _, l := range m.loggers {
		l.LogRunStart(runID, rootDir)
	}
}

func (m *MultiLogger) LogParseProgress(done, total int) {
	for _, l := range m.loggers {
		l.LogParseProgress(done, total)
	}
}

func (m *MultiLogger) LogRunComplete(report models.DiagnosticsReport, duration time.Duration) {
	for _, l := range m.loggers {
		l.LogRunComplete(report, duration)
	}
}

// NoOpLogger discards everything. Useful for tests and library callers.
type NoOpLogger struct{}

// NewNoOpLogger creates a new NoOpLogger.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

func (n *NoOpLogger) LogTrace(message string) {}
func (n *NoOpLogger) LogDebug(message string) {}
func (n *NoOpLogger) LogInfo(message string) {}
func (n *NoOpLogger) LogWarn(message string) {}
func (n *NoOpLogger) LogError(message string) {}
func (n *NoOpLogger) LogRunStart(runID, rootDir string) {}
func (n *NoOpLogger) LogParseProgress(done, total int) {}
func (n *NoOpLogger) LogRunComplete(report models.DiagnosticsReport, duration time.Duration) {}
