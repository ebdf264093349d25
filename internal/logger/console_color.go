package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/lorekeeper/internal/models"
)

// colorScheme defines consistent colors for run metrics.
// Green: ok status and clean counts
// Red: error status and identity findings
// Yellow: warn status and reference findings
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	value   *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		value:   color.New(color.FgWhite),
	}
}

// statusColor picks the color for a diagnostics status.
func (s *colorScheme) statusColor(status models.Severity) *color.Color {
	switch status {
	case models.SeverityError:
		return s.fail
	case models.SeverityWarn:
		return s.warn
	default:
		return s.success
	}
}

// formatColorizedFindings formats the non-zero finding counts of a report.
// Identity findings (missing, duplicate) are red, everything else yellow.
// Returns empty string when the report is clean.
// Format: "missing: N, duplicate: N, types: N, regions: N, locations: N, unreadable: N"
func formatColorizedFindings(report models.DiagnosticsReport) string {
	scheme := newColorScheme()
	var parts []string

	add := func(label string, n int, c *color.Color) {
		if n == 0 {
			return
		}
		parts = append(parts, fmt.Sprintf("%s: %s", c.Sprint(label), c.Sprintf("%d", n)))
	}

	add("missing", len(report.MissingIDs), scheme.fail)
	add("duplicate", len(report.DuplicateIDs), scheme.fail)
	add("types", len(report.InvalidTypes), scheme.warn)
	add("regions", len(report.InvalidRegions), scheme.warn)
	add("locations", len(report.InvalidLocations), scheme.warn)
	add("unreadable", len(report.UnreadableFiles), scheme.warn)

	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, ", ")
}
