// Package display renders user-facing output for lorekeeper commands.
//
// # Run Summary
//
// After an import, the orchestrator prints the diagnostics as a table of
// finding counts followed by a colored status line and up to
// MaxRepresentatives offending ids per non-empty category:
//
//	summary := display.NewSummary(report)
//	summary.Render(os.Stdout, display.ShouldColorize(os.Stdout))
//
// # Warning Messages
//
// Non-fatal problems (config fallbacks, unreadable reference files) are shown
// as warnings:
//
//	warning := display.Warning{
//	    Title:      "Reference file unreadable",
//	    Message:    "regions.json is not a JSON array",
//	    Files:      []string{"data/regions.json"},
//	    Suggestion: "Fix the file and re-run the import",
//	}
//	warning.Display(os.Stderr, false)
//
// # Colors
//
// Colors come from fatih/color and are only applied when the caller passes
// colorize=true, normally the result of ShouldColorize, which checks the
// writer with mattn/go-isatty. All functions accept io.Writer for testability.
package display
