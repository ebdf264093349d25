package display

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"github.com/harrison/lorekeeper/internal/models"
)

// MaxRepresentatives caps how many offending ids are listed per category.
const MaxRepresentatives = 5

// Category is one row of the run summary.
type Category struct {
	Name  string
	Count int
	// Samples holds up to MaxRepresentatives offending ids
	Samples []string
}

// Summary is the printable form of a diagnostics report.
type Summary struct {
	Report     models.DiagnosticsReport
	Categories []Category
}

// NewSummary groups the report findings into display categories.
func NewSummary(report models.DiagnosticsReport) Summary {
	types := make([]string, len(report.InvalidTypes))
	for i, f := range report.InvalidTypes {
		types[i] = labelled(f.ID, f.Type)
	}
	regions := make([]string, len(report.InvalidRegions))
	for i, f := range report.InvalidRegions {
		regions[i] = labelled(f.ID, f.RegionID)
	}
	locations := make([]string, len(report.InvalidLocations))
	for i, f := range report.InvalidLocations {
		locations[i] = labelled(f.ID, f.MapLocationID)
	}
	unreadable := make([]string, len(report.UnreadableFiles))
	for i, f := range report.UnreadableFiles {
		unreadable[i] = f.Path
	}

	return Summary{
		Report: report,
		Categories: []Category{
			newCategory("Missing ids", report.MissingIDs),
			newCategory("Duplicate ids", report.DuplicateIDs),
			newCategory("Invalid types", types),
			newCategory("Invalid regions", regions),
			newCategory("Invalid locations", locations),
			newCategory("Unreadable files", unreadable),
		},
	}
}

// newCategory counts every item but only samples the first few distinct ones.
func newCategory(name string, items []string) Category {
	c := Category{Name: name, Count: len(items)}
	items = uniqueInOrder(items)
	if len(items) > MaxRepresentatives {
		items = items[:MaxRepresentatives]
	}
	c.Samples = append([]string{}, items...)
	return c
}

func labelled(id, value string) string {
	if id == "" {
		id = "(no id)"
	}
	return fmt.Sprintf("%s (%s)", id, value)
}

// uniqueInOrder drops repeats so a thrice-duplicated id is sampled once.
func uniqueInOrder(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

// Render writes the status line, the counts table and the samples.
func (s Summary) Render(w io.Writer, colorize bool) {
	fmt.Fprintln(w, s.statusLine(colorize))
	fmt.Fprintln(w, s.table())

	for _, c := range s.Categories {
		if c.Count == 0 {
			continue
		}
		header := fmt.Sprintf("%s (%d):", c.Name, c.Count)
		fmt.Fprintln(w, paint(color.FgCyan, colorize, header))
		for _, sample := range c.Samples {
			fmt.Fprintf(w, "  - %s\n", sample)
		}
		if c.Count > len(c.Samples) {
			fmt.Fprintf(w, "  ... %d total\n", c.Count)
		}
	}
}

func (s Summary) statusLine(colorize bool) string {
	r := s.Report
	status := strings.ToUpper(string(r.Status))
	switch r.Status {
	case models.SeverityError:
		status = paint(color.FgRed, colorize, status)
	case models.SeverityWarn:
		status = paint(color.FgYellow, colorize, status)
	default:
		status = paint(color.FgGreen, colorize, status)
	}
	return fmt.Sprintf("Import %s: %d entries from %d files, %d issues",
		status, r.EntryCount, r.FilesDiscovered, r.IssueCount)
}

func (s Summary) table() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Category", "Count"})
	for _, c := range s.Categories {
		tw.AppendRow(table.Row{c.Name, c.Count})
	}
	tw.AppendFooter(table.Row{"Total", s.Report.IssueCount})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft, AlignFooter: text.AlignRight},
	})
	return tw.Render()
}

// ShouldColorize reports whether w is a terminal.
func ShouldColorize(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
