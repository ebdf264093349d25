package cmd

import (
	"sort"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/harrison/lorekeeper/internal/models"
	"github.com/harrison/lorekeeper/internal/store"
)

// untypedLabel stands in for the empty type in listings.
const untypedLabel = "(untyped)"

func newListing(header table.Row, configs ...table.ColumnConfig) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(header)
	tw.SetColumnConfigs(configs)
	return tw
}

func rightAligned(columns ...int) []table.ColumnConfig {
	configs := make([]table.ColumnConfig, len(columns))
	for i, n := range columns {
		configs[i] = table.ColumnConfig{Number: n, Align: text.AlignRight, AlignHeader: text.AlignLeft}
	}
	return configs
}

// backupsTable lists backup generations newest first. A backup whose
// catalog could not be decoded shows "unreadable" instead of a count.
func backupsTable(backups []store.BackupInfo) string {
	tw := newListing(table.Row{"Slot", "Updated", "Entries", "Path"}, rightAligned(1, 3)...)
	for _, b := range backups {
		var entries any = b.EntryCount
		if b.EntryCount < 0 {
			entries = "unreadable"
		}
		updated := b.UpdatedAt
		if updated == "" {
			updated = b.ModTime.Format("2006-01-02 15:04:05")
		}
		tw.AppendRow(table.Row{b.Slot, updated, entries, b.Path})
	}
	return tw.Render()
}

// entriesTable lists catalog entries in the order given.
func entriesTable(entries []models.ContentEntry) string {
	tw := newListing(table.Row{"ID", "Type", "Title", "Path"})
	for _, e := range entries {
		typ := e.Type
		if typ == "" {
			typ = untypedLabel
		}
		tw.AppendRow(table.Row{e.ID, typ, e.Title, e.ObsidianPath})
	}
	return tw.Render()
}

// typeCountTable lists entry counts per type alphabetically, untyped last,
// with a total footer.
func typeCountTable(counts map[string]int) string {
	types := make([]string, 0, len(counts))
	total := 0
	for typ, n := range counts {
		if typ != "" {
			types = append(types, typ)
		}
		total += n
	}
	sort.Strings(types)
	if n, ok := counts[""]; ok && n > 0 {
		types = append(types, "")
	}

	tw := newListing(table.Row{"Type", "Entries"}, rightAligned(2)...)
	for _, typ := range types {
		label := typ
		if label == "" {
			label = untypedLabel
		}
		tw.AppendRow(table.Row{label, strconv.Itoa(counts[typ])})
	}
	tw.AppendFooter(table.Row{"Total", strconv.Itoa(total)})
	return tw.Render()
}
