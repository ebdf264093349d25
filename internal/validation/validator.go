// Package validation checks a normalized catalog for identity problems and
// dangling references to the region and location collections.
package validation

import (
	"fmt"

	"github.com/harrison/lorekeeper/internal/models"
)

// IDSet is a set of stringified reference ids.
type IDSet map[string]bool

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// Options carries the reference data a batch is checked against.
type Options struct {
	LocationIDs IDSet
	RegionIDs   IDSet
	// UnreadableFiles are passed through to the report and counted as issues
	UnreadableFiles []models.UnreadableFile
}

// Validate inspects entries in a single pass and returns the findings. It
// does not touch the filesystem; run metadata (RunID, RootDir, ConfigPath,
// Timestamp, FilesDiscovered) is left for the caller to fill in.
//
// Only the second and later occurrences of an id are duplicates, and an
// entry with an empty id is reported as missing rather than duplicate.
func Validate(entries []models.ContentEntry, opts Options) models.DiagnosticsReport {
	report := models.NewDiagnosticsReport()
	report.EntriesGenerated = len(entries)
	report.EntryCount = len(entries)

	seen := make(map[string]bool, len(entries))
	for i, entry := range entries {
		if entry.ID == "" {
			report.MissingIDs = append(report.MissingIDs, sourceKey(entry, i))
		} else if seen[entry.ID] {
			report.DuplicateIDs = append(report.DuplicateIDs, entry.ID)
		} else {
			seen[entry.ID] = true
		}

		if entry.Type != "" && !models.IsValidType(entry.Type) {
			report.InvalidTypes = append(report.InvalidTypes, models.InvalidType{
				ID:   entry.ID,
				Type: entry.Type,
			})
		}

		if region := entry.RegionID.String(); region != "" && !opts.RegionIDs[region] {
			report.InvalidRegions = append(report.InvalidRegions, models.InvalidRegion{
				ID:       entry.ID,
				RegionID: region,
			})
		}

		if location := entry.MapLocationID.String(); location != "" && !opts.LocationIDs[location] {
			report.InvalidLocations = append(report.InvalidLocations, models.InvalidLocation{
				ID:            entry.ID,
				MapLocationID: location,
			})
		}
	}

	report.UnreadableFiles = append(report.UnreadableFiles, opts.UnreadableFiles...)
	report.Finalize()
	return report
}

// sourceKey identifies an entry that has no id.
func sourceKey(entry models.ContentEntry, index int) string {
	if entry.ObsidianPath != "" {
		return entry.ObsidianPath
	}
	return fmt.Sprintf("entry[%d]", index)
}
