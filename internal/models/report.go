package models

import "time"

// Severity summarizes how far a catalog can be trusted.
type Severity string

const (
	SeverityOK    Severity = "ok"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

// InvalidType records an entry whose type is outside EntryTypes.
type InvalidType struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// InvalidRegion records an entry pointing at an unknown region.
type InvalidRegion struct {
	ID       string `json:"id"`
	RegionID string `json:"regionId"`
}

// InvalidLocation records an entry pointing at an unknown map location.
type InvalidLocation struct {
	ID            string `json:"id"`
	MapLocationID string `json:"mapLocationId"`
}

// UnreadableFile records a note that could not be read or parsed.
type UnreadableFile struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// DiagnosticsReport is written next to the catalog on every run.
// IssueCount and Status are derived by Finalize and must not be set by hand.
type DiagnosticsReport struct {
	RunID            string            `json:"runId"`
	RootDir          string            `json:"rootDir"`
	ConfigPath       *string           `json:"configPath"`
	Timestamp        time.Time         `json:"timestamp"`
	FilesDiscovered  int               `json:"filesDiscovered"`
	EntriesGenerated int               `json:"entriesGenerated"`
	MissingIDs       []string          `json:"missingIds"`
	DuplicateIDs     []string          `json:"duplicateIds"`
	InvalidTypes     []InvalidType     `json:"invalidTypes"`
	InvalidRegions   []InvalidRegion   `json:"invalidRegions"`
	InvalidLocations []InvalidLocation `json:"invalidLocations"`
	UnreadableFiles  []UnreadableFile  `json:"unreadableFiles"`
	IssueCount       int               `json:"issueCount"`
	Status           Severity          `json:"status"`
	EntryCount       int               `json:"entryCount"`
}

// NewDiagnosticsReport returns a report with every list initialized so the
// persisted JSON always carries arrays rather than nulls.
func NewDiagnosticsReport() DiagnosticsReport {
	return DiagnosticsReport{
		MissingIDs:       []string{},
		DuplicateIDs:     []string{},
		InvalidTypes:     []InvalidType{},
		InvalidRegions:   []InvalidRegion{},
		InvalidLocations: []InvalidLocation{},
		UnreadableFiles:  []UnreadableFile{},
		Status:           SeverityOK,
	}
}

// Issues returns the number of findings across all categories.
func (r *DiagnosticsReport) Issues() int {
	return len(r.MissingIDs) +
		len(r.DuplicateIDs) +
		len(r.InvalidTypes) +
		len(r.InvalidRegions) +
		len(r.InvalidLocations) +
		len(r.UnreadableFiles)
}

// DeriveStatus classifies the report: missing or duplicate ids make lookups
// by id unreliable (error); any other finding is a warning.
func (r *DiagnosticsReport) DeriveStatus() Severity {
	switch {
	case len(r.MissingIDs) > 0 || len(r.DuplicateIDs) > 0:
		return SeverityError
	case r.Issues() > 0:
		return SeverityWarn
	default:
		return SeverityOK
	}
}

// Finalize recomputes IssueCount and Status from the finding lists.
func (r *DiagnosticsReport) Finalize() {
	r.IssueCount = r.Issues()
	r.Status = r.DeriveStatus()
}
