package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EntryType values accepted by the validator. Anything else is reported
// under invalidTypes.
var EntryTypes = []string{
	"lore",
	"character",
	"location",
	"region",
	"quest",
	"item",
	"faction",
	"event",
	"creature",
	"secret",
}

// Status values for a catalog entry.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusLocked    = "locked"
	StatusHidden    = "hidden"
	StatusArchived  = "archived"
)

// DefaultStatus is applied when a note declares no status or an unknown one.
const DefaultStatus = StatusPublished

var validStatuses = map[string]bool{
	StatusDraft:     true,
	StatusPublished: true,
	StatusLocked:    true,
	StatusHidden:    true,
	StatusArchived:  true,
}

var validTypes = func() map[string]bool {
	m := make(map[string]bool, len(EntryTypes))
	for _, t := range EntryTypes {
		m[t] = true
	}
	return m
}()

// IsValidStatus reports whether s is one of the fixed status values.
func IsValidStatus(s string) bool {
	return validStatuses[s]
}

// IsValidType reports whether t is one of the known entry types.
func IsValidType(t string) bool {
	return validTypes[t]
}

// ContentEntry is the canonical catalog record. Every entry persisted to the
// catalog has been through Normalize.
type ContentEntry struct {
	ID                string         `json:"id"`
	Type              string         `json:"type"`
	Title             string         `json:"title"`
	Status            string         `json:"status"`
	Category          string         `json:"category"`
	Unlockable        bool           `json:"unlockable"`
	SecretKey         string         `json:"secretKey"`
	Tags              []string       `json:"tags"`
	Summary           string         `json:"summary"`
	Body              string         `json:"body"`
	ObsidianPath      string         `json:"obsidianPath"`
	Folder            string         `json:"folder"`
	MapLocationID     *Ref           `json:"mapLocationId"`
	RegionID          *Ref           `json:"regionId"`
	Requires          []string       `json:"requires"`
	RelatedCharacters []string       `json:"relatedCharacters"`
	RelatedEvents     []string       `json:"relatedEvents"`
	RelatedItems      []string       `json:"relatedItems"`
	RelatedFactions   []string       `json:"relatedFactions"`
	Meta              map[string]any `json:"meta"`
}

// Raw converts the entry back into the loosely typed record shape accepted by
// Normalize. Normalize(e.Raw()) yields e for any normalized e.
func (e ContentEntry) Raw() map[string]any {
	raw := map[string]any{
		"id":                e.ID,
		"type":              e.Type,
		"title":             e.Title,
		"status":            e.Status,
		"category":          e.Category,
		"unlockable":        e.Unlockable,
		"secretKey":         e.SecretKey,
		"tags":              stringsToAny(e.Tags),
		"summary":           e.Summary,
		"body":              e.Body,
		"obsidianPath":      e.ObsidianPath,
		"folder":            e.Folder,
		"requires":          stringsToAny(e.Requires),
		"relatedCharacters": stringsToAny(e.RelatedCharacters),
		"relatedEvents":     stringsToAny(e.RelatedEvents),
		"relatedItems":      stringsToAny(e.RelatedItems),
		"relatedFactions":   stringsToAny(e.RelatedFactions),
	}
	if e.MapLocationID != nil {
		raw["mapLocationId"] = e.MapLocationID.raw()
	}
	if e.RegionID != nil {
		raw["regionId"] = e.RegionID.raw()
	}
	meta := make(map[string]any, len(e.Meta))
	for k, v := range e.Meta {
		meta[k] = v
	}
	raw["meta"] = meta
	return raw
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// Ref is a nullable scalar reference to a region or map location. Notes may
// author it as a number or as an opaque string; both forms survive a round
// trip through the catalog.
type Ref struct {
	Value   string
	Numeric bool
}

// StringRef returns a string-valued reference.
func StringRef(s string) *Ref {
	return &Ref{Value: s}
}

// NumericRef returns a number-valued reference. s must be a valid JSON number.
func NumericRef(s string) *Ref {
	return &Ref{Value: s, Numeric: true}
}

// String returns the reference as it is compared against reference id sets.
// A nil reference is the empty string.
func (r *Ref) String() string {
	if r == nil {
		return ""
	}
	return r.Value
}

func (r *Ref) raw() any {
	if r.Numeric && finiteNumber(r.Value) {
		return json.Number(r.Value)
	}
	return r.Value
}

// MarshalJSON writes numeric references as JSON numbers and the rest as
// strings. A numeric value with no finite JSON form is written as a string.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.Numeric && finiteNumber(r.Value) {
		return []byte(r.Value), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a JSON string or number.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		r.Value, r.Numeric = s, false
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("reference must be a string or number: %w", err)
	}
	r.Value, r.Numeric = n.String(), true
	return nil
}

// Catalog is the persisted document holding every entry of the last run.
type Catalog struct {
	Entries   []ContentEntry `json:"entries"`
	UpdatedAt string         `json:"updatedAt"`
}

// DiscoveredFile is a note file found by the scanner.
type DiscoveredFile struct {
	AbsolutePath string // Absolute filesystem path
	RelativePath string // Path relative to the content root, always "/"-separated
}
