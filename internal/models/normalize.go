package models

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// knownKeys are the record keys Normalize maps onto ContentEntry fields.
// Anything else in a raw record is carried in Meta.
var knownKeys = map[string]bool{
	"id":                true,
	"slug":              true,
	"type":              true,
	"title":             true,
	"status":            true,
	"category":          true,
	"unlockable":        true,
	"secretKey":         true,
	"secret":            true,
	"tags":              true,
	"summary":           true,
	"body":              true,
	"obsidianPath":      true,
	"folder":            true,
	"mapLocationId":     true,
	"regionId":          true,
	"requires":          true,
	"relatedCharacters": true,
	"relatedEvents":     true,
	"relatedItems":      true,
	"relatedFactions":   true,
	"meta":              true,
}

// Normalize coerces a loosely typed record into a ContentEntry. It never
// fails: fields of the wrong type fall back to their defaults. Normalize is
// idempotent, Normalize(Normalize(x).Raw()) equals Normalize(x).
func Normalize(raw map[string]any) ContentEntry {
	entry := ContentEntry{
		ID:                scalarString(raw["id"]),
		Type:              strings.ToLower(stringField(raw["type"])),
		Title:             stringField(raw["title"]),
		Status:            strings.ToLower(stringField(raw["status"])),
		Category:          stringField(raw["category"]),
		Unlockable:        boolField(raw["unlockable"]),
		SecretKey:         stringField(raw["secretKey"]),
		Tags:              listField(raw["tags"]),
		Summary:           stringField(raw["summary"]),
		Body:              stringField(raw["body"]),
		ObsidianPath:      stringField(raw["obsidianPath"]),
		Folder:            stringField(raw["folder"]),
		MapLocationID:     refField(raw["mapLocationId"]),
		RegionID:          refField(raw["regionId"]),
		Requires:          listField(raw["requires"]),
		RelatedCharacters: listField(raw["relatedCharacters"]),
		RelatedEvents:     listField(raw["relatedEvents"]),
		RelatedItems:      listField(raw["relatedItems"]),
		RelatedFactions:   listField(raw["relatedFactions"]),
		Meta:              map[string]any{},
	}

	if entry.ID == "" {
		entry.ID = scalarString(raw["slug"])
	}
	if entry.SecretKey == "" {
		entry.SecretKey = stringField(raw["secret"])
	}
	if !IsValidStatus(entry.Status) {
		entry.Status = DefaultStatus
	}

	if meta, ok := raw["meta"].(map[string]any); ok {
		for k, v := range meta {
			entry.Meta[k] = v
		}
	}
	for k, v := range raw {
		if knownKeys[k] {
			continue
		}
		if _, exists := entry.Meta[k]; !exists {
			entry.Meta[k] = v
		}
	}

	return entry
}

// stringField returns a trimmed string, or "" for any non-string value.
func stringField(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

// scalarString stringifies strings, numbers and booleans. Composite values
// become "".
func scalarString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func boolField(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case string:
		return ParseBool(val)
	default:
		return false
	}
}

// ParseBool accepts true, yes and 1 (case-insensitive). Everything else is false.
func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// listField accepts a list and returns its scalar elements as trimmed,
// deduplicated strings in first-seen order. Any other type yields an empty list.
func listField(v any) []string {
	out := []string{}
	var items []any
	switch val := v.(type) {
	case []any:
		items = val
	case []string:
		items = stringsToAny(val)
	default:
		return out
	}

	seen := make(map[string]bool, len(items))
	for _, item := range items {
		s := scalarString(item)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func refField(v any) *Ref {
	switch val := v.(type) {
	case nil:
		return nil
	case *Ref:
		if val == nil || val.Value == "" {
			return nil
		}
		return sanitizeRef(*val)
	case Ref:
		if val.Value == "" {
			return nil
		}
		return sanitizeRef(val)
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		return StringRef(s)
	case json.Number, float64, float32, int, int64, int32, uint64:
		s := scalarString(val)
		if s == "" {
			return nil
		}
		if !finiteNumber(s) {
			return StringRef(s)
		}
		return NumericRef(s)
	default:
		return nil
	}
}

// sanitizeRef demotes a numeric reference without a JSON number form to a
// string reference.
func sanitizeRef(r Ref) *Ref {
	if r.Numeric && !finiteNumber(r.Value) {
		return StringRef(r.Value)
	}
	return &r
}

// finiteNumber reports whether s parses as a finite float64. Values such as
// "1e400" overflow and are rejected.
func finiteNumber(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
