package parser

import (
	"encoding/json"

	"github.com/harrison/lorekeeper/internal/models"
)

// ParsedNote is the typed result of parsing one note file.
type ParsedNote struct {
	ID         string
	Type       string
	Title      string
	Status     string
	Category   string
	Unlockable bool
	SecretKey  string

	RegionID      *models.Ref
	MapLocationID *models.Ref

	Requires          []string
	RelatedCharacters []string
	RelatedEvents     []string
	RelatedItems      []string
	RelatedFactions   []string

	// Tags holds declared tags followed by inline #tags, without duplicates
	Tags []string
	// Meta holds unrecognized header keys with their original spelling
	Meta map[string]any

	Body         string
	Summary      string
	ObsidianPath string
	Folder       string
}

// Raw returns the note as a generic record suitable for models.Normalize.
func (n *ParsedNote) Raw() map[string]any {
	raw := map[string]any{
		"id":                n.ID,
		"type":              n.Type,
		"title":             n.Title,
		"status":            n.Status,
		"category":          n.Category,
		"unlockable":        n.Unlockable,
		"secretKey":         n.SecretKey,
		"tags":              n.Tags,
		"summary":           n.Summary,
		"body":              n.Body,
		"obsidianPath":      n.ObsidianPath,
		"folder":            n.Folder,
		"requires":          n.Requires,
		"relatedCharacters": n.RelatedCharacters,
		"relatedEvents":     n.RelatedEvents,
		"relatedItems":      n.RelatedItems,
		"relatedFactions":   n.RelatedFactions,
		"regionId":          refValue(n.RegionID),
		"mapLocationId":     refValue(n.MapLocationID),
	}
	meta := make(map[string]any, len(n.Meta))
	for k, v := range n.Meta {
		meta[k] = v
	}
	raw["meta"] = meta
	return raw
}

func refValue(r *models.Ref) any {
	if r == nil {
		return nil
	}
	if r.Numeric {
		return json.Number(r.Value)
	}
	return r.Value
}

// NormalizeNote converts a parsed note into its canonical entry.
func NormalizeNote(n *ParsedNote) models.ContentEntry {
	if n == nil {
		return models.Normalize(nil)
	}
	return models.Normalize(n.Raw())
}

// ParseOutcome is the per-file result of a batch parse: exactly one of Note
// and Err is set.
type ParseOutcome struct {
	File models.DiscoveredFile
	Note *ParsedNote
	Err  error
}
