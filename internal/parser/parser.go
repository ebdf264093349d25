package parser

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"

	"github.com/harrison/lorekeeper/internal/models"
)

var (
	headerRegex    = regexp.MustCompile(`^#([A-Za-z0-9]+)\s+(.*)$`)
	inlineTagRegex = regexp.MustCompile(`#([A-Za-z0-9_\-:]+)`)
	listSplitRegex = regexp.MustCompile(`[;,]`)
	paragraphBreak = regexp.MustCompile(`\n[ \t]*\n`)
)

// BinaryFileError is returned for files containing NUL bytes.
type BinaryFileError struct {
	Path string
}

func (e *BinaryFileError) Error() string {
	return fmt.Sprintf("binary file rejected: %s", e.Path)
}

// Parser turns note files into ParsedNotes.
type Parser struct {
	markdown goldmark.Markdown

	// OnProgress, when set, is called by ParseAll after each file with the
	// number of files finished so far. Calls are serialized.
	OnProgress func(done, total int)
}

// NewParser creates a Parser.
func NewParser() *Parser {
	return &Parser{
		markdown: goldmark.New(),
	}
}

var defaultParser = NewParser()

// Parse reads and parses a single note with the default Parser.
func Parse(path, rootDir string) (*ParsedNote, error) {
	return defaultParser.Parse(path, rootDir)
}

// Parse reads path and splits it into header fields and body. rootDir is
// used to compute the note's obsidianPath and folder.
func (p *Parser) Parse(path, rootDir string) (*ParsedNote, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read note: %w", err)
	}
	if bytes.IndexByte(content, 0) >= 0 {
		return nil, &BinaryFileError{Path: path}
	}

	note := p.ParseContent(content)

	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		rel = filepath.Base(path)
	}
	note.ObsidianPath = filepath.ToSlash(rel)
	if folder := filepath.ToSlash(filepath.Dir(rel)); folder != "." {
		note.Folder = folder
	}

	if note.Title == "" {
		note.Title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return note, nil
}

// ParseContent parses note text without touching the filesystem. Path-derived
// fields are left empty and Title falls back only as far as the first
// Markdown heading.
func (p *Parser) ParseContent(content []byte) *ParsedNote {
	content = bytes.TrimPrefix(content, []byte("\ufeff"))
	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	note := &ParsedNote{
		Requires:          []string{},
		RelatedCharacters: []string{},
		RelatedEvents:     []string{},
		RelatedItems:      []string{},
		RelatedFactions:   []string{},
		Meta:              map[string]any{},
	}

	var declaredTags []string
	bodyStart := len(lines)
	for i, line := range lines {
		matches := headerRegex.FindStringSubmatch(line)
		if matches == nil {
			// The header ends at the first non-header line, for good
			bodyStart = i
			break
		}
		declaredTags = applyHeader(note, matches[1], strings.TrimSpace(matches[2]), declaredTags)
	}

	note.Body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	note.Summary = firstParagraph(note.Body)
	note.Tags = mergeTags(declaredTags, inlineTags(note.Body))

	if note.Title == "" {
		note.Title = p.firstHeading([]byte(note.Body))
	}
	return note
}

// applyHeader stores one header line on note. Scalar keys keep the last value
// seen; list keys accumulate.
func applyHeader(note *ParsedNote, key, value string, tags []string) []string {
	switch strings.ToLower(key) {
	case "id":
		note.ID = value
	case "slug":
		if note.ID == "" {
			note.ID = value
		}
	case "type":
		note.Type = value
	case "title":
		note.Title = value
	case "status":
		note.Status = value
	case "category":
		note.Category = value
	case "unlockable":
		note.Unlockable = models.ParseBool(value)
	case "secretkey", "secret":
		note.SecretKey = value
	case "regionid", "region":
		note.RegionID = parseRef(value)
	case "maplocationid", "maplocation":
		note.MapLocationID = parseRef(value)
	case "requires":
		note.Requires = append(note.Requires, splitList(value)...)
	case "relatedcharacters":
		note.RelatedCharacters = append(note.RelatedCharacters, splitList(value)...)
	case "relatedevents":
		note.RelatedEvents = append(note.RelatedEvents, splitList(value)...)
	case "relateditems":
		note.RelatedItems = append(note.RelatedItems, splitList(value)...)
	case "relatedfactions":
		note.RelatedFactions = append(note.RelatedFactions, splitList(value)...)
	case "tags":
		for _, tag := range splitList(value) {
			tags = append(tags, strings.TrimPrefix(tag, "#"))
		}
	default:
		note.Meta[key] = value
	}
	return tags
}

// splitList splits on ';' and ',' and drops empty items.
func splitList(value string) []string {
	parts := listSplitRegex.Split(value, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseRef keeps a reference numeric only when formatting the parsed number
// reproduces the input exactly, so "0042" and "1e3" stay strings. NaN and
// infinities have no JSON form and stay strings too.
func parseRef(value string) *models.Ref {
	if value == "" {
		return nil
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		if strconv.FormatFloat(f, 'f', -1, 64) == value {
			return models.NumericRef(value)
		}
	}
	return models.StringRef(value)
}

func inlineTags(body string) []string {
	var tags []string
	for _, m := range inlineTagRegex.FindAllStringSubmatch(body, -1) {
		tags = append(tags, m[1])
	}
	return tags
}

// mergeTags concatenates tag lists, keeping first occurrences.
func mergeTags(lists ...[]string) []string {
	out := []string{}
	seen := map[string]bool{}
	for _, list := range lists {
		for _, tag := range list {
			if tag == "" || seen[tag] {
				continue
			}
			seen[tag] = true
			out = append(out, tag)
		}
	}
	return out
}

func firstParagraph(body string) string {
	if body == "" {
		return ""
	}
	return strings.TrimSpace(paragraphBreak.Split(body, 2)[0])
}
