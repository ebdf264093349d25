package config

import (
	"math"
	"strings"
)

// NormalizePatterns turns a raw include/exclude value into a pattern list.
// Non-list values and lists with no usable entries fall back to def. A bare
// "*" is widened to "**/*" so it matches at any depth.
func NormalizePatterns(v any, def []string) []string {
	list, ok := stringList(v)
	if !ok || len(list) == 0 {
		return def
	}
	out := make([]string, 0, len(list))
	for _, p := range list {
		if p == "*" {
			p = "**/*"
		}
		out = append(out, p)
	}
	return out
}

// NormalizeExtensions lowercases extensions and ensures a leading dot.
// Anything unusable yields the default extension list.
func NormalizeExtensions(v any) []string {
	list, ok := stringList(v)
	if !ok {
		return DefaultExtensions()
	}
	out := make([]string, 0, len(list))
	seen := make(map[string]bool, len(list))
	for _, ext := range list {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext == "." || seen[ext] {
			continue
		}
		seen[ext] = true
		out = append(out, ext)
	}
	if len(out) == 0 {
		return DefaultExtensions()
	}
	return out
}

// stringList accepts a YAML/TOML/JSON sequence of scalars and returns its
// trimmed non-empty strings. The bool is false when v is not a list.
func stringList(v any) ([]string, bool) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []string:
		items = make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
	default:
		return nil, false
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := stringValue(item)
		if !ok || s == "" {
			continue
		}
		out = append(out, s)
	}
	return out, true
}

func stringValue(v any) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

// intValue accepts the integer shapes produced by yaml.v3 (int) and
// go-toml (int64), plus whole floats.
func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	}
	return 0, false
}
