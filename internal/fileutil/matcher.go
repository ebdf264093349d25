package fileutil

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Matcher tests a single glob pattern against a "/"-separated relative path.
// Implementations must treat "**" as matching any number of directories.
type Matcher interface {
	Match(pattern, path string) bool
}

// DoublestarMatcher matches case-insensitively using doublestar semantics.
// Dotfiles are matched by "*" like any other name. Invalid patterns never match.
type DoublestarMatcher struct{}

// Match implements Matcher.
func (DoublestarMatcher) Match(pattern, path string) bool {
	ok, err := doublestar.Match(strings.ToLower(pattern), strings.ToLower(path))
	if err != nil {
		return false
	}
	return ok
}

// DefaultMatcher is used when a Scanner is built without an explicit Matcher.
var DefaultMatcher Matcher = DoublestarMatcher{}

// MatchesAny reports whether path matches at least one pattern. An empty
// pattern list matches nothing; "match everything" is spelled "**/*".
func MatchesAny(m Matcher, patterns []string, path string) bool {
	if m == nil {
		m = DefaultMatcher
	}
	for _, p := range patterns {
		if m.Match(p, path) {
			return true
		}
	}
	return false
}
