package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/harrison/lorekeeper/internal/config"
	"github.com/harrison/lorekeeper/internal/models"
)

// ToolMetadataDir is the vault editor's settings directory, never imported.
const ToolMetadataDir = ".obsidian"

// ScanResult contains the results of a content scan
type ScanResult struct {
	// Root is the walked directory with symlinks resolved
	Root string
	// Files holds matched notes in discovery order (depth-first, lexical)
	Files []models.DiscoveredFile
	// Errors contains non-fatal errors encountered during scanning
	Errors []error
}

// ScanError reports a content root that cannot be walked at all.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error {
	return e.Err
}

// Scanner walks a content root and selects importable notes.
type Scanner struct {
	// Matcher evaluates include/exclude globs; nil uses DefaultMatcher
	Matcher Matcher
}

// Scan walks cfg.RootDir with the default matcher.
func Scan(cfg config.ImporterConfig) (*ScanResult, error) {
	return (&Scanner{}).Scan(cfg)
}

// Scan walks cfg.RootDir depth-first in lexical order. Hidden entries and the
// tool metadata directory are skipped; directories are pruned when they match
// an exclude pattern. A file is selected when its extension is allowed, its
// name is not in ExcludeFiles, it matches no exclude pattern and matches at
// least one include pattern. Patterns see root-relative "/" paths.
//
// A symlinked root is resolved before walking, and discovered paths are
// reported under the resolved directory.
func (s *Scanner) Scan(cfg config.ImporterConfig) (*ScanResult, error) {
	info, err := os.Stat(cfg.RootDir)
	if err != nil {
		return nil, &ScanError{Root: cfg.RootDir, Err: err}
	}
	root, err := filepath.EvalSymlinks(cfg.RootDir)
	if err != nil {
		return nil, &ScanError{Root: cfg.RootDir, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: root, Err: fmt.Errorf("not a directory")}
	}

	m := s.Matcher
	if m == nil {
		m = DefaultMatcher
	}

	result := &ScanResult{
		Root:   root,
		Files:  make([]models.DiscoveredFile, 0),
		Errors: make([]error, 0),
	}

	// Create extension map for fast lookup
	extMap := make(map[string]bool, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		extMap[strings.ToLower(ext)] = true
	}

	excludeNames := make(map[string]bool, len(cfg.ExcludeFiles))
	for _, name := range cfg.ExcludeFiles {
		excludeNames[strings.ToLower(name)] = true
	}

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			result.Errors = append(result.Errors, fmt.Errorf("error accessing %s: %w", path, err))
			return nil // Continue walking
		}

		// Skip the root directory itself
		if path == root {
			return nil
		}

		name := d.Name()
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to relativize %s: %w", path, relErr))
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if strings.HasPrefix(name, ".") || name == ToolMetadataDir {
				return filepath.SkipDir
			}
			if !cfg.Recursive {
				return filepath.SkipDir
			}
			if dirExcluded(m, cfg.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(name, ".") {
			return nil
		}

		if len(extMap) > 0 && !extMap[strings.ToLower(filepath.Ext(name))] {
			return nil
		}
		if excludeNames[strings.ToLower(name)] {
			return nil
		}
		if MatchesAny(m, cfg.Exclude, rel) {
			return nil
		}
		if !MatchesAny(m, cfg.Include, rel) {
			return nil
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Errorf("failed to resolve path %s: %w", path, err))
			return nil
		}

		result.Files = append(result.Files, models.DiscoveredFile{
			AbsolutePath: absPath,
			RelativePath: rel,
		})
		return nil
	})

	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	return result, nil
}

// dirExcluded reports whether a directory is covered by an exclude pattern.
// "drafts/**" names the drafts directory as well as its contents.
func dirExcluded(m Matcher, exclude []string, rel string) bool {
	return MatchesAny(m, exclude, rel) || MatchesAny(m, exclude, rel+"/")
}
