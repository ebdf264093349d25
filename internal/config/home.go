package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnvVar overrides the working directory as the resolution base.
const HomeEnvVar = "LOREKEEPER_HOME"

// DefaultBaseDir returns the directory relative paths are resolved from.
// Priority order:
//  1. LOREKEEPER_HOME environment variable (if set)
//  2. Current working directory
func DefaultBaseDir() (string, error) {
	if home := os.Getenv(HomeEnvVar); home != "" {
		return home, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get working directory: %w", err)
	}
	return cwd, nil
}

// candidates returns the directories relative paths are tried against:
// the base dir, its parent, its grandparent, then the config file's dir.
func (c *Config) candidates() []string {
	dirs := ancestorCandidates(c.BaseDir)
	if c.ConfigPath != "" {
		dirs = appendUnique(dirs, filepath.Dir(c.ConfigPath))
	}
	return dirs
}

// ancestorCandidates returns base and its first two ancestors.
func ancestorCandidates(base string) []string {
	var dirs []string
	current := base
	for i := 0; i < 3; i++ {
		dirs = appendUnique(dirs, current)
		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root
			break
		}
		current = parent
	}
	return dirs
}

// firstExistingDir resolves folder against candidates and returns the first
// existing directory together with every path tried.
func firstExistingDir(folder string, candidates []string) (string, []string, bool) {
	var tried []string
	if filepath.IsAbs(folder) {
		tried = append(tried, folder)
		if isDir(folder) {
			return filepath.Clean(folder), tried, true
		}
		return "", tried, false
	}
	for _, dir := range candidates {
		p := filepath.Join(dir, folder)
		tried = append(tried, p)
		if isDir(p) {
			return p, tried, true
		}
	}
	return "", tried, false
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

func absUnder(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
