package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Hard-coded defaults applied beneath any config file.
const (
	DefaultRootFolder   = "content"
	DefaultDataDir      = "data"
	DefaultBackupLimit  = 5
	DefaultLogLevel     = "info"
	DefaultParseWorkers = 4

	CatalogFileName     = "content.json"
	DiagnosticsFileName = "content-diagnostics.json"
	BackupDirName       = "backups"
	LocationsFileName   = "locations.json"
	RegionsFileName     = "regions.json"
	IndexFileName       = "content.db"
)

// DefaultConfigNames are searched, in order, when no config path is given.
var DefaultConfigNames = []string{
	"lorekeeper.config.json",
	"lorekeeper.config.yaml",
	"lorekeeper.config.yml",
	"lorekeeper.config.toml",
}

// DefaultInclude matches every file under the root.
func DefaultInclude() []string { return []string{"**/*"} }

// DefaultExclude excludes nothing.
func DefaultExclude() []string { return []string{} }

// DefaultExcludeFiles lists file names never imported.
func DefaultExcludeFiles() []string { return []string{"README.md"} }

// DefaultExtensions lists the note extensions imported by default.
func DefaultExtensions() []string { return []string{".md"} }

// ImporterConfig controls which files the scanner hands to the parser.
type ImporterConfig struct {
	// RootFolder is the content root as configured (possibly relative)
	RootFolder string
	// RootDir is the resolved absolute content root; it existed at resolution time
	RootDir string
	// Include and Exclude are glob patterns over root-relative "/" paths
	Include []string
	Exclude []string
	// ExcludeFiles are file names skipped regardless of location (case-insensitive)
	ExcludeFiles []string
	// Extensions are lowercase, dot-prefixed; empty means any extension
	Extensions []string
	// Recursive enables descending into subdirectories
	Recursive bool
}

// Config is the fully resolved importer configuration.
type Config struct {
	Importer ImporterConfig

	// ConfigPath is the config file that was read, empty when defaults were used
	ConfigPath string
	// BaseDir anchors every relative path (normally the working directory)
	BaseDir string

	DataDir          string
	CatalogPath      string
	DiagnosticsPath  string
	BackupDir        string
	BackupLimit      int
	LocationsPath    string
	RegionsPath      string
	AdhocEntriesPath string
	// IndexPath is the SQLite catalog mirror; empty disables it
	IndexPath string

	LogLevel     string
	LogDir       string
	ParseWorkers int

	// Warnings collects non-fatal problems met while resolving
	Warnings []string
}

// ConfigError reports that no usable content root could be found.
type ConfigError struct {
	RootFolder string   // Configured root folder
	Tried      []string // Candidate directories checked, in order
	Err        error    // Underlying error (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("content root %q not found (tried %s)", e.RootFolder, strings.Join(e.Tried, ", "))
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Resolver loads the optional config file and resolves paths against an
// ordered list of ancestor candidates, so the importer works when launched
// from a subdirectory of the project.
type Resolver struct {
	BaseDir    string // Directory to resolve from; defaults to the working directory
	ConfigPath string // Explicit config file; empty searches DefaultConfigNames
}

// NewResolver creates a Resolver.
func NewResolver(baseDir, configPath string) *Resolver {
	return &Resolver{BaseDir: baseDir, ConfigPath: configPath}
}

// Resolve builds the Config. It fails with *ConfigError only when neither the
// configured root nor the default root exists under any candidate.
func (r *Resolver) Resolve() (*Config, error) {
	base := r.BaseDir
	if base == "" {
		home, err := DefaultBaseDir()
		if err != nil {
			return nil, err
		}
		base = home
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve base directory: %w", err)
	}

	cfg := &Config{
		BaseDir:      base,
		BackupLimit:  DefaultBackupLimit,
		LogLevel:     DefaultLogLevel,
		ParseWorkers: DefaultParseWorkers,
		Importer: ImporterConfig{
			RootFolder:   DefaultRootFolder,
			Include:      DefaultInclude(),
			Exclude:      DefaultExclude(),
			ExcludeFiles: DefaultExcludeFiles(),
			Extensions:   DefaultExtensions(),
			Recursive:    true,
		},
	}

	raw := r.loadFile(cfg)
	settings := applyRaw(cfg, raw)

	candidates := cfg.candidates()

	rootDir, tried, ok := firstExistingDir(cfg.Importer.RootFolder, candidates)
	if !ok && cfg.Importer.RootFolder != DefaultRootFolder {
		cfg.Warnings = append(cfg.Warnings,
			fmt.Sprintf("root folder %q not found, falling back to %q", cfg.Importer.RootFolder, DefaultRootFolder))
		var more []string
		rootDir, more, ok = firstExistingDir(DefaultRootFolder, candidates)
		tried = append(tried, more...)
	}
	if !ok {
		return nil, &ConfigError{RootFolder: cfg.Importer.RootFolder, Tried: tried}
	}
	cfg.Importer.RootDir = rootDir

	dataDir, _, found := firstExistingDir(settings.dataDir, candidates)
	if !found {
		dataDir = absUnder(base, settings.dataDir)
	}
	cfg.setDataDir(dataDir, settings)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile reads the config file into a generic map. Missing, unreadable and
// malformed files are all treated as empty and noted in cfg.Warnings.
func (r *Resolver) loadFile(cfg *Config) map[string]any {
	path := r.ConfigPath
	if path == "" {
		path = findConfigFile(cfg.BaseDir)
		if path == "" {
			return nil
		}
	} else {
		path = absUnder(cfg.BaseDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("config file %s unreadable, using defaults: %v", path, err))
		return nil
	}

	raw, err := decode(path, data)
	if err != nil {
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("config file %s malformed, using defaults: %v", path, err))
		return nil
	}

	cfg.ConfigPath = path
	return raw
}

// decode picks a decoder by extension. Unknown extensions are read as YAML.
func decode(path string, data []byte) (map[string]any, error) {
	raw := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	return raw, nil
}

func findConfigFile(base string) string {
	for _, dir := range ancestorCandidates(base) {
		for _, name := range DefaultConfigNames {
			p := filepath.Join(dir, name)
			if info, err := os.Stat(p); err == nil && !info.IsDir() {
				return p
			}
		}
	}
	return ""
}

// pathSettings holds raw path-valued keys until the data dir is known.
type pathSettings struct {
	dataDir      string
	indexPath    string
	indexSet     bool
	adhocEntries string
}

// applyRaw merges recognized keys over the defaults already in cfg. Keys with
// the wrong type are ignored so a single bad key cannot discard the file.
func applyRaw(cfg *Config, raw map[string]any) pathSettings {
	settings := pathSettings{dataDir: DefaultDataDir}
	if raw == nil {
		return settings
	}

	if s, ok := stringValue(raw["rootFolder"]); ok && s != "" {
		cfg.Importer.RootFolder = s
	}
	if v, exists := raw["include"]; exists {
		cfg.Importer.Include = NormalizePatterns(v, DefaultInclude())
	}
	if v, exists := raw["exclude"]; exists {
		cfg.Importer.Exclude = NormalizePatterns(v, DefaultExclude())
	}
	if v, exists := raw["excludeFiles"]; exists {
		if list, ok := stringList(v); ok {
			cfg.Importer.ExcludeFiles = list
		}
	}
	if v, exists := raw["extensions"]; exists {
		cfg.Importer.Extensions = NormalizeExtensions(v)
	}
	if b, ok := raw["recursive"].(bool); ok {
		cfg.Importer.Recursive = b
	}

	if s, ok := stringValue(raw["dataDir"]); ok && s != "" {
		settings.dataDir = s
	}
	if s, ok := stringValue(raw["indexPath"]); ok {
		settings.indexPath, settings.indexSet = s, true
	}
	if s, ok := stringValue(raw["adhocEntries"]); ok {
		settings.adhocEntries = s
	}
	// Out-of-range values keep the default, like a malformed file does.
	if n, ok := intValue(raw["backupLimit"]); ok {
		if n >= 1 {
			cfg.BackupLimit = n
		} else {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("backupLimit must be at least 1, got %d; using %d", n, DefaultBackupLimit))
		}
	}
	if n, ok := intValue(raw["parseWorkers"]); ok {
		if n >= 1 {
			cfg.ParseWorkers = n
		} else {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("parseWorkers must be at least 1, got %d; using %d", n, DefaultParseWorkers))
		}
	}
	if s, ok := stringValue(raw["logLevel"]); ok && s != "" {
		if level := strings.ToLower(s); ValidLogLevel(level) {
			cfg.LogLevel = level
		} else {
			cfg.Warnings = append(cfg.Warnings,
				fmt.Sprintf("invalid logLevel %q; using %q", s, DefaultLogLevel))
		}
	}
	if s, ok := stringValue(raw["logDir"]); ok {
		cfg.LogDir = s
	}
	return settings
}

func (c *Config) setDataDir(dataDir string, settings pathSettings) {
	c.DataDir = dataDir
	c.CatalogPath = filepath.Join(dataDir, CatalogFileName)
	c.DiagnosticsPath = filepath.Join(dataDir, DiagnosticsFileName)
	c.BackupDir = filepath.Join(dataDir, BackupDirName)
	c.LocationsPath = filepath.Join(dataDir, LocationsFileName)
	c.RegionsPath = filepath.Join(dataDir, RegionsFileName)

	switch {
	case !settings.indexSet:
		c.IndexPath = filepath.Join(dataDir, IndexFileName)
	case settings.indexPath != "":
		c.IndexPath = absUnder(dataDir, settings.indexPath)
	default:
		c.IndexPath = ""
	}
	if settings.adhocEntries != "" {
		c.AdhocEntriesPath = absUnder(dataDir, settings.adhocEntries)
	}
	if c.LogDir != "" {
		c.LogDir = absUnder(c.BaseDir, c.LogDir)
	}
}

// MergeWithFlags applies CLI overrides. Nil pointers leave the value alone.
func (c *Config) MergeWithFlags(logLevel *string, logDir *string) {
	if logLevel != nil && *logLevel != "" {
		c.LogLevel = strings.ToLower(*logLevel)
	}
	if logDir != nil {
		c.LogDir = ""
		if *logDir != "" {
			c.LogDir = absUnder(c.BaseDir, *logDir)
		}
	}
}

// Validate checks the configuration for values the importer cannot use. File
// values are already sanitized by Resolve, so in practice this rejects bad
// command-line overrides.
func (c *Config) Validate() error {
	if c.BackupLimit < 1 {
		return fmt.Errorf("backupLimit must be at least 1, got %d", c.BackupLimit)
	}
	if c.ParseWorkers < 1 {
		return fmt.Errorf("parseWorkers must be at least 1, got %d", c.ParseWorkers)
	}
	if !ValidLogLevel(c.LogLevel) {
		return fmt.Errorf("invalid logLevel %q (want trace, debug, info, warn or error)", c.LogLevel)
	}
	return nil
}

// ValidLogLevel reports whether level is one the loggers understand.
func ValidLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}
