// Package importer runs the end-to-end content import: resolve config, scan
// the content root, parse and normalize notes, validate cross references,
// persist the catalog with backups and refresh the SQLite index.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/lorekeeper/internal/config"
	"github.com/harrison/lorekeeper/internal/display"
	"github.com/harrison/lorekeeper/internal/fileutil"
	"github.com/harrison/lorekeeper/internal/index"
	"github.com/harrison/lorekeeper/internal/logger"
	"github.com/harrison/lorekeeper/internal/models"
	"github.com/harrison/lorekeeper/internal/parser"
	"github.com/harrison/lorekeeper/internal/store"
	"github.com/harrison/lorekeeper/internal/validation"
)

// Options configures a run. Zero values resolve from the working directory
// and discard all output.
type Options struct {
	BaseDir    string
	ConfigPath string

	// LogLevel and LogDir override the config file when non-nil
	LogLevel *string
	LogDir   *string

	// Out receives the run summary
	Out io.Writer
	// Err receives console log lines and warnings
	Err io.Writer
}

// Result describes a completed run.
type Result struct {
	RunID    string
	Config   *config.Config
	Entries  []models.ContentEntry
	Report   models.DiagnosticsReport
	Duration time.Duration
	// Warnings are the non-fatal problems met along the way
	Warnings []string
	// IndexErr is set when the catalog was saved but the index rebuild failed
	IndexErr error
	// RunLog is this run's log file, empty when no log directory is configured
	RunLog string
}

// Importer holds the collaborators of a run.
type Importer struct {
	opts     Options
	parser   *parser.Parser
	scanner  *fileutil.Scanner
	now      func() time.Time
	newRunID func() string
}

// New creates an Importer.
func New(opts Options) *Importer {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.Err == nil {
		opts.Err = io.Discard
	}
	return &Importer{
		opts:     opts,
		parser:   parser.NewParser(),
		scanner:  &fileutil.Scanner{},
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// Run executes one import with a new Importer.
func Run(ctx context.Context, opts Options) (*Result, error) {
	return New(opts).Run(ctx)
}

// Run executes the import. It fails only on fatal problems: the content root
// cannot be resolved or scanned, or the catalog cannot be persisted. Every
// per-file and data-quality problem ends up in the diagnostics report and the
// catalog is written regardless of its status.
func (im *Importer) Run(ctx context.Context) (*Result, error) {
	start := im.now()

	cfg, err := config.NewResolver(im.opts.BaseDir, im.opts.ConfigPath).Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve config: %w", err)
	}
	cfg.MergeWithFlags(im.opts.LogLevel, im.opts.LogDir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, runLog, closeLog, err := im.openLogger(cfg)
	if err != nil {
		return nil, err
	}
	defer closeLog()

	result := &Result{
		RunID:  im.newRunID(),
		Config: cfg,
		RunLog: runLog,
	}
	warn := func(msg string) {
		result.Warnings = append(result.Warnings, msg)
		log.LogWarn(msg)
	}

	log.LogRunStart(result.RunID, cfg.Importer.RootDir)
	if cfg.ConfigPath != "" {
		log.LogDebug(fmt.Sprintf("Using config %s", cfg.ConfigPath))
	}
	if len(cfg.Warnings) > 0 {
		display.WarnConfig(cfg.ConfigPath, cfg.Warnings).Display(im.opts.Err, display.ShouldColorize(im.opts.Err))
		result.Warnings = append(result.Warnings, cfg.Warnings...)
	}

	// Scan
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	scan, err := im.scanner.Scan(cfg.Importer)
	if err != nil {
		log.LogError(err.Error())
		return nil, fmt.Errorf("scan content root: %w", err)
	}
	for _, scanErr := range scan.Errors {
		warn(fmt.Sprintf("Scan: %v", scanErr))
	}
	log.LogInfo(fmt.Sprintf("Discovered %d files", len(scan.Files)))

	// Parse
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	im.parser.OnProgress = log.LogParseProgress
	outcomes, err := im.parser.ParseAll(ctx, scan.Files, scan.Root, cfg.ParseWorkers)
	if err != nil {
		return nil, err
	}

	entries := make([]models.ContentEntry, 0, len(outcomes))
	unreadable := []models.UnreadableFile{}
	for _, o := range outcomes {
		if o.Err != nil {
			log.LogDebug(fmt.Sprintf("Unreadable %s: %v", o.File.RelativePath, o.Err))
			unreadable = append(unreadable, models.UnreadableFile{
				Path:    o.File.RelativePath,
				Message: o.Err.Error(),
			})
			continue
		}
		entries = append(entries, parser.NormalizeNote(o.Note))
	}

	if cfg.AdhocEntriesPath != "" {
		adhoc, err := LoadAdhocEntries(cfg.AdhocEntriesPath)
		if err != nil {
			warn(err.Error())
		}
		if len(adhoc) > 0 {
			log.LogDebug(fmt.Sprintf("Added %d ad hoc entries from %s", len(adhoc), cfg.AdhocEntriesPath))
		}
		entries = append(entries, adhoc...)
	}

	// Validate
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	locations, err := validation.LoadReferences(cfg.LocationsPath)
	if err != nil {
		warn(err.Error())
	}
	regions, err := validation.LoadReferences(cfg.RegionsPath)
	if err != nil {
		warn(err.Error())
	}

	report := validation.Validate(entries, validation.Options{
		LocationIDs:     locations,
		RegionIDs:       regions,
		UnreadableFiles: unreadable,
	})
	report.RunID = result.RunID
	report.RootDir = cfg.Importer.RootDir
	if cfg.ConfigPath != "" {
		path := cfg.ConfigPath
		report.ConfigPath = &path
	}
	report.Timestamp = im.now().UTC()
	report.FilesDiscovered = len(scan.Files)

	// Persist
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := store.New(cfg).Save(ctx, entries, report); err != nil {
		log.LogError(err.Error())
		return nil, fmt.Errorf("persist catalog: %w", err)
	}
	log.LogInfo(fmt.Sprintf("Wrote %s", cfg.CatalogPath))

	if cfg.IndexPath != "" {
		if err := rebuildIndex(ctx, cfg.IndexPath, entries, result.RunID); err != nil {
			result.IndexErr = err
			warn(fmt.Sprintf("Index not updated: %v", err))
		}
	}

	result.Entries = entries
	result.Report = report
	result.Duration = im.now().Sub(start)

	log.LogRunComplete(report, result.Duration)
	display.NewSummary(report).Render(im.opts.Out, display.ShouldColorize(im.opts.Out))

	return result, nil
}

// openLogger builds the console logger and, when a log directory is
// configured, a file logger whose path is returned. Console output is
// dropped entirely when the caller gave no Err writer. The returned func
// closes the file logger.
func (im *Importer) openLogger(cfg *config.Config) (logger.Logger, string, func(), error) {
	var console logger.Logger = logger.NewConsoleLogger(im.opts.Err, cfg.LogLevel)
	if im.opts.Err == io.Discard {
		console = logger.NewNoOpLogger()
	}
	if cfg.LogDir == "" {
		return console, "", func() {}, nil
	}

	fileLogger, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open run log: %w", err)
	}
	return logger.NewMultiLogger(console, fileLogger), fileLogger.RunFile(), func() { fileLogger.Close() }, nil
}

func rebuildIndex(ctx context.Context, path string, entries []models.ContentEntry, runID string) error {
	ix, err := index.Open(path)
	if err != nil {
		return err
	}
	defer ix.Close()
	return ix.Rebuild(ctx, entries, runID)
}

// LoadAdhocEntries reads a JSON array of entry objects supplied outside the
// content root and normalizes each one. A missing file is reported as an
// error with no entries; non-object elements are skipped.
func LoadAdhocEntries(path string) ([]models.ContentEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("ad hoc entries %s: file not found", path)
		}
		return nil, fmt.Errorf("ad hoc entries %s: %w", path, err)
	}

	var records []any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("ad hoc entries %s: malformed: %w", path, err)
	}

	entries := make([]models.ContentEntry, 0, len(records))
	for _, record := range records {
		raw, ok := record.(map[string]any)
		if !ok {
			continue
		}
		entries = append(entries, models.Normalize(raw))
	}
	return entries, nil
}
