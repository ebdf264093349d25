// Package index mirrors the catalog into SQLite for lookups by tag and
// per-type counts without decoding the whole catalog file.
package index

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/lorekeeper/internal/models"
)

//go:embed schema.sql
var schemaSQL string

// Index manages the SQLite catalog mirror.
type Index struct {
	db     *sql.DB
	dbPath string
}

// Open opens (creating if needed) the index at dbPath. ":memory:" is
// accepted for tests.
func Open(dbPath string) (*Index, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if dbPath == ":memory:" {
		// Each connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	// Set busy_timeout first so subsequent operations wait on locks
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Index{db: db, dbPath: dbPath}, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}

		// Only retry on "database is locked" errors
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}

		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Path returns the database path.
func (ix *Index) Path() string {
	return ix.dbPath
}

// Close closes the database connection.
func (ix *Index) Close() error {
	if ix.db != nil {
		return ix.db.Close()
	}
	return nil
}

// Rebuild replaces the indexed entries with entries in one transaction.
// Catalog order is kept in the position column.
func (ix *Index) Rebuild(ctx context.Context, entries []models.ContentEntry, runID string) error {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{"DELETE FROM entry_tags", "DELETE FROM entries"} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("clear index: %w", err)
		}
	}

	insertEntry, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (position, id, type, title, status, folder, obsidian_path, region_id, map_location_id, data)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer insertEntry.Close()

	insertTag, err := tx.PrepareContext(ctx, `INSERT INTO entry_tags (position, tag) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare tag insert: %w", err)
	}
	defer insertTag.Close()

	for pos, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("encode entry %d: %w", pos, err)
		}
		if _, err := insertEntry.ExecContext(ctx,
			pos, entry.ID, entry.Type, entry.Title, entry.Status, entry.Folder, entry.ObsidianPath,
			nullableRef(entry.RegionID), nullableRef(entry.MapLocationID), string(data),
		); err != nil {
			return fmt.Errorf("insert entry %d: %w", pos, err)
		}
		for _, tag := range entry.Tags {
			if _, err := insertTag.ExecContext(ctx, pos, tag); err != nil {
				return fmt.Errorf("insert tag %q: %w", tag, err)
			}
		}
	}

	meta := map[string]string{
		"run_id":     runID,
		"rebuilt_at": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range meta {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO index_meta (key, value) VALUES (?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value); err != nil {
			return fmt.Errorf("update index meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}
	return nil
}

func nullableRef(r *models.Ref) sql.NullString {
	s := r.String()
	return sql.NullString{String: s, Valid: s != ""}
}

// FindByTag returns every entry carrying tag (case-insensitive), in catalog order.
func (ix *Index) FindByTag(ctx context.Context, tag string) ([]models.ContentEntry, error) {
	rows, err := ix.db.QueryContext(ctx, `
		SELECT e.data FROM entries e
		WHERE e.position IN (SELECT position FROM entry_tags WHERE tag = ?)
		ORDER BY e.position`, tag)
	if err != nil {
		return nil, fmt.Errorf("query tag: %w", err)
	}
	defer rows.Close()

	entries := []models.ContentEntry{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entry, err := decodeEntry(data)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// CountByType returns the number of entries per type. Untyped entries are
// counted under "".
func (ix *Index) CountByType(ctx context.Context) (map[string]int, error) {
	rows, err := ix.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM entries GROUP BY type`)
	if err != nil {
		return nil, fmt.Errorf("query types: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return nil, fmt.Errorf("scan type count: %w", err)
		}
		counts[typ] = n
	}
	return counts, rows.Err()
}

// LastRunID returns the run id recorded by the most recent Rebuild, or "".
func (ix *Index) LastRunID(ctx context.Context) (string, error) {
	var runID string
	err := ix.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'run_id'`).Scan(&runID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("query run id: %w", err)
	}
	return runID, nil
}

func decodeEntry(data string) (*models.ContentEntry, error) {
	var entry models.ContentEntry
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, fmt.Errorf("decode indexed entry: %w", err)
	}
	return &entry, nil
}
