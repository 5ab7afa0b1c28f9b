// Package cache persists per-file measurements between runs so unchanged
// files skip re-measurement. SQLite is the store; a row is keyed by absolute
// path and validated against size and mtime.
// Implements: prd001-measurement-core R12 (incremental runs).
package cache

import (
	"database/sql"
	_ "embed"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/tally/pkg/types"
)

//go:embed schema.sql
var schemaSQL string

const dbName = "tally.db"

// Cache is safe for concurrent use by the measurement workers.
type Cache struct {
	mu sync.Mutex
	db *sql.DB
}

// Open creates dir if needed and opens (or initializes) the cache database
// inside it.
func Open(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, dbName))
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, err
	}
	return &Cache{db: db}, nil
}

// Lookup returns the cached stats for entry when size and mtime still
// match. The second return is false on miss or stale row.
func (c *Cache) Lookup(entry *types.FileEntry) (*types.FileStats, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRow(
		`SELECT size, mtime, lines, chars, words, sloc FROM files WHERE path = ?`,
		entry.Path)

	var size, mtime int64
	stats := types.FileStats{Path: entry.Path, Name: entry.Name, Ext: entry.Ext}
	err := row.Scan(&size, &mtime, &stats.Lines, &stats.Chars, &stats.Words, &stats.SLOC)
	if err != nil {
		// ErrNoRows and broken rows are both misses; the store after
		// re-measurement overwrites the latter.
		return nil, false
	}
	if size != entry.Size || mtime != entry.Mtime.UnixNano() {
		return nil, false
	}
	stats.Size = entry.Size
	stats.Mtime = entry.Mtime
	return &stats, true
}

// Store upserts one measurement. Optional counters keep their -1 sentinel
// in the row, so a later run that needs them sees the miss.
func (c *Cache) Store(stats *types.FileStats) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(
		`INSERT INTO files (path, size, mtime, lines, chars, words, sloc)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET
		     size = excluded.size, mtime = excluded.mtime,
		     lines = excluded.lines, chars = excluded.chars,
		     words = excluded.words, sloc = excluded.sloc`,
		stats.Path, stats.Size, stats.Mtime.UnixNano(),
		stats.Lines, stats.Chars, stats.Words, stats.SLOC)
	return err
}

// Clear drops every cached row.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.Exec(`DELETE FROM files`)
	return err
}

// Close releases the database handle. Idempotent.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db == nil {
		return nil
	}
	err := c.db.Close()
	c.db = nil
	return err
}
