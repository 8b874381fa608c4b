// Package cache keeps a content-addressed record of rasterized bitmaps and
// a journal of build runs in a sqlite database under the build directory.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

type Cache struct {
	db *sql.DB
}

// Open creates the build directory if needed and opens cache.db inside it.
func Open(buildDir string) (*Cache, error) {
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		return nil, fmt.Errorf("create build dir: %w", err)
	}

	dbPath := filepath.Join(buildDir, "cache.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}

	c := &Cache{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS renders (
		svg_hash    TEXT NOT NULL,
		size        INTEGER NOT NULL,
		png_path    TEXT NOT NULL,
		rendered_at DATETIME NOT NULL,
		PRIMARY KEY (svg_hash, size)
	);

	CREATE TABLE IF NOT EXISTS builds (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		started_at  DATETIME NOT NULL,
		finished_at DATETIME NOT NULL,
		theme       TEXT NOT NULL,
		built       INTEGER NOT NULL DEFAULT 0,
		failed      INTEGER NOT NULL DEFAULT 0,
		aliases     INTEGER NOT NULL DEFAULT 0,
		summary     TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// HashFile returns the hex SHA-256 of a file's content.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// LookupRender reports whether a bitmap for (svg content, size) was already
// produced and is still present on disk. A recorded path whose file has
// since vanished or been truncated is a miss.
func (c *Cache) LookupRender(svgHash string, size int) (string, bool) {
	var pngPath string
	err := c.db.QueryRow(
		"SELECT png_path FROM renders WHERE svg_hash = ? AND size = ?",
		svgHash, size,
	).Scan(&pngPath)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(pngPath)
	if err != nil || info.Size() == 0 {
		return "", false
	}
	return pngPath, true
}

func (c *Cache) RecordRender(svgHash string, size int, pngPath string) error {
	_, err := c.db.Exec(
		"INSERT OR REPLACE INTO renders (svg_hash, size, png_path, rendered_at) VALUES (?, ?, ?, ?)",
		svgHash, size, pngPath, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record render: %w", err)
	}
	return nil
}

type BuildRecord struct {
	ID         int64
	StartedAt  time.Time
	FinishedAt time.Time
	Theme      string
	Built      int
	Failed     int
	Aliases    int
	Summary    string
}

func (c *Cache) RecordBuild(rec BuildRecord) error {
	_, err := c.db.Exec(
		"INSERT INTO builds (started_at, finished_at, theme, built, failed, aliases, summary) VALUES (?, ?, ?, ?, ?, ?, ?)",
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(), rec.Theme, rec.Built, rec.Failed, rec.Aliases, rec.Summary,
	)
	if err != nil {
		return fmt.Errorf("record build: %w", err)
	}
	return nil
}

// LatestBuild returns the most recent journal entry, or sql.ErrNoRows when
// nothing has been built yet.
func (c *Cache) LatestBuild() (*BuildRecord, error) {
	var rec BuildRecord
	err := c.db.QueryRow(
		`SELECT id, started_at, finished_at, theme, built, failed, aliases, summary
		 FROM builds ORDER BY id DESC LIMIT 1`,
	).Scan(&rec.ID, &rec.StartedAt, &rec.FinishedAt, &rec.Theme, &rec.Built, &rec.Failed, &rec.Aliases, &rec.Summary)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
