// Package index persists per-page extracted text and answers conjunctive
// full-text queries over it. SQLite is the backing store: WAL mode gives
// concurrent readers a consistent snapshot while a sync pass writes, and
// per-document transactions keep every document either fully pre-sync or
// fully post-sync from a reader's point of view.
package index

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

// SchemaVersion tracks the current database schema version.
// Bump this when adding migrations.
const SchemaVersion = 1

// Store wraps the SQLite search index.
// Safe for concurrent use from multiple goroutines within one process.
type Store struct {
	db *sql.DB
}

// Document is one PDF's catalog entry. The id is derived deterministically
// from the corpus-relative path, so it stays stable across syncs while the
// file stays in place and is never reused for a different file.
type Document struct {
	ID        string
	Title     string
	FilePath  string
	MTime     int64 // unix nanos
	Size      int64
	PageCount int
	Broken    bool // extraction failed; zero pages, stays listed
	IndexedAt time.Time
}

// Page is one page's extracted text within a document.
type Page struct {
	Number int // 1-based
	Text   string
}

// Fingerprint is the change detection key for a corpus file.
type Fingerprint struct {
	MTime int64
	Size  int64
}

// DocumentHits is one grouped-query result row.
type DocumentHits struct {
	ID       string
	Title    string
	HitCount int // matching pages within the document
}

// PageHit is one detail-query result row.
type PageHit struct {
	Page     int
	HitCount int    // token occurrences on the page
	Text     string // page content, for snippet building
}

// Open creates or opens the index database at dbPath with WAL mode and a
// busy timeout.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, fmt.Errorf("index: mkdir: %w", err)
	}

	// Pragmas go through the DSN so every pooled connection gets them;
	// busy_timeout and foreign_keys are per-connection settings.
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=busy_timeout(5000)" +
		"&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("index: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("index: open %s: %w", dbPath, err)
	}

	return &Store{db: db}, nil
}

// Close checkpoints WAL and closes the database.
func (s *Store) Close() error {
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Migrate creates tables if they don't exist.
func (s *Store) Migrate() error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("index: begin migrate: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("index: create metadata: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			file_path   TEXT NOT NULL,
			mtime       INTEGER NOT NULL,
			size        INTEGER NOT NULL,
			page_count  INTEGER NOT NULL DEFAULT 0,
			broken      INTEGER NOT NULL DEFAULT 0,
			indexed_at  INTEGER NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("index: create documents: %w", err)
	}

	if _, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS pages (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			page        INTEGER NOT NULL,
			content     TEXT NOT NULL,
			folded      TEXT NOT NULL,
			PRIMARY KEY (document_id, page)
		)
	`); err != nil {
		return fmt.Errorf("index: create pages: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: commit migrate: %w", err)
	}

	current, err := s.GetMeta("schema_version")
	if err != nil {
		return fmt.Errorf("index: read schema version: %w", err)
	}
	if current != "" && current != strconv.Itoa(SchemaVersion) {
		return fmt.Errorf("index: unsupported schema version %s", current)
	}
	if err := s.SetMeta("schema_version", strconv.Itoa(SchemaVersion)); err != nil {
		return fmt.Errorf("index: set schema version: %w", err)
	}
	return nil
}

// SetMeta sets a key-value pair in the metadata table.
func (s *Store) SetMeta(key, value string) error {
	_, err := s.db.Exec(
		"INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta gets a value from the metadata table. Returns "" if not found.
func (s *Store) GetMeta(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
