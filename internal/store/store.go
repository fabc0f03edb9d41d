package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// user_version stamped by Initialize; 0 means the file was never initialized.
const currentSchemaVersion = 1

const (
	// FilePrefix starts every store file name.
	FilePrefix = "AutomationTestRun"

	// DateLayout formats the date part of the file name (yyyy.MM.dd).
	DateLayout = "2006.01.02"

	fileExt = ".db"
)

// Header is the fixed column header of the data table.
var Header = []string{"description", "status", "testCaseIds", "featureFile", "executionTimeSeconds"}

// ErrNotInitialized is returned by AppendRow and ReadAll before Initialize ran.
var ErrNotInitialized = errors.New("record store is not initialized")

// PathFor returns the store file path for the suite run happening at now.
func PathFor(dir string, now time.Time) string {
	return filepath.Join(dir, FilePrefix+now.Format(DateLayout)+fileExt)
}

// Store is the Result Record Store for one suite run.
// Safe for concurrent use.
type Store struct {
	path string
	mu   sync.Mutex
}

// New returns a store rooted in dir and named after now's date.
// No file is touched until Initialize.
func New(dir string, now time.Time) *Store {
	return &Store{path: PathFor(dir, now)}
}

// Open returns a store for an existing file path, e.g. one created by an
// earlier process of the same suite run.
func Open(path string) *Store {
	return &Store{path: path}
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Initialize creates a new, empty store file with the fixed header, replacing
// any file left at the same path by an earlier run on the same date.
//
// An error here means no scenario outcome could ever be read back; callers
// treat it as fatal.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
		if err := os.Remove(s.path + suffix); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("initialize store: remove stale file: %w", err)
		}
	}

	db, err := openDB(s.path)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer db.Close()

	if err := applySchema(ctx, db); err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	return nil
}

// openDB opens the database file, creating it if missing, and applies pragmas.
func openDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}

	// One connection per operation; SQLite allows a single writer anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure %s: %w", path, err)
	}
	return db, nil
}

// openExisting opens a database that Initialize already prepared.
func openExisting(path string) (*sql.DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotInitialized, path)
		}
		return nil, err
	}

	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		db.Close()
		return nil, fmt.Errorf("get user_version: %w", err)
	}
	if version != currentSchemaVersion {
		db.Close()
		return nil, fmt.Errorf("%w: %s has schema version %d", ErrNotInitialized, path, version)
	}
	return db, nil
}

// connPragmas run on every new connection. busy_timeout comes first so the
// journal_mode switch also waits on a file another process is writing.
var connPragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = FULL",
}

// applyPragmas enables WAL so other processes can append while one holds the file.
func applyPragmas(db *sql.DB) error {
	for _, p := range connPragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

// applySchema creates the tables, records the header and stamps the schema version.
func applySchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}
	for i, name := range Header {
		if _, err := tx.ExecContext(ctx, `INSERT INTO test_data_columns (position, name) VALUES (?, ?)`, i, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}

	if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
