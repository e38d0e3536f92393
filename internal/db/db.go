package db

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/pdxmph/tasks-tui/internal/storage"
)

// DefaultMaxValueBytes caps a single stored value
const DefaultMaxValueBytes = 5 << 20

// ErrQuotaExceeded is returned by Set when a value is over the size limit
// or the disk is full
var ErrQuotaExceeded = storage.ErrQuotaExceeded

// DB wraps the database connection. Every handle stamps its writes with its
// own writer id so that handles in other processes can tell them apart.
type DB struct {
	conn          *sql.DB
	path          string
	writer        string
	maxValueBytes int
	closed        atomic.Bool
}

// Options configures Open
type Options struct {
	// MaxValueBytes caps the size of one value; zero means
	// DefaultMaxValueBytes and a negative value disables the check
	MaxValueBytes int

	// Create initializes a missing database instead of failing
	Create bool
}

// Open opens the database at dbPath and runs pending migrations
func Open(dbPath string, opts Options) (*DB, error) {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		if !opts.Create {
			return nil, fmt.Errorf("database not found at %s\nRun 'tasks-tui --init' to create it", dbPath)
		}
		if err := Initialize(dbPath); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxValueBytes := opts.MaxValueBytes
	if maxValueBytes == 0 {
		maxValueBytes = DefaultMaxValueBytes
	}

	db := &DB{
		conn:          conn,
		path:          dbPath,
		writer:        uuid.NewString(),
		maxValueBytes: maxValueBytes,
	}

	if err := db.RunMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

// dsn waits on locks held by other processes instead of failing at once
func dsn(dbPath string) string {
	return "file:" + dbPath + "?_busy_timeout=5000&_journal_mode=WAL"
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// WriterID returns the id stamped on writes through this handle
func (db *DB) WriterID() string {
	return db.writer
}

// Get returns the value stored under key
func (db *DB) Get(key string) ([]byte, error) {
	if db.closed.Load() {
		return nil, storage.ErrUnavailable
	}

	var value []byte
	err := db.conn.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, bumping its revision
func (db *DB) Set(key string, value []byte) error {
	if db.closed.Load() {
		return storage.ErrUnavailable
	}
	if db.maxValueBytes > 0 && len(value) > db.maxValueBytes {
		return fmt.Errorf("%s is %d bytes, limit %d: %w", key, len(value), db.maxValueBytes, ErrQuotaExceeded)
	}
	if value == nil {
		value = []byte{}
	}

	query := `
		INSERT INTO kv (key, value, revision, writer, updated_at)
		VALUES (?, ?, 1, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
		    value = excluded.value,
		    revision = kv.revision + 1,
		    writer = excluded.writer,
		    updated_at = CURRENT_TIMESTAMP
	`
	if _, err := db.conn.Exec(query, key, value, db.writer); err != nil {
		if isDiskFull(err) {
			return fmt.Errorf("writing %s: %w", key, ErrQuotaExceeded)
		}
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key; deleting a missing key is not an error
func (db *DB) Delete(key string) error {
	if db.closed.Load() {
		return storage.ErrUnavailable
	}
	if _, err := db.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Revisions returns the revision and last writer of every key
func (db *DB) Revisions() ([]storage.Revision, error) {
	if db.closed.Load() {
		return nil, storage.ErrUnavailable
	}

	rows, err := db.conn.Query(`SELECT key, revision, writer FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("querying revisions: %w", err)
	}
	defer rows.Close()

	var revisions []storage.Revision
	for rows.Next() {
		var rev storage.Revision
		var key string
		if err := rows.Scan(&key, &rev.Revision, &rev.Writer); err != nil {
			return nil, fmt.Errorf("scanning revision: %w", err)
		}
		rev.Key = storage.Key(key)
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

// Entries lists every stored key with its size and revision
func (db *DB) Entries() ([]Entry, error) {
	if db.closed.Load() {
		return nil, storage.ErrUnavailable
	}

	query := `
		SELECT key, length(value), revision, writer, updated_at
		FROM kv
		ORDER BY key
	`
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Size, &e.Revision, &e.Writer, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database connection. Later calls fail with
// storage.ErrUnavailable.
func (db *DB) Close() error {
	if db.closed.Swap(true) {
		return nil
	}
	return db.conn.Close()
}

func isDiskFull(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrFull
}
