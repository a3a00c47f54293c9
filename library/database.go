package library

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/blake2b"
)

const (
	dialectSQLite = "sqlite3"
	kvTable       = "kv"
)

// Database is a Storage backed by a single SQLite file. Every value is stored
// with a BLAKE2b digest so a damaged snapshot is reported instead of half-parsed.
type Database struct {
	db      *sql.DB
	builder goqu.DialectWrapper
}

// NewDatabase opens (or creates) the SQLite database at dbPath and applies schema migrations.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Database{db: db, builder: goqu.Dialect(dialectSQLite)}, nil
}

// Close closes the DB.
func (d *Database) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS kv (
            key TEXT PRIMARY KEY,
            value BLOB NOT NULL,
            digest TEXT NOT NULL,
            updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
		`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt, schemaVersion); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Key-value access
// ---------------------------------------------------------------------------

func digest(value []byte) string {
	sum := blake2b.Sum256(value)
	return hex.EncodeToString(sum[:])
}

// Get returns the value stored under key, ErrNotFound when there is none, or
// ErrCorruptSnapshot when the stored digest does not match.
func (d *Database) Get(key string) ([]byte, error) {
	query, args, err := d.builder.From(kvTable).
		Select("value", "digest").
		Where(goqu.C("key").Eq(key)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build get: %w", err)
	}

	var (
		value []byte
		sum   string
	)
	err = d.db.QueryRow(query, args...).Scan(&value, &sum)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if digest(value) != sum {
		return nil, fmt.Errorf("key %q: %w", key, ErrCorruptSnapshot)
	}
	return value, nil
}

// Put stores value under key, replacing any previous value.
func (d *Database) Put(key string, value []byte) error {
	record := goqu.Record{
		"key":        key,
		"value":      value,
		"digest":     digest(value),
		"updated_at": time.Now().UTC(),
	}
	query, args, err := d.builder.Insert(kvTable).
		Rows(record).
		OnConflict(goqu.DoUpdate("key", goqu.Record{
			"value":      goqu.I("excluded.value"),
			"digest":     goqu.I("excluded.digest"),
			"updated_at": goqu.I("excluded.updated_at"),
		})).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build put: %w", err)
	}
	_, err = d.db.Exec(query, args...)
	return err
}

// Delete removes key. Deleting a missing key is not an error.
func (d *Database) Delete(key string) error {
	query, args, err := d.builder.Delete(kvTable).
		Where(goqu.C("key").Eq(key)).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	_, err = d.db.Exec(query, args...)
	return err
}
