// Package persistence stores save blobs in SQLite.
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite connection for save storage.
type DB struct {
	conn *sqlx.DB
}

// SaveRecord is one stored save. Data is the compressed blob.
type SaveRecord struct {
	ID      string `db:"id"`
	Slot    string `db:"slot"`
	Version int    `db:"version"`
	SavedAt int64  `db:"saved_at"` // unix millis
	Data    []byte `db:"data"`
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		slot TEXT NOT NULL,
		version INTEGER NOT NULL,
		saved_at INTEGER NOT NULL,
		data BLOB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_slot ON saves(slot, saved_at);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// PutSave inserts a save record.
func (db *DB) PutSave(ctx context.Context, rec SaveRecord) error {
	_, err := db.conn.NamedExecContext(ctx,
		`INSERT INTO saves (id, slot, version, saved_at, data)
		 VALUES (:id, :slot, :version, :saved_at, :data)`, rec)
	if err != nil {
		return fmt.Errorf("insert save %s: %w", rec.ID, err)
	}
	return nil
}

// LatestSave returns the newest save in slot. ok is false when the slot is empty.
func (db *DB) LatestSave(ctx context.Context, slot string) (rec SaveRecord, ok bool, err error) {
	err = db.conn.GetContext(ctx, &rec,
		`SELECT id, slot, version, saved_at, data FROM saves
		 WHERE slot = ? ORDER BY saved_at DESC, rowid DESC LIMIT 1`, slot)
	if errors.Is(err, sql.ErrNoRows) {
		return SaveRecord{}, false, nil
	}
	if err != nil {
		return SaveRecord{}, false, fmt.Errorf("latest save: %w", err)
	}
	return rec, true, nil
}

// ListSaves returns the saves in slot, newest first, without their data.
func (db *DB) ListSaves(ctx context.Context, slot string) ([]SaveRecord, error) {
	var recs []SaveRecord
	err := db.conn.SelectContext(ctx, &recs,
		`SELECT id, slot, version, saved_at FROM saves
		 WHERE slot = ? ORDER BY saved_at DESC, rowid DESC`, slot)
	return recs, err
}

// PruneSaves deletes all but the newest keep saves in slot.
func (db *DB) PruneSaves(ctx context.Context, slot string, keep int) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM saves WHERE slot = ? AND id NOT IN (
			SELECT id FROM saves WHERE slot = ? ORDER BY saved_at DESC, rowid DESC LIMIT ?
		)`, slot, slot, keep)
	if err != nil {
		return 0, fmt.Errorf("prune saves: %w", err)
	}
	return res.RowsAffected()
}

// HasSave reports whether slot holds any save.
func (db *DB) HasSave(ctx context.Context, slot string) bool {
	var count int
	if err := db.conn.GetContext(ctx, &count, "SELECT COUNT(*) FROM saves WHERE slot = ?", slot); err != nil {
		return false
	}
	return count > 0
}

// SaveMeta stores a key-value pair in world metadata.
func (db *DB) SaveMeta(ctx context.Context, key, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES (?, ?)",
		key, value,
	)
	return err
}

// GetMeta retrieves a metadata value. Missing keys return sql.ErrNoRows.
func (db *DB) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := db.conn.GetContext(ctx, &value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
