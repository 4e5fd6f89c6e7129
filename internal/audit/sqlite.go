package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists audit entries to a local SQLite file via the
// pure-Go modernc.org/sqlite driver, so the server has no cgo
// dependency when an operator wants durability without Postgres.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if absent) the audit table at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite audit store requires a non-empty database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite audit db at %s: %w", path, err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			recorded_at DATETIME NOT NULL,
			conn_id TEXT,
			remote_addr TEXT,
			account_uid TEXT,
			code TEXT,
			name TEXT,
			ok INTEGER,
			detail TEXT
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit_entries table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (recorded_at, conn_id, remote_addr, account_uid, code, name, ok, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.Time, e.ConnID, e.RemoteAddr, e.AccountUID, e.Code, e.Name, e.OK, e.Detail)
	return err
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recorded_at, conn_id, remote_addr, account_uid, code, name, ok, detail
		FROM audit_entries ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Time, &e.ConnID, &e.RemoteAddr, &e.AccountUID, &e.Code, &e.Name, &e.OK, &e.Detail); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
