package audit

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// PostgresStore persists audit entries to Postgres for multi-instance
// deployments sharing one audit log across several acsd processes.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens dsn and ensures the audit table exists.
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres audit store requires a non-empty DSN")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres audit db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres audit db: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_entries (
			id SERIAL PRIMARY KEY,
			recorded_at TIMESTAMP NOT NULL,
			conn_id TEXT,
			remote_addr TEXT,
			account_uid TEXT,
			code TEXT,
			name TEXT,
			ok BOOLEAN,
			detail TEXT
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create audit_entries table: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_entries (recorded_at, conn_id, remote_addr, account_uid, code, name, ok, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.Time, e.ConnID, e.RemoteAddr, e.AccountUID, e.Code, e.Name, e.OK, e.Detail)
	return err
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recorded_at, conn_id, remote_addr, account_uid, code, name, ok, detail
		FROM audit_entries ORDER BY id DESC LIMIT $1
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

func (s *PostgresStore) Close() error { return s.db.Close() }
