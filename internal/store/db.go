package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// DB wraps sql.DB for Postgres using pgx.
type DB struct {
	Client *sql.DB
}

// NewDB creates a Postgres connection with sane defaults.
func NewDB(connString string) (*DB, error) {
	db, err := sql.Open("pgx", connString)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)
	return &DB{Client: db}, db.PingContext(context.Background())
}

// Migrate applies the embedded schema. Safe to run on every startup.
func (d *DB) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS students (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		usn           TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		pdf_filename  TEXT,
		pdf_path      TEXT,
		status        TEXT NOT NULL DEFAULT 'Pending'
		              CHECK (status IN ('Pending','Completed','Hold')),
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT students_usn_key   UNIQUE (usn),
		CONSTRAINT students_email_key UNIQUE (email)
	);

	CREATE TABLE IF NOT EXISTS uploads (
		id          TEXT PRIMARY KEY,
		student_id  TEXT NOT NULL REFERENCES students(id),
		filename    TEXT NOT NULL,
		path        TEXT NOT NULL,
		size_bytes  BIGINT NOT NULL,
		scan_status TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_uploads_student ON uploads(student_id);
	`
	_, err := d.Client.ExecContext(ctx, schema)
	return err
}

// Close closes the underlying connection.
func (d *DB) Close() error {
	if d == nil || d.Client == nil {
		return nil
	}
	return d.Client.Close()
}
