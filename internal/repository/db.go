package repository

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// NewDB opens a PostgreSQL connection pool and checks that the server is reachable.
func NewDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id         TEXT PRIMARY KEY,
	email      TEXT NOT NULL,
	picture    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checklists (
	id         TEXT PRIMARY KEY,
	owner_id   TEXT NOT NULL,
	title      TEXT NOT NULL,
	locked     BOOLEAN NOT NULL DEFAULT false,
	share_code TEXT UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS checklists_owner_idx ON checklists (owner_id, updated_at DESC);

CREATE TABLE IF NOT EXISTS checklist_members (
	checklist_id TEXT NOT NULL REFERENCES checklists (id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL,
	joined_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (checklist_id, user_id)
);
CREATE INDEX IF NOT EXISTS checklist_members_user_idx ON checklist_members (user_id);

CREATE TABLE IF NOT EXISTS items (
	id           TEXT PRIMARY KEY,
	checklist_id TEXT NOT NULL REFERENCES checklists (id) ON DELETE CASCADE,
	content      TEXT NOT NULL,
	checked      BOOLEAN NOT NULL DEFAULT false,
	ordering     INTEGER NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS items_checklist_idx ON items (checklist_id, ordering);
`

// Migrate creates the tables the checklist repository needs. It is safe to run repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
