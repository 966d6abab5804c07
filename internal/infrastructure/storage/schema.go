package storage

import (
	"context"
	"database/sql"
	"fmt"
)

var schemaStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,
	`CREATE TABLE IF NOT EXISTS sources (
		id            UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name          TEXT NOT NULL,
		url           TEXT NOT NULL,
		rss_url       TEXT,
		parser_type   TEXT NOT NULL DEFAULT 'rss',
		selectors     JSONB,
		active        BOOLEAN NOT NULL DEFAULT TRUE,
		last_fetch_at TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS content_items (
		id             UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title          TEXT NOT NULL,
		url            TEXT NOT NULL UNIQUE,
		published_at   TIMESTAMPTZ,
		source         TEXT NOT NULL DEFAULT '',
		author         TEXT,
		description    TEXT,
		content        TEXT NOT NULL DEFAULT '',
		language       TEXT NOT NULL DEFAULT 'en',
		title_ru       TEXT,
		description_ru TEXT,
		content_ru     TEXT,
		is_translated  BOOLEAN NOT NULL DEFAULT FALSE,
		is_published   BOOLEAN NOT NULL DEFAULT FALSE,
		is_cleaned     BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS idx_content_items_untranslated
		ON content_items (created_at DESC) WHERE NOT is_translated`,
}

// EnsureSchema creates the tables and indexes when they are missing. Safe to
// run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
