package postgres

import (
	"context"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS profiles (
	id           BIGINT PRIMARY KEY CHECK (id > 0),
	slug         TEXT NOT NULL UNIQUE CHECK (slug = lower(slug) AND slug <> ''),
	display_name TEXT NOT NULL DEFAULT '',
	headline     TEXT NOT NULL DEFAULT '',
	bio          TEXT NOT NULL DEFAULT '',
	avatar_url   TEXT NOT NULL DEFAULT '',
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// EnsureSchema creates the tables the store needs if they are missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres.EnsureSchema: %w", err)
	}
	return nil
}
