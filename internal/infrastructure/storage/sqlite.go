package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS articles (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL UNIQUE,
	title TEXT NOT NULL,
	author TEXT DEFAULT 'Unknown',
	feed_name TEXT NOT NULL,
	feed_url TEXT NOT NULL,
	published TEXT NOT NULL,
	content TEXT DEFAULT '',
	word_count INTEGER DEFAULT 0,
	category TEXT DEFAULT 'Uncategorized',
	status TEXT DEFAULT 'pending',
	summary TEXT,
	key_takeaways TEXT,
	action_items TEXT,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	updated_at TEXT DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published DESC);
CREATE INDEX IF NOT EXISTS idx_articles_status ON articles(status);
CREATE INDEX IF NOT EXISTS idx_articles_feed ON articles(feed_url);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category);

CREATE TABLE IF NOT EXISTS feed_status (
	feed_url TEXT PRIMARY KEY,
	feed_name TEXT NOT NULL,
	last_checked TEXT,
	last_success TEXT,
	last_error TEXT,
	consecutive_failures INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS cache (
	kind TEXT NOT NULL,
	key TEXT NOT NULL,
	value TEXT NOT NULL,
	created_at TEXT DEFAULT CURRENT_TIMESTAMP,
	expires_at TEXT NOT NULL,
	PRIMARY KEY (kind, key)
);
`

// Open opens (creating if needed) the embedded SQLite database holding the
// article and cache tables. WAL mode keeps concurrent readers cheap while
// every write still goes through SQLite's single-writer boundary.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=30000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return db, nil
}
