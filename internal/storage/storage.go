// Package storage opens the shared SQLite database and owns its schema.
package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (or creates) the SQLite database at dbPath and runs migrations.
func Open(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err = db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err = db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err = migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS libraries (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			UNIQUE (user_id, title)
		);
		CREATE INDEX IF NOT EXISTS idx_libraries_user ON libraries(user_id);

		CREATE TABLE IF NOT EXISTS documents (
			id         TEXT PRIMARY KEY,
			library_id TEXT NOT NULL REFERENCES libraries(id) ON DELETE CASCADE,
			title      TEXT NOT NULL,
			venue      TEXT NOT NULL DEFAULT '',
			year       INTEGER,
			url        TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_documents_library ON documents(library_id);

		CREATE TABLE IF NOT EXISTS authors (
			id   TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS document_authors (
			document_id TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			author_id   TEXT NOT NULL REFERENCES authors(id),
			position    INTEGER NOT NULL,
			PRIMARY KEY (document_id, author_id)
		);

		CREATE TABLE IF NOT EXISTS jobs (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			library_id     TEXT NOT NULL,
			document_count INTEGER NOT NULL,
			status         TEXT NOT NULL DEFAULT 'PENDING',
			message        TEXT NOT NULL DEFAULT '',
			created_at     DATETIME NOT NULL,
			started_at     DATETIME,
			ended_at       DATETIME
		);
		CREATE INDEX IF NOT EXISTS idx_jobs_user    ON jobs(user_id);
		CREATE INDEX IF NOT EXISTS idx_jobs_library ON jobs(library_id);
		CREATE INDEX IF NOT EXISTS idx_jobs_status  ON jobs(status);

		CREATE TABLE IF NOT EXISTS notifications (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			type       TEXT NOT NULL,
			message    TEXT NOT NULL,
			dismissed  INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at);

		CREATE TABLE IF NOT EXISTS topics (
			id         TEXT PRIMARY KEY,
			user_id    TEXT NOT NULL,
			title      TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_topics_user ON topics(user_id);

		CREATE TABLE IF NOT EXISTS refs (
			id          TEXT PRIMARY KEY,
			topic_id    TEXT NOT NULL REFERENCES topics(id) ON DELETE CASCADE,
			document_id TEXT NOT NULL REFERENCES documents(id),
			spans       TEXT NOT NULL DEFAULT '[]',
			note        TEXT NOT NULL DEFAULT '',
			created_at  DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_refs_topic ON refs(topic_id);
	`)
	return err
}
