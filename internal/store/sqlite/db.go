package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens a SQLite database with the given DSN.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY under concurrent
	// appends to different conversations.
	db.SetMaxOpenConns(1)
	return db, nil
}

// Migrate creates the schema. Idempotent.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			participant_id VARCHAR(100) NOT NULL,
			seq INTEGER NOT NULL,
			author VARCHAR(20) NOT NULL,
			body TEXT NOT NULL DEFAULT '',
			attachment_name TEXT DEFAULT NULL,
			attachment_size INTEGER DEFAULT NULL,
			attachment_ref TEXT DEFAULT NULL,
			created_at DATETIME NOT NULL,
			read_by_admin BOOLEAN NOT NULL DEFAULT 0,
			read_by_participant BOOLEAN NOT NULL DEFAULT 0,
			PRIMARY KEY (participant_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_participant_author ON messages(participant_id, author);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_created_at ON messages(created_at DESC);`,
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return nil
}
