package storage

import (
	"database/sql"
	"fmt"
)

// InitDB initializes the database schema.
// PRE: db is a valid database connection
// POST: All tables are created, WAL mode enabled
func InitDB(db *sql.DB) error {
	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	// Enable foreign key enforcement
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Create tables
	schema := `
	CREATE TABLE IF NOT EXISTS identity (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'active',
		claims TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL,
		failed_logins INTEGER NOT NULL DEFAULT 0,
		locked_until TEXT
	);

	CREATE TABLE IF NOT EXISTS profile (
		user_id TEXT PRIMARY KEY,
		email TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'athlete',
		team_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS membership (
		club_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		role TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		joined_at TEXT NOT NULL,
		updated_at TEXT,
		PRIMARY KEY (club_id, user_id)
	);

	CREATE TABLE IF NOT EXISTS invite (
		id TEXT NOT NULL,
		club_id TEXT NOT NULL,
		email TEXT NOT NULL COLLATE NOCASE,
		role TEXT NOT NULL DEFAULT 'athlete',
		status TEXT NOT NULL DEFAULT 'pending',
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL,
		created_by TEXT,
		used_at TEXT,
		PRIMARY KEY (club_id, id)
	);
	CREATE INDEX IF NOT EXISTS idx_invite_email_status ON invite(email, status);

	CREATE TABLE IF NOT EXISTS category (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		name TEXT NOT NULL,
		unit TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS performance_record (
		id TEXT PRIMARY KEY,
		athlete_id TEXT NOT NULL,
		club_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		value REAL NOT NULL,
		date TEXT NOT NULL,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_record_athlete_category ON performance_record(athlete_id, category_id, is_active);

	CREATE TABLE IF NOT EXISTS goal (
		id TEXT PRIMARY KEY,
		athlete_id TEXT NOT NULL,
		club_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		target_value REAL NOT NULL,
		target_date TEXT,
		status TEXT NOT NULL DEFAULT 'in_progress',
		achieved_value REAL,
		achieved_date TEXT,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_goal_athlete_category ON goal(athlete_id, club_id, category_id, status);

	CREATE TABLE IF NOT EXISTS club_message (
		id TEXT PRIMARY KEY,
		club_id TEXT NOT NULL,
		author_id TEXT NOT NULL,
		subject TEXT,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT
	);

	CREATE TABLE IF NOT EXISTS outbox (
		id TEXT PRIMARY KEY,
		action_type TEXT NOT NULL,
		payload TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 5,
		last_attempted_at TEXT,
		created_at TEXT NOT NULL,
		error_message TEXT
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}
