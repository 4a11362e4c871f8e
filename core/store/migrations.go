package store

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"strings"

	"kestrel-eoc/core/utils"
)

// sqliteMigrations mirrors the goose postgres schema for the go test runtime,
// where stores run against modernc sqlite instead of a live cluster.
var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT UNIQUE NOT NULL,
		password_hash TEXT NOT NULL,
		first_name TEXT NOT NULL DEFAULT '',
		last_name TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT 'steward',
		active INTEGER NOT NULL DEFAULT 1,
		last_login_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		username TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT '',
		ip TEXT NOT NULL DEFAULT '',
		user_agent TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		last_seen_at TIMESTAMP NOT NULL,
		expires_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		venue TEXT NOT NULL DEFAULT '',
		event_date TIMESTAMP NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		created_by INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS position_assignments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER NOT NULL,
		user_id INTEGER NOT NULL,
		callsign TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		FOREIGN KEY(event_id) REFERENCES events(id) ON DELETE CASCADE,
		FOREIGN KEY(user_id) REFERENCES users(id) ON DELETE CASCADE
	);`,
	`CREATE TABLE IF NOT EXISTS incident_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER NOT NULL,
		log_number TEXT NOT NULL,
		occurrence TEXT NOT NULL,
		action_taken TEXT NOT NULL,
		incident_type TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT 'medium',
		location TEXT NOT NULL DEFAULT '',
		photo_url TEXT NOT NULL DEFAULT '',
		callsign_from TEXT NOT NULL DEFAULT '',
		callsign_to TEXT NOT NULL DEFAULT '',
		logged_by_callsign TEXT NOT NULL DEFAULT 'Unknown',
		time_of_occurrence TIMESTAMP NOT NULL,
		time_logged TIMESTAMP NOT NULL,
		timestamp TIMESTAMP NOT NULL,
		entry_type TEXT NOT NULL DEFAULT 'contemporaneous',
		retrospective_justification TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'open',
		is_closed INTEGER NOT NULL DEFAULT 0,
		log_type TEXT NOT NULL DEFAULT 'incident',
		category TEXT NOT NULL DEFAULT '',
		match_minute INTEGER,
		home_score INTEGER,
		away_score INTEGER,
		amends_id INTEGER,
		source TEXT NOT NULL DEFAULT 'manual',
		logged_by INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL,
		UNIQUE(event_id, log_number)
	);`,
	`CREATE TABLE IF NOT EXISTS log_seq_counters (
		event_id INTEGER PRIMARY KEY,
		seq INTEGER NOT NULL DEFAULT 0
	);`,
	`CREATE TABLE IF NOT EXISTS radio_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id INTEGER NOT NULL,
		callsign TEXT NOT NULL DEFAULT '',
		channel TEXT NOT NULL DEFAULT '',
		message TEXT NOT NULL,
		analyzed INTEGER NOT NULL DEFAULT 0,
		category TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT '',
		incident_id INTEGER,
		received_at TIMESTAMP NOT NULL,
		analyzed_at TIMESTAMP
	);`,
	`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		actor TEXT NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);`,
	`CREATE INDEX IF NOT EXISTS idx_incident_logs_event ON incident_logs(event_id, time_of_occurrence);`,
	`CREATE INDEX IF NOT EXISTS idx_incident_logs_match ON incident_logs(event_id, log_type, time_of_occurrence);`,
	`CREATE INDEX IF NOT EXISTS idx_incident_logs_logged ON incident_logs(event_id, time_logged);`,
	`CREATE INDEX IF NOT EXISTS idx_radio_messages_event ON radio_messages(event_id, received_at);`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expiry ON sessions(expires_at);`,
}

func ApplyMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	isPG, err := isPostgresDB(ctx, db)
	if err != nil {
		return err
	}
	if !isPG {
		if !isTestRuntime() {
			return fmt.Errorf("only postgres is supported outside go test runtime")
		}
		return applySQLiteTestMigrations(ctx, db, logger)
	}
	return applyGooseMigrations(ctx, db, logger)
}

func applySQLiteTestMigrations(ctx context.Context, db *sql.DB, logger *utils.Logger) error {
	if logger != nil {
		logger.Printf("applying sqlite test migrations")
	}
	for i, stmt := range sqliteMigrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("sqlite migration #%d failed: %w", i+1, err)
		}
	}
	return nil
}

func isPostgresDB(ctx context.Context, db *sql.DB) (bool, error) {
	var version string
	if err := db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&version); err == nil {
		return false, nil
	}
	if err := db.QueryRowContext(ctx, `SELECT version()`).Scan(&version); err != nil {
		return false, err
	}
	return strings.Contains(version, "PostgreSQL"), nil
}

func isTestRuntime() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}
	return strings.HasSuffix(strings.TrimSuffix(os.Args[0], ".exe"), ".test")
}
