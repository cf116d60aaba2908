// Package db provides run history storage for Troupe.
package db

import "github.com/gerunddev/troupe/internal/log"

// schema is the SQL schema for the Troupe run database.
const schema = `
-- Runs table
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    workstream TEXT NOT NULL,
    task TEXT NOT NULL,
    branch TEXT NOT NULL DEFAULT '',
    base_branch TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL DEFAULT 'running',
    pr_url TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME
);

-- Role runs table (one row per role per run)
CREATE TABLE IF NOT EXISTS role_runs (
    id TEXT PRIMARY KEY,
    run_id TEXT NOT NULL,
    role TEXT NOT NULL,
    stage INTEGER NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    session_id TEXT NOT NULL DEFAULT '',
    session_url TEXT NOT NULL DEFAULT '',
    prompt_bytes INTEGER NOT NULL DEFAULT 0,
    included_files TEXT NOT NULL DEFAULT '',
    skipped_files TEXT NOT NULL DEFAULT '',
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (run_id) REFERENCES runs(id)
);

-- Indexes for common queries
CREATE INDEX IF NOT EXISTS idx_runs_workstream ON runs(workstream);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_role_runs_run ON role_runs(run_id);
CREATE INDEX IF NOT EXISTS idx_role_runs_status ON role_runs(status);
`

// Migrate runs all database migrations to ensure the schema is up to date.
func (d *DB) Migrate() error {
	// Create tables if they don't exist
	if _, err := d.conn.Exec(schema); err != nil {
		return err
	}

	// Run incremental migrations for existing databases
	return d.runMigrations()
}

// runMigrations applies incremental schema changes for existing databases.
func (d *DB) runMigrations() error {
	// Migration: Add pr_url column to runs table
	if exists, err := d.columnExists("runs", "pr_url"); err != nil {
		return err
	} else if !exists {
		if _, err := d.conn.Exec(`
			ALTER TABLE runs ADD COLUMN pr_url TEXT NOT NULL DEFAULT '';
		`); err != nil {
			return err
		}
	}

	// Migration: Add session_url column to role_runs table
	if exists, err := d.columnExists("role_runs", "session_url"); err != nil {
		return err
	} else if !exists {
		if _, err := d.conn.Exec(`
			ALTER TABLE role_runs ADD COLUMN session_url TEXT NOT NULL DEFAULT '';
		`); err != nil {
			return err
		}
	}

	return nil
}

// columnExists checks if a column exists in the specified table.
func (d *DB) columnExists(table, column string) (bool, error) {
	rows, err := d.conn.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		return false, err
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn("failed to close rows", "operation", "columnExists", "error", closeErr)
		}
	}()

	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}
