package store

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// ensureSchema creates all tables idempotently and records the schema version
func (db *DB) ensureSchema() error {
	version, err := db.schemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}

	return db.WithTx(func(tx *sql.Tx) error {
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS projects (
				id               INTEGER PRIMARY KEY,
				name             TEXT NOT NULL,
				path             TEXT NOT NULL,
				full_path        TEXT NOT NULL,
				web_url          TEXT NOT NULL,
				description      TEXT,
				last_activity_at TEXT,
				namespace        TEXT NOT NULL,
				updated_at       TEXT NOT NULL,
				last_seen_at     TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_projects_full_path ON projects(full_path)`,
			`CREATE TABLE IF NOT EXISTS meta (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS context_prefixes (
				prefix TEXT PRIMARY KEY
			)`,
		}

		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return fmt.Errorf("failed to create schema: %w", err)
			}
		}

		if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
			return err
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Debug("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
			"path":    db.dbPath,
		})
		return nil
	})
}

// schemaVersion returns the stored schema version, 0 for a new database
func (db *DB) schemaVersion() (int, error) {
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return version, nil
}
