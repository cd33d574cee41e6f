package storage

import (
	"database/sql"
	"fmt"
)

// Schema version tracking
const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		// Create schema_version table first
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}

		if err := createAnalysesTable(tx); err != nil {
			return err
		}

		// Set initial schema version
		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		db.logger.Debug("Database schema is up to date", map[string]interface{}{
			"version": version,
		})
		return nil
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migration functions go here as the schema evolves

	return nil
}

// getSchemaVersion gets the current schema version
func (db *DB) getSchemaVersion() (int, error) {
	// Check if schema_version table exists
	var tableName string
	err := db.QueryRow(`
		SELECT name FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&tableName)

	if err == sql.ErrNoRows {
		// Table doesn't exist, this is a new database
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

// setSchemaVersion sets the schema version
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("DELETE FROM schema_version")
	if err != nil {
		return err
	}
	_, err = tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

// createSchemaVersionTable creates the schema_version tracking table
func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

// createAnalysesTable creates the analyses history table.
// The full source text is kept zstd-compressed; the blueprint is stored as
// the JSON the analyzer produced so reads never re-run the scan.
func createAnalysesTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS analyses (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			file_name TEXT NOT NULL,
			source_lines INTEGER NOT NULL,
			token_count INTEGER NOT NULL,
			error_count INTEGER NOT NULL,
			score INTEGER NOT NULL,
			priority TEXT NOT NULL CHECK(priority IN ('High', 'Medium', 'Low')),
			blueprint_json TEXT NOT NULL,
			source_zstd BLOB NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create analyses table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at)",
		"CREATE INDEX IF NOT EXISTS idx_analyses_priority ON analyses(priority)",
		"CREATE INDEX IF NOT EXISTS idx_analyses_file_name ON analyses(file_name)",
	}

	for _, indexSQL := range indexes {
		if _, err := tx.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
