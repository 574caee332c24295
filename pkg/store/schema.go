package store

import (
	"database/sql"
	"fmt"
)

// SchemaVersion is the current database schema version.
const SchemaVersion = 1

// CreateSchema creates the database schema if it doesn't exist.
func CreateSchema(db *sql.DB) error {
	if err := createSchemaVersionTable(db); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	for _, t := range []struct {
		name string
		ddl  string
	}{
		{"presets", presetsTable},
		{"sources", sourcesTable},
		{"matches", matchesTable},
	} {
		if _, err := db.Exec(t.ddl); err != nil {
			return fmt.Errorf("creating %s table: %w", t.name, err)
		}
	}

	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_matches_source ON matches(source)`)
	return err
}

func createSchemaVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	var version int
	err = db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		_, err = db.Exec("INSERT INTO schema_version (version) VALUES (?)", SchemaVersion)
		return err
	case err != nil:
		return err
	case version != SchemaVersion:
		return fmt.Errorf("unsupported schema version %d (want %d)", version, SchemaVersion)
	}
	return nil
}

const presetsTable = `
	CREATE TABLE IF NOT EXISTS presets (
		id TEXT PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		pattern TEXT NOT NULL,
		structural_id TEXT NOT NULL,
		description TEXT
	)
`

const sourcesTable = `
	CREATE TABLE IF NOT EXISTS sources (
		path TEXT PRIMARY KEY NOT NULL,
		size INTEGER NOT NULL
	)
`

const matchesTable = `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL REFERENCES sources(path),
		preset_id TEXT NOT NULL,
		preset_name TEXT NOT NULL,
		structural_id TEXT NOT NULL,
		text TEXT NOT NULL,
		offset_start INTEGER NOT NULL,
		offset_end INTEGER NOT NULL,
		start_line INTEGER NOT NULL,
		start_column INTEGER NOT NULL,
		end_line INTEGER NOT NULL,
		end_column INTEGER NOT NULL,
		snippet_before TEXT,
		snippet_matching TEXT,
		snippet_after TEXT,
		groups_json TEXT,
		UNIQUE(source, structural_id)
	)
`
