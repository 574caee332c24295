package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/praetorian-inc/patternkit/pkg/types"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens or creates the SQLite database at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// One writer at a time; SQLite serializes them anyway.
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) AddPreset(p *types.Preset) error {
	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO presets (id, name, pattern, structural_id, description)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Pattern, p.StructuralID, p.Description)
	if err != nil {
		return fmt.Errorf("inserting preset: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddSource(source string, size int) error {
	_, err := s.db.Exec(`
		INSERT INTO sources (path, size) VALUES (?, ?)
		ON CONFLICT(path) DO UPDATE SET size = excluded.size
	`, source, size)
	if err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddMatch(source string, m *types.Match) error {
	groupsJSON, err := json.Marshal(m.Groups)
	if err != nil {
		return fmt.Errorf("marshaling groups: %w", err)
	}

	if _, err := s.db.Exec("INSERT OR IGNORE INTO sources (path, size) VALUES (?, 0)", source); err != nil {
		return fmt.Errorf("inserting source: %w", err)
	}

	loc := m.Location
	_, err = s.db.Exec(`
		INSERT OR IGNORE INTO matches (
			source, preset_id, preset_name, structural_id, text,
			offset_start, offset_end, start_line, start_column, end_line, end_column,
			snippet_before, snippet_matching, snippet_after, groups_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		source, m.PresetID, m.PresetName, m.StructuralID, m.Text,
		loc.Offset.Start, loc.Offset.End,
		loc.Source.Start.Line, loc.Source.Start.Column,
		loc.Source.End.Line, loc.Source.End.Column,
		m.Snippet.Before, m.Snippet.Matching, m.Snippet.After,
		string(groupsJSON),
	)
	if err != nil {
		return fmt.Errorf("inserting match: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetPresets() ([]*types.Preset, error) {
	rows, err := s.db.Query(`SELECT id, name, pattern, structural_id, description FROM presets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying presets: %w", err)
	}
	defer rows.Close()

	var presets []*types.Preset
	for rows.Next() {
		var p types.Preset
		var description sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &p.Pattern, &p.StructuralID, &description); err != nil {
			return nil, fmt.Errorf("scanning preset: %w", err)
		}
		p.Description = description.String
		presets = append(presets, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating presets: %w", err)
	}
	return presets, nil
}

func (s *SQLiteStore) GetSources() ([]string, error) {
	rows, err := s.db.Query(`SELECT path FROM sources ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		sources = append(sources, path)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}
	return sources, nil
}

const selectMatches = `
	SELECT source, preset_id, preset_name, structural_id, text,
		offset_start, offset_end, start_line, start_column, end_line, end_column,
		snippet_before, snippet_matching, snippet_after, groups_json
	FROM matches
`

const orderMatches = ` ORDER BY source, offset_start, preset_id, offset_end`

func (s *SQLiteStore) GetMatches(source string) ([]*types.Match, error) {
	records, err := s.queryMatches(selectMatches+" WHERE source = ?"+orderMatches, source)
	if err != nil {
		return nil, err
	}
	matches := make([]*types.Match, len(records))
	for i, r := range records {
		matches[i] = r.Match
	}
	return matches, nil
}

func (s *SQLiteStore) GetAllMatches() ([]Record, error) {
	return s.queryMatches(selectMatches + orderMatches)
}

func (s *SQLiteStore) queryMatches(query string, args ...any) ([]Record, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying matches: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r          Record
			m          types.Match
			groupsJSON sql.NullString
		)
		err := rows.Scan(
			&r.Source, &m.PresetID, &m.PresetName, &m.StructuralID, &m.Text,
			&m.Location.Offset.Start, &m.Location.Offset.End,
			&m.Location.Source.Start.Line, &m.Location.Source.Start.Column,
			&m.Location.Source.End.Line, &m.Location.Source.End.Column,
			&m.Snippet.Before, &m.Snippet.Matching, &m.Snippet.After,
			&groupsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		if groupsJSON.Valid {
			if err := json.Unmarshal([]byte(groupsJSON.String), &m.Groups); err != nil {
				return nil, fmt.Errorf("unmarshaling groups: %w", err)
			}
		}
		r.Match = &m
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}
	return records, nil
}

func (s *SQLiteStore) MatchExists(source, structuralID string) (bool, error) {
	var count int
	err := s.db.QueryRow(
		"SELECT COUNT(*) FROM matches WHERE source = ? AND structural_id = ?",
		source, structuralID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking match existence: %w", err)
	}
	return count > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
