// Package store persists scan results so they can be reported later.
package store

import (
	"fmt"
	"sort"

	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/praetorian-inc/patternkit/pkg/types"
)

// Record is a stored match with the source it was found in.
type Record struct {
	Source string       `json:"source"`
	Match  *types.Match `json:"match"`
}

// Store provides persistence for scan results.
type Store interface {
	// AddPreset records the preset that produced matches.
	AddPreset(p *types.Preset) error

	// AddSource records a scanned input and its size in bytes.
	AddSource(source string, size int) error

	// AddMatch stores a match. A match already stored for the same source
	// and structural ID is ignored.
	AddMatch(source string, m *types.Match) error

	// GetPresets returns the recorded presets ordered by ID.
	GetPresets() ([]*types.Preset, error)

	// GetSources returns the recorded sources in order.
	GetSources() ([]string, error)

	// GetMatches returns the matches stored for a source in scan order.
	GetMatches(source string) ([]*types.Match, error)

	// GetAllMatches returns every stored match, by source then scan order.
	GetAllMatches() ([]Record, error)

	// MatchExists reports whether a match is stored for source.
	MatchExists(source, structuralID string) (bool, error)

	// Close releases the store's resources.
	Close() error
}

// Config for store initialization.
type Config struct {
	// Path is the database file path. ":memory:" selects the in-memory store.
	Path string
}

// New opens the store at cfg.Path.
func New(cfg Config) (Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if cfg.Path == ":memory:" {
		return NewMemory(), nil
	}
	return NewSQLite(cfg.Path)
}

// SaveBatch records presets, every scanned source and every match of batch.
func SaveBatch(s Store, presets []*types.Preset, items []scanner.ContentItem, batch *scanner.BatchScanResult) error {
	for _, p := range presets {
		if err := s.AddPreset(p); err != nil {
			return err
		}
	}

	sizes := make(map[string]int, len(items))
	for _, item := range items {
		sizes[item.Source] = len(item.Content)
	}

	for _, res := range batch.Results {
		if err := s.AddSource(res.Source, sizes[res.Source]); err != nil {
			return err
		}
		for _, m := range res.Matches {
			if err := s.AddMatch(res.Source, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadBatch rebuilds a batch result from everything stored, including
// sources without matches.
func LoadBatch(s Store) (*scanner.BatchScanResult, error) {
	sources, err := s.GetSources()
	if err != nil {
		return nil, err
	}

	batch := &scanner.BatchScanResult{Results: make([]scanner.ScanResult, 0, len(sources))}
	for _, source := range sources {
		matches, err := s.GetMatches(source)
		if err != nil {
			return nil, err
		}
		batch.Results = append(batch.Results, scanner.ScanResult{Source: source, Matches: matches})
		batch.Total += len(matches)
	}
	return batch, nil
}

// sortMatches orders matches the way the scanner reports them.
func sortMatches(matches []*types.Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		a, b := matches[i].Location.Offset, matches[j].Location.Offset
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if matches[i].PresetID != matches[j].PresetID {
			return matches[i].PresetID < matches[j].PresetID
		}
		return a.End < b.End
	})
}
