package store

import (
	"sort"
	"sync"

	"github.com/praetorian-inc/patternkit/pkg/types"
)

// MemoryStore implements Store in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	presets map[string]*types.Preset
	sources map[string]int                    // source -> size
	matches map[string]map[string]*types.Match // source -> structural ID -> match
}

// NewMemory creates a new in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		presets: make(map[string]*types.Preset),
		sources: make(map[string]int),
		matches: make(map[string]map[string]*types.Match),
	}
}

func (m *MemoryStore) AddPreset(p *types.Preset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.presets[p.ID]; !exists {
		m.presets[p.ID] = p
	}
	return nil
}

func (m *MemoryStore) AddSource(source string, size int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sources[source] = size
	return nil
}

func (m *MemoryStore) AddMatch(source string, match *types.Match) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sources[source]; !ok {
		m.sources[source] = 0
	}
	bySource := m.matches[source]
	if bySource == nil {
		bySource = make(map[string]*types.Match)
		m.matches[source] = bySource
	}
	if _, exists := bySource[match.StructuralID]; !exists {
		bySource[match.StructuralID] = match
	}
	return nil
}

func (m *MemoryStore) GetPresets() ([]*types.Preset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Preset, 0, len(m.presets))
	for _, p := range m.presets {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemoryStore) GetSources() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]string, 0, len(m.sources))
	for source := range m.sources {
		result = append(result, source)
	}
	sort.Strings(result)
	return result, nil
}

func (m *MemoryStore) GetMatches(source string) ([]*types.Match, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*types.Match, 0, len(m.matches[source]))
	for _, match := range m.matches[source] {
		result = append(result, match)
	}
	sortMatches(result)
	return result, nil
}

func (m *MemoryStore) GetAllMatches() ([]Record, error) {
	sources, _ := m.GetSources()

	var records []Record
	for _, source := range sources {
		matches, _ := m.GetMatches(source)
		for _, match := range matches {
			records = append(records, Record{Source: source, Match: match})
		}
	}
	return records, nil
}

func (m *MemoryStore) MatchExists(source, structuralID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, exists := m.matches[source][structuralID]
	return exists, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
