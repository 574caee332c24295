package preset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/types"
	"gopkg.in/yaml.v3"
)

// Loader reads presets and preset sets from YAML.
type Loader struct {
	presets fs.FS // holds presets/*.yml
	sets    fs.FS // holds sets/*.yml
}

// NewLoader creates a loader over the embedded catalogue.
func NewLoader() *Loader {
	return &Loader{
		presets: builtinPresetsFS,
		sets:    builtinSetsFS,
	}
}

// NewLoaderWithFS creates a loader over a custom filesystem laid out with
// presets/ and sets/ directories.
func NewLoaderWithFS(fsys fs.FS) *Loader {
	return &Loader{
		presets: fsys,
		sets:    fsys,
	}
}

// LoadPreset loads a single preset from YAML bytes.
// Returns error if the YAML is invalid or holds other than one preset.
func (l *Loader) LoadPreset(data []byte) (*types.Preset, error) {
	var yamlFile yamlPresetsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Presets) == 0 {
		return nil, fmt.Errorf("no presets found in YAML")
	}
	if len(yamlFile.Presets) > 1 {
		return nil, fmt.Errorf("expected single preset, found %d", len(yamlFile.Presets))
	}

	return convertYAMLPreset(yamlFile.Presets[0]), nil
}

// LoadPresetFile loads every preset in a YAML file.
func (l *Loader) LoadPresetFile(path string) ([]*types.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	presets, err := parsePresets(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if len(presets) == 0 {
		return nil, fmt.Errorf("no presets found in %s", path)
	}
	return presets, nil
}

// LoadPresetSet loads a single preset set from YAML bytes.
func (l *Loader) LoadPresetSet(data []byte) (*types.PresetSet, error) {
	var yamlFile yamlPresetSetsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if len(yamlFile.Sets) == 0 {
		return nil, fmt.Errorf("no preset sets found in YAML")
	}
	if len(yamlFile.Sets) > 1 {
		return nil, fmt.Errorf("expected single preset set, found %d", len(yamlFile.Sets))
	}

	return convertYAMLPresetSet(yamlFile.Sets[0]), nil
}

// LoadBuiltinPresets loads every preset under presets/.
func (l *Loader) LoadBuiltinPresets() ([]*types.Preset, error) {
	var presets []*types.Preset

	err := walkYAML(l.presets, "presets", func(path string, data []byte) error {
		parsed, err := parsePresets(data)
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		presets = append(presets, parsed...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return presets, nil
}

// LoadBuiltinPresetSets loads every preset set under sets/.
func (l *Loader) LoadBuiltinPresetSets() ([]*types.PresetSet, error) {
	var sets []*types.PresetSet

	err := walkYAML(l.sets, "sets", func(path string, data []byte) error {
		var yamlFile yamlPresetSetsFile
		if err := yaml.Unmarshal(data, &yamlFile); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		for _, ys := range yamlFile.Sets {
			sets = append(sets, convertYAMLPresetSet(ys))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return sets, nil
}

// Find returns the preset whose ID is name, or whose ID ends in "."+name, so
// "email" finds "patternkit.email".
func Find(presets []*types.Preset, name string) (*types.Preset, bool) {
	for _, p := range presets {
		if p.ID == name {
			return p, true
		}
	}
	for _, p := range presets {
		if strings.HasSuffix(p.ID, "."+name) {
			return p, true
		}
	}
	return nil, false
}

// FindSet is Find for preset sets.
func FindSet(sets []*types.PresetSet, name string) (*types.PresetSet, bool) {
	for _, s := range sets {
		if s.ID == name || strings.HasSuffix(s.ID, "."+name) {
			return s, true
		}
	}
	return nil, false
}

func walkYAML(fsys fs.FS, root string, fn func(path string, data []byte) error) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".yml" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		return fn(path, data)
	})
}

func parsePresets(data []byte) ([]*types.Preset, error) {
	var yamlFile yamlPresetsFile
	if err := yaml.Unmarshal(data, &yamlFile); err != nil {
		return nil, err
	}
	presets := make([]*types.Preset, 0, len(yamlFile.Presets))
	for _, yp := range yamlFile.Presets {
		presets = append(presets, convertYAMLPreset(yp))
	}
	return presets, nil
}

// convertYAMLPreset converts yamlPreset to types.Preset and computes StructuralID.
func convertYAMLPreset(yp yamlPreset) *types.Preset {
	p := &types.Preset{
		ID:               yp.ID,
		Name:             yp.Name,
		Pattern:          strings.TrimSpace(yp.Pattern),
		Description:      strings.TrimSpace(yp.Description),
		Examples:         yp.Examples,
		NegativeExamples: yp.NegativeExamples,
		References:       yp.References,
		Categories:       yp.Categories,
		Keywords:         yp.Keywords,
	}
	p.StructuralID = p.ComputeStructuralID()
	return p
}

func convertYAMLPresetSet(ys yamlPresetSet) *types.PresetSet {
	return &types.PresetSet{
		ID:          ys.ID,
		Name:        ys.Name,
		Description: ys.Description,
		PresetIDs:   ys.PresetIDs,
	}
}
