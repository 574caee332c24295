package preset

import (
	"fmt"

	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
)

// ValidatePreset checks required fields, that the pattern compiles, and that
// the preset agrees with its own examples: every example contains a match
// and no negative example does.
func ValidatePreset(p *types.Preset, opts ...strategy.Option) error {
	if p == nil {
		return fmt.Errorf("preset is nil")
	}

	if p.ID == "" {
		return fmt.Errorf("preset ID is required")
	}
	if p.Name == "" {
		return fmt.Errorf("preset name is required")
	}
	if p.Pattern == "" {
		return fmt.Errorf("preset pattern is required")
	}

	s, err := Strategy(p, opts...)
	if err != nil {
		return err
	}

	expectedID := p.ComputeStructuralID()
	if p.StructuralID != "" && p.StructuralID != expectedID {
		return fmt.Errorf("preset %s has inconsistent StructuralID: got %s, expected %s",
			p.ID, p.StructuralID, expectedID)
	}

	for _, example := range p.Examples {
		ok, err := s.MatchesAnyOf(example)
		if err != nil {
			return fmt.Errorf("preset %s example %q: %w", p.ID, example, err)
		}
		if !ok {
			return fmt.Errorf("preset %s does not match its example %q", p.ID, example)
		}
	}
	for _, example := range p.NegativeExamples {
		ok, err := s.MatchesAnyOf(example)
		if err != nil {
			return fmt.Errorf("preset %s negative example %q: %w", p.ID, example, err)
		}
		if ok {
			return fmt.Errorf("preset %s matches its negative example %q", p.ID, example)
		}
	}

	return nil
}

// ValidatePresetSet checks set consistency and required fields.
// knownPresetIDs, when non-nil, is checked for every referenced preset.
func ValidatePresetSet(ps *types.PresetSet, knownPresetIDs map[string]bool) error {
	if ps == nil {
		return fmt.Errorf("preset set is nil")
	}

	if ps.ID == "" {
		return fmt.Errorf("preset set ID is required")
	}
	if ps.Name == "" {
		return fmt.Errorf("preset set name is required")
	}
	if len(ps.PresetIDs) == 0 {
		return fmt.Errorf("preset set %s must reference at least one preset", ps.ID)
	}

	if knownPresetIDs != nil {
		for _, id := range ps.PresetIDs {
			if !knownPresetIDs[id] {
				return fmt.Errorf("preset set %s references unknown preset ID: %s", ps.ID, id)
			}
		}
	}

	seen := make(map[string]bool)
	for _, id := range ps.PresetIDs {
		if seen[id] {
			return fmt.Errorf("preset set %s contains duplicate preset ID: %s", ps.ID, id)
		}
		seen[id] = true
	}

	return nil
}
