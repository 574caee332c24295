package preset

import (
	"fmt"
	"strings"

	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
)

// FilterConfig specifies include and exclude patterns over preset IDs.
type FilterConfig struct {
	Include []string // only matching presets are kept
	Exclude []string // matching presets are dropped
}

// ParsePatterns splits a comma-separated string into trimmed patterns.
func ParsePatterns(patterns string) []string {
	if patterns == "" {
		return []string{}
	}

	parts := strings.Split(patterns, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// Filter applies include then exclude patterns to presets.
// An empty include list keeps everything. Each list is folded into a single
// alternation, so a preset is kept when any include pattern occurs in its ID.
func Filter(presets []*types.Preset, config FilterConfig) ([]*types.Preset, error) {
	if len(presets) == 0 {
		return presets, nil
	}

	include, err := foldPatterns(config.Include)
	if err != nil {
		return nil, err
	}
	exclude, err := foldPatterns(config.Exclude)
	if err != nil {
		return nil, err
	}

	result := make([]*types.Preset, 0, len(presets))
	for _, p := range presets {
		if include.Valid() {
			ok, err := include.MatchesAnyOf(p.ID)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if exclude.Valid() {
			ok, err := exclude.MatchesAnyOf(p.ID)
			if err != nil {
				return nil, err
			}
			if ok {
				continue
			}
		}
		result = append(result, p)
	}
	return result, nil
}

// foldPatterns returns the zero Strategy for an empty list.
func foldPatterns(patterns []string) (strategy.Strategy, error) {
	if len(patterns) == 0 {
		return strategy.Strategy{}, nil
	}
	strategies := make([]strategy.Strategy, 0, len(patterns))
	for _, pattern := range patterns {
		s, err := strategy.FromPattern(pattern)
		if err != nil {
			return strategy.Strategy{}, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
		}
		strategies = append(strategies, s)
	}
	return strategy.Any(strategies...)
}
