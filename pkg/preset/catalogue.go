// Package preset holds the built-in pattern catalogue and the loader,
// validator and filter for YAML preset files.
package preset

import (
	"fmt"

	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
)

// Pattern text of the built-in strategies. Each is also the pattern of the
// matching entry in presets/*.yml.
const (
	EmailPattern      = `\w+([-+.]\w+)*@\w+([-.]\w+)*\.\w+([-.]\w+)*`
	IPv4Pattern       = `((2[0-4]\d|25[0-5]|[01]?\d\d?)\.){3}(2[0-4]\d|25[0-5]|[01]?\d\d?)`
	URLPattern        = `[a-zA-z]+://[^\s]*`
	NationalIDPattern = `\d{15}(\d\d[0-9xX])?`
)

// Built-in strategies on the default engine.
var (
	Email      = strategy.MustFromPattern(EmailPattern)
	IPv4       = strategy.MustFromPattern(IPv4Pattern)
	URL        = strategy.MustFromPattern(URLPattern)
	NationalID = strategy.MustFromPattern(NationalIDPattern)
)

// Strategy compiles a preset's pattern.
func Strategy(p *types.Preset, opts ...strategy.Option) (strategy.Strategy, error) {
	s, err := strategy.FromPattern(p.Pattern, opts...)
	if err != nil {
		return strategy.Strategy{}, fmt.Errorf("preset %s: %w", p.ID, err)
	}
	return s, nil
}

// SetStrategy folds the presets of set, in order, into one alternation.
// byID resolves preset IDs.
func SetStrategy(set *types.PresetSet, byID map[string]*types.Preset, opts ...strategy.Option) (strategy.Strategy, error) {
	if len(set.PresetIDs) == 0 {
		return strategy.Strategy{}, fmt.Errorf("preset set %s is empty", set.ID)
	}

	strategies := make([]strategy.Strategy, 0, len(set.PresetIDs))
	for _, id := range set.PresetIDs {
		p, ok := byID[id]
		if !ok {
			return strategy.Strategy{}, fmt.Errorf("preset set %s references unknown preset ID: %s", set.ID, id)
		}
		s, err := Strategy(p, opts...)
		if err != nil {
			return strategy.Strategy{}, err
		}
		strategies = append(strategies, s)
	}

	s, err := strategy.Any(strategies...)
	if err != nil {
		return strategy.Strategy{}, fmt.Errorf("preset set %s: %w", set.ID, err)
	}
	return s, nil
}

// IndexByID maps preset IDs to presets.
func IndexByID(presets []*types.Preset) map[string]*types.Preset {
	byID := make(map[string]*types.Preset, len(presets))
	for _, p := range presets {
		byID[p.ID] = p
	}
	return byID
}
