// Package patternkit provides composable regular-expression matching
// strategies and a catalogue of ready-made patterns.
//
// # Basic Usage
//
// Build a strategy from pattern text and run an operation:
//
//	digits, err := patternkit.FromPattern(`\d+`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	all, err := digits.AllMatches("a12b345c", 0) // ["12", "345"]
//
// # Combining
//
// OrElse joins two strategies into one alternation:
//
//	contact, err := patternkit.OrElse(patternkit.Email, patternkit.URL)
//	found, err := contact.MatchesAnyOf("write to a@b.io")
//
// # Scanning
//
// A Scanner runs every catalogue preset over text and reports positions:
//
//	scanner, err := patternkit.NewScanner()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	matches, err := scanner.Scan("mail bob@x.org")
//	for _, m := range matches {
//	    fmt.Printf("%s at %d\n", m.PresetName, m.Location.Offset.Start)
//	}
package patternkit

import (
	"fmt"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/praetorian-inc/patternkit/pkg/preset"
	"github.com/praetorian-inc/patternkit/pkg/scanner"
	"github.com/praetorian-inc/patternkit/pkg/strategy"
	"github.com/praetorian-inc/patternkit/pkg/types"
	"go.uber.org/zap"
)

// Re-export commonly used types so callers can import only this package.
type (
	// Strategy is an immutable matching strategy over one pattern text.
	Strategy = strategy.Strategy

	// Replacement computes the substitute for one matched substring.
	Replacement = strategy.Replacement

	// Occurrence is one match with its offsets and capture groups.
	Occurrence = strategy.Occurrence

	// Preset is a named catalogue pattern.
	Preset = types.Preset

	// PresetSet is a named list of presets.
	PresetSet = types.PresetSet

	// Match is a Scanner result.
	Match = types.Match

	// Location holds a match's offsets and line:column span.
	Location = types.Location

	// Snippet holds a match and the surrounding line.
	Snippet = types.Snippet

	// Scanner runs presets over text.
	Scanner = scanner.Scanner
)

// Errors returned by strategy construction and operations.
var (
	ErrInvalidPattern  = strategy.ErrInvalidPattern
	ErrIndexOutOfRange = strategy.ErrIndexOutOfRange
	ErrMatchTimeout    = strategy.ErrMatchTimeout
)

// NotFound is returned by FirstIndexOf when there is no match.
const NotFound = strategy.NotFound

// Built-in strategies.
var (
	Email      = preset.Email
	IPv4       = preset.IPv4
	URL        = preset.URL
	NationalID = preset.NationalID
)

// FromPattern compiles pattern text on the default engine.
func FromPattern(pattern string) (Strategy, error) {
	return strategy.FromPattern(pattern)
}

// MustFromPattern is FromPattern that panics on invalid pattern text.
func MustFromPattern(pattern string) Strategy {
	return strategy.MustFromPattern(pattern)
}

// OrElse returns a strategy matching whatever a or b matches.
func OrElse(a, b Strategy) (Strategy, error) {
	return strategy.OrElse(a, b)
}

// Any folds OrElse over strategies from left to right.
func Any(strategies ...Strategy) (Strategy, error) {
	return strategy.Any(strategies...)
}

// scannerConfig holds NewScanner configuration.
type scannerConfig struct {
	presets   []*Preset
	presetIDs []string
	engine    string
	logger    *zap.Logger
	tolerant  bool
	workers   int
}

// Option configures NewScanner.
type Option func(*scannerConfig)

// WithPresets scans for custom presets instead of the built-in catalogue.
func WithPresets(presets []*Preset) Option {
	return func(c *scannerConfig) {
		c.presets = presets
	}
}

// WithPresetIDs restricts the scanner to the named presets. Names may be
// full IDs ("patternkit.email") or the last ID segment ("email").
func WithPresetIDs(ids ...string) Option {
	return func(c *scannerConfig) {
		c.presetIDs = append(c.presetIDs, ids...)
	}
}

// WithEngine selects a backend by name: "regexp2" (default) or "coregex".
func WithEngine(name string) Option {
	return func(c *scannerConfig) {
		c.engine = name
	}
}

// WithLogger sets the scanner's logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *scannerConfig) {
		c.logger = logger
	}
}

// WithTolerant logs and skips failing presets instead of failing the scan.
func WithTolerant() Option {
	return func(c *scannerConfig) {
		c.tolerant = true
	}
}

// WithWorkers sets how many presets are searched concurrently.
func WithWorkers(n int) Option {
	return func(c *scannerConfig) {
		c.workers = n
	}
}

// NewScanner creates a Scanner over the built-in catalogue unless
// WithPresets says otherwise.
func NewScanner(opts ...Option) (*Scanner, error) {
	config := &scannerConfig{workers: 1}
	for _, opt := range opts {
		opt(config)
	}

	presets := config.presets
	if presets == nil {
		var err error
		if presets, err = LoadBuiltinPresets(); err != nil {
			return nil, fmt.Errorf("loading builtin presets: %w", err)
		}
	}

	if len(config.presetIDs) > 0 {
		selected := make([]*Preset, 0, len(config.presetIDs))
		for _, id := range config.presetIDs {
			p, ok := preset.Find(presets, id)
			if !ok {
				return nil, fmt.Errorf("unknown preset %q", id)
			}
			selected = append(selected, p)
		}
		presets = selected
	}

	e, err := engine.Lookup(config.engine)
	if err != nil {
		return nil, err
	}

	return scanner.New(presets,
		scanner.WithEngine(e),
		scanner.WithLogger(config.logger),
		scanner.WithTolerant(config.tolerant),
		scanner.WithWorkers(config.workers),
	)
}

// LoadBuiltinPresets returns the built-in preset catalogue.
func LoadBuiltinPresets() ([]*Preset, error) {
	return preset.NewLoader().LoadBuiltinPresets()
}

// LoadBuiltinPresetSets returns the built-in preset sets.
func LoadBuiltinPresetSets() ([]*PresetSet, error) {
	return preset.NewLoader().LoadBuiltinPresetSets()
}

// LoadPresetsFromFile loads presets from a YAML file for use with
// WithPresets.
func LoadPresetsFromFile(path string) ([]*Preset, error) {
	return preset.NewLoader().LoadPresetFile(path)
}

// PresetStrategy compiles a preset's pattern on the default engine.
func PresetStrategy(p *Preset) (Strategy, error) {
	return preset.Strategy(p)
}
