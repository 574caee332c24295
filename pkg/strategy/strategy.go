// Package strategy implements matching strategies: immutable values that
// carry pattern text and open a fresh search cursor over any input on demand.
//
// A strategy is either a leaf, built from one pattern string, or a combined
// strategy built by OrElse from two others. Combination is textual: the
// operands' pattern texts are joined with "|", so capture groups renumber
// left to right across the joined text.
//
//	s, err := strategy.FromPattern(`\d+`)
//	if err != nil {
//	    return err
//	}
//	nums, err := s.All("a12b345c") // ["12", "345"]
//
// Every operation compiles through the strategy's engine and drives a cursor
// it owns exclusively, so strategies are safe for concurrent use.
package strategy

import (
	"fmt"

	"github.com/praetorian-inc/patternkit/pkg/engine"
)

// Re-exported so callers can test errors without importing pkg/engine.
var (
	ErrInvalidPattern  = engine.ErrInvalidPattern
	ErrIndexOutOfRange = engine.ErrIndexOutOfRange
	ErrMatchTimeout    = engine.ErrMatchTimeout
)

// NotFound is returned by FirstIndexOf when no occurrence exists.
const NotFound = -1

type kind uint8

const (
	leaf kind = iota + 1
	combined
)

// Strategy is a matching strategy. The zero value is not usable; build one
// with FromPattern or OrElse.
type Strategy struct {
	kind kind
	// left holds the whole pattern of a leaf, or the left operand's text of
	// a combined strategy.
	left  string
	right string
	eng   engine.Engine
}

type config struct {
	engine engine.Engine
}

// Option configures strategy construction.
type Option func(*config)

// WithEngine compiles the strategy with e instead of the default engine.
func WithEngine(e engine.Engine) Option {
	return func(c *config) {
		c.engine = e
	}
}

// FromPattern returns a leaf strategy for pattern. The pattern is compiled
// once here, so invalid syntax fails construction with ErrInvalidPattern
// rather than the first operation.
func FromPattern(pattern string, opts ...Option) (Strategy, error) {
	cfg := config{engine: engine.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.engine == nil {
		return Strategy{}, fmt.Errorf("%w: nil engine", ErrInvalidPattern)
	}

	s := Strategy{kind: leaf, left: pattern, eng: cfg.engine}
	if _, err := s.compile(); err != nil {
		return Strategy{}, err
	}
	return s, nil
}

// MustFromPattern is like FromPattern but panics if the pattern is invalid.
func MustFromPattern(pattern string, opts ...Option) Strategy {
	s, err := FromPattern(pattern, opts...)
	if err != nil {
		panic(fmt.Sprintf("strategy: FromPattern(`%s`): %v", pattern, err))
	}
	return s
}

// OrElse returns a strategy matching whatever a or b matches. Its pattern
// text is a.Pattern() + "|" + b.Pattern(), compiled with a's engine. Both
// operands remain usable.
func OrElse(a, b Strategy) (Strategy, error) {
	if !a.Valid() || !b.Valid() {
		return Strategy{}, fmt.Errorf("%w: cannot combine a zero Strategy", ErrInvalidPattern)
	}

	s := Strategy{kind: combined, left: a.Pattern(), right: b.Pattern(), eng: a.eng}
	if _, err := s.compile(); err != nil {
		return Strategy{}, fmt.Errorf("combining %q with %q: %w", s.left, s.right, err)
	}
	return s, nil
}

// Or is shorthand for OrElse(s, other).
func (s Strategy) Or(other Strategy) (Strategy, error) {
	return OrElse(s, other)
}

// Any folds OrElse over strategies from left to right.
func Any(strategies ...Strategy) (Strategy, error) {
	if len(strategies) == 0 {
		return Strategy{}, fmt.Errorf("%w: no strategies to combine", ErrInvalidPattern)
	}
	out := strategies[0]
	if !out.Valid() {
		return Strategy{}, fmt.Errorf("%w: cannot combine a zero Strategy", ErrInvalidPattern)
	}
	for _, next := range strategies[1:] {
		var err error
		if out, err = OrElse(out, next); err != nil {
			return Strategy{}, err
		}
	}
	return out, nil
}

// Pattern returns the full pattern text the strategy compiles.
func (s Strategy) Pattern() string {
	if s.kind == combined {
		return s.left + "|" + s.right
	}
	return s.left
}

// String returns the pattern text.
func (s Strategy) String() string { return s.Pattern() }

// Combined reports whether s was built by OrElse.
func (s Strategy) Combined() bool { return s.kind == combined }

// Operands returns the pattern texts a combined strategy joined. For a leaf
// it returns the pattern and "".
func (s Strategy) Operands() (left, right string) { return s.left, s.right }

// Valid reports whether s was built by FromPattern or OrElse.
func (s Strategy) Valid() bool { return s.kind != 0 && s.eng != nil }

// Engine returns the engine the strategy compiles with.
func (s Strategy) Engine() engine.Engine { return s.eng }

// NumGroups returns the number of capture groups in the compiled pattern.
func (s Strategy) NumGroups() (int, error) {
	p, err := s.compile()
	if err != nil {
		return 0, err
	}
	return p.NumGroups(), nil
}

func (s Strategy) compile() (engine.Pattern, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: zero Strategy", ErrInvalidPattern)
	}
	return s.eng.Compile(s.Pattern())
}

// recipe compiles the strategy and opens a fresh cursor over text.
func (s Strategy) recipe(text string) (engine.Pattern, engine.Cursor, error) {
	p, err := s.compile()
	if err != nil {
		return nil, nil, err
	}
	return p, p.Cursor(text), nil
}
