// Package engine adapts regular-expression libraries to the small contract
// the strategy layer drives: compile a pattern, open a cursor over one text,
// step through occurrences and read back capture groups.
//
// All offsets crossing this package boundary are rune (code point) offsets,
// whatever the backend reports internally.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

var (
	// ErrInvalidPattern reports pattern text the backend cannot compile.
	ErrInvalidPattern = errors.New("invalid pattern")

	// ErrIndexOutOfRange reports a capture group index or start offset
	// outside the valid bounds.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrMatchTimeout reports a search that exceeded the backend's time budget.
	ErrMatchTimeout = errors.New("match timeout")

	errNoMatch = errors.New("cursor has no current match")
)

// Engine compiles pattern text into a reusable Pattern.
type Engine interface {
	// Name identifies the backend, e.g. "regexp2".
	Name() string

	// Compile parses pattern. Errors wrap ErrInvalidPattern.
	Compile(pattern string) (Pattern, error)
}

// Pattern is a compiled pattern. Implementations are safe for concurrent use;
// the cursors they hand out are not.
type Pattern interface {
	// Source returns the exact text the pattern was compiled from.
	Source() string

	// NumGroups returns the number of capture groups, not counting group 0.
	NumGroups() int

	// Cursor returns a fresh cursor positioned before the start of text.
	Cursor(text string) Cursor

	// MatchEntire reports whether one match consumes all of text.
	MatchEntire(text string) (bool, error)

	// Replace substitutes every occurrence in text with template, expanding
	// group references in the backend's own syntax.
	Replace(text, template string) (string, error)
}

// Cursor walks the non-overlapping occurrences of a pattern in one text.
type Cursor interface {
	// Find advances to the next occurrence. After an empty match the search
	// resumes at least one character further on.
	Find() (bool, error)

	// FindFrom resets the cursor and searches from rune offset start.
	FindFrom(start int) (bool, error)

	// Group returns the text of capture group i of the current occurrence.
	// A group that did not participate yields "".
	Group(i int) (string, error)

	// Start and End return the rune offsets of the current occurrence.
	Start() int
	End() int
}

const (
	NameRegexp2 = "regexp2"
	NameCoregex = "coregex"

	// DefaultCacheSize bounds the compiled-pattern cache of the shared engines.
	DefaultCacheSize = 256
)

var (
	defaultOnce    sync.Once
	defaultEngines map[string]Engine
)

func loadDefaults() {
	defaultOnce.Do(func() {
		defaultEngines = map[string]Engine{
			NameRegexp2: MustCached(NewRegexp2(), DefaultCacheSize),
			NameCoregex: MustCached(NewCoregex(), DefaultCacheSize),
		}
	})
}

// Default returns the shared, cached regexp2 engine.
func Default() Engine {
	loadDefaults()
	return defaultEngines[NameRegexp2]
}

// Lookup returns the shared, cached engine registered under name.
// An empty name selects the default engine.
func Lookup(name string) (Engine, error) {
	loadDefaults()
	if strings.TrimSpace(name) == "" {
		return defaultEngines[NameRegexp2], nil
	}
	e, ok := defaultEngines[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown engine %q (available: %s)", name, strings.Join(Names(), ", "))
	}
	return e, nil
}

// Names lists the registered engine names.
func Names() []string {
	return []string{NameRegexp2, NameCoregex}
}

func invalidPattern(pattern string, err error) error {
	return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
}

// CheckGroup validates a capture group index against a pattern's group count.
func CheckGroup(i, numGroups int) error {
	if i < 0 || i > numGroups {
		return fmt.Errorf("%w: group %d (pattern has %d groups)", ErrIndexOutOfRange, i, numGroups)
	}
	return nil
}

// CheckStart validates a rune start offset against a text length in runes.
func CheckStart(start, length int) error {
	if start < 0 || start > length {
		return fmt.Errorf("%w: start offset %d (text has %d characters)", ErrIndexOutOfRange, start, length)
	}
	return nil
}
