package engine

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single regexp2 search to guard against
// catastrophic backtracking.
const DefaultMatchTimeout = 5 * time.Second

// Regexp2 compiles patterns with github.com/dlclark/regexp2, a backtracking
// engine with Perl/.NET syntax (lookaround, backreferences, atomic groups).
//
// Replacement templates use .NET syntax: $1, ${name}, $$.
type Regexp2 struct {
	// MatchTimeout bounds each search. Zero means DefaultMatchTimeout.
	MatchTimeout time.Duration
}

// NewRegexp2 returns a regexp2 engine with the default match timeout.
func NewRegexp2() *Regexp2 {
	return &Regexp2{MatchTimeout: DefaultMatchTimeout}
}

func (e *Regexp2) Name() string { return NameRegexp2 }

// Compile tries RE2-compatible mode first (accepts (?P<name>...) groups) and
// falls back to the default Perl-compatible mode for syntax RE2 mode rejects.
func (e *Regexp2) Compile(pattern string) (Pattern, error) {
	var opts regexp2.RegexOptions = regexp2.RE2
	re, err := regexp2.Compile(pattern, opts)
	if err != nil {
		opts = regexp2.None
		var fallbackErr error
		re, fallbackErr = regexp2.Compile(pattern, opts)
		if fallbackErr != nil {
			return nil, invalidPattern(pattern, fallbackErr)
		}
	}
	re.MatchTimeout = e.timeout()

	return &regexp2Pattern{
		re:        re,
		opts:      opts,
		timeout:   e.timeout(),
		source:    pattern,
		numGroups: len(re.GetGroupNumbers()) - 1,
	}, nil
}

func (e *Regexp2) timeout() time.Duration {
	if e == nil || e.MatchTimeout <= 0 {
		return DefaultMatchTimeout
	}
	return e.MatchTimeout
}

type regexp2Pattern struct {
	re        *regexp2.Regexp
	opts      regexp2.RegexOptions
	timeout   time.Duration
	source    string
	numGroups int

	anchoredOnce sync.Once
	anchored     *regexp2.Regexp
	anchoredErr  error
}

func (p *regexp2Pattern) Source() string { return p.source }

func (p *regexp2Pattern) NumGroups() int { return p.numGroups }

func (p *regexp2Pattern) Cursor(text string) Cursor {
	return &regexp2Cursor{re: p.re, runes: []rune(text), numGroups: p.numGroups}
}

// MatchEntire wraps the source in \A(?:...)\z so alternation and quantifiers
// backtrack until an alternative spans the whole text.
func (p *regexp2Pattern) MatchEntire(text string) (bool, error) {
	p.anchoredOnce.Do(func() {
		body := p.source
		if extendedAtEnd(body) {
			// A trailing # comment would swallow the closing parenthesis.
			body += "\n"
		}
		p.anchored, p.anchoredErr = regexp2.Compile(`\A(?:`+body+`)\z`, p.opts)
		if p.anchoredErr != nil {
			p.anchoredErr = invalidPattern(p.source, p.anchoredErr)
			return
		}
		p.anchored.MatchTimeout = p.timeout
	})
	if p.anchoredErr != nil {
		return false, p.anchoredErr
	}
	ok, err := p.anchored.MatchString(text)
	if err != nil {
		return false, wrapRegexp2Error(p.source, err)
	}
	return ok, nil
}

func (p *regexp2Pattern) Replace(text, template string) (string, error) {
	out, err := p.re.Replace(text, template, -1, -1)
	if err != nil {
		return "", wrapRegexp2Error(p.source, err)
	}
	return out, nil
}

type regexp2Cursor struct {
	re        *regexp2.Regexp
	runes     []rune
	numGroups int

	m    *regexp2.Match
	done bool
}

func (c *regexp2Cursor) Find() (bool, error) {
	if c.done {
		return false, nil
	}
	if c.m == nil {
		return c.advance(c.re.FindRunesMatch(c.runes))
	}
	// FindNextMatch steps one rune past an empty match before searching again.
	return c.advance(c.re.FindNextMatch(c.m))
}

func (c *regexp2Cursor) FindFrom(start int) (bool, error) {
	if err := CheckStart(start, len(c.runes)); err != nil {
		return false, err
	}
	c.m, c.done = nil, false
	return c.advance(c.re.FindRunesMatchStartingAt(c.runes, start))
}

func (c *regexp2Cursor) advance(m *regexp2.Match, err error) (bool, error) {
	if err != nil {
		c.m, c.done = nil, true
		return false, wrapRegexp2Error(c.re.String(), err)
	}
	c.m = m
	if m == nil {
		c.done = true
		return false, nil
	}
	return true, nil
}

func (c *regexp2Cursor) Group(i int) (string, error) {
	if err := CheckGroup(i, c.numGroups); err != nil {
		return "", err
	}
	if c.m == nil {
		return "", errNoMatch
	}
	g := c.m.GroupByNumber(i)
	if g == nil || len(g.Captures) == 0 {
		return "", nil
	}
	return g.String(), nil
}

func (c *regexp2Cursor) Start() int {
	if c.m == nil {
		return -1
	}
	return c.m.Index
}

func (c *regexp2Cursor) End() int {
	if c.m == nil {
		return -1
	}
	return c.m.Index + c.m.Length
}

func wrapRegexp2Error(pattern string, err error) error {
	if strings.Contains(err.Error(), "match timeout") {
		return fmt.Errorf("%w: pattern %q: %v", ErrMatchTimeout, pattern, err)
	}
	return fmt.Errorf("regexp2 search with pattern %q: %w", pattern, err)
}

// extendedAtEnd reports whether the x (ignore whitespace) flag is still in
// force at the end of pattern, set by an inline (?x) group.
func extendedAtEnd(pattern string) bool {
	scopes := []bool{false}
	inClass := false
	for i := 0; i < len(pattern); i++ {
		x := scopes[len(scopes)-1]
		switch c := pattern[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
		case c == '#' && x:
			for i < len(pattern) && pattern[i] != '\n' {
				i++
			}
		case c == '(':
			if !strings.HasPrefix(pattern[i:], "(?") {
				scopes = append(scopes, x)
				continue
			}
			if strings.HasPrefix(pattern[i:], "(?#") {
				end := strings.IndexByte(pattern[i:], ')')
				if end < 0 {
					return x
				}
				i += end
				continue
			}
			j := i + 2
			on := true
			for j < len(pattern) && strings.IndexByte("imnsx-", pattern[j]) >= 0 {
				switch pattern[j] {
				case '-':
					on = false
				case 'x':
					x = on
				}
				j++
			}
			if j < len(pattern) && pattern[j] == ')' {
				scopes[len(scopes)-1] = x
				i = j
				continue
			}
			if j < len(pattern) && pattern[j] == ':' {
				i = j
			}
			scopes = append(scopes, x)
		case c == ')':
			if len(scopes) > 1 {
				scopes = scopes[:len(scopes)-1]
			}
		}
	}
	return scopes[len(scopes)-1]
}
