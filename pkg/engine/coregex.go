package engine

import (
	"regexp"
	"regexp/syntax"
	"sync"
	"unicode/utf8"

	"github.com/coregx/coregex"
	"github.com/coregx/coregex/meta"
)

// Coregex compiles patterns with github.com/coregx/coregex, an RE2-syntax
// engine with linear-time matching. It has no backreferences or lookaround,
// and a pathological pattern cannot backtrack catastrophically.
//
// Replacement templates use Go syntax: $1, ${1}, ${name}, $$. As with
// regexp.Expand, $1x names a group called "1x".
//
// Every search runs over the full text, so ^ and \b see the characters
// before the search position, as they do on regexp2.
type Coregex struct{}

// NewCoregex returns a coregex engine.
func NewCoregex() *Coregex {
	return &Coregex{}
}

func (e *Coregex) Name() string { return NameCoregex }

func (e *Coregex) Compile(pattern string) (Pattern, error) {
	parsed, err := syntax.Parse(pattern, syntax.Perl)
	if err != nil {
		return nil, invalidPattern(pattern, err)
	}
	eng, err := meta.Compile(pattern)
	if err != nil {
		return nil, invalidPattern(pattern, err)
	}
	return &coregexPattern{
		eng:        eng,
		source:     pattern,
		numGroups:  eng.NumCaptures() - 1,
		parsed:     parsed.Simplify(),
		contextual: hasContextAssertion(parsed),
	}, nil
}

// coregexPattern serialises searches: the compiled engine keeps its match
// state inline and is not safe for concurrent use.
type coregexPattern struct {
	mu         sync.Mutex
	eng        *meta.Engine
	source     string
	numGroups  int
	parsed     *syntax.Regexp
	contextual bool

	anchoredOnce sync.Once
	anchored     *coregex.Regex
	anchoredErr  error

	expandOnce sync.Once
	expander   *regexp.Regexp
	expandErr  error
}

func (p *coregexPattern) Source() string { return p.source }

func (p *coregexPattern) NumGroups() int { return p.numGroups }

func (p *coregexPattern) Cursor(text string) Cursor {
	return &coregexCursor{p: p, text: text, numGroups: p.numGroups, idx: -1}
}

func (p *coregexPattern) MatchEntire(text string) (bool, error) {
	p.anchoredOnce.Do(func() {
		p.anchored, p.anchoredErr = coregex.Compile(`^(?:` + p.source + `)$`)
		if p.anchoredErr != nil {
			p.anchoredErr = invalidPattern(p.source, p.anchoredErr)
		}
	})
	if p.anchoredErr != nil {
		return false, p.anchoredErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.anchored.MatchString(text), nil
}

// Replace expands template for every occurrence with regexp.Expand rules;
// coregex's own expansion only understands $0 to $9.
func (p *coregexPattern) Replace(text, template string) (string, error) {
	p.expandOnce.Do(func() {
		p.expander, p.expandErr = regexp.Compile(p.source)
		if p.expandErr != nil {
			p.expandErr = invalidPattern(p.source, p.expandErr)
		}
	})
	if p.expandErr != nil {
		return "", p.expandErr
	}

	matches := p.findAll(text, 0, 0)
	if len(matches) == 0 {
		return text, nil
	}
	out := make([]byte, 0, len(text))
	last := 0
	for _, m := range matches {
		out = append(out, text[last:m.idx[0]]...)
		out = p.expander.ExpandString(out, template, text, m.idx)
		last = m.idx[1]
	}
	out = append(out, text[last:]...)
	return string(out), nil
}

// coregexMatch holds the flat byte submatch indices of one occurrence and
// the rune offsets of group 0.
type coregexMatch struct {
	idx        []int
	start, end int
}

// findAll collects the non-overlapping occurrences at or after byte offset
// from, whose rune offset is runeFrom. Empty matches abutting the previous
// occurrence are skipped, as in regexp.FindAll.
func (p *coregexPattern) findAll(text string, from, runeFrom int) []coregexMatch {
	hay := []byte(text)

	p.mu.Lock()
	defer p.mu.Unlock()

	var (
		out     []coregexMatch
		prevEnd = -1
		bytePos = from
		runePos = runeFrom
	)
	for at := from; at <= len(hay); {
		if at == len(hay) && at > 0 && p.contextual {
			prev, _ := utf8.DecodeLastRune(hay)
			if !emptyAtEnd(p.parsed, prev) {
				break
			}
		}
		m := p.eng.FindSubmatchAt(hay, at)
		if m == nil {
			break
		}
		s, e := m.Start(), m.End()
		if s < at {
			break
		}
		if s == e && s == prevEnd {
			if s >= len(hay) {
				break
			}
			_, w := utf8.DecodeRune(hay[s:])
			at = s + w
			continue
		}

		idx := make([]int, 2*m.NumCaptures())
		for j := 0; j < m.NumCaptures(); j++ {
			g := m.GroupIndex(j)
			if len(g) < 2 || g[0] < 0 {
				idx[2*j], idx[2*j+1] = -1, -1
				continue
			}
			idx[2*j], idx[2*j+1] = g[0], g[1]
		}

		runePos += utf8.RuneCount(hay[bytePos:s])
		start := runePos
		runePos += utf8.RuneCount(hay[s:e])
		bytePos = e
		out = append(out, coregexMatch{idx: idx, start: start, end: runePos})

		prevEnd = e
		if e > s {
			at = e
			continue
		}
		if e >= len(hay) {
			break
		}
		_, w := utf8.DecodeRune(hay[e:])
		at = e + w
	}
	return out
}

// hasContextAssertion reports whether re contains an assertion whose truth
// depends on the characters around the position.
func hasContextAssertion(re *syntax.Regexp) bool {
	switch re.Op {
	case syntax.OpBeginLine, syntax.OpBeginText, syntax.OpEndLine,
		syntax.OpWordBoundary, syntax.OpNoWordBoundary:
		return true
	}
	for _, sub := range re.Sub {
		if hasContextAssertion(sub) {
			return true
		}
	}
	return false
}

// emptyAtEnd reports whether re matches the empty string at the end of a
// non-empty text whose last rune is prev.
func emptyAtEnd(re *syntax.Regexp, prev rune) bool {
	switch re.Op {
	case syntax.OpEmptyMatch, syntax.OpEndText, syntax.OpEndLine:
		return true
	case syntax.OpBeginText:
		return false
	case syntax.OpBeginLine:
		return prev == '\n'
	case syntax.OpWordBoundary:
		return syntax.IsWordChar(prev)
	case syntax.OpNoWordBoundary:
		return !syntax.IsWordChar(prev)
	case syntax.OpLiteral:
		return len(re.Rune) == 0
	case syntax.OpCapture, syntax.OpPlus:
		return emptyAtEnd(re.Sub[0], prev)
	case syntax.OpStar, syntax.OpQuest:
		return true
	case syntax.OpRepeat:
		return re.Min == 0 || emptyAtEnd(re.Sub[0], prev)
	case syntax.OpConcat:
		for _, sub := range re.Sub {
			if !emptyAtEnd(sub, prev) {
				return false
			}
		}
		return true
	case syntax.OpAlternate:
		for _, sub := range re.Sub {
			if emptyAtEnd(sub, prev) {
				return true
			}
		}
		return false
	}
	return false
}

// coregexCursor collects every occurrence of the searched text on the first
// Find and then steps through them.
type coregexCursor struct {
	p         *coregexPattern
	text      string
	numGroups int

	loaded  bool
	matches []coregexMatch
	idx     int
}

func (c *coregexCursor) Find() (bool, error) {
	if !c.loaded {
		c.load(0, 0)
	}
	if c.idx+1 >= len(c.matches) {
		c.idx = len(c.matches)
		return false, nil
	}
	c.idx++
	return true, nil
}

func (c *coregexCursor) FindFrom(start int) (bool, error) {
	if err := CheckStart(start, utf8.RuneCountInString(c.text)); err != nil {
		return false, err
	}
	c.load(byteOffset(c.text, start), start)
	return c.Find()
}

func (c *coregexCursor) load(from, runeFrom int) {
	c.matches, c.idx, c.loaded = c.p.findAll(c.text, from, runeFrom), -1, true
}

func (c *coregexCursor) current() *coregexMatch {
	if c.idx < 0 || c.idx >= len(c.matches) {
		return nil
	}
	return &c.matches[c.idx]
}

func (c *coregexCursor) Group(i int) (string, error) {
	if err := CheckGroup(i, c.numGroups); err != nil {
		return "", err
	}
	m := c.current()
	if m == nil {
		return "", errNoMatch
	}
	if 2*i+1 >= len(m.idx) || m.idx[2*i] < 0 {
		return "", nil
	}
	return c.text[m.idx[2*i]:m.idx[2*i+1]], nil
}

func (c *coregexCursor) Start() int {
	m := c.current()
	if m == nil {
		return -1
	}
	return m.start
}

func (c *coregexCursor) End() int {
	m := c.current()
	if m == nil {
		return -1
	}
	return m.end
}

// byteOffset converts a rune offset into a byte offset within s.
func byteOffset(s string, runes int) int {
	if runes <= 0 {
		return 0
	}
	n := 0
	for i := range s {
		if n == runes {
			return i
		}
		n++
	}
	return len(s)
}
