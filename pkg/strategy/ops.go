package strategy

import (
	"strings"
	"unicode/utf8"

	"github.com/praetorian-inc/patternkit/pkg/engine"
)

// Replacement maps a matched substring to the text that replaces it.
// It sees only the matched text, never positions or groups.
type Replacement func(match string) string

// Occurrence is one match of a strategy. Start and End are rune offsets;
// Groups[0] is the whole match.
type Occurrence struct {
	Start  int
	End    int
	Groups []string
}

// MatchesAllOf reports whether the whole of text is one match.
func (s Strategy) MatchesAllOf(text string) (bool, error) {
	p, err := s.compile()
	if err != nil {
		return false, err
	}
	return p.MatchEntire(text)
}

// MatchesAnyOf reports whether text contains at least one occurrence.
func (s Strategy) MatchesAnyOf(text string) (bool, error) {
	_, c, err := s.recipe(text)
	if err != nil {
		return false, err
	}
	return c.Find()
}

// FirstMatch returns capture group group of the first occurrence in text.
// ok is false when there is no occurrence. A group index outside the
// pattern's groups fails with ErrIndexOutOfRange even when nothing matches.
func (s Strategy) FirstMatch(text string, group int) (match string, ok bool, err error) {
	p, c, err := s.recipe(text)
	if err != nil {
		return "", false, err
	}
	if err := engine.CheckGroup(group, p.NumGroups()); err != nil {
		return "", false, err
	}

	found, err := c.Find()
	if err != nil || !found {
		return "", false, err
	}
	match, err = c.Group(group)
	if err != nil {
		return "", false, err
	}
	return match, true, nil
}

// First returns the first whole-match occurrence in text.
func (s Strategy) First(text string) (string, bool, error) {
	return s.FirstMatch(text, 0)
}

// AllMatches returns capture group group of every non-overlapping
// occurrence, left to right. It returns nil when nothing matches.
func (s Strategy) AllMatches(text string, group int) ([]string, error) {
	p, c, err := s.recipe(text)
	if err != nil {
		return nil, err
	}
	if err := engine.CheckGroup(group, p.NumGroups()); err != nil {
		return nil, err
	}

	var out []string
	for {
		found, err := c.Find()
		if err != nil {
			return nil, err
		}
		if !found {
			return out, nil
		}
		g, err := c.Group(group)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
}

// All returns every whole-match occurrence in text.
func (s Strategy) All(text string) ([]string, error) {
	return s.AllMatches(text, 0)
}

// Occurrences returns every occurrence with its offsets and all groups.
func (s Strategy) Occurrences(text string) ([]Occurrence, error) {
	p, c, err := s.recipe(text)
	if err != nil {
		return nil, err
	}
	n := p.NumGroups()

	var out []Occurrence
	for {
		found, err := c.Find()
		if err != nil {
			return nil, err
		}
		if !found {
			return out, nil
		}
		occ := Occurrence{Start: c.Start(), End: c.End(), Groups: make([]string, n+1)}
		for i := 0; i <= n; i++ {
			if occ.Groups[i], err = c.Group(i); err != nil {
				return nil, err
			}
		}
		out = append(out, occ)
	}
}

// RemoveAllMatches deletes every occurrence from text.
func (s Strategy) RemoveAllMatches(text string) (string, error) {
	return s.ReplaceAllMatches(text, "")
}

// ReplaceAllMatches replaces every occurrence with template. Group references
// in template use the engine's syntax ($1 for both built-in engines).
func (s Strategy) ReplaceAllMatches(text, template string) (string, error) {
	p, err := s.compile()
	if err != nil {
		return "", err
	}
	return p.Replace(text, template)
}

// ReplaceAllMatchesFunc replaces every occurrence with repl(occurrence),
// calling repl once per occurrence in match order. Text between occurrences
// is copied unchanged. A nil repl leaves text as it is.
func (s Strategy) ReplaceAllMatchesFunc(text string, repl Replacement) (string, error) {
	_, c, err := s.recipe(text)
	if err != nil {
		return "", err
	}
	if repl == nil {
		repl = func(m string) string { return m }
	}

	var b strings.Builder
	b.Grow(len(text))

	w := runeWalker{s: text}
	last := 0
	for {
		found, err := c.Find()
		if err != nil {
			return "", err
		}
		if !found {
			break
		}
		start := w.byteAt(c.Start())
		end := w.byteAt(c.End())
		b.WriteString(text[last:start])
		b.WriteString(repl(text[start:end]))
		last = end
	}

	b.WriteString(text[last:])
	return b.String(), nil
}

// runeWalker maps ascending rune offsets to byte offsets in one forward
// pass. An invalid byte counts as one rune, as in a range loop.
type runeWalker struct {
	s            string
	bytes, runes int
}

func (w *runeWalker) byteAt(r int) int {
	for w.runes < r && w.bytes < len(w.s) {
		_, n := utf8.DecodeRuneInString(w.s[w.bytes:])
		w.bytes += n
		w.runes++
	}
	return w.bytes
}

// FirstIndexOf returns the rune offset of the first occurrence found by a
// search beginning at start, or NotFound. start must lie in
// [0, utf8.RuneCountInString(text)].
func (s Strategy) FirstIndexOf(text string, start int) (int, error) {
	_, c, err := s.recipe(text)
	if err != nil {
		return NotFound, err
	}
	if err := engine.CheckStart(start, utf8.RuneCountInString(text)); err != nil {
		return NotFound, err
	}

	found, err := c.FindFrom(start)
	if err != nil || !found {
		return NotFound, err
	}
	return c.Start(), nil
}

// Index returns the rune offset of the first occurrence in text, or NotFound.
func (s Strategy) Index(text string) (int, error) {
	return s.FirstIndexOf(text, 0)
}

// AllIndicesOf returns the rune offsets of every occurrence found by a search
// beginning at start, in increasing order.
func (s Strategy) AllIndicesOf(text string, start int) ([]int, error) {
	_, c, err := s.recipe(text)
	if err != nil {
		return nil, err
	}
	if err := engine.CheckStart(start, utf8.RuneCountInString(text)); err != nil {
		return nil, err
	}

	var out []int
	found, err := c.FindFrom(start)
	for ; found && err == nil; found, err = c.Find() {
		out = append(out, c.Start())
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Indices returns the rune offsets of every occurrence in text.
func (s Strategy) Indices(text string) ([]int, error) {
	return s.AllIndicesOf(text, 0)
}

// CountMatches returns the number of occurrences found by a search beginning
// at start. It always equals len(AllIndicesOf(text, start)).
func (s Strategy) CountMatches(text string, start int) (int, error) {
	idx, err := s.AllIndicesOf(text, start)
	if err != nil {
		return 0, err
	}
	return len(idx), nil
}

// Count returns the number of occurrences in text.
func (s Strategy) Count(text string) (int, error) {
	return s.CountMatches(text, 0)
}
