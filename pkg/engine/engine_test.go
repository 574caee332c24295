package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends returns uncached instances of every engine so tests exercise the
// compilation path each time.
func backends() []Engine {
	return []Engine{NewRegexp2(), NewCoregex()}
}

func TestCompile_InvalidPattern(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			_, err := e.Compile(`(unclosed`)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)
			assert.Contains(t, err.Error(), "(unclosed")
		})
	}
}

func TestPattern_SourceAndGroups(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`(\w+)@(\w+)`)
			require.NoError(t, err)
			assert.Equal(t, `(\w+)@(\w+)`, p.Source())
			assert.Equal(t, 2, p.NumGroups())

			p, err = e.Compile(`abc`)
			require.NoError(t, err)
			assert.Equal(t, 0, p.NumGroups())
		})
	}
}

func TestCursor_FindWalksOccurrences(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`\d+`)
			require.NoError(t, err)

			c := p.Cursor("a12b345c")
			var got []string
			var starts, ends []int
			for {
				ok, err := c.Find()
				require.NoError(t, err)
				if !ok {
					break
				}
				g, err := c.Group(0)
				require.NoError(t, err)
				got = append(got, g)
				starts = append(starts, c.Start())
				ends = append(ends, c.End())
			}
			assert.Equal(t, []string{"12", "345"}, got)
			assert.Equal(t, []int{1, 4}, starts)
			assert.Equal(t, []int{3, 7}, ends)

			// Exhausted cursors stay exhausted.
			ok, err := c.Find()
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCursor_FindFrom(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`a`)
			require.NoError(t, err)

			c := p.Cursor("aaa")
			ok, err := c.FindFrom(1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 1, c.Start())

			ok, err = c.Find()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, c.Start())

			ok, err = c.Find()
			require.NoError(t, err)
			assert.False(t, ok)

			ok, err = c.FindFrom(3)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestCursor_FindFromOutOfRange(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`a`)
			require.NoError(t, err)

			for _, start := range []int{-1, 4} {
				_, err := p.Cursor("aaa").FindFrom(start)
				assert.True(t, errors.Is(err, ErrIndexOutOfRange), "start %d: got %v", start, err)
			}
		})
	}
}

func TestCursor_RuneOffsets(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`x`)
			require.NoError(t, err)

			// "é" and "ü" are two bytes each in UTF-8.
			c := p.Cursor("éüx-x")
			ok, err := c.Find()
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 2, c.Start())
			assert.Equal(t, 3, c.End())

			ok, err = c.FindFrom(3)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 4, c.Start())
		})
	}
}

func TestCursor_Group(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`(\w+)@(\w+)(!)?`)
			require.NoError(t, err)

			c := p.Cursor("x@y z@w")
			_, err = c.Group(0)
			assert.Error(t, err, "group before any match")

			ok, err := c.Find()
			require.NoError(t, err)
			require.True(t, ok)

			g, err := c.Group(2)
			require.NoError(t, err)
			assert.Equal(t, "y", g)

			g, err = c.Group(3)
			require.NoError(t, err)
			assert.Equal(t, "", g, "non-participating group")

			_, err = c.Group(4)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange))
			_, err = c.Group(-1)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange))
		})
	}
}

func TestCursor_EmptyMatchesAdvance(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`x*`)
			require.NoError(t, err)

			c := p.Cursor("abc")
			var starts []int
			for i := 0; i < 10; i++ {
				ok, err := c.Find()
				require.NoError(t, err)
				if !ok {
					break
				}
				starts = append(starts, c.Start())
			}
			assert.Equal(t, []int{0, 1, 2, 3}, starts)
		})
	}
}

func TestPattern_MatchEntire(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    bool
	}{
		{`\d+`, "12345", true},
		{`\d+`, "123a", false},
		{`\d+`, "a123", false},
		{`a|ab`, "ab", true}, // leftmost alternative alone would stop at "a"
		{`cat`, "cat\n", false},
		{`(?i)cat`, "CAT", true},
		{``, "", true},
	}

	for _, e := range backends() {
		for _, tt := range tests {
			p, err := e.Compile(tt.pattern)
			require.NoError(t, err)
			got, err := p.MatchEntire(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%s: MatchEntire(%q, %q)", e.Name(), tt.pattern, tt.text)
		}
	}
}

func TestPattern_Replace(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`(\w+)@(\w+)`)
			require.NoError(t, err)

			out, err := p.Replace("x@y z@w", "${2}@${1}")
			require.NoError(t, err)
			assert.Equal(t, "y@x w@z", out)

			out, err = p.Replace("x@y z@w", "")
			require.NoError(t, err)
			assert.Equal(t, " ", out)
		})
	}
}

func TestPattern_NumGroupsBoundsCursorGroups(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`(\w+)@(\w+)`)
			require.NoError(t, err)
			require.Equal(t, 2, p.NumGroups())

			c := p.Cursor("x@y")
			ok, err := c.Find()
			require.NoError(t, err)
			require.True(t, ok)

			g, err := c.Group(p.NumGroups())
			require.NoError(t, err)
			assert.Equal(t, "y", g)

			_, err = c.Group(p.NumGroups() + 1)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange), "got %v", err)
		})
	}
}

// starts collects the start offset of every occurrence of pattern in text.
func starts(t *testing.T, p Pattern, text string) []int {
	t.Helper()
	c := p.Cursor(text)
	var out []int
	for {
		ok, err := c.Find()
		require.NoError(t, err)
		if !ok {
			return out
		}
		out = append(out, c.Start())
	}
}

func TestCursor_AssertionsSeePrecedingText(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    []int
	}{
		{`^a`, "aaa", []int{0}},
		{`\ba`, "aaa", []int{0}},
		{`\Ba`, "aaa", []int{1, 2}},
		{`a$`, "aaa", []int{2}},
		{`(?m)^a`, "a\na", []int{0, 2}},
		{`\bcat\b`, "cat concat cat", []int{0, 11}},
		{`^`, "a", []int{0}},
		{`\b`, "ab c!", []int{0, 2, 3, 4}},
		{`\B`, "ab", []int{1}},
	}

	for _, e := range backends() {
		for _, tt := range tests {
			p, err := e.Compile(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, starts(t, p, tt.text), "%s: %q over %q", e.Name(), tt.pattern, tt.text)
		}
	}
}

func TestCursor_FindFromKeepsPrecedingText(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`^a`)
			require.NoError(t, err)
			ok, err := p.Cursor("aaa").FindFrom(1)
			require.NoError(t, err)
			assert.False(t, ok, "^ only holds at offset zero")

			p, err = e.Compile(`\ba`)
			require.NoError(t, err)
			c := p.Cursor("aa a")
			ok, err = c.FindFrom(1)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 3, c.Start())
		})
	}
}

func TestCursor_RuneOffsetsAcrossManyMatches(t *testing.T) {
	text := strings.Repeat("é-x ", 500)

	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`x`)
			require.NoError(t, err)

			c := p.Cursor(text)
			n := 0
			for {
				ok, err := c.Find()
				require.NoError(t, err)
				if !ok {
					break
				}
				require.Equal(t, 2+4*n, c.Start(), "occurrence %d", n)
				require.Equal(t, 3+4*n, c.End(), "occurrence %d", n)
				n++
			}
			assert.Equal(t, 500, n)

			ok, err := c.FindFrom(1001)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, 1002, c.Start())
		})
	}
}

func TestPattern_ReplaceGroupReferences(t *testing.T) {
	for _, e := range backends() {
		t.Run(e.Name(), func(t *testing.T) {
			p, err := e.Compile(`(?P<user>\w+)@(?P<host>\w+)`)
			require.NoError(t, err)

			for template, want := range map[string]string{
				"${2}@${1}": "y@x w@z",
				"$2@$1":     "y@x w@z",
				"${host}":   "y w",
				"$$":        "$ $",
				"[$0]":      "[x@y] [z@w]",
			} {
				out, err := p.Replace("x@y z@w", template)
				require.NoError(t, err)
				assert.Equal(t, want, out, "template %q", template)
			}
		})
	}
}

func TestCoregex_ReplaceUsesGoExpandRules(t *testing.T) {
	p, err := NewCoregex().Compile(`(\w+)@(\w+)`)
	require.NoError(t, err)

	// $1x refers to a group named "1x", which does not exist.
	out, err := p.Replace("x@y z@w", "$1x")
	require.NoError(t, err)
	assert.Equal(t, " ", out)

	out, err = p.Replace("x@y z@w", "${1}x")
	require.NoError(t, err)
	assert.Equal(t, "xx zx", out)

	out, err = p.Replace("é x@y", "<$2>")
	require.NoError(t, err)
	assert.Equal(t, "é <y>", out)

	out, err = p.Replace("nothing", "$1")
	require.NoError(t, err)
	assert.Equal(t, "nothing", out)
}

func TestCoregex_ConcurrentSearches(t *testing.T) {
	p, err := NewCoregex().Compile(`(\d+)-(\d+)`)
	require.NoError(t, err)

	text := strings.Repeat("12-34 ", 50)
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := p.Cursor(text)
			n := 0
			for {
				ok, err := c.Find()
				if err != nil {
					errs <- err
					return
				}
				if !ok {
					break
				}
				n++
			}
			if n != 50 {
				errs <- errors.New("wrong occurrence count")
			}
			if _, err := p.MatchEntire("12-34"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestRegexp2_MatchEntireExtendedMode(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    bool
	}{
		{"(?x)abc # trailing comment", "abc", true},
		{"(?x) a b c ", "abc", true},
		{"(?x)abc # c", "abcd", false},
		{"(?x:a b)#c", "ab#c", true},
		{"a#b", "a#b", true},
	}

	for _, tt := range tests {
		p, err := NewRegexp2().Compile(tt.pattern)
		require.NoError(t, err)
		got, err := p.MatchEntire(tt.text)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "MatchEntire(%q, %q)", tt.pattern, tt.text)
	}
}

func TestExtendedAtEnd(t *testing.T) {
	tests := []struct {
		pattern string
		want    bool
	}{
		{`abc`, false},
		{`(?x)abc`, true},
		{`(?ix)abc # c`, true},
		{`(?x:abc)`, false},
		{`(?x)a(?-x)b`, false},
		{`[(?x)]`, false},
		{`\(?x)`, false},
		{`(?#x)abc`, false},
		{`(a(?x)b)c`, false},
		{`(?x)a # (?-x)`, true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extendedAtEnd(tt.pattern), "extendedAtEnd(%q)", tt.pattern)
	}
}

func TestRegexp2_PerlSyntaxFallback(t *testing.T) {
	p, err := NewRegexp2().Compile(`(?<=\$)\d+`)
	require.NoError(t, err)

	c := p.Cursor("cost: $42")
	ok, err := c.Find()
	require.NoError(t, err)
	require.True(t, ok)
	g, err := c.Group(0)
	require.NoError(t, err)
	assert.Equal(t, "42", g)

	_, err = NewCoregex().Compile(`(?<=\$)\d+`)
	assert.True(t, errors.Is(err, ErrInvalidPattern), "coregex has no lookbehind")
}

func TestLookup(t *testing.T) {
	e, err := Lookup("")
	require.NoError(t, err)
	assert.Equal(t, NameRegexp2, e.Name())
	assert.Same(t, Default(), e)

	e, err = Lookup("CoRegex")
	require.NoError(t, err)
	assert.Equal(t, NameCoregex, e.Name())

	_, err = Lookup("pcre")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "regexp2")
}
