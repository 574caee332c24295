package strategy

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const emailPattern = `\w+([-+.]\w+)*@\w+([-.]\w+)*\.\w+([-.]\w+)*`

func TestScenarios(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			digits := MustFromPattern(`\d+`, WithEngine(e))
			got, err := digits.All("a12b345c")
			require.NoError(t, err)
			assert.Equal(t, []string{"12", "345"}, got)

			email := MustFromPattern(emailPattern, WithEngine(e))
			ok, err := email.MatchesAllOf("user@example.com")
			require.NoError(t, err)
			assert.True(t, ok)
			ok, err = email.MatchesAllOf("not-an-email")
			require.NoError(t, err)
			assert.False(t, ok)

			cat := MustFromPattern(`cat`, WithEngine(e))
			out, err := cat.ReplaceAllMatchesFunc("cat and cats", strings.ToUpper)
			require.NoError(t, err)
			assert.Equal(t, "CAT and CATs", out)

			fooOrBar, err := OrElse(MustFromPattern(`foo`, WithEngine(e)), MustFromPattern(`bar`, WithEngine(e)))
			require.NoError(t, err)
			idx, err := fooOrBar.Indices("foobar")
			require.NoError(t, err)
			assert.Equal(t, []int{0, 3}, idx)

			pair := MustFromPattern(`(\w+)@(\w+)`, WithEngine(e))
			m, ok, err := pair.FirstMatch("x@y z@w", 2)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "y", m)

			n, err := MustFromPattern(`a`, WithEngine(e)).CountMatches("aaa", 1)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
		})
	}
}

func TestMatchesAllOf(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    bool
	}{
		{`\d+`, "2024", true},
		{`\d+`, "2024a", false},
		{`\d+`, "", false},
		{`\d*`, "", true},
		{`foo|foobar`, "foobar", true},
		{`[a-z]+`, "abc def", false},
		{`a|ab`, "ab", true},
		{`(a|ab)(c|bcd)`, "abcd", true},
		{`x*`, "xxy", false},
	}

	for _, e := range engines() {
		for _, tt := range tests {
			s := MustFromPattern(tt.pattern, WithEngine(e))
			got, err := s.MatchesAllOf(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%s: MatchesAllOf(%q, %q)", e.Name(), tt.pattern, tt.text)

			// The standard library agrees on every RE2-compatible pattern here.
			want := regexp.MustCompile(`^(?:` + tt.pattern + `)$`).MatchString(tt.text)
			assert.Equal(t, want, got, "%s: regexp disagrees on %q", e.Name(), tt.pattern)
		}
	}
}

func TestMatchesAllOf_ExtendedModeTrailingComment(t *testing.T) {
	s := MustFromPattern("(?x)abc # c")

	ok, err := s.MatchesAllOf("abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MatchesAllOf("abc # c")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesAnyOf(t *testing.T) {
	s := MustFromPattern(`\d`)

	ok, err := s.MatchesAnyOf("abc1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MatchesAnyOf("abc")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = s.MatchesAnyOf("")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFirstMatch(t *testing.T) {
	s := MustFromPattern(`(\w+)@(\w+)`)

	m, ok, err := s.First("mail x@y now")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x@y", m)

	m, ok, err = s.FirstMatch("nothing here", 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, m)
}

func TestFirstMatch_GroupOutOfRange(t *testing.T) {
	s := MustFromPattern(`(\w+)@(\w+)`)

	for _, group := range []int{-1, 3} {
		_, _, err := s.FirstMatch("x@y", group)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "group %d: got %v", group, err)

		// Reported even when nothing matches.
		_, _, err = s.FirstMatch("none", group)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "group %d: got %v", group, err)
	}
}

func TestAllMatches(t *testing.T) {
	s := MustFromPattern(`(\w+)@(\w+)`)

	got, err := s.AllMatches("x@y z@w", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "z"}, got)

	got, err = s.AllMatches("no mail", 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = s.AllMatches("x@y", 3)
	assert.True(t, errors.Is(err, ErrIndexOutOfRange))
}

func TestAllMatches_EmptyMatchesAdvance(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			s := MustFromPattern(`\d*`, WithEngine(e))
			got, err := s.All("ab")
			require.NoError(t, err)
			assert.Equal(t, []string{"", "", ""}, got)
		})
	}
}

func TestOccurrences(t *testing.T) {
	s := MustFromPattern(`(\w+)@(\w+)`)

	got, err := s.Occurrences("é x@y z@w")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, Occurrence{Start: 2, End: 5, Groups: []string{"x@y", "x", "y"}}, got[0])
	assert.Equal(t, Occurrence{Start: 6, End: 9, Groups: []string{"z@w", "z", "w"}}, got[1])

	got, err = s.Occurrences("none")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRemoveAllMatches(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		want    string
	}{
		{`\d+`, "a12b345c", "abc"},
		{`\s+`, " a  b ", "ab"},
		{`x`, "abc", "abc"},
		{`cat`, "", ""},
	}

	for _, e := range engines() {
		for _, tt := range tests {
			s := MustFromPattern(tt.pattern, WithEngine(e))
			got, err := s.RemoveAllMatches(tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "%s: RemoveAllMatches(%q, %q)", e.Name(), tt.pattern, tt.text)

			viaReplace, err := s.ReplaceAllMatches(tt.text, "")
			require.NoError(t, err)
			assert.Equal(t, viaReplace, got)

			again, err := s.RemoveAllMatches(got)
			require.NoError(t, err)
			assert.Equal(t, got, again, "removal is idempotent")
		}
	}
}

func TestReplaceAllMatches_Template(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			s := MustFromPattern(`(\w+)@(\w+)`, WithEngine(e))

			out, err := s.ReplaceAllMatches("x@y and z@w", "${2} at ${1}")
			require.NoError(t, err)
			assert.Equal(t, "y at x and w at z", out)

			out, err = s.ReplaceAllMatches("x@y", "<redacted>")
			require.NoError(t, err)
			assert.Equal(t, "<redacted>", out)
		})
	}
}

func TestReplaceAllMatchesFunc(t *testing.T) {
	s := MustFromPattern(`\d+`)

	var seen []string
	out, err := s.ReplaceAllMatchesFunc("a1b22c333", func(m string) string {
		seen = append(seen, m)
		return "<" + m + ">"
	})
	require.NoError(t, err)
	assert.Equal(t, "a<1>b<22>c<333>", out)
	assert.Equal(t, []string{"1", "22", "333"}, seen, "called once per match, in order")

	out, err = s.ReplaceAllMatchesFunc("no digits", func(string) string { return "X" })
	require.NoError(t, err)
	assert.Equal(t, "no digits", out)

	out, err = s.ReplaceAllMatchesFunc("a1", nil)
	require.NoError(t, err)
	assert.Equal(t, "a1", out)
}

func TestReplaceAllMatchesFunc_NonASCIIAndEmptyMatches(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			s := MustFromPattern(`ü+`, WithEngine(e))
			out, err := s.ReplaceAllMatchesFunc("grüüße aus München", strings.ToUpper)
			require.NoError(t, err)
			assert.Equal(t, "grÜÜße aus MÜnchen", out)

			empty := MustFromPattern(`x*`, WithEngine(e))
			out, err = empty.ReplaceAllMatchesFunc("ab", func(string) string { return "-" })
			require.NoError(t, err)
			assert.Equal(t, "-a-b-", out)
		})
	}
}

func TestFirstIndexOf(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			s := MustFromPattern(`b`, WithEngine(e))

			idx, err := s.Index("abcb")
			require.NoError(t, err)
			assert.Equal(t, 1, idx)

			idx, err = s.FirstIndexOf("abcb", 2)
			require.NoError(t, err)
			assert.Equal(t, 3, idx)

			idx, err = s.FirstIndexOf("abcb", 4)
			require.NoError(t, err)
			assert.Equal(t, NotFound, idx)

			idx, err = s.FirstIndexOf("ñandúb", 0)
			require.NoError(t, err)
			assert.Equal(t, 5, idx, "offsets count characters, not bytes")
		})
	}
}

func TestFirstIndexOf_StartOutOfRange(t *testing.T) {
	s := MustFromPattern(`b`)
	for _, start := range []int{-1, 5} {
		_, err := s.FirstIndexOf("abcb", start)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "start %d: got %v", start, err)

		_, err = s.AllIndicesOf("abcb", start)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "start %d: got %v", start, err)

		_, err = s.CountMatches("abcb", start)
		assert.True(t, errors.Is(err, ErrIndexOutOfRange), "start %d: got %v", start, err)
	}
}

func TestAllIndicesOf_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		text    string
		start   int
		want    []int
	}{
		{"match at offset zero", `a`, "abca", 0, []int{0, 3}},
		{"match ending at last character", `ca`, "abca", 0, []int{2}},
		{"start past first match", `a`, "abca", 1, []int{3}},
		{"start on a match", `a`, "abca", 3, []int{3}},
		{"start at end", `a`, "abca", 4, nil},
		{"no matches", `z`, "abca", 0, nil},
		{"adjacent matches", `a`, "aaa", 0, []int{0, 1, 2}},
		{"non-overlapping", `aa`, "aaaa", 0, []int{0, 2}},
		{"start splits a pair", `aa`, "aaaa", 1, []int{1}},
		{"empty text", `a`, "", 0, nil},
	}

	for _, e := range engines() {
		for _, tt := range tests {
			t.Run(e.Name()+"/"+tt.name, func(t *testing.T) {
				s := MustFromPattern(tt.pattern, WithEngine(e))

				got, err := s.AllIndicesOf(tt.text, tt.start)
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)

				n, err := s.CountMatches(tt.text, tt.start)
				require.NoError(t, err)
				assert.Equal(t, len(tt.want), n)

				for i := 1; i < len(got); i++ {
					assert.Greater(t, got[i], got[i-1], "strictly increasing")
				}
			})
		}
	}
}

func TestCount_EqualsLenAll(t *testing.T) {
	strategies := []Strategy{
		MustFromPattern(`\d+`),
		MustFromPattern(`[aeiou]`),
		MustFromPattern(emailPattern),
		MustFromPattern(`x*`),
		MustFromPattern(`\d+`, WithEngine(engine.NewCoregex())),
	}
	texts := []string{"", "a1 e22 i333", "user@example.com, a@b.co", "xxyxx", "ünïcödé 42"}

	for _, s := range strategies {
		for _, text := range texts {
			all, err := s.All(text)
			require.NoError(t, err)
			n, err := s.Count(text)
			require.NoError(t, err)
			assert.Equal(t, len(all), n, "pattern %q text %q", s.Pattern(), text)
		}
	}
}

func TestAssertions_AgreeAcrossEngines(t *testing.T) {
	tests := []struct {
		pattern string
		text    string
		indices []int
	}{
		{`^a`, "aaa", []int{0}},
		{`\ba`, "aaa", []int{0}},
		{`\ba\w*`, "ab ac", []int{0, 3}},
		{`\Ba`, "aaa", []int{1, 2}},
		{`(?m)^\w`, "ab\ncd", []int{0, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			var all [][]string
			var occs [][]Occurrence
			var replaced []string
			for _, e := range engines() {
				s := MustFromPattern(tt.pattern, WithEngine(e))

				idx, err := s.Indices(tt.text)
				require.NoError(t, err)
				assert.Equal(t, tt.indices, idx, e.Name())

				n, err := s.Count(tt.text)
				require.NoError(t, err)
				assert.Equal(t, len(tt.indices), n, e.Name())

				got, err := s.All(tt.text)
				require.NoError(t, err)
				all = append(all, got)

				occ, err := s.Occurrences(tt.text)
				require.NoError(t, err)
				occs = append(occs, occ)

				out, err := s.ReplaceAllMatchesFunc(tt.text, func(m string) string { return "<" + m + ">" })
				require.NoError(t, err)
				replaced = append(replaced, out)
			}
			assert.Equal(t, all[0], all[1])
			assert.Equal(t, occs[0], occs[1])
			assert.Equal(t, replaced[0], replaced[1])
		})
	}
}

func TestGroupBounds_AgreeAcrossEngines(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			s := MustFromPattern(`(\w+)@(\w+)`, WithEngine(e))

			n, err := s.NumGroups()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			_, _, err = s.FirstMatch("x@y", 3)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange), "got %v", err)

			_, err = s.AllMatches("x@y", 3)
			assert.True(t, errors.Is(err, ErrIndexOutOfRange), "got %v", err)

			got, err := s.AllMatches("x@y z@w", 2)
			require.NoError(t, err)
			assert.Equal(t, []string{"y", "w"}, got)

			occ, err := s.Occurrences("x@y")
			require.NoError(t, err)
			require.Len(t, occ, 1)
			assert.Equal(t, []string{"x@y", "x", "y"}, occ[0].Groups)
		})
	}
}

func TestReplaceAllMatches_GroupReferenceForms(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			s := MustFromPattern(`(\w+)@(\w+)`, WithEngine(e))

			for _, template := range []string{"${2}@${1}", "$2@$1"} {
				out, err := s.ReplaceAllMatches("x@y z@w", template)
				require.NoError(t, err)
				assert.Equal(t, "y@x w@z", out, "template %q", template)
			}
		})
	}

	// On coregex a name runs to the first non-word character, as in regexp.Expand.
	s := MustFromPattern(`(\w+)@(\w+)`, WithEngine(engine.NewCoregex()))
	out, err := s.ReplaceAllMatches("x@y z@w", "$1x")
	require.NoError(t, err)
	assert.Equal(t, " ", out)
}

func TestReplaceAllMatchesFunc_PreservesInvalidUTF8(t *testing.T) {
	text := "\xff cat \xfe"

	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			out, err := MustFromPattern(`dog`, WithEngine(e)).ReplaceAllMatchesFunc(text, strings.ToUpper)
			require.NoError(t, err)
			assert.Equal(t, text, out)

			out, err = MustFromPattern(`cat`, WithEngine(e)).ReplaceAllMatchesFunc(text, strings.ToUpper)
			require.NoError(t, err)
			assert.Equal(t, "\xff CAT \xfe", out)

			out, err = MustFromPattern(`cat`, WithEngine(e)).ReplaceAllMatchesFunc(text, nil)
			require.NoError(t, err)
			assert.Equal(t, text, out)
		})
	}
}
