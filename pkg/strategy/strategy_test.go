package strategy

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/praetorian-inc/patternkit/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func engines() []engine.Engine {
	return []engine.Engine{engine.NewRegexp2(), engine.NewCoregex()}
}

func TestFromPattern_InvalidPatternFailsAtConstruction(t *testing.T) {
	for _, e := range engines() {
		t.Run(e.Name(), func(t *testing.T) {
			_, err := FromPattern(`([a-z]`, WithEngine(e))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPattern), "got %v", err)
		})
	}
}

func TestFromPattern_NilEngine(t *testing.T) {
	_, err := FromPattern(`a`, WithEngine(nil))
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func TestMustFromPattern_Panics(t *testing.T) {
	assert.Panics(t, func() { MustFromPattern(`(`) })
	assert.NotPanics(t, func() { MustFromPattern(`a`) })
}

func TestFromPattern_DefaultEngine(t *testing.T) {
	s := MustFromPattern(`\d+`)
	assert.Equal(t, engine.NameRegexp2, s.Engine().Name())
	assert.Equal(t, `\d+`, s.Pattern())
	assert.Equal(t, `\d+`, s.String())
	assert.False(t, s.Combined())
	assert.True(t, s.Valid())
}

func TestZeroStrategy(t *testing.T) {
	var s Strategy
	assert.False(t, s.Valid())

	_, err := s.MatchesAnyOf("abc")
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	_, err = OrElse(s, MustFromPattern(`a`))
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	_, err = Any()
	assert.True(t, errors.Is(err, ErrInvalidPattern))

	_, err = Any(s)
	assert.True(t, errors.Is(err, ErrInvalidPattern))
}

func TestOrElse_JoinsPatternText(t *testing.T) {
	a := MustFromPattern(`foo`)
	b := MustFromPattern(`bar`)

	s, err := OrElse(a, b)
	require.NoError(t, err)
	assert.Equal(t, `foo|bar`, s.Pattern())
	assert.True(t, s.Combined())

	left, right := s.Operands()
	assert.Equal(t, `foo`, left)
	assert.Equal(t, `bar`, right)

	// Operands are untouched.
	assert.Equal(t, `foo`, a.Pattern())
	assert.Equal(t, `bar`, b.Pattern())

	viaMethod, err := a.Or(b)
	require.NoError(t, err)
	assert.Equal(t, s.Pattern(), viaMethod.Pattern())
}

func TestOrElse_Associativity(t *testing.T) {
	a, b, c := MustFromPattern(`a(x)`), MustFromPattern(`b`), MustFromPattern(`c`)

	ab, err := OrElse(a, b)
	require.NoError(t, err)
	leftAssoc, err := OrElse(ab, c)
	require.NoError(t, err)

	bc, err := OrElse(b, c)
	require.NoError(t, err)
	rightAssoc, err := OrElse(a, bc)
	require.NoError(t, err)

	for _, text := range []string{"ax", "b", "c", "zzz", "cbax"} {
		l, err := leftAssoc.All(text)
		require.NoError(t, err)
		r, err := rightAssoc.All(text)
		require.NoError(t, err)
		assert.Equal(t, l, r, "text %q", text)
	}

	folded, err := Any(a, b, c)
	require.NoError(t, err)
	assert.Equal(t, leftAssoc.Pattern(), folded.Pattern())
}

func TestOrElse_GroupsRenumber(t *testing.T) {
	s, err := OrElse(MustFromPattern(`(a)(b)`), MustFromPattern(`(c)`))
	require.NoError(t, err)

	n, err := s.NumGroups()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, ok, err := s.FirstMatch("xc", 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "c", got)
}

func TestOrElse_EscapedAlternation(t *testing.T) {
	s, err := OrElse(MustFromPattern(`a`), MustFromPattern(`\|`))
	require.NoError(t, err)
	assert.Equal(t, `a|\|`, s.Pattern())

	got, err := s.All("a|b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "|"}, got)
}

func TestOrElse_UsesLeftEngine(t *testing.T) {
	a := MustFromPattern(`a`, WithEngine(engine.NewCoregex()))
	b := MustFromPattern(`b`)

	s, err := OrElse(a, b)
	require.NoError(t, err)
	assert.Equal(t, engine.NameCoregex, s.Engine().Name())
}

func TestOrElse_MatchSetIsUnion(t *testing.T) {
	a := MustFromPattern(`\d{3}`)
	b := MustFromPattern(`[xyz]+`)
	s, err := OrElse(a, b)
	require.NoError(t, err)

	texts := []string{"", "12", "123", "abc", "zz", "a1b2c3", "xx 999", "\n"}
	for _, text := range texts {
		got, err := s.MatchesAnyOf(text)
		require.NoError(t, err)
		inA, err := a.MatchesAnyOf(text)
		require.NoError(t, err)
		inB, err := b.MatchesAnyOf(text)
		require.NoError(t, err)
		assert.Equal(t, inA || inB, got, "text %q", text)
	}
}

func TestStrategy_ConcurrentUse(t *testing.T) {
	s := MustFromPattern(`(\w+)@(\w+)`)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := s.AllMatches("x@y z@w", 2)
			assert.NoError(t, err)
			assert.Equal(t, []string{"y", "w"}, got)
		}()
	}
	wg.Wait()
}

func TestStrategy_CatastrophicBacktracking(t *testing.T) {
	text := strings.Repeat("a", 40) + "!"

	t.Run("coregex is linear", func(t *testing.T) {
		s := MustFromPattern(`(a+)+$`, WithEngine(engine.NewCoregex()))
		ok, err := s.MatchesAnyOf(text)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("regexp2 is bounded by the match timeout", func(t *testing.T) {
		e := &engine.Regexp2{MatchTimeout: 50 * time.Millisecond}
		s := MustFromPattern(`(a+)+$`, WithEngine(e))
		ok, err := s.MatchesAnyOf(text)
		if err != nil {
			assert.True(t, errors.Is(err, ErrMatchTimeout), "got %v", err)
		}
		assert.False(t, ok)
	})
}
