package value

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShortLongStringEquivalence(t *testing.T) {
	short := NewStr("hello") // 5 bytes, short
	require.True(t, short.IsShort())

	longStr := NewStr(strings.Repeat("x", 40))
	require.False(t, longStr.IsShort())
	require.Equal(t, 40, longStr.Length())

	// Same byte sequence, one built short one built long via padding
	// trimmed back down: ToString/length must agree (spec 8.1).
	a := NewStr("hi")
	b := NewStr("hi" + strings.Repeat("!", 20))
	bTrimmed := b.Slice(0, 2)
	require.Equal(t, a.Bytes(), bTrimmed.Bytes())
	require.Equal(t, a.Length(), bTrimmed.Length())
}

func TestOffsetMapSliceOnMultibyteString(t *testing.T) {
	// 100 two-byte code points so the offset map has multiple strides.
	s := NewStr(strings.Repeat("é", 100))
	require.Equal(t, 100, s.Length())
	sub := s.Slice(32, 64)
	require.Equal(t, 32, sub.Length())
	require.Equal(t, strings.Repeat("é", 32), sub.Bytes())
}

func TestToNumberRules(t *testing.T) {
	cases := map[string]float64{
		"":          0,
		"   ":       0,
		"42":        42,
		"  42  ":    42,
		"-42":       -42,
		"+42":       42,
		"0x2a":      42,
		"0o52":      42,
		"0b101010":  42,
		"Infinity":  math.Inf(1),
		"-Infinity": math.Inf(-1),
		"abc":       math.NaN(),
		"12abc":     math.NaN(),
	}
	for in, want := range cases {
		got := NewStr(in).ToNumber()
		if math.IsNaN(want) {
			require.True(t, math.IsNaN(got), "input %q", in)
			continue
		}
		require.Equal(t, want, got, "input %q", in)
	}
}

func TestParseFloatToStringLaw(t *testing.T) {
	// parseFloat(toString(n)) === n for finite, non -0 numbers (spec 8.2).
	for _, n := range []float64{0, 1, -1, 55, 3.14159, 1e21, -42, 4} {
		s := NumberToString(n)
		got, err := strconv.ParseFloat(s, 64)
		require.NoError(t, err)
		require.Equal(t, n, got)
	}
}

func TestConcatLengthValidity(t *testing.T) {
	a := NewStr("ab")
	a.Length() // force cache
	b := NewStr("cd")
	b.Length()
	c := Concat(a, b)
	require.Equal(t, "abcd", c.Bytes())
	require.Equal(t, 4, c.length)
}

func TestRetainCounting(t *testing.T) {
	s := NewStr(strings.Repeat("z", 20))
	require.EqualValues(t, 1, s.RetainCount())
	s.Retain()
	require.EqualValues(t, 2, s.RetainCount())
	s.Release()
	require.EqualValues(t, 1, s.RetainCount())

	p := NewPermanentStr(strings.Repeat("z", 20))
	require.EqualValues(t, 0xffff, p.RetainCount())
	p.Retain()
	require.EqualValues(t, 0xffff, p.RetainCount())
}
