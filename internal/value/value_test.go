package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTruthMatchesToBoolean(t *testing.T) {
	require.False(t, Null_().Truth())
	require.False(t, Undefined_().Truth())
	require.True(t, Bool(true).Truth())
	require.False(t, Bool(false).Truth())
	require.True(t, Num(1).Truth())
	require.False(t, Num(0).Truth())
	require.False(t, Num(math.NaN()).Truth())
	require.True(t, FromString(NewStr("a")).Truth())
	require.False(t, FromString(NewStr("")).Truth())
	require.True(t, FromObject(Object, NewObject(Object)).Truth())
}

func TestTypeOrderingCoarseClasses(t *testing.T) {
	require.True(t, Null_().IsNullOrUndefined())
	require.True(t, Undefined_().IsNullOrUndefined())
	require.False(t, Bool(true).IsNullOrUndefined())

	require.True(t, Bool(true).IsNullOrUndefinedOrBoolean())
	require.False(t, Num(1).IsNullOrUndefinedOrBoolean())

	require.True(t, Num(1).IsNumeric())
	require.False(t, FromString(NewStr("x")).IsNumeric())

	require.True(t, FromString(NewStr("x")).IsPrimitive())
	require.False(t, FromObject(Object, NewObject(Object)).IsPrimitive())

	require.True(t, FromObject(Array, NewObject(Array)).IsObject())
	require.False(t, Num(1).IsObject())
}

func TestStrictEqualityPrimitives(t *testing.T) {
	require.True(t, Equal(Num(1), Num(1)))
	require.False(t, Equal(Num(1), Num(2)))
	require.True(t, Equal(FromString(NewStr("a")), FromString(NewStr("a"))))
	require.False(t, Equal(Null_(), Undefined_()))
	require.True(t, Equal(Bool(true), Bool(true)))
}

func TestObjectIdentityEquality(t *testing.T) {
	o1 := NewObject(Object)
	o2 := NewObject(Object)
	require.True(t, Equal(FromObject(Object, o1), FromObject(Object, o1)))
	require.False(t, Equal(FromObject(Object, o1), FromObject(Object, o2)))
}
