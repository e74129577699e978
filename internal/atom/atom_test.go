package atom

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternIsIdempotent(t *testing.T) {
	tbl := New()
	a := tbl.Intern("foo")
	b := tbl.Intern("foo")
	require.Equal(t, a, b)
}

func TestDistinctNamesGetDistinctIDs(t *testing.T) {
	tbl := New()
	a := tbl.Intern("foo")
	b := tbl.Intern("bar")
	require.NotEqual(t, a, b)
}

func TestBuiltinNamesComeFromSharedTable(t *testing.T) {
	tbl := New()
	id := tbl.Intern("length")
	require.EqualValues(t, 0, uint32(id)%2, "builtin atoms must be even (shared)")
	name, ok := tbl.Name(id)
	require.True(t, ok)
	require.Equal(t, "length", name)
}

func TestPerVMNamesAreOddAndRoundTripInEachVM(t *testing.T) {
	tbl1 := New()
	tbl2 := New()
	id1 := tbl1.Intern("myCustomVar")
	id2 := tbl2.Intern("myCustomVar")

	require.EqualValues(t, 1, uint32(id1)%2, "per-VM atoms must be odd")
	// Two VMs intern the same fresh name independently; within a single
	// VM the same string always round-trips to the same atom (spec
	// 8.1 "Atom identity"), but the spec makes no promise across VMs.
	name, ok := tbl1.Name(id1)
	require.True(t, ok)
	require.Equal(t, "myCustomVar", name)
	name2, ok := tbl2.Name(id2)
	require.True(t, ok)
	require.Equal(t, "myCustomVar", name2)
}

func TestSameBytesSameAtomWithinVM(t *testing.T) {
	tbl := New()
	a := tbl.Intern("abc")
	b := tbl.Intern(string([]byte{'a', 'b', 'c'}))
	require.Equal(t, a, b)
}
