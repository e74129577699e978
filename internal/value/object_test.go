package value

import (
	"testing"

	"github.com/nginx/njs-go/internal/atom"
	"github.com/stretchr/testify/require"
)

func key(tbl *atom.Table, name string) (atom.ID, Value) {
	return tbl.Intern(name), FromString(NewStr(name))
}

func put(h *FlatHash, id atom.ID, name Value, v Value) {
	h.Put(Property{
		NameAtom:     id,
		Name:         name,
		Kind:         PropData,
		Writable:     AttrTrue,
		Enumerable:   AttrTrue,
		Configurable: AttrTrue,
		Value:        v,
	}, false)
}

func TestPropertyOrderInsertionPreserved(t *testing.T) {
	tbl := atom.New()
	h := NewFlatHash()
	ka, va := key(tbl, "a")
	kb, vb := key(tbl, "b")
	kc, vc := key(tbl, "c")
	put(h, ka, va, Num(1))
	put(h, kb, vb, Num(2))
	put(h, kc, vc, Num(3))

	keys := h.Keys(true)
	require.Len(t, keys, 3)
	require.Equal(t, "a", keys[0].Str().Bytes())
	require.Equal(t, "b", keys[1].Str().Bytes())
	require.Equal(t, "c", keys[2].Str().Bytes())
}

// TestWhiteoutRoundTrip implements spec 8.3 scenario 2 at the FlatHash
// level: delete o.b then reinsert o.b must produce "a,c,b" order,
// matching the spec's Whiteout round-trip invariant (8.1).
func TestWhiteoutRoundTrip(t *testing.T) {
	tbl := atom.New()
	h := NewFlatHash()
	ka, va := key(tbl, "a")
	kb, vb := key(tbl, "b")
	kc, vc := key(tbl, "c")
	put(h, ka, va, Num(1))
	put(h, kb, vb, Num(2))
	put(h, kc, vc, Num(3))

	require.True(t, h.Delete(kb))
	// o.b = 2, reinsert: the object protocol's set path passes forceTail
	// when the own slot is a whiteout (object_protocol.go setProperty).
	h.Put(Property{
		NameAtom: kb, Name: vb, Kind: PropData,
		Writable: AttrTrue, Enumerable: AttrTrue, Configurable: AttrTrue,
		Value: Num(2),
	}, true)

	var order []string
	for _, k := range h.Keys(true) {
		order = append(order, k.Str().Bytes())
	}
	require.Equal(t, []string{"a", "c", "b"}, order)
}

func TestDeletedKeyInvisibleUntilReinserted(t *testing.T) {
	tbl := atom.New()
	h := NewFlatHash()
	ka, va := key(tbl, "a")
	put(h, ka, va, Num(1))
	h.Delete(ka)
	_, ok := h.Get(ka)
	require.False(t, ok)
	require.Equal(t, 0, h.Len())
}

func TestFlatHashCloneIsIndependent(t *testing.T) {
	tbl := atom.New()
	h := NewFlatHash()
	ka, va := key(tbl, "a")
	put(h, ka, va, Num(1))

	c := h.Clone()
	put(c, ka, va, Num(2))

	orig, _ := h.Get(ka)
	cloned, _ := c.Get(ka)
	require.Equal(t, float64(1), orig.Value.NumberValue())
	require.Equal(t, float64(2), cloned.Value.NumberValue())
}
