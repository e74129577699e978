// Iteration support for for-in/for-of (spec §4.3 compileForInOf, shared
// OpGetIterator/OpIterNext pair): an iterator is represented as a
// generic object whose ExoticSlots.Data holds the enumeration state, so
// it can ride the bytecode stack like any other value without adding a
// new value.Type.
package vm

import "github.com/nginx/njs-go/internal/value"

type iterState struct {
	items []value.Value
	idx   int
}

func newIteratorValue(items []value.Value) value.Value {
	o := value.NewObject(value.Object)
	o.Slots = &value.ExoticSlots{Data: &iterState{items: items}}
	return value.FromObject(value.Object, o)
}

// GetIterator implements OpGetIterator: mode 1 builds the for-in
// enumeration (own, then inherited, enumerable string keys, first
// occurrence of a name wins per the usual shadowing rule); mode 0
// builds the for-of sequence (array elements in order, or a string's
// code points).
func (vm *VM) GetIterator(iterable value.Value, forIn bool) (value.Value, *Thrown) {
	if forIn {
		return newIteratorValue(vm.enumerableKeys(iterable)), nil
	}
	switch iterable.Type() {
	case value.Array, value.TypedArray:
		if iterable.Obj() == nil || iterable.Obj().Array == nil {
			return newIteratorValue(nil), nil
		}
		a := iterable.Obj().Array
		items := make([]value.Value, a.Length())
		for i := range items {
			if a.Values != nil {
				items[i] = a.Values[i]
			} else {
				v, _ := readTypedElement(a, i)
				items[i] = v
			}
		}
		return newIteratorValue(items), nil
	case value.String:
		s := iterable.Str().Bytes()
		var items []value.Value
		for _, r := range s {
			items = append(items, value.FromString(value.NewStr(string(r))))
		}
		return newIteratorValue(items), nil
	default:
		if iterable.IsObject() && iterable.Obj().Array != nil {
			a := iterable.Obj().Array
			items := append([]value.Value(nil), a.Values...)
			return newIteratorValue(items), nil
		}
		return value.Value{}, vm.ThrowError(TypeError, "%s is not iterable", ToStringNoThrow(iterable))
	}
}

func (vm *VM) enumerableKeys(v value.Value) []value.Value {
	if !v.IsObject() {
		return nil
	}
	seen := make(map[string]bool)
	var out []value.Value
	for o := v.Obj(); o != nil; o = o.Proto {
		for _, k := range OwnKeys(o, true) {
			name := ToStringNoThrow(k)
			if seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, k)
		}
	}
	return out
}

// IterNext implements OpIterNext: peeks the iterator (left on the
// stack for the next round) and either pushes the next item or reports
// exhaustion so the dispatch loop can take the loop-end jump.
func iterNext(it value.Value) (value.Value, bool) {
	if it.Obj() == nil || it.Obj().Slots == nil {
		return value.Value{}, false
	}
	st, ok := it.Obj().Slots.Data.(*iterState)
	if !ok || st.idx >= len(st.items) {
		return value.Value{}, false
	}
	v := st.items[st.idx]
	st.idx++
	return v, true
}
