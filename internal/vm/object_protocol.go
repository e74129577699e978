// Object protocol: property query/define/delete state machine,
// prototype-chain walk, array/string fast paths, and the shared->own
// copy-on-write procedure (spec §4.4). Grounded on
// original_source/njs/src/njs_object_property.c's get/set/delete
// ordering, reproduced here as plain Go methods instead of the
// original's single dispatch function with a mode parameter (spec
// §4.4's "query(value, key, kind)" collapses naturally into three
// typed Go methods — an implementation choice, not a semantic change).
package vm

import (
	"strconv"

	"github.com/nginx/njs-go/internal/atom"
	"github.com/nginx/njs-go/internal/value"
)

// arrayIndexOf reports whether key denotes a canonical array index
// (spec §4.4 step 1 "key is a number that is an integer index").
func arrayIndexOf(key value.Value) (int, bool) {
	switch key.Type() {
	case value.Number:
		n := key.NumberValue()
		if n < 0 || n != float64(int64(n)) || n > 1<<31 {
			return 0, false
		}
		return int(n), true
	case value.String:
		s := key.Str().Bytes()
		if s == "" {
			return 0, false
		}
		if s == "0" {
			return 0, true
		}
		if s[0] == '0' {
			return 0, false
		}
		for _, c := range s {
			if c < '0' || c > '9' {
				return 0, false
			}
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// keyToAtom interns a property key Value (string or symbol) as an atom
// ID for the hash-lookup fallback path.
func (vm *VM) keyToAtom(key value.Value) (atom.ID, *Thrown) {
	if key.Type() == value.Symbol {
		return atom.ID(key.Sym().AtomID), nil
	}
	sv, err := vm.ToStringValue(key)
	if err != nil {
		return 0, err
	}
	return vm.atom(sv.Str().Bytes()), nil
}

// GetPropertyByName resolves a dotted/member access known at compile
// time (OpGetProp operand is an atom id already; this variant is for
// callers, like ToPrimitive, that only have the name).
func (vm *VM) GetPropertyByName(receiver value.Value, name string) (value.Value, *Thrown) {
	return vm.GetPropertyByID(receiver, vm.atom(name))
}

// GetPropertyByID implements a non-computed member read (`obj.prop`).
func (vm *VM) GetPropertyByID(receiver value.Value, id atom.ID) (value.Value, *Thrown) {
	return vm.getProperty(receiver, id, 0, false)
}

// GetElem implements a computed member read (`obj[key]`), detecting
// the array-index fast path from the key's actual value rather than
// its stringified atom (spec §4.4 step 1).
func (vm *VM) GetElem(receiver, key value.Value) (value.Value, *Thrown) {
	if idx, ok := arrayIndexOf(key); ok {
		return vm.getProperty(receiver, 0, idx, true)
	}
	id, err := vm.keyToAtom(key)
	if err != nil {
		return value.Value{}, err
	}
	return vm.getProperty(receiver, id, 0, false)
}

func (vm *VM) getProperty(receiver value.Value, id atom.ID, idx int, hasIdx bool) (value.Value, *Thrown) {
	lengthAtom := vm.atom("length")

	switch receiver.Type() {
	case value.Null, value.Undefined:
		name, _ := vm.Atoms.Name(id)
		if hasIdx {
			name = strconv.Itoa(idx)
		}
		return value.Value{}, vm.ThrowError(TypeError, "cannot read properties of %s (reading '%s')", ToStringNoThrow(receiver), name)
	case value.String:
		s := receiver.Str()
		if hasIdx {
			if idx >= 0 && idx < s.Length() {
				return value.FromString(s.Slice(idx, idx+1)), nil
			}
			return value.Undefined_(), nil
		}
		if id == lengthAtom {
			return value.Num(float64(s.Length())), nil
		}
		return vm.lookupChain(vm.protos.String, receiver, id, idx, hasIdx)
	}

	if !receiver.IsObject() {
		proto := vm.protoForPrimitive(receiver)
		if proto == nil {
			return value.Undefined_(), nil
		}
		return vm.lookupChain(proto, receiver, id, idx, hasIdx)
	}

	obj := receiver.Obj()
	if id == lengthAtom && !hasIdx {
		if obj.Type == value.TypedArray && obj.Array != nil {
			return value.Num(float64(obj.Array.Length())), nil
		}
		if obj.Type == value.Array && obj.FastArray && obj.Array != nil {
			return value.Num(float64(obj.Array.Length())), nil
		}
		// A demoted array's "length" is an ordinary own property, found
		// below by lookupChain instead (spec §4.4 "Fast-array promotion").
	}
	if hasIdx && obj.Array != nil && obj.FastArray {
		if idx >= 0 && idx < len(obj.Array.Values) {
			return obj.Array.Values[idx], nil
		}
		if obj.Type == value.TypedArray {
			return value.Undefined_(), nil
		}
	}
	if hasIdx && obj.Type == value.TypedArray && obj.Array != nil {
		if v, ok := readTypedElement(obj.Array, idx); ok {
			return v, nil
		}
		return value.Undefined_(), nil
	}
	return vm.lookupChain(obj, receiver, id, idx, hasIdx)
}

// lookupChain walks the prototype chain from start, checking each
// link's own hash then its shared hash (spec §4.4 resolution order
// steps 2-3).
func (vm *VM) lookupChain(start *value.Object, receiver value.Value, id atom.ID, idx int, hasIdx bool) (value.Value, *Thrown) {
	if hasIdx {
		id = vm.atom(strconv.Itoa(idx))
	}
	for p := start; p != nil; p = p.Proto {
		if p.Array != nil && p.FastArray && hasIdx && idx >= 0 && idx < len(p.Array.Values) {
			return p.Array.Values[idx], nil
		}
		if p.Hash != nil {
			if prop, ok := p.Hash.Get(id); ok {
				return vm.readProperty(prop, receiver)
			}
		}
		if p.SharedHash != nil {
			if prop, ok := p.SharedHash.Get(id); ok {
				return vm.readProperty(prop, receiver)
			}
		}
		if p.Slots != nil && p.Slots.Get != nil {
			if v, ok, err := p.Slots.Get(p, receiver); err != nil {
				return value.Value{}, Throw(value.FromString(value.NewStr(err.Error())))
			} else if ok {
				return v, nil
			}
		}
	}
	return value.Undefined_(), nil
}

func (vm *VM) readProperty(prop *value.Property, receiver value.Value) (value.Value, *Thrown) {
	switch prop.Kind {
	case value.PropAccessor:
		if prop.Accessor.Getter == nil {
			return value.Undefined_(), nil
		}
		getter := value.FromObject(value.Function, prop.Accessor.Getter)
		return vm.CallValue(getter, receiver, nil, nil)
	case value.PropHandler:
		v, err := prop.Handler(receiver.Obj(), value.HandlerGet, value.Value{})
		if err != nil {
			return value.Value{}, Throw(value.FromString(value.NewStr(err.Error())))
		}
		return v, nil
	default:
		return prop.Value, nil
	}
}

// protoForPrimitive returns the built-in prototype backing property
// reads on a boxed primitive (Number/Boolean/Symbol); strings are
// handled directly in getProperty for their length/index fast path.
func (vm *VM) protoForPrimitive(v value.Value) *value.Object {
	switch v.Type() {
	case value.Number:
		return vm.protos.Number
	case value.Boolean:
		return vm.protos.Boolean
	case value.Symbol:
		return vm.protos.Symbol
	default:
		return nil
	}
}

// SetPropertyByID implements a non-computed member write (`obj.prop =
// v`).
func (vm *VM) SetPropertyByID(receiver value.Value, id atom.ID, val value.Value) *Thrown {
	return vm.setProperty(receiver, id, 0, false, val)
}

// SetElem implements a computed member write (`obj[key] = v`).
func (vm *VM) SetElem(receiver, key, val value.Value) *Thrown {
	if idx, ok := arrayIndexOf(key); ok {
		return vm.setProperty(receiver, 0, idx, true, val)
	}
	id, err := vm.keyToAtom(key)
	if err != nil {
		return err
	}
	return vm.setProperty(receiver, id, 0, false, val)
}

func (vm *VM) setProperty(receiver value.Value, id atom.ID, idx int, hasIdx bool, val value.Value) *Thrown {
	if !receiver.IsObject() {
		if receiver.IsNullOrUndefined() {
			name, _ := vm.Atoms.Name(id)
			return vm.ThrowError(TypeError, "cannot set properties of %s (setting '%s')", ToStringNoThrow(receiver), name)
		}
		return nil // primitive receiver: silent no-op (non-strict)
	}
	obj := receiver.Obj()
	lengthAtom := vm.atom("length")

	if obj.Array != nil && (obj.Type == value.Array || obj.Type == value.TypedArray) {
		if hasIdx {
			return vm.setArrayIndex(obj, idx, val)
		}
		if id == lengthAtom && obj.Type == value.Array && obj.FastArray {
			return vm.setArrayLength(obj, val)
		}
	}

	if hasIdx {
		id = vm.atom(strconv.Itoa(idx))
	}

	// Walk the chain looking for an existing accessor or a
	// non-writable data property that must intercept the write (spec
	// §4.4 set steps 1-2), tracking whether the own slot (if any) was
	// a whiteout (step 3).
	ownWhiteout := false
	for p := obj; p != nil; p = p.Proto {
		if p.Hash != nil {
			if prop, ok := p.Hash.GetWithWhiteout(id); ok {
				if prop.Kind == value.PropWhiteout {
					if p == obj {
						ownWhiteout = true
					}
				} else if p == obj {
					return vm.writeOwnProperty(obj, prop, receiver, val)
				} else if prop.Kind == value.PropAccessor {
					if prop.Accessor.Setter == nil {
						return nil
					}
					setter := value.FromObject(value.Function, prop.Accessor.Setter)
					_, err := vm.CallValue(setter, receiver, []value.Value{val}, nil)
					return err
				} else if prop.Writable == value.AttrFalse {
					return nil
				}
				break
			}
		}
		if p.SharedHash != nil {
			if prop, ok := p.SharedHash.Get(id); ok {
				if p == obj {
					return vm.privateCopyWrite(obj, prop, val)
				}
				if prop.Kind == value.PropAccessor {
					if prop.Accessor.Setter == nil {
						return nil
					}
					setter := value.FromObject(value.Function, prop.Accessor.Setter)
					_, err := vm.CallValue(setter, receiver, []value.Value{val}, nil)
					return err
				}
				if prop.Writable == value.AttrFalse {
					return nil
				}
				break
			}
		}
		if p.Slots != nil && p.Slots.Set != nil && p == obj {
			if err := p.Slots.Set(p, value.Value{}, val); err != nil {
				return Throw(value.FromString(value.NewStr(err.Error())))
			}
			return nil
		}
	}

	if !obj.Extensible {
		return nil
	}
	obj.PrivateCopy()
	var nameVal value.Value
	if hasIdx {
		nameVal = value.FromString(value.NewStr(strconv.Itoa(idx)))
	} else if name, ok := vm.Atoms.Name(id); ok {
		nameVal = value.FromString(value.NewStr(name))
	}
	obj.Hash.Put(value.Property{
		NameAtom:     id,
		Name:         nameVal,
		Kind:         value.PropData,
		Writable:     value.AttrTrue,
		Enumerable:   value.AttrTrue,
		Configurable: value.AttrTrue,
		Value:        val,
	}, ownWhiteout)
	return nil
}

func (vm *VM) writeOwnProperty(obj *value.Object, prop *value.Property, receiver, val value.Value) *Thrown {
	switch prop.Kind {
	case value.PropAccessor:
		if prop.Accessor.Setter == nil {
			return nil
		}
		setter := value.FromObject(value.Function, prop.Accessor.Setter)
		_, err := vm.CallValue(setter, receiver, []value.Value{val}, nil)
		return err
	case value.PropHandler:
		_, err := prop.Handler(obj, value.HandlerSet, val)
		if err != nil {
			return Throw(value.FromString(value.NewStr(err.Error())))
		}
		return nil
	case value.PropRef, value.PropPlaceRef, value.PropTypedArrayRef:
		if prop.Ref != nil && prop.Ref.Array != nil && prop.Ref.Array.Array != nil {
			if prop.Ref.Index >= 0 && prop.Ref.Index < len(prop.Ref.Array.Array.Values) {
				prop.Ref.Array.Array.Values[prop.Ref.Index] = val
			}
		}
		prop.Value = val
		return nil
	default:
		if prop.Writable == value.AttrFalse {
			return nil
		}
		prop.Value = val
		return nil
	}
}

// privateCopyWrite implements the "first write to a shared property"
// procedure (spec §3.6, §4.4 step 5): clone the shared property into
// obj's own hash, applying the new value, so later reads from this VM
// observe the write while SharedHash (and any sibling still consulting
// it) is untouched.
func (vm *VM) privateCopyWrite(obj *value.Object, shared *value.Property, val value.Value) *Thrown {
	if shared.Kind == value.PropAccessor {
		if shared.Accessor.Setter == nil {
			return nil
		}
		setter := value.FromObject(value.Function, shared.Accessor.Setter)
		_, err := vm.CallValue(setter, value.FromObject(obj.Type, obj), []value.Value{val}, nil)
		return err
	}
	if shared.Writable == value.AttrFalse {
		return nil
	}
	obj.PrivateCopy()
	own := *shared
	own.Value = val
	obj.Hash.Put(own, false)
	return nil
}

func (vm *VM) setArrayIndex(obj *value.Object, idx int, val value.Value) *Thrown {
	if idx < 0 {
		return nil
	}
	if obj.Type == value.TypedArray {
		if obj.Array == nil || idx >= len(obj.Array.Data)/obj.Array.ElementKind.ElementSize() {
			return nil // silently ignored per ECMAScript integer-indexed exotic set
		}
		return vm.writeTypedElement(obj.Array, idx, val)
	}
	if !obj.FastArray {
		return vm.setSparseArrayIndex(obj, idx, val)
	}
	if obj.Array == nil {
		obj.Array = &value.ArrayData{}
	}
	switch {
	case idx < len(obj.Array.Values):
		obj.Array.Values[idx] = val
	case idx == len(obj.Array.Values):
		obj.Array.Values = append(obj.Array.Values, val)
	default:
		// Sparse growth demotes to a hash-backed object (spec §4.4
		// "Fast-array promotion"): the flat Values vector has no way to
		// represent a hole, so the gap becomes a genuine missing
		// property instead of a run of undefineds.
		vm.demoteFastArray(obj)
		return vm.setSparseArrayIndex(obj, idx, val)
	}
	return nil
}

// demoteFastArray converts obj off its literal-Value-vector
// representation into an ordinary hash-backed object: one PropData
// entry per surviving element plus an explicit, writable "length"
// property (spec §4.4 "Fast-array promotion"). Triggered by a sparse
// index set, an accessor defined on an index or on "length", or a
// mid-array delete — anything the flat vector can no longer represent
// faithfully.
func (vm *VM) demoteFastArray(obj *value.Object) {
	if !obj.FastArray {
		return
	}
	obj.PrivateCopy()
	values := obj.Array.Values
	for i, v := range values {
		name := strconv.Itoa(i)
		obj.Hash.Put(value.Property{
			NameAtom:     vm.atom(name),
			Name:         value.FromString(value.NewStr(name)),
			Kind:         value.PropData,
			Writable:     value.AttrTrue,
			Enumerable:   value.AttrTrue,
			Configurable: value.AttrTrue,
			Value:        v,
		}, false)
	}
	obj.Hash.Put(value.Property{
		NameAtom:     vm.atom("length"),
		Name:         value.FromString(value.NewStr("length")),
		Kind:         value.PropData,
		Writable:     value.AttrTrue,
		Enumerable:   value.AttrFalse,
		Configurable: value.AttrFalse,
		Value:        value.Num(float64(len(values))),
	}, false)
	obj.FastArray = false
	obj.Array.Values = nil
}

// setSparseArrayIndex implements the ordinary-object exotic array Set
// once obj is no longer a fast array (spec §4.4 "Fast-array
// promotion"): a non-writable "length" refuses any index at or past
// it, otherwise the index is written as a plain own property and
// "length" is extended to cover it.
func (vm *VM) setSparseArrayIndex(obj *value.Object, idx int, val value.Value) *Thrown {
	lengthAtom := vm.atom("length")
	obj.PrivateCopy()
	lengthProp, hasLength := obj.Hash.Get(lengthAtom)
	curLen := 0
	if hasLength {
		curLen = int(lengthProp.Value.NumberValue())
	}
	if idx >= curLen && hasLength && lengthProp.Writable == value.AttrFalse {
		return nil
	}
	if err := vm.setProperty(value.FromObject(obj.Type, obj), vm.atom(strconv.Itoa(idx)), 0, false, val); err != nil {
		return err
	}
	if hasLength && idx >= curLen {
		lengthProp, _ = obj.Hash.Get(lengthAtom)
		updated := *lengthProp
		updated.Value = value.Num(float64(idx + 1))
		obj.Hash.Put(updated, false)
	}
	return nil
}

func (vm *VM) setArrayLength(obj *value.Object, val value.Value) *Thrown {
	n, err := vm.ToNumber(val)
	if err != nil {
		return err
	}
	newLen := int(n)
	if newLen < 0 || float64(newLen) != n {
		return vm.ThrowError(RangeError, "invalid array length")
	}
	if obj.Array == nil {
		obj.Array = &value.ArrayData{}
	}
	switch {
	case newLen < len(obj.Array.Values):
		obj.Array.Values = obj.Array.Values[:newLen]
	case newLen > len(obj.Array.Values):
		for len(obj.Array.Values) < newLen {
			obj.Array.Values = append(obj.Array.Values, value.Undefined_())
		}
	}
	return nil
}

// DeletePropertyByID implements `delete obj.prop`.
func (vm *VM) DeletePropertyByID(receiver value.Value, id atom.ID) (bool, *Thrown) {
	return vm.deleteProperty(receiver, id, 0, false)
}

// DeleteElem implements `delete obj[key]`.
func (vm *VM) DeleteElem(receiver, key value.Value) (bool, *Thrown) {
	if idx, ok := arrayIndexOf(key); ok {
		return vm.deleteProperty(receiver, 0, idx, true)
	}
	id, err := vm.keyToAtom(key)
	if err != nil {
		return false, err
	}
	return vm.deleteProperty(receiver, id, 0, false)
}

func (vm *VM) deleteProperty(receiver value.Value, id atom.ID, idx int, hasIdx bool) (bool, *Thrown) {
	if !receiver.IsObject() {
		return true, nil
	}
	obj := receiver.Obj()
	if hasIdx && obj.Array != nil && obj.FastArray {
		if idx >= 0 && idx < len(obj.Array.Values) {
			// A deleted slot becomes a hole the flat Values vector
			// cannot represent, so the array demotes to a hash-backed
			// object first (spec §4.4 "Fast-array promotion") and the
			// index is then removed as an ordinary property below.
			vm.demoteFastArray(obj)
			id = vm.atom(strconv.Itoa(idx))
		} else {
			return true, nil
		}
	}
	if hasIdx {
		id = vm.atom(strconv.Itoa(idx))
	}
	if obj.Hash == nil {
		return true, nil
	}
	prop, ok := obj.Hash.Get(id)
	if !ok {
		return true, nil
	}
	if prop.Configurable == value.AttrFalse {
		return false, nil
	}
	obj.Hash.Delete(id)
	return true, nil
}

// HasProperty implements the `in` operator: true if key resolves
// anywhere along the prototype chain (own or shared, data or
// accessor), matching spec §4.4's resolution order without invoking
// getters.
func (vm *VM) HasProperty(receiver, key value.Value) (bool, *Thrown) {
	obj := receiver.Obj()
	if obj == nil {
		return false, nil
	}
	if idx, ok := arrayIndexOf(key); ok {
		for p := obj; p != nil; p = p.Proto {
			if p.Array != nil && p.FastArray && idx >= 0 && idx < len(p.Array.Values) {
				return true, nil
			}
		}
	}
	id, err := vm.keyToAtom(key)
	if err != nil {
		return false, err
	}
	for p := obj; p != nil; p = p.Proto {
		if p.Hash != nil {
			if _, ok := p.Hash.Get(id); ok {
				return true, nil
			}
		}
		if p.SharedHash != nil {
			if _, ok := p.SharedHash.Get(id); ok {
				return true, nil
			}
		}
	}
	return false, nil
}

// OwnKeys returns obj's own enumerable string keys in insertion order,
// including the synthetic numeric-index/"length" keys of a fast array
// (spec §8.1 "Property order").
func OwnKeys(obj *value.Object, enumerableOnly bool) []value.Value {
	var keys []value.Value
	if obj.Array != nil && obj.FastArray {
		for i := range obj.Array.Values {
			keys = append(keys, value.FromString(value.NewStr(strconv.Itoa(i))))
		}
	}
	if obj.Hash != nil {
		keys = append(keys, obj.Hash.Keys(enumerableOnly)...)
	}
	return keys
}
