// Object constructor, its statics, and Object.prototype (spec §4.4
// "Object.defineProperty" and the surrounding property-protocol
// surface). Grounded on original_source/njs/src/njs_object.c's own
// static-method table, translated one native method per table entry.
package vm

import "github.com/nginx/njs-go/internal/value"

func (vm *VM) setupObjectBuiltins() {
	proto := vm.protos.Object

	vm.nativeMethod(proto, "hasOwnProperty", 1, func(a value.NativeArgs) (value.Value, error) {
		if !a.This.IsObject() {
			return value.Bool(false), nil
		}
		id, err := vm.keyToAtom(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		o := a.This.Obj()
		if idx, ok := arrayIndexOf(a.Arg(0)); ok && o.Array != nil && o.FastArray {
			return value.Bool(idx >= 0 && idx < len(o.Array.Values)), nil
		}
		if o.Hash != nil {
			if _, ok := o.Hash.Get(id); ok {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	vm.nativeMethod(proto, "isPrototypeOf", 1, func(a value.NativeArgs) (value.Value, error) {
		target := a.Arg(0)
		if !target.IsObject() || !a.This.IsObject() {
			return value.Bool(false), nil
		}
		for p := target.Obj().Proto; p != nil; p = p.Proto {
			if p == a.This.Obj() {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	vm.nativeMethod(proto, "propertyIsEnumerable", 1, func(a value.NativeArgs) (value.Value, error) {
		if !a.This.IsObject() {
			return value.Bool(false), nil
		}
		id, err := vm.keyToAtom(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		if p, ok := a.This.Obj().Hash.Get(id); ok {
			return value.Bool(p.Enumerable == value.AttrTrue), nil
		}
		return value.Bool(false), nil
	})

	vm.nativeMethod(proto, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr("[object Object]")), nil
	})

	vm.nativeMethod(proto, "valueOf", 0, func(a value.NativeArgs) (value.Value, error) {
		return a.This, nil
	})

	ctor := vm.newConstructor("Object", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		if len(a.Args) > 0 && a.Args[0].IsObject() {
			return a.Args[0], nil
		}
		o := value.NewObject(value.Object)
		o.Proto = proto
		o.Extensible = true
		return value.FromObject(value.Object, o), nil
	})

	vm.nativeMethod(ctor, "keys", 1, func(a value.NativeArgs) (value.Value, error) {
		obj, err := vm.ToObject(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		if obj == nil {
			return value.FromObject(value.Array, value.NewFastArray(nil)), nil
		}
		return value.FromObject(value.Array, value.NewFastArray(OwnKeys(obj, true))), nil
	})

	vm.nativeMethod(ctor, "values", 1, func(a value.NativeArgs) (value.Value, error) {
		obj, err := vm.ToObject(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		if obj == nil {
			return value.FromObject(value.Array, value.NewFastArray(nil)), nil
		}
		var vals []value.Value
		for _, k := range OwnKeys(obj, true) {
			id, _ := vm.keyToAtom(k)
			v, gerr := vm.getProperty(a.Arg(0), id, 0, false)
			if gerr != nil {
				return value.Value{}, gerr
			}
			vals = append(vals, v)
		}
		return value.FromObject(value.Array, value.NewFastArray(vals)), nil
	})

	vm.nativeMethod(ctor, "entries", 1, func(a value.NativeArgs) (value.Value, error) {
		obj, err := vm.ToObject(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		if obj == nil {
			return value.FromObject(value.Array, value.NewFastArray(nil)), nil
		}
		var out []value.Value
		for _, k := range OwnKeys(obj, true) {
			id, _ := vm.keyToAtom(k)
			v, gerr := vm.getProperty(a.Arg(0), id, 0, false)
			if gerr != nil {
				return value.Value{}, gerr
			}
			out = append(out, value.FromObject(value.Array, value.NewFastArray([]value.Value{k, v})))
		}
		return value.FromObject(value.Array, value.NewFastArray(out)), nil
	})

	vm.nativeMethod(ctor, "assign", 2, func(a value.NativeArgs) (value.Value, error) {
		target, err := vm.ToObject(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		targetVal := a.Arg(0)
		srcs := a.Args
		if len(srcs) > 1 {
			srcs = srcs[1:]
		} else {
			srcs = nil
		}
		for _, src := range srcs {
			so, serr := vm.ToObject(src)
			if serr != nil || so == nil {
				continue
			}
			for _, k := range OwnKeys(so, true) {
				v, gerr := vm.GetElem(src, k)
				if gerr != nil {
					return value.Value{}, gerr
				}
				if serr := vm.SetElem(targetVal, k, v); serr != nil {
					return value.Value{}, serr
				}
			}
		}
		_ = target
		return targetVal, nil
	})

	vm.nativeMethod(ctor, "freeze", 1, func(a value.NativeArgs) (value.Value, error) {
		if a.Arg(0).IsObject() {
			o := a.Arg(0).Obj()
			o.Extensible = false
			if o.Hash != nil {
				o.Hash.Each(func(p *value.Property) bool {
					p.Writable = value.AttrFalse
					p.Configurable = value.AttrFalse
					return true
				})
			}
		}
		return a.Arg(0), nil
	})

	vm.nativeMethod(ctor, "isFrozen", 1, func(a value.NativeArgs) (value.Value, error) {
		if !a.Arg(0).IsObject() {
			return value.Bool(true), nil
		}
		o := a.Arg(0).Obj()
		if o.Extensible {
			return value.Bool(false), nil
		}
		frozen := true
		if o.Hash != nil {
			o.Hash.Each(func(p *value.Property) bool {
				if p.Writable == value.AttrTrue || p.Configurable == value.AttrTrue {
					frozen = false
					return false
				}
				return true
			})
		}
		return value.Bool(frozen), nil
	})

	vm.nativeMethod(ctor, "create", 2, func(a value.NativeArgs) (value.Value, error) {
		o := value.NewObject(value.Object)
		o.Extensible = true
		if a.Arg(0).IsObject() {
			o.Proto = a.Arg(0).Obj()
		}
		if a.Arg(1).IsObject() {
			if err := vm.definePropertiesFrom(o, a.Arg(1).Obj()); err != nil {
				return value.Value{}, err
			}
		}
		return value.FromObject(value.Object, o), nil
	})

	vm.nativeMethod(ctor, "getPrototypeOf", 1, func(a value.NativeArgs) (value.Value, error) {
		obj, err := vm.ToObject(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		if obj == nil || obj.Proto == nil {
			return value.Null_(), nil
		}
		return value.FromObject(obj.Proto.Type, obj.Proto), nil
	})

	vm.nativeMethod(ctor, "setPrototypeOf", 2, func(a value.NativeArgs) (value.Value, error) {
		if !a.Arg(0).IsObject() {
			return a.Arg(0), nil
		}
		o := a.Arg(0).Obj()
		if a.Arg(1).IsObject() {
			o.Proto = a.Arg(1).Obj()
		} else {
			o.Proto = nil
		}
		return a.Arg(0), nil
	})

	vm.nativeMethod(ctor, "defineProperty", 3, func(a value.NativeArgs) (value.Value, error) {
		if !a.Arg(0).IsObject() {
			return value.Value{}, vm.ThrowError(TypeError, "Object.defineProperty called on non-object")
		}
		id, err := vm.keyToAtom(a.Arg(1))
		if err != nil {
			return value.Value{}, err
		}
		if !a.Arg(2).IsObject() {
			return value.Value{}, vm.ThrowError(TypeError, "Property description must be an object")
		}
		if derr := vm.defineProperty(a.Arg(0).Obj(), id, a.Arg(1), a.Arg(2).Obj()); derr != nil {
			return value.Value{}, derr
		}
		return a.Arg(0), nil
	})

	vm.nativeMethod(ctor, "defineProperties", 2, func(a value.NativeArgs) (value.Value, error) {
		if !a.Arg(0).IsObject() || !a.Arg(1).IsObject() {
			return value.Value{}, vm.ThrowError(TypeError, "Object.defineProperties called on non-object")
		}
		if err := vm.definePropertiesFrom(a.Arg(0).Obj(), a.Arg(1).Obj()); err != nil {
			return value.Value{}, err
		}
		return a.Arg(0), nil
	})

	vm.nativeMethod(ctor, "getOwnPropertyDescriptor", 2, func(a value.NativeArgs) (value.Value, error) {
		if !a.Arg(0).IsObject() {
			return value.Undefined_(), nil
		}
		id, err := vm.keyToAtom(a.Arg(1))
		if err != nil {
			return value.Value{}, err
		}
		o := a.Arg(0).Obj()
		if o.Hash == nil {
			return value.Undefined_(), nil
		}
		p, ok := o.Hash.Get(id)
		if !ok {
			return value.Undefined_(), nil
		}
		return vm.descriptorToObject(p), nil
	})
}

// definePropertiesFrom applies every own enumerable property of descs
// as a defineProperty call against target, the shared body of
// Object.create's second argument and Object.defineProperties.
func (vm *VM) definePropertiesFrom(target, descs *value.Object) *Thrown {
	for _, k := range OwnKeys(descs, true) {
		id, err := vm.keyToAtom(k)
		if err != nil {
			return err
		}
		descVal, gerr := vm.GetElem(value.FromObject(descs.Type, descs), k)
		if gerr != nil {
			return gerr
		}
		if !descVal.IsObject() {
			return vm.ThrowError(TypeError, "Property description must be an object")
		}
		if derr := vm.defineProperty(target, id, k, descVal.Obj()); derr != nil {
			return derr
		}
	}
	return nil
}

