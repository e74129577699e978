// TypedArray family constructors and shared prototype (spec §8.3
// scenario 6, §4.7 "Supplemented features" item 6: set(arr, offset)
// range-checks before copying, slice(start, end) clamps and copies a
// fresh backing buffer). One constructor per element kind, sharing a
// single prototype object the way original_source/njs/src/njs_typed_array.c
// shares njs_typed_array_proto_init across every %TypedArray% subclass.
package vm

import "github.com/nginx/njs-go/internal/value"

var typedArrayCtors = []struct {
	name string
	kind value.TypedArrayKind
}{
	{"Uint8Array", value.Uint8},
	{"Uint8ClampedArray", value.Uint8Clamped},
	{"Int8Array", value.Int8},
	{"Uint16Array", value.Uint16},
	{"Int16Array", value.Int16},
	{"Uint32Array", value.Uint32},
	{"Int32Array", value.Int32},
	{"Float32Array", value.Float32},
	{"Float64Array", value.Float64},
}

func (vm *VM) setupTypedArrayBuiltins() {
	proto := vm.protos.TypedArray

	vm.nativeMethod(proto, "set", 2, func(a value.NativeArgs) (value.Value, error) {
		dst := a.This.Obj()
		if dst == nil || dst.Array == nil {
			return value.Value{}, vm.ThrowError(TypeError, "not a typed array")
		}
		offset := argIntOr(vm, a, 1, 0)
		src := a.Arg(0)
		var items []value.Value
		switch {
		case src.Type() == value.Array && src.Obj().Array != nil:
			items = src.Obj().Array.Values
		case src.Type() == value.TypedArray && src.Obj().Array != nil:
			sa := src.Obj().Array
			items = make([]value.Value, sa.Length())
			for i := range items {
				items[i], _ = readTypedElement(sa, i)
			}
		default:
			return value.Value{}, vm.ThrowError(TypeError, "source is not array-like")
		}
		if offset < 0 || offset+len(items) > dst.Array.Length() {
			return value.Value{}, vm.ThrowError(RangeError, "offset is out of bounds")
		}
		for i, v := range items {
			if err := vm.writeTypedElement(dst.Array, offset+i, v); err != nil {
				return value.Value{}, err
			}
		}
		return value.Undefined_(), nil
	})

	vm.nativeMethod(proto, "slice", 2, func(a value.NativeArgs) (value.Value, error) {
		src := a.This.Obj()
		if src == nil || src.Array == nil {
			return value.Value{}, vm.ThrowError(TypeError, "not a typed array")
		}
		n := src.Array.Length()
		start := clampIndex(argIntOr(vm, a, 0, 0), n)
		end := clampIndex(argIntOr(vm, a, 1, n), n)
		if end < start {
			end = start
		}
		out := newTypedArray(src.Array.ElementKind, end-start)
		out.Proto = proto
		for i := start; i < end; i++ {
			v, _ := readTypedElement(src.Array, i)
			_ = vm.writeTypedElement(out.Array, i-start, v)
		}
		return value.FromObject(value.TypedArray, out), nil
	})

	vm.nativeMethod(proto, "subarray", 2, func(a value.NativeArgs) (value.Value, error) {
		src := a.This.Obj()
		if src == nil || src.Array == nil {
			return value.Value{}, vm.ThrowError(TypeError, "not a typed array")
		}
		n := src.Array.Length()
		start := clampIndex(argIntOr(vm, a, 0, 0), n)
		end := clampIndex(argIntOr(vm, a, 1, n), n)
		if end < start {
			end = start
		}
		size := src.Array.ElementKind.ElementSize()
		view := value.NewObject(value.TypedArray)
		view.Proto = proto
		view.Array = &value.ArrayData{
			Data:        src.Array.Data[start*size : end*size],
			ElementKind: src.Array.ElementKind,
			Buffer:      src.Array.Buffer,
			ByteOffset:  src.Array.ByteOffset + start*size,
		}
		return value.FromObject(value.TypedArray, view), nil
	})

	vm.nativeMethod(proto, "fill", 1, func(a value.NativeArgs) (value.Value, error) {
		o := a.This.Obj()
		if o == nil || o.Array == nil {
			return value.Value{}, vm.ThrowError(TypeError, "not a typed array")
		}
		n := o.Array.Length()
		start := clampIndex(argIntOr(vm, a, 1, 0), n)
		end := clampIndex(argIntOr(vm, a, 2, n), n)
		for i := start; i < end; i++ {
			if err := vm.writeTypedElement(o.Array, i, a.Arg(0)); err != nil {
				return value.Value{}, err
			}
		}
		return a.This, nil
	})

	vm.nativeMethod(proto, "join", 1, func(a value.NativeArgs) (value.Value, error) {
		o := a.This.Obj()
		sep := ","
		if a.Arg(0).Type() != value.Undefined {
			s, err := vm.argString(a, 0)
			if err != nil {
				return value.Value{}, err
			}
			sep = s
		}
		parts := make([]string, o.Array.Length())
		for i := range parts {
			v, _ := readTypedElement(o.Array, i)
			parts[i] = ToStringNoThrow(v)
		}
		return value.FromString(value.NewStr(joinStrings(parts, sep))), nil
	})

	for _, spec := range typedArrayCtors {
		spec := spec
		ctor := vm.newConstructor(spec.name, 1, proto, func(a value.NativeArgs) (value.Value, error) {
			return vm.constructTypedArray(spec.kind, a)
		})
		vm.setOwn(ctor, "BYTES_PER_ELEMENT", value.Num(float64(spec.kind.ElementSize())), false, false, false)
	}

	vm.setupArrayBufferBuiltins()
	vm.setupDataViewBuiltins()
}

func (vm *VM) constructTypedArray(kind value.TypedArrayKind, a value.NativeArgs) (value.Value, error) {
	arg := a.Arg(0)
	var o *value.Object
	switch {
	case arg.Type() == value.Number:
		o = newTypedArray(kind, int(arg.NumberValue()))
	case arg.Type() == value.Array && arg.Obj().Array != nil:
		src := arg.Obj().Array.Values
		o = newTypedArray(kind, len(src))
		for i, v := range src {
			if err := vm.writeTypedElement(o.Array, i, v); err != nil {
				return value.Value{}, err
			}
		}
	case arg.Type() == value.TypedArray && arg.Obj().Array != nil:
		src := arg.Obj().Array
		o = newTypedArray(kind, src.Length())
		for i := 0; i < src.Length(); i++ {
			v, _ := readTypedElement(src, i)
			if err := vm.writeTypedElement(o.Array, i, v); err != nil {
				return value.Value{}, err
			}
		}
	case arg.Type() == value.ArrayBuffer:
		buf := arg.Obj()
		offset := argIntOr(vm, a, 1, 0)
		size := kind.ElementSize()
		length := (len(buf.Array.Data) - offset) / size
		if len(a.Args) > 2 {
			length = argIntOr(vm, a, 2, length)
		}
		o = value.NewObject(value.TypedArray)
		o.Array = &value.ArrayData{
			Data:        buf.Array.Data[offset : offset+length*size],
			ElementKind: kind,
			Buffer:      buf,
			ByteOffset:  offset,
		}
	default:
		o = newTypedArray(kind, 0)
	}
	proto := vm.protos.TypedArray
	if a.NewTarget != nil && a.NewTarget.Hash != nil {
		if protoProp, ok := a.NewTarget.Hash.Get(vm.atom("prototype")); ok && protoProp.Value.IsObject() {
			proto = protoProp.Value.Obj()
		}
	}
	o.Proto = proto
	return value.FromObject(value.TypedArray, o), nil
}

func joinStrings(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}

// setupDataViewBuiltins adds the DataView constructor and its
// get/set<Type> accessors (spec.md's type list "Promise, ObjectValue,
// ArrayBuffer, DataView"). Unlike a TypedArray, a DataView reads/writes
// at an explicit byte offset with an explicit endianness per call,
// defaulting to big-endian when littleEndian is omitted, matching the
// original engine's njs_array_buffer_view behavior grounded on
// original_source/njs/src/njs_typed_array.c.
func (vm *VM) setupDataViewBuiltins() {
	proto := vm.protos.DataView

	vm.newConstructor("DataView", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		if a.Arg(0).Type() != value.ArrayBuffer {
			return value.Value{}, vm.ThrowError(TypeError, "First argument to DataView constructor must be an ArrayBuffer")
		}
		buf := a.Arg(0).Obj()
		offset := argIntOr(vm, a, 1, 0)
		length := len(buf.Array.Data) - offset
		if len(a.Args) > 2 {
			length = argIntOr(vm, a, 2, length)
		}
		if offset < 0 || length < 0 || offset+length > len(buf.Array.Data) {
			return value.Value{}, vm.ThrowError(RangeError, "invalid DataView length")
		}
		o := value.NewObject(value.DataView)
		o.Proto = proto
		o.Array = &value.ArrayData{Data: buf.Array.Data[offset : offset+length], Buffer: buf, ByteOffset: offset}
		return value.FromObject(value.DataView, o), nil
	})

	for _, accessor := range dataViewAccessors {
		accessor := accessor
		vm.nativeMethod(proto, "get"+accessor.name, 1, func(a value.NativeArgs) (value.Value, error) {
			o := a.This.Obj()
			if o == nil || o.Array == nil {
				return value.Value{}, vm.ThrowError(TypeError, "not a DataView")
			}
			off := argIntOr(vm, a, 0, 0)
			little := a.Arg(1).Type() == value.Boolean && a.Arg(1).BoolValue()
			v, ok := readDataViewElement(o.Array.Data, off, accessor.size, accessor.signed, accessor.float, little)
			if !ok {
				return value.Value{}, vm.ThrowError(RangeError, "offset is outside the bounds of the DataView")
			}
			return v, nil
		})
		vm.nativeMethod(proto, "set"+accessor.name, 2, func(a value.NativeArgs) (value.Value, error) {
			o := a.This.Obj()
			if o == nil || o.Array == nil {
				return value.Value{}, vm.ThrowError(TypeError, "not a DataView")
			}
			off := argIntOr(vm, a, 0, 0)
			n, err := vm.ToNumber(a.Arg(1))
			if err != nil {
				return value.Value{}, err
			}
			little := a.Arg(2).Type() == value.Boolean && a.Arg(2).BoolValue()
			if !writeDataViewElement(o.Array.Data, off, accessor.size, accessor.float, little, n) {
				return value.Value{}, vm.ThrowError(RangeError, "offset is outside the bounds of the DataView")
			}
			return value.Undefined_(), nil
		})
	}
}

func (vm *VM) setupArrayBufferBuiltins() {
	proto := vm.protos.ArrayBuffer
	vm.newConstructor("ArrayBuffer", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		n := argIntOr(vm, a, 0, 0)
		o := value.NewObject(value.ArrayBuffer)
		o.Array = &value.ArrayData{Data: make([]byte, n)}
		return value.FromObject(value.ArrayBuffer, o), nil
	})
	vm.nativeMethod(proto, "slice", 2, func(a value.NativeArgs) (value.Value, error) {
		o := a.This.Obj()
		n := len(o.Array.Data)
		start := clampIndex(argIntOr(vm, a, 0, 0), n)
		end := clampIndex(argIntOr(vm, a, 1, n), n)
		if end < start {
			end = start
		}
		out := value.NewObject(value.ArrayBuffer)
		out.Array = &value.ArrayData{Data: append([]byte(nil), o.Array.Data[start:end]...)}
		return value.FromObject(value.ArrayBuffer, out), nil
	})
}
