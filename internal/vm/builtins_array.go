// Array constructor, statics (isArray/of/from), and the common
// Array.prototype surface (spec §8.3 scenarios rely on push/join/slice/
// indexOf; §8.2 laws don't touch arrays directly but the property-order
// invariant does via Object.keys semantics shared with plain objects).
// Grounded on original_source/njs/src/njs_array.c's method table, one
// native method per table entry, translated to Go slice operations over
// ArrayData.Values.
package vm

import (
	"strings"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupArrayBuiltins() {
	proto := vm.protos.Array

	ctor := vm.newConstructor("Array", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		if len(a.Args) == 1 && a.Args[0].Type() == value.Number {
			n := int(a.Args[0].NumberValue())
			return value.FromObject(value.Array, value.NewFastArray(make([]value.Value, n))), nil
		}
		return value.FromObject(value.Array, value.NewFastArray(append([]value.Value(nil), a.Args...))), nil
	})

	vm.nativeMethod(ctor, "isArray", 1, func(a value.NativeArgs) (value.Value, error) {
		return value.Bool(a.Arg(0).Type() == value.Array), nil
	})

	vm.nativeMethod(ctor, "of", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromObject(value.Array, value.NewFastArray(append([]value.Value(nil), a.Args...))), nil
	})

	vm.nativeMethod(ctor, "from", 1, func(a value.NativeArgs) (value.Value, error) {
		src := a.Arg(0)
		var items []value.Value
		switch {
		case src.Type() == value.Array || src.Type() == value.TypedArray:
			it, err := vm.GetIterator(src, false)
			if err != nil {
				return value.Value{}, err
			}
			for {
				v, ok := iterNext(it)
				if !ok {
					break
				}
				items = append(items, v)
			}
		case src.Type() == value.String:
			it, _ := vm.GetIterator(src, false)
			for {
				v, ok := iterNext(it)
				if !ok {
					break
				}
				items = append(items, v)
			}
		case src.IsObject():
			lenVal, err := vm.GetPropertyByName(src, "length")
			if err != nil {
				return value.Value{}, err
			}
			n, nerr := vm.ToNumber(lenVal)
			if nerr != nil {
				return value.Value{}, nerr
			}
			for i := 0; i < int(n); i++ {
				v, gerr := vm.GetElem(src, value.Num(float64(i)))
				if gerr != nil {
					return value.Value{}, gerr
				}
				items = append(items, v)
			}
		}
		if len(a.Args) > 1 && a.Args[1].Type() == value.Function {
			mapped := make([]value.Value, len(items))
			for i, v := range items {
				r, err := vm.CallValue(a.Args[1], value.Undefined_(), []value.Value{v, value.Num(float64(i))}, nil)
				if err != nil {
					return value.Value{}, err
				}
				mapped[i] = r
			}
			items = mapped
		}
		return value.FromObject(value.Array, value.NewFastArray(items)), nil
	})

	vm.nativeMethod(proto, "push", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil {
			return value.Value{}, vm.ThrowError(TypeError, "Array.prototype.push called on non-array")
		}
		arr.Values = append(arr.Values, a.Args...)
		return value.Num(float64(len(arr.Values))), nil
	})

	vm.nativeMethod(proto, "pop", 0, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil || len(arr.Values) == 0 {
			return value.Undefined_(), nil
		}
		v := arr.Values[len(arr.Values)-1]
		arr.Values = arr.Values[:len(arr.Values)-1]
		return v, nil
	})

	vm.nativeMethod(proto, "shift", 0, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil || len(arr.Values) == 0 {
			return value.Undefined_(), nil
		}
		v := arr.Values[0]
		arr.Values = arr.Values[1:]
		return v, nil
	})

	vm.nativeMethod(proto, "unshift", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil {
			return value.Value{}, vm.ThrowError(TypeError, "Array.prototype.unshift called on non-array")
		}
		arr.Values = append(append([]value.Value(nil), a.Args...), arr.Values...)
		return value.Num(float64(len(arr.Values))), nil
	})

	vm.nativeMethod(proto, "join", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil {
			return value.FromString(value.NewStr("")), nil
		}
		sep := ","
		if a.Arg(0).Type() != value.Undefined {
			s, err := vm.ToStringValue(a.Arg(0))
			if err != nil {
				return value.Value{}, err
			}
			sep = s.Str().Bytes()
		}
		parts := make([]string, len(arr.Values))
		for i, v := range arr.Values {
			if v.IsNullOrUndefined() {
				continue
			}
			s, err := vm.ToStringValue(v)
			if err != nil {
				return value.Value{}, err
			}
			parts[i] = s.Str().Bytes()
		}
		return value.FromString(value.NewStr(strings.Join(parts, sep))), nil
	})

	vm.nativeMethod(proto, "slice", 2, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil {
			return value.FromObject(value.Array, value.NewFastArray(nil)), nil
		}
		n := len(arr.Values)
		start := clampIndex(argIntOr(vm, a, 0, 0), n)
		end := clampIndex(argIntOr(vm, a, 1, n), n)
		if end < start {
			end = start
		}
		out := append([]value.Value(nil), arr.Values[start:end]...)
		return value.FromObject(value.Array, value.NewFastArray(out)), nil
	})

	vm.nativeMethod(proto, "splice", 2, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		if arr == nil {
			return value.FromObject(value.Array, value.NewFastArray(nil)), nil
		}
		n := len(arr.Values)
		start := clampIndex(argIntOr(vm, a, 0, 0), n)
		deleteCount := n - start
		if len(a.Args) > 1 {
			dc := argIntOr(vm, a, 1, n)
			if dc < 0 {
				dc = 0
			}
			if dc > n-start {
				dc = n - start
			}
			deleteCount = dc
		}
		removed := append([]value.Value(nil), arr.Values[start:start+deleteCount]...)
		var items []value.Value
		if len(a.Args) > 2 {
			items = a.Args[2:]
		}
		tail := append([]value.Value(nil), arr.Values[start+deleteCount:]...)
		arr.Values = append(append(arr.Values[:start], items...), tail...)
		return value.FromObject(value.Array, value.NewFastArray(removed)), nil
	})

	vm.nativeMethod(proto, "concat", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		out := append([]value.Value(nil), arr.Values...)
		for _, arg := range a.Args {
			if arg.Type() == value.Array {
				out = append(out, arg.Obj().Array.Values...)
			} else {
				out = append(out, arg)
			}
		}
		return value.FromObject(value.Array, value.NewFastArray(out)), nil
	})

	vm.nativeMethod(proto, "indexOf", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		target := a.Arg(0)
		for i, v := range arr.Values {
			if value.Equal(v, target) {
				return value.Num(float64(i)), nil
			}
		}
		return value.Num(-1), nil
	})

	vm.nativeMethod(proto, "lastIndexOf", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		target := a.Arg(0)
		for i := len(arr.Values) - 1; i >= 0; i-- {
			if value.Equal(arr.Values[i], target) {
				return value.Num(float64(i)), nil
			}
		}
		return value.Num(-1), nil
	})

	vm.nativeMethod(proto, "includes", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		target := a.Arg(0)
		for _, v := range arr.Values {
			if SameValueZero(v, target) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	})

	vm.nativeMethod(proto, "forEach", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		cb := a.Arg(0)
		for i, v := range arr.Values {
			if _, err := vm.CallValue(cb, a.Arg(1), []value.Value{v, value.Num(float64(i)), a.This}, nil); err != nil {
				return value.Value{}, err
			}
		}
		return value.Undefined_(), nil
	})

	vm.nativeMethod(proto, "map", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		cb := a.Arg(0)
		out := make([]value.Value, len(arr.Values))
		for i, v := range arr.Values {
			r, err := vm.CallValue(cb, a.Arg(1), []value.Value{v, value.Num(float64(i)), a.This}, nil)
			if err != nil {
				return value.Value{}, err
			}
			out[i] = r
		}
		return value.FromObject(value.Array, value.NewFastArray(out)), nil
	})

	vm.nativeMethod(proto, "filter", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		cb := a.Arg(0)
		var out []value.Value
		for i, v := range arr.Values {
			r, err := vm.CallValue(cb, a.Arg(1), []value.Value{v, value.Num(float64(i)), a.This}, nil)
			if err != nil {
				return value.Value{}, err
			}
			if ToBoolean(r) {
				out = append(out, v)
			}
		}
		return value.FromObject(value.Array, value.NewFastArray(out)), nil
	})

	vm.nativeMethod(proto, "reduce", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		cb := a.Arg(0)
		var acc value.Value
		start := 0
		if len(a.Args) > 1 {
			acc = a.Args[1]
		} else {
			if len(arr.Values) == 0 {
				return value.Value{}, vm.ThrowError(TypeError, "Reduce of empty array with no initial value")
			}
			acc = arr.Values[0]
			start = 1
		}
		for i := start; i < len(arr.Values); i++ {
			r, err := vm.CallValue(cb, value.Undefined_(), []value.Value{acc, arr.Values[i], value.Num(float64(i)), a.This}, nil)
			if err != nil {
				return value.Value{}, err
			}
			acc = r
		}
		return acc, nil
	})

	vm.nativeMethod(proto, "find", 1, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		cb := a.Arg(0)
		for i, v := range arr.Values {
			r, err := vm.CallValue(cb, a.Arg(1), []value.Value{v, value.Num(float64(i)), a.This}, nil)
			if err != nil {
				return value.Value{}, err
			}
			if ToBoolean(r) {
				return v, nil
			}
		}
		return value.Undefined_(), nil
	})

	vm.nativeMethod(proto, "reverse", 0, func(a value.NativeArgs) (value.Value, error) {
		arr := arrayData(a.This)
		for i, j := 0, len(arr.Values)-1; i < j; i, j = i+1, j-1 {
			arr.Values[i], arr.Values[j] = arr.Values[j], arr.Values[i]
		}
		return a.This, nil
	})

	vm.nativeMethod(proto, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(joinArrayForToString(a.This.Obj()))), nil
	})
}

func arrayData(v value.Value) *value.ArrayData {
	if v.Obj() == nil {
		return nil
	}
	return v.Obj().Array
}

func argIntOr(vm *VM, a value.NativeArgs, i, dflt int) int {
	if i >= len(a.Args) || a.Args[i].Type() == value.Undefined {
		return dflt
	}
	n, err := vm.ToNumber(a.Args[i])
	if err != nil {
		return dflt
	}
	return int(n)
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
	}
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
