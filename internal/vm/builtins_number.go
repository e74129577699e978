// Number and Boolean constructors/prototypes (spec §3.1 "numbers carry
// an IEEE-754 double"), grounded on the teacher's narrow wrapper-type
// style (core/types, one small file per numeric concept) translated to
// one native method per ECMAScript Number.prototype/Number static.
package vm

import (
	"math"
	"strconv"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupNumberBuiltins() {
	proto := vm.protos.Number

	ctor := vm.newConstructor("Number", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		if len(a.Args) == 0 {
			return value.Num(0), nil
		}
		n, err := vm.ToNumber(a.Args[0])
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(n), nil
	})

	vm.setOwn(ctor, "MAX_SAFE_INTEGER", value.Num(9007199254740991), false, false, false)
	vm.setOwn(ctor, "MIN_SAFE_INTEGER", value.Num(-9007199254740991), false, false, false)
	vm.setOwn(ctor, "EPSILON", value.Num(2.220446049250313e-16), false, false, false)
	vm.setOwn(ctor, "POSITIVE_INFINITY", value.Num(inf()), false, false, false)
	vm.setOwn(ctor, "NEGATIVE_INFINITY", value.Num(-inf()), false, false, false)
	vm.setOwn(ctor, "NaN", value.Num(nan()), false, false, false)

	vm.nativeMethod(ctor, "isInteger", 1, func(a value.NativeArgs) (value.Value, error) {
		v := a.Arg(0)
		if v.Type() != value.Number {
			return value.Bool(false), nil
		}
		n := v.NumberValue()
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0) && n == math.Trunc(n)), nil
	})

	vm.nativeMethod(ctor, "isFinite", 1, func(a value.NativeArgs) (value.Value, error) {
		v := a.Arg(0)
		if v.Type() != value.Number {
			return value.Bool(false), nil
		}
		n := v.NumberValue()
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	vm.nativeMethod(ctor, "isNaN", 1, func(a value.NativeArgs) (value.Value, error) {
		v := a.Arg(0)
		return value.Bool(v.Type() == value.Number && math.IsNaN(v.NumberValue())), nil
	})

	vm.nativeMethod(proto, "toFixed", 1, func(a value.NativeArgs) (value.Value, error) {
		n, err := vm.ToNumber(a.This)
		if err != nil {
			return value.Value{}, err
		}
		digits := argIntOr(vm, a, 0, 0)
		return value.FromString(value.NewStr(strconv.FormatFloat(n, 'f', digits, 64))), nil
	})

	vm.nativeMethod(proto, "toString", 1, func(a value.NativeArgs) (value.Value, error) {
		n, err := vm.ToNumber(a.This)
		if err != nil {
			return value.Value{}, err
		}
		radix := argIntOr(vm, a, 0, 10)
		if radix == 10 {
			return value.FromString(value.NewStr(value.NumberToString(n))), nil
		}
		return value.FromString(value.NewStr(strconv.FormatInt(int64(n), radix))), nil
	})

	vm.nativeMethod(proto, "valueOf", 0, func(a value.NativeArgs) (value.Value, error) {
		return vm.numberValueOf(a.This)
	})
}

func (vm *VM) numberValueOf(this value.Value) (value.Value, error) {
	n, err := vm.ToNumber(this)
	if err != nil {
		return value.Value{}, err
	}
	return value.Num(n), nil
}

func (vm *VM) setupBooleanBuiltins() {
	proto := vm.protos.Boolean

	vm.newConstructor("Boolean", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		return value.Bool(ToBoolean(a.Arg(0))), nil
	})

	vm.nativeMethod(proto, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(ToStringNoThrow(a.This))), nil
	})

	vm.nativeMethod(proto, "valueOf", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.Bool(ToBoolean(a.This)), nil
	})
}
