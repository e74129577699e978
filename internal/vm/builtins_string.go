// String constructor and String.prototype (spec §4.7 "String engine"):
// the prototype methods here are thin Go wrappers around the Str
// primitives (Slice, Length, ToNumber) that already implement the
// short/long dual representation, grounded on
// original_source/njs/src/njs_string.c's method table.
package vm

import (
	"strings"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupStringBuiltins() {
	proto := vm.protos.String

	ctor := vm.newConstructor("String", 1, proto, func(a value.NativeArgs) (value.Value, error) {
		if len(a.Args) == 0 {
			return value.FromString(value.NewStr("")), nil
		}
		s, err := vm.ToStringValue(a.Args[0])
		if err != nil {
			return value.Value{}, err
		}
		return s, nil
	})

	vm.nativeMethod(proto, "charAt", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This)
		i := argIntOr(vm, a, 0, 0)
		if i < 0 || i >= s.Length() {
			return value.FromString(value.NewStr("")), nil
		}
		return value.FromString(s.Slice(i, i+1)), nil
	})

	vm.nativeMethod(proto, "charCodeAt", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This)
		i := argIntOr(vm, a, 0, 0)
		if i < 0 || i >= s.Length() {
			return value.Num(nan()), nil
		}
		r := []rune(s.Slice(i, i+1).Bytes())
		if len(r) == 0 {
			return value.Num(nan()), nil
		}
		return value.Num(float64(r[0])), nil
	})

	vm.nativeMethod(proto, "slice", 2, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This)
		n := s.Length()
		start := clampIndex(argIntOr(vm, a, 0, 0), n)
		end := clampIndex(argIntOr(vm, a, 1, n), n)
		if end < start {
			end = start
		}
		return value.FromString(s.Slice(start, end)), nil
	})

	vm.nativeMethod(proto, "substring", 2, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This)
		n := s.Length()
		start := clampNonNegative(argIntOr(vm, a, 0, 0), n)
		end := clampNonNegative(argIntOr(vm, a, 1, n), n)
		if start > end {
			start, end = end, start
		}
		return value.FromString(s.Slice(start, end)), nil
	})

	vm.nativeMethod(proto, "indexOf", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This).Bytes()
		sub, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(float64(strings.Index(s, sub))), nil
	})

	vm.nativeMethod(proto, "lastIndexOf", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This).Bytes()
		sub, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(float64(strings.LastIndex(s, sub))), nil
	})

	vm.nativeMethod(proto, "includes", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This).Bytes()
		sub, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(strings.Contains(s, sub)), nil
	})

	vm.nativeMethod(proto, "startsWith", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This).Bytes()
		sub, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(strings.HasPrefix(s, sub)), nil
	})

	vm.nativeMethod(proto, "endsWith", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This).Bytes()
		sub, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(strings.HasSuffix(s, sub)), nil
	})

	vm.nativeMethod(proto, "split", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This).Bytes()
		if a.Arg(0).Type() == value.Undefined {
			return value.FromObject(value.Array, value.NewFastArray([]value.Value{value.FromString(value.NewStr(s))})), nil
		}
		sep, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		var parts []string
		if sep == "" {
			for _, r := range s {
				parts = append(parts, string(r))
			}
		} else {
			parts = strings.Split(s, sep)
		}
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.FromString(value.NewStr(p))
		}
		return value.FromObject(value.Array, value.NewFastArray(out)), nil
	})

	vm.nativeMethod(proto, "toUpperCase", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(strings.ToUpper(thisStr(a.This).Bytes()))), nil
	})

	vm.nativeMethod(proto, "toLowerCase", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(strings.ToLower(thisStr(a.This).Bytes()))), nil
	})

	vm.nativeMethod(proto, "trim", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(strings.TrimSpace(thisStr(a.This).Bytes()))), nil
	})

	vm.nativeMethod(proto, "repeat", 1, func(a value.NativeArgs) (value.Value, error) {
		n := argIntOr(vm, a, 0, 0)
		if n < 0 {
			return value.Value{}, vm.ThrowError(RangeError, "Invalid count value")
		}
		return value.FromString(value.NewStr(strings.Repeat(thisStr(a.This).Bytes(), n))), nil
	})

	vm.nativeMethod(proto, "concat", 1, func(a value.NativeArgs) (value.Value, error) {
		s := thisStr(a.This)
		for _, arg := range a.Args {
			sv, err := vm.ToStringValue(arg)
			if err != nil {
				return value.Value{}, err
			}
			s = value.Concat(s, sv.Str())
		}
		return value.FromString(s), nil
	})

	vm.nativeMethod(proto, "padStart", 2, func(a value.NativeArgs) (value.Value, error) {
		return vm.pad(a, true)
	})
	vm.nativeMethod(proto, "padEnd", 2, func(a value.NativeArgs) (value.Value, error) {
		return vm.pad(a, false)
	})

	vm.nativeMethod(proto, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(thisStr(a.This)), nil
	})

	vm.nativeMethod(proto, "valueOf", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(thisStr(a.This)), nil
	})

	vm.nativeMethod(ctor, "fromCharCode", 1, func(a value.NativeArgs) (value.Value, error) {
		var b strings.Builder
		for _, arg := range a.Args {
			n, err := vm.ToNumber(arg)
			if err != nil {
				return value.Value{}, err
			}
			b.WriteRune(rune(int64(n)))
		}
		return value.FromString(value.NewStr(b.String())), nil
	})
}

func thisStr(v value.Value) *value.Str {
	if v.Type() == value.String {
		return v.Str()
	}
	return value.NewStr(ToStringNoThrow(v))
}

func (vm *VM) argString(a value.NativeArgs, i int) (string, *Thrown) {
	sv, err := vm.ToStringValue(a.Arg(i))
	if err != nil {
		return "", err
	}
	return sv.Str().Bytes(), nil
}

func clampNonNegative(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

func (vm *VM) pad(a value.NativeArgs, start bool) (value.Value, *Thrown) {
	s := thisStr(a.This)
	target := argIntOr(vm, a, 0, s.Length())
	fill := " "
	if len(a.Args) > 1 {
		f, err := vm.argString(a, 1)
		if err != nil {
			return value.Value{}, err
		}
		fill = f
	}
	if fill == "" || s.Length() >= target {
		return value.FromString(s), nil
	}
	need := target - s.Length()
	var b strings.Builder
	for b.Len() < need {
		b.WriteString(fill)
	}
	padding := string([]rune(b.String())[:need])
	if start {
		return value.FromString(value.NewStr(padding + s.Bytes())), nil
	}
	return value.FromString(value.NewStr(s.Bytes() + padding)), nil
}
