// RegExp constructor and prototype (spec §4.1 "Disambiguation of /"):
// the literal form is wired through internal/lexer's RetokenizeAsRegex
// and internal/compiler's OpNewRegExp emission; this file is the other
// half, the `new RegExp(pattern, flags)` constructor form and the
// test/exec/toString methods scripts call on either form's result.
// Grounded on dlclark/regexp2's FindStringMatch API the way
// typed_array.go grounds typed-array reads on encoding/binary.
package vm

import (
	"github.com/dlclark/regexp2"
	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupRegExpBuiltins() {
	proto := vm.protos.RegExp

	vm.newConstructor("RegExp", 2, proto, func(a value.NativeArgs) (value.Value, error) {
		source, flags := "(?:)", ""
		if len(a.Args) > 0 {
			if a.Arg(0).Type() == value.RegExp && a.Arg(0).Obj().Regexp != nil {
				rd := a.Arg(0).Obj().Regexp
				source, flags = rd.Source, rd.Flags
			} else {
				s, err := vm.argString(a, 0)
				if err != nil {
					return value.Value{}, err
				}
				source = s
			}
		}
		if len(a.Args) > 1 {
			s, err := vm.argString(a, 1)
			if err != nil {
				return value.Value{}, err
			}
			flags = s
		}
		re, err := value.NewRegExp(source, flags)
		if err != nil {
			return value.Value{}, vm.ThrowError(SyntaxError, "invalid regular expression: %s", err.Error())
		}
		re.Proto = proto
		vm.installRegExpOwnProps(re)
		return value.FromObject(value.RegExp, re), nil
	})

	vm.nativeMethod(proto, "test", 1, func(a value.NativeArgs) (value.Value, error) {
		rd, thrown := regexpData(vm, a.This)
		if thrown != nil {
			return value.Value{}, thrown
		}
		s, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		_, matched, err2 := vm.execRegexp(rd, a.This.Obj(), s)
		if err2 != nil {
			return value.Value{}, vm.ThrowError(InternalError, "regexp execution failed: %s", err2.Error())
		}
		return value.Bool(matched), nil
	})

	vm.nativeMethod(proto, "exec", 1, func(a value.NativeArgs) (value.Value, error) {
		rd, thrown := regexpData(vm, a.This)
		if thrown != nil {
			return value.Value{}, thrown
		}
		s, err := vm.argString(a, 0)
		if err != nil {
			return value.Value{}, err
		}
		m, matched, err2 := vm.execRegexp(rd, a.This.Obj(), s)
		if err2 != nil {
			return value.Value{}, vm.ThrowError(InternalError, "regexp execution failed: %s", err2.Error())
		}
		if !matched {
			return value.Null_(), nil
		}
		groups := m.Groups()
		items := make([]value.Value, len(groups))
		for i, g := range groups {
			if len(g.Captures) == 0 {
				items[i] = value.Undefined_()
				continue
			}
			items[i] = value.FromString(value.NewStr(g.String()))
		}
		arr := value.NewFastArray(items)
		arr.Proto = vm.protos.Array
		result := value.FromObject(value.Array, arr)
		vm.setOwn(arr, "index", value.Num(float64(m.Index)), true, true, true)
		vm.setOwn(arr, "input", value.FromString(value.NewStr(s)), true, true, true)
		return result, nil
	})

	vm.nativeMethod(proto, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		rd, thrown := regexpData(vm, a.This)
		if thrown != nil {
			return value.Value{}, thrown
		}
		return value.FromString(value.NewStr("/" + rd.Source + "/" + rd.Flags)), nil
	})
}

// installRegExpOwnProps seeds the instance-level source/flags/global/
// ignoreCase/multiline/lastIndex slots as plain data properties. Real
// ECMAScript specifies source/flags/global/etc. as prototype
// accessors; this engine installs them as own data properties instead
// (lastIndex genuinely is an own, writable data property even in
// ECMAScript, so only the others are a simplification here).
func (vm *VM) installRegExpOwnProps(re *value.Object) {
	rd := re.Regexp
	vm.setOwn(re, "source", value.FromString(value.NewStr(rd.Source)), false, false, false)
	vm.setOwn(re, "flags", value.FromString(value.NewStr(rd.Flags)), false, false, false)
	vm.setOwn(re, "global", value.Bool(rd.Global), false, false, false)
	vm.setOwn(re, "ignoreCase", value.Bool(rd.IgnoreCase), false, false, false)
	vm.setOwn(re, "multiline", value.Bool(rd.Multiline), false, false, false)
	vm.setOwn(re, "lastIndex", value.Num(0), true, false, false)
}

func regexpData(vm *VM, this value.Value) (*value.RegexpData, *Thrown) {
	if this.Type() != value.RegExp || this.Obj() == nil || this.Obj().Regexp == nil {
		return nil, vm.ThrowError(TypeError, "not a RegExp")
	}
	return this.Obj().Regexp, nil
}

// execRegexp runs the compiled pattern against s, starting at
// lastIndex for a "g" pattern and writing the advanced (or reset)
// lastIndex back to both RegexpData and the own "lastIndex" property
// so a script reading re.lastIndex sees the same value this engine
// uses internally on the next test()/exec() call.
func (vm *VM) execRegexp(rd *value.RegexpData, re *value.Object, s string) (*regexp2.Match, bool, error) {
	start := 0
	if rd.Global {
		start = rd.LastIndex
		if start < 0 || start > len(s) {
			vm.setRegexpLastIndex(rd, re, 0)
			return nil, false, nil
		}
	}
	m, err := rd.Compiled.FindStringMatchStartingAt(s, start)
	if err != nil {
		return nil, false, err
	}
	if m == nil {
		if rd.Global {
			vm.setRegexpLastIndex(rd, re, 0)
		}
		return nil, false, nil
	}
	if rd.Global {
		vm.setRegexpLastIndex(rd, re, m.Index+m.Length)
	}
	return m, true, nil
}

func (vm *VM) setRegexpLastIndex(rd *value.RegexpData, re *value.Object, n int) {
	rd.LastIndex = n
	vm.setOwn(re, "lastIndex", value.Num(float64(n)), true, false, false)
}
