// Global functions not scoped to any object (parseInt, parseFloat,
// isNaN, isFinite, encodeURIComponent/decodeURIComponent): spec §8.2's
// law `parseFloat(toString(n)) === n` pins parseFloat's behavior down
// directly. Grounded on original_source/njs/src/njs_string.c's
// njs_string_to_number core, reimplemented over value.Str here.
package vm

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupGlobalFunctions() {
	vm.bindGlobalFn("parseInt", 2, func(a value.NativeArgs) (value.Value, error) {
		sv, err := vm.ToStringValue(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		s := strings.TrimSpace(sv.Str().Bytes())
		radix := argIntOr(vm, a, 1, 0)
		return value.Num(parseIntString(s, radix)), nil
	})

	vm.bindGlobalFn("parseFloat", 1, func(a value.NativeArgs) (value.Value, error) {
		sv, err := vm.ToStringValue(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(parseFloatString(strings.TrimSpace(sv.Str().Bytes()))), nil
	})

	vm.bindGlobalFn("isNaN", 1, func(a value.NativeArgs) (value.Value, error) {
		n, err := vm.ToNumber(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(math.IsNaN(n)), nil
	})

	vm.bindGlobalFn("isFinite", 1, func(a value.NativeArgs) (value.Value, error) {
		n, err := vm.ToNumber(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		return value.Bool(!math.IsNaN(n) && !math.IsInf(n, 0)), nil
	})

	vm.bindGlobalFn("encodeURIComponent", 1, func(a value.NativeArgs) (value.Value, error) {
		sv, err := vm.ToStringValue(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		return value.FromString(value.NewStr(url.QueryEscape(sv.Str().Bytes()))), nil
	})

	vm.bindGlobalFn("decodeURIComponent", 1, func(a value.NativeArgs) (value.Value, error) {
		sv, err := vm.ToStringValue(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		s, derr := url.QueryUnescape(sv.Str().Bytes())
		if derr != nil {
			return value.Value{}, vm.ThrowError(URIError, "URI malformed")
		}
		return value.FromString(value.NewStr(s)), nil
	})

	vm.bindGlobalFn("require", 1, func(a value.NativeArgs) (value.Value, error) {
		sv, err := vm.ToStringValue(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		name := sv.Str().Bytes()
		return vm.requireModule(name)
	})
}

// requireModule resolves and runs a named module exactly once (spec §1
// "the core only consumes a ModuleLoader callback returning source
// bytes for a name", §6.1 vm_compile_module "the returned handle is
// later accessible via require(name)"), caching its top-level result
// for subsequent requires of the same name.
func (vm *VM) requireModule(name string) (value.Value, error) {
	if cached, ok := vm.modules[name]; ok {
		return cached, nil
	}
	if vm.moduleLoader == nil {
		return value.Value{}, vm.ThrowError(TypeError, "no module loader installed for require(%q)", name)
	}
	src, lerr := vm.moduleLoader(name)
	if lerr != nil {
		return value.Value{}, vm.ThrowError(TypeError, "cannot load module %q: %s", name, lerr.Error())
	}
	lambda, cerr := vm.CompileModule(name, name, string(src))
	if cerr != nil {
		return value.Value{}, vm.ThrowError(SyntaxError, "cannot compile module %q: %s", name, cerr.Error())
	}
	result, rerr := vm.Start(lambda)
	if rerr != nil {
		return value.Value{}, rerr
	}
	vm.modules[name] = result
	return result, nil
}

func (vm *VM) bindGlobalFn(name string, nargs int, fn value.NativeFunc) {
	f := value.NewNativeFunction(name, nargs, fn)
	f.Proto = vm.protos.Function
	vm.setOwn(vm.Global, name, value.FromObject(value.Function, f), true, false, true)
}

func parseIntString(s string, radix int) float64 {
	neg := false
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	} else if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if radix == 0 {
		switch {
		case strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X"):
			radix = 16
			s = s[2:]
		default:
			radix = 10
		}
	} else if radix == 16 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		s = s[2:]
	}
	end := 0
	for end < len(s) {
		c := s[end]
		var digit int
		switch {
		case c >= '0' && c <= '9':
			digit = int(c - '0')
		case c >= 'a' && c <= 'z':
			digit = int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			digit = int(c-'A') + 10
		default:
			digit = radix
		}
		if digit >= radix {
			break
		}
		end++
	}
	if end == 0 {
		return nan()
	}
	n, err := strconv.ParseInt(s[:end], radix, 64)
	if err != nil {
		// Fall back to float parsing for magnitudes beyond int64.
		f, _ := strconv.ParseFloat(s[:end], 64)
		if neg {
			return -f
		}
		return f
	}
	if neg {
		return -float64(n)
	}
	return float64(n)
}

func parseFloatString(s string) float64 {
	if strings.HasPrefix(s, "Infinity") || strings.HasPrefix(s, "+Infinity") {
		return inf()
	}
	if strings.HasPrefix(s, "-Infinity") {
		return -inf()
	}
	end := 0
	seenDigit, seenDot, seenExp := false, false, false
	for end < len(s) {
		c := s[end]
		switch {
		case c >= '0' && c <= '9':
			seenDigit = true
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
		case (c == '+' || c == '-') && (end == 0 || s[end-1] == 'e' || s[end-1] == 'E'):
		case (c == 'e' || c == 'E') && seenDigit && !seenExp:
			seenExp = true
		default:
			goto done
		}
		end++
	}
done:
	if !seenDigit {
		return nan()
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return nan()
	}
	return f
}
