// Math object (not named as a component in spec.md's table but implied
// by "the full ECMAScript built-in library... treat as libraries
// implementing the property protocol of §4.4"): a plain object holding
// constants and native functions, grounded on
// original_source/njs/src/njs_math.c's flat function table.
package vm

import (
	"math"

	"github.com/nginx/njs-go/internal/value"
)

func (vm *VM) setupMathBuiltins() {
	m := value.NewObject(value.Object)
	m.Proto = vm.protos.Object
	m.Extensible = true

	vm.setOwn(m, "PI", value.Num(math.Pi), false, false, false)
	vm.setOwn(m, "E", value.Num(math.E), false, false, false)
	vm.setOwn(m, "LN2", value.Num(math.Ln2), false, false, false)
	vm.setOwn(m, "LN10", value.Num(math.Log(10)), false, false, false)
	vm.setOwn(m, "SQRT2", value.Num(math.Sqrt2), false, false, false)

	unary := map[string]func(float64) float64{
		"abs": math.Abs, "floor": math.Floor, "ceil": math.Ceil,
		"round": mathRound, "trunc": math.Trunc, "sqrt": math.Sqrt,
		"cbrt": math.Cbrt, "sign": mathSign, "log": math.Log,
		"log2": math.Log2, "log10": math.Log10, "exp": math.Exp,
		"sin": math.Sin, "cos": math.Cos, "tan": math.Tan,
		"asin": math.Asin, "acos": math.Acos, "atan": math.Atan,
	}
	for name, fn := range unary {
		fn := fn
		vm.nativeMethod(m, name, 1, func(a value.NativeArgs) (value.Value, error) {
			n, err := vm.ToNumber(a.Arg(0))
			if err != nil {
				return value.Value{}, err
			}
			return value.Num(fn(n)), nil
		})
	}

	vm.nativeMethod(m, "pow", 2, func(a value.NativeArgs) (value.Value, error) {
		x, err := vm.ToNumber(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		y, err := vm.ToNumber(a.Arg(1))
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(math.Pow(x, y)), nil
	})

	vm.nativeMethod(m, "atan2", 2, func(a value.NativeArgs) (value.Value, error) {
		y, err := vm.ToNumber(a.Arg(0))
		if err != nil {
			return value.Value{}, err
		}
		x, err := vm.ToNumber(a.Arg(1))
		if err != nil {
			return value.Value{}, err
		}
		return value.Num(math.Atan2(y, x)), nil
	})

	vm.nativeMethod(m, "max", 2, func(a value.NativeArgs) (value.Value, error) {
		return vm.mathExtreme(a.Args, true)
	})
	vm.nativeMethod(m, "min", 2, func(a value.NativeArgs) (value.Value, error) {
		return vm.mathExtreme(a.Args, false)
	})
	vm.nativeMethod(m, "random", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.Num(vm.random()), nil
	})
	vm.nativeMethod(m, "hypot", 2, func(a value.NativeArgs) (value.Value, error) {
		sum := 0.0
		for _, arg := range a.Args {
			n, err := vm.ToNumber(arg)
			if err != nil {
				return value.Value{}, err
			}
			sum += n * n
		}
		return value.Num(math.Sqrt(sum)), nil
	})

	vm.setOwn(vm.Global, "Math", value.FromObject(value.Object, m), true, false, true)
}

func (vm *VM) mathExtreme(args []value.Value, wantMax bool) (value.Value, error) {
	if len(args) == 0 {
		if wantMax {
			return value.Num(-inf()), nil
		}
		return value.Num(inf()), nil
	}
	best, err := vm.ToNumber(args[0])
	if err != nil {
		return value.Value{}, err
	}
	for _, arg := range args[1:] {
		n, nerr := vm.ToNumber(arg)
		if nerr != nil {
			return value.Value{}, nerr
		}
		if math.IsNaN(n) {
			return value.Num(nan()), nil
		}
		if (wantMax && n > best) || (!wantMax && n < best) {
			best = n
		}
	}
	return value.Num(best), nil
}

func mathRound(n float64) float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return n
	}
	return math.Floor(n + 0.5)
}

func mathSign(n float64) float64 {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return n
	}
}

// random is an allocation-free xorshift64 PRNG, seeded once per VM at
// construction time (see vm.New) so repeated calls within one VM
// advance independently of any other VM's stream, without pulling in a
// global math/rand lock (spec §5: VMs never share mutable state).
func (vm *VM) random() float64 {
	if vm.randState == 0 {
		vm.randState = 0x9e3779b97f4a7c15
	}
	x := vm.randState
	x ^= x << 13
	x ^= x >> 7
	x ^= x << 17
	vm.randState = x
	return float64(x>>11) / (1 << 53)
}
