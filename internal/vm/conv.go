// Type conversion rules (spec §3.1, §4.7, §4.5's coercion traps). The
// register-machine original re-runs one opcode after a trap-driven
// coercion (spec §4.5); this stack-based interpreter instead calls
// these helpers directly at the point of use, an implementation choice
// recorded in DESIGN.md — the observable conversion RESULTS (spec
// §8.2's laws) are unchanged either way.
package vm

import (
	"math"
	"strings"

	"github.com/nginx/njs-go/internal/value"
)

// ToBoolean implements ToBoolean; Value.Truth already maintains this
// bit (spec §3.1, §8.1 invariant), so this is just an accessor that
// also serves as the documented entry point conversions go through.
func ToBoolean(v value.Value) bool { return v.Truth() }

// ToNumber converts a value to a number (spec §3.1/§4.7). Object-kind
// values go through ToPrimitive(hint=number) first.
func (vm *VM) ToNumber(v value.Value) (float64, *Thrown) {
	switch v.Type() {
	case value.Null:
		return 0, nil
	case value.Undefined:
		return math.NaN(), nil
	case value.Boolean:
		if v.BoolValue() {
			return 1, nil
		}
		return 0, nil
	case value.Number:
		return v.NumberValue(), nil
	case value.String:
		return v.Str().ToNumber(), nil
	case value.Symbol:
		return 0, vm.ThrowError(TypeError, "cannot convert a Symbol value to a number")
	default:
		prim, err := vm.ToPrimitive(v, "number")
		if err != nil {
			return 0, err
		}
		if prim.Type() == value.Object || prim.Type() >= value.Object {
			return math.NaN(), nil
		}
		return vm.ToNumber(prim)
	}
}

// ToStringValue converts v to a String-typed Value (spec §4.7).
func (vm *VM) ToStringValue(v value.Value) (value.Value, *Thrown) {
	if v.Type() == value.String {
		return v, nil
	}
	if v.Type() == value.Symbol {
		return value.Value{}, vm.ThrowError(TypeError, "cannot convert a Symbol value to a string")
	}
	if v.IsObject() {
		prim, err := vm.ToPrimitive(v, "string")
		if err != nil {
			return value.Value{}, err
		}
		if prim.IsObject() {
			return value.FromString(value.NewStr("[object Object]")), nil
		}
		return vm.ToStringValue(prim)
	}
	return value.FromString(value.NewStr(ToStringNoThrow(v))), nil
}

// ToStringNoThrow stringifies primitives and object-kind values without
// invoking user code or raising on Symbol (used for diagnostics, error
// formatting, and console output where a throw would be inappropriate).
func ToStringNoThrow(v value.Value) string {
	switch v.Type() {
	case value.Null:
		return "null"
	case value.Undefined:
		return "undefined"
	case value.Boolean:
		if v.BoolValue() {
			return "true"
		}
		return "false"
	case value.Number:
		return value.NumberToString(v.NumberValue())
	case value.String:
		return v.Str().Bytes()
	case value.Symbol:
		return "Symbol()"
	case value.Array:
		return joinArrayForToString(v.Obj())
	case value.Function:
		return "function " + functionDisplayName(v.Obj()) + "() { [native code] }"
	default:
		if v.Obj() != nil && v.Obj().ErrorData {
			return ErrorToString(v)
		}
		return "[object Object]"
	}
}

func functionDisplayName(o *value.Object) string {
	if o.Function == nil {
		return ""
	}
	if o.Function.Name.Type() == value.String {
		return o.Function.Name.Str().Bytes()
	}
	return ""
}

func joinArrayForToString(o *value.Object) string {
	if o == nil || o.Array == nil {
		return ""
	}
	parts := make([]string, len(o.Array.Values))
	for i, el := range o.Array.Values {
		if el.IsNullOrUndefined() {
			parts[i] = ""
			continue
		}
		parts[i] = ToStringNoThrow(el)
	}
	return strings.Join(parts, ",")
}

// ToPrimitive implements OrdinaryToPrimitive (spec §4.7 note / ECMA
// 7.1.1): tries valueOf then toString (or the reverse for hint
// "string"), falling back to the value itself if already primitive.
func (vm *VM) ToPrimitive(v value.Value, hint string) (value.Value, *Thrown) {
	if !v.IsObject() {
		return v, nil
	}
	methods := []string{"valueOf", "toString"}
	if hint == "string" {
		methods = []string{"toString", "valueOf"}
	}
	for _, name := range methods {
		fnVal, err := vm.GetPropertyByName(v, name)
		if err != nil {
			return value.Value{}, err
		}
		if fnVal.Type() != value.Function {
			continue
		}
		res, err := vm.CallValue(fnVal, v, nil, nil)
		if err != nil {
			return value.Value{}, err
		}
		if !res.IsObject() {
			return res, nil
		}
	}
	return value.Value{}, vm.ThrowError(TypeError, "cannot convert object to primitive value")
}

// ToInt32 / ToUint32 implement the integer coercions used by bitwise
// operators (spec §4.3 opcode table's Shl/Shr/UShr/BitAnd/BitOr/BitXor).
func (vm *VM) ToInt32(v value.Value) (int32, *Thrown) {
	n, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return toInt32(n), nil
}

func (vm *VM) ToUint32(v value.Value) (uint32, *Thrown) {
	n, err := vm.ToNumber(v)
	if err != nil {
		return 0, err
	}
	return toUint32(n), nil
}

func toInt32(n float64) int32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	u := toUint32(n)
	return int32(u)
}

func toUint32(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	n = math.Trunc(n)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// ToObject coerces a primitive into a wrapper/prototype-bearing form
// sufficient for property access (spec §4.4 "coerce key to a
// primitive" resolution order's implicit receiver-boxing step).
// Strings get their length/indexed-char fast path in object_protocol.go
// directly rather than via a full wrapper object.
func (vm *VM) ToObject(v value.Value) (*value.Object, *Thrown) {
	switch v.Type() {
	case value.Null, value.Undefined:
		return nil, vm.ThrowError(TypeError, "cannot convert null or undefined to object")
	default:
		if v.IsObject() {
			return v.Obj(), nil
		}
		return nil, nil // primitive with no backing object; caller handles via fast paths
	}
}

// SameValueZero implements the algorithm used by Array.prototype.includes
// and typed-array equality: like strict equality but NaN equals NaN.
func SameValueZero(a, b value.Value) bool {
	if a.Type() == value.Number && b.Type() == value.Number {
		an, bn := a.NumberValue(), b.NumberValue()
		if math.IsNaN(an) && math.IsNaN(bn) {
			return true
		}
		return an == bn
	}
	return value.Equal(a, b)
}
