// Package value implements the engine's tagged value representation
// (spec §3.1) and the boxed heap entities it points to: strings,
// objects, arrays, functions and typed arrays (spec §3.2).
//
// The C source this engine is distilled from (see
// _examples/original_source/njs/src/njs_value.h) packs a Value into a
// 16-byte union with the type tag in the first byte and a "truth" byte
// mirroring ToBoolean in the second, so branches like "is this
// null-or-undefined" or "is this an object kind" become a single
// integer compare on the tag. Go's type system does not want a raw
// union; per spec §9 ("an implementer may prefer explicit struct
// fields... the payload union is opaque at the type-system level"),
// Value here is an ordinary struct whose Type field preserves the exact
// numeric ordering of the C enum, so every coarse-class comparison in
// spec §3.1 (type <= Boolean, type >= Object, ...) is still a single
// integer compare; only the payload itself is a safe Go union substitute
// (at most one of num/str/obj/sym is meaningful, selected by Type).
package value

import "fmt"

// Type is the value's type tag. The numeric ordering matches
// njs_value_type_t exactly (spec §3.1, confirmed against
// original_source/njs/src/njs_value.h): values <= Undefined are
// null-or-undefined, <= Boolean adds booleans, <= Number adds numbers,
// <= String adds strings (the "primitive" classes), and values >= Object
// are object-kinds.
type Type uint8

const (
	Null Type = iota
	Undefined
	Boolean
	Number
	Symbol
	String
	Data
	Invalid

	Object Type = 0x10
	Array
	Function
	RegExp
	Date
	TypedArray
	Promise
	ObjectValue
	ArrayBuffer
	DataView
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Undefined:
		return "undefined"
	case Boolean:
		return "boolean"
	case Number:
		return "number"
	case Symbol:
		return "symbol"
	case String:
		return "string"
	case Data:
		return "data"
	case Invalid:
		return "invalid"
	case Object:
		return "object"
	case Array:
		return "array"
	case Function:
		return "function"
	case RegExp:
		return "regexp"
	case Date:
		return "date"
	case TypedArray:
		return "typedarray"
	case Promise:
		return "promise"
	case ObjectValue:
		return "objectvalue"
	case ArrayBuffer:
		return "arraybuffer"
	case DataView:
		return "dataview"
	default:
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
}

// Value is the engine's tagged cell (spec §3.1). Zero Value is Null,
// same as the C representation's all-zero bit pattern.
type Value struct {
	typ   Type
	truth bool // maintained == ToBoolean(v); a single-byte compare for logical ops

	num float64
	str *Str
	obj *Object
	sym *Symbol
}

// Symbol carries an atom ID (opaque here as a uint32) and an optional
// description value.
type Symbol struct {
	AtomID      uint32
	Description *Value
}

// Type reports the value's type tag.
func (v Value) Type() Type { return v.typ }

// Truth returns the maintained ToBoolean bit without recomputing it
// (spec §3.1, §8.1 "Value.truth" invariant).
func (v Value) Truth() bool { return v.truth }

// IsNullOrUndefined tests type <= Undefined.
func (v Value) IsNullOrUndefined() bool { return v.typ <= Undefined }

// IsNullOrUndefinedOrBoolean tests type <= Boolean.
func (v Value) IsNullOrUndefinedOrBoolean() bool { return v.typ <= Boolean }

// IsNumeric tests type <= Number (null/undefined/boolean/number all
// convert to a number per spec §3.1's ToNumber note).
func (v Value) IsNumeric() bool { return v.typ <= Number }

// IsPrimitive tests type <= String.
func (v Value) IsPrimitive() bool { return v.typ <= String }

// IsObject tests type >= Object ("object-kind").
func (v Value) IsObject() bool { return v.typ >= Object }

func Null_() Value      { return Value{typ: Null} }
func Undefined_() Value { return Value{typ: Undefined} }

func Bool(b bool) Value {
	return Value{typ: Boolean, truth: b, num: b2f(b)}
}

func Num(n float64) Value {
	return Value{typ: Number, truth: n != 0 && n == n, num: n}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Str returns the boxed short/long string (see string.go).
func (v Value) Str() *Str { return v.str }

// NumberValue returns the IEEE-754 payload of a Number value.
func (v Value) NumberValue() float64 { return v.num }

// BoolValue returns the boolean payload of a Boolean value.
func (v Value) BoolValue() bool { return v.truth }

// Obj returns the boxed object header for any object-kind value.
func (v Value) Obj() *Object { return v.obj }

// Sym returns the symbol payload.
func (v Value) Sym() *Symbol { return v.sym }

// FromString wraps a Str as a String-typed Value, maintaining the
// truth bit (a string is truthy iff non-empty).
func FromString(s *Str) Value {
	return Value{typ: String, truth: s.Size() > 0, str: s}
}

// FromSymbol wraps a Symbol as a Symbol-typed Value. Symbols are always
// truthy.
func FromSymbol(s *Symbol) Value {
	return Value{typ: Symbol, truth: true, sym: s}
}

// FromObject wraps an Object header as a value of the given object-kind
// type (Object, Array, Function, ...). Object-kind values are always
// truthy.
func FromObject(t Type, o *Object) Value {
	if t < Object {
		panic("value: FromObject requires an object-kind type")
	}
	return Value{typ: t, truth: true, obj: o}
}

// Equal implements strict equality (===) for primitives; object-kind
// values compare by identity (pointer equality on the boxed Object).
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		// Per spec's primitive class ordering, Null and Undefined are
		// distinct types and are NOT strict-equal to each other.
		return false
	}
	switch {
	case a.typ <= Undefined:
		return true
	case a.typ == Boolean:
		return a.truth == b.truth
	case a.typ == Number:
		return a.num == b.num
	case a.typ == String:
		return StrEqual(a.str, b.str)
	case a.typ == Symbol:
		return a.sym == b.sym
	default:
		return a.obj == b.obj
	}
}
