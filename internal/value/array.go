package value

// ArrayData is the "array value" shape of spec §3.2: a contiguous value
// vector plus a length. A FastArray has no numeric-key hash entries;
// setting a sparse index, defining an accessor on an index or on
// "length", or deleting in the middle demotes it to an ordinary object
// with an explicit "length" property and per-index hash entries (spec
// §4.4 "Fast-array promotion"). The demotion itself — setting
// Object.FastArray = false and backfilling Object.Hash with one
// PropData entry per surviving element — is implemented by
// demoteFastArray in internal/vm/object_protocol.go, since it needs the
// running VM's atom table to intern the index/length property names.
type ArrayData struct {
	Values []Value
	// Data backs TypedArray-kind objects: the raw element bytes
	// (spec §3.2's "*data" field); nil for ordinary arrays.
	Data        []byte
	ElementKind TypedArrayKind
	Buffer      *Object // the backing ArrayBuffer, for TypedArray/DataView
	ByteOffset  int
}

// TypedArrayKind enumerates the typed-array element types the core
// needs for spec §8.3 scenario 6 (Uint8Array) and the broader family
// (spec §3.2).
type TypedArrayKind uint8

const (
	Uint8Clamped TypedArrayKind = iota
	Uint8
	Int8
	Uint16
	Int16
	Uint32
	Int32
	Float32
	Float64
)

func (k TypedArrayKind) ElementSize() int {
	switch k {
	case Uint8, Int8, Uint8Clamped:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Int32, Float32:
		return 4
	case Float64:
		return 8
	default:
		return 1
	}
}

// NewFastArray returns a new Array-kind object backed by a plain Value
// vector.
func NewFastArray(values []Value) *Object {
	o := NewObject(Array)
	o.FastArray = true
	o.Array = &ArrayData{Values: values}
	return o
}

// Length returns the array's current length: the element vector size
// for an ordinary/fast array, or the element count derived from the
// raw byte buffer for a TypedArray.
func (a *ArrayData) Length() int {
	if a.Data != nil {
		size := a.ElementKind.ElementSize()
		if size == 0 {
			return 0
		}
		return len(a.Data) / size
	}
	return len(a.Values)
}
