package value

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// shortStringMax is the inline threshold from spec §3.1: a string of
// byte size <= 14 is stored inline in the Value's own 16 bytes in the C
// engine. Go strings are already reference types with no embedded
// storage win available, so Str here keeps both representations as a
// single struct, but preserves the short/long *distinction* (and the
// short path's guaranteed O(1), no-refcount lifetime) because spec
// §8.1 requires ToString/length to "agree between the short and long
// representations when the same byte sequence is stored" — tests in
// string_test.go construct both paths and assert the law holds.
const shortStringMax = 14

// stringMapStride is NJS_STRING_MAP_STRIDE: an offset map entry is
// recorded every 32 code points of a long, non-ASCII string to
// accelerate random access (spec §3.1, §4.7).
const stringMapStride = 32

const permanentRetain = 0xffff

// Str is the boxed string entity a String-typed Value points to.
type Str struct {
	bytes  string // UTF-8 bytes; authoritative storage either way
	length int    // code-point count; -1 if not yet known
	short  bool   // true if size <= shortStringMax (no offset map, no retain)
	retain uint32 // long strings only; permanentRetain means shared across VMs
	offMap []uint32
}

// NewStr constructs a Str from already-validated UTF-8 bytes. length is
// computed lazily on first need (pure-ASCII strings get it for free by
// comparing byte size to rune count only when asked).
func NewStr(s string) *Str {
	r := &Str{bytes: s, length: -1}
	r.short = len(s) <= shortStringMax
	if !r.short {
		r.retain = 1
	}
	return r
}

// NewPermanentStr marks a long string as retained forever and shared
// across VM instances (spec §3.1 "retain counter 0xffff = permanent").
func NewPermanentStr(s string) *Str {
	r := NewStr(s)
	if !r.short {
		r.retain = permanentRetain
	}
	return r
}

// Size returns the byte length.
func (s *Str) Size() int { return len(s.bytes) }

// IsShort reports whether this string used the inline (<=14 byte)
// representation.
func (s *Str) IsShort() bool { return s.short }

// Bytes returns the raw UTF-8 bytes.
func (s *Str) Bytes() string { return s.bytes }

// Retain increments the long-string retain counter. Permanent strings
// (retain == 0xffff) are unaffected; short strings have no counter.
func (s *Str) Retain() {
	if s.short || s.retain == permanentRetain {
		return
	}
	s.retain++
}

// Release decrements the retain counter. It never frees memory itself
// (the VM arena owns the bytes); it exists so the VM can detect
// "nobody holds this long string anymore" for diagnostics.
func (s *Str) Release() {
	if s.short || s.retain == permanentRetain || s.retain == 0 {
		return
	}
	s.retain--
}

// RetainCount reports the current retain counter (0 for short strings).
func (s *Str) RetainCount() uint32 {
	if s.short {
		return 0
	}
	return s.retain
}

// Length returns the code-point count, computing and caching it on
// first use. For pure-ASCII strings this equals Size(); computing it is
// then just "have we already measured".
func (s *Str) Length() int {
	if s.length >= 0 {
		return s.length
	}
	if isASCII(s.bytes) {
		s.length = len(s.bytes)
		return s.length
	}
	s.length = utf8.RuneCountInString(s.bytes)
	s.buildOffsetMap()
	return s.length
}

func isASCII(b string) bool {
	for i := 0; i < len(b); i++ {
		if b[i] >= 0x80 {
			return false
		}
	}
	return true
}

// buildOffsetMap lazily builds the byte-offset map used to accelerate
// random access into a mixed multi-byte string: one entry every
// stringMapStride code points (spec §3.1/§4.7). Short strings and
// pure-ASCII strings never need one because random access is already
// O(1) by construction.
func (s *Str) buildOffsetMap() {
	if s.short || isASCII(s.bytes) {
		return
	}
	n := (s.length + stringMapStride - 1) / stringMapStride
	if n <= 1 {
		return
	}
	s.offMap = make([]uint32, 0, n)
	cp := 0
	for i := range s.bytes {
		if cp%stringMapStride == 0 {
			s.offMap = append(s.offMap, uint32(i))
		}
		cp++
	}
}

// byteOffsetOf returns the byte offset of the code point at the given index,
// by walking from the nearest offset-map checkpoint (spec §4.7 Slice).
func (s *Str) byteOffsetOf(index int) int {
	if index <= 0 {
		return 0
	}
	if isASCII(s.bytes) {
		return index
	}
	_ = s.Length() // ensure offset map built
	startCP := 0
	startByte := 0
	if len(s.offMap) > 0 {
		chunk := index / stringMapStride
		if chunk >= len(s.offMap) {
			chunk = len(s.offMap) - 1
		}
		startCP = chunk * stringMapStride
		startByte = int(s.offMap[chunk])
	}
	cp := startCP
	byteIdx := startByte
	for byteIdx < len(s.bytes) && cp < index {
		_, sz := utf8.DecodeRuneInString(s.bytes[byteIdx:])
		byteIdx += sz
		cp++
	}
	return byteIdx
}

// Slice returns the substring spanning code points [start, end).
// Pure-ASCII strings take the memcpy fast path; mixed UTF-8 strings
// walk from the nearest offset-map checkpoint (spec §4.7).
func (s *Str) Slice(start, end int) *Str {
	length := s.Length()
	if start < 0 {
		start = 0
	}
	if end > length {
		end = length
	}
	if end < start {
		end = start
	}
	if isASCII(s.bytes) {
		return NewStr(s.bytes[start:end])
	}
	bs := s.byteOffsetOf(start)
	be := s.byteOffsetOf(end)
	return NewStr(s.bytes[bs:be])
}

// StrEqual compares two strings: length first (byte size), then bytes
// (spec §4.7 Equality).
func StrEqual(a, b *Str) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.bytes) != len(b.bytes) {
		return false
	}
	return a.bytes == b.bytes
}

// Concat concatenates two strings, preserving a valid cached length
// only when both inputs already had one (spec §4.7 "length stays valid
// only if every input length was valid").
func Concat(a, b *Str) *Str {
	r := NewStr(a.bytes + b.bytes)
	if a.length >= 0 && b.length >= 0 {
		r.length = a.length + b.length
	}
	return r
}

// ToNumber implements the string-to-number conversion rules of spec
// §4.7: ASCII whitespace trimmed, 0x/0o/0b radix prefixes, decimal with
// optional sign, "Infinity"/"-Infinity", empty/whitespace-only -> 0,
// anything else -> NaN.
func (s *Str) ToNumber() float64 {
	t := strings.TrimFunc(s.bytes, isASCIISpace)
	if t == "" {
		return 0
	}
	neg := false
	switch t[0] {
	case '+':
		t = t[1:]
	case '-':
		neg = true
		t = t[1:]
	}
	if t == "Infinity" {
		if neg {
			return math.Inf(-1)
		}
		return math.Inf(1)
	}
	if len(t) > 2 && t[0] == '0' && (t[1] == 'x' || t[1] == 'X') {
		n, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return signed(float64(n), neg)
	}
	if len(t) > 2 && t[0] == '0' && (t[1] == 'o' || t[1] == 'O') {
		n, err := strconv.ParseUint(t[2:], 8, 64)
		if err != nil {
			return math.NaN()
		}
		return signed(float64(n), neg)
	}
	if len(t) > 2 && t[0] == '0' && (t[1] == 'b' || t[1] == 'B') {
		n, err := strconv.ParseUint(t[2:], 2, 64)
		if err != nil {
			return math.NaN()
		}
		return signed(float64(n), neg)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return signed(f, neg)
}

func signed(f float64, neg bool) float64 {
	if neg {
		return -f
	}
	return f
}

func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// NumberToString implements ToString for numbers, matching the law
// parseFloat(toString(n)) === n for finite non-(-0) numbers (spec §8.2).
func NumberToString(n float64) string {
	if math.IsNaN(n) {
		return "NaN"
	}
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if n == 0 {
		return "0"
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}
