// Package atom implements the engine's atom table (spec §3.5): interning
// of every string/symbol property key ever hashed by a VM into a 32-bit
// ID, so property lookups compare integers instead of bytes.
//
// There is one process-wide, immutable Shared table seeded with every
// built-in member name (so common atoms such as "length" or "toString"
// resolve in constant time without touching a per-VM table), and one
// incrementally-assigned Table per VM for everything else. IDs never
// collide between the two: shared IDs are even, per-VM IDs are odd.
package atom

import "github.com/cespare/xxhash/v2"

// ID is an interned atom identifier.
type ID uint32

const invalidID ID = 0

// Shared is the process-wide, read-only atom table. It is populated
// once at package init with the engine's built-in member names and
// keyword spellings, then never mutated again, so it is safe to read
// from multiple VMs (and multiple goroutines) concurrently without
// locking.
var Shared = newSharedTable()

type sharedTable struct {
	byHash map[uint64][]sharedEntry
	names  []string // indexed by ID/2
}

type sharedEntry struct {
	hash uint64
	name string
	id   ID
}

func newSharedTable() *sharedTable {
	t := &sharedTable{byHash: make(map[uint64][]sharedEntry)}
	for _, n := range builtinAtomNames {
		t.intern(n)
	}
	return t
}

func (t *sharedTable) intern(name string) ID {
	h := hashString(name)
	for _, e := range t.byHash[h] {
		if e.name == name {
			return e.id
		}
	}
	id := ID(len(t.names)+1) * 2 // even, 1-based so 0 stays "invalid"
	t.names = append(t.names, name)
	t.byHash[h] = append(t.byHash[h], sharedEntry{hash: h, name: name, id: id})
	return id
}

func (t *sharedTable) lookup(name string) (ID, bool) {
	h := hashString(name)
	for _, e := range t.byHash[h] {
		if e.name == name {
			return e.id, true
		}
	}
	return invalidID, false
}

func (t *sharedTable) name(id ID) (string, bool) {
	if id == 0 || id%2 != 0 {
		return "", false
	}
	idx := int(id/2) - 1
	if idx < 0 || idx >= len(t.names) {
		return "", false
	}
	return t.names[idx], true
}

// Table is a per-VM atom table extension. New string keys hashed during
// that VM's lifetime that aren't already in Shared get an odd ID from
// this table. Table is not safe for concurrent use (a VM is
// single-threaded, spec §5).
type Table struct {
	byHash map[uint64][]entry
	names  []string // indexed by (id-1)/2
}

type entry struct {
	hash uint64
	name string
	id   ID
}

// New returns an empty per-VM atom table.
func New() *Table {
	return &Table{byHash: make(map[uint64][]entry)}
}

// Intern returns the atom ID for name, assigning a fresh one if this is
// the first time this VM (or the shared table) has seen it.
func (t *Table) Intern(name string) ID {
	if id, ok := Shared.lookup(name); ok {
		return id
	}
	h := hashString(name)
	for _, e := range t.byHash[h] {
		if e.name == name {
			return e.id
		}
	}
	id := ID(len(t.names)*2 + 1) // odd
	t.names = append(t.names, name)
	t.byHash[h] = append(t.byHash[h], entry{hash: h, name: name, id: id})
	return id
}

// Name returns the string a previously-interned ID was assigned to.
func (t *Table) Name(id ID) (string, bool) {
	if id == 0 {
		return "", false
	}
	if id%2 == 0 {
		return Shared.name(id)
	}
	idx := (id - 1) / 2
	if int(idx) >= len(t.names) {
		return "", false
	}
	return t.names[idx], true
}

// Builtin returns the shared-table ID for one of the names seeded at
// init (builtinAtomNames below). It panics if name was never seeded,
// since that indicates a caller reaching for an atom the shared table
// was never told to reserve.
func Builtin(name string) ID {
	id, ok := Shared.lookup(name)
	if !ok {
		panic("atom: " + name + " is not a seeded builtin atom")
	}
	return id
}

func hashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// builtinAtomNames seeds the shared table with the member names and
// keyword spellings the engine's built-in plumbing (internal/vm) and
// parser reference by atom rather than by re-hashing a string literal
// every time.
var builtinAtomNames = []string{
	"length", "name", "message", "stack", "prototype", "constructor",
	"__proto__", "value", "writable", "enumerable", "configurable",
	"get", "set", "toString", "valueOf", "call", "apply", "bind",
	"push", "pop", "shift", "unshift", "slice", "splice", "join",
	"indexOf", "lastIndexOf", "includes", "forEach", "map", "filter",
	"reduce", "concat", "keys", "values", "entries", "next", "done",
	"Symbol.iterator", "Object", "Array", "Function", "Error",
	"TypeError", "RangeError", "ReferenceError", "SyntaxError",
	"URIError", "EvalError", "InternalError", "MemoryError",
	"Boolean", "Number", "String", "RegExp", "Date", "Promise",
	"ArrayBuffer", "DataView", "Uint8Array", "Int8Array", "Uint16Array",
	"Int16Array", "Uint32Array", "Int32Array", "Float32Array",
	"Float64Array", "JSON", "Math", "globalThis", "undefined", "this",
	"arguments", "of", "from", "set", "subarray", "buffer", "byteLength",
	"byteOffset", "isArray", "freeze", "isFrozen", "assign", "create",
	"defineProperty", "defineProperties", "getOwnPropertyDescriptor",
	"getPrototypeOf", "setPrototypeOf",
}
