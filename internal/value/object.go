package value

import "github.com/nginx/njs-go/internal/atom"

// Attribute is a three-valued property attribute (spec §3.3): a
// property's writable/enumerable/configurable bit is either known
// False, known True, or Unset (not yet touched, relevant only while
// defineProperty merges a partial descriptor).
type Attribute uint8

const (
	AttrUnset Attribute = iota
	AttrFalse
	AttrTrue
)

func AttrOf(b bool) Attribute {
	if b {
		return AttrTrue
	}
	return AttrFalse
}

func (a Attribute) Bool() bool { return a == AttrTrue }

// PropKind distinguishes the property variants of spec §3.3.
type PropKind uint8

const (
	PropData PropKind = iota
	PropAccessor
	PropRef
	PropPlaceRef
	PropTypedArrayRef
	PropHandler
	PropWhiteout
)

// Handler is the native get/set/delete hook for exotic properties
// (spec §4.4's "Property handler"). Mode selects which operation the
// single hook should perform.
type HandlerMode uint8

const (
	HandlerGet HandlerMode = iota
	HandlerSet
	HandlerDelete
)

type Handler func(obj *Object, mode HandlerMode, arg Value) (Value, error)

// Accessor holds a property's getter/setter pair. Either may be nil
// (absent).
type Accessor struct {
	Getter *Object // Function-kind object, or nil
	Setter *Object
}

// ArrayRef points into an array's backing store for Ref/PlaceRef/
// TypedArrayRef properties, so writes reach the storage directly
// instead of being boxed into a Property.
type ArrayRef struct {
	Array   *Object
	Index   int
	Created bool // PlaceRef: slot was just created by this access
}

// Property is one ordered-map entry (spec §3.3).
type Property struct {
	NameAtom atom.ID
	Name     Value // the property key as a value (string or symbol)
	Kind     PropKind

	Writable, Enumerable, Configurable Attribute

	Value    Value
	Accessor Accessor
	Ref      *ArrayRef
	Handler  Handler
}

// IsAccessorDescriptor and IsDataDescriptor implement the XOR invariant
// of spec §3.6: a fully-formed Property is exactly one of the two; the
// "generic descriptor" (neither) only appears transiently while
// defineProperty builds up a partial descriptor from a user object.
func (p *Property) IsAccessorDescriptor() bool {
	return p.Kind == PropAccessor
}

func (p *Property) IsDataDescriptor() bool {
	switch p.Kind {
	case PropData, PropRef, PropPlaceRef, PropTypedArrayRef:
		return true
	default:
		return false
	}
}

// FlatHash is the insertion-ordered, atom-keyed property map of spec
// §3.3/§3.6 ("flathsh"): a slice preserves insertion order, a map from
// atom ID to slice index gives O(1) lookup, and deleted entries become
// Whiteout tombstones rather than being removed, so that a later
// reinsertion of the same key can reuse (and reactivate) the slot,
// preserving "redefinition is a reinsertion" semantics (spec §4.4) or,
// per the Whiteout round-trip invariant (spec §8.1), appearing at the
// tail like a fresh key.
type FlatHash struct {
	entries []Property
	index   map[atom.ID]int
}

// NewFlatHash returns an empty ordered property map.
func NewFlatHash() *FlatHash {
	return &FlatHash{index: make(map[atom.ID]int)}
}

// Get returns the live property for id, or (nil, false) if absent or
// whited out.
func (h *FlatHash) Get(id atom.ID) (*Property, bool) {
	i, ok := h.index[id]
	if !ok {
		return nil, false
	}
	p := &h.entries[i]
	if p.Kind == PropWhiteout {
		return nil, false
	}
	return p, true
}

// GetWithWhiteout returns the slot for id regardless of whiteout state,
// and reports whether it is currently a whiteout. Used by the object
// protocol's "own_whiteout" tracking (spec §4.4 step 3).
func (h *FlatHash) GetWithWhiteout(id atom.ID) (*Property, bool) {
	i, ok := h.index[id]
	if !ok {
		return nil, false
	}
	return &h.entries[i], true
}

// Put inserts or overwrites the live property for id. If a Whiteout
// tombstone for the same atom exists, it is reused and reactivated in
// place rather than moved, UNLESS forceTail is set (the deletion path's
// "fresh insertion order" escape hatch, spec §3.6) in which case a new
// tail entry is appended and the old whiteout is left in place pointing
// nowhere useful (its NameAtom is simply superseded in the index).
func (h *FlatHash) Put(p Property, forceTail bool) {
	if i, ok := h.index[p.NameAtom]; ok && !forceTail {
		h.entries[i] = p
		return
	}
	h.entries = append(h.entries, p)
	h.index[p.NameAtom] = len(h.entries) - 1
}

// Delete turns the live property for id into a Whiteout tombstone,
// preserving its slot (and therefore the insertion-order position for
// every property after it) per spec §3.3/§8.1.
func (h *FlatHash) Delete(id atom.ID) bool {
	i, ok := h.index[id]
	if !ok {
		return false
	}
	if h.entries[i].Kind == PropWhiteout {
		return false
	}
	h.entries[i] = Property{NameAtom: id, Kind: PropWhiteout}
	return true
}

// Keys returns own enumerable property keys in insertion order, skipping
// whiteouts (spec §8.1 "Property order").
func (h *FlatHash) Keys(enumerableOnly bool) []Value {
	out := make([]Value, 0, len(h.entries))
	for i := range h.entries {
		p := &h.entries[i]
		if p.Kind == PropWhiteout {
			continue
		}
		if enumerableOnly && p.Enumerable != AttrTrue {
			continue
		}
		out = append(out, p.Name)
	}
	return out
}

// Each iterates all live (non-whiteout) properties in insertion order.
func (h *FlatHash) Each(fn func(*Property) bool) {
	for i := range h.entries {
		p := &h.entries[i]
		if p.Kind == PropWhiteout {
			continue
		}
		if !fn(p) {
			return
		}
	}
}

// Len returns the number of live entries (whiteouts excluded).
func (h *FlatHash) Len() int {
	n := 0
	for i := range h.entries {
		if h.entries[i].Kind != PropWhiteout {
			n++
		}
	}
	return n
}

// Clone returns a deep-enough copy for the shared->own copy-on-write
// procedure (spec §4.4): entries are copied by value (Property itself
// has no further indirection the copy needs to fork).
func (h *FlatHash) Clone() *FlatHash {
	n := &FlatHash{
		entries: append([]Property(nil), h.entries...),
		index:   make(map[atom.ID]int, len(h.index)),
	}
	for k, v := range h.index {
		n.index[k] = v
	}
	return n
}

// Object is the header every object-kind Value points to (spec §3.2).
type Object struct {
	Hash       *FlatHash // own properties, mutable
	SharedHash *FlatHash // shared across VMs, copy-on-write
	Proto      *Object   // prototype chain

	Type Type

	Shared         bool
	Extensible     bool
	ErrorData      bool
	StackAttached  bool
	FastArray      bool

	// Subtype-specific data, exactly one populated depending on Type.
	Array    *ArrayData
	Function *FunctionData
	Promise  *PromiseData
	Regexp   *RegexpData
	// External slots: a host-provided get/set/find hook (spec §4.4 "Out
	// of scope" bullet 2, specified only as this contract).
	Slots *ExoticSlots
}

// PromiseState is a Promise-kind object's settlement state (spec §1
// "out of scope... Promise job queue shape" — the queue mechanics live
// in internal/vm/microtask.go; this struct only carries what a Promise
// object needs to remember between settlement and reaction scheduling).
type PromiseState uint8

const (
	PromisePending PromiseState = iota
	PromiseFulfilled
	PromiseRejected
)

// PromiseReaction is one then()/catch() callback pair awaiting
// settlement, plus the downstream promise its result resolves.
type PromiseReaction struct {
	OnFulfilled Value
	OnRejected  Value
	Result      *Object // the Promise returned by the then() call that registered this reaction
}

// PromiseData is the Promise-kind object's subtype payload.
type PromiseData struct {
	State     PromiseState
	Value     Value // fulfillment value or rejection reason once settled
	Reactions []PromiseReaction
	Handled   bool
}

// ExoticSlots is the host "external" value contract: a single pointer
// plus get/set/find hooks, specified only as the contract the core
// consumes (spec §4.4).
type ExoticSlots struct {
	Data  any
	Get   func(obj *Object, key Value) (Value, bool, error)
	Set   func(obj *Object, key, val Value) error
	Find  func(obj *Object, key Value) (Value, bool)
	Proto *Object
}

// NewObject returns a plain, extensible, own object with no
// prototype. Callers that want Object.prototype as the proto should set
// Proto after construction.
func NewObject(typ Type) *Object {
	return &Object{
		Hash:       NewFlatHash(),
		Type:       typ,
		Extensible: true,
	}
}

// PrivateCopy implements the "first write to a shared property"
// procedure (spec §3.6, §4.4 step 5): it lazily creates this object's
// own hash if absent, does not by itself copy anything (callers copy
// the specific Property they're about to overwrite) — it merely
// guarantees Hash is non-nil so the caller's Put has somewhere to land.
func (o *Object) PrivateCopy() {
	if o.Hash == nil {
		o.Hash = NewFlatHash()
	}
}
