// Errors implements the typed error taxonomy and stack-trace capture
// of spec §7, grounded on original_source/njs/src/njs_error.c's
// "<name>: <message>" / "<message>" / "<name>" fallback chain and on
// the teacher's own panic/recover-free error propagation style
// (core/vm passes errors as values, never panics, across op
// boundaries).
package vm

import (
	"fmt"
	"strings"

	"github.com/nginx/njs-go/internal/atom"
	"github.com/nginx/njs-go/internal/value"
)

// Kind names the built-in error constructors of spec §7.
type Kind string

const (
	TypeError      Kind = "TypeError"
	RangeError     Kind = "RangeError"
	ReferenceError Kind = "ReferenceError"
	SyntaxError    Kind = "SyntaxError"
	URIError       Kind = "URIError"
	EvalError      Kind = "EvalError"
	InternalError  Kind = "InternalError"
	MemoryError    Kind = "MemoryError"
	PlainError     Kind = "Error"
)

// Thrown wraps a thrown script Value as a Go error so it can propagate
// through ordinary Go call/return paths (internal/vm's dispatch loop,
// function_call.go) without the interpreter ever panicking mid-opcode.
// Script-level errors are njs values, per spec §7 — never Go `error`
// values beyond this one carrier.
type Thrown struct {
	Value value.Value
}

func (t *Thrown) Error() string {
	return ErrorToString(t.Value)
}

// Throw boxes v as a Thrown, the uniform shape every opcode, native
// call, and object-protocol step returns on failure.
func Throw(v value.Value) *Thrown { return &Thrown{Value: v} }

// NewError constructs one of the built-in error objects (spec §7) with
// a formatted message and, if vm has an active call stack, a captured
// stack trace (spec §4.5 "Stack attaching").
func (vm *VM) NewError(kind Kind, format string, args ...any) value.Value {
	msg := fmt.Sprintf(format, args...)
	proto := vm.protoForKind(kind)
	o := value.NewObject(value.Object)
	o.Proto = proto
	o.ErrorData = true
	o.Extensible = true
	vm.setOwn(o, "name", value.FromString(value.NewStr(string(kind))), false, true, true)
	vm.setOwn(o, "message", value.FromString(value.NewStr(msg)), true, false, true)
	v := value.FromObject(value.Object, o)
	vm.attachStack(o)
	return v
}

// ThrowError is a convenience: build the error value and wrap it as a
// Thrown in one step, the shape every failing native/opcode path wants
// to return.
func (vm *VM) ThrowError(kind Kind, format string, args ...any) *Thrown {
	return Throw(vm.NewError(kind, format, args...))
}

func (vm *VM) protoForKind(kind Kind) *value.Object {
	if p, ok := vm.errorProtos[kind]; ok {
		return p
	}
	return vm.errorProtos[PlainError]
}

// setOwn installs a plain data property by name directly into o's own
// hash, bypassing the full object-protocol define-property state
// machine (object_protocol.go) for the common case of seeding a
// freshly constructed object's own slots.
func (vm *VM) setOwn(o *value.Object, name string, v value.Value, writable, enumerable, configurable bool) {
	o.PrivateCopy()
	o.Hash.Put(value.Property{
		NameAtom:     vm.atom(name),
		Name:         value.FromString(value.NewStr(name)),
		Kind:         value.PropData,
		Writable:     value.AttrOf(writable),
		Enumerable:   value.AttrOf(enumerable),
		Configurable: value.AttrOf(configurable),
		Value:        v,
	}, false)
}

// attachStack formats and assigns the "stack" property on an
// Error-typed object once, when it is constructed (spec §4.5 "Stack
// attaching"): one "    at <name> (<file>:<line>)\n" line per active
// frame, collapsing consecutive duplicate frames into "repeats N
// times", native frames labeled "(native)".
func (vm *VM) attachStack(o *value.Object) {
	if o.StackAttached {
		return
	}
	o.StackAttached = true

	var lines []string
	for i := len(vm.frames) - 1; i >= 0; i-- {
		f := vm.frames[i]
		if f.native {
			lines = append(lines, fmt.Sprintf("    at %s (native)", frameName(f)))
			continue
		}
		lines = append(lines, fmt.Sprintf("    at %s (%s:%d)", frameName(f), f.file, f.line))
	}

	var b strings.Builder
	i := 0
	for i < len(lines) {
		j := i + 1
		for j < len(lines) && lines[j] == lines[i] {
			j++
		}
		b.WriteString(lines[i])
		b.WriteByte('\n')
		if j-i > 1 {
			b.WriteString(fmt.Sprintf("    repeats %d times\n", j-i))
		}
		i = j
	}

	nameAtom := vm.atom("name")
	msgAtom := vm.atom("message")
	name := ""
	if p, ok := o.Hash.Get(nameAtom); ok && p.Value.Type() == value.String {
		name = p.Value.Str().Bytes()
	}
	msg := ""
	if p, ok := o.Hash.Get(msgAtom); ok && p.Value.Type() == value.String {
		msg = p.Value.Str().Bytes()
	}
	header := errHeader(name, msg)
	full := header
	if b.Len() > 0 {
		full += "\n" + strings.TrimRight(b.String(), "\n")
	}
	vm.setOwn(o, "stack", value.FromString(value.NewStr(full)), true, false, true)
}

func frameName(f *Frame) string {
	if f.name != "" {
		return f.name
	}
	return "<anonymous>"
}

func errHeader(name, msg string) string {
	switch {
	case name != "" && msg != "":
		return name + ": " + msg
	case msg != "":
		return msg
	case name != "":
		return name
	default:
		return ""
	}
}

// ErrorToString implements spec §7's "User-visible format": "<name>:
// <message>" when both are present, the lone field otherwise.
func ErrorToString(v value.Value) string {
	if v.Type() != value.Object || v.Obj() == nil || !v.Obj().ErrorData {
		return ToStringNoThrow(v)
	}
	o := v.Obj()
	name, msg := "", ""
	if p, ok := o.Hash.Get(atom.Builtin("name")); ok {
		name = p.Value.Str().Bytes()
	} else if p, ok := protoLookup(o, atom.Builtin("name")); ok {
		name = p.Value.Str().Bytes()
	}
	if p, ok := o.Hash.Get(atom.Builtin("message")); ok {
		msg = p.Value.Str().Bytes()
	}
	return errHeader(name, msg)
}

func protoLookup(o *value.Object, id atom.ID) (*value.Property, bool) {
	for p := o.Proto; p != nil; p = p.Proto {
		if p.Hash != nil {
			if prop, ok := p.Hash.Get(id); ok {
				return prop, true
			}
		}
	}
	return nil, false
}
