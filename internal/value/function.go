package value

import "github.com/nginx/njs-go/internal/bytecode"

// FunctionData is the lambda/native union plus closure pointers a
// Function-kind Object carries (spec §3.2, §4.6).
type FunctionData struct {
	// Lambda is set for a script-level function literal; nil for
	// native/bound functions.
	Lambda *Lambda

	// Native is set for a host-provided function. Its signature mirrors
	// spec §4.6: (receiver in NativeArgs.This, arguments in NativeArgs.Args,
	// magic) -> (retval, error).
	Native NativeFunc
	Magic  int32

	// Bound is set for Function.prototype.bind results: This is the
	// original function's receiver override, BoundArgs are prepended to
	// the caller's own arguments (spec §4.6 "Bound functions").
	Bound     *Object
	BoundThis Value
	BoundArgs []Value

	// Closure holds the captured outer-scope cells, indexed exactly as
	// the lambda's Upvalues list that produced them (spec §4.6
	// "Closures").
	Closure []*Value

	Name Value
	// NArgs is the declared parameter count (excludes rest parameter).
	NArgs int
	Rest  bool
	Ctor  bool // invocable with `new`
}

// NativeFunc is the signature for a host/builtin function.
type NativeFunc func(vmArgs NativeArgs) (Value, error)

// NativeArgs bundles a native call's receiver and argument vector,
// mirroring the VM's internal calling convention (spec §4.6).
type NativeArgs struct {
	This  Value
	Args  []Value
	Magic int32
	// NewTarget is non-nil when the call originated from `new`.
	NewTarget *Object
}

// Arg returns args[i], or Undefined if out of range (functions never
// fail a call merely for being under-supplied, per ECMAScript).
func (a NativeArgs) Arg(i int) Value {
	if i < 0 || i >= len(a.Args) {
		return Undefined_()
	}
	return a.Args[i]
}

// Lambda is the compiled body + metadata for a JS function literal
// (spec §4.3 "Function literal", §4.6).
type Lambda struct {
	Code    []bytecode.Instr
	Consts  []Value   // constant pool OpLoadConst indexes into
	Lambdas []*Lambda // nested function templates OpNewFunction indexes into
	NLocal  int       // local-scope slot count
	NArgs  int
	Rest   bool
	Name   string
	File   string
	Line   int
	// Upvalues lists, in order, how each of this lambda's closure slots
	// is populated from the defining frame when OpNewFunction runs
	// (spec §4.3 "Function literal", §4.6 "Closures").
	Upvalues []bytecode.UpvalueRef
}

// NewNativeFunction returns a Function-kind object wrapping a host
// function.
func NewNativeFunction(name string, nargs int, fn NativeFunc) *Object {
	o := NewObject(Function)
	o.Function = &FunctionData{
		Native: fn,
		Name:   FromString(NewStr(name)),
		NArgs:  nargs,
	}
	return o
}

// NewBoundFunction implements Function.prototype.bind: a native wrapper
// whose context is the original function and whose bound-args vector is
// copied ahead of the caller's own arguments (spec §4.6).
func NewBoundFunction(target *Object, this Value, boundArgs []Value) *Object {
	o := NewObject(Function)
	o.Function = &FunctionData{
		Bound:     target,
		BoundThis: this,
		BoundArgs: append([]Value(nil), boundArgs...),
		Name:      FromString(NewStr("bound " + nameOf(target))),
	}
	return o
}

func nameOf(fn *Object) string {
	if fn == nil || fn.Function == nil {
		return ""
	}
	if fn.Function.Name.Type() == String {
		return fn.Function.Name.Str().Bytes()
	}
	return ""
}
