package vm

import "github.com/nginx/njs-go/internal/value"

// Frame is one call-stack entry (spec §4.5 "Frames": NativeFrame
// {size, previous, free, free_size, function, nargs, arguments, local,
// native, ctor, pc}). Locals are always boxed as *Value cells rather
// than inline slots so a closure can capture one by pointer and keep
// it valid after this frame returns (spec §3.6 "closure capture"):
// trading a pointer indirection on every local access for never having
// to detect which locals escape, an implementation choice recorded in
// DESIGN.md.
type Frame struct {
	lambda *value.Lambda
	fn     *value.Object // the Function object being run (nil for the synthetic module/REPL root)

	locals  []*value.Value
	closure []*value.Value
	stack   []value.Value
	pc      int

	this      value.Value
	newTarget *value.Object
	args      []value.Value

	handlers []handler

	pendingThrow bool
	pendingValue value.Value
	caught       value.Value

	native bool
	name   string
	file   string
	line   int
}

// handler is one installed try/catch/finally protection region (spec
// §4.5 "Exceptions", §4.3 "Try/catch/finally"): catchPC/finallyPC are
// -1 when absent, matching OpEnterTry's operand convention.
type handler struct {
	catchPC   int32
	finallyPC int32
	stackLen  int
}

func newFrame(fn *value.Object, lambda *value.Lambda, this value.Value, args []value.Value, newTarget *value.Object) *Frame {
	f := &Frame{
		lambda:    lambda,
		fn:        fn,
		this:      this,
		args:      args,
		newTarget: newTarget,
		file:      lambda.File,
		line:      lambda.Line,
	}
	f.locals = make([]*value.Value, lambda.NLocal)
	for i := range f.locals {
		v := value.Undefined_()
		f.locals[i] = &v
	}
	for i := 0; i < lambda.NArgs && i < len(args); i++ {
		*f.locals[i] = args[i]
	}
	if lambda.Rest {
		restIdx := lambda.NArgs
		var rest []value.Value
		if len(args) > lambda.NArgs {
			rest = append(rest, args[lambda.NArgs:]...)
		}
		if restIdx < len(f.locals) {
			*f.locals[restIdx] = value.FromObject(value.Array, value.NewFastArray(rest))
		}
	}
	if fn != nil && fn.Function != nil {
		f.closure = fn.Function.Closure
		if fn.Function.Name.Type() == value.String {
			f.name = fn.Function.Name.Str().Bytes()
		}
	}
	return f
}

func (f *Frame) push(v value.Value) { f.stack = append(f.stack, v) }

func (f *Frame) pop() value.Value {
	n := len(f.stack) - 1
	v := f.stack[n]
	f.stack = f.stack[:n]
	return v
}

func (f *Frame) popN(n int) []value.Value {
	start := len(f.stack) - n
	out := append([]value.Value(nil), f.stack[start:]...)
	f.stack = f.stack[:start]
	return out
}

func (f *Frame) top() value.Value { return f.stack[len(f.stack)-1] }

func (f *Frame) truncate(n int) { f.stack = f.stack[:n] }

// raise searches this frame's handler stack for a catch or finally
// target, per the resolution scheme documented in DESIGN.md's "try/
// catch/finally" entry: catch handlers that also guard a finally block
// are re-pushed (narrowed to finally-only) before control enters the
// catch body, so a throw from inside catch still runs finally. It
// reports whether the frame itself will handle the exception (and has
// updated f.pc accordingly) or whether it must propagate out.
func (f *Frame) raise(v value.Value) bool {
	for len(f.handlers) > 0 {
		h := f.handlers[len(f.handlers)-1]
		f.handlers = f.handlers[:len(f.handlers)-1]
		if h.stackLen <= len(f.stack) {
			f.truncate(h.stackLen)
		}
		switch {
		case h.catchPC >= 0:
			if h.finallyPC >= 0 {
				f.handlers = append(f.handlers, handler{catchPC: -1, finallyPC: h.finallyPC, stackLen: len(f.stack)})
			}
			f.caught = v
			f.pc = int(h.catchPC)
			return true
		case h.finallyPC >= 0:
			f.pendingThrow = true
			f.pendingValue = v
			f.pc = int(h.finallyPC)
			return true
		}
	}
	return false
}
