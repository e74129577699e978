// Package njs is the embeddable public API (spec §6.1 "Embedding
// API"): a thin, Go-idiomatic wrapper over internal/vm.VM that a host
// program (an HTTP server, a configuration evaluator) links in to run
// user-supplied scripts. Grounded on the teacher's own public/internal
// split (go-ethereum's root-level `eth`/`les` packages are thin wiring
// over `core`/`core/vm`, which does the actual work) — every method
// here is a short forwarding call into internal/vm, not new logic.
package njs

import (
	"github.com/nginx/njs-go/internal/arena"
	"github.com/nginx/njs-go/internal/value"
	"github.com/nginx/njs-go/internal/vm"
	nlog "github.com/nginx/njs-go/log"
)

// Value is the engine's tagged value (spec §3.1), re-exported so host
// code never has to import internal/value directly.
type Value = value.Value

// Script is a compiled, runnable top-level program or module (spec
// §6.1 vm_compile/vm_compile_module result).
type Script struct {
	lambda *value.Lambda
}

// Options parametrizes VM construction (spec §6.1 vm_opt_init).
type Options struct {
	// Allocator backs every per-VM heap allocation beyond the inline
	// Value payload (spec §2 "Memory arena"). Defaults to a plain heap
	// allocator when nil.
	Allocator arena.Allocator
	// MaxCallDepth bounds recursion (spec §7 "Maximum call stack size
	// exceeded"). Zero uses vm.DefaultMaxCallDepth.
	MaxCallDepth int
	// ModuleLoader resolves require(name) to module source bytes (spec
	// §1 "the core only consumes a ModuleLoader callback").
	ModuleLoader func(name string) ([]byte, error)
	// RejectionTracker is notified of promises rejected with no
	// registered handler at settlement time (spec §6.1
	// vm_set_rejection_tracker).
	RejectionTracker func(reason Value)
	// Log receives internal diagnostics and the script's console output
	// (console.log is a script-visible built-in, see
	// internal/vm/builtins_console.go).
	Log nlog.Logger
}

// VM is one embeddable engine instance (spec §5: single-threaded,
// cooperative, owns exactly one arena).
type VM struct {
	inner *vm.VM
}

// New constructs a VM with its global object and built-in library
// installed (spec §6.1 vm_create).
func New(opts Options) *VM {
	return &VM{inner: vm.New(vm.Options{
		Allocator:        opts.Allocator,
		MaxCallDepth:     opts.MaxCallDepth,
		ModuleLoader:     opts.ModuleLoader,
		RejectionTracker: opts.RejectionTracker,
		Log:              opts.Log,
	})}
}

// Destroy releases the VM's arena (spec §6.1 vm_destroy). After Destroy
// the VM must not be used again.
func (v *VM) Destroy() { v.inner.Destroy() }

// Compile parses and lowers a top-level script into a runnable Script
// (spec §6.1 vm_compile).
func (v *VM) Compile(file, src string) (*Script, error) {
	lambda, err := v.inner.Compile(file, src)
	if err != nil {
		return nil, err
	}
	return &Script{lambda: lambda}, nil
}

// CompileModule compiles src as a named module, reachable afterward
// from script code via require(name) (spec §6.1 vm_compile_module).
func (v *VM) CompileModule(name, file, src string) (*Script, error) {
	lambda, err := v.inner.CompileModule(name, file, src)
	if err != nil {
		return nil, err
	}
	return &Script{lambda: lambda}, nil
}

// Start runs a compiled top-level Script with `this` bound to the
// global object (spec §6.1 vm_start). The returned error is an
// *Exception when the script threw uncaught.
func (v *VM) Start(s *Script) (Value, error) {
	res, err := v.inner.Start(s.lambda)
	if err != nil {
		return Value{}, wrapThrownPublic(err)
	}
	return res, nil
}

// Invoke calls fn with the global object as `this` (spec §6.1
// vm_invoke).
func (v *VM) Invoke(fn Value, args []Value) (Value, error) {
	return v.Call(value.FromObject(value.Object, v.Global()), fn, args)
}

// Call invokes fn with an explicit receiver (spec §6.1 vm_call).
func (v *VM) Call(this, fn Value, args []Value) (Value, error) {
	res, err := v.inner.CallValue(fn, this, args, nil)
	if err != nil {
		return Value{}, wrapThrownPublic(err)
	}
	return res, nil
}

// Global returns the VM's global object.
func (v *VM) Global() *value.Object { return v.inner.Global }

// Bind adds a global binding (spec §6.1 vm_bind). shared marks the
// property as living in the shared, copy-on-write hash a sibling VM
// created with Clone reuses without copying.
func (v *VM) Bind(name string, val Value, shared bool) { v.inner.Bind(name, val, shared) }

// BindHandler adds a global whose reads/writes call a native hook
// (spec §6.1 vm_bind_handler).
func (v *VM) BindHandler(name string, h value.Handler, shared bool) {
	v.inner.BindHandler(name, h, shared)
}

// Value resolves a dotted path against the global object (spec §6.1
// vm_value, "a.b.c").
func (v *VM) Value(path string) (Value, error) {
	res, err := v.inner.Value(path)
	if err != nil {
		return Value{}, wrapThrownPublic(err)
	}
	return res, nil
}

// Clone creates a sibling VM sharing this VM's read-only built-in
// state (spec §6.1 vm_clone).
func (v *VM) Clone() *VM { return &VM{inner: v.inner.Clone()} }

// SetModuleLoader installs or replaces the module-loader callback
// (spec §6.1 vm_set_module_loader).
func (v *VM) SetModuleLoader(cb func(name string) ([]byte, error)) { v.inner.SetModuleLoader(cb) }

// SetRejectionTracker installs or replaces the unhandled-rejection
// callback (spec §6.1 vm_set_rejection_tracker).
func (v *VM) SetRejectionTracker(cb func(reason Value)) { v.inner.SetRejectionTracker(cb) }

// EnqueueJob schedules a microtask (spec §6.1 vm_enqueue_job).
func (v *VM) EnqueueJob(fn Value, args []Value) { v.inner.EnqueueJob(fn, args) }

// ExecutePendingJob runs the oldest queued microtask, reporting whether
// the queue was non-empty (spec §6.1 vm_execute_pending_job).
func (v *VM) ExecutePendingJob() bool { return v.inner.ExecutePendingJob() }

// RunJobs drains the microtask queue to empty.
func (v *VM) RunJobs() { v.inner.RunJobs() }

// NewError constructs one of the built-in error objects (spec §6.1
// vm_error) without throwing it.
func (v *VM) NewError(kind string, format string, args ...any) Value {
	return v.inner.NewError(vm.Kind(kind), format, args...)
}

// Throw wraps val as an *Exception, the shape native Go functions
// registered via Bind return to signal a script-level throw (spec §6.1
// vm_throw).
func Throw(val Value) error { return &Exception{inner: vmThrow(val)} }

func vmThrow(val Value) *vm.Thrown { return vm.Throw(val) }

// Exception is the public form of a script-level throw (spec §6.1
// vm_exception/vm_exception_string): the Go error returned from
// Start/Invoke/Call when the script raised an uncaught value.
type Exception struct {
	inner *vm.Thrown
}

func (e *Exception) Error() string { return e.inner.Error() }

// Value returns the thrown script value (an Error object, or any value
// thrown via `throw <expr>`).
func (e *Exception) Value() Value { return e.inner.Value }

func wrapThrownPublic(err error) error {
	if t, ok := err.(*vm.Thrown); ok {
		return &Exception{inner: t}
	}
	return err
}

// Undefined, Null, Bool, Number, and String build primitive Values for
// passing into Bind/Invoke/Call without importing internal/value.
func Undefined() Value         { return value.Undefined_() }
func Null() Value              { return value.Null_() }
func Bool(b bool) Value        { return value.Bool(b) }
func Number(n float64) Value   { return value.Num(n) }
func String(s string) Value    { return value.FromString(value.NewStr(s)) }
