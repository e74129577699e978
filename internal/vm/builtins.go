// Built-in plumbing (spec component table "Built-in plumbing"):
// constructors, prototype objects, and the global-this handlers wired
// together at VM construction. Grounded on the teacher's own
// core/vm/contracts.go + params package split, where a handful of
// "genesis" functions assemble the runtime's fixed machinery once and
// hand back a ready-to-run structure; setupBuiltins plays that role for
// a freshly created VM (spec §4.6 "Built-in plumbing", §6.1 vm_create).
package vm

import "github.com/nginx/njs-go/internal/value"

// setupBuiltins constructs the global object and every prototype/
// constructor pair spec.md's "out of scope" list still requires the
// CORE to host (Object, Array, Function, String, Number, Boolean,
// RegExp, Error family, TypedArray family, JSON, Math, console) — see
// SPEC_FULL.md §B for which of these are grounded on which example.
func (vm *VM) setupBuiltins() {
	vm.Global = value.NewObject(value.Object)
	vm.Global.Extensible = true

	// Object.prototype terminates every chain; Function.prototype's own
	// proto is Object.prototype, fixed up once both exist.
	vm.protos.Object = value.NewObject(value.Object)
	vm.protos.Object.Extensible = true

	vm.protos.Function = value.NewObject(value.Object)
	vm.protos.Function.Proto = vm.protos.Object
	vm.protos.Function.Extensible = true

	vm.protos.Array = value.NewObject(value.Object)
	vm.protos.Array.Proto = vm.protos.Object
	vm.protos.Array.Extensible = true

	vm.protos.String = value.NewObject(value.Object)
	vm.protos.String.Proto = vm.protos.Object
	vm.protos.String.Extensible = true

	vm.protos.Number = value.NewObject(value.Object)
	vm.protos.Number.Proto = vm.protos.Object
	vm.protos.Number.Extensible = true

	vm.protos.Boolean = value.NewObject(value.Object)
	vm.protos.Boolean.Proto = vm.protos.Object
	vm.protos.Boolean.Extensible = true

	vm.protos.Symbol = value.NewObject(value.Object)
	vm.protos.Symbol.Proto = vm.protos.Object
	vm.protos.Symbol.Extensible = true

	vm.protos.TypedArray = value.NewObject(value.Object)
	vm.protos.TypedArray.Proto = vm.protos.Object
	vm.protos.TypedArray.Extensible = true

	vm.protos.ArrayBuffer = value.NewObject(value.Object)
	vm.protos.ArrayBuffer.Proto = vm.protos.Object
	vm.protos.ArrayBuffer.Extensible = true

	vm.protos.DataView = value.NewObject(value.Object)
	vm.protos.DataView.Proto = vm.protos.Object
	vm.protos.DataView.Extensible = true

	vm.protos.Promise = value.NewObject(value.Object)
	vm.protos.Promise.Proto = vm.protos.Object
	vm.protos.Promise.Extensible = true

	vm.protos.RegExp = value.NewObject(value.Object)
	vm.protos.RegExp.Proto = vm.protos.Object
	vm.protos.RegExp.Extensible = true

	vm.setupErrorProtos()
	vm.setupFunctionProto()
	vm.setupObjectBuiltins()
	vm.setupArrayBuiltins()
	vm.setupStringBuiltins()
	vm.setupNumberBuiltins()
	vm.setupBooleanBuiltins()
	vm.setupMathBuiltins()
	vm.setupJSONBuiltins()
	vm.setupTypedArrayBuiltins()
	vm.setupPromiseBuiltins()
	vm.setupRegExpBuiltins()
	vm.setupConsole()
	vm.setupGlobalFunctions()

	vm.setOwn(vm.Global, "globalThis", value.FromObject(value.Object, vm.Global), true, false, true)
	vm.setOwn(vm.Global, "undefined", value.Undefined_(), false, false, false)
	vm.setOwn(vm.Global, "NaN", value.Num(nan()), false, false, false)
	vm.setOwn(vm.Global, "Infinity", value.Num(inf()), false, false, false)
}

// nativeMethod installs a Function-kind own property on target, the
// shape every builtins_*.go file uses to hang a native method off a
// prototype or constructor object.
func (vm *VM) nativeMethod(target *value.Object, name string, nargs int, fn value.NativeFunc) {
	f := value.NewNativeFunction(name, nargs, fn)
	f.Proto = vm.protos.Function
	vm.setOwn(target, name, value.FromObject(value.Function, f), true, false, true)
}

// newConstructor builds a native Function-kind object meant to be
// called with `new` (spec §4.6), wiring its "prototype" property to
// proto and proto's "constructor" back to itself, then installing it
// as a global.
func (vm *VM) newConstructor(name string, nargs int, proto *value.Object, fn value.NativeFunc) *value.Object {
	ctor := value.NewNativeFunction(name, nargs, fn)
	ctor.Proto = vm.protos.Function
	ctor.Function.Ctor = true
	vm.setOwn(ctor, "prototype", value.FromObject(value.Object, proto), false, false, false)
	vm.setOwn(proto, "constructor", value.FromObject(value.Function, ctor), true, false, true)
	vm.setOwn(vm.Global, name, value.FromObject(value.Function, ctor), true, false, true)
	return ctor
}

func nan() float64 { var z float64; return z / z }
func inf() float64 { var z float64; return 1 / z }
