// Function.prototype: call/apply/bind/toString (spec §4.6 "Function
// machinery"), grounded on the teacher's own reflect-free dispatch
// style in core/vm/instructions.go (one small Go function per opcode,
// no generics) translated to one native method per Function.prototype
// entry.
package vm

import "github.com/nginx/njs-go/internal/value"

func (vm *VM) setupFunctionProto() {
	p := vm.protos.Function

	vm.nativeMethod(p, "call", 1, func(a value.NativeArgs) (value.Value, error) {
		this := a.Arg(0)
		var rest []value.Value
		if len(a.Args) > 1 {
			rest = a.Args[1:]
		}
		res, err := vm.CallValue(a.This, this, rest, nil)
		return res, wrapThrown(err)
	})

	vm.nativeMethod(p, "apply", 2, func(a value.NativeArgs) (value.Value, error) {
		this := a.Arg(0)
		var args []value.Value
		if arr := a.Arg(1); arr.IsObject() && arr.Obj().Array != nil {
			args = append([]value.Value(nil), arr.Obj().Array.Values...)
		}
		res, err := vm.CallValue(a.This, this, args, nil)
		return res, wrapThrown(err)
	})

	vm.nativeMethod(p, "bind", 1, func(a value.NativeArgs) (value.Value, error) {
		if a.This.Type() != value.Function {
			return value.Value{}, vm.ThrowError(TypeError, "Bind must be called on a function")
		}
		this := a.Arg(0)
		var bound []value.Value
		if len(a.Args) > 1 {
			bound = append([]value.Value(nil), a.Args[1:]...)
		}
		b := value.NewBoundFunction(a.This.Obj(), this, bound)
		b.Proto = vm.protos.Function
		return value.FromObject(value.Function, b), nil
	})

	vm.nativeMethod(p, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(ToStringNoThrow(a.This))), nil
	})
}

// wrapThrown adapts a *Thrown into the plain `error` CallValue's native
// callers (call/apply, which themselves run as native functions) must
// return, so the outer dispatch loop's single type-switch in
// function_call.go recovers the original script value unchanged.
func wrapThrown(t *Thrown) error {
	if t == nil {
		return nil
	}
	return t
}
