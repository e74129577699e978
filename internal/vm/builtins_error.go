// Error-family constructors and prototypes (spec §7's Kind taxonomy),
// grounded on original_source/njs/src/njs_error.c's per-kind prototype
// table and the teacher's own typed-error constructors in
// core/vm/errors.go (one sentinel Go value per EVM error, here one
// proto object per njs Kind).
package vm

import "github.com/nginx/njs-go/internal/value"

var errorKinds = []Kind{
	PlainError, TypeError, RangeError, ReferenceError, SyntaxError,
	URIError, EvalError, InternalError, MemoryError,
}

func (vm *VM) setupErrorProtos() {
	plainProto := value.NewObject(value.Object)
	plainProto.Proto = vm.protos.Object
	plainProto.Extensible = true
	vm.setOwn(plainProto, "name", value.FromString(value.NewStr(string(PlainError))), true, false, true)
	vm.setOwn(plainProto, "message", value.FromString(value.NewStr("")), true, false, true)
	vm.nativeMethod(plainProto, "toString", 0, func(a value.NativeArgs) (value.Value, error) {
		return value.FromString(value.NewStr(ErrorToString(a.This))), nil
	})
	vm.errorProtos[PlainError] = plainProto
	vm.newConstructor(string(PlainError), 1, plainProto, errorCtor(vm, PlainError))

	for _, kind := range errorKinds {
		if kind == PlainError {
			continue
		}
		proto := value.NewObject(value.Object)
		proto.Proto = plainProto
		proto.Extensible = true
		vm.setOwn(proto, "name", value.FromString(value.NewStr(string(kind))), true, false, true)
		vm.setOwn(proto, "message", value.FromString(value.NewStr("")), true, false, true)
		vm.errorProtos[kind] = proto
		vm.newConstructor(string(kind), 1, proto, errorCtor(vm, kind))
	}
}

// errorCtor returns the native constructor body shared by every error
// kind: build a fresh Error-typed object (or reuse `this` when invoked
// via `new`), set "message" from the first argument, and attach a
// stack trace (spec §4.5 "Stack attaching").
func errorCtor(vm *VM, kind Kind) value.NativeFunc {
	return func(a value.NativeArgs) (value.Value, error) {
		var o *value.Object
		if a.NewTarget != nil && a.This.IsObject() {
			o = a.This.Obj()
		} else {
			o = value.NewObject(value.Object)
			o.Proto = vm.protoForKind(kind)
		}
		o.ErrorData = true
		o.Extensible = true
		if len(a.Args) > 0 && a.Args[0].Type() != value.Undefined {
			msg, err := vm.ToStringValue(a.Args[0])
			if err != nil {
				return value.Value{}, err
			}
			vm.setOwn(o, "message", msg, true, false, true)
		}
		v := value.FromObject(value.Object, o)
		vm.attachStack(o)
		return v, nil
	}
}
