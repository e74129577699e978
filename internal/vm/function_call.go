// Function invocation: native/bound/lambda dispatch, closure
// construction, and the `new` construct protocol (spec §4.6). Grounded
// on the teacher's core/vm CALL/DELEGATECALL/CREATE split in
// core/vm/instructions.go and core/vm/evm.go: one Go method per call
// shape, a shared depth check, and the callee-specific work (argument
// binding, `this` binding, a fresh object for construction) factored
// into the frame/object layers instead of inlined at each call site.
package vm

import "github.com/nginx/njs-go/internal/value"

// CallValue invokes any Function-kind value (spec §4.6): plain call,
// native host function, or a bound function unwrapping to its target.
// args is never mutated or retained past the call.
func (vm *VM) CallValue(callee, this value.Value, args []value.Value, newTarget *value.Object) (value.Value, *Thrown) {
	if callee.Type() != value.Function || callee.Obj() == nil || callee.Obj().Function == nil {
		return value.Value{}, vm.ThrowError(TypeError, "%s is not a function", ToStringNoThrow(callee))
	}
	fn := callee.Obj()
	fd := fn.Function

	if fd.Bound != nil {
		boundArgs := append(append([]value.Value(nil), fd.BoundArgs...), args...)
		return vm.CallValue(value.FromObject(value.Function, fd.Bound), fd.BoundThis, boundArgs, newTarget)
	}

	if len(vm.frames) >= vm.maxCallDepth {
		return value.Value{}, vm.ThrowError(RangeError, "Maximum call stack size exceeded")
	}

	if fd.Native != nil {
		frame := &Frame{native: true, name: nameOfFunction(fd)}
		vm.frames = append(vm.frames, frame)
		res, err := fd.Native(value.NativeArgs{This: this, Args: args, Magic: fd.Magic, NewTarget: newTarget})
		vm.frames = vm.frames[:len(vm.frames)-1]
		if err != nil {
			if t, ok := err.(*Thrown); ok {
				return value.Value{}, t
			}
			return value.Value{}, Throw(value.FromString(value.NewStr(err.Error())))
		}
		return res, nil
	}

	frame := newFrame(fn, fd.Lambda, this, args, newTarget)
	vm.frames = append(vm.frames, frame)
	res, err := vm.run(frame)
	vm.frames = vm.frames[:len(vm.frames)-1]
	return res, err
}

func nameOfFunction(fd *value.FunctionData) string {
	if fd.Name.Type() == value.String {
		return fd.Name.Str().Bytes()
	}
	return ""
}

// Construct implements the `new` operator (spec §4.6 "Construction"):
// a fresh object is allocated with its prototype taken from the
// constructor's own "prototype" property (falling back to
// Object.prototype), then the constructor runs with `this` bound to
// it; if the constructor itself returns an object, that replaces the
// freshly allocated one (spec's ECMAScript-inherited OrdinaryCreate
// FromConstructor/Construct split).
func (vm *VM) Construct(ctor value.Value, args []value.Value) (value.Value, *Thrown) {
	if ctor.Type() != value.Function || ctor.Obj() == nil {
		return value.Value{}, vm.ThrowError(TypeError, "%s is not a constructor", ToStringNoThrow(ctor))
	}
	ctorObj := ctor.Obj()

	proto := vm.protos.Object
	if protoProp, ok := ctorObj.Hash.Get(vm.atom("prototype")); ok {
		if protoProp.Value.IsObject() {
			proto = protoProp.Value.Obj()
		}
	}

	inst := value.NewObject(value.Object)
	inst.Proto = proto
	this := value.FromObject(value.Object, inst)

	res, err := vm.CallValue(ctor, this, args, ctorObj)
	if err != nil {
		return value.Value{}, err
	}
	if res.IsObject() {
		return res, nil
	}
	return this, nil
}

// makeFunction builds a Function-kind object for a Lambda compiled as
// a nested function literal (OpNewFunction), resolving each upvalue
// reference against the currently running frame (spec §3.6 "closure
// capture"): FromParentLocal takes the defining frame's boxed local
// cell directly; otherwise the reference forwards a cell already
// captured by the defining frame's own closure.
func (vm *VM) makeFunction(lambda *value.Lambda, frame *Frame) *value.Object {
	closure := make([]*value.Value, len(lambda.Upvalues))
	for i, uv := range lambda.Upvalues {
		if uv.FromParentLocal {
			closure[i] = frame.locals[uv.Index]
		} else {
			closure[i] = frame.closure[uv.Index]
		}
	}
	fn := value.NewObject(value.Function)
	fn.Proto = vm.protos.Function
	fn.Extensible = true
	fn.Function = &value.FunctionData{
		Lambda:  lambda,
		Closure: closure,
		Name:    value.FromString(value.NewStr(lambda.Name)),
		NArgs:   lambda.NArgs,
		Rest:    lambda.Rest,
	}
	protoObj := value.NewObject(value.Object)
	protoObj.Proto = vm.protos.Object
	vm.setOwn(protoObj, "constructor", value.FromObject(value.Function, fn), true, false, true)
	vm.setOwn(fn, "prototype", value.FromObject(value.Object, protoObj), true, false, false)
	vm.setOwn(fn, "length", value.Num(float64(lambda.NArgs)), false, false, true)
	vm.setOwn(fn, "name", value.FromString(value.NewStr(lambda.Name)), false, false, true)
	return fn
}
