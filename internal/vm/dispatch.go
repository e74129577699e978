// The bytecode dispatch loop (spec §4.5): a single switch over
// internal/bytecode.Op that drives one Frame's stack machine to
// completion, delegating property access to object_protocol.go,
// coercions to conv.go, and calls to function_call.go. Grounded on the
// teacher's core/vm/interpreter.go Run loop: a flat `for { switch
// op }` over a program counter, with errors threaded back as return
// values rather than panics, and jump targets as absolute instruction
// indices patched in by the compiler rather than relative offsets.
package vm

import (
	"github.com/nginx/njs-go/internal/atom"
	"github.com/nginx/njs-go/internal/bytecode"
	"github.com/nginx/njs-go/internal/value"
)

// run drives frame's bytecode to a return, an uncaught throw, or
// (for the synthetic top-level lambda) falling off the end of the
// instruction stream.
func (vm *VM) run(frame *Frame) (value.Value, *Thrown) {
	code := frame.lambda.Code
	consts := frame.lambda.Consts
	lambdas := frame.lambda.Lambdas

	for {
		if frame.pc >= len(code) {
			return value.Undefined_(), nil
		}
		instr := code[frame.pc]
		frame.pc++
		frame.line = int(instr.Line)

		switch instr.Op {
		case bytecode.OpNop, bytecode.OpSpreadElem:
			// no-op; OpSpreadElem is a historical marker the current
			// compiler never emits (array/call spread use the dedicated
			// OpArraySpread/pass-through paths instead).

		case bytecode.OpLoadConst:
			frame.push(consts[instr.A])
		case bytecode.OpLoadUndef:
			frame.push(value.Undefined_())
		case bytecode.OpLoadNull:
			frame.push(value.Null_())
		case bytecode.OpLoadTrue:
			frame.push(value.Bool(true))
		case bytecode.OpLoadFalse:
			frame.push(value.Bool(false))
		case bytecode.OpLoadThis:
			frame.push(frame.this)

		case bytecode.OpGetLocal:
			frame.push(*frame.locals[instr.A])
		case bytecode.OpSetLocal:
			*frame.locals[instr.A] = frame.top()
		case bytecode.OpGetArg:
			if int(instr.A) < len(frame.args) {
				frame.push(frame.args[instr.A])
			} else {
				frame.push(value.Undefined_())
			}
		case bytecode.OpSetArg:
			if int(instr.A) < len(frame.args) {
				frame.args[instr.A] = frame.top()
			}
		case bytecode.OpGetUpval:
			frame.push(*frame.closure[instr.A])
		case bytecode.OpSetUpval:
			*frame.closure[instr.A] = frame.top()

		case bytecode.OpGetGlobal:
			v, t := vm.GetPropertyByID(value.FromObject(value.Object, vm.Global), atom.ID(instr.A))
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(v)
		case bytecode.OpSetGlobal:
			val := frame.top()
			if t := vm.SetPropertyByID(value.FromObject(value.Object, vm.Global), atom.ID(instr.A), val); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}

		case bytecode.OpNewArray:
			n := int(instr.A)
			items := append([]value.Value(nil), frame.popN(n)...)
			arr := value.NewFastArray(items)
			arr.Proto = vm.protos.Array
			frame.push(value.FromObject(value.Array, arr))

		case bytecode.OpNewObject:
			obj := value.NewObject(value.Object)
			obj.Proto = vm.protos.Object
			if instr.A > 0 {
				pairs := frame.popN(int(instr.A) * 2)
				for i := 0; i+1 < len(pairs); i += 2 {
					id, t := vm.keyToAtom(pairs[i])
					if t != nil {
						if !frame.raise(t.Value) {
							return value.Value{}, t
						}
						break
					}
					obj.Hash.Put(value.Property{
						NameAtom: id, Name: pairs[i], Kind: value.PropData,
						Writable: value.AttrTrue, Enumerable: value.AttrTrue, Configurable: value.AttrTrue,
						Value: pairs[i+1],
					}, false)
				}
			}
			frame.push(value.FromObject(value.Object, obj))

		case bytecode.OpNewFunction:
			fn := vm.makeFunction(lambdas[instr.A], frame)
			frame.push(value.FromObject(value.Function, fn))

		case bytecode.OpNewRegExp:
			source := consts[instr.A].Str().Bytes()
			flags := consts[instr.B].Str().Bytes()
			re, err := value.NewRegExp(source, flags)
			if err != nil {
				t := vm.ThrowError(SyntaxError, "invalid regular expression: %s", err.Error())
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			re.Proto = vm.protos.RegExp
			vm.installRegExpOwnProps(re)
			frame.push(value.FromObject(value.RegExp, re))

		case bytecode.OpGetProp:
			obj := frame.pop()
			v, t := vm.GetPropertyByID(obj, atom.ID(instr.A))
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(v)
		case bytecode.OpSetProp:
			obj := frame.pop()
			val := frame.top()
			if t := vm.SetPropertyByID(obj, atom.ID(instr.A), val); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
		case bytecode.OpGetElem:
			key := frame.pop()
			obj := frame.pop()
			v, t := vm.GetElem(obj, key)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(v)
		case bytecode.OpSetElem:
			key := frame.pop()
			obj := frame.pop()
			val := frame.top()
			if t := vm.SetElem(obj, key, val); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}

		case bytecode.OpCall, bytecode.OpCallOpt, bytecode.OpTaggedCall, bytecode.OpSpreadCall:
			argc := int(instr.A)
			args := frame.popN(argc)
			callee := frame.pop()
			this := frame.pop()
			if instr.Op == bytecode.OpCallOpt && callee.IsNullOrUndefined() {
				frame.push(value.Undefined_())
				continue
			}
			res, t := vm.CallValue(callee, this, args, nil)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(res)

		case bytecode.OpNew:
			argc := int(instr.A)
			args := frame.popN(argc)
			callee := frame.pop()
			res, t := vm.Construct(callee, args)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(res)

		case bytecode.OpCallSpread:
			argsArray := frame.pop()
			callee := frame.pop()
			this := frame.pop()
			var args []value.Value
			if argsArray.IsObject() && argsArray.Obj().Array != nil {
				args = append([]value.Value(nil), argsArray.Obj().Array.Values...)
			}
			var res value.Value
			var t *Thrown
			if instr.B&bytecode.CallSpreadFlagNew != 0 {
				res, t = vm.Construct(callee, args)
			} else {
				res, t = vm.CallValue(callee, this, args, nil)
			}
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(res)

		case bytecode.OpAwait:
			v := frame.pop()
			if v.Type() != value.Promise {
				frame.push(v)
				continue
			}
			p := v.Obj()
			for p.Promise.State == value.PromisePending && len(vm.jobs) > 0 {
				vm.ExecutePendingJob()
			}
			switch p.Promise.State {
			case value.PromiseFulfilled:
				frame.push(p.Promise.Value)
			case value.PromiseRejected:
				if !frame.raise(p.Promise.Value) {
					return value.Value{}, Throw(p.Promise.Value)
				}
			default:
				// Still pending with no jobs left to drain: the core has
				// no way to suspend further, so await resolves to
				// undefined rather than hanging the interpreter forever.
				frame.push(value.Undefined_())
			}

		case bytecode.OpPop:
			frame.pop()
		case bytecode.OpDup:
			frame.push(frame.top())
		case bytecode.OpSwap:
			n := len(frame.stack)
			frame.stack[n-1], frame.stack[n-2] = frame.stack[n-2], frame.stack[n-1]
		case bytecode.OpSequenceDiscard:
			frame.pop()

		case bytecode.OpJump:
			frame.pc = int(instr.A)
		case bytecode.OpJumpIfFalse:
			v := frame.pop()
			if !v.Truth() {
				frame.pc = int(instr.A)
			}
		case bytecode.OpJumpIfTrue:
			v := frame.pop()
			if v.Truth() {
				frame.pc = int(instr.A)
			}
		case bytecode.OpJumpIfNullish:
			v := frame.pop()
			if v.IsNullOrUndefined() {
				frame.pc = int(instr.A)
			}

		case bytecode.OpUnaryPlus:
			v := frame.pop()
			n, t := vm.ToNumber(v)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(value.Num(n))
		case bytecode.OpUnaryMinus:
			v := frame.pop()
			n, t := vm.ToNumber(v)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(value.Num(-n))
		case bytecode.OpUnaryNot:
			v := frame.pop()
			frame.push(value.Bool(!v.Truth()))
		case bytecode.OpUnaryBitNot:
			v := frame.pop()
			i, t := vm.ToInt32(v)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(value.Num(float64(^i)))
		case bytecode.OpTypeof:
			v := frame.pop()
			frame.push(value.FromString(value.NewStr(typeofString(v))))
		case bytecode.OpVoidOp:
			frame.pop()
			frame.push(value.Undefined_())

		case bytecode.OpDeleteProp:
			obj := frame.pop()
			ok, t := vm.DeletePropertyByID(obj, atom.ID(instr.A))
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(value.Bool(ok))
		case bytecode.OpDeleteElem:
			key := frame.pop()
			obj := frame.pop()
			ok, t := vm.DeleteElem(obj, key)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(value.Bool(ok))

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpPow,
			bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr, bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor,
			bytecode.OpLt, bytecode.OpGt, bytecode.OpLe, bytecode.OpGe,
			bytecode.OpEq, bytecode.OpNe, bytecode.OpStrictEq, bytecode.OpStrictNe,
			bytecode.OpIn, bytecode.OpInstanceof:
			b := frame.pop()
			a := frame.pop()
			res, t := vm.applyBinary(instr.Op, a, b)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(res)

		case bytecode.OpPreInc, bytecode.OpPreDec, bytecode.OpPostInc, bytecode.OpPostDec:
			v := frame.pop()
			n, t := vm.ToNumber(v)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			delta := 1.0
			if instr.Op == bytecode.OpPreDec || instr.Op == bytecode.OpPostDec {
				delta = -1
			}
			newVal := value.Num(n + delta)
			if instr.Op == bytecode.OpPostInc || instr.Op == bytecode.OpPostDec {
				frame.push(value.Num(n))
			}
			frame.push(newVal)

		case bytecode.OpCompoundProp:
			rhs := frame.pop()
			obj := frame.pop()
			cur, t := vm.GetPropertyByID(obj, atom.ID(instr.A))
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			res, t := vm.applyBinary(bytecode.Op(instr.B), cur, rhs)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			if t := vm.SetPropertyByID(obj, atom.ID(instr.A), res); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(res)
		case bytecode.OpCompoundElem:
			rhs := frame.pop()
			key := frame.pop()
			obj := frame.pop()
			cur, t := vm.GetElem(obj, key)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			res, t := vm.applyBinary(bytecode.Op(instr.B), cur, rhs)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			if t := vm.SetElem(obj, key, res); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(res)

		case bytecode.OpUpdateProp:
			obj := frame.pop()
			cur, t := vm.GetPropertyByID(obj, atom.ID(instr.A))
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			n, t := vm.ToNumber(cur)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			delta := 1.0
			if instr.B&updateFlagDecrement != 0 {
				delta = -1
			}
			newN := n + delta
			if t := vm.SetPropertyByID(obj, atom.ID(instr.A), value.Num(newN)); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			if instr.B&updateFlagPostfix != 0 {
				frame.push(value.Num(n))
			} else {
				frame.push(value.Num(newN))
			}
		case bytecode.OpUpdateElem:
			key := frame.pop()
			obj := frame.pop()
			cur, t := vm.GetElem(obj, key)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			n, t := vm.ToNumber(cur)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			delta := 1.0
			if instr.B&updateFlagDecrement != 0 {
				delta = -1
			}
			newN := n + delta
			if t := vm.SetElem(obj, key, value.Num(newN)); t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			if instr.B&updateFlagPostfix != 0 {
				frame.push(value.Num(n))
			} else {
				frame.push(value.Num(newN))
			}

		case bytecode.OpReturn:
			return frame.pop(), nil
		case bytecode.OpThrow:
			v := frame.pop()
			if !frame.raise(v) {
				return value.Value{}, Throw(v)
			}

		case bytecode.OpEnterTry:
			frame.handlers = append(frame.handlers, handler{
				catchPC: instr.A, finallyPC: instr.B, stackLen: len(frame.stack),
			})
		case bytecode.OpLeaveTry:
			if len(frame.handlers) > 0 {
				frame.handlers = frame.handlers[:len(frame.handlers)-1]
			}
			if frame.pendingThrow {
				frame.pendingThrow = false
				v := frame.pendingValue
				if !frame.raise(v) {
					return value.Value{}, Throw(v)
				}
			}
		case bytecode.OpEnterCatch:
			if instr.A >= 0 {
				*frame.locals[instr.A] = frame.caught
			}

		case bytecode.OpGetIterator:
			iterable := frame.pop()
			it, t := vm.GetIterator(iterable, instr.A == 1)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			frame.push(it)
		case bytecode.OpIterNext:
			it := frame.top()
			v, ok := iterNext(it)
			if !ok {
				frame.pc = int(instr.A)
				continue
			}
			frame.push(v)

		case bytecode.OpArrayPush:
			val := frame.pop()
			arr := frame.pop()
			if arr.IsObject() && arr.Obj().Array != nil {
				arr.Obj().Array.Values = append(arr.Obj().Array.Values, val)
			}
		case bytecode.OpArraySpread:
			arr := frame.pop()
			iterable := frame.pop()
			it, t := vm.GetIterator(iterable, false)
			if t != nil {
				if !frame.raise(t.Value) {
					return value.Value{}, t
				}
				continue
			}
			if arr.IsObject() && arr.Obj().Array != nil {
				for {
					v, ok := iterNext(it)
					if !ok {
						break
					}
					arr.Obj().Array.Values = append(arr.Obj().Array.Values, v)
				}
			}
		case bytecode.OpObjectSpread:
			obj := frame.pop()
			src := frame.pop()
			if src.IsObject() {
				for _, k := range OwnKeys(src.Obj(), true) {
					v, t := vm.GetElem(src, k)
					if t != nil {
						if !frame.raise(t.Value) {
							return value.Value{}, t
						}
						break
					}
					if t := vm.SetElem(obj, k, v); t != nil {
						if !frame.raise(t.Value) {
							return value.Value{}, t
						}
						break
					}
				}
			}
		case bytecode.OpSetProto:
			obj := frame.pop()
			proto := frame.pop()
			if obj.IsObject() {
				switch {
				case proto.IsObject():
					obj.Obj().Proto = proto.Obj()
				case proto.Type() == value.Null:
					obj.Obj().Proto = nil
				}
			}
		case bytecode.OpDefineGetter, bytecode.OpDefineSetter:
			obj := frame.pop()
			fn := frame.pop()
			if obj.IsObject() && fn.Type() == value.Function {
				id := atom.ID(instr.A)
				o := obj.Obj()
				o.PrivateCopy()
				var acc value.Accessor
				if existing, ok := o.Hash.Get(id); ok && existing.Kind == value.PropAccessor {
					acc = existing.Accessor
				}
				if instr.Op == bytecode.OpDefineGetter {
					acc.Getter = fn.Obj()
				} else {
					acc.Setter = fn.Obj()
				}
				name, _ := vm.Atoms.Name(id)
				o.Hash.Put(value.Property{
					NameAtom: id, Name: value.FromString(value.NewStr(name)), Kind: value.PropAccessor,
					Enumerable: value.AttrTrue, Configurable: value.AttrTrue, Accessor: acc,
				}, false)
			}

		default:
			return value.Value{}, vm.ThrowError(InternalError, "unimplemented opcode %d", instr.Op)
		}
	}
}

func typeofString(v value.Value) string {
	switch v.Type() {
	case value.Undefined:
		return "undefined"
	case value.Null:
		return "object"
	case value.Boolean:
		return "boolean"
	case value.Number:
		return "number"
	case value.String:
		return "string"
	case value.Symbol:
		return "symbol"
	case value.Function:
		return "function"
	default:
		return "object"
	}
}
