// Binary operator semantics (spec §4.3 opcode table, §4.7 coercion
// rules): one function per arithmetic/relational/equality family,
// shared between the dispatch loop's plain binary ops and the
// OpCompoundProp/OpCompoundElem `obj.prop OP= rhs` fast path, which
// re-enters here with the same bytecode.Op carried in its B operand.
package vm

import (
	"math"
	"strings"

	"github.com/nginx/njs-go/internal/bytecode"
	"github.com/nginx/njs-go/internal/value"
)

// applyBinary evaluates a <op> b for every bytecode.Op the compiler
// emits as a plain binary instruction.
func (vm *VM) applyBinary(op bytecode.Op, a, b value.Value) (value.Value, *Thrown) {
	switch op {
	case bytecode.OpAdd:
		return vm.opAdd(a, b)
	case bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpMod, bytecode.OpPow:
		return vm.opArith(op, a, b)
	case bytecode.OpShl, bytecode.OpShr, bytecode.OpUShr, bytecode.OpBitAnd, bytecode.OpBitOr, bytecode.OpBitXor:
		return vm.opBitwise(op, a, b)
	case bytecode.OpLt, bytecode.OpGt, bytecode.OpLe, bytecode.OpGe:
		return vm.opRelational(op, a, b)
	case bytecode.OpEq:
		eq, t := vm.looseEqual(a, b)
		return value.Bool(eq), t
	case bytecode.OpNe:
		eq, t := vm.looseEqual(a, b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Bool(!eq), nil
	case bytecode.OpStrictEq:
		return value.Bool(value.Equal(a, b)), nil
	case bytecode.OpStrictNe:
		return value.Bool(!value.Equal(a, b)), nil
	case bytecode.OpIn:
		ok, t := vm.HasProperty(b, a)
		if t != nil {
			return value.Value{}, t
		}
		return value.Bool(ok), nil
	case bytecode.OpInstanceof:
		ok, t := vm.instanceOf(a, b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Bool(ok), nil
	default:
		return value.Value{}, vm.ThrowError(InternalError, "unsupported binary op %d", op)
	}
}

// opAdd implements `+` (spec §4.7 "Addition"): ToPrimitive both
// operands, concatenate if either primitive is a string, else add as
// numbers.
func (vm *VM) opAdd(a, b value.Value) (value.Value, *Thrown) {
	pa, t := vm.ToPrimitive(a, "default")
	if t != nil {
		return value.Value{}, t
	}
	pb, t := vm.ToPrimitive(b, "default")
	if t != nil {
		return value.Value{}, t
	}
	if pa.Type() == value.String || pb.Type() == value.String {
		sa, t := vm.ToStringValue(pa)
		if t != nil {
			return value.Value{}, t
		}
		sb, t := vm.ToStringValue(pb)
		if t != nil {
			return value.Value{}, t
		}
		return value.FromString(value.Concat(sa.Str(), sb.Str())), nil
	}
	na, t := vm.ToNumber(pa)
	if t != nil {
		return value.Value{}, t
	}
	nb, t := vm.ToNumber(pb)
	if t != nil {
		return value.Value{}, t
	}
	return value.Num(na + nb), nil
}

func (vm *VM) opArith(op bytecode.Op, a, b value.Value) (value.Value, *Thrown) {
	na, t := vm.ToNumber(a)
	if t != nil {
		return value.Value{}, t
	}
	nb, t := vm.ToNumber(b)
	if t != nil {
		return value.Value{}, t
	}
	switch op {
	case bytecode.OpSub:
		return value.Num(na - nb), nil
	case bytecode.OpMul:
		return value.Num(na * nb), nil
	case bytecode.OpDiv:
		return value.Num(na / nb), nil
	case bytecode.OpMod:
		return value.Num(math.Mod(na, nb)), nil
	case bytecode.OpPow:
		return value.Num(math.Pow(na, nb)), nil
	}
	panic("unreachable")
}

func (vm *VM) opBitwise(op bytecode.Op, a, b value.Value) (value.Value, *Thrown) {
	switch op {
	case bytecode.OpShl:
		ia, t := vm.ToInt32(a)
		if t != nil {
			return value.Value{}, t
		}
		ub, t := vm.ToUint32(b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Num(float64(ia << (ub & 31))), nil
	case bytecode.OpShr:
		ia, t := vm.ToInt32(a)
		if t != nil {
			return value.Value{}, t
		}
		ub, t := vm.ToUint32(b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Num(float64(ia >> (ub & 31))), nil
	case bytecode.OpUShr:
		ua, t := vm.ToUint32(a)
		if t != nil {
			return value.Value{}, t
		}
		ub, t := vm.ToUint32(b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Num(float64(ua >> (ub & 31))), nil
	case bytecode.OpBitAnd:
		ia, t := vm.ToInt32(a)
		if t != nil {
			return value.Value{}, t
		}
		ib, t := vm.ToInt32(b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Num(float64(ia & ib)), nil
	case bytecode.OpBitOr:
		ia, t := vm.ToInt32(a)
		if t != nil {
			return value.Value{}, t
		}
		ib, t := vm.ToInt32(b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Num(float64(ia | ib)), nil
	case bytecode.OpBitXor:
		ia, t := vm.ToInt32(a)
		if t != nil {
			return value.Value{}, t
		}
		ib, t := vm.ToInt32(b)
		if t != nil {
			return value.Value{}, t
		}
		return value.Num(float64(ia ^ ib)), nil
	}
	panic("unreachable")
}

// opRelational implements `<`/`>`/`<=`/`>=` (spec §4.7 "Abstract
// Relational Comparison"): string operands compare lexicographically
// by UTF-16 code unit (approximated here by byte order over UTF-8,
// which agrees for the ASCII-dominated inputs this engine targets);
// otherwise both sides convert to numbers and NaN makes every
// relational comparison false.
func (vm *VM) opRelational(op bytecode.Op, a, b value.Value) (value.Value, *Thrown) {
	pa, t := vm.ToPrimitive(a, "number")
	if t != nil {
		return value.Value{}, t
	}
	pb, t := vm.ToPrimitive(b, "number")
	if t != nil {
		return value.Value{}, t
	}
	if pa.Type() == value.String && pb.Type() == value.String {
		cmp := strings.Compare(pa.Str().Bytes(), pb.Str().Bytes())
		switch op {
		case bytecode.OpLt:
			return value.Bool(cmp < 0), nil
		case bytecode.OpGt:
			return value.Bool(cmp > 0), nil
		case bytecode.OpLe:
			return value.Bool(cmp <= 0), nil
		case bytecode.OpGe:
			return value.Bool(cmp >= 0), nil
		}
	}
	na, t := vm.ToNumber(pa)
	if t != nil {
		return value.Value{}, t
	}
	nb, t := vm.ToNumber(pb)
	if t != nil {
		return value.Value{}, t
	}
	if na != na || nb != nb { // NaN
		return value.Bool(false), nil
	}
	switch op {
	case bytecode.OpLt:
		return value.Bool(na < nb), nil
	case bytecode.OpGt:
		return value.Bool(na > nb), nil
	case bytecode.OpLe:
		return value.Bool(na <= nb), nil
	case bytecode.OpGe:
		return value.Bool(na >= nb), nil
	}
	panic("unreachable")
}

// looseEqual implements `==` (spec §4.7 "Abstract Equality
// Comparison"): same-type operands fall back to strict equality;
// null/undefined are mutually loose-equal and equal to nothing else;
// a number/string pair converts the string to a number; a boolean
// operand converts to a number and retries; an object compared
// against a primitive converts via ToPrimitive and retries.
func (vm *VM) looseEqual(a, b value.Value) (bool, *Thrown) {
	if a.Type() == b.Type() {
		return value.Equal(a, b), nil
	}
	if a.IsNullOrUndefined() && b.IsNullOrUndefined() {
		return true, nil
	}
	if a.IsNullOrUndefined() || b.IsNullOrUndefined() {
		return false, nil
	}
	if a.Type() == value.Number && b.Type() == value.String {
		nb, t := vm.ToNumber(b)
		if t != nil {
			return false, t
		}
		return a.NumberValue() == nb, nil
	}
	if a.Type() == value.String && b.Type() == value.Number {
		na, t := vm.ToNumber(a)
		if t != nil {
			return false, t
		}
		return na == b.NumberValue(), nil
	}
	if a.Type() == value.Boolean {
		na, t := vm.ToNumber(a)
		if t != nil {
			return false, t
		}
		return vm.looseEqual(value.Num(na), b)
	}
	if b.Type() == value.Boolean {
		nb, t := vm.ToNumber(b)
		if t != nil {
			return false, t
		}
		return vm.looseEqual(a, value.Num(nb))
	}
	if a.IsObject() && !b.IsObject() {
		pa, t := vm.ToPrimitive(a, "default")
		if t != nil {
			return false, t
		}
		return vm.looseEqual(pa, b)
	}
	if b.IsObject() && !a.IsObject() {
		pb, t := vm.ToPrimitive(b, "default")
		if t != nil {
			return false, t
		}
		return vm.looseEqual(a, pb)
	}
	return false, nil
}

// instanceOf implements `instanceof` (spec §4.7): ctor's "prototype"
// property must appear somewhere along inst's own prototype chain.
func (vm *VM) instanceOf(inst, ctor value.Value) (bool, *Thrown) {
	if ctor.Type() != value.Function || ctor.Obj() == nil {
		return false, vm.ThrowError(TypeError, "Right-hand side of 'instanceof' is not callable")
	}
	protoProp, ok := ctor.Obj().Hash.Get(vm.atom("prototype"))
	if !ok || !protoProp.Value.IsObject() {
		return false, nil
	}
	protoObj := protoProp.Value.Obj()
	if !inst.IsObject() {
		return false, nil
	}
	for p := inst.Obj().Proto; p != nil; p = p.Proto {
		if p == protoObj {
			return true, nil
		}
	}
	return false, nil
}
