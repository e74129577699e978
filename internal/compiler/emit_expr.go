package compiler

import (
	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/bytecode"
	"github.com/nginx/njs-go/internal/value"
)

var binaryOps = map[string]bytecode.Op{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul,
	"/": bytecode.OpDiv, "%": bytecode.OpMod, "**": bytecode.OpPow,
	"<<": bytecode.OpShl, ">>": bytecode.OpShr, ">>>": bytecode.OpUShr,
	"&": bytecode.OpBitAnd, "|": bytecode.OpBitOr, "^": bytecode.OpBitXor,
	"<": bytecode.OpLt, ">": bytecode.OpGt, "<=": bytecode.OpLe, ">=": bytecode.OpGe,
	"==": bytecode.OpEq, "!=": bytecode.OpNe,
	"===": bytecode.OpStrictEq, "!==": bytecode.OpStrictNe,
	"in": bytecode.OpIn, "instanceof": bytecode.OpInstanceof,
}

func compileExpr(fc *funcCtx, n *ast.Node) {
	if n == nil {
		fc.emit(bytecode.OpLoadUndef, 0, 0, 0)
		return
	}
	switch n.Kind {
	case ast.KNumberLit:
		fc.emit(bytecode.OpLoadConst, fc.addConst(value.Num(n.Num)), 0, n.Line)
	case ast.KStringLit:
		fc.emit(bytecode.OpLoadConst, fc.addConst(value.FromString(value.NewStr(n.Str))), 0, n.Line)
	case ast.KBooleanLit:
		if n.Bool {
			fc.emit(bytecode.OpLoadTrue, 0, 0, n.Line)
		} else {
			fc.emit(bytecode.OpLoadFalse, 0, 0, n.Line)
		}
	case ast.KNullLit:
		fc.emit(bytecode.OpLoadNull, 0, 0, n.Line)
	case ast.KUndefinedLit:
		fc.emit(bytecode.OpLoadUndef, 0, 0, n.Line)
	case ast.KThis:
		fc.emit(bytecode.OpLoadThis, 0, 0, n.Line)
	case ast.KIdentifier:
		resolveVariable(fc, n.Scope, n.Name).emitLoad(fc, n.Line)
	case ast.KArrayLit:
		compileArrayLiteral(fc, n)
	case ast.KObjectLit:
		compileObjectLiteral(fc, n)
	case ast.KTemplateLit:
		compileTemplateLiteral(fc, n)
	case ast.KRegexLit:
		compileRegexLiteral(fc, n)
	case ast.KFunctionExpr:
		lambda := compileFunctionLiteral(fc, n.Func, n.Line)
		fc.emit(bytecode.OpNewFunction, fc.addLambda(lambda), 0, n.Line)
	case ast.KCall:
		compileCall(fc, n)
	case ast.KNew:
		compileNew(fc, n)
	case ast.KMember:
		compileMemberLoad(fc, n)
	case ast.KUnary:
		compileUnary(fc, n)
	case ast.KTypeof:
		compileExpr(fc, n.Left)
		fc.emit(bytecode.OpTypeof, 0, 0, n.Line)
	case ast.KVoid:
		compileExpr(fc, n.Left)
		fc.emit(bytecode.OpVoidOp, 0, 0, n.Line)
	case ast.KDelete:
		compileDelete(fc, n)
	case ast.KUpdate:
		compileUpdate(fc, n)
	case ast.KBinary:
		compileExpr(fc, n.Left)
		compileExpr(fc, n.Right)
		op, ok := binaryOps[n.Op]
		if !ok {
			failAt(n.Line, "unsupported binary operator %q", n.Op)
		}
		fc.emit(op, 0, 0, n.Line)
	case ast.KLogical:
		compileLogical(fc, n)
	case ast.KAssign:
		compileAssign(fc, n)
	case ast.KConditional:
		compileConditional(fc, n)
	case ast.KSequence:
		for i, item := range n.List {
			compileExpr(fc, item)
			if i != len(n.List)-1 {
				fc.emit(bytecode.OpPop, 0, 0, n.Line)
			}
		}
	case ast.KSpread:
		compileExpr(fc, n.Left)
	default:
		failAt(n.Line, "unsupported expression kind %v", n.Kind)
	}
}

func hasSpreadElement(list []*ast.Node) bool {
	for _, el := range list {
		if el != nil && el.Kind == ast.KSpread {
			return true
		}
	}
	return false
}

func compileArrayLiteral(fc *funcCtx, n *ast.Node) {
	if !hasSpreadElement(n.List) {
		for _, el := range n.List {
			if el == nil {
				fc.emit(bytecode.OpLoadUndef, 0, 0, n.Line)
				continue
			}
			compileExpr(fc, el)
		}
		fc.emit(bytecode.OpNewArray, int32(len(n.List)), 0, n.Line)
		return
	}

	fc.emit(bytecode.OpNewArray, 0, 0, n.Line)
	tmp := fc.allocateTemp()
	fc.emit(bytecode.OpSetLocal, tmp, 0, n.Line)
	fc.emit(bytecode.OpPop, 0, 0, n.Line)

	for _, el := range n.List {
		switch {
		case el == nil:
			fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
			fc.emit(bytecode.OpLoadUndef, 0, 0, n.Line)
			fc.emit(bytecode.OpArrayPush, 0, 0, n.Line)
		case el.Kind == ast.KSpread:
			compileExpr(fc, el.Left)
			fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
			fc.emit(bytecode.OpArraySpread, 0, 0, n.Line)
		default:
			fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
			compileExpr(fc, el)
			fc.emit(bytecode.OpArrayPush, 0, 0, n.Line)
		}
	}
	fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
}

// compileObjectLiteral builds the object incrementally in source order
// (spec §4.2.5): the literal's own empty shell is stashed in a temp
// local so each entry — data property, accessor, `__proto__`, or spread
// — can look it up and mutate it in place, in the order it was written
// (so a later key wins over an earlier spread and vice versa, matching
// ECMAScript's left-to-right CreateDataPropertyOrThrow evaluation).
func compileObjectLiteral(fc *funcCtx, n *ast.Node) {
	fc.emit(bytecode.OpNewObject, 0, 0, n.Line)
	tmp := fc.allocateTemp()
	fc.emit(bytecode.OpSetLocal, tmp, 0, n.Line)
	fc.emit(bytecode.OpPop, 0, 0, n.Line)

	for _, prop := range n.List {
		if prop.Kind == ast.KSpread {
			compileExpr(fc, prop.Left)
			fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
			fc.emit(bytecode.OpObjectSpread, 0, 0, n.Line)
			continue
		}

		switch prop.Op {
		case "proto":
			compileExpr(fc, prop.Left)
			fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
			fc.emit(bytecode.OpSetProto, 0, 0, n.Line)
		case "getter", "setter":
			compileExpr(fc, prop.Left) // function literal
			fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
			atomID := fc.internAtom(prop.Name)
			if prop.Op == "getter" {
				fc.emit(bytecode.OpDefineGetter, atomID, 0, n.Line)
			} else {
				fc.emit(bytecode.OpDefineSetter, atomID, 0, n.Line)
			}
		default:
			if prop.Computed {
				compileExpr(fc, prop.Left) // value
				fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
				compileExpr(fc, prop.Right) // key
				fc.emit(bytecode.OpSetElem, 0, 0, n.Line)
			} else {
				compileExpr(fc, prop.Left) // value
				fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
				fc.emit(bytecode.OpSetProp, fc.internAtom(prop.Name), 0, n.Line)
			}
			fc.emit(bytecode.OpPop, 0, 0, n.Line)
		}
	}
	fc.emit(bytecode.OpGetLocal, tmp, 0, n.Line)
}

// compileRegexLiteral validates the pattern at compile time (spec §4.1
// "Disambiguation of /") so a malformed literal fails the same way a
// malformed numeric or string literal would, then emits OpNewRegExp so
// the VM builds a fresh RegExp object, wired to vm.protos.RegExp, each
// time the literal is evaluated.
func compileRegexLiteral(fc *funcCtx, n *ast.Node) {
	if _, err := value.NewRegExp(n.Str, n.Flags); err != nil {
		failAt(n.Line, "invalid regular expression /%s/%s: %v", n.Str, n.Flags, err)
	}
	src := fc.addConst(value.FromString(value.NewStr(n.Str)))
	flags := fc.addConst(value.FromString(value.NewStr(n.Flags)))
	fc.emit(bytecode.OpNewRegExp, src, flags, n.Line)
}

func compileTemplateLiteral(fc *funcCtx, n *ast.Node) {
	for i, part := range n.List {
		compileExpr(fc, part)
		if part.Kind != ast.KStringLit {
			// coerce to string happens at runtime via OpAdd's string
			// concatenation rule once the accumulator below is seeded.
		}
		if i == 0 {
			continue
		}
		fc.emit(bytecode.OpAdd, 0, 0, n.Line)
	}
	if len(n.List) == 0 {
		fc.emit(bytecode.OpLoadConst, fc.addConst(value.FromString(value.NewStr(""))), 0, n.Line)
	}
}

func compileCall(fc *funcCtx, n *ast.Node) {
	if n.Op == "tagged" {
		compileArgsAndCallee(fc, n)
		fc.emit(bytecode.OpTaggedCall, int32(len(n.List)), 0, n.Line)
		return
	}

	if n.Left.Kind == ast.KMember {
		m := n.Left
		compileExpr(fc, m.Left) // receiver stays on stack for `this`
		fc.emit(bytecode.OpDup, 0, 0, n.Line)
		if m.Computed {
			compileExpr(fc, m.Right)
			fc.emit(bytecode.OpGetElem, 0, 0, n.Line)
		} else {
			fc.emit(bytecode.OpGetProp, fc.internAtom(m.Name), 0, n.Line)
		}
		compileArguments(fc, n.List)
		op := bytecode.OpCall
		if m.Op == "?." || n.Op == "?." {
			op = bytecode.OpCallOpt
		}
		fc.emit(op, int32(len(n.List)), 0, n.Line)
		return
	}

	fc.emit(bytecode.OpLoadUndef, 0, 0, n.Line) // no receiver
	compileExpr(fc, n.Left)
	compileArguments(fc, n.List)
	op := bytecode.OpCall
	if n.Op == "?." {
		op = bytecode.OpCallOpt
	}
	fc.emit(op, int32(len(n.List)), 0, n.Line)
}

func compileArgsAndCallee(fc *funcCtx, n *ast.Node) {
	fc.emit(bytecode.OpLoadUndef, 0, 0, n.Line)
	compileExpr(fc, n.Left)
	compileArguments(fc, n.List)
}

func compileArguments(fc *funcCtx, args []*ast.Node) {
	for _, a := range args {
		compileExpr(fc, a)
	}
}

func compileNew(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Left)
	compileArguments(fc, n.List)
	fc.emit(bytecode.OpNew, int32(len(n.List)), 0, n.Line)
}

func compileMemberLoad(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Left)
	if n.Computed {
		compileExpr(fc, n.Right)
		fc.emit(bytecode.OpGetElem, 0, 0, n.Line)
	} else {
		fc.emit(bytecode.OpGetProp, fc.internAtom(n.Name), 0, n.Line)
	}
}

func compileUnary(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Left)
	switch n.Op {
	case "+":
		fc.emit(bytecode.OpUnaryPlus, 0, 0, n.Line)
	case "-":
		fc.emit(bytecode.OpUnaryMinus, 0, 0, n.Line)
	case "!":
		fc.emit(bytecode.OpUnaryNot, 0, 0, n.Line)
	case "~":
		fc.emit(bytecode.OpUnaryBitNot, 0, 0, n.Line)
	case "await":
		fc.emit(bytecode.OpAwait, 0, 0, n.Line)
	default:
		failAt(n.Line, "unsupported unary operator %q", n.Op)
	}
}

func compileDelete(fc *funcCtx, n *ast.Node) {
	if n.Left.Kind != ast.KMember {
		fc.emit(bytecode.OpLoadTrue, 0, 0, n.Line)
		return
	}
	m := n.Left
	compileExpr(fc, m.Left)
	if m.Computed {
		compileExpr(fc, m.Right)
		fc.emit(bytecode.OpDeleteElem, 0, 0, n.Line)
	} else {
		fc.emit(bytecode.OpDeleteProp, fc.internAtom(m.Name), 0, n.Line)
	}
}

// compileLogical compiles `&&`/`||`/`??` as a dup-test-pop short circuit:
// the left value is duplicated so the conditional jump can consume one
// copy for the test while leaving the other as the result if it takes
// the short-circuit path; otherwise the remaining copy is popped and
// the right operand becomes the result.
func compileLogical(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Left)
	fc.emit(bytecode.OpDup, 0, 0, n.Line)
	var jmp int
	switch n.Op {
	case "&&":
		jmp = fc.emit(bytecode.OpJumpIfFalse, 0, 0, n.Line)
	case "||":
		jmp = fc.emit(bytecode.OpJumpIfTrue, 0, 0, n.Line)
	case "??":
		jmp = fc.emit(bytecode.OpJumpIfNullish, 0, 0, n.Line)
	default:
		failAt(n.Line, "unsupported logical operator %q", n.Op)
	}
	fc.emit(bytecode.OpPop, 0, 0, n.Line)
	compileExpr(fc, n.Right)
	fc.patchJump(jmp, fc.here())
}

func compileConditional(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Left)
	jFalse := fc.emit(bytecode.OpJumpIfFalse, 0, 0, n.Line)
	compileExpr(fc, n.Right)
	jEnd := fc.emit(bytecode.OpJump, 0, 0, n.Line)
	fc.patchJump(jFalse, fc.here())
	compileExpr(fc, n.Third)
	fc.patchJump(jEnd, fc.here())
}

func compileAssign(fc *funcCtx, n *ast.Node) {
	if n.Op == "=" {
		compileExpr(fc, n.Right)
		compileAssignTarget(fc, n.Left, n.Line)
		return
	}

	op, ok := binaryOps[n.Op[:len(n.Op)-1]]
	if !ok {
		failAt(n.Line, "unsupported compound assignment %q", n.Op)
	}

	switch n.Left.Kind {
	case ast.KIdentifier:
		ref := resolveVariable(fc, n.Left.Scope, n.Left.Name)
		ref.emitLoad(fc, n.Line)
		compileExpr(fc, n.Right)
		fc.emit(op, 0, 0, n.Line)
		ref.emitStore(fc, n.Line)
	case ast.KMember:
		m := n.Left
		compileExpr(fc, m.Left)
		if m.Computed {
			compileExpr(fc, m.Right)
			compileExpr(fc, n.Right)
			fc.emit(bytecode.OpCompoundElem, -1, int32(op), n.Line)
		} else {
			compileExpr(fc, n.Right)
			fc.emit(bytecode.OpCompoundProp, fc.internAtom(m.Name), int32(op), n.Line)
		}
	default:
		failAt(n.Line, "invalid assignment target")
	}
}

// compileAssignTarget stores the value already on top of the stack
// into an identifier or member target, leaving that same value as the
// expression's result (ref.emitStore / OpSetProp / OpSetElem all push
// the stored value back).
func compileAssignTarget(fc *funcCtx, target *ast.Node, line int) {
	switch target.Kind {
	case ast.KIdentifier:
		ref := resolveVariable(fc, target.Scope, target.Name)
		ref.emitStore(fc, line)
	case ast.KMember:
		compileExpr(fc, target.Left)
		if target.Computed {
			compileExpr(fc, target.Right)
			fc.emit(bytecode.OpSetElem, 0, 0, line)
		} else {
			fc.emit(bytecode.OpSetProp, fc.internAtom(target.Name), 0, line)
		}
	default:
		failAt(line, "invalid assignment target")
	}
}

const (
	updateFlagDecrement = 1 << 0
	updateFlagPostfix   = 1 << 1
)

func compileUpdate(fc *funcCtx, n *ast.Node) {
	var flags int32
	if n.Op == "--" {
		flags |= updateFlagDecrement
	}
	if !n.Prefix {
		flags |= updateFlagPostfix
	}

	target := n.Left
	switch target.Kind {
	case ast.KIdentifier:
		ref := resolveVariable(fc, target.Scope, target.Name)
		ref.emitLoad(fc, n.Line)
		op := bytecode.OpPreInc
		if n.Prefix && n.Op == "--" {
			op = bytecode.OpPreDec
		} else if !n.Prefix && n.Op == "++" {
			op = bytecode.OpPostInc
		} else if !n.Prefix && n.Op == "--" {
			op = bytecode.OpPostDec
		}
		fc.emit(op, 0, 0, n.Line)
		if !n.Prefix {
			// OpPostInc/OpPostDec push [oldVal, newVal]; the store
			// consumes and re-pushes newVal, leaving [oldVal, newVal]
			// again, so the trailing Pop discards the re-pushed copy
			// and leaves oldVal as the expression's result.
			ref.emitStore(fc, n.Line)
			fc.emit(bytecode.OpPop, 0, 0, n.Line)
		} else {
			ref.emitStore(fc, n.Line)
		}
	case ast.KMember:
		compileExpr(fc, target.Left)
		if target.Computed {
			compileExpr(fc, target.Right)
			fc.emit(bytecode.OpUpdateElem, -1, flags, n.Line)
		} else {
			fc.emit(bytecode.OpUpdateProp, fc.internAtom(target.Name), flags, n.Line)
		}
	default:
		failAt(n.Line, "invalid update target")
	}
}
