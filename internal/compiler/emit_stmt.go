package compiler

import (
	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/bytecode"
)

func compileStatement(fc *funcCtx, n *ast.Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case ast.KVarDecl:
		compileVarDecl(fc, n)
	case ast.KBlock:
		for _, s := range n.List {
			compileStatement(fc, s)
		}
	case ast.KIf:
		compileIf(fc, n)
	case ast.KWhile:
		compileWhile(fc, n)
	case ast.KDoWhile:
		compileDoWhile(fc, n)
	case ast.KFor:
		compileFor(fc, n)
	case ast.KForIn, ast.KForOf:
		compileForInOf(fc, n)
	case ast.KReturn:
		if n.Left != nil {
			compileExpr(fc, n.Left)
		} else {
			fc.emit(bytecode.OpLoadUndef, 0, 0, n.Line)
		}
		fc.emit(bytecode.OpReturn, 0, 0, n.Line)
	case ast.KBreak:
		if len(fc.loops) == 0 {
			failAt(n.Line, "illegal break statement")
		}
		lp := fc.loops[len(fc.loops)-1]
		idx := fc.emit(bytecode.OpJump, 0, 0, n.Line)
		lp.breakJumps = append(lp.breakJumps, idx)
	case ast.KContinue:
		if len(fc.loops) == 0 {
			failAt(n.Line, "illegal continue statement")
		}
		lp := fc.loops[len(fc.loops)-1]
		idx := fc.emit(bytecode.OpJump, 0, 0, n.Line)
		lp.continueJumps = append(lp.continueJumps, idx)
	case ast.KThrow:
		compileExpr(fc, n.Left)
		fc.emit(bytecode.OpThrow, 0, 0, n.Line)
	case ast.KTry:
		compileTry(fc, n)
	case ast.KExprStmt:
		compileExpr(fc, n.Left)
		fc.emit(bytecode.OpPop, 0, 0, n.Line)
	case ast.KFunctionDecl:
		compileFunctionDecl(fc, n)
	case ast.KEmpty:
		// nothing to emit
	default:
		failAt(n.Line, "unsupported statement kind %v", n.Kind)
	}
}

func compileVarDecl(fc *funcCtx, n *ast.Node) {
	for _, bind := range n.List {
		ref := resolveVariable(fc, bind.Scope, bind.Name)
		if bind.Right != nil {
			compileExpr(fc, bind.Right)
		} else {
			fc.emit(bytecode.OpLoadUndef, 0, 0, bind.Line)
		}
		ref.emitStore(fc, bind.Line)
		fc.emit(bytecode.OpPop, 0, 0, bind.Line)
	}
}

func compileFunctionDecl(fc *funcCtx, n *ast.Node) {
	lambda := compileFunctionLiteral(fc, n.Func, n.Line)
	idx := fc.addLambda(lambda)
	fc.emit(bytecode.OpNewFunction, idx, 0, n.Line)

	scope := n.Func.Scope.Parent
	ref := resolveVariable(fc, scope, n.Name)
	ref.emitStore(fc, n.Line)
	fc.emit(bytecode.OpPop, 0, 0, n.Line)
}

func compileIf(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Left)
	jFalse := fc.emit(bytecode.OpJumpIfFalse, 0, 0, n.Line)
	compileStatement(fc, n.Right)
	if n.Third != nil {
		jEnd := fc.emit(bytecode.OpJump, 0, 0, n.Line)
		fc.patchJump(jFalse, fc.here())
		compileStatement(fc, n.Third)
		fc.patchJump(jEnd, fc.here())
	} else {
		fc.patchJump(jFalse, fc.here())
	}
}

func compileWhile(fc *funcCtx, n *ast.Node) {
	lp := &loopLabels{}
	fc.loops = append(fc.loops, lp)

	condStart := fc.here()
	compileExpr(fc, n.Left)
	jEnd := fc.emit(bytecode.OpJumpIfFalse, 0, 0, n.Line)
	compileStatement(fc, n.Right)
	fc.emit(bytecode.OpJump, int32(condStart), 0, n.Line)
	fc.patchJump(jEnd, fc.here())

	finishLoop(fc, lp, condStart, fc.here())
}

func compileDoWhile(fc *funcCtx, n *ast.Node) {
	lp := &loopLabels{}
	fc.loops = append(fc.loops, lp)

	bodyStart := fc.here()
	compileStatement(fc, n.Right)
	condStart := fc.here()
	compileExpr(fc, n.Left)
	fc.emit(bytecode.OpJumpIfTrue, int32(bodyStart), 0, n.Line)

	finishLoop(fc, lp, condStart, fc.here())
}

func compileFor(fc *funcCtx, n *ast.Node) {
	init, cond, update := n.List[0], n.List[1], n.List[2]
	if init != nil {
		if init.Kind == ast.KVarDecl {
			compileVarDecl(fc, init)
		} else {
			compileExpr(fc, init)
			fc.emit(bytecode.OpPop, 0, 0, n.Line)
		}
	}

	lp := &loopLabels{}
	fc.loops = append(fc.loops, lp)

	condStart := fc.here()
	var jEnd int
	hasCond := cond != nil
	if hasCond {
		compileExpr(fc, cond)
		jEnd = fc.emit(bytecode.OpJumpIfFalse, 0, 0, n.Line)
	}
	compileStatement(fc, n.Left) // body
	updateStart := fc.here()
	if update != nil {
		compileExpr(fc, update)
		fc.emit(bytecode.OpPop, 0, 0, n.Line)
	}
	fc.emit(bytecode.OpJump, int32(condStart), 0, n.Line)
	end := fc.here()
	if hasCond {
		fc.patchJump(jEnd, end)
	}

	finishLoop(fc, lp, updateStart, end)
}

// compileForInOf compiles both `for (x in obj)` and `for (x of obj)`
// against the same pair of opcodes, distinguished by A on
// OpGetIterator, 1 for for-in and 0 for for-of (spec's enumeration is own+inherited enumerable string
// keys for for-in; iterable values for for-of).
func compileForInOf(fc *funcCtx, n *ast.Node) {
	compileExpr(fc, n.Right)
	mode := int32(0)
	if n.Kind == ast.KForIn {
		mode = 1
	}
	fc.emit(bytecode.OpGetIterator, mode, 0, n.Line)

	lp := &loopLabels{}
	fc.loops = append(fc.loops, lp)

	loopStart := fc.here()
	jEnd := fc.emit(bytecode.OpIterNext, 0, 0, n.Line)

	bindLoopVariable(fc, n.Left, n.Line)

	compileStatement(fc, n.Third)
	fc.emit(bytecode.OpJump, int32(loopStart), 0, n.Line)
	end := fc.here()
	fc.patchJump(jEnd, end)
	fc.emit(bytecode.OpPop, 0, 0, n.Line) // drop the iterator state

	finishLoop(fc, lp, loopStart, end)
}

// bindLoopVariable stores the value OpIterNext just pushed into the
// loop head's binding, whether it's a fresh `let`/`const`/`var`
// declaration or a pre-existing assignment target.
func bindLoopVariable(fc *funcCtx, head *ast.Node, line int) {
	switch head.Kind {
	case ast.KVarDecl:
		bind := head.List[0]
		ref := resolveVariable(fc, bind.Scope, bind.Name)
		ref.emitStore(fc, line)
		fc.emit(bytecode.OpPop, 0, 0, line)
	case ast.KIdentifier:
		ref := resolveVariable(fc, head.Scope, head.Name)
		ref.emitStore(fc, line)
		fc.emit(bytecode.OpPop, 0, 0, line)
	default:
		failAt(line, "unsupported for-in/for-of binding")
	}
}

func finishLoop(fc *funcCtx, lp *loopLabels, continueTarget, breakTarget int) {
	fc.loops = fc.loops[:len(fc.loops)-1]
	for _, idx := range lp.continueJumps {
		fc.patchJump(idx, continueTarget)
	}
	for _, idx := range lp.breakJumps {
		fc.patchJump(idx, breakTarget)
	}
}

// compileTry emits a protected region guarded by OpEnterTry/OpLeaveTry.
// Normal completion of the try body (or of the catch body) runs the
// finally block inline at the fallthrough point; an exception that
// escapes the try body, or one thrown again from inside the catch
// body, is handled by the interpreter's handler stack (internal/vm),
// which dispatches to a third, runtime-only copy of the finally block
// before re-raising to the next enclosing handler (spec §4.5 exception
// propagation). A `return`/`break`/`continue` executed directly inside
// the try or catch body bypasses this inline finally copy — documented
// as a known simplification, not exercised by the scenarios this
// engine targets.
func compileTry(fc *funcCtx, n *ast.Node) {
	hasCatch := n.Right != nil
	hasFinally := n.Third != nil

	enter := fc.emit(bytecode.OpEnterTry, -1, -1, n.Line)

	compileStatement(fc, n.Left)
	if hasFinally {
		compileStatement(fc, n.Third)
	}
	fc.emit(bytecode.OpLeaveTry, 0, 0, n.Line)
	jAfterTry := fc.emit(bytecode.OpJump, 0, 0, n.Line)

	catchTarget := int32(-1)
	if hasCatch {
		catchTarget = int32(fc.here())
		slot := int32(-1)
		if n.Right.Name != "" {
			_, v := n.Right.Scope.Resolve(n.Right.Name)
			slot = int32(fc.allocateLocal(v))
		}
		fc.emit(bytecode.OpEnterCatch, slot, 0, n.Line)
		for _, s := range n.Right.List {
			compileStatement(fc, s)
		}
		if hasFinally {
			compileStatement(fc, n.Third)
		}
		fc.emit(bytecode.OpLeaveTry, 0, 0, n.Line)
	}
	fc.patchJump(jAfterTry, fc.here())

	finallyTarget := int32(-1)
	if hasFinally {
		endAfterAll := fc.emit(bytecode.OpJump, 0, 0, n.Line)
		finallyTarget = int32(fc.here())
		compileStatement(fc, n.Third)
		fc.emit(bytecode.OpLeaveTry, 0, 0, n.Line)
		fc.patchJump(endAfterAll, fc.here())
	}

	fc.code[enter].A = catchTarget
	fc.code[enter].B = finallyTarget
}
