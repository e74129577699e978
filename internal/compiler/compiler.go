// Package compiler lowers a parsed AST (internal/ast) into the linear
// bytecode instruction stream (internal/bytecode) the interpreter
// dispatches on, resolving every identifier to a local slot, a closure
// upvalue, or a global-object property access at compile time (spec
// §4.3).
package compiler

import (
	"fmt"

	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/atom"
	"github.com/nginx/njs-go/internal/bytecode"
	"github.com/nginx/njs-go/internal/value"
)

// CompileError is raised for constructs the code generator cannot place
// (spec §7 "CompileError" family — e.g. `break` outside a loop).
type CompileError struct {
	Message string
	Line    int
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("CompileError: %s (line %d)", e.Message, e.Line)
}

// loopLabels tracks the patch points `break`/`continue` must jump to
// for the loop currently being compiled.
type loopLabels struct {
	breakJumps    []int // indices into code needing patch to loop-end
	continueJumps []int // indices into code needing patch to loop-continue point
}

// funcCtx holds one function body's compile-time state: its emitted
// code, constant pool, local-slot assignments, and the upvalue list
// that lets nested functions borrow cells from it.
type funcCtx struct {
	parent *funcCtx

	fnScope *ast.Scope // the ast.Scope this function's body was parsed against

	code    []bytecode.Instr
	consts  []value.Value
	lambdas []*value.Lambda

	slots  map[*ast.Variable]int
	nLocal int

	upvalues    []bytecode.UpvalueRef
	upvalIndex  map[*ast.Variable]int

	loops []*loopLabels

	atoms *atom.Table
	file  string
}

func newFuncCtx(parent *funcCtx, fnScope *ast.Scope, atoms *atom.Table, file string) *funcCtx {
	return &funcCtx{
		parent:     parent,
		fnScope:    fnScope,
		slots:      make(map[*ast.Variable]int),
		upvalIndex: make(map[*ast.Variable]int),
		atoms:      atoms,
		file:       file,
	}
}

func (f *funcCtx) emit(op bytecode.Op, a, b int32, line int) int {
	f.code = append(f.code, bytecode.Instr{Op: op, A: a, B: b, Line: int32(line)})
	return len(f.code) - 1
}

func (f *funcCtx) here() int { return len(f.code) }

func (f *funcCtx) patchJump(idx int, target int) {
	f.code[idx].A = int32(target)
}

func (f *funcCtx) addConst(v value.Value) int32 {
	f.consts = append(f.consts, v)
	return int32(len(f.consts) - 1)
}

func (f *funcCtx) addLambda(l *value.Lambda) int32 {
	f.lambdas = append(f.lambdas, l)
	return int32(len(f.lambdas) - 1)
}

func (f *funcCtx) internAtom(name string) int32 {
	return int32(f.atoms.Intern(name))
}

// allocateLocal assigns the next free slot to v if it has none yet.
func (f *funcCtx) allocateLocal(v *ast.Variable) int {
	if slot, ok := f.slots[v]; ok {
		return slot
	}
	slot := f.nLocal
	f.slots[v] = slot
	f.nLocal++
	return slot
}

// allocateTemp reserves a fresh local slot for a compiler-internal
// value (e.g. the object/array being built by an incremental literal,
// spec §4.2.5) that has no source-level name and so never needs a
// *ast.Variable lookup.
func (f *funcCtx) allocateTemp() int32 {
	slot := f.nLocal
	f.nLocal++
	return int32(slot)
}

// Compile lowers a whole program into a top-level Lambda representing
// the script body, plus every nested function literal reachable from
// it (each becomes its own *value.Lambda referenced from a const-pool
// entry at the call site that creates it).
func Compile(prog *ast.Node, global *ast.Scope, atoms *atom.Table, file string) (lambda *value.Lambda, err error) {
	defer func() {
		if r := recover(); r != nil {
			if ce, ok := r.(*CompileError); ok {
				err = ce
				return
			}
			panic(r)
		}
	}()

	fc := newFuncCtx(nil, global, atoms, file)
	for _, stmt := range prog.List {
		compileStatement(fc, stmt)
	}
	fc.emit(bytecode.OpLoadUndef, 0, 0, prog.Line)
	fc.emit(bytecode.OpReturn, 0, 0, prog.Line)

	return &value.Lambda{
		Code:    fc.code,
		Consts:  fc.consts,
		Lambdas: fc.lambdas,
		NLocal:  fc.nLocal,
		Name:    "",
		File:    file,
		Line:    prog.Line,
	}, nil
}

func failAt(line int, format string, args ...any) {
	panic(&CompileError{Message: fmt.Sprintf(format, args...), Line: line})
}

// compileFunctionLiteral compiles a function/arrow body into its own
// Lambda and returns it, along with the Upvalues list the enclosing
// OpNewFunction instruction must capture from the defining frame.
func compileFunctionLiteral(parent *funcCtx, info *ast.FunctionInfo, line int) *value.Lambda {
	fc := newFuncCtx(parent, info.Scope, parent.atoms, parent.file)

	for _, name := range info.Params {
		_, v := info.Scope.Resolve(name)
		fc.allocateLocal(v)
	}

	for _, stmt := range info.Body {
		compileStatement(fc, stmt)
	}
	fc.emit(bytecode.OpLoadUndef, 0, 0, line)
	fc.emit(bytecode.OpReturn, 0, 0, line)

	nArgs := len(info.Params)
	if info.Rest {
		nArgs-- // the rest name is the last entry of Params
	}

	return &value.Lambda{
		Code:     fc.code,
		Consts:   fc.consts,
		Lambdas:  fc.lambdas,
		NLocal:   fc.nLocal,
		NArgs:    nArgs,
		Rest:     info.Rest,
		Name:     info.Name,
		File:     fc.file,
		Line:     line,
		Upvalues: fc.upvalues,
	}
}

// resolveVariable classifies a name reference at the current point of
// compilation as a local slot in fc, an upvalue fc must capture from an
// enclosing function, or a global-object property.
type varRefKind int

const (
	refLocal varRefKind = iota
	refUpvalue
	refGlobal
)

type varRef struct {
	kind varRefKind
	slot int // local slot or upvalue index
	atom int32
}

func resolveVariable(fc *funcCtx, scope *ast.Scope, name string) varRef {
	declScope, v := scope.Resolve(name)
	if v == nil {
		// Undeclared: treat as an implicit global, matching loose-mode
		// assignment-creates-global semantics.
		return varRef{kind: refGlobal, atom: fc.internAtom(name)}
	}

	owner := declScope.EnclosingFunction()
	if owner.Kind == ast.ScopeGlobal {
		return varRef{kind: refGlobal, atom: fc.internAtom(name)}
	}

	if owner == fc.fnScope {
		return varRef{kind: refLocal, slot: fc.allocateLocal(v)}
	}

	return varRef{kind: refUpvalue, slot: resolveUpvalue(fc, v, owner)}
}

// resolveUpvalue finds or creates the chain of upvalue slots linking fc
// back to the function scope (owner) that actually declares v.
func resolveUpvalue(fc *funcCtx, v *ast.Variable, owner *ast.Scope) int {
	if idx, ok := fc.upvalIndex[v]; ok {
		return idx
	}
	if fc.parent == nil {
		failAt(0, "internal: free variable %q has no enclosing function", v.Name)
	}

	var ref bytecode.UpvalueRef
	if fc.parent.fnScope == owner {
		ref = bytecode.UpvalueRef{FromParentLocal: true, Index: fc.parent.allocateLocal(v)}
	} else {
		parentIdx := resolveUpvalue(fc.parent, v, owner)
		ref = bytecode.UpvalueRef{FromParentLocal: false, Index: parentIdx}
	}

	idx := len(fc.upvalues)
	fc.upvalues = append(fc.upvalues, ref)
	fc.upvalIndex[v] = idx
	return idx
}

func (r varRef) emitLoad(fc *funcCtx, line int) {
	switch r.kind {
	case refLocal:
		fc.emit(bytecode.OpGetLocal, int32(r.slot), 0, line)
	case refUpvalue:
		fc.emit(bytecode.OpGetUpval, int32(r.slot), 0, line)
	case refGlobal:
		fc.emit(bytecode.OpGetGlobal, r.atom, 0, line)
	}
}

func (r varRef) emitStore(fc *funcCtx, line int) {
	switch r.kind {
	case refLocal:
		fc.emit(bytecode.OpSetLocal, int32(r.slot), 0, line)
	case refUpvalue:
		fc.emit(bytecode.OpSetUpval, int32(r.slot), 0, line)
	case refGlobal:
		fc.emit(bytecode.OpSetGlobal, r.atom, 0, line)
	}
}
