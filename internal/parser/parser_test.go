package parser

import (
	"testing"

	"github.com/nginx/njs-go/internal/ast"
	"github.com/nginx/njs-go/internal/atom"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	prog, _, err := Parse("t.js", src, atom.New())
	require.NoError(t, err)
	return prog
}

func TestParseVarDeclAndExpressionStatement(t *testing.T) {
	prog := mustParse(t, "var x = 1 + 2;")
	require.Len(t, prog.List, 1)
	decl := prog.List[0]
	require.Equal(t, ast.KVarDecl, decl.Kind)
	require.Equal(t, "var", decl.Op)
	require.Len(t, decl.List, 1)
	bind := decl.List[0]
	require.Equal(t, "x", bind.Name)
	require.Equal(t, ast.KBinary, bind.Right.Kind)
	require.Equal(t, "+", bind.Right.Op)
}

func TestParseFunctionDeclaration(t *testing.T) {
	prog := mustParse(t, `
		function fib(n) {
			if (n < 2) return n;
			return fib(n - 1) + fib(n - 2);
		}
	`)
	require.Len(t, prog.List, 1)
	fn := prog.List[0]
	require.Equal(t, ast.KFunctionDecl, fn.Kind)
	require.Equal(t, "fib", fn.Name)
	require.Equal(t, []string{"n"}, fn.Func.Params)
	require.Len(t, fn.Func.Body, 2)
}

func TestOperatorPrecedence(t *testing.T) {
	prog := mustParse(t, "var r = 1 + 2 * 3;")
	bind := prog.List[0].List[0]
	add := bind.Right
	require.Equal(t, "+", add.Op)
	require.Equal(t, ast.KNumberLit, add.Left.Kind)
	require.Equal(t, ast.KBinary, add.Right.Kind)
	require.Equal(t, "*", add.Right.Op)
}

func TestTryCatchFinally(t *testing.T) {
	prog := mustParse(t, `
		try {
			throw new Error("boom");
		} catch (e) {
			log(e.message);
		} finally {
			cleanup();
		}
	`)
	tryNode := prog.List[0]
	require.Equal(t, ast.KTry, tryNode.Kind)
	require.NotNil(t, tryNode.Left)
	require.NotNil(t, tryNode.Right)
	require.Equal(t, "e", tryNode.Right.Name)
	require.NotNil(t, tryNode.Third)
}

func TestClosureOverOuterFunctionReturnsAccumulator(t *testing.T) {
	prog := mustParse(t, `
		function makeCounter() {
			var count = 0;
			return function() {
				count = count + 1;
				return count;
			};
		}
	`)
	outer := prog.List[0]
	require.Equal(t, "makeCounter", outer.Name)
	inner := outer.Func.Body[1].Left
	require.Equal(t, ast.KFunctionExpr, inner.Kind)
	require.True(t, inner.Func.Scope.Parent == outer.Func.Scope)
}

func TestTaggedTemplateLowersToCall(t *testing.T) {
	prog := mustParse(t, "var s = tag`a${1}b${2}c`;")
	bind := prog.List[0].List[0]
	call := bind.Right
	require.Equal(t, ast.KCall, call.Kind)
	require.Equal(t, "tagged", call.Op)
	require.Equal(t, ast.KIdentifier, call.Left.Kind)
	require.Equal(t, "tag", call.Left.Name)
	require.Len(t, call.List, 3) // strings array + 2 interpolations
	require.Equal(t, ast.KArrayLit, call.List[0].Kind)
	require.Len(t, call.List[0].List, 3)
}

func TestArrayAndObjectLiterals(t *testing.T) {
	prog := mustParse(t, `var o = { a: 1, b: [1, 2, 3], get c() { return 2; } };`)
	bind := prog.List[0].List[0]
	obj := bind.Right
	require.Equal(t, ast.KObjectLit, obj.Kind)
	require.Len(t, obj.List, 3)
	require.Equal(t, "a", obj.List[0].Name)
	require.Equal(t, "b", obj.List[1].Name)
	require.Equal(t, ast.KArrayLit, obj.List[1].Left.Kind)
	require.Equal(t, "getter", obj.List[2].Op)
}

func TestArrowFunctionSingleAndMultiParam(t *testing.T) {
	prog := mustParse(t, "var f = x => x + 1; var g = (a, b) => { return a + b; };")
	f := prog.List[0].List[0].Right
	require.True(t, f.Func.IsArrow)
	require.Equal(t, []string{"x"}, f.Func.Params)

	g := prog.List[1].List[0].Right
	require.True(t, g.Func.IsArrow)
	require.Equal(t, []string{"a", "b"}, g.Func.Params)
}

func TestForOfLoop(t *testing.T) {
	prog := mustParse(t, `
		for (let v of items) {
			use(v);
		}
	`)
	loop := prog.List[0]
	require.Equal(t, ast.KForOf, loop.Kind)
	require.NotNil(t, loop.Left)
	require.Equal(t, ast.KIdentifier, loop.Right.Kind)
	require.Equal(t, "items", loop.Right.Name)
}

func TestTemplateLiteralWithoutTag(t *testing.T) {
	prog := mustParse(t, "var s = `hello ${name}!`;")
	tpl := prog.List[0].List[0].Right
	require.Equal(t, ast.KTemplateLit, tpl.Kind)
	require.Len(t, tpl.List, 3)
	require.Equal(t, ast.KStringLit, tpl.List[0].Kind)
	require.Equal(t, "hello ", tpl.List[0].Str)
	require.Equal(t, ast.KIdentifier, tpl.List[1].Kind)
	require.Equal(t, "name", tpl.List[1].Name)
	require.Equal(t, "!", tpl.List[2].Str)
}

func TestSyntaxErrorReportsLine(t *testing.T) {
	_, _, err := Parse("t.js", "var x = ;\n", atom.New())
	require.Error(t, err)
	se, ok := err.(*SyntaxError)
	require.True(t, ok)
	require.Equal(t, 1, se.Line)
}
