package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/session"
)

func exprSymbol(name string) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprSymbol, Name: name}
}

func exprStmt(e *ast.Expr) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtExpr, Expr: e}
}

func block(stmts ...*ast.Stmt) *ast.Stmt {
	return &ast.Stmt{Kind: ast.StmtBlock, Body: stmts}
}

func assign(name string, rvalue *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprAssign, Lvalue: exprSymbol(name), Rvalue: rvalue}
}

func numberLit(v int64) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprLiteralNumber, NumberValue: v}
}

func newSessionWithProbe(body *ast.Stmt) (*session.Session, *ast.Probe) {
	sess := session.New()
	pr := &ast.Probe{Body: body}
	sess.UserFile = &ast.StapFile{Name: "t.stp", Probes: []*ast.Probe{pr}}
	return sess, pr
}

func TestWriteToUndeclaredCreatesLocal(t *testing.T) {
	sess, pr := newSessionWithProbe(block(exprStmt(assign("n", numberLit(1)))))

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.Len(t, pr.Locals, 1)
	assert.Equal(t, "n", pr.Locals[0].Name)
	assert.Equal(t, ast.ScopeProbeLocal, pr.Locals[0].Scope)
	assert.True(t, pr.Locals[0].Referenced)
}

func TestReadOfUndeclaredIsResolveError(t *testing.T) {
	sess, _ := newSessionWithProbe(block(exprStmt(exprSymbol("ghost"))))

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestGlobalIsVisibleFromProbe(t *testing.T) {
	g := &ast.VarDecl{Name: "counter", Type: ast.Unknown, Scope: ast.ScopeGlobal}
	body := block(exprStmt(assign("counter", numberLit(1))))
	sess, _ := newSessionWithProbe(body)
	sess.UserFile.Globals = []*ast.VarDecl{g}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, g.Referenced)
	assert.Contains(t, sess.Globals, g)
}

func TestUnreferencedGlobalMovesToUnused(t *testing.T) {
	used := &ast.VarDecl{Name: "hits", Type: ast.Unknown, Scope: ast.ScopeGlobal}
	unused := &ast.VarDecl{Name: "dead", Type: ast.Unknown, Scope: ast.ScopeGlobal}
	body := block(exprStmt(assign("hits", numberLit(1))))
	sess, _ := newSessionWithProbe(body)
	sess.UserFile.Globals = []*ast.VarDecl{used, unused}

	_, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*ast.VarDecl{used}, sess.Globals)
	assert.Equal(t, []*ast.VarDecl{unused}, sess.UnusedGlobals)
}

func TestFunctionCallResolvesByNameAndArity(t *testing.T) {
	fn := &ast.FuncDecl{
		Name:   "double",
		Params: []*ast.VarDecl{{Name: "x", Type: ast.Unknown, Scope: ast.ScopeFunctionParam}},
		Body:   block(&ast.Stmt{Kind: ast.StmtReturn, Expr: exprSymbol("x")}),
	}
	call := &ast.Expr{Kind: ast.ExprFunctionCall, Name: "double", Args: []*ast.Expr{numberLit(2)}}
	sess, _ := newSessionWithProbe(block(exprStmt(call)))
	sess.UserFile.Functions = []*ast.FuncDecl{fn}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Same(t, fn, call.Func)
	assert.True(t, fn.Referenced)
}

func TestWrongArityCallIsResolveError(t *testing.T) {
	fn := &ast.FuncDecl{Name: "double", Params: []*ast.VarDecl{{Name: "x"}}, Body: block()}
	call := &ast.Expr{Kind: ast.ExprFunctionCall, Name: "double", Args: []*ast.Expr{numberLit(1), numberLit(2)}}
	sess, _ := newSessionWithProbe(block(exprStmt(call)))
	sess.UserFile.Functions = []*ast.FuncDecl{fn}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, fn.Referenced)
}

func TestUnreferencedFunctionMovesToUnused(t *testing.T) {
	used := &ast.FuncDecl{Name: "used", Body: block()}
	unused := &ast.FuncDecl{Name: "dead", Body: block()}
	call := &ast.Expr{Kind: ast.ExprFunctionCall, Name: "used"}
	sess, _ := newSessionWithProbe(block(exprStmt(call)))
	sess.UserFile.Functions = []*ast.FuncDecl{used, unused}

	_, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []*ast.FuncDecl{used}, sess.Functions)
	assert.Equal(t, []*ast.FuncDecl{unused}, sess.UnusedFuncs)
}

func TestPrintfBuiltinCallNeedsNoDeclaration(t *testing.T) {
	call := &ast.Expr{Kind: ast.ExprFunctionCall, Name: "printf", Args: []*ast.Expr{{Kind: ast.ExprSymbol, Name: "fmt"}}}
	body := block(exprStmt(assign("fmt", &ast.Expr{Kind: ast.ExprLiteralString, StringValue: "hi"})), exprStmt(call))
	sess, _ := newSessionWithProbe(body)

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestArrayArityMismatchIsResolveError(t *testing.T) {
	first := &ast.Expr{Kind: ast.ExprArrayIndex, Name: "tab", Args: []*ast.Expr{numberLit(1)}}
	second := &ast.Expr{Kind: ast.ExprArrayIndex, Name: "tab", Args: []*ast.Expr{numberLit(1), numberLit(2)}}
	body := block(exprStmt(assign0(first)), exprStmt(assign0(second)))
	sess, _ := newSessionWithProbe(body)

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func assign0(target *ast.Expr) *ast.Expr {
	return &ast.Expr{Kind: ast.ExprAssign, Lvalue: target, Rvalue: numberLit(0)}
}

func TestForeachResolvesArrayAndCreatesLoopVar(t *testing.T) {
	arr := &ast.VarDecl{Name: "seen", Type: ast.Unknown, ArrayArity: 1, Scope: ast.ScopeGlobal}
	loop := &ast.Stmt{
		Kind:         ast.StmtForeach,
		LoopVarNames: []string{"k"},
		ArrayName:    "seen",
		Then:         block(),
	}
	sess, pr := newSessionWithProbe(block(loop))
	sess.UserFile.Globals = []*ast.VarDecl{arr}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	require.NotNil(t, loop.ArrayRef)
	assert.Same(t, arr, loop.ArrayRef)
	require.NotNil(t, loop.LoopVar)
	assert.Equal(t, "k", loop.LoopVar.Name)
	assert.Contains(t, pr.Locals, loop.LoopVar)
}

func TestForeachOverUndeclaredArrayIsResolveError(t *testing.T) {
	loop := &ast.Stmt{Kind: ast.StmtForeach, LoopVarNames: []string{"k"}, ArrayName: "ghost", Then: block()}
	sess, _ := newSessionWithProbe(block(loop))

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestArrayInResolvesArrayRef(t *testing.T) {
	arr := &ast.VarDecl{Name: "tab", Type: ast.Unknown, ArrayArity: 1, Scope: ast.ScopeGlobal}
	in := &ast.Expr{Kind: ast.ExprArrayIn, Name: "tab", Left: numberLit(1)}
	sess, _ := newSessionWithProbe(block(exprStmt(in)))
	sess.UserFile.Globals = []*ast.VarDecl{arr}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Same(t, arr, in.ArrayRef)
	assert.True(t, arr.Referenced)
}

func TestDuplicateGlobalNameIsResolveError(t *testing.T) {
	a := &ast.VarDecl{Name: "x", Type: ast.Unknown, Scope: ast.ScopeGlobal}
	b := &ast.VarDecl{Name: "x", Type: ast.Unknown, Scope: ast.ScopeGlobal}
	sess, _ := newSessionWithProbe(block())
	sess.UserFile.Globals = []*ast.VarDecl{a, b}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFunctionLocalsAreNotVisibleFromProbe(t *testing.T) {
	fn := &ast.FuncDecl{
		Name: "helper",
		Body: block(exprStmt(assign("local1", numberLit(1)))),
	}
	probeBody := block(exprStmt(exprSymbol("local1")))
	sess, _ := newSessionWithProbe(probeBody)
	sess.UserFile.Functions = []*ast.FuncDecl{fn}

	n, err := New(sess).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n, "a function's locals must not leak into an unrelated probe")
}
