package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/session"
	"github.com/oxhq/stapc/internal/token"
)

func spec(name string) *ast.ProbePointSpec {
	return &ast.ProbePointSpec{Components: []ast.ProbePointComponent{{Name: name}}}
}

func TestFormatIsDeterministicAcrossGlobalOrder(t *testing.T) {
	sess1 := session.New()
	sess1.Globals = []*ast.VarDecl{{Name: "zeta", Type: ast.Long}, {Name: "alpha", Type: ast.String}}
	sess2 := session.New()
	sess2.Globals = []*ast.VarDecl{{Name: "alpha", Type: ast.String}, {Name: "zeta", Type: ast.Long}}

	r1 := Format(sess1, Options{})
	r2 := Format(sess2, Options{})
	assert.Equal(t, r1.Text, r2.Text)
	assert.Equal(t, r1.Hash, r2.Hash)
}

func TestFormatGroupsDerivedProbesBySpec(t *testing.T) {
	sess := session.New()
	src := &ast.Probe{Locations: []*ast.ProbePointSpec{spec("begin")}, Location: token.Location{Line: 1}}
	src.Derived = []*ast.DerivedProbe{
		{Source: src, Location: spec("begin"), ProviderName: "beginend"},
	}
	sess.Probes = []*ast.Probe{src}

	r := Format(sess, Options{})
	require.Contains(t, r.Text, "probe begin")
}

func TestFormatVarsListsOnlyCommonVariables(t *testing.T) {
	sess := session.New()
	src := &ast.Probe{Locations: []*ast.ProbePointSpec{spec("syscall")}}
	common := &ast.VarDecl{Name: "fd"}
	only1 := &ast.VarDecl{Name: "buf"}
	src.Derived = []*ast.DerivedProbe{
		{Source: src, Location: spec("syscall"), ContextVars: []*ast.VarDecl{common, only1}},
		{Source: src, Location: spec("syscall"), ContextVars: []*ast.VarDecl{common}},
	}
	sess.Probes = []*ast.Probe{src}

	r := Format(sess, Options{Vars: true})
	assert.Contains(t, r.Text, "var fd")
	assert.NotContains(t, r.Text, "var buf")
}

func TestHashChangesWithContent(t *testing.T) {
	sess := session.New()
	sess.Globals = []*ast.VarDecl{{Name: "a", Type: ast.Long}}
	r1 := Format(sess, Options{})

	sess.Globals = append(sess.Globals, &ast.VarDecl{Name: "b", Type: ast.String})
	r2 := Format(sess, Options{})

	assert.NotEqual(t, r1.Hash, r2.Hash)
}

func TestVerboseIncludesGlobalInitializer(t *testing.T) {
	sess := session.New()
	sess.Globals = []*ast.VarDecl{{
		Name: "counter",
		Type: ast.Long,
		Init: &ast.Expr{Kind: ast.ExprLiteralNumber, NumberValue: 42},
	}}

	r := Format(sess, Options{Verbose: true})
	assert.Contains(t, r.Text, "= 42")
}

func TestExprStringArrayInFallsBackToNameWhenUnresolved(t *testing.T) {
	e := &ast.Expr{
		Kind: ast.ExprArrayIn,
		Left: &ast.Expr{Kind: ast.ExprLiteralNumber, NumberValue: 1},
		Name: "ghost_arr",
	}
	assert.NotPanics(t, func() {
		assert.Equal(t, "([1] in ghost_arr)", exprString(e))
	})
}

func TestCanonicalSpecDistinguishesLiteralParams(t *testing.T) {
	wildcard := &ast.ProbePointSpec{Components: []ast.ProbePointComponent{
		{Name: "kernel"},
		{Name: "function", ParamKind: ast.ParamString, StringArg: "sys_*"},
	}}
	concrete := &ast.ProbePointSpec{Components: []ast.ProbePointComponent{
		{Name: "kernel"},
		{Name: "function", ParamKind: ast.ParamString, StringArg: "sys_open"},
	}}
	assert.NotEqual(t, canonicalSpec(wildcard), canonicalSpec(concrete))
}
