// Package resolver implements the symbol resolver of spec.md §4.4: one pass
// over every function body and every probe body binding scalar/array/call
// sites to declarations, creating implicit locals on first write, and
// partitioning the session's globals/functions into used and unused (probes
// are partitioned later, by internal/derive).
// Grounded on _examples/original_source/elaborate.h's symresolution_info
// (current_function/current_probe state, find_var/find_function lookup
// order, visit_symbol/visit_arrayindex/visit_functioncall/visit_foreach_loop
// responsibilities) rendered as a plain walker over the ast package's sum
// type instead of a visitor hierarchy, following
// _examples/termfx-morfx/internal/core/pipeline.go's staged-pass-with-
// counters shape for how a pass reports its own error count back to a
// driver.
package resolver

import (
	"context"
	"fmt"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/diag"
	"github.com/oxhq/stapc/internal/session"
)

// builtinCalls are call-like forms the parser may leave as ExprFunctionCall
// (a non-literal format argument to printf, for instance) that never have a
// matching FuncDecl because the target language supplies them directly.
var builtinCalls = map[string]bool{
	"printf":  true,
	"sprintf": true,
	"println": true,
	"print":   true,
}

type funcKey struct {
	name  string
	arity int
}

// Resolver runs the single resolution pass over a session.
type Resolver struct {
	sess    *session.Session
	diags   *diag.Stream
	globals map[string]*ast.VarDecl
	funcs   map[funcKey]*ast.FuncDecl
}

// New prepares a Resolver. Run itself merges the session's globals/functions
// across files via Session.UnifyGlobals / UnifyFunctions before walking any
// bodies.
func New(sess *session.Session) *Resolver {
	return &Resolver{sess: sess, diags: &sess.Diagnostics}
}

// scope is the locals vector active while walking one function or probe
// body, keyed by name per spec.md §4.4's "no block-level scoping" rule: a
// single flat map per function/probe, not one per nested block.
type scope struct {
	locals map[string]*ast.VarDecl
	fn     *ast.FuncDecl // non-nil when walking a function body
	pr     *ast.Probe    // non-nil when walking a probe body
}

func (s *scope) declScope() ast.DeclScope {
	if s.fn != nil {
		return ast.ScopeFunctionLocal
	}
	return ast.ScopeProbeLocal
}

func (s *scope) addLocal(d *ast.VarDecl) {
	s.locals[d.Name] = d
	if s.fn != nil {
		s.fn.Locals = append(s.fn.Locals, d)
	} else {
		s.pr.Locals = append(s.pr.Locals, d)
	}
}

// Run performs the resolution pass: unifies globals/functions, walks every
// function and probe body, then partitions unreferenced declarations into
// the session's unused lists. Returns the number of resolve errors added.
func (r *Resolver) Run(ctx context.Context) (int, error) {
	mark := r.diags.Mark()

	r.sess.UnifyGlobals()
	r.sess.UnifyFunctions()
	r.buildGlobalsIndex()
	r.buildFuncIndex()

	for _, fn := range r.sess.Functions {
		if r.sess.Cancelled(ctx) {
			return r.diags.CountSince(mark), ctx.Err()
		}
		r.resolveFunction(fn)
	}

	probes := r.sess.UnifyProbes()
	for _, pr := range probes {
		if r.sess.Cancelled(ctx) {
			return r.diags.CountSince(mark), ctx.Err()
		}
		r.resolveProbe(pr)
	}

	// Probes are partitioned into used/unused by derive-probes, based on
	// whether matching against the match tree produced at least one
	// derived probe (spec.md §4.3), not by reference tracking here.
	r.sess.Probes = probes

	r.partition()
	return r.diags.CountSince(mark), nil
}

func (r *Resolver) buildGlobalsIndex() {
	r.globals = make(map[string]*ast.VarDecl, len(r.sess.Globals))
	for _, g := range r.sess.Globals {
		if prev, dup := r.globals[g.Name]; dup {
			r.diags.Add(diag.CodeResolveError, g.Location,
				"global %q redeclared (first declared at %s)", g.Name, prev.Location)
			continue
		}
		r.globals[g.Name] = g
	}
}

func (r *Resolver) buildFuncIndex() {
	r.funcs = make(map[funcKey]*ast.FuncDecl, len(r.sess.Functions))
	for _, f := range r.sess.Functions {
		key := funcKey{f.Name, len(f.Params)}
		if prev, dup := r.funcs[key]; dup {
			r.diags.Add(diag.CodeResolveError, f.Location,
				"function %q/%d redeclared (first declared at %s)", f.Name, len(f.Params), prev.Location)
			continue
		}
		r.funcs[key] = f
	}
}

func (r *Resolver) resolveFunction(fn *ast.FuncDecl) {
	sc := &scope{locals: make(map[string]*ast.VarDecl), fn: fn}
	for _, p := range fn.Params {
		sc.locals[p.Name] = p
	}
	r.walkStmt(fn.Body, sc)
}

func (r *Resolver) resolveProbe(pr *ast.Probe) {
	sc := &scope{locals: make(map[string]*ast.VarDecl), pr: pr}
	r.walkStmt(pr.Body, sc)
}

func (r *Resolver) walkStmt(s *ast.Stmt, sc *scope) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, c := range s.Body {
			r.walkStmt(c, sc)
		}
	case ast.StmtExpr:
		r.walkExpr(s.Expr, sc, false)
	case ast.StmtIf:
		r.walkExpr(s.Cond, sc, false)
		r.walkStmt(s.Then, sc)
		r.walkStmt(s.Else, sc)
	case ast.StmtFor:
		r.walkStmt(s.Init, sc)
		r.walkExpr(s.Cond, sc, false)
		r.walkExpr(s.Post, sc, false)
		r.walkStmt(s.Then, sc)
	case ast.StmtForeach:
		r.resolveForeach(s, sc)
		r.walkStmt(s.Then, sc)
	case ast.StmtReturn:
		r.walkExpr(s.Expr, sc, false)
	case ast.StmtDelete:
		r.walkExpr(s.Expr, sc, false)
	case ast.StmtNext, ast.StmtBreak, ast.StmtContinue, ast.StmtNull, ast.StmtEmbeddedCode:
		// no symbols to bind
	}
}

func (r *Resolver) walkExpr(e *ast.Expr, sc *scope, isWrite bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprLiteralNumber, ast.ExprLiteralString:
		// leaves

	case ast.ExprSymbol:
		r.resolveName(e, sc, isWrite)

	case ast.ExprArrayIndex:
		r.resolveName(e, sc, isWrite)
		for _, a := range e.Args {
			r.walkExpr(a, sc, false)
		}

	case ast.ExprFunctionCall:
		r.resolveCall(e)
		for _, a := range e.Args {
			r.walkExpr(a, sc, false)
		}

	case ast.ExprBinary, ast.ExprComparison, ast.ExprConcat, ast.ExprLogical:
		r.walkExpr(e.Left, sc, false)
		r.walkExpr(e.Right, sc, false)

	case ast.ExprArrayIn:
		r.walkExpr(e.Left, sc, false)
		r.resolveArrayRef(e, sc)

	case ast.ExprUnary:
		r.walkExpr(e.Operand, sc, false)

	case ast.ExprIncDec:
		// ++/-- both reads and writes its operand; an undeclared operand
		// is implicitly declared, same as a plain assignment target.
		r.walkExpr(e.Operand, sc, true)

	case ast.ExprTernary:
		r.walkExpr(e.Cond, sc, false)
		r.walkExpr(e.Then, sc, false)
		r.walkExpr(e.Else, sc, false)

	case ast.ExprAssign:
		r.walkExpr(e.Lvalue, sc, true)
		r.walkExpr(e.Rvalue, sc, false)

	case ast.ExprTargetSymbol:
		// $var / $$vars are bound against the derived probe's context
		// variables during derive-probes, which runs after this pass;
		// nothing to resolve here.

	case ast.ExprPrintFormat, ast.ExprStatsOp, ast.ExprHistogram:
		for _, a := range e.Args {
			r.walkExpr(a, sc, false)
		}
		r.walkExpr(e.Aggregate, sc, false)
	}
}

func (r *Resolver) resolveName(e *ast.Expr, sc *scope, isWrite bool) {
	name := e.Name
	if d, ok := sc.locals[name]; ok {
		r.bind(e, d)
		return
	}
	if d, ok := r.globals[name]; ok {
		r.bind(e, d)
		return
	}
	if !isWrite {
		r.diags.Add(diag.CodeResolveError, e.Location, "undeclared identifier %q", name)
		return
	}

	d := &ast.VarDecl{
		Name:     name,
		Type:     ast.Unknown,
		Location: e.Location,
		Scope:    sc.declScope(),
	}
	if e.Kind == ast.ExprArrayIndex {
		d.ArrayArity = len(e.Args)
		d.KeyTypes = make([]ast.Type, len(e.Args))
		for i := range d.KeyTypes {
			d.KeyTypes[i] = ast.Unknown
		}
	}
	sc.addLocal(d)
	r.bind(e, d)
}

func (r *Resolver) bind(e *ast.Expr, d *ast.VarDecl) {
	d.Referenced = true
	e.Decl = d
	if e.Kind == ast.ExprArrayIndex {
		r.checkArity(e, d)
	}
}

func (r *Resolver) checkArity(e *ast.Expr, d *ast.VarDecl) {
	if d.ArrayArity == 0 {
		d.ArrayArity = len(e.Args)
		d.KeyTypes = make([]ast.Type, len(e.Args))
		for i := range d.KeyTypes {
			d.KeyTypes[i] = ast.Unknown
		}
		return
	}
	if d.ArrayArity != len(e.Args) {
		r.diags.Add(diag.CodeResolveError, e.Location,
			"array %q indexed with %d keys, declared with %d", d.Name, len(e.Args), d.ArrayArity)
	}
}

func (r *Resolver) resolveCall(e *ast.Expr) {
	key := funcKey{e.Name, len(e.Args)}
	if f, ok := r.funcs[key]; ok {
		f.Referenced = true
		e.Func = f
		return
	}
	if builtinCalls[e.Name] {
		return
	}
	r.diags.Add(diag.CodeResolveError, e.Location,
		"call to undeclared function %q/%d", e.Name, len(e.Args))
}

func (r *Resolver) resolveArrayRef(e *ast.Expr, sc *scope) {
	name := e.Name
	if d, ok := sc.locals[name]; ok {
		d.Referenced = true
		e.ArrayRef = d
		return
	}
	if d, ok := r.globals[name]; ok {
		d.Referenced = true
		e.ArrayRef = d
		return
	}
	r.diags.Add(diag.CodeResolveError, e.Location, "undeclared array %q", name)
}

// resolveForeach binds the foreach target array (must already exist, read
// context only — "in" and foreach never implicitly declare an array) and
// the loop key variables (created in the enclosing scope if absent).
func (r *Resolver) resolveForeach(s *ast.Stmt, sc *scope) {
	var arr *ast.VarDecl
	if d, ok := sc.locals[s.ArrayName]; ok {
		arr = d
	} else if d, ok := r.globals[s.ArrayName]; ok {
		arr = d
	}
	if arr == nil {
		r.diags.Add(diag.CodeResolveError, s.Location, "undeclared array %q in foreach", s.ArrayName)
	} else {
		arr.Referenced = true
		s.ArrayRef = arr
	}

	var keyVars []*ast.VarDecl
	for _, name := range s.LoopVarNames {
		d, ok := sc.locals[name]
		if !ok {
			d = &ast.VarDecl{Name: name, Type: ast.Unknown, Location: s.Location, Scope: sc.declScope()}
			sc.addLocal(d)
		}
		d.Referenced = true
		keyVars = append(keyVars, d)
	}
	if len(keyVars) > 0 {
		s.LoopVar = keyVars[0]
		s.KeyVars = keyVars[1:]
	}
}

func (r *Resolver) partition() {
	var usedG, unusedG []*ast.VarDecl
	for _, g := range r.sess.Globals {
		if g.Referenced {
			usedG = append(usedG, g)
		} else {
			unusedG = append(unusedG, g)
		}
	}
	r.sess.Globals, r.sess.UnusedGlobals = usedG, unusedG

	var usedF, unusedF []*ast.FuncDecl
	for _, f := range r.sess.Functions {
		if f.Referenced {
			usedF = append(usedF, f)
		} else {
			unusedF = append(unusedF, f)
		}
	}
	r.sess.Functions, r.sess.UnusedFuncs = usedF, unusedF
}

// String renders a funcKey for diagnostic messages and test failures.
func (k funcKey) String() string {
	return fmt.Sprintf("%s/%d", k.name, k.arity)
}
