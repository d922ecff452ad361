// Package infer implements the iterative fixed-point type inferencer of
// spec.md §4.5: two value types (long, string) plus the unknown/void
// placeholders, unified monotonically across every function body, probe
// body, and global initializer until no site newly resolves, then one more
// diagnostic-emitting pass if unresolved sites remain. Grounded on
// _examples/original_source/elaborate.h's typeresolution_info (
// num_newly_resolved/num_still_unresolved counters, assert_resolvability,
// mismatch/unresolved/resolved reporting hooks) rendered as a plain walker,
// and internal/core/pipeline.go's converge-or-error loop shape for the
// outer iteration structure.
package infer

import (
	"context"
	"strings"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/diag"
	"github.com/oxhq/stapc/internal/session"
	"github.com/oxhq/stapc/internal/token"
)

// arithmeticOps are the binary operators whose operands and result are all
// long (spec.md §4.5's "arithmetic op" row).
var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true, "**": true,
}

// arithmeticCombOps are combined-assignment operators that are long-only;
// "+=" is excluded because it also means string concatenation.
var arithmeticCombOps = map[string]bool{
	"-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "<<=": true, ">>=": true,
}

// Inferencer runs the fixed-point type-inference pass over a session.
type Inferencer struct {
	sess     *session.Session
	diags    *diag.Stream
	reported map[*ast.Type]bool
}

// New prepares an Inferencer. Resolution (internal/resolver) and
// derive-probes (internal/derive) must already have run, since this pass
// reads bound declarations and function-call targets.
func New(sess *session.Session) *Inferencer {
	return &Inferencer{sess: sess, diags: &sess.Diagnostics, reported: make(map[*ast.Type]bool)}
}

// Run iterates the fixed-point loop described in spec.md §4.5 and returns
// the error count (type mismatches plus, on the final diagnostic pass, each
// site that never resolved).
func (inf *Inferencer) Run(ctx context.Context) (int, error) {
	mark := inf.diags.Mark()
	assertResolvability := false

	for {
		w := &walker{inf: inf}

		for _, fn := range inf.sess.Functions {
			if inf.sess.Cancelled(ctx) {
				return inf.diags.CountSince(mark), ctx.Err()
			}
			w.walkFunction(fn, assertResolvability)
		}
		for _, pr := range inf.sess.Probes {
			if inf.sess.Cancelled(ctx) {
				return inf.diags.CountSince(mark), ctx.Err()
			}
			w.walkProbe(pr, assertResolvability)
		}
		for _, g := range inf.sess.Globals {
			if g.Init != nil {
				w.walkExpr(g.Init, assertResolvability)
				w.unify(g.Init.Location, assertResolvability, &g.Init.Type, &g.Type)
			}
		}

		if w.newlyResolved == 0 {
			if w.stillUnresolved == 0 {
				return inf.diags.CountSince(mark), nil
			}
			if !assertResolvability {
				assertResolvability = true
				continue
			}
			return inf.diags.CountSince(mark), nil
		}
	}
}

// walker carries one iteration's counters; a fresh walker is created per
// iteration so newlyResolved/stillUnresolved reset as spec.md §4.5 step 1
// requires.
type walker struct {
	inf             *Inferencer
	newlyResolved   int
	stillUnresolved int
}

// unify joins every slot in vals to one merged type, reporting a mismatch
// (once per distinct first-slot identity, across iterations) on conflict,
// and accounting each slot's own unknown->concrete transition. finalPass
// additionally emits an UnresolvedType diagnostic for a slot still unknown
// after the join.
func (w *walker) unify(loc token.Location, finalPass bool, vals ...*ast.Type) {
	if len(vals) == 0 {
		return
	}
	merged := ast.Unknown
	ok := true
	for _, v := range vals {
		var good bool
		merged, _, good = ast.Unify(merged, *v)
		if !good {
			ok = false
			break
		}
	}
	if !ok {
		w.mismatch(loc, vals)
		return
	}
	for _, v := range vals {
		before := *v
		*v = merged
		switch {
		case before == ast.Unknown && merged != ast.Unknown:
			w.newlyResolved++
		case merged == ast.Unknown:
			w.stillUnresolved++
			if finalPass {
				w.inf.diags.Add(diag.CodeUnresolvedType, loc, "type never resolved")
			}
		}
	}
}

// constrain is unify against a fixed target type, used for rows like
// "literal number: type is long" where one side is not itself a mutable
// slot in the AST.
func (w *walker) constrain(loc token.Location, finalPass bool, slot *ast.Type, want ast.Type) {
	fixed := want
	w.unify(loc, finalPass, slot, &fixed)
}

func (w *walker) mismatch(loc token.Location, vals []*ast.Type) {
	key := vals[0]
	if w.inf.reported[key] {
		return
	}
	w.inf.reported[key] = true
	seen := make([]string, 0, len(vals))
	for _, v := range vals {
		seen = append(seen, v.String())
	}
	w.inf.diags.Add(diag.CodeTypeMismatch, loc, "type mismatch among %s", strings.Join(seen, ", "))
}

func (w *walker) walkFunction(fn *ast.FuncDecl, finalPass bool) {
	w.walkStmt(fn.Body, fn, nil, finalPass)
}

func (w *walker) walkProbe(pr *ast.Probe, finalPass bool) {
	w.walkStmt(pr.Body, nil, pr, finalPass)
}

func (w *walker) walkStmt(s *ast.Stmt, fn *ast.FuncDecl, pr *ast.Probe, finalPass bool) {
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtBlock:
		for _, c := range s.Body {
			w.walkStmt(c, fn, pr, finalPass)
		}
	case ast.StmtExpr, ast.StmtDelete:
		w.walkExpr(s.Expr, finalPass)
	case ast.StmtIf:
		w.walkExpr(s.Cond, finalPass)
		w.constrain(s.Cond.Location, finalPass, &s.Cond.Type, ast.Long)
		w.walkStmt(s.Then, fn, pr, finalPass)
		w.walkStmt(s.Else, fn, pr, finalPass)
	case ast.StmtFor:
		w.walkStmt(s.Init, fn, pr, finalPass)
		if s.Cond != nil {
			w.walkExpr(s.Cond, finalPass)
			w.constrain(s.Cond.Location, finalPass, &s.Cond.Type, ast.Long)
		}
		w.walkExpr(s.Post, finalPass)
		w.walkStmt(s.Then, fn, pr, finalPass)
	case ast.StmtForeach:
		if s.ArrayRef != nil {
			keys := s.ArrayRef.KeyTypes
			if s.LoopVar != nil && len(keys) > 0 {
				w.unify(s.Location, finalPass, &s.LoopVar.Type, &keys[0])
			}
			for i, kv := range s.KeyVars {
				if i+1 < len(keys) {
					w.unify(s.Location, finalPass, &kv.Type, &keys[i+1])
				}
			}
		}
		w.walkStmt(s.Then, fn, pr, finalPass)
	case ast.StmtReturn:
		if s.Expr != nil {
			w.walkExpr(s.Expr, finalPass)
			if fn != nil {
				w.unify(s.Expr.Location, finalPass, &s.Expr.Type, &fn.ReturnType)
			}
		}
	case ast.StmtNext, ast.StmtBreak, ast.StmtContinue, ast.StmtNull, ast.StmtEmbeddedCode:
		// no typed constructs
	}
}

func (w *walker) walkExpr(e *ast.Expr, finalPass bool) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprLiteralNumber:
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprLiteralString:
		w.constrain(e.Location, finalPass, &e.Type, ast.String)

	case ast.ExprSymbol:
		if e.Decl != nil {
			w.unify(e.Location, finalPass, &e.Type, &e.Decl.Type)
		}

	case ast.ExprArrayIndex:
		for _, a := range e.Args {
			w.walkExpr(a, finalPass)
		}
		if e.Decl != nil {
			w.unify(e.Location, finalPass, &e.Type, &e.Decl.Type)
			for i, a := range e.Args {
				if i < len(e.Decl.KeyTypes) {
					w.unify(a.Location, finalPass, &a.Type, &e.Decl.KeyTypes[i])
				}
			}
		}

	case ast.ExprFunctionCall:
		for _, a := range e.Args {
			w.walkExpr(a, finalPass)
		}
		if e.Func != nil {
			w.unify(e.Location, finalPass, &e.Type, &e.Func.ReturnType)
			for i, a := range e.Args {
				if i < len(e.Func.Params) {
					w.unify(a.Location, finalPass, &a.Type, &e.Func.Params[i].Type)
				}
			}
		}

	case ast.ExprBinary:
		w.walkExpr(e.Left, finalPass)
		w.walkExpr(e.Right, finalPass)
		if arithmeticOps[e.Op] {
			w.unify(e.Location, finalPass, &e.Left.Type, &e.Right.Type, &e.Type)
			w.constrain(e.Location, finalPass, &e.Type, ast.Long)
		} else {
			w.unify(e.Location, finalPass, &e.Left.Type, &e.Right.Type, &e.Type)
		}

	case ast.ExprComparison:
		w.walkExpr(e.Left, finalPass)
		w.walkExpr(e.Right, finalPass)
		w.unify(e.Location, finalPass, &e.Left.Type, &e.Right.Type)
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprConcat:
		w.walkExpr(e.Left, finalPass)
		w.walkExpr(e.Right, finalPass)
		w.unify(e.Location, finalPass, &e.Left.Type, &e.Right.Type, &e.Type)
		w.constrain(e.Location, finalPass, &e.Type, ast.String)

	case ast.ExprUnary:
		w.walkExpr(e.Operand, finalPass)
		w.unify(e.Location, finalPass, &e.Operand.Type, &e.Type)
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprIncDec:
		w.walkExpr(e.Operand, finalPass)
		w.unify(e.Location, finalPass, &e.Operand.Type, &e.Type)
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprLogical:
		w.walkExpr(e.Left, finalPass)
		w.walkExpr(e.Right, finalPass)
		w.constrain(e.Left.Location, finalPass, &e.Left.Type, ast.Long)
		w.constrain(e.Right.Location, finalPass, &e.Right.Type, ast.Long)
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprTernary:
		w.walkExpr(e.Cond, finalPass)
		w.walkExpr(e.Then, finalPass)
		w.walkExpr(e.Else, finalPass)
		w.constrain(e.Cond.Location, finalPass, &e.Cond.Type, ast.Long)
		w.unify(e.Location, finalPass, &e.Then.Type, &e.Else.Type, &e.Type)

	case ast.ExprArrayIn:
		w.walkExpr(e.Left, finalPass)
		if e.ArrayRef != nil && len(e.ArrayRef.KeyTypes) > 0 {
			w.unify(e.Left.Location, finalPass, &e.Left.Type, &e.ArrayRef.KeyTypes[0])
		}
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprAssign:
		w.walkExpr(e.Lvalue, finalPass)
		w.walkExpr(e.Rvalue, finalPass)
		w.unify(e.Location, finalPass, &e.Lvalue.Type, &e.Rvalue.Type, &e.Type)
		if arithmeticCombOps[e.CombOp] {
			w.constrain(e.Location, finalPass, &e.Type, ast.Long)
		}

	case ast.ExprTargetSymbol:
		// Context variables ($return, $1, ...) default to long absent a
		// debuginfo type lookup (out of scope, spec.md §1); an explicit
		// kernel_string() conversion, modeled as an ordinary function call
		// elsewhere, is how a script requests string interpretation.
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)

	case ast.ExprPrintFormat:
		w.walkFormatArgs(e, finalPass)

	case ast.ExprStatsOp, ast.ExprHistogram:
		for _, a := range e.Args {
			w.walkExpr(a, finalPass)
		}
		if e.Aggregate != nil {
			w.walkExpr(e.Aggregate, finalPass)
		}
		w.constrain(e.Location, finalPass, &e.Type, ast.Long)
	}
}

// walkFormatArgs constrains each print_format argument by the type its
// corresponding format specifier demands (spec.md §4.5's "print-format
// format specifiers" row): %s => string, everything else recognized
// (%d %i %u %x %X %o %c %p %l* variants) => long. An unrecognized or
// missing specifier leaves the argument's type alone for later passes.
func (w *walker) walkFormatArgs(e *ast.Expr, finalPass bool) {
	specs := formatSpecifiers(e.Format)
	for i, a := range e.Args {
		w.walkExpr(a, finalPass)
		if i >= len(specs) {
			continue
		}
		w.constrain(a.Location, finalPass, &a.Type, specs[i])
	}
}

func formatSpecifiers(format string) []ast.Type {
	var out []ast.Type
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		for i < len(format) && strings.ContainsRune("0123456789.lh-+ #", rune(format[i])) {
			i++
		}
		if i >= len(format) {
			break
		}
		switch format[i] {
		case '%':
			// literal percent, not an argument slot
		case 's':
			out = append(out, ast.String)
		case 'd', 'i', 'u', 'x', 'X', 'o', 'c', 'p', 'b':
			out = append(out, ast.Long)
		}
	}
	return out
}
