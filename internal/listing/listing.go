// Package listing is the canonical dump formatter (spec.md §4.7): a
// deterministic textual rendering of a fully elaborated session, used both
// for -l/-L output and as the input to a content-addressed SHA-256 cache
// key stored by internal/history. Grounded on the teacher's
// internal/core/pipeline.go "Hash = sha256.Sum256(canonical bytes)" step
// and internal/core/manipulator.go's signature-rendering helpers.
package listing

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/session"
)

// Options controls how much detail Format renders.
type Options struct {
	// Verbose includes global initializers and function/probe bodies.
	Verbose bool
	// Vars additionally lists, per probe group, the variables common to
	// every derived probe in the group (the -L flag).
	Vars bool
}

// Result is Format's output: the rendered text and its content hash.
type Result struct {
	Text string
	Hash [32]byte
}

// HashHex renders the hash as the lowercase hex string internal/history
// stores alongside a run.
func (r Result) HashHex() string {
	return fmt.Sprintf("%x", r.Hash)
}

// Format renders sess per spec.md §4.7: globals, then functions, then probe
// groups (grouped by the canonical form of the spec the user actually
// wrote, falling back to the original when no alias rewrote it — this
// translator has no alias mechanism, so that's always the Location every
// DerivedProbe carries), each in deterministic order.
func Format(sess *session.Session, opts Options) Result {
	var b strings.Builder

	writeGlobals(&b, sess.Globals, opts)
	writeFunctions(&b, sess.Functions, opts)
	writeProbeGroups(&b, groupProbes(sess.Probes), opts)

	text := b.String()
	return Result{Text: text, Hash: sha256.Sum256([]byte(text))}
}

func writeGlobals(b *strings.Builder, globals []*ast.VarDecl, opts Options) {
	sorted := append([]*ast.VarDecl(nil), globals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, g := range sorted {
		fmt.Fprintf(b, "global %s%s\n", g.Name, varDeclSuffix(g))
		if opts.Verbose && g.Init != nil {
			fmt.Fprintf(b, "  = %s\n", exprString(g.Init))
		}
	}
}

func varDeclSuffix(v *ast.VarDecl) string {
	if v.ArrayArity == 0 {
		return ":" + v.Type.String()
	}
	keys := make([]string, v.ArrayArity)
	for i, t := range v.KeyTypes {
		keys[i] = t.String()
	}
	return fmt.Sprintf("[%s]:%s", strings.Join(keys, ","), v.Type)
}

func writeFunctions(b *strings.Builder, funcs []*ast.FuncDecl, opts Options) {
	sorted := append([]*ast.FuncDecl(nil), funcs...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		return len(sorted[i].Params) < len(sorted[j].Params)
	})
	for _, f := range sorted {
		params := make([]string, len(f.Params))
		for i, p := range f.Params {
			params[i] = p.Name + ":" + p.Type.String()
		}
		fmt.Fprintf(b, "function %s(%s):%s\n", f.Name, strings.Join(params, ", "), f.ReturnType)
		if opts.Verbose {
			writeLocals(b, f.Locals)
			writeBody(b, f.Body, "  ")
		}
	}
}

// probeGroup is every derived probe sharing one canonical user-written
// spec, per spec.md §4.7's grouping rule.
type probeGroup struct {
	spec    string
	derived []*ast.DerivedProbe
}

func groupProbes(probes []*ast.Probe) []probeGroup {
	index := make(map[string]int)
	var groups []probeGroup
	for _, pr := range probes {
		for _, d := range pr.Derived {
			key := canonicalSpec(d.Location)
			i, ok := index[key]
			if !ok {
				i = len(groups)
				index[key] = i
				groups = append(groups, probeGroup{spec: key})
			}
			groups[i].derived = append(groups[i].derived, d)
		}
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].spec < groups[j].spec })
	return groups
}

func writeProbeGroups(b *strings.Builder, groups []probeGroup, opts Options) {
	for _, g := range groups {
		fmt.Fprintf(b, "probe %s\n", g.spec)
		if opts.Vars {
			for _, name := range commonVars(g.derived) {
				fmt.Fprintf(b, "  var %s\n", name)
			}
		}
		if opts.Verbose {
			seen := make(map[*ast.Probe]bool)
			for _, d := range g.derived {
				if seen[d.Source] {
					continue
				}
				seen[d.Source] = true
				writeLocals(b, d.Source.Locals)
				writeBody(b, d.Source.Body, "  ")
			}
		}
	}
}

// commonVars set-intersects the locals and context variables across every
// derived probe in a group, so the user sees only guaranteed-available
// names (spec.md §4.7).
func commonVars(derived []*ast.DerivedProbe) []string {
	if len(derived) == 0 {
		return nil
	}
	counts := make(map[string]int)
	for _, d := range derived {
		names := make(map[string]bool)
		for _, v := range d.Source.Locals {
			names[v.Name] = true
		}
		for _, v := range d.ContextVars {
			names[v.Name] = true
		}
		for n := range names {
			counts[n]++
		}
	}
	var common []string
	for name, n := range counts {
		if n == len(derived) {
			common = append(common, name)
		}
	}
	sort.Strings(common)
	return common
}

func writeLocals(b *strings.Builder, locals []*ast.VarDecl) {
	sorted := append([]*ast.VarDecl(nil), locals...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	for _, l := range sorted {
		fmt.Fprintf(b, "  local %s%s\n", l.Name, varDeclSuffix(l))
	}
}

// canonicalSpec renders a probe-point spec deterministically, including
// bound literal parameters, so "kernel.function(\"sys_*\")" and
// "kernel.function(\"sys_open\")" are never confused even though both
// begin "kernel.function".
func canonicalSpec(spec *ast.ProbePointSpec) string {
	parts := make([]string, len(spec.Components))
	for i, c := range spec.Components {
		switch c.ParamKind {
		case ast.ParamString:
			parts[i] = fmt.Sprintf("%s(%q)", c.Name, c.StringArg)
		case ast.ParamNumber:
			parts[i] = fmt.Sprintf("%s(%d)", c.Name, c.NumberArg)
		default:
			parts[i] = c.Name
		}
	}
	suffix := ""
	if spec.Optional {
		suffix = "?"
	} else if spec.Required {
		suffix = "!"
	}
	return strings.Join(parts, ".") + suffix
}

func writeBody(b *strings.Builder, s *ast.Stmt, indent string) {
	if s == nil {
		return
	}
	fmt.Fprintf(b, "%s%s\n", indent, stmtString(s))
}

func stmtString(s *ast.Stmt) string {
	switch s.Kind {
	case ast.StmtBlock:
		lines := make([]string, len(s.Body))
		for i, child := range s.Body {
			lines[i] = stmtString(child)
		}
		return "{ " + strings.Join(lines, "; ") + " }"
	case ast.StmtExpr:
		return exprString(s.Expr)
	case ast.StmtIf:
		if s.Else != nil {
			return fmt.Sprintf("if (%s) %s else %s", exprString(s.Cond), stmtString(s.Then), stmtString(s.Else))
		}
		return fmt.Sprintf("if (%s) %s", exprString(s.Cond), stmtString(s.Then))
	case ast.StmtFor:
		return "for (...)"
	case ast.StmtForeach:
		return fmt.Sprintf("foreach (%s in %s)", strings.Join(s.LoopVarNames, ", "), s.ArrayName)
	case ast.StmtReturn:
		if s.Expr != nil {
			return "return " + exprString(s.Expr)
		}
		return "return"
	case ast.StmtDelete:
		return "delete " + exprString(s.Expr)
	case ast.StmtNext:
		return "next"
	case ast.StmtBreak:
		return "break"
	case ast.StmtContinue:
		return "continue"
	case ast.StmtEmbeddedCode:
		return "%{ ... %}"
	default:
		return "<null>"
	}
}

func exprString(e *ast.Expr) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ast.ExprLiteralNumber:
		return strconv.FormatInt(e.NumberValue, 10)
	case ast.ExprLiteralString:
		return strconv.Quote(e.StringValue)
	case ast.ExprSymbol:
		return e.Name
	case ast.ExprTargetSymbol:
		return "$" + e.TargetName
	case ast.ExprArrayIndex:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s[%s]", e.Name, strings.Join(args, ", "))
	case ast.ExprFunctionCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
	case ast.ExprBinary, ast.ExprComparison, ast.ExprLogical, ast.ExprConcat:
		return fmt.Sprintf("(%s %s %s)", exprString(e.Left), e.Op, exprString(e.Right))
	case ast.ExprArrayIn:
		arr := e.Name
		if e.ArrayRef != nil {
			arr = e.ArrayRef.Name
		}
		return fmt.Sprintf("([%s] in %s)", exprString(e.Left), arr)
	case ast.ExprUnary:
		return e.Op + exprString(e.Operand)
	case ast.ExprIncDec:
		op := "++"
		if e.Op == "--" {
			op = "--"
		}
		if e.IsPostfix {
			return exprString(e.Operand) + op
		}
		return op + exprString(e.Operand)
	case ast.ExprTernary:
		return fmt.Sprintf("(%s ? %s : %s)", exprString(e.Cond), exprString(e.Then), exprString(e.Else))
	case ast.ExprAssign:
		op := "="
		if e.CombOp != "" {
			op = e.CombOp
		}
		return fmt.Sprintf("(%s %s %s)", exprString(e.Lvalue), op, exprString(e.Rvalue))
	case ast.ExprPrintFormat:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = exprString(a)
		}
		return fmt.Sprintf("printf(%q%s)", e.Format, argsTail(args))
	case ast.ExprStatsOp:
		return e.StatsOp + "(" + exprString(e.Aggregate) + ")"
	case ast.ExprHistogram:
		return "@hist(" + exprString(e.Aggregate) + ")"
	default:
		return "?"
	}
}

func argsTail(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return ", " + strings.Join(args, ", ")
}
