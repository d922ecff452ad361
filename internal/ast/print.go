package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Print renders a StapFile back to source text. It is not byte-identical
// to arbitrary input (comments and whitespace are not preserved) but is
// structurally faithful: Parse(Print(Parse(src))) produces an AST equal to
// Parse(src), which is the round-trip property spec.md §8 requires.
func Print(f *StapFile) string {
	var b strings.Builder
	for _, g := range f.Globals {
		b.WriteString(printVarDecl("global", g))
		b.WriteByte('\n')
	}
	for _, fn := range f.Functions {
		b.WriteString(printFunc(fn))
		b.WriteByte('\n')
	}
	for _, p := range f.Probes {
		b.WriteString(printProbe(p))
		b.WriteByte('\n')
	}
	return b.String()
}

func namesOf(vs []*VarDecl) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name
	}
	return out
}

func printVarDecl(kind string, v *VarDecl) string {
	name := v.Name
	if v.ArrayArity > 0 {
		name += "[" + strings.Repeat(":", v.ArrayArity-1) + "]"
	}
	if v.Init != nil {
		return fmt.Sprintf("%s %s = %s", kind, name, printExpr(v.Init))
	}
	return fmt.Sprintf("%s %s", kind, name)
}

func printFunc(fn *FuncDecl) string {
	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = p.Name
	}
	name := fn.Name
	if fn.ReturnType == Long || fn.ReturnType == String {
		name += ":" + fn.ReturnType.String()
	}
	return fmt.Sprintf("function %s(%s) %s", name, strings.Join(params, ", "), printStmt(fn.Body))
}

func printProbe(p *Probe) string {
	specs := make([]string, len(p.Locations))
	for i, s := range p.Locations {
		specs[i] = printSpec(s)
	}
	return fmt.Sprintf("probe %s %s", strings.Join(specs, ", "), printStmt(p.Body))
}

func printSpec(s *ProbePointSpec) string {
	parts := make([]string, len(s.Components))
	for i, c := range s.Components {
		switch c.ParamKind {
		case ParamNumber:
			parts[i] = fmt.Sprintf("%s(%d)", c.Name, c.NumberArg)
		case ParamString:
			parts[i] = fmt.Sprintf("%s(%q)", c.Name, c.StringArg)
		default:
			parts[i] = c.Name
		}
	}
	out := strings.Join(parts, ".")
	if s.Optional {
		out += "?"
	}
	if s.Required {
		out += "!"
	}
	return out
}

func printStmt(s *Stmt) string {
	if s == nil {
		return "{ }"
	}
	switch s.Kind {
	case StmtBlock:
		parts := make([]string, len(s.Body))
		for i, st := range s.Body {
			parts[i] = printStmt(st)
		}
		return "{ " + strings.Join(parts, "; ") + " }"
	case StmtNull:
		return ";"
	case StmtExpr:
		return printExpr(s.Expr)
	case StmtIf:
		out := fmt.Sprintf("if (%s) %s", printExpr(s.Cond), printStmt(s.Then))
		if s.Else != nil {
			out += " else " + printStmt(s.Else)
		}
		return out
	case StmtFor:
		init := ""
		if s.Init != nil {
			init = printStmt(s.Init)
		}
		return fmt.Sprintf("for (%s; %s; %s) %s",
			init, printExpr(s.Cond), printExpr(s.Post), printStmt(s.Then))
	case StmtForeach:
		names := s.LoopVarNames
		if s.LoopVar != nil {
			names = append([]string{s.LoopVar.Name}, namesOf(s.KeyVars)...)
		}
		arr := s.ArrayName
		if s.ArrayRef != nil {
			arr = s.ArrayRef.Name
		}
		return fmt.Sprintf("foreach (%s in %s) %s", strings.Join(names, ", "), arr, printStmt(s.Then))
	case StmtReturn:
		if s.Expr != nil {
			return "return " + printExpr(s.Expr)
		}
		return "return"
	case StmtDelete:
		return "delete " + printExpr(s.Expr)
	case StmtNext:
		return "next"
	case StmtBreak:
		return "break"
	case StmtContinue:
		return "continue"
	case StmtEmbeddedCode:
		return "%{ " + s.Code + " %}"
	default:
		return "?"
	}
}

func printExpr(e *Expr) string {
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ExprLiteralNumber:
		return strconv.FormatInt(e.NumberValue, 10)
	case ExprLiteralString:
		return strconv.Quote(e.StringValue)
	case ExprSymbol:
		return e.Name
	case ExprArrayIndex:
		idx := make([]string, len(e.Args))
		for i, a := range e.Args {
			idx[i] = printExpr(a)
		}
		return fmt.Sprintf("%s[%s]", e.Name, strings.Join(idx, ", "))
	case ExprFunctionCall:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = printExpr(a)
		}
		return fmt.Sprintf("%s(%s)", e.Name, strings.Join(args, ", "))
	case ExprBinary, ExprComparison, ExprLogical:
		return fmt.Sprintf("(%s %s %s)", printExpr(e.Left), e.Op, printExpr(e.Right))
	case ExprConcat:
		return fmt.Sprintf("(%s . %s)", printExpr(e.Left), printExpr(e.Right))
	case ExprArrayIn:
		arr := e.Name
		if e.ArrayRef != nil {
			arr = e.ArrayRef.Name
		}
		return fmt.Sprintf("(%s in %s)", printExpr(e.Left), arr)
	case ExprUnary:
		return "(" + e.Op + " " + printExpr(e.Operand) + ")"
	case ExprIncDec:
		if e.IsPostfix {
			return printExpr(e.Operand) + e.Op
		}
		return e.Op + printExpr(e.Operand)
	case ExprTernary:
		return fmt.Sprintf("(%s ? %s : %s)", printExpr(e.Cond), printExpr(e.Then), printExpr(e.Else))
	case ExprAssign:
		op := "="
		if e.CombOp != "" {
			op = e.CombOp
		}
		return fmt.Sprintf("(%s %s %s)", printExpr(e.Lvalue), op, printExpr(e.Rvalue))
	case ExprTargetSymbol:
		return "$" + e.TargetName
	case ExprPrintFormat:
		args := make([]string, len(e.Args))
		for i, a := range e.Args {
			args[i] = printExpr(a)
		}
		name := e.Name
		if name == "" {
			name = "printf"
		}
		rendered := append([]string{strconv.Quote(e.Format)}, args...)
		return fmt.Sprintf("%s(%s)", name, strings.Join(rendered, ", "))
	case ExprStatsOp:
		return fmt.Sprintf("%s(%s)", e.StatsOp, printExpr(e.Aggregate))
	case ExprHistogram:
		return fmt.Sprintf("@hist(%s)", printExpr(e.Aggregate))
	default:
		return "?"
	}
}
