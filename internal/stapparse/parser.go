// Package stapparse implements the recursive-descent parser: a two-token
// lookahead buffer over the hex-aware lexer, precedence-climbing expression
// parsing per spec.md §4.2, and token-resynchronization error recovery.
// Grounded on the layered-dispatch shape of the teacher's
// internal/parser/universal.go (top-level item dispatch, then statement,
// then expression, each a dedicated method) and on the original
// translator's parse.cxx for the actual precedence table and grammar
// productions (probe-point specs, guru-mode embedded code, target-symbol
// and statistics-operator primaries).
package stapparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/oxhq/stapc/internal/ast"
	"github.com/oxhq/stapc/internal/diag"
	"github.com/oxhq/stapc/internal/lexer"
	"github.com/oxhq/stapc/internal/token"
)

// Parser turns one source file into a *ast.StapFile. Errors are recorded on
// the shared diagnostic stream, not returned per-production; Parse's error
// return only signals "errCount > 0 at EOF", per spec.md §4.1's note that a
// parse with any recorded error is a fatal file-level failure.
type Parser struct {
	lex    *lexer.HexLexer
	cur, la token.Token
	diags  *diag.Stream
	source string
	guru   bool
	errCount int
}

// New creates a parser over src. guruMode permits "%{ ... %}" embedded
// verbatim code; without it such blocks are a parse error.
func New(src, source string, diags *diag.Stream, guruMode bool) *Parser {
	p := &Parser{lex: lexer.NewHex(src, source), diags: diags, source: source, guru: guruMode}
	p.cur = p.nextRaw()
	p.la = p.nextRaw()
	return p
}

func (p *Parser) nextRaw() token.Token {
	t := p.lex.Scan()
	if t.Kind == token.Junk {
		p.errorAt(t.Location, "%s", t.Value)
	}
	return t
}

// advance returns the current token and shifts the lookahead buffer.
func (p *Parser) advance() token.Token {
	old := p.cur
	p.cur = p.la
	p.la = p.nextRaw()
	return old
}

func (p *Parser) curIsOp(content string) bool {
	return p.cur.Kind == token.Operator && p.cur.Content == content
}

func (p *Parser) curIsKeyword(word string) bool {
	return p.cur.Kind == token.Identifier && p.cur.Content == word
}

func (p *Parser) errorAt(loc token.Location, format string, args ...any) {
	p.diags.Add(diag.CodeParseError, loc, format, args...)
	p.errCount++
}

func (p *Parser) expectOp(content string) bool {
	if p.curIsOp(content) {
		p.advance()
		return true
	}
	p.errorAt(p.cur.Location, "expected %q, got %q", content, p.cur.Content)
	return false
}

func (p *Parser) expectIdentContent() (string, token.Location, bool) {
	if p.cur.Kind != token.Identifier {
		p.errorAt(p.cur.Location, "expected identifier, got %q", p.cur.Content)
		return "", p.cur.Location, false
	}
	name, loc := p.cur.Content, p.cur.Location
	p.advance()
	return name, loc, true
}

// Parse consumes the whole token stream and returns the resulting file. The
// returned error is non-nil iff at least one diagnostic was recorded, per
// spec.md §4.1.
func (p *Parser) Parse() (*ast.StapFile, error) {
	file := &ast.StapFile{Name: p.source}
	for p.cur.Kind != token.EOF {
		switch {
		case p.curIsKeyword("probe"):
			if pr := p.parseProbe(); pr != nil {
				file.Probes = append(file.Probes, pr)
			}
		case p.curIsKeyword("global"):
			p.parseGlobal(file)
		case p.curIsKeyword("function"):
			if fn := p.parseFunctionDecl(); fn != nil {
				file.Functions = append(file.Functions, fn)
			}
		default:
			p.errorAt(p.cur.Location, "expected 'probe', 'global' or 'function', got %q", p.cur.Content)
			p.syncTopLevel()
		}
	}
	if p.errCount > 0 {
		return file, fmt.Errorf("%w: %d error(s) in %s", diag.ErrParse, p.errCount, p.source)
	}
	return file, nil
}

// syncTopLevel skips tokens, tracking brace depth, until the next top-level
// keyword at depth zero or EOF.
func (p *Parser) syncTopLevel() {
	depth := 0
	for p.cur.Kind != token.EOF {
		switch {
		case p.curIsOp("{"):
			depth++
			p.advance()
		case p.curIsOp("}"):
			if depth > 0 {
				depth--
			}
			p.advance()
		case depth == 0 && (p.curIsKeyword("probe") || p.curIsKeyword("global") || p.curIsKeyword("function")):
			return
		default:
			p.advance()
		}
	}
}

// syncStatement skips to the next statement boundary (';' or '}') at the
// current nesting level, used when a single declaration fails mid-list.
func (p *Parser) syncStatement() {
	for p.cur.Kind != token.EOF && !p.curIsOp(";") && !p.curIsOp("}") {
		p.advance()
	}
}

func typeFromName(name string) ast.Type {
	switch name {
	case "string":
		return ast.String
	case "long":
		return ast.Long
	default:
		return ast.Unknown
	}
}

func (p *Parser) parseGlobal(file *ast.StapFile) {
	p.advance() // 'global'
	for {
		name, loc, ok := p.expectIdentContent()
		if !ok {
			p.syncStatement()
			break
		}
		var init *ast.Expr
		if p.curIsOp("=") {
			p.advance()
			init = p.parseExpression()
		}
		file.Globals = append(file.Globals, &ast.VarDecl{
			Name: name, Type: ast.Unknown, Init: init, Location: loc, Scope: ast.ScopeGlobal,
		})
		if p.curIsOp(",") {
			p.advance()
			continue
		}
		break
	}
	if p.curIsOp(";") {
		p.advance()
	}
}

func (p *Parser) parseFunctionDecl() *ast.FuncDecl {
	loc := p.cur.Location
	p.advance() // 'function'
	name, _, ok := p.expectIdentContent()
	if !ok {
		p.syncTopLevel()
		return nil
	}
	returnType := ast.Unknown
	if p.curIsOp(":") {
		p.advance()
		if tname, _, ok2 := p.expectIdentContent(); ok2 {
			returnType = typeFromName(tname)
		}
	}
	if !p.expectOp("(") {
		p.syncTopLevel()
		return nil
	}
	var params []*ast.VarDecl
	if !p.curIsOp(")") {
		for {
			pname, ploc, ok3 := p.expectIdentContent()
			if !ok3 {
				break
			}
			params = append(params, &ast.VarDecl{Name: pname, Type: ast.Unknown, Location: ploc, Scope: ast.ScopeFunctionParam})
			if p.curIsOp(",") {
				p.advance()
				continue
			}
			break
		}
	}
	p.expectOp(")")
	body := p.parseBlock()
	return &ast.FuncDecl{Name: name, ReturnType: returnType, Params: params, Body: body, Location: loc}
}

func (p *Parser) parseProbe() *ast.Probe {
	loc := p.cur.Location
	p.advance() // 'probe'
	specs := []*ast.ProbePointSpec{p.parseProbePointSpec()}
	for p.curIsOp(",") {
		p.advance()
		specs = append(specs, p.parseProbePointSpec())
	}
	body := p.parseBlock()
	return &ast.Probe{Locations: specs, Body: body, Location: loc}
}

func (p *Parser) parseProbePointSpec() *ast.ProbePointSpec {
	loc := p.cur.Location
	comps := []ast.ProbePointComponent{p.parseProbePointComponent()}
	for p.curIsOp(".") {
		p.advance()
		comps = append(comps, p.parseProbePointComponent())
	}
	spec := &ast.ProbePointSpec{Components: comps, Location: loc}
	switch {
	case p.curIsOp("?"):
		spec.Optional = true
		p.advance()
	case p.curIsOp("!"):
		spec.Required = true
		p.advance()
	}
	return spec
}

func (p *Parser) parseProbePointComponent() ast.ProbePointComponent {
	name, _ := p.parseComponentName()
	comp := ast.ProbePointComponent{Name: name}
	if p.curIsOp("(") {
		p.advance()
		switch p.cur.Kind {
		case token.Number:
			v, err := strconv.ParseInt(p.cur.Content, 0, 64)
			if err != nil {
				p.errorAt(p.cur.Location, "invalid number literal %q", p.cur.Content)
			}
			comp.HasParam, comp.ParamKind, comp.NumberArg = true, ast.ParamNumber, v
			p.advance()
		case token.String:
			comp.HasParam, comp.ParamKind, comp.StringArg = true, ast.ParamString, p.cur.Value
			p.advance()
		default:
			p.errorAt(p.cur.Location, "expected a number or string literal probe-point parameter, got %q", p.cur.Content)
		}
		p.expectOp(")")
	}
	return comp
}

// parseComponentName reassembles a dotted component's name from adjacent
// identifier/"*" tokens, so that e.g. "sys_*" (lexed as Identifier("sys_")
// then Operator("*")) becomes one wildcard-bearing component name, while
// "a * b" (with surrounding space) does not.
func (p *Parser) parseComponentName() (string, token.Location) {
	loc := p.cur.Location
	var sb strings.Builder
	for {
		switch {
		case p.cur.Kind == token.Identifier:
			sb.WriteString(p.cur.Content)
			end := p.cur.Location.Column + len(p.cur.Content)
			line := p.cur.Location.Line
			p.advance()
			if p.adjacentStar(line, end) {
				continue
			}
		case p.curIsOp("*"):
			sb.WriteString("*")
			end := p.cur.Location.Column + 1
			line := p.cur.Location.Line
			p.advance()
			if p.adjacentIdentOrStar(line, end) {
				continue
			}
		default:
			p.errorAt(p.cur.Location, "expected a probe-point component name, got %q", p.cur.Content)
		}
		break
	}
	return sb.String(), loc
}

func (p *Parser) adjacentStar(line, endCol int) bool {
	return p.curIsOp("*") && p.cur.Location.Line == line && p.cur.Location.Column == endCol
}

func (p *Parser) adjacentIdentOrStar(line, endCol int) bool {
	adjacent := p.cur.Location.Line == line && p.cur.Location.Column == endCol
	return adjacent && (p.cur.Kind == token.Identifier || p.curIsOp("*"))
}

// --- statements ---

func (p *Parser) parseBlock() *ast.Stmt {
	loc := p.cur.Location
	if !p.expectOp("{") {
		return &ast.Stmt{Kind: ast.StmtBlock, Location: loc}
	}
	var stmts []*ast.Stmt
	for !p.curIsOp("}") && p.cur.Kind != token.EOF {
		if p.curIsOp(";") {
			p.advance()
			continue
		}
		if st := p.parseStatement(); st != nil {
			stmts = append(stmts, st)
		}
		if p.curIsOp(";") {
			p.advance()
		}
	}
	p.expectOp("}")
	return &ast.Stmt{Kind: ast.StmtBlock, Body: stmts, Location: loc}
}

func (p *Parser) parseStatementOrBlock() *ast.Stmt {
	if p.curIsOp("{") {
		return p.parseBlock()
	}
	return p.parseStatement()
}

func (p *Parser) parseStatement() *ast.Stmt {
	loc := p.cur.Location
	if p.curIsOp("{") {
		return p.parseBlock()
	}
	if code, ok := p.tryParseEmbeddedCode(loc); ok {
		return &ast.Stmt{Kind: ast.StmtEmbeddedCode, Code: code, Location: loc}
	}
	switch {
	case p.curIsKeyword("if"):
		return p.parseIf()
	case p.curIsKeyword("for"):
		return p.parseFor()
	case p.curIsKeyword("foreach"):
		return p.parseForeach()
	case p.curIsKeyword("return"):
		p.advance()
		var e *ast.Expr
		if !p.curIsOp(";") && !p.curIsOp("}") {
			e = p.parseExpression()
		}
		return &ast.Stmt{Kind: ast.StmtReturn, Expr: e, Location: loc}
	case p.curIsKeyword("delete"):
		p.advance()
		return &ast.Stmt{Kind: ast.StmtDelete, Expr: p.parseExpression(), Location: loc}
	case p.curIsKeyword("next"):
		p.advance()
		return &ast.Stmt{Kind: ast.StmtNext, Location: loc}
	case p.curIsKeyword("break"):
		p.advance()
		return &ast.Stmt{Kind: ast.StmtBreak, Location: loc}
	case p.curIsKeyword("continue"):
		p.advance()
		return &ast.Stmt{Kind: ast.StmtContinue, Location: loc}
	default:
		return &ast.Stmt{Kind: ast.StmtExpr, Expr: p.parseExpression(), Location: loc}
	}
}

// tryParseEmbeddedCode detects an opening "%" "{" token pair and, if found,
// captures everything up to "%}" verbatim without tokenizing it. It must
// NOT go through the ordinary advance() for the second token: advance()
// would refill the lookahead buffer by scanning into the embedded body,
// corrupting the raw capture. Instead, once "{" is shifted into cur, the
// lexer's byte position already sits exactly after it, so ConsumeUntil can
// read the body directly; only then are cur/la re-primed with fresh scans.
func (p *Parser) tryParseEmbeddedCode(loc token.Location) (string, bool) {
	if !(p.curIsOp("%") && p.la.Kind == token.Operator && p.la.Content == "{") {
		return "", false
	}
	p.cur = p.la // shift to "{" without scanning past it yet
	body, closed := p.lex.ConsumeUntil("%}")
	if !closed {
		p.errorAt(loc, "unterminated embedded code block")
	}
	if !p.guru {
		p.errorAt(loc, "embedded code blocks require guru mode")
	}
	p.cur = p.nextRaw()
	p.la = p.nextRaw()
	return strings.TrimSpace(body), true
}

func (p *Parser) parseIf() *ast.Stmt {
	loc := p.cur.Location
	p.advance() // 'if'
	p.expectOp("(")
	cond := p.parseExpression()
	p.expectOp(")")
	then := p.parseStatementOrBlock()
	var els *ast.Stmt
	if p.curIsKeyword("else") {
		p.advance()
		els = p.parseStatementOrBlock()
	}
	return &ast.Stmt{Kind: ast.StmtIf, Cond: cond, Then: then, Else: els, Location: loc}
}

func (p *Parser) parseFor() *ast.Stmt {
	loc := p.cur.Location
	p.advance() // 'for'
	p.expectOp("(")
	var init *ast.Stmt
	if !p.curIsOp(";") {
		e := p.parseExpression()
		init = &ast.Stmt{Kind: ast.StmtExpr, Expr: e, Location: e.Location}
	}
	p.expectOp(";")
	var cond *ast.Expr
	if !p.curIsOp(";") {
		cond = p.parseExpression()
	}
	p.expectOp(";")
	var post *ast.Expr
	if !p.curIsOp(")") {
		post = p.parseExpression()
	}
	p.expectOp(")")
	body := p.parseStatementOrBlock()
	return &ast.Stmt{Kind: ast.StmtFor, Init: init, Cond: cond, Post: post, Then: body, Location: loc}
}

func (p *Parser) parseForeach() *ast.Stmt {
	loc := p.cur.Location
	p.advance() // 'foreach'
	p.expectOp("(")
	var names []string
	if n, _, ok := p.expectIdentContent(); ok {
		names = append(names, n)
	}
	for p.curIsOp(",") {
		p.advance()
		if n, _, ok := p.expectIdentContent(); ok {
			names = append(names, n)
		}
	}
	if p.curIsKeyword("in") {
		p.advance()
	} else {
		p.errorAt(p.cur.Location, "expected 'in' in foreach, got %q", p.cur.Content)
	}
	arrName, _, _ := p.expectIdentContent()
	p.expectOp(")")
	body := p.parseStatementOrBlock()
	return &ast.Stmt{Kind: ast.StmtForeach, LoopVarNames: names, ArrayName: arrName, Then: body, Location: loc}
}

// --- expressions, lowest to highest precedence ---

func (p *Parser) parseExpression() *ast.Expr {
	return p.parseAssignment()
}

func (p *Parser) isAssignOpStart() bool {
	if p.cur.Kind != token.Operator {
		return false
	}
	switch p.cur.Content {
	case "=", "+=", "-=", "*=", "/=", "%=":
		return true
	case "<<":
		return p.la.Kind == token.Operator && p.la.Content == "=" &&
			p.la.Location.Line == p.cur.Location.Line &&
			p.la.Location.Column == p.cur.Location.Column+len(p.cur.Content)
	}
	return false
}

func (p *Parser) consumeAssignOp() string {
	if p.cur.Content == "<<" {
		p.advance()
		p.advance()
		return "<<="
	}
	op := p.cur.Content
	p.advance()
	return op
}

func (p *Parser) parseAssignment() *ast.Expr {
	left := p.parseTernary()
	if p.isAssignOpStart() {
		op := p.consumeAssignOp()
		right := p.parseAssignment()
		comb := op
		if op == "=" {
			comb = ""
		}
		return &ast.Expr{Kind: ast.ExprAssign, Lvalue: left, Rvalue: right, CombOp: comb, Location: left.Location}
	}
	return left
}

func (p *Parser) parseTernary() *ast.Expr {
	cond := p.parseLogicalOr()
	if p.curIsOp("?") {
		p.advance()
		thenE := p.parseAssignment()
		p.expectOp(":")
		elseE := p.parseTernary()
		return &ast.Expr{Kind: ast.ExprTernary, Cond: cond, Then: thenE, Else: elseE, Location: cond.Location}
	}
	return cond
}

func (p *Parser) parseLogicalOr() *ast.Expr {
	left := p.parseLogicalAnd()
	for p.curIsOp("||") {
		p.advance()
		right := p.parseLogicalAnd()
		left = &ast.Expr{Kind: ast.ExprLogical, Op: "||", Left: left, Right: right, Location: left.Location}
	}
	return left
}

func (p *Parser) parseLogicalAnd() *ast.Expr {
	left := p.parseArrayIn()
	for p.curIsOp("&&") {
		p.advance()
		right := p.parseArrayIn()
		left = &ast.Expr{Kind: ast.ExprLogical, Op: "&&", Left: left, Right: right, Location: left.Location}
	}
	return left
}

func (p *Parser) parseArrayIn() *ast.Expr {
	left := p.parseComparison()
	if p.curIsKeyword("in") {
		p.advance()
		name, _, _ := p.expectIdentContent()
		left = &ast.Expr{Kind: ast.ExprArrayIn, Left: left, Name: name, Location: left.Location}
	}
	return left
}

func isComparisonOp(content string) bool {
	switch content {
	case "==", "!=", "<", ">", "<=", ">=":
		return true
	}
	return false
}

func (p *Parser) parseComparison() *ast.Expr {
	left := p.parseConcat()
	for p.cur.Kind == token.Operator && isComparisonOp(p.cur.Content) {
		op := p.cur.Content
		p.advance()
		right := p.parseConcat()
		left = &ast.Expr{Kind: ast.ExprComparison, Op: op, Left: left, Right: right, Location: left.Location}
	}
	return left
}

func (p *Parser) parseConcat() *ast.Expr {
	left := p.parseAdditive()
	for p.curIsOp(".") {
		p.advance()
		right := p.parseAdditive()
		left = &ast.Expr{Kind: ast.ExprConcat, Op: ".", Left: left, Right: right, Location: left.Location}
	}
	return left
}

func (p *Parser) parseAdditive() *ast.Expr {
	left := p.parseMultiplicative()
	for p.curIsOp("+") || p.curIsOp("-") {
		op := p.cur.Content
		p.advance()
		right := p.parseMultiplicative()
		left = &ast.Expr{Kind: ast.ExprBinary, Op: op, Left: left, Right: right, Location: left.Location}
	}
	return left
}

func (p *Parser) parseMultiplicative() *ast.Expr {
	left := p.parseUnary()
	for p.curIsOp("*") || p.curIsOp("/") || p.curIsOp("%") {
		op := p.cur.Content
		p.advance()
		right := p.parseUnary()
		left = &ast.Expr{Kind: ast.ExprBinary, Op: op, Left: left, Right: right, Location: left.Location}
	}
	return left
}

// parseUnary sits below exponentiation and pre/post-crement in precedence,
// per spec.md §4.2's table: "!x**2" parses as "!(x**2)".
func (p *Parser) parseUnary() *ast.Expr {
	if p.curIsOp("+") || p.curIsOp("-") || p.curIsOp("!") || p.curIsOp("~") {
		op, loc := p.cur.Content, p.cur.Location
		p.advance()
		operand := p.parseUnary()
		return &ast.Expr{Kind: ast.ExprUnary, Op: op, Operand: operand, Location: loc}
	}
	return p.parseExponent()
}

func (p *Parser) parseExponent() *ast.Expr {
	left := p.parseIncDec()
	if p.curIsOp("**") {
		p.advance()
		right := p.parseExponent() // right-associative
		return &ast.Expr{Kind: ast.ExprBinary, Op: "**", Left: left, Right: right, Location: left.Location}
	}
	return left
}

func (p *Parser) parseIncDec() *ast.Expr {
	if p.curIsOp("++") || p.curIsOp("--") {
		op, loc := p.cur.Content, p.cur.Location
		p.advance()
		operand := p.parseIncDec()
		return &ast.Expr{Kind: ast.ExprIncDec, Op: op, Operand: operand, IsPre: true, Location: loc}
	}
	expr := p.parsePrimary()
	if p.curIsOp("++") || p.curIsOp("--") {
		op := p.cur.Content
		p.advance()
		return &ast.Expr{Kind: ast.ExprIncDec, Op: op, Operand: expr, IsPostfix: true, Location: expr.Location}
	}
	return expr
}

func (p *Parser) parsePrimary() *ast.Expr {
	loc := p.cur.Location
	switch {
	case p.cur.Kind == token.Number:
		v, err := strconv.ParseInt(p.cur.Content, 0, 64)
		if err != nil {
			p.errorAt(loc, "invalid number literal %q", p.cur.Content)
		}
		p.advance()
		return &ast.Expr{Kind: ast.ExprLiteralNumber, NumberValue: v, Location: loc}
	case p.cur.Kind == token.String:
		val := p.cur.Value
		p.advance()
		return &ast.Expr{Kind: ast.ExprLiteralString, StringValue: val, Location: loc}
	case p.curIsOp("("):
		p.advance()
		e := p.parseExpression()
		p.expectOp(")")
		return e
	case p.curIsOp("$"):
		return p.parseTargetSymbol()
	case p.curIsOp("@"):
		return p.parseStatsOrHist()
	case p.cur.Kind == token.Identifier:
		return p.parseIdentifierPrimary()
	default:
		p.errorAt(loc, "unexpected token %q in expression", p.cur.Content)
		p.advance()
		return &ast.Expr{Kind: ast.ExprLiteralNumber, Location: loc}
	}
}

func (p *Parser) parseTargetSymbol() *ast.Expr {
	loc := p.cur.Location
	p.advance() // '$'
	extra := false
	if p.curIsOp("$") {
		p.advance()
		extra = true
	}
	name, _, _ := p.expectIdentContent()
	if extra {
		name = "$" + name
	}
	return &ast.Expr{Kind: ast.ExprTargetSymbol, TargetName: name, Location: loc}
}

func (p *Parser) parseStatsOrHist() *ast.Expr {
	loc := p.cur.Location
	p.advance() // '@'
	name, _, ok := p.expectIdentContent()
	if !ok {
		return &ast.Expr{Kind: ast.ExprStatsOp, Location: loc}
	}
	p.expectOp("(")
	agg := p.parseExpression()
	p.expectOp(")")
	if name == "hist" {
		return &ast.Expr{Kind: ast.ExprHistogram, Aggregate: agg, Location: loc}
	}
	return &ast.Expr{Kind: ast.ExprStatsOp, StatsOp: "@" + name, Aggregate: agg, Location: loc}
}

func (p *Parser) parseIdentifierPrimary() *ast.Expr {
	loc := p.cur.Location
	name := p.cur.Content
	p.advance()
	switch {
	case p.curIsOp("("):
		p.advance()
		var args []*ast.Expr
		if !p.curIsOp(")") {
			args = append(args, p.parseAssignment())
			for p.curIsOp(",") {
				p.advance()
				args = append(args, p.parseAssignment())
			}
		}
		p.expectOp(")")
		if (name == "printf" || name == "sprintf" || name == "println") && len(args) >= 1 && args[0].Kind == ast.ExprLiteralString {
			return &ast.Expr{Kind: ast.ExprPrintFormat, Name: name, Format: args[0].StringValue, Args: args[1:], Location: loc}
		}
		return &ast.Expr{Kind: ast.ExprFunctionCall, Name: name, Args: args, Location: loc}
	case p.curIsOp("["):
		p.advance()
		idx := []*ast.Expr{p.parseAssignment()}
		for p.curIsOp(",") {
			p.advance()
			idx = append(idx, p.parseAssignment())
		}
		p.expectOp("]")
		return &ast.Expr{Kind: ast.ExprArrayIndex, Name: name, Args: idx, Location: loc}
	default:
		return &ast.Expr{Kind: ast.ExprSymbol, Name: name, Location: loc}
	}
}
