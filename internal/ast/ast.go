// Package ast defines the algebraic AST for the probe-scripting language:
// expressions, statements, declarations, probes and probe-point
// specifications. Node shapes follow spec.md §3 directly; grounded on the
// teacher's string-tagged-kind-plus-struct-fields style
// (internal/types/core.go's Query) rather than a deep class hierarchy —
// the idiomatic Go rendering of the "visitor -> sum type" note in
// spec.md §9.
package ast

import "github.com/oxhq/stapc/internal/token"

// Type is the value lattice: void, unknown, long, string. Arrays and
// aggregates are declarations, not values, and carry their own slots.
type Type int

const (
	Void Type = iota
	Unknown
	Long
	String
)

func (t Type) String() string {
	switch t {
	case Void:
		return "void"
	case Unknown:
		return "unknown"
	case Long:
		return "long"
	case String:
		return "string"
	default:
		return "?"
	}
}

// Unify implements the monotonic lattice join used by the inferencer:
// unknown ⊔ T = T, T ⊔ T = T, distinct concretes are a mismatch (ok=false).
func Unify(a, b Type) (result Type, resolved bool, ok bool) {
	if a == b {
		return a, false, true
	}
	if a == Unknown {
		return b, b != Unknown, true
	}
	if b == Unknown {
		return a, false, true
	}
	return Unknown, false, false
}

// ExprKind tags the expression sum type.
type ExprKind int

const (
	ExprLiteralNumber ExprKind = iota
	ExprLiteralString
	ExprSymbol
	ExprArrayIndex
	ExprFunctionCall
	ExprBinary
	ExprUnary
	ExprIncDec
	ExprTernary
	ExprLogical
	ExprArrayIn
	ExprComparison
	ExprConcat
	ExprAssign
	ExprTargetSymbol
	ExprPrintFormat
	ExprStatsOp
	ExprHistogram
)

// Expr is any node in the expression sum type. Every expression carries a
// location and a mutable type slot, initially Unknown.
type Expr struct {
	Kind     ExprKind
	Location token.Location
	Type     Type

	// ExprLiteralNumber / ExprLiteralString
	NumberValue int64
	StringValue string

	// ExprSymbol / ExprArrayIndex / ExprFunctionCall
	Name string
	Decl *VarDecl // bound by the resolver; nil until then
	Func *FuncDecl

	// ExprArrayIndex / ExprFunctionCall: index or argument expressions
	Args []*Expr

	// ExprBinary / ExprComparison / ExprConcat / ExprLogical / ExprArrayIn
	Op    string
	Left  *Expr
	Right *Expr

	// ExprUnary / ExprIncDec
	Operand   *Expr
	IsPre     bool // pre vs post increment/decrement
	IsPostfix bool

	// ExprTernary
	Cond *Expr
	Then *Expr
	Else *Expr

	// ExprAssign
	Lvalue   *Expr
	Rvalue   *Expr
	CombOp   string // "", "+=", "-=", etc.; "" means plain "="

	// ExprArrayIn: Left is the probed expression, ArrayRef the array
	ArrayRef *VarDecl

	// ExprTargetSymbol: a probe-contextual reference, e.g. $return, $$vars
	TargetName string

	// ExprPrintFormat
	Format string

	// ExprStatsOp / ExprHistogram
	StatsOp    string // @count, @sum, @min, @max, @avg
	Aggregate  *Expr
}

// StmtKind tags the statement sum type.
type StmtKind int

const (
	StmtBlock StmtKind = iota
	StmtNull
	StmtExpr
	StmtIf
	StmtFor
	StmtForeach
	StmtReturn
	StmtDelete
	StmtNext
	StmtBreak
	StmtContinue
	StmtEmbeddedCode
)

// Stmt is any node in the statement sum type.
type Stmt struct {
	Kind     StmtKind
	Location token.Location

	// StmtBlock
	Body []*Stmt

	// StmtExpr / StmtReturn / StmtDelete (expression target)
	Expr *Expr

	// StmtIf
	Cond *Expr
	Then *Stmt
	Else *Stmt

	// StmtFor
	Init *Stmt
	Post *Expr
	// Cond reused above

	// StmtForeach: LoopVarNames/ArrayName are the raw parsed names; the
	// resolver fills in LoopVar/KeyVars/ArrayRef by binding them.
	LoopVarNames []string
	ArrayName    string
	LoopVar      *VarDecl
	ArrayRef     *VarDecl
	KeyVars      []*VarDecl // for multi-key foreach (var1, var2 in arr)

	// StmtEmbeddedCode: verbatim target-language text (guru mode only)
	Code string
}

// VarDecl is a variable declaration: global, formal parameter, function
// local, or probe local, distinguished by Scope.
type VarDecl struct {
	Name       string
	Type       Type
	Init       *Expr
	Location   token.Location
	ArrayArity int    // 0 = scalar, N>=1 = N-key array
	KeyTypes   []Type // per-key types, len == ArrayArity
	Scope      DeclScope
	Referenced bool
}

// DeclScope distinguishes where a VarDecl lives.
type DeclScope int

const (
	ScopeGlobal DeclScope = iota
	ScopeFunctionParam
	ScopeFunctionLocal
	ScopeProbeLocal
)

// FuncDecl is a function declaration.
type FuncDecl struct {
	Name       string
	ReturnType Type
	Params     []*VarDecl
	Locals     []*VarDecl
	Body       *Stmt
	Location   token.Location
	Referenced bool
}

// ProbePointComponent is one dotted component of a probe-point
// specification: a name (possibly containing a '*' wildcard) and an
// optional literal parameter.
type ProbePointComponent struct {
	Name     string
	HasParam bool
	ParamKind ParamKind
	NumberArg int64
	StringArg string
}

// ParamKind distinguishes the parameter a probe-point component carries.
type ParamKind int

const (
	ParamNone ParamKind = iota
	ParamNumber
	ParamString
)

// ProbePointSpec is a full probe-point specification: a dot-separated
// component sequence plus an optional/required suffix marker.
type ProbePointSpec struct {
	Components []ProbePointComponent
	Optional   bool // '?' suffix
	Required   bool // '!' suffix; recorded only, matchtree.Match treats it like an unmarked spec
	Location   token.Location
}

// Probe is a source probe: a location set (one or more probe-point specs)
// plus a body. After elaboration it yields zero or more DerivedProbes.
type Probe struct {
	Locations []*ProbePointSpec
	Body      *Stmt
	Locals    []*VarDecl
	Location  token.Location
	Referenced bool
	Derived   []*DerivedProbe
}

// Capabilities describes a derived probe's emitted-code contract.
type Capabilities struct {
	NeedsGlobalLock  bool
	ExtraContextVars []string
}

// DerivedProbe is the result of a provider binding a probe-point
// specification against the match tree.
type DerivedProbe struct {
	Source       *Probe
	Location     *ProbePointSpec // the (possibly rewritten) concrete spec
	ProviderName string
	Params       map[string]string // bound parameter values keyed by component name
	Capabilities Capabilities
	ContextVars  []*VarDecl // provider-contributed context-local variables
	Joined       bool       // join_group has run exactly once, per spec.md §6
}

// StapFile is the parse result of one source file: its probes, functions
// and globals.
type StapFile struct {
	Name      string
	Probes    []*Probe
	Functions []*FuncDecl
	Globals   []*VarDecl
	IsLibrary bool
}
