// Package token defines the lexical tokens produced by the lexer and
// carried through the AST: source locations and the small fixed set of
// token kinds the grammar recognizes.
package token

import "fmt"

// Location is a source position: a file handle plus a one-based line and
// column. Immutable after creation; every token and every AST node carries
// one.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Kind identifies the lexical category of a token.
type Kind int

const (
	// Identifier covers both plain names and reserved words; the parser,
	// not the lexer, distinguishes reserved words by content.
	Identifier Kind = iota
	Operator
	Number
	String
	EOF
	// Junk is returned for malformed input (e.g. an unterminated string).
	// The lexer never fails outright; the parser decides whether a Junk
	// token is fatal for the production it's in.
	Junk
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case Operator:
		return "operator"
	case Number:
		return "number"
	case String:
		return "string"
	case EOF:
		return "eof"
	case Junk:
		return "junk"
	default:
		return "unknown"
	}
}

// Token is one lexeme plus its location and kind. Number tokens carry the
// same literal text in Value as in Content (the parser converts it); string
// tokens carry the unescaped text in Value and the raw source text in
// Content.
type Token struct {
	Location Location
	Kind     Kind
	Content  string // raw source lexeme
	Value    string // decoded value (strings: unescaped; numbers: same as Content)
}

func (t Token) String() string {
	return fmt.Sprintf("%s %s %q", t.Location, t.Kind, t.Content)
}

// reservedWords lists the reserved words. The lexer always returns
// Identifier for these, and the parser distinguishes them by comparing
// token content directly.
var reservedWords = map[string]bool{
	"probe": true, "global": true, "function": true,
	"if": true, "else": true, "for": true, "foreach": true, "in": true,
	"return": true, "delete": true, "next": true, "break": true, "continue": true,
}

// IsReserved reports whether content names a reserved word.
func IsReserved(content string) bool {
	return reservedWords[content]
}

// MaxIdentifierLength is the external-interface constraint from spec.md §6,
// derived from the kernel module-name limit.
const MaxIdentifierLength = 64

// TwoCharOperators is the fixed set of two-character operator lexemes the
// lexer recognizes as a single token (spec.md §4.1).
var TwoCharOperators = []string{
	"==", "++", "--", "||", "&&", "<<", "+=", "-=", "*=", "/=", "%=",
	">=", "<=", "!=", "**",
}
