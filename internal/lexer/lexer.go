// Package lexer turns a character stream into tokens, one at a time, with
// no lookahead of its own (the parser supplies its own one-token lookahead
// by calling Scan twice). Grounded on the bare-decimal scanner described in
// the original translator's parse.h/parse.cxx: comments run from '#' to
// end-of-line, identifiers are C-like, strings are double-quoted with a
// small escape set, and two-character operators are recognized before
// falling back to single-character punctuation.
package lexer

import (
	"strings"

	"github.com/oxhq/stapc/internal/token"
)

// Lexer scans a fixed input string under a source name used in
// diagnostics. It never returns a Go error: malformed input is surfaced as
// a token.Junk token, leaving the decision of whether that's fatal to the
// caller (normally the parser).
type Lexer struct {
	input      string
	sourceName string

	pos    int // byte offset of the next unread rune
	line   int // 1-based
	column int // 1-based, counts bytes on the current line

	// Warnings accumulates non-fatal diagnostics discovered while
	// scanning (e.g. an unrecognized escape sequence). The lexer itself
	// never fails on these; it records and continues.
	Warnings []string
}

// New creates a lexer over src, reporting locations under sourceName.
func New(src, sourceName string) *Lexer {
	return &Lexer{input: src, sourceName: sourceName, line: 1, column: 1}
}

func (l *Lexer) loc() token.Location {
	return token.Location{File: l.sourceName, Line: l.line, Column: l.column}
}

// peekByte returns the byte at pos+offset, or 0 past the end.
func (l *Lexer) peekByte(offset int) byte {
	i := l.pos + offset
	if i >= len(l.input) {
		return 0
	}
	return l.input[i]
}

func (l *Lexer) advance() byte {
	if l.pos >= len(l.input) {
		return 0
	}
	c := l.input[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return c
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentCont(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// skipTrivia consumes whitespace and '#'-to-end-of-line comments.
func (l *Lexer) skipTrivia() {
	for {
		c := l.peekByte(0)
		switch {
		case isSpace(c):
			l.advance()
		case c == '#':
			for l.peekByte(0) != '\n' && l.peekByte(0) != 0 {
				l.advance()
			}
		default:
			return
		}
	}
}

// Scan returns the next token, or an EOF-kind token at end of input.
func (l *Lexer) Scan() token.Token {
	l.skipTrivia()
	start := l.loc()

	c := l.peekByte(0)
	switch {
	case c == 0:
		return token.Token{Location: start, Kind: token.EOF}
	case isIdentStart(c):
		return l.scanIdentifier(start)
	case isDigit(c):
		return l.scanNumber(start)
	case c == '"':
		return l.scanString(start)
	default:
		return l.scanOperator(start)
	}
}

func (l *Lexer) scanIdentifier(start token.Location) token.Token {
	begin := l.pos
	for isIdentCont(l.peekByte(0)) {
		l.advance()
	}
	text := l.input[begin:l.pos]
	return token.Token{Location: start, Kind: token.Identifier, Content: text, Value: text}
}

// scanNumber scans decimal digits only. Hex literals are handled by the
// thin wrapper in hex.go, per the spec's "bare lexer decimal-only" note.
func (l *Lexer) scanNumber(start token.Location) token.Token {
	begin := l.pos
	for isDigit(l.peekByte(0)) {
		l.advance()
	}
	text := l.input[begin:l.pos]
	return token.Token{Location: start, Kind: token.Number, Content: text, Value: text}
}

// escapeSet is the canonical escape set adopted per spec.md §9's Open
// Questions: the source marks this "XXX handle" and leaves it unspecified.
var escapeSet = map[byte]byte{
	'n':  '\n',
	't':  '\t',
	'\\': '\\',
	'"':  '"',
}

func (l *Lexer) scanString(start token.Location) token.Token {
	l.advance() // opening quote
	begin := l.pos
	var out strings.Builder
	var raw strings.Builder
	for {
		c := l.peekByte(0)
		if c == 0 || c == '\n' {
			// Unterminated string: junk token, parser decides fatality.
			return token.Token{
				Location: start,
				Kind:     token.Junk,
				Content:  l.input[begin:l.pos],
				Value:    "unterminated string literal",
			}
		}
		if c == '"' {
			l.advance()
			break
		}
		if c == '\\' {
			raw.WriteByte(c)
			l.advance()
			esc := l.peekByte(0)
			if repl, ok := escapeSet[esc]; ok {
				out.WriteByte(repl)
				raw.WriteByte(esc)
				l.advance()
			} else if esc == 0 || esc == '\n' {
				return token.Token{
					Location: start,
					Kind:     token.Junk,
					Content:  l.input[begin:l.pos],
					Value:    "unterminated string literal",
				}
			} else {
				// Unrecognized escape: pass through the backslash and the
				// character verbatim, with a non-fatal warning.
				l.Warnings = append(l.Warnings, start.String()+
					": unrecognized escape sequence '\\"+string(esc)+"'")
				out.WriteByte('\\')
				out.WriteByte(esc)
				raw.WriteByte(esc)
				l.advance()
			}
			continue
		}
		out.WriteByte(c)
		raw.WriteByte(c)
		l.advance()
	}
	return token.Token{Location: start, Kind: token.String, Content: raw.String(), Value: out.String()}
}

func (l *Lexer) scanOperator(start token.Location) token.Token {
	two := string([]byte{l.peekByte(0), l.peekByte(1)})
	for _, op := range token.TwoCharOperators {
		if op == two {
			l.advance()
			l.advance()
			return token.Token{Location: start, Kind: token.Operator, Content: two, Value: two}
		}
	}
	c := l.advance()
	s := string(c)
	return token.Token{Location: start, Kind: token.Operator, Content: s, Value: s}
}
