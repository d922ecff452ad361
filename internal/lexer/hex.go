package lexer

import "github.com/oxhq/stapc/internal/token"

// HexLexer wraps a bare Lexer to additionally recognize 0x-prefixed
// hexadecimal integer literals, per the Design Notes: "the bare lexer may
// accept decimal only; hex extension lives in a thin wrapper." Every other
// token kind passes through unchanged.
type HexLexer struct {
	*Lexer
}

// NewHex creates a hex-aware lexer over src.
func NewHex(src, sourceName string) *HexLexer {
	return &HexLexer{Lexer: New(src, sourceName)}
}

func isHexDigit(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// Scan returns the next token, expanding 0x-prefixed numbers into a single
// Number token that the bare scanner would otherwise split at the 'x'.
func (h *HexLexer) Scan() token.Token {
	h.skipTrivia()
	if h.peekByte(0) == '0' && (h.peekByte(1) == 'x' || h.peekByte(1) == 'X') {
		start := h.loc()
		begin := h.pos
		h.advance() // '0'
		h.advance() // 'x'
		for isHexDigit(h.peekByte(0)) {
			h.advance()
		}
		text := h.input[begin:h.pos]
		return token.Token{Location: start, Kind: token.Number, Content: text, Value: text}
	}
	return h.Lexer.Scan()
}
