package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oxhq/stapc/internal/token"
)

func TestHexLexerRecognizesHexLiterals(t *testing.T) {
	h := NewHex("0xFF + 0x10", "t.stp")
	tok := h.Scan()
	assert.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, "0xFF", tok.Content)

	plus := h.Scan()
	assert.Equal(t, "+", plus.Content)

	second := h.Scan()
	assert.Equal(t, "0x10", second.Content)
}

func TestHexLexerDecimalStillWorks(t *testing.T) {
	h := NewHex("123", "t.stp")
	tok := h.Scan()
	assert.Equal(t, token.Number, tok.Kind)
	assert.Equal(t, "123", tok.Content)
}
