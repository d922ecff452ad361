package lexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxhq/stapc/internal/token"
)

func scanAll(src string) []token.Token {
	l := New(src, "test.stp")
	var toks []token.Token
	for {
		t := l.Scan()
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks
		}
	}
}

func TestScanIdentifiersAndKeywords(t *testing.T) {
	toks := scanAll("probe begin { x++ }")
	require.Len(t, toks, 7) // probe begin { x ++ } EOF
	assert.Equal(t, token.Identifier, toks[0].Kind)
	assert.Equal(t, "probe", toks[0].Content)
	assert.True(t, token.IsReserved(toks[0].Content))
	assert.Equal(t, "begin", toks[1].Content)
	assert.Equal(t, token.Operator, toks[2].Kind)
	assert.Equal(t, "{", toks[2].Content)
	assert.Equal(t, "++", toks[4].Content)
}

func TestScanNumberDecimalOnly(t *testing.T) {
	toks := scanAll("42")
	assert.Equal(t, token.Number, toks[0].Kind)
	assert.Equal(t, "42", toks[0].Content)
}

func TestScanStringEscapes(t *testing.T) {
	toks := scanAll(`"hello\nworld\t\"done\""`)
	require.Equal(t, token.String, toks[0].Kind)
	assert.Equal(t, "hello\nworld\t\"done\"", toks[0].Value)
}

func TestScanUnterminatedStringIsJunk(t *testing.T) {
	toks := scanAll(`"unterminated`)
	assert.Equal(t, token.Junk, toks[0].Kind)
}

func TestScanUnrecognizedEscapePassesThroughWithWarning(t *testing.T) {
	l := New(`"a\zb"`, "t.stp")
	tok := l.Scan()
	require.Equal(t, token.String, tok.Kind)
	assert.Equal(t, `a\zb`, tok.Value)
	assert.Len(t, l.Warnings, 1)
}

func TestScanCommentsAreSkipped(t *testing.T) {
	toks := scanAll("x # this is a comment\ny")
	require.Len(t, toks, 3)
	assert.Equal(t, "x", toks[0].Content)
	assert.Equal(t, "y", toks[1].Content)
}

func TestScanTwoCharOperators(t *testing.T) {
	for _, op := range token.TwoCharOperators {
		toks := scanAll(op)
		require.Equal(t, token.Operator, toks[0].Kind, op)
		assert.Equal(t, op, toks[0].Content, op)
	}
}

func TestScanSingleCharPunctuationNotGreedy(t *testing.T) {
	// '=' followed by something other than '=' is its own token.
	toks := scanAll("= x")
	assert.Equal(t, "=", toks[0].Content)
}

func TestLocationsTrackLineAndColumn(t *testing.T) {
	toks := scanAll("a\nb")
	assert.Equal(t, 1, toks[0].Location.Line)
	assert.Equal(t, 2, toks[1].Location.Line)
	assert.Equal(t, 1, toks[1].Location.Column)
}

func TestEOFIsStableAtEndOfInput(t *testing.T) {
	l := New("", "t.stp")
	assert.Equal(t, token.EOF, l.Scan().Kind)
	assert.Equal(t, token.EOF, l.Scan().Kind)
}
