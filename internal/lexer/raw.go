package lexer

// ConsumeUntil advances the lexer past the next occurrence of marker,
// returning the raw text before it (marker itself is consumed but not
// included). Used for guru-mode embedded code blocks ("%{ ... %}"), which
// are not tokenized at all: the parser detects the opening "%" "{" token
// pair and then asks the lexer to swallow everything up to "%}" verbatim.
func (l *Lexer) ConsumeUntil(marker string) (string, bool) {
	begin := l.pos
	for l.pos < len(l.input) {
		if l.pos+len(marker) <= len(l.input) && l.input[l.pos:l.pos+len(marker)] == marker {
			text := l.input[begin:l.pos]
			for range marker {
				l.advance()
			}
			return text, true
		}
		l.advance()
	}
	return l.input[begin:l.pos], false
}
