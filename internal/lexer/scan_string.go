package lexer

import (
	"pasfront/internal/diag"
	"pasfront/internal/token"
)

// scanString reads a run of quoted segments and control characters
// ('a'#13#10'b') as a single literal.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	for {
		switch lx.cursor.Peek() {
		case '\'':
			if !lx.quoted() {
				sp := lx.cursor.SpanFrom(start)
				lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
				return token.Token{Kind: token.StringLit, Span: sp, Text: lx.cursor.TextFrom(start)}
			}
		case '#':
			lx.cursor.Bump()
			var n int
			if lx.cursor.Eat('$') {
				n = lx.digits(isHex)
			} else {
				n = lx.digits(isDec)
			}
			if n == 0 {
				sp := lx.cursor.SpanFrom(start)
				lx.report(diag.LexBadNumber, sp, "control character needs a code")
				return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cursor.TextFrom(start)}
			}
		default:
			return token.Token{Kind: token.StringLit, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
		}
	}
}

// quoted consumes one '...' segment. Doubled quotes are escapes.
func (lx *Lexer) quoted() bool {
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Bump()
		switch b {
		case '\n':
			lx.cursor.Off--
			return false
		case '\'':
			if lx.cursor.Peek() != '\'' {
				return true
			}
			lx.cursor.Bump()
		}
	}
	return false
}
