package lexer

import (
	"pasfront/internal/diag"
	"pasfront/internal/token"
)

func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	switch lx.cursor.Peek() {
	case '$':
		return lx.scanRadix(start, isHex)
	case '%':
		return lx.scanRadix(start, func(b byte) bool { return b == '0' || b == '1' })
	case '&':
		return lx.scanRadix(start, func(b byte) bool { return b >= '0' && b <= '7' })
	}

	kind := token.IntLit
	lx.digits(isDec)
	// "1..10" is a range, not a real
	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		lx.cursor.Bump()
		lx.digits(isDec)
		kind = token.RealLit
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			lx.cursor.Bump()
			if next == '+' || next == '-' {
				lx.cursor.Bump()
			}
			lx.digits(isDec)
			kind = token.RealLit
		}
	}
	return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
}

func (lx *Lexer) scanRadix(start Mark, ok func(byte) bool) token.Token {
	lx.cursor.Bump()
	if n := lx.digits(ok); n == 0 {
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexBadNumber, sp, "number literal has no digits")
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.cursor.TextFrom(start)}
	}
	return token.Token{Kind: token.IntLit, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
}

// digits consumes digits with optional '_' separators and returns how many
// digits it saw.
func (lx *Lexer) digits(ok func(byte) bool) int {
	n := 0
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case ok(b):
			n++
		case b == '_' && n > 0 && ok(lx.cursor.PeekAt(1)):
		default:
			return n
		}
		lx.cursor.Bump()
	}
	return n
}
