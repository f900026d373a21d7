package lexer

import (
	"pasfront/internal/diag"
	"pasfront/internal/token"
)

// scanBraceComment reads {...} or a {$...} directive. Braces do not nest.
func (lx *Lexer) scanBraceComment() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	kind := token.Comment
	if lx.cursor.Peek() == '$' {
		kind = token.Directive
	}
	for !lx.cursor.EOF() {
		if lx.cursor.Bump() == '}' {
			return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
		}
	}
	return lx.unterminated(start, kind)
}

// scanParenComment reads (*...*) or a (*$...*) directive.
func (lx *Lexer) scanParenComment() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.cursor.Bump()
	kind := token.Comment
	if lx.cursor.Peek() == '$' {
		kind = token.Directive
	}
	for !lx.cursor.EOF() {
		if lx.cursor.Bump() == '*' && lx.cursor.Eat(')') {
			return token.Token{Kind: kind, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
		}
	}
	return lx.unterminated(start, kind)
}

func (lx *Lexer) scanLineComment() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
		lx.cursor.Bump()
	}
	return token.Token{Kind: token.Comment, Span: lx.cursor.SpanFrom(start), Text: lx.cursor.TextFrom(start)}
}

// unterminated keeps the text up to EOF; the directive parser rejects an
// unterminated directive on its own.
func (lx *Lexer) unterminated(start Mark, kind token.Kind) token.Token {
	sp := lx.cursor.SpanFrom(start)
	if kind == token.Directive {
		lx.report(diag.LexUnterminatedDirective, sp, "unterminated compiler directive")
	} else {
		lx.report(diag.LexUnterminatedBlockComment, sp, "unterminated comment")
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.cursor.TextFrom(start)}
}
