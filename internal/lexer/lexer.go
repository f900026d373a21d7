package lexer

import (
	"pasfront/internal/diag"
	"pasfront/internal/source"
	"pasfront/internal/token"
)

// Lexer turns one file into tokens. Comments and directives are returned as
// hidden tokens rather than trivia: the preprocessor needs them in the stream.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	done   bool
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	lx.skipSpace()
	if lx.cursor.EOF() {
		lx.done = true
		return lx.finish(token.Token{Kind: token.EOF, Span: lx.emptySpan()})
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case ch == '{':
		tok = lx.scanBraceComment()
	case ch == '(' && lx.cursor.PeekAt(1) == '*':
		tok = lx.scanParenComment()
	case ch == '/' && lx.cursor.PeekAt(1) == '/':
		tok = lx.scanLineComment()
	case ch == '&' && isIdentStart(lx.cursor.PeekAt(1)):
		tok = lx.scanEscapedIdent()
	case isIdentStart(ch):
		tok = lx.scanIdentOrKeyword()
	case isDec(ch), ch == '$', ch == '%', ch == '&':
		tok = lx.scanNumber()
	case ch == '\'' || ch == '#':
		tok = lx.scanString()
	default:
		tok = lx.scanOperatorOrPunct()
	}
	return lx.finish(tok)
}

// Done reports whether EOF has been returned.
func (lx *Lexer) Done() bool { return lx.done }

func (lx *Lexer) finish(tok token.Token) token.Token {
	pos := lx.file.Position(tok.Span.Start)
	tok.Line, tok.Col = pos.Line, pos.Col
	tok.Index = -1
	if tok.Kind == token.Comment || tok.Kind == token.Directive {
		tok.Flags |= token.FlagHidden
	}
	return tok
}

func (lx *Lexer) skipSpace() {
	for !lx.cursor.EOF() && isSpace(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	b := lx.cursor.Bump()
	kind := token.Invalid
	switch b {
	case '+':
		kind = token.Plus
	case '-':
		kind = token.Minus
	case '*':
		kind = token.Star
	case '/':
		kind = token.Slash
	case '=':
		kind = token.Eq
	case ';':
		kind = token.Semicolon
	case ',':
		kind = token.Comma
	case '^':
		kind = token.Caret
	case ')':
		kind = token.RParen
	case '[':
		kind = token.LBracket
	case ']':
		kind = token.RBracket
	case ':':
		kind = token.Colon
		if lx.cursor.Eat('=') {
			kind = token.Assign
		}
	case '<':
		kind = token.Lt
		if lx.cursor.Eat('=') {
			kind = token.LtEq
		} else if lx.cursor.Eat('>') {
			kind = token.NotEq
		}
	case '>':
		kind = token.Gt
		if lx.cursor.Eat('=') {
			kind = token.GtEq
		}
	case '(':
		kind = token.LParen
		if lx.cursor.Peek() == '.' && lx.cursor.PeekAt(1) != '.' {
			lx.cursor.Bump()
			kind = token.LBracket
		}
	case '.':
		kind = token.Dot
		if lx.cursor.Eat('.') {
			kind = token.DotDot
		} else if lx.cursor.Eat(')') {
			kind = token.RBracket
		}
	case '@':
		kind = token.At
		if lx.cursor.Eat('@') {
			kind = token.AtAt
		}
	}
	sp := lx.cursor.SpanFrom(start)
	if kind == token.Invalid {
		lx.report(diag.LexUnknownChar, sp, "unexpected character "+lx.cursor.TextFrom(start))
	}
	return token.Token{Kind: kind, Span: sp, Text: lx.cursor.TextFrom(start)}
}

// Tokenize lexes the whole file, EOF included. Indices are file-local.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	out := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		tok.Index = len(out)
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}
