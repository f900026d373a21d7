package parser

import (
	"slices"

	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/source"
	"pasfront/internal/token"
)

type Options struct {
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough reports whether the error limit has been reached.
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

// Parser holds the state for one file.
type Parser struct {
	toks     []token.Token // code tokens, EOF last
	pos      int
	path     string
	opts     Options
	lastSpan source.Span
}

// ParseFile parses the final token stream of one file. Hidden tokens are
// skipped. Syntax errors are reported and parsing resumes at the next
// declaration; the returned tree is always usable.
func ParseFile(path string, toks []token.Token, opts Options) *ast.File {
	return New(path, toks, opts).Parse()
}

// New prepares a parser over toks.
func New(path string, toks []token.Token, opts Options) *Parser {
	p := &Parser{path: path, opts: opts}
	p.toks = make([]token.Token, 0, len(toks)+1)
	for _, t := range toks {
		if !t.IsHidden() && t.Kind != token.EOF {
			p.toks = append(p.toks, t)
		}
	}
	eof := token.Token{Kind: token.EOF, Index: -1}
	if n := len(toks); n > 0 && toks[n-1].Kind == token.EOF {
		eof = toks[n-1]
	}
	p.toks = append(p.toks, eof)
	return p
}

// Parse parses the whole file. It may be called once.
func (p *Parser) Parse() *ast.File { return p.parseFile() }

// Errors returns the number of errors reported while parsing.
func (p *Parser) Errors() uint { return p.opts.CurrentErrors }

func (p *Parser) peek() token.Token { return p.toks[p.pos] }

func (p *Parser) peekAt(n int) token.Token {
	if i := p.pos + n; i < len(p.toks) {
		return p.toks[i]
	}
	return p.toks[len(p.toks)-1]
}

func (p *Parser) at(k token.Kind) bool { return p.toks[p.pos].Kind == k }

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.toks[p.pos].Kind)
}

func (p *Parser) atIdent(name string) bool {
	tok := p.toks[p.pos]
	return tok.IsIdent(name)
}

// advance consumes the current token; EOF is never consumed.
func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

func (p *Parser) accept(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) acceptIdent(name string) bool {
	if p.atIdent(name) {
		p.advance()
		return true
	}
	return false
}

// expect consumes k or reports code.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, msg+", got "+p.describe())
	return token.Token{Kind: token.Invalid, Span: p.diagnosticSpan()}, false
}

func (p *Parser) expectSemicolon() bool {
	_, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';'")
	return ok
}

func (p *Parser) ident() (ast.Ident, bool) {
	if p.at(token.Ident) {
		return ast.IdentOf(p.advance()), true
	}
	p.err(diag.SynExpectIdentifier, "expected identifier, got "+p.describe())
	return ast.Ident{}, false
}

// memberIdent also accepts keywords, which after a dot can only be member
// names.
func (p *Parser) memberIdent() (ast.Ident, bool) {
	if p.peek().Kind.IsKeyword() {
		return ast.IdentOf(p.advance()), true
	}
	return p.ident()
}

// qualifiedName reads A.B.C.
func (p *Parser) qualifiedName() ([]ast.Ident, bool) {
	first, ok := p.ident()
	if !ok {
		return nil, false
	}
	parts := []ast.Ident{first}
	for p.at(token.Dot) && p.peekAt(1).Kind != token.EOF {
		p.advance()
		next, ok := p.memberIdent()
		if !ok {
			return parts, false
		}
		parts = append(parts, next)
	}
	return parts, true
}

func (p *Parser) describe() string {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return "end of file"
	}
	return "'" + tok.Text + "'"
}

// diagnosticSpan points just past the last token at end of file.
func (p *Parser) diagnosticSpan() source.Span {
	tok := p.peek()
	if tok.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return tok.Span
}

func (p *Parser) err(code diag.Code, msg string) bool {
	return p.report(code, diag.SevError, p.diagnosticSpan(), msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) bool {
	enough := p.opts.Enough()
	if sev == diag.SevError {
		p.opts.CurrentErrors++
	}
	if p.opts.Reporter == nil || enough {
		return false
	}
	diag.NewReportBuilder(p.opts.Reporter, sev, code, sp, msg).Emit()
	return true
}

// resyncUntil skips tokens until one of kinds or EOF, without consuming it.
func (p *Parser) resyncUntil(kinds ...token.Kind) {
	for !p.at(token.EOF) && !p.atOr(kinds...) {
		p.advance()
	}
}

// skipStatement skips to and past the next ';' at bracket depth zero.
func (p *Parser) skipStatement() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth > 0 {
				depth--
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipBalanced skips a bracketed group starting at the current opener.
func (p *Parser) skipBalanced(open, closing token.Kind) {
	if !p.at(open) {
		return
	}
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// skipAttributes skips [Attr] and [Attr(args)] groups.
func (p *Parser) skipAttributes() {
	for p.at(token.LBracket) {
		p.skipBalanced(token.LBracket, token.RBracket)
	}
}

// skipHints skips platform, deprecated 'msg', experimental and library.
func (p *Parser) skipHints() {
	for {
		switch {
		case p.atIdent("platform"), p.atIdent("experimental"), p.at(token.KwLibrary):
			p.advance()
		case p.atIdent("deprecated"):
			p.advance()
			p.accept(token.StringLit)
		default:
			return
		}
	}
}
