package parser

import (
	"slices"
	"strconv"
	"strings"

	"pasfront/internal/ast"
	"pasfront/internal/token"
)

func lower(s string) string { return strings.ToLower(s) }

// stopFunc decides whether tok ends an expression; depth counts open
// brackets and parentheses.
type stopFunc func(depth int, tok token.Token) bool

func stopAt(kinds ...token.Kind) stopFunc {
	return func(depth int, tok token.Token) bool {
		return depth == 0 && slices.Contains(kinds, tok.Kind)
	}
}

// extent returns the index of the first token at or after the cursor that
// satisfies stop, or the EOF index.
func (p *Parser) extent(stop stopFunc) int {
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		tok := p.toks[i]
		if tok.Kind == token.EOF || stop(depth, tok) {
			return i
		}
		switch tok.Kind {
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth == 0 {
				// an unbalanced closer ends the expression
				return i
			}
			depth--
		}
	}
	return len(p.toks) - 1
}

// parseConstExpr reads a constant expression up to one of stop at depth
// zero. Literals are folded; other expressions keep their references.
func (p *Parser) parseConstExpr(stop ...token.Kind) *ast.ConstValue {
	return p.parseConstExprFunc(stopAt(stop...))
}

func (p *Parser) parseConstExprFunc(stop stopFunc) *ast.ConstValue {
	end := p.extent(stop)
	v := fold(p.toks[p.pos:end])
	v.Refs = p.scanRange(end)
	return v
}

// fold evaluates the literal forms of a constant.
func fold(toks []token.Token) *ast.ConstValue {
	v := &ast.ConstValue{}
	if len(toks) == 0 {
		return v
	}
	neg := false
	if len(toks) == 2 && (toks[0].Kind == token.Minus || toks[0].Kind == token.Plus) {
		neg = toks[0].Kind == token.Minus
		toks = toks[1:]
	}
	first := toks[0]
	switch {
	case first.Kind == token.LBracket && toks[len(toks)-1].Kind == token.RBracket:
		v.Kind = ast.ValueSet
	case len(toks) != 1:
	case first.Kind == token.IntLit:
		if n, ok := parseInt(first.Text); ok {
			v.Kind = ast.ValueInt
			v.Int = n
			if neg {
				v.Int = -n
			}
		}
	case first.Kind == token.RealLit:
		v.Kind = ast.ValueReal
		v.Str = first.Text
		if neg {
			v.Str = "-" + v.Str
		}
	case neg:
	case first.Kind == token.StringLit:
		s, ok := decodeString(first.Text)
		if !ok {
			break
		}
		v.Str = s
		v.Kind = ast.ValueString
		if len([]rune(s)) == 1 {
			v.Kind = ast.ValueChar
		}
	case first.Kind == token.KwNil:
		v.Kind = ast.ValueNil
	case first.IsIdent("True"), first.IsIdent("False"):
		v.Kind = ast.ValueBool
		if first.IsIdent("True") {
			v.Int = 1
		}
	}
	return v
}

// parseInt reads 42, $FF, %1010 and &17.
func parseInt(text string) (int64, bool) {
	base := 10
	if text != "" {
		switch text[0] {
		case '$':
			base, text = 16, text[1:]
		case '%':
			base, text = 2, text[1:]
		case '&':
			base, text = 8, text[1:]
		}
	}
	text = strings.ReplaceAll(text, "_", "")
	n, err := strconv.ParseInt(text, base, 64)
	if err != nil {
		u, uerr := strconv.ParseUint(text, base, 64)
		if uerr != nil {
			return 0, false
		}
		return int64(u), true
	}
	return n, true
}

// decodeString turns 'it''s'#13#10 into its value.
func decodeString(text string) (string, bool) {
	var b strings.Builder
	for i := 0; i < len(text); {
		switch text[i] {
		case '\'':
			i++
			for {
				if i >= len(text) {
					return b.String(), false
				}
				if text[i] == '\'' {
					if i+1 < len(text) && text[i+1] == '\'' {
						b.WriteByte('\'')
						i += 2
						continue
					}
					i++
					break
				}
				b.WriteByte(text[i])
				i++
			}
		case '#':
			i++
			base := 10
			if i < len(text) && text[i] == '$' {
				base = 16
				i++
			}
			j := i
			for j < len(text) && isDigit(text[j], base) {
				j++
			}
			n, err := strconv.ParseUint(text[i:j], base, 32)
			if err != nil {
				return b.String(), false
			}
			b.WriteRune(rune(n))
			i = j
		default:
			return b.String(), false
		}
	}
	return b.String(), true
}

func isDigit(c byte, base int) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case base == 16:
		c |= 0x20
		return c >= 'a' && c <= 'f'
	}
	return false
}

func unquote(text string) string {
	s, _ := decodeString(text)
	return s
}

// scanRefs collects references up to one of stop at depth zero.
func (p *Parser) scanRefs(stop ...token.Kind) []*ast.NameRef {
	return p.scanRange(p.extent(stopAt(stop...)))
}

func (p *Parser) scanRefsFunc(stop stopFunc) []*ast.NameRef {
	return p.scanRange(p.extent(stop))
}

// scanStatements collects references in a statement part up to one of stop
// outside nested begin, case, try and asm blocks.
func (p *Parser) scanStatements(stop ...token.Kind) []*ast.NameRef {
	depth := 0
	end := len(p.toks) - 1
	for i := p.pos; i < len(p.toks); i++ {
		k := p.toks[i].Kind
		if k == token.EOF {
			end = i
			break
		}
		if depth == 0 && slices.Contains(stop, k) {
			end = i
			break
		}
		switch k {
		case token.KwBegin, token.KwCase, token.KwTry, token.KwAsm:
			depth++
		case token.KwEnd:
			depth--
		}
	}
	return p.scanRange(end)
}

// scanRange collects the references between the cursor and end, leaving the
// cursor at end.
func (p *Parser) scanRange(end int) []*ast.NameRef {
	var refs []*ast.NameRef
	for p.pos < end {
		tok := p.peek()
		switch tok.Kind {
		case token.Ident:
			refs = p.designator(end, 0, refs)
		case token.At, token.AtAt:
			p.advance()
			if p.pos < end && p.at(token.Ident) {
				refs = p.designator(end, ast.RefMethodReference, refs)
			}
		case token.KwInherited:
			p.advance()
			if p.pos < end && p.at(token.Ident) {
				refs = p.designator(end, ast.RefInherited, refs)
			}
		case token.KwAsm:
			for p.pos < end && !p.at(token.KwEnd) {
				p.advance()
			}
		case token.KwProcedure, token.KwFunction:
			// anonymous method: its heading declares names, the body uses them
			for p.pos < end && !p.at(token.KwBegin) {
				p.advance()
			}
		case token.Dot:
			// member of a call or index result: F(x).Name
			p.advance()
			if p.pos < end && (p.at(token.Ident) || p.peek().Kind.IsKeyword()) {
				p.advance()
			}
		default:
			p.advance()
		}
	}
	p.pos = end
	return refs
}

// designator reads Name<T>(args)[i]^.Next... and appends the chain followed
// by the references found in its arguments.
func (p *Parser) designator(end int, flags ast.RefFlags, refs []*ast.NameRef) []*ast.NameRef {
	ref := &ast.NameRef{}
	var inner []*ast.NameRef
	part := p.refPart(flags)
	for p.pos < end {
		switch {
		case p.at(token.Lt) && p.genericArgsAhead(end):
			part.TypeArgs = p.parseTypeArgs()
			part.Flags |= ast.RefGeneric
			continue
		case p.at(token.LParen):
			closing := p.matching(end, token.LParen, token.RParen)
			args := p.countArgs(closing)
			p.advance()
			inner = append(inner, p.scanRange(closing)...)
			if closing < end {
				p.advance()
			}
			if part.Flags&ast.RefExplicitInvocation == 0 {
				part.Flags |= ast.RefExplicitInvocation
				part.Args = args
			}
			continue
		case p.at(token.LBracket):
			closing := p.matching(end, token.LBracket, token.RBracket)
			p.advance()
			inner = append(inner, p.scanRange(closing)...)
			if closing < end {
				p.advance()
			}
			continue
		case p.at(token.Caret):
			p.advance()
			continue
		case p.at(token.Dot) && p.pos+1 < end:
			next := p.peekAt(1)
			if next.Kind == token.Ident || next.Kind.IsKeyword() {
				p.advance()
				ref.Parts = append(ref.Parts, part)
				part = p.refPart(0)
				continue
			}
		}
		break
	}
	ref.Parts = append(ref.Parts, part)
	refs = append(refs, ref)
	return append(refs, inner...)
}

func (p *Parser) refPart(flags ast.RefFlags) ast.RefPart {
	tok := p.advance()
	if tok.IsIdent("Self") {
		flags |= ast.RefSelf
	}
	return ast.RefPart{Name: ast.IdentOf(tok), Flags: flags}
}

// matching returns the index of the closer that balances the opener at the
// cursor, or end.
func (p *Parser) matching(end int, open, closing token.Kind) int {
	depth := 0
	for i := p.pos; i < end; i++ {
		switch p.toks[i].Kind {
		case open:
			depth++
		case closing:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return end
}

// countArgs counts the arguments between the '(' at the cursor and closing.
func (p *Parser) countArgs(closing int) int {
	if closing <= p.pos+1 {
		return 0
	}
	n, depth := 1, 0
	for i := p.pos + 1; i < closing; i++ {
		switch p.toks[i].Kind {
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			depth--
		case token.Comma:
			if depth == 0 {
				n++
			}
		}
	}
	return n
}

// genericArgsAhead tells Name<T>(...) apart from a comparison A < B.
func (p *Parser) genericArgsAhead(end int) bool {
	depth := 0
	for i := p.pos; i < end; i++ {
		switch p.toks[i].Kind {
		case token.Lt:
			depth++
		case token.Gt:
			depth--
			if depth > 0 {
				continue
			}
			if i+1 >= len(p.toks) {
				return true
			}
			switch p.toks[i+1].Kind {
			case token.LParen, token.RParen, token.Dot, token.Semicolon, token.Comma,
				token.LBracket, token.RBracket, token.EOF, token.KwEnd:
				return true
			}
			return false
		case token.Ident, token.Comma, token.Dot, token.KwString, token.KwArray, token.KwOf:
		default:
			return false
		}
	}
	return false
}
