package parser

import (
	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/token"
)

// routineDirectives lists the words that may follow a routine heading.
var routineDirectives = map[string]bool{
	"overload": true, "virtual": true, "dynamic": true, "abstract": true, "override": true,
	"reintroduce": true, "static": true, "final": true, "inline": true, "forward": true,
	"external": true, "export": true, "cdecl": true, "stdcall": true, "register": true,
	"pascal": true, "safecall": true, "winapi": true, "assembler": true, "message": true,
	"dispid": true, "deprecated": true, "platform": true, "experimental": true,
	"library": true, "varargs": true, "far": true, "near": true, "local": true,
	"unsafe": true, "delayed": true,
}

// parseRoutine reads a routine heading, its directives and, outside
// interface sections and type bodies, its local declarations and body.
// The class keyword, when present, has already been consumed.
func (p *Parser) parseRoutine(class, iface, inType bool) *ast.RoutineDecl {
	kw := p.peek()
	r := &ast.RoutineDecl{Class: class}
	switch kw.Kind {
	case token.KwProcedure:
		r.Kind = ast.RoutineProcedure
	case token.KwFunction:
		r.Kind = ast.RoutineFunction
	case token.KwConstructor:
		r.Kind = ast.RoutineConstructor
	case token.KwDestructor:
		r.Kind = ast.RoutineDestructor
	default:
		if !kw.IsIdent("operator") {
			p.err(diag.SynUnexpectedToken, "expected routine heading, got "+p.describe())
			p.skipStatement()
			return nil
		}
		r.Kind = ast.RoutineOperator
	}
	p.advance()

	if !p.parseRoutineName(r) {
		p.skipStatement()
		return nil
	}
	if p.at(token.LParen) {
		r.Params = p.parseParams(token.LParen, token.RParen)
	}
	if p.accept(token.Colon) {
		r.Result = p.parseType()
	} else if r.Kind == ast.RoutineFunction && (iface || inType) {
		p.err(diag.SynExpectColon, "expected ':' before function result, got "+p.describe())
	}
	p.parseRoutineDirectives(r)

	if iface || inType || r.HasDirective("forward") || r.HasDirective("external") {
		return r
	}
	r.Locals = p.parseDecls(false, token.KwBegin, token.KwAsm)
	switch {
	case p.at(token.KwAsm):
		r.Body = &ast.Block{Begin: ast.IdentOf(p.advance())}
		p.skipAsm()
	case p.at(token.KwBegin):
		r.Body = p.parseBlockUntil(token.KwEnd)
	default:
		p.err(diag.SynUnexpectedToken, "expected 'begin', got "+p.describe())
		return r
	}
	p.expect(token.KwEnd, diag.SynExpectEnd, "expected 'end' after routine body")
	p.expectSemicolon()
	return r
}

// parseRoutineName reads Name, Owner.Name or TOwner<T>.Name<U>.
func (p *Parser) parseRoutineName(r *ast.RoutineDecl) bool {
	var segs []ast.Ident
	var params []ast.TypeParam
	for {
		id, ok := p.memberIdent()
		if !ok {
			return false
		}
		segs = append(segs, id)
		params = nil
		if p.at(token.Lt) {
			params = p.parseTypeParams()
		}
		if !p.at(token.Dot) {
			break
		}
		p.advance()
	}
	r.Owner = segs[:len(segs)-1]
	if len(r.Owner) == 0 {
		r.Owner = nil
	}
	r.Name = segs[len(segs)-1]
	r.TypeParams = params
	return true
}

// parseRoutineDirectives reads ; overload; virtual; external 'x' name 'y'; ...
func (p *Parser) parseRoutineDirectives(r *ast.RoutineDecl) {
	if !p.at(token.KwEnd) {
		p.expectSemicolon()
	}
	for {
		tok := p.peek()
		word := lower(tok.Text)
		if tok.Kind != token.Ident && tok.Kind != token.KwInline && tok.Kind != token.KwLibrary {
			return
		}
		if !routineDirectives[word] {
			return
		}
		// a field or parameter named like a directive
		if next := p.peekAt(1).Kind; next == token.Colon || next == token.Comma || next == token.Eq {
			return
		}
		p.advance()
		r.Directives = append(r.Directives, word)
		switch word {
		case "external", "message", "dispid", "deprecated":
			p.skipDirectiveArgs()
		}
		if !p.accept(token.Semicolon) {
			return
		}
	}
}

// skipDirectiveArgs skips to the ';' that ends a directive.
func (p *Parser) skipDirectiveArgs() {
	depth := 0
	for !p.at(token.EOF) {
		switch p.peek().Kind {
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			depth--
		case token.Semicolon:
			if depth <= 0 {
				return
			}
		case token.KwEnd:
			return
		}
		p.advance()
	}
}

// skipAsm skips assembler text up to its end.
func (p *Parser) skipAsm() {
	for !p.at(token.EOF) && !p.at(token.KwEnd) {
		p.advance()
	}
}

// parseParams reads (const A, B: T = 1; var C; out D: array of Integer).
func (p *Parser) parseParams(open, closing token.Kind) []ast.Param {
	p.expect(open, diag.SynUnexpectedToken, "expected parameter list")
	var params []ast.Param
	for !p.at(token.EOF) && !p.at(closing) {
		start := p.pos
		p.skipAttributes()
		mode := ast.ParamValue
		switch {
		case p.accept(token.KwConst):
			mode = ast.ParamConst
		case p.accept(token.KwVar):
			mode = ast.ParamVar
		case p.atIdent("out") && p.peekAt(1).Kind == token.Ident:
			p.advance()
			mode = ast.ParamOut
		}
		p.skipAttributes()
		names := p.identList()
		var typ ast.TypeExpr
		if p.accept(token.Colon) {
			typ = p.parseType()
		}
		def := false
		if p.accept(token.Eq) {
			p.parseConstExpr(token.Semicolon, closing)
			def = true
		}
		for _, n := range names {
			params = append(params, ast.Param{Name: n, Mode: mode, Type: typ, Default: def})
		}
		if !p.accept(token.Semicolon) {
			break
		}
		if p.pos == start {
			p.advance()
		}
	}
	code := diag.SynUnclosedParen
	if closing == token.RBracket {
		code = diag.SynUnclosedBracket
	}
	if _, ok := p.expect(closing, code, "expected '"+closing.String()+"' after parameters"); !ok {
		p.resyncUntil(closing, token.Semicolon)
		p.accept(closing)
	}
	return params
}
