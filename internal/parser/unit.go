package parser

import (
	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/token"
)

func (p *Parser) parseFile() *ast.File {
	f := &ast.File{Path: p.path}
	switch {
	case p.at(token.KwUnit):
		p.advance()
		f.Kind = ast.UnitUnit
	case p.at(token.KwProgram):
		p.advance()
		f.Kind = ast.UnitProgram
	case p.at(token.KwLibrary):
		p.advance()
		f.Kind = ast.UnitLibrary
	case p.atIdent("package"):
		p.advance()
		f.Kind = ast.UnitPackage
	default:
		// a bare program without a header is legal
		f.Kind = ast.UnitProgram
		if !p.atOr(token.KwUses, token.KwBegin, token.KwType, token.KwConst, token.KwVar,
			token.KwProcedure, token.KwFunction, token.KwResourceString, token.KwThreadVar) {
			p.err(diag.SynExpectUnitHeader, "expected unit, program, library or package, got "+p.describe())
		}
		f.Implementation = p.parseProgramBody(f)
		return f
	}

	f.Name, _ = p.qualifiedName()
	if f.Kind == ast.UnitProgram && p.at(token.LParen) {
		// program Foo(Input, Output);
		p.skipBalanced(token.LParen, token.RParen)
	}
	p.skipHints()
	p.expectSemicolon()

	switch f.Kind {
	case ast.UnitUnit:
		p.parseUnitBody(f)
	case ast.UnitPackage:
		p.parsePackageBody(f)
	default:
		f.Implementation = p.parseProgramBody(f)
	}
	return f
}

func (p *Parser) parseUnitBody(f *ast.File) {
	if _, ok := p.expect(token.KwInterface, diag.SynUnexpectedToken, "expected 'interface'"); !ok {
		p.resyncUntil(token.KwInterface, token.KwImplementation)
		p.accept(token.KwInterface)
	}
	f.Interface = &ast.Section{}
	f.Interface.Uses = p.parseUses()
	f.Interface.Decls = p.parseDecls(true, token.KwImplementation, token.KwInitialization, token.KwBegin, token.KwEnd)

	f.Implementation = &ast.Section{}
	if p.accept(token.KwImplementation) {
		f.Implementation.Uses = p.parseUses()
		f.Implementation.Decls = p.parseDecls(false, token.KwInitialization, token.KwBegin, token.KwEnd)
	} else {
		p.err(diag.SynUnexpectedToken, "expected 'implementation', got "+p.describe())
	}

	switch {
	case p.at(token.KwInitialization):
		f.Init = p.parseBlockUntil(token.KwFinalization, token.KwEnd)
		if p.at(token.KwFinalization) {
			f.Final = p.parseBlockUntil(token.KwEnd)
		}
	case p.at(token.KwBegin):
		f.Init = p.parseBlockUntil(token.KwEnd)
	}
	p.expectFinalEnd()
}

func (p *Parser) parseProgramBody(f *ast.File) *ast.Section {
	sec := &ast.Section{}
	sec.Uses = p.parseUses()
	sec.Decls = p.parseDecls(false, token.KwBegin, token.KwEnd)
	if p.at(token.KwBegin) {
		f.Init = p.parseBlockUntil(token.KwEnd)
	}
	p.expectFinalEnd()
	return sec
}

// parsePackageBody reads requires into Interface and contains into
// Implementation.
func (p *Parser) parsePackageBody(f *ast.File) {
	f.Interface = &ast.Section{}
	f.Implementation = &ast.Section{}
	for !p.at(token.EOF) && !p.at(token.KwEnd) {
		switch {
		case p.atIdent("requires"):
			f.Interface.Uses = append(f.Interface.Uses, p.parseUsesList()...)
		case p.atIdent("contains"):
			f.Implementation.Uses = append(f.Implementation.Uses, p.parseUsesList()...)
		default:
			p.err(diag.SynUnexpectedToken, "expected requires or contains, got "+p.describe())
			p.skipStatement()
		}
	}
	p.expectFinalEnd()
}

func (p *Parser) expectFinalEnd() {
	if _, ok := p.expect(token.KwEnd, diag.SynExpectEnd, "expected 'end.'"); ok {
		p.expect(token.Dot, diag.SynUnexpectedToken, "expected '.' after final 'end'")
	}
}

// parseUses reads an optional uses clause.
func (p *Parser) parseUses() []ast.UsesItem {
	if !p.at(token.KwUses) {
		return nil
	}
	return p.parseUsesList()
}

// parseUsesList reads the clause word and A, B.C in 'path';
func (p *Parser) parseUsesList() []ast.UsesItem {
	p.advance()
	var items []ast.UsesItem
	for !p.at(token.EOF) {
		name, ok := p.qualifiedName()
		if !ok {
			p.skipStatement()
			return items
		}
		item := ast.UsesItem{Name: name}
		if p.accept(token.KwIn) {
			if tok, ok := p.expect(token.StringLit, diag.SynUnexpectedToken, "expected file name"); ok {
				item.Path = unquote(tok.Text)
			}
		}
		items = append(items, item)
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expectSemicolon()
	return items
}

// parseDecls reads declaration sections until one of stop.
func (p *Parser) parseDecls(iface bool, stop ...token.Kind) []ast.Decl {
	var decls []ast.Decl
	for !p.at(token.EOF) && !p.atOr(stop...) {
		if p.opts.Enough() {
			p.resyncUntil(stop...)
			break
		}
		start := p.pos
		switch p.peek().Kind {
		case token.KwType:
			p.advance()
			decls = append(decls, p.parseTypeSection()...)
		case token.KwConst:
			p.advance()
			decls = append(decls, p.parseConstSection(false)...)
		case token.KwResourceString:
			p.advance()
			decls = append(decls, p.parseConstSection(true)...)
		case token.KwVar:
			p.advance()
			decls = append(decls, p.parseVarSection(false)...)
		case token.KwThreadVar:
			p.advance()
			decls = append(decls, p.parseVarSection(true)...)
		case token.KwProcedure, token.KwFunction, token.KwConstructor, token.KwDestructor:
			if r := p.parseRoutine(false, iface, false); r != nil {
				decls = append(decls, r)
			}
		case token.KwClass:
			p.advance()
			if r := p.parseRoutine(true, iface, false); r != nil {
				decls = append(decls, r)
			}
		case token.KwLabel, token.KwExports:
			p.skipStatement()
		case token.LBracket:
			p.skipAttributes()
		default:
			if p.atIdent("operator") {
				if r := p.parseRoutine(false, iface, false); r != nil {
					decls = append(decls, r)
				}
				break
			}
			p.err(diag.SynUnexpectedTopLevel, "unexpected "+p.describe()+" in declaration section")
			p.skipStatement()
			p.resyncDecl(stop...)
		}
		if p.pos == start {
			p.advance()
		}
	}
	return decls
}

// resyncDecl skips to the next token that can start a declaration section.
func (p *Parser) resyncDecl(stop ...token.Kind) {
	for !p.at(token.EOF) && !p.atOr(stop...) {
		switch p.peek().Kind {
		case token.KwType, token.KwConst, token.KwVar, token.KwResourceString, token.KwThreadVar,
			token.KwProcedure, token.KwFunction, token.KwConstructor, token.KwDestructor, token.KwClass:
			return
		}
		p.advance()
	}
}

func (p *Parser) parseTypeSection() []ast.Decl {
	var decls []ast.Decl
	for p.at(token.Ident) || p.at(token.LBracket) {
		if p.at(token.LBracket) {
			p.skipAttributes()
			continue
		}
		if d := p.parseTypeDecl(); d != nil {
			decls = append(decls, d)
		}
	}
	return decls
}

// parseTypeDecl reads Name<T> = Type;
func (p *Parser) parseTypeDecl() *ast.TypeDecl {
	name := ast.IdentOf(p.advance())
	d := &ast.TypeDecl{Name: name}
	if p.at(token.Lt) {
		d.TypeParams = p.parseTypeParams()
	}
	if _, ok := p.expect(token.Eq, diag.SynExpectEquals, "expected '=' in type declaration"); !ok {
		p.skipStatement()
		return nil
	}
	d.Type = p.parseType()
	p.skipHints()
	p.expectSemicolon()
	return d
}

func (p *Parser) parseConstSection(resource bool) []ast.Decl {
	var decls []ast.Decl
	for p.at(token.Ident) || p.at(token.LBracket) {
		if p.at(token.LBracket) {
			p.skipAttributes()
			continue
		}
		d := &ast.ConstDecl{Name: ast.IdentOf(p.advance()), Resource: resource}
		if p.accept(token.Colon) {
			d.Type = p.parseType()
		}
		if _, ok := p.expect(token.Eq, diag.SynExpectEquals, "expected '=' in constant declaration"); !ok {
			p.skipStatement()
			continue
		}
		d.Value = p.parseConstExpr(token.Semicolon)
		p.skipHints()
		p.expectSemicolon()
		decls = append(decls, d)
	}
	return decls
}

func (p *Parser) parseVarSection(thread bool) []ast.Decl {
	var decls []ast.Decl
	for p.at(token.Ident) || p.at(token.LBracket) {
		if p.at(token.LBracket) {
			p.skipAttributes()
			continue
		}
		decls = append(decls, p.parseVarDecl(thread)...)
	}
	return decls
}

// parseVarDecl reads A, B: T [absolute X | = value];
func (p *Parser) parseVarDecl(thread bool) []ast.Decl {
	names := p.identList()
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' in variable declaration"); !ok {
		p.skipStatement()
		return nil
	}
	typ := p.parseType()
	var refs []*ast.NameRef
	switch {
	case p.acceptIdent("absolute"):
		refs = p.scanRefs(token.Semicolon)
	case p.accept(token.Eq):
		refs = p.parseConstExpr(token.Semicolon).Refs
	}
	p.skipHints()
	p.expectSemicolon()
	decls := make([]ast.Decl, 0, len(names))
	for _, n := range names {
		decls = append(decls, &ast.VarDecl{Name: n, Type: typ, Thread: thread, Refs: refs})
	}
	return decls
}

// identList reads A, B, C.
func (p *Parser) identList() []ast.Ident {
	var names []ast.Ident
	for {
		id, ok := p.ident()
		if !ok {
			return names
		}
		names = append(names, id)
		if !p.accept(token.Comma) {
			return names
		}
	}
}

// parseBlockUntil reads a statement part that starts at the current keyword
// and runs to one of stop at nesting depth zero.
func (p *Parser) parseBlockUntil(stop ...token.Kind) *ast.Block {
	b := &ast.Block{Begin: ast.IdentOf(p.advance())}
	b.Refs = p.scanStatements(stop...)
	return b
}
