package parser

import (
	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/token"
)

// typeStop ends a constant that bounds a subrange.
var typeStop = []token.Kind{token.Semicolon, token.Comma, token.RBracket, token.RParen, token.Eq, token.KwEnd, token.KwOf}

// parseType reads a type expression.
func (p *Parser) parseType() ast.TypeExpr {
	if p.subrangeAhead() {
		return p.parseSubrange()
	}
	tok := p.peek()
	switch tok.Kind {
	case token.Caret:
		p.advance()
		return &ast.PointerType{Caret: ast.IdentOf(tok), Elem: p.parseType()}
	case token.KwPacked:
		p.advance()
		t := p.parseType()
		switch x := t.(type) {
		case *ast.ArrayType:
			x.Packed = true
		case *ast.StructType:
			x.Packed = true
		}
		return t
	case token.KwArray:
		return p.parseArrayType()
	case token.KwSet:
		p.advance()
		p.expect(token.KwOf, diag.SynUnexpectedToken, "expected 'of' after 'set'")
		return &ast.SetType{Set: ast.IdentOf(tok), Elem: p.parseType()}
	case token.KwFile:
		p.advance()
		t := &ast.FileType{File: ast.IdentOf(tok)}
		if p.accept(token.KwOf) {
			t.Elem = p.parseType()
		}
		return t
	case token.LParen:
		return p.parseEnumType()
	case token.KwString:
		p.advance()
		if p.at(token.LBracket) {
			p.advance()
			v := p.parseConstExpr(token.RBracket)
			p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']'")
			return &ast.ShortStringType{String: ast.IdentOf(tok), Length: v.Int}
		}
		return &ast.NamedType{Name: []ast.Ident{ast.IdentOf(tok)}}
	case token.KwRecord:
		return p.parseRecordType()
	case token.KwClass:
		return p.parseClassType()
	case token.KwObject:
		p.advance()
		st := &ast.StructType{Kind: ast.StructObject, Keyword: ast.IdentOf(tok)}
		if p.at(token.LParen) {
			st.Parents = p.parseParents()
		}
		st.Members = p.parseMembers(st.Kind)
		return st
	case token.KwInterface, token.KwDispInterface:
		return p.parseInterfaceType()
	case token.KwProcedure, token.KwFunction:
		return p.parseProcType(false)
	case token.KwType:
		p.advance()
		p.accept(token.KwOf)
		return &ast.StrongAlias{Type: ast.IdentOf(tok), Target: p.parseType()}
	case token.Ident:
		if tok.IsIdent("reference") && p.peekAt(1).Kind == token.KwTo {
			p.advance()
			p.advance()
			if !p.atOr(token.KwProcedure, token.KwFunction) {
				p.err(diag.SynExpectType, "expected procedure or function after 'reference to'")
				return &ast.BadType{At: ast.IdentOf(tok)}
			}
			return p.parseProcType(true)
		}
		return p.parseNamedType()
	}
	p.err(diag.SynExpectType, "expected type, got "+p.describe())
	return &ast.BadType{At: ast.IdentOf(tok)}
}

// subrangeAhead reports whether a '..' follows at depth zero before the end
// of the current type.
func (p *Parser) subrangeAhead() bool {
	switch p.peek().Kind {
	case token.KwRecord, token.KwClass, token.KwObject, token.KwInterface, token.KwDispInterface,
		token.KwArray, token.KwSet, token.KwFile, token.KwProcedure, token.KwFunction, token.KwPacked,
		token.Caret, token.KwString, token.KwType:
		return false
	}
	depth := 0
	for i := p.pos; i < len(p.toks); i++ {
		switch p.toks[i].Kind {
		case token.LParen, token.LBracket:
			depth++
		case token.RParen, token.RBracket:
			if depth == 0 {
				return false
			}
			depth--
		case token.DotDot:
			if depth == 0 {
				return true
			}
		case token.Semicolon, token.Comma, token.Eq, token.KwOf, token.KwEnd, token.EOF:
			if depth == 0 || p.toks[i].Kind == token.EOF || p.toks[i].Kind == token.Semicolon {
				return false
			}
		}
	}
	return false
}

func (p *Parser) parseSubrange() ast.TypeExpr {
	start := ast.IdentOf(p.peek())
	low := p.parseConstExpr(token.DotDot)
	p.expect(token.DotDot, diag.SynUnexpectedToken, "expected '..'")
	high := p.parseConstExpr(typeStop...)
	return &ast.SubrangeType{Low: low, High: high, Start: start}
}

// parseNamedType reads A.B.C<Args>.
func (p *Parser) parseNamedType() ast.TypeExpr {
	start := p.peek()
	name, ok := p.qualifiedName()
	if !ok {
		return &ast.BadType{At: ast.IdentOf(start)}
	}
	t := &ast.NamedType{Name: name}
	if p.at(token.Lt) {
		t.Args = p.parseTypeArgs()
	}
	// nested generic: TOuter<A>.TInner
	for p.at(token.Dot) && p.peekAt(1).Kind == token.Ident {
		p.advance()
		t.Name = append(t.Name, ast.IdentOf(p.advance()))
		t.Args = nil
		if p.at(token.Lt) {
			t.Args = p.parseTypeArgs()
		}
	}
	return t
}

// parseTypeArgs reads <A, B>.
func (p *Parser) parseTypeArgs() []ast.TypeExpr {
	p.advance()
	var args []ast.TypeExpr
	for !p.at(token.EOF) {
		args = append(args, p.parseType())
		if !p.accept(token.Comma) {
			break
		}
	}
	if !p.closeAngle() {
		p.err(diag.SynBadTypeArguments, "expected '>' after type arguments, got "+p.describe())
	}
	return args
}

// closeAngle consumes '>' and splits '>=' into '>' and '='.
func (p *Parser) closeAngle() bool {
	switch p.peek().Kind {
	case token.Gt:
		p.advance()
		return true
	case token.GtEq:
		tok := &p.toks[p.pos]
		tok.Kind = token.Eq
		tok.Text = "="
		tok.Span.Start++
		return true
	}
	return false
}

// parseTypeParams reads <T; U: class, constructor; V, W: IFoo>.
func (p *Parser) parseTypeParams() []ast.TypeParam {
	p.advance()
	var params []ast.TypeParam
	for !p.at(token.EOF) {
		names := p.identList()
		if len(names) == 0 {
			break
		}
		var cons []ast.ConstraintExpr
		if p.accept(token.Colon) {
			cons = p.parseConstraints()
		}
		for _, n := range names {
			params = append(params, ast.TypeParam{Name: n, Constraints: cons})
		}
		if !p.accept(token.Semicolon) && !p.accept(token.Comma) {
			break
		}
	}
	if !p.closeAngle() {
		p.err(diag.SynBadTypeArguments, "expected '>' after type parameters, got "+p.describe())
		p.resyncUntil(token.Gt, token.Eq, token.Semicolon, token.LParen)
		p.accept(token.Gt)
	}
	return params
}

func (p *Parser) parseConstraints() []ast.ConstraintExpr {
	var cons []ast.ConstraintExpr
	for !p.at(token.EOF) {
		switch {
		case p.accept(token.KwClass):
			cons = append(cons, ast.ConstraintExpr{Kind: ast.ConstraintClass})
		case p.accept(token.KwConstructor):
			cons = append(cons, ast.ConstraintExpr{Kind: ast.ConstraintConstructor})
		case p.accept(token.KwRecord):
			cons = append(cons, ast.ConstraintExpr{Kind: ast.ConstraintRecord})
		default:
			cons = append(cons, ast.ConstraintExpr{Kind: ast.ConstraintType, Type: p.parseNamedType()})
		}
		// a comma followed by name and colon starts the next parameter group
		if !p.at(token.Comma) || p.peekAt(1).Kind == token.Ident && p.peekAt(2).Kind == token.Colon {
			return cons
		}
		p.advance()
	}
	return cons
}

func (p *Parser) parseArrayType() ast.TypeExpr {
	t := &ast.ArrayType{Array: ast.IdentOf(p.advance())}
	if p.accept(token.LBracket) {
		for !p.at(token.EOF) {
			t.Indices = append(t.Indices, p.parseType())
			if !p.accept(token.Comma) {
				break
			}
		}
		p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' after array indices")
	}
	if _, ok := p.expect(token.KwOf, diag.SynUnexpectedToken, "expected 'of' in array type"); !ok {
		return t
	}
	if p.accept(token.KwConst) {
		t.OfConst = true
		return t
	}
	t.Elem = p.parseType()
	return t
}

// parseEnumType reads (A, B = 5, C).
func (p *Parser) parseEnumType() ast.TypeExpr {
	t := &ast.EnumType{Open: ast.IdentOf(p.advance())}
	next := int64(0)
	for !p.at(token.EOF) {
		id, ok := p.ident()
		if !ok {
			break
		}
		if p.accept(token.Eq) {
			if v := p.parseConstExpr(token.Comma, token.RParen); v.Kind == ast.ValueInt {
				next = v.Int
			}
		}
		t.Elements = append(t.Elements, id)
		t.Values = append(t.Values, next)
		next++
		if !p.accept(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after enumeration"); !ok {
		p.resyncUntil(token.RParen, token.Semicolon)
		p.accept(token.RParen)
	}
	return t
}

func (p *Parser) parseParents() []ast.TypeExpr {
	p.advance()
	var parents []ast.TypeExpr
	for !p.at(token.EOF) && !p.at(token.RParen) {
		parents = append(parents, p.parseNamedType())
		if !p.accept(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after ancestors")
	return parents
}

func (p *Parser) parseRecordType() ast.TypeExpr {
	st := &ast.StructType{Kind: ast.StructRecord, Keyword: ast.IdentOf(p.advance())}
	if p.atIdent("helper") && p.peekAt(1).Kind == token.KwFor {
		p.advance()
		p.advance()
		st.Kind = ast.StructRecordHelper
		st.HelperFor = p.parseType()
	}
	st.Members = p.parseMembers(st.Kind)
	return st
}

func (p *Parser) parseClassType() ast.TypeExpr {
	kw := p.advance()
	if p.accept(token.KwOf) {
		return &ast.ClassRefType{Class: ast.IdentOf(kw), Of: p.parseNamedType()}
	}
	st := &ast.StructType{Kind: ast.StructClass, Keyword: ast.IdentOf(kw)}
	if p.at(token.Semicolon) {
		st.Forward = true
		return st
	}
	switch {
	case p.acceptIdent("abstract"):
		st.Abstract = true
	case p.acceptIdent("sealed"):
		st.Sealed = true
	case p.atIdent("helper"):
		p.advance()
		st.Kind = ast.StructClassHelper
	}
	if p.at(token.LParen) {
		st.Parents = p.parseParents()
	}
	if st.Kind == ast.StructClassHelper {
		p.expect(token.KwFor, diag.SynUnexpectedToken, "expected 'for' in class helper")
		st.HelperFor = p.parseType()
	}
	// class(TBase); has no body
	if p.at(token.Semicolon) {
		return st
	}
	st.Members = p.parseMembers(st.Kind)
	return st
}

func (p *Parser) parseInterfaceType() ast.TypeExpr {
	kw := p.advance()
	st := &ast.StructType{Kind: ast.StructInterface, Keyword: ast.IdentOf(kw)}
	if kw.Kind == token.KwDispInterface {
		st.Kind = ast.StructDispInterface
	}
	if p.at(token.Semicolon) {
		st.Forward = true
		return st
	}
	if p.at(token.LParen) {
		st.Parents = p.parseParents()
	}
	st.Members = p.parseMembers(st.Kind)
	return st
}

// parseProcType reads procedure(...) and function(...): R, with of object
// and trailing calling conventions.
func (p *Parser) parseProcType(reference bool) ast.TypeExpr {
	kw := p.advance()
	t := &ast.ProcType{Keyword: ast.IdentOf(kw), Reference: reference}
	if p.at(token.LParen) {
		t.Params = p.parseParams(token.LParen, token.RParen)
	}
	if kw.Kind == token.KwFunction {
		if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' before function result"); ok {
			t.Result = p.parseType()
		}
	}
	if p.at(token.KwOf) && p.peekAt(1).Kind == token.KwObject {
		p.advance()
		p.advance()
		t.OfObject = true
	}
	for {
		switch {
		case p.at(token.Ident) && callingConventions[lower(p.peek().Text)]:
			p.advance()
		case p.at(token.Semicolon) && p.peekAt(1).Kind == token.Ident && callingConventions[lower(p.peekAt(1).Text)]:
			p.advance()
			p.advance()
		default:
			return t
		}
	}
}

var callingConventions = map[string]bool{
	"cdecl": true, "stdcall": true, "register": true, "pascal": true,
	"safecall": true, "winapi": true,
}

// parseMembers reads the body of a structured type up to and including end.
func (p *Parser) parseMembers(kind ast.StructKind) []ast.Member {
	var members []ast.Member
	vis := ast.VisDefault
	class := false
	add := func(d ast.Decl) {
		members = append(members, ast.Member{Visibility: vis, Decl: d})
	}
	for !p.at(token.EOF) && !p.at(token.KwEnd) {
		start := p.pos
		tok := p.peek()
		switch tok.Kind {
		case token.LBracket:
			// attributes and interface GUIDs
			p.skipAttributes()
		case token.Ident:
			if v, ok := p.visibility(); ok {
				vis = v
				class = false
				break
			}
			if tok.IsIdent("operator") {
				if r := p.parseRoutine(false, true, true); r != nil {
					add(r)
				}
				break
			}
			for _, d := range p.parseFields(class) {
				add(d)
			}
		case token.KwVar:
			p.advance()
			class = false
		case token.KwClass:
			p.advance()
			switch p.peek().Kind {
			case token.KwVar:
				p.advance()
				class = true
			case token.KwProperty:
				if d := p.parseProperty(); d != nil {
					d.Class = true
					add(d)
				}
			default:
				if r := p.parseRoutine(true, true, true); r != nil {
					add(r)
				}
			}
		case token.KwConst:
			p.advance()
			for _, d := range p.parseConstSection(false) {
				add(d)
			}
		case token.KwType:
			p.advance()
			for _, d := range p.parseTypeSection() {
				add(d)
			}
		case token.KwProcedure, token.KwFunction, token.KwConstructor, token.KwDestructor:
			if r := p.parseRoutine(false, true, true); r != nil {
				add(r)
			}
		case token.KwProperty:
			if d := p.parseProperty(); d != nil {
				add(d)
			}
		case token.KwCase:
			if kind != ast.StructRecord && kind != ast.StructObject {
				p.err(diag.SynUnexpectedToken, "variant part outside a record")
			}
			for _, d := range p.parseVariantPart() {
				add(d)
			}
		default:
			p.err(diag.SynUnexpectedToken, "unexpected "+p.describe()+" in type body")
			p.skipStatement()
		}
		if p.pos == start {
			p.advance()
		}
	}
	p.expect(token.KwEnd, diag.SynExpectEnd, "expected 'end' after type body")
	return members
}

// visibility reads a visibility section header.
func (p *Parser) visibility() (ast.Visibility, bool) {
	tok := p.peek()
	switch {
	case tok.IsIdent("strict"):
		next := p.peekAt(1)
		switch {
		case next.IsIdent("private"):
			p.advance()
			p.advance()
			return ast.VisStrictPrivate, true
		case next.IsIdent("protected"):
			p.advance()
			p.advance()
			return ast.VisStrictProtected, true
		}
		return 0, false
	case p.peekAt(1).Kind == token.Colon || p.peekAt(1).Kind == token.Comma:
		return 0, false
	case tok.IsIdent("private"):
		p.advance()
		return ast.VisPrivate, true
	case tok.IsIdent("protected"):
		p.advance()
		return ast.VisProtected, true
	case tok.IsIdent("public"):
		p.advance()
		return ast.VisPublic, true
	case tok.IsIdent("published"), tok.IsIdent("automated"):
		p.advance()
		return ast.VisPublished, true
	}
	return 0, false
}

// parseFields reads A, B: T; inside a structured type.
func (p *Parser) parseFields(class bool) []ast.Decl {
	names := p.identList()
	if _, ok := p.expect(token.Colon, diag.SynExpectColon, "expected ':' in field declaration"); !ok {
		p.skipStatement()
		return nil
	}
	typ := p.parseType()
	p.skipHints()
	if !p.at(token.KwEnd) && !p.at(token.RParen) {
		p.expectSemicolon()
	}
	decls := make([]ast.Decl, 0, len(names))
	for _, n := range names {
		decls = append(decls, &ast.FieldDecl{Name: n, Type: typ, Class: class})
	}
	return decls
}

// parseVariantPart flattens case Tag: T of 1: (A: X); 2: (B: Y); into fields.
func (p *Parser) parseVariantPart() []ast.Decl {
	p.advance()
	var decls []ast.Decl
	if p.at(token.Ident) && p.peekAt(1).Kind == token.Colon {
		tag := ast.IdentOf(p.advance())
		p.advance()
		decls = append(decls, &ast.FieldDecl{Name: tag, Type: p.parseType()})
	} else {
		p.parseType()
	}
	p.expect(token.KwOf, diag.SynUnexpectedToken, "expected 'of' in variant part")
	for !p.at(token.EOF) && !p.at(token.KwEnd) && !p.at(token.RParen) {
		start := p.pos
		p.resyncUntil(token.Colon, token.KwEnd)
		if !p.accept(token.Colon) {
			break
		}
		if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' in variant"); !ok {
			p.skipStatement()
			continue
		}
		for !p.at(token.EOF) && !p.at(token.RParen) {
			inner := p.pos
			if p.at(token.KwCase) {
				decls = append(decls, p.parseVariantPart()...)
			} else {
				decls = append(decls, p.parseFields(false)...)
			}
			if p.pos == inner {
				p.advance()
			}
		}
		p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after variant")
		p.accept(token.Semicolon)
		if p.pos == start {
			p.advance()
		}
	}
	return decls
}

// parseProperty reads property Name[Params]: T specifiers; [default;]
func (p *Parser) parseProperty() *ast.PropertyDecl {
	p.advance()
	name, ok := p.memberIdent()
	if !ok {
		p.skipStatement()
		return nil
	}
	d := &ast.PropertyDecl{Name: name}
	if p.at(token.LBracket) {
		d.Params = p.parseParams(token.LBracket, token.RBracket)
	}
	if p.accept(token.Colon) {
		d.Type = p.parseType()
	}
	for !p.at(token.EOF) && !p.at(token.Semicolon) && !p.at(token.KwEnd) {
		start := p.pos
		word := lower(p.peek().Text)
		switch {
		case !p.at(token.Ident):
			p.err(diag.SynUnexpectedToken, "unexpected "+p.describe()+" in property")
			p.advance()
		case word == "read", word == "write", word == "stored", word == "implements",
			word == "add", word == "remove":
			p.advance()
			d.Refs = append(d.Refs, p.scanRefsFunc(p.propertyStop)...)
		case word == "index", word == "default", word == "dispid":
			p.advance()
			if word == "default" && p.at(token.Semicolon) {
				break
			}
			d.Refs = append(d.Refs, p.parseConstExprFunc(p.propertyStop).Refs...)
		default:
			// nodefault, readonly, writeonly
			p.advance()
		}
		if p.pos == start {
			p.advance()
		}
	}
	if !p.at(token.KwEnd) {
		p.expectSemicolon()
	}
	if p.atIdent("default") && p.peekAt(1).Kind == token.Semicolon {
		p.advance()
		p.advance()
		d.Default = true
	}
	p.skipHints()
	return d
}

var propertySpecifiers = map[string]bool{
	"read": true, "write": true, "stored": true, "implements": true, "index": true,
	"default": true, "nodefault": true, "readonly": true, "writeonly": true,
	"dispid": true, "add": true, "remove": true,
}

func (p *Parser) propertyStop(depth int, tok token.Token) bool {
	if depth > 0 {
		return false
	}
	switch tok.Kind {
	case token.Semicolon, token.KwEnd, token.EOF:
		return true
	case token.Ident:
		return propertySpecifiers[lower(tok.Text)]
	}
	return false
}
