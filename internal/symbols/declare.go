package symbols

import (
	"fmt"
	"strings"

	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/names"
	"pasfront/internal/source"
	"pasfront/internal/types"
)

// declarer runs phase one for a unit: it opens scopes and publishes
// declarations. Bodies are not looked at beyond collecting their name
// references.
type declarer struct {
	b        *Builder
	t        *Table
	u        *Unit
	exported bool // declaring the interface section
}

func newDeclarer(b *Builder, u *Unit) *declarer {
	return &declarer{b: b, t: b.table, u: u}
}

func (d *declarer) sym(id SymbolID) *Symbol { return d.t.Symbols.Get(id) }

func (d *declarer) newSym(name ast.Ident, kind SymbolKind) *Symbol {
	return &Symbol{Name: name.Name, Kind: kind, Span: name.Span, Line: name.Line, Col: name.Col}
}

func (d *declarer) declareUnit() error {
	f := d.u.File
	d.u.Scope = d.t.Scopes.New(ScopeUnit, NoScopeID, d.u, NoSymbolID, unitSpan(f))

	us := &Symbol{Name: d.u.Name, Kind: SymbolUnit, Scope: d.u.Scope, Unit: d.u, Members: d.u.Scope, Flags: FlagExported}
	if len(f.Name) > 0 {
		us.Span, us.Line, us.Col = f.Name[0].Span, f.Name[0].Line, f.Name[0].Col
	}
	if d.u.Stdlib {
		us.Flags |= FlagStdlib
	}
	d.u.Symbol = d.t.Symbols.New(us)
	// unit names resolve through the table, not the name index
	sc := d.t.Scopes.Get(d.u.Scope)
	sc.Symbols = append(sc.Symbols, d.u.Symbol)

	if f.Interface != nil {
		d.exported = f.Kind == ast.UnitUnit
		if err := d.declareDecls(d.u.Scope, f.Interface.Decls, ast.VisDefault); err != nil {
			return err
		}
	}
	if f.Implementation != nil {
		d.exported = false
		if err := d.declareDecls(d.u.Scope, f.Implementation.Decls, ast.VisDefault); err != nil {
			return err
		}
	}
	d.exported = false
	for _, blk := range []*ast.Block{f.Init, f.Final} {
		if blk != nil {
			d.queue(d.u.Scope, blk.Refs)
		}
	}
	return nil
}

func unitSpan(f *ast.File) (span source.Span) {
	if len(f.Name) > 0 {
		span = f.Name[0].Span
	}
	return span
}

// queue records references for phase two.
func (d *declarer) queue(scope ScopeID, refs []*ast.NameRef) {
	if len(refs) == 0 {
		return
	}
	d.u.pending = append(d.u.pending, pendingRefs{scope: scope, refs: refs, impl: !d.exported})
}

// declare publishes sym in scope. Any name clash other than routine
// overloads and generic types of different arity aborts the build.
func (d *declarer) declare(scope ScopeID, sym *Symbol) (SymbolID, error) {
	sc := d.t.Scopes.Get(scope)
	for _, id := range sc.Lookup(sym.Name) {
		prev := d.sym(id)
		if canShareName(prev, sym) {
			continue
		}
		diag.ReportError(d.b.reporter, diag.SemaDuplicateSymbol, sym.Span,
			fmt.Sprintf("%s %s is already declared", sym.Kind, sym.Name)).
			WithNote(prev.Span, "previous declaration").
			Emit()
		return NoSymbolID, &BuildError{
			Path: d.u.Path,
			Err:  fmt.Errorf("%w: %s at %d:%d", ErrDuplicate, sym.Name, sym.Line, sym.Col),
		}
	}
	sym.Scope = scope
	sym.Unit = d.u
	if d.u.Stdlib {
		sym.Flags |= FlagStdlib
	}
	if d.exported && sc.Kind == ScopeUnit {
		sym.Flags |= FlagExported
	}
	id := d.t.Symbols.New(sym)
	d.t.Scopes.insert(scope, sym.Name, id)
	return id, nil
}

func canShareName(prev, next *Symbol) bool {
	switch {
	case prev.Kind == SymbolRoutine && next.Kind == SymbolRoutine:
		return true
	case prev.Kind == SymbolType && next.Kind == SymbolType:
		return declArity(prev) != declArity(next)
	}
	return false
}

func declArity(s *Symbol) int {
	if td, ok := s.Decl.(*ast.TypeDecl); ok {
		return len(td.TypeParams)
	}
	return 0
}

func (d *declarer) declareDecls(scope ScopeID, decls []ast.Decl, vis ast.Visibility) error {
	for _, decl := range decls {
		if err := d.declareDecl(scope, decl, vis); err != nil {
			return err
		}
	}
	return nil
}

func (d *declarer) declareDecl(scope ScopeID, decl ast.Decl, vis ast.Visibility) error {
	switch x := decl.(type) {
	case *ast.TypeDecl:
		return d.declareType(scope, x, vis)
	case *ast.RoutineDecl:
		return d.declareRoutine(scope, x, vis)
	case *ast.ConstDecl:
		s := d.newSym(x.Name, SymbolConst)
		s.Decl, s.expr, s.Visibility = x, x.Type, visibility(vis)
		if x.Resource {
			s.Flags |= FlagResource
		}
		if _, err := d.declare(scope, s); err != nil {
			return err
		}
		if x.Value != nil {
			d.queue(scope, x.Value.Refs)
		}
		return d.declareAnonymousEnum(scope, x.Type)
	case *ast.VarDecl:
		s := d.newSym(x.Name, SymbolVar)
		s.Decl, s.expr, s.Visibility = x, x.Type, visibility(vis)
		if x.Thread {
			s.Flags |= FlagThread
		}
		if _, err := d.declare(scope, s); err != nil {
			return err
		}
		d.queue(scope, x.Refs)
		return d.declareAnonymousEnum(scope, x.Type)
	case *ast.FieldDecl:
		s := d.newSym(x.Name, SymbolField)
		s.Decl, s.expr, s.Visibility = x, x.Type, visibility(vis)
		if x.Class {
			s.Flags |= FlagClass
		}
		if _, err := d.declare(scope, s); err != nil {
			return err
		}
		return d.declareAnonymousEnum(scope, x.Type)
	case *ast.PropertyDecl:
		s := d.newSym(x.Name, SymbolProperty)
		s.Decl, s.expr, s.Visibility = x, x.Type, visibility(vis)
		if x.Class {
			s.Flags |= FlagClass
		}
		if _, err := d.declare(scope, s); err != nil {
			return err
		}
		d.queue(scope, x.Refs)
	}
	return nil
}

func visibility(v ast.Visibility) types.Visibility {
	switch v {
	case ast.VisPublished:
		return types.VisPublished
	case ast.VisProtected:
		return types.VisProtected
	case ast.VisStrictProtected:
		return types.VisStrictProtected
	case ast.VisPrivate:
		return types.VisPrivate
	case ast.VisStrictPrivate:
		return types.VisStrictPrivate
	default:
		return types.VisPublic
	}
}

func (d *declarer) declareType(scope ScopeID, x *ast.TypeDecl, vis ast.Visibility) error {
	st, isStruct := x.Type.(*ast.StructType)

	// class TFoo = class; ... TFoo = class(TBase) ... end
	if isStruct && !st.Forward {
		for _, id := range d.t.Scopes.Get(scope).Lookup(x.Name.Name) {
			prev := d.sym(id)
			if prev.Kind != SymbolType || prev.Flags&FlagForward == 0 || declArity(prev) != len(x.TypeParams) {
				continue
			}
			prev.Decl = x
			prev.Flags &^= FlagForward
			prev.Span, prev.Line, prev.Col = x.Name.Span, x.Name.Line, x.Name.Col
			return d.declareMembers(id, st)
		}
	}

	s := d.newSym(x.Name, SymbolType)
	s.Decl, s.Visibility = x, visibility(vis)
	if isStruct && st.Forward {
		s.Flags |= FlagForward
	}
	if len(x.TypeParams) > 0 {
		s.Flags |= FlagGeneric
	}
	id, err := d.declare(scope, s)
	if err != nil {
		return err
	}
	members := d.t.Scopes.New(ScopeType, scope, d.u, id, x.Name.Span)
	d.sym(id).Members = members

	for _, tp := range x.TypeParams {
		pid, err := d.declare(members, d.newSym(tp.Name, SymbolTypeParam))
		if err != nil {
			return err
		}
		d.sym(id).TypeParams = append(d.sym(id).TypeParams, pid)
	}

	switch t := x.Type.(type) {
	case *ast.EnumType:
		return d.declareEnum(scope, members, x.Name, t)
	case *ast.StructType:
		return d.declareMembers(id, t)
	case *ast.ArrayType, *ast.SetType, *ast.PointerType:
		return d.declareAnonymousEnum(scope, t)
	}
	return nil
}

func (d *declarer) declareMembers(id SymbolID, st *ast.StructType) error {
	members := d.sym(id).Members
	for _, m := range st.Members {
		if err := d.declareDecl(members, m.Decl, m.Visibility); err != nil {
			return err
		}
	}
	return nil
}

// declareEnum declares the elements in the type scope and, unless
// $SCOPEDENUMS is on, in the enclosing scope too.
func (d *declarer) declareEnum(scope, members ScopeID, at ast.Ident, en *ast.EnumType) error {
	scoped := d.u.SwitchAt(directive.SwitchScopedEnums, at).Active
	ids := make([]SymbolID, 0, len(en.Elements))
	for i, el := range en.Elements {
		e := d.newSym(el, SymbolEnumElement)
		if i < len(en.Values) {
			e.Ordinal = en.Values[i]
		}
		target := scope
		if scoped && members.IsValid() {
			target = members
		}
		id, err := d.declare(target, e)
		if err != nil {
			return err
		}
		if members.IsValid() {
			d.b.enumOwner[id] = d.t.Scopes.Get(members).Owner
			if target != members {
				d.t.Scopes.insert(members, el.Name, id)
			}
		}
		ids = append(ids, id)
	}
	d.b.enumElems[en] = ids
	return nil
}

// declareAnonymousEnum handles var X: (A, B) and set of (A, B).
func (d *declarer) declareAnonymousEnum(scope ScopeID, t ast.TypeExpr) error {
	for t != nil {
		switch x := t.(type) {
		case *ast.EnumType:
			return d.declareEnum(scope, NoScopeID, x.Open, x)
		case *ast.SetType:
			t = x.Elem
		case *ast.ArrayType:
			t = x.Elem
		default:
			return nil
		}
	}
	return nil
}

func (d *declarer) declareRoutine(scope ScopeID, x *ast.RoutineDecl, vis ast.Visibility) error {
	if len(x.Owner) > 0 {
		return d.declareMethodBody(scope, x)
	}
	sc := d.t.Scopes.Get(scope)
	if x.Body != nil && sc.Kind != ScopeType {
		if id := d.findDecl(sc.Lookup(x.Name.Name), x); id.IsValid() {
			return d.attach(id, x, scope)
		}
	}

	s := d.newSym(x.Name, SymbolRoutine)
	s.Decl, s.Visibility = x, visibility(vis)
	s.Routine = &Routine{Kind: x.Kind, Decl: x}
	if sc.Kind == ScopeType {
		s.Routine.Owner = sc.Owner
	}
	if x.Class {
		s.Flags |= FlagClass
	}
	if x.HasDirective("overload") {
		s.Flags |= FlagOverload
	}
	if len(x.TypeParams) > 0 {
		s.Flags |= FlagGeneric
	}
	id, err := d.declare(scope, s)
	if err != nil {
		return err
	}
	if x.Body != nil {
		d.sym(id).Routine.Impl = x
	}
	if len(x.TypeParams) > 0 || x.Body != nil {
		return d.openRoutine(id, x, scope)
	}
	return nil
}

// declareMethodBody attaches TFoo.Bar to the declaration of Bar in TFoo.
func (d *declarer) declareMethodBody(scope ScopeID, x *ast.RoutineDecl) error {
	owner := d.findOwner(scope, x.Owner)
	if !owner.IsValid() {
		diag.ReportError(d.b.reporter, diag.SemaUnresolvedType, x.Owner[0].Span,
			fmt.Sprintf("type %s of method %s not found", ast.JoinIdents(x.Owner), x.Name.Name)).Emit()
		return nil
	}
	members := d.sym(owner).Members
	id := d.findDecl(d.t.Scopes.Get(members).Lookup(x.Name.Name), x)
	if !id.IsValid() {
		diag.ReportError(d.b.reporter, diag.SemaMissingImplementation, x.Name.Span,
			fmt.Sprintf("%s.%s is not declared in %s", ast.JoinIdents(x.Owner), x.Name.Name, ast.JoinIdents(x.Owner))).Emit()
		return nil
	}
	return d.attach(id, x, members)
}

// findOwner walks TOuter.TInner from scope outwards.
func (d *declarer) findOwner(scope ScopeID, path []ast.Ident) SymbolID {
	var cur SymbolID
	for cs := scope; cs.IsValid() && !cur.IsValid(); cs = d.t.Scopes.Get(cs).Parent {
		cur = d.typeIn(cs, path[0].Name)
	}
	for _, part := range path[1:] {
		if !cur.IsValid() {
			break
		}
		cur = d.typeIn(d.sym(cur).Members, part.Name)
	}
	return cur
}

func (d *declarer) typeIn(scope ScopeID, name string) SymbolID {
	for _, id := range d.t.Scopes.Get(scope).Lookup(name) {
		if d.sym(id).Kind == SymbolType {
			return id
		}
	}
	return NoSymbolID
}

// findDecl picks the declaration an implementation belongs to: the only
// candidate when the heading omits the signature, otherwise the one with
// the same parameter list.
func (d *declarer) findDecl(cands []SymbolID, x *ast.RoutineDecl) SymbolID {
	var free []SymbolID
	for _, id := range cands {
		s := d.sym(id)
		if s.Kind != SymbolRoutine || s.Routine.Impl != nil || s.Routine.Decl.HasDirective("external") {
			continue
		}
		free = append(free, id)
	}
	if len(free) == 1 && len(x.Params) == 0 && x.Result == nil {
		return free[0]
	}
	for _, id := range free {
		if sameSignature(d.sym(id).Routine.Decl, x) {
			return id
		}
	}
	if len(free) == 1 && len(d.sym(free[0]).Routine.Decl.Params) == len(x.Params) {
		return free[0]
	}
	return NoSymbolID
}

func sameSignature(a, b *ast.RoutineDecl) bool {
	if len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		pa, pb := a.Params[i], b.Params[i]
		if pa.Mode != pb.Mode || !names.Equal(typeText(pa.Type), typeText(pb.Type)) {
			return false
		}
	}
	return names.Equal(typeText(a.Result), typeText(b.Result))
}

// typeText renders a type expression for signature comparison. Unit
// qualifiers are dropped so System.Integer matches Integer.
func typeText(t ast.TypeExpr) string {
	switch x := t.(type) {
	case nil:
		return ""
	case *ast.NamedType:
		if len(x.Name) == 0 {
			return ""
		}
		s := x.Name[len(x.Name)-1].Name
		if len(x.Args) > 0 {
			args := make([]string, len(x.Args))
			for i, a := range x.Args {
				args[i] = typeText(a)
			}
			s += "<" + strings.Join(args, ",") + ">"
		}
		return s
	case *ast.PointerType:
		return "^" + typeText(x.Elem)
	case *ast.ArrayType:
		if x.OfConst {
			return "array of const"
		}
		return "array of " + typeText(x.Elem)
	case *ast.ShortStringType:
		return fmt.Sprintf("string[%d]", x.Length)
	default:
		return fmt.Sprintf("%T", t)
	}
}

// attach records x as the implementation of the routine id.
func (d *declarer) attach(id SymbolID, x *ast.RoutineDecl, parent ScopeID) error {
	d.sym(id).Routine.Impl = x
	exported := d.exported
	d.exported = false
	defer func() { d.exported = exported }()
	return d.openRoutine(id, x, parent)
}

// openRoutine creates the routine scope on first use: type parameters
// of the first declaration, then, for a body, parameters, Result and
// locals.
func (d *declarer) openRoutine(id SymbolID, x *ast.RoutineDecl, parent ScopeID) error {
	rs := d.sym(id).Members
	if !rs.IsValid() {
		rs = d.t.Scopes.New(ScopeRoutine, parent, d.u, id, x.Name.Span)
		d.sym(id).Members = rs
		for _, tp := range d.sym(id).Routine.Decl.TypeParams {
			pid, err := d.declare(rs, d.newSym(tp.Name, SymbolTypeParam))
			if err != nil {
				return err
			}
			d.sym(id).TypeParams = append(d.sym(id).TypeParams, pid)
		}
	}
	if x.Body == nil {
		return nil
	}

	decl := d.sym(id).Routine.Decl
	params := x.Params
	if len(params) == 0 && x.Result == nil {
		params = decl.Params
	}
	for _, p := range params {
		ps := d.newSym(p.Name, SymbolParam)
		ps.expr = p.Type
		if _, err := d.declare(rs, ps); err != nil {
			return err
		}
	}
	result := x.Result
	if result == nil {
		result = decl.Result
	}
	if result != nil && len(d.t.Scopes.Get(rs).Lookup("Result")) == 0 {
		r := d.newSym(ast.Ident{Name: "Result", Span: x.Name.Span, Line: x.Name.Line, Col: x.Name.Col}, SymbolVar)
		r.expr = result
		r.Flags |= FlagImplicit
		if _, err := d.declare(rs, r); err != nil {
			return err
		}
	}

	exported := d.exported
	d.exported = false
	defer func() { d.exported = exported }()
	if err := d.declareDecls(rs, x.Locals, ast.VisDefault); err != nil {
		return err
	}
	d.queue(rs, x.Body.Refs)
	return nil
}
