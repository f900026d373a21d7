package symbols

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"fortio.org/safecast"

	"pasfront/internal/ast"
	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/trace"
	"pasfront/internal/types"
)

// typeResolver gives declarations their types. The builder runs one over
// the whole table between the two halves of phase two; reference
// resolvers use a frozen one, which never touches symbols or reports.
type typeResolver struct {
	b      *Builder
	t      *Table
	f      *types.Factory
	frozen bool
	active map[SymbolID]bool
	done   map[SymbolID]bool
}

// typeCtx is where a type expression is written.
type typeCtx struct {
	unit  *Unit
	scope ScopeID
	impl  bool
	param bool   // parameter types: array of T is an open array
	name  string // image of the declared type, empty inside expressions
}

func (c typeCtx) anon() typeCtx {
	c.name, c.param = "", false
	return c
}

func newTypeResolver(b *Builder, frozen bool) *typeResolver {
	return &typeResolver{
		b:      b,
		t:      b.table,
		f:      b.table.Factory,
		frozen: frozen,
		active: make(map[SymbolID]bool),
		done:   make(map[SymbolID]bool),
	}
}

// resolveTypes creates the factory types of every declaration: structured
// shells and type parameters first, so declarations may refer to each
// other in any order, then constraints, aliases and other named types,
// ancestors and helpers, value types and finally the member lists.
func (b *Builder) resolveTypes() {
	span := trace.Begin(b.tracer, trace.ScopePass, "types")
	r := newTypeResolver(b, false)
	r.each(r.shell)
	r.each(r.constraints)
	r.each(func(id SymbolID) {
		if r.sym(id).Kind == SymbolType {
			r.typeOf(id)
		}
	})
	r.each(r.complete)
	r.each(func(id SymbolID) {
		switch r.sym(id).Kind {
		case SymbolUnit, SymbolType, SymbolTypeParam:
		default:
			r.valueType(id)
		}
	})
	r.each(r.publishMembers)
	r.f.RefreshInstances()
	span.End(fmt.Sprintf("%d types", r.f.Len()))
}

func (r *typeResolver) sym(id SymbolID) *Symbol { return r.t.Symbols.Get(id) }

func (r *typeResolver) each(fn func(SymbolID)) {
	n, err := safecast.Conv[uint32](r.t.Symbols.Len())
	if err != nil {
		panic(fmt.Errorf("symbols arena overflow: %w", err))
	}
	for id := SymbolID(1); uint32(id) <= n; id++ {
		fn(id)
	}
}

// image is the factory name of a declared type: Unit.Outer.Name<T,U>.
func (r *typeResolver) image(id SymbolID) string {
	s := r.sym(id)
	name := r.t.QualifiedName(id)
	if len(s.TypeParams) == 0 || s.Kind != SymbolType {
		return name
	}
	params := make([]string, len(s.TypeParams))
	for i, tp := range s.TypeParams {
		params[i] = r.sym(tp).Name
	}
	return name + "<" + strings.Join(params, ",") + ">"
}

// ctxOf is the context the declared type of id is written in.
func (r *typeResolver) ctxOf(id SymbolID) typeCtx {
	s := r.sym(id)
	c := typeCtx{unit: s.Unit, scope: s.Scope, impl: r.implContext(s)}
	switch s.Kind {
	case SymbolType:
		c.scope = s.Members
	case SymbolRoutine:
		if len(s.TypeParams) > 0 {
			c.scope = s.Members
		}
	}
	return c
}

// implContext reports whether s is declared where implementation uses are
// visible: anywhere but the interface section of a unit.
func (r *typeResolver) implContext(s *Symbol) bool {
	if s.Unit == nil || s.Unit.Kind != ast.UnitUnit {
		return true
	}
	for cur := s; ; {
		sc := r.t.Scopes.Get(cur.Scope)
		switch {
		case sc == nil, sc.Kind == ScopeRoutine, sc.Kind == ScopeBlock:
			return true
		case sc.Kind == ScopeUnit:
			return !cur.Exported()
		}
		if cur = r.sym(sc.Owner); cur == nil {
			return true
		}
	}
}

// shell creates the factory type of records, classes and interfaces and
// the type parameters of generic types and routines.
func (r *typeResolver) shell(id SymbolID) {
	s := r.sym(id)
	if s.Kind != SymbolType && s.Kind != SymbolRoutine {
		return
	}
	if td, ok := s.Decl.(*ast.TypeDecl); ok && s.Kind == SymbolType {
		if st, ok := td.Type.(*ast.StructType); ok {
			image := r.image(id)
			var ty types.TypeID
			switch st.Kind {
			case ast.StructClass, ast.StructObject, ast.StructClassHelper:
				ty = r.f.Class(image, types.NoTypeID)
			case ast.StructInterface, ast.StructDispInterface:
				ty = r.f.Interface(image, types.NoTypeID)
			default:
				align := s.Unit.SwitchAt(directive.SwitchAlign, td.Name).Value
				ty = r.f.Record(image, nil, st.Packed, align)
			}
			r.sym(id).Type = ty
			r.t.typeSyms[ty] = id
		}
	}
	if len(s.TypeParams) == 0 {
		return
	}
	owner := r.t.QualifiedName(id)
	params := make([]types.TypeID, len(s.TypeParams))
	for i, tp := range s.TypeParams {
		params[i] = r.f.TypeParameter(owner, r.sym(tp).Name)
		r.sym(tp).Type = params[i]
	}
	if ty := r.sym(id).Type; ty != types.NoTypeID {
		r.f.SetTypeParams(ty, params)
	}
}

// constraints attaches the constraints of generic parameters.
func (r *typeResolver) constraints(id SymbolID) {
	s := r.sym(id)
	if len(s.TypeParams) == 0 {
		return
	}
	var decl []ast.TypeParam
	switch {
	case s.Routine != nil:
		decl = s.Routine.Decl.TypeParams
	default:
		if td, ok := s.Decl.(*ast.TypeDecl); ok {
			decl = td.TypeParams
		}
	}
	c := r.ctxOf(id)
	for i, tp := range s.TypeParams {
		if i >= len(decl) || len(decl[i].Constraints) == 0 {
			continue
		}
		cons := make([]types.Constraint, 0, len(decl[i].Constraints))
		for _, ce := range decl[i].Constraints {
			switch ce.Kind {
			case ast.ConstraintType:
				cons = append(cons, types.TypeConstraint(r.resolveExpr(ce.Type, c.anon())))
			case ast.ConstraintClass:
				cons = append(cons, types.ClassConstraint)
			case ast.ConstraintConstructor:
				cons = append(cons, types.ConstructorConstraint)
			case ast.ConstraintRecord:
				cons = append(cons, types.RecordConstraint)
			}
		}
		r.f.SetConstraints(r.sym(tp).Type, cons)
	}
}

// typeOf returns the type a type declaration denotes, resolving it on
// first use.
func (r *typeResolver) typeOf(id SymbolID) types.TypeID {
	s := r.sym(id)
	if s.Type != types.NoTypeID || r.frozen {
		return s.Type
	}
	if r.active[id] {
		if !s.Unit.Stdlib {
			diag.ReportError(r.b.reporter, diag.SemaCircularType, s.Span,
				fmt.Sprintf("type %s is defined in terms of itself", s.Name)).Emit()
		}
		return r.f.Unresolved(r.t.QualifiedName(id))
	}
	td, ok := s.Decl.(*ast.TypeDecl)
	if !ok {
		return r.f.Unknown()
	}
	r.active[id] = true
	defer delete(r.active, id)

	image := r.image(id)
	c := r.ctxOf(id)
	c.name = image
	ty := r.resolveExpr(td.Type, c)
	s = r.sym(id)
	if s.Type != types.NoTypeID {
		// reached through a cycle and already settled
		return s.Type
	}
	s.Type = ty
	if strings.EqualFold(r.f.Image(ty), image) {
		r.t.typeSyms[ty] = id
	}
	if len(s.TypeParams) > 0 && r.f.Kind(ty) == types.KindProcedural {
		params := make([]types.TypeID, len(s.TypeParams))
		for i, tp := range s.TypeParams {
			params[i] = r.sym(tp).Type
		}
		r.f.SetTypeParams(ty, params)
	}
	return ty
}

// complete records ancestors, implemented interfaces and helper targets.
// Classes without a class ancestor descend from TObject, interfaces from
// IInterface.
func (r *typeResolver) complete(id SymbolID) {
	s := r.sym(id)
	if s.Kind != SymbolType {
		return
	}
	td, ok := s.Decl.(*ast.TypeDecl)
	if !ok {
		return
	}
	st, ok := td.Type.(*ast.StructType)
	if !ok {
		return
	}
	ty := s.Type
	c := r.ctxOf(id)
	switch st.Kind {
	case ast.StructClass, ast.StructObject:
		hasParent := false
		for i, p := range st.Parents {
			pt := r.resolveExpr(p, c.anon())
			switch {
			case i == 0 && r.f.IsClass(pt):
				r.f.SetParent(ty, pt)
				hasParent = true
			case r.f.IsInterface(pt):
				r.f.AddInterface(ty, pt)
			}
		}
		if !hasParent && st.Kind == ast.StructClass && !st.Forward {
			if root := r.systemType("TObject"); root != types.NoTypeID {
				r.f.SetParent(ty, root)
			}
		}
	case ast.StructInterface, ast.StructDispInterface:
		hasParent := false
		if len(st.Parents) > 0 {
			if pt := r.resolveExpr(st.Parents[0], c.anon()); r.f.IsInterface(pt) {
				r.f.SetParent(ty, pt)
				hasParent = true
			}
		}
		if !hasParent && !st.Forward {
			if root := r.systemType("IInterface"); root != types.NoTypeID {
				r.f.SetParent(ty, r.f.FindBaseType(root))
			}
		}
	case ast.StructClassHelper, ast.StructRecordHelper:
		if len(st.Parents) > 0 {
			if pt := r.resolveExpr(st.Parents[0], c.anon()); r.f.IsClass(pt) {
				r.f.SetParent(ty, pt)
			}
		}
		if st.HelperFor == nil {
			return
		}
		target := r.resolveExpr(st.HelperFor, c.anon())
		r.f.SetHelperFor(ty, target)
		key := r.t.memberHost(target)
		if generic, _ := r.f.GenericOf(key); generic != types.NoTypeID {
			key = generic
		}
		if key != types.NoTypeID {
			r.t.helpers[key] = append(r.t.helpers[key], id)
		}
	}
}

// systemType returns a type declared by the System unit.
func (r *typeResolver) systemType(name string) types.TypeID {
	if r.t.system == nil {
		return types.NoTypeID
	}
	ids := r.t.exportedIn(r.t.system, name, isTypeSym)
	if len(ids) == 0 {
		return types.NoTypeID
	}
	return r.symbolType(ids[0])
}

func (r *typeResolver) symbolType(id SymbolID) types.TypeID {
	if s := r.sym(id); s.Kind == SymbolType {
		return r.typeOf(id)
	}
	return r.sym(id).Type
}

// valueType resolves the declared type of a value, the signature of a
// routine or the type of an enum element.
func (r *typeResolver) valueType(id SymbolID) types.TypeID {
	s := r.sym(id)
	if r.done[id] || r.frozen {
		return s.Type
	}
	if r.active[id] {
		return r.f.Unknown()
	}
	r.active[id] = true
	defer delete(r.active, id)

	c := r.ctxOf(id)
	var ty types.TypeID
	switch s.Kind {
	case SymbolConst:
		if s.expr != nil {
			ty = r.resolveExpr(s.expr, c)
		} else if cd, ok := s.Decl.(*ast.ConstDecl); ok {
			ty = r.constType(cd.Value, c)
		}
	case SymbolVar, SymbolField:
		ty = r.resolveExpr(s.expr, c)
	case SymbolParam:
		c.param = true
		ty = r.resolveExpr(s.expr, c)
	case SymbolProperty:
		ty = r.property(id, c)
	case SymbolRoutine:
		ty = r.routine(id, c)
	case SymbolEnumElement:
		if s.Type == types.NoTypeID {
			if owner, ok := r.b.enumOwner[id]; ok && owner.IsValid() {
				r.typeOf(owner)
			}
		}
		ty = r.sym(id).Type
		if ty == types.NoTypeID {
			ty = r.f.Unknown()
		}
	case SymbolType:
		ty = r.typeOf(id)
	default:
		return s.Type
	}
	r.sym(id).Type = ty
	r.done[id] = true
	return ty
}

// property resolves a property type. A redeclared property without a
// type takes the type of the inherited one.
func (r *typeResolver) property(id SymbolID, c typeCtx) types.TypeID {
	s := r.sym(id)
	pd, _ := s.Decl.(*ast.PropertyDecl)
	if pd != nil && len(pd.Params) > 0 {
		r.sym(id).Params = r.params(pd.Params, c)
	}
	if s.expr != nil {
		return r.resolveExpr(s.expr, c)
	}
	sc := r.t.Scopes.Get(s.Scope)
	if sc == nil || !sc.Owner.IsValid() {
		return r.f.Unknown()
	}
	owner := r.typeOf(sc.Owner)
	isProp := func(p *Symbol) bool { return p.Kind == SymbolProperty }
	if ids := r.t.inherited(owner, s.Name, isProp); len(ids) > 0 {
		inh := r.sym(ids[0])
		ty := r.valueType(ids[0])
		if len(r.sym(id).Params) == 0 {
			r.sym(id).Params = inh.Params
		}
		return ty
	}
	return r.f.Unknown()
}

// routine resolves parameters and result of a routine. The result of a
// procedure is NoTypeID; constructors return their class.
func (r *typeResolver) routine(id SymbolID, c typeCtx) types.TypeID {
	rt := r.sym(id).Routine
	params := r.params(rt.Decl.Params, c)
	result := types.NoTypeID
	expr := rt.Decl.Result
	if expr == nil && rt.Impl != nil {
		expr = rt.Impl.Result
	}
	switch {
	case expr != nil:
		result = r.resolveExpr(expr, c)
	case rt.Kind == ast.RoutineConstructor && rt.Owner.IsValid():
		result = r.typeOf(rt.Owner)
	}
	rt = r.sym(id).Routine
	rt.Params, rt.Result = params, result
	return result
}

func (r *typeResolver) params(ps []ast.Param, c typeCtx) []types.Param {
	out := make([]types.Param, len(ps))
	pc := c.anon()
	pc.param = true
	for i, p := range ps {
		ty := r.f.Untyped()
		if p.Type != nil {
			ty = r.resolveExpr(p.Type, pc)
		}
		out[i] = types.Param{Name: p.Name.Name, Type: ty, Mode: paramMode(p.Mode), HasDefault: p.Default}
	}
	return out
}

func paramMode(m ast.ParamMode) types.ParamMode {
	switch m {
	case ast.ParamConst:
		return types.ParamConst
	case ast.ParamVar:
		return types.ParamVar
	case ast.ParamOut:
		return types.ParamOut
	default:
		return types.ParamValue
	}
}

// constType is the type of an untyped constant, taken from its folded
// value or from the constant it copies.
func (r *typeResolver) constType(v *ast.ConstValue, c typeCtx) types.TypeID {
	if v == nil {
		return r.f.Untyped()
	}
	intrinsic := func(name string) types.TypeID {
		if id, ok := r.f.Intrinsic(name); ok {
			return id
		}
		return r.f.Unknown()
	}
	switch v.Kind {
	case ast.ValueInt:
		if v.Int < math.MinInt32 || v.Int > math.MaxInt32 {
			return intrinsic("Int64")
		}
		return intrinsic("Integer")
	case ast.ValueReal:
		return intrinsic("Extended")
	case ast.ValueString:
		return intrinsic("String")
	case ast.ValueChar:
		return intrinsic("Char")
	case ast.ValueBool:
		return intrinsic("Boolean")
	case ast.ValueNil:
		return r.f.Nil()
	}
	if len(v.Refs) == 1 && len(v.Refs[0].Parts) == 1 {
		isValue := func(s *Symbol) bool { return s.Kind == SymbolConst || s.Kind == SymbolEnumElement }
		if ids := r.t.lookup(c.scope, v.Refs[0].Parts[0].Name.Name, c.impl, isValue); len(ids) > 0 {
			return r.valueType(ids[0])
		}
	}
	return r.f.Untyped()
}

// publishMembers copies the members of a record, class or interface into
// its factory type, in declaration order.
func (r *typeResolver) publishMembers(id SymbolID) {
	s := r.sym(id)
	if s.Kind != SymbolType || s.Type == types.NoTypeID {
		return
	}
	td, ok := s.Decl.(*ast.TypeDecl)
	if !ok {
		return
	}
	if _, ok := td.Type.(*ast.StructType); !ok {
		return
	}
	for _, mid := range r.t.Declarations(s.Members) {
		ms := r.sym(mid)
		m := types.Member{Name: ms.Name, Visibility: ms.Visibility, Static: ms.Flags&FlagClass != 0}
		switch ms.Kind {
		case SymbolField:
			m.Kind, m.Type = types.MemberField, ms.Type
		case SymbolConst:
			m.Kind, m.Type = types.MemberConst, ms.Type
		case SymbolProperty:
			m.Kind, m.Type, m.Params = types.MemberProperty, ms.Type, ms.Params
		case SymbolRoutine:
			m.Type, m.Params = ms.Routine.Result, ms.Routine.Params
			switch ms.Routine.Kind {
			case ast.RoutineConstructor:
				m.Kind = types.MemberConstructor
			case ast.RoutineDestructor:
				m.Kind = types.MemberDestructor
			case ast.RoutineOperator:
				m.Kind = types.MemberOperator
			default:
				m.Kind = types.MemberMethod
			}
		default:
			continue
		}
		r.f.AddMember(s.Type, m)
	}
}

// resolveExpr builds the factory type of a type expression.
func (r *typeResolver) resolveExpr(e ast.TypeExpr, c typeCtx) types.TypeID {
	switch x := e.(type) {
	case nil:
		return r.f.Untyped()
	case *ast.NamedType:
		return r.alias(c, r.named(x, c))
	case *ast.PointerType:
		return r.alias(c, r.f.PointerTo(r.resolveExpr(x.Elem, c.anon())))
	case *ast.ArrayType:
		return r.array(x, c)
	case *ast.SetType:
		return r.f.Set(c.name, r.resolveExpr(x.Elem, c.anon()))
	case *ast.EnumType:
		return r.enum(x, c)
	case *ast.SubrangeType:
		return r.subrange(x, c)
	case *ast.ShortStringType:
		id, ok := r.f.Intrinsic("ShortString")
		if !ok {
			return r.f.Unknown()
		}
		return r.alias(c, id)
	case *ast.StructType:
		return r.anonymousRecord(x, c)
	case *ast.ClassRefType:
		return r.f.ClassReference(c.name, r.resolveExpr(x.Of, c.anon()))
	case *ast.ProcType:
		info := types.ProcInfo{OfObject: x.OfObject, IsReference: x.Reference}
		info.Params = r.params(x.Params, c)
		if x.Result != nil {
			info.Result = r.resolveExpr(x.Result, c.anon())
		}
		return r.f.Procedural(c.name, info)
	case *ast.StrongAlias:
		target := r.resolveExpr(x.Target, c.anon())
		if c.name == "" {
			return target
		}
		return r.f.StrongAlias(c.name, target)
	default:
		return r.f.Unknown()
	}
}

// alias names ty after the declaration when ty is written in one.
func (r *typeResolver) alias(c typeCtx, ty types.TypeID) types.TypeID {
	if c.name == "" {
		return ty
	}
	return r.f.WeakAlias(c.name, ty)
}

func (r *typeResolver) array(x *ast.ArrayType, c typeCtx) types.TypeID {
	if x.OfConst {
		elem := r.systemType("TVarRec")
		if elem == types.NoTypeID {
			elem = r.f.Untyped()
		}
		return r.f.Array(c.name, elem, types.ArrayOpen)
	}
	elem := r.resolveExpr(x.Elem, c.anon())
	if len(x.Indices) == 0 {
		if c.param {
			return r.f.Array(c.name, elem, types.ArrayOpen)
		}
		return r.f.Array(c.name, elem, types.ArrayDynamic)
	}
	idx := make([]types.TypeID, len(x.Indices))
	for i, ie := range x.Indices {
		idx[i] = r.resolveExpr(ie, c.anon())
	}
	return r.f.Array(c.name, elem, types.ArrayFixed, idx...)
}

// enum builds an enumeration sized by $MINENUMSIZE at its opening
// parenthesis and gives its elements their type.
func (r *typeResolver) enum(x *ast.EnumType, c typeCtx) types.TypeID {
	elems := make([]string, len(x.Elements))
	for i, el := range x.Elements {
		elems[i] = el.Name
	}
	name := c.name
	if name == "" {
		name = "(" + strings.Join(elems, ",") + ")"
	}
	size := c.unit.SwitchAt(directive.SwitchMinEnumSize, x.Open).Value
	ty := r.f.Enum(name, elems, size)
	if !r.frozen {
		for _, id := range r.b.enumElems[x] {
			r.sym(id).Type = ty
		}
	}
	return ty
}

// subrange builds Low..High over integers, characters, booleans or the
// elements of an enumeration. Other bounds give an unknown type.
func (r *typeResolver) subrange(x *ast.SubrangeType, c typeCtx) types.TypeID {
	lo, hi := x.Low, x.High
	if lo == nil || hi == nil {
		return r.f.Unknown()
	}
	switch {
	case lo.Kind == ast.ValueInt && hi.Kind == ast.ValueInt:
		host := "Integer"
		if lo.Int < math.MinInt32 || hi.Int > math.MaxInt32 {
			host = "Int64"
		}
		h, _ := r.f.Intrinsic(host)
		return r.f.SubRange(c.name, h, lo.Int, hi.Int)
	case lo.Kind == ast.ValueChar && hi.Kind == ast.ValueChar:
		h, _ := r.f.Intrinsic("Char")
		name := c.name
		if name == "" {
			name = fmt.Sprintf("'%s'..'%s'", lo.Str, hi.Str)
		}
		return r.f.SubRange(name, h, firstRune(lo.Str), firstRune(hi.Str))
	case lo.Kind == ast.ValueBool && hi.Kind == ast.ValueBool:
		h, _ := r.f.Intrinsic("Boolean")
		name := c.name
		if name == "" {
			name = fmt.Sprintf("%t..%t", lo.Int != 0, hi.Int != 0)
		}
		return r.f.SubRange(name, h, lo.Int, hi.Int)
	}
	low, ok1 := r.element(lo, c)
	high, ok2 := r.element(hi, c)
	if !ok1 || !ok2 {
		return r.f.Unknown()
	}
	ls, hs := r.sym(low), r.sym(high)
	host := ls.Type
	if host == types.NoTypeID || host != hs.Type {
		return r.f.Unknown()
	}
	name := c.name
	if name == "" {
		name = ls.Name + ".." + hs.Name
	}
	return r.f.SubRange(name, host, ls.Ordinal, hs.Ordinal)
}

// element resolves an enum element used as a subrange bound.
func (r *typeResolver) element(v *ast.ConstValue, c typeCtx) (SymbolID, bool) {
	if len(v.Refs) != 1 || len(v.Refs[0].Parts) != 1 {
		return NoSymbolID, false
	}
	isElem := func(s *Symbol) bool { return s.Kind == SymbolEnumElement }
	ids := r.t.lookup(c.scope, v.Refs[0].Parts[0].Name.Name, c.impl, isElem)
	if len(ids) == 0 {
		return NoSymbolID, false
	}
	r.valueType(ids[0])
	return ids[0], true
}

func firstRune(s string) int64 {
	for _, ch := range s {
		return int64(ch)
	}
	return 0
}

// anonymousRecord builds var R: record ... end. Its image is made unique
// by the position of the record keyword.
func (r *typeResolver) anonymousRecord(x *ast.StructType, c typeCtx) types.TypeID {
	if x.Kind != ast.StructRecord {
		return r.f.Unknown()
	}
	image := c.name
	if image == "" {
		image = fmt.Sprintf("%s.<record@%d:%d>", c.unit.Name, x.Keyword.Line, x.Keyword.Col)
	}
	var fields []types.Field
	for _, m := range x.Members {
		if fd, ok := m.Decl.(*ast.FieldDecl); ok {
			fields = append(fields, types.Field{Name: fd.Name.Name, Type: r.resolveExpr(fd.Type, c.anon())})
		}
	}
	align := c.unit.SwitchAt(directive.SwitchAlign, x.Keyword).Value
	return r.f.Record(image, fields, x.Packed, align)
}

// named resolves a possibly qualified, possibly generic type name. Names
// that are not declared fall back to the intrinsic catalog.
func (r *typeResolver) named(x *ast.NamedType, c typeCtx) types.TypeID {
	if len(x.Name) == 0 {
		return r.f.Unknown()
	}
	args := make([]types.TypeID, len(x.Args))
	for i, a := range x.Args {
		args[i] = r.resolveExpr(a, c.anon())
	}
	path := r.typePath(x.Name, c, len(args))
	last := path[len(path)-1]

	var ty types.TypeID
	switch {
	case last.IsValid() && len(args) > 0:
		var ok bool
		if ty, ok = r.instantiate(r.symbolType(last), args); !ok {
			if !r.frozen && !c.unit.Stdlib {
				diag.ReportError(r.b.reporter, diag.SemaConstraintViolated, x.Name[0].Span,
					fmt.Sprintf("%s cannot be instantiated with these type arguments", x.Image())).Emit()
			}
			ty = r.f.Unresolved(x.Image())
		}
	case last.IsValid():
		ty = r.symbolType(last)
	default:
		if len(args) == 0 {
			if id, ok := r.f.Intrinsic(ast.JoinIdents(x.Name)); ok {
				ty = id
				break
			}
		}
		if !r.frozen && !c.unit.Stdlib {
			diag.ReportWarning(r.b.reporter, diag.SemaUnresolvedType, x.Name[0].Span,
				fmt.Sprintf("type %s not found", x.Image())).Emit()
		}
		ty = r.f.Unresolved(x.Image())
	}
	if !r.frozen {
		r.record(c.unit, x, path, args, ty)
	}
	return ty
}

// instantiate applies args to a generic type. Generic procedural types
// are not instantiated. Inside its own declaration a generic applied to
// its own parameters is the generic itself.
func (r *typeResolver) instantiate(generic types.TypeID, args []types.TypeID) (types.TypeID, bool) {
	switch r.f.Kind(generic) {
	case types.KindRecord, types.KindClass, types.KindInterface:
	default:
		return generic, true
	}
	if slices.Equal(r.f.TypeParams(generic), args) {
		return generic, true
	}
	return r.f.Instantiate(generic, args)
}

// typePath finds the declaration of every part of a dotted type name: an
// optional unit qualifier (each of its parts maps to the unit symbol),
// a type, then nested types. Unresolved parts are NoSymbolID.
func (r *typeResolver) typePath(name []ast.Ident, c typeCtx, arity int) []SymbolID {
	out := make([]SymbolID, len(name))
	start := 0
	var cands []SymbolID
	if len(name) > 1 && len(r.t.lookup(c.scope, name[0].Name, c.impl, nil)) == 0 {
		for k := len(name) - 1; k >= 1; k-- {
			u := r.t.visibleUnit(c.unit, ast.JoinIdents(name[:k]))
			if u == nil {
				continue
			}
			for i := range k {
				out[i] = u.Symbol
			}
			cands, start = r.t.inUnit(c.unit, u, name[k].Name, isTypeSym), k
			break
		}
	}
	if start == 0 {
		cands = r.t.lookup(c.scope, name[0].Name, c.impl, isTypeSym)
	}
	last := len(name) - 1
	for i := start; i <= last && len(cands) > 0; i++ {
		want := 0
		if i == last {
			want = arity
		}
		id := pickArity(r.t, cands, want)
		out[i] = id
		if i < last {
			cands = r.t.filter(r.t.Scopes.Get(r.sym(id).Members).Lookup(name[i+1].Name), isTypeSym)
		}
	}
	return out
}

// pickArity prefers the type declared with n type parameters.
func pickArity(t *Table, cands []SymbolID, n int) SymbolID {
	for _, id := range cands {
		if len(t.Symbols.Get(id).TypeParams) == n {
			return id
		}
	}
	return cands[0]
}

// record appends the occurrences of a type name written in a declaration.
func (r *typeResolver) record(u *Unit, x *ast.NamedType, path []SymbolID, args []types.TypeID, ty types.TypeID) {
	base := len(u.Occurrences)
	for i, id := range x.Name {
		q := -1
		if i > 0 {
			q = base + i - 1
		}
		occ := newOccurrence(id, q)
		occ.Flags = OccDeclaration
		occ.Symbol = path[i]
		if s := r.sym(path[i]); s != nil && s.Kind != SymbolUnit {
			occ.Type = s.Type
		}
		if i == len(x.Name)-1 {
			occ.Type = ty
			if len(args) > 0 {
				occ.Flags |= OccGeneric
				occ.TypeArgs = args
			}
		}
		u.Occurrences = append(u.Occurrences, occ)
	}
}
