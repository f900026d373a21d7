package symbols

import (
	"pasfront/internal/ast"
	"pasfront/internal/source"
	"pasfront/internal/types"
)

// OccurrenceFlags describe how a name is used at a reference site.
type OccurrenceFlags uint8

const (
	OccMethodReference    OccurrenceFlags = 1 << iota // @Obj.Method
	OccGeneric                                        // carries type arguments
	OccSelf                                           // Self inside a method
	OccExplicitInvocation                             // followed by an argument list
	OccInherited                                      // inherited Name
	OccDeclaration                                    // type name inside a declaration
)

// Strings returns textual flag labels.
func (f OccurrenceFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 2)
	if f&OccMethodReference != 0 {
		labels = append(labels, "method-reference")
	}
	if f&OccGeneric != 0 {
		labels = append(labels, "generic")
	}
	if f&OccSelf != 0 {
		labels = append(labels, "self")
	}
	if f&OccExplicitInvocation != 0 {
		labels = append(labels, "invocation")
	}
	if f&OccInherited != 0 {
		labels = append(labels, "inherited")
	}
	if f&OccDeclaration != 0 {
		labels = append(labels, "declaration")
	}
	return labels
}

func occFlags(f ast.RefFlags) OccurrenceFlags {
	var out OccurrenceFlags
	if f&ast.RefMethodReference != 0 {
		out |= OccMethodReference
	}
	if f&ast.RefGeneric != 0 {
		out |= OccGeneric
	}
	if f&ast.RefSelf != 0 {
		out |= OccSelf
	}
	if f&ast.RefExplicitInvocation != 0 {
		out |= OccExplicitInvocation
	}
	if f&ast.RefInherited != 0 {
		out |= OccInherited
	}
	return out
}

// Occurrence is one identifier of a name reference. A.B.C gives three
// occurrences; B is qualified by A and C by B.
type Occurrence struct {
	Name      string
	Span      source.Span
	Line      uint32
	Col       uint32
	Symbol    SymbolID     // NoSymbolID when unresolved
	Type      types.TypeID // type of the value or type named, result of a function
	Qualifier int          // index in Unit.Occurrences, -1 for the first part
	Flags     OccurrenceFlags
	TypeArgs  []types.TypeID
	Args      int // argument count of an explicit invocation
}

// Resolved reports whether the occurrence names a declaration or a
// built-in type.
func (o Occurrence) Resolved() bool {
	return o.Symbol.IsValid() || o.Type != types.NoTypeID
}

func newOccurrence(id ast.Ident, qualifier int) Occurrence {
	return Occurrence{Name: id.Name, Span: id.Span, Line: id.Line, Col: id.Col, Qualifier: qualifier}
}

// refResolver resolves the pending references of one unit. It only reads
// the table; the occurrences it appends belong to its unit.
type refResolver struct {
	b     *Builder
	t     *Table
	u     *Unit
	types *typeResolver
}

func newRefResolver(b *Builder, u *Unit) *refResolver {
	return &refResolver{b: b, t: b.table, u: u, types: newTypeResolver(b, true)}
}

func (r *refResolver) sym(id SymbolID) *Symbol { return r.t.Symbols.Get(id) }

func (r *refResolver) resolveUnit() {
	for _, p := range r.u.pending {
		for _, ref := range p.refs {
			r.resolveRef(p.scope, ref, p.impl)
		}
	}
	r.u.pending = nil
}

// resolveRef resolves one designator left to right. A part that does not
// resolve leaves the rest of the chain unresolved.
func (r *refResolver) resolveRef(scope ScopeID, ref *ast.NameRef, impl bool) {
	parts := ref.Parts
	if len(parts) == 0 {
		return
	}
	c := typeCtx{unit: r.u, scope: scope, impl: impl}
	base := len(r.u.Occurrences)
	occs := make([]Occurrence, len(parts))
	for i, p := range parts {
		q := -1
		if i > 0 {
			q = base + i - 1
		}
		occs[i] = newOccurrence(p.Name, q)
		occs[i].Flags = occFlags(p.Flags)
		occs[i].Args = p.Args
		for _, a := range p.TypeArgs {
			occs[i].TypeArgs = append(occs[i].TypeArgs, r.types.resolveExpr(a, c))
		}
	}

	start := 0
	var cur SymbolID
	if len(parts) > 1 && len(r.t.lookup(scope, parts[0].Name.Name, impl, nil)) == 0 {
		for k := len(parts) - 1; k >= 1; k-- {
			u := r.t.visibleUnit(r.u, joinParts(parts[:k]))
			if u == nil {
				continue
			}
			for i := range k {
				occs[i].Symbol = u.Symbol
			}
			cur, start = u.Symbol, k
			break
		}
	}

	curType := types.NoTypeID
	for i := start; i < len(parts); i++ {
		p := parts[i]
		var cands []SymbolID
		switch {
		case i == 0 && p.Flags&ast.RefSelf != 0:
			owner := r.t.ownerType(scope)
			if !owner.IsValid() {
				break
			}
			cands = []SymbolID{owner}
		case i == 0 && p.Flags&ast.RefInherited != 0:
			owner := r.t.ownerType(scope)
			if !owner.IsValid() {
				break
			}
			if parent := r.t.Factory.Parent(r.sym(owner).Type); parent != types.NoTypeID {
				cands = r.t.member(parent, p.Name.Name, nil)
			}
		case i == 0:
			cands = r.t.lookup(scope, p.Name.Name, impl, nil)
			if len(cands) == 0 {
				if u := r.t.visibleUnit(r.u, p.Name.Name); u != nil {
					cands = []SymbolID{u.Symbol}
				}
			}
		case r.sym(cur).Kind == SymbolUnit:
			cands = r.t.inUnit(r.u, r.sym(cur).Unit, p.Name.Name, nil)
		default:
			if curType != types.NoTypeID {
				cands = r.t.member(curType, p.Name.Name, nil)
			}
		}

		id := r.pick(cands, p, occs[i].TypeArgs)
		if !id.IsValid() {
			break
		}
		occs[i].Symbol = id
		ty, ok := r.typeAfter(id, curType, occs[i].TypeArgs)
		if !ok {
			occs[i].Symbol = NoSymbolID
			break
		}
		occs[i].Type = ty
		cur, curType = id, ty
	}
	r.u.Occurrences = append(r.u.Occurrences, occs...)
}

func joinParts(parts []ast.RefPart) string {
	ids := make([]ast.Ident, len(parts))
	for i, p := range parts {
		ids[i] = p.Name
	}
	return ast.JoinIdents(ids)
}

// pick chooses among candidates. Types are chosen by type argument count.
// Routine overloads are filtered by generic arity and constraints, then
// by argument count for explicit invocations; without arguments a
// routine callable with none is preferred. The first survivor wins.
func (r *refResolver) pick(cands []SymbolID, p ast.RefPart, targs []types.TypeID) SymbolID {
	if len(cands) == 0 {
		return NoSymbolID
	}
	switch r.sym(cands[0]).Kind {
	case SymbolType:
		return pickArity(r.t, cands, len(targs))
	case SymbolRoutine:
	default:
		return cands[0]
	}

	invoked := p.Flags&ast.RefExplicitInvocation != 0
	var fit []SymbolID
	for _, id := range cands {
		s := r.sym(id)
		if s.Kind != SymbolRoutine {
			continue
		}
		if len(targs) > 0 && !r.genericFits(s, targs) {
			continue
		}
		if invoked && !s.Routine.accepts(p.Args) {
			continue
		}
		fit = append(fit, id)
	}
	if len(fit) == 0 {
		return NoSymbolID
	}
	if !invoked && len(fit) > 1 {
		for _, id := range fit {
			if r.sym(id).Routine.accepts(0) {
				return id
			}
		}
	}
	return fit[0]
}

// genericFits checks type argument count and constraints of a generic
// routine.
func (r *refResolver) genericFits(s *Symbol, targs []types.TypeID) bool {
	if len(s.TypeParams) != len(targs) {
		return false
	}
	f := r.t.Factory
	for i, tp := range s.TypeParams {
		for _, c := range f.Constraints(r.sym(tp).Type) {
			if !c.SatisfiedBy(f, targs[i]) {
				return false
			}
		}
	}
	return true
}

// typeAfter returns the type the next part of a chain is looked up in:
// the type itself for type names, the declared type for values and the
// result for functions. Members reached through a generic instance get
// the instance's substituted types. It fails when a generic type cannot
// be instantiated with targs.
func (r *refResolver) typeAfter(id SymbolID, prev types.TypeID, targs []types.TypeID) (types.TypeID, bool) {
	s := r.sym(id)
	f := r.t.Factory
	switch s.Kind {
	case SymbolUnit:
		return types.NoTypeID, true
	case SymbolType:
		if len(targs) > 0 {
			return r.types.instantiate(s.Type, targs)
		}
		return s.Type, true
	case SymbolTypeParam, SymbolEnumElement, SymbolConst, SymbolVar, SymbolParam:
		return s.Type, true
	}

	ty := s.Type
	if s.Kind == SymbolRoutine {
		ty = s.Routine.Result
	}
	if prev == types.NoTypeID {
		return ty, true
	}
	host := r.t.memberHost(prev)
	if generic, _ := f.GenericOf(host); generic == types.NoTypeID {
		return ty, true
	}
	ms, _ := f.FindMember(host, s.Name)
	for _, m := range ms {
		if s.Kind != SymbolRoutine || len(m.Params) == len(s.Routine.Params) {
			return m.Type, true
		}
	}
	return ty, true
}
