package symbols

import (
	"pasfront/internal/names"
	"pasfront/internal/types"
)

// acceptFunc filters lookup candidates; nil accepts everything.
type acceptFunc func(*Symbol) bool

func isTypeSym(s *Symbol) bool { return s.Kind == SymbolType || s.Kind == SymbolTypeParam }

// Lookup resolves name as seen from scope, in implementation context.
func (t *Table) Lookup(scope ScopeID, name string) []SymbolID {
	return t.lookup(scope, name, true, nil)
}

// lookup walks the enclosing scopes (a type scope includes the members
// of its ancestors), then the unit's implementation uses from last to
// first, its interface uses from last to first, System and SysInit.
// Other units only show exported declarations. impl is false in the
// interface section, where implementation uses are not visible yet.
func (t *Table) lookup(scope ScopeID, name string, impl bool, accept acceptFunc) []SymbolID {
	var unit *Unit
	for cur := scope; cur.IsValid(); {
		sc := t.Scopes.Get(cur)
		if ids := t.filter(sc.Lookup(name), accept); len(ids) > 0 {
			return ids
		}
		if sc.Kind == ScopeType && sc.Owner.IsValid() {
			if ty := t.Symbols.Get(sc.Owner).Type; ty != types.NoTypeID {
				if ids := t.inherited(ty, name, accept); len(ids) > 0 {
					return ids
				}
			}
		}
		unit = sc.Unit
		cur = sc.Parent
	}
	if unit == nil {
		return nil
	}

	var order []*Unit
	if impl {
		for i := len(unit.ImplementationUses) - 1; i >= 0; i-- {
			order = append(order, unit.ImplementationUses[i])
		}
	}
	for i := len(unit.InterfaceUses) - 1; i >= 0; i-- {
		order = append(order, unit.InterfaceUses[i])
	}
	order = append(order, t.system, t.sysInit)
	for _, u := range order {
		if u == nil || u == unit {
			continue
		}
		if ids := t.exportedIn(u, name, accept); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// exportedIn looks name up among the interface declarations of u.
func (t *Table) exportedIn(u *Unit, name string, accept acceptFunc) []SymbolID {
	return t.filter(t.Scopes.Get(u.Scope).Lookup(name), func(s *Symbol) bool {
		return s.Exported() && (accept == nil || accept(s))
	})
}

// inUnit looks name up in u as a qualifier would: everything from the
// unit itself, only exported declarations from elsewhere.
func (t *Table) inUnit(from, u *Unit, name string, accept acceptFunc) []SymbolID {
	if from == u {
		return t.filter(t.Scopes.Get(u.Scope).Lookup(name), accept)
	}
	return t.exportedIn(u, name, accept)
}

func (t *Table) filter(ids []SymbolID, accept acceptFunc) []SymbolID {
	if accept == nil || len(ids) == 0 {
		return ids
	}
	var out []SymbolID
	for _, id := range ids {
		if accept(t.Symbols.Get(id)) {
			out = append(out, id)
		}
	}
	return out
}

// inherited searches the ancestors of a structured type, nearest first.
func (t *Table) inherited(ty types.TypeID, name string, accept acceptFunc) []SymbolID {
	seen := map[types.TypeID]bool{ty: true}
	for p := t.Factory.Parent(ty); p != types.NoTypeID && !seen[p]; p = t.Factory.Parent(p) {
		seen[p] = true
		if ids := t.membersOf(p, name, accept); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// membersOf searches the declared members of one type.
func (t *Table) membersOf(ty types.TypeID, name string, accept acceptFunc) []SymbolID {
	sym, ok := t.TypeSymbol(ty)
	if !ok {
		return nil
	}
	return t.filter(t.Scopes.Get(t.Symbols.Get(sym).Members).Lookup(name), accept)
}

// memberHost strips what stands between a value and its members:
// aliases, pointers (P.X derefs), class references and type parameters
// (through their class or interface constraint).
func (t *Table) memberHost(ty types.TypeID) types.TypeID {
	f := t.Factory
	for range 8 {
		desc, ok := f.Lookup(ty)
		if !ok {
			return types.NoTypeID
		}
		switch desc.Kind {
		case types.KindWeakAlias, types.KindStrongAlias, types.KindPointer, types.KindClassReference:
			if desc.Elem == types.NoTypeID {
				return ty
			}
			ty = desc.Elem
		case types.KindTypeParameter:
			next := types.NoTypeID
			for _, c := range f.Constraints(ty) {
				if c.Kind == types.ConstraintType {
					next = c.Type
					break
				}
			}
			if next == types.NoTypeID {
				return ty
			}
			ty = next
		default:
			return ty
		}
	}
	return ty
}

// Member looks name up on a type, its ancestors and its helpers.
func (t *Table) Member(ty types.TypeID, name string) []SymbolID {
	return t.member(ty, name, nil)
}

func (t *Table) member(ty types.TypeID, name string, accept acceptFunc) []SymbolID {
	host := t.memberHost(ty)
	if host == types.NoTypeID {
		return nil
	}
	if ids := t.membersOf(host, name, accept); len(ids) > 0 {
		return ids
	}
	if ids := t.inherited(host, name, accept); len(ids) > 0 {
		return ids
	}
	key := host
	if generic, _ := t.Factory.GenericOf(host); generic != types.NoTypeID {
		key = generic
	}
	for _, h := range t.helpers[key] {
		if ids := t.filter(t.Scopes.Get(t.Symbols.Get(h).Members).Lookup(name), accept); len(ids) > 0 {
			return ids
		}
	}
	return nil
}

// unitCandidates expands a uses name with aliases and unit scope names.
func (t *Table) unitCandidates(name string) []string {
	out := []string{name}
	if alias, ok := t.aliases[names.Key(name)]; ok {
		out = append(out, alias)
	}
	for _, prefix := range t.scopeNames {
		out = append(out, prefix+"."+name)
	}
	return out
}

// findUnit returns the loaded unit a uses name refers to.
func (t *Table) findUnit(name string) *Unit {
	for _, cand := range t.unitCandidates(name) {
		if u, ok := t.UnitByName(cand); ok {
			return u
		}
	}
	return nil
}

// visibleUnit resolves a unit name used as a qualifier in from: the unit
// itself, its uses, System and SysInit.
func (t *Table) visibleUnit(from *Unit, name string) *Unit {
	u := t.findUnit(name)
	if u == nil {
		return nil
	}
	if u == from || u == t.system || u == t.sysInit {
		return u
	}
	for _, used := range from.InterfaceUses {
		if used == u {
			return u
		}
	}
	for _, used := range from.ImplementationUses {
		if used == u {
			return u
		}
	}
	return nil
}

// ownerType returns the type whose method body contains scope.
func (t *Table) ownerType(scope ScopeID) SymbolID {
	for cur := scope; cur.IsValid(); {
		sc := t.Scopes.Get(cur)
		if sc.Kind == ScopeType {
			return sc.Owner
		}
		if sc.Kind == ScopeRoutine {
			if r := t.Symbols.Get(sc.Owner).Routine; r != nil && r.Owner.IsValid() {
				return r.Owner
			}
		}
		cur = sc.Parent
	}
	return NoSymbolID
}
