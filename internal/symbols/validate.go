package symbols

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Validate checks the structural invariants of a built table: scope
// parent and child links, name index against declaration lists, symbol
// to scope membership, routine payloads and occurrence chains. It
// returns every violation joined, or nil.
func (t *Table) Validate() error {
	var errs []error

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, t.validateScope(scopeID)...)
	}

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		symbolID, err := toSymbolID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		errs = append(errs, t.validateSymbol(symbolID)...)
	}

	for _, u := range t.units {
		for i, occ := range u.Occurrences {
			if occ.Qualifier >= i || occ.Qualifier < -1 {
				errs = append(errs, fmt.Errorf("%s: occurrence %d (%s) has qualifier %d", u.Name, i, occ.Name, occ.Qualifier))
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

func (t *Table) validateScope(id ScopeID) []error {
	var errs []error
	scope := &t.Scopes.data[id]
	if scope.Kind == ScopeInvalid {
		errs = append(errs, fmt.Errorf("scope %d has invalid kind", id))
	}
	if scope.Unit == nil {
		errs = append(errs, fmt.Errorf("scope %d belongs to no unit", id))
	}
	if scope.Parent.IsValid() {
		if int(scope.Parent) >= len(t.Scopes.data) || scope.Parent == id {
			errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", id, scope.Parent))
		} else if !slices.Contains(t.Scopes.data[scope.Parent].Children, id) {
			errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", id, scope.Parent))
		}
	} else if scope.Kind != ScopeUnit {
		errs = append(errs, fmt.Errorf("%s scope %d has no parent", scope.Kind, id))
	}
	for _, child := range scope.Children {
		if int(child) >= len(t.Scopes.data) || child == id {
			errs = append(errs, fmt.Errorf("scope %d has invalid child %d", id, child))
			continue
		}
		if t.Scopes.data[child].Parent != id {
			errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", id, child))
		}
	}

	// the unit symbol is listed in its scope but resolves through the
	// table; enum elements may be indexed in a second scope
	listed := make(map[SymbolID]bool, len(scope.Symbols))
	for _, sym := range scope.Symbols {
		listed[sym] = true
	}
	indexed := make(map[SymbolID]bool, len(scope.Symbols))
	for name, bucket := range scope.NameIndex {
		for _, sym := range bucket {
			if !listed[sym] {
				errs = append(errs, fmt.Errorf("scope %d name index %q references unlisted symbol %d", id, name, sym))
				continue
			}
			indexed[sym] = true
		}
	}
	for _, sym := range scope.Symbols {
		if s := t.Symbols.Get(sym); s != nil && s.Kind != SymbolUnit && !indexed[sym] {
			errs = append(errs, fmt.Errorf("scope %d symbol %d (%s) missing in name index", id, sym, s.Name))
		}
	}
	return errs
}

func (t *Table) validateSymbol(id SymbolID) []error {
	var errs []error
	sym := &t.Symbols.data[id]
	if !sym.Scope.IsValid() || int(sym.Scope) >= len(t.Scopes.data) {
		return []error{fmt.Errorf("symbol %d (%s) has invalid scope %d", id, sym.Name, sym.Scope)}
	}
	scope := &t.Scopes.data[sym.Scope]
	if !slices.Contains(scope.Symbols, id) {
		errs = append(errs, fmt.Errorf("symbol %d (%s) is missing from scope %d list", id, sym.Name, sym.Scope))
	}
	if sym.Exported() && scope.Kind != ScopeUnit {
		errs = append(errs, fmt.Errorf("symbol %d (%s) is exported from a %s scope", id, sym.Name, scope.Kind))
	}
	switch sym.Kind {
	case SymbolRoutine:
		if sym.Routine == nil || sym.Routine.Decl == nil {
			errs = append(errs, fmt.Errorf("routine %d (%s) has no declaration", id, sym.Name))
		}
	case SymbolType:
		if !sym.Members.IsValid() {
			errs = append(errs, fmt.Errorf("type %d (%s) has no member scope", id, sym.Name))
		}
	}
	return errs
}

func toScopeID(idx int) (ScopeID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(value), nil
}

func toSymbolID(idx int) (SymbolID, error) {
	value, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoSymbolID, fmt.Errorf("symbol index %d overflow: %w", idx, err)
	}
	return SymbolID(value), nil
}
