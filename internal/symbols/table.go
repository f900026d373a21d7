package symbols

import (
	"sort"
	"strings"
	"sync"

	"pasfront/internal/ast"
	"pasfront/internal/directive"
	"pasfront/internal/names"
	"pasfront/internal/preprocess"
	"pasfront/internal/source"
	"pasfront/internal/types"
)

// Unit is one parsed compilation unit and its scope.
type Unit struct {
	Name   string
	Path   string
	Kind   ast.UnitKind
	Stdlib bool
	File   *ast.File
	Tokens *preprocess.Result
	Scope  ScopeID
	Symbol SymbolID

	// Uses clauses resolved to loaded units, in clause order. Names that
	// did not resolve are left out.
	InterfaceUses      []*Unit
	ImplementationUses []*Unit

	// Occurrences are the name references of the unit: type names in
	// declarations first, then references in initializers and bodies.
	// Qualifier indices point into the same slice.
	Occurrences []Occurrence

	pending   []pendingRefs
	spansOnce sync.Once
	spans     map[source.Span]int
}

// pendingRefs are name references waiting for phase two, with the scope
// they appear in. impl is false for references in the interface section,
// which cannot see implementation uses.
type pendingRefs struct {
	scope ScopeID
	refs  []*ast.NameRef
	impl  bool
}

// SwitchAt returns the state of compiler switch k at the token that
// produced id.
func (u *Unit) SwitchAt(k directive.SwitchKind, id ast.Ident) directive.SwitchSetting {
	if u.Tokens == nil || u.Tokens.Switches == nil {
		return directive.DefaultSetting(k)
	}
	u.spansOnce.Do(func() {
		u.spans = make(map[source.Span]int, len(u.Tokens.Tokens))
		for _, tok := range u.Tokens.Tokens {
			u.spans[tok.Span] = tok.Index
		}
	})
	idx, ok := u.spans[id.Span]
	if !ok {
		return directive.DefaultSetting(k)
	}
	return u.Tokens.Switches.Effective(k, idx)
}

// Table is the result of a build: every unit, scope and declaration, and
// the type factory their types live in. It is read-only once Build
// returns.
type Table struct {
	Factory *types.Factory
	Files   *source.FileSet
	Scopes  *Scopes
	Symbols *Symbols

	units    []*Unit
	byPath   map[string]*Unit
	byName   map[string]*Unit
	typeSyms map[types.TypeID]SymbolID
	system   *Unit
	sysInit  *Unit
	helpers  map[types.TypeID][]SymbolID

	scopeNames []string
	aliases    map[string]string
}

func newTable(f *types.Factory, files *source.FileSet) *Table {
	return &Table{
		Factory:  f,
		Files:    files,
		Scopes:   NewScopes(0),
		Symbols:  NewSymbols(0),
		byPath:   make(map[string]*Unit),
		byName:   make(map[string]*Unit),
		typeSyms: make(map[types.TypeID]SymbolID),
		helpers:  make(map[types.TypeID][]SymbolID),
		aliases:  make(map[string]string),
	}
}

// Units returns every unit in declaration order: standard library first.
func (t *Table) Units() []*Unit { return t.units }

// Unit returns the unit parsed from path.
func (t *Table) Unit(path string) (*Unit, bool) {
	u, ok := t.byPath[source.NormalizePath(path)]
	return u, ok
}

// UnitByName returns the unit declared as name.
func (t *Table) UnitByName(name string) (*Unit, bool) {
	u, ok := t.byName[names.Key(name)]
	return u, ok
}

// Symbol returns the declaration for id, or nil.
func (t *Table) Symbol(id SymbolID) *Symbol { return t.Symbols.Get(id) }

// Scope returns the scope for id, or nil.
func (t *Table) Scope(id ScopeID) *Scope { return t.Scopes.Get(id) }

// TypeSymbol returns the declaration that introduced a named type.
// Instances of generic types map to their generic declaration.
func (t *Table) TypeSymbol(id types.TypeID) (SymbolID, bool) {
	if sym, ok := t.typeSyms[id]; ok {
		return sym, true
	}
	if generic, _ := t.Factory.GenericOf(id); generic != types.NoTypeID {
		sym, ok := t.typeSyms[generic]
		return sym, ok
	}
	return NoSymbolID, false
}

// QualifiedName returns Unit.Type.Name for a declaration.
func (t *Table) QualifiedName(id SymbolID) string {
	var parts []string
	for cur := id; cur.IsValid(); {
		sym := t.Symbols.Get(cur)
		if sym == nil {
			break
		}
		parts = append(parts, sym.Name)
		if sym.Kind == SymbolUnit {
			break
		}
		sc := t.Scopes.Get(sym.Scope)
		if sc == nil {
			break
		}
		switch {
		case sc.Owner.IsValid():
			cur = sc.Owner
		case sc.Unit != nil:
			cur = sc.Unit.Symbol
		default:
			cur = NoSymbolID
		}
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// Declarations returns the symbols of scope in declaration order.
func (t *Table) Declarations(scope ScopeID) []SymbolID {
	sc := t.Scopes.Get(scope)
	if sc == nil {
		return nil
	}
	return sc.Symbols
}

// Unresolved returns the occurrences of u that did not resolve.
func (u *Unit) Unresolved() []Occurrence {
	var out []Occurrence
	for _, occ := range u.Occurrences {
		if !occ.Resolved() {
			out = append(out, occ)
		}
	}
	return out
}

func (t *Table) addUnit(u *Unit) {
	t.units = append(t.units, u)
	t.byPath[source.NormalizePath(u.Path)] = u
	t.byName[names.Key(u.Name)] = u
}

// sortUnits orders a batch by path so declaration order does not depend
// on worker scheduling.
func sortUnits(us []*Unit) {
	sort.Slice(us, func(i, j int) bool { return us[i].Path < us[j].Path })
}
