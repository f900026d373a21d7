package symbols

import (
	"pasfront/internal/names"
	"pasfront/internal/source"
)

// ScopeKind enumerates scope categories. Scopes nest unit, type, routine,
// block.
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeUnit              // declarations of one unit, both sections
	ScopeType              // members and type parameters of a type
	ScopeRoutine           // parameters, Result and locals of a routine
	ScopeBlock             // anonymous methods and other nested blocks
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeUnit:
		return "unit"
	case ScopeType:
		return "type"
	case ScopeRoutine:
		return "routine"
	case ScopeBlock:
		return "block"
	default:
		return "invalid"
	}
}

// Scope is a case-insensitive name to declaration map with a parent link.
// Routine names may map to several overloads; any other name maps to one
// symbol.
type Scope struct {
	Kind      ScopeKind
	Parent    ScopeID
	Unit      *Unit
	Owner     SymbolID // type or routine that opened the scope
	Span      source.Span
	NameIndex map[string][]SymbolID // folded name -> declarations
	Symbols   []SymbolID            // declaration order
	Children  []ScopeID
}

// Lookup returns the declarations named name in this scope only.
func (s *Scope) Lookup(name string) []SymbolID {
	if s == nil {
		return nil
	}
	return s.NameIndex[names.Key(name)]
}
