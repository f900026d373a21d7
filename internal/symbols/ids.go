package symbols

type (
	// ScopeID identifies a scope in a Table.
	ScopeID uint32
	// SymbolID identifies a declaration in a Table.
	SymbolID uint32
)

const (
	NoScopeID  ScopeID  = 0
	NoSymbolID SymbolID = 0 // also marks an unresolved reference
)

func (id ScopeID) IsValid() bool  { return id != NoScopeID }
func (id SymbolID) IsValid() bool { return id != NoSymbolID }
