package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"pasfront/internal/names"
	"pasfront/internal/source"
)

// arena is an append-only store addressed by 1-based IDs; slot 0 is the
// "none" sentinel.
type arena[T any, ID ~uint32] struct {
	data []T
}

func newArena[T any, ID ~uint32](capacity int) arena[T, ID] {
	return arena[T, ID]{data: make([]T, 1, capacity+1)}
}

func (a *arena[T, ID]) add(v T) ID {
	n, err := safecast.Conv[uint32](len(a.data))
	if err != nil {
		panic(fmt.Errorf("arena overflow: %w", err))
	}
	a.data = append(a.data, v)
	return ID(n)
}

// Get returns the element or nil for the sentinel and unknown IDs.
func (a *arena[T, ID]) Get(id ID) *T {
	if id == 0 || int(id) >= len(a.data) {
		return nil
	}
	return &a.data[id]
}

// Len reports the number of elements, not counting the sentinel.
func (a *arena[T, ID]) Len() int { return len(a.data) - 1 }

// Data exposes the elements in ID order without the sentinel.
func (a *arena[T, ID]) Data() []T { return a.data[1:] }

// Scopes stores every scope of a table.
type Scopes struct {
	arena[Scope, ScopeID]
}

func NewScopes(capacity int) *Scopes {
	return &Scopes{newArena[Scope, ScopeID](max(capacity, 64))}
}

// New allocates a scope under parent and links it as a child.
func (s *Scopes) New(kind ScopeKind, parent ScopeID, unit *Unit, owner SymbolID, span source.Span) ScopeID {
	id := s.add(Scope{
		Kind:      kind,
		Parent:    parent,
		Unit:      unit,
		Owner:     owner,
		Span:      span,
		NameIndex: make(map[string][]SymbolID),
	})
	if p := s.Get(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// insert links sym into scope under its folded name.
func (s *Scopes) insert(scope ScopeID, name string, sym SymbolID) {
	sc := s.Get(scope)
	if sc == nil {
		return
	}
	key := names.Key(name)
	sc.NameIndex[key] = append(sc.NameIndex[key], sym)
	sc.Symbols = append(sc.Symbols, sym)
}

// Symbols stores every declaration of a table.
type Symbols struct {
	arena[Symbol, SymbolID]
}

func NewSymbols(capacity int) *Symbols {
	return &Symbols{newArena[Symbol, SymbolID](max(capacity, 256))}
}

// New copies sym into the arena and returns its ID.
func (s *Symbols) New(sym *Symbol) SymbolID {
	if sym == nil {
		panic("symbols.New: nil symbol")
	}
	return s.add(*sym)
}
