package symbols

import (
	"pasfront/internal/ast"
	"pasfront/internal/source"
	"pasfront/internal/types"
)

// SymbolKind classifies a declaration.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolUnit
	SymbolType
	SymbolConst
	SymbolVar
	SymbolField
	SymbolProperty
	SymbolRoutine
	SymbolParam
	SymbolTypeParam
	SymbolEnumElement
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolUnit:
		return "unit"
	case SymbolType:
		return "type"
	case SymbolConst:
		return "const"
	case SymbolVar:
		return "var"
	case SymbolField:
		return "field"
	case SymbolProperty:
		return "property"
	case SymbolRoutine:
		return "routine"
	case SymbolParam:
		return "param"
	case SymbolTypeParam:
		return "type param"
	case SymbolEnumElement:
		return "enum element"
	default:
		return "invalid"
	}
}

// SymbolFlags encode attributes used by lookup and printing.
type SymbolFlags uint16

const (
	FlagExported SymbolFlags = 1 << iota // declared in the interface section
	FlagClass                            // class method, class var, class property
	FlagForward                          // forward type declaration not completed yet
	FlagOverload
	FlagImplicit // Result and other compiler-declared names
	FlagStdlib
	FlagResource // resourcestring
	FlagThread   // threadvar
	FlagGeneric
)

// Strings returns textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&FlagExported != 0 {
		labels = append(labels, "exported")
	}
	if f&FlagClass != 0 {
		labels = append(labels, "class")
	}
	if f&FlagForward != 0 {
		labels = append(labels, "forward")
	}
	if f&FlagOverload != 0 {
		labels = append(labels, "overload")
	}
	if f&FlagImplicit != 0 {
		labels = append(labels, "implicit")
	}
	if f&FlagStdlib != 0 {
		labels = append(labels, "stdlib")
	}
	if f&FlagResource != 0 {
		labels = append(labels, "resource")
	}
	if f&FlagThread != 0 {
		labels = append(labels, "thread")
	}
	if f&FlagGeneric != 0 {
		labels = append(labels, "generic")
	}
	return labels
}

// Symbol is a named declaration.
type Symbol struct {
	Name       string
	Kind       SymbolKind
	Scope      ScopeID // scope the symbol is declared in
	Unit       *Unit
	Span       source.Span
	Line       uint32
	Col        uint32
	Flags      SymbolFlags
	Visibility types.Visibility

	// Type is the declared type of values, the type itself for type
	// symbols, and the result type of functions.
	Type types.TypeID
	// Members is the scope a symbol opens: unit declarations, type
	// members, routine parameters and locals.
	Members    ScopeID
	TypeParams []SymbolID
	Decl       ast.Decl
	Routine    *Routine
	Params     []types.Param // indexed properties
	Ordinal    int64         // enum elements

	expr ast.TypeExpr // declared type of params, fields and vars
}

// Routine holds what is known about a procedure, function or method.
type Routine struct {
	Kind   ast.RoutineKind
	Decl   *ast.RoutineDecl // first declaration: interface, type body or forward
	Impl   *ast.RoutineDecl // declaration carrying the body, nil if none
	Owner  SymbolID         // type of a method
	Params []types.Param
	Result types.TypeID
}

// Exported reports whether other units can see the symbol.
func (s *Symbol) Exported() bool { return s.Flags&FlagExported != 0 }

// IsGeneric reports whether the symbol declares type parameters.
func (s *Symbol) IsGeneric() bool { return len(s.TypeParams) > 0 }

// requiredParams counts parameters without a default value.
func (r *Routine) requiredParams() int {
	n := 0
	for _, p := range r.Params {
		if !p.HasDefault {
			n++
		}
	}
	return n
}

// accepts reports whether an invocation with args arguments fits.
func (r *Routine) accepts(args int) bool {
	return args >= r.requiredParams() && args <= len(r.Params)
}
