package ast

// Decl is a declaration in a section, a routine or a structured type.
type Decl interface {
	DeclName() Ident
	declNode()
}

// TypeDecl is one entry of a type section.
type TypeDecl struct {
	Name       Ident
	TypeParams []TypeParam
	Type       TypeExpr
}

// ConstDecl is a constant or resource string. Typed constants have Type.
type ConstDecl struct {
	Name     Ident
	Type     TypeExpr
	Value    *ConstValue
	Resource bool
}

// VarDecl declares one variable; `var A, B: Integer` yields two.
type VarDecl struct {
	Name   Ident
	Type   TypeExpr
	Thread bool
	Refs   []*NameRef // initial value and absolute target
}

// RoutineKind classifies routines.
type RoutineKind uint8

const (
	RoutineProcedure RoutineKind = iota + 1
	RoutineFunction
	RoutineConstructor
	RoutineDestructor
	RoutineOperator
)

// ParamMode is the passing mode of a routine parameter.
type ParamMode uint8

const (
	ParamValue ParamMode = iota
	ParamConst
	ParamVar
	ParamOut
)

// Param is one routine parameter. Untyped var and const parameters have a
// nil Type.
type Param struct {
	Name    Ident
	Mode    ParamMode
	Type    TypeExpr
	Default bool
}

// RoutineDecl is a procedure, function, method, constructor, destructor or
// class operator, either a declaration or an implementation with a body.
type RoutineDecl struct {
	Kind RoutineKind
	// Owner holds the qualifier of method implementations: TFoo in
	// TFoo.Bar, Outer and Inner in Outer.Inner.Bar.
	Owner      []Ident
	Name       Ident
	TypeParams []TypeParam
	Params     []Param
	Result     TypeExpr
	Class      bool     // class method, class operator
	Directives []string // overload, virtual, external... lower case
	Locals     []Decl
	Body       *Block // nil for declarations, forward and external routines
}

// HasDirective reports whether the routine carries the directive.
func (r *RoutineDecl) HasDirective(name string) bool {
	for _, d := range r.Directives {
		if d == name {
			return true
		}
	}
	return false
}

// Block is a statement part reduced to the names it references.
type Block struct {
	Begin Ident
	Refs  []*NameRef
}

// PropertyDecl declares a property of a class, record or interface.
type PropertyDecl struct {
	Name    Ident
	Params  []Param
	Type    TypeExpr // nil for redeclared properties
	Class   bool
	Default bool
	Refs    []*NameRef // read, write, stored and index specifiers
}

// FieldDecl is a field of a record or class.
type FieldDecl struct {
	Name  Ident
	Type  TypeExpr
	Class bool // class var
}

func (d *TypeDecl) DeclName() Ident     { return d.Name }
func (d *ConstDecl) DeclName() Ident    { return d.Name }
func (d *VarDecl) DeclName() Ident      { return d.Name }
func (d *RoutineDecl) DeclName() Ident  { return d.Name }
func (d *PropertyDecl) DeclName() Ident { return d.Name }
func (d *FieldDecl) DeclName() Ident    { return d.Name }

func (*TypeDecl) declNode()     {}
func (*ConstDecl) declNode()    {}
func (*VarDecl) declNode()      {}
func (*RoutineDecl) declNode()  {}
func (*PropertyDecl) declNode() {}
func (*FieldDecl) declNode()    {}

// ConstValue is a constant expression. Simple literals are folded by the
// parser; everything else keeps only its references.
type ConstValue struct {
	Kind ValueKind
	Int  int64
	Str  string
	Refs []*NameRef
}

// ValueKind tells what a folded constant holds.
type ValueKind uint8

const (
	ValueUnknown ValueKind = iota
	ValueInt
	ValueReal
	ValueString
	ValueChar
	ValueBool
	ValueNil
	ValueSet
)

// TypeParam is a generic type parameter with its constraints.
type TypeParam struct {
	Name        Ident
	Constraints []ConstraintExpr
}

// ConstraintKind enumerates constraint spellings.
type ConstraintKind uint8

const (
	ConstraintType ConstraintKind = iota + 1
	ConstraintClass
	ConstraintConstructor
	ConstraintRecord
)

// ConstraintExpr is one constraint; Type is set for ConstraintType.
type ConstraintExpr struct {
	Kind ConstraintKind
	Type TypeExpr
}
