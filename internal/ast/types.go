package ast

// TypeExpr is the right-hand side of a type declaration or the type of a
// variable, field, parameter or result.
type TypeExpr interface {
	Pos() Ident
	typeNode()
}

// NamedType references a type by a possibly qualified name, with generic
// arguments on the last part: System.Generics.Collections.TList<Integer>.
type NamedType struct {
	Name []Ident
	Args []TypeExpr
}

// PointerType is ^Elem.
type PointerType struct {
	Caret Ident
	Elem  TypeExpr
}

// ArrayType is a fixed array (Indices set), a dynamic array, or with
// OfConst the open array of const parameter type.
type ArrayType struct {
	Array   Ident
	Indices []TypeExpr
	Elem    TypeExpr
	Packed  bool
	OfConst bool
}

// SetType is set of Elem.
type SetType struct {
	Set  Ident
	Elem TypeExpr
}

// FileType is file or file of Elem.
type FileType struct {
	File Ident
	Elem TypeExpr
}

// EnumType is (A, B, C). Explicit ordinals are folded into Values.
type EnumType struct {
	Open     Ident
	Elements []Ident
	Values   []int64
}

// SubrangeType is Low..High.
type SubrangeType struct {
	Low, High *ConstValue
	Start     Ident
}

// ShortStringType is string[N].
type ShortStringType struct {
	String Ident
	Length int64
}

// StructKind distinguishes the structured types.
type StructKind uint8

const (
	StructRecord StructKind = iota + 1
	StructClass
	StructInterface
	StructDispInterface
	StructObject
	StructClassHelper
	StructRecordHelper
)

// StructType is a record, class, interface, object or helper.
type StructType struct {
	Kind      StructKind
	Keyword   Ident
	Packed    bool
	Forward   bool // class; or interface;
	Abstract  bool
	Sealed    bool
	Parents   []TypeExpr
	HelperFor TypeExpr
	Members   []Member
}

// Visibility of a member section.
type Visibility uint8

const (
	VisDefault Visibility = iota
	VisPublished
	VisPublic
	VisProtected
	VisStrictProtected
	VisPrivate
	VisStrictPrivate
)

// Member is one declaration inside a structured type.
type Member struct {
	Visibility Visibility
	Decl       Decl // *FieldDecl, *RoutineDecl, *PropertyDecl, *ConstDecl, *TypeDecl
}

// ClassRefType is class of Class.
type ClassRefType struct {
	Class Ident
	Of    TypeExpr
}

// ProcType is a procedural type.
type ProcType struct {
	Keyword   Ident
	Params    []Param
	Result    TypeExpr
	OfObject  bool
	Reference bool // reference to procedure
}

// StrongAlias is type X = type Y.
type StrongAlias struct {
	Type   Ident
	Target TypeExpr
}

// BadType stands for a type the parser could not read.
type BadType struct {
	At Ident
}

func (t *NamedType) Pos() Ident {
	if len(t.Name) == 0 {
		return Ident{}
	}
	return t.Name[0]
}

func (t *PointerType) Pos() Ident     { return t.Caret }
func (t *ArrayType) Pos() Ident       { return t.Array }
func (t *SetType) Pos() Ident         { return t.Set }
func (t *FileType) Pos() Ident        { return t.File }
func (t *EnumType) Pos() Ident        { return t.Open }
func (t *SubrangeType) Pos() Ident    { return t.Start }
func (t *ShortStringType) Pos() Ident { return t.String }
func (t *StructType) Pos() Ident      { return t.Keyword }
func (t *ClassRefType) Pos() Ident    { return t.Class }
func (t *ProcType) Pos() Ident        { return t.Keyword }
func (t *StrongAlias) Pos() Ident     { return t.Type }
func (t *BadType) Pos() Ident         { return t.At }

func (*NamedType) typeNode()       {}
func (*PointerType) typeNode()     {}
func (*ArrayType) typeNode()       {}
func (*SetType) typeNode()         {}
func (*FileType) typeNode()        {}
func (*EnumType) typeNode()        {}
func (*SubrangeType) typeNode()    {}
func (*ShortStringType) typeNode() {}
func (*StructType) typeNode()      {}
func (*ClassRefType) typeNode()    {}
func (*ProcType) typeNode()        {}
func (*StrongAlias) typeNode()     {}
func (*BadType) typeNode()         {}

// Image renders a named type the way it is written.
func (t *NamedType) Image() string {
	s := JoinIdents(t.Name)
	if len(t.Args) == 0 {
		return s
	}
	s += "<"
	for i, a := range t.Args {
		if i > 0 {
			s += ","
		}
		if n, ok := a.(*NamedType); ok {
			s += n.Image()
		} else {
			s += "?"
		}
	}
	return s + ">"
}
