package types

import "fmt"

// TypeID uniquely identifies a type inside a Factory.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates the type variants.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindIntrinsic
	KindPointer
	KindFixedArray
	KindDynamicArray
	KindOpenArray
	KindSet
	KindRecord
	KindClass
	KindInterface
	KindEnum
	KindSubrange
	KindProcedural
	KindClassReference
	KindWeakAlias
	KindStrongAlias
	KindTypeParameter
	KindUnresolved
	KindUntyped
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindIntrinsic:
		return "intrinsic"
	case KindPointer:
		return "pointer"
	case KindFixedArray:
		return "fixed array"
	case KindDynamicArray:
		return "dynamic array"
	case KindOpenArray:
		return "open array"
	case KindSet:
		return "set"
	case KindRecord:
		return "record"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindEnum:
		return "enum"
	case KindSubrange:
		return "subrange"
	case KindProcedural:
		return "procedural"
	case KindClassReference:
		return "class reference"
	case KindWeakAlias:
		return "alias"
	case KindStrongAlias:
		return "strong alias"
	case KindTypeParameter:
		return "type parameter"
	case KindUnresolved:
		return "unresolved"
	case KindUntyped:
		return "untyped"
	case KindUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor. Structured kinds keep their members in a
// side table addressed by Payload.
type Type struct {
	Kind    Kind
	Image   string // qualified image; identity is its case-insensitive form
	Family  FamilyMask
	Size    int    // intrinsic sizes; composite sizes are computed
	Elem    TypeID // pointee, element, alias target, subrange host, class of a class reference
	Low     int64  // ordinal bounds of intrinsics, enums and subranges
	High    int64
	Payload uint32
}

// MemberKind classifies record, class and interface members.
type MemberKind uint8

const (
	MemberField MemberKind = iota + 1
	MemberMethod
	MemberConstructor
	MemberDestructor
	MemberProperty
	MemberOperator
	MemberConst
)

// Visibility of a member.
type Visibility uint8

const (
	VisPublished Visibility = iota
	VisPublic
	VisProtected
	VisStrictProtected
	VisPrivate
	VisStrictPrivate
)

func (v Visibility) String() string {
	switch v {
	case VisPublished:
		return "published"
	case VisPublic:
		return "public"
	case VisProtected:
		return "protected"
	case VisStrictProtected:
		return "strict protected"
	case VisPrivate:
		return "private"
	case VisStrictPrivate:
		return "strict private"
	default:
		return "unknown"
	}
}

// ParamMode is the passing mode of a routine parameter.
type ParamMode uint8

const (
	ParamValue ParamMode = iota
	ParamConst
	ParamVar
	ParamOut
)

// Param is a routine parameter.
type Param struct {
	Name       string
	Type       TypeID
	Mode       ParamMode
	HasDefault bool
}

// Member is a field, method, property or operator of a structured type.
type Member struct {
	Name       string
	Kind       MemberKind
	Type       TypeID // field/property type, method result
	Params     []Param
	Visibility Visibility
	Static     bool // class methods, class vars
}

// Field is a record field given to Factory.Record.
type Field struct {
	Name string
	Type TypeID
}

// StructInfo stores metadata of records, classes and interfaces.
type StructInfo struct {
	Parent     TypeID
	Interfaces []TypeID
	Members    []Member
	TypeParams []TypeID
	Generic    TypeID // for instances: the generic declaration
	TypeArgs   []TypeID
	HelperFor  TypeID
	Packed     bool
	Align      int // $A in effect at the declaration
}

// ProcInfo describes a procedural type.
type ProcInfo struct {
	Params      []Param
	Result      TypeID
	OfObject    bool // procedure of object: method pointer
	IsReference bool // reference to procedure
	TypeParams  []TypeID
}

// ParamInfo describes a generic type parameter.
type ParamInfo struct {
	Name        string
	Constraints []Constraint
}

// ArrayOption selects the array variant built by Factory.Array.
type ArrayOption uint8

const (
	ArrayFixed ArrayOption = iota + 1
	ArrayDynamic
	ArrayOpen
)
