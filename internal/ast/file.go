package ast

import (
	"fmt"

	"pasfront/internal/source"
	"pasfront/internal/token"
)

// Ident is a name with its position. Included tokens keep the position in
// the include file; Origin points at the include directive.
type Ident struct {
	Name   string
	Span   source.Span
	Line   uint32
	Col    uint32
	Origin *token.Insertion
}

// IdentOf builds an Ident from a token.
func IdentOf(tok token.Token) Ident {
	return Ident{Name: tok.Text, Span: tok.Span, Line: tok.Line, Col: tok.Col, Origin: tok.Origin}
}

func (id Ident) String() string { return id.Name }

// UnitKind tells the four kinds of compilation units apart.
type UnitKind uint8

const (
	UnitUnit UnitKind = iota + 1
	UnitProgram
	UnitLibrary
	UnitPackage
)

func (k UnitKind) String() string {
	switch k {
	case UnitUnit:
		return "unit"
	case UnitProgram:
		return "program"
	case UnitLibrary:
		return "library"
	case UnitPackage:
		return "package"
	default:
		return fmt.Sprintf("UnitKind(%d)", k)
	}
}

// File is one parsed compilation unit.
type File struct {
	Path string
	Kind UnitKind
	// Name is the dotted unit name split into parts: System.SysUtils.
	Name           []Ident
	Interface      *Section // units only
	Implementation *Section // units only; programs keep everything here
	Init           *Block   // initialization, or the main block of a program
	Final          *Block
}

// UnitName joins the dotted name.
func (f *File) UnitName() string { return JoinIdents(f.Name) }

// Section is an interface or implementation part, or the body of a program.
type Section struct {
	Uses  []UsesItem
	Decls []Decl
}

// UsesItem is one entry of a uses or contains clause.
type UsesItem struct {
	Name []Ident
	Path string // in 'path'
}

// UnitName joins the dotted name.
func (u UsesItem) UnitName() string { return JoinIdents(u.Name) }

// JoinIdents joins identifiers with dots.
func JoinIdents(ids []Ident) string {
	n := 0
	for _, id := range ids {
		n += len(id.Name) + 1
	}
	b := make([]byte, 0, n)
	for i, id := range ids {
		if i > 0 {
			b = append(b, '.')
		}
		b = append(b, id.Name...)
	}
	return string(b)
}
