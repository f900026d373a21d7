package token

import (
	"fmt"

	"pasfront/internal/source"
)

// Flags carry per-token properties that survive preprocessing.
type Flags uint8

const (
	// FlagHidden marks comments and directives: kept in the stream,
	// skipped by the parser.
	FlagHidden Flags = 1 << iota
	// FlagIncluded marks tokens spliced in from an include file.
	FlagIncluded
)

// Insertion points at the include directive that brought a token into the
// stream. Included tokens keep their own Span in the include file; Insertion
// lets diagnostics point at the place in the including file as well.
type Insertion struct {
	Path string
	Line uint32
	Col  uint32
}

// Token is one lexeme of the stream.
type Token struct {
	Kind   Kind
	Text   string
	Span   source.Span
	Line   uint32 // 1-based, in the file Span belongs to
	Col    uint32 // 1-based
	Index  int    // position in the final stream, -1 until numbered
	Flags  Flags
	Origin *Insertion
}

// Is reports whether the token is of kind k.
func (t *Token) Is(k Kind) bool { return t.Kind == k }

// IsHidden reports whether the token is a comment or directive.
func (t *Token) IsHidden() bool { return t.Flags&FlagHidden != 0 }

// IsDirective reports whether the token is a compiler directive.
func (t *Token) IsDirective() bool { return t.Kind == Directive }

// IsEOF reports whether the token ends the stream.
func (t *Token) IsEOF() bool { return t.Kind == EOF }

// IsIdent reports whether the token is an identifier whose text matches
// name case-insensitively. Used for directive words like "overload".
func (t *Token) IsIdent(name string) bool {
	if t.Kind != Ident || len(t.Text) != len(name) {
		return false
	}
	for i := 0; i < len(name); i++ {
		a, b := t.Text[i], name[i]
		if a|0x20 != b|0x20 {
			return false
		}
	}
	return true
}

// Included reports whether the token came from an include file.
func (t *Token) Included() bool { return t.Flags&FlagIncluded != 0 }

func (t Token) String() string {
	return fmt.Sprintf("%s %q @%d:%d", t.Kind, t.Text, t.Line, t.Col)
}
