// Package testkit holds consistency checks shared by tests and fuzz
// harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"pasfront/internal/ast"
	"pasfront/internal/source"
	"pasfront/internal/token"
)

// CheckStream verifies the invariants every token stream keeps, raw or
// preprocessed:
// 1) Index equals the position in the stream
// 2) the stream ends with exactly one EOF
// 3) every span lies inside the content of the file it names
func CheckStream(fs *source.FileSet, toks []token.Token) error {
	if len(toks) == 0 {
		return fmt.Errorf("empty stream")
	}
	for i, tok := range toks {
		if tok.Index != i {
			return fmt.Errorf("token %d (%s) has index %d", i, tok, tok.Index)
		}
		if tok.IsEOF() != (i == len(toks)-1) {
			return fmt.Errorf("EOF at %d of %d", i, len(toks))
		}
		if err := checkSpan(fs, tok.Span); err != nil {
			return fmt.Errorf("token %d (%s): %w", i, tok, err)
		}
	}
	return nil
}

// CheckIdents verifies that the unit name of f points into its file.
func CheckIdents(fs *source.FileSet, f *ast.File) error {
	if f == nil {
		return fmt.Errorf("nil file")
	}
	for _, id := range f.Name {
		if id.Name == "" {
			return fmt.Errorf("empty unit name part at %v", id.Span)
		}
		if err := checkSpan(fs, id.Span); err != nil {
			return fmt.Errorf("unit name %q: %w", id.Name, err)
		}
	}
	return nil
}

func checkSpan(fs *source.FileSet, sp source.Span) error {
	if int(sp.File) >= fs.Len() {
		return fmt.Errorf("span %v names unknown file", sp)
	}
	lenContent, err := safecast.Conv[uint32](len(fs.Get(sp.File).Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if sp.Start > sp.End {
		return fmt.Errorf("span %v is reversed", sp)
	}
	if sp.End > lenContent {
		return fmt.Errorf("span %v ends beyond content (%d bytes)", sp, lenContent)
	}
	return nil
}
