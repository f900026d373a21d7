package testkit

import (
	"strings"
	"testing"

	"pasfront/internal/lexer"
	"pasfront/internal/parser"
	"pasfront/internal/source"
)

func TestCheckStream(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("a.pas", []byte("unit A; { c } interface implementation end.")))
	toks := lexer.Tokenize(file, lexer.Options{})
	if err := CheckStream(fs, toks); err != nil {
		t.Fatalf("CheckStream: %v", err)
	}

	shuffled := append(toks[:0:0], toks...)
	shuffled[0], shuffled[1] = shuffled[1], shuffled[0]
	if err := CheckStream(fs, shuffled); err == nil || !strings.Contains(err.Error(), "index") {
		t.Errorf("swapped tokens: err = %v", err)
	}

	noEOF := toks[:len(toks)-1]
	if err := CheckStream(fs, noEOF); err == nil {
		t.Errorf("stream without EOF accepted")
	}

	outside := append(toks[:0:0], toks...)
	outside[0].Span.End = 1000
	if err := CheckStream(fs, outside); err == nil || !strings.Contains(err.Error(), "beyond content") {
		t.Errorf("span beyond content: err = %v", err)
	}
}

func TestCheckIdents(t *testing.T) {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("b.pas", []byte("unit Vendor.Lib; interface implementation end.")))
	tree := parser.ParseFile(file.Path, lexer.Tokenize(file, lexer.Options{}), parser.Options{})
	if err := CheckIdents(fs, tree); err != nil {
		t.Fatalf("CheckIdents: %v", err)
	}
	if len(tree.Name) != 2 {
		t.Fatalf("unit name parts = %d", len(tree.Name))
	}
	tree.Name[1].Span.File = 7
	if err := CheckIdents(fs, tree); err == nil {
		t.Errorf("unknown file accepted")
	}
}
