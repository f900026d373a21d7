package token

import "testing"

func TestLookupKeywordIgnoresCase(t *testing.T) {
	for _, spelling := range []string{"begin", "BEGIN", "Begin"} {
		k, ok := LookupKeyword(spelling)
		if !ok || k != KwBegin {
			t.Fatalf("LookupKeyword(%q) = %v, %v", spelling, k, ok)
		}
	}
	if _, ok := LookupKeyword("overload"); ok {
		t.Fatalf("directive words must stay identifiers")
	}
	if _, ok := LookupKeyword("x"); ok {
		t.Fatalf("single letters are never keywords")
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		KwResourceString: "resourcestring",
		Assign:           ":=",
		Directive:        "Directive",
		Kind(250):        "Unknown",
	}
	for k, want := range cases {
		if got := k.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", k, got, want)
		}
	}
	if !KwXor.IsKeyword() || Plus.IsKeyword() || Ident.IsKeyword() {
		t.Fatalf("IsKeyword boundaries wrong")
	}
}

func TestIsIdent(t *testing.T) {
	tok := Token{Kind: Ident, Text: "Overload"}
	if !tok.IsIdent("overload") {
		t.Fatalf("IsIdent should ignore case")
	}
	if tok.IsIdent("overloads") {
		t.Fatalf("IsIdent matched a longer word")
	}
	kw := Token{Kind: KwBegin, Text: "begin"}
	if kw.IsIdent("begin") {
		t.Fatalf("keywords are not identifiers")
	}
}
