package directive

import (
	"strings"
	"testing"
)

type mapEnv struct {
	defines map[string]bool
	consts  map[string]Value
	sizes   map[string]int
}

func (e mapEnv) Defined(name string) bool { return e.defines[strings.ToUpper(name)] }

func (e mapEnv) Constant(name string) (Value, bool) {
	v, ok := e.consts[strings.ToUpper(name)]
	return v, ok
}

func (e mapEnv) SizeOf(name string) (int, bool) {
	n, ok := e.sizes[strings.ToUpper(name)]
	return n, ok
}

func testEnv() mapEnv {
	return mapEnv{
		defines: map[string]bool{"DEBUG": true, "MSWINDOWS": true},
		consts: map[string]Value{
			"COMPILERVERSION": RealValue(35),
			"RTLVERSION":      RealValue(35),
		},
		sizes: map[string]int{"POINTER": 8, "INTEGER": 4},
	}
}

func TestExprPrecedence(t *testing.T) {
	tests := []struct{ src, want string }{
		{"a or b and c", "(a or (b and c))"},
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"not a = b", "(not a = b)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"-x + 1", "(-x + 1)"},
		{"System.RTLVersion >= 20.0", "(System.RTLVersion >= 20)"},
		{"Declared(Foo) xor Defined(Bar)", "(Declared(Foo) xor Defined(Bar))"},
	}
	for _, tt := range tests {
		e, err := ParseExpr(tt.src)
		if err != nil {
			t.Fatalf("ParseExpr(%q): %v", tt.src, err)
		}
		if got := e.String(); got != tt.want {
			t.Fatalf("ParseExpr(%q) = %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestExprErrors(t *testing.T) {
	for _, src := range []string{"", "(1", "1 +", "and", "'x", "1 2", "Defined(X", "a.", "$", "#"} {
		if _, err := ParseExpr(src); err == nil {
			t.Fatalf("ParseExpr(%q) succeeded", src)
		}
	}
}

func TestEvalHolds(t *testing.T) {
	env := testEnv()
	tests := []struct {
		src  string
		want bool
	}{
		{"Defined(DEBUG)", true},
		{"defined(debug)", true},
		{"Defined(RELEASE)", false},
		{"not Defined(RELEASE)", true},
		{"CompilerVersion >= 35", true},
		{"CompilerVersion > 35.5", false},
		{"System.RTLVersion >= 30", true},
		{"Declared(CompilerVersion)", true},
		{"Declared(Nothing)", false},
		{"SizeOf(Pointer) = 8", true},
		{"SizeOf(Integer) * 2 = SizeOf(Pointer)", true},
		{"SizeOf(Unknown) = 8", false},
		{"1 + 2 * 3 = 7", true},
		{"10 div 3 = 3", true},
		{"10 mod 3 = 1", true},
		{"1 shl 4 = 16", true},
		{"$10 = 16", true},
		{"-(2) + 1 = -1", true},
		{"2.5 * 2 = 5", true},
		{"7 / 2 = 3.5", true},
		{"'abc' < 'abd'", true},
		{"'it''s' = 'it''s'", true},
		{"True", true},
		{"false", false},
		{"True <> False", true},
		// unknown operands
		{"Foo", false},
		{"not Foo", false},
		{"Foo and False", false},
		{"Foo or True", true},
		{"Foo or False", false},
		{"Foo = 1", false},
		// non-boolean results
		{"1", false},
		{"'yes'", false},
		{"1 div 0 = 0", false},
	}
	for _, tt := range tests {
		e, err := ParseExpr(tt.src)
		if err != nil {
			t.Fatalf("ParseExpr(%q): %v", tt.src, err)
		}
		if got := Holds(e, env); got != tt.want {
			t.Fatalf("Holds(%q) = %v, want %v (value %s)", tt.src, got, tt.want, Eval(e, env))
		}
	}
}

func TestEvalValues(t *testing.T) {
	env := testEnv()
	tests := []struct {
		src  string
		want Value
	}{
		{"3 + 4", IntValue(7)},
		{"3 + 0.5", RealValue(3.5)},
		{"'a' + 'b'", StringValue("ab")},
		{"6 and 3", IntValue(2)},
		{"Foo + 1", Value{}},
		{"SizeOf(Pointer)", IntValue(8)},
	}
	for _, tt := range tests {
		e, err := ParseExpr(tt.src)
		if err != nil {
			t.Fatalf("ParseExpr(%q): %v", tt.src, err)
		}
		if got := Eval(e, env); got != tt.want {
			t.Fatalf("Eval(%q) = %+v, want %+v", tt.src, got, tt.want)
		}
	}
}

func TestEvalWithoutEnv(t *testing.T) {
	e, err := ParseExpr("Defined(X) or True")
	if err != nil {
		t.Fatal(err)
	}
	if !Holds(e, nil) {
		t.Fatal("True branch should hold without an environment")
	}
}
