package types

import (
	"testing"

	"pasfront/internal/toolchain"
)

func TestBinarySpecsLogicalAnd(t *testing.T) {
	specs := BinarySpecs(OpLogicalAnd)
	if len(specs) < 2 {
		t.Fatalf("expected boolean and bitwise specs for and")
	}
	spec := specs[0]
	if spec.Left&FamilyBool == 0 || spec.Right&FamilyBool == 0 {
		t.Fatalf("logical and expects bool operands, got %+v", spec)
	}
	if spec.Result != BinaryResultBool {
		t.Fatalf("expected bool result, got %+v", spec)
	}
}

func TestOperatorNames(t *testing.T) {
	if op, ok := BinaryOperator("DIV"); !ok || op != OpIntDivide {
		t.Fatalf("BinaryOperator(DIV) = %v %v", op, ok)
	}
	if op, ok := UnaryOperator("Not"); !ok || op != OpLogicalNot {
		t.Fatalf("UnaryOperator(Not) = %v %v", op, ok)
	}
	if op, ok := OperatorByName("greaterthanorequal"); !ok || op != OpGreaterThanOrEqual {
		t.Fatalf("OperatorByName = %v %v", op, ok)
	}
	if _, ok := OperatorByName("Concat"); ok {
		t.Fatalf("unknown operator name accepted")
	}
	if OpAdd.String() != "Add" || Operator(200).String() != "Operator(200)" {
		t.Fatalf("Operator.String")
	}
}

func TestIntrinsicBinaryOperators(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	byteSet := f.Set("", in("Byte"))
	cases := []struct {
		name        string
		op          Operator
		left, right TypeID
		want        string // result image; empty for no operator
	}{
		{"int+int", OpAdd, in("Integer"), in("Integer"), "Integer"},
		{"byte+word", OpAdd, in("Byte"), in("Word"), "Integer"},
		{"int+int64", OpAdd, in("Integer"), in("Int64"), "Int64"},
		{"int*double", OpMultiply, in("Integer"), in("Double"), "Extended"},
		{"int/int", OpDivide, in("Integer"), in("Integer"), "Extended"},
		{"int div int", OpIntDivide, in("Integer"), in("Integer"), "Integer"},
		{"double div int", OpIntDivide, in("Double"), in("Integer"), ""},
		{"int shl int", OpLeftShift, in("Cardinal"), in("Integer"), "Cardinal"},
		{"string+char", OpAdd, in("String"), in("Char"), "UnicodeString"},
		{"string-string", OpSubtract, in("String"), in("String"), ""},
		{"int=double", OpEqual, in("Integer"), in("Double"), "Boolean"},
		{"int=string", OpEqual, in("Integer"), in("String"), ""},
		{"char<string", OpLessThan, in("Char"), in("String"), "Boolean"},
		{"nil=pointer", OpEqual, f.Nil(), in("Pointer"), "Boolean"},
		{"bool and bool", OpLogicalAnd, in("Boolean"), in("Boolean"), "Boolean"},
		{"int and int", OpLogicalAnd, in("Integer"), in("Integer"), "Integer"},
		{"bool and int", OpLogicalAnd, in("Boolean"), in("Integer"), ""},
		{"byte in set", OpIn, in("Byte"), byteSet, "Boolean"},
		{"set+set", OpAdd, byteSet, byteSet, "set of Byte"},
		{"set<=set", OpLessThanOrEqual, byteSet, byteSet, "Boolean"},
		{"variant+int", OpAdd, in("Variant"), in("Integer"), "Variant"},
		{"int+variant", OpAdd, in("Integer"), in("Variant"), "Variant"},
		{"variant=int", OpEqual, in("Variant"), in("Integer"), "Boolean"},
		{"pchar+int", OpAdd, in("PChar"), in("Integer"), "PWideChar"},
		{"unresolved+int", OpAdd, f.Unresolved("TX"), in("Integer"), ""},
	}
	for _, tc := range cases {
		inv, ok := f.ResolveBinary(tc.op, tc.left, tc.right)
		got := ""
		if ok {
			got = f.Image(inv.Result)
			if !inv.Intrinsic {
				t.Errorf("%s: expected an intrinsic operator", tc.name)
			}
		}
		if got != tc.want {
			t.Errorf("%s: result %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestIntrinsicUnaryOperators(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	color := f.Enum("TColor", []string{"Red", "Green"}, 1)
	cases := []struct {
		name    string
		op      Operator
		operand TypeID
		want    string
	}{
		{"-int", OpNegative, in("Integer"), "Integer"},
		{"+double", OpPositive, in("Double"), "Double"},
		{"not bool", OpLogicalNot, in("Boolean"), "Boolean"},
		{"not int", OpLogicalNot, in("Word"), "Word"},
		{"-string", OpNegative, in("String"), ""},
		{"inc enum", OpInc, color, "TColor"},
		{"-variant", OpNegative, in("Variant"), "Variant"},
	}
	for _, tc := range cases {
		inv, ok := f.ResolveUnary(tc.op, tc.operand)
		got := ""
		if ok {
			got = f.Image(inv.Result)
		}
		if got != tc.want {
			t.Errorf("%s: result %q, want %q", tc.name, got, tc.want)
		}
	}
}

func addOperator(f *Factory, owner TypeID, name string, result TypeID, params ...TypeID) {
	m := Member{Name: name, Kind: MemberOperator, Type: result, Static: true, Visibility: VisPublic}
	for i, p := range params {
		m.Params = append(m.Params, Param{Name: string(rune('A' + i)), Type: p})
	}
	f.AddMember(owner, m)
}

func TestUserOperators(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	vec := f.Record("TVec", nil, false, 8)
	addOperator(f, vec, "Add", vec, vec, vec)
	addOperator(f, vec, "Negative", vec, vec)
	addOperator(f, vec, "Equal", in("Boolean"), vec, vec)

	inv, ok := f.ResolveBinary(OpAdd, vec, vec)
	if !ok || inv.Intrinsic || inv.Owner != vec || inv.Result != vec || inv.Name != "Add" {
		t.Fatalf("TVec + TVec = %+v %v", inv, ok)
	}
	if inv, ok := f.ResolveUnary(OpNegative, vec); !ok || inv.Result != vec {
		t.Fatalf("-TVec = %+v %v", inv, ok)
	}
	if inv, ok := f.ResolveBinary(OpEqual, vec, vec); !ok || f.Image(inv.Result) != "Boolean" {
		t.Fatalf("TVec = TVec = %+v %v", inv, ok)
	}
	if _, ok := f.ResolveBinary(OpSubtract, vec, vec); ok {
		t.Fatalf("records without Subtract have no - operator")
	}
	if _, ok := f.ResolveBinary(OpNotEqual, vec, vec); ok {
		t.Fatalf("records do not compare intrinsically")
	}

	money := f.Record("TMoney", nil, false, 8)
	addOperator(f, money, "Add", money, money, money)
	addOperator(f, money, "Add", money, money, in("Integer"))
	inv, ok = f.ResolveBinary(OpAdd, money, in("Integer"))
	if !ok || inv.Params[1] != in("Integer") {
		t.Fatalf("exact overload not chosen: %+v %v", inv, ok)
	}
	inv, ok = f.ResolveBinary(OpAdd, money, in("Byte"))
	if !ok || inv.Params[1] != in("Integer") {
		t.Fatalf("implicit conversion overload not chosen: %+v %v", inv, ok)
	}

	amb := f.Record("TAmbiguous", nil, false, 8)
	addOperator(f, amb, "Add", amb, amb, in("Integer"))
	addOperator(f, amb, "Add", amb, amb, in("Int64"))
	if _, ok := f.ResolveBinary(OpAdd, amb, in("Byte")); ok {
		t.Fatalf("equally good overloads must be ambiguous")
	}
	if inv, ok := f.ResolveBinary(OpAdd, amb, in("Int64")); !ok || inv.Params[1] != in("Int64") {
		t.Fatalf("exact match must break the tie: %+v %v", inv, ok)
	}

	flags := f.Record("TFlags", nil, false, 8)
	addOperator(f, flags, "BitwiseAnd", flags, flags, flags)
	if inv, ok := f.ResolveBinary(OpLogicalAnd, flags, flags); !ok || inv.Name != "BitwiseAnd" {
		t.Fatalf("and must find BitwiseAnd: %+v %v", inv, ok)
	}
}

func TestConvertible(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	obj := f.Class("TObject", NoTypeID)
	base := f.Class("TBase", obj)
	meters := f.Record("TMeters", nil, false, 8)
	addOperator(f, meters, "Implicit", meters, in("Double"))
	cases := []struct {
		name     string
		from, to TypeID
		want     bool
	}{
		{"byte to int64", in("Byte"), in("Int64"), true},
		{"int to double", in("Integer"), in("Double"), true},
		{"double to int", in("Double"), in("Integer"), false},
		{"char to string", in("Char"), in("String"), true},
		{"string to char", in("String"), in("Char"), false},
		{"nil to class", f.Nil(), obj, true},
		{"class to ancestor", base, obj, true},
		{"class to descendant", obj, base, false},
		{"pointer to typed pointer", in("Pointer"), f.PointerTo(in("Integer")), true},
		{"typed pointers", f.PointerTo(in("Integer")), f.PointerTo(in("Byte")), false},
		{"implicit operator", in("Double"), meters, true},
		{"no implicit operator", in("String"), meters, false},
		{"variant to string", in("Variant"), in("String"), true},
	}
	for _, tc := range cases {
		if got := f.Convertible(tc.from, tc.to); got != tc.want {
			t.Errorf("%s: Convertible = %v, want %v", tc.name, got, tc.want)
		}
	}
}
