package types

import (
	"testing"

	"pasfront/internal/toolchain"
)

func TestIntrinsicSizes(t *testing.T) {
	cases := []struct {
		tc   toolchain.Toolchain
		v    toolchain.CompilerVersion
		name string
		want int
	}{
		{toolchain.DCC32, toolchain.VER350, "Pointer", 4},
		{toolchain.DCC32, toolchain.VER350, "NativeInt", 4},
		{toolchain.DCC32, toolchain.VER350, "String", 4},
		{toolchain.DCC32, toolchain.VER350, "Extended", 10},
		{toolchain.DCC32, toolchain.VER350, "Real", 8},
		{toolchain.DCC32, toolchain.VER350, "LongInt", 4},
		{toolchain.DCC32, toolchain.VER350, "Variant", 16},
		{toolchain.DCC32, toolchain.VER350, "ShortString", 256},
		{toolchain.DCC32, toolchain.VER350, "Real48", 6},
		{toolchain.DCC32, toolchain.VER350, "Currency", 8},
		{toolchain.DCC32, toolchain.VER350, "Char", 2},
		{toolchain.DCC32, toolchain.VER185, "Char", 1},
		{toolchain.DCC32, toolchain.CompilerVersion(100), "Real", 6},
		{toolchain.DCC64, toolchain.VER350, "Pointer", 8},
		{toolchain.DCC64, toolchain.VER350, "NativeUInt", 8},
		{toolchain.DCC64, toolchain.VER350, "String", 8},
		{toolchain.DCC64, toolchain.VER350, "Extended", 8},
		{toolchain.DCC64, toolchain.VER350, "LongInt", 4},
		{toolchain.DCC64, toolchain.VER350, "OleVariant", 24},
		{toolchain.DCCOSX, toolchain.VER350, "Extended", 16},
		{toolchain.DCCOSX, toolchain.VER350, "LongInt", 4},
		{toolchain.DCCOSX64, toolchain.VER350, "Extended", 16},
		{toolchain.DCCOSX64, toolchain.VER350, "LongInt", 8},
		{toolchain.DCCLINUX64, toolchain.VER350, "LongWord", 8},
		{toolchain.DCCLINUX64, toolchain.VER350, "Extended", 16},
		{toolchain.DCCAARM64, toolchain.VER350, "Extended", 8},
		{toolchain.DCCAARM64, toolchain.VER350, "LongInt", 8},
		{toolchain.DCCIOSARM, toolchain.VER350, "Variant", 16},
		{toolchain.DCCIOSARM, toolchain.VER350, "Extended", 8},
		{toolchain.DCC64, toolchain.VER350, "Int8", 1},
		{toolchain.DCC64, toolchain.VER350, "UInt32", 4},
	}
	for _, tc := range cases {
		f := NewFactory(tc.tc, tc.v)
		got, ok := f.SizeOf(tc.name)
		if !ok {
			t.Fatalf("%s/%s: SizeOf(%s) not found", tc.tc, tc.v, tc.name)
		}
		if got != tc.want {
			t.Errorf("%s/%s: SizeOf(%s) = %d, want %d", tc.tc, tc.v, tc.name, got, tc.want)
		}
	}
}

func TestFixedSizesAgreeAcrossToolchains(t *testing.T) {
	fixedSizes := map[string]int{
		"ShortInt": 1, "Byte": 1, "Boolean": 1, "ByteBool": 1, "AnsiChar": 1,
		"SmallInt": 2, "Word": 2, "WordBool": 2, "WideChar": 2,
		"Integer": 4, "Cardinal": 4, "LongBool": 4, "FixedInt": 4, "FixedUInt": 4, "Single": 4,
		"Int64": 8, "UInt64": 8, "Double": 8, "Comp": 8, "Currency": 8,
	}
	for _, tc := range toolchain.All() {
		f := NewFactory(tc, toolchain.Latest)
		for name, want := range fixedSizes {
			if got, _ := f.SizeOf(name); got != want {
				t.Errorf("%s: SizeOf(%s) = %d, want %d", tc, name, got, want)
			}
		}
	}
}

func TestStringAliasesFollowVersion(t *testing.T) {
	cases := []struct {
		v                 toolchain.CompilerVersion
		str, char, pchar  string
		pcharPointsToChar string
	}{
		{toolchain.VER185, "AnsiString", "AnsiChar", "PAnsiChar", "AnsiChar"},
		{toolchain.VER200, "UnicodeString", "WideChar", "PWideChar", "WideChar"},
	}
	for _, tc := range cases {
		f := NewFactory(toolchain.DCC32, tc.v)
		str, _ := f.Intrinsic("String")
		ch, _ := f.Intrinsic("char")
		pch, _ := f.Intrinsic("System.PChar")
		if f.Image(str) != tc.str || f.Image(ch) != tc.char || f.Image(pch) != tc.pchar {
			t.Fatalf("%s: String=%s Char=%s PChar=%s", tc.v, f.Image(str), f.Image(ch), f.Image(pch))
		}
		if got := f.Image(f.Dereference(pch)); got != tc.pcharPointsToChar {
			t.Fatalf("%s: Dereference(PChar) = %s", tc.v, got)
		}
	}
}

func TestIntrinsicRanges(t *testing.T) {
	f := NewFactory(toolchain.DCC32, toolchain.VER350)
	cases := []struct {
		name      string
		low, high int64
	}{
		{"Byte", 0, 255},
		{"ShortInt", -128, 127},
		{"NativeInt", -1 << 31, 1<<31 - 1},
		{"LongWord", 0, 1<<32 - 1},
		{"Boolean", 0, 1},
		{"AnsiChar", 0, 255},
	}
	for _, tc := range cases {
		id, _ := f.Intrinsic(tc.name)
		low, high, ok := f.Bounds(id)
		if !ok || low != tc.low || high != tc.high {
			t.Errorf("Bounds(%s) = %d..%d %v, want %d..%d", tc.name, low, high, ok, tc.low, tc.high)
		}
	}
	dbl, _ := f.Intrinsic("Double")
	if _, _, ok := f.Bounds(dbl); ok {
		t.Fatalf("Double must not have ordinal bounds")
	}
}

func TestIntrinsicPredicates(t *testing.T) {
	f := NewFactory(toolchain.DCC64, toolchain.VER350)
	id := func(name string) TypeID {
		t.Helper()
		v, ok := f.Intrinsic(name)
		if !ok {
			t.Fatalf("missing intrinsic %s", name)
		}
		return v
	}
	if !f.IsInteger(id("Int64")) || f.IsInteger(id("Double")) {
		t.Fatalf("IsInteger")
	}
	if !f.IsReal(id("Currency")) || !f.IsBoolean(id("LongBool")) || !f.IsChar(id("Char")) {
		t.Fatalf("IsReal/IsBoolean/IsChar")
	}
	if !f.IsString(id("ShortString")) || !f.IsVariant(id("OleVariant")) || !f.IsPointer(id("PChar")) {
		t.Fatalf("IsString/IsVariant/IsPointer")
	}
	if !f.IsOrdinal(id("WideChar")) || f.IsOrdinal(id("String")) {
		t.Fatalf("IsOrdinal")
	}
	if !f.IsPointer(f.Nil()) || !f.IsNil(f.Nil()) {
		t.Fatalf("nil must be a pointer")
	}
	if _, ok := f.SizeOf("TNoSuchType"); ok {
		t.Fatalf("SizeOf of an unknown name must fail")
	}
}

func TestFactoryIsDeterministic(t *testing.T) {
	a := NewFactory(toolchain.DCCLINUX64, toolchain.VER340)
	b := NewFactory(toolchain.DCCLINUX64, toolchain.VER340)
	if a.Len() != b.Len() {
		t.Fatalf("Len %d != %d", a.Len(), b.Len())
	}
	for _, name := range a.IntrinsicNames() {
		sa, _ := a.SizeOf(name)
		sb, _ := b.SizeOf(name)
		ia, _ := a.Intrinsic(name)
		ib, _ := b.Intrinsic(name)
		if sa != sb || ia != ib {
			t.Fatalf("%s differs: %d/%d %d/%d", name, sa, sb, ia, ib)
		}
	}
}
