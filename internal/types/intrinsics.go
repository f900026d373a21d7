package types

import (
	"math"
	"strings"

	"pasfront/internal/names"
	"pasfront/internal/toolchain"
)

type sizeRule func(tc toolchain.Toolchain, v toolchain.CompilerVersion) int

func fixed(n int) sizeRule {
	return func(toolchain.Toolchain, toolchain.CompilerVersion) int { return n }
}

func pointerSized(tc toolchain.Toolchain, _ toolchain.CompilerVersion) int { return tc.PointerSize() }

// Extended is the 80-bit x87 type only where the target has x87 and keeps
// it: 10 bytes on Win32, padded to 16 on macOS and Linux, plain Double on
// Win64 and ARM.
func extendedSize(tc toolchain.Toolchain, _ toolchain.CompilerVersion) int {
	switch tc {
	case toolchain.DCC32:
		return 10
	case toolchain.DCCOSX, toolchain.DCCOSX64, toolchain.DCCLINUX64:
		return 16
	}
	return 8
}

// Real was the 6-byte Real48 before Delphi 4.
func realSize(_ toolchain.Toolchain, v toolchain.CompilerVersion) int {
	if v < toolchain.VER120 {
		return 6
	}
	return 8
}

// LongInt and LongWord follow the C long of 64-bit POSIX targets.
func longSize(tc toolchain.Toolchain, _ toolchain.CompilerVersion) int {
	if tc.Is64BitPosix() {
		return 8
	}
	return 4
}

func variantSize(tc toolchain.Toolchain, _ toolchain.CompilerVersion) int {
	if tc.Architecture().Is64Bit() {
		return 24
	}
	return 16
}

type intrinsicDef struct {
	name      string
	family    FamilyMask
	size      sizeRule
	low, high int64
	elem      string // pointee of typed character pointers
}

func signedRange(bytes int) (int64, int64) {
	if bytes >= 8 {
		return math.MinInt64, math.MaxInt64
	}
	bits := uint(bytes * 8)
	return -(int64(1) << (bits - 1)), int64(1)<<(bits-1) - 1
}

func unsignedRange(bytes int) (int64, int64) {
	if bytes >= 8 {
		// UInt64 does not fit an int64; the upper bound saturates
		return 0, math.MaxInt64
	}
	return 0, int64(1)<<uint(bytes*8) - 1
}

var intrinsicDefs = []intrinsicDef{
	{name: "ShortInt", family: FamilyInteger, size: fixed(1), low: -128, high: 127},
	{name: "Byte", family: FamilyInteger, size: fixed(1), low: 0, high: 255},
	{name: "SmallInt", family: FamilyInteger, size: fixed(2), low: -32768, high: 32767},
	{name: "Word", family: FamilyInteger, size: fixed(2), low: 0, high: 65535},
	{name: "Integer", family: FamilyInteger, size: fixed(4), low: math.MinInt32, high: math.MaxInt32},
	{name: "Cardinal", family: FamilyInteger, size: fixed(4), low: 0, high: math.MaxUint32},
	{name: "FixedInt", family: FamilyInteger, size: fixed(4), low: math.MinInt32, high: math.MaxInt32},
	{name: "FixedUInt", family: FamilyInteger, size: fixed(4), low: 0, high: math.MaxUint32},
	{name: "LongInt", family: FamilyInteger, size: longSize},
	{name: "LongWord", family: FamilyInteger, size: longSize},
	{name: "Int64", family: FamilyInteger, size: fixed(8), low: math.MinInt64, high: math.MaxInt64},
	{name: "UInt64", family: FamilyInteger, size: fixed(8), low: 0, high: math.MaxInt64},
	{name: "NativeInt", family: FamilyInteger, size: pointerSized},
	{name: "NativeUInt", family: FamilyInteger, size: pointerSized},

	{name: "Boolean", family: FamilyBool, size: fixed(1), low: 0, high: 1},
	{name: "ByteBool", family: FamilyBool, size: fixed(1), low: 0, high: 1},
	{name: "WordBool", family: FamilyBool, size: fixed(2), low: 0, high: 1},
	{name: "LongBool", family: FamilyBool, size: fixed(4), low: 0, high: 1},

	{name: "AnsiChar", family: FamilyChar, size: fixed(1), low: 0, high: 255},
	{name: "WideChar", family: FamilyChar, size: fixed(2), low: 0, high: 65535},
	{name: "UCS4Char", family: FamilyInteger, size: fixed(4), low: 0, high: math.MaxUint32},

	{name: "Single", family: FamilyReal, size: fixed(4)},
	{name: "Double", family: FamilyReal, size: fixed(8)},
	{name: "Extended", family: FamilyReal, size: extendedSize},
	{name: "Real", family: FamilyReal, size: realSize},
	{name: "Real48", family: FamilyReal, size: fixed(6)},
	{name: "Comp", family: FamilyReal, size: fixed(8)},
	{name: "Currency", family: FamilyReal, size: fixed(8)},

	{name: "AnsiString", family: FamilyString, size: pointerSized},
	{name: "UnicodeString", family: FamilyString, size: pointerSized},
	{name: "WideString", family: FamilyString, size: pointerSized},
	{name: "RawByteString", family: FamilyString, size: pointerSized},
	{name: "UTF8String", family: FamilyString, size: pointerSized},
	{name: "ShortString", family: FamilyString, size: fixed(256)},

	{name: "Pointer", family: FamilyPointer, size: pointerSized},
	{name: "PAnsiChar", family: FamilyPointer, size: pointerSized, elem: "AnsiChar"},
	{name: "PWideChar", family: FamilyPointer, size: pointerSized, elem: "WideChar"},

	{name: "Variant", family: FamilyVariant, size: variantSize},
	{name: "OleVariant", family: FamilyVariant, size: variantSize},
}

// intrinsicAliases map generic names to the concrete intrinsic for the
// compiler version.
var intrinsicAliases = []struct {
	name   string
	target func(v toolchain.CompilerVersion) string
}{
	{"String", func(v toolchain.CompilerVersion) string { return unicodeOr(v, "UnicodeString", "AnsiString") }},
	{"Char", func(v toolchain.CompilerVersion) string { return unicodeOr(v, "WideChar", "AnsiChar") }},
	{"PChar", func(v toolchain.CompilerVersion) string { return unicodeOr(v, "PWideChar", "PAnsiChar") }},
	{"Int8", constName("ShortInt")},
	{"UInt8", constName("Byte")},
	{"Int16", constName("SmallInt")},
	{"UInt16", constName("Word")},
	{"Int32", constName("Integer")},
	{"UInt32", constName("Cardinal")},
}

func unicodeOr(v toolchain.CompilerVersion, unicode, ansi string) string {
	if v.AtLeast(toolchain.VER200) {
		return unicode
	}
	return ansi
}

func constName(name string) func(toolchain.CompilerVersion) string {
	return func(toolchain.CompilerVersion) string { return name }
}

func (f *Factory) registerIntrinsics() {
	tc, v := f.target.Toolchain, f.target.Version
	var pending []TypeID
	for _, def := range intrinsicDefs {
		size := def.size(tc, v)
		low, high := def.low, def.high
		if def.family&FamilyInteger != 0 && low == 0 && high == 0 {
			switch def.name {
			case "NativeUInt", "LongWord":
				low, high = unsignedRange(size)
			default:
				low, high = signedRange(size)
			}
		}
		id := f.internRaw(Type{
			Kind:   KindIntrinsic,
			Image:  def.name,
			Family: def.family,
			Size:   size,
			Low:    low,
			High:   high,
		})
		f.intrinsics[names.Key(def.name)] = id
		if def.elem != "" {
			pending = append(pending, id)
		}
	}
	for _, id := range pending {
		for _, def := range intrinsicDefs {
			if def.name == f.types[id].Image {
				f.types[id].Elem = f.intrinsics[names.Key(def.elem)]
			}
		}
	}
	for _, a := range intrinsicAliases {
		f.intrinsics[names.Key(a.name)] = f.intrinsics[names.Key(a.target(v))]
	}
}

// Intrinsic returns the intrinsic named name. Aliases such as String and
// Char resolve to the version's concrete type; a System. prefix is allowed.
func (f *Factory) Intrinsic(name string) (TypeID, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.intrinsic(name)
}

func (f *Factory) intrinsic(name string) (TypeID, bool) {
	if rest, ok := cutPrefixFold(name, "System."); ok {
		name = rest
	}
	id, ok := f.intrinsics[names.Key(name)]
	return id, ok
}

func (f *Factory) mustIntrinsic(name string) TypeID {
	id, ok := f.intrinsic(name)
	if !ok {
		panic("types: missing intrinsic " + name)
	}
	return id
}

// IntrinsicNames lists every intrinsic and alias name in catalog order.
func (f *Factory) IntrinsicNames() []string {
	out := make([]string, 0, len(intrinsicDefs)+len(intrinsicAliases))
	for _, def := range intrinsicDefs {
		out = append(out, def.name)
	}
	for _, a := range intrinsicAliases {
		out = append(out, a.name)
	}
	return out
}

// SizeOf implements SizeOf(X) for conditional expressions: intrinsics by
// name, then any type registered under that image.
func (f *Factory) SizeOf(name string) (int, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if id, ok := f.intrinsic(name); ok {
		return f.size(id, 0), true
	}
	if id, ok := f.index[names.Key(name)]; ok && f.resolved(id) {
		return f.size(id, 0), true
	}
	return 0, false
}

func cutPrefixFold(s, prefix string) (string, bool) {
	if len(s) > len(prefix) && strings.EqualFold(s[:len(prefix)], prefix) {
		return s[len(prefix):], true
	}
	return s, false
}
