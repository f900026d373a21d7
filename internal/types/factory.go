package types

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"

	"pasfront/internal/names"
	"pasfront/internal/toolchain"
)

// Factory owns every type of one analysis run. Intrinsics depend only on the
// toolchain and compiler version it was created for. The symbol table
// builder populates composite types sequentially and reads them from many
// goroutines, so all access is locked.
type Factory struct {
	mu      sync.RWMutex
	target  toolchain.Target
	types   []Type
	index   map[string]TypeID // image key -> newest type with that image
	structs []StructInfo
	procs   []ProcInfo
	params  []ParamInfo
	enums   [][]string

	intrinsics map[string]TypeID // intrinsic names and their aliases
	nilType    TypeID
	untyped    TypeID
	unknown    TypeID
}

// NewFactory builds the intrinsic catalog for tc and v.
func NewFactory(tc toolchain.Toolchain, v toolchain.CompilerVersion) *Factory {
	f := &Factory{
		target:     toolchain.Target{Toolchain: tc, Version: v},
		types:      make([]Type, 1, 128), // reserve 0 as invalid sentinel
		index:      make(map[string]TypeID, 128),
		structs:    make([]StructInfo, 1, 32),
		procs:      make([]ProcInfo, 1, 16),
		params:     make([]ParamInfo, 1, 16),
		enums:      make([][]string, 1, 16),
		intrinsics: make(map[string]TypeID, 64),
	}
	f.untyped = f.internRaw(Type{Kind: KindUntyped, Image: "<untyped>"})
	f.unknown = f.internRaw(Type{Kind: KindUnknown, Image: "<unknown>"})
	f.nilType = f.internRaw(Type{Kind: KindPointer, Image: "nil", Family: FamilyPointer, Size: tc.PointerSize()})
	f.registerIntrinsics()
	return f
}

// Toolchain returns the toolchain the factory models.
func (f *Factory) Toolchain() toolchain.Toolchain { return f.target.Toolchain }

// Version returns the compiler version the factory models.
func (f *Factory) Version() toolchain.CompilerVersion { return f.target.Version }

// PointerSize is 4 or 8.
func (f *Factory) PointerSize() int { return f.target.Toolchain.PointerSize() }

func (f *Factory) internRaw(t Type) TypeID {
	n, err := safecast.Conv[uint32](len(f.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(n)
	f.types = append(f.types, t)
	if t.Image != "" {
		f.index[names.Key(t.Image)] = id
	}
	return id
}

// intern returns the existing type with t's image and kind, or adds t.
func (f *Factory) intern(t Type) TypeID {
	if id, ok := f.index[names.Key(t.Image)]; ok && f.types[id].Kind == t.Kind {
		return id
	}
	return f.internRaw(t)
}

func slot[T any](table *[]T, v T) uint32 {
	n, err := safecast.Conv[uint32](len(*table))
	if err != nil {
		panic(fmt.Errorf("side table overflow: %w", err))
	}
	*table = append(*table, v)
	return n
}

func (f *Factory) get(id TypeID) Type {
	if id == NoTypeID || int(id) >= len(f.types) {
		return Type{}
	}
	return f.types[id]
}

// Lookup returns the descriptor for id.
func (f *Factory) Lookup(id TypeID) (Type, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(f.types) {
		return Type{}, false
	}
	return f.types[id], true
}

// Kind returns the kind of id, KindInvalid for unknown ids.
func (f *Factory) Kind(id TypeID) Kind {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.get(id).Kind
}

// Image returns the qualified image of id.
func (f *Factory) Image(id TypeID) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.get(id).Image
}

// ByImage finds a type by its case-insensitive image.
func (f *Factory) ByImage(image string) (TypeID, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	id, ok := f.index[names.Key(image)]
	return id, ok
}

// Len returns the number of types, sentinel included.
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.types)
}

// Nil is the type of the nil literal.
func (f *Factory) Nil() TypeID { return f.nilType }

// Untyped is the type of untyped parameters (const X; var Y).
func (f *Factory) Untyped() TypeID { return f.untyped }

// Unknown is the type of expressions that could not be typed.
func (f *Factory) Unknown() TypeID { return f.unknown }

// Identical reports type identity: equal images once weak aliases are
// looked through.
func (f *Factory) Identical(a, b TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.identical(a, b)
}

func (f *Factory) identical(a, b TypeID) bool {
	a, b = f.stripWeak(a), f.stripWeak(b)
	ta, tb := f.get(a), f.get(b)
	if !hasIdentity(ta.Kind) || !hasIdentity(tb.Kind) {
		return false
	}
	return a == b || ta.Image != "" && ta.Kind == tb.Kind && names.Equal(ta.Image, tb.Image)
}

// hasIdentity is false for kinds that are never identical, not even to
// themselves.
func hasIdentity(k Kind) bool {
	return k != KindInvalid && k != KindUnresolved && k != KindUnknown
}

func (f *Factory) stripWeak(id TypeID) TypeID {
	for i := 0; i < 64; i++ {
		t := f.get(id)
		if t.Kind != KindWeakAlias {
			return id
		}
		id = t.Elem
	}
	return id
}

// Dereference returns what a pointer points to and the class of a class
// reference, looking through aliases. Other types yield NoTypeID.
func (f *Factory) Dereference(id TypeID) TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t := f.get(f.base(id))
	switch t.Kind {
	case KindPointer, KindClassReference:
		return t.Elem
	case KindIntrinsic:
		// PAnsiChar, PWideChar
		if t.Family&FamilyPointer != 0 && t.Elem != NoTypeID {
			return t.Elem
		}
	}
	return NoTypeID
}

// FindBaseType walks through aliases and subranges to the representation
// type.
func (f *Factory) FindBaseType(id TypeID) TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.base(id)
}

func (f *Factory) base(id TypeID) TypeID {
	for i := 0; i < 64; i++ {
		t := f.get(id)
		switch t.Kind {
		case KindWeakAlias, KindStrongAlias, KindSubrange:
			if t.Elem == NoTypeID {
				return id
			}
			id = t.Elem
		default:
			return id
		}
	}
	return id
}

// Family returns the operator family of id's base type.
func (f *Factory) Family(id TypeID) FamilyMask {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.family(id)
}

func (f *Factory) family(id TypeID) FamilyMask {
	return f.get(f.base(id)).Family
}

func (f *Factory) kindOf(id TypeID) Kind { return f.get(f.base(id)).Kind }

// Predicates look through aliases and subranges.

func (f *Factory) is(id TypeID, fn func(t Type) bool) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return fn(f.get(f.base(id)))
}

func (f *Factory) IsInteger(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyInteger != 0 })
}
func (f *Factory) IsReal(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyReal != 0 })
}
func (f *Factory) IsBoolean(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyBool != 0 })
}
func (f *Factory) IsChar(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyChar != 0 })
}
func (f *Factory) IsString(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyString != 0 })
}
func (f *Factory) IsVariant(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyVariant != 0 })
}
func (f *Factory) IsPointer(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyPointer != 0 })
}
func (f *Factory) IsClass(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindClass })
}
func (f *Factory) IsInterface(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindInterface })
}
func (f *Factory) IsRecord(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindRecord })
}
func (f *Factory) IsEnum(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindEnum })
}
func (f *Factory) IsSet(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindSet })
}
func (f *Factory) IsArray(id TypeID) bool {
	return f.is(id, func(t Type) bool {
		return t.Kind == KindFixedArray || t.Kind == KindDynamicArray || t.Kind == KindOpenArray
	})
}
func (f *Factory) IsFixedArray(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindFixedArray })
}
func (f *Factory) IsDynamicArray(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindDynamicArray })
}
func (f *Factory) IsOpenArray(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindOpenArray })
}
func (f *Factory) IsProcedural(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindProcedural })
}
func (f *Factory) IsClassReference(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindClassReference })
}
func (f *Factory) IsTypeParameter(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Kind == KindTypeParameter })
}

// IsOrdinal reports integers, chars, booleans, enums and their subranges.
func (f *Factory) IsOrdinal(id TypeID) bool {
	return f.is(id, func(t Type) bool { return t.Family&FamilyOrdinal != 0 })
}

// IsSubrange does not look through subranges, unlike the other predicates.
func (f *Factory) IsSubrange(id TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.get(f.stripWeak(id)).Kind == KindSubrange
}

// IsNil reports the nil literal type.
func (f *Factory) IsNil(id TypeID) bool { return id == f.nilType }

// IsResolved is false for unresolved and unknown types.
func (f *Factory) IsResolved(id TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.resolved(id)
}

func (f *Factory) resolved(id TypeID) bool {
	switch f.get(f.base(id)).Kind {
	case KindInvalid, KindUnresolved, KindUnknown:
		return false
	}
	return true
}

// IsMethodPointer reports procedure-of-object types.
func (f *Factory) IsMethodPointer(id TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t := f.get(f.base(id))
	return t.Kind == KindProcedural && f.procs[t.Payload].OfObject
}

// Bounds returns the ordinal range of an ordinal type.
func (f *Factory) Bounds(id TypeID) (low, high int64, ok bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.bounds(id)
}

func (f *Factory) bounds(id TypeID) (int64, int64, bool) {
	t := f.get(f.stripWeak(id))
	if t.Kind == KindStrongAlias {
		return f.bounds(t.Elem)
	}
	if t.Family&FamilyOrdinal == 0 {
		return 0, 0, false
	}
	return t.Low, t.High, true
}

// EnumElements returns the element names of an enum type.
func (f *Factory) EnumElements(id TypeID) []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t := f.get(f.base(id))
	if t.Kind != KindEnum {
		return nil
	}
	return append([]string(nil), f.enums[t.Payload]...)
}

// String renders a type for diagnostics.
func (f *Factory) String(id TypeID) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t := f.get(id)
	if t.Kind == KindInvalid {
		return "<invalid>"
	}
	if t.Kind == KindUnresolved {
		return "?" + t.Image
	}
	return t.Image
}

// genericBase strips the type argument list: TList<T> -> TList.
func genericBase(image string) string {
	if i := strings.IndexByte(image, '<'); i >= 0 {
		return image[:i]
	}
	return image
}
