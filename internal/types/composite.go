package types

import (
	"fmt"
	"strings"

	"pasfront/internal/names"
)

// PointerTo returns ^t.
func (f *Factory) PointerTo(t TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intern(Type{Kind: KindPointer, Image: "^" + f.get(t).Image, Family: FamilyPointer, Size: f.PointerSize(), Elem: t})
}

// Array builds a fixed, dynamic or open array. Fixed arrays take one
// ordinal index type per dimension; an empty name gives an anonymous
// structural image.
func (f *Factory) Array(name string, elem TypeID, opt ArrayOption, indices ...TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch opt {
	case ArrayDynamic:
		image := name
		if image == "" {
			image = "array of " + f.get(elem).Image
		}
		return f.intern(Type{Kind: KindDynamicArray, Image: image, Family: FamilyArray, Elem: elem})
	case ArrayOpen:
		image := name
		if image == "" {
			image = "open array of " + f.get(elem).Image
		}
		return f.intern(Type{Kind: KindOpenArray, Image: image, Family: FamilyArray, Elem: elem})
	}
	// array[A, B] of T is array[A] of array[B] of T
	if len(indices) == 0 {
		return f.intern(Type{Kind: KindUnresolved, Image: "array[] of " + f.get(elem).Image})
	}
	inner := elem
	for i := len(indices) - 1; i >= 0; i-- {
		idx := indices[i]
		low, high, ok := f.bounds(idx)
		if !ok {
			low, high = 0, -1
		}
		image := fmt.Sprintf("array[%s] of %s", f.get(idx).Image, f.get(inner).Image)
		if i == 0 && name != "" {
			image = name
		}
		inner = f.intern(Type{Kind: KindFixedArray, Image: image, Family: FamilyArray, Elem: inner, Low: low, High: high, Payload: uint32(idx)})
	}
	return inner
}

// Set builds set of elem.
func (f *Factory) Set(name string, elem TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		name = "set of " + f.get(elem).Image
	}
	low, high, _ := f.bounds(elem)
	return f.intern(Type{Kind: KindSet, Image: name, Family: FamilySet, Elem: elem, Low: low, High: high})
}

// SubRange builds low..high over an ordinal host type.
func (f *Factory) SubRange(name string, host TypeID, low, high int64) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		name = fmt.Sprintf("%d..%d", low, high)
	}
	fam := f.family(host) & FamilyOrdinal
	if fam == 0 {
		fam = FamilyInteger
	}
	return f.intern(Type{Kind: KindSubrange, Image: name, Family: fam, Elem: host, Low: low, High: high})
}

// Enum builds an enumeration. minEnumSize is the $Z setting at the
// declaration (1, 2 or 4).
func (f *Factory) Enum(name string, elements []string, minEnumSize int) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	size := 1
	switch n := len(elements); {
	case n > 1<<16:
		size = 4
	case n > 1<<8:
		size = 2
	}
	size = max(size, minEnumSize)
	payload := slot(&f.enums, append([]string(nil), elements...))
	return f.intern(Type{
		Kind:    KindEnum,
		Image:   name,
		Family:  FamilyEnum,
		Size:    size,
		Low:     0,
		High:    int64(len(elements)) - 1,
		Payload: payload,
	})
}

// Record creates a record. fields may be empty and added later with
// AddMember; the size is computed from the fields present when asked.
func (f *Factory) Record(name string, fields []Field, packed bool, align int) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	info := StructInfo{Packed: packed, Align: align}
	for _, fl := range fields {
		info.Members = append(info.Members, Member{Name: fl.Name, Kind: MemberField, Type: fl.Type, Visibility: VisPublic})
	}
	return f.structType(KindRecord, name, FamilyRecord, info)
}

// Class declares a class type. A forward declaration and the full
// declaration share one TypeID.
func (f *Factory) Class(name string, parent TypeID, interfaces ...TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.index[names.Key(name)]; ok && f.types[id].Kind == KindClass {
		info := &f.structs[f.types[id].Payload]
		if parent != NoTypeID {
			info.Parent = parent
		}
		info.Interfaces = append(info.Interfaces, interfaces...)
		return id
	}
	info := StructInfo{Parent: parent, Interfaces: append([]TypeID(nil), interfaces...)}
	return f.structType(KindClass, name, FamilyClass, info)
}

// Interface declares an interface type.
func (f *Factory) Interface(name string, parent TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id, ok := f.index[names.Key(name)]; ok && f.types[id].Kind == KindInterface {
		if parent != NoTypeID {
			f.structs[f.types[id].Payload].Parent = parent
		}
		return id
	}
	return f.structType(KindInterface, name, FamilyInterface, StructInfo{Parent: parent})
}

func (f *Factory) structType(kind Kind, name string, fam FamilyMask, info StructInfo) TypeID {
	if id, ok := f.index[names.Key(name)]; ok && f.types[id].Kind == kind {
		return id
	}
	payload := slot(&f.structs, info)
	return f.internRaw(Type{Kind: kind, Image: name, Family: fam, Payload: payload})
}

// ClassReference builds class of class.
func (f *Factory) ClassReference(name string, class TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		name = "class of " + f.get(class).Image
	}
	return f.intern(Type{Kind: KindClassReference, Image: name, Family: FamilyClassRef, Size: f.PointerSize(), Elem: class})
}

// Procedural builds a procedure or function type. Method pointers
// (of object) are two pointers wide; reference to procedure is an
// interface.
func (f *Factory) Procedural(name string, info ProcInfo) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	if name == "" {
		name = f.procImage(info)
	}
	size := f.PointerSize()
	if info.OfObject {
		size *= 2
	}
	info.Params = append([]Param(nil), info.Params...)
	payload := slot(&f.procs, info)
	return f.intern(Type{Kind: KindProcedural, Image: name, Family: FamilyProcedural, Size: size, Payload: payload})
}

func (f *Factory) procImage(info ProcInfo) string {
	var b strings.Builder
	if info.IsReference {
		b.WriteString("reference to ")
	}
	if info.Result != NoTypeID {
		b.WriteString("function")
	} else {
		b.WriteString("procedure")
	}
	if len(info.Params) > 0 {
		b.WriteByte('(')
		for i, p := range info.Params {
			if i > 0 {
				b.WriteString("; ")
			}
			b.WriteString(f.get(p.Type).Image)
		}
		b.WriteByte(')')
	}
	if info.Result != NoTypeID {
		b.WriteString(": " + f.get(info.Result).Image)
	}
	if info.OfObject {
		b.WriteString(" of object")
	}
	return b.String()
}

// WeakAlias declares type Name = Target: the same type under another name.
func (f *Factory) WeakAlias(name string, target TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.get(target)
	return f.intern(Type{Kind: KindWeakAlias, Image: name, Family: t.Family, Elem: target, Low: t.Low, High: t.High})
}

// StrongAlias declares type Name = type Target: a distinct type with the
// target's representation.
func (f *Factory) StrongAlias(name string, target TypeID) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.get(target)
	return f.intern(Type{Kind: KindStrongAlias, Image: name, Family: t.Family, Elem: target, Low: t.Low, High: t.High})
}

// TypeParameter declares a generic parameter. Its image is qualified by the
// owner so T of TList and T of TDictionary differ.
func (f *Factory) TypeParameter(owner, name string, constraints ...Constraint) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	payload := slot(&f.params, ParamInfo{Name: name, Constraints: append([]Constraint(nil), constraints...)})
	image := name
	if owner != "" {
		image = owner + "." + name
	}
	return f.internRaw(Type{Kind: KindTypeParameter, Image: image, Payload: payload})
}

// SetConstraints replaces the constraints of a type parameter. Constraints
// may reference types declared after the parameter, so they are attached
// once types are resolved.
func (f *Factory) SetConstraints(param TypeID, constraints []Constraint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.get(param)
	if t.Kind != KindTypeParameter {
		return
	}
	f.params[t.Payload].Constraints = append([]Constraint(nil), constraints...)
}

// Constraints returns the constraints of a type parameter.
func (f *Factory) Constraints(param TypeID) []Constraint {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t := f.get(param)
	if t.Kind != KindTypeParameter {
		return nil
	}
	return append([]Constraint(nil), f.params[t.Payload].Constraints...)
}

// Unresolved stands for a name that did not resolve. It never satisfies a
// constraint and is never identical to anything.
func (f *Factory) Unresolved(image string) TypeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := "?" + names.Key(image)
	if id, ok := f.index[key]; ok {
		return id
	}
	id := f.internRaw(Type{Kind: KindUnresolved})
	f.types[id].Image = image
	f.index[key] = id
	return id
}

// Size returns the byte size of id on the factory's target.
func (f *Factory) Size(id TypeID) int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.size(id, 0)
}

func (f *Factory) size(id TypeID, depth int) int {
	if depth > 64 {
		return 0
	}
	t := f.get(id)
	switch t.Kind {
	case KindIntrinsic, KindPointer, KindEnum, KindClassReference, KindProcedural:
		return t.Size
	case KindClass, KindInterface, KindDynamicArray, KindOpenArray:
		return f.PointerSize()
	case KindWeakAlias, KindStrongAlias:
		return f.size(t.Elem, depth+1)
	case KindSubrange:
		return subrangeSize(t.Low, t.High, f.size(t.Elem, depth+1))
	case KindSet:
		return setSize(t.Low, t.High)
	case KindFixedArray:
		n := t.High - t.Low + 1
		if n <= 0 {
			return 0
		}
		return int(n) * f.size(t.Elem, depth+1)
	case KindRecord:
		size, _ := f.recordLayout(id, depth+1)
		return size
	}
	return 0
}

// subrangeSize picks the smallest integer that holds the range, never
// larger than the host.
func subrangeSize(low, high int64, host int) int {
	size := 8
	switch {
	case low >= -128 && high <= 127, low >= 0 && high <= 255:
		size = 1
	case low >= -32768 && high <= 32767, low >= 0 && high <= 65535:
		size = 2
	case low >= -(1<<31) && high <= 1<<31-1, low >= 0 && high <= 1<<32-1:
		size = 4
	}
	if host > 0 && host < size {
		return host
	}
	return size
}

// setSize covers the bytes holding bits low..high; 3 bytes round up to 4.
func setSize(low, high int64) int {
	if high < low {
		return 0
	}
	low, high = max(low, 0), min(high, 255)
	n := int(high/8 - low/8 + 1)
	if n == 3 {
		return 4
	}
	return min(n, 32)
}

func (f *Factory) alignOf(id TypeID, depth int) int {
	if depth > 64 {
		return 1
	}
	t := f.get(f.stripWeak(id))
	switch t.Kind {
	case KindRecord:
		_, align := f.recordLayout(f.stripWeak(id), depth+1)
		return align
	case KindFixedArray:
		return f.alignOf(t.Elem, depth+1)
	case KindStrongAlias, KindSubrange:
		return f.alignOf(t.Elem, depth+1)
	case KindSet:
		if s := setSize(t.Low, t.High); s <= 4 {
			return s
		}
		return 1
	case KindIntrinsic:
		if t.Family&FamilyString != 0 && t.Size == 256 {
			return 1 // ShortString
		}
	}
	size := f.size(id, depth+1)
	switch {
	case size >= 8:
		return 8
	case size >= 4:
		return 4
	case size >= 2:
		return 2
	}
	return 1
}

// recordLayout returns the aligned size of a record and its alignment.
func (f *Factory) recordLayout(id TypeID, depth int) (int, int) {
	t := f.get(id)
	info := f.structs[t.Payload]
	limit := info.Align
	if limit <= 0 {
		limit = 8
	}
	if info.Packed {
		limit = 1
	}
	offset, recAlign := 0, 1
	for _, m := range info.Members {
		if m.Kind != MemberField || m.Static {
			continue
		}
		a := min(f.alignOf(m.Type, depth), limit)
		offset = alignUp(offset, a)
		offset += f.size(m.Type, depth)
		recAlign = max(recAlign, a)
	}
	return alignUp(offset, recAlign), recAlign
}

func alignUp(n, a int) int {
	if a <= 1 {
		return n
	}
	return (n + a - 1) / a * a
}
