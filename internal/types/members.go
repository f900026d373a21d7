package types

import (
	"strings"

	"pasfront/internal/names"
)

func (f *Factory) structInfo(id TypeID) (*StructInfo, bool) {
	t := f.get(f.stripWeak(id))
	switch t.Kind {
	case KindRecord, KindClass, KindInterface:
		return &f.structs[t.Payload], true
	}
	return nil, false
}

// SetParent records the ancestor of a class or interface.
func (f *Factory) SetParent(id, parent TypeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.structInfo(id); ok && parent != id {
		info.Parent = parent
	}
}

// AddInterface records an implemented interface.
func (f *Factory) AddInterface(id, iface TypeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.structInfo(id); ok {
		info.Interfaces = append(info.Interfaces, iface)
	}
}

// SetHelperFor marks a class or record helper.
func (f *Factory) SetHelperFor(id, target TypeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.structInfo(id); ok {
		info.HelperFor = target
	}
}

// HelperFor returns the extended type of a helper.
func (f *Factory) HelperFor(id TypeID) TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if info, ok := f.structInfo(id); ok {
		return info.HelperFor
	}
	return NoTypeID
}

// AddMember appends a member to a record, class or interface.
func (f *Factory) AddMember(id TypeID, m Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.structInfo(id); ok {
		m.Params = append([]Param(nil), m.Params...)
		info.Members = append(info.Members, m)
	}
}

// SetMemberType fixes the type of the n-th member once it is resolved.
func (f *Factory) SetMemberType(id TypeID, n int, typ TypeID, params []Param) {
	f.mu.Lock()
	defer f.mu.Unlock()
	info, ok := f.structInfo(id)
	if !ok || n < 0 || n >= len(info.Members) {
		return
	}
	info.Members[n].Type = typ
	if params != nil {
		info.Members[n].Params = append([]Param(nil), params...)
	}
}

// Members returns the members declared directly on id.
func (f *Factory) Members(id TypeID) []Member {
	f.mu.RLock()
	defer f.mu.RUnlock()
	info, ok := f.structInfo(id)
	if !ok {
		return nil
	}
	return append([]Member(nil), info.Members...)
}

// FindMember looks name up on id and then its ancestors. Overloaded
// methods return every declaration from the nearest type that has one.
func (f *Factory) FindMember(id TypeID, name string) ([]Member, TypeID) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.findMember(id, name)
}

func (f *Factory) findMember(id TypeID, name string) ([]Member, TypeID) {
	for _, cur := range f.chain(id) {
		info, _ := f.structInfo(cur)
		var out []Member
		for _, m := range info.Members {
			if names.Equal(m.Name, name) {
				out = append(out, m)
			}
		}
		if len(out) > 0 {
			return out, cur
		}
	}
	return nil, NoTypeID
}

// Parent returns the direct ancestor.
func (f *Factory) Parent(id TypeID) TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if info, ok := f.structInfo(id); ok {
		return info.Parent
	}
	return NoTypeID
}

// Interfaces returns the interfaces implemented directly by id.
func (f *Factory) Interfaces(id TypeID) []TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if info, ok := f.structInfo(id); ok {
		return append([]TypeID(nil), info.Interfaces...)
	}
	return nil
}

// Ancestors returns the parent chain of id, nearest first.
func (f *Factory) Ancestors(id TypeID) []TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	c := f.chain(id)
	if len(c) <= 1 {
		return nil
	}
	return c[1:]
}

// chain returns id and its ancestors. Cyclic hierarchies stop at the
// first repeat.
func (f *Factory) chain(id TypeID) []TypeID {
	var out []TypeID
	seen := make(map[TypeID]bool)
	for cur := f.stripWeak(id); cur != NoTypeID && !seen[cur]; {
		info, ok := f.structInfo(cur)
		if !ok {
			break
		}
		seen[cur] = true
		out = append(out, cur)
		cur = f.stripWeak(info.Parent)
	}
	return out
}

// Is reports whether t is identical to or descends from target. A class
// also "is" every interface it or an ancestor implements.
func (f *Factory) Is(t, target TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.isA(t, target)
}

func (f *Factory) isA(t, target TypeID) bool {
	if !f.resolved(t) || !f.resolved(target) {
		return false
	}
	if f.identical(t, target) {
		return true
	}
	for _, cur := range f.chain(t) {
		if f.identical(cur, target) {
			return true
		}
		info, _ := f.structInfo(cur)
		for _, iface := range info.Interfaces {
			if f.isA(iface, target) {
				return true
			}
		}
	}
	return false
}

// SetTypeParams declares id as generic over params.
func (f *Factory) SetTypeParams(id TypeID, params []TypeID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if info, ok := f.structInfo(id); ok {
		info.TypeParams = append([]TypeID(nil), params...)
		return
	}
	t := f.get(id)
	if t.Kind == KindProcedural {
		f.procs[t.Payload].TypeParams = append([]TypeID(nil), params...)
	}
}

// TypeParams returns the generic parameters of id.
func (f *Factory) TypeParams(id TypeID) []TypeID {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.typeParams(id)
}

func (f *Factory) typeParams(id TypeID) []TypeID {
	if info, ok := f.structInfo(id); ok {
		return append([]TypeID(nil), info.TypeParams...)
	}
	t := f.get(id)
	if t.Kind == KindProcedural {
		return append([]TypeID(nil), f.procs[t.Payload].TypeParams...)
	}
	return nil
}

// Signature returns the parameters and result of a procedural type.
func (f *Factory) Signature(id TypeID) (ProcInfo, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	t := f.get(f.base(id))
	if t.Kind != KindProcedural {
		return ProcInfo{}, false
	}
	info := f.procs[t.Payload]
	info.Params = append([]Param(nil), info.Params...)
	return info, true
}

// GenericOf returns the generic declaration an instance was built from.
func (f *Factory) GenericOf(id TypeID) (TypeID, []TypeID) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if info, ok := f.structInfo(id); ok && info.Generic != NoTypeID {
		return info.Generic, append([]TypeID(nil), info.TypeArgs...)
	}
	return NoTypeID, nil
}

// Instantiate applies args to a generic record, class or interface. The
// instance image is Base<Arg1,Arg2>; an existing instance is reused. It
// fails when the arity differs or an argument violates a constraint.
func (f *Factory) Instantiate(generic TypeID, args []TypeID) (TypeID, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instantiate(generic, args)
}

func (f *Factory) instantiate(generic TypeID, args []TypeID) (TypeID, bool) {
	info, ok := f.structInfo(generic)
	if !ok || len(info.TypeParams) == 0 || len(info.TypeParams) != len(args) {
		return NoTypeID, false
	}
	for i, p := range info.TypeParams {
		for _, c := range f.params[f.get(p).Payload].Constraints {
			if !c.satisfiedBy(f, args[i]) {
				return NoTypeID, false
			}
		}
	}

	gt := f.get(generic)
	argImages := make([]string, len(args))
	for i, a := range args {
		argImages[i] = f.get(a).Image
	}
	image := genericBase(gt.Image) + "<" + strings.Join(argImages, ",") + ">"
	if id, ok := f.index[names.Key(image)]; ok && f.types[id].Kind == gt.Kind {
		return id, true
	}

	payload := slot(&f.structs, StructInfo{Generic: generic, TypeArgs: append([]TypeID(nil), args...)})
	id := f.internRaw(Type{Kind: gt.Kind, Image: image, Family: gt.Family, Payload: payload})
	f.fillInstance(id)
	return id, true
}

// fillInstance copies parent, interfaces and members of the generic into
// an instance with the type arguments substituted. The instance is
// interned first, so self-referencing generics terminate.
func (f *Factory) fillInstance(id TypeID) {
	payload := f.get(id).Payload
	inst := f.structs[payload]
	g := f.structs[f.get(inst.Generic).Payload]

	subst := make(map[TypeID]TypeID, len(inst.TypeArgs))
	for i, p := range g.TypeParams {
		if i < len(inst.TypeArgs) {
			subst[p] = inst.TypeArgs[i]
		}
	}
	parent := f.substitute(g.Parent, subst)
	ifaces := make([]TypeID, 0, len(g.Interfaces))
	for _, iface := range g.Interfaces {
		ifaces = append(ifaces, f.substitute(iface, subst))
	}
	members := make([]Member, 0, len(g.Members))
	for _, m := range g.Members {
		m.Type = f.substitute(m.Type, subst)
		params := make([]Param, len(m.Params))
		for i, p := range m.Params {
			p.Type = f.substitute(p.Type, subst)
			params[i] = p
		}
		m.Params = params
		members = append(members, m)
	}

	// substitute may have grown the side table
	out := &f.structs[payload]
	out.Parent = parent
	out.Interfaces = ifaces
	out.Members = members
	out.HelperFor = g.HelperFor
	out.Packed = g.Packed
	out.Align = g.Align
}

// RefreshInstances rebuilds every generic instance from its generic
// declaration. Instances created while generics were still being
// declared miss the ancestors and members added afterwards.
func (f *Factory) RefreshInstances() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id := TypeID(1); int(id) < len(f.types); id++ {
		switch t := f.types[id]; t.Kind {
		case KindRecord, KindClass, KindInterface:
			if f.structs[t.Payload].Generic != NoTypeID {
				f.fillInstance(id)
			}
		}
	}
}

// substitute replaces type parameters inside pointers, arrays, sets and
// the arguments of generic instances. Other composites are returned
// unchanged.
func (f *Factory) substitute(id TypeID, subst map[TypeID]TypeID) TypeID {
	if r, ok := subst[id]; ok {
		return r
	}
	t := f.get(id)
	switch t.Kind {
	case KindPointer:
		if e := f.substitute(t.Elem, subst); e != t.Elem {
			return f.intern(Type{Kind: KindPointer, Image: "^" + f.get(e).Image, Family: FamilyPointer, Size: f.PointerSize(), Elem: e})
		}
	case KindDynamicArray:
		if e := f.substitute(t.Elem, subst); e != t.Elem {
			return f.intern(Type{Kind: KindDynamicArray, Image: "array of " + f.get(e).Image, Family: FamilyArray, Elem: e})
		}
	case KindSet:
		if e := f.substitute(t.Elem, subst); e != t.Elem {
			return f.intern(Type{Kind: KindSet, Image: "set of " + f.get(e).Image, Family: FamilySet, Elem: e, Low: t.Low, High: t.High})
		}
	case KindRecord, KindClass, KindInterface:
		info := f.structs[t.Payload]
		if info.Generic == NoTypeID {
			break
		}
		args := make([]TypeID, len(info.TypeArgs))
		changed := false
		for i, a := range info.TypeArgs {
			args[i] = f.substitute(a, subst)
			changed = changed || args[i] != a
		}
		if changed {
			if inst, ok := f.instantiate(info.Generic, args); ok {
				return inst
			}
		}
	}
	return id
}
