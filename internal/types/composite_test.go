package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"pasfront/internal/toolchain"
)

func newTestFactory(t *testing.T, tc toolchain.Toolchain) (*Factory, func(string) TypeID) {
	t.Helper()
	f := NewFactory(tc, toolchain.VER350)
	return f, func(name string) TypeID {
		t.Helper()
		id, ok := f.Intrinsic(name)
		if !ok {
			t.Fatalf("missing intrinsic %s", name)
		}
		return id
	}
}

func TestPointerAndDereference(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	p := f.PointerTo(in("Integer"))
	if f.Image(p) != "^Integer" || f.Size(p) != 4 {
		t.Fatalf("PointerTo = %s size %d", f.Image(p), f.Size(p))
	}
	if f.PointerTo(in("Integer")) != p {
		t.Fatalf("PointerTo must reuse the structural type")
	}
	if f.Dereference(p) != in("Integer") {
		t.Fatalf("Dereference(^Integer) = %s", f.Image(f.Dereference(p)))
	}
	alias := f.WeakAlias("PInt", p)
	if f.Dereference(alias) != in("Integer") {
		t.Fatalf("Dereference through alias failed")
	}
	if f.Dereference(in("Integer")) != NoTypeID {
		t.Fatalf("Dereference of a non-pointer must be empty")
	}
}

func TestArraySizes(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	zeroToNine := f.SubRange("", in("Integer"), 0, 9)
	arr := f.Array("", in("Integer"), ArrayFixed, zeroToNine)
	if got := f.Size(arr); got != 40 {
		t.Fatalf("array[0..9] of Integer size = %d", got)
	}
	matrix := f.Array("TMatrix", in("Byte"), ArrayFixed, f.SubRange("", in("Integer"), 1, 3), f.SubRange("", in("Integer"), 1, 4))
	if got := f.Size(matrix); got != 12 {
		t.Fatalf("array[1..3, 1..4] of Byte size = %d", got)
	}
	if f.Image(matrix) != "TMatrix" || !f.IsFixedArray(matrix) {
		t.Fatalf("matrix = %s %s", f.Image(matrix), f.Kind(matrix))
	}
	byBool := f.Array("", in("Double"), ArrayFixed, in("Boolean"))
	if got := f.Size(byBool); got != 16 {
		t.Fatalf("array[Boolean] of Double size = %d", got)
	}
	dyn := f.Array("", in("Integer"), ArrayDynamic)
	open := f.Array("", in("Integer"), ArrayOpen)
	if f.Size(dyn) != 4 || f.Size(open) != 4 || !f.IsDynamicArray(dyn) || !f.IsOpenArray(open) {
		t.Fatalf("dynamic/open arrays: %d %d", f.Size(dyn), f.Size(open))
	}
	if f.Image(dyn) != "array of Integer" {
		t.Fatalf("dynamic image %q", f.Image(dyn))
	}

	f64, in64 := newTestFactory(t, toolchain.DCC64)
	if got := f64.Size(f64.Array("", in64("Integer"), ArrayDynamic)); got != 8 {
		t.Fatalf("64-bit dynamic array size = %d", got)
	}
}

func TestSetSizes(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	color := f.Enum("TColor", []string{"Red", "Green", "Blue"}, 1)
	cases := []struct {
		name string
		elem TypeID
		want int
	}{
		{"set of enum", color, 1},
		{"set of Byte", in("Byte"), 32},
		{"set of AnsiChar", in("AnsiChar"), 32},
		{"set of 0..20", f.SubRange("", in("Byte"), 0, 20), 4},
		{"set of 8..15", f.SubRange("", in("Byte"), 8, 15), 1},
		{"set of 0..15", f.SubRange("", in("Byte"), 0, 15), 2},
		{"set of 0..40", f.SubRange("", in("Byte"), 0, 40), 6},
	}
	for _, tc := range cases {
		if got := f.Size(f.Set("", tc.elem)); got != tc.want {
			t.Errorf("%s: size %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestEnumSizes(t *testing.T) {
	f, _ := newTestFactory(t, toolchain.DCC32)
	three := []string{"A", "B", "C"}
	many := make([]string, 300)
	for i := range many {
		many[i] = "E" + string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	cases := []struct {
		name    string
		elems   []string
		minSize int
		want    int
	}{
		{"TSmall", three, 1, 1},
		{"TSmallZ2", three, 2, 2},
		{"TSmallZ4", three, 4, 4},
		{"TMany", many, 1, 2},
	}
	for _, tc := range cases {
		id := f.Enum(tc.name, tc.elems, tc.minSize)
		if got := f.Size(id); got != tc.want {
			t.Errorf("%s: size %d, want %d", tc.name, got, tc.want)
		}
	}
	id := f.Enum("TAbc", three, 1)
	if diff := cmp.Diff(three, f.EnumElements(id)); diff != "" {
		t.Fatalf("EnumElements mismatch (-want +got):\n%s", diff)
	}
	if low, high, _ := f.Bounds(id); low != 0 || high != 2 {
		t.Fatalf("Bounds = %d..%d", low, high)
	}
	if !f.IsEnum(id) || !f.IsOrdinal(id) {
		t.Fatalf("enum predicates")
	}
}

func TestSubRangeSizes(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	cases := []struct {
		host      string
		low, high int64
		want      int
	}{
		{"Integer", 0, 200, 1},
		{"Integer", -1, 200, 2},
		{"Integer", -100, 100, 1},
		{"Integer", 0, 70000, 4},
		{"Int64", 0, 1 << 40, 8},
		{"Byte", 0, 10, 1},
		{"Word", 0, 65535, 2},
	}
	for _, tc := range cases {
		id := f.SubRange("", in(tc.host), tc.low, tc.high)
		if got := f.Size(id); got != tc.want {
			t.Errorf("%s %d..%d: size %d, want %d", tc.host, tc.low, tc.high, got, tc.want)
		}
		if f.FindBaseType(id) != in(tc.host) {
			t.Errorf("FindBaseType(%d..%d) = %s", tc.low, tc.high, f.Image(f.FindBaseType(id)))
		}
	}
	letters := f.SubRange("TLetter", in("AnsiChar"), 'a', 'z')
	if !f.IsChar(letters) || !f.IsSubrange(letters) {
		t.Fatalf("char subrange predicates")
	}
}

func TestRecordLayout(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	byteInt := []Field{{"A", in("Byte")}, {"B", in("Integer")}}
	byteDouble := []Field{{"A", in("Byte")}, {"B", in("Double")}}
	cases := []struct {
		name   string
		fields []Field
		packed bool
		align  int
		want   int
	}{
		{"R1", byteInt, false, 8, 8},
		{"R2", byteInt, true, 8, 5},
		{"R3", byteInt, false, 2, 6},
		{"R4", byteInt, false, 1, 5},
		{"R5", byteDouble, false, 8, 16},
		{"R6", byteDouble, false, 4, 12},
		{"R7", []Field{{"A", in("Byte")}, {"B", in("Word")}, {"C", in("Byte")}}, false, 8, 6},
		{"R8", []Field{{"S", in("ShortString")}, {"B", in("Byte")}}, false, 8, 257},
		{"R9", nil, false, 8, 0},
	}
	for _, tc := range cases {
		id := f.Record(tc.name, tc.fields, tc.packed, tc.align)
		if got := f.Size(id); got != tc.want {
			t.Errorf("%s: size %d, want %d", tc.name, got, tc.want)
		}
	}

	inner := f.Record("TInner", byteInt, false, 8)
	outer := f.Record("TOuter", []Field{{"X", in("Byte")}, {"In", inner}}, false, 8)
	if got := f.Size(outer); got != 12 {
		t.Fatalf("nested record size = %d", got)
	}

	// members added later count towards the size
	late := f.Record("TLate", nil, false, 8)
	f.AddMember(late, Member{Name: "A", Kind: MemberField, Type: in("Int64")})
	f.AddMember(late, Member{Name: "M", Kind: MemberMethod})
	if got := f.Size(late); got != 8 {
		t.Fatalf("late record size = %d", got)
	}
}

func TestReferenceSizes(t *testing.T) {
	for _, tc := range []struct {
		tc  toolchain.Toolchain
		ptr int
	}{{toolchain.DCC32, 4}, {toolchain.DCC64, 8}} {
		f, in := newTestFactory(t, tc.tc)
		obj := f.Class("TObject", NoTypeID)
		iface := f.Interface("IInterface", NoTypeID)
		ref := f.ClassReference("", obj)
		proc := f.Procedural("", ProcInfo{Params: []Param{{Name: "X", Type: in("Integer")}}})
		method := f.Procedural("TNotifyEvent", ProcInfo{Params: []Param{{Name: "Sender", Type: obj}}, OfObject: true})
		anon := f.Procedural("TProc", ProcInfo{IsReference: true})
		got := []int{f.Size(obj), f.Size(iface), f.Size(ref), f.Size(proc), f.Size(method), f.Size(anon)}
		want := []int{tc.ptr, tc.ptr, tc.ptr, tc.ptr, 2 * tc.ptr, tc.ptr}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s sizes mismatch (-want +got):\n%s", tc.tc, diff)
		}
		if f.Image(ref) != "class of TObject" || f.Dereference(ref) != obj {
			t.Fatalf("class reference %s", f.Image(ref))
		}
		if f.Image(proc) != "procedure(Integer)" {
			t.Fatalf("procedural image %q", f.Image(proc))
		}
		if !f.IsMethodPointer(method) || f.IsMethodPointer(proc) {
			t.Fatalf("IsMethodPointer")
		}
	}
}

func TestAliases(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	weak := f.WeakAlias("TMyInt", in("Integer"))
	strong := f.StrongAlias("TDistinct", in("Integer"))
	if !f.Identical(weak, in("Integer")) {
		t.Fatalf("weak alias must be identical to its target")
	}
	if f.Identical(strong, in("Integer")) {
		t.Fatalf("strong alias must be a distinct type")
	}
	if f.FindBaseType(strong) != in("Integer") || !f.IsInteger(strong) || f.Size(strong) != 4 {
		t.Fatalf("strong alias base")
	}
	u := f.Unresolved("TMissing")
	if f.Identical(u, u) || f.IsResolved(u) {
		t.Fatalf("unresolved types are never identical")
	}
	if f.Unresolved("tmissing") != u {
		t.Fatalf("unresolved images are interned case-insensitively")
	}
	if f.String(u) != "?TMissing" {
		t.Fatalf("String(unresolved) = %q", f.String(u))
	}
}

func TestClassHierarchy(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	obj := f.Class("TObject", NoTypeID)
	iface := f.Interface("IRunnable", NoTypeID)
	base := f.Class("TBase", obj)
	fwd := f.Class("TDerived", NoTypeID)
	derived := f.Class("TDerived", base, iface)
	if fwd != derived {
		t.Fatalf("forward and full declaration must share a TypeID")
	}
	f.AddMember(base, Member{Name: "Run", Kind: MemberMethod, Visibility: VisPublic})
	f.AddMember(base, Member{Name: "Count", Kind: MemberField, Type: in("Integer")})

	if diff := cmp.Diff([]TypeID{base, obj}, f.Ancestors(derived)); diff != "" {
		t.Fatalf("Ancestors mismatch (-want +got):\n%s", diff)
	}
	if f.Parent(derived) != base {
		t.Fatalf("Parent = %s", f.Image(f.Parent(derived)))
	}
	if !f.Is(derived, base) || !f.Is(derived, obj) || f.Is(base, derived) {
		t.Fatalf("Is hierarchy")
	}
	if !f.Is(derived, iface) || f.Is(base, iface) {
		t.Fatalf("Is interface")
	}
	ms, owner := f.FindMember(derived, "RUN")
	if len(ms) != 1 || owner != base {
		t.Fatalf("FindMember = %v %s", ms, f.Image(owner))
	}
	if ms, _ := f.FindMember(derived, "Missing"); ms != nil {
		t.Fatalf("FindMember of a missing name = %v", ms)
	}

	// a cyclic hierarchy terminates
	a := f.Class("TA", NoTypeID)
	b := f.Class("TB", a)
	f.SetParent(a, b)
	if got := len(f.Ancestors(a)); got != 1 {
		t.Fatalf("cyclic Ancestors = %d entries", got)
	}
}

func TestInstantiate(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC32)
	obj := f.Class("TObject", NoTypeID)
	param := f.TypeParameter("TList", "T")
	list := f.Class("TList<T>", obj)
	f.SetTypeParams(list, []TypeID{param})
	f.AddMember(list, Member{Name: "Items", Kind: MemberProperty, Type: param, Params: []Param{{Name: "Index", Type: in("Integer")}}})
	f.AddMember(list, Member{Name: "Add", Kind: MemberMethod, Params: []Param{{Name: "Value", Type: param}}})
	f.AddMember(list, Member{Name: "Data", Kind: MemberField, Type: f.Array("", param, ArrayDynamic)})

	inst, ok := f.Instantiate(list, []TypeID{in("Integer")})
	if !ok {
		t.Fatalf("Instantiate failed")
	}
	if f.Image(inst) != "TList<Integer>" || !f.IsClass(inst) {
		t.Fatalf("instance = %s %s", f.Image(inst), f.Kind(inst))
	}
	items, _ := f.FindMember(inst, "Items")
	add, _ := f.FindMember(inst, "Add")
	data, _ := f.FindMember(inst, "Data")
	if items[0].Type != in("Integer") || add[0].Params[0].Type != in("Integer") {
		t.Fatalf("type parameter not substituted")
	}
	if f.Image(data[0].Type) != "array of Integer" {
		t.Fatalf("nested substitution = %s", f.Image(data[0].Type))
	}
	if again, _ := f.Instantiate(list, []TypeID{in("Integer")}); again != inst {
		t.Fatalf("instances must be reused")
	}
	if generic, args := f.GenericOf(inst); generic != list || len(args) != 1 || args[0] != in("Integer") {
		t.Fatalf("GenericOf = %s %v", f.Image(generic), args)
	}
	if _, ok := f.Instantiate(list, []TypeID{in("Integer"), in("Byte")}); ok {
		t.Fatalf("arity mismatch must fail")
	}
	if _, ok := f.Instantiate(obj, []TypeID{in("Integer")}); ok {
		t.Fatalf("non-generic types cannot be instantiated")
	}

	objParam := f.TypeParameter("TObjectList", "T", ClassConstraint)
	objList := f.Class("TObjectList<T>", obj)
	f.SetTypeParams(objList, []TypeID{objParam})
	if _, ok := f.Instantiate(objList, []TypeID{in("Integer")}); ok {
		t.Fatalf("Integer must violate the class constraint")
	}
	if _, ok := f.Instantiate(objList, []TypeID{obj}); !ok {
		t.Fatalf("TObject must satisfy the class constraint")
	}
}

func TestRefreshInstances(t *testing.T) {
	f, in := newTestFactory(t, toolchain.DCC64)
	obj := f.Class("TObject", NoTypeID)
	enumParam := f.TypeParameter("TEnumerable", "T")
	enumerable := f.Class("TEnumerable<T>", obj)
	f.SetTypeParams(enumerable, []TypeID{enumParam})
	listParam := f.TypeParameter("TList", "T")
	list := f.Class("TList<T>", NoTypeID)
	f.SetTypeParams(list, []TypeID{listParam})

	early, ok := f.Instantiate(list, []TypeID{in("Integer")})
	if !ok {
		t.Fatalf("Instantiate failed")
	}
	if members := f.Members(early); len(members) != 0 {
		t.Fatalf("early instance members = %d", len(members))
	}

	base, ok := f.Instantiate(enumerable, []TypeID{listParam})
	if !ok {
		t.Fatalf("Instantiate(TEnumerable<T>) failed")
	}
	f.SetParent(list, base)
	f.AddMember(list, Member{Name: "Add", Kind: MemberMethod, Params: []Param{{Name: "Value", Type: listParam}}})
	f.RefreshInstances()

	add, _ := f.FindMember(early, "Add")
	if len(add) != 1 || add[0].Params[0].Type != in("Integer") {
		t.Fatalf("refreshed Add = %+v", add)
	}
	if got := f.Image(f.Parent(early)); got != "TEnumerable<Integer>" {
		t.Fatalf("refreshed parent = %s", got)
	}
}
