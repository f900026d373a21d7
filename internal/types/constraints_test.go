package types

import (
	"testing"

	"pasfront/internal/toolchain"
)

type constraintFixture struct {
	f                                           *Factory
	integer, obj, base, derived, iface, rec     TypeID
	withCreate, derivedCreate, privateCreate    TypeID
	createArgs, createDefault, dynArr, classRef TypeID
}

func newConstraintFixture(t *testing.T) constraintFixture {
	t.Helper()
	f := NewFactory(toolchain.DCC32, toolchain.VER350)
	fx := constraintFixture{f: f}
	fx.integer, _ = f.Intrinsic("Integer")
	fx.obj = f.Class("TObject", NoTypeID)
	fx.iface = f.Interface("IShape", NoTypeID)
	fx.base = f.Class("TBase", fx.obj)
	fx.derived = f.Class("TDerived", fx.base, fx.iface)
	fx.rec = f.Record("TRec", []Field{{"X", fx.integer}}, false, 8)

	fx.withCreate = f.Class("TWithCreate", fx.obj)
	f.AddMember(fx.withCreate, Member{Name: "Create", Kind: MemberConstructor, Visibility: VisPublic})
	fx.derivedCreate = f.Class("TDerivedCreate", fx.withCreate)
	fx.privateCreate = f.Class("TPrivateCreate", fx.obj)
	f.AddMember(fx.privateCreate, Member{Name: "Create", Kind: MemberConstructor, Visibility: VisPrivate})
	fx.createArgs = f.Class("TCreateArgs", fx.obj)
	f.AddMember(fx.createArgs, Member{Name: "create", Kind: MemberConstructor, Visibility: VisPublished,
		Params: []Param{{Name: "AOwner", Type: fx.obj}}})
	fx.createDefault = f.Class("TCreateDefault", fx.obj)
	f.AddMember(fx.createDefault, Member{Name: "Create", Kind: MemberConstructor, Visibility: VisPublic,
		Params: []Param{{Name: "AOwner", Type: fx.obj, HasDefault: true}}})

	fx.dynArr = f.Array("", fx.integer, ArrayDynamic)
	fx.classRef = f.ClassReference("TDerivedClass", fx.derived)
	return fx
}

func TestConcreteConstraints(t *testing.T) {
	fx := newConstraintFixture(t)
	f := fx.f
	unresolved := f.Unresolved("TGone")
	cases := []struct {
		name string
		c    Constraint
		typ  TypeID
		want bool
	}{
		{"class/class", ClassConstraint, fx.obj, true},
		{"class/nil", ClassConstraint, f.Nil(), true},
		{"class/record", ClassConstraint, fx.rec, false},
		{"class/integer", ClassConstraint, fx.integer, false},
		{"class/interface", ClassConstraint, fx.iface, false},
		{"class/unresolved", ClassConstraint, unresolved, false},
		{"class/unknown", ClassConstraint, f.Unknown(), false},

		{"ctor/public create", ConstructorConstraint, fx.withCreate, true},
		{"ctor/inherited create", ConstructorConstraint, fx.derivedCreate, true},
		{"ctor/private create", ConstructorConstraint, fx.privateCreate, false},
		{"ctor/create with args", ConstructorConstraint, fx.createArgs, false},
		{"ctor/create with defaults", ConstructorConstraint, fx.createDefault, true},
		{"ctor/no create", ConstructorConstraint, fx.obj, false},
		{"ctor/dynamic array", ConstructorConstraint, fx.dynArr, true},
		{"ctor/nil", ConstructorConstraint, f.Nil(), true},
		{"ctor/record", ConstructorConstraint, fx.rec, false},
		{"ctor/integer", ConstructorConstraint, fx.integer, false},

		{"record/record", RecordConstraint, fx.rec, true},
		{"record/class", RecordConstraint, fx.obj, false},
		{"record/integer", RecordConstraint, fx.integer, false},

		{"type/itself", TypeConstraint(fx.base), fx.base, true},
		{"type/descendant", TypeConstraint(fx.base), fx.derived, true},
		{"type/ancestor", TypeConstraint(fx.base), fx.obj, false},
		{"type/class reference", TypeConstraint(fx.base), fx.classRef, true},
		{"type/implemented interface", TypeConstraint(fx.iface), fx.derived, true},
		{"type/record", TypeConstraint(fx.base), fx.rec, false},
		{"type/unresolved", TypeConstraint(fx.base), unresolved, false},
		{"type/unresolved bound", TypeConstraint(unresolved), fx.base, false},
	}
	for _, tc := range cases {
		if got := tc.c.SatisfiedBy(f, tc.typ); got != tc.want {
			t.Errorf("%s: SatisfiedBy = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTypeParameterConstraints(t *testing.T) {
	fx := newConstraintFixture(t)
	f := fx.f
	cases := []struct {
		name  string
		outer Constraint
		own   []Constraint
		want  bool
	}{
		{"class by class", ClassConstraint, []Constraint{ClassConstraint}, true},
		{"class by class type", ClassConstraint, []Constraint{TypeConstraint(fx.base)}, true},
		{"class by interface type", ClassConstraint, []Constraint{TypeConstraint(fx.iface)}, false},
		{"class by record", ClassConstraint, []Constraint{RecordConstraint}, false},
		{"class by nothing", ClassConstraint, nil, false},
		{"class by constructor", ClassConstraint, []Constraint{ConstructorConstraint}, false},
		{"class by constructor and class", ClassConstraint, []Constraint{ConstructorConstraint, ClassConstraint}, true},

		{"ctor by ctor", ConstructorConstraint, []Constraint{ConstructorConstraint}, true},
		{"ctor by class and ctor", ConstructorConstraint, []Constraint{ClassConstraint, ConstructorConstraint}, true},
		{"ctor by class", ConstructorConstraint, []Constraint{ClassConstraint}, false},
		{"ctor by creatable type", ConstructorConstraint, []Constraint{TypeConstraint(fx.withCreate)}, true},
		{"ctor by record", ConstructorConstraint, []Constraint{RecordConstraint}, false},

		{"record by record", RecordConstraint, []Constraint{RecordConstraint}, true},
		{"record by record type", RecordConstraint, []Constraint{TypeConstraint(fx.rec)}, true},
		{"record by class", RecordConstraint, []Constraint{ClassConstraint}, false},

		{"type by descendant", TypeConstraint(fx.base), []Constraint{TypeConstraint(fx.derived)}, true},
		{"type by same", TypeConstraint(fx.base), []Constraint{TypeConstraint(fx.base)}, true},
		{"type by ancestor", TypeConstraint(fx.derived), []Constraint{TypeConstraint(fx.base)}, false},
		{"type by descendant and ctor", TypeConstraint(fx.base), []Constraint{TypeConstraint(fx.derived), ConstructorConstraint}, true},
		{"type by ctor only", TypeConstraint(fx.base), []Constraint{ConstructorConstraint}, false},
		{"type by class only", TypeConstraint(fx.base), []Constraint{ClassConstraint}, false},
		{"type by record", TypeConstraint(fx.base), []Constraint{RecordConstraint}, false},
		{"type by unrelated class", TypeConstraint(fx.base), []Constraint{TypeConstraint(fx.withCreate)}, false},
		{"type by violating second", TypeConstraint(fx.base), []Constraint{TypeConstraint(fx.derived), RecordConstraint}, false},
	}
	for i, tc := range cases {
		p := f.TypeParameter("TCase", string(rune('A'+i)), tc.own...)
		if got := tc.outer.SatisfiedBy(f, p); got != tc.want {
			t.Errorf("%s: SatisfiedBy = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSetConstraints(t *testing.T) {
	fx := newConstraintFixture(t)
	f := fx.f
	p := f.TypeParameter("TBox", "T")
	if ClassConstraint.SatisfiedBy(f, p) {
		t.Fatalf("unconstrained parameter must not satisfy class")
	}
	f.SetConstraints(p, []Constraint{ClassConstraint})
	if !ClassConstraint.SatisfiedBy(f, p) {
		t.Fatalf("constrained parameter must satisfy class")
	}
	if got := f.Constraints(p); len(got) != 1 || got[0].Kind != ConstraintClass {
		t.Fatalf("Constraints = %v", got)
	}
	if got := TypeConstraint(fx.base).Describe(f); got != "TBase" {
		t.Fatalf("Describe = %q", got)
	}
}
