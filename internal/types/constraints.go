package types

import (
	"fmt"

	"pasfront/internal/names"
)

// ConstraintKind enumerates generic parameter constraints.
type ConstraintKind uint8

const (
	ConstraintType        ConstraintKind = iota + 1 // a specific class or interface
	ConstraintClass                                 // class
	ConstraintConstructor                           // constructor
	ConstraintRecord                                // record
)

func (k ConstraintKind) String() string {
	switch k {
	case ConstraintType:
		return "type"
	case ConstraintClass:
		return "class"
	case ConstraintConstructor:
		return "constructor"
	case ConstraintRecord:
		return "record"
	default:
		return fmt.Sprintf("ConstraintKind(%d)", k)
	}
}

// Constraint is one bound of a type parameter. Type is set only for
// ConstraintType.
type Constraint struct {
	Kind ConstraintKind
	Type TypeID
}

// TypeConstraint builds a constraint on a specific type.
func TypeConstraint(t TypeID) Constraint { return Constraint{Kind: ConstraintType, Type: t} }

// ClassConstraint, ConstructorConstraint and RecordConstraint are the
// keyword constraints.
var (
	ClassConstraint       = Constraint{Kind: ConstraintClass}
	ConstructorConstraint = Constraint{Kind: ConstraintConstructor}
	RecordConstraint      = Constraint{Kind: ConstraintRecord}
)

// Describe renders c for diagnostics.
func (c Constraint) Describe(f *Factory) string {
	if c.Kind == ConstraintType {
		return f.String(c.Type)
	}
	return c.Kind.String()
}

// SatisfiedBy reports whether t meets c. A type parameter meets c only if
// its own constraints prove it; unresolved types never do.
func (c Constraint) SatisfiedBy(f *Factory, t TypeID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return c.satisfiedBy(f, t)
}

func (c Constraint) satisfiedBy(f *Factory, t TypeID) bool {
	if !f.resolved(t) {
		return false
	}
	if f.kindOf(t) == KindTypeParameter {
		return c.satisfiedByParam(f, f.base(t))
	}
	return c.satisfiedByConcrete(f, t)
}

func (c Constraint) satisfiedByConcrete(f *Factory, t TypeID) bool {
	switch c.Kind {
	case ConstraintClass:
		return f.kindOf(t) == KindClass || f.isNil(t)
	case ConstraintConstructor:
		switch f.kindOf(t) {
		case KindDynamicArray, KindFixedArray:
			return true
		case KindClass:
			return f.hasDefaultConstructor(t)
		}
		return f.isNil(t)
	case ConstraintRecord:
		return f.kindOf(t) == KindRecord
	case ConstraintType:
		// The compiler accepts class references where the class itself is
		// required.
		if tt := f.get(f.base(t)); tt.Kind == KindClassReference {
			t = tt.Elem
		}
		return f.isA(t, c.Type)
	}
	return false
}

func (f *Factory) isNil(t TypeID) bool { return f.stripWeak(t) == f.nilType }

// hasDefaultConstructor looks for a public or published Create without
// parameters on t and its ancestors.
func (f *Factory) hasDefaultConstructor(t TypeID) bool {
	for _, cur := range f.chain(t) {
		info, _ := f.structInfo(cur)
		for _, m := range info.Members {
			if m.Kind != MemberConstructor || !names.Equal(m.Name, "Create") {
				continue
			}
			if m.Visibility != VisPublic && m.Visibility != VisPublished {
				continue
			}
			if requiredParams(m.Params) == 0 {
				return true
			}
		}
	}
	return false
}

func requiredParams(params []Param) int {
	n := 0
	for _, p := range params {
		if !p.HasDefault {
			n++
		}
	}
	return n
}

// verdict is the outcome of comparing one constraint against another.
type verdict uint8

const (
	violated verdict = iota
	compatible
	satisfied
)

// satisfiedByParam folds the parameter's own constraints. Any violation
// fails; at least one constraint must prove c.
func (c Constraint) satisfiedByParam(f *Factory, param TypeID) bool {
	state := compatible
	for _, own := range f.params[f.get(param).Payload].Constraints {
		switch c.against(f, own) {
		case violated:
			return false
		case satisfied:
			state = satisfied
		}
	}
	return state == satisfied
}

// against decides whether a parameter bounded by own meets c.
func (c Constraint) against(f *Factory, own Constraint) verdict {
	switch c.Kind {
	case ConstraintClass:
		switch own.Kind {
		case ConstraintClass:
			return satisfied
		case ConstraintRecord:
			return violated
		case ConstraintConstructor:
			return compatible
		case ConstraintType:
			switch f.kindOf(own.Type) {
			case KindClass:
				return satisfied
			case KindInterface:
				return compatible
			}
			return violated
		}
	case ConstraintConstructor:
		switch own.Kind {
		case ConstraintConstructor:
			return satisfied
		case ConstraintClass:
			return compatible
		case ConstraintRecord:
			return violated
		case ConstraintType:
			if c.satisfiedByConcrete(f, own.Type) {
				return satisfied
			}
			if f.kindOf(own.Type) == KindInterface || f.kindOf(own.Type) == KindClass {
				return compatible
			}
			return violated
		}
	case ConstraintRecord:
		switch own.Kind {
		case ConstraintRecord:
			return satisfied
		case ConstraintType:
			if f.kindOf(own.Type) == KindRecord {
				return satisfied
			}
		}
		return violated
	case ConstraintType:
		target := f.kindOf(c.Type)
		switch own.Kind {
		case ConstraintType:
			if !f.resolved(own.Type) {
				return violated
			}
			if f.isA(own.Type, c.Type) {
				return satisfied
			}
			if f.isA(c.Type, own.Type) || target == KindInterface || f.kindOf(own.Type) == KindInterface {
				return compatible
			}
			return violated
		case ConstraintClass, ConstraintConstructor:
			if target == KindClass || target == KindInterface {
				return compatible
			}
			return violated
		case ConstraintRecord:
			if target == KindRecord {
				return compatible
			}
			return violated
		}
	}
	return violated
}
