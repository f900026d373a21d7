package ast

// RefFlags describe how a name is used at a reference site.
type RefFlags uint8

const (
	// RefMethodReference marks @Name.
	RefMethodReference RefFlags = 1 << iota
	// RefGeneric marks Name<Args>.
	RefGeneric
	// RefSelf marks the Self identifier.
	RefSelf
	// RefExplicitInvocation marks Name(...) and Name().
	RefExplicitInvocation
	// RefInherited marks the name after the inherited keyword.
	RefInherited
)

// RefPart is one identifier of a designator chain A.B<T>.C(...).
type RefPart struct {
	Name     Ident
	TypeArgs []TypeExpr
	Flags    RefFlags
	Args     int // argument count of an explicit invocation
}

// NameRef is a designator chain found in a statement or constant
// expression. Each part qualifies the next.
type NameRef struct {
	Parts []RefPart
}

// Text joins the chain with dots.
func (r *NameRef) Text() string {
	ids := make([]Ident, len(r.Parts))
	for i, p := range r.Parts {
		ids[i] = p.Name
	}
	return JoinIdents(ids)
}
