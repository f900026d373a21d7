package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"pasfront/internal/symbols"
	"pasfront/internal/types"
)

// maxMemberDepth bounds how deep nested scopes are listed.
const maxMemberDepth = 4

// SymbolsOpts configures symbol table dumps.
type SymbolsOpts struct {
	IncludeStdlib bool // list standard library units too
	Members       bool // list type members and routine parameters
	PathMode      PathMode
	BaseDir       string
}

// SymbolsOutput is the JSON form of a symbol table.
type SymbolsOutput struct {
	Units []UnitOutput `json:"units"`
}

type UnitOutput struct {
	Name               string             `json:"name"`
	Kind               string             `json:"kind"`
	Path               string             `json:"path"`
	Stdlib             bool               `json:"stdlib,omitempty"`
	InterfaceUses      []string           `json:"interface_uses,omitempty"`
	ImplementationUses []string           `json:"implementation_uses,omitempty"`
	Declarations       []DeclOutput       `json:"declarations"`
	Unresolved         []OccurrenceOutput `json:"unresolved,omitempty"`
}

// DeclOutput is one declaration. Type is the declared type image, or the
// result type of a function; TypeKind is set for type declarations.
type DeclOutput struct {
	Kind       string       `json:"kind"`
	Name       string       `json:"name"`
	Qualified  string       `json:"qualified"`
	Type       string       `json:"type,omitempty"`
	TypeKind   string       `json:"type_kind,omitempty"`
	Visibility string       `json:"visibility,omitempty"`
	Flags      []string     `json:"flags,omitempty"`
	Line       uint32       `json:"line"`
	Col        uint32       `json:"col"`
	Members    []DeclOutput `json:"members,omitempty"`
}

type OccurrenceOutput struct {
	Name      string   `json:"name"`
	Qualifier string   `json:"qualifier,omitempty"`
	Line      uint32   `json:"line"`
	Col       uint32   `json:"col"`
	Flags     []string `json:"flags,omitempty"`
}

// BuildSymbolsOutput converts t into its JSON structure.
func BuildSymbolsOutput(t *symbols.Table, opts SymbolsOpts) SymbolsOutput {
	out := SymbolsOutput{Units: []UnitOutput{}}
	for _, u := range t.Units() {
		if u.Stdlib && !opts.IncludeStdlib {
			continue
		}
		out.Units = append(out.Units, buildUnit(t, u, opts))
	}
	return out
}

func buildUnit(t *symbols.Table, u *symbols.Unit, opts SymbolsOpts) UnitOutput {
	out := UnitOutput{
		Name:               u.Name,
		Kind:               u.Kind.String(),
		Path:               FormatPath(u.Path, opts.PathMode, opts.BaseDir),
		Stdlib:             u.Stdlib,
		InterfaceUses:      unitNames(u.InterfaceUses),
		ImplementationUses: unitNames(u.ImplementationUses),
		Declarations:       buildDecls(t, u.Scope, opts, 0),
	}
	for _, occ := range u.Unresolved() {
		o := OccurrenceOutput{Name: occ.Name, Line: occ.Line, Col: occ.Col, Flags: occ.Flags.Strings()}
		if occ.Qualifier >= 0 && occ.Qualifier < len(u.Occurrences) {
			o.Qualifier = u.Occurrences[occ.Qualifier].Name
		}
		out.Unresolved = append(out.Unresolved, o)
	}
	return out
}

func unitNames(us []*symbols.Unit) []string {
	if len(us) == 0 {
		return nil
	}
	out := make([]string, len(us))
	for i, u := range us {
		out[i] = u.Name
	}
	return out
}

func buildDecls(t *symbols.Table, scope symbols.ScopeID, opts SymbolsOpts, depth int) []DeclOutput {
	ids := t.Declarations(scope)
	out := make([]DeclOutput, 0, len(ids))
	for _, id := range ids {
		sym := t.Symbol(id)
		if sym == nil || sym.Kind == symbols.SymbolUnit {
			continue
		}
		d := DeclOutput{
			Kind:       sym.Kind.String(),
			Name:       sym.Name,
			Qualified:  t.QualifiedName(id),
			Visibility: memberVisibility(t, sym),
			Flags:      sym.Flags.Strings(),
			Line:       sym.Line,
			Col:        sym.Col,
		}
		if sym.Type != types.NoTypeID {
			d.Type = t.Factory.Image(sym.Type)
			if sym.Kind == symbols.SymbolType {
				d.TypeKind = t.Factory.Kind(sym.Type).String()
			}
		}
		if opts.Members && depth < maxMemberDepth && opensMembers(sym) {
			d.Members = buildDecls(t, sym.Members, opts, depth+1)
		}
		out = append(out, d)
	}
	return out
}

func opensMembers(sym *symbols.Symbol) bool {
	if !sym.Members.IsValid() {
		return false
	}
	return sym.Kind == symbols.SymbolType || sym.Kind == symbols.SymbolRoutine
}

// memberVisibility is empty outside of structured types.
func memberVisibility(t *symbols.Table, sym *symbols.Symbol) string {
	sc := t.Scope(sym.Scope)
	if sc == nil || !sc.Owner.IsValid() {
		return ""
	}
	owner := t.Symbol(sc.Owner)
	if owner == nil || owner.Kind != symbols.SymbolType {
		return ""
	}
	return sym.Visibility.String()
}

// FormatSymbolsJSON writes the symbol table as JSON.
func FormatSymbolsJSON(w io.Writer, t *symbols.Table, opts SymbolsOpts) error {
	return writeJSON(w, BuildSymbolsOutput(t, opts))
}

// FormatSymbolsPretty writes the symbol table as an indented tree.
func FormatSymbolsPretty(w io.Writer, t *symbols.Table, opts SymbolsOpts) error {
	var b strings.Builder
	for _, u := range BuildSymbolsOutput(t, opts).Units {
		fmt.Fprintf(&b, "%s %s (%s)\n", u.Kind, u.Name, u.Path)
		if len(u.InterfaceUses) > 0 {
			fmt.Fprintf(&b, "  uses %s\n", strings.Join(u.InterfaceUses, ", "))
		}
		if len(u.ImplementationUses) > 0 {
			fmt.Fprintf(&b, "  implementation uses %s\n", strings.Join(u.ImplementationUses, ", "))
		}
		writeDecls(&b, u.Declarations, 1)
		for _, occ := range u.Unresolved {
			name := occ.Name
			if occ.Qualifier != "" {
				name = occ.Qualifier + "." + name
			}
			fmt.Fprintf(&b, "  unresolved %s @%d:%d\n", name, occ.Line, occ.Col)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeDecls(b *strings.Builder, decls []DeclOutput, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, d := range decls {
		fmt.Fprintf(b, "%s%s %s", indent, d.Kind, d.Name)
		switch {
		case d.TypeKind != "":
			fmt.Fprintf(b, " = %s", d.TypeKind)
		case d.Type != "":
			fmt.Fprintf(b, ": %s", d.Type)
		}
		if d.Visibility != "" {
			fmt.Fprintf(b, " (%s)", d.Visibility)
		}
		if len(d.Flags) > 0 {
			fmt.Fprintf(b, " [%s]", strings.Join(d.Flags, ", "))
		}
		fmt.Fprintf(b, " @%d:%d\n", d.Line, d.Col)
		writeDecls(b, d.Members, depth+1)
	}
}
