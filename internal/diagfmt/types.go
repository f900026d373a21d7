package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"pasfront/internal/types"
)

// TypesOutput is the intrinsic catalog of one target.
type TypesOutput struct {
	Toolchain string       `json:"toolchain"`
	Version   string       `json:"version"`
	Types     []TypeOutput `json:"types"`
}

// TypeOutput is one intrinsic or alias name. Aliases carry the image of
// the type they resolve to.
type TypeOutput struct {
	Name  string `json:"name"`
	Image string `json:"image"`
	Kind  string `json:"kind"`
	Size  int    `json:"size"`
}

// BuildTypesOutput lists the intrinsics of f in catalog order.
func BuildTypesOutput(f *types.Factory) TypesOutput {
	out := TypesOutput{
		Toolchain: f.Toolchain().String(),
		Version:   f.Version().Symbol(),
	}
	for _, name := range f.IntrinsicNames() {
		id, ok := f.Intrinsic(name)
		if !ok {
			continue
		}
		out.Types = append(out.Types, TypeOutput{
			Name:  name,
			Image: f.Image(id),
			Kind:  f.Kind(id).String(),
			Size:  f.Size(id),
		})
	}
	return out
}

// FormatTypesJSON writes the intrinsic catalog as JSON.
func FormatTypesJSON(w io.Writer, f *types.Factory) error {
	return writeJSON(w, BuildTypesOutput(f))
}

// FormatTypesPretty writes the intrinsic catalog as a table.
func FormatTypesPretty(w io.Writer, f *types.Factory) error {
	out := BuildTypesOutput(f)
	nameWidth, imageWidth := len("NAME"), len("IMAGE")
	for _, t := range out.Types {
		nameWidth = max(nameWidth, len(t.Name))
		imageWidth = max(imageWidth, len(t.Image))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", out.Toolchain, out.Version)
	fmt.Fprintf(&b, "%-*s  %-*s  %-12s  %s\n", nameWidth, "NAME", imageWidth, "IMAGE", "KIND", "SIZE")
	for _, t := range out.Types {
		fmt.Fprintf(&b, "%-*s  %-*s  %-12s  %d\n", nameWidth, t.Name, imageWidth, t.Image, t.Kind, t.Size)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
