package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"pasfront/internal/source"
	"pasfront/internal/token"
)

// TokenOpts configures token dumps.
type TokenOpts struct {
	ShowHidden bool // comments and directives
	PathMode   PathMode
	BaseDir    string
}

// TokenOutput is one token of a JSON dump.
type TokenOutput struct {
	Index  int           `json:"index"`
	Kind   string        `json:"kind"`
	Text   string        `json:"text,omitempty"`
	Line   uint32        `json:"line"`
	Col    uint32        `json:"col"`
	Span   source.Span   `json:"span"`
	File   string        `json:"file,omitempty"` // set for included tokens
	Flags  []string      `json:"flags,omitempty"`
	Origin *OriginOutput `json:"origin,omitempty"`
}

// OriginOutput is the include directive that spliced a token in.
type OriginOutput struct {
	Path string `json:"path"`
	Line uint32 `json:"line"`
	Col  uint32 `json:"col"`
}

func tokenFlags(tok *token.Token) []string {
	var out []string
	if tok.IsHidden() {
		out = append(out, "hidden")
	}
	if tok.Included() {
		out = append(out, "included")
	}
	return out
}

// visibleTokens applies ShowHidden and stops after EOF.
func visibleTokens(tokens []token.Token, opts TokenOpts) []token.Token {
	out := make([]token.Token, 0, len(tokens))
	for _, tok := range tokens {
		if tok.IsHidden() && !opts.ShowHidden {
			continue
		}
		out = append(out, tok)
		if tok.IsEOF() {
			break
		}
	}
	return out
}

// FormatTokensPretty writes one token per line.
func FormatTokensPretty(w io.Writer, tokens []token.Token, fs *source.FileSet, opts TokenOpts) error {
	var b strings.Builder
	for i, tok := range visibleTokens(tokens, opts) {
		fmt.Fprintf(&b, "%4d: %-14s", i, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(&b, " %q", tok.Text)
		}
		fmt.Fprintf(&b, " at %d:%d", tok.Line, tok.Col)
		if tok.Included() && fs != nil && int(tok.Span.File) < fs.Len() {
			fmt.Fprintf(&b, " in %s", FormatPath(fs.Get(tok.Span.File).Path, opts.PathMode, opts.BaseDir))
		}
		if flags := tokenFlags(&tok); len(flags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
		}
		if tok.Origin != nil {
			fmt.Fprintf(&b, " (from %s:%d:%d)",
				FormatPath(tok.Origin.Path, opts.PathMode, opts.BaseDir), tok.Origin.Line, tok.Origin.Col)
		}
		b.WriteByte('\n')
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// BuildTokensOutput converts tokens into their JSON structure.
func BuildTokensOutput(tokens []token.Token, fs *source.FileSet, opts TokenOpts) []TokenOutput {
	visible := visibleTokens(tokens, opts)
	output := make([]TokenOutput, 0, len(visible))
	for i, tok := range visible {
		out := TokenOutput{
			Index: i,
			Kind:  tok.Kind.String(),
			Text:  tok.Text,
			Line:  tok.Line,
			Col:   tok.Col,
			Span:  tok.Span,
			Flags: tokenFlags(&tok),
		}
		if tok.Included() && fs != nil && int(tok.Span.File) < fs.Len() {
			out.File = FormatPath(fs.Get(tok.Span.File).Path, opts.PathMode, opts.BaseDir)
		}
		if tok.Origin != nil {
			out.Origin = &OriginOutput{
				Path: FormatPath(tok.Origin.Path, opts.PathMode, opts.BaseDir),
				Line: tok.Origin.Line,
				Col:  tok.Origin.Col,
			}
		}
		output = append(output, out)
	}
	return output
}

// FormatTokensJSON writes the tokens as a JSON array.
func FormatTokensJSON(w io.Writer, tokens []token.Token, fs *source.FileSet, opts TokenOpts) error {
	return writeJSON(w, BuildTokensOutput(tokens, fs, opts))
}
