package preprocess

import (
	"strings"

	"pasfront/internal/directive"
	"pasfront/internal/source"
	"pasfront/internal/token"
)

// Include is a file spliced into the unit, directly or through another
// include.
type Include struct {
	Path  string
	Hash  [32]byte
	Depth int
}

// Result is the outcome of one Process call.
type Result struct {
	File       *source.File
	Tokens     []token.Token // final stream, EOF last, Index == position
	Switches   *SwitchRegistry
	Includes   []Include
	Parameters []directive.Directive // executed parameter directives, in order
	Defines    []string              // definition set after the last directive
}

// CodeTokens returns the tokens a parser consumes: no comments, directives
// or EOF.
func (r *Result) CodeTokens() []token.Token {
	out := make([]token.Token, 0, len(r.Tokens))
	for _, tok := range r.Tokens {
		if tok.IsHidden() || tok.IsEOF() {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// CodeText joins CodeTokens with single spaces.
func (r *Result) CodeText() string {
	toks := r.CodeTokens()
	parts := make([]string, len(toks))
	for i, tok := range toks {
		parts[i] = tok.Text
	}
	return strings.Join(parts, " ")
}
