package preprocess

import (
	"pasfront/internal/diag"
	"pasfront/internal/directive"
	"pasfront/internal/token"
)

// node is an executable element of the directive tree: *simpleNode or
// *groupNode.
type node interface {
	node()
}

// simpleNode is a non-branching directive: define, undefine, include,
// switch or parameter.
type simpleNode struct {
	dir directive.Directive
	pos int // arena position of the directive token
}

// groupNode is one $IF...$ENDIF group.
type groupNode struct {
	branches []*branch
}

// branch is one arm of a group. tokens holds the arena positions lexically
// inside the arm, nested directive tokens included.
type branch struct {
	dir    directive.Directive
	pos    int
	tokens []int
	nodes  []node
}

func (*simpleNode) node() {}
func (*groupNode) node()  {}

// builder groups one file's tokens into a directive tree in a single pass.
type builder struct {
	f     *fileUnit
	top   []node
	stack []*groupNode
}

func (b *builder) current() *branch {
	if len(b.stack) == 0 {
		return nil
	}
	g := b.stack[len(b.stack)-1]
	return g.branches[len(g.branches)-1]
}

// parent is the branch enclosing the innermost open group.
func (b *builder) parent() *branch {
	if len(b.stack) < 2 {
		return nil
	}
	g := b.stack[len(b.stack)-2]
	return g.branches[len(g.branches)-1]
}

func (b *builder) capture(pos int) {
	if br := b.current(); br != nil {
		br.tokens = append(br.tokens, pos)
	}
}

func (b *builder) attach(n node) {
	if br := b.current(); br != nil {
		br.nodes = append(br.nodes, n)
		return
	}
	b.top = append(b.top, n)
}

func (b *builder) build() ([]node, error) {
	toks := b.f.toks
	for pos := range toks {
		tok := &toks[pos]
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind != token.Directive {
			b.capture(pos)
			continue
		}
		d, ok, err := directive.Parse(*tok)
		if err != nil {
			return nil, err
		}
		if !ok {
			b.capture(pos)
			continue
		}
		switch {
		case d.Opens():
			g := &groupNode{branches: []*branch{{dir: d, pos: pos}}}
			b.capture(pos)
			b.attach(g)
			b.stack = append(b.stack, g)
		case d.Kind == directive.KindElse || d.Kind == directive.KindElseIf:
			if len(b.stack) == 0 {
				b.f.report(diag.PPUnexpectedElse, tok, "$"+d.Kind.String()+" without $IF")
				continue
			}
			g := b.stack[len(b.stack)-1]
			if last := g.branches[len(g.branches)-1]; last.dir.Kind == directive.KindElse {
				b.f.report(diag.PPUnexpectedElse, tok, "$"+d.Kind.String()+" after $ELSE")
				b.capture(pos)
				continue
			}
			if p := b.parent(); p != nil {
				p.tokens = append(p.tokens, pos)
			}
			g.branches = append(g.branches, &branch{dir: d, pos: pos})
		case d.Kind == directive.KindEndIf:
			if len(b.stack) == 0 {
				b.f.report(diag.PPUnexpectedEndIf, tok, "$ENDIF without $IF")
				continue
			}
			if p := b.parent(); p != nil {
				p.tokens = append(p.tokens, pos)
			}
			b.stack = b.stack[:len(b.stack)-1]
		default:
			b.capture(pos)
			b.attach(&simpleNode{dir: d, pos: pos})
		}
	}
	for i := len(b.stack) - 1; i >= 0; i-- {
		first := b.stack[i].branches[0]
		b.f.report(diag.PPUnterminatedIf, &toks[first.pos], "unterminated $"+first.dir.Kind.String())
	}
	b.stack = nil
	return b.top, nil
}
