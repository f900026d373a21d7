package directive

import (
	"fmt"
	"strconv"
	"strings"
)

// Expr is a $IF / $ELSEIF condition.
type Expr interface {
	exprNode()
	String() string
}

type (
	// Literal is a number, string or boolean constant.
	Literal struct{ Value Value }
	// Name is a possibly dotted identifier: CompilerVersion, System.RTLVersion.
	Name struct{ Ident string }
	// Call is Defined(X), Declared(X) or SizeOf(X).
	Call struct {
		Func string
		Args []Expr
	}
	// Unary is not / - / +.
	Unary struct {
		Op string
		X  Expr
	}
	// Binary is any infix operator, lower-cased.
	Binary struct {
		Op   string
		X, Y Expr
	}
)

func (*Literal) exprNode() {}
func (*Name) exprNode()    {}
func (*Call) exprNode()    {}
func (*Unary) exprNode()   {}
func (*Binary) exprNode()  {}

func (e *Literal) String() string { return e.Value.String() }
func (e *Name) String() string    { return e.Ident }
func (e *Call) String() string {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = a.String()
	}
	return e.Func + "(" + strings.Join(args, ", ") + ")"
}
func (e *Unary) String() string {
	if e.Op == "not" {
		return "not " + e.X.String()
	}
	return e.Op + e.X.String()
}
func (e *Binary) String() string {
	return "(" + e.X.String() + " " + e.Op + " " + e.Y.String() + ")"
}

type exprTokKind uint8

const (
	etEOF exprTokKind = iota
	etIdent
	etInt
	etReal
	etString
	etOp
)

type exprTok struct {
	kind exprTokKind
	text string
}

type exprParser struct {
	toks []exprTok
	pos  int
}

// ParseExpr parses a conditional expression using Pascal precedence:
// not/unary, then * / div mod and shl shr, then + - or xor, then relations.
func ParseExpr(src string) (Expr, error) {
	toks, err := scanExpr(src)
	if err != nil {
		return nil, err
	}
	p := &exprParser{toks: toks}
	if p.peek().kind == etEOF {
		return nil, fmt.Errorf("missing expression")
	}
	e, err := p.relation()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != etEOF {
		return nil, fmt.Errorf("unexpected %q after expression", t.text)
	}
	return e, nil
}

func (p *exprParser) peek() exprTok { return p.toks[p.pos] }

func (p *exprParser) next() exprTok {
	t := p.toks[p.pos]
	if t.kind != etEOF {
		p.pos++
	}
	return t
}

func (p *exprParser) isOp(ops ...string) (string, bool) {
	t := p.peek()
	if t.kind != etOp && t.kind != etIdent {
		return "", false
	}
	low := strings.ToLower(t.text)
	for _, op := range ops {
		if low == op {
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) relation() (Expr, error) {
	x, err := p.simple()
	if err != nil {
		return nil, err
	}
	if op, ok := p.isOp("=", "<>", "<", ">", "<=", ">="); ok {
		p.next()
		y, err := p.simple()
		if err != nil {
			return nil, err
		}
		return &Binary{Op: op, X: x, Y: y}, nil
	}
	return x, nil
}

func (p *exprParser) simple() (Expr, error) {
	x, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("+", "-", "or", "xor")
		if !ok {
			return x, nil
		}
		p.next()
		y, err := p.term()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *exprParser) term() (Expr, error) {
	x, err := p.factor()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.isOp("*", "/", "div", "mod", "and", "shl", "shr")
		if !ok {
			return x, nil
		}
		p.next()
		y, err := p.factor()
		if err != nil {
			return nil, err
		}
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *exprParser) factor() (Expr, error) {
	if op, ok := p.isOp("not", "-", "+"); ok {
		p.next()
		x, err := p.factor()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: op, X: x}, nil
	}
	t := p.next()
	switch t.kind {
	case etInt:
		v, err := parseIntLit(t.text)
		if err != nil {
			return nil, err
		}
		return &Literal{Value: IntValue(v)}, nil
	case etReal:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", t.text)
		}
		return &Literal{Value: RealValue(f)}, nil
	case etString:
		return &Literal{Value: StringValue(t.text)}, nil
	case etIdent:
		switch strings.ToLower(t.text) {
		case "and", "or", "xor", "div", "mod", "shl", "shr":
			return nil, fmt.Errorf("unexpected operator %q", t.text)
		}
		return p.nameOrCall(t.text)
	case etOp:
		if t.text == "(" {
			e, err := p.relation()
			if err != nil {
				return nil, err
			}
			if p.next().text != ")" {
				return nil, fmt.Errorf("missing ')'")
			}
			return e, nil
		}
		return nil, fmt.Errorf("unexpected %q", t.text)
	}
	return nil, fmt.Errorf("unexpected end of expression")
}

func (p *exprParser) nameOrCall(first string) (Expr, error) {
	name := first
	for p.peek().text == "." {
		p.next()
		t := p.next()
		if t.kind != etIdent {
			return nil, fmt.Errorf("expected identifier after '.'")
		}
		name += "." + t.text
	}
	if p.peek().text != "(" {
		return &Name{Ident: name}, nil
	}
	p.next()
	call := &Call{Func: name}
	if p.peek().text == ")" {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.relation()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch p.next().text {
		case ",":
			continue
		case ")":
			return call, nil
		default:
			return nil, fmt.Errorf("missing ')' in call to %s", name)
		}
	}
}

func parseIntLit(text string) (int64, error) {
	var v int64
	var err error
	if hex, ok := strings.CutPrefix(text, "$"); ok {
		v, err = strconv.ParseInt(hex, 16, 64)
	} else {
		v, err = strconv.ParseInt(text, 10, 64)
	}
	if err != nil {
		return 0, fmt.Errorf("bad number %q", text)
	}
	return v, nil
}

func scanExpr(src string) ([]exprTok, error) {
	var out []exprTok
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '_' || (c|0x20 >= 'a' && c|0x20 <= 'z'):
			j := i
			for j < len(src) && isNameByte(src[j]) {
				j++
			}
			out = append(out, exprTok{etIdent, src[i:j]})
			i = j
		case c >= '0' && c <= '9':
			j := i
			for j < len(src) && src[j] >= '0' && src[j] <= '9' {
				j++
			}
			kind := etInt
			if j+1 < len(src) && src[j] == '.' && src[j+1] >= '0' && src[j+1] <= '9' {
				kind = etReal
				j++
				for j < len(src) && src[j] >= '0' && src[j] <= '9' {
					j++
				}
			}
			out = append(out, exprTok{kind, src[i:j]})
			i = j
		case c == '$':
			j := i + 1
			for j < len(src) && (isNameByte(src[j])) {
				j++
			}
			if j == i+1 {
				return nil, fmt.Errorf("bad hex number")
			}
			out = append(out, exprTok{etInt, src[i:j]})
			i = j
		case c == '\'':
			var sb strings.Builder
			j := i + 1
			closed := false
			for j < len(src) {
				if src[j] == '\'' {
					if j+1 < len(src) && src[j+1] == '\'' {
						sb.WriteByte('\'')
						j += 2
						continue
					}
					closed = true
					j++
					break
				}
				sb.WriteByte(src[j])
				j++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string")
			}
			out = append(out, exprTok{etString, sb.String()})
			i = j
		case c == '<' || c == '>':
			if i+1 < len(src) && (src[i+1] == '=' || (c == '<' && src[i+1] == '>')) {
				out = append(out, exprTok{etOp, src[i : i+2]})
				i += 2
			} else {
				out = append(out, exprTok{etOp, src[i : i+1]})
				i++
			}
		case strings.IndexByte("=+-*/().,", c) >= 0:
			out = append(out, exprTok{etOp, src[i : i+1]})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q", c)
		}
	}
	return append(out, exprTok{kind: etEOF}), nil
}
