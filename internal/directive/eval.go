package directive

import (
	"math"
	"strconv"
	"strings"
)

// ValueKind tags a Value.
type ValueKind uint8

const (
	// Unknown is anything the evaluator could not resolve.
	Unknown ValueKind = iota
	Bool
	Int
	Real
	String
)

// Value is the result of evaluating a condition or one of its operands.
type Value struct {
	Kind ValueKind
	B    bool
	I    int64
	R    float64
	S    string
}

func BoolValue(b bool) Value     { return Value{Kind: Bool, B: b} }
func IntValue(i int64) Value     { return Value{Kind: Int, I: i} }
func RealValue(f float64) Value  { return Value{Kind: Real, R: f} }
func StringValue(s string) Value { return Value{Kind: String, S: s} }
func (v Value) IsNumber() bool   { return v.Kind == Int || v.Kind == Real }
func (v Value) Truthy() bool     { return v.Kind == Bool && v.B }

func (v Value) float() float64 {
	if v.Kind == Int {
		return float64(v.I)
	}
	return v.R
}

func (v Value) String() string {
	switch v.Kind {
	case Bool:
		if v.B {
			return "True"
		}
		return "False"
	case Int:
		return strconv.FormatInt(v.I, 10)
	case Real:
		return strconv.FormatFloat(v.R, 'f', -1, 64)
	case String:
		return "'" + strings.ReplaceAll(v.S, "'", "''") + "'"
	}
	return "<unknown>"
}

// Env resolves names inside conditions.
type Env interface {
	// Defined reports whether a conditional symbol is defined.
	Defined(name string) bool
	// Constant returns the value of a named constant such as
	// CompilerVersion.
	Constant(name string) (Value, bool)
	// SizeOf returns the byte size of a type name.
	SizeOf(name string) (int, bool)
}

// Eval computes e. Unresolvable parts evaluate to Unknown; the caller treats
// anything other than Bool true as false.
func Eval(e Expr, env Env) Value {
	switch e := e.(type) {
	case *Literal:
		return e.Value
	case *Name:
		return evalName(e.Ident, env)
	case *Call:
		return evalCall(e, env)
	case *Unary:
		return evalUnary(e.Op, Eval(e.X, env))
	case *Binary:
		return evalBinary(e.Op, Eval(e.X, env), Eval(e.Y, env))
	}
	return Value{}
}

// Holds is Eval followed by the truthiness rule.
func Holds(e Expr, env Env) bool {
	return Eval(e, env).Truthy()
}

func evalName(name string, env Env) Value {
	switch strings.ToLower(name) {
	case "true":
		return BoolValue(true)
	case "false":
		return BoolValue(false)
	}
	if env != nil {
		if v, ok := env.Constant(name); ok {
			return v
		}
		// System.CompilerVersion
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			if v, ok := env.Constant(name[i+1:]); ok {
				return v
			}
		}
	}
	return Value{}
}

func argName(e Expr) (string, bool) {
	if n, ok := e.(*Name); ok {
		return n.Ident, true
	}
	return "", false
}

func evalCall(c *Call, env Env) Value {
	if len(c.Args) != 1 || env == nil {
		return Value{}
	}
	name, ok := argName(c.Args[0])
	if !ok {
		return Value{}
	}
	switch strings.ToLower(c.Func) {
	case "defined":
		return BoolValue(env.Defined(name))
	case "declared":
		_, found := env.Constant(name)
		return BoolValue(found)
	case "sizeof":
		if n, ok := env.SizeOf(name); ok {
			return IntValue(int64(n))
		}
	}
	return Value{}
}

func evalUnary(op string, x Value) Value {
	switch op {
	case "not":
		switch x.Kind {
		case Bool:
			return BoolValue(!x.B)
		case Int:
			return IntValue(^x.I)
		}
	case "-":
		switch x.Kind {
		case Int:
			return IntValue(-x.I)
		case Real:
			return RealValue(-x.R)
		}
	case "+":
		if x.IsNumber() {
			return x
		}
	}
	return Value{}
}

func evalBinary(op string, x, y Value) Value {
	switch op {
	case "and", "or", "xor":
		return evalLogic(op, x, y)
	case "=", "<>", "<", ">", "<=", ">=":
		return evalCompare(op, x, y)
	case "+":
		if x.Kind == String && y.Kind == String {
			return StringValue(x.S + y.S)
		}
	}
	if !x.IsNumber() || !y.IsNumber() {
		return Value{}
	}
	if x.Kind == Int && y.Kind == Int {
		a, b := x.I, y.I
		switch op {
		case "+":
			return IntValue(a + b)
		case "-":
			return IntValue(a - b)
		case "*":
			return IntValue(a * b)
		case "div":
			if b != 0 {
				return IntValue(a / b)
			}
			return Value{}
		case "mod":
			if b != 0 {
				return IntValue(a % b)
			}
			return Value{}
		case "shl":
			if b >= 0 && b < 64 {
				return IntValue(a << uint(b))
			}
			return Value{}
		case "shr":
			if b >= 0 && b < 64 {
				return IntValue(int64(uint64(a) >> uint(b)))
			}
			return Value{}
		}
	}
	a, b := x.float(), y.float()
	switch op {
	case "+":
		return RealValue(a + b)
	case "-":
		return RealValue(a - b)
	case "*":
		return RealValue(a * b)
	case "/":
		if b != 0 {
			return RealValue(a / b)
		}
	}
	return Value{}
}

// evalLogic is three-valued: false and Unknown is false, true or Unknown
// is true.
func evalLogic(op string, x, y Value) Value {
	if x.Kind == Int && y.Kind == Int {
		switch op {
		case "and":
			return IntValue(x.I & y.I)
		case "or":
			return IntValue(x.I | y.I)
		default:
			return IntValue(x.I ^ y.I)
		}
	}
	xb, yb := x.Kind == Bool, y.Kind == Bool
	switch op {
	case "and":
		if (xb && !x.B) || (yb && !y.B) {
			return BoolValue(false)
		}
		if xb && yb {
			return BoolValue(true)
		}
	case "or":
		if (xb && x.B) || (yb && y.B) {
			return BoolValue(true)
		}
		if xb && yb {
			return BoolValue(false)
		}
	case "xor":
		if xb && yb {
			return BoolValue(x.B != y.B)
		}
	}
	return Value{}
}

func evalCompare(op string, x, y Value) Value {
	var c int
	switch {
	case x.IsNumber() && y.IsNumber():
		a, b := x.float(), y.float()
		if math.IsNaN(a) || math.IsNaN(b) {
			return Value{}
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	case x.Kind == String && y.Kind == String:
		c = strings.Compare(x.S, y.S)
	case x.Kind == Bool && y.Kind == Bool:
		if op != "=" && op != "<>" {
			return Value{}
		}
		if x.B != y.B {
			c = 1
		}
	default:
		return Value{}
	}
	switch op {
	case "=":
		return BoolValue(c == 0)
	case "<>":
		return BoolValue(c != 0)
	case "<":
		return BoolValue(c < 0)
	case ">":
		return BoolValue(c > 0)
	case "<=":
		return BoolValue(c <= 0)
	}
	return BoolValue(c >= 0)
}
