package directive

import (
	"fmt"
	"strconv"
	"strings"

	"pasfront/internal/token"
)

// ParseError reports a malformed directive. It aborts preprocessing of the
// file the token came from.
type ParseError struct {
	Token token.Token
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%d:%d: malformed directive %s: %s", e.Token.Line, e.Token.Col, e.Token.Text, e.Msg)
}

func errorf(tok token.Token, format string, args ...any) *ParseError {
	return &ParseError{Token: tok, Msg: fmt.Sprintf(format, args...)}
}

// Parse classifies a directive token. It returns ok == false for tokens that
// are not directives and for directive names it does not know; those stay in
// the stream as plain comments.
func Parse(tok token.Token) (Directive, bool, error) {
	if tok.Kind != token.Directive {
		return Directive{}, false, nil
	}
	body, err := unwrap(tok)
	if err != nil {
		return Directive{}, false, err
	}

	name, rest := splitName(body)
	if name == "" {
		return Directive{}, false, nil
	}
	up := strings.ToUpper(name)
	d := Directive{Token: tok}

	switch up {
	case "IF":
		return parseCondExpr(d, KindIf, rest)
	case "ELSEIF":
		return parseCondExpr(d, KindElseIf, rest)
	case "IFDEF", "IFNDEF":
		d.Kind = KindIfDef
		d.Positive = up == "IFDEF"
		if d.Name = firstIdent(rest); d.Name == "" {
			return Directive{}, false, errorf(tok, "missing conditional symbol")
		}
		return d, true, nil
	case "IFOPT":
		return parseIfOpt(d, rest)
	case "ELSE":
		d.Kind = KindElse
		return d, true, nil
	case "ENDIF", "IFEND":
		d.Kind = KindEndIf
		return d, true, nil
	case "DEFINE", "UNDEF":
		d.Kind = KindDefine
		if up == "UNDEF" {
			d.Kind = KindUndefine
		}
		if d.Name = firstIdent(rest); d.Name == "" {
			return Directive{}, false, errorf(tok, "missing conditional symbol")
		}
		return d, true, nil
	case "INCLUDE":
		return parseInclude(d, rest)
	case "YD":
		d.Kind = KindSwitch
		d.Switches = []SwitchSetting{setting(SwitchDefinitionInfo, true)}
		return d, true, nil
	}

	if len(up) == 1 {
		return parseLetter(d, up[0], rest)
	}
	if letter, digits, ok := digitShorthand(up); ok {
		return parseDigitShorthand(d, letter, digits, rest)
	}
	if k, ok := switchByName[up]; ok {
		return parseLongSwitch(d, k, rest)
	}
	if k, ok := paramByName[up]; ok {
		d.Kind = KindParameter
		d.Param = k
		d.Value = unquote(strings.TrimSpace(rest))
		return d, true, nil
	}
	return Directive{}, false, nil
}

// unwrap strips {$ } or (*$ *) and rejects unterminated text.
func unwrap(tok token.Token) (string, error) {
	text := tok.Text
	switch {
	case strings.HasPrefix(text, "{$"):
		if len(text) < 3 || !strings.HasSuffix(text, "}") {
			return "", errorf(tok, "unterminated directive")
		}
		return text[2 : len(text)-1], nil
	case strings.HasPrefix(text, "(*$"):
		if len(text) < 5 || !strings.HasSuffix(text, "*)") {
			return "", errorf(tok, "unterminated directive")
		}
		return text[3 : len(text)-2], nil
	}
	return "", errorf(tok, "not a directive")
}

func splitName(body string) (name, rest string) {
	i := 0
	for i < len(body) && isNameByte(body[i]) {
		i++
	}
	return body[:i], body[i:]
}

func isNameByte(b byte) bool {
	return b == '_' || (b|0x20 >= 'a' && b|0x20 <= 'z') || (b >= '0' && b <= '9')
}

func firstIdent(s string) string {
	s = strings.TrimSpace(s)
	name, _ := splitName(s)
	if name == "" || (name[0] >= '0' && name[0] <= '9') {
		return ""
	}
	return name
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '\'' && s[len(s)-1] == '\'' {
		return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
	}
	return s
}

func parseCondExpr(d Directive, kind Kind, rest string) (Directive, bool, error) {
	d.Kind = kind
	expr, err := ParseExpr(rest)
	if err != nil {
		return Directive{}, false, errorf(d.Token, "%v", err)
	}
	d.Expr = expr
	return d, true, nil
}

func parseIfOpt(d Directive, rest string) (Directive, bool, error) {
	rest = strings.TrimSpace(rest)
	if len(rest) < 2 || (rest[1] != '+' && rest[1] != '-') {
		return Directive{}, false, errorf(d.Token, "IFOPT expects a switch letter and + or -")
	}
	k, ok := switchByLetter[upper(rest[0])]
	if !ok {
		return Directive{}, false, errorf(d.Token, "unknown switch %q", rest[:1])
	}
	d.Kind = KindIfOpt
	d.Switch = k
	d.Positive = rest[1] == '+'
	return d, true, nil
}

func parseInclude(d Directive, rest string) (Directive, bool, error) {
	path := unquote(strings.TrimSpace(rest))
	if path == "" {
		return Directive{}, false, errorf(d.Token, "missing include file name")
	}
	if strings.Contains(path, "*") {
		base := path
		if i := strings.LastIndexAny(base, `/\`); i >= 0 {
			base = base[i+1:]
		}
		stem, ext, _ := strings.Cut(base, ".")
		if stem != "*" || strings.Contains(ext, "*") || strings.Count(path, "*") != 1 {
			return Directive{}, false, errorf(d.Token, "wildcard must be the whole file name, as in *.inc")
		}
	}
	d.Kind = KindInclude
	d.Path = path
	return d, true, nil
}

// parseLetter handles single-letter names: {$I+}, {$R-,Q+}, {$I file.inc},
// {$R res.res}, {$L foo.obj}.
func parseLetter(d Directive, letter byte, rest string) (Directive, bool, error) {
	if rest != "" && (rest[0] == '+' || rest[0] == '-') {
		if _, ok := switchByLetter[letter]; !ok {
			return Directive{}, false, nil
		}
		return parseSwitchList(d, string(letter)+rest)
	}
	arg := strings.TrimSpace(rest)
	if letter == 'I' {
		return parseInclude(d, arg)
	}
	if k, ok := paramByLetter[letter]; ok && arg != "" {
		d.Kind = KindParameter
		d.Param = k
		d.Value = unquote(arg)
		return d, true, nil
	}
	if _, ok := switchByLetter[letter]; ok {
		return Directive{}, false, errorf(d.Token, "switch %c needs + or -", letter)
	}
	return Directive{}, false, nil
}

// parseSwitchList reads comma-separated shorthand switches: R+,Q-,A8.
func parseSwitchList(d Directive, text string) (Directive, bool, error) {
	// anything after whitespace is a comment
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		text = text[:i]
	}
	for _, item := range strings.Split(text, ",") {
		if len(item) < 2 {
			return Directive{}, false, errorf(d.Token, "illegal switch %q", item)
		}
		k, ok := switchByLetter[upper(item[0])]
		if !ok {
			return Directive{}, false, errorf(d.Token, "unknown switch %q", item[:1])
		}
		arg := item[1:]
		switch arg {
		case "+":
			d.Switches = append(d.Switches, setting(k, true))
		case "-":
			d.Switches = append(d.Switches, setting(k, false))
		default:
			s, err := numericSetting(k, arg)
			if err != "" {
				return Directive{}, false, errorf(d.Token, "%s", err)
			}
			d.Switches = append(d.Switches, s)
		}
	}
	d.Kind = KindSwitch
	return d, true, nil
}

// digitShorthand splits "A8" into 'A' and "8".
func digitShorthand(up string) (byte, string, bool) {
	if len(up) < 2 || up[0] < 'A' || up[0] > 'Z' {
		return 0, "", false
	}
	for i := 1; i < len(up); i++ {
		if up[i] < '0' || up[i] > '9' {
			return 0, "", false
		}
	}
	return up[0], up[1:], true
}

func parseDigitShorthand(d Directive, letter byte, digits, rest string) (Directive, bool, error) {
	k, ok := switchByLetter[letter]
	if !ok {
		return Directive{}, false, nil
	}
	if rest != "" && rest[0] == ',' {
		return parseSwitchList(d, string(letter)+digits+rest)
	}
	s, err := numericSetting(k, digits)
	if err != "" {
		return Directive{}, false, errorf(d.Token, "%s", err)
	}
	d.Kind = KindSwitch
	d.Switches = []SwitchSetting{s}
	return d, true, nil
}

func numericSetting(k SwitchKind, digits string) (SwitchSetting, string) {
	if !k.Numeric() {
		return SwitchSetting{}, fmt.Sprintf("switch %s takes no numeric argument", k)
	}
	v, err := strconv.Atoi(digits)
	if err != nil || !k.acceptsValue(v) {
		return SwitchSetting{}, fmt.Sprintf("illegal value %q for switch %s", digits, k)
	}
	return SwitchSetting{Kind: k, Active: v > 1, Value: v}, ""
}

func parseLongSwitch(d Directive, k SwitchKind, rest string) (Directive, bool, error) {
	arg := strings.TrimSpace(rest)
	word, _ := splitName(arg)
	var s SwitchSetting
	switch strings.ToUpper(word) {
	case "ON":
		s = setting(k, true)
	case "OFF":
		s = setting(k, false)
	default:
		if word == "" || word[0] < '0' || word[0] > '9' {
			return Directive{}, false, errorf(d.Token, "switch %s expects ON or OFF", k)
		}
		var msg string
		if s, msg = numericSetting(k, word); msg != "" {
			return Directive{}, false, errorf(d.Token, "%s", msg)
		}
	}
	d.Kind = KindSwitch
	d.Switches = []SwitchSetting{s}
	return d, true, nil
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 32
	}
	return b
}
