package directive

import (
	"pasfront/internal/token"
)

// Kind tags the directive variant.
type Kind uint8

const (
	KindInclude Kind = iota + 1
	KindDefine
	KindUndefine
	KindIf
	KindIfDef // IFDEF and IFNDEF, see Positive
	KindIfOpt
	KindElse
	KindElseIf
	KindEndIf // ENDIF and IFEND
	KindSwitch
	KindParameter
)

func (k Kind) String() string {
	switch k {
	case KindInclude:
		return "INCLUDE"
	case KindDefine:
		return "DEFINE"
	case KindUndefine:
		return "UNDEF"
	case KindIf:
		return "IF"
	case KindIfDef:
		return "IFDEF"
	case KindIfOpt:
		return "IFOPT"
	case KindElse:
		return "ELSE"
	case KindElseIf:
		return "ELSEIF"
	case KindEndIf:
		return "ENDIF"
	case KindSwitch:
		return "SWITCH"
	case KindParameter:
		return "PARAMETER"
	}
	return "UNKNOWN"
}

// SwitchSetting is one normalized switch assignment. {$I+},
// {$IOCHECKS ON} and {$I+,R-}'s first element all yield {IOChecks, true}.
type SwitchSetting struct {
	Kind   SwitchKind
	Active bool
	Value  int // numeric argument of {$A8}/{$Z4}, 0 otherwise
}

// Directive is a parsed compiler directive. Only the fields relevant to
// Kind are set.
type Directive struct {
	Kind  Kind
	Token token.Token

	Path     string          // Include
	Name     string          // Define, Undefine, IfDef
	Positive bool            // IfDef: IFDEF vs IFNDEF; IfOpt: '+' vs '-'
	Expr     Expr            // If, ElseIf
	Switch   SwitchKind      // IfOpt
	Switches []SwitchSetting // Switch
	Param    ParamKind       // Parameter
	Value    string          // Parameter argument
}

// IsBranching reports whether the directive takes part in conditional
// compilation.
func (d *Directive) IsBranching() bool {
	switch d.Kind {
	case KindIf, KindIfDef, KindIfOpt, KindElse, KindElseIf, KindEndIf:
		return true
	}
	return false
}

// Opens reports whether the directive starts a new conditional group.
func (d *Directive) Opens() bool {
	return d.Kind == KindIf || d.Kind == KindIfDef || d.Kind == KindIfOpt
}
