package token

import "strings"

var keywords = map[string]Kind{
	"and":            KwAnd,
	"array":          KwArray,
	"as":             KwAs,
	"asm":            KwAsm,
	"begin":          KwBegin,
	"case":           KwCase,
	"class":          KwClass,
	"const":          KwConst,
	"constructor":    KwConstructor,
	"destructor":     KwDestructor,
	"dispinterface":  KwDispInterface,
	"div":            KwDiv,
	"do":             KwDo,
	"downto":         KwDownto,
	"else":           KwElse,
	"end":            KwEnd,
	"except":         KwExcept,
	"exports":        KwExports,
	"file":           KwFile,
	"finalization":   KwFinalization,
	"finally":        KwFinally,
	"for":            KwFor,
	"function":       KwFunction,
	"goto":           KwGoto,
	"if":             KwIf,
	"implementation": KwImplementation,
	"in":             KwIn,
	"inherited":      KwInherited,
	"initialization": KwInitialization,
	"inline":         KwInline,
	"interface":      KwInterface,
	"is":             KwIs,
	"label":          KwLabel,
	"library":        KwLibrary,
	"mod":            KwMod,
	"nil":            KwNil,
	"not":            KwNot,
	"object":         KwObject,
	"of":             KwOf,
	"or":             KwOr,
	"packed":         KwPacked,
	"procedure":      KwProcedure,
	"program":        KwProgram,
	"property":       KwProperty,
	"raise":          KwRaise,
	"record":         KwRecord,
	"repeat":         KwRepeat,
	"resourcestring": KwResourceString,
	"set":            KwSet,
	"shl":            KwShl,
	"shr":            KwShr,
	"string":         KwString,
	"then":           KwThen,
	"threadvar":      KwThreadVar,
	"to":             KwTo,
	"try":            KwTry,
	"type":           KwType,
	"unit":           KwUnit,
	"until":          KwUntil,
	"uses":           KwUses,
	"var":            KwVar,
	"while":          KwWhile,
	"with":           KwWith,
	"xor":            KwXor,
}

var keywordSpelling = func() map[Kind]string {
	out := make(map[Kind]string, len(keywords))
	for s, k := range keywords {
		out[k] = s
	}
	return out
}()

// LookupKeyword reports whether ident is a reserved word. Pascal keywords are
// ASCII and case-insensitive.
func LookupKeyword(ident string) (Kind, bool) {
	if len(ident) < 2 || len(ident) > 14 {
		return Invalid, false
	}
	k, ok := keywords[strings.ToLower(ident)]
	return k, ok
}
