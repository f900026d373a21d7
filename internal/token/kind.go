package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident is an identifier, including directive words such as
	// "overload" or "helper" that are only keywords in context.
	Ident
	// IntLit is an integer literal: 42, $FF, %1010, &17.
	IntLit
	// RealLit is a real literal: 3.14, 1e10.
	RealLit
	// StringLit is a quoted string or control string: 'abc', #13#10.
	StringLit
	// Comment is a {...}, (*...*) or // comment. Hidden.
	Comment
	// Directive is a {$...} or (*$...*) compiler directive. Hidden.
	Directive

	kwStart
	KwAnd            // and
	KwArray          // array
	KwAs             // as
	KwAsm            // asm
	KwBegin          // begin
	KwCase           // case
	KwClass          // class
	KwConst          // const
	KwConstructor    // constructor
	KwDestructor     // destructor
	KwDispInterface  // dispinterface
	KwDiv            // div
	KwDo             // do
	KwDownto         // downto
	KwElse           // else
	KwEnd            // end
	KwExcept         // except
	KwExports        // exports
	KwFile           // file
	KwFinalization   // finalization
	KwFinally        // finally
	KwFor            // for
	KwFunction       // function
	KwGoto           // goto
	KwIf             // if
	KwImplementation // implementation
	KwIn             // in
	KwInherited      // inherited
	KwInitialization // initialization
	KwInline         // inline
	KwInterface      // interface
	KwIs             // is
	KwLabel          // label
	KwLibrary        // library
	KwMod            // mod
	KwNil            // nil
	KwNot            // not
	KwObject         // object
	KwOf             // of
	KwOr             // or
	KwPacked         // packed
	KwProcedure      // procedure
	KwProgram        // program
	KwProperty       // property
	KwRaise          // raise
	KwRecord         // record
	KwRepeat         // repeat
	KwResourceString // resourcestring
	KwSet            // set
	KwShl            // shl
	KwShr            // shr
	KwString         // string
	KwThen           // then
	KwThreadVar      // threadvar
	KwTo             // to
	KwTry            // try
	KwType           // type
	KwUnit           // unit
	KwUntil          // until
	KwUses           // uses
	KwVar            // var
	KwWhile          // while
	KwWith           // with
	KwXor            // xor
	kwEnd

	// Plus is '+'.
	Plus
	// Minus is '-'.
	Minus
	// Star is '*'.
	Star
	// Slash is '/'.
	Slash
	// Assign is ':='.
	Assign
	// Eq is '='.
	Eq
	// NotEq is '<>'.
	NotEq
	// Lt is '<'.
	Lt
	// LtEq is '<='.
	LtEq
	// Gt is '>'.
	Gt
	// GtEq is '>='.
	GtEq
	// LParen is '('.
	LParen
	// RParen is ')'.
	RParen
	// LBracket is '[' or '(.'.
	LBracket
	// RBracket is ']' or '.)'.
	RBracket
	// Semicolon is ';'.
	Semicolon
	// Colon is ':'.
	Colon
	// Comma is ','.
	Comma
	// Dot is '.'.
	Dot
	// DotDot is '..'.
	DotDot
	// Caret is '^'.
	Caret
	// At is '@'.
	At
	// AtAt is '@@'.
	AtAt
)

var kindNames = map[Kind]string{
	Invalid:   "Invalid",
	EOF:       "EOF",
	Ident:     "Ident",
	IntLit:    "IntLit",
	RealLit:   "RealLit",
	StringLit: "StringLit",
	Comment:   "Comment",
	Directive: "Directive",
	Plus:      "+",
	Minus:     "-",
	Star:      "*",
	Slash:     "/",
	Assign:    ":=",
	Eq:        "=",
	NotEq:     "<>",
	Lt:        "<",
	LtEq:      "<=",
	Gt:        ">",
	GtEq:      ">=",
	LParen:    "(",
	RParen:    ")",
	LBracket:  "[",
	RBracket:  "]",
	Semicolon: ";",
	Colon:     ":",
	Comma:     ",",
	Dot:       ".",
	DotDot:    "..",
	Caret:     "^",
	At:        "@",
	AtAt:      "@@",
}

// IsKeyword reports whether k is a reserved word.
func (k Kind) IsKeyword() bool {
	return k > kwStart && k < kwEnd
}

// IsLiteral reports whether k is a literal.
func (k Kind) IsLiteral() bool {
	return k == IntLit || k == RealLit || k == StringLit
}

// String returns the spelling for punctuation and keywords and the kind name
// for everything else.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if k.IsKeyword() {
		return keywordSpelling[k]
	}
	return "Unknown"
}
